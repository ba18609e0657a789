package http

import (
	"context"
	"io"

	"icuboard/internal/explain"
	"icuboard/internal/query"
	"icuboard/internal/services"
	"icuboard/pkg/contracts/domain"
)

// DatasetServiceInterface defines what the dataset handler needs from the
// service layer. Handlers depend on this rather than the concrete type so
// tests can substitute fakes.
type DatasetServiceInterface interface {
	GetLabels(ctx context.Context) ([]string, error)
	GetCareUnits(ctx context.Context) ([]string, error)
	GetObservations(ctx context.Context, filter query.Filter, limit, offset int) (*services.ObservationPage, error)
	GetSummary(ctx context.Context, filter query.Filter) (*services.SummaryResponse, error)
	GetHistogram(ctx context.Context, filter query.Filter, bins int) ([]domain.HistogramBin, error)
	GetTrend(ctx context.Context, filter query.Filter) ([]domain.TrendPoint, error)
	GetCorrelation(ctx context.Context, filter query.Filter) (domain.CorrelationMatrix, error)
	GetDistribution(ctx context.Context, filter query.Filter, top int) ([]domain.ValueCount, error)
	ExportCSV(ctx context.Context, w io.Writer, filter query.Filter) error
	ExportXLSX(ctx context.Context, w io.Writer, filter query.Filter) error
	Reload(ctx context.Context) (domain.SnapshotInfo, error)
	SnapshotInfo(ctx context.Context) (domain.SnapshotInfo, error)
}

// ExplainServiceInterface defines what the explain handler needs.
type ExplainServiceInterface interface {
	GetModelInfo(ctx context.Context) (*services.ModelInfo, error)
	GetROC(ctx context.Context) (explain.ROCCurve, error)
	GetPR(ctx context.Context) (explain.PRCurve, error)
	GetConfusion(ctx context.Context, threshold float64) (explain.ConfusionMatrix, error)
	GetAttributions(ctx context.Context, top int) ([]explain.Attribution, error)
}

// HealthServiceInterface defines what the health handler needs.
type HealthServiceInterface interface {
	Check(ctx context.Context) services.HealthStatus
}
