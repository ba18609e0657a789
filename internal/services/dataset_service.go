package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"icuboard/internal/dataset"
	"icuboard/internal/exporter"
	"icuboard/internal/query"
	"icuboard/pkg/contracts/domain"
)

// ReloadNotifier receives dataset lifecycle events; the websocket hub
// implements it in production.
type ReloadNotifier interface {
	BroadcastReloaded(info domain.SnapshotInfo)
	BroadcastReloadFailed(reason string)
}

// ObservationPage is one page of a filtered view.
type ObservationPage struct {
	Total        int                  `json:"total"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
	Observations []domain.Observation `json:"observations"`
}

// SummaryResponse combines descriptive statistics with view-level counts.
type SummaryResponse struct {
	Stats       domain.SummaryStats `json:"stats"`
	UniqueStays int                 `json:"unique_stays"`
	SnapshotID  string              `json:"snapshot_id"`
}

// DatasetService answers dashboard queries against the current snapshot.
// Every method resolves the snapshot once, so a concurrent reload never
// mixes rows from two loads within one request.
type DatasetService struct {
	store    *dataset.Store
	csv      *exporter.CSVWriter
	xlsx     *exporter.XLSXWriter
	notifier ReloadNotifier
	logger   *slog.Logger
}

// NewDatasetService creates a new dataset service. The notifier may be
// nil when no push channel exists, such as in the offline CLI.
func NewDatasetService(store *dataset.Store, csv *exporter.CSVWriter, xlsx *exporter.XLSXWriter, notifier ReloadNotifier, logger *slog.Logger) *DatasetService {
	return &DatasetService{
		store:    store,
		csv:      csv,
		xlsx:     xlsx,
		notifier: notifier,
		logger:   logger.With(slog.String("service", "dataset")),
	}
}

// snapshot resolves the current snapshot, translating the store sentinel
// into the service-level one.
func (s *DatasetService) snapshot() (*dataset.Snapshot, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, ErrSnapshotNotReady
	}
	return snap, nil
}

// view resolves the snapshot and evaluates the filter against it. A
// strict label filter that names an unknown label is rejected so a typo
// reads as an error instead of an empty chart.
func (s *DatasetService) view(filter query.Filter) (*dataset.Snapshot, []domain.Observation, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, nil, err
	}

	if filter.Label != "" && !contains(snap.Labels, filter.Label) {
		return nil, nil, fmt.Errorf("%w: %q", ErrLabelNotFound, filter.Label)
	}

	return snap, query.Apply(snap.Observations, filter), nil
}

// GetLabels returns the distinct measurement labels of the snapshot.
func (s *DatasetService) GetLabels(ctx context.Context) ([]string, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Labels, nil
}

// GetCareUnits returns the distinct care units of the snapshot.
func (s *DatasetService) GetCareUnits(ctx context.Context) ([]string, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.CareUnits, nil
}

// GetObservations returns one page of the filtered view. Offsets past the
// end yield an empty page with the true total, never an error.
func (s *DatasetService) GetObservations(ctx context.Context, filter query.Filter, limit, offset int) (*ObservationPage, error) {
	_, view, err := s.view(filter)
	if err != nil {
		return nil, err
	}

	page := &ObservationPage{
		Total:        len(view),
		Limit:        limit,
		Offset:       offset,
		Observations: []domain.Observation{},
	}

	if offset < len(view) {
		end := offset + limit
		if end > len(view) {
			end = len(view)
		}
		page.Observations = view[offset:end]
	}
	return page, nil
}

// GetSummary computes descriptive statistics over the filtered view.
func (s *DatasetService) GetSummary(ctx context.Context, filter query.Filter) (*SummaryResponse, error) {
	snap, view, err := s.view(filter)
	if err != nil {
		return nil, err
	}
	return &SummaryResponse{
		Stats:       query.Summarize(view),
		UniqueStays: query.UniqueStays(view),
		SnapshotID:  snap.Info.ID,
	}, nil
}

// GetHistogram buckets the filtered view's values.
func (s *DatasetService) GetHistogram(ctx context.Context, filter query.Filter, bins int) ([]domain.HistogramBin, error) {
	_, view, err := s.view(filter)
	if err != nil {
		return nil, err
	}
	return query.Histogram(view, bins), nil
}

// GetTrend computes the hour-of-day mean over the filtered view.
func (s *DatasetService) GetTrend(ctx context.Context, filter query.Filter) ([]domain.TrendPoint, error) {
	_, view, err := s.view(filter)
	if err != nil {
		return nil, err
	}
	return query.HourlyTrend(view), nil
}

// GetCorrelation computes pairwise correlations over the filtered view.
func (s *DatasetService) GetCorrelation(ctx context.Context, filter query.Filter) (domain.CorrelationMatrix, error) {
	_, view, err := s.view(filter)
	if err != nil {
		return domain.CorrelationMatrix{}, err
	}
	return query.Correlation(view), nil
}

// GetDistribution returns the label distribution of the filtered view,
// capped to top entries.
func (s *DatasetService) GetDistribution(ctx context.Context, filter query.Filter, top int) ([]domain.ValueCount, error) {
	_, view, err := s.view(filter)
	if err != nil {
		return nil, err
	}
	return query.ValueCounts(view, top), nil
}

// ExportCSV streams the filtered view as CSV. Empty views are rejected
// with ErrNoData so the dashboard can say so instead of serving a file
// with only a header.
func (s *DatasetService) ExportCSV(ctx context.Context, w io.Writer, filter query.Filter) error {
	_, view, err := s.view(filter)
	if err != nil {
		return err
	}
	if len(view) == 0 {
		return ErrNoData
	}

	s.logger.InfoContext(ctx, "exporting observations CSV",
		slog.Int("rows", len(view)))

	return s.csv.Stream(w, view, exporter.WriteOptions{BOMPrefix: true})
}

// ExportXLSX streams the filtered view as an Excel workbook with a
// per-label summary sheet.
func (s *DatasetService) ExportXLSX(ctx context.Context, w io.Writer, filter query.Filter) error {
	snap, view, err := s.view(filter)
	if err != nil {
		return err
	}
	if len(view) == 0 {
		return ErrNoData
	}

	stats := make(map[string]domain.SummaryStats, len(snap.Labels))
	for _, label := range snap.Labels {
		stats[label] = query.Summarize(query.Apply(view, query.Filter{Label: label}))
	}

	s.logger.InfoContext(ctx, "exporting observations workbook",
		slog.Int("rows", len(view)))

	return s.xlsx.Stream(w, view, snap.Labels, stats)
}

// Reload rebuilds the snapshot from the base tables and notifies
// connected clients of the outcome.
func (s *DatasetService) Reload(ctx context.Context) (domain.SnapshotInfo, error) {
	start := time.Now()

	snap, err := s.store.Reload(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "snapshot reload failed",
			slog.String("error", err.Error()))
		if s.notifier != nil {
			s.notifier.BroadcastReloadFailed(err.Error())
		}
		return domain.SnapshotInfo{}, err
	}

	s.logger.InfoContext(ctx, "snapshot reloaded",
		slog.String("snapshot_id", snap.Info.ID),
		slog.Int("observations", snap.Info.Observations),
		slog.Duration("elapsed", time.Since(start)))

	if s.notifier != nil {
		s.notifier.BroadcastReloaded(snap.Info)
	}
	return snap.Info, nil
}

// SnapshotInfo describes the current snapshot.
func (s *DatasetService) SnapshotInfo(ctx context.Context) (domain.SnapshotInfo, error) {
	snap, err := s.snapshot()
	if err != nil {
		return domain.SnapshotInfo{}, err
	}
	return snap.Info, nil
}

// Ready reports whether a snapshot is in service.
func (s *DatasetService) Ready() bool {
	return s.store.Ready()
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
