package services

import (
	"context"
	"log/slog"
	"time"

	"icuboard/pkg/contracts/domain"
)

// Health states reported by the health endpoint.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// HealthStatus is the health endpoint payload. Degraded means the server
// is up but the dataset snapshot is not in service yet.
type HealthStatus struct {
	Status        string               `json:"status"`
	Timestamp     time.Time            `json:"timestamp"`
	UptimeSeconds float64              `json:"uptime_seconds"`
	SnapshotReady bool                 `json:"snapshot_ready"`
	Snapshot      *domain.SnapshotInfo `json:"snapshot,omitempty"`
	ModelLoaded   bool                 `json:"model_loaded"`
}

// HealthService aggregates readiness across the dataset and explain
// services.
type HealthService struct {
	dataset *DatasetService
	explain *ExplainService
	logger  *slog.Logger
	started time.Time
}

// NewHealthService creates a new health service.
func NewHealthService(dataset *DatasetService, explain *ExplainService, logger *slog.Logger) *HealthService {
	return &HealthService{
		dataset: dataset,
		explain: explain,
		logger:  logger.With(slog.String("service", "health")),
		started: time.Now(),
	}
}

// Check reports the current health. It never fails; an unavailable
// snapshot degrades the status instead.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:        StatusHealthy,
		Timestamp:     time.Now(),
		UptimeSeconds: time.Since(s.started).Seconds(),
		ModelLoaded:   s.explain.Loaded(),
	}

	if info, err := s.dataset.SnapshotInfo(ctx); err == nil {
		status.SnapshotReady = true
		status.Snapshot = &info
	} else {
		status.Status = StatusDegraded
	}

	return status
}
