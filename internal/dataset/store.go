package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"icuboard/internal/config"
	"icuboard/internal/dataprocessing"
	"icuboard/pkg/contracts/domain"
)

// ErrSnapshotNotLoaded is returned while no snapshot has been built yet.
var ErrSnapshotNotLoaded = errors.New("dataset snapshot not loaded")

// Snapshot is one immutable build of the working dataset. Every request
// reads from a snapshot; a reload swaps in a new one atomically, so
// readers never observe a half-built view.
type Snapshot struct {
	Info         domain.SnapshotInfo
	Observations []domain.Observation
	Labels       []string
	CareUnits    []string
	Units        []string
}

// Store loads the three source tables, joins them, and hands out the
// current snapshot. Concurrent Reload calls share one load via
// singleflight.
type Store struct {
	cfg    config.DatasetConfig
	paths  *config.Paths
	logger *slog.Logger

	mu       sync.RWMutex
	snapshot *Snapshot

	group singleflight.Group
}

// NewStore creates a store; no data is loaded until Reload is called.
func NewStore(cfg config.DatasetConfig, paths *config.Paths, logger *slog.Logger) *Store {
	return &Store{
		cfg:    cfg,
		paths:  paths,
		logger: logger.With(slog.String("component", "dataset_store")),
	}
}

// Snapshot returns the current snapshot, or ErrSnapshotNotLoaded before
// the first successful Reload.
func (s *Store) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, ErrSnapshotNotLoaded
	}
	return s.snapshot, nil
}

// Ready reports whether a snapshot is available.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot != nil
}

// Reload rebuilds the snapshot from the configured files. The three
// tables are read concurrently; a failure in any of them aborts the
// reload and leaves the previous snapshot in place.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	result, err, shared := s.group.Do("reload", func() (interface{}, error) {
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "reload shared with concurrent caller")
	}
	return result.(*Snapshot), nil
}

func (s *Store) load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	eventsPath := s.paths.ResolveData(s.cfg.ChartEventsFile)
	itemsPath := s.paths.ResolveData(s.cfg.ItemsFile)
	staysPath := s.paths.ResolveData(s.cfg.StaysFile)

	s.logger.InfoContext(ctx, "loading dataset",
		slog.String("chart_events", eventsPath),
		slog.String("items", itemsPath),
		slog.String("stays", staysPath),
		slog.Int("max_event_rows", s.cfg.MaxEventRows))

	var (
		events     []domain.ChartEvent
		eventStats dataprocessing.ParseStats
		items      []domain.Item
		itemStats  dataprocessing.ParseStats
		stays      []domain.Stay
		stayStats  dataprocessing.ParseStats
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, eventStats, err = dataprocessing.ParseChartEvents(s.logger, eventsPath, s.cfg.MaxEventRows)
		return err
	})
	g.Go(func() error {
		var err error
		items, itemStats, err = dataprocessing.ParseItems(s.logger, itemsPath)
		return err
	})
	g.Go(func() error {
		var err error
		stays, stayStats, err = dataprocessing.ParseStays(s.logger, staysPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dataset load failed: %w", err)
	}

	observations := BuildObservations(events, items, stays, s.cfg.Labels)

	snapshot := &Snapshot{
		Info: domain.SnapshotInfo{
			ID:           uuid.New().String(),
			LoadedAt:     time.Now().UTC(),
			Events:       eventStats.Kept,
			Items:        itemStats.Kept,
			Stays:        stayStats.Kept,
			Observations: len(observations),
			SkippedRows:  eventStats.Skipped + eventStats.Flagged + itemStats.Skipped + stayStats.Skipped,
		},
		Observations: observations,
		Labels:       Vocabulary(observations, func(o domain.Observation) string { return o.Label }),
		CareUnits:    Vocabulary(observations, func(o domain.Observation) string { return o.CareUnit }),
		Units:        Vocabulary(observations, func(o domain.Observation) string { return o.ValueUOM }),
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("snapshot_id", snapshot.Info.ID),
		slog.Int("observations", len(observations)),
		slog.Int("labels", len(snapshot.Labels)),
		slog.Duration("elapsed", time.Since(start)))

	return snapshot, nil
}
