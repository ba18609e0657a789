package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"icuboard/internal/config"
	"icuboard/internal/explain"
)

// ModelInfo describes the loaded classifier for the dashboard header.
type ModelInfo struct {
	Name      string   `json:"name"`
	Features  []string `json:"features"`
	Threshold float64  `json:"threshold"`
	Samples   int      `json:"samples"`
}

// ExplainService serves classifier explainability views over a static
// evaluation set. The model and its samples are loaded once; scores are
// computed at load time since neither changes afterwards.
type ExplainService struct {
	cfg    config.ExplainConfig
	logger *slog.Logger

	mu      sync.RWMutex
	model   *explain.Model
	samples []explain.Sample
	scored  []explain.Scored
}

// NewExplainService creates the service without loading anything; call
// Load once the configuration is validated.
func NewExplainService(cfg config.ExplainConfig, logger *slog.Logger) *ExplainService {
	return &ExplainService{
		cfg:    cfg,
		logger: logger.With(slog.String("service", "explain")),
	}
}

// Load reads the model artifact and the evaluation table. With no model
// configured it is a no-op; the API then answers 503 until one appears.
func (s *ExplainService) Load(ctx context.Context) error {
	if s.cfg.ModelFile == "" {
		s.logger.InfoContext(ctx, "no classifier configured, explain API disabled")
		return nil
	}

	model, err := explain.LoadModel(s.cfg.ModelFile)
	if err != nil {
		return fmt.Errorf("failed to load classifier: %w", err)
	}

	samples, err := explain.LoadSamples(s.logger, s.cfg.FeaturesFile, model.Features)
	if err != nil {
		return fmt.Errorf("failed to load evaluation table: %w", err)
	}

	s.mu.Lock()
	s.model = model
	s.samples = samples
	s.scored = model.Score(samples)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "classifier loaded",
		slog.String("model", model.Name),
		slog.Int("features", len(model.Features)),
		slog.Int("samples", len(samples)))
	return nil
}

// Loaded reports whether a model is in service.
func (s *ExplainService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model != nil
}

func (s *ExplainService) state() (*explain.Model, []explain.Sample, []explain.Scored, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil {
		return nil, nil, nil, ErrModelNotLoaded
	}
	return s.model, s.samples, s.scored, nil
}

// GetModelInfo describes the loaded classifier.
func (s *ExplainService) GetModelInfo(ctx context.Context) (*ModelInfo, error) {
	model, samples, _, err := s.state()
	if err != nil {
		return nil, err
	}
	return &ModelInfo{
		Name:      model.Name,
		Features:  model.Features,
		Threshold: model.Threshold,
		Samples:   len(samples),
	}, nil
}

// GetROC computes the receiver operating characteristic over the
// evaluation set.
func (s *ExplainService) GetROC(ctx context.Context) (explain.ROCCurve, error) {
	_, _, scored, err := s.state()
	if err != nil {
		return explain.ROCCurve{}, err
	}
	return explain.ROC(scored), nil
}

// GetPR computes the precision-recall curve over the evaluation set.
func (s *ExplainService) GetPR(ctx context.Context) (explain.PRCurve, error) {
	_, _, scored, err := s.state()
	if err != nil {
		return explain.PRCurve{}, err
	}
	return explain.PR(scored), nil
}

// GetConfusion tallies the evaluation set at the given threshold; a
// threshold outside (0,1) falls back to the model's own.
func (s *ExplainService) GetConfusion(ctx context.Context, threshold float64) (explain.ConfusionMatrix, error) {
	model, _, scored, err := s.state()
	if err != nil {
		return explain.ConfusionMatrix{}, err
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = model.Threshold
	}
	return explain.Confusion(scored, threshold), nil
}

// GetAttributions ranks the model's features by mean absolute
// contribution, capped to top entries.
func (s *ExplainService) GetAttributions(ctx context.Context, top int) ([]explain.Attribution, error) {
	model, samples, _, err := s.state()
	if err != nil {
		return nil, err
	}
	return explain.Attributions(model, samples, top), nil
}
