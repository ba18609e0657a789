package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"icuboard/internal/config"
	"icuboard/internal/dataset"
	"icuboard/internal/exporter"
	"icuboard/internal/infrastructure"
	"icuboard/internal/query"
	"icuboard/pkg/contracts/domain"
)

// options are the command line knobs for one export run.
type options struct {
	dataDir string
	outDir  string
	label   string
	maxRows int
}

func main() {
	opts := options{}
	flag.StringVar(&opts.dataDir, "data", "", "directory containing CHARTEVENTS.csv, D_ITEMS.csv and ICUSTAYS.csv (defaults to data/ next to the executable)")
	flag.StringVar(&opts.outDir, "out", "", "output directory for the generated CSV files (defaults to exports/)")
	flag.StringVar(&opts.label, "label", "", "restrict the export to one item label")
	flag.IntVar(&opts.maxRows, "max-rows", 0, "cap on CHARTEVENTS rows read; 0 reads everything")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if opts.dataDir != "" {
		paths.DataDir = opts.dataDir
	}
	if opts.outDir != "" {
		paths.ExportsDir = opts.outDir
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		def := config.DefaultConfig()
		cfg = &def
	}

	logger := infrastructure.NewLogger(cfg.Logging)

	if err := run(context.Background(), logger, paths, cfg.Dataset, opts); err != nil {
		logger.Error("Export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run loads and joins the three source tables, applies the optional label
// filter, and writes the observation table plus a per-label summary.
func run(ctx context.Context, logger *slog.Logger, paths *config.Paths, cfg config.DatasetConfig, opts options) error {
	if opts.maxRows > 0 {
		cfg.MaxEventRows = opts.maxRows
	}

	logger.Info("Starting observation export",
		slog.String("data_dir", paths.DataDir),
		slog.String("out_dir", paths.ExportsDir),
		slog.String("label", opts.label))

	store := dataset.NewStore(cfg, paths, logger)
	snapshot, err := store.Reload(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	view := snapshot.Observations
	labels := snapshot.Labels
	if opts.label != "" {
		view = query.Apply(view, query.Filter{Label: opts.label})
		if len(view) == 0 {
			return fmt.Errorf("no observations for label %q", opts.label)
		}
		labels = []string{opts.label}
	}

	writer := exporter.NewCSVWriter(paths, logger)
	now := time.Now()

	obsPath, err := writer.WriteFile(
		exporter.ExportFileName("observations", "csv", now),
		view,
		exporter.WriteOptions{},
	)
	if err != nil {
		return fmt.Errorf("failed to write observations: %w", err)
	}

	perLabel := summarizeByLabel(view, labels)
	summaryPath, err := writer.WriteSummaryFile(
		exporter.ExportFileName("summary", "csv", now),
		labels,
		perLabel,
	)
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	logger.Info("Export complete",
		slog.Int("observations", len(view)),
		slog.Int("labels", len(labels)),
		slog.String("observations_file", filepath.Base(obsPath)),
		slog.String("summary_file", filepath.Base(summaryPath)))

	return nil
}

// summarizeByLabel computes descriptive statistics for each label over
// the already filtered view.
func summarizeByLabel(view []domain.Observation, labels []string) map[string]domain.SummaryStats {
	out := make(map[string]domain.SummaryStats, len(labels))
	for _, label := range labels {
		out[label] = query.Summarize(query.Apply(view, query.Filter{Label: label}))
	}
	return out
}
