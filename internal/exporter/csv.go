package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"icuboard/internal/config"
	"icuboard/pkg/contracts/domain"
)

// csvTimeLayout is the chart time format used in exported files.
const csvTimeLayout = "2006-01-02 15:04:05"

// CSVWriter exports observation views as CSV, either streamed to an
// arbitrary writer (HTTP download) or written under the exports directory.
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance.
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	return &CSVWriter{paths: paths, logger: logger}
}

// WriteOptions configures CSV output behavior.
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// Stream writes the observations to w, header first. It is used for HTTP
// downloads where the response writer is handed in directly.
func (c *CSVWriter) Stream(w io.Writer, observations []domain.Observation, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(domain.CSVHeader()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, obs := range observations {
		if err := writer.Write(observationRecord(obs)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes the observations to a CSV file under the exports
// directory (absolute paths are used as-is) and returns the full path.
func (c *CSVWriter) WriteFile(fileName string, observations []domain.Observation, options WriteOptions) (string, error) {
	fullPath := c.resolvePath(fileName)

	c.logger.Info("writing observations CSV",
		slog.String("path", fullPath),
		slog.Int("rows", len(observations)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := c.Stream(file, observations, options); err != nil {
		return "", err
	}
	return fullPath, nil
}

// WriteSummaryFile writes per-label summary statistics as CSV and returns
// the full path. Labels come out in the order given.
func (c *CSVWriter) WriteSummaryFile(fileName string, labels []string, stats map[string]domain.SummaryStats) (string, error) {
	fullPath := c.resolvePath(fileName)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(summaryHeader()); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for _, label := range labels {
		if err := writer.Write(summaryRecord(label, stats[label])); err != nil {
			return "", fmt.Errorf("failed to write summary for %q: %w", label, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return fullPath, nil
}

func observationRecord(obs domain.Observation) []string {
	return []string{
		strconv.FormatInt(obs.Seq, 10),
		strconv.FormatInt(obs.ICUStayID, 10),
		strconv.FormatInt(obs.SubjectID, 10),
		strconv.FormatInt(obs.ItemID, 10),
		obs.Label,
		obs.CareUnit,
		obs.ChartTime.Format(csvTimeLayout),
		formatFloat(obs.ValueNum),
		obs.ValueUOM,
		formatFloat(obs.LOS),
		formatFloat(obs.ICUHours),
	}
}

func summaryHeader() []string {
	return []string{"label", "count", "mean", "median", "min", "max", "std_dev"}
}

func summaryRecord(label string, stats domain.SummaryStats) []string {
	if !stats.HasData {
		return []string{label, "0", "", "", "", "", ""}
	}
	return []string{
		label,
		strconv.Itoa(stats.Count),
		formatFloat(stats.Mean),
		formatFloat(stats.Median),
		formatFloat(stats.Min),
		formatFloat(stats.Max),
		formatFloat(stats.StdDev),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExportFileName builds a timestamped export file name, e.g.
// "observations_20260823_150405.csv".
func ExportFileName(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("20060102_150405"), ext)
}

func (c *CSVWriter) resolvePath(fileName string) string {
	if filepath.IsAbs(fileName) {
		return fileName
	}
	return c.paths.ResolveExport(fileName)
}
