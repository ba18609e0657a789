package explain

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrModelNotLoaded is returned while no artifact has been loaded.
var ErrModelNotLoaded = errors.New("classifier model not loaded")

// Model is a logistic regression classifier: sigmoid( dot(weights, x) + bias ).
// The artifact stores weights in flat form, [w0..wn, bias], so weights
// trained elsewhere drop in without conversion.
type Model struct {
	Name      string    `json:"name"`
	Features  []string  `json:"features"`
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"-"`
	Threshold float64   `json:"threshold"`
}

// modelArtifact is the on-disk JSON format.
type modelArtifact struct {
	Name      string    `json:"name"`
	Features  []string  `json:"features"`
	Weights   []float64 `json:"weights"` // [w0..wn, bias]
	Threshold float64   `json:"threshold"`
}

// LoadModel reads a serialized classifier artifact.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var artifact modelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact: %w", err)
	}

	if len(artifact.Weights) != len(artifact.Features)+1 {
		return nil, fmt.Errorf("model artifact has %d weights for %d features; want features+1 (bias last)",
			len(artifact.Weights), len(artifact.Features))
	}

	threshold := artifact.Threshold
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}

	n := len(artifact.Weights) - 1
	model := &Model{
		Name:      artifact.Name,
		Features:  artifact.Features,
		Weights:   append([]float64(nil), artifact.Weights[:n]...),
		Bias:      artifact.Weights[n],
		Threshold: threshold,
	}
	return model, nil
}

// Forward computes the predicted probability for a single sample.
func (m *Model) Forward(x []float64) float64 {
	z := m.Bias
	for i, xi := range x {
		z += m.Weights[i] * xi
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// Sample is one row of the evaluation table.
type Sample struct {
	Features []float64
	Label    int // 0 or 1
}

// LoadSamples reads the static evaluation table: one column per model
// feature plus a "label" column holding the ground truth. Columns are
// matched by header name, case-insensitively; extra columns are ignored
// and malformed rows skipped.
func LoadSamples(logger *slog.Logger, path string, features []string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open features file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read features header: %w", err)
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.ToLower(strings.TrimSpace(name))] = i
	}

	featureCols := make([]int, len(features))
	for i, name := range features {
		pos, ok := positions[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("required feature column %q not found in header", name)
		}
		featureCols[i] = pos
	}
	labelCol, ok := positions["label"]
	if !ok {
		return nil, fmt.Errorf("required column %q not found in header", "label")
	}

	var samples []Sample
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read features row: %w", err)
		}

		sample := Sample{Features: make([]float64, len(featureCols))}
		bad := false
		for i, col := range featureCols {
			if col >= len(row) {
				bad = true
				break
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				bad = true
				break
			}
			sample.Features[i] = v
		}
		if !bad && labelCol < len(row) {
			label, err := strconv.Atoi(strings.TrimSpace(row[labelCol]))
			if err != nil || (label != 0 && label != 1) {
				bad = true
			}
			sample.Label = label
		} else {
			bad = true
		}

		if bad {
			skipped++
			continue
		}
		samples = append(samples, sample)
	}

	logger.Info("loaded evaluation samples",
		slog.String("file", path),
		slog.Int("samples", len(samples)),
		slog.Int("skipped", skipped))

	return samples, nil
}

// Scored pairs a predicted probability with its ground truth.
type Scored struct {
	Score float64 `json:"score"`
	Label int     `json:"label"`
}

// Score runs the model over every sample.
func (m *Model) Score(samples []Sample) []Scored {
	scored := make([]Scored, len(samples))
	for i, sample := range samples {
		scored[i] = Scored{
			Score: m.Forward(sample.Features),
			Label: sample.Label,
		}
	}
	return scored
}
