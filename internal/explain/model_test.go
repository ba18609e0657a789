package explain

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadModel(t *testing.T) {
	path := writeFile(t, "model.json", `{
		"name": "vent-risk",
		"features": ["heart_rate_mean", "resp_rate_mean"],
		"weights": [0.8, -0.3, 0.1],
		"threshold": 0.6
	}`)

	model, err := LoadModel(path)
	require.NoError(t, err)

	assert.Equal(t, "vent-risk", model.Name)
	assert.Equal(t, []string{"heart_rate_mean", "resp_rate_mean"}, model.Features)
	assert.Equal(t, []float64{0.8, -0.3}, model.Weights)
	assert.Equal(t, 0.1, model.Bias)
	assert.Equal(t, 0.6, model.Threshold)
}

func TestLoadModel_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "weight count mismatch",
			content: `{"name":"m","features":["a","b"],"weights":[1.0,2.0],"threshold":0.5}`,
		},
		{
			name:    "malformed json",
			content: `{"name":`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "model.json", tt.content)
			_, err := LoadModel(path)
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadModel(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})
}

func TestLoadModel_ThresholdFallback(t *testing.T) {
	path := writeFile(t, "model.json",
		`{"name":"m","features":["a"],"weights":[1.0,0.0],"threshold":0}`)

	model, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, model.Threshold)
}

func TestForward(t *testing.T) {
	model := &Model{Features: []string{"a"}, Weights: []float64{1.0}, Bias: 0}

	assert.InDelta(t, 0.5, model.Forward([]float64{0}), 1e-9)
	assert.InDelta(t, 0.880797, model.Forward([]float64{2}), 1e-6)
	assert.InDelta(t, 0.119203, model.Forward([]float64{-2}), 1e-6)
}

func TestLoadSamples(t *testing.T) {
	path := writeFile(t, "features.csv",
		"HEART_RATE_MEAN,extra,resp_rate_mean,label\n"+
			"80,x,18,1\n"+
			"95,x,22,0\n"+
			"oops,x,20,1\n"+ // bad feature value
			"70,x,16,2\n") // label outside {0,1}

	samples, err := LoadSamples(testLogger(), path, []string{"heart_rate_mean", "resp_rate_mean"})
	require.NoError(t, err)

	require.Len(t, samples, 2)
	assert.Equal(t, []float64{80, 18}, samples[0].Features)
	assert.Equal(t, 1, samples[0].Label)
	assert.Equal(t, []float64{95, 22}, samples[1].Features)
	assert.Equal(t, 0, samples[1].Label)
}

func TestLoadSamples_MissingColumns(t *testing.T) {
	path := writeFile(t, "features.csv", "heart_rate_mean,label\n80,1\n")

	_, err := LoadSamples(testLogger(), path, []string{"heart_rate_mean", "resp_rate_mean"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resp_rate_mean")

	path = writeFile(t, "nolabel.csv", "heart_rate_mean\n80\n")
	_, err = LoadSamples(testLogger(), path, []string{"heart_rate_mean"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "label")
}

func TestScore(t *testing.T) {
	model := &Model{Features: []string{"a"}, Weights: []float64{1.0}, Bias: 0}
	samples := []Sample{
		{Features: []float64{2}, Label: 1},
		{Features: []float64{-2}, Label: 0},
	}

	scored := model.Score(samples)
	require.Len(t, scored, 2)
	assert.InDelta(t, 0.880797, scored[0].Score, 1e-6)
	assert.Equal(t, 1, scored[0].Label)
	assert.InDelta(t, 0.119203, scored[1].Score, 1e-6)
}
