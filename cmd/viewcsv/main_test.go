package main

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icuboard/internal/config"
)

func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	events := `icustay_id,itemid,charttime,valuenum,valueuom,error
1,10,2130-01-01 02:00:00,80,bpm,0
1,10,2130-01-01 03:00:00,84,bpm,0
2,11,2130-02-01 13:00:00,18.5,insp/min,0
`
	items := "itemid,label\n10,Heart Rate\n11,Respiratory Rate\n"
	stays := `icustay_id,subject_id,first_careunit,intime,los
1,100,MICU,2130-01-01 00:00:00,5
2,101,SICU,2130-02-01 12:00:00,2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CHARTEVENTS.csv"), []byte(events), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "D_ITEMS.csv"), []byte(items), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ICUSTAYS.csv"), []byte(stays), 0644))
}

func readExport(t *testing.T, dir, prefix string) [][]string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"_*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRun_ExportsObservationsAndSummary(t *testing.T) {
	dataDir := t.TempDir()
	outDir := t.TempDir()
	writeFixtures(t, dataDir)

	paths := &config.Paths{
		ExecutableDir: dataDir,
		DataDir:       dataDir,
		ExportsDir:    outDir,
		LogsDir:       filepath.Join(dataDir, "logs"),
	}
	cfg := config.DefaultConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := run(context.Background(), logger, paths, cfg.Dataset, options{})
	require.NoError(t, err)

	obs := readExport(t, outDir, "observations")
	require.Len(t, obs, 4)
	assert.Equal(t, "label", obs[0][4])
	assert.Equal(t, "Heart Rate", obs[1][4])

	summary := readExport(t, outDir, "summary")
	require.Len(t, summary, 3)
	assert.Equal(t, []string{"label", "count", "mean", "median", "min", "max", "std_dev"}, summary[0])
}

func TestRun_LabelFilter(t *testing.T) {
	dataDir := t.TempDir()
	outDir := t.TempDir()
	writeFixtures(t, dataDir)

	paths := &config.Paths{
		ExecutableDir: dataDir,
		DataDir:       dataDir,
		ExportsDir:    outDir,
		LogsDir:       filepath.Join(dataDir, "logs"),
	}
	cfg := config.DefaultConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := run(context.Background(), logger, paths, cfg.Dataset, options{label: "Heart Rate"})
	require.NoError(t, err)

	obs := readExport(t, outDir, "observations")
	require.Len(t, obs, 3)
	for _, row := range obs[1:] {
		assert.Equal(t, "Heart Rate", row[4])
	}

	summary := readExport(t, outDir, "summary")
	require.Len(t, summary, 2)
	assert.Equal(t, "Heart Rate", summary[1][0])
	assert.Equal(t, "2", summary[1][1])
}

func TestRun_UnknownLabel(t *testing.T) {
	dataDir := t.TempDir()
	writeFixtures(t, dataDir)

	paths := &config.Paths{
		ExecutableDir: dataDir,
		DataDir:       dataDir,
		ExportsDir:    t.TempDir(),
		LogsDir:       filepath.Join(dataDir, "logs"),
	}
	cfg := config.DefaultConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := run(context.Background(), logger, paths, cfg.Dataset, options{label: "Nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no observations")
}
