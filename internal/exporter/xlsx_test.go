package exporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"icuboard/pkg/contracts/domain"
)

func TestXLSXStream(t *testing.T) {
	writer := NewXLSXWriter(testLogger())

	stats := map[string]domain.SummaryStats{
		"Heart Rate":       {Count: 1, HasData: true, Mean: 80, Median: 80, Min: 80, Max: 80},
		"Respiratory Rate": {Count: 1, HasData: true, Mean: 18.5, Median: 18.5, Min: 18.5, Max: 18.5},
	}

	var buf bytes.Buffer
	err := writer.Stream(&buf, sampleObservations(), []string{"Heart Rate", "Respiratory Rate"}, stats)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Observations")
	assert.Contains(t, sheets, "Summary")
	assert.NotContains(t, sheets, "Sheet1")

	label, err := f.GetCellValue("Observations", "E2")
	require.NoError(t, err)
	assert.Equal(t, "Heart Rate", label)

	chartTime, err := f.GetCellValue("Observations", "G2")
	require.NoError(t, err)
	assert.Equal(t, "2130-01-01 02:00:00", chartTime)

	mean, err := f.GetCellValue("Summary", "C3")
	require.NoError(t, err)
	assert.Equal(t, "18.5", mean)
}

func TestXLSXStream_Empty(t *testing.T) {
	writer := NewXLSXWriter(testLogger())

	var buf bytes.Buffer
	err := writer.Stream(&buf, nil, nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Observations", "A1")
	require.NoError(t, err)
	assert.Equal(t, "seq", header)
}
