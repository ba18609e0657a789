package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icuboard/pkg/contracts/domain"
)

func TestSummarize(t *testing.T) {
	observations := []domain.Observation{
		{ValueNum: 80},
		{ValueNum: 90},
		{ValueNum: 70},
		{ValueNum: 100},
	}

	stats := Summarize(observations)

	assert.True(t, stats.HasData)
	assert.Equal(t, 4, stats.Count)
	assert.InDelta(t, 85.0, stats.Mean, 1e-9)
	assert.InDelta(t, 85.0, stats.Median, 1e-9)
	assert.Equal(t, 70.0, stats.Min)
	assert.Equal(t, 100.0, stats.Max)
	assert.InDelta(t, 12.909944, stats.StdDev, 1e-5)
}

func TestSummarize_OddCountMedian(t *testing.T) {
	observations := []domain.Observation{
		{ValueNum: 10}, {ValueNum: 30}, {ValueNum: 20},
	}
	stats := Summarize(observations)
	assert.Equal(t, 20.0, stats.Median)
}

func TestSummarize_EmptyNeverPanics(t *testing.T) {
	var stats domain.SummaryStats
	require.NotPanics(t, func() {
		stats = Summarize(nil)
	})

	assert.False(t, stats.HasData)
	assert.Equal(t, 0, stats.Count)
	assert.Equal(t, 0.0, stats.Mean)
	assert.Equal(t, 0.0, stats.Median)
}

func TestSummarize_SingleValue(t *testing.T) {
	stats := Summarize([]domain.Observation{{ValueNum: 42}})
	assert.True(t, stats.HasData)
	assert.Equal(t, 42.0, stats.Mean)
	assert.Equal(t, 0.0, stats.StdDev)
}

func TestUniqueStays(t *testing.T) {
	observations := []domain.Observation{
		{ICUStayID: 1}, {ICUStayID: 1}, {ICUStayID: 2},
	}
	assert.Equal(t, 2, UniqueStays(observations))
	assert.Equal(t, 0, UniqueStays(nil))
}

func TestValueCounts(t *testing.T) {
	observations := []domain.Observation{
		{Label: "Heart Rate"},
		{Label: "Heart Rate"},
		{Label: "Heart Rate"},
		{Label: "Respiratory Rate"},
		{Label: "Respiratory Rate"},
		{Label: "Glucose"},
	}

	counts := ValueCounts(observations, 0)
	require.Len(t, counts, 3)
	assert.Equal(t, domain.ValueCount{Value: "Heart Rate", Count: 3}, counts[0])
	assert.Equal(t, domain.ValueCount{Value: "Respiratory Rate", Count: 2}, counts[1])

	top := ValueCounts(observations, 2)
	assert.Len(t, top, 2)

	assert.Empty(t, ValueCounts(nil, 5))
}

func TestHistogram(t *testing.T) {
	observations := []domain.Observation{
		{ValueNum: 0}, {ValueNum: 2.5}, {ValueNum: 5},
		{ValueNum: 7.5}, {ValueNum: 10},
	}

	bins := Histogram(observations, 2)
	require.Len(t, bins, 2)

	// [0,5) and [5,10]; the max value is inclusive in the last bin.
	assert.Equal(t, 2, bins[0].Count)
	assert.Equal(t, 3, bins[1].Count)
	assert.Equal(t, 0.0, bins[0].Low)
	assert.Equal(t, 10.0, bins[1].High)
}

func TestHistogram_Degenerate(t *testing.T) {
	assert.Empty(t, Histogram(nil, 10))
	assert.Empty(t, Histogram([]domain.Observation{{ValueNum: 1}}, 0))

	single := Histogram([]domain.Observation{{ValueNum: 5}, {ValueNum: 5}}, 10)
	require.Len(t, single, 1)
	assert.Equal(t, 2, single[0].Count)
	assert.Equal(t, 5.0, single[0].Low)
	assert.Equal(t, 5.0, single[0].High)
}

func TestHourlyTrend(t *testing.T) {
	observations := []domain.Observation{
		{ValueNum: 80, ChartTime: ts("2130-01-01 02:00:00")},
		{ValueNum: 90, ChartTime: ts("2130-01-02 02:30:00")},
		{ValueNum: 60, ChartTime: ts("2130-01-01 14:00:00")},
	}

	trend := HourlyTrend(observations)
	require.Len(t, trend, 2)

	assert.Equal(t, 2, trend[0].Hour)
	assert.InDelta(t, 85.0, trend[0].Mean, 1e-9)
	assert.Equal(t, 2, trend[0].Count)

	assert.Equal(t, 14, trend[1].Hour)
	assert.Equal(t, 60.0, trend[1].Mean)

	assert.Empty(t, HourlyTrend(nil))
}

func TestCorrelation(t *testing.T) {
	// valuenum and icu_hours move together perfectly; los is constant.
	observations := []domain.Observation{
		{ValueNum: 1, ICUHours: 10, LOS: 5},
		{ValueNum: 2, ICUHours: 20, LOS: 5},
		{ValueNum: 3, ICUHours: 30, LOS: 5},
	}

	matrix := Correlation(observations)
	require.Equal(t, []string{"valuenum", "icu_hours", "los"}, matrix.Columns)

	assert.True(t, matrix.Defined[0][1])
	assert.InDelta(t, 1.0, matrix.Cells[0][1], 1e-9)
	assert.InDelta(t, 1.0, matrix.Cells[0][0], 1e-9)

	// Constant los has no variance: undefined, zero cell, no NaN leaks.
	assert.False(t, matrix.Defined[0][2])
	assert.Equal(t, 0.0, matrix.Cells[0][2])
	assert.False(t, matrix.Defined[2][2])
}

func TestCorrelation_Empty(t *testing.T) {
	matrix := Correlation(nil)
	require.Len(t, matrix.Cells, 3)
	for i := range matrix.Cells {
		for j := range matrix.Cells[i] {
			assert.False(t, matrix.Defined[i][j])
			assert.Equal(t, 0.0, matrix.Cells[i][j])
		}
	}
}
