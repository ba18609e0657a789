package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"icuboard/pkg/contracts/domain"
)

func f64(v float64) *float64 { return &v }

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func tsp(s string) *time.Time {
	t := ts(s)
	return &t
}

func sampleObservations() []domain.Observation {
	return []domain.Observation{
		{Seq: 1, Label: "Heart Rate", CareUnit: "MICU", ValueNum: 80, ICUHours: 2, ChartTime: ts("2130-01-01 02:00:00")},
		{Seq: 2, Label: "Heart Rate", CareUnit: "SICU", ValueNum: 95, ICUHours: 30, ChartTime: ts("2130-01-02 06:00:00")},
		{Seq: 3, Label: "Respiratory Rate", CareUnit: "MICU", ValueNum: 18, ICUHours: 2.5, ChartTime: ts("2130-01-01 02:30:00")},
		{Seq: 4, Label: "Non Invasive Blood Pressure mean", CareUnit: "CCU", ValueNum: 85, ICUHours: 50, ChartTime: ts("2130-01-03 02:00:00")},
	}
}

func TestApply(t *testing.T) {
	observations := sampleObservations()

	tests := []struct {
		name     string
		filter   Filter
		wantSeqs []int64
	}{
		{
			name:     "no predicates keeps everything",
			filter:   Filter{},
			wantSeqs: []int64{1, 2, 3, 4},
		},
		{
			name:     "label equality",
			filter:   Filter{Label: "Heart Rate"},
			wantSeqs: []int64{1, 2},
		},
		{
			name:     "label set",
			filter:   Filter{Labels: []string{"Heart Rate", "Respiratory Rate"}},
			wantSeqs: []int64{1, 2, 3},
		},
		{
			name:     "care unit set",
			filter:   Filter{CareUnits: []string{"MICU"}},
			wantSeqs: []int64{1, 3},
		},
		{
			name:     "substring match is case-insensitive",
			filter:   Filter{LabelContains: "blood pressure"},
			wantSeqs: []int64{4},
		},
		{
			name:     "value range bounds are inclusive",
			filter:   Filter{ValueMin: f64(18), ValueMax: f64(85)},
			wantSeqs: []int64{1, 3, 4},
		},
		{
			name:     "icu hours range",
			filter:   Filter{HoursMin: f64(0), HoursMax: f64(48)},
			wantSeqs: []int64{1, 2, 3},
		},
		{
			name:     "calendar range",
			filter:   Filter{From: tsp("2130-01-01 00:00:00"), To: tsp("2130-01-01 23:59:59")},
			wantSeqs: []int64{1, 3},
		},
		{
			name: "conjunction of predicates",
			filter: Filter{
				Label:     "Heart Rate",
				CareUnits: []string{"MICU"},
				HoursMax:  f64(48),
			},
			wantSeqs: []int64{1},
		},
		{
			name:     "never-matching predicate yields empty",
			filter:   Filter{Label: "Tidal Volume"},
			wantSeqs: []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(observations, tt.filter)

			seqs := make([]int64, 0, len(got))
			for _, obs := range got {
				seqs = append(seqs, obs.Seq)
			}
			assert.Equal(t, tt.wantSeqs, seqs)
			assert.LessOrEqual(t, len(got), len(observations))
		})
	}
}

func TestApply_EmptyInput(t *testing.T) {
	got := Apply(nil, Filter{Label: "Heart Rate"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
