package query

import (
	"strings"
	"time"

	"icuboard/pkg/contracts/domain"
)

// Filter is the conjunction of the user-selected predicates. Nil or
// zero-valued fields mean "no constraint"; all bounds are inclusive.
type Filter struct {
	// Label restricts to one exact item label.
	Label string
	// Labels restricts to a set of item labels (ignored when empty).
	Labels []string
	// CareUnits restricts to a set of care units (ignored when empty).
	CareUnits []string
	// LabelContains is a case-insensitive substring match on the label.
	LabelContains string

	ValueMin *float64
	ValueMax *float64
	HoursMin *float64
	HoursMax *float64
	From     *time.Time
	To       *time.Time
}

// Matches reports whether a single observation satisfies every present
// predicate.
func (f Filter) Matches(obs domain.Observation) bool {
	if f.Label != "" && obs.Label != f.Label {
		return false
	}
	if len(f.Labels) > 0 && !containsString(f.Labels, obs.Label) {
		return false
	}
	if len(f.CareUnits) > 0 && !containsString(f.CareUnits, obs.CareUnit) {
		return false
	}
	if f.LabelContains != "" && !strings.Contains(strings.ToLower(obs.Label), strings.ToLower(f.LabelContains)) {
		return false
	}
	if f.ValueMin != nil && obs.ValueNum < *f.ValueMin {
		return false
	}
	if f.ValueMax != nil && obs.ValueNum > *f.ValueMax {
		return false
	}
	if f.HoursMin != nil && obs.ICUHours < *f.HoursMin {
		return false
	}
	if f.HoursMax != nil && obs.ICUHours > *f.HoursMax {
		return false
	}
	if f.From != nil && obs.ChartTime.Before(*f.From) {
		return false
	}
	if f.To != nil && obs.ChartTime.After(*f.To) {
		return false
	}
	return true
}

// Apply returns the observations satisfying the filter, preserving input
// order. The result is always a fresh slice; an empty result is a valid
// outcome, never an error.
func Apply(observations []domain.Observation, f Filter) []domain.Observation {
	matched := make([]domain.Observation, 0, len(observations))
	for _, obs := range observations {
		if f.Matches(obs) {
			matched = append(matched, obs)
		}
	}
	return matched
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
