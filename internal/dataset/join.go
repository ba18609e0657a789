package dataset

import (
	"sort"

	"icuboard/pkg/contracts/domain"
)

// BuildObservations produces the working dataset: the inner join of
// chart events against the item dictionary and the stay table, optionally
// restricted to an allow-list of item labels. Events whose itemid or
// icustay_id has no match are dropped without warning; that is the
// defined join contract, not an error.
//
// ICUHours is derived as (charttime − intime) in hours. Events charted
// before the recorded admission produce a negative value, which is kept
// as-is.
func BuildObservations(events []domain.ChartEvent, items []domain.Item, stays []domain.Stay, labels []string) []domain.Observation {
	itemsByID := make(map[int64]domain.Item, len(items))
	for _, item := range items {
		itemsByID[item.ItemID] = item
	}

	staysByID := make(map[int64]domain.Stay, len(stays))
	for _, stay := range stays {
		staysByID[stay.ICUStayID] = stay
	}

	var allowed map[string]struct{}
	if len(labels) > 0 {
		allowed = make(map[string]struct{}, len(labels))
		for _, label := range labels {
			allowed[label] = struct{}{}
		}
	}

	observations := make([]domain.Observation, 0, len(events))
	var seq int64
	for _, event := range events {
		item, ok := itemsByID[event.ItemID]
		if !ok {
			continue
		}
		stay, ok := staysByID[event.ICUStayID]
		if !ok {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[item.Label]; !ok {
				continue
			}
		}

		seq++
		observations = append(observations, domain.Observation{
			Seq:       seq,
			ICUStayID: event.ICUStayID,
			SubjectID: stay.SubjectID,
			ItemID:    event.ItemID,
			Label:     item.Label,
			CareUnit:  stay.FirstCareUnit,
			ChartTime: event.ChartTime,
			ValueNum:  event.ValueNum,
			ValueUOM:  event.ValueUOM,
			LOS:       stay.LOS,
			ICUHours:  event.ChartTime.Sub(stay.InTime).Seconds() / 3600,
		})
	}

	return observations
}

// Vocabulary collects the distinct values of one categorical column,
// sorted for stable output.
func Vocabulary(observations []domain.Observation, pick func(domain.Observation) string) []string {
	seen := make(map[string]struct{})
	for _, obs := range observations {
		value := pick(obs)
		if value == "" {
			continue
		}
		seen[value] = struct{}{}
	}

	values := make([]string, 0, len(seen))
	for value := range seen {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}
