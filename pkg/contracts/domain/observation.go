package domain

import (
	"time"
)

// Observation is one row of the joined working dataset: a chart event
// resolved against the item dictionary and its ICU stay. It is the unit
// everything downstream (filters, statistics, charts, exports) operates on.
type Observation struct {
	Seq       int64     `json:"seq" csv:"seq"`
	ICUStayID int64     `json:"icustay_id" csv:"icustay_id"`
	SubjectID int64     `json:"subject_id" csv:"subject_id"`
	ItemID    int64     `json:"itemid" csv:"itemid"`
	Label     string    `json:"label" csv:"label"`
	CareUnit  string    `json:"care_unit" csv:"care_unit"`
	ChartTime time.Time `json:"charttime" csv:"charttime"`
	ValueNum  float64   `json:"valuenum" csv:"valuenum"`
	ValueUOM  string    `json:"valueuom,omitempty" csv:"valueuom"`
	LOS       float64   `json:"los" csv:"los"`

	// ICUHours is the elapsed time between stay admission and the
	// measurement, in hours. Negative when the event was charted before
	// the recorded admission time; callers must not assume it is clamped.
	ICUHours float64 `json:"icu_hours" csv:"icu_hours"`
}

// CSVHeader returns the column order used by CSV exports of observations.
func CSVHeader() []string {
	return []string{
		"seq", "icustay_id", "subject_id", "itemid", "label",
		"care_unit", "charttime", "valuenum", "valueuom", "los", "icu_hours",
	}
}
