package domain

import (
	"time"
)

// ChartEvent represents a single timestamped measurement taken during an
// ICU stay. Rows flagged with Error == 1 in the source file are discarded
// at ingestion and never reach this type's consumers.
type ChartEvent struct {
	ICUStayID int64     `json:"icustay_id" csv:"icustay_id" validate:"required"`
	ItemID    int64     `json:"itemid" csv:"itemid" validate:"required"`
	ChartTime time.Time `json:"charttime" csv:"charttime"`
	Value     string    `json:"value,omitempty" csv:"value"`
	ValueNum  float64   `json:"valuenum" csv:"valuenum"`
	ValueUOM  string    `json:"valueuom,omitempty" csv:"valueuom"`
}

// Item is one entry of the measurement dictionary, mapping an opaque
// item code to a human-readable label.
type Item struct {
	ItemID    int64  `json:"itemid" csv:"itemid" validate:"required"`
	Label     string `json:"label" csv:"label"`
	ConceptID string `json:"conceptid,omitempty" csv:"conceptid"`
	Category  string `json:"category,omitempty" csv:"category"`
}

// Stay is one continuous ICU stay record.
type Stay struct {
	ICUStayID     int64     `json:"icustay_id" csv:"icustay_id" validate:"required"`
	SubjectID     int64     `json:"subject_id" csv:"subject_id"`
	HadmID        int64     `json:"hadm_id,omitempty" csv:"hadm_id"`
	FirstCareUnit string    `json:"first_careunit" csv:"first_careunit"`
	InTime        time.Time `json:"intime" csv:"intime"`
	OutTime       time.Time `json:"outtime" csv:"outtime"`
	LOS           float64   `json:"los" csv:"los"`
}
