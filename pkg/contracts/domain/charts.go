package domain

import (
	"time"
)

// SummaryStats holds the descriptive statistics for a filtered view.
// HasData distinguishes "no rows matched" from a legitimately zero-valued
// statistic; when it is false every numeric field is a zero placeholder.
type SummaryStats struct {
	Count   int     `json:"count"`
	HasData bool    `json:"has_data"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	StdDev  float64 `json:"std_dev"`
}

// HistogramBin is one bucket of a value distribution.
type HistogramBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// TrendPoint is the mean measurement value for one hour of day.
type TrendPoint struct {
	Hour  int     `json:"hour"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// ValueCount is one entry of a categorical distribution.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CorrelationMatrix holds pairwise Pearson coefficients for the numeric
// columns of the filtered view. Cells are NaN-free: pairs without enough
// variance are reported as 0 with Defined=false in the matching cell mask.
type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Cells   [][]float64 `json:"cells"`
	Defined [][]bool    `json:"defined"`
}

// SnapshotInfo describes one immutable load of the base tables.
type SnapshotInfo struct {
	ID           string    `json:"id"`
	LoadedAt     time.Time `json:"loaded_at"`
	Events       int       `json:"events"`
	Items        int       `json:"items"`
	Stays        int       `json:"stays"`
	Observations int       `json:"observations"`
	SkippedRows  int       `json:"skipped_rows"`
}
