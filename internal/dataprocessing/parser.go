package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"icuboard/pkg/contracts/domain"
)

// timeLayouts are the timestamp formats accepted in source files, tried
// in order. MIMIC extracts use the first; the others show up in
// hand-edited or re-exported files.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseStats counts what ingestion kept and dropped from one file.
type ParseStats struct {
	Rows    int // data rows read (excluding header)
	Kept    int
	Flagged int // dropped because error flag was set
	Skipped int // dropped as malformed (bad number, bad timestamp, short row)
}

// columnMap resolves required and optional columns from a header row.
// Header matching is case-insensitive so both raw MIMIC extracts
// (upper-case headers) and re-exported files parse identically.
type columnMap map[string]int

func mapHeader(header []string) columnMap {
	m := make(columnMap, len(header))
	for i, name := range header {
		m[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return m
}

// require returns the positions of the named columns, or an error naming
// the first one that is missing. A structurally broken file is a hard
// error; there is no warn-and-substitute fallback.
func (m columnMap) require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		pos, ok := m[name]
		if !ok {
			return nil, fmt.Errorf("required column %q not found in header", name)
		}
		idx[i] = pos
	}
	return idx, nil
}

func (m columnMap) optional(name string) (int, bool) {
	pos, ok := m[name]
	return pos, ok
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseChartEvents reads a CHARTEVENTS-shaped CSV file. Rows whose error
// flag is 1 and rows without a usable numeric value are dropped here, so
// downstream consumers never see them. maxRows caps the number of kept
// rows; zero or negative means unlimited.
func ParseChartEvents(logger *slog.Logger, path string, maxRows int) ([]domain.ChartEvent, ParseStats, error) {
	var stats ParseStats

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to open chart events file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read chart events header: %w", err)
	}

	cols := mapHeader(header)
	required, err := cols.require("icustay_id", "itemid", "charttime", "valuenum")
	if err != nil {
		return nil, stats, fmt.Errorf("chart events file %s: %w", path, err)
	}
	stayCol, itemCol, timeCol, numCol := required[0], required[1], required[2], required[3]

	valueCol, hasValue := cols.optional("value")
	uomCol, hasUOM := cols.optional("valueuom")
	errCol, hasErr := cols.optional("error")

	var events []domain.ChartEvent
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read chart events row: %w", err)
		}
		stats.Rows++

		if hasErr && field(row, errCol) == "1" {
			stats.Flagged++
			continue
		}

		numText := field(row, numCol)
		if numText == "" {
			stats.Skipped++
			continue
		}

		stayID, err1 := strconv.ParseInt(field(row, stayCol), 10, 64)
		itemID, err2 := strconv.ParseInt(field(row, itemCol), 10, 64)
		valueNum, err3 := strconv.ParseFloat(numText, 64)
		chartTime, err4 := parseTime(field(row, timeCol))
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			stats.Skipped++
			logger.Debug("skipping malformed chart event row",
				slog.Int("row", stats.Rows),
				slog.String("file", path))
			continue
		}

		event := domain.ChartEvent{
			ICUStayID: stayID,
			ItemID:    itemID,
			ChartTime: chartTime,
			ValueNum:  valueNum,
		}
		if hasValue {
			event.Value = field(row, valueCol)
		}
		if hasUOM {
			event.ValueUOM = field(row, uomCol)
		}

		events = append(events, event)
		stats.Kept++

		if maxRows > 0 && stats.Kept >= maxRows {
			logger.Info("chart events row cap reached",
				slog.Int("max_rows", maxRows),
				slog.String("file", path))
			break
		}
	}

	logger.Info("parsed chart events",
		slog.String("file", path),
		slog.Int("rows", stats.Rows),
		slog.Int("kept", stats.Kept),
		slog.Int("flagged", stats.Flagged),
		slog.Int("skipped", stats.Skipped))

	return events, stats, nil
}

// ParseItems reads a D_ITEMS-shaped CSV file.
func ParseItems(logger *slog.Logger, path string) ([]domain.Item, ParseStats, error) {
	var stats ParseStats

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to open items file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read items header: %w", err)
	}

	cols := mapHeader(header)
	required, err := cols.require("itemid", "label")
	if err != nil {
		return nil, stats, fmt.Errorf("items file %s: %w", path, err)
	}
	itemCol, labelCol := required[0], required[1]

	conceptCol, hasConcept := cols.optional("conceptid")
	categoryCol, hasCategory := cols.optional("category")

	var items []domain.Item
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read items row: %w", err)
		}
		stats.Rows++

		itemID, err := strconv.ParseInt(field(row, itemCol), 10, 64)
		if err != nil {
			stats.Skipped++
			continue
		}

		item := domain.Item{
			ItemID: itemID,
			Label:  field(row, labelCol),
		}
		if hasConcept {
			item.ConceptID = field(row, conceptCol)
		}
		if hasCategory {
			item.Category = field(row, categoryCol)
		}

		items = append(items, item)
		stats.Kept++
	}

	logger.Info("parsed item dictionary",
		slog.String("file", path),
		slog.Int("kept", stats.Kept),
		slog.Int("skipped", stats.Skipped))

	return items, stats, nil
}

// ParseStays reads an ICUSTAYS-shaped CSV file. A row without a parseable
// intime is skipped because elapsed-hours derivation depends on it;
// outtime and los are optional per row.
func ParseStays(logger *slog.Logger, path string) ([]domain.Stay, ParseStats, error) {
	var stats ParseStats

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to open stays file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read stays header: %w", err)
	}

	cols := mapHeader(header)
	required, err := cols.require("icustay_id", "intime")
	if err != nil {
		return nil, stats, fmt.Errorf("stays file %s: %w", path, err)
	}
	stayCol, inCol := required[0], required[1]

	subjectCol, hasSubject := cols.optional("subject_id")
	hadmCol, hasHadm := cols.optional("hadm_id")
	unitCol, hasUnit := cols.optional("first_careunit")
	outCol, hasOut := cols.optional("outtime")
	losCol, hasLOS := cols.optional("los")

	var stays []domain.Stay
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read stays row: %w", err)
		}
		stats.Rows++

		stayID, err1 := strconv.ParseInt(field(row, stayCol), 10, 64)
		inTime, err2 := parseTime(field(row, inCol))
		if err1 != nil || err2 != nil {
			stats.Skipped++
			logger.Debug("skipping malformed stay row",
				slog.Int("row", stats.Rows),
				slog.String("file", path))
			continue
		}

		stay := domain.Stay{
			ICUStayID: stayID,
			InTime:    inTime,
		}
		if hasSubject {
			stay.SubjectID, _ = strconv.ParseInt(field(row, subjectCol), 10, 64)
		}
		if hasHadm {
			stay.HadmID, _ = strconv.ParseInt(field(row, hadmCol), 10, 64)
		}
		if hasUnit {
			stay.FirstCareUnit = field(row, unitCol)
		}
		if hasOut {
			if out, err := parseTime(field(row, outCol)); err == nil {
				stay.OutTime = out
			}
		}
		if hasLOS {
			stay.LOS, _ = strconv.ParseFloat(field(row, losCol), 64)
		}

		stays = append(stays, stay)
		stats.Kept++
	}

	logger.Info("parsed stays",
		slog.String("file", path),
		slog.Int("kept", stats.Kept),
		slog.Int("skipped", stats.Skipped))

	return stays, stats, nil
}
