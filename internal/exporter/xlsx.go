package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"icuboard/pkg/contracts/domain"
)

const (
	sheetObservations = "Observations"
	sheetSummary      = "Summary"
)

// XLSXWriter exports observation views as Excel workbooks with the raw
// rows on one sheet and per-label summary statistics on another.
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a new workbook writer.
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	return &XLSXWriter{logger: logger}
}

// Stream builds the workbook and writes it to w.
func (x *XLSXWriter) Stream(w io.Writer, observations []domain.Observation, labels []string, stats map[string]domain.SummaryStats) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := x.writeObservations(f, observations); err != nil {
		return err
	}
	if err := x.writeSummary(f, labels, stats); err != nil {
		return err
	}

	// Drop the default sheet so the workbook opens on observations.
	idx, err := f.GetSheetIndex(sheetObservations)
	if err != nil {
		return fmt.Errorf("failed to look up sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}

	x.logger.Info("writing observations workbook",
		slog.Int("rows", len(observations)),
		slog.Int("labels", len(labels)))

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (x *XLSXWriter) writeObservations(f *excelize.File, observations []domain.Observation) error {
	if _, err := f.NewSheet(sheetObservations); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := domain.CSVHeader()
	row := make([]interface{}, len(header))
	for i, name := range header {
		row[i] = name
	}
	if err := setRow(f, sheetObservations, 1, row); err != nil {
		return err
	}

	for i, obs := range observations {
		row := []interface{}{
			obs.Seq,
			obs.ICUStayID,
			obs.SubjectID,
			obs.ItemID,
			obs.Label,
			obs.CareUnit,
			obs.ChartTime.Format(csvTimeLayout),
			obs.ValueNum,
			obs.ValueUOM,
			obs.LOS,
			obs.ICUHours,
		}
		if err := setRow(f, sheetObservations, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (x *XLSXWriter) writeSummary(f *excelize.File, labels []string, stats map[string]domain.SummaryStats) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := summaryHeader()
	row := make([]interface{}, len(header))
	for i, name := range header {
		row[i] = name
	}
	if err := setRow(f, sheetSummary, 1, row); err != nil {
		return err
	}

	for i, label := range labels {
		s := stats[label]
		var row []interface{}
		if s.HasData {
			row = []interface{}{label, s.Count, s.Mean, s.Median, s.Min, s.Max, s.StdDev}
		} else {
			row = []interface{}{label, 0, nil, nil, nil, nil, nil}
		}
		if err := setRow(f, sheetSummary, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to compute cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}
