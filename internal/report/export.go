package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
)

// ErrUnsupportedFormat is returned for an export path with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported export format")

const exportSheet = "Hafalan"

// ExportColumns is the column order of every export.
var ExportColumns = []string{
	"Name",
	"Verse Count",
	"Category",
	"Attendance",
	"Submission Fluency",
	"Review Fluency",
	"Recitation Fluency",
	"Total Fluency",
	"Week",
	"Month",
	"Year",
	"Tier",
}

func exportRow(r model.SegmentedRecord) []any {
	return []any{
		r.Name,
		r.VerseCount,
		string(r.Category),
		r.Attendance,
		r.SubmissionFluency,
		r.ReviewFluency,
		r.RecitationFluency,
		r.TotalFluency,
		r.Period.Week,
		r.Period.Month,
		r.Period.Year,
		string(r.Tier),
	}
}

// Export writes records to path, picking the format from the extension.
func Export(path string, records []model.SegmentedRecord) (err error) {
	var write func(io.Writer, []model.SegmentedRecord) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		write = WriteXLSX
	case ".csv":
		write = WriteCSV
	default:
		return fmt.Errorf("%w: %q (use .xlsx or .csv)", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close export: %w", cerr)
		}
	}()
	return write(f, records)
}

// WriteXLSX writes records as a single-sheet workbook.
func WriteXLSX(w io.Writer, records []model.SegmentedRecord) error {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort workbook close.
			_ = cerr
		}
	}()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	header := make([]any, len(ExportColumns))
	for i, c := range ExportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(ExportColumns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := exportRow(r)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes records as comma-separated values with a header row.
func WriteCSV(w io.Writer, records []model.SegmentedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return err
	}
	for _, r := range records {
		fields := exportRow(r)
		row := make([]string, len(fields))
		for i, v := range fields {
			switch x := v.(type) {
			case float64:
				row[i] = strconv.FormatFloat(x, 'f', -1, 64)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
