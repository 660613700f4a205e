package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	records := sampleSegmented()
	records[0].VerseCount = 12.5
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != len(records)+1 {
		t.Fatalf("expected %d rows, got %d", len(records)+1, len(rows))
	}
	if rows[0][0] != "Name" || rows[0][11] != "Tier" || len(rows[0]) != len(ExportColumns) {
		t.Fatalf("unexpected header %v", rows[0])
	}
	want := []string{"Ahmad", "12.5", "Short", "3", "0", "0", "0", "90", "2", "Maret", "2025", "Fast & Consistent"}
	for i := range want {
		if rows[1][i] != want[i] {
			t.Fatalf("column %s = %q, want %q", ExportColumns[i], rows[1][i], want[i])
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleSegmented()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected header and 4 rows, got %d", len(rows))
	}
	if rows[0][1] != "Verse Count" || rows[4][0] != "Dewi" || rows[4][11] != "Needs Guidance" {
		t.Fatalf("unexpected workbook rows %v", rows)
	}
	if rows[2][9] != "Maret" {
		t.Fatalf("expected month column, got %v", rows[2])
	}
}

func TestExportPicksFormat(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.csv", "out.XLSX"} {
		path := filepath.Join(dir, "nested", name)
		if err := Export(path, sampleSegmented()); err != nil {
			t.Fatalf("Export(%s): %v", name, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat export: %v", err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected non-empty %s", name)
		}
	}
	if err := Export(filepath.Join(dir, "out.pdf"), nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
