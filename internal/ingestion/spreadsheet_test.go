package ingestion

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName() error: %v", err)
		}
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow() error: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error: %v", err)
	}
	return buf.Bytes()
}

func TestReadSpreadsheetXLSX(t *testing.T) {
	data := workbook(t, [][]interface{}{
		{"Location", "skills", "client"},
		{"Bengaluru", "Java, SQL", "Acme"},
		{},
		{"Pune", "Go", "Beta"},
	})

	dataset, err := ReadSpreadsheet(bytes.NewReader(data), "uploads/final_excel.xlsx")
	if err != nil {
		t.Fatalf("ReadSpreadsheet() error: %v", err)
	}

	if !reflect.DeepEqual(dataset.Headers, []string{"Location", "skills", "client"}) {
		t.Errorf("Headers = %v", dataset.Headers)
	}
	if dataset.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (blank row skipped)", dataset.Len())
	}
	first := dataset.Candidates[0]
	if first.Get("Location") != "Bengaluru" || first.Get("skills") != "Java, SQL" || first.Row != 1 {
		t.Errorf("first candidate = %+v", first)
	}
	if dataset.Candidates[1].Row != 3 {
		t.Errorf("second candidate row = %d, want 3", dataset.Candidates[1].Row)
	}
	if dataset.Source != "final_excel.xlsx" {
		t.Errorf("Source = %q", dataset.Source)
	}
}

func TestReadSpreadsheetCSV(t *testing.T) {
	input := "\xEF\xBB\xBFname, ,name,client\nAsha,x,dup,\"Acme, Inc\"\nRavi\n"

	dataset, err := ReadSpreadsheet(strings.NewReader(input), "data.csv")
	if err != nil {
		t.Fatalf("ReadSpreadsheet() error: %v", err)
	}

	wantHeaders := []string{"name", "Column 2", "Column 3", "client"}
	if !reflect.DeepEqual(dataset.Headers, wantHeaders) {
		t.Errorf("Headers = %v, want %v", dataset.Headers, wantHeaders)
	}
	if dataset.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", dataset.Len())
	}
	if got := dataset.Candidates[0].Get("client"); got != "Acme, Inc" {
		t.Errorf("client = %q", got)
	}
	if got := dataset.Candidates[0].Get("Column 3"); got != "dup" {
		t.Errorf("duplicate header column = %q", got)
	}
	if got := dataset.Candidates[1].Get("client"); got != "" {
		t.Errorf("short row client = %q, want empty", got)
	}
}

func TestReadSpreadsheetEmpty(t *testing.T) {
	dataset, err := ReadSpreadsheet(strings.NewReader(""), "empty.csv")
	if err != nil {
		t.Fatalf("ReadSpreadsheet() error: %v", err)
	}
	if dataset.Len() != 0 || dataset.Candidates == nil {
		t.Errorf("empty input should give an empty, non-nil candidate list")
	}
}

func TestReadSpreadsheetUnsupported(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"old.xls", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}},
		{"resume.pdf", []byte("%PDF-1.7")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSpreadsheet(bytes.NewReader(tt.data), tt.name)
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("error = %v, want ErrUnsupportedFormat", err)
			}
		})
	}
}

func TestReadSpreadsheetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.xlsx")
	os.WriteFile(path, workbook(t, [][]interface{}{{"client"}, {"Acme"}}), 0644)

	dataset, err := ReadSpreadsheetFile(path)
	if err != nil {
		t.Fatalf("ReadSpreadsheetFile() error: %v", err)
	}
	if dataset.Len() != 1 || dataset.Candidates[0].Get("client") != "Acme" {
		t.Errorf("unexpected dataset %+v", dataset)
	}

	if _, err := ReadSpreadsheetFile(filepath.Join(t.TempDir(), "missing.xlsx")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
