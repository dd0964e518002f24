package ingestion

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/candidate-dashboard/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadSpreadsheetFile reads the candidate table from an xlsx or csv file
func ReadSpreadsheetFile(path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	return ReadSpreadsheet(f, path)
}

// ReadSpreadsheet reads the first sheet of an xlsx workbook, or a csv file.
// The first row is the header; every following non-blank row is a candidate.
func ReadSpreadsheet(r io.Reader, name string) (*models.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var rows [][]string
	switch format := DetectFormat(data); format {
	case FormatXLSX:
		rows, err = readXLSX(data)
	case FormatCSV:
		rows, err = readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, filepath.Base(name), format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(name), err)
	}

	return buildDataset(rows, filepath.Base(name)), nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	return f.GetRows(sheets[0])
}

func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

// buildDataset turns raw rows into candidates keyed by header
func buildDataset(rows [][]string, source string) *models.Dataset {
	dataset := &models.Dataset{
		Source:     source,
		LoadedAt:   time.Now(),
		Candidates: []models.Candidate{},
	}
	if len(rows) == 0 {
		return dataset
	}

	dataset.Headers = headerNames(rows[0])

	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}

		fields := make(map[string]string, len(dataset.Headers))
		for col, header := range dataset.Headers {
			if col < len(row) {
				fields[header] = row[col]
			}
		}
		dataset.Candidates = append(dataset.Candidates, models.Candidate{
			Fields: fields,
			Row:    i + 1,
		})
	}

	return dataset
}

// headerNames trims header cells; empty or repeated names become "Column N"
func headerNames(row []string) []string {
	headers := make([]string, len(row))
	seen := make(map[string]bool, len(row))
	for i, cell := range row {
		name := strings.TrimSpace(cell)
		if name == "" || seen[name] {
			name = fmt.Sprintf("Column %d", i+1)
		}
		seen[name] = true
		headers[i] = name
	}
	return headers
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
