package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/candidate-dashboard/internal/facets"
	"github.com/fmuoria/candidate-dashboard/internal/filter"
)

const (
	candidatesSheet = "Candidates"
	summarySheet    = "Summary"
)

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// ExportToExcel writes the filtered candidates and their facet summary to
// an Excel file
func ExportToExcel(headers []string, view *filter.View, outputPath string) error {
	f, err := buildWorkbook(headers, view)
	if err != nil {
		return err
	}
	defer f.Close()

	// Ensure output path has .xlsx extension
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}

	// Clean the path for cross-platform compatibility (Windows paths)
	outputPath = filepath.Clean(outputPath)

	// Try to save the file directly
	if err := f.SaveAs(outputPath); err != nil {
		// If direct save fails, try buffer write fallback
		var buf bytes.Buffer
		if writeErr := f.Write(&buf); writeErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), buffer write also failed: %w", err, writeErr)
		}

		if fileErr := os.WriteFile(outputPath, buf.Bytes(), 0644); fileErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), file write failed: %w", err, fileErr)
		}
	}

	return nil
}

// WriteExcel streams the same workbook to w
func WriteExcel(w io.Writer, headers []string, view *filter.View) error {
	f, err := buildWorkbook(headers, view)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func buildWorkbook(headers []string, view *filter.View) (*excelize.File, error) {
	if view == nil {
		return nil, fmt.Errorf("nothing to export")
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", candidatesSheet)
	if _, err := f.NewSheet(summarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}

	if err := createCandidatesSheet(f, candidatesSheet, headers, view); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create candidates sheet: %w", err)
	}

	if err := createSummarySheet(f, summarySheet, view); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}

	return f, nil
}

// createCandidatesSheet writes every column of the filtered rows
func createCandidatesSheet(f *excelize.File, sheetName string, headers []string, view *filter.View) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}

	if len(headers) == 0 {
		return nil
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle)
	f.SetColWidth(sheetName, "A", lastCol, 18)

	for i, c := range view.Rows {
		values := make([]interface{}, len(headers))
		for col, h := range headers {
			values[col] = c.Get(h)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
	}

	// Enable auto-filter
	if len(view.Rows) > 0 {
		f.AutoFilter(sheetName, fmt.Sprintf("A1:%s%d", lastCol, len(view.Rows)+1), []excelize.AutoFilterOptions{})
	}

	// Freeze top row
	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return nil
}

// createSummarySheet writes the totals, active filters and one frequency
// block per facet
func createSummarySheet(f *excelize.File, sheetName string, view *filter.View) error {
	f.SetColWidth(sheetName, "A", "A", 30)
	f.SetColWidth(sheetName, "B", "B", 40)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}

	row := 1
	heading := func(text string) {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), text)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
		f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
		row++
	}
	label := func(name string, value interface{}) {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), name)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), value)
		row++
	}

	heading("Candidate Dashboard Export")
	row++
	label("Generated:", time.Now().Format("2006-01-02 15:04:05"))
	label("Total Candidates:", view.TotalRows)
	row++

	heading("Active Filters")
	active := 0
	for _, facet := range facets.All {
		if selected := view.Selected(facet).Values(); len(selected) > 0 {
			label(facet.Label()+":", strings.Join(selected, ", "))
			active++
		}
	}
	if active == 0 {
		label("None", "")
	}
	row++

	for _, facet := range facets.All {
		table := view.Table(facet)
		heading(fmt.Sprintf("%s (%d unique)", facet.Label(), len(table)))
		for _, entry := range table {
			f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), entry.Name)
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), entry.Count)
			row++
		}
		row++
	}

	return nil
}
