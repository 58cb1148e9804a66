package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pfrederiksen/pfr-stats/internal/dataset"
	"github.com/xuri/excelize/v2"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatCSV  OutputFormat = "csv"
	FormatXLSX OutputFormat = "xlsx"
)

// ParseFormat validates a format name, ignoring case
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("invalid format: %s (must be text, json, csv or xlsx)", s)
}

// OutputResult contains data to be output
type OutputResult struct {
	Name      string            `json:"name"`
	FetchedAt time.Time         `json:"fetched_at"`
	RowCount  int               `json:"row_count"`
	Columns   []string          `json:"columns"`
	Rows      [][]dataset.Value `json:"rows"`
}

// NewResult flattens ds for output, index parts first
func NewResult(name string, ds dataset.Dataset) *OutputResult {
	header, rows := ds.Table()
	return &OutputResult{
		Name:      name,
		FetchedAt: time.Now().UTC(),
		RowCount:  len(rows),
		Columns:   header,
		Rows:      rows,
	}
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result)
	case FormatCSV:
		return writeCSV(w, result)
	case FormatXLSX:
		return writeXLSX(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as an aligned table
func writeText(w io.Writer, result *OutputResult) error {
	if result.RowCount == 0 {
		fmt.Fprintln(w, "No rows found.")
		return nil
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader(result.Columns)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.AppendBulk(stringRows(result.Rows))
	tw.Render()

	fmt.Fprintf(w, "\nTotal: %d rows\n", result.RowCount)
	return nil
}

// writeCSV outputs a header line and one line per row; missing cells are empty
func writeCSV(w io.Writer, result *OutputResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(result.Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	if err := cw.WriteAll(stringRows(result.Rows)); err != nil {
		return fmt.Errorf("writing csv rows: %w", err)
	}
	return nil
}

// writeXLSX outputs a workbook with one sheet named after the result
func writeXLSX(w io.Writer, result *OutputResult) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := result.Name
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for i, h := range result.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for r, row := range result.Rows {
		for c, v := range row {
			var value any
			switch v.Kind() {
			case dataset.KindNumber:
				value, _ = v.Float()
			case dataset.KindText:
				value = v.String()
			default:
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("writing row %d: %w", r, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func stringRows(rows [][]dataset.Value) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
		}
		out[i] = cells
	}
	return out
}
