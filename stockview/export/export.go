// Package export writes a composed view out to operator-facing files. The
// export covers exactly what the view shows: the rows that survived filter
// and sort, in their display order, with the columns the schema declares.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/invlab/stockview/stockview/query"
	"github.com/invlab/stockview/stockview/view"
	"github.com/invlab/stockview/types"
)

// Format selects the output file type.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat converts a CLI format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv", "":
		return CSV, nil
	case "xlsx":
		return XLSX, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Options configures one export.
type Options struct {
	// Format selects csv or xlsx; empty means csv
	Format Format

	// Path is the output file; empty means a generated name in the
	// working directory
	Path string

	// Columns restricts and orders the exported fields; empty means the
	// schema's declared field order with id first
	Columns []string

	// Header controls the leading column-name row
	Header bool
}

// View writes the rows of a composed model to a file and returns the path
// written.
func View(vm view.Model, schema *types.ViewSchema, opts Options) (string, error) {
	format := opts.Format
	if format == "" {
		format = CSV
	}

	path := opts.Path
	if path == "" {
		path = GenerateFilename(schema.Entity, string(format))
	}

	columns := opts.Columns
	if len(columns) == 0 {
		columns = defaultColumns(schema)
	}

	var err error
	switch format {
	case CSV:
		err = writeCSV(path, vm.Rows, columns, opts.Header)
	case XLSX:
		err = writeXLSX(path, schema.Entity, vm.Rows, columns, opts.Header)
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("export %s: %w", schema.Entity, err)
	}
	return path, nil
}

// defaultColumns is the id column followed by the schema's field order.
func defaultColumns(schema *types.ViewSchema) []string {
	columns := make([]string, 0, len(schema.Fields)+1)
	columns = append(columns, "id")
	for _, f := range schema.Fields {
		columns = append(columns, f.Name)
	}
	return columns
}

func writeCSV(path string, rows []types.Record, columns []string, header bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if header {
		if err := w.Write(columns); err != nil {
			return err
		}
	}
	for _, rec := range rows {
		if err := w.Write(cellValues(rec, columns)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(path, entity string, rows []types.Record, columns []string, header bool) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := entity
	if sheet == "" {
		sheet = "export"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	rowNum := 1
	if header {
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(sheet, cell, &columns); err != nil {
			return err
		}
		rowNum++
	}
	for _, rec := range rows {
		values := cellValues(rec, columns)
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		rowNum++
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// cellValues string-coerces one record into column order. Null values
// render as empty cells.
func cellValues(rec types.Record, columns []string) []string {
	values := make([]string, len(columns))
	for i, name := range columns {
		v, ok := rec.Get(name)
		if !ok || v == nil {
			continue
		}
		values[i] = query.AsString(v)
	}
	return values
}
