// Part of the stockview CLI - this file renders composed views as text
// tables, JSON or CSV.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/invlab/stockview/stockview"
	"github.com/invlab/stockview/stockview/query"
	"github.com/invlab/stockview/types"
)

// Styles
var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
)

// tableColumns is id plus the schema's fields in declaration order.
func tableColumns(schema types.ViewSchema) []string {
	columns := make([]string, 0, len(schema.Fields)+1)
	columns = append(columns, "id")
	for _, f := range schema.Fields {
		columns = append(columns, f.Name)
	}
	return columns
}

// cellValue renders one cell. Reference fields show their resolved display
// value when a session is supplied.
func cellValue(sess *stockview.Session, schema types.ViewSchema, rec types.Record, column string) string {
	v, ok := rec.Get(column)
	if !ok || v == nil {
		return ""
	}
	text := query.AsString(v)
	if sess != nil {
		if _, isRef := schema.Ref(column); isRef {
			return sess.Display(column, text)
		}
	}
	return text
}

// renderTable prints the model as an aligned table with a pagination footer.
func renderTable(sess *stockview.Session, schema types.ViewSchema, m stockview.Model) {
	columns := tableColumns(schema)

	rows := make([][]string, 0, len(m.Rows)+1)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(c)
	}
	rows = append(rows, header)
	for _, rec := range m.Rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = cellValue(sess, schema, rec, c)
		}
		rows = append(rows, cells)
	}

	widths := make([]int, len(columns))
	for _, cells := range rows {
		for i, cell := range cells {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	for r, cells := range rows {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			padded[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		line := strings.TrimRight(strings.Join(padded, "  "), " ")
		if r == 0 {
			line = headerStyle.Render(line)
		}
		fmt.Println(line)
	}

	fmt.Println(mutedStyle.Render(fmt.Sprintf("page %d of %d, %d of %d records",
		m.Page, m.TotalPages, len(m.Rows), m.TotalFiltered)))
}

// renderJSON prints the visible rows as a JSON array.
func renderJSON(sess *stockview.Session, schema types.ViewSchema, m stockview.Model) error {
	out := make([]map[string]interface{}, 0, len(m.Rows))
	for _, rec := range m.Rows {
		obj := make(map[string]interface{}, len(schema.Fields)+1)
		for _, c := range tableColumns(schema) {
			obj[c] = cellValue(sess, schema, rec, c)
		}
		out = append(out, obj)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// renderCSV prints the visible rows as CSV on stdout.
func renderCSV(sess *stockview.Session, schema types.ViewSchema, m stockview.Model) error {
	w := csv.NewWriter(os.Stdout)
	columns := tableColumns(schema)
	if err := w.Write(columns); err != nil {
		return err
	}
	for _, rec := range m.Rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = cellValue(sess, schema, rec, c)
		}
		if err := w.Write(cells); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// renderModel dispatches on the --format value.
func renderModel(format string, sess *stockview.Session, schema types.ViewSchema, m stockview.Model) error {
	switch format {
	case "", "table":
		renderTable(sess, schema, m)
		return nil
	case "json":
		return renderJSON(sess, schema, m)
	case "csv":
		return renderCSV(sess, schema, m)
	default:
		return fmt.Errorf("unknown format %q (table, json or csv)", format)
	}
}
