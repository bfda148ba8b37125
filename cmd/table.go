package cmd

import (
	"fmt"
	"strings"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableRows flattens query output into string rows under columns. Records
// are read by field name; tag lists and page directives have fixed shapes.
func tableRows(out any, columns []string) ([][]string, error) {
	switch v := out.(type) {
	case []map[string]any:
		rows := make([][]string, 0, len(v))
		for _, rec := range v {
			row := make([]string, len(columns))
			for i, c := range columns {
				row[i] = cell(rec[c])
			}
			rows = append(rows, row)
		}
		return rows, nil
	case []string:
		rows := make([][]string, 0, len(v))
		for _, s := range v {
			rows = append(rows, []string{s})
		}
		return rows, nil
	case []api.Page:
		rows := make([][]string, 0, len(v))
		for _, p := range v {
			rows = append(rows, []string{p.Path, string(p.Kind)})
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("cannot render %T as a table", out)
	}
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, cell(e))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(x, ", ")
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}

// renderTable draws rows with numeric columns right-aligned.
func renderTable(headers []string, rows [][]string, numeric map[string]bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i, h := range headers {
		align := text.AlignLeft
		if numeric[h] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
