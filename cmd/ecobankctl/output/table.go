// Package output renders command results as tables or JSON.
package output

import (
	"encoding/json"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderTable writes a light-styled table to w. Columns listed in
// alignRight are right aligned (1-based, as go-pretty numbers them).
func RenderTable(w io.Writer, headers []string, rows [][]any, alignRight ...int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := table.Row{}
	for _, h := range headers {
		headerRow = append(headerRow, h)
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}

	if len(alignRight) > 0 {
		configs := make([]table.ColumnConfig, 0, len(alignRight))
		for _, n := range alignRight {
			configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight})
		}
		t.SetColumnConfigs(configs)
	}

	t.Render()
}

// RenderJSON writes v as indented JSON.
func RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
