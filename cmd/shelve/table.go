package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// maxCellWidth wraps long cells such as error messages and paths.
const maxCellWidth = 60

// column describes one table column.
type column struct {
	Header string
	Align  text.Align
}

// renderTable formats rows under title as a rounded table. Rows shorter
// than columns are padded with empty cells.
func renderTable(title string, columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Title.Align = text.AlignLeft
	if title != "" {
		tw.SetTitle(title)
	}

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.Header
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       c.Align,
			AlignHeader: text.AlignLeft,
			WidthMax:    maxCellWidth,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	return tw.Render()
}
