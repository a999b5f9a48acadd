package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"rptninja/internal/relocate"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render() + "\n"
}

const timeDisplayLayout = "2006-01-02 15:04:05"

func renderMovesTable(moves []relocate.Move) string {
	rows := make([][]string, 0, len(moves))
	for _, move := range moves {
		rows = append(rows, []string{
			move.Name,
			move.ModTime.Local().Format(timeDisplayLayout),
			move.Destination,
		})
	}
	return renderTable([]string{"File", "Modified", "Destination"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
