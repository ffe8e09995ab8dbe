package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joacominatel/dataconsole/internal/console"
	"github.com/joacominatel/dataconsole/internal/dataset"
	"github.com/joacominatel/dataconsole/internal/export"
	"golang.org/x/term"
)

const (
	formatAuto  = "auto"
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

// resolveFormat picks table output for terminals and CSV for pipes.
func resolveFormat(format string, out io.Writer) string {
	if format != formatAuto && format != "" {
		return format
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return formatTable
	}
	return formatCSV
}

func renderPayload(w io.Writer, p *dataset.Payload, format string) error {
	switch format {
	case formatJSON:
		return renderJSON(w, p.Rows)
	case formatCSV:
		return export.EncodeCSV(w, p.Rows)
	case formatTable:
		return renderTable(w, p)
	default:
		return fmt.Errorf("unknown format %q (want table, csv or json)", format)
	}
}

func renderTable(w io.Writer, p *dataset.Payload) error {
	grid := console.BuildGrid(&console.QueryResult{Rows: p.Rows, Types: p.Types})
	if grid.Empty() {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(grid.Headers))
	for i, h := range grid.Headers {
		if h.Type != "" {
			headerRow[i] = h.Name + "\n" + h.Type
		} else {
			headerRow[i] = h.Name
		}
	}
	t.AppendHeader(headerRow)

	for _, cells := range grid.Rows {
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c.Text
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "Total %d Rows Fetched\n", len(grid.Rows))
	return nil
}

func renderJSON(w io.Writer, rows []dataset.Record) error {
	if rows == nil {
		rows = []dataset.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
