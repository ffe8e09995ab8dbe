package console

import "github.com/joacominatel/dataconsole/internal/dataset"

// MaxCellRunes is the display limit for string cells.
const MaxCellRunes = 150

// Header is a grid column: its name and the engine's type tag.
// Type is empty when the engine sent no tag for the column.
type Header struct {
	Name string
	Type string
}

// Cell is a single rendered value.
type Cell struct {
	Text      string
	Kind      dataset.Kind
	Truncated bool
	// Missing is set when the row has no value for the column.
	Missing bool
}

// Grid is the renderable form of a query result.
type Grid struct {
	Headers []Header
	Rows    [][]Cell
}

// Empty reports whether there is nothing to render.
func (g Grid) Empty() bool {
	return len(g.Headers) == 0
}

// BuildGrid projects a result into a grid. Columns are the keys of the first
// row; every row is read by name so rows with a different key order still
// line up. A result without rows yields an empty grid.
func BuildGrid(r *QueryResult) Grid {
	cols := r.Columns()
	if len(cols) == 0 {
		return Grid{}
	}

	g := Grid{
		Headers: make([]Header, len(cols)),
		Rows:    make([][]Cell, len(r.Rows)),
	}
	for i, name := range cols {
		g.Headers[i] = Header{Name: name, Type: r.TypeAt(i)}
	}

	for ri, rec := range r.Rows {
		cells := make([]Cell, len(cols))
		for ci, name := range cols {
			v, ok := rec.Get(name)
			if !ok {
				cells[ci] = Cell{Kind: dataset.KindNull, Missing: true}
				continue
			}
			cells[ci] = newCell(v)
		}
		g.Rows[ri] = cells
	}

	return g
}

func newCell(v dataset.Value) Cell {
	c := Cell{Text: v.Display(), Kind: v.Kind()}
	if v.Kind() == dataset.KindString {
		c.Text, c.Truncated = truncateRunes(c.Text, MaxCellRunes)
	}
	return c
}

func truncateRunes(s string, n int) (string, bool) {
	if len(s) <= n {
		return s, false
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s, false
	}
	return string(runes[:n]), true
}
