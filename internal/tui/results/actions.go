package results

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/dataconsole/internal/console"
	"github.com/joacominatel/dataconsole/internal/dataset"
	"github.com/joacominatel/dataconsole/internal/export"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

func (m Model) record() (dataset.Record, bool) {
	if m.result == nil || m.cursorY < 0 || m.cursorY >= len(m.result.Rows) {
		return dataset.Record{}, false
	}
	return m.result.Rows[m.cursorY], true
}

func (m Model) columnName() string {
	if m.cursorX < 0 || m.cursorX >= len(m.grid.Headers) {
		return ""
	}
	return m.grid.Headers[m.cursorX].Name
}

func (m Model) cell() console.Cell {
	if m.cursorY < 0 || m.cursorY >= len(m.grid.Rows) {
		return console.Cell{}
	}
	row := m.grid.Rows[m.cursorY]
	if m.cursorX < 0 || m.cursorX >= len(row) {
		return console.Cell{}
	}
	return row[m.cursorX]
}

// value returns the untruncated value of the selected cell.
func (m Model) value() (dataset.Value, bool) {
	rec, ok := m.record()
	if !ok {
		return dataset.Value{}, false
	}
	return rec.Get(m.columnName())
}

func (m Model) cellText() string {
	v, ok := m.value()
	if !ok {
		return m.cell().Text
	}
	return v.Display()
}

// --- Copy ---

func (m *Model) doCopyCell() {
	v, ok := m.value()
	if !ok || v.IsNull() {
		m.statusMessage = "Nothing to copy"
		return
	}
	val := v.Text()
	if err := writeClipboard(val); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.statusMessage = "Copied: " + truncateStatus(val, 40)
}

func (m *Model) doCopyRowJSON() {
	rec, ok := m.record()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	b, err := json.Marshal(rec)
	if err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	if err := writeClipboard(string(b)); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.statusMessage = "Copied row as JSON"
}

func (m *Model) doCopyRowCSV() {
	rec, ok := m.record()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	var b strings.Builder
	if err := export.EncodeCSV(&b, []dataset.Record{rec}); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	if err := writeClipboard(b.String()); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.statusMessage = "Copied row as CSV"
}

// --- Filter ---

func (m *Model) doFilterByValue() tea.Cmd {
	col := m.columnName()
	v, ok := m.value()
	if col == "" || !ok {
		m.statusMessage = "Cannot filter: no cell selected"
		return nil
	}

	query := FilterQuery(col, v)
	return func() tea.Msg {
		return SetEditorQueryMsg{Query: query}
	}
}

// FilterQuery builds a query selecting the rows where col equals v.
func FilterQuery(col string, v dataset.Value) string {
	ident := `"` + strings.ReplaceAll(col, `"`, `""`) + `"`

	var condition string
	switch v.Kind() {
	case dataset.KindNull:
		condition = ident + " IS NULL"
	case dataset.KindNumber, dataset.KindBool:
		condition = fmt.Sprintf("%s = %s", ident, v.Text())
	default:
		escaped := strings.ReplaceAll(v.Text(), "'", "''")
		condition = fmt.Sprintf("%s = '%s'", ident, escaped)
	}
	return fmt.Sprintf("SELECT * FROM DATASET WHERE %s;", condition)
}

// --- Helpers ---

func truncateStatus(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
