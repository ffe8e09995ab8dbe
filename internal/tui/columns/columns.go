// Package columns lists the columns of the current result with their types
// and turns a selected column into editor text.
package columns

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/dataconsole/internal/console"
	"github.com/joacominatel/dataconsole/internal/tui/theme"
)

// InsertMsg asks the editor to insert text at the cursor.
type InsertMsg struct {
	Text string
}

// TemplateMsg asks the console to replace the editor text.
type TemplateMsg struct {
	Query string
}

// Model is the column list component.
type Model struct {
	headers []console.Header
	cursor  int
	width   int
	height  int
	focused bool
}

// New creates a new column list.
func New() Model {
	return Model{}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
}

// Focused returns whether the list has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetHeaders replaces the listed columns. An empty result keeps the
// previous list so the columns stay available after a failed query.
func (m *Model) SetHeaders(headers []console.Header) {
	if len(headers) == 0 {
		return
	}
	m.headers = headers
	if m.cursor >= len(m.headers) {
		m.cursor = len(m.headers) - 1
	}
}

// Names returns the listed column names.
func (m Model) Names() []string {
	names := make([]string, len(m.headers))
	for i, h := range m.headers {
		names[i] = h.Name
	}
	return names
}

// Selected returns the column under the cursor.
func (m Model) Selected() (console.Header, bool) {
	if m.cursor < 0 || m.cursor >= len(m.headers) {
		return console.Header{}, false
	}
	return m.headers[m.cursor], true
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the column list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.headers)-1 {
			m.cursor++
		}
	case "enter":
		return m, m.emit(func(col string) tea.Msg { return InsertMsg{Text: col} })
	case "g":
		return m, m.emit(func(col string) tea.Msg {
			return TemplateMsg{Query: fmt.Sprintf("SELECT %s, count(*) FROM DATASET GROUP BY %s;", col, col)}
		})
	case "s":
		return m, m.emit(func(col string) tea.Msg {
			return TemplateMsg{Query: fmt.Sprintf("SELECT DISTINCT %s FROM DATASET;", col)}
		})
	case "a":
		return m, m.emit(func(col string) tea.Msg {
			return TemplateMsg{Query: AlterQuery(col)}
		})
	}

	return m, nil
}

func (m Model) emit(build func(col string) tea.Msg) tea.Cmd {
	h, ok := m.Selected()
	if !ok {
		return nil
	}
	msg := build(Quote(h.Name))
	return func() tea.Msg { return msg }
}

// Quote returns name as a double quoted identifier.
func Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// AlterQuery fills the column type change template for one column.
func AlterQuery(quoted string) string {
	return strings.Replace(console.AlterTemplate, "{column name}", quoted, 1)
}

// View renders the column list.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(0, 1)

	title := titleStyle.Render("Columns")

	if len(m.headers) == 0 {
		return title + "\n" + theme.StyleMuted.Render("  No columns")
	}

	var b strings.Builder
	b.WriteString(title)

	// Calculate visible area
	visibleHeight := max(m.height-2, 1)

	// Scroll offset to keep cursor visible
	scrollOffset := 0
	if m.cursor >= visibleHeight {
		scrollOffset = m.cursor - visibleHeight + 1
	}

	for i := scrollOffset; i < len(m.headers) && i < scrollOffset+visibleHeight; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderColumn(m.headers[i], i == m.cursor))
	}

	return b.String()
}

func (m Model) renderColumn(h console.Header, selected bool) string {
	name := h.Name
	if m.width > 0 && lipgloss.Width(name) > m.width-4 {
		runes := []rune(name)
		name = string(runes[:min(len(runes), max(m.width-6, 1))]) + ".."
	}

	line := "  " + name
	if selected && m.focused {
		line = lipgloss.NewStyle().
			Foreground(theme.ColorHighlight).
			Bold(true).
			Render("> " + name)
	}

	if h.Type != "" {
		line += " " + theme.StyleBadge.Render(h.Type)
	}
	return line
}
