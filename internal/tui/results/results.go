package results

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/dataconsole/internal/console"
	"github.com/joacominatel/dataconsole/internal/dataset"
	"github.com/joacominatel/dataconsole/internal/tui/theme"
)

// maxColWidth caps a column on screen; the full value is shown in the
// detail line of the selected cell.
const maxColWidth = 40

// Model is the query results component.
type Model struct {
	result  *console.QueryResult
	grid    console.Grid
	display console.Display

	spinner spinner.Model

	width   int
	height  int
	focused bool

	cursorY   int
	cursorX   int
	scrollY   int
	colOffset int
	colWidths []int

	statusMessage string
}

// New creates a new results model.
func New() Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorPrimary)
	return Model{spinner: sp}
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

// Focused returns whether the results pane has focus.
func (m Model) Focused() bool {
	return m.focused
}

// Loading reports whether the loading indicator is shown.
func (m Model) Loading() bool {
	return m.display.Loading
}

// SetResult replaces the displayed result. The cursor is kept where it was
// when the new result still has that cell.
func (m *Model) SetResult(r *console.QueryResult, d console.Display) {
	changed := r != m.result
	m.result = r
	m.display = d
	m.grid = console.BuildGrid(r)
	m.calculateColumnWidths()

	if changed {
		m.statusMessage = ""
	}
	m.clampCursor()
}

// Grid returns the rendered grid.
func (m Model) Grid() console.Grid {
	return m.grid
}

// Cursor returns the selected row and column.
func (m Model) Cursor() (row, col int) {
	return m.cursorY, m.cursorX
}

// StatusMessage returns the outcome of the last action.
func (m Model) StatusMessage() string {
	return m.statusMessage
}

// Tick starts the loading spinner.
func (m Model) Tick() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) clampCursor() {
	rows, cols := len(m.grid.Rows), len(m.grid.Headers)
	if m.cursorY >= rows {
		m.cursorY = max(rows-1, 0)
	}
	if m.cursorX >= cols {
		m.cursorX = max(cols-1, 0)
	}
	if m.scrollY > m.cursorY {
		m.scrollY = m.cursorY
	}
	if m.colOffset > m.cursorX {
		m.colOffset = m.cursorX
	}
}

func (m *Model) calculateColumnWidths() {
	if m.grid.Empty() {
		m.colWidths = nil
		return
	}

	m.colWidths = make([]int, len(m.grid.Headers))

	// Use display width (not byte length) for accurate measurement
	for i, h := range m.grid.Headers {
		m.colWidths[i] = max(lipgloss.Width(h.Name), lipgloss.Width(h.Type))
	}

	for _, row := range m.grid.Rows {
		for i, cell := range row {
			w := lipgloss.Width(cell.Text)
			if i < len(m.colWidths) && w > m.colWidths[i] {
				m.colWidths[i] = w
			}
		}
	}

	for i := range m.colWidths {
		m.colWidths[i] = min(max(m.colWidths[i], 1), maxColWidth)
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the results pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	// The spinner keeps ticking regardless of focus while loading.
	if tick, ok := msg.(spinner.TickMsg); ok {
		if !m.display.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tick)
		return m, cmd
	}

	if !m.focused {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	rows := len(m.grid.Rows)
	switch keyMsg.String() {
	case "up", "k":
		if m.cursorY > 0 {
			m.cursorY--
		}
	case "down", "j":
		if m.cursorY < rows-1 {
			m.cursorY++
		}
	case "left", "h":
		if m.cursorX > 0 {
			m.cursorX--
		}
	case "right", "l":
		if m.cursorX < len(m.grid.Headers)-1 {
			m.cursorX++
		}
	case "pgup":
		m.cursorY = max(m.cursorY-m.pageSize(), 0)
	case "pgdown":
		m.cursorY = max(min(m.cursorY+m.pageSize(), rows-1), 0)
	case "home", "g":
		m.cursorY = 0
	case "end", "G":
		m.cursorY = max(rows-1, 0)
	case "c":
		m.doCopyCell()
	case "y":
		m.doCopyRowCSV()
	case "Y":
		m.doCopyRowJSON()
	case "f":
		cmd := m.doFilterByValue()
		return m, cmd
	default:
		return m, nil
	}

	m.followCursor()
	return m, nil
}

func (m Model) visibleRows() int {
	// title, header, type badges, separator, detail line
	return max(m.height-5, 1)
}

func (m Model) pageSize() int {
	return max(m.visibleRows()/2, 1)
}

// followCursor scrolls so the selected cell stays on screen.
func (m *Model) followCursor() {
	visible := m.visibleRows()
	if m.cursorY < m.scrollY {
		m.scrollY = m.cursorY
	}
	if m.cursorY >= m.scrollY+visible {
		m.scrollY = m.cursorY - visible + 1
	}

	if m.cursorX < m.colOffset {
		m.colOffset = m.cursorX
	}
	for m.colOffset < m.cursorX && m.columnsWidth(m.colOffset, m.cursorX) > m.width-2 {
		m.colOffset++
	}
}

// columnsWidth is the rendered width of columns from..to inclusive.
func (m Model) columnsWidth(from, to int) int {
	w := 2
	for i := from; i <= to && i < len(m.colWidths); i++ {
		w += m.colWidths[i] + 3
	}
	return w
}

// View renders the results pane.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(0, 1)

	title := titleStyle.Render("Results")

	if m.display.Loading {
		return title + "\n  " + m.spinner.View() + theme.StyleMuted.Render(" Executing query...")
	}

	if m.display.ShowCount {
		title += "  " + theme.StyleMuted.Render(fmt.Sprintf("Total %d Rows Fetched", m.display.RowCount))
	}

	if m.display.Message {
		return title + "\n" + theme.StyleError.Render("  "+m.result.Message)
	}

	if !m.display.Table || m.grid.Empty() {
		if m.result == nil {
			return title + "\n" + theme.StyleMuted.Render("  Execute a query to see results")
		}
		return title + "\n" + theme.StyleMuted.Render("  No rows")
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")

	last := m.lastVisibleColumn()

	names := make([]string, 0, last-m.colOffset+1)
	types := make([]string, 0, last-m.colOffset+1)
	for i := m.colOffset; i <= last; i++ {
		names = append(names, m.pad(m.grid.Headers[i].Name, i))
		types = append(types, m.pad(m.grid.Headers[i].Type, i))
	}
	b.WriteString(m.join(names, theme.StyleHeader))
	b.WriteString("\n")
	b.WriteString(m.join(types, theme.StyleBadge))
	b.WriteString("\n")
	b.WriteString(m.renderSeparator(last))

	visible := m.visibleRows()
	for r := m.scrollY; r < len(m.grid.Rows) && r < m.scrollY+visible; r++ {
		b.WriteString("\n")
		b.WriteString(m.renderRow(r, last))
	}

	if detail := m.detailLine(); detail != "" {
		b.WriteString("\n")
		b.WriteString(detail)
	}

	return b.String()
}

func (m Model) lastVisibleColumn() int {
	last := m.colOffset
	for last+1 < len(m.grid.Headers) && m.columnsWidth(m.colOffset, last+1) <= m.width-2 {
		last++
	}
	return last
}

func (m Model) renderRow(r, last int) string {
	row := m.grid.Rows[r]
	parts := make([]string, 0, last-m.colOffset+1)
	for i := m.colOffset; i <= last && i < len(row); i++ {
		cell := row[i]
		text := m.pad(cell.Text, i)

		style := lipgloss.NewStyle()
		if cell.Kind == dataset.KindNull {
			style = theme.StyleNull
		}
		if m.focused && r == m.cursorY && i == m.cursorX {
			style = style.Inherit(theme.StyleSelected)
		}
		parts = append(parts, style.Render(text))
	}
	return "  " + strings.Join(parts, " │ ")
}

func (m Model) join(cells []string, style lipgloss.Style) string {
	for i := range cells {
		cells[i] = style.Render(cells[i])
	}
	return "  " + strings.Join(cells, " │ ")
}

// pad fits text to the width of column i, cutting it with an ellipsis.
func (m Model) pad(text string, i int) string {
	width := 10
	if i < len(m.colWidths) {
		width = max(m.colWidths[i], 1)
	}

	display := text
	if lipgloss.Width(display) > width {
		runes := []rune(display)
		for len(runes) > 0 && lipgloss.Width(string(runes)) >= width {
			runes = runes[:len(runes)-1]
		}
		display = string(runes) + "…"
	}

	if pad := width - lipgloss.Width(display); pad > 0 {
		display += strings.Repeat(" ", pad)
	}
	return display
}

func (m Model) renderSeparator(last int) string {
	parts := make([]string, 0, last-m.colOffset+1)
	for i := m.colOffset; i <= last && i < len(m.colWidths); i++ {
		parts = append(parts, strings.Repeat("─", max(m.colWidths[i], 1)))
	}
	return "  " + lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Join(parts, "─┼─"))
}

// detailLine shows the selected cell in full, or the last action's outcome.
func (m Model) detailLine() string {
	if m.statusMessage != "" {
		return theme.StyleSuccess.Render("  " + m.statusMessage)
	}
	if !m.focused {
		return ""
	}
	col := m.columnName()
	if col == "" {
		return ""
	}
	text := m.cellText()
	if m.cell().Truncated {
		text += "…"
	}
	line := fmt.Sprintf("  %s: %s", col, text)
	if m.width > 0 && lipgloss.Width(line) > m.width-2 {
		runes := []rune(line)
		line = string(runes[:min(len(runes), max(m.width-3, 1))]) + "…"
	}
	return theme.StyleMuted.Render(line)
}
