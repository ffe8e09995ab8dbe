// Package sqlconsole is the modal SQL console: the editor, the results grid
// and the column list bound to one console.Controller.
package sqlconsole

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/dataconsole/internal/app"
	"github.com/joacominatel/dataconsole/internal/console"
	"github.com/joacominatel/dataconsole/internal/dataset"
	"github.com/joacominatel/dataconsole/internal/export"
	"github.com/joacominatel/dataconsole/internal/tui/columns"
	"github.com/joacominatel/dataconsole/internal/tui/editor"
	"github.com/joacominatel/dataconsole/internal/tui/help"
	"github.com/joacominatel/dataconsole/internal/tui/results"
	"github.com/joacominatel/dataconsole/internal/tui/statusbar"
	"github.com/joacominatel/dataconsole/internal/tui/theme"
)

// Pane identifies a focusable area.
type Pane int

const (
	PaneEditor Pane = iota
	PaneResults
	PaneColumns
)

func (p Pane) String() string {
	switch p {
	case PaneEditor:
		return "editor"
	case PaneResults:
		return "results"
	case PaneColumns:
		return "columns"
	default:
		return "unknown"
	}
}

// toolbar lists the console actions in the order they are offered.
const toolbar = "F1 Help │ Ctrl+S Download │ Ctrl+R Reset │ Ctrl+K Clear │ Ctrl+T Edit │ Ctrl+E Run"

// Model is the console modal.
type Model struct {
	ctrl      *console.Controller
	datasetID string
	clipboard export.Exporter

	editor    editor.Model
	results   results.Model
	columns   columns.Model
	statusbar statusbar.Model

	activePane Pane
	width      int
	height     int
}

// New creates a closed console for one dataset.
func New(ctrl *console.Controller, datasetID string) Model {
	sb := statusbar.New()
	sb.SetDataset(datasetID)
	sb.SetHints(toolbar)

	return Model{
		ctrl:      ctrl,
		datasetID: datasetID,
		clipboard: export.ClipboardExporter{},
		editor:    editor.New(),
		results:   results.New(),
		columns:   columns.New(),
		statusbar: sb,
	}
}

// Open starts a fresh session: the editor shows the default query and the
// unfiltered query is issued right away.
func (m Model) Open() (Model, tea.Cmd) {
	cmd := m.ctrl.Open()
	m.editor = editor.New()
	m.results = results.New()
	m.columns = columns.New()
	m.statusbar.SetMessage("")
	m.setFocus(PaneEditor)
	m.layout()
	m.refresh()
	m.pullText()
	return m, tea.Batch(cmd, m.results.Tick(), textarea.Blink)
}

// IsOpen reports whether the modal is showing.
func (m Model) IsOpen() bool {
	return m.ctrl.IsOpen()
}

// Controller returns the controller behind the modal.
func (m Model) Controller() *console.Controller {
	return m.ctrl
}

// QueryText returns the editor content.
func (m Model) QueryText() string {
	return m.editor.Value()
}

// ActivePane returns the focused pane.
func (m Model) ActivePane() Pane {
	return m.activePane
}

// StatusMessage returns the status bar message.
func (m Model) StatusMessage() string {
	return m.statusbar.Message()
}

// SetSize sets the outer size of the modal.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.layout()
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages while the modal is open. Responses are always
// passed to the controller so it can drop those of a closed session.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case console.SettledMsg:
		if m.ctrl.Settle(msg) {
			m.refresh()
			m.pullText()
			m.statusbar.SetMessage(settledStatus(msg))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	if !m.IsOpen() {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)

	case editor.ExecuteQueryMsg:
		cmd := m.run(msg.Query)
		return m, cmd

	case results.SetEditorQueryMsg:
		m.ctrl.SetQueryText(msg.Query)
		m.pullText()
		m.setFocus(PaneEditor)
		return m, nil

	case results.StatusNotifyMsg:
		m.statusbar.SetMessage(msg.Message)
		return m, nil

	case columns.InsertMsg:
		m.setFocus(PaneEditor)
		m.editor.InsertText(msg.Text)
		m.pushText()
		return m, nil

	case columns.TemplateMsg:
		m.ctrl.SetQueryText(msg.Query)
		m.pullText()
		m.setFocus(PaneEditor)
		return m, nil
	}

	// cursor blink and other editor internals
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()

	if m.ctrl.Session().ShowHelp() {
		switch key {
		case "esc", "f1", "?", "q":
			m.ctrl.ToggleHelp()
		}
		return m, nil
	}

	switch key {
	case "esc":
		if m.activePane == PaneEditor && m.editor.CompletionActive() {
			return m.updatePane(msg)
		}
		m.ctrl.Close()
		return m, nil

	case "ctrl+e", "f5":
		cmd := m.run(strings.TrimSpace(m.editor.Value()))
		return m, cmd

	case "ctrl+r":
		m.statusbar.SetMessage("Resetting dataset...")
		cmd := m.startLoading(m.ctrl.ResetDataset())
		return m, cmd

	case "ctrl+k":
		m.ctrl.ClearQueryText()
		m.pullText()
		m.setFocus(PaneEditor)
		return m, nil

	case "ctrl+t":
		m.ctrl.PrefillAlterTemplate()
		m.pullText()
		m.setFocus(PaneEditor)
		return m, nil

	case "ctrl+s":
		cmd := m.ctrl.Download()
		if cmd == nil {
			m.statusbar.SetMessage("Download unavailable")
			return m, nil
		}
		m.statusbar.SetMessage("Downloading " + export.FileName + "...")
		return m, cmd

	case "ctrl+y":
		cmd := m.copyResults()
		return m, cmd

	case "f1":
		m.ctrl.ToggleHelp()
		return m, nil

	case "?":
		if m.activePane != PaneEditor {
			m.ctrl.ToggleHelp()
			return m, nil
		}

	case "tab":
		if m.activePane == PaneEditor && m.editor.Complete() {
			m.pushText()
			return m, nil
		}
		m.cyclePane(1)
		return m, nil

	case "shift+tab":
		m.cyclePane(-1)
		return m, nil
	}

	return m.updatePane(msg)
}

func (m Model) updatePane(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.activePane {
	case PaneEditor:
		m.editor, cmd = m.editor.Update(msg)
		m.pushText()
	case PaneResults:
		m.results, cmd = m.results.Update(msg)
	case PaneColumns:
		m.columns, cmd = m.columns.Update(msg)
	}

	return m, cmd
}

func (m *Model) run(query string) tea.Cmd {
	m.statusbar.SetMessage("")
	return m.startLoading(m.ctrl.RunQuery(query))
}

// startLoading shows the loading state for a submitted request. The spinner
// is only started when it is not already running.
func (m *Model) startLoading(cmd tea.Cmd) tea.Cmd {
	wasLoading := m.results.Loading()
	m.refresh()
	if wasLoading {
		return cmd
	}
	return tea.Batch(cmd, m.results.Tick())
}

func (m *Model) copyResults() tea.Cmd {
	r := m.ctrl.Session().Result()
	if r == nil || len(r.Rows) == 0 {
		m.statusbar.SetMessage("Nothing to copy")
		return nil
	}
	rows := r.Rows
	exp := m.clipboard
	return func() tea.Msg {
		if err := exp.Export(rows); err != nil {
			return results.StatusNotifyMsg{Message: "Copy failed: " + err.Error()}
		}
		return results.StatusNotifyMsg{Message: "Copied results as CSV"}
	}
}

// refresh pushes the controller state into the panes.
func (m *Model) refresh() {
	s := m.ctrl.Session()
	if s == nil {
		return
	}
	m.results.SetResult(s.Result(), m.ctrl.Display())
	m.columns.SetHeaders(m.results.Grid().Headers)
	m.editor.SetColumnNames(m.columns.Names())

	isError := s.Result() != nil && s.Result().IsError
	m.statusbar.SetPhase(s.Phase(), isError)
}

// pullText shows the session's query text in the editor.
func (m *Model) pullText() {
	if s := m.ctrl.Session(); s != nil {
		m.editor.SetQuery(s.QueryText())
	}
}

// pushText records the editor content in the session.
func (m *Model) pushText() {
	m.ctrl.SetQueryText(m.editor.Value())
}

func (m *Model) cyclePane(step int) {
	next := (int(m.activePane) + step + 3) % 3
	m.setFocus(Pane(next))
}

func (m *Model) setFocus(pane Pane) {
	m.activePane = pane
	m.editor.SetFocused(pane == PaneEditor)
	m.results.SetFocused(pane == PaneResults)
	m.columns.SetFocused(pane == PaneColumns)
	m.statusbar.SetActivePane(pane.String())
}

// frame is the space taken by the modal border and padding.
const (
	frameWidth  = 4
	frameHeight = 2
)

func (m Model) innerSize() (int, int) {
	return max(m.width-frameWidth, 20), max(m.height-frameHeight, 10)
}

func (m Model) paneSizes() (columnsWidth, rightWidth, editorHeight, resultsHeight int) {
	w, h := m.innerSize()

	// title, toolbar and status bar
	body := max(h-3, 6)

	columnsWidth = min(max(w/5, 20), 32)
	rightWidth = max(w-columnsWidth, 10)

	editorHeight = max(body*35/100, 5)
	resultsHeight = max(body-editorHeight, 4)
	return
}

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	columnsWidth, rightWidth, editorHeight, resultsHeight := m.paneSizes()
	w, _ := m.innerSize()

	// pane borders take two cells each way
	m.editor.SetSize(rightWidth-2, editorHeight-2)
	m.results.SetSize(rightWidth-2, resultsHeight-2)
	m.columns.SetSize(columnsWidth-2, editorHeight+resultsHeight-2)
	m.statusbar.SetWidth(w)
}

// View renders the modal.
func (m Model) View() string {
	if !m.IsOpen() {
		return ""
	}

	w, h := m.innerSize()

	title := theme.StyleTitle.Render("SQL Console") + "  " + theme.StyleMuted.Render(m.datasetID)

	if m.ctrl.Session().ShowHelp() {
		return theme.StyleModal.
			Width(w).
			Render(lipgloss.JoinVertical(lipgloss.Left, title, "", help.View(w)))
	}

	columnsWidth, rightWidth, editorHeight, resultsHeight := m.paneSizes()

	border := func(p Pane) lipgloss.Style {
		if m.activePane == p {
			return theme.StyleActiveBorder
		}
		return theme.StyleBorder
	}

	editorView := border(PaneEditor).
		Width(rightWidth - 2).
		Height(editorHeight - 2).
		Render(m.editor.View())

	resultsView := border(PaneResults).
		Width(rightWidth - 2).
		Height(resultsHeight - 2).
		Render(m.results.View())

	columnsView := border(PaneColumns).
		Width(columnsWidth - 2).
		Height(editorHeight + resultsHeight - 2).
		Render(m.columns.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, editorView, resultsView),
		columnsView,
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		theme.StyleMuted.Render(toolbar),
		body,
		m.statusbar.View(),
	)

	return theme.StyleModal.
		Width(w).
		MaxHeight(h + frameHeight).
		Render(content)
}

// settledStatus phrases a settled response for the status bar. Errors are
// already shown in the results pane.
func settledStatus(msg console.SettledMsg) string {
	if msg.Err != nil {
		return ""
	}
	if msg.Op == app.OpReset {
		return "Dataset reset"
	}
	if msg.Payload != nil && msg.Payload.Message != "" {
		return msg.Payload.Message
	}
	return "Query OK, " + rowCount(msg.Payload) + " fetched"
}

func rowCount(p *dataset.Payload) string {
	n := 0
	if p != nil {
		n = len(p.Rows)
	}
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}
