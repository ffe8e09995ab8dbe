package statusbar

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/dataconsole/internal/console"
	"github.com/joacominatel/dataconsole/internal/tui/theme"
)

// DefaultHints are shown when there is no message.
const DefaultHints = "Ctrl+E: Run │ Tab: Switch pane │ F1: Help │ Esc: Close"

// Model is the status bar component.
type Model struct {
	width      int
	datasetID  string
	phase      console.Phase
	isError    bool
	activePane string
	message    string
	hints      string
}

// New creates a new status bar model.
func New() Model {
	return Model{
		activePane: "editor",
		hints:      DefaultHints,
	}
}

// SetWidth updates the component width.
func (m *Model) SetWidth(w int) {
	m.width = w
}

// SetDataset updates the dataset shown on the left.
func (m *Model) SetDataset(id string) {
	m.datasetID = id
}

// SetPhase updates the request indicator.
func (m *Model) SetPhase(p console.Phase, isError bool) {
	m.phase = p
	m.isError = isError
}

// SetActivePane updates the displayed active pane name.
func (m *Model) SetActivePane(pane string) {
	m.activePane = pane
}

// SetHints replaces the keybinding hints.
func (m *Model) SetHints(h string) {
	m.hints = h
}

// SetMessage sets a temporary status message.
func (m *Model) SetMessage(msg string) {
	m.message = msg
}

// Message returns the current status message.
func (m Model) Message() string {
	return m.message
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages (status bar has no interactive behavior).
func (m Model) Update(_ tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	style := theme.StyleStatusBar.Width(m.width)

	color := theme.ColorSuccess
	switch {
	case m.phase == console.PhaseLoading:
		color = theme.ColorHighlight
	case m.isError:
		color = theme.ColorError
	case m.phase == console.PhaseIdle:
		color = theme.ColorMuted
	}
	indicator := lipgloss.NewStyle().Foreground(color).Render("●") + " " + m.datasetID +
		theme.StyleMuted.Render(" ["+m.activePane+"]")

	// Message or hints
	right := m.hints
	if m.message != "" {
		right = m.message
	}

	// Calculate spacing
	leftLen := lipgloss.Width(indicator)
	rightLen := lipgloss.Width(right)
	padding := m.width - leftLen - rightLen - 4 // borders + spacing
	if padding < 1 {
		padding = 1
	}

	bar := indicator + strings.Repeat(" ", padding) + right

	return style.Render(bar)
}
