// Package tui is the terminal UI: dataset selection, the dataset page and
// the SQL console modal opened from it.
package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/dataconsole/internal/app"
	"github.com/joacominatel/dataconsole/internal/config"
	"github.com/joacominatel/dataconsole/internal/console"
	"github.com/joacominatel/dataconsole/internal/dataset"
	"github.com/joacominatel/dataconsole/internal/export"
	"github.com/joacominatel/dataconsole/internal/tui/sqlconsole"
	"github.com/joacominatel/dataconsole/internal/tui/theme"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("tui")

// AppMode tracks the current UI state.
type AppMode int

const (
	ModeSelectDataset AppMode = iota // show saved datasets list
	ModeEnterDataset                 // manual dataset id input
	ModeDataset                      // dataset page with the console trigger
)

// Options configures the UI.
type Options struct {
	// DatasetID opens this dataset directly, skipping selection.
	DatasetID string
	// Exporter receives the rows of a console download.
	Exporter export.Exporter
}

type datasetSavedMsg struct {
	err error
}

// Model is the top-level bubbletea model.
type Model struct {
	engine dataset.Engine
	cfg    *config.Config
	opts   Options

	idInput textinput.Model
	mode    AppMode
	cursor  int
	width   int
	height  int

	datasetID string
	console   sqlconsole.Model
	hasPage   bool
}

// NewModel creates the top-level model.
func NewModel(engine dataset.Engine, cfg *config.Config, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "datamart.nyc_taxi_trips"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 50

	// Decide initial mode
	mode := ModeEnterDataset
	if len(cfg.Datasets) > 0 {
		mode = ModeSelectDataset
	}

	m := Model{
		engine:  engine,
		cfg:     cfg,
		opts:    opts,
		idInput: ti,
		mode:    mode,
	}

	if id := strings.TrimSpace(opts.DatasetID); id != "" {
		m.showDataset(id)
	}

	return m
}

// Mode returns the current mode.
func (m Model) Mode() AppMode {
	return m.mode
}

// DatasetID returns the dataset shown on the dataset page.
func (m Model) DatasetID() string {
	return m.datasetID
}

// Console returns the console modal of the current dataset.
func (m Model) Console() sqlconsole.Model {
	return m.console
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.mode == ModeDataset {
		cmds = append(cmds, m.saveDatasetCmd(m.datasetID))
	}
	return tea.Batch(cmds...)
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		// Global keys
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.consoleOpen() {
			var cmd tea.Cmd
			m.console, cmd = m.console.Update(msg)
			return m, cmd
		}

		// Mode-specific key handling
		switch m.mode {
		case ModeSelectDataset:
			return m.updateSelectDataset(msg)
		case ModeEnterDataset:
			return m.updateEnterDataset(msg)
		case ModeDataset:
			return m.updateDataset(msg)
		}
		return m, nil

	case datasetSavedMsg:
		if msg.err != nil {
			log.Warningf("could not save dataset: %v", msg.err)
		}
		return m, nil
	}

	// Responses, spinner ticks and pane messages belong to the console.
	if m.hasPage {
		var cmd tea.Cmd
		m.console, cmd = m.console.Update(msg)
		return m, cmd
	}

	if m.mode == ModeEnterDataset {
		var cmd tea.Cmd
		m.idInput, cmd = m.idInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) consoleOpen() bool {
	return m.hasPage && m.console.IsOpen()
}

func (m Model) updateSelectDataset(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.cfg.Datasets)

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < count { // last item is "Other dataset"
			m.cursor++
		}
	case "enter":
		if m.cursor < count {
			cmd := m.openDataset(m.cfg.Datasets[m.cursor].ID)
			return m, cmd
		}
		m.mode = ModeEnterDataset
		m.idInput.Focus()
		return m, nil
	case "n":
		m.mode = ModeEnterDataset
		m.idInput.Focus()
		return m, nil
	case "q":
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) updateEnterDataset(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		id := strings.TrimSpace(m.idInput.Value())
		if id != "" {
			cmd := m.openDataset(id)
			return m, cmd
		}
		return m, nil
	case "esc":
		if len(m.cfg.Datasets) > 0 {
			m.mode = ModeSelectDataset
			return m, nil
		}
	case "q":
		if m.idInput.Value() == "" {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.idInput, cmd = m.idInput.Update(msg)
	return m, cmd
}

func (m Model) updateDataset(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "r":
		var cmd tea.Cmd
		m.console, cmd = m.console.Open()
		return m, cmd
	case "esc", "b":
		m.mode = ModeSelectDataset
		if len(m.cfg.Datasets) == 0 {
			m.mode = ModeEnterDataset
		}
		m.idInput.SetValue("")
		return m, nil
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

// openDataset shows the dataset page for id and remembers the dataset.
func (m *Model) openDataset(id string) tea.Cmd {
	m.showDataset(id)
	return m.saveDatasetCmd(id)
}

// showDataset shows the dataset page for id with a closed console.
func (m *Model) showDataset(id string) {
	svc := app.NewService(m.engine, id)
	ctrl := console.NewController(svc, console.Options{
		Exporter: m.opts.Exporter,
		Timeout:  m.cfg.Server.Timeout,
	})

	m.datasetID = id
	m.console = sqlconsole.New(ctrl, id)
	m.hasPage = true
	m.mode = ModeDataset
	m.layout()

	log.Infof("dataset %s selected", id)
}

// saveDatasetCmd remembers the dataset. The config is updated here and a
// snapshot is written in the background.
func (m Model) saveDatasetCmd(id string) tea.Cmd {
	if !m.cfg.AddDataset(config.Dataset{ID: id}) {
		return nil
	}
	snapshot := *m.cfg
	snapshot.Datasets = slices.Clone(m.cfg.Datasets)
	return func() tea.Msg {
		return datasetSavedMsg{err: config.Save(&snapshot)}
	}
}

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 || !m.hasPage {
		return
	}
	m.console.SetSize(m.width-2, m.height-2)
}

// View renders the entire application.
func (m Model) View() string {
	if m.consoleOpen() {
		return lipgloss.Place(m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			m.console.View(),
		)
	}

	switch m.mode {
	case ModeSelectDataset:
		return m.viewSelectDataset()
	case ModeEnterDataset:
		return m.viewEnterDataset()
	default:
		return m.viewDataset()
	}
}

func header() []string {
	titleStyle := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(1, 0)
	subtitleStyle := lipgloss.NewStyle().Foreground(theme.ColorMuted)

	return []string{
		"",
		titleStyle.Render("dataconsole"),
		subtitleStyle.Render("Explore datasets with SQL."),
		"",
	}
}

func (m Model) viewSelectDataset() string {
	sectionTitle := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Render("Saved Datasets")

	var items []string
	for i, d := range m.cfg.Datasets {
		label := "  " + d.DisplayString()
		if i == m.cursor {
			label = lipgloss.NewStyle().
				Foreground(theme.ColorHighlight).
				Bold(true).
				Render("> " + d.DisplayString())
		}
		items = append(items, label)
	}

	// "Other dataset" option
	otherLabel := "  [Other Dataset]"
	if m.cursor == len(m.cfg.Datasets) {
		otherLabel = lipgloss.NewStyle().
			Foreground(theme.ColorHighlight).
			Bold(true).
			Render("> [Other Dataset]")
	}
	items = append(items, "", otherLabel)

	hints := theme.StyleMuted.Render("  ↑/↓: Navigate  Enter: Open  n: Other  q: Quit")

	parts := append(header(), sectionTitle)
	parts = append(parts, items...)
	parts = append(parts, "", hints)

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (m Model) viewEnterDataset() string {
	prompt := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Render("Enter dataset id:")

	backHint := ""
	if len(m.cfg.Datasets) > 0 {
		backHint = "Esc: Back │ "
	}
	hint := theme.StyleMuted.Render("  " + backHint + "Enter: Open │ Ctrl+C: Quit")

	parts := append(header(),
		prompt,
		"  "+m.idInput.View(),
		"",
		hint,
	)

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (m Model) viewDataset() string {
	name := m.datasetID
	for _, d := range m.cfg.Datasets {
		if d.ID == m.datasetID {
			name = d.DisplayString()
			break
		}
	}

	parts := append(header(),
		lipgloss.NewStyle().Bold(true).Render(name),
		theme.StyleMuted.Render("Server: "+m.cfg.Server.BaseURL),
		"",
		theme.StyleButton.Render("Run SQL"),
		"",
		theme.StyleMuted.Render("  Enter: Run SQL  b: Datasets  q: Quit"),
	)

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}
