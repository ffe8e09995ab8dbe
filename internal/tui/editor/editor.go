package editor

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/dataconsole/internal/tui/theme"
)

// ExecuteQueryMsg is sent when the user triggers query execution.
type ExecuteQueryMsg struct {
	Query string
}

// datasetKeyword refers to the dataset's table in every query.
const datasetKeyword = "DATASET"

// SQL keywords for formatting, including the DuckDB types used with ALTER.
var sqlKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "and": true, "or": true,
	"insert": true, "into": true, "update": true, "delete": true,
	"create": true, "drop": true, "alter": true, "table": true,
	"column": true, "type": true, "rename": true, "add": true,
	"join": true, "inner": true, "outer": true,
	"left": true, "right": true, "cross": true, "on": true, "using": true,
	"not": true, "in": true, "is": true, "null": true, "like": true,
	"order": true, "by": true, "group": true, "having": true,
	"limit": true, "offset": true, "as": true, "distinct": true,
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"between": true, "exists": true, "case": true, "when": true,
	"then": true, "else": true, "end": true, "values": true,
	"set": true, "union": true, "all": true, "asc": true, "desc": true,
	"default": true, "true": true, "false": true, "ilike": true,
	"describe": true, "summarize": true, "cast": true, "try_cast": true,
	"bigint": true, "integer": true, "varchar": true, "double": true,
	"float": true, "boolean": true, "date": true, "timestamp": true,
}

// Model is the SQL query editor component.
type Model struct {
	textarea textarea.Model
	width    int
	height   int
	focused  bool

	// Completion state
	columnNames []string // columns of the current result
	completing  bool     // in completion mode
	completions []string // current candidates
	compIndex   int      // which candidate is active
}

// New creates a new editor model.
func New() Model {
	ta := textarea.New()
	ta.Placeholder = "Write Query"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0 // unlimited
	ta.Prompt = "│ "
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.BlurredStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.ColorMuted)
	ta.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.ColorMuted)
	ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(theme.ColorPrimary)
	ta.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(theme.ColorBorder)

	return Model{
		textarea: ta,
	}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.textarea.SetWidth(max(w-2, 1))
	m.textarea.SetHeight(max(h-2, 1))
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
	if f {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
}

// Focused returns whether the editor has focus.
func (m Model) Focused() bool {
	return m.focused
}

// Value returns the current editor content.
func (m Model) Value() string {
	return m.textarea.Value()
}

// SetQuery replaces the editor content.
func (m *Model) SetQuery(query string) {
	m.cancelCompletion()
	if m.textarea.Value() == query {
		return
	}
	m.textarea.SetValue(query)
}

// InsertText inserts text at the cursor.
func (m *Model) InsertText(text string) {
	m.cancelCompletion()
	m.textarea.InsertString(text)
}

// SetColumnNames sets the column names offered by completion.
func (m *Model) SetColumnNames(names []string) {
	m.columnNames = names
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the editor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()

		switch key {
		case "ctrl+e", "f5":
			// An empty query is sent as is; the engine treats it as the
			// unfiltered dataset.
			query := strings.TrimSpace(m.textarea.Value())
			m.cancelCompletion()
			return m, func() tea.Msg {
				return ExecuteQueryMsg{Query: query}
			}

		case "ctrl+l":
			m.formatKeywords()
			return m, nil

		case "tab":
			if m.tryCompletion() {
				return m, nil
			}

		case "esc":
			if m.completing {
				m.cancelCompletion()
				return m, nil
			}
		}

		// Any key other than Tab/Esc cancels completion mode
		if m.completing && key != "tab" && key != "esc" {
			m.cancelCompletion()
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// CompletionActive reports whether Tab is cycling completion candidates.
func (m Model) CompletionActive() bool {
	return m.completing
}

// Complete completes the word before the cursor, or cycles to the next
// candidate. It reports whether anything was completed.
func (m *Model) Complete() bool {
	return m.tryCompletion()
}

// formatKeywords uppercases all SQL keywords in the editor content.
func (m *Model) formatKeywords() {
	val := m.textarea.Value()
	if val == "" {
		return
	}
	m.textarea.SetValue(FormatKeywords(val))
}

// FormatKeywords uppercases SQL keywords outside quoted text.
func FormatKeywords(val string) string {
	var result strings.Builder
	word := strings.Builder{}
	inString := false
	quote := rune(0)

	for _, ch := range val {
		// Track string literals and quoted identifiers
		if (ch == '\'' || ch == '"') && !inString {
			inString = true
			quote = ch
			flushWord(&word, &result)
			result.WriteRune(ch)
			continue
		}
		if inString && ch == quote {
			inString = false
			result.WriteRune(ch)
			continue
		}
		if inString {
			result.WriteRune(ch)
			continue
		}

		// Word boundary
		if !unicode.IsLetter(ch) && ch != '_' {
			flushWord(&word, &result)
			result.WriteRune(ch)
		} else {
			word.WriteRune(ch)
		}
	}
	flushWord(&word, &result)

	return result.String()
}

func flushWord(word *strings.Builder, result *strings.Builder) {
	if word.Len() == 0 {
		return
	}
	w := word.String()
	if sqlKeywords[strings.ToLower(w)] || strings.EqualFold(w, datasetKeyword) {
		result.WriteString(strings.ToUpper(w))
	} else {
		result.WriteString(w)
	}
	word.Reset()
}

// tryCompletion completes the word before the cursor with a column name or
// the DATASET keyword. Returns true if a completion was applied.
func (m *Model) tryCompletion() bool {
	val := m.textarea.Value()
	if val == "" {
		return false
	}

	// If already completing, cycle through candidates
	if m.completing && len(m.completions) > 0 {
		m.compIndex = (m.compIndex + 1) % len(m.completions)
		m.applyCompletion()
		return true
	}

	partial := extractLastWord(val)
	if partial == "" {
		return false
	}

	matches := Candidates(partial, m.columnNames)
	if len(matches) == 0 {
		return false
	}

	m.completing = true
	m.completions = matches
	m.compIndex = 0
	m.applyCompletion()
	return true
}

// Candidates returns the completions for a partial word: the DATASET keyword
// and matching column names, quoted when they are not plain identifiers.
func Candidates(partial string, columns []string) []string {
	lower := strings.ToLower(strings.TrimPrefix(partial, `"`))

	var matches []string
	if strings.HasPrefix(strings.ToLower(datasetKeyword), lower) && !strings.HasPrefix(partial, `"`) {
		matches = append(matches, datasetKeyword)
	}
	for _, name := range columns {
		if strings.HasPrefix(strings.ToLower(name), lower) {
			matches = append(matches, quoteIdent(name))
		}
	}
	return matches
}

// applyCompletion replaces the partial word with the current completion candidate.
func (m *Model) applyCompletion() {
	if len(m.completions) == 0 {
		return
	}

	val := m.textarea.Value()
	// Remove the partial (or previous completion) from the end
	base := strings.TrimSuffix(val, extractLastWord(val))
	m.textarea.SetValue(base + m.completions[m.compIndex])
}

func (m *Model) cancelCompletion() {
	m.completing = false
	m.completions = nil
	m.compIndex = 0
}

// extractLastWord returns the last word-like token from the text, including
// a quoted identifier that is still being typed or was completed.
func extractLastWord(s string) string {
	s = strings.TrimRight(s, " \t\n\r")
	if s == "" {
		return ""
	}

	// completed quoted identifier, e.g. "Trip Distance"
	if strings.HasSuffix(s, `"`) {
		if open := strings.LastIndex(s[:len(s)-1], `"`); open >= 0 {
			return s[open:]
		}
	}

	i := len(s) - 1
	for i >= 0 && isIdentChar(rune(s[i])) {
		i--
	}
	if i >= 0 && s[i] == '"' {
		return s[i:]
	}
	return s[i+1:]
}

func isIdentChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c == '_'
}

func quoteIdent(name string) string {
	plain := name != ""
	for i, c := range name {
		if !isIdentChar(c) || (i == 0 && c >= '0' && c <= '9') {
			plain = false
			break
		}
	}
	if plain {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// View renders the editor.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(0, 1)

	title := titleStyle.Render("Editor")

	var completionHint string
	if m.completing && len(m.completions) > 1 {
		hint := make([]string, 0, len(m.completions))
		for i, c := range m.completions {
			if i == m.compIndex {
				hint = append(hint, lipgloss.NewStyle().Foreground(theme.ColorHighlight).Bold(true).Render(c))
			} else {
				hint = append(hint, theme.StyleMuted.Render(c))
			}
		}
		completionHint = "\n" + lipgloss.NewStyle().Padding(0, 1).Render(
			theme.StyleMuted.Render("Tab: ")+strings.Join(hint, " │ "),
		)
	}

	return title + "\n" + m.textarea.View() + completionHint
}
