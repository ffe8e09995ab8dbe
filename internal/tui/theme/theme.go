package theme

import "github.com/charmbracelet/lipgloss"

// Color palette; the header color matches the web console's table head.
var (
	ColorPrimary   = lipgloss.Color("63")  // Purple
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("196") // Red
	ColorBorder    = lipgloss.Color("238") // Dark gray
	ColorMuted     = lipgloss.Color("245") // Light gray
	ColorHighlight = lipgloss.Color("229") // Yellow
	ColorHeader    = lipgloss.Color("#63508b")
	ColorBadge     = lipgloss.Color("111") // Light blue
)

// Shared styles used across TUI components.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleActiveBorder = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)

	StyleModal = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(ColorHeader)

	StyleBadge = lipgloss.NewStyle().
			Foreground(ColorBadge).
			Italic(true)

	StyleNull = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Italic(true)

	StyleSelected = lipgloss.NewStyle().
			Reverse(true)

	StyleButton = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 2)

	StyleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)
