// Package help renders the console's help overlay.
package help

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/dataconsole/internal/tui/theme"
)

// DataTypesURL documents the engine's data types.
const DataTypesURL = "https://duckdb.org/docs/sql/data_types/overview.html"

// Examples are the sample queries shown in the overlay.
var Examples = []struct{ Title, Query string }{
	{"All rows", "SELECT * FROM DATASET;"},
	{"Column types", "DESCRIBE SELECT * FROM DATASET;"},
	{"Count by value", `SELECT "Payment Type", count(*) FROM DATASET GROUP BY "Payment Type";`},
	{"Change a column type", `ALTER TABLE DATASET ALTER "Trip Distance" TYPE DOUBLE;`},
}

// CommonTypes are the types most often used with ALTER.
var CommonTypes = []struct{ Name, Desc string }{
	{"BIGINT", "whole numbers"},
	{"DOUBLE", "double precision floating point"},
	{"FLOAT", "single precision floating point"},
	{"VARCHAR", "text"},
	{"BOOLEAN", "true or false"},
	{"DATE", "calendar date"},
	{"TIMESTAMP", "date and time"},
}

var keys = []struct{ Key, Desc string }{
	{"Ctrl+E / F5", "Run the query"},
	{"Ctrl+R", "Reset the dataset to its original state"},
	{"Ctrl+K", "Clear the editor"},
	{"Ctrl+T", "Insert the ALTER column type template"},
	{"Ctrl+L", "Uppercase keywords"},
	{"Ctrl+S", "Download the results as Modified.csv"},
	{"Ctrl+Y", "Copy the results as CSV"},
	{"Tab", "Complete a column, or switch pane"},
	{"F1 / ?", "Toggle this help"},
	{"Esc", "Close help, then the console"},
}

var paneKeys = []struct{ Key, Desc string }{
	{"Results  ↑↓←→", "Move the selected cell"},
	{"Results  c y Y", "Copy cell, row as CSV, row as JSON"},
	{"Results  f", "Filter by the selected value"},
	{"Columns  Enter", "Insert the column name"},
	{"Columns  g s a", "Group by, distinct values, change type"},
}

// View renders the help overlay at the given width.
func View(width int) string {
	titleStyle := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(theme.ColorHighlight).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Width(16)

	descStyle := lipgloss.NewStyle().
		Foreground(theme.ColorMuted)

	codeStyle := lipgloss.NewStyle().
		Foreground(theme.ColorBadge)

	lines := []string{
		titleStyle.Render("SQL Console Help"),
		"",
		descStyle.Render("Use the keyword ") + codeStyle.Render("DATASET") +
			descStyle.Render(" to refer to the dataset's table."),
		descStyle.Render("Always use double quotes for columns with spaces, e.g. ") +
			codeStyle.Render(`"Trip Distance"`) + descStyle.Render("."),
		"",
		sectionStyle.Render("Examples"),
	}
	for _, ex := range Examples {
		lines = append(lines, "  "+descStyle.Render(ex.Title+":"), "    "+codeStyle.Render(ex.Query))
	}

	lines = append(lines, "", sectionStyle.Render("Common data types"))
	for _, t := range CommonTypes {
		lines = append(lines, "  "+keyStyle.Render(t.Name)+descStyle.Render(t.Desc))
	}
	lines = append(lines, "  "+descStyle.Render("All types: ")+codeStyle.Render(DataTypesURL))

	lines = append(lines, "", sectionStyle.Render("Keys"))
	for _, k := range keys {
		lines = append(lines, "  "+keyStyle.Render(k.Key)+descStyle.Render(k.Desc))
	}
	for _, k := range paneKeys {
		lines = append(lines, "  "+keyStyle.Render(k.Key)+descStyle.Render(k.Desc))
	}

	lines = append(lines, "", theme.StyleMuted.Render("Esc or F1 to close"))

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	if width > 0 {
		content = lipgloss.NewStyle().MaxWidth(width).Render(content)
	}
	return content
}
