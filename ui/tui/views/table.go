package views

import (
	"fmt"
	"strings"

	"graphlens/internal/output"
	"graphlens/internal/session"
	"graphlens/ui/tui/state"
	"graphlens/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

// TableZone is the click zone of the tab for table id.
func TableZone(id string) string {
	return "table_" + id
}

// RowZone is the click zone of row id in the active table.
func RowZone(id string) string {
	return "row_" + id
}

// tableChrome is the table tabs, filter, column header and footer lines.
const tableChrome = 4

type TableView struct{}

func (v TableView) Render(s state.AppState, props ViewProps) string {
	set := s.Tables()
	active := s.Table()

	tabs := make([]string, 0, len(set.Tables))
	for _, t := range set.Tables {
		label := fmt.Sprintf("%s (%d)", t.Title, len(t.Rows))
		st := lipgloss.NewStyle().Padding(0, 1)
		if t.ID == active.ID {
			st = st.Bold(true).Foreground(lipgloss.Color("#FFF")).Background(styles.BrandColor)
		} else {
			st = st.Foreground(lipgloss.Color("#AAA"))
		}
		tabs = append(tabs, zone.Mark(TableZone(t.ID), st.Render(label)))
	}

	width := props.Width
	if width < 20 {
		width = 20
	}
	colWidth := (width - 2) / max(len(active.Columns), 1)

	header := make([]string, len(active.Columns))
	for i, c := range active.Columns {
		header[i] = pad(c, colWidth)
	}

	availableHeight := max(props.Height-tableChrome, 1)
	start, end := window(len(active.Rows), props.ScrollY, availableHeight)

	sel := s.Session.Selection()
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		row := active.Rows[i]
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = pad(strings.ReplaceAll(c, "\n", " "), colWidth)
		}
		line := strings.Join(cells, "")
		switch {
		case isInspected(sel, row):
			line = styles.SelectedStyle.Render(line)
		case i == s.Cursor:
			line = lipgloss.NewStyle().Foreground(styles.BrandColor).Render(line)
		}
		lines = append(lines, zone.Mark(RowZone(row.ID), "  "+line))
	}
	if len(active.Rows) == 0 {
		lines = append(lines, styles.HelpStyle.Render("No rows."))
	}

	footerText := fmt.Sprintf("Rows: %d", len(active.Rows))
	if len(active.Rows) > availableHeight {
		footerText += fmt.Sprintf(" • Showing %d-%d • Use ↑/↓ to scroll", start+1, end)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		props.FilterView,
		lipgloss.NewStyle().Bold(true).Render("  "+strings.Join(header, "")),
		lipgloss.NewStyle().Height(availableHeight).Render(strings.Join(lines, "\n")),
		styles.HelpStyle.Render(footerText),
	)
}

func isInspected(sel session.Selection, row output.Row) bool {
	switch sel.Kind {
	case session.SelectionNode:
		return row.Node != nil && row.ID == sel.ID
	case session.SelectionRelationship:
		return row.Relationship != nil && row.ID == sel.ID
	}
	return false
}
