package views

import (
	"strings"

	"graphlens/internal/graph"
	"graphlens/ui/tui/state"
	"graphlens/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

type PropertiesView struct{}

// Render shows the inspected node or relationship.
func (v PropertiesView) Render(s state.AppState, props ViewProps) string {
	width := props.Width
	if width < 12 {
		width = 12
	}
	title := lipgloss.NewStyle().Bold(true)

	var lines []string
	if n, ok := s.Session.SelectedNode(); ok {
		lines = append(lines,
			title.Render(styles.Swatch(n.Color, "● ")+truncate(n.Caption, width-2)),
			field("ID", n.ID, width),
			field("Labels", strings.Join(n.Labels, ", "), width),
		)
		lines = append(lines, propertyLines(n.Properties, width)...)
	} else if r, ok := s.Session.SelectedRelationship(); ok {
		g := s.Session.Graph()
		from, _ := g.NodeByID(r.From)
		to, _ := g.NodeByID(r.To)
		lines = append(lines,
			title.Render(styles.Swatch(r.Color, "─ ")+truncate(r.Type, width-2)),
			field("ID", r.ID, width),
			field("From", from.Caption, width),
			field("To", to.Caption, width),
		)
		lines = append(lines, propertyLines(r.Captions, width)...)
	} else {
		lines = append(lines, styles.HelpStyle.Render("Select a node or relationship to inspect it."))
	}

	return styles.CardStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func propertyLines(p graph.Properties, width int) []string {
	if len(p) == 0 {
		return []string{styles.HelpStyle.Render("No properties")}
	}
	out := make([]string, 0, len(p))
	for _, k := range p.Keys() {
		out = append(out, field(k, p[k].String(), width))
	}
	return out
}

func field(key, value string, width int) string {
	k := lipgloss.NewStyle().Foreground(lipgloss.Color("#888")).Render(key + ": ")
	return k + truncate(strings.ReplaceAll(value, "\n", " "), width-len(key)-4)
}
