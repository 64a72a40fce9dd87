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

// ChipZone is the click zone of chip key in section.
func ChipZone(section, key string) string {
	return "chip_" + section + "_" + key
}

// Overview counts the displayed graph against the scheme of the whole
// collection, so labels outside the current bucket show with zero.
func Overview(sess *session.Session) output.Overview {
	g := sess.Graph()
	return output.BuildOverview(g.Nodes, g.Relationships, sess.Canonical().Scheme)
}

type LegendView struct{}

// Render draws the label and relationship chips of the displayed graph,
// wrapped to the panel width, followed by the chart.
func (v LegendView) Render(s state.AppState, props ViewProps) string {
	overview := Overview(s.Session)

	width := props.Width
	if width < 12 {
		width = 12
	}

	var blocks []string
	for _, id := range []string{output.SectionLabels, output.SectionRelationships} {
		sec := overview.SectionByID(id)
		if sec == nil || len(sec.Items) == 0 {
			continue
		}
		chips := make([]string, 0, len(sec.Items))
		for _, it := range sec.Items {
			chips = append(chips, zone.Mark(ChipZone(id, it.Key), styles.Chip(it.Color, fmt.Sprintf("%s %d", it.Label, it.Count))))
		}
		blocks = append(blocks,
			lipgloss.NewStyle().Bold(true).Render(sec.Title),
			wrap(chips, width),
		)
	}
	if props.ChartView != "" {
		blocks = append(blocks, props.ChartView)
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

// wrap lays chips out left to right, breaking lines at width.
func wrap(chips []string, width int) string {
	var lines []string
	var line []string
	used := 0
	for _, c := range chips {
		w := lipgloss.Width(c) + 1
		if used+w > width && len(line) > 0 {
			lines = append(lines, strings.Join(line, " "))
			line, used = nil, 0
		}
		line = append(line, c)
		used += w
	}
	if len(line) > 0 {
		lines = append(lines, strings.Join(line, " "))
	}
	return strings.Join(lines, "\n")
}
