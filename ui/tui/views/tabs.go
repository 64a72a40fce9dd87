package views

import (
	"fmt"
	"math"

	"graphlens/ui/tui/state"
	"graphlens/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

// TabZone is the click zone of bucket tab i.
func TabZone(i int) string {
	return fmt.Sprintf("tab_%d", i)
}

type TabsView struct{}

// Render draws one tab per non-empty bucket. The tab under the animated
// cursor is lifted by its distance to the active tab.
func (v TabsView) Render(s state.AppState, props ViewProps) string {
	buckets := s.Session.Buckets()
	if !s.Session.TabsEnabled() || len(buckets) == 0 {
		return ""
	}

	tabs := make([]string, 0, len(buckets))
	for i, b := range buckets {
		dist := math.Abs(float64(i) - props.AnimCursor)
		strength := 0.0
		if dist < 1.0 {
			strength = 1.0 - dist
		}

		borderColor := lipgloss.TerminalColor(styles.BaseColor)
		if strength > 0.1 || i == props.TabCursor {
			borderColor = styles.BrandColor
		}

		st := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1).
			MarginRight(1)
		if b == s.Session.Bucket() {
			st = st.Bold(true).Foreground(lipgloss.Color("#FFF"))
		} else {
			st = st.Foreground(lipgloss.Color("#AAA"))
		}
		if strength < 0.5 {
			st = st.MarginTop(1)
		}

		tabs = append(tabs, zone.Mark(TabZone(i), st.Render(b.Title())))
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}
