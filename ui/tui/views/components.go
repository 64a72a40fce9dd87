package views

import (
	"strings"

	"graphlens/internal/session"
	"graphlens/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func ColorForState(st session.State) lipgloss.Style {
	sStyle := styles.StatusStyle
	switch st {
	case session.StateError:
		return sStyle.Foreground(styles.Danger)
	case session.StateLoading, session.StateEmpty:
		return sStyle.Foreground(lipgloss.Color("220")) // Gold
	case session.StateClosed:
		return sStyle.Foreground(lipgloss.Color("244"))
	}
	return sStyle.Foreground(styles.Special)
}

// truncate cuts s to w cells, marking the cut with an ellipsis.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w == 1 {
		return "…"
	}
	return string(r[:w-1]) + "…"
}

func pad(s string, w int) string {
	s = truncate(s, w)
	if n := lipgloss.Width(s); n < w {
		s += strings.Repeat(" ", w-n)
	}
	return s
}

// window returns the [start, end) range of n lines visible at scrollY in
// height lines.
func window(n, scrollY, height int) (int, int) {
	if height < 1 {
		height = 1
	}
	if scrollY > n-height {
		scrollY = n - height
	}
	if scrollY < 0 {
		scrollY = 0
	}
	end := scrollY + height
	if end > n {
		end = n
	}
	return scrollY, end
}
