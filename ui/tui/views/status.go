package views

import (
	"strings"

	"graphlens/internal/session"
	"graphlens/ui/tui/state"
	"graphlens/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// StatusView renders a session that has no graph to show: loading, failed,
// empty or closed.
type StatusView struct{}

func (v StatusView) Render(s state.AppState, props ViewProps) string {
	sess := s.Session
	lines := []string{styles.TitleStyle.Render("graphlens"), ""}
	switch sess.State() {
	case session.StateLoading:
		lines = append(lines, props.SpinnerView+" Loading graph for "+strings.Join(sess.Scope().Names, ", "))
	case session.StateError:
		lines = append(lines,
			ColorForState(session.StateError).Render("Could not load the graph"),
			"",
			lipgloss.NewStyle().Width(max(props.Width-8, 20)).Render(sess.Message()),
			"",
			styles.HelpStyle.Render("Press 'r' to retry or 'q' to quit."),
		)
	case session.StateEmpty:
		lines = append(lines,
			ColorForState(session.StateEmpty).Render(sess.Message()),
			"",
			styles.HelpStyle.Render("Press 'r' to refresh or 'q' to quit."),
		)
	default:
		lines = append(lines,
			ColorForState(session.StateClosed).Render("View closed."),
			"",
			styles.HelpStyle.Render("Press 'o' to reopen or 'q' to quit."),
		)
	}
	return lipgloss.Place(props.Width, props.Height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, lines...))
}
