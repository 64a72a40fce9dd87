package views

import (
	"fmt"
	"strings"

	"graphlens/internal/graph"
	"graphlens/internal/session"
	"graphlens/ui/tui/state"
	"graphlens/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

// tabsHeight is a bordered tab row plus the lift margin.
const tabsHeight = 4

// Layout splits the screen between the main pane and the side panel.
type Layout struct {
	MainWidth  int
	SideWidth  int
	BodyHeight int
}

// ComputeLayout sizes the panes for the session's current mode.
func ComputeLayout(width, height int, s *session.Session) Layout {
	side := min(40, width/3)
	overhead := 3 // header, help and error lines
	if s.Mode() == session.ModeCanvas {
		overhead++ // search box
		if s.TabsEnabled() {
			overhead += tabsHeight
		}
	}
	return Layout{
		MainWidth:  max(width-side-1, 20),
		SideWidth:  side,
		BodyHeight: max(height-overhead, 3),
	}
}

// Visible is the number of list lines the main pane shows.
func (l Layout) Visible(mode session.DisplayMode) int {
	if mode == session.ModeTable {
		return max(l.BodyHeight-tableChrome, 1)
	}
	return max(l.BodyHeight-1, 1)
}

// RenderPage draws the whole screen for s.
func RenderPage(s state.AppState, props ViewProps) string {
	sess := s.Session
	header := renderHeader(s, props)

	if sess.State() != session.StateReady {
		body := StatusView{}.Render(s, ViewProps{
			Width:       props.Width,
			Height:      max(props.Height-1, 1),
			SpinnerView: props.SpinnerView,
		})
		return lipgloss.JoinVertical(lipgloss.Left, header, body)
	}

	layout := ComputeLayout(props.Width, props.Height, sess)
	mainProps := props
	mainProps.Width = layout.MainWidth
	mainProps.Height = layout.BodyHeight

	var sections []string
	sections = append(sections, header)

	var main string
	if sess.Mode() == session.ModeTable {
		main = TableView{}.Render(s, mainProps)
	} else {
		if tabs := (TabsView{}).Render(s, props); tabs != "" {
			sections = append(sections, lipgloss.NewStyle().Height(tabsHeight).Render(tabs))
		}
		sections = append(sections, props.SearchView)
		main = CanvasView{}.Render(s, mainProps)
	}

	sideProps := props
	sideProps.Width = layout.SideWidth
	side := lipgloss.JoinVertical(lipgloss.Left,
		PropertiesView{}.Render(s, sideProps),
		LegendView{}.Render(s, sideProps),
	)
	side = lipgloss.NewStyle().MaxHeight(layout.BodyHeight).Render(side)

	sections = append(sections,
		lipgloss.JoinHorizontal(lipgloss.Top, main, " ", side),
		renderError(s),
		styles.HelpStyle.Render(helpText(s)),
	)
	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func renderHeader(s state.AppState, props ViewProps) string {
	sess := s.Session
	name := strings.Join(sess.Scope().Names, ", ")
	if name == "" {
		name = sess.Scope().Viewpoint.String()
	}
	title := fmt.Sprintf("GRAPHLENS // %s", name)

	status := sess.State().String()
	if sess.State() == session.StateReady {
		status = sess.Mode().String()
	}
	right := ColorForState(sess.State()).Render(status)
	if sess.Refreshing() {
		right = props.SpinnerView + " refreshing"
	}
	if !s.LastUpdate.IsZero() {
		right += fmt.Sprintf(" • %s", s.LastUpdate.Format("15:04:05"))
	}

	left := styles.HeaderStyle.Render(truncate(title, max(props.Width-30, 10)))
	return lipgloss.JoinHorizontal(lipgloss.Center, left, " ", right)
}

func renderError(s state.AppState) string {
	if s.Err == nil {
		return ""
	}
	return lipgloss.NewStyle().Foreground(styles.Danger).Render(s.Err.Error())
}

func helpText(s state.AppState) string {
	switch s.Focus {
	case state.FocusSearch, state.FocusFilter:
		return "[Enter/Esc] Done typing"
	}
	parts := []string{"[↑/↓] Move", "[Enter] Inspect"}
	if s.Session.Mode() == session.ModeCanvas {
		parts = append(parts, "[/] Search")
		if s.Session.TabsEnabled() {
			parts = append(parts, "[Tab] Next view")
		}
	} else {
		parts = append(parts, "[/] Filter", "[,/.] Table")
	}
	parts = append(parts, "[t] Canvas/Table")
	if s.Session.Scope().Viewpoint != graph.ViewpointPreloaded {
		parts = append(parts, "[r] Refresh")
	}
	parts = append(parts, "[x] Close", "[q] Quit")
	return strings.Join(parts, " • ")
}
