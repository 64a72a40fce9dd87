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

// CanvasBackground is the click zone that clears the inspected element.
const CanvasBackground = "canvas_bg"

// Entry is one line of the canvas list: a node or a relationship.
type Entry struct {
	Zone string
	Node *graph.Node
	Rel  *graph.Relationship
}

// CanvasEntries lists the nodes of g followed by its relationships.
func CanvasEntries(g graph.Graph) []Entry {
	out := make([]Entry, 0, len(g.Nodes)+len(g.Relationships))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		out = append(out, Entry{Zone: "node_" + n.ID, Node: n})
	}
	for i := range g.Relationships {
		r := &g.Relationships[i]
		out = append(out, Entry{Zone: "rel_" + r.ID, Rel: r})
	}
	return out
}

type CanvasView struct{}

func (v CanvasView) Render(s state.AppState, props ViewProps) string {
	g := s.Session.Graph()
	entries := CanvasEntries(g)
	sel := s.Session.Selection()

	captions := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		captions[n.ID] = n.Caption
	}

	width := props.Width
	if width < 20 {
		width = 20
	}
	listHeight := max(props.Height-1, 1)
	start, end := window(len(entries), props.ScrollY, listHeight)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		e := entries[i]
		cursor := "  "
		if i == s.Cursor {
			cursor = lipgloss.NewStyle().Foreground(styles.BrandColor).Render("> ")
		}

		var line string
		inspected := false
		switch {
		case e.Node != nil:
			n := e.Node
			inspected = sel.Kind == session.SelectionNode && sel.ID == n.ID
			line = nodeLine(n, width-2)
		case e.Rel != nil:
			r := e.Rel
			inspected = sel.Kind == session.SelectionRelationship && sel.ID == r.ID
			line = relLine(r, captions, width-2)
		}
		if inspected {
			line = styles.SelectedStyle.Render(line)
		}
		lines = append(lines, zone.Mark(e.Zone, cursor+line))
	}

	if len(entries) == 0 {
		lines = append(lines, styles.HelpStyle.Render("Nothing in this view."))
	}

	footer := fmt.Sprintf("%d nodes • %d relationships", len(g.Nodes), len(g.Relationships))
	if q := s.Session.Query(); q != "" {
		footer += fmt.Sprintf(" • %d matching %q", countSelected(g), q)
	}

	body := lipgloss.NewStyle().
		Width(width).
		Height(listHeight).
		Render(strings.Join(lines, "\n"))

	return zone.Mark(CanvasBackground, lipgloss.JoinVertical(lipgloss.Left,
		body,
		styles.HelpStyle.Render(footer),
	))
}

// nodeLine is "● Caption  Label, Label" with the bullet in the node color.
// Search hits are bold and sized by their display weight.
func nodeLine(n *graph.Node, width int) string {
	bullet := "●"
	if n.Size > 30 {
		bullet = "⬤"
	}
	text := truncate(n.Caption, width/2)
	labels := truncate(strings.Join(n.Labels, ", "), width/2-4)
	st := lipgloss.NewStyle()
	if n.Selected {
		st = st.Bold(true).Underline(true)
	}
	return styles.Swatch(n.Color, bullet) + " " + st.Render(text) + "  " +
		lipgloss.NewStyle().Foreground(lipgloss.Color("#777")).Render(labels)
}

// relLine is "from ─TYPE→ to" with the arrow in the relationship color.
func relLine(r *graph.Relationship, captions map[string]string, width int) string {
	third := width / 3
	arrow := styles.Swatch(r.Color, "─"+truncate(r.Caption, third)+"→")
	if r.Selected {
		arrow = lipgloss.NewStyle().Bold(true).Render(arrow)
	}
	return "  " + truncate(captions[r.From], third) + " " + arrow + " " + truncate(captions[r.To], third)
}

func countSelected(g graph.Graph) int {
	n := 0
	for _, node := range g.Nodes {
		if node.Selected {
			n++
		}
	}
	return n
}
