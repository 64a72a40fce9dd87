// Package search highlights nodes and relationships of a projected graph.
// Every function returns a fresh copy; the input graph is never modified.
package search

import (
	"strings"

	"graphlens/internal/graph"
)

// DefaultProperty is the identifying property consulted besides id and caption.
const DefaultProperty = "id"

// Engine applies text and legend highlighting.
type Engine struct {
	nodeSize float64
	property string
}

// Option configures an Engine.
type Option func(*Engine)

// WithNodeSize sets the size nodes are reset to when highlighting is cleared.
func WithNodeSize(size float64) Option {
	return func(e *Engine) {
		if size > 0 {
			e.nodeSize = size
		}
	}
}

// WithProperty changes the identifying property matched by text search.
func WithProperty(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.property = name
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{nodeSize: graph.DefaultNodeSize, property: DefaultProperty}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NodeSize is the reset size.
func (e *Engine) NodeSize() float64 {
	return e.nodeSize
}

// Matches reports whether n matches a non-empty query: a case-insensitive
// substring of the id, the caption, or the identifying property. The query
// is taken as typed, surrounding spaces included.
func (e *Engine) Matches(query string, n graph.Node) bool {
	q := strings.ToLower(query)
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(n.ID), q) ||
		strings.Contains(strings.ToLower(n.Caption), q) ||
		strings.Contains(strings.ToLower(n.Properties.Text(e.property)), q)
}

// Search selects the nodes matching query. Relationships are always
// deselected. An empty query deselects everything and resets node sizes.
func (e *Engine) Search(query string, g graph.Graph) graph.Graph {
	out := g.Clone()
	clearRelationships(out.Relationships)

	if query == "" {
		for i := range out.Nodes {
			out.Nodes[i].Selected = false
			out.Nodes[i].Size = e.nodeSize
		}
		return out
	}
	for i := range out.Nodes {
		out.Nodes[i].Selected = e.Matches(query, out.Nodes[i])
	}
	return out
}

// HighlightLabel selects every node carrying label and deselects all
// relationships.
func (e *Engine) HighlightLabel(label string, g graph.Graph) graph.Graph {
	out := g.Clone()
	clearRelationships(out.Relationships)
	for i := range out.Nodes {
		out.Nodes[i].Selected = out.Nodes[i].HasLabel(label)
	}
	return out
}

// HighlightCaption selects every relationship whose caption equals caption,
// and deselects and resizes all nodes.
func (e *Engine) HighlightCaption(caption string, g graph.Graph) graph.Graph {
	out := g.Clone()
	for i := range out.Nodes {
		out.Nodes[i].Selected = false
		out.Nodes[i].Size = e.nodeSize
	}
	for i := range out.Relationships {
		out.Relationships[i].Selected = out.Relationships[i].Caption == caption
	}
	return out
}

// Selected returns the ids of the selected nodes, in graph order.
func Selected(g graph.Graph) []string {
	var ids []string
	for _, n := range g.Nodes {
		if n.Selected {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func clearRelationships(rels []graph.Relationship) {
	for i := range rels {
		rels[i].Selected = false
	}
}
