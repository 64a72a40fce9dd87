package graph

import "strings"

// Viewpoint is the mode that triggered a fetch.
type Viewpoint int

const (
	// ViewpointSelected fetches the graph of several selected documents.
	ViewpointSelected Viewpoint = iota
	// ViewpointSingle fetches the graph of one inspected document.
	ViewpointSingle
	// ViewpointPreloaded carries records supplied by the caller; nothing is fetched.
	ViewpointPreloaded
)

func (v Viewpoint) String() string {
	switch v {
	case ViewpointSelected:
		return "selected"
	case ViewpointSingle:
		return "single"
	case ViewpointPreloaded:
		return "preloaded"
	default:
		return "unknown"
	}
}

// Scope is the outbound query parameter handed to a source.
type Scope struct {
	Viewpoint Viewpoint
	Names     []string
}

// SelectedItems scopes a fetch to a set of document names.
func SelectedItems(names ...string) Scope {
	return Scope{Viewpoint: ViewpointSelected, Names: names}
}

// SingleItem scopes a fetch to one inspected document.
func SingleItem(name string) Scope {
	return Scope{Viewpoint: ViewpointSingle, Names: []string{name}}
}

// Name is the single inspected name, or a comma separated list.
func (s Scope) Name() string {
	return strings.Join(s.Names, ", ")
}

// EmptyMessage is shown when a fetch for s yields no nodes.
func (s Scope) EmptyMessage() string {
	if s.Viewpoint == ViewpointSingle && len(s.Names) == 1 {
		return "No nodes and relationships found for " + s.Names[0]
	}
	return "No nodes and relationships found"
}
