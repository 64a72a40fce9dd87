// Package graph turns raw node and relationship records from a graph backend
// into a deduplicated, colored, classifiable in-memory graph, and projects it
// down to the buckets a view asks for.
package graph

// RawNode is a node record as returned by the backend.
type RawNode struct {
	ElementID  string     `json:"element_id"`
	Labels     []string   `json:"labels"`
	Properties Properties `json:"properties"`
}

// RawRelationship is a relationship record as returned by the backend.
type RawRelationship struct {
	ElementID      string     `json:"element_id"`
	Type           string     `json:"type"`
	StartElementID string     `json:"start_node_element_id"`
	EndElementID   string     `json:"end_node_element_id"`
	Properties     Properties `json:"properties"`
}

// RawGraph is the inbound payload of one fetch.
type RawGraph struct {
	Nodes         []RawNode         `json:"nodes"`
	Relationships []RawRelationship `json:"relationships"`
}

// Node is the canonical, renderable node.
type Node struct {
	ID         string     `json:"id"`
	Labels     []string   `json:"labels"`
	Caption    string     `json:"caption"`
	Properties Properties `json:"properties"`
	Size       float64    `json:"size"`
	Selected   bool       `json:"selected"`
	Color      string     `json:"color"`
}

// HasLabel reports whether the node carries label.
func (n Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Relationship is the canonical, renderable relationship. From and To always
// reference nodes present in the same graph.
type Relationship struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	From     string     `json:"from"`
	To       string     `json:"to"`
	Caption  string     `json:"caption"`
	Captions Properties `json:"captions"`
	Selected bool       `json:"selected"`
	Color    string     `json:"color"`
}

// Graph bundles nodes, relationships and the scheme they were colored with.
// Values are treated as immutable once built; derived views are copies.
type Graph struct {
	Nodes         []Node
	Relationships []Relationship
	Scheme        *Scheme
}

// Empty reports whether the graph has no nodes.
func (g Graph) Empty() bool {
	return len(g.Nodes) == 0
}

// Clone copies the node and relationship slices so the result can be
// modified without touching g. The scheme is shared; it is additive only.
func (g Graph) Clone() Graph {
	return Graph{
		Nodes:         append([]Node(nil), g.Nodes...),
		Relationships: append([]Relationship(nil), g.Relationships...),
		Scheme:        g.Scheme,
	}
}

// NodeByID returns the node with id, if present.
func (g Graph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// RelationshipByID returns the relationship with id, if present.
func (g Graph) RelationshipByID(id string) (Relationship, bool) {
	for _, r := range g.Relationships {
		if r.ID == id {
			return r, true
		}
	}
	return Relationship{}, false
}

func nodeIDSet(nodes []Node) map[string]struct{} {
	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}

// connected keeps the relationships whose endpoints are both in ids.
func connected(rels []Relationship, ids map[string]struct{}) []Relationship {
	out := make([]Relationship, 0, len(rels))
	for _, r := range rels {
		if _, ok := ids[r.From]; !ok {
			continue
		}
		if _, ok := ids[r.To]; !ok {
			continue
		}
		out = append(out, r)
	}
	return out
}
