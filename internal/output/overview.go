package output

import (
	"sort"
	"strings"

	"graphlens/internal/graph"
)

// Section constants to avoid hardcoded strings
const (
	SectionLabels        = "labels"
	SectionRelationships = "relationships"
	SectionBuckets       = "buckets"
)

// Item is one chip: a label, relationship caption or bucket with its count.
type Item struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
	Color string `json:"color,omitempty"`
}

type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Items []Item `json:"items"`
}

type Overview struct {
	Sections      []Section
	Nodes         int
	Relationships int
}

// pinned labels sort ahead of the alphabetical rest.
var pinned = []string{"Document", "Chunk"}

// BuildOverview counts distinct nodes per scheme label, relationships per
// caption, and nodes per bucket.
func BuildOverview(nodes []graph.Node, rels []graph.Relationship, scheme *graph.Scheme) Overview {
	return Overview{
		Sections: []Section{
			{ID: SectionLabels, Title: "Labels", Items: LabelChips(nodes, scheme)},
			{ID: SectionRelationships, Title: "Relationships", Items: RelationshipChips(rels)},
			{ID: SectionBuckets, Title: "Views", Items: bucketItems(nodes)},
		},
		Nodes:         len(nodes),
		Relationships: len(rels),
	}
}

// LabelChips returns one chip per scheme label. A node is counted once per
// label no matter how often it appears in nodes.
func LabelChips(nodes []graph.Node, scheme *graph.Scheme) []Item {
	seen := make(map[string]map[string]struct{})
	for _, n := range nodes {
		for _, l := range n.Labels {
			if seen[l] == nil {
				seen[l] = make(map[string]struct{})
			}
			seen[l][n.ID] = struct{}{}
		}
	}

	labels := scheme.Labels()
	sort.SliceStable(labels, func(i, j int) bool {
		pi, pj := pinRank(labels[i]), pinRank(labels[j])
		if pi != pj {
			return pi < pj
		}
		return labels[i] < labels[j]
	})

	items := make([]Item, 0, len(labels))
	for _, l := range labels {
		color, _ := scheme.Color(l)
		items = append(items, Item{Key: l, Label: l, Count: len(seen[l]), Color: color})
	}
	return items
}

// RelationshipChips groups relationships by caption, sorted by caption.
func RelationshipChips(rels []graph.Relationship) []Item {
	index := make(map[string]int)
	var items []Item
	for _, r := range rels {
		if i, ok := index[r.Caption]; ok {
			items[i].Count++
			continue
		}
		index[r.Caption] = len(items)
		items = append(items, Item{Key: r.Caption, Label: r.Caption, Count: 1, Color: r.Color})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Label) < strings.ToLower(items[j].Label)
	})
	return items
}

func bucketItems(nodes []graph.Node) []Item {
	counts := make(map[graph.Bucket]int)
	for _, n := range nodes {
		counts[graph.BucketOf(n.Labels)]++
	}
	var items []Item
	for _, b := range graph.Classify(nodes) {
		items = append(items, Item{Key: string(b), Label: b.Title(), Count: counts[b]})
	}
	return items
}

func pinRank(label string) int {
	for i, p := range pinned {
		if p == label {
			return i
		}
	}
	return len(pinned)
}

func (v Overview) SectionByID(id string) *Section {
	for i := range v.Sections {
		if v.Sections[i].ID == id {
			return &v.Sections[i]
		}
	}
	return nil
}

func (s Section) ItemByKey(key string) *Item {
	for i := range s.Items {
		if s.Items[i].Key == key {
			return &s.Items[i]
		}
	}
	return nil
}
