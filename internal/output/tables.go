package output

import (
	"sort"
	"strings"

	"graphlens/internal/graph"
)

const (
	TableDocuments     = "documents"
	TableChunks        = "chunks"
	TableEntities      = "entities"
	TableRelationships = "relationships"
)

// Row is one table line. Exactly one of Node and Relationship is set.
type Row struct {
	ID           string
	Cells        []string
	Node         *graph.Node
	Relationship *graph.Relationship

	// endpoint captions, matched by the relationship filter
	from, to string
}

type Table struct {
	ID      string
	Title   string
	Columns []string
	Rows    []Row

	entity bool
}

// TableSet is the tabular grouping of one graph.
type TableSet struct {
	Tables []Table
}

// BuildTables partitions nodes into documents, chunks and entities with the
// bucket rules, and lists relationships separately. Chunks are ordered by
// their numeric position property.
func BuildTables(nodes []graph.Node, rels []graph.Relationship) TableSet {
	docs := Table{ID: TableDocuments, Title: "Documents", Columns: []string{"Name", "ID", "Properties"}}
	chunks := Table{ID: TableChunks, Title: "Chunks", Columns: []string{"Position", "Text", "ID"}}
	entities := Table{ID: TableEntities, Title: "Entities", Columns: []string{"Caption", "Labels", "Properties"}, entity: true}
	relTable := Table{ID: TableRelationships, Title: "Relationships", Columns: []string{"Type", "From", "To", "Properties"}}

	captions := make(map[string]string, len(nodes))
	for i := range nodes {
		n := nodes[i]
		captions[n.ID] = n.Caption
		switch {
		case graph.BucketOf(n.Labels) == graph.BucketDocumentChunk && n.HasLabel("Document"):
			docs.Rows = append(docs.Rows, Row{ID: n.ID, Node: &n, Cells: []string{n.Caption, n.ID, formatProperties(n.Properties)}})
		case graph.BucketOf(n.Labels) == graph.BucketDocumentChunk:
			chunks.Rows = append(chunks.Rows, Row{ID: n.ID, Node: &n, Cells: []string{
				n.Properties.Text("position"), n.Properties.Text("text"), n.ID,
			}})
		default:
			entities.Rows = append(entities.Rows, Row{ID: n.ID, Node: &n, Cells: []string{
				n.Caption, strings.Join(n.Labels, ", "), formatProperties(n.Properties),
			}})
		}
	}

	sort.SliceStable(chunks.Rows, func(i, j int) bool {
		return chunks.Rows[i].Node.Properties.Float("position") < chunks.Rows[j].Node.Properties.Float("position")
	})

	for i := range rels {
		r := rels[i]
		relTable.Rows = append(relTable.Rows, Row{
			ID:           r.ID,
			Relationship: &r,
			Cells:        []string{r.Type, captions[r.From], captions[r.To], formatProperties(r.Captions)},
			from:         captions[r.From],
			to:           captions[r.To],
		})
	}

	return TableSet{Tables: []Table{docs, chunks, entities, relTable}}
}

// DefaultID is the first non-empty table, or documents when all are empty.
func (s TableSet) DefaultID() string {
	for _, t := range s.Tables {
		if len(t.Rows) > 0 {
			return t.ID
		}
	}
	return TableDocuments
}

func (s TableSet) ByID(id string) *Table {
	for i := range s.Tables {
		if s.Tables[i].ID == id {
			return &s.Tables[i]
		}
	}
	return nil
}

// Filter returns the rows matching term, case-insensitively. Node rows
// match on id, caption or any property value, searched recursively; entity rows
// also match on labels. Relationship rows match on type, endpoints or
// properties.
func (t Table) Filter(term string) Table {
	term = strings.TrimSpace(term)
	if term == "" {
		return t
	}
	out := t
	out.Rows = nil
	lower := strings.ToLower(term)
	for _, row := range t.Rows {
		if t.matches(row, lower) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func (t Table) matches(row Row, lower string) bool {
	if r := row.Relationship; r != nil {
		return containsFold(r.Type, lower) ||
			containsFold(r.From, lower) || containsFold(r.To, lower) ||
			containsFold(row.from, lower) || containsFold(row.to, lower) ||
			r.Captions.Contains(lower)
	}
	n := row.Node
	if n == nil {
		return false
	}
	if containsFold(n.ID, lower) || containsFold(n.Caption, lower) || n.Properties.Contains(lower) {
		return true
	}
	if t.entity {
		for _, l := range n.Labels {
			if containsFold(l, lower) {
				return true
			}
		}
	}
	return false
}

func containsFold(s, lower string) bool {
	return strings.Contains(strings.ToLower(s), lower)
}

func formatProperties(p graph.Properties) string {
	keys := p.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+p[k].String())
	}
	return strings.Join(parts, ", ")
}
