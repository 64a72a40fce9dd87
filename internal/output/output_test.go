package output

import (
	"context"
	"errors"
	"testing"

	"graphlens/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, labels []string, props map[string]any) graph.RawNode {
	return graph.RawNode{ElementID: id, Labels: labels, Properties: graph.PropertiesOf(props)}
}

func rel(id, relType, from, to string, props map[string]any) graph.RawRelationship {
	return graph.RawRelationship{ElementID: id, Type: relType, StartElementID: from, EndElementID: to, Properties: graph.PropertiesOf(props)}
}

func fixture() graph.Graph {
	return graph.Normalize(graph.RawGraph{
		Nodes: []graph.RawNode{
			node("p1", []string{"Person"}, map[string]any{"name": "Ada", "address": map[string]any{"city": "London"}}),
			node("c2", []string{"Chunk"}, map[string]any{"position": 2, "text": "second"}),
			node("d1", []string{"Document"}, map[string]any{"fileName": "a.pdf", "pages": 12}),
			node("p2", []string{"Person", "Author"}, map[string]any{"name": "Grace"}),
			node("c1", []string{"Chunk"}, map[string]any{"position": 1, "text": "first"}),
			node("p1", []string{"Person"}, map[string]any{"name": "Ada", "address": map[string]any{"city": "London"}}),
			node("t1", []string{"Table"}, map[string]any{"name": "totals"}),
		},
		Relationships: []graph.RawRelationship{
			rel("r1", "PART_OF", "c1", "d1", nil),
			rel("r2", "PART_OF", "c2", "d1", nil),
			rel("r3", "HAS_ENTITY", "c1", "p1", map[string]any{"score": 0.9}),
			rel("r4", "HAS_ENTITY", "c2", "p2", nil),
			rel("r5", "KNOWS", "p1", "p2", nil),
		},
	})
}

func TestLabelChipsCountDistinctNodes(t *testing.T) {
	g := fixture()

	chips := LabelChips(g.Nodes, g.Scheme)

	keys := []string{}
	for _, c := range chips {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"Document", "Chunk", "Author", "Person", "Table"}, keys)

	counts := map[string]int{}
	for _, c := range chips {
		counts[c.Key] = c.Count
		assert.NotEmpty(t, c.Color)
	}
	assert.Equal(t, 2, counts["Person"])
	assert.Equal(t, 2, counts["Chunk"])
	assert.Equal(t, 1, counts["Author"])
}

func TestLabelChipsDuplicateCollapses(t *testing.T) {
	g := graph.Normalize(graph.RawGraph{Nodes: []graph.RawNode{
		node("x", []string{"Person"}, nil),
		node("x", []string{"Person"}, nil),
	}})

	chips := LabelChips(g.Nodes, g.Scheme)

	require.Len(t, chips, 1)
	assert.Equal(t, 1, chips[0].Count)

	// Even if a caller passes the same node twice it counts once.
	chips = LabelChips(append(g.Nodes, g.Nodes...), g.Scheme)
	assert.Equal(t, 1, chips[0].Count)
}

func TestLabelChipsIncludeStaleSchemeLabels(t *testing.T) {
	g := fixture()
	proj := graph.Project([]graph.Bucket{graph.BucketEntities}, g)

	ov := BuildOverview(proj.Nodes, proj.Relationships, proj.Scheme)

	doc := ov.SectionByID(SectionLabels).ItemByKey("Document")
	require.NotNil(t, doc)
	assert.Equal(t, 0, doc.Count)
}

func TestRelationshipChips(t *testing.T) {
	g := fixture()

	chips := RelationshipChips(g.Relationships)

	require.Len(t, chips, 3)
	assert.Equal(t, Item{Key: "HAS_ENTITY", Label: "HAS_ENTITY", Count: 2, Color: chips[0].Color}, chips[0])
	assert.Equal(t, "KNOWS", chips[1].Key)
	assert.Equal(t, 1, chips[1].Count)
	assert.Equal(t, "PART_OF", chips[2].Key)
	assert.Equal(t, 2, chips[2].Count)
}

func TestBuildOverviewBuckets(t *testing.T) {
	g := fixture()

	ov := BuildOverview(g.Nodes, g.Relationships, g.Scheme)

	assert.Equal(t, 6, ov.Nodes)
	assert.Equal(t, 5, ov.Relationships)
	buckets := ov.SectionByID(SectionBuckets)
	require.NotNil(t, buckets)
	assert.Equal(t, 3, buckets.ItemByKey(string(graph.BucketDocumentChunk)).Count)
	assert.Equal(t, 1, buckets.ItemByKey(string(graph.BucketTables)).Count)
	assert.Equal(t, 2, buckets.ItemByKey(string(graph.BucketEntities)).Count)
	assert.Nil(t, ov.SectionByID("missing"))
}

func TestBuildTables(t *testing.T) {
	g := fixture()

	set := BuildTables(g.Nodes, g.Relationships)

	docs := set.ByID(TableDocuments)
	require.Len(t, docs.Rows, 1)
	assert.Equal(t, "a.pdf", docs.Rows[0].Cells[0])

	chunks := set.ByID(TableChunks)
	require.Len(t, chunks.Rows, 2)
	assert.Equal(t, "c1", chunks.Rows[0].ID)
	assert.Equal(t, "c2", chunks.Rows[1].ID)

	entities := set.ByID(TableEntities)
	ids := []string{}
	for _, r := range entities.Rows {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"p1", "p2", "t1"}, ids)

	rels := set.ByID(TableRelationships)
	require.Len(t, rels.Rows, 5)
	assert.Equal(t, []string{"PART_OF", "Chunk", "a.pdf", ""}, rels.Rows[0].Cells)

	assert.Equal(t, TableDocuments, set.DefaultID())
}

func TestDefaultTableIsFirstNonEmpty(t *testing.T) {
	g := graph.Normalize(graph.RawGraph{Nodes: []graph.RawNode{node("p", []string{"Person"}, nil)}})

	assert.Equal(t, TableEntities, BuildTables(g.Nodes, g.Relationships).DefaultID())
	assert.Equal(t, TableDocuments, BuildTables(nil, nil).DefaultID())
}

func TestTableFilter(t *testing.T) {
	set := BuildTables(fixture().Nodes, fixture().Relationships)

	tests := []struct {
		name  string
		table string
		term  string
		want  []string
	}{
		{"nested property", TableEntities, "london", []string{"p1"}},
		{"entity label", TableEntities, "author", []string{"p2"}},
		{"document label is not searched", TableDocuments, "document", nil},
		{"numeric property", TableDocuments, "12", []string{"d1"}},
		{"document id", TableDocuments, "D1", []string{"d1"}},
		{"entity id", TableEntities, "t1", []string{"t1"}},
		{"chunk text", TableChunks, "SECOND", []string{"c2"}},
		{"relationship type", TableRelationships, "knows", []string{"r5"}},
		{"relationship endpoint caption", TableRelationships, "grace", []string{"r4", "r5"}},
		{"relationship endpoint id", TableRelationships, "c2", []string{"r2", "r4"}},
		{"relationship property", TableRelationships, "0.9", []string{"r3"}},
		{"empty term keeps all", TableChunks, "  ", []string{"c1", "c2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered := set.ByID(tt.table).Filter(tt.term)
			var ids []string
			for _, r := range filtered.Rows {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

type stubSource struct {
	raw   graph.RawGraph
	err   error
	scope graph.Scope
}

func (s *stubSource) FetchGraph(ctx context.Context, scope graph.Scope) (graph.RawGraph, error) {
	s.scope = scope
	return s.raw, s.err
}

func TestRunPipeline(t *testing.T) {
	src := &stubSource{raw: graph.RawGraph{
		Nodes:         []graph.RawNode{node("d", []string{"Document"}, nil), node("p", []string{"Person"}, nil)},
		Relationships: []graph.RawRelationship{rel("r", "MENTIONS", "d", "p", nil), rel("x", "MENTIONS", "d", "gone", nil)},
	}}

	payload, err := RunPipeline(context.Background(), src, graph.NewNormalizer(), graph.SingleItem("a.pdf"))

	require.NoError(t, err)
	assert.Equal(t, graph.SingleItem("a.pdf"), src.scope)
	assert.Len(t, payload.Graph.Relationships, 1)
	assert.Equal(t, 1, payload.Report.DanglingRelationships)
	assert.Equal(t, []graph.Bucket{graph.BucketDocumentChunk, graph.BucketEntities}, payload.Buckets)
}

func TestRunPipelineError(t *testing.T) {
	boom := errors.New("connection refused")
	src := &stubSource{err: boom}

	_, err := RunPipeline(context.Background(), src, graph.NewNormalizer(), graph.SelectedItems("a"))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "connection refused")
}
