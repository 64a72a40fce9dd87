package graph

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawNode(id string, labels []string, props map[string]any) RawNode {
	return RawNode{ElementID: id, Labels: labels, Properties: PropertiesOf(props)}
}

func rawRel(id, relType, from, to string) RawRelationship {
	return RawRelationship{ElementID: id, Type: relType, StartElementID: from, EndElementID: to}
}

func TestNormalizeDocumentAndChunk(t *testing.T) {
	raw := RawGraph{
		Nodes: []RawNode{
			rawNode("d1", []string{"Document"}, map[string]any{"fileName": "report.pdf"}),
			rawNode("c1", []string{"Chunk"}, map[string]any{"position": 1}),
		},
		Relationships: []RawRelationship{rawRel("r1", "HAS_CHUNK", "d1", "c1")},
	}

	g := Normalize(raw)

	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Relationships, 1)
	assert.Equal(t, 2, g.Scheme.Len())
	assert.Equal(t, []Bucket{BucketDocumentChunk}, Classify(g.Nodes))

	assert.Equal(t, "report.pdf", g.Nodes[0].Caption)
	assert.Equal(t, "Chunk", g.Nodes[1].Caption)
	assert.Equal(t, float64(40), g.Nodes[0].Size)
	assert.Equal(t, float64(30), g.Nodes[1].Size)

	rel := g.Relationships[0]
	assert.Equal(t, "d1", rel.From)
	assert.Equal(t, "c1", rel.To)
	assert.Equal(t, "HAS_CHUNK", rel.Caption)
}

func TestNormalizeDropsDanglingRelationships(t *testing.T) {
	raw := RawGraph{
		Nodes:         []RawNode{rawNode("n1", []string{"Person"}, nil)},
		Relationships: []RawRelationship{rawRel("r1", "KNOWS", "missing", "n1")},
	}

	g, report := NewNormalizer().Normalize(raw)

	assert.Empty(t, g.Relationships)
	assert.Equal(t, 1, report.DanglingRelationships)
}

func TestNormalizeDedupLastWins(t *testing.T) {
	raw := RawGraph{
		Nodes: []RawNode{
			rawNode("a", []string{"Person"}, map[string]any{"name": "old"}),
			rawNode("b", []string{"Person"}, map[string]any{"name": "bob"}),
			rawNode("a", []string{"Person"}, map[string]any{"name": "new"}),
		},
	}

	g, report := NewNormalizer().Normalize(raw)

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "a", g.Nodes[0].ID)
	assert.Equal(t, "new", g.Nodes[0].Caption)
	assert.Equal(t, 1, report.DuplicateNodes)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := RawGraph{
		Nodes: []RawNode{
			rawNode("1", []string{"Person"}, map[string]any{"name": "Ada"}),
			rawNode("2", []string{"Company", "Org"}, map[string]any{"name": "ACME"}),
			rawNode("3", []string{"Document"}, map[string]any{"fileName": "a.pdf"}),
		},
		Relationships: []RawRelationship{
			rawRel("r1", "WORKS_AT", "1", "2"),
			rawRel("r2", "MENTIONS", "3", "1"),
		},
	}

	first := Normalize(raw)
	second := Normalize(raw)

	assert.Equal(t, first.Nodes, second.Nodes)
	assert.Equal(t, first.Relationships, second.Relationships)
	assert.Equal(t, first.Scheme.Entries(), second.Scheme.Entries())
	assert.Equal(t, first.Scheme.Labels(), second.Scheme.Labels())
}

func TestNormalizeNoIDCollisions(t *testing.T) {
	raw := RawGraph{}
	for _, id := range []string{"x", "y", "x", "z", "y", "x"} {
		raw.Nodes = append(raw.Nodes, rawNode(id, []string{"Thing"}, nil))
	}

	g := Normalize(raw)

	seen := map[string]bool{}
	for _, n := range g.Nodes {
		assert.False(t, seen[n.ID], "duplicate id %s", n.ID)
		seen[n.ID] = true
	}
	assert.Len(t, g.Nodes, 3)
}

func TestNormalizeToleratesMissingProperties(t *testing.T) {
	raw := RawGraph{
		Nodes: []RawNode{
			{ElementID: "n1"},
			{ElementID: "n2", Labels: []string{"Person"}},
		},
		Relationships: []RawRelationship{{ElementID: "r1", StartElementID: "n1", EndElementID: "n2"}},
	}

	g := Normalize(raw)

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "n1", g.Nodes[0].Caption)
	assert.Equal(t, FallbackColor, g.Nodes[0].Color)
	assert.Equal(t, "Person", g.Nodes[1].Caption)
	assert.Equal(t, "", g.Nodes[1].Properties.Text("name"))
	assert.Equal(t, float64(0), g.Nodes[1].Properties.Float("age"))
	require.Len(t, g.Relationships, 1)
}

func TestNormalizeEmpty(t *testing.T) {
	g := Normalize(RawGraph{})
	assert.True(t, g.Empty())
	assert.NotNil(t, g.Scheme)
	assert.Equal(t, 0, g.Scheme.Len())
}

func TestCaptionRules(t *testing.T) {
	n := NewNormalizer(WithCaptionRules([]CaptionRule{
		{Label: "Person", Properties: []string{"nickname"}},
		{Label: "*", Properties: []string{"id"}},
	}))
	raw := RawGraph{Nodes: []RawNode{
		rawNode("1", []string{"Person"}, map[string]any{"nickname": "Bo", "id": "p-1"}),
		rawNode("2", []string{"Person"}, map[string]any{"id": "p-2"}),
		rawNode("3", []string{"Place"}, map[string]any{"id": 7}),
	}}

	g, _ := n.Normalize(raw)

	assert.Equal(t, "Bo", g.Nodes[0].Caption)
	assert.Equal(t, "p-2", g.Nodes[1].Caption)
	assert.Equal(t, "7", g.Nodes[2].Caption)
}

func TestSchemeFirstSeenOrder(t *testing.T) {
	palette := []string{"#1", "#2", "#3"}
	s := NewScheme(palette)

	assert.Equal(t, "#1", s.AssignLabel("B"))
	assert.Equal(t, "#2", s.AssignLabel("A"))
	assert.Equal(t, "#1", s.AssignLabel("B"))
	assert.Equal(t, "#3", s.AssignType("REL"))
	assert.Equal(t, "#1", s.AssignLabel("C"), "palette cycles")

	assert.Equal(t, []string{"B", "A", "C"}, s.Labels())
	assert.Equal(t, []string{"REL"}, s.Types())
	assert.Equal(t, 3, s.Len())
}

func TestSchemeDependsOnArrivalOrder(t *testing.T) {
	ab := Normalize(RawGraph{Nodes: []RawNode{
		rawNode("1", []string{"A"}, nil), rawNode("2", []string{"B"}, nil),
	}})
	ba := Normalize(RawGraph{Nodes: []RawNode{
		rawNode("2", []string{"B"}, nil), rawNode("1", []string{"A"}, nil),
	}})

	a1, _ := ab.Scheme.Color("A")
	a2, _ := ba.Scheme.Color("A")
	assert.NotEqual(t, a1, a2)
}

func TestBucketCoverage(t *testing.T) {
	tests := []struct {
		labels []string
		want   Bucket
	}{
		{[]string{"Document"}, BucketDocumentChunk},
		{[]string{"Chunk"}, BucketDocumentChunk},
		{[]string{"Chunk", "Table"}, BucketDocumentChunk},
		{[]string{"Table"}, BucketTables},
		{[]string{"TableRow"}, BucketTables},
		{[]string{"TableCell", "Person"}, BucketTables},
		{[]string{"Person"}, BucketEntities},
		{nil, BucketEntities},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketOf(tt.labels), "labels %v", tt.labels)
	}
}

func mixedGraph() Graph {
	return Normalize(RawGraph{
		Nodes: []RawNode{
			rawNode("d", []string{"Document"}, map[string]any{"fileName": "a.pdf"}),
			rawNode("c", []string{"Chunk"}, nil),
			rawNode("p", []string{"Person"}, map[string]any{"name": "Ada"}),
			rawNode("o", []string{"Organization"}, map[string]any{"name": "ACME"}),
			rawNode("t", []string{"Table"}, nil),
		},
		Relationships: []RawRelationship{
			rawRel("r1", "PART_OF", "c", "d"),
			rawRel("r2", "HAS_ENTITY", "c", "p"),
			rawRel("r3", "WORKS_AT", "p", "o"),
			rawRel("r4", "PART_OF", "t", "d"),
		},
	})
}

func TestClassifyOrder(t *testing.T) {
	g := mixedGraph()

	assert.Equal(t, []Bucket{BucketDocumentChunk, BucketTables, BucketEntities}, Classify(g.Nodes))

	b, ok := DefaultBucket(g.Nodes)
	require.True(t, ok)
	assert.Equal(t, BucketDocumentChunk, b)

	b, ok = DefaultBucket(g.Nodes[2:4])
	require.True(t, ok)
	assert.Equal(t, BucketEntities, b)

	_, ok = DefaultBucket(nil)
	assert.False(t, ok)
}

func TestProject(t *testing.T) {
	g := mixedGraph()

	p := Project([]Bucket{BucketEntities}, g)

	ids := []string{}
	for _, n := range p.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"p", "o"}, ids)
	require.Len(t, p.Relationships, 1)
	assert.Equal(t, "r3", p.Relationships[0].ID)
	assert.Same(t, g.Scheme, p.Scheme)
	assert.Len(t, g.Nodes, 5, "canonical graph untouched")

	for _, buckets := range [][]Bucket{{BucketDocumentChunk}, {BucketTables}, {BucketDocumentChunk, BucketEntities}} {
		proj := Project(buckets, g)
		ids := nodeIDSet(proj.Nodes)
		for _, r := range proj.Relationships {
			assert.Contains(t, ids, r.From)
			assert.Contains(t, ids, r.To)
		}
	}
}

func TestProjectEmptyInputsUnchanged(t *testing.T) {
	g := Normalize(RawGraph{Nodes: []RawNode{rawNode("p", []string{"Person"}, nil)}})

	p := Project([]Bucket{BucketDocumentChunk}, g)

	assert.Equal(t, g.Nodes, p.Nodes)
}

func TestCustomBucketRules(t *testing.T) {
	c := NewClassifier([]BucketRule{
		{Bucket: "People", AnyOf: []string{"Person"}},
		{Bucket: "Other"},
	})

	assert.Equal(t, []Bucket{"People", "Other"}, c.Buckets())
	b, _ := c.BucketOf([]string{"Person", "Document"})
	assert.Equal(t, Bucket("People"), b)
}

func TestDecodeRaw(t *testing.T) {
	payload := []byte(`{
		"nodes": [
			{"element_id": "n1", "labels": ["Person"], "properties": {"name": "Ada", "age": 36, "tags": ["x", 1], "meta": {"k": null}}},
			{"element_id": "n2", "labels": ["Company"], "properties": {}}
		],
		"relationships": [
			{"element_id": "r1", "type": "WORKS_AT", "start_node_element_id": "n1", "end_node_element_id": "n2", "properties": {"since": 2020}}
		]
	}`)

	raw, err := DecodeRaw(payload)
	require.NoError(t, err)
	require.Len(t, raw.Nodes, 2)
	require.Len(t, raw.Relationships, 1)

	props := raw.Nodes[0].Properties
	assert.Equal(t, "Ada", props.Text("name"))
	assert.Equal(t, float64(36), props.Float("age"))
	assert.Equal(t, KindList, props["tags"].Kind())
	assert.Equal(t, KindMap, props["meta"].Kind())
	assert.True(t, props["meta"].Map()["k"].IsNull())
	assert.Equal(t, "n1", raw.Relationships[0].StartElementID)

	g := Normalize(raw)
	assert.Len(t, g.Relationships, 1)
}

func TestDecodeRawMalformed(t *testing.T) {
	for _, payload := range []string{
		`not json`,
		`[]`,
		`{"nodes": []}`,
		`{"relationships": []}`,
		`{"nodes": "x", "relationships": []}`,
	} {
		_, err := DecodeRaw([]byte(payload))
		require.Error(t, err, payload)
		assert.True(t, errors.Is(err, ErrMalformedPayload), payload)
	}
}

func TestEncodeRawRoundTrip(t *testing.T) {
	raw := RawGraph{Nodes: []RawNode{rawNode("n1", []string{"Person"}, map[string]any{"name": "Ada"})}}

	data, err := EncodeRaw(raw)
	require.NoError(t, err)

	back, err := DecodeRaw(data)
	require.NoError(t, err)
	assert.Equal(t, "Ada", back.Nodes[0].Properties.Text("name"))
	assert.Empty(t, back.Relationships)
}

func TestValueContains(t *testing.T) {
	v := ValueOf(map[string]any{
		"title":  "Quarterly Invoice",
		"amount": 1250.5,
		"paid":   true,
		"lines":  []any{map[string]any{"sku": "AB-12"}},
		"none":   nil,
	})

	assert.True(t, v.Contains("invoice"))
	assert.True(t, v.Contains("1250.5"))
	assert.True(t, v.Contains("ab-12"))
	assert.False(t, v.Contains("true"))
	assert.False(t, v.Contains("missing"))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "3", Number(3).String())
	assert.Equal(t, "0.25", Number(0.25).String())
	assert.Equal(t, "{a: 1, b: [x, true]}", ValueOf(map[string]any{"b": []any{"x", true}, "a": 1}).String())
	assert.Equal(t, "", Null().String())
}
