package console

import (
	"bytes"
	"context"
	"testing"

	"graphlens/internal/graph"
	"graphlens/internal/output"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource graph.RawGraph

func (s staticSource) FetchGraph(context.Context, graph.Scope) (graph.RawGraph, error) {
	return graph.RawGraph(s), nil
}

func payload(t *testing.T, raw graph.RawGraph, scope graph.Scope) *output.PipelinePayload {
	t.Helper()
	p, err := output.RunPipeline(context.Background(), staticSource(raw), graph.NewNormalizer(), scope)
	require.NoError(t, err)
	return p
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		hex     string
		r, g, b int
		ok      bool
	}{
		{"#FFDF81", 0xFF, 0xDF, 0x81, true},
		{"c990c0", 0xC9, 0x90, 0xC0, true},
		{"#FFF", 0, 0, 0, false},
		{"", 0, 0, 0, false},
		{"#GGGGGG", 0, 0, 0, false},
	}

	for _, tt := range tests {
		r, g, b, ok := parseHex(tt.hex)
		assert.Equal(t, tt.ok, ok, tt.hex)
		assert.Equal(t, []int{tt.r, tt.g, tt.b}, []int{r, g, b}, tt.hex)
	}
}

func TestPrint(t *testing.T) {
	color.NoColor = true
	raw := graph.RawGraph{
		Nodes: []graph.RawNode{
			{ElementID: "d1", Labels: []string{"Document"}, Properties: graph.PropertiesOf(map[string]any{"fileName": "a.pdf"})},
			{ElementID: "p1", Labels: []string{"AVeryLongEntityLabelName"}},
		},
		Relationships: []graph.RawRelationship{
			{ElementID: "r1", Type: "MENTIONS", StartElementID: "d1", EndElementID: "p1"},
			{ElementID: "r2", Type: "MENTIONS", StartElementID: "d1", EndElementID: "gone"},
		},
	}

	var buf bytes.Buffer
	Print(&buf, payload(t, raw, graph.SelectedItems("a.pdf")))
	out := buf.String()

	assert.Contains(t, out, "GRAPHLENS REPORT a.pdf")
	assert.Contains(t, out, "─ Labels")
	assert.Contains(t, out, "AVeryLongEntityLa...")
	assert.Contains(t, out, "MENTIONS")
	assert.Contains(t, out, "2 nodes | 1 relationships | 1 dropped")
}

func TestPrintEmpty(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	Print(&buf, payload(t, graph.RawGraph{}, graph.SingleItem("missing.pdf")))
	assert.Contains(t, buf.String(), "No nodes and relationships found for missing.pdf")
}

func TestPrintTable(t *testing.T) {
	color.NoColor = true
	table := output.Table{
		Title:   "Chunks",
		Columns: []string{"Position", "Text"},
		Rows: []output.Row{
			{ID: "c1", Cells: []string{"1", "a long line of chunk text\nthat wraps"}},
		},
	}

	var buf bytes.Buffer
	PrintTable(&buf, table, 12)
	out := buf.String()
	assert.Contains(t, out, "Chunks (1)")
	assert.Contains(t, out, "a long li...")

	buf.Reset()
	PrintTable(&buf, output.Table{Title: "Documents"}, 12)
	assert.Contains(t, buf.String(), "no rows")
}
