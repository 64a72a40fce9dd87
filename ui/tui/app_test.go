package tui

import (
	"context"
	"testing"
	"time"

	"graphlens/internal/graph"
	"graphlens/internal/output"
	"graphlens/internal/session"
	"graphlens/ui/tui/state"
	"graphlens/ui/tui/views"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockGraphSource for testing
type MockGraphSource struct {
	Raw graph.RawGraph
	Err error
}

func (m MockGraphSource) FetchGraph(context.Context, graph.Scope) (graph.RawGraph, error) {
	return m.Raw, m.Err
}

func corpus() graph.RawGraph {
	node := func(id string, label string, props map[string]any) graph.RawNode {
		return graph.RawNode{ElementID: id, Labels: []string{label}, Properties: graph.PropertiesOf(props)}
	}
	rel := func(id, relType, from, to string) graph.RawRelationship {
		return graph.RawRelationship{ElementID: id, Type: relType, StartElementID: from, EndElementID: to}
	}
	return graph.RawGraph{
		Nodes: []graph.RawNode{
			node("d1", "Document", map[string]any{"fileName": "invoices.pdf"}),
			node("c1", "Chunk", map[string]any{"position": 1, "text": "Ada pays"}),
			node("p1", "Person", map[string]any{"name": "Ada"}),
			node("t1", "Table", nil),
		},
		Relationships: []graph.RawRelationship{
			rel("r1", "PART_OF", "c1", "d1"),
			rel("r2", "HAS_ENTITY", "c1", "p1"),
			rel("r3", "PART_OF", "t1", "d1"),
		},
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newModel(src MockGraphSource) MainModel {
	return InitialModel(Config{
		Source:   src,
		Scope:    graph.SelectedItems("invoices.pdf"),
		Debounce: time.Millisecond,
	})
}

func readyModel(t *testing.T) *MainModel {
	t.Helper()
	model := newModel(MockGraphSource{Raw: corpus()})
	require.NotNil(t, model.initial)

	msg := model.fetchCmd(*model.initial)()
	updated, _ := model.Update(msg)
	m := updated.(*MainModel)
	require.Equal(t, session.StateReady, m.state.Session.State())
	return m
}

func update(t *testing.T, m *MainModel, msg tea.Msg) (*MainModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(*MainModel), cmd
}

func TestInitialFetch(t *testing.T) {
	m := readyModel(t)

	assert.Equal(t, graph.BucketDocumentChunk, m.state.Session.Bucket())
	assert.Equal(t, 0, m.tabCursor)
	assert.Equal(t, "documents", m.state.TableID)
	assert.NotEmpty(t, m.chart.Items)
	assert.False(t, m.state.LastUpdate.IsZero())
}

func TestInitialFetchFailure(t *testing.T) {
	model := newModel(MockGraphSource{Err: errors.New("connection refused")})
	m, _ := update(t, &model, model.fetchCmd(*model.initial)())

	assert.Equal(t, session.StateError, m.state.Session.State())
	assert.Contains(t, m.state.Session.Message(), "connection refused")
}

func TestTabNavigation(t *testing.T) {
	m := readyModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, graph.BucketTables, m.state.Session.Bucket())
	assert.Equal(t, 1, m.tabCursor)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, graph.BucketDocumentChunk, m.state.Session.Bucket())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, graph.BucketEntities, m.state.Session.Bucket())
	assert.Equal(t, 2, m.tabCursor)
}

func TestTabAnimationLogic(t *testing.T) {
	m := readyModel(t)
	m.tabCursor = 1

	if m.animCursor != 0 {
		t.Errorf("Expected initial animCursor 0, got %f", m.animCursor)
	}

	// The spring moves animCursor towards tabCursor (1.0)
	animateMsg := AnimateMsg(time.Now())
	m, _ = update(t, m, animateMsg)

	if m.animCursor <= 0 {
		t.Errorf("Expected animCursor to increase after animation frame, got %f", m.animCursor)
	}
	if m.animCursor >= 1.0 {
		t.Errorf("Expected animCursor to not reach target immediately, got %f", m.animCursor)
	}

	m, _ = update(t, m, animateMsg)
	prevCursor := m.animCursor
	m, _ = update(t, m, animateMsg)

	if m.animCursor <= prevCursor {
		t.Errorf("Expected animCursor to continue increasing, got %f (prev %f)", m.animCursor, prevCursor)
	}
}

func chipCounts(items []output.Item) map[string]int {
	counts := make(map[string]int, len(items))
	for _, it := range items {
		counts[it.Key] = it.Count
	}
	return counts
}

func TestChipsFollowBucket(t *testing.T) {
	m := readyModel(t)
	assert.Equal(t, map[string]int{"Document": 1, "Chunk": 1, "Person": 0, "Table": 0}, chipCounts(m.chart.Items))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	require.Equal(t, graph.BucketEntities, m.state.Session.Bucket())

	overview := views.Overview(m.state.Session)
	labels := overview.SectionByID(output.SectionLabels)
	require.NotNil(t, labels)
	assert.Equal(t, map[string]int{"Document": 0, "Chunk": 0, "Person": 1, "Table": 0}, chipCounts(labels.Items))
	assert.Empty(t, overview.SectionByID(output.SectionRelationships).Items)
	assert.Equal(t, chipCounts(labels.Items), chipCounts(m.chart.Items))

	m, _ = update(t, m, key("t"))
	assert.Equal(t, 1, chipCounts(m.chart.Items)["Document"])
	assert.Equal(t, 1, chipCounts(m.chart.Items)["Table"])
}

func TestDisplayModeToggle(t *testing.T) {
	m := readyModel(t)

	m, _ = update(t, m, key("t"))
	assert.Equal(t, session.ModeTable, m.state.Session.Mode())
	assert.Len(t, m.state.Session.Graph().Nodes, 4)
	assert.Equal(t, "documents", m.state.Table().ID)

	m, _ = update(t, m, key("."))
	assert.Equal(t, "chunks", m.state.TableID)
	m, _ = update(t, m, key(","))
	m, _ = update(t, m, key(","))
	assert.Equal(t, "relationships", m.state.TableID)

	m, _ = update(t, m, key("t"))
	assert.Equal(t, session.ModeCanvas, m.state.Session.Mode())
	assert.Len(t, m.state.Session.Graph().Nodes, 2)
}

func TestCursorAndInspect(t *testing.T) {
	m := readyModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.state.Cursor, "cursor stops at the last entry")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, session.Selection{Kind: session.SelectionRelationship, ID: "r1"}, m.state.Session.Selection())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, session.Selection{Kind: session.SelectionNode, ID: "c1"}, m.state.Session.Selection())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, session.SelectionNone, m.state.Session.Selection().Kind)
}

func TestTableRowInspect(t *testing.T) {
	m := readyModel(t)
	m, _ = update(t, m, key("t"))
	m, _ = update(t, m, key(","))
	require.Equal(t, "relationships", m.state.TableID)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, session.SelectionRelationship, m.state.Session.Selection().Kind)

	m, _ = update(t, m, key("/"))
	require.Equal(t, state.FocusFilter, m.state.Focus)
	m, _ = update(t, m, key("h"))
	m, _ = update(t, m, key("a"))
	m, _ = update(t, m, key("s"))
	assert.Equal(t, "has", m.state.Filter)
	assert.Len(t, m.state.Table().Rows, 1)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, state.FocusView, m.state.Focus)
}

func TestSearchDebounce(t *testing.T) {
	m := readyModel(t)

	m, _ = update(t, m, key("/"))
	require.Equal(t, state.FocusSearch, m.state.Focus)

	var cmd tea.Cmd
	for _, r := range "inv" {
		m, cmd = update(t, m, key(string(r)))
		assert.NotNil(t, cmd)
	}
	assert.Equal(t, "inv", m.search.Value())
	assert.Empty(t, m.state.Session.Query(), "query waits for the debounce")

	m, _ = update(t, m, SearchMsg{Seq: m.searchSeq - 1, Query: "in"})
	assert.Empty(t, m.state.Session.Query(), "superseded keystrokes are dropped")

	m, _ = update(t, m, SearchMsg{Seq: m.searchSeq, Query: "inv"})
	assert.Equal(t, "inv", m.state.Session.Query())

	hit, ok := m.state.Session.Graph().NodeByID("d1")
	require.True(t, ok)
	assert.True(t, hit.Selected)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, state.FocusView, m.state.Focus)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Empty(t, m.state.Session.Query())
	assert.Empty(t, m.search.Value())
}

func TestCloseDiscardsLateResponse(t *testing.T) {
	model := newModel(MockGraphSource{Raw: corpus()})
	late := model.fetchCmd(*model.initial)()

	m, _ := update(t, &model, key("x"))
	assert.Equal(t, session.StateClosed, m.state.Session.State())

	m, _ = update(t, m, late)
	assert.Equal(t, session.StateClosed, m.state.Session.State())

	m, cmd := update(t, m, key("o"))
	require.NotNil(t, cmd)
	assert.Equal(t, session.StateLoading, m.state.Session.State())

	m, _ = update(t, m, late)
	assert.Equal(t, session.StateLoading, m.state.Session.State(), "response of the closed view is ignored")

	m, _ = update(t, m, cmd())
	assert.Equal(t, session.StateReady, m.state.Session.State())
}

func TestRefreshKey(t *testing.T) {
	m := readyModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	m, cmd := update(t, m, key("r"))
	require.NotNil(t, cmd)
	assert.True(t, m.state.Session.Refreshing())

	m, again := update(t, m, key("r"))
	assert.Nil(t, again)
	assert.True(t, errors.Is(m.state.Err, session.ErrRefreshInFlight))

	m, _ = update(t, m, cmd())
	assert.False(t, m.state.Session.Refreshing())
	assert.Equal(t, graph.BucketTables, m.state.Session.Bucket())
	assert.Equal(t, 1, m.tabCursor)
}

func TestPreloadedView(t *testing.T) {
	raw := corpus()
	model := InitialModel(Config{Preloaded: &raw})
	assert.Nil(t, model.initial)
	require.Equal(t, session.StateReady, model.state.Session.State())
	assert.False(t, model.state.Session.TabsEnabled())
	assert.Len(t, model.state.Session.Graph().Nodes, 4)

	m, cmd := update(t, &model, key("r"))
	assert.Nil(t, cmd)
	assert.True(t, errors.Is(m.state.Err, session.ErrRefreshUnavailable))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, m.tabCursor)
}

func TestViewRenders(t *testing.T) {
	zone.NewGlobal()
	m := readyModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	out := m.View()
	assert.Contains(t, out, "GRAPHLENS")
	assert.Contains(t, out, "Document & Chunk")
	assert.Contains(t, out, "invoices.pdf")

	m, _ = update(t, m, key("t"))
	assert.Contains(t, m.View(), "Documents (1)")

	m, _ = update(t, m, key("x"))
	assert.Contains(t, m.View(), "View closed.")

	m, cmd := update(t, m, key("q"))
	assert.NotNil(t, cmd)
	assert.Equal(t, "Bye!\n", m.View())
}
