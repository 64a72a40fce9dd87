package database_test

import (
	"context"
	"sync"
	"testing"

	"graphlens/internal/database"
	"graphlens/internal/database/relational"
	"graphlens/internal/graph"
	"graphlens/internal/session"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingSource holds FetchGraph until release is closed.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSource) FetchGraph(ctx context.Context, scope graph.Scope) (graph.RawGraph, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return graph.RawGraph{Nodes: []graph.RawNode{{ElementID: "n", Labels: []string{"Person"}}}}, nil
}

type failingSource struct{}

func (failingSource) FetchGraph(ctx context.Context, scope graph.Scope) (graph.RawGraph, error) {
	return graph.RawGraph{}, errors.New("connection refused")
}

// TestStoreFetchFromDuckDB tests end-to-end: JSON payload -> DuckDB -> Store -> projection
func TestStoreFetchFromDuckDB(t *testing.T) {
	ctx := context.Background()

	client, err := relational.NewDuckDBClient("")
	require.NoError(t, err)
	defer client.Close()

	repo := relational.NewRepo(client.DB())
	require.NoError(t, repo.Migrate(ctx))

	raw, err := graph.DecodeRaw([]byte(`{
		"nodes": [
			{"element_id": "d", "labels": ["Document"], "properties": {"fileName": "a.pdf"}},
			{"element_id": "c", "labels": ["Chunk"], "properties": {"position": 0}},
			{"element_id": "p", "labels": ["Person"], "properties": {"name": "Ada"}},
			{"element_id": "o", "labels": ["Organization"], "properties": {"name": "ACME"}}
		],
		"relationships": [
			{"element_id": "r1", "type": "PART_OF", "start_node_element_id": "c", "end_node_element_id": "d", "properties": {}},
			{"element_id": "r2", "type": "HAS_ENTITY", "start_node_element_id": "c", "end_node_element_id": "p", "properties": {}},
			{"element_id": "r3", "type": "WORKS_AT", "start_node_element_id": "p", "end_node_element_id": "o", "properties": {}},
			{"element_id": "r4", "type": "WORKS_AT", "start_node_element_id": "p", "end_node_element_id": "missing", "properties": {}}
		]
	}`))
	require.NoError(t, err)
	require.NoError(t, repo.Import(ctx, relational.DocumentName(raw, "a.json"), raw))

	store, err := database.NewStore(repo, nil, nil)
	require.NoError(t, err)

	_, err = store.Filtered(nil)
	assert.ErrorIs(t, err, session.ErrNotOpen)

	payload, err := store.Fetch(ctx, graph.SingleItem("a.pdf"))
	require.NoError(t, err)
	assert.Len(t, payload.Graph.Nodes, 4)
	assert.Len(t, payload.Graph.Relationships, 3)
	assert.Equal(t, 1, payload.Report.DanglingRelationships)

	entities, err := store.Filtered([]graph.Bucket{graph.BucketEntities})
	require.NoError(t, err)
	assert.Len(t, entities.Nodes, 2)
	assert.Len(t, entities.Relationships, 1)

	all, err := store.Filtered(nil)
	require.NoError(t, err)
	assert.Len(t, all.Nodes, 4)

	store.Reset()
	_, ok := store.Snapshot()
	assert.False(t, ok)
}

func TestStoreEmptyCollection(t *testing.T) {
	ctx := context.Background()
	client, err := relational.NewDuckDBClient("")
	require.NoError(t, err)
	defer client.Close()
	repo := relational.NewRepo(client.DB())
	require.NoError(t, repo.Migrate(ctx))

	store, err := database.NewStore(repo, graph.NewNormalizer(), nil)
	require.NoError(t, err)

	_, err = store.Fetch(ctx, graph.SingleItem("ghost.pdf"))
	require.NoError(t, err)

	_, err = store.Filtered(nil)
	assert.True(t, errors.Is(err, session.ErrEmptyGraph))
	assert.Contains(t, err.Error(), "No nodes and relationships found for ghost.pdf")
}

func TestStoreRejectsConcurrentFetch(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	store, err := database.NewStore(src, nil, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := store.Fetch(context.Background(), graph.SingleItem("a.pdf"))
		done <- err
	}()
	<-src.started

	_, err = store.Fetch(context.Background(), graph.SingleItem("b.pdf"))
	assert.ErrorIs(t, err, session.ErrRefreshInFlight)

	close(src.release)
	require.NoError(t, <-done)

	payload, ok := store.Snapshot()
	require.True(t, ok)
	assert.Equal(t, graph.SingleItem("a.pdf"), payload.Scope)
}

func TestStoreFetchFailureKeepsPrevious(t *testing.T) {
	store, err := database.NewStore(failingSource{}, nil, nil)
	require.NoError(t, err)

	_, err = store.Fetch(context.Background(), graph.SelectedItems("a.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, session.ErrFetchFailure))
	assert.Contains(t, err.Error(), "connection refused")

	_, ok := store.Snapshot()
	assert.False(t, ok)

	_, err = database.NewStore(nil, nil, nil)
	assert.Error(t, err)
}
