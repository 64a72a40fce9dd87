package output

import (
	"context"

	"graphlens/internal/graph"

	"github.com/cockroachdb/errors"
)

// PipelinePayload is everything one fetch produces: the canonical graph and
// the summaries derived from it.
type PipelinePayload struct {
	Scope    graph.Scope
	Graph    graph.Graph
	Report   graph.Report
	Buckets  []graph.Bucket
	Overview Overview
}

// GraphSource defines the interface for fetching raw records for a scope.
type GraphSource interface {
	FetchGraph(ctx context.Context, scope graph.Scope) (graph.RawGraph, error)
}

// RunPipeline executes the full data pipeline: Fetch -> Normalize -> Classify -> Summarize.
// An empty graph is not an error; callers check Graph.Empty.
func RunPipeline(ctx context.Context, src GraphSource, norm *graph.Normalizer, scope graph.Scope) (*PipelinePayload, error) {
	// 1. Fetch
	raw, err := src.FetchGraph(ctx, scope)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", scope.Viewpoint)
	}

	// 2. Normalize
	g, report := norm.Normalize(raw)

	// 3. Classify & Summarize
	return &PipelinePayload{
		Scope:    scope,
		Graph:    g,
		Report:   report,
		Buckets:  graph.Classify(g.Nodes),
		Overview: BuildOverview(g.Nodes, g.Relationships, g.Scheme),
	}, nil
}
