// Package database holds the process-wide collection store used by the MCP
// server: one canonical graph at a time, replaced by fetches that never
// overlap.
package database

import (
	"context"
	"sync"

	"graphlens/internal/graph"
	"graphlens/internal/logging"
	"graphlens/internal/output"
	"graphlens/internal/session"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/semaphore"
)

// Store owns the currently loaded collection.
type Store struct {
	src        output.GraphSource
	normalizer *graph.Normalizer
	classifier *graph.Classifier
	log        *log.Logger

	// fetch is the single-writer guard: one fetch at a time.
	fetch *semaphore.Weighted

	mu      sync.RWMutex
	payload *output.PipelinePayload
}

// NewStore creates an empty store reading from src.
func NewStore(src output.GraphSource, norm *graph.Normalizer, logger *log.Logger) (*Store, error) {
	if src == nil {
		return nil, errors.New("graph source is required")
	}
	if norm == nil {
		norm = graph.NewNormalizer()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{
		src:        src,
		normalizer: norm,
		classifier: graph.NewClassifier(nil),
		log:        logger,
		fetch:      semaphore.NewWeighted(1),
	}, nil
}

// Fetch loads scope and replaces the stored collection. A fetch started
// while another is running fails with session.ErrRefreshInFlight. A failed
// fetch leaves the previous collection in place.
func (s *Store) Fetch(ctx context.Context, scope graph.Scope) (*output.PipelinePayload, error) {
	if !s.fetch.TryAcquire(1) {
		s.log.Warn("fetch rejected", "names", scope.Names, "reason", session.ErrRefreshInFlight)
		return nil, session.ErrRefreshInFlight
	}
	defer s.fetch.Release(1)

	payload, err := output.RunPipeline(ctx, s.src, s.normalizer, scope)
	if err != nil {
		s.log.Error("fetch failed", "names", scope.Names, "err", err)
		return nil, errors.Mark(err, session.ErrFetchFailure)
	}
	if payload.Report.DanglingRelationships > 0 {
		s.log.Debug("dropped dangling relationships", "count", payload.Report.DanglingRelationships)
	}

	s.mu.Lock()
	s.payload = payload
	s.mu.Unlock()

	s.log.Info("collection loaded",
		"names", scope.Names,
		"nodes", len(payload.Graph.Nodes),
		"relationships", len(payload.Graph.Relationships))
	return payload, nil
}

// Reset drops the stored collection.
func (s *Store) Reset() {
	s.mu.Lock()
	s.payload = nil
	s.mu.Unlock()
}

// Snapshot returns the stored collection. The second result is false when
// nothing is loaded.
func (s *Store) Snapshot() (*output.PipelinePayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payload, s.payload != nil
}

// Filtered projects the stored graph onto buckets. No buckets means the
// whole graph.
func (s *Store) Filtered(buckets []graph.Bucket) (graph.Graph, error) {
	payload, ok := s.Snapshot()
	if !ok {
		return graph.Graph{}, session.ErrNotOpen
	}
	if payload.Graph.Empty() {
		return graph.Graph{}, errors.Wrap(session.ErrEmptyGraph, payload.Scope.EmptyMessage())
	}
	if len(buckets) == 0 {
		return payload.Graph.Clone(), nil
	}
	return s.classifier.Project(buckets, payload.Graph), nil
}
