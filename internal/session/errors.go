package session

import (
	"graphlens/internal/graph"

	"github.com/cockroachdb/errors"
)

var (
	// ErrFetchFailure marks an error returned by the source.
	ErrFetchFailure = errors.New("fetch failed")
	// ErrMalformedPayload marks a response that is not a nodes/relationships payload.
	ErrMalformedPayload = graph.ErrMalformedPayload
	// ErrEmptyGraph is reported while the view has nothing to show.
	ErrEmptyGraph = errors.New("empty graph")
	// ErrRefreshInFlight rejects a second outstanding fetch for the same view.
	ErrRefreshInFlight = errors.New("refresh already in flight")
	// ErrNotOpen is returned by operations on a closed session.
	ErrNotOpen = errors.New("session not open")
	// ErrNotReady is returned by view operations outside the ready state.
	ErrNotReady = errors.New("graph not ready")
	// ErrRefreshUnavailable is returned for preloaded views.
	ErrRefreshUnavailable = errors.New("refresh not available for preloaded graph")
	// ErrUnknownElement is returned when selecting an id not in the view.
	ErrUnknownElement = errors.New("unknown element")
)
