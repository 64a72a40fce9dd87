// Package session owns the lifecycle of one opened graph view: fetching,
// normalizing, bucket and display mode switches, search, legend highlighting
// and the single inspected element.
//
// A Session is not safe for concurrent use. Fetches run elsewhere (see Fetch)
// and their results are committed with Apply on the owning goroutine; a
// response that belongs to an older or closed view is discarded.
package session

import (
	"context"

	"graphlens/internal/graph"
	"graphlens/internal/logging"
	"graphlens/internal/search"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type State int

const (
	StateClosed State = iota
	StateLoading
	StateError
	StateEmpty
	StateReady
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateEmpty:
		return "empty"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

type DisplayMode int

const (
	ModeCanvas DisplayMode = iota
	ModeTable
)

func (m DisplayMode) String() string {
	if m == ModeTable {
		return "table"
	}
	return "canvas"
}

type SelectionKind int

const (
	SelectionNone SelectionKind = iota
	SelectionNode
	SelectionRelationship
)

// Selection is the single inspected element.
type Selection struct {
	Kind SelectionKind
	ID   string
}

// Source returns raw records for a scope.
type Source interface {
	FetchGraph(ctx context.Context, scope graph.Scope) (graph.RawGraph, error)
}

// Request asks for one fetch on behalf of a view instance.
type Request struct {
	ViewID  string
	Scope   graph.Scope
	Refresh bool
}

// Response carries the outcome of a Request back to the session.
type Response struct {
	ViewID  string
	Refresh bool
	Raw     graph.RawGraph
	Err     error
}

// Fetch runs req against src. Source errors are marked with ErrFetchFailure
// and keep their original message.
func Fetch(ctx context.Context, src Source, req Request) Response {
	raw, err := src.FetchGraph(ctx, req.Scope)
	if err != nil {
		err = errors.Mark(err, ErrFetchFailure)
	}
	return Response{ViewID: req.ViewID, Refresh: req.Refresh, Raw: raw, Err: err}
}

type Session struct {
	log        *log.Logger
	normalizer *graph.Normalizer
	classifier *graph.Classifier
	search     *search.Engine

	state   State
	message string
	err     error
	viewID  string
	scope   graph.Scope
	pending bool
	tabs    bool

	canonical graph.Graph
	base      graph.Graph
	view      graph.Graph
	buckets   []graph.Bucket
	bucket    graph.Bucket
	mode      DisplayMode
	query     string
	selection Selection
	fit       bool
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithNormalizer(n *graph.Normalizer) Option {
	return func(s *Session) {
		if n != nil {
			s.normalizer = n
		}
	}
}

func WithClassifier(c *graph.Classifier) Option {
	return func(s *Session) {
		if c != nil {
			s.classifier = c
		}
	}
}

func WithSearch(e *search.Engine) Option {
	return func(s *Session) {
		if e != nil {
			s.search = e
		}
	}
}

// New returns a closed session.
func New(opts ...Option) *Session {
	s := &Session{
		log:        logging.Discard(),
		normalizer: graph.NewNormalizer(),
		classifier: graph.NewClassifier(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.search == nil {
		s.search = search.New(search.WithNodeSize(s.normalizer.NodeSize()))
	}
	return s
}

// Open starts a new view instance for scope and returns the request to run.
// Anything left from a previous instance is discarded.
func (s *Session) Open(scope graph.Scope) Request {
	s.reset()
	s.viewID = uuid.NewString()
	s.scope = scope
	s.state = StateLoading
	s.pending = true
	s.tabs = true
	s.log.Debug("view opened", "view", s.viewID, "viewpoint", scope.Viewpoint, "names", scope.Names)
	return Request{ViewID: s.viewID, Scope: scope}
}

// OpenPreloaded starts a view over records the caller already has. Nothing
// is fetched, refresh is unavailable and bucket tabs are not offered.
func (s *Session) OpenPreloaded(raw graph.RawGraph) {
	s.reset()
	s.viewID = uuid.NewString()
	s.scope = graph.Scope{Viewpoint: graph.ViewpointPreloaded}
	s.state = StateLoading
	s.commit(raw, false)
}

// Apply commits resp if it belongs to the open view and answers its
// outstanding request. It reports whether resp was applied.
func (s *Session) Apply(resp Response) bool {
	if s.state == StateClosed || resp.ViewID != s.viewID {
		s.log.Debug("discarding late response", "view", resp.ViewID, "current", s.viewID)
		return false
	}
	if !s.pending {
		s.log.Debug("discarding unrequested response", "view", resp.ViewID)
		return false
	}
	s.pending = false

	if resp.Err != nil {
		s.log.Error("fetch failed", "view", s.viewID, "err", resp.Err)
		s.fail(resp.Err)
		return true
	}
	s.commit(resp.Raw, resp.Refresh)
	return true
}

// Refresh returns a request that re-fetches the current scope. At most one
// fetch is outstanding per view.
func (s *Session) Refresh() (Request, error) {
	switch {
	case s.state == StateClosed:
		return Request{}, ErrNotOpen
	case s.scope.Viewpoint == graph.ViewpointPreloaded:
		return Request{}, ErrRefreshUnavailable
	case s.pending:
		s.log.Warn("refresh rejected", "view", s.viewID, "reason", ErrRefreshInFlight)
		return Request{}, ErrRefreshInFlight
	}
	s.pending = true
	if s.state != StateReady {
		s.state = StateLoading
	}
	return Request{ViewID: s.viewID, Scope: s.scope, Refresh: true}, nil
}

// Close discards all view state. Responses still in flight will be ignored.
func (s *Session) Close() {
	if s.state != StateClosed {
		s.log.Debug("view closed", "view", s.viewID)
	}
	s.reset()
}

// SetBucket switches the canvas to bucket, clearing search and selection.
func (s *Session) SetBucket(b graph.Bucket) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.bucket = b
	s.query = ""
	s.selection = Selection{}
	if s.mode == ModeCanvas {
		s.fit = true
	}
	s.rebuild()
	return nil
}

// SetDisplayMode switches between canvas and table. Table mode shows the
// full graph; canvas mode shows the active bucket.
func (s *Session) SetDisplayMode(m DisplayMode) error {
	if err := s.ready(); err != nil {
		return err
	}
	if m == s.mode {
		return nil
	}
	s.mode = m
	s.rebuild()
	if _, ok := s.selectionTarget(); !ok {
		s.selection = Selection{}
	}
	return nil
}

// SelectNode inspects the node with id.
func (s *Session) SelectNode(id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, ok := s.view.NodeByID(id); !ok {
		return errors.Wrapf(ErrUnknownElement, "node %s", id)
	}
	s.selection = Selection{Kind: SelectionNode, ID: id}
	return nil
}

// SelectRelationship inspects the relationship with id.
func (s *Session) SelectRelationship(id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, ok := s.view.RelationshipByID(id); !ok {
		return errors.Wrapf(ErrUnknownElement, "relationship %s", id)
	}
	s.selection = Selection{Kind: SelectionRelationship, ID: id}
	return nil
}

// ClearSelection handles a click on the canvas background.
func (s *Session) ClearSelection() {
	s.selection = Selection{}
}

// Search applies an already debounced query to the current projection.
func (s *Session) Search(query string) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.query = query
	s.view = s.search.Search(query, s.base)
	return nil
}

// HighlightLabel selects every node carrying label and clears the query.
func (s *Session) HighlightLabel(label string) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.query = ""
	s.view = s.search.HighlightLabel(label, s.base)
	return nil
}

// HighlightCaption selects every relationship with caption and clears the query.
func (s *Session) HighlightCaption(caption string) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.query = ""
	s.view = s.search.HighlightCaption(caption, s.base)
	return nil
}

// TakeFit reports whether the renderer should fit the view, and clears the
// request.
func (s *Session) TakeFit() bool {
	fit := s.fit
	s.fit = false
	return fit
}

func (s *Session) State() State { return s.state }
func (s *Session) Message() string { return s.message }
func (s *Session) Err() error { return s.err }
func (s *Session) ViewID() string { return s.viewID }
func (s *Session) Scope() graph.Scope { return s.scope }
func (s *Session) Graph() graph.Graph { return s.view }
func (s *Session) Canonical() graph.Graph { return s.canonical }
func (s *Session) Buckets() []graph.Bucket { return s.buckets }
func (s *Session) Bucket() graph.Bucket { return s.bucket }
func (s *Session) Mode() DisplayMode { return s.mode }
func (s *Session) Query() string { return s.query }
func (s *Session) Selection() Selection { return s.selection }
func (s *Session) TabsEnabled() bool { return s.tabs }
func (s *Session) Refreshing() bool { return s.pending && s.state == StateReady }
func (s *Session) Classifier() *graph.Classifier { return s.classifier }

// SelectedNode returns the inspected node, if a node is inspected.
func (s *Session) SelectedNode() (graph.Node, bool) {
	if s.selection.Kind != SelectionNode {
		return graph.Node{}, false
	}
	return s.view.NodeByID(s.selection.ID)
}

// SelectedRelationship returns the inspected relationship, if any.
func (s *Session) SelectedRelationship() (graph.Relationship, bool) {
	if s.selection.Kind != SelectionRelationship {
		return graph.Relationship{}, false
	}
	return s.view.RelationshipByID(s.selection.ID)
}

func (s *Session) ready() error {
	switch s.state {
	case StateClosed:
		return ErrNotOpen
	case StateReady:
		return nil
	default:
		return errors.Wrapf(ErrNotReady, "state %s", s.state)
	}
}

func (s *Session) commit(raw graph.RawGraph, refresh bool) {
	g, report := s.normalizer.Normalize(raw)
	if report.DanglingRelationships > 0 || report.DuplicateNodes > 0 {
		s.log.Debug("normalized with drops",
			"view", s.viewID,
			"dangling", report.DanglingRelationships,
			"duplicate_nodes", report.DuplicateNodes,
			"duplicate_relationships", report.DuplicateRelationships)
	}

	if g.Empty() {
		s.canonical, s.base, s.view = graph.Graph{}, graph.Graph{}, graph.Graph{}
		s.buckets = nil
		s.selection = Selection{}
		s.state = StateEmpty
		s.message = s.scope.EmptyMessage()
		s.err = errors.Wrap(ErrEmptyGraph, s.message)
		return
	}

	wasReady := refresh && s.bucket != ""
	s.canonical = g
	s.buckets = s.classifier.Classify(g.Nodes)
	if !wasReady || !containsBucket(s.buckets, s.bucket) {
		s.bucket, _ = s.classifier.DefaultBucket(g.Nodes)
	}
	if !wasReady {
		s.mode = ModeCanvas
		s.query = ""
		s.selection = Selection{}
	}
	s.state = StateReady
	s.message = ""
	s.err = nil
	s.rebuild()
	if _, ok := s.selectionTarget(); !ok {
		s.selection = Selection{}
	}
	s.log.Info("graph ready",
		"view", s.viewID,
		"nodes", len(g.Nodes),
		"relationships", len(g.Relationships),
		"bucket", s.bucket)
}

func (s *Session) fail(err error) {
	s.canonical, s.base, s.view = graph.Graph{}, graph.Graph{}, graph.Graph{}
	s.buckets = nil
	s.selection = Selection{}
	s.state = StateError
	s.err = err
	s.message = err.Error()
}

// rebuild recomputes the projection from the canonical graph and reapplies
// the query, if any.
func (s *Session) rebuild() {
	if s.mode == ModeTable || !s.tabs {
		s.base = s.canonical.Clone()
	} else {
		s.base = s.classifier.Project([]graph.Bucket{s.bucket}, s.canonical)
	}
	s.view = s.base
	if s.query != "" {
		s.view = s.search.Search(s.query, s.base)
	}
}

func (s *Session) selectionTarget() (string, bool) {
	switch s.selection.Kind {
	case SelectionNode:
		_, ok := s.view.NodeByID(s.selection.ID)
		return s.selection.ID, ok
	case SelectionRelationship:
		_, ok := s.view.RelationshipByID(s.selection.ID)
		return s.selection.ID, ok
	default:
		return "", true
	}
}

func (s *Session) reset() {
	logger := s.log
	normalizer, classifier, engine := s.normalizer, s.classifier, s.search
	*s = Session{log: logger, normalizer: normalizer, classifier: classifier, search: engine}
}

func containsBucket(buckets []graph.Bucket, b graph.Bucket) bool {
	for _, x := range buckets {
		if x == b {
			return true
		}
	}
	return false
}
