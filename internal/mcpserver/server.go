// Package mcpserver exposes a loaded document graph to MCP clients.
package mcpserver

import (
	"context"
	"slices"
	"strings"

	"graphlens/internal/database"
	"graphlens/internal/graph"
	"graphlens/internal/logging"
	"graphlens/internal/output"
	"graphlens/internal/search"
	"graphlens/internal/session"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with graph browsing capabilities.
type Server struct {
	mcpServer *mcp.Server
	store     *database.Store
	search    *search.Engine
	log       *log.Logger
}

// Config holds configuration for the MCP server.
type Config struct {
	ServerName    string
	ServerVersion string
	Logger        *log.Logger
	Search        *search.Engine
}

// NewServer creates a new MCP server instance over store.
func NewServer(cfg Config, store *database.Store) (*Server, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.ServerName == "" {
		cfg.ServerName = "graphlens"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Search == nil {
		cfg.Search = search.New()
	}

	impl := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}

	s := &Server{
		mcpServer: mcp.NewServer(impl, nil),
		store:     store,
		search:    cfg.Search,
		log:       cfg.Logger,
	}
	s.registerTools()
	return s, nil
}

// LoadCollectionArgs defines the input for the load_collection tool.
type LoadCollectionArgs struct {
	Documents []string `json:"documents" jsonschema:"document file names to load"`
	Single    bool     `json:"single,omitempty" jsonschema:"load one document as a single item view"`
}

// OverviewResult summarizes the loaded collection.
type OverviewResult struct {
	Scope         string           `json:"scope" jsonschema:"loaded document names"`
	Nodes         int              `json:"nodes" jsonschema:"node count"`
	Relationships int              `json:"relationships" jsonschema:"relationship count"`
	Dropped       int              `json:"dropped" jsonschema:"relationships dropped for missing endpoints"`
	Buckets       []string         `json:"buckets" jsonschema:"non-empty buckets in tab order"`
	Sections      []output.Section `json:"sections" jsonschema:"label, relationship and bucket chips"`
	Message       string           `json:"message,omitempty" jsonschema:"set when the collection is empty"`
}

// OverviewArgs defines the input for the graph_overview tool.
type OverviewArgs struct{}

// SearchGraphArgs defines the input for the search_graph tool.
type SearchGraphArgs struct {
	Query  string `json:"query" jsonschema:"case-insensitive text matched against node id, caption and id property"`
	Bucket string `json:"bucket,omitempty" jsonschema:"restrict to one bucket: DocumentChunk, Tables or Entities"`
}

// NodeHit is one node returned by search_graph.
type NodeHit struct {
	ID      string   `json:"id"`
	Caption string   `json:"caption"`
	Labels  []string `json:"labels"`
	Color   string   `json:"color"`
}

// SearchGraphResult wraps search_graph matches.
type SearchGraphResult struct {
	Matches []NodeHit `json:"matches" jsonschema:"matching nodes"`
}

// TableRowsArgs defines the input for the table_rows tool.
type TableRowsArgs struct {
	Table  string `json:"table,omitempty" jsonschema:"documents, chunks, entities or relationships"`
	Filter string `json:"filter,omitempty" jsonschema:"case-insensitive row filter"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum rows to return"`
	Bucket string `json:"bucket,omitempty" jsonschema:"build the tables from one bucket: DocumentChunk, Tables or Entities"`
}

// TableRowsResult wraps one table of the loaded collection.
type TableRowsResult struct {
	Table   string     `json:"table"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total" jsonschema:"matching rows before the limit"`
}

// ResetArgs defines the input for the reset_collection tool.
type ResetArgs struct{}

// ResetResult reports the reset.
type ResetResult struct {
	Reset bool `json:"reset"`
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "load_collection",
		Description: "Load the graph of one or more documents: their chunks, extracted entities, tables and the relationships among them. Replaces the previously loaded collection. Returns the collection overview.",
	}, s.handleLoadCollection)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "graph_overview",
		Description: "Summarize the loaded collection: node and relationship counts, label and relationship type chips with colors, and the non-empty buckets.",
	}, s.handleGraphOverview)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_graph",
		Description: "Find nodes in the loaded collection whose id, caption or id property contains the query, case-insensitively. Optionally restricted to one bucket.",
	}, s.handleSearchGraph)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "table_rows",
		Description: "Return rows of one table of the loaded collection (documents, chunks, entities or relationships), optionally narrowed to one bucket and filtered by text.",
	}, s.handleTableRows)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "reset_collection",
		Description: "Drop the loaded collection.",
	}, s.handleReset)
}

func (s *Server) handleLoadCollection(ctx context.Context, _ *mcp.CallToolRequest, args LoadCollectionArgs) (*mcp.CallToolResult, OverviewResult, error) {
	scope, err := scopeOf(args)
	if err != nil {
		return nil, OverviewResult{}, err
	}
	payload, err := s.store.Fetch(ctx, scope)
	if err != nil {
		return nil, OverviewResult{}, errors.Wrap(err, "load collection")
	}
	return nil, overviewOf(payload), nil
}

func (s *Server) handleGraphOverview(_ context.Context, _ *mcp.CallToolRequest, _ OverviewArgs) (*mcp.CallToolResult, OverviewResult, error) {
	payload, ok := s.store.Snapshot()
	if !ok {
		return nil, OverviewResult{}, errNothingLoaded
	}
	return nil, overviewOf(payload), nil
}

func (s *Server) handleSearchGraph(_ context.Context, _ *mcp.CallToolRequest, args SearchGraphArgs) (*mcp.CallToolResult, SearchGraphResult, error) {
	if args.Query == "" {
		return nil, SearchGraphResult{}, errors.New("query is required")
	}
	g, err := s.projection(args.Bucket)
	if err != nil {
		return nil, SearchGraphResult{}, err
	}

	g = s.search.Search(args.Query, g)
	result := SearchGraphResult{Matches: []NodeHit{}}
	for _, n := range g.Nodes {
		if !n.Selected {
			continue
		}
		result.Matches = append(result.Matches, NodeHit{ID: n.ID, Caption: n.Caption, Labels: n.Labels, Color: n.Color})
	}
	s.log.Debug("search", "query", args.Query, "bucket", args.Bucket, "matches", len(result.Matches))
	return nil, result, nil
}

func (s *Server) handleTableRows(_ context.Context, _ *mcp.CallToolRequest, args TableRowsArgs) (*mcp.CallToolResult, TableRowsResult, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	g, err := s.projection(args.Bucket)
	if err != nil {
		return nil, TableRowsResult{}, err
	}
	tables := output.BuildTables(g.Nodes, g.Relationships)
	id := args.Table
	if id == "" {
		id = tables.DefaultID()
	}
	table := tables.ByID(id)
	if table == nil {
		return nil, TableRowsResult{}, errors.Newf("unknown table %q", id)
	}

	filtered := table.Filter(args.Filter)
	result := TableRowsResult{
		Table:   filtered.ID,
		Columns: filtered.Columns,
		Rows:    [][]string{},
		Total:   len(filtered.Rows),
	}
	for i, row := range filtered.Rows {
		if i == limit {
			break
		}
		result.Rows = append(result.Rows, row.Cells)
	}
	return nil, result, nil
}

// projection returns the loaded graph, narrowed to one bucket when name is
// set.
func (s *Server) projection(name string) (graph.Graph, error) {
	var buckets []graph.Bucket
	if name != "" {
		bucket := graph.Bucket(name)
		if !slices.Contains(graph.NewClassifier(nil).Buckets(), bucket) {
			return graph.Graph{}, errors.Newf("unknown bucket %q", name)
		}
		buckets = []graph.Bucket{bucket}
	}
	g, err := s.store.Filtered(buckets)
	if err != nil {
		return graph.Graph{}, s.storeError(err)
	}
	return g, nil
}

func (s *Server) handleReset(_ context.Context, _ *mcp.CallToolRequest, _ ResetArgs) (*mcp.CallToolResult, ResetResult, error) {
	s.store.Reset()
	s.log.Info("collection reset")
	return nil, ResetResult{Reset: true}, nil
}

// Start starts the MCP server using stdio transport.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("starting MCP server on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

var errNothingLoaded = errors.New("no collection loaded; call load_collection first")

func (s *Server) storeError(err error) error {
	if errors.Is(err, session.ErrNotOpen) {
		return errNothingLoaded
	}
	return err
}

func scopeOf(args LoadCollectionArgs) (graph.Scope, error) {
	names := make([]string, 0, len(args.Documents))
	for _, name := range args.Documents {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	switch {
	case len(names) == 0:
		return graph.Scope{}, errors.New("at least one document name is required")
	case args.Single && len(names) > 1:
		return graph.Scope{}, errors.New("a single item view takes exactly one document")
	case args.Single:
		return graph.SingleItem(names[0]), nil
	default:
		return graph.SelectedItems(names...), nil
	}
}

func overviewOf(p *output.PipelinePayload) OverviewResult {
	buckets := make([]string, len(p.Buckets))
	for i, b := range p.Buckets {
		buckets[i] = string(b)
	}
	res := OverviewResult{
		Scope:         strings.Join(p.Scope.Names, ", "),
		Nodes:         p.Overview.Nodes,
		Relationships: p.Overview.Relationships,
		Dropped:       p.Report.DanglingRelationships,
		Buckets:       buckets,
		Sections:      p.Overview.Sections,
	}
	if p.Graph.Empty() {
		res.Message = p.Scope.EmptyMessage()
	}
	return res
}
