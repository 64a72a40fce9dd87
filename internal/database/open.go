package database

import (
	"context"

	"graphlens/internal/config"
	"graphlens/internal/database/graphdb"
	"graphlens/internal/database/relational"
	"graphlens/internal/output"

	"github.com/cockroachdb/errors"
)

// CloseFunc releases a source opened by OpenSource.
type CloseFunc func() error

// DocumentLister lists the document names a source can fetch.
type DocumentLister interface {
	Documents(ctx context.Context) ([]string, error)
}

var (
	_ DocumentLister = (*relational.Repo)(nil)
	_ DocumentLister = (*graphdb.Neo4jClient)(nil)
)

// OpenRepo opens the DuckDB record store at path and creates its schema.
// An empty path opens an in-memory database.
func OpenRepo(ctx context.Context, path string, opts ...relational.DuckDBOption) (*relational.Repo, error) {
	client, err := relational.NewDuckDBClient(path, opts...)
	if err != nil {
		return nil, err
	}
	repo := relational.NewRepo(client.DB())
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

// OpenSource connects to the graph source named by cfg.Source.
func OpenSource(ctx context.Context, cfg config.Config) (output.GraphSource, CloseFunc, error) {
	switch cfg.Source {
	case config.SourceDuckDB:
		repo, err := OpenRepo(ctx, cfg.DuckDBPath, DuckDBOptions(cfg)...)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open duckdb source")
		}
		return repo, repo.Close, nil
	case config.SourceNeo4j:
		client, err := graphdb.NewNeo4jClient(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open neo4j source")
		}
		return client, func() error { return client.Close(context.Background()) }, nil
	default:
		return nil, nil, errors.Newf("unknown source %q", cfg.Source)
	}
}

// DuckDBOptions translates the DuckDB tuning settings of cfg.
func DuckDBOptions(cfg config.Config) []relational.DuckDBOption {
	return []relational.DuckDBOption{
		relational.WithThreads(cfg.DuckDBThreads),
		relational.WithMemoryLimit(cfg.DuckDBMemoryGB),
		relational.WithTimeout(cfg.FetchTimeout),
	}
}
