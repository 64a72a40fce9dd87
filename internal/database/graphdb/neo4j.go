// Package graphdb reads document graphs out of Neo4j.
package graphdb

import (
	"context"
	"time"

	"graphlens/internal/graph"

	"github.com/cockroachdb/errors"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jClient reads document graphs from a Neo4j database.
type Neo4jClient struct {
	driver neo4j.DriverWithContext
	dbName string
}

// NewNeo4jClient creates a new Neo4j client.
func NewNeo4jClient(uri, username, password, dbName string) (*Neo4jClient, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, errors.Wrap(err, "create neo4j driver")
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, errors.Wrap(err, "connect to neo4j")
	}

	return &Neo4jClient{
		driver: driver,
		dbName: dbName,
	}, nil
}

func (c *Neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// FetchGraph returns the documents, chunks, entities and table rows of the
// scoped documents together with every relationship among them.
func (c *Neo4jClient) FetchGraph(ctx context.Context, scope graph.Scope) (graph.RawGraph, error) {
	query, params, err := scopeQuery(scope)
	if err != nil {
		return graph.RawGraph{}, err
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.dbName,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		values := make([]map[string]any, 0, len(records))
		for _, record := range records {
			values = append(values, record.AsMap())
		}
		return values, nil
	})
	if err != nil {
		return graph.RawGraph{}, errors.Wrap(err, "neo4j fetch")
	}

	return recordsToRaw(result.([]map[string]any))
}

// Documents lists the file names of every Document node.
func (c *Neo4jClient) Documents(ctx context.Context) ([]string, error) {
	rows, err := c.ExecuteCypher(ctx, documentNamesQuery, nil)
	if err != nil {
		return nil, err
	}
	return documentNames(rows), nil
}

// ExecuteCypher executes a read-only Cypher query and returns the results.
func (c *Neo4jClient) ExecuteCypher(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.dbName,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}

		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		// Convert records to maps
		var results []map[string]any
		for _, record := range records {
			rowMap := make(map[string]any)
			for i, key := range record.Keys {
				rowMap[key] = convertNeo4jValue(record.Values[i])
			}
			results = append(results, rowMap)
		}

		return results, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "cypher execution failed")
	}

	return result.([]map[string]any), nil
}
