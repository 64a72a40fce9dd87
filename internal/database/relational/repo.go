package relational

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strings"

	"graphlens/internal/graph"

	"github.com/cockroachdb/errors"
)

// =============================================================================
// SCHEMA SQL
// =============================================================================

// Records are grouped by document and kept verbatim, duplicates included;
// normalization deduplicates them on the way out.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS raw_nodes (
  document    VARCHAR NOT NULL,
  element_id  VARCHAR NOT NULL,
  labels      VARCHAR NOT NULL,
  properties  VARCHAR NOT NULL,
  seq         BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS raw_relationships (
  document      VARCHAR NOT NULL,
  element_id    VARCHAR NOT NULL,
  rel_type      VARCHAR NOT NULL,
  start_id      VARCHAR NOT NULL,
  end_id        VARCHAR NOT NULL,
  properties    VARCHAR NOT NULL,
  seq           BIGINT NOT NULL
);
`

// Repo stores and reads raw graph records.
type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Close() error {
	return r.db.Close()
}

// Migrate creates the schema.
func (r *Repo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, SchemaSQL)
	return errors.Wrap(err, "migrate")
}

// DocumentName picks the name an imported payload is stored under: the
// fileName of its first Document node, else the base name of path.
func DocumentName(raw graph.RawGraph, path string) string {
	for _, n := range raw.Nodes {
		for _, l := range n.Labels {
			if l == "Document" {
				if name := n.Properties.Text("fileName"); name != "" {
					return name
				}
			}
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Import replaces the records stored for document with raw. Records keep
// their arrival order.
func (r *Repo) Import(ctx context.Context, document string, raw graph.RawGraph) error {
	if document == "" {
		return errors.New("document name required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin import")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM raw_nodes WHERE document = ?`, document); err != nil {
		return errors.Wrap(err, "clear nodes")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM raw_relationships WHERE document = ?`, document); err != nil {
		return errors.Wrap(err, "clear relationships")
	}

	for i, n := range raw.Nodes {
		labels, err := json.Marshal(nonNil(n.Labels))
		if err != nil {
			return errors.Wrapf(err, "encode labels of %s", n.ElementID)
		}
		props, err := encodeProperties(n.Properties)
		if err != nil {
			return errors.Wrapf(err, "encode properties of %s", n.ElementID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO raw_nodes (document, element_id, labels, properties, seq) VALUES (?, ?, ?, ?, ?)`,
			document, n.ElementID, string(labels), props, i,
		); err != nil {
			return errors.Wrapf(err, "insert node %s", n.ElementID)
		}
	}

	for i, rel := range raw.Relationships {
		props, err := encodeProperties(rel.Properties)
		if err != nil {
			return errors.Wrapf(err, "encode properties of %s", rel.ElementID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO raw_relationships (document, element_id, rel_type, start_id, end_id, properties, seq) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			document, rel.ElementID, rel.Type, rel.StartElementID, rel.EndElementID, props, i,
		); err != nil {
			return errors.Wrapf(err, "insert relationship %s", rel.ElementID)
		}
	}

	return errors.Wrap(tx.Commit(), "commit import")
}

// Documents lists the stored document names.
func (r *Repo) Documents(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT document FROM raw_nodes ORDER BY document`)
	if err != nil {
		return nil, errors.Wrap(err, "list documents")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan document")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// FetchGraph returns the records stored for the scoped documents, in
// document order then arrival order.
func (r *Repo) FetchGraph(ctx context.Context, scope graph.Scope) (graph.RawGraph, error) {
	if len(scope.Names) == 0 {
		return graph.RawGraph{}, errors.Newf("viewpoint %s has no document names", scope.Viewpoint)
	}
	in, args := placeholders(scope.Names)

	var raw graph.RawGraph
	rows, err := r.db.QueryContext(ctx,
		`SELECT element_id, labels, properties FROM raw_nodes WHERE document IN (`+in+`) ORDER BY document, seq`, args...)
	if err != nil {
		return graph.RawGraph{}, errors.Wrap(err, "query nodes")
	}
	for rows.Next() {
		var id, labels, props string
		if err := rows.Scan(&id, &labels, &props); err != nil {
			rows.Close()
			return graph.RawGraph{}, errors.Wrap(err, "scan node")
		}
		n := graph.RawNode{ElementID: id}
		if err := json.Unmarshal([]byte(labels), &n.Labels); err != nil {
			rows.Close()
			return graph.RawGraph{}, errors.Mark(errors.Wrapf(err, "labels of %s", id), graph.ErrMalformedPayload)
		}
		if n.Properties, err = decodeProperties(props); err != nil {
			rows.Close()
			return graph.RawGraph{}, errors.Wrapf(err, "properties of %s", id)
		}
		raw.Nodes = append(raw.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return graph.RawGraph{}, err
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx,
		`SELECT element_id, rel_type, start_id, end_id, properties FROM raw_relationships WHERE document IN (`+in+`) ORDER BY document, seq`, args...)
	if err != nil {
		return graph.RawGraph{}, errors.Wrap(err, "query relationships")
	}
	defer rows.Close()
	for rows.Next() {
		var rel graph.RawRelationship
		var props string
		if err := rows.Scan(&rel.ElementID, &rel.Type, &rel.StartElementID, &rel.EndElementID, &props); err != nil {
			return graph.RawGraph{}, errors.Wrap(err, "scan relationship")
		}
		if rel.Properties, err = decodeProperties(props); err != nil {
			return graph.RawGraph{}, errors.Wrapf(err, "properties of %s", rel.ElementID)
		}
		raw.Relationships = append(raw.Relationships, rel)
	}
	return raw, rows.Err()
}

// Clear removes every stored record.
func (r *Repo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM raw_relationships`); err != nil {
		return errors.Wrap(err, "clear relationships")
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM raw_nodes`)
	return errors.Wrap(err, "clear nodes")
}

func encodeProperties(p graph.Properties) (string, error) {
	if p == nil {
		return "{}", nil
	}
	data, err := json.Marshal(p)
	return string(data), err
}

func decodeProperties(s string) (graph.Properties, error) {
	props := graph.Properties{}
	if err := json.Unmarshal([]byte(s), &props); err != nil {
		return nil, errors.Mark(err, graph.ErrMalformedPayload)
	}
	return props, nil
}

func placeholders(values []string) (string, []any) {
	marks := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = v
	}
	return strings.Join(marks, ", "), args
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
