package graphdb

import (
	"graphlens/internal/graph"

	"github.com/cockroachdb/errors"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// documentGraphQuery collects every node reachable from the scoped documents
// through chunks, entities and tables, then every relationship whose two
// endpoints are in that set.
const documentGraphQuery = `
	MATCH (d:Document) WHERE d.fileName IN $document_names
	OPTIONAL MATCH (d)<-[:PART_OF]-(c:Chunk)
	OPTIONAL MATCH (c)-[:HAS_ENTITY]->(e)
	OPTIONAL MATCH (d)<-[:PART_OF]-(t:Table)
	OPTIONAL MATCH (t)-[:HAS_ROW]->(row:TableRow)
	OPTIONAL MATCH (row)-[:HAS_CELL]->(cell:TableCell)
	WITH collect(DISTINCT d) + collect(DISTINCT c) + collect(DISTINCT e)
	   + collect(DISTINCT t) + collect(DISTINCT row) + collect(DISTINCT cell) AS found
	UNWIND found AS n
	WITH collect(DISTINCT n) AS nodes
	OPTIONAL MATCH (a)-[r]->(b) WHERE a IN nodes AND b IN nodes
	RETURN nodes, collect(DISTINCT r) AS rels
`

const documentNamesQuery = `
	MATCH (d:Document) WHERE d.fileName IS NOT NULL
	RETURN DISTINCT d.fileName AS name ORDER BY name
`

// documentNames reads the name column of documentNamesQuery.
func documentNames(rows []map[string]any) []string {
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["name"].(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}

func scopeQuery(scope graph.Scope) (string, map[string]any, error) {
	switch scope.Viewpoint {
	case graph.ViewpointSelected, graph.ViewpointSingle:
		if len(scope.Names) == 0 {
			return "", nil, errors.New("no document names in scope")
		}
		return documentGraphQuery, map[string]any{"document_names": scope.Names}, nil
	default:
		return "", nil, errors.Newf("viewpoint %s cannot be fetched", scope.Viewpoint)
	}
}

// recordsToRaw reads the nodes and rels columns of the document graph query.
// Anything other than lists of nodes and relationships is a malformed
// payload.
func recordsToRaw(records []map[string]any) (graph.RawGraph, error) {
	var raw graph.RawGraph
	for _, record := range records {
		nodes, ok := record["nodes"].([]any)
		if !ok {
			return graph.RawGraph{}, errors.Wrap(graph.ErrMalformedPayload, "nodes column is not a list")
		}
		rels, ok := record["rels"].([]any)
		if !ok {
			return graph.RawGraph{}, errors.Wrap(graph.ErrMalformedPayload, "rels column is not a list")
		}
		for _, item := range nodes {
			n, ok := item.(neo4j.Node)
			if !ok {
				return graph.RawGraph{}, errors.Wrapf(graph.ErrMalformedPayload, "unexpected %T in nodes", item)
			}
			raw.Nodes = append(raw.Nodes, graph.RawNode{
				ElementID:  n.ElementId,
				Labels:     n.Labels,
				Properties: graph.PropertiesOf(n.Props),
			})
		}
		for _, item := range rels {
			r, ok := item.(neo4j.Relationship)
			if !ok {
				return graph.RawGraph{}, errors.Wrapf(graph.ErrMalformedPayload, "unexpected %T in rels", item)
			}
			raw.Relationships = append(raw.Relationships, graph.RawRelationship{
				ElementID:      r.ElementId,
				Type:           r.Type,
				StartElementID: r.StartElementId,
				EndElementID:   r.EndElementId,
				Properties:     graph.PropertiesOf(r.Props),
			})
		}
	}
	return raw, nil
}

// convertNeo4jValue converts Neo4j types to Go native types.
func convertNeo4jValue(val any) any {
	switch v := val.(type) {
	case neo4j.Node:
		return map[string]any{
			"element_id": v.ElementId,
			"labels":     v.Labels,
			"properties": v.Props,
		}
	case neo4j.Relationship:
		return map[string]any{
			"element_id":            v.ElementId,
			"type":                  v.Type,
			"start_node_element_id": v.StartElementId,
			"end_node_element_id":   v.EndElementId,
			"properties":            v.Props,
		}
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = convertNeo4jValue(item)
		}
		return result
	case map[string]any:
		result := make(map[string]any)
		for k, v := range v {
			result[k] = convertNeo4jValue(v)
		}
		return result
	default:
		return v
	}
}
