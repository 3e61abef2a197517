package graphstore

import (
	"context"
	"fmt"

	"github.com/irinasmt/rcabrain/internal/models"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jStore is a thin Cypher-MERGE-backed Store. The driver is an
// external collaborator; everything interesting happens in Cypher.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore opens and verifies a Neo4j connection.
func NewNeo4jStore(ctx context.Context, uri, username, password, database string) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("graphstore: create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("graphstore: connect neo4j: %w", err)
	}
	return &Neo4jStore{driver: driver, database: database}, nil
}

func (s *Neo4jStore) UpsertNodes(ctx context.Context, nodes []models.Node) error {
	for _, n := range nodes {
		props := NodeProperties(n, n.Properties["inclusive_scopes"])
		props["id"] = n.ID
		props["text"] = n.Text
		_, err := neo4j.ExecuteQuery(ctx, s.driver,
			`MERGE (n:Symbol {id: $id}) SET n += $props`,
			map[string]any{"id": n.ID, "props": props},
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(s.database))
		if err != nil {
			return fmt.Errorf("graphstore: upsert node %s: %w", n.ID, err)
		}
	}
	return nil
}

func (s *Neo4jStore) UpsertEdges(ctx context.Context, edges []models.Edge) error {
	for _, e := range edges {
		cypher := fmt.Sprintf(`MATCH (a:Symbol {id: $from}), (b:Symbol {id: $to}) MERGE (a)-[:%s]->(b)`, e.Label)
		_, err := neo4j.ExecuteQuery(ctx, s.driver, cypher,
			map[string]any{"from": e.FromID, "to": e.ToID},
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(s.database))
		if err != nil {
			return fmt.Errorf("graphstore: upsert edge %s->%s: %w", e.FromID, e.ToID, err)
		}
	}
	return nil
}

func (s *Neo4jStore) NodesByServiceStatus(ctx context.Context, service string, statuses []string) ([]models.Node, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver,
		`MATCH (n:Symbol {service: $service}) WHERE n.status IN $statuses RETURN n ORDER BY n.file_path, n.start_line`,
		map[string]any{"service": service, "statuses": statuses},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return nil, fmt.Errorf("graphstore: nodes by service/status %s: %w", service, err)
	}
	out := make([]models.Node, 0, len(result.Records))
	for _, rec := range result.Records {
		raw, ok := rec.Get("n")
		if !ok {
			continue
		}
		node, ok := raw.(neo4j.Node)
		if !ok {
			continue
		}
		n := nodeFromProps(node.Props)
		n.SemanticDelta, _ = node.Props["semantic_delta"].(string)
		out = append(out, n)
	}
	return out, nil
}

func (s *Neo4jStore) NodesByProperty(ctx context.Context, key, value string) ([]models.Node, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver,
		`MATCH (n:Symbol) WHERE n[$key] = $value RETURN n`,
		map[string]any{"key": key, "value": value},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return nil, fmt.Errorf("graphstore: nodes by property %s: %w", key, err)
	}
	out := make([]models.Node, 0, len(result.Records))
	for _, rec := range result.Records {
		raw, ok := rec.Get("n")
		if !ok {
			continue
		}
		node, ok := raw.(neo4j.Node)
		if !ok {
			continue
		}
		out = append(out, nodeFromProps(node.Props))
	}
	return out, nil
}

// Retrieve returns up to 50 nodes whose name or text contains queryText
// (case-insensitive); matches are not ranked and every hit scores 1.0. A
// real deployment would back this with a vector index instead.
func (s *Neo4jStore) Retrieve(ctx context.Context, queryText string) ([]ScoredNode, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver,
		`MATCH (n:Symbol) WHERE toLower(n.name) CONTAINS toLower($q) OR toLower(n.text) CONTAINS toLower($q) RETURN n LIMIT 50`,
		map[string]any{"q": queryText},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return nil, fmt.Errorf("graphstore: retrieve: %w", err)
	}
	out := make([]ScoredNode, 0, len(result.Records))
	for _, rec := range result.Records {
		raw, ok := rec.Get("n")
		if !ok {
			continue
		}
		node, ok := raw.(neo4j.Node)
		if !ok {
			continue
		}
		out = append(out, ScoredNode{Node: nodeFromProps(node.Props), Score: 1.0})
	}
	return out, nil
}

func (s *Neo4jStore) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, params,
		neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return nil, fmt.Errorf("graphstore: query: %w", err)
	}
	out := make([]map[string]any, 0, len(result.Records))
	for _, rec := range result.Records {
		row := map[string]any{}
		for i, key := range rec.Keys {
			row[key] = rec.Values[i]
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func nodeFromProps(props map[string]any) models.Node {
	str := func(k string) string {
		v, _ := props[k].(string)
		return v
	}
	toInt := func(k string) int {
		switch v := props[k].(type) {
		case int64:
			return int(v)
		case int:
			return v
		default:
			return 0
		}
	}
	return models.Node{
		ID:         str("id"),
		Service:    str("service"),
		FilePath:   str("file_path"),
		SymbolName: str("name"),
		SymbolKind: str("symbol_kind"),
		StartLine:  toInt("start_line"),
		EndLine:    toInt("end_line"),
		Status:     str("status"),
		CommitSHA:  str("commit_sha"),
		PriorPath:  str("prior_path"),
		Text:       str("text"),
	}
}
