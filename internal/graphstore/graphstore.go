// Package graphstore is the Graph-Store Port: the property graph that the
// differential indexer upserts symbol nodes and CONTAINS edges into.
package graphstore

import (
	"context"
	"encoding/json"

	"github.com/irinasmt/rcabrain/internal/models"
)

// Store is the port the indexer depends on.
type Store interface {
	UpsertNodes(ctx context.Context, nodes []models.Node) error
	UpsertEdges(ctx context.Context, edges []models.Edge) error
	// NodesByServiceStatus returns every node for service whose Status is
	// one of statuses, used by git_scout to retrieve MODIFIED/ADDED
	// symbols without touching raw diff text.
	NodesByServiceStatus(ctx context.Context, service string, statuses []string) ([]models.Node, error)
	// NodesByProperty returns every node whose named property exactly
	// equals value.
	NodesByProperty(ctx context.Context, key, value string) ([]models.Node, error)
	// Retrieve returns nodes ranked by relevance to queryText. Without
	// embeddings this is a plain token-match ranking.
	Retrieve(ctx context.Context, queryText string) ([]ScoredNode, error)
	Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	Close(ctx context.Context) error
}

// ScoredNode pairs a retrieved node with its relevance score.
type ScoredNode struct {
	Node  models.Node
	Score float64
}

// SanitizeProperties reduces a node's free-form property map to the
// primitive-only shape a property graph can store: nil values are
// dropped, primitives pass through unchanged, and anything else
// (slices, maps) is JSON-encoded to a string.
func SanitizeProperties(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if v == nil {
			continue
		}
		switch v.(type) {
		case string, bool, int, int32, int64, float32, float64:
			out[k] = v
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				continue
			}
			out[k] = string(encoded)
		}
	}
	return out
}

// NodeProperties builds the sanitised property map for one node:
// name, symbol_kind, file_path, start_line, end_line, status, service,
// commit_sha, plus the optional prior_path / semantic_delta /
// inclusive_scopes fields.
func NodeProperties(n models.Node, inclusiveScopes any) map[string]any {
	raw := map[string]any{
		"name":        n.SymbolName,
		"symbol_kind": n.SymbolKind,
		"file_path":   n.FilePath,
		"start_line":  n.StartLine,
		"end_line":    n.EndLine,
		"status":      n.Status,
		"service":     n.Service,
		"commit_sha":  n.CommitSHA,
	}
	if n.PriorPath != "" {
		raw["prior_path"] = n.PriorPath
	}
	if n.SemanticDelta != "" {
		raw["semantic_delta"] = n.SemanticDelta
	}
	if inclusiveScopes != nil {
		raw["inclusive_scopes"] = inclusiveScopes
	}
	return SanitizeProperties(raw)
}
