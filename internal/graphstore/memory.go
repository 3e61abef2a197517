package graphstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/irinasmt/rcabrain/internal/models"
)

// MemoryStore is an in-memory Store, safe for concurrent callers. It is
// the primary implementation exercised by indexer and brain tests.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]models.Node
	edges []models.Edge
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nodes: map[string]models.Node{}}
}

func (s *MemoryStore) UpsertNodes(ctx context.Context, nodes []models.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nodes {
		s.nodes[n.ID] = n
	}
	return nil
}

func (s *MemoryStore) UpsertEdges(ctx context.Context, edges []models.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, edges...)
	return nil
}

// Query is a minimal stand-in: it ignores cypher entirely and always
// returns nil, since MemoryStore exists for indexer/brain unit tests that
// assert against Nodes()/Edges() directly rather than querying.
func (s *MemoryStore) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return nil, nil
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// Nodes returns a snapshot of every upserted node, keyed by ID.
func (s *MemoryStore) Nodes() map[string]models.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Node, len(s.nodes))
	for k, v := range s.nodes {
		out[k] = v
	}
	return out
}

// Node looks up a single node by ID.
func (s *MemoryStore) Node(id string) (models.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok
}

// NodesByServiceStatus returns every node for service whose Status is one
// of statuses, sorted by (file_path, start_line) for deterministic
// git_scout summaries across runs.
func (s *MemoryStore) NodesByServiceStatus(ctx context.Context, service string, statuses []string) ([]models.Node, error) {
	want := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	s.mu.RLock()
	var out []models.Node
	for _, n := range s.nodes {
		if n.Service == service && want[n.Status] {
			out = append(out, n)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		return out[i].StartLine < out[j].StartLine
	})
	return out, nil
}

// NodesByProperty returns every node whose named property exactly equals
// value. Core fields are matched by name; anything else falls through to
// the sanitised Properties map.
func (s *MemoryStore) NodesByProperty(ctx context.Context, key, value string) ([]models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Node
	for _, n := range s.nodes {
		if nodePropertyValue(n, key) == value {
			out = append(out, n)
		}
	}
	return out, nil
}

func nodePropertyValue(n models.Node, key string) string {
	switch key {
	case "file_path":
		return n.FilePath
	case "service":
		return n.Service
	case "status":
		return n.Status
	case "commit_sha":
		return n.CommitSHA
	case "name":
		return n.SymbolName
	case "symbol_kind":
		return n.SymbolKind
	case "prior_path":
		return n.PriorPath
	}
	if v, ok := n.Properties[key].(string); ok {
		return v
	}
	return ""
}

// Retrieve ranks nodes by a trivial token match: one point per query
// token found in the node's name, path, or stored text.
func (s *MemoryStore) Retrieve(ctx context.Context, queryText string) ([]ScoredNode, error) {
	tokens := strings.Fields(strings.ToLower(queryText))
	s.mu.RLock()
	var out []ScoredNode
	for _, n := range s.nodes {
		haystack := strings.ToLower(n.SymbolName + " " + n.FilePath + " " + n.Text)
		score := 0.0
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				score++
			}
		}
		if score > 0 {
			out = append(out, ScoredNode{Node: n, Score: score})
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// Edges returns a snapshot of every upserted edge.
func (s *MemoryStore) Edges() []models.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Edge, len(s.edges))
	copy(out, s.edges)
	return out
}
