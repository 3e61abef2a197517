package graphstore

import (
	"context"
	"testing"

	"github.com/irinasmt/rcabrain/internal/models"
)

func TestSanitizePropertiesDropsNilEncodesComposite(t *testing.T) {
	props := map[string]any{
		"name":   "foo",
		"count":  3,
		"empty":  nil,
		"scopes": []string{"a", "b"},
	}
	out := SanitizeProperties(props)
	if _, ok := out["empty"]; ok {
		t.Error("expected nil-valued key to be dropped")
	}
	if out["name"] != "foo" || out["count"] != 3 {
		t.Errorf("expected primitives to pass through unchanged, got %+v", out)
	}
	encoded, ok := out["scopes"].(string)
	if !ok || encoded != `["a","b"]` {
		t.Errorf("expected composite value JSON-encoded, got %#v", out["scopes"])
	}
}

func TestMemoryStoreUpsertAndLookup(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	n := models.Node{ID: "n1", FilePath: "a.py", SymbolName: "foo", Status: models.StatusAdded}
	if err := store.UpsertNodes(ctx, []models.Node{n}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, ok := store.Node("n1")
	if !ok || got.SymbolName != "foo" {
		t.Fatalf("expected to find upserted node, got %+v ok=%v", got, ok)
	}
	byPath, err := store.NodesByProperty(ctx, "file_path", "a.py")
	if err != nil || len(byPath) != 1 {
		t.Fatalf("expected one node for a.py, got %v err=%v", byPath, err)
	}
}

func TestMemoryStoreNodesByProperty(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.UpsertNodes(ctx, []models.Node{
		{ID: "n1", FilePath: "a.py", Service: "checkout", Status: models.StatusModified},
		{ID: "n2", FilePath: "b.py", Service: "checkout", Status: models.StatusUnchanged},
	})

	byPath, err := store.NodesByProperty(ctx, "file_path", "a.py")
	if err != nil || len(byPath) != 1 || byPath[0].ID != "n1" {
		t.Fatalf("expected n1 for file_path=a.py, got %v err=%v", byPath, err)
	}
	bySvc, err := store.NodesByProperty(ctx, "service", "checkout")
	if err != nil || len(bySvc) != 2 {
		t.Fatalf("expected both nodes for service=checkout, got %v err=%v", bySvc, err)
	}
	none, err := store.NodesByProperty(ctx, "status", "DELETED")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no DELETED nodes, got %v err=%v", none, err)
	}
}

func TestMemoryStoreRetrieveRanksByTokenMatches(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.UpsertNodes(ctx, []models.Node{
		{ID: "n1", SymbolName: "charge", FilePath: "svc/payment.py", Text: "+    retry payment charge"},
		{ID: "n2", SymbolName: "refund", FilePath: "svc/payment.py", Text: ""},
		{ID: "n3", SymbolName: "health", FilePath: "svc/health.py", Text: ""},
	})

	scored, err := store.Retrieve(ctx, "payment charge")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(scored) != 2 {
		t.Fatalf("expected two matches, got %v", scored)
	}
	if scored[0].Node.ID != "n1" || scored[0].Score <= scored[1].Score {
		t.Fatalf("expected n1 ranked first, got %v", scored)
	}
}
