package backfill

import (
	"context"
	"testing"

	"github.com/irinasmt/rcabrain/internal/models"
	"github.com/irinasmt/rcabrain/internal/reposource"
	"github.com/irinasmt/rcabrain/internal/servicemap"
)

type stubIndexer struct {
	calls []string
}

func (s *stubIndexer) IndexCommit(ctx context.Context, req models.DifferentialIndexerRequest) (int, []models.IndexingDiagnostic, error) {
	s.calls = append(s.calls, req.CommitSHA)
	return 2, nil, nil
}

func TestRunUnregisteredServiceFails(t *testing.T) {
	services := servicemap.NewInMemoryMap()
	source := reposource.NewMemorySource()
	idx := &stubIndexer{}
	r := NewRunner(idx, services, source)

	commits, nodes, diags, err := r.Run(context.Background(), "unknown", models.DefaultBackfillPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if commits != 0 || nodes != 0 {
		t.Fatalf("expected zero commits/nodes, got %d/%d", commits, nodes)
	}
	if len(diags) != 1 || diags[0].Stage != "backfill" {
		t.Fatalf("expected one backfill diagnostic, got %+v", diags)
	}
}

func TestRunIndexesEveryCommitSequentially(t *testing.T) {
	services := servicemap.NewInMemoryMap()
	_ = services.Register(context.Background(), "checkout", models.RepoEntry{RepoURL: "x", Language: "python", DefaultBranch: "main"})
	source := reposource.NewMemorySource()
	source.AddCommit("c1", nil, nil, nil)
	source.AddCommit("c2", nil, nil, nil)
	source.AddCommit("c3", nil, nil, nil)

	idx := &stubIndexer{}
	r := NewRunner(idx, services, source)

	commits, nodes, diags, err := r.Run(context.Background(), "checkout", models.BackfillPolicy{MaxDays: 90, BatchSize: 2, Branch: "main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", diags)
	}
	if commits != 3 || nodes != 6 {
		t.Fatalf("expected 3 commits / 6 nodes, got %d/%d", commits, nodes)
	}
	want := []string{"c3", "c2", "c1"} // MemorySource.AddCommit prepends, newest first
	for i, sha := range want {
		if idx.calls[i] != sha {
			t.Fatalf("expected commit order %v, got %v", want, idx.calls)
		}
	}
}
