package indexer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irinasmt/rcabrain/internal/graphstore"
	"github.com/irinasmt/rcabrain/internal/models"
	"github.com/irinasmt/rcabrain/internal/reposource"
	"github.com/irinasmt/rcabrain/internal/servicemap"
)

const pySource = `class Foo:
    def bar(self):
        a = 1
        return a
`

const pyDiffAddLine = `diff --git a/svc/foo.py b/svc/foo.py
--- a/svc/foo.py
+++ b/svc/foo.py
@@ -2,3 +2,4 @@ class Foo:
     def bar(self):
         a = 1
+        b = 2
         return a
`

func newFixture(t *testing.T) (*DifferentialIndexer, *graphstore.MemoryStore) {
	t.Helper()
	services := servicemap.NewInMemoryMap()
	require.NoError(t, services.Register(context.Background(), "checkout", models.RepoEntry{RepoURL: "example/checkout", Language: "python", DefaultBranch: "main"}))
	store := graphstore.NewMemoryStore()
	source := reposource.NewMemorySource()
	idx := NewDifferentialIndexer(services, store, source)
	return idx, store
}

func TestIndexCommitUnregisteredServiceYieldsResolveDiagnostic(t *testing.T) {
	idx, _ := newFixture(t)
	n, diags, err := idx.IndexCommit(context.Background(), models.DifferentialIndexerRequest{
		Service: "unknown", CommitSHA: "abc1234",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	found := false
	for _, d := range diags {
		if d.Stage == "resolve" && d.Severity == models.SeverityError {
			found = true
		}
	}
	assert.True(t, found, "expected a resolve-stage error diagnostic, got %+v", diags)
}

func TestIndexCommitListChangedFilesFailureYieldsListFilesDiagnostic(t *testing.T) {
	idx, _ := newFixture(t)
	n, diags, err := idx.IndexCommit(context.Background(), models.DifferentialIndexerRequest{
		Service: "checkout", CommitSHA: "never-added",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	var sawListFiles, sawResolve bool
	for _, d := range diags {
		if d.Stage == "list_files" && d.Severity == models.SeverityError {
			sawListFiles = true
		}
		if d.Stage == "resolve" {
			sawResolve = true
		}
	}
	assert.True(t, sawListFiles, "expected a list_files-stage error diagnostic, got %+v", diags)
	assert.False(t, sawResolve, "service resolved fine, should not emit a resolve diagnostic")
}

func TestIndexCommitModifiedFilePropagatesStatus(t *testing.T) {
	idx, store := newFixture(t)
	source := reposource.NewMemorySource()
	services := servicemap.NewInMemoryMap()
	require.NoError(t, services.Register(context.Background(), "checkout", models.RepoEntry{RepoURL: "example/checkout", Language: "python", DefaultBranch: "main"}))
	idx.Services = services
	idx.Source = func(models.RepoEntry) reposource.Source { return source }

	source.AddCommit("a1b2c3d", []string{"svc/foo.py"},
		map[string]string{"svc/foo.py": pySource},
		map[string]string{"svc/foo.py": pyDiffAddLine},
	)

	n, diags, err := idx.IndexCommit(context.Background(), models.DifferentialIndexerRequest{
		Service: "checkout", CommitSHA: "a1b2c3d",
	})
	require.NoError(t, err)
	for _, d := range diags {
		assert.NotEqual(t, models.SeverityError, d.Severity, "unexpected error diagnostic: %+v", d)
	}
	assert.Greater(t, n, 0, "expected at least one node upserted")

	var sawModifiedMethod, sawModifiedClass bool
	for _, node := range store.Nodes() {
		if node.SymbolName == "bar" && node.Status == models.StatusModified {
			sawModifiedMethod = true
		}
		if node.SymbolName == "Foo" && node.Status == models.StatusModified {
			sawModifiedClass = true
		}
	}
	assert.True(t, sawModifiedMethod, "expected bar() to be MODIFIED")
	assert.True(t, sawModifiedClass, "expected Foo to be upgraded to MODIFIED via propagation")
}

func TestIndexCommitDeletedFileTombstonesExistingNodes(t *testing.T) {
	idx, store := newFixture(t)
	source := reposource.NewMemorySource()
	idx.Source = func(models.RepoEntry) reposource.Source { return source }

	require.NoError(t, store.UpsertNodes(context.Background(), []models.Node{
		{ID: "n1", FilePath: "svc/gone.py", SymbolName: "gone_fn", Status: models.StatusUnchanged, Text: "def gone_fn(): pass"},
	}))

	deleteDiff := "diff --git a/svc/gone.py b/svc/gone.py\n--- a/svc/gone.py\n+++ /dev/null\n@@ -1,1 +0,0 @@\n-def gone_fn(): pass\n"
	source.AddCommit("b2c3d4e", []string{"svc/gone.py"}, map[string]string{}, map[string]string{"svc/gone.py": deleteDiff})

	n, diags, err := idx.IndexCommit(context.Background(), models.DifferentialIndexerRequest{
		Service: "checkout", CommitSHA: "b2c3d4e",
	})
	require.NoError(t, err)
	for _, d := range diags {
		assert.NotEqual(t, models.SeverityError, d.Severity, "unexpected error diagnostic: %+v", d)
	}
	require.Equal(t, 1, n, "expected 1 node tombstoned")

	node, ok := store.Node("n1")
	require.True(t, ok, "expected existing node to remain in store")
	assert.Equal(t, models.StatusDeleted, node.Status)
	assert.Empty(t, node.Text)
	assert.Equal(t, "svc/gone.py", node.PriorPath)
}

func TestNodeIDDeterministic(t *testing.T) {
	a := NodeID("checkout", "svc/foo.py", "bar", 2)
	b := NodeID("checkout", "svc/foo.py", "bar", 2)
	assert.Equal(t, a, b, "expected NodeID to be deterministic")

	c := NodeID("checkout", "svc/foo.py", "bar", 3)
	assert.NotEqual(t, a, c, "expected different start lines to produce different node ids")
}

const pyBillingSource = `RETRY_LIMIT = 3

TIMEOUT_SECONDS = 30

class Billing:
    def charge(self):
        return 1
`

const pyBillingDiff = `diff --git a/svc/billing.py b/svc/billing.py
--- a/svc/billing.py
+++ b/svc/billing.py
@@ -3,1 +3,1 @@
-TIMEOUT_SECONDS = 5
+TIMEOUT_SECONDS = 30
`

func TestIndexCommitTextAssignmentFollowsFinalStatus(t *testing.T) {
	idx, store := newFixture(t)
	source := reposource.NewMemorySource()
	idx.Source = func(models.RepoEntry) reposource.Source { return source }

	source.AddCommit("c3d4e5f", []string{"svc/billing.py"},
		map[string]string{"svc/billing.py": pyBillingSource},
		map[string]string{"svc/billing.py": pyBillingDiff},
	)

	_, diags, err := idx.IndexCommit(context.Background(), models.DifferentialIndexerRequest{
		Service: "checkout", CommitSHA: "c3d4e5f",
	})
	require.NoError(t, err)
	for _, d := range diags {
		assert.NotEqual(t, models.SeverityError, d.Severity, "unexpected error diagnostic: %+v", d)
	}

	var module, class models.Node
	for _, node := range store.Nodes() {
		switch node.SymbolName {
		case "(module)":
			module = node
		case "Billing":
			class = node
		}
	}
	require.Equal(t, models.StatusModified, module.Status)
	assert.Contains(t, module.Text, "-TIMEOUT_SECONDS = 5")
	assert.Contains(t, module.Text, "+TIMEOUT_SECONDS = 30")
	assert.Equal(t, models.StatusUnchanged, class.Status, "class untouched by the hunk must stay UNCHANGED")
	assert.Empty(t, class.Text)

	var charge models.Node
	for _, node := range store.Nodes() {
		if node.SymbolName == "charge" {
			charge = node
		}
	}
	assert.Equal(t, models.StatusUnchanged, charge.Status)
}

func TestIndexCommitIdempotentAcrossReruns(t *testing.T) {
	idx, store := newFixture(t)
	source := reposource.NewMemorySource()
	idx.Source = func(models.RepoEntry) reposource.Source { return source }

	source.AddCommit("a1b2c3d", []string{"svc/foo.py"},
		map[string]string{"svc/foo.py": pySource},
		map[string]string{"svc/foo.py": pyDiffAddLine},
	)

	req := models.DifferentialIndexerRequest{Service: "checkout", CommitSHA: "a1b2c3d"}
	n1, _, err := idx.IndexCommit(context.Background(), req)
	require.NoError(t, err)
	firstIDs := make(map[string]bool)
	for id := range store.Nodes() {
		firstIDs[id] = true
	}

	n2, _, err := idx.IndexCommit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, n1, n2, "re-index must upsert the same node count")
	assert.Equal(t, len(firstIDs), len(store.Nodes()), "re-index must not grow the graph")
	for id := range store.Nodes() {
		assert.True(t, firstIDs[id], "unexpected new node id %s on re-index", id)
	}
}
