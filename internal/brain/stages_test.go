package brain

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/irinasmt/rcabrain/internal/graphstore"
	"github.com/irinasmt/rcabrain/internal/meshscout"
	"github.com/irinasmt/rcabrain/internal/models"
)

func TestCriticDecayScoreMonotonic(t *testing.T) {
	s1 := criticDecayScore(0.62, 1)
	s2 := criticDecayScore(0.62, 2)
	s3 := criticDecayScore(0.62, 3)
	if !(s1 > s2 && s2 > s3) {
		t.Fatalf("expected monotonic decay, got %v %v %v", s1, s2, s3)
	}
	if s1 != 0.62 {
		t.Fatalf("expected no decay at iteration 1, got %v", s1)
	}
}

func TestCriticDecayScoreNeverNegative(t *testing.T) {
	score := criticDecayScore(0.01, 100)
	if score < 0 {
		t.Fatalf("expected clamped non-negative score, got %v", score)
	}
}

func TestStubFixConfidenceRounding(t *testing.T) {
	hyps := []models.Hypothesis{{Confidence: 0.86}}
	got := stubFixConfidence(hyps)
	if got != 0.77 {
		t.Fatalf("expected 0.77, got %v", got)
	}
}

func TestStubFixConfidenceEmpty(t *testing.T) {
	if got := stubFixConfidence(nil); got != 0 {
		t.Fatalf("expected 0 for no hypotheses, got %v", got)
	}
}

func TestGitScoutSummaryNeverContainsDiffHeaders(t *testing.T) {
	store := graphstore.NewMemoryStore()
	ctx := context.Background()
	_ = store.UpsertNodes(ctx, []models.Node{{
		ID: "n1", Service: "checkout-api", FilePath: "svc/foo.py",
		SymbolName: "charge", SymbolKind: "function", Status: models.StatusModified,
		SemanticDelta: "- old_total = 0\n+ old_total = 1",
	}})

	state := models.NewBrainState(models.ApprovedIncident{Service: "checkout-api", StartedAt: time.Now()})
	state.SuspectServices = []string{"checkout-api"}
	deps := &Deps{Graph: store}

	if err := (gitScoutStage{}).Run(ctx, deps, state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(state.GitSummary, "--- a/") || strings.Contains(state.GitSummary, "+++ b/") {
		t.Fatalf("git_summary leaked diff headers: %q", state.GitSummary)
	}
	if !strings.Contains(state.GitSummary, "charge") {
		t.Fatalf("expected git_summary to reference graph node, got %q", state.GitSummary)
	}
	if err := (gitScoutStage{}).Validate(state); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestGitScoutDegradesToStubWithoutGraphOrLLM(t *testing.T) {
	state := models.NewBrainState(models.ApprovedIncident{Service: "checkout-api", StartedAt: time.Now()})
	deps := &Deps{}
	if err := (gitScoutStage{}).Run(context.Background(), deps, state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.GitSummary == "" {
		t.Fatalf("expected non-empty stub git_summary")
	}
}

func TestSupervisorEvidenceOrderingIncidentThenDeploy(t *testing.T) {
	deployID := "deploy-9"
	state := models.NewBrainState(models.ApprovedIncident{
		IncidentID: "inc-9", Service: "checkout-api", StartedAt: time.Now(), DeploymentID: &deployID,
	})
	if err := (supervisorStage{}).Run(context.Background(), &Deps{}, state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(state.EvidenceRefs) != 2 || state.EvidenceRefs[0] != "incident:inc-9" || state.EvidenceRefs[1] != "deploy:deploy-9" {
		t.Fatalf("expected [incident:inc-9 deploy:deploy-9], got %v", state.EvidenceRefs)
	}
}

func TestMetricAnalystSkipsFallbackWhenMeshAlreadyExpanded(t *testing.T) {
	state := models.NewBrainState(models.ApprovedIncident{Service: "checkout-api", StartedAt: time.Now()})
	state.SuspectServices = []string{"checkout-api", "payment-api"}
	if err := (metricAnalystStage{}).Run(context.Background(), &Deps{}, state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if containsStr(state.EvidenceRefs, "mesh-suspect:payment-api") {
		t.Fatalf("did not expect mesh-suspect ref when mesh_scout already expanded suspects, got %v", state.EvidenceRefs)
	}
	if !containsStr(state.EvidenceRefs, "logs:payment-api") {
		t.Fatalf("expected logs:payment-api, got %v", state.EvidenceRefs)
	}
}

func TestMeshScoutStageMergesEvidenceRefs(t *testing.T) {
	state := models.NewBrainState(models.ApprovedIncident{
		Service:   "checkout-api",
		StartedAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		ExtraContext: map[string]any{
			"mesh_events": []any{
				map[string]any{"service": "checkout-api", "upstream": "payment-api", "ts": "2026-01-01T12:00:05Z", "response_code": float64(500)},
				map[string]any{"service": "checkout-api", "upstream": "payment-api", "ts": "2026-01-01T12:00:10Z", "response_code": float64(500)},
			},
		},
	})
	deps := &Deps{Mesh: meshscout.NewScout(nil, nil)}
	if err := (meshScoutStage{}).Run(context.Background(), deps, state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !containsStr(state.EvidenceRefs, "mesh-suspect:payment-api") {
		t.Fatalf("expected mesh-suspect:payment-api, got %v", state.EvidenceRefs)
	}
	if state.SuspectServices[0] != "checkout-api" {
		t.Fatalf("expected incident service first, got %v", state.SuspectServices)
	}
}
