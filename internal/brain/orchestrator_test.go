package brain

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/irinasmt/rcabrain/internal/llmport"
	"github.com/irinasmt/rcabrain/internal/meshscout"
	"github.com/irinasmt/rcabrain/internal/models"
)

func strPtr(s string) *string { return &s }

func newTestOrchestrator(config Config) *Orchestrator {
	return NewOrchestrator(Deps{Mesh: meshscout.NewScout(nil, nil)}, config, nil)
}

// Deployment-linked incident with a strong signal: the stub pipeline
// completes in one iteration.
func TestRunDeploymentLinkedStrongSignal(t *testing.T) {
	o := newTestOrchestrator(DefaultConfig())
	incident := models.ApprovedIncident{
		IncidentID:   "inc-1",
		Service:      "checkout-api",
		StartedAt:    time.Date(2026, 2, 22, 10, 0, 0, 0, time.UTC),
		DeploymentID: strPtr("deploy-1"),
	}

	rep, err := o.Run(context.Background(), incident)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Hypotheses) != 1 || rep.Hypotheses[0].Title != "Recent rollout regression" {
		t.Fatalf("unexpected hypotheses: %+v", rep.Hypotheses)
	}
	if rep.Hypotheses[0].Confidence != 0.86 {
		t.Fatalf("expected confidence 0.86, got %v", rep.Hypotheses[0].Confidence)
	}
	if rep.CriticScore != 0.86 {
		t.Fatalf("expected critic_score 0.86, got %v", rep.CriticScore)
	}
	if rep.FixConfidence != 0.77 {
		t.Fatalf("expected fix_confidence 0.77, got %v", rep.FixConfidence)
	}
	if rep.Status != models.ReportCompleted {
		t.Fatalf("expected completed, got %v", rep.Status)
	}
	if rep.Metadata["iteration"] != 1 {
		t.Fatalf("expected iteration 1, got %v", rep.Metadata["iteration"])
	}
}

// With a critic threshold the stub decay can never reach, the run
// escalates after max iterations.
func TestRunEscalatesAfterMaxIterations(t *testing.T) {
	o := newTestOrchestrator(Config{CriticThreshold: 0.9, FixConfidenceThreshold: 0.75, MaxIterations: 2})
	incident := models.ApprovedIncident{
		IncidentID: "inc-2",
		Service:    "checkout-api",
		StartedAt:  time.Date(2026, 2, 22, 10, 0, 0, 0, time.UTC),
	}

	rep, err := o.Run(context.Background(), incident)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Hypotheses) != 1 || rep.Hypotheses[0].Title != "Traffic or dependency instability" {
		t.Fatalf("unexpected hypotheses: %+v", rep.Hypotheses)
	}
	if rep.CriticScore >= 0.9 {
		t.Fatalf("expected critic_score < 0.9, got %v", rep.CriticScore)
	}
	if rep.FixConfidence >= 0.75 {
		t.Fatalf("expected fix_confidence < 0.75, got %v", rep.FixConfidence)
	}
	if rep.Status != models.ReportEscalated {
		t.Fatalf("expected escalated, got %v", rep.Status)
	}
	if rep.Metadata["iteration"] != 2 {
		t.Fatalf("expected iteration 2, got %v", rep.Metadata["iteration"])
	}
}

// Mesh events showing a degraded upstream expand the suspect scope.
func TestRunMeshDrivenSuspectExpansion(t *testing.T) {
	o := newTestOrchestrator(DefaultConfig())
	incident := models.ApprovedIncident{
		IncidentID: "inc-5",
		Service:    "checkout-api",
		StartedAt:  time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		ExtraContext: map[string]any{
			"mesh_events": []any{
				map[string]any{"service": "checkout-api", "upstream": "payment-api", "ts": "2026-01-01T12:00:05Z", "response_code": float64(500), "retry_count": float64(6)},
				map[string]any{"service": "checkout-api", "upstream": "payment-api", "ts": "2026-01-01T12:00:10Z", "response_code": float64(500), "retry_count": float64(6)},
			},
		},
	}

	rep, err := o.Run(context.Background(), incident)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	suspects, _ := rep.Metadata["suspect_services"].([]string)
	if len(suspects) != 2 || suspects[0] != "checkout-api" || suspects[1] != "payment-api" {
		t.Fatalf("expected [checkout-api payment-api], got %v", suspects)
	}
	edges, _ := rep.Metadata["suspect_edges"].([]string)
	if !containsStr(edges, "checkout-api->payment-api") {
		t.Fatalf("expected suspect edge checkout-api->payment-api, got %v", edges)
	}
	refs, _ := rep.Metadata["evidence_refs"].([]string)
	if !containsStr(refs, "mesh-suspect:payment-api") {
		t.Fatalf("expected mesh-suspect:payment-api in evidence_refs, got %v", refs)
	}
	if !containsStr(refs, "logs:payment-api") {
		t.Fatalf("expected logs:payment-api in evidence_refs, got %v", refs)
	}
}

func TestRunNoHypothesesEscalatesWithZeroScores(t *testing.T) {
	o := newTestOrchestrator(DefaultConfig())
	o.Deps.LLM = &fixedJSONStub{jsonByPrompt: map[string]string{
		"hypotheses": `{"hypotheses": []}`,
	}}
	incident := models.ApprovedIncident{
		IncidentID: "inc-6",
		Service:    "checkout-api",
		StartedAt:  time.Now(),
	}

	rep, err := o.Run(context.Background(), incident)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Hypotheses) != 0 {
		t.Fatalf("expected no hypotheses, got %+v", rep.Hypotheses)
	}
	if rep.CriticScore != 0 || rep.FixConfidence != 0 {
		t.Fatalf("expected zero scores, got critic=%v fix=%v", rep.CriticScore, rep.FixConfidence)
	}
	if rep.Status != models.ReportEscalated {
		t.Fatalf("expected escalated, got %v", rep.Status)
	}
}

func TestRunCancelledContextYieldsFailedReport(t *testing.T) {
	o := newTestOrchestrator(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := o.Run(ctx, models.ApprovedIncident{
		IncidentID: "inc-7",
		Service:    "checkout-api",
		StartedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Status != models.ReportFailed {
		t.Fatalf("expected failed, got %v", rep.Status)
	}
	found := false
	for _, e := range rep.Errors {
		if strings.HasPrefix(e, "cancelled:") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a cancellation marker in errors, got %v", rep.Errors)
	}
}

func TestRunRejectsInvalidIncident(t *testing.T) {
	o := newTestOrchestrator(DefaultConfig())
	_, err := o.Run(context.Background(), models.ApprovedIncident{
		IncidentID: "x",
		Service:    "checkout-api",
		StartedAt:  time.Now(),
	})
	if err == nil {
		t.Fatal("expected rejection for a too-short incident_id")
	}
}

func containsStr(items []string, v string) bool {
	for _, i := range items {
		if i == v {
			return true
		}
	}
	return false
}

// fixedJSONStub is a minimal llmport.Port used to exercise the
// LLM-present/JSON branches of synthesizer/critic/fix_advisor.
type fixedJSONStub struct {
	jsonByPrompt map[string]string
}

func (f *fixedJSONStub) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "stub text response", nil
}

func (f *fixedJSONStub) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	for substr, raw := range f.jsonByPrompt {
		if strings.Contains(userPrompt, substr) {
			return llmport.DecodeFenced(raw, out)
		}
	}
	return llmport.DecodeFenced(`{}`, out)
}
