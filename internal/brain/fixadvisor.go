package brain

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/irinasmt/rcabrain/internal/models"
)

const fixAdvisorSystemPrompt = "You are an SRE fix advisor. Your job is to recommend the single best remediation that is safe and effective across ALL plausible causes."

type fixAdvisorStage struct{}

func (fixAdvisorStage) Name() string { return "fix_advisor" }

type fixAdvisorResponse struct {
	FixSummary    string  `json:"fix_summary"`
	FixConfidence float64 `json:"fix_confidence"`
	FixReasoning  string  `json:"fix_reasoning"`
}

// Run recommends a single intervention valid across every hypothesis.
func (fixAdvisorStage) Run(ctx context.Context, deps *Deps, state *models.BrainState) error {
	if len(state.Hypotheses) == 0 {
		state.FixSummary = "No hypotheses available; manual investigation required."
		state.FixConfidence = 0
		state.FixReasoning = "No hypotheses to base a fix on."
		return nil
	}

	top := topHypothesis(state.Hypotheses)

	if deps.LLM != nil {
		prompt := buildFixAdvisorPrompt(state, top)
		var resp fixAdvisorResponse
		if err := deps.LLM.GenerateJSON(ctx, fixAdvisorSystemPrompt, prompt, &resp); err != nil {
			state.Errors = append(state.Errors, fmt.Sprintf("fix_advisor_parse_error: %v", err))
			state.FixConfidence = stubFixConfidence(state.Hypotheses)
			state.FixSummary = "LLM fix synthesis failed; apply the conservative stub remediation: roll back the most recent suspect change and monitor RED metrics for recovery."
			state.FixReasoning = fmt.Sprintf("LLM fix advisor failed (%v); stub confidence applied.", err)
			return nil
		}
		state.FixSummary = resp.FixSummary
		state.FixConfidence = models.Clamp01(resp.FixConfidence)
		if strings.TrimSpace(resp.FixReasoning) == "" {
			state.FixReasoning = "LLM returned no reasoning."
		} else {
			state.FixReasoning = resp.FixReasoning
		}
		return nil
	}

	state.FixConfidence = stubFixConfidence(state.Hypotheses)
	if state.Incident.DeploymentID != nil && *state.Incident.DeploymentID != "" {
		state.FixSummary = fmt.Sprintf("Roll back deployment %s; it holds regardless of which hypothesis is correct.", *state.Incident.DeploymentID)
	} else {
		state.FixSummary = "Shed load to the suspect upstream dependencies and monitor RED metrics for recovery before any code rollback."
	}
	state.FixReasoning = fmt.Sprintf("Stub recommendation derived from %d hypothesis confidence(s), top=%.2f.", len(state.Hypotheses), top.Confidence)
	return nil
}

func (fixAdvisorStage) Validate(state *models.BrainState) error {
	return FixAdvisorOutput{
		FixSummary:    state.FixSummary,
		FixConfidence: state.FixConfidence,
		FixReasoning:  state.FixReasoning,
		hadHypotheses: len(state.Hypotheses) > 0,
	}.validateOutput()
}

// stubFixConfidence is the deterministic no-LLM rule.
func stubFixConfidence(hyps []models.Hypothesis) float64 {
	if len(hyps) == 0 {
		return 0
	}
	var sum float64
	for _, h := range hyps {
		sum += h.Confidence
	}
	mean := sum / float64(len(hyps))
	confidence := math.Min(1.0, 0.9*mean)
	return math.Round(confidence*100) / 100
}

func buildFixAdvisorPrompt(state *models.BrainState, top models.Hypothesis) string {
	var hypList strings.Builder
	for i, h := range state.Hypotheses {
		fmt.Fprintf(&hypList, "  %d. %s (confidence=%.2f)\n", i+1, h.Title, h.Confidence)
	}
	return fmt.Sprintf(`Incident: %s at %s
Top hypothesis: "%s"
Summary: %s
Critic's concern: %s

All hypotheses under consideration:
%s
Return ONLY a valid JSON object: {"fix_summary": "...", "fix_confidence": 0.0-1.0, "fix_reasoning": "..."}.`,
		state.Incident.Service, state.Incident.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		top.Title, top.Summary, state.CriticReasoning, hypList.String())
}
