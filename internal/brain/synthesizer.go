package brain

import (
	"context"
	"fmt"
	"strings"

	"github.com/irinasmt/rcabrain/internal/models"
)

const synthesizerSystemPrompt = "You are an SRE root-cause analyst. Generate root-cause hypotheses for this incident."

type synthesizerStage struct{}

func (synthesizerStage) Name() string { return "rca_synthesizer" }

type hypothesisJSON struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Confidence   float64  `json:"confidence"`
	EvidenceRefs []string `json:"evidence_refs"`
}

type synthesizerResponse struct {
	Hypotheses []hypothesisJSON `json:"hypotheses"`
}

// Run combines evidence into 2-3 ranked hypotheses.
func (synthesizerStage) Run(ctx context.Context, deps *Deps, state *models.BrainState) error {
	if deps.LLM != nil {
		prompt := buildSynthesizerPrompt(state)
		var resp synthesizerResponse
		if err := deps.LLM.GenerateJSON(ctx, synthesizerSystemPrompt, prompt, &resp); err != nil {
			state.Errors = append(state.Errors, fmt.Sprintf("synthesizer_parse_error: %v", err))
			state.Hypotheses = []models.Hypothesis{{
				Title:        "Unknown root cause",
				Summary:      fmt.Sprintf("LLM synthesis failed: %v", err),
				Confidence:   0.30,
				EvidenceRefs: append([]string(nil), state.EvidenceRefs...),
			}}
			return nil
		}
		hyps := make([]models.Hypothesis, 0, len(resp.Hypotheses))
		for _, h := range resp.Hypotheses {
			refs := h.EvidenceRefs
			if len(refs) == 0 {
				refs = append([]string(nil), state.EvidenceRefs...)
			}
			hyps = append(hyps, models.Hypothesis{
				Title:        h.Title,
				Summary:      h.Summary,
				Confidence:   models.Clamp01(h.Confidence),
				EvidenceRefs: refs,
			})
		}
		state.Hypotheses = hyps
		return nil
	}

	state.Hypotheses = stubHypotheses(state)
	return nil
}

func (synthesizerStage) Validate(state *models.BrainState) error {
	return SynthesizerOutput{Hypotheses: state.Hypotheses}.validateOutput()
}

// stubHypotheses is the deterministic no-LLM rule.
func stubHypotheses(state *models.BrainState) []models.Hypothesis {
	refs := append([]string(nil), state.EvidenceRefs...)
	if state.Incident.DeploymentID != nil && *state.Incident.DeploymentID != "" {
		return []models.Hypothesis{{
			Title:        "Recent rollout regression",
			Summary:      fmt.Sprintf("Deployment %s coincided with the onset of %s's incident; the rollout is the leading suspect pending further evidence.", *state.Incident.DeploymentID, state.Incident.Service),
			Confidence:   0.86,
			EvidenceRefs: refs,
		}}
	}
	return []models.Hypothesis{{
		Title:        "Traffic or dependency instability",
		Summary:      fmt.Sprintf("No deployment is linked to this incident on %s; traffic shifts or upstream dependency degradation are the leading suspects.", state.Incident.Service),
		Confidence:   0.62,
		EvidenceRefs: refs,
	}}
}

func buildSynthesizerPrompt(state *models.BrainState) string {
	rawLogsBlock := ""
	if len(state.Incident.ExtraContext) > 0 {
		var lines []string
		for _, k := range sortedKeys(state.Incident.ExtraContext) {
			lines = append(lines, fmt.Sprintf("  [%s]\n%v", k, state.Incident.ExtraContext[k]))
		}
		rawLogsBlock = "\n\nRaw log evidence:\n" + strings.Join(lines, "\n")
	}
	critique := ""
	if state.Iteration > 1 && state.CriticReasoning != "" {
		critique = fmt.Sprintf("\n\nA critic reviewed the previous hypotheses and noted these gaps in the evidence:\n%s\n"+
			"Keep the same hypotheses if they are still the best fit. Strengthen them by citing more specific evidence "+
			"from the logs and metrics. Do NOT invent new root causes unless the evidence clearly rules out the existing ones.",
			state.CriticReasoning)
	}
	deployment := "none"
	if state.Incident.DeploymentID != nil && *state.Incident.DeploymentID != "" {
		deployment = *state.Incident.DeploymentID
	}
	return fmt.Sprintf(`Service: %s
Incident started: %s
Deployment: %s
Investigation plan: %s
Git context: %s
Metrics context: %s
Evidence refs: %s%s%s

Return ONLY a valid JSON object with a "hypotheses" array (2-3 entries, most to least likely), each with
title, summary, confidence (0.0-1.0), and evidence_refs. If no deployment exists, lower confidence on
code-change hypotheses.`,
		state.Incident.Service, state.Incident.StartedAt.Format("2006-01-02T15:04:05Z07:00"), deployment,
		state.TaskPlan, state.GitSummary, state.MetricsSummary, strings.Join(state.EvidenceRefs, ", "), rawLogsBlock, critique)
}
