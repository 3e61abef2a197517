package brain

import (
	"context"
	"fmt"
	"strings"

	"github.com/irinasmt/rcabrain/internal/models"
)

const criticSystemPrompt = "You are a critical SRE reviewer. Your job is to DISPROVE the proposed root cause."

// DecayPerIteration is the per-iteration critic-score decay applied by the
// stub/parse-failure path. The decay is what drives eventual escalation
// when the critic never strengthens a hypothesis.
const DecayPerIteration = 0.02

type criticStage struct{}

func (criticStage) Name() string { return "critic" }

type criticResponse struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// Run picks the top hypothesis and challenges it.
func (criticStage) Run(ctx context.Context, deps *Deps, state *models.BrainState) error {
	if len(state.Hypotheses) == 0 {
		state.CriticScore = 0
		state.CriticReasoning = ""
		return nil
	}

	top := topHypothesis(state.Hypotheses)

	if deps.LLM != nil {
		prompt := buildCriticPrompt(state, top)
		var resp criticResponse
		if err := deps.LLM.GenerateJSON(ctx, criticSystemPrompt, prompt, &resp); err != nil {
			state.Errors = append(state.Errors, fmt.Sprintf("critic_parse_error: %v", err))
			state.CriticScore = criticDecayScore(top.Confidence, state.Iteration)
			state.CriticReasoning = fmt.Sprintf("LLM critic failed (%v); stub score applied.", err)
			return nil
		}
		state.CriticScore = models.Clamp01(resp.Score)
		if strings.TrimSpace(resp.Reasoning) == "" {
			state.CriticReasoning = "LLM returned no reasoning."
		} else {
			state.CriticReasoning = resp.Reasoning
		}
		return nil
	}

	state.CriticScore = criticDecayScore(top.Confidence, state.Iteration)
	decay := decayFor(state.Iteration)
	state.CriticReasoning = fmt.Sprintf("Stub evaluation: top hypothesis confidence %.2f with decay %.2f.", top.Confidence, decay)
	return nil
}

func (criticStage) Validate(state *models.BrainState) error {
	return CriticOutput{
		CriticScore:     state.CriticScore,
		CriticReasoning: state.CriticReasoning,
		hadHypotheses:   len(state.Hypotheses) > 0,
	}.validateOutput()
}

func topHypothesis(hyps []models.Hypothesis) models.Hypothesis {
	top := hyps[0]
	for _, h := range hyps[1:] {
		if h.Confidence > top.Confidence {
			top = h
		}
	}
	return top
}

func decayFor(iteration int) float64 {
	d := DecayPerIteration * float64(iteration-1)
	if d < 0 {
		return 0
	}
	return d
}

func criticDecayScore(topConfidence float64, iteration int) float64 {
	return models.Clamp01(topConfidence - decayFor(iteration))
}

func buildCriticPrompt(state *models.BrainState, top models.Hypothesis) string {
	deployment := "none"
	if state.Incident.DeploymentID != nil && *state.Incident.DeploymentID != "" {
		deployment = *state.Incident.DeploymentID
	}
	return fmt.Sprintf(`Incident: %s at %s
Top hypothesis: "%s"
Explanation: %s
Evidence: %s
Deployment: %s
Metrics context: %s
Investigation iteration: %d

Ask yourself:
- Is there a simpler explanation that fits the data better?
- Did the regression start BEFORE the deployment went out?
- Is the evidence actually strong or circumstantial?
- Are there alternative causes (traffic spike, dependency failure, infra issue)?

Return ONLY a valid JSON object: {"score": 0.0-1.0, "reasoning": "..."}.
Score guide: 0.9+ = definitive, 0.8 = strong, 0.6-0.79 = plausible, <0.6 = weak evidence.`,
		state.Incident.Service, state.Incident.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		top.Title, top.Summary, strings.Join(top.EvidenceRefs, ", "), deployment, state.MetricsSummary, state.Iteration)
}
