package brain

import (
	"context"
	"fmt"
	"strings"

	"github.com/irinasmt/rcabrain/internal/meshscout"
	"github.com/irinasmt/rcabrain/internal/models"
)

const metricAnalystSystemPrompt = "You are an SRE metrics expert analysing a production incident."

type metricAnalystStage struct{}

func (metricAnalystStage) Name() string { return "metric_analyst" }

// Run appends the p99 evidence ref, expands suspect scope via the raw-event
// fallback when mesh_scout hasn't already done so, and produces a
// metrics_summary.
func (metricAnalystStage) Run(ctx context.Context, deps *Deps, state *models.BrainState) error {
	state.EvidenceRefs = appendDeduped(state.EvidenceRefs, fmt.Sprintf("metric:%s:p99", state.Incident.Service))

	if len(state.SuspectServices) <= 1 {
		suspects, suspectEdges := meshscout.FindSuspectsFromMesh(state.Incident)
		if len(suspects) > 0 {
			merged := append([]string{state.Incident.Service}, state.SuspectServices...)
			merged = append(merged, suspects...)
			state.SuspectServices = dedupe(merged)
			state.SuspectEdges = dedupe(append(state.SuspectEdges, suspectEdges...))
			for _, svc := range suspects {
				state.EvidenceRefs = appendDeduped(state.EvidenceRefs, "mesh-suspect:"+svc)
				state.EvidenceRefs = appendDeduped(state.EvidenceRefs, "logs:"+svc)
			}
		}
	} else {
		for _, svc := range state.SuspectServices[1:] {
			state.EvidenceRefs = appendDeduped(state.EvidenceRefs, "logs:"+svc)
		}
	}

	if deps.LLM != nil {
		prompt := buildMetricAnalystPrompt(state)
		text, err := deps.LLM.Generate(ctx, metricAnalystSystemPrompt, prompt)
		if err != nil || strings.TrimSpace(text) == "" {
			state.Errors = append(state.Errors, fmt.Sprintf("metric_analyst_generate_error: %v", err))
			state.MetricsSummary = metricAnalystStub(state)
		} else {
			state.MetricsSummary = text
		}
	} else {
		state.MetricsSummary = metricAnalystStub(state)
	}
	return nil
}

func (metricAnalystStage) Validate(state *models.BrainState) error {
	return MetricAnalystOutput{MetricsSummary: state.MetricsSummary, EvidenceRefs: state.EvidenceRefs}.validateOutput()
}

func buildMetricAnalystPrompt(state *models.BrainState) string {
	rawLogsBlock := ""
	if len(state.Incident.ExtraContext) > 0 {
		var lines []string
		for _, k := range sortedKeys(state.Incident.ExtraContext) {
			lines = append(lines, fmt.Sprintf("  [%s]\n%v", k, state.Incident.ExtraContext[k]))
		}
		rawLogsBlock = "\n\nRaw log evidence from the incident bundle:\n" + strings.Join(lines, "\n")
	}
	deployment := "none"
	if state.Incident.DeploymentID != nil && *state.Incident.DeploymentID != "" {
		deployment = *state.Incident.DeploymentID
	}
	return fmt.Sprintf(`Service: %s
Suspect services in scope: %s
Incident started: %s
Deployment: %s
Investigation plan: %s
Git context: %s%s

In 3-5 sentences, describe the likely metric anomaly pattern:
- Which RED metrics (request rate, error rate, latency/p99) and resource signals (CPU, memory, DB connections) would confirm this incident.
- Characterise the anomaly shape: step spike, slow creep, periodic oscillation, or sustained saturation.
- Note any downstream service signals that should be checked.`,
		state.Incident.Service, strings.Join(suspectScope(state), ", "),
		state.Incident.StartedAt.Format("2006-01-02T15:04:05Z07:00"), deployment, state.TaskPlan, state.GitSummary, rawLogsBlock)
}

func metricAnalystStub(state *models.BrainState) string {
	scopeLine := ""
	if len(state.SuspectServices) > 0 {
		scopeLine = fmt.Sprintf(" Suspect dependencies: %s.", strings.Join(state.SuspectServices, ", "))
	}
	return fmt.Sprintf("Anomaly detected on %s. Expect elevated p99 latency and error rate in the incident window. "+
		"Check CPU and connection pool saturation.%s", state.Incident.Service, scopeLine)
}
