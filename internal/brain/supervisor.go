package brain

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/irinasmt/rcabrain/internal/models"
)

const supervisorSystemPrompt = "You are a senior SRE analyst. An incident has been reported."

type supervisorStage struct{}

func (supervisorStage) Name() string { return "supervisor" }

// Run increments the iteration counter exactly once per entry, guarantees
// the incident service leads suspect_services, and produces a task_plan.
func (supervisorStage) Run(ctx context.Context, deps *Deps, state *models.BrainState) error {
	state.Iteration++

	if len(state.SuspectServices) == 0 || state.SuspectServices[0] != state.Incident.Service {
		state.SuspectServices = append([]string{state.Incident.Service}, state.SuspectServices...)
	}
	state.SuspectServices = dedupe(state.SuspectServices)

	state.EvidenceRefs = appendDeduped(state.EvidenceRefs, fmt.Sprintf("incident:%s", state.Incident.IncidentID))
	// The incident ref is followed directly by deploy, ahead of the
	// mesh/graph/metric refs later stages append, so deploy is recorded
	// here rather than in git_scout.
	if state.Incident.DeploymentID != nil && *state.Incident.DeploymentID != "" {
		state.EvidenceRefs = appendDeduped(state.EvidenceRefs, "deploy:"+*state.Incident.DeploymentID)
	}

	refinement := ""
	if state.Iteration > 1 && state.CriticReasoning != "" {
		refinement = fmt.Sprintf(" A critic flagged these gaps in the previous investigation: %s "+
			"Focus on gathering stronger evidence for the existing theory rather than pivoting to a new one, "+
			"unless the critic has explicitly ruled it out.", state.CriticReasoning)
	}

	if deps.LLM != nil {
		prompt := buildSupervisorPrompt(state, refinement)
		text, err := deps.LLM.Generate(ctx, supervisorSystemPrompt, prompt)
		if err != nil || strings.TrimSpace(text) == "" {
			state.Errors = append(state.Errors, fmt.Sprintf("supervisor_generate_error: %v", err))
			state.TaskPlan = stubTaskPlan(state, refinement)
		} else {
			state.TaskPlan = text
		}
	} else {
		state.TaskPlan = stubTaskPlan(state, refinement)
	}

	return nil
}

func (supervisorStage) Validate(state *models.BrainState) error {
	return SupervisorOutput{TaskPlan: state.TaskPlan, EvidenceRefs: state.EvidenceRefs}.validateOutput()
}

func buildSupervisorPrompt(state *models.BrainState, refinement string) string {
	evidenceBlock := ""
	if len(state.Incident.ExtraContext) > 0 {
		var lines []string
		for _, k := range sortedKeys(state.Incident.ExtraContext) {
			lines = append(lines, fmt.Sprintf("  [%s]\n%v", k, state.Incident.ExtraContext[k]))
		}
		evidenceBlock = "\n\nAdditional evidence from the incident bundle:\n" + strings.Join(lines, "\n")
	}
	deployment := "none"
	if state.Incident.DeploymentID != nil && *state.Incident.DeploymentID != "" {
		deployment = *state.Incident.DeploymentID
	}
	return fmt.Sprintf(`Incident details:
- Service: %s
- Started at: %s
- Linked deployment: %s%s%s

In 2-3 sentences, write a focused investigation plan: what evidence to gather and which failure modes to explore first.
Do not speculate beyond the facts given. Be concise and actionable.`,
		state.Incident.Service, state.Incident.StartedAt.Format("2006-01-02T15:04:05Z07:00"), deployment, evidenceBlock, refinement)
}

func stubTaskPlan(state *models.BrainState, refinement string) string {
	plan := fmt.Sprintf("Investigate %s incident starting at %s. ",
		state.Incident.Service, state.Incident.StartedAt.Format("2006-01-02T15:04:05Z07:00"))
	if state.Incident.DeploymentID != nil && *state.Incident.DeploymentID != "" {
		plan += fmt.Sprintf("Linked deployment %s is a prime suspect.", *state.Incident.DeploymentID)
	} else {
		plan += "No linked deployment; check infra and dependency signals."
	}
	if refinement != "" {
		plan += refinement
	}
	return plan
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
