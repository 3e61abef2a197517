package brain

import (
	"context"
	"fmt"
	"strings"

	"github.com/irinasmt/rcabrain/internal/models"
)

const gitScoutSystemPrompt = "You are a software engineer reviewing a deployment that coincided with a production incident."

type gitScoutStage struct{}

func (gitScoutStage) Name() string { return "git_scout" }

// Run characterises code-change evidence for the current suspect scope.
// The preferred path queries the differential code graph for
// MODIFIED/ADDED nodes and builds a summary from node properties only,
// never raw diff text.
func (gitScoutStage) Run(ctx context.Context, deps *Deps, state *models.BrainState) error {
	var graphContext string
	if deps.Graph != nil {
		var sections []string
		for _, svc := range suspectScope(state) {
			nodes, err := deps.Graph.NodesByServiceStatus(ctx, svc, []string{models.StatusModified, models.StatusAdded})
			if err != nil {
				continue
			}
			formatted := formatGraphNodes(nodes)
			if formatted != "" {
				sections = append(sections, fmt.Sprintf("Service %s:\n%s", svc, formatted))
				state.EvidenceRefs = appendDeduped(state.EvidenceRefs, "graph:"+svc)
			}
		}
		graphContext = strings.Join(sections, "\n\n")
	}

	switch {
	case deps.LLM != nil:
		prompt := buildGitScoutPrompt(state, graphContext)
		text, err := deps.LLM.Generate(ctx, gitScoutSystemPrompt, prompt)
		if err != nil || strings.TrimSpace(text) == "" {
			state.Errors = append(state.Errors, fmt.Sprintf("git_scout_generate_error: %v", err))
			state.GitSummary = gitScoutStub(state)
		} else {
			state.GitSummary = text
		}
	case graphContext != "":
		state.GitSummary = "Differential graph nodes across suspect scope:\n" + graphContext
	default:
		state.GitSummary = gitScoutStub(state)
	}
	return nil
}

func (gitScoutStage) Validate(state *models.BrainState) error {
	return GitScoutOutput{GitSummary: state.GitSummary}.validateOutput()
}

// suspectScope returns the services git_scout/metric_analyst should query.
func suspectScope(state *models.BrainState) []string {
	if len(state.SuspectServices) == 0 {
		return []string{state.Incident.Service}
	}
	return state.SuspectServices
}

func buildGitScoutPrompt(state *models.BrainState, graphContext string) string {
	graphBlock := ""
	if graphContext != "" {
		graphBlock = "\n\nDifferential graph context (structured, no raw diff):\n" + graphContext
	}
	deployment := "none"
	if state.Incident.DeploymentID != nil && *state.Incident.DeploymentID != "" {
		deployment = *state.Incident.DeploymentID
	}
	return fmt.Sprintf(`Service: %s
Suspect services in scope: %s
Incident started: %s
Deployment ID: %s
Investigation plan: %s%s

In 3-5 sentences, describe which categories of code changes in this deployment are most likely to have caused the incident.`,
		state.Incident.Service, strings.Join(suspectScope(state), ", "),
		state.Incident.StartedAt.Format("2006-01-02T15:04:05Z07:00"), deployment, state.TaskPlan, graphBlock)
}

func gitScoutStub(state *models.BrainState) string {
	if state.Incident.DeploymentID != nil && *state.Incident.DeploymentID != "" {
		return fmt.Sprintf("Deployment %s shipped around the incident start; no differential graph available to "+
			"characterise changed code, so treat the rollout itself as the leading code-change suspect.",
			*state.Incident.DeploymentID)
	}
	return "No linked deployment and no differential graph available; code-change evidence is inconclusive for this incident."
}

// formatGraphNodes renders nodes from node properties only, never raw
// diff text; git_summary must stay free of diff file-header markers.
func formatGraphNodes(nodes []models.Node) string {
	if len(nodes) == 0 {
		return ""
	}
	var lines []string
	for _, n := range nodes {
		line := fmt.Sprintf("  [%s] %s '%s' at %s", n.Status, n.SymbolKind, n.SymbolName, n.FilePath)
		lines = append(lines, line)
		if delta := strings.TrimSpace(n.SemanticDelta); delta != "" {
			lines = append(lines, "    "+truncate(firstLine(delta), 120))
		}
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
