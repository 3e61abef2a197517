package brain

import (
	"context"
	"fmt"

	"github.com/irinasmt/rcabrain/internal/models"
)

type meshScoutStage struct{}

func (meshScoutStage) Name() string { return "mesh_scout" }

// Run delegates ranking to meshscout.Scout, which already implements the
// graph-query-first/raw-event-fallback strategy. This stage just threads
// the result into BrainState.
func (meshScoutStage) Run(ctx context.Context, deps *Deps, state *models.BrainState) error {
	result, err := deps.Mesh.Rank(ctx, state.Incident)
	if err != nil {
		return fmt.Errorf("mesh_scout: %w", err)
	}
	state.SuspectServices = dedupe(append(state.SuspectServices, result.SuspectServices...))
	state.SuspectEdges = dedupe(append(state.SuspectEdges, result.SuspectEdges...))
	state.MeshSummary = result.MeshSummary
	state.EvidenceRefs = dedupe(append(state.EvidenceRefs, result.EvidenceRefs...))
	return nil
}

func (meshScoutStage) Validate(state *models.BrainState) error {
	return MeshScoutOutput{SuspectServices: state.SuspectServices, MeshSummary: state.MeshSummary}.validateOutput()
}
