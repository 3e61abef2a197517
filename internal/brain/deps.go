package brain

import (
	"github.com/irinasmt/rcabrain/internal/graphstore"
	"github.com/irinasmt/rcabrain/internal/llmport"
	"github.com/irinasmt/rcabrain/internal/meshscout"
)

// Deps are the external collaborators every stage may call out to. LLM nil
// means "no LLM configured" and every stage falls back to its deterministic
// stub formula; Graph nil means git_scout degrades to its
// graph-context-free summary.
type Deps struct {
	LLM   llmport.Port
	Mesh  *meshscout.Scout
	Graph graphstore.Store
}
