package indexer

import (
	"strings"

	"github.com/irinasmt/rcabrain/internal/hierarchy"
)

// enrichedNode is a hierarchy.SymbolNode after byte-offset-to-line
// conversion and innermost-scope naming, still missing status/text,
// which are assigned later in the pipeline.
type enrichedNode struct {
	Name      string
	Kind      string
	StartLine int
	EndLine   int
	Scopes    []hierarchy.Scope
	ScopeKey  string
	ParentKey string
}

func lineOf(source []byte, byteOffset uint) int {
	if int(byteOffset) > len(source) {
		byteOffset = uint(len(source))
	}
	return strings.Count(string(source[:byteOffset]), "\n") + 1
}

// scopeKey joins a scope chain into a stable map key.
func scopeKey(scopes []hierarchy.Scope) string {
	var b strings.Builder
	for _, s := range scopes {
		b.WriteString(s.Type)
		b.WriteByte(':')
		b.WriteString(s.Name)
		b.WriteByte('/')
	}
	return b.String()
}

// enrichPositions converts raw hierarchy nodes into line-numbered,
// innermost-scope-named enriched nodes.
func enrichPositions(nodes []hierarchy.SymbolNode, source []byte) []enrichedNode {
	out := make([]enrichedNode, 0, len(nodes))
	for _, n := range nodes {
		name := "(module)"
		kind := "module"
		if len(n.InclusiveScopes) > 0 {
			innermost := n.InclusiveScopes[len(n.InclusiveScopes)-1]
			name = innermost.Name
			kind = innermost.Type
		}
		en := enrichedNode{
			Name:      name,
			Kind:      kind,
			StartLine: lineOf(source, n.StartByte),
			EndLine:   lineOf(source, n.EndByte),
			Scopes:    n.InclusiveScopes,
			ScopeKey:  scopeKey(n.InclusiveScopes),
		}
		if len(n.InclusiveScopes) > 0 {
			en.ParentKey = scopeKey(n.InclusiveScopes[:len(n.InclusiveScopes)-1])
		}
		out = append(out, en)
	}
	return out
}
