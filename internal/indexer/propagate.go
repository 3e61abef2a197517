package indexer

import "github.com/irinasmt/rcabrain/internal/models"

// fileNode is one symbol within a single file, carrying everything the
// pipeline accumulates about it until the final upsert.
type fileNode struct {
	enrichedNode
	ID            string
	Status        string
	Text          string
	SemanticDelta string
}

// propagateStatusUpward walks every strict prefix of each MODIFIED/ADDED
// node's scope chain and upgrades UNCHANGED ancestors to MODIFIED. It
// never touches ADDED, DELETED, or MOVED ancestors.
func propagateStatusUpward(byScopeKey map[string]*fileNode) {
	for _, n := range byScopeKey {
		if n.Status != models.StatusModified && n.Status != models.StatusAdded {
			continue
		}
		cur := n.ParentKey
		for {
			anc, ok := byScopeKey[cur]
			if !ok {
				break
			}
			if anc.Status == models.StatusUnchanged {
				anc.Status = models.StatusModified
			}
			if cur == "" {
				break
			}
			cur = anc.ParentKey
		}
	}
}

// buildContainsEdges returns (fromID, toID) pairs for every node whose
// parent scope is present in byScopeKey, i.e. parent scope chain equals
// child's chain minus its last element, within the same file.
func buildContainsEdges(byScopeKey map[string]*fileNode) [][2]string {
	var edges [][2]string
	for key, n := range byScopeKey {
		if key == "" {
			continue // module root has no parent
		}
		parent, ok := byScopeKey[n.ParentKey]
		if !ok {
			continue
		}
		edges = append(edges, [2]string{parent.ID, n.ID})
	}
	return edges
}
