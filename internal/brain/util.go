// Package brain implements the Investigation Orchestrator: seven
// cooperating investigator stages (supervisor, mesh_scout, git_scout,
// metric_analyst, rca_synthesizer, critic, fix_advisor) driven around a
// shared models.BrainState by a cyclic, gated Orchestrator.
package brain

// dedupe preserves first-insertion order while dropping later duplicates.
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// appendDeduped appends value to items and re-dedupes, the pattern every
// stage uses to grow evidence_refs/suspect_services without duplicates.
func appendDeduped(items []string, value string) []string {
	return dedupe(append(items, value))
}

func contains(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}
