// Package meshscout ranks the upstream dependencies of an incident's
// service by observed degradation: a mesh-graph query first, raw
// mesh-event parsing as the fallback.
package meshscout

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/irinasmt/rcabrain/internal/graphstore"
	"github.com/irinasmt/rcabrain/internal/models"
)

const meshCypher = `
MATCH (trigger:MeshService {name: $service})-[:DEPENDS_ON*1..2]->(dep:MeshService)
OPTIONAL MATCH (trigger)-[o:OBSERVED_CALL]->(dep)
RETURN DISTINCT
    dep.name AS svc,
    o.error_count AS error_count,
    o.call_count AS call_count,
    o.avg_latency_ms AS avg_latency_ms,
    o.p99_latency_ms AS p99_latency_ms
`

// Result is mesh_scout's output: suspect_services (incident service
// first, deduped), suspect_edges ("service->upstream"), and a
// human-readable summary.
type Result struct {
	SuspectServices []string `json:"suspect_services"`
	SuspectEdges    []string `json:"suspect_edges"`
	MeshSummary     string   `json:"mesh_summary"`
	EvidenceRefs    []string `json:"evidence_refs"`
}

// Scout ranks upstream dependencies. Store may be nil to force the
// raw-event fallback; Cache may be nil to disable caching.
type Scout struct {
	Store graphstore.Store
	Cache *Cache
}

// NewScout builds a Scout.
func NewScout(store graphstore.Store, cache *Cache) *Scout {
	return &Scout{Store: store, Cache: cache}
}

type observedSuspect struct {
	svc   string
	score float64
}

// Rank queries the graph store for dependency degradation, falling back
// to raw mesh-event parsing when the store is unavailable or yields no
// rows.
func (s *Scout) Rank(ctx context.Context, incident models.ApprovedIncident) (*Result, error) {
	key := Key(incident.Service, incident.StartedAt)
	if cached, ok := s.Cache.Get(ctx, key); ok {
		return cached, nil
	}

	if s.Store != nil {
		if result, ok := s.rankFromGraph(ctx, incident); ok {
			s.Cache.Set(ctx, key, result)
			return result, nil
		}
	}

	result := s.rankFromFallback(incident)
	s.Cache.Set(ctx, key, result)
	return result, nil
}

func (s *Scout) rankFromGraph(ctx context.Context, incident models.ApprovedIncident) (*Result, bool) {
	rows, err := s.Store.Query(ctx, meshCypher, map[string]any{"service": incident.Service})
	if err != nil || len(rows) == 0 {
		return nil, false
	}

	var observed []observedSuspect
	var archOnly []string
	var summaryLines []string
	var evidenceRefs []string

	for _, row := range rows {
		svc, _ := row["svc"].(string)
		if svc == "" {
			continue
		}
		callCount := toFloat(row["call_count"])
		errorCount := toFloat(row["error_count"])
		avgLatency := toFloat(row["avg_latency_ms"])
		p99Latency := toFloat(row["p99_latency_ms"])

		if callCount > 0 {
			errRate := errorCount / callCount
			score := errRate*10.0 + avgLatency/100.0
			observed = append(observed, observedSuspect{svc: svc, score: score})
			summaryLines = append(summaryLines, fmt.Sprintf(
				"  %s: %.0f calls, %.0f errors (%.0f%% err rate), avg %.0fms, p99 %.0fms",
				svc, callCount, errorCount, errRate*100, avgLatency, p99Latency))
			evidenceRefs = append(evidenceRefs, "mesh:observed:"+svc)
		} else {
			archOnly = append(archOnly, svc)
			summaryLines = append(summaryLines, fmt.Sprintf("  %s: architecture dependency (no observed calls)", svc))
			evidenceRefs = append(evidenceRefs, "mesh:depends_on:"+svc)
		}
	}

	if len(observed) == 0 && len(archOnly) == 0 {
		return nil, false
	}

	sort.SliceStable(observed, func(i, j int) bool { return observed[i].score > observed[j].score })

	ranked := make([]string, 0, len(observed))
	edges := make([]string, 0, len(observed))
	for _, o := range observed {
		ranked = append(ranked, o.svc)
		edges = append(edges, fmt.Sprintf("%s->%s", incident.Service, o.svc))
	}

	suspects := dedupe(append([]string{incident.Service}, append(append([]string{}, ranked...), archOnly...)...))

	var summary string
	if len(summaryLines) > 0 {
		summary = fmt.Sprintf("Mesh graph traversal from '%s' (%d observed degraded, %d arch-only):\n%s",
			incident.Service, len(ranked), len(archOnly), strings.Join(summaryLines, "\n"))
	} else {
		summary = fmt.Sprintf("No dependencies found for '%s' in mesh graph.", incident.Service)
	}

	return &Result{
		SuspectServices: suspects,
		SuspectEdges:    edges,
		MeshSummary:     summary,
		EvidenceRefs:    dedupe(evidenceRefs),
	}, true
}

func (s *Scout) rankFromFallback(incident models.ApprovedIncident) *Result {
	// The fallback records its own "mesh-suspect:<svc>" refs.
	// metric_analyst reruns this same routine (via FindSuspectsFromMesh)
	// when the graph path left suspect_services at just the incident
	// service, and layers its own "logs:<svc>" refs on top.
	suspects, suspectEdges := findSuspectsFromMesh(incident)
	if len(suspects) > 0 {
		evidenceRefs := make([]string, 0, len(suspects))
		for _, svc := range suspects {
			evidenceRefs = append(evidenceRefs, "mesh-suspect:"+svc)
		}
		return &Result{
			SuspectServices: dedupe(append([]string{incident.Service}, suspects...)),
			SuspectEdges:    suspectEdges,
			MeshSummary:     fmt.Sprintf("Suspect services from raw mesh events (no graph driver): %s", strings.Join(suspects, ", ")),
			EvidenceRefs:    dedupe(evidenceRefs),
		}
	}
	return &Result{
		SuspectServices: []string{incident.Service},
		MeshSummary:     "No mesh suspects found (no graph driver, no qualifying events).",
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
