package meshscout

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/irinasmt/rcabrain/internal/models"
)

// meshEvent is one raw JSONL mesh-telemetry row, as found in
// incident.ExtraContext["mesh_events"] (already decoded list) or
// ["mesh_events_jsonl"] (newline-delimited JSON string).
type meshEvent struct {
	Service      string  `json:"service"`
	Upstream     string  `json:"upstream"`
	Timestamp    string  `json:"ts"`
	LatencyMs    float64 `json:"latency_ms"`
	RetryCount   float64 `json:"retry_count"`
	ResponseCode int     `json:"response_code"`
}

func extractMeshEvents(extraContext map[string]any) []meshEvent {
	if extraContext == nil {
		return nil
	}
	raw, ok := extraContext["mesh_events"]
	if !ok {
		raw = extraContext["mesh_events_jsonl"]
	}
	switch v := raw.(type) {
	case []any:
		events := make([]meshEvent, 0, len(v))
		for _, item := range v {
			encoded, err := json.Marshal(item)
			if err != nil {
				continue
			}
			var e meshEvent
			if json.Unmarshal(encoded, &e) == nil {
				events = append(events, e)
			}
		}
		return events
	case string:
		var events []meshEvent
		for _, line := range strings.Split(v, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			var e meshEvent
			if json.Unmarshal([]byte(line), &e) == nil {
				events = append(events, e)
			}
		}
		return events
	default:
		return nil
	}
}

type upstreamStats struct {
	count, err, latSum, retrySum float64
}

// FindSuspectsFromMesh is the raw-event fallback, exported so
// metric_analyst can rerun the same matching logic when mesh_scout
// leaves the suspect scope at just the incident service.
func FindSuspectsFromMesh(incident models.ApprovedIncident) (suspects, suspectEdges []string) {
	return findSuspectsFromMesh(incident)
}

// findSuspectsFromMesh is the raw-event fallback: degrade when no graph
// store (or no qualifying Cypher rows) is available.
func findSuspectsFromMesh(incident models.ApprovedIncident) (suspects, suspectEdges []string) {
	events := extractMeshEvents(incident.ExtraContext)
	if len(events) == 0 {
		return nil, nil
	}

	start := incident.StartedAt
	preStart := start.Add(-30 * time.Minute)

	var baselineLatency []float64
	current := map[string]*upstreamStats{}

	for _, e := range events {
		if e.Service != incident.Service {
			continue
		}
		ts, err := time.Parse(time.RFC3339, e.Timestamp)
		if err != nil {
			continue
		}
		upstream := strings.TrimSpace(e.Upstream)
		if upstream == "" {
			continue
		}

		if (ts.Equal(preStart) || ts.After(preStart)) && ts.Before(start) {
			baselineLatency = append(baselineLatency, e.LatencyMs)
		}
		if ts.Before(start) {
			continue
		}

		stats, ok := current[upstream]
		if !ok {
			stats = &upstreamStats{}
			current[upstream] = stats
		}
		stats.count++
		stats.latSum += e.LatencyMs
		stats.retrySum += e.RetryCount
		if e.ResponseCode >= 500 {
			stats.err++
		}
	}

	if len(current) == 0 {
		return nil, nil
	}

	baseline := median(baselineLatency)

	// Deterministic iteration order.
	upstreams := make([]string, 0, len(current))
	for u := range current {
		upstreams = append(upstreams, u)
	}
	sort.Strings(upstreams)

	for _, upstream := range upstreams {
		stats := current[upstream]
		count := stats.count
		if count < 1 {
			count = 1
		}
		errRate := stats.err / count
		avgLatency := stats.latSum / count
		avgRetry := stats.retrySum / count

		degraded := errRate >= 0.10 ||
			avgRetry >= 3.0 ||
			(baseline > 0 && avgLatency >= baseline*2.0) ||
			avgLatency >= 500.0

		if degraded {
			suspects = append(suspects, upstream)
			suspectEdges = append(suspectEdges, fmt.Sprintf("%s->%s", incident.Service, upstream))
		}
	}

	return dedupe(suspects), dedupe(suspectEdges)
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

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
