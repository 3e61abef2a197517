// Package backfill replays a bounded window of historical commits through
// the Differential Indexer for onboarding a new service.
package backfill

import (
	"context"
	"fmt"

	"github.com/irinasmt/rcabrain/internal/diagnostics"
	"github.com/irinasmt/rcabrain/internal/models"
	"github.com/irinasmt/rcabrain/internal/reposource"
	"github.com/irinasmt/rcabrain/internal/servicemap"
)

// Indexer is the subset of *indexer.DifferentialIndexer the runner needs,
// kept as an interface so backfill tests don't depend on the indexer
// package's concrete wiring.
type Indexer interface {
	IndexCommit(ctx context.Context, req models.DifferentialIndexerRequest) (int, []models.IndexingDiagnostic, error)
}

// Runner replays historical commits for a service in sequential batches.
// Cross-commit ordering is sequential by design: propagation within a
// commit depends only on that commit's own files, but later commits may
// assume an already-consistent graph state from earlier ones.
type Runner struct {
	Indexer  Indexer
	Services servicemap.Map
	Source   reposource.Source
}

// NewRunner builds a Runner.
func NewRunner(indexer Indexer, services servicemap.Map, source reposource.Source) *Runner {
	return &Runner{Indexer: indexer, Services: services, Source: source}
}

// Run replays every commit on policy.Branch within policy.MaxDays for
// service, batching policy.BatchSize commits per indexing round.
// Commits within a batch, and across batches, are indexed strictly
// sequentially.
func (r *Runner) Run(ctx context.Context, service string, policy models.BackfillPolicy) (totalCommits, totalNodes int, diags []models.IndexingDiagnostic, err error) {
	collector := diagnostics.NewCollector()

	if !r.Services.Has(ctx, service) {
		collector.Error("backfill", fmt.Sprintf("service %q is not registered", service), "", "")
		return 0, 0, collector.Items(), nil
	}

	shas, listErr := r.Source.ListCommits(ctx, policy.MaxDays, policy.Branch)
	if listErr != nil {
		collector.Error("backfill", fmt.Sprintf("list commits: %v", listErr), "", "")
		return 0, 0, collector.Items(), nil
	}
	if len(shas) == 0 {
		collector.Warning("backfill", "no commits found within policy window", "", "")
		return 0, 0, collector.Items(), nil
	}

	batchSize := policy.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	for start := 0; start < len(shas); start += batchSize {
		end := start + batchSize
		if end > len(shas) {
			end = len(shas)
		}
		for _, sha := range shas[start:end] {
			n, d, indexErr := r.Indexer.IndexCommit(ctx, models.DifferentialIndexerRequest{
				Service:   service,
				CommitSHA: sha,
			})
			if indexErr != nil {
				collector.Error("backfill", fmt.Sprintf("index commit %s: %v", sha, indexErr), "", sha)
				continue
			}
			totalCommits++
			totalNodes += n
			for _, item := range d {
				collector.Add(item.Severity, item.Stage, item.Message, derefStr(item.FilePath), derefStr(item.CommitSHA))
			}
		}
	}

	return totalCommits, totalNodes, collector.Items(), nil
}

// OnboardService registers entry for service if unregistered and then
// runs a backfill for it.
func (r *Runner) OnboardService(ctx context.Context, service string, entry models.RepoEntry, policy models.BackfillPolicy) (int, int, []models.IndexingDiagnostic, error) {
	if !r.Services.Has(ctx, service) {
		if err := r.Services.Register(ctx, service, entry); err != nil {
			return 0, 0, nil, fmt.Errorf("backfill: register %s: %w", service, err)
		}
	}
	return r.Run(ctx, service, policy)
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
