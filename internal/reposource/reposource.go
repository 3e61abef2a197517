// Package reposource defines the Repository Port: the indexer's view of
// a single version-controlled repository, plus a fixture-backed
// implementation and a GitHub-backed one.
package reposource

import "context"

// Source is the port the indexer and backfill runner depend on: file
// content, per-file diffs, changed-file lists, and recent commits.
type Source interface {
	GetFile(ctx context.Context, commitSHA, path string) (string, error)
	GetDiff(ctx context.Context, commitSHA, path string) (string, error)
	ListChangedFiles(ctx context.Context, commitSHA string) ([]string, error)
	ListCommits(ctx context.Context, sinceDays int, branch string) ([]string, error)
}
