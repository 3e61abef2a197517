package reposource

import (
	"context"
	"fmt"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/time/rate"
)

// GitHubSource implements Source against a real GitHub repository via
// go-github. commit_sha values are full commit SHAs; GetDiff returns the
// unified diff for one file within one commit against its first parent.
type GitHubSource struct {
	client      *gh.Client
	owner, repo string
	rateLimiter *rate.Limiter
}

// NewGitHubSource builds a GitHubSource for owner/repo, authenticated
// with token (may be empty for public read access at a lower rate limit).
func NewGitHubSource(token, owner, repo string, requestsPerSecond int) *GitHubSource {
	client := gh.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &GitHubSource{
		client:      client,
		owner:       owner,
		repo:        repo,
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

func (s *GitHubSource) wait(ctx context.Context) error {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("reposource: rate limiter: %w", err)
	}
	return nil
}

// GetFile fetches the full contents of path as it exists at commitSHA.
func (s *GitHubSource) GetFile(ctx context.Context, commitSHA, path string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	opts := &gh.RepositoryContentGetOptions{Ref: commitSHA}
	fileContent, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, opts)
	if err != nil {
		return "", fmt.Errorf("reposource: get file %s@%s: %w", path, commitSHA, err)
	}
	if fileContent == nil {
		return "", fmt.Errorf("reposource: %s@%s is not a file", path, commitSHA)
	}
	content, err := fileContent.GetContent()
	if err != nil {
		return "", fmt.Errorf("reposource: decode file %s@%s: %w", path, commitSHA, err)
	}
	return content, nil
}

// GetDiff fetches the unified diff for a single file within one commit,
// comparing against the commit's first parent.
func (s *GitHubSource) GetDiff(ctx context.Context, commitSHA, path string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	commit, _, err := s.client.Repositories.GetCommit(ctx, s.owner, s.repo, commitSHA, nil)
	if err != nil {
		return "", fmt.Errorf("reposource: get commit %s: %w", commitSHA, err)
	}
	for _, f := range commit.Files {
		if f.GetFilename() == path {
			return f.GetPatch(), nil
		}
	}
	return "", fmt.Errorf("reposource: no diff for %s in commit %s", path, commitSHA)
}

// ListChangedFiles lists every file path touched by commitSHA.
func (s *GitHubSource) ListChangedFiles(ctx context.Context, commitSHA string) ([]string, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	commit, _, err := s.client.Repositories.GetCommit(ctx, s.owner, s.repo, commitSHA, nil)
	if err != nil {
		return nil, fmt.Errorf("reposource: list changed files %s: %w", commitSHA, err)
	}
	paths := make([]string, 0, len(commit.Files))
	for _, f := range commit.Files {
		paths = append(paths, f.GetFilename())
	}
	return paths, nil
}

// ListCommits lists commit SHAs on branch within the last sinceDays,
// newest-first.
func (s *GitHubSource) ListCommits(ctx context.Context, sinceDays int, branch string) ([]string, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	opts := &gh.CommitsListOptions{
		SHA:         branch,
		Since:       time.Now().AddDate(0, 0, -sinceDays),
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	var shas []string
	for {
		commits, resp, err := s.client.Repositories.ListCommits(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("reposource: list commits: %w", err)
		}
		for _, c := range commits {
			shas = append(shas, c.GetSHA())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
	}
	return shas, nil
}
