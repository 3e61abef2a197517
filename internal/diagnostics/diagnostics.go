// Package diagnostics defines the structured-event taxonomy emitted by the
// indexing pipeline and a small thread-safe collector for accumulating
// them across a commit or a backfill run.
package diagnostics

import (
	"sync"

	"github.com/irinasmt/rcabrain/internal/models"
)

// Collector accumulates IndexingDiagnostic events from concurrent
// producers (e.g. per-file goroutines within one commit).
type Collector struct {
	mu    sync.Mutex
	items []models.IndexingDiagnostic
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Add appends one diagnostic. filePath/commitSHA may be empty, in which
// case the corresponding optional field is omitted.
func (c *Collector) Add(severity, stage, message, filePath, commitSHA string) {
	d := models.IndexingDiagnostic{
		Severity:  severity,
		Stage:     stage,
		Message:   message,
		FilePath:  ptr(filePath),
		CommitSHA: ptr(commitSHA),
	}
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Info records an info-severity diagnostic.
func (c *Collector) Info(stage, message, filePath, commitSHA string) {
	c.Add(models.SeverityInfo, stage, message, filePath, commitSHA)
}

// Warning records a warning-severity diagnostic.
func (c *Collector) Warning(stage, message, filePath, commitSHA string) {
	c.Add(models.SeverityWarning, stage, message, filePath, commitSHA)
}

// Error records an error-severity diagnostic.
func (c *Collector) Error(stage, message, filePath, commitSHA string) {
	c.Add(models.SeverityError, stage, message, filePath, commitSHA)
}

// Items returns a snapshot of collected diagnostics in insertion order.
func (c *Collector) Items() []models.IndexingDiagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.IndexingDiagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.items {
		if d.Severity == models.SeverityError {
			return true
		}
	}
	return false
}

// Merge appends another Collector's items to the end of c, in the order
// they were recorded in other (merging per-file collectors one by one in
// commit-file-list order makes intra-commit concurrent file processing
// produce diagnostics in that order rather than goroutine completion
// order).
func (c *Collector) Merge(other *Collector) {
	items := other.Items()
	c.mu.Lock()
	c.items = append(c.items, items...)
	c.mu.Unlock()
}
