// Package servicemap resolves a service name to the RepoEntry it is
// backed by, and tracks which services have been onboarded for backfill.
package servicemap

import (
	"context"
	"fmt"
	"sync"

	"github.com/irinasmt/rcabrain/internal/models"
)

// ErrNotRegistered is returned by Get/Has-dependent callers when a service
// has no RepoEntry registered.
var ErrNotRegistered = fmt.Errorf("servicemap: service not registered")

// Map resolves services to the repository that backs them.
type Map interface {
	Get(ctx context.Context, service string) (models.RepoEntry, error)
	Register(ctx context.Context, service string, entry models.RepoEntry) error
	Has(ctx context.Context, service string) bool
}

// InMemoryMap is a map-backed Map, safe for concurrent use.
type InMemoryMap struct {
	mu      sync.RWMutex
	entries map[string]models.RepoEntry
}

// NewInMemoryMap returns an empty InMemoryMap.
func NewInMemoryMap() *InMemoryMap {
	return &InMemoryMap{entries: map[string]models.RepoEntry{}}
}

func (m *InMemoryMap) Get(ctx context.Context, service string) (models.RepoEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[service]
	if !ok {
		return models.RepoEntry{}, fmt.Errorf("%w: %s", ErrNotRegistered, service)
	}
	return entry, nil
}

func (m *InMemoryMap) Register(ctx context.Context, service string, entry models.RepoEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[service] = entry
	return nil
}

func (m *InMemoryMap) Has(ctx context.Context, service string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[service]
	return ok
}

// Len reports how many services are currently registered.
func (m *InMemoryMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
