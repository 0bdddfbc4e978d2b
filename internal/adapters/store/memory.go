// Package store provides analysis store adapters.
// Clean Architecture: Adapter implementing ports.AnalysisStore.
// Analyses live in memory only; nothing survives a restart.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/0xcro3dile/redline-go/internal/domain/entities"
	"github.com/0xcro3dile/redline-go/internal/domain/ports"
)

// DefaultCapacity bounds how many analyses are retained.
const DefaultCapacity = 50

// InMemoryStore is a bounded in-memory analysis store.
type InMemoryStore struct {
	mu       sync.RWMutex
	items    map[string]*entities.Analysis
	order    []string // insertion order, oldest first
	capacity int
}

// NewInMemoryStore creates a store that keeps at most capacity analyses.
func NewInMemoryStore(capacity int) *InMemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &InMemoryStore{
		items:    make(map[string]*entities.Analysis),
		capacity: capacity,
	}
}

// Save inserts or replaces an analysis, evicting the oldest past capacity.
func (s *InMemoryStore) Save(ctx context.Context, a *entities.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[a.ID]; !exists {
		s.order = append(s.order, a.ID)
	}
	s.items[a.ID] = a.Clone()

	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.items, oldest)
	}
	return nil
}

// Get returns a copy of the analysis.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*entities.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.items[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return a.Clone(), nil
}

// Delete removes an analysis.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns all analyses, newest first.
func (s *InMemoryStore) List(ctx context.Context) ([]*entities.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.Analysis, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, a.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}
