package manuals

import (
	"context"
	"sort"
	"sync"

	id "brandgov/pkg/domain"
	"brandgov/pkg/platform/sentinel"
)

// InMemoryStore keeps manuals in process memory for tests and single-node
// runs without a database.
type InMemoryStore struct {
	mu      sync.RWMutex
	manuals map[id.ManualID]Manual
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{manuals: make(map[id.ManualID]Manual)}
}

func (s *InMemoryStore) Create(_ context.Context, manual Manual) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.manuals[manual.ID]; exists {
		return sentinel.ErrConflict
	}
	s.manuals[manual.ID] = manual
	return nil
}

func (s *InMemoryStore) GetByID(_ context.Context, manualID id.ManualID) (Manual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	manual, ok := s.manuals[manualID]
	if !ok {
		return Manual{}, sentinel.ErrNotFound
	}
	return manual, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Manual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Manual, 0, len(s.manuals))
	for _, manual := range s.manuals {
		out = append(out, manual)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
