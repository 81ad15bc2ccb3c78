package journal

import (
	"context"
	"sync"

	id "brandgov/pkg/domain"
)

// InMemoryStore keeps events per asset in insertion order. Insertion order
// and creation-time order coincide because appends happen inside the owning
// operation.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.AssetID][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.AssetID][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.AssetID] = append(s.events[event.AssetID], event)
	return nil
}

func (s *InMemoryStore) ListByAsset(_ context.Context, assetID id.AssetID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[assetID]...), nil
}
