package governance

import (
	"context"
	"sort"
	"sync"

	id "brandgov/pkg/domain"
)

// InMemoryAuditStore keeps audits in process memory.
type InMemoryAuditStore struct {
	mu     sync.RWMutex
	audits map[id.AssetID][]MultimodalAudit
}

func NewInMemoryAuditStore() *InMemoryAuditStore {
	return &InMemoryAuditStore{audits: make(map[id.AssetID][]MultimodalAudit)}
}

func (s *InMemoryAuditStore) Create(_ context.Context, audit MultimodalAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits[audit.AssetID] = append(s.audits[audit.AssetID], audit)
	return nil
}

func (s *InMemoryAuditStore) ListByAsset(_ context.Context, assetID id.AssetID) ([]MultimodalAudit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.audits[assetID]
	out := make([]MultimodalAudit, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
