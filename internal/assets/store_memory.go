package assets

import (
	"context"
	"sort"
	"sync"

	id "brandgov/pkg/domain"
	"brandgov/pkg/platform/sentinel"
)

// InMemoryStore keeps assets in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	assets map[id.AssetID]Asset
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{assets: make(map[id.AssetID]Asset)}
}

func (s *InMemoryStore) Create(_ context.Context, asset Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.assets[asset.ID]; exists {
		return sentinel.ErrConflict
	}
	s.assets[asset.ID] = asset
	return nil
}

func (s *InMemoryStore) GetByID(_ context.Context, assetID id.AssetID) (Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asset, ok := s.assets[assetID]
	if !ok {
		return Asset{}, sentinel.ErrNotFound
	}
	return asset, nil
}

func (s *InMemoryStore) List(_ context.Context, filter ListFilter) ([]Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Asset, 0, len(s.assets))
	for _, asset := range s.assets {
		if filter.Status != nil && asset.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && asset.Type != *filter.Type {
			continue
		}
		out = append(out, asset)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) ApplyTransition(_ context.Context, update Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	asset, ok := s.assets[update.AssetID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if asset.Status != update.From {
		return sentinel.ErrConflict
	}

	asset.Status = update.To
	if update.ReviewerA != nil {
		asset.ReviewerA = update.ReviewerA
	}
	if update.ReviewerB != nil {
		asset.ReviewerB = update.ReviewerB
	}
	if update.RejectionReason != nil {
		asset.RejectionReason = update.RejectionReason
	} else if update.ClearRejection {
		asset.RejectionReason = nil
	}
	asset.UpdatedAt = update.UpdatedAt

	s.assets[update.AssetID] = asset
	return nil
}
