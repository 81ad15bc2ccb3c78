package retrieval

import (
	"context"
	"sort"
	"sync"

	id "brandgov/pkg/domain"
)

// InMemoryStore keeps chunks in process memory. It deliberately does not
// implement VectorSearcher, so retrieval against it exercises the
// brute-force ranking path.
type InMemoryStore struct {
	mu     sync.RWMutex
	chunks map[id.ManualID][]Chunk
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{chunks: make(map[id.ManualID][]Chunk)}
}

func (s *InMemoryStore) InsertChunks(_ context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	touched := make(map[id.ManualID]struct{})
	for _, chunk := range chunks {
		s.chunks[chunk.ManualID] = append(s.chunks[chunk.ManualID], chunk)
		touched[chunk.ManualID] = struct{}{}
	}
	for manualID := range touched {
		stored := s.chunks[manualID]
		sort.SliceStable(stored, func(i, j int) bool {
			return stored[i].ChunkIndex < stored[j].ChunkIndex
		})
	}
	return nil
}

func (s *InMemoryStore) ListByManual(_ context.Context, manualID id.ManualID) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.chunks[manualID]
	out := make([]Chunk, len(stored))
	copy(out, stored)
	return out, nil
}
