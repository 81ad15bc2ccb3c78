package retrieval

import (
	"context"

	id "brandgov/pkg/domain"
)

// Store persists indexed chunks.
type Store interface {
	// InsertChunks stores a batch of chunks for one manual.
	InsertChunks(ctx context.Context, chunks []Chunk) error
	// ListByManual returns all chunks for a manual in index order.
	ListByManual(ctx context.Context, manualID id.ManualID) ([]Chunk, error)
}

// VectorSearcher is the optional fast path a Store may implement when the
// backend has a native nearest-neighbor index. The service falls back to
// brute-force ranking over ListByManual otherwise; both paths must produce
// the same ordering for the same data.
type VectorSearcher interface {
	// SearchNearest returns up to limit chunks for the manual ordered by
	// ascending cosine distance to the query embedding.
	SearchNearest(ctx context.Context, manualID id.ManualID, query []float32, limit int) ([]Chunk, error)
}
