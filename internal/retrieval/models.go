// Package retrieval indexes brand-manual text as embedded chunks and serves
// scoped nearest-neighbor lookups for grounding generation and audits.
package retrieval

import (
	id "brandgov/pkg/domain"
)

// Chunk is one indexed slice of a manual. Chunks for a manual are contiguous
// by ChunkIndex starting at zero.
type Chunk struct {
	ID         id.ChunkID
	ManualID   id.ManualID
	ChunkIndex int
	Text       string
	Embedding  []float32
}
