//go:build integration

package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	id "brandgov/pkg/domain"
	"brandgov/pkg/testutil/containers"

	"brandgov/internal/platform/postgres"
)

// seedChunks builds a deterministic corpus whose nearest-neighbor order is
// obvious by construction.
func seedChunks(manualID id.ManualID) []Chunk {
	return []Chunk{
		{ID: id.NewChunkID(), ManualID: manualID, ChunkIndex: 0, Text: "tone", Embedding: []float32{1, 0, 0}},
		{ID: id.NewChunkID(), ManualID: manualID, ChunkIndex: 1, Text: "voice", Embedding: []float32{0.9, 0.1, 0}},
		{ID: id.NewChunkID(), ManualID: manualID, ChunkIndex: 2, Text: "palette", Embedding: []float32{0, 1, 0}},
		{ID: id.NewChunkID(), ManualID: manualID, ChunkIndex: 3, Text: "legal", Embedding: []float32{0, 0, 1}},
	}
}

func TestPostgresStore_NativeSearchMatchesBruteForce(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	ctx := context.Background()
	require.NoError(t, postgres.EnsureSchema(ctx, pc.DB))

	pgStore := NewPostgres(pc.DB)
	memStore := NewInMemoryStore()

	manualID := id.NewManualID()
	chunks := seedChunks(manualID)
	require.NoError(t, pgStore.InsertChunks(ctx, chunks))
	require.NoError(t, memStore.InsertChunks(ctx, chunks))

	// Other-manual chunks must never leak into scoped results.
	otherManual := id.NewManualID()
	require.NoError(t, pgStore.InsertChunks(ctx, []Chunk{
		{ID: id.NewChunkID(), ManualID: otherManual, ChunkIndex: 0, Text: "intruder", Embedding: []float32{1, 0, 0}},
	}))

	query := []float32{1, 0.05, 0}

	native, err := pgStore.SearchNearest(ctx, manualID, query, 3)
	require.NoError(t, err)

	embedder := &staticEmbedder{vector: query}
	svc, err := New(memStore, embedder)
	require.NoError(t, err)
	fallback, err := svc.Retrieve(ctx, manualID, "anything", 3)
	require.NoError(t, err)

	require.Len(t, native, 3)
	require.Len(t, fallback, 3)
	for i, chunk := range native {
		require.Equal(t, fallback[i], chunk.Text, "rank %d diverged between native and brute-force", i)
	}
	require.Equal(t, "tone", native[0].Text)
	for _, chunk := range native {
		require.NotEqual(t, "intruder", chunk.Text)
	}
}

func TestPostgresStore_ListByManualOrdersByIndex(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	ctx := context.Background()
	require.NoError(t, postgres.EnsureSchema(ctx, pc.DB))

	store := NewPostgres(pc.DB)
	manualID := id.NewManualID()
	chunks := seedChunks(manualID)
	// Insert out of order; reads must still come back by chunk index.
	require.NoError(t, store.InsertChunks(ctx, []Chunk{chunks[2], chunks[0], chunks[3], chunks[1]}))

	got, err := store.ListByManual(ctx, manualID)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i, chunk := range got {
		require.Equal(t, i, chunk.ChunkIndex)
		require.InDeltaSlice(t, chunks[i].Embedding, chunk.Embedding, 1e-6)
	}
}

type staticEmbedder struct {
	vector []float32
}

func (s *staticEmbedder) Embed(context.Context, string) ([]float32, error) {
	return s.vector, nil
}
