package retrieval

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	id "brandgov/pkg/domain"
	txcontext "brandgov/pkg/platform/tx"
)

// PostgresStore persists chunks in the manual_chunks table with a pgvector
// embedding column. It implements VectorSearcher, so retrieval against it
// uses the database's native cosine-distance ordering.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) runner(ctx context.Context) dbRunner {
	if sqlTx, ok := txcontext.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

func (s *PostgresStore) InsertChunks(ctx context.Context, chunks []Chunk) error {
	run := s.runner(ctx)
	for _, chunk := range chunks {
		_, err := run.ExecContext(ctx, `
			INSERT INTO manual_chunks (id, manual_id, chunk_index, chunk_text, embedding)
			VALUES ($1, $2, $3, $4, $5::vector)`,
			chunk.ID.String(),
			chunk.ManualID.String(),
			chunk.ChunkIndex,
			chunk.Text,
			formatVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("insert chunk %d for manual %s: %w", chunk.ChunkIndex, chunk.ManualID, err)
		}
	}
	return nil
}

func (s *PostgresStore) ListByManual(ctx context.Context, manualID id.ManualID) ([]Chunk, error) {
	rows, err := s.runner(ctx).QueryContext(ctx, `
		SELECT id, manual_id, chunk_index, chunk_text, embedding
		FROM manual_chunks
		WHERE manual_id = $1
		ORDER BY chunk_index ASC`,
		manualID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list chunks for manual %s: %w", manualID, err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// SearchNearest delegates ranking to pgvector's cosine-distance operator.
func (s *PostgresStore) SearchNearest(ctx context.Context, manualID id.ManualID, query []float32, limit int) ([]Chunk, error) {
	rows, err := s.runner(ctx).QueryContext(ctx, `
		SELECT id, manual_id, chunk_index, chunk_text, embedding
		FROM manual_chunks
		WHERE manual_id = $1
		ORDER BY embedding <=> $2::vector
		LIMIT $3`,
		manualID.String(),
		formatVector(query),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search chunks for manual %s: %w", manualID, err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func scanChunks(rows *sql.Rows) ([]Chunk, error) {
	var chunks []Chunk
	for rows.Next() {
		var (
			chunk             Chunk
			chunkID, manualID string
			embedding         string
		)
		if err := rows.Scan(&chunkID, &manualID, &chunk.ChunkIndex, &chunk.Text, &embedding); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		parsedChunkID, err := id.ParseChunkID(chunkID)
		if err != nil {
			return nil, err
		}
		parsedManualID, err := id.ParseManualID(manualID)
		if err != nil {
			return nil, err
		}
		vector, err := parseVector(embedding)
		if err != nil {
			return nil, err
		}
		chunk.ID = parsedChunkID
		chunk.ManualID = parsedManualID
		chunk.Embedding = vector
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// formatVector renders an embedding as a pgvector literal, e.g. "[1,0.5,0]".
func formatVector(vector []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func parseVector(literal string) ([]float32, error) {
	trimmed := strings.TrimSpace(literal)
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return nil, fmt.Errorf("malformed vector literal %q", literal)
	}
	body := trimmed[1 : len(trimmed)-1]
	if body == "" {
		return nil, nil
	}
	fields := strings.Split(body, ",")
	vector := make([]float32, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
		if err != nil {
			return nil, fmt.Errorf("malformed vector component %q: %w", field, err)
		}
		vector[i] = float32(v)
	}
	return vector, nil
}
