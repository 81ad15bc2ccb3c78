package genai

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	embedCachePrefix = "brandgov:embed:"
	embedCacheTTL    = 24 * time.Hour
)

// CachedEmbedder caches embeddings in Redis keyed by the SHA-256 of the
// input text. Cache failures degrade to the wrapped embedder; they never
// fail the request.
type CachedEmbedder struct {
	next   Embedder
	client redis.Cmdable
	logger *slog.Logger
}

// NewCachedEmbedder decorates next with a Redis cache. A nil client returns
// next unchanged so callers can wire the decorator unconditionally.
func NewCachedEmbedder(next Embedder, client redis.Cmdable, logger *slog.Logger) Embedder {
	if client == nil {
		return next
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEmbedder{next: next, client: client, logger: logger}
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := embedCacheKey(text)

	cached, err := e.client.Get(ctx, key).Bytes()
	if err == nil {
		if vector, ok := decodeVector(cached); ok {
			return vector, nil
		}
		// Corrupt entry; fall through and overwrite it.
	} else if err != redis.Nil {
		e.logger.Warn("embedding cache read failed", "error", err)
	}

	vector, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.client.Set(ctx, key, encodeVector(vector), embedCacheTTL).Err(); err != nil {
		e.logger.Warn("embedding cache write failed", "error", err)
	}
	return vector, nil
}

func embedCacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return embedCachePrefix + hex.EncodeToString(sum[:])
}

func encodeVector(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, bool) {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil, false
	}
	vector := make([]float32, len(buf)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vector, true
}
