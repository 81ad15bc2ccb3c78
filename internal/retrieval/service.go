package retrieval

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	id "brandgov/pkg/domain"
	dErrors "brandgov/pkg/domain-errors"

	"brandgov/internal/genai"
	"brandgov/internal/platform/tracing"
	"brandgov/internal/retrieval/metrics"
)

// embedConcurrency bounds in-flight embedding requests during indexing.
const embedConcurrency = 4

// Service chunks, embeds, and retrieves manual content. Retrieval uses the
// store's native vector index when the store offers one and falls back to
// in-process ranking otherwise.
type Service struct {
	store    Store
	embedder genai.Embedder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   *tracing.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t *tracing.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func New(store Store, embedder genai.Embedder, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "retrieval: store is required")
	}
	if embedder == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "retrieval: embedder is required")
	}
	s := &Service{
		store:    store,
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Index splits content on separator, embeds every chunk, and stores the
// batch. Chunk indexes are contiguous from zero in source order. Embedding
// runs concurrently; any single failure aborts the whole batch so a manual
// is never half-indexed.
func (s *Service) Index(ctx context.Context, manualID id.ManualID, content, separator string, maxChars int) error {
	ctx, span := s.tracer.Start(ctx, "retrieval.Index",
		attribute.String("manual_id", manualID.String()))
	defer span.End()
	start := time.Now()

	texts := ChunkText(content, separator, maxChars)
	chunks := make([]Chunk, len(texts))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(embedConcurrency)
	for i, text := range texts {
		group.Go(func() error {
			embedding, err := s.embedder.Embed(groupCtx, text)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeBadGateway, "retrieval: embedding chunk failed")
			}
			chunks[i] = Chunk{
				ID:         id.NewChunkID(),
				ManualID:   manualID,
				ChunkIndex: i,
				Text:       text,
				Embedding:  embedding,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		span.RecordError(err)
		return err
	}

	if err := s.store.InsertChunks(ctx, chunks); err != nil {
		span.RecordError(err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "retrieval: storing chunks failed")
	}

	s.metrics.IncrementChunksIndexed(len(chunks))
	s.metrics.ObserveIndex(time.Since(start))
	s.logger.Info("manual indexed",
		"manual_id", manualID,
		"chunks", len(chunks))
	return nil
}

// Retrieve returns the texts of the topK chunks of the manual nearest to the
// query. An embedding failure is fatal; retrieval never degrades to keyword
// or random context. A manual with no chunks yields an empty result, not an
// error.
func (s *Service) Retrieve(ctx context.Context, manualID id.ManualID, query string, topK int) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "retrieval.Retrieve",
		attribute.String("manual_id", manualID.String()),
		attribute.Int("top_k", topK))
	defer span.End()
	start := time.Now()

	if topK <= 0 {
		return nil, nil
	}

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "retrieval: embedding query failed")
	}

	var (
		nearest []Chunk
		path    string
	)
	if searcher, ok := s.store.(VectorSearcher); ok {
		path = "native"
		nearest, err = searcher.SearchNearest(ctx, manualID, queryEmbedding, topK)
	} else {
		path = "fallback"
		nearest, err = s.bruteForceNearest(ctx, manualID, queryEmbedding, topK)
	}
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "retrieval: nearest-neighbor search failed")
	}

	texts := make([]string, 0, len(nearest))
	for _, chunk := range nearest {
		texts = append(texts, chunk.Text)
	}

	s.metrics.ObserveRetrieve(path, time.Since(start))
	span.Annotate(attribute.String("path", path), attribute.Int("results", len(texts)))
	if len(texts) == 0 {
		return nil, nil
	}
	return texts, nil
}

// bruteForceNearest ranks all of the manual's chunks in process. The sort is
// stable so ties keep index order, matching the deterministic ordering of
// the native path.
func (s *Service) bruteForceNearest(ctx context.Context, manualID id.ManualID, query []float32, topK int) ([]Chunk, error) {
	chunks, err := s.store.ListByManual(ctx, manualID)
	if err != nil {
		return nil, err
	}

	distances := make([]float64, len(chunks))
	for i, chunk := range chunks {
		distances[i] = cosineDistance(chunk.Embedding, query)
	}
	order := make([]int, len(chunks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return distances[order[a]] < distances[order[b]]
	})

	if topK > len(order) {
		topK = len(order)
	}
	nearest := make([]Chunk, 0, topK)
	for _, idx := range order[:topK] {
		nearest = append(nearest, chunks[idx])
	}
	return nearest, nil
}

// cosineDistance is 1 minus cosine similarity, accumulated in float64. A
// zero-norm vector contributes a norm of 1 instead of dividing by zero, so
// comparing anything against a zero vector gives distance 1.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	normA = math.Sqrt(normA)
	if normA == 0 {
		normA = 1
	}
	normB = math.Sqrt(normB)
	if normB == 0 {
		normB = 1
	}
	return 1 - dot/(normA*normB)
}
