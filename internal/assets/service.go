package assets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	id "brandgov/pkg/domain"
	dErrors "brandgov/pkg/domain-errors"
	txcontext "brandgov/pkg/platform/tx"
	"brandgov/pkg/requestcontext"

	"brandgov/internal/genai"
	"brandgov/internal/journal"
	"brandgov/internal/manuals"
	"brandgov/internal/platform/tracing"
	"brandgov/internal/workflow"
)

const (
	generationTemperature = 0.45

	// defaultGenerateTopK chunks are retrieved for grounding; only the
	// nearest promptContextChunks of them go into the prompt. The full set
	// is returned to the caller for transparency.
	defaultGenerateTopK = 10
	promptContextChunks = 4
)

// ManualSource resolves the manual an asset is grounded on. Satisfied by
// manuals.Service.
type ManualSource interface {
	Get(ctx context.Context, manualID id.ManualID) (manuals.Manual, error)
}

// Retriever serves scoped nearest-neighbor context. Satisfied by
// retrieval.Service.
type Retriever interface {
	Retrieve(ctx context.Context, manualID id.ManualID, query string, topK int) ([]string, error)
}

// AuditSource reports the newest multimodal audit for an asset. Satisfied by
// an adapter over the governance audit store; nil disables audit columns in
// history output.
type AuditSource interface {
	LatestByAsset(ctx context.Context, assetID id.AssetID) (*AuditSummary, error)
}

// Service generates assets and serves their read models.
type Service struct {
	store     Store
	manuals   ManualSource
	retriever Retriever
	generator genai.Generator
	journal   *journal.Service
	runner    txcontext.Runner
	audits    AuditSource
	logger    *slog.Logger
	tracer    *tracing.Tracer
	topK      int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(t *tracing.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func WithAuditSource(audits AuditSource) Option {
	return func(s *Service) { s.audits = audits }
}

func WithGenerateTopK(topK int) Option {
	return func(s *Service) {
		if topK > 0 {
			s.topK = topK
		}
	}
}

func New(store Store, manualSource ManualSource, retriever Retriever, generator genai.Generator, journalService *journal.Service, runner txcontext.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "assets: store is required")
	}
	if manualSource == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "assets: manual source is required")
	}
	if retriever == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "assets: retriever is required")
	}
	if generator == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "assets: generator is required")
	}
	if journalService == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "assets: journal is required")
	}
	if runner == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "assets: tx runner is required")
	}
	s := &Service{
		store:     store,
		manuals:   manualSource,
		retriever: retriever,
		generator: generator,
		journal:   journalService,
		runner:    runner,
		logger:    slog.Default(),
		topK:      defaultGenerateTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Generate creates a new asset: retrieve manual context, generate the text,
// then persist the asset with its creation event atomically. The new asset
// always enters the workflow at stage A. The retrieved context is returned
// alongside the asset so callers can show what grounded the generation.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (Asset, []string, error) {
	ctx, span := s.tracer.Start(ctx, "assets.Generate",
		attribute.String("manual_id", req.ManualID.String()),
		attribute.String("asset_type", string(req.Type)))
	defer span.End()

	if req.Brief == "" {
		return Asset{}, nil, dErrors.New(dErrors.CodeInvalidInput, "assets: brief is required")
	}
	if _, err := ParseAssetType(string(req.Type)); err != nil {
		return Asset{}, nil, err
	}

	manual, err := s.manuals.Get(ctx, req.ManualID)
	if err != nil {
		span.RecordError(err)
		return Asset{}, nil, err
	}

	ragQuery := fmt.Sprintf(
		"Brief: %s\nAsset type: %s\nProduct: %s\nTone: %s\nAudience: %s",
		req.Brief, req.Type, manual.ProductName, manual.Tone, manual.Audience,
	)
	ragContext, err := s.retriever.Retrieve(ctx, req.ManualID, ragQuery, s.topK)
	if err != nil {
		span.RecordError(err)
		return Asset{}, nil, err
	}

	generated, err := s.generator.GenerateText(ctx, genai.TextPrompt{
		System:      creativeSystemPrompt,
		User:        buildCreativePrompt(req.Type, req.Brief, ragContext),
		Temperature: generationTemperature,
	})
	if err != nil {
		span.RecordError(err)
		return Asset{}, nil, err
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.ActorID(ctx)
	asset := Asset{
		ID:            id.NewAssetID(),
		ManualID:      req.ManualID,
		CreatedBy:     actor,
		Type:          req.Type,
		Brief:         req.Brief,
		GeneratedText: generated,
		Status:        workflow.StatusPendingA,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var created journal.Event
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, asset); err != nil {
			return err
		}
		created, err = s.journal.Append(ctx, journal.Event{
			AssetID:  asset.ID,
			ActorID:  &actor,
			Type:     journal.EventAssetCreated,
			ToStatus: workflow.StatusPendingA,
			Note:     "Asset created and sent to stage A review",
			Payload: journal.CreationPayload{
				ManualID:  req.ManualID.String(),
				AssetType: string(req.Type),
			},
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return Asset{}, nil, err
	}
	s.journal.Publish(ctx, created)

	span.Annotate(attribute.String("asset_id", asset.ID.String()))
	s.logger.Info("creative asset generated",
		"asset_id", asset.ID,
		"manual_id", asset.ManualID,
		"asset_type", asset.Type)
	return asset, ragContext, nil
}

// Get returns one asset.
func (s *Service) Get(ctx context.Context, assetID id.AssetID) (Asset, error) {
	asset, err := s.store.GetByID(ctx, assetID)
	if err != nil {
		return Asset{}, dErrors.Wrap(err, dErrors.CodeNotFound, "asset not found")
	}
	return asset, nil
}

// List returns assets matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Asset, error) {
	return s.store.List(ctx, filter)
}

// History returns assets joined with their manual context and latest audit
// outcome, newest first.
func (s *Service) History(ctx context.Context, typeFilter *AssetType) ([]HistoryItem, error) {
	found, err := s.store.List(ctx, ListFilter{Type: typeFilter})
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(found))
	for _, asset := range found {
		item, err := s.buildHistoryItem(ctx, asset)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Journey returns an asset's history row together with its full audit trail.
// Assets that predate journaling get a single synthesized creation event.
func (s *Service) Journey(ctx context.Context, assetID id.AssetID) (HistoryItem, []journal.Event, error) {
	asset, err := s.Get(ctx, assetID)
	if err != nil {
		return HistoryItem{}, nil, err
	}

	item, err := s.buildHistoryItem(ctx, asset)
	if err != nil {
		return HistoryItem{}, nil, err
	}

	events, err := s.journal.Journey(ctx, journal.JourneySubject{
		AssetID:   asset.ID,
		Status:    asset.Status,
		CreatedBy: asset.CreatedBy,
		CreatedAt: asset.CreatedAt,
	})
	if err != nil {
		return HistoryItem{}, nil, err
	}
	return item, events, nil
}

func (s *Service) buildHistoryItem(ctx context.Context, asset Asset) (HistoryItem, error) {
	item := HistoryItem{Asset: asset}

	manual, err := s.manuals.Get(ctx, asset.ManualID)
	if err != nil {
		return HistoryItem{}, err
	}
	item.ManualProductName = manual.ProductName
	item.ManualMarkdown = manual.ManualMarkdown

	if s.audits != nil {
		latest, err := s.audits.LatestByAsset(ctx, asset.ID)
		if err != nil {
			return HistoryItem{}, err
		}
		item.LatestAudit = latest
	}
	return item, nil
}

const creativeSystemPrompt = "You are a senior copywriter focused on performance and brand consistency."

var taskByType = map[AssetType]string{
	TypeProductDescription: "Write a product description ready for e-commerce.",
	TypeVideoScript:        "Write a short vertical video script (30-45s).",
	TypeImagePrompt:        "Write a hyper-clear image prompt for a visual generator.",
}

func buildCreativePrompt(assetType AssetType, brief string, contextChunks []string) string {
	if len(contextChunks) > promptContextChunks {
		contextChunks = contextChunks[:promptContextChunks]
	}
	return fmt.Sprintf(
		"Task: %s\nBrief: %s\n\n"+
			"Mandatory brand manual context (must be respected):\n%s\n\n"+
			"If there is a conflict, the manual's rules win.",
		taskByType[assetType], brief, strings.Join(contextChunks, "\n\n"),
	)
}
