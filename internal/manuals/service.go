package manuals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	id "brandgov/pkg/domain"
	dErrors "brandgov/pkg/domain-errors"
	txcontext "brandgov/pkg/platform/tx"
	"brandgov/pkg/requestcontext"

	"brandgov/internal/genai"
	"brandgov/internal/platform/tracing"
)

const (
	// manualSectionSeparator is both the markdown heading marker and the
	// chunking separator used when the manual is indexed.
	manualSectionSeparator = "##"

	manualTemperature = 0.2
)

// Indexer makes a manual's text retrievable. Satisfied by retrieval.Service.
type Indexer interface {
	Index(ctx context.Context, manualID id.ManualID, content, separator string, maxChars int) error
}

// Service generates brand manuals and indexes them for retrieval in the same
// transactional unit, so a manual is never visible without its chunks.
type Service struct {
	store         Store
	generator     genai.Generator
	indexer       Indexer
	runner        txcontext.Runner
	logger        *slog.Logger
	tracer        *tracing.Tracer
	maxChunkChars int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(t *tracing.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func WithMaxChunkChars(n int) Option {
	return func(s *Service) { s.maxChunkChars = n }
}

func New(store Store, generator genai.Generator, indexer Indexer, runner txcontext.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "manuals: store is required")
	}
	if generator == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "manuals: generator is required")
	}
	if indexer == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "manuals: indexer is required")
	}
	if runner == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "manuals: tx runner is required")
	}
	s := &Service{
		store:     store,
		generator: generator,
		indexer:   indexer,
		runner:    runner,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// manualSchema is the shape the model is asked to return.
type manualSchema struct {
	Sections []manualSection `json:"sections"`
}

type manualSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Create generates a manual from the request, renders it to markdown, and
// stores it together with its retrieval index. The model call happens before
// the transaction opens; a failure there leaves no partial state behind.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Manual, error) {
	ctx, span := s.tracer.Start(ctx, "manuals.Create",
		attribute.String("product_name", req.ProductName))
	defer span.End()

	if req.ProductName == "" || req.Tone == "" || req.Audience == "" {
		return Manual{}, dErrors.New(dErrors.CodeInvalidInput, "manuals: product_name, tone, and audience are required")
	}

	raw, err := s.generator.GenerateText(ctx, genai.TextPrompt{
		System:      manualSystemPrompt,
		User:        buildManualPrompt(req),
		Temperature: manualTemperature,
		ForceJSON:   true,
	})
	if err != nil {
		span.RecordError(err)
		return Manual{}, err
	}

	markdown, err := renderManualMarkdown(raw)
	if err != nil {
		span.RecordError(err)
		return Manual{}, err
	}

	rawInput, err := json.Marshal(req)
	if err != nil {
		return Manual{}, fmt.Errorf("encode manual input: %w", err)
	}

	manual := Manual{
		ID:             id.NewManualID(),
		ProductName:    req.ProductName,
		Tone:           req.Tone,
		Audience:       req.Audience,
		RawInput:       string(rawInput),
		ManualMarkdown: markdown,
		CreatedBy:      requestcontext.ActorID(ctx),
		CreatedAt:      requestcontext.Now(ctx),
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, manual); err != nil {
			return err
		}
		return s.indexer.Index(ctx, manual.ID, manual.ManualMarkdown, manualSectionSeparator, s.maxChunkChars)
	})
	if err != nil {
		span.RecordError(err)
		return Manual{}, err
	}

	span.Annotate(attribute.String("manual_id", manual.ID.String()))
	s.logger.Info("brand manual created",
		"manual_id", manual.ID,
		"product_name", manual.ProductName)
	return manual, nil
}

// Get returns one manual.
func (s *Service) Get(ctx context.Context, manualID id.ManualID) (Manual, error) {
	manual, err := s.store.GetByID(ctx, manualID)
	if err != nil {
		return Manual{}, dErrors.Wrap(err, dErrors.CodeNotFound, "manual not found")
	}
	return manual, nil
}

// List returns all manuals, newest first.
func (s *Service) List(ctx context.Context) ([]Manual, error) {
	return s.store.List(ctx)
}

const manualSystemPrompt = "You are a senior brand strategist. You produce concrete, measurable guidelines free of contradictions."

func buildManualPrompt(req CreateRequest) string {
	extra := req.ExtraContext
	if extra == "" {
		extra = "None"
	}
	return fmt.Sprintf(
		"Generate a structured, actionable brand manual for the creative team. "+
			"Respond with valid JSON matching the schema: an object with a \"sections\" array "+
			"whose items have \"title\" and \"content\" strings. "+
			"Every section must be concrete and free of contradictions.\n\n"+
			"Required sections (use these exact titles):\n"+
			"1) Brand essence\n"+
			"2) Voice and tone\n"+
			"3) Language do/don't\n"+
			"4) Visual rules\n"+
			"5) Compliance rules\n\n"+
			"Product: %s\nTone: %s\nAudience: %s\nExtra context: %s",
		req.ProductName, req.Tone, req.Audience, extra,
	)
}

// renderManualMarkdown turns the model's sections payload into the canonical
// markdown form. Sections with a blank title or content are skipped.
func renderManualMarkdown(raw string) (string, error) {
	var parsed manualSchema
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadGateway, "manuals: model returned an invalid sections payload")
	}

	var parts []string
	for _, section := range parsed.Sections {
		title := strings.TrimSpace(section.Title)
		content := strings.TrimSpace(section.Content)
		if title == "" || content == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s\n%s", manualSectionSeparator, title, content))
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n")), nil
}
