package governance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	id "brandgov/pkg/domain"
	dErrors "brandgov/pkg/domain-errors"
	"brandgov/pkg/platform/sentinel"
	txcontext "brandgov/pkg/platform/tx"
	"brandgov/pkg/requestcontext"

	"brandgov/internal/assets"
	"brandgov/internal/genai"
	"brandgov/internal/governance/metrics"
	"brandgov/internal/journal"
	"brandgov/internal/platform/tracing"
	"brandgov/internal/workflow"
)

// defaultAuditTopK manual chunks ground the visual audit prompt.
const defaultAuditTopK = 8

// Retriever serves scoped nearest-neighbor context. Satisfied by
// retrieval.Service.
type Retriever interface {
	Retrieve(ctx context.Context, manualID id.ManualID, query string, topK int) ([]string, error)
}

// ImageStore persists the audited image and returns a durable reference.
// Satisfied by objectstore.Store; nil keeps only the upload's label.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Service enforces the two-stage review workflow and runs the multimodal
// audit gate.
type Service struct {
	assets    assets.Store
	audits    AuditStore
	retriever Retriever
	generator genai.Generator
	journal   *journal.Service
	runner    txcontext.Runner
	images    ImageStore
	logger    *slog.Logger
	tracer    *tracing.Tracer
	metrics   *metrics.Metrics

	requireStageBReason bool
	auditTopK           int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(t *tracing.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithImageStore(images ImageStore) Option {
	return func(s *Service) { s.images = images }
}

// WithRequireStageBReason makes stage-B rejections demand a rejection reason,
// the same rule stage A always has.
func WithRequireStageBReason(require bool) Option {
	return func(s *Service) { s.requireStageBReason = require }
}

func WithAuditTopK(topK int) Option {
	return func(s *Service) {
		if topK > 0 {
			s.auditTopK = topK
		}
	}
}

func New(assetStore assets.Store, auditStore AuditStore, retriever Retriever, generator genai.Generator, journalService *journal.Service, runner txcontext.Runner, opts ...Option) (*Service, error) {
	if assetStore == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "governance: asset store is required")
	}
	if auditStore == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "governance: audit store is required")
	}
	if retriever == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "governance: retriever is required")
	}
	if generator == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "governance: generator is required")
	}
	if journalService == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "governance: journal is required")
	}
	if runner == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "governance: tx runner is required")
	}
	s := &Service{
		assets:    assetStore,
		audits:    auditStore,
		retriever: retriever,
		generator: generator,
		journal:   journalService,
		runner:    runner,
		logger:    slog.Default(),
		auditTopK: defaultAuditTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ReviewStageA applies a stage-A decision: forward to stage B or reject.
// Rejections always require a reason at this stage.
func (s *Service) ReviewStageA(ctx context.Context, assetID id.AssetID, decision Decision) (assets.Asset, error) {
	if !workflow.DecisionAllowed(workflow.StageA, decision.Target) {
		return assets.Asset{}, dErrors.New(dErrors.CodeInvalidDecision, "stage A can only send to pending_b or rejected")
	}
	if decision.Target == workflow.StatusRejected && decision.RejectionReason == "" {
		return assets.Asset{}, dErrors.New(dErrors.CodeMissingRejectionReason, "rejection_reason required when rejecting")
	}

	eventType := journal.EventReviewAApproved
	note := "Stage A approved and sent to stage B"
	if decision.Target == workflow.StatusRejected {
		eventType = journal.EventReviewARejected
		note = "Stage A rejected: " + decision.RejectionReason
	}

	return s.applyReview(ctx, assetID, workflow.StageA, decision, eventType, note)
}

// ReviewStageB applies a stage-B decision: final approval or rejection.
// Whether a rejection reason is mandatory here is a policy knob.
func (s *Service) ReviewStageB(ctx context.Context, assetID id.AssetID, decision Decision) (assets.Asset, error) {
	if !workflow.DecisionAllowed(workflow.StageB, decision.Target) {
		return assets.Asset{}, dErrors.New(dErrors.CodeInvalidDecision, "stage B can only approve or reject")
	}
	if s.requireStageBReason && decision.Target == workflow.StatusRejected && decision.RejectionReason == "" {
		return assets.Asset{}, dErrors.New(dErrors.CodeMissingRejectionReason, "rejection_reason required when rejecting")
	}

	eventType := journal.EventReviewBApproved
	note := "Stage B approved the asset"
	if decision.Target == workflow.StatusRejected {
		eventType = journal.EventReviewBRejected
		note = "Stage B rejected: " + decision.RejectionReason
	}

	return s.applyReview(ctx, assetID, workflow.StageB, decision, eventType, note)
}

// applyReview validates the transition against the asset's current status,
// then commits the compare-and-set update and its journal event atomically.
// A concurrent decision that won the race surfaces as a conflict, never as a
// silent double transition.
func (s *Service) applyReview(ctx context.Context, assetID id.AssetID, stage workflow.Stage, decision Decision, eventType journal.EventType, note string) (assets.Asset, error) {
	ctx, span := s.tracer.Start(ctx, "governance.Review",
		attribute.String("asset_id", assetID.String()),
		attribute.String("stage", string(stage)),
		attribute.String("decision", string(decision.Target)))
	defer span.End()

	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		span.RecordError(err)
		return assets.Asset{}, dErrors.Wrap(err, dErrors.CodeNotFound, "asset not found")
	}

	if !workflow.CanTransition(asset.Status, decision.Target) {
		return assets.Asset{}, dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("invalid workflow transition %s -> %s", asset.Status, decision.Target))
	}

	actor := requestcontext.ActorID(ctx)
	now := requestcontext.Now(ctx)
	from := asset.Status

	update := assets.Update{
		AssetID:   assetID,
		From:      from,
		To:        decision.Target,
		UpdatedAt: now,
	}
	switch stage {
	case workflow.StageA:
		update.ReviewerA = &actor
	case workflow.StageB:
		update.ReviewerB = &actor
	}
	if decision.Target == workflow.StatusRejected {
		reason := decision.RejectionReason
		update.RejectionReason = &reason
	} else {
		update.ClearRejection = true
	}

	var event journal.Event
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.assets.ApplyTransition(ctx, update); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Wrap(err, dErrors.CodeConflict, "asset was already moved by another decision")
			}
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeNotFound, "asset not found")
			}
			return err
		}
		event, err = s.journal.Append(ctx, journal.Event{
			AssetID:    assetID,
			ActorID:    &actor,
			Type:       eventType,
			FromStatus: &from,
			ToStatus:   decision.Target,
			Note:       note,
			Payload: journal.ReviewPayload{
				Decision:        string(decision.Target),
				RejectionReason: decision.RejectionReason,
			},
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return assets.Asset{}, err
	}
	s.journal.Publish(ctx, event)

	asset.Status = decision.Target
	asset.UpdatedAt = now
	switch stage {
	case workflow.StageA:
		asset.ReviewerA = &actor
	case workflow.StageB:
		asset.ReviewerB = &actor
	}
	if update.RejectionReason != nil {
		asset.RejectionReason = update.RejectionReason
	} else {
		asset.RejectionReason = nil
	}

	s.metrics.IncrementReviewDecision(string(stage), string(decision.Target))
	s.logger.Info("review decision applied",
		"asset_id", assetID,
		"stage", stage,
		"from", from,
		"to", decision.Target)
	return asset, nil
}

// AuditWithImage runs the multimodal audit gate: retrieve the manual's
// visual rules, ask the vision model for a verdict on the image, and record
// the outcome. The audit is only available while the asset awaits stage B
// and never changes the asset's status; reviewers decide what to do with the
// verdict.
func (s *Service) AuditWithImage(ctx context.Context, req AuditRequest) (MultimodalAudit, error) {
	ctx, span := s.tracer.Start(ctx, "governance.AuditWithImage",
		attribute.String("asset_id", req.AssetID.String()))
	defer span.End()
	start := time.Now()

	if len(req.Image) == 0 {
		return MultimodalAudit{}, dErrors.New(dErrors.CodeInvalidInput, "image payload is empty")
	}

	asset, err := s.assets.GetByID(ctx, req.AssetID)
	if err != nil {
		span.RecordError(err)
		return MultimodalAudit{}, dErrors.Wrap(err, dErrors.CodeNotFound, "asset not found")
	}
	if asset.Status != workflow.StatusPendingB {
		return MultimodalAudit{}, dErrors.New(dErrors.CodeWrongStage, "asset must be pending_b before multimodal audit")
	}

	ragContext, err := s.retriever.Retrieve(ctx, asset.ManualID, auditQuery, s.auditTopK)
	if err != nil {
		span.RecordError(err)
		return MultimodalAudit{}, err
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	raw, err := s.generator.GenerateMultimodal(ctx, genai.ImagePrompt{
		System:    auditSystemPrompt,
		User:      buildAuditPrompt(ragContext),
		ImageData: req.Image,
		MimeType:  mimeType,
		ForceJSON: true,
	})
	if err != nil {
		span.RecordError(err)
		return MultimodalAudit{}, err
	}

	decision, err := ParseAuditDecision(raw)
	if err != nil {
		span.RecordError(err)
		return MultimodalAudit{}, err
	}

	actor := requestcontext.ActorID(ctx)
	now := requestcontext.Now(ctx)
	audit := MultimodalAudit{
		ID:          id.NewAuditID(),
		AssetID:     asset.ID,
		ApproverID:  actor,
		ImageRef:    s.storeImage(ctx, asset.ID, req, mimeType),
		Verdict:     decision.Verdict,
		Explanation: decision.Explanation,
		Confidence:  decision.Confidence,
		CreatedAt:   now,
	}

	eventType := journal.EventAuditCheck
	note := "Multimodal audit passed"
	if decision.Verdict == VerdictFail {
		eventType = journal.EventAuditFail
		note = "Multimodal audit failed"
	}

	status := asset.Status
	var event journal.Event
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		// Re-read inside the commit unit: a stage-B decision may have landed
		// while the model call was in flight, and the audit must not be
		// recorded against an asset that already left stage B.
		current, err := s.assets.GetByID(ctx, asset.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "asset not found")
		}
		if current.Status != workflow.StatusPendingB {
			return dErrors.New(dErrors.CodeConflict, "asset left stage B while the audit was running")
		}
		if err := s.audits.Create(ctx, audit); err != nil {
			return err
		}
		// The audit is advisory: from and to are the same status.
		event, err = s.journal.Append(ctx, journal.Event{
			AssetID:    asset.ID,
			ActorID:    &actor,
			Type:       eventType,
			FromStatus: &status,
			ToStatus:   status,
			Note:       note,
			Payload: journal.AuditPayload{
				AuditID:     audit.ID.String(),
				Verdict:     string(decision.Verdict),
				Confidence:  decision.Confidence,
				Explanation: decision.Explanation,
			},
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return MultimodalAudit{}, err
	}
	s.journal.Publish(ctx, event)

	s.metrics.IncrementAuditVerdict(string(decision.Verdict))
	s.metrics.ObserveAudit(time.Since(start))
	span.Annotate(
		attribute.String("verdict", string(decision.Verdict)),
		attribute.Float64("confidence", decision.Confidence))
	s.logger.Info("multimodal audit recorded",
		"asset_id", asset.ID,
		"audit_id", audit.ID,
		"verdict", decision.Verdict,
		"confidence", decision.Confidence)
	return audit, nil
}

// ListAudits returns an asset's audits, newest first.
func (s *Service) ListAudits(ctx context.Context, assetID id.AssetID) ([]MultimodalAudit, error) {
	return s.audits.ListByAsset(ctx, assetID)
}

// storeImage uploads the image when an object store is wired. Upload
// failures degrade to the label: losing the binary copy must not lose the
// audit itself.
func (s *Service) storeImage(ctx context.Context, assetID id.AssetID, req AuditRequest, mimeType string) string {
	label := req.Filename
	if label == "" {
		label = fmt.Sprintf("inline-%s.jpg", id.NewAuditID())
	}
	if s.images == nil {
		return label
	}

	key := path.Join("audits", assetID.String(), label)
	url, err := s.images.Put(ctx, key, req.Image, mimeType)
	if err != nil {
		s.logger.Warn("audit image upload failed, keeping label only",
			"asset_id", assetID,
			"error", err)
		return label
	}
	return url
}

const auditSystemPrompt = "You are a meticulous brand compliance auditor."

const auditQuery = "Visual identity and brand rules for auditing images: " +
	"logo, color palette, typography, photographic style, composition, " +
	"iconography use, visual prohibitions, and brand consistency."

func buildAuditPrompt(manualContext []string) string {
	return fmt.Sprintf(
		"Audit the image against the brand manual. Follow these instructions exactly:\n"+
			"1) Review logo, palette, typography, photographic style, composition, iconography, and prohibitions.\n"+
			"2) If anything fails, explain how to correct the image (what to change, remove, or adjust).\n"+
			"3) Return ONLY valid JSON with fields: verdict (\"check\" or \"fail\"), "+
			"explanation (string), confidence (number from 0 to 1).\n\n"+
			"Relevant manual rules:\n%s",
		strings.Join(manualContext, "\n\n"),
	)
}
