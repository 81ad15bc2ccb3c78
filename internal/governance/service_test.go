package governance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "brandgov/pkg/domain"
	dErrors "brandgov/pkg/domain-errors"
	txcontext "brandgov/pkg/platform/tx"
	"brandgov/pkg/requestcontext"

	"brandgov/internal/assets"
	"brandgov/internal/genai"
	"brandgov/internal/journal"
	"brandgov/internal/workflow"
)

type fakeRetriever struct {
	chunks []string
	err    error
	topK   int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ id.ManualID, _ string, topK int) ([]string, error) {
	f.topK = topK
	return f.chunks, f.err
}

type fakeGenerator struct {
	multimodalResponse string
	multimodalErr      error
	prompts            []genai.ImagePrompt
}

func (g *fakeGenerator) GenerateText(context.Context, genai.TextPrompt) (string, error) {
	return "", errors.New("not used")
}

func (g *fakeGenerator) GenerateMultimodal(_ context.Context, prompt genai.ImagePrompt) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.multimodalResponse, g.multimodalErr
}

type fakeImageStore struct {
	keys []string
	url  string
	err  error
}

func (f *fakeImageStore) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	f.keys = append(f.keys, key)
	return f.url, f.err
}

type GovernanceServiceSuite struct {
	suite.Suite
	assetStore   *assets.InMemoryStore
	auditStore   *InMemoryAuditStore
	journalStore *journal.InMemoryStore
	retriever    *fakeRetriever
	generator    *fakeGenerator
	service      *Service
}

func TestGovernanceServiceSuite(t *testing.T) {
	suite.Run(t, new(GovernanceServiceSuite))
}

func (s *GovernanceServiceSuite) SetupTest() {
	s.assetStore = assets.NewInMemoryStore()
	s.auditStore = NewInMemoryAuditStore()
	s.journalStore = journal.NewInMemoryStore()
	s.retriever = &fakeRetriever{chunks: []string{"logo rules", "palette rules"}}
	s.generator = &fakeGenerator{
		multimodalResponse: `{"verdict":"check","explanation":"on brand","confidence":0.9}`,
	}

	journalService, err := journal.New(s.journalStore)
	s.Require().NoError(err)

	s.service, err = New(s.assetStore, s.auditStore, s.retriever, s.generator, journalService, txcontext.NopRunner{})
	s.Require().NoError(err)
}

func (s *GovernanceServiceSuite) seedAsset(status workflow.Status) assets.Asset {
	now := time.Now().UTC()
	asset := assets.Asset{
		ID:            id.NewAssetID(),
		ManualID:      id.NewManualID(),
		CreatedBy:     id.NewUserID(),
		Type:          assets.TypeProductDescription,
		Brief:         "brief",
		GeneratedText: "copy",
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.Require().NoError(s.assetStore.Create(context.Background(), asset))
	return asset
}

func (s *GovernanceServiceSuite) actorContext() (context.Context, id.UserID) {
	actor := id.NewUserID()
	return requestcontext.WithActorID(context.Background(), actor), actor
}

func (s *GovernanceServiceSuite) TestReviewStageA() {
	s.Run("approval forwards to stage B", func() {
		asset := s.seedAsset(workflow.StatusPendingA)
		ctx, actor := s.actorContext()

		updated, err := s.service.ReviewStageA(ctx, asset.ID, Decision{Target: workflow.StatusPendingB})
		s.Require().NoError(err)
		s.Equal(workflow.StatusPendingB, updated.Status)
		s.Require().NotNil(updated.ReviewerA)
		s.Equal(actor, *updated.ReviewerA)

		stored, err := s.assetStore.GetByID(ctx, asset.ID)
		s.Require().NoError(err)
		s.Equal(workflow.StatusPendingB, stored.Status)

		events, err := s.journalStore.ListByAsset(ctx, asset.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(journal.EventReviewAApproved, events[0].Type)
		s.Require().NotNil(events[0].FromStatus)
		s.Equal(workflow.StatusPendingA, *events[0].FromStatus)
		s.Equal(workflow.StatusPendingB, events[0].ToStatus)
	})

	s.Run("rejection requires a reason", func() {
		asset := s.seedAsset(workflow.StatusPendingA)
		ctx, _ := s.actorContext()

		_, err := s.service.ReviewStageA(ctx, asset.ID, Decision{Target: workflow.StatusRejected})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeMissingRejectionReason))
	})

	s.Run("rejection with reason is terminal and journaled", func() {
		asset := s.seedAsset(workflow.StatusPendingA)
		ctx, _ := s.actorContext()

		updated, err := s.service.ReviewStageA(ctx, asset.ID, Decision{
			Target:          workflow.StatusRejected,
			RejectionReason: "off brand voice",
		})
		s.Require().NoError(err)
		s.Equal(workflow.StatusRejected, updated.Status)
		s.Require().NotNil(updated.RejectionReason)
		s.Equal("off brand voice", *updated.RejectionReason)

		events, err := s.journalStore.ListByAsset(ctx, asset.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(journal.EventReviewARejected, events[0].Type)
		s.Equal(journal.ReviewPayload{
			Decision:        string(workflow.StatusRejected),
			RejectionReason: "off brand voice",
		}, events[0].Payload)
	})

	s.Run("stage A cannot approve outright", func() {
		asset := s.seedAsset(workflow.StatusPendingA)
		ctx, _ := s.actorContext()

		_, err := s.service.ReviewStageA(ctx, asset.ID, Decision{Target: workflow.StatusApproved})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidDecision))
	})

	s.Run("asset past stage A cannot be re-reviewed", func() {
		asset := s.seedAsset(workflow.StatusPendingB)
		ctx, _ := s.actorContext()

		_, err := s.service.ReviewStageA(ctx, asset.ID, Decision{Target: workflow.StatusPendingB})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("unknown asset is not found", func() {
		ctx, _ := s.actorContext()

		_, err := s.service.ReviewStageA(ctx, id.NewAssetID(), Decision{Target: workflow.StatusPendingB})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *GovernanceServiceSuite) TestReviewStageB() {
	s.Run("approval is terminal and clears the rejection reason", func() {
		asset := s.seedAsset(workflow.StatusPendingB)
		ctx, actor := s.actorContext()

		updated, err := s.service.ReviewStageB(ctx, asset.ID, Decision{Target: workflow.StatusApproved})
		s.Require().NoError(err)
		s.Equal(workflow.StatusApproved, updated.Status)
		s.Nil(updated.RejectionReason)
		s.Require().NotNil(updated.ReviewerB)
		s.Equal(actor, *updated.ReviewerB)

		events, err := s.journalStore.ListByAsset(ctx, asset.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(journal.EventReviewBApproved, events[0].Type)
	})

	s.Run("rejection without reason is allowed by default", func() {
		asset := s.seedAsset(workflow.StatusPendingB)
		ctx, _ := s.actorContext()

		updated, err := s.service.ReviewStageB(ctx, asset.ID, Decision{Target: workflow.StatusRejected})
		s.Require().NoError(err)
		s.Equal(workflow.StatusRejected, updated.Status)
	})

	s.Run("reason policy makes stage B rejections strict", func() {
		asset := s.seedAsset(workflow.StatusPendingB)
		ctx, _ := s.actorContext()
		WithRequireStageBReason(true)(s.service)
		defer WithRequireStageBReason(false)(s.service)

		_, err := s.service.ReviewStageB(ctx, asset.ID, Decision{Target: workflow.StatusRejected})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeMissingRejectionReason))
	})

	s.Run("stage B cannot send back to stage A", func() {
		asset := s.seedAsset(workflow.StatusPendingB)
		ctx, _ := s.actorContext()

		_, err := s.service.ReviewStageB(ctx, asset.ID, Decision{Target: workflow.StatusPendingB})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidDecision))
	})

	s.Run("terminal assets are immutable", func() {
		for _, status := range []workflow.Status{workflow.StatusApproved, workflow.StatusRejected} {
			asset := s.seedAsset(status)
			ctx, _ := s.actorContext()

			_, err := s.service.ReviewStageB(ctx, asset.ID, Decision{Target: workflow.StatusApproved})
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		}
	})
}

// staleReadStore serves a stale status on reads so the compare-and-set path
// can be exercised deterministically.
type staleReadStore struct {
	assets.Store
	stale assets.Asset
}

func (s *staleReadStore) GetByID(context.Context, id.AssetID) (assets.Asset, error) {
	return s.stale, nil
}

func (s *GovernanceServiceSuite) TestConcurrentDecisionConflicts() {
	asset := s.seedAsset(workflow.StatusPendingA)
	ctx, _ := s.actorContext()

	// Another reviewer moved the asset after our (stale) read.
	actor := id.NewUserID()
	s.Require().NoError(s.assetStore.ApplyTransition(ctx, assets.Update{
		AssetID:   asset.ID,
		From:      workflow.StatusPendingA,
		To:        workflow.StatusRejected,
		ReviewerA: &actor,
		UpdatedAt: time.Now(),
	}))

	journalService, err := journal.New(s.journalStore)
	s.Require().NoError(err)
	racing, err := New(&staleReadStore{Store: s.assetStore, stale: asset}, s.auditStore, s.retriever, s.generator, journalService, txcontext.NopRunner{})
	s.Require().NoError(err)

	_, err = racing.ReviewStageA(ctx, asset.ID, Decision{Target: workflow.StatusPendingB})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	// The losing decision left no journal event behind.
	events, err := s.journalStore.ListByAsset(ctx, asset.ID)
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *GovernanceServiceSuite) TestAuditWithImage() {
	image := []byte{0xff, 0xd8, 0xff}

	s.Run("check verdict is recorded without touching the status", func() {
		asset := s.seedAsset(workflow.StatusPendingB)
		ctx, actor := s.actorContext()

		audit, err := s.service.AuditWithImage(ctx, AuditRequest{
			AssetID:  asset.ID,
			Image:    image,
			MimeType: "image/png",
			Filename: "banner.png",
		})
		s.Require().NoError(err)
		s.Equal(VerdictCheck, audit.Verdict)
		s.Equal("on brand", audit.Explanation)
		s.InDelta(0.9, audit.Confidence, 1e-9)
		s.Equal(actor, audit.ApproverID)
		s.Equal("banner.png", audit.ImageRef)

		stored, err := s.assetStore.GetByID(ctx, asset.ID)
		s.Require().NoError(err)
		s.Equal(workflow.StatusPendingB, stored.Status)

		events, err := s.journalStore.ListByAsset(ctx, asset.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(journal.EventAuditCheck, events[0].Type)
		s.Require().NotNil(events[0].FromStatus)
		s.Equal(events[0].ToStatus, *events[0].FromStatus)

		listed, err := s.service.ListAudits(ctx, asset.ID)
		s.Require().NoError(err)
		s.Len(listed, 1)
	})

	s.Run("fail verdict journals an audit failure", func() {
		asset := s.seedAsset(workflow.StatusPendingB)
		ctx, _ := s.actorContext()
		s.generator.multimodalResponse = `{"verdict":"fail","explanation":"wrong palette","confidence":0.8}`

		audit, err := s.service.AuditWithImage(ctx, AuditRequest{AssetID: asset.ID, Image: image})
		s.Require().NoError(err)
		s.Equal(VerdictFail, audit.Verdict)

		events, err := s.journalStore.ListByAsset(ctx, asset.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(journal.EventAuditFail, events[0].Type)
	})

	s.Run("audit prompt is grounded on retrieved rules", func() {
		asset := s.seedAsset(workflow.StatusPendingB)
		ctx, _ := s.actorContext()

		_, err := s.service.AuditWithImage(ctx, AuditRequest{AssetID: asset.ID, Image: image})
		s.Require().NoError(err)

		s.Equal(defaultAuditTopK, s.retriever.topK)
		prompt := s.generator.prompts[len(s.generator.prompts)-1]
		s.Contains(prompt.User, "logo rules")
		s.Contains(prompt.User, "palette rules")
		s.True(prompt.ForceJSON)
		s.Equal("image/jpeg", prompt.MimeType)
	})

	s.Run("only pending_b assets can be audited", func() {
		for _, status := range []workflow.Status{workflow.StatusPendingA, workflow.StatusApproved, workflow.StatusRejected} {
			asset := s.seedAsset(status)
			ctx, _ := s.actorContext()

			_, err := s.service.AuditWithImage(ctx, AuditRequest{AssetID: asset.ID, Image: image})
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeWrongStage))
		}
	})

	s.Run("malformed model response persists nothing", func() {
		asset := s.seedAsset(workflow.StatusPendingB)
		ctx, _ := s.actorContext()
		valid := s.generator.multimodalResponse
		s.generator.multimodalResponse = "I think it looks fine"
		defer func() { s.generator.multimodalResponse = valid }()

		_, err := s.service.AuditWithImage(ctx, AuditRequest{AssetID: asset.ID, Image: image})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))

		listed, err := s.service.ListAudits(ctx, asset.ID)
		s.Require().NoError(err)
		s.Empty(listed)

		events, err := s.journalStore.ListByAsset(ctx, asset.ID)
		s.Require().NoError(err)
		s.Empty(events)
	})

	s.Run("empty image is rejected", func() {
		asset := s.seedAsset(workflow.StatusPendingB)
		ctx, _ := s.actorContext()

		_, err := s.service.AuditWithImage(ctx, AuditRequest{AssetID: asset.ID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("wired image store provides the durable reference", func() {
		asset := s.seedAsset(workflow.StatusPendingB)
		ctx, _ := s.actorContext()
		images := &fakeImageStore{url: "https://minio.local/audits/banner.png"}
		WithImageStore(images)(s.service)
		defer WithImageStore(nil)(s.service)

		audit, err := s.service.AuditWithImage(ctx, AuditRequest{
			AssetID:  asset.ID,
			Image:    image,
			Filename: "banner.png",
		})
		s.Require().NoError(err)
		s.Equal("https://minio.local/audits/banner.png", audit.ImageRef)
		s.Require().Len(images.keys, 1)
		s.Contains(images.keys[0], asset.ID.String())
	})

	s.Run("image upload failure keeps the audit with the label", func() {
		asset := s.seedAsset(workflow.StatusPendingB)
		ctx, _ := s.actorContext()
		WithImageStore(&fakeImageStore{err: errors.New("bucket gone")})(s.service)
		defer WithImageStore(nil)(s.service)

		audit, err := s.service.AuditWithImage(ctx, AuditRequest{
			AssetID:  asset.ID,
			Image:    image,
			Filename: "banner.png",
		})
		s.Require().NoError(err)
		s.Equal("banner.png", audit.ImageRef)
	})
}

// transitioningGenerator lands a stage-B decision while the model call is in
// flight, so the audit's commit unit sees an asset that already left stage B.
type transitioningGenerator struct {
	fakeGenerator
	store   *assets.InMemoryStore
	assetID id.AssetID
}

func (g *transitioningGenerator) GenerateMultimodal(ctx context.Context, prompt genai.ImagePrompt) (string, error) {
	reviewer := id.NewUserID()
	if err := g.store.ApplyTransition(ctx, assets.Update{
		AssetID:        g.assetID,
		From:           workflow.StatusPendingB,
		To:             workflow.StatusApproved,
		ReviewerB:      &reviewer,
		ClearRejection: true,
		UpdatedAt:      time.Now(),
	}); err != nil {
		return "", err
	}
	return g.fakeGenerator.GenerateMultimodal(ctx, prompt)
}

func (s *GovernanceServiceSuite) TestAuditRacesStageBDecision() {
	asset := s.seedAsset(workflow.StatusPendingB)
	ctx, _ := s.actorContext()

	generator := &transitioningGenerator{
		fakeGenerator: fakeGenerator{
			multimodalResponse: `{"verdict":"fail","explanation":"wrong palette","confidence":0.8}`,
		},
		store:   s.assetStore,
		assetID: asset.ID,
	}
	journalService, err := journal.New(s.journalStore)
	s.Require().NoError(err)
	racing, err := New(s.assetStore, s.auditStore, s.retriever, generator, journalService, txcontext.NopRunner{})
	s.Require().NoError(err)

	_, err = racing.AuditWithImage(ctx, AuditRequest{AssetID: asset.ID, Image: []byte{0x01}})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	// The approved asset carries neither an audit record nor audit events.
	listed, err := s.auditStore.ListByAsset(ctx, asset.ID)
	s.Require().NoError(err)
	s.Empty(listed)
	events, err := s.journalStore.ListByAsset(ctx, asset.ID)
	s.Require().NoError(err)
	s.Empty(events)

	stored, err := s.assetStore.GetByID(ctx, asset.ID)
	s.Require().NoError(err)
	s.Equal(workflow.StatusApproved, stored.Status)
}

// TestFullApprovalJourney walks one asset through both review stages with an
// audit in between and checks the journal tells the whole story in order.
func (s *GovernanceServiceSuite) TestFullApprovalJourney() {
	asset := s.seedAsset(workflow.StatusPendingA)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	ctxA, _ := s.actorContext()
	_, err := s.service.ReviewStageA(requestcontext.WithTime(ctxA, base), asset.ID, Decision{Target: workflow.StatusPendingB})
	s.Require().NoError(err)

	ctxAudit, _ := s.actorContext()
	_, err = s.service.AuditWithImage(requestcontext.WithTime(ctxAudit, base.Add(time.Minute)), AuditRequest{
		AssetID: asset.ID,
		Image:   []byte{0x01},
	})
	s.Require().NoError(err)

	ctxB, _ := s.actorContext()
	final, err := s.service.ReviewStageB(requestcontext.WithTime(ctxB, base.Add(2*time.Minute)), asset.ID, Decision{Target: workflow.StatusApproved})
	s.Require().NoError(err)
	s.Equal(workflow.StatusApproved, final.Status)

	events, err := s.journalStore.ListByAsset(context.Background(), asset.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal(journal.EventReviewAApproved, events[0].Type)
	s.Equal(journal.EventAuditCheck, events[1].Type)
	s.Equal(journal.EventReviewBApproved, events[2].Type)

	// Status lineage chains: each event starts where the previous ended.
	s.Equal(workflow.StatusPendingB, events[0].ToStatus)
	s.Equal(workflow.StatusPendingB, *events[1].FromStatus)
	s.Equal(workflow.StatusPendingB, events[1].ToStatus)
	s.Equal(workflow.StatusPendingB, *events[2].FromStatus)
	s.Equal(workflow.StatusApproved, events[2].ToStatus)
}
