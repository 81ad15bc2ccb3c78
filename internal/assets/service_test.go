package assets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "brandgov/pkg/domain"
	dErrors "brandgov/pkg/domain-errors"
	"brandgov/pkg/platform/sentinel"
	txcontext "brandgov/pkg/platform/tx"
	"brandgov/pkg/requestcontext"

	"brandgov/internal/genai"
	"brandgov/internal/journal"
	"brandgov/internal/manuals"
	"brandgov/internal/workflow"
)

type fakeManualSource struct {
	manuals map[id.ManualID]manuals.Manual
}

func (f *fakeManualSource) Get(_ context.Context, manualID id.ManualID) (manuals.Manual, error) {
	manual, ok := f.manuals[manualID]
	if !ok {
		return manuals.Manual{}, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "manual not found")
	}
	return manual, nil
}

type fakeRetriever struct {
	chunks []string
	err    error
	query  string
	topK   int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ id.ManualID, query string, topK int) ([]string, error) {
	f.query = query
	f.topK = topK
	return f.chunks, f.err
}

type fakeGenerator struct {
	response string
	err      error
	prompts  []genai.TextPrompt
}

func (g *fakeGenerator) GenerateText(_ context.Context, prompt genai.TextPrompt) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.response, g.err
}

func (g *fakeGenerator) GenerateMultimodal(context.Context, genai.ImagePrompt) (string, error) {
	return "", errors.New("not used")
}

type AssetsServiceSuite struct {
	suite.Suite
	store        *InMemoryStore
	journalStore *journal.InMemoryStore
	manualSource *fakeManualSource
	retriever    *fakeRetriever
	generator    *fakeGenerator
	service      *Service
	manualID     id.ManualID
}

func TestAssetsServiceSuite(t *testing.T) {
	suite.Run(t, new(AssetsServiceSuite))
}

func (s *AssetsServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.journalStore = journal.NewInMemoryStore()
	s.manualID = id.NewManualID()
	s.manualSource = &fakeManualSource{manuals: map[id.ManualID]manuals.Manual{
		s.manualID: {
			ID:             s.manualID,
			ProductName:    "Solar kettle",
			Tone:           "playful",
			Audience:       "outdoor enthusiasts",
			ManualMarkdown: "## Voice and tone\nDirect, warm.",
		},
	}}
	s.retriever = &fakeRetriever{chunks: []string{"c1", "c2", "c3", "c4", "c5", "c6"}}
	s.generator = &fakeGenerator{response: "A kettle that chases the sun."}

	journalService, err := journal.New(s.journalStore)
	s.Require().NoError(err)

	s.service, err = New(s.store, s.manualSource, s.retriever, s.generator, journalService, txcontext.NopRunner{})
	s.Require().NoError(err)
}

func (s *AssetsServiceSuite) actorContext() (context.Context, id.UserID) {
	actor := id.NewUserID()
	return requestcontext.WithActorID(context.Background(), actor), actor
}

func (s *AssetsServiceSuite) TestGenerate() {
	s.Run("new asset enters the workflow at stage A with a creation event", func() {
		ctx, actor := s.actorContext()

		asset, ragContext, err := s.service.Generate(ctx, GenerateRequest{
			ManualID: s.manualID,
			Type:     TypeProductDescription,
			Brief:    "launch copy",
		})
		s.Require().NoError(err)

		s.Equal(workflow.StatusPendingA, asset.Status)
		s.Equal(actor, asset.CreatedBy)
		s.Equal("A kettle that chases the sun.", asset.GeneratedText)
		s.Equal([]string{"c1", "c2", "c3", "c4", "c5", "c6"}, ragContext)

		stored, err := s.store.GetByID(ctx, asset.ID)
		s.Require().NoError(err)
		s.Equal(asset.ID, stored.ID)

		events, err := s.journalStore.ListByAsset(ctx, asset.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(journal.EventAssetCreated, events[0].Type)
		s.Nil(events[0].FromStatus)
		s.Equal(workflow.StatusPendingA, events[0].ToStatus)
		s.Equal(journal.CreationPayload{
			ManualID:  s.manualID.String(),
			AssetType: string(TypeProductDescription),
		}, events[0].Payload)
	})

	s.Run("retrieval query carries brief and manual traits", func() {
		ctx, _ := s.actorContext()

		_, _, err := s.service.Generate(ctx, GenerateRequest{
			ManualID: s.manualID,
			Type:     TypeVideoScript,
			Brief:    "teaser",
		})
		s.Require().NoError(err)

		s.Equal(defaultGenerateTopK, s.retriever.topK)
		s.Contains(s.retriever.query, "teaser")
		s.Contains(s.retriever.query, "Solar kettle")
		s.Contains(s.retriever.query, "playful")
	})

	s.Run("prompt uses only the nearest context chunks", func() {
		ctx, _ := s.actorContext()

		_, _, err := s.service.Generate(ctx, GenerateRequest{
			ManualID: s.manualID,
			Type:     TypeImagePrompt,
			Brief:    "hero shot",
		})
		s.Require().NoError(err)

		prompt := s.generator.prompts[len(s.generator.prompts)-1]
		s.Contains(prompt.User, "c4")
		s.NotContains(prompt.User, "c5")
		s.InDelta(0.45, float64(prompt.Temperature), 1e-6)
	})

	s.Run("unknown manual is not found", func() {
		ctx, _ := s.actorContext()

		_, _, err := s.service.Generate(ctx, GenerateRequest{
			ManualID: id.NewManualID(),
			Type:     TypeProductDescription,
			Brief:    "x",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("empty brief is rejected before any model call", func() {
		ctx, _ := s.actorContext()
		callsBefore := len(s.generator.prompts)

		_, _, err := s.service.Generate(ctx, GenerateRequest{
			ManualID: s.manualID,
			Type:     TypeProductDescription,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Len(s.generator.prompts, callsBefore)
	})

	s.Run("retrieval failure aborts generation", func() {
		ctx, _ := s.actorContext()
		s.retriever.err = errors.New("index unavailable")
		defer func() { s.retriever.err = nil }()

		_, _, err := s.service.Generate(ctx, GenerateRequest{
			ManualID: s.manualID,
			Type:     TypeProductDescription,
			Brief:    "x",
		})
		s.Require().Error(err)
	})
}

func (s *AssetsServiceSuite) TestList() {
	ctx, _ := s.actorContext()

	for _, assetType := range []AssetType{TypeProductDescription, TypeVideoScript} {
		_, _, err := s.service.Generate(ctx, GenerateRequest{
			ManualID: s.manualID,
			Type:     assetType,
			Brief:    "b",
		})
		s.Require().NoError(err)
	}

	s.Run("status filter", func() {
		pending := workflow.StatusPendingA
		listed, err := s.service.List(ctx, ListFilter{Status: &pending})
		s.Require().NoError(err)
		s.Len(listed, 2)

		approved := workflow.StatusApproved
		listed, err = s.service.List(ctx, ListFilter{Status: &approved})
		s.Require().NoError(err)
		s.Empty(listed)
	})

	s.Run("type filter", func() {
		video := TypeVideoScript
		listed, err := s.service.List(ctx, ListFilter{Type: &video})
		s.Require().NoError(err)
		s.Require().Len(listed, 1)
		s.Equal(TypeVideoScript, listed[0].Type)
	})
}

type fakeAuditSource struct {
	byAsset map[id.AssetID]*AuditSummary
}

func (f *fakeAuditSource) LatestByAsset(_ context.Context, assetID id.AssetID) (*AuditSummary, error) {
	return f.byAsset[assetID], nil
}

func (s *AssetsServiceSuite) TestHistory() {
	ctx, _ := s.actorContext()

	asset, _, err := s.service.Generate(ctx, GenerateRequest{
		ManualID: s.manualID,
		Type:     TypeProductDescription,
		Brief:    "b",
	})
	s.Require().NoError(err)

	audits := &fakeAuditSource{byAsset: map[id.AssetID]*AuditSummary{
		asset.ID: {Verdict: "fail", Explanation: "logo cropped", Confidence: 0.9, CreatedAt: time.Now()},
	}}
	WithAuditSource(audits)(s.service)

	items, err := s.service.History(ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal("Solar kettle", items[0].ManualProductName)
	s.Require().NotNil(items[0].LatestAudit)
	s.Equal("fail", items[0].LatestAudit.Verdict)
}

func (s *AssetsServiceSuite) TestJourney() {
	ctx, _ := s.actorContext()

	s.Run("asset with events returns the stored trail", func() {
		asset, _, err := s.service.Generate(ctx, GenerateRequest{
			ManualID: s.manualID,
			Type:     TypeProductDescription,
			Brief:    "b",
		})
		s.Require().NoError(err)

		item, events, err := s.service.Journey(ctx, asset.ID)
		s.Require().NoError(err)
		s.Equal(asset.ID, item.Asset.ID)
		s.Require().Len(events, 1)
		s.Equal(journal.EventAssetCreated, events[0].Type)
		s.False(events[0].Synthesized)
	})

	s.Run("asset created outside the journal gets a synthesized event", func() {
		legacy := Asset{
			ID:        id.NewAssetID(),
			ManualID:  s.manualID,
			CreatedBy: id.NewUserID(),
			Type:      TypeVideoScript,
			Brief:     "old",
			Status:    workflow.StatusApproved,
			CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		}
		s.Require().NoError(s.store.Create(ctx, legacy))

		_, events, err := s.service.Journey(ctx, legacy.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.True(events[0].Synthesized)
		s.Equal(workflow.StatusApproved, events[0].ToStatus)
	})

	s.Run("unknown asset is not found", func() {
		_, _, err := s.service.Journey(ctx, id.NewAssetID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
