package httptransport

import (
	"context"

	id "brandgov/pkg/domain"

	"brandgov/internal/assets"
	"brandgov/internal/governance"
	"brandgov/internal/journal"
	"brandgov/internal/manuals"
)

// ManualsService is the manuals surface the HTTP layer needs.
type ManualsService interface {
	Create(ctx context.Context, req manuals.CreateRequest) (manuals.Manual, error)
	Get(ctx context.Context, manualID id.ManualID) (manuals.Manual, error)
	List(ctx context.Context) ([]manuals.Manual, error)
}

// AssetsService is the asset generation and read surface.
type AssetsService interface {
	Generate(ctx context.Context, req assets.GenerateRequest) (assets.Asset, []string, error)
	Get(ctx context.Context, assetID id.AssetID) (assets.Asset, error)
	List(ctx context.Context, filter assets.ListFilter) ([]assets.Asset, error)
	History(ctx context.Context, typeFilter *assets.AssetType) ([]assets.HistoryItem, error)
	Journey(ctx context.Context, assetID id.AssetID) (assets.HistoryItem, []journal.Event, error)
}

// GovernanceService is the review and audit surface.
type GovernanceService interface {
	ReviewStageA(ctx context.Context, assetID id.AssetID, decision governance.Decision) (assets.Asset, error)
	ReviewStageB(ctx context.Context, assetID id.AssetID, decision governance.Decision) (assets.Asset, error)
	AuditWithImage(ctx context.Context, req governance.AuditRequest) (governance.MultimodalAudit, error)
	ListAudits(ctx context.Context, assetID id.AssetID) ([]governance.MultimodalAudit, error)
}
