package governance

import (
	"context"

	id "brandgov/pkg/domain"
)

// AuditStore persists multimodal audits.
type AuditStore interface {
	// Create stores a new audit record.
	Create(ctx context.Context, audit MultimodalAudit) error
	// ListByAsset returns an asset's audits, newest first.
	ListByAsset(ctx context.Context, assetID id.AssetID) ([]MultimodalAudit, error)
}
