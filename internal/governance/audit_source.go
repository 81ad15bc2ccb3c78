package governance

import (
	"context"

	id "brandgov/pkg/domain"

	"brandgov/internal/assets"
)

// LatestAuditSource adapts the audit store to the assets history view, which
// only wants the newest verdict per asset.
type LatestAuditSource struct {
	Store AuditStore
}

func (l LatestAuditSource) LatestByAsset(ctx context.Context, assetID id.AssetID) (*assets.AuditSummary, error) {
	audits, err := l.Store.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if len(audits) == 0 {
		return nil, nil
	}
	latest := audits[0]
	return &assets.AuditSummary{
		Verdict:     string(latest.Verdict),
		Explanation: latest.Explanation,
		Confidence:  latest.Confidence,
		CreatedAt:   latest.CreatedAt,
	}, nil
}
