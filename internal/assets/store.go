package assets

import (
	"context"
	"time"

	id "brandgov/pkg/domain"

	"brandgov/internal/workflow"
)

// Update is a compare-and-set workflow transition. The store applies it only
// while the asset still has status From; a concurrent decision that moved
// the asset first surfaces as sentinel.ErrConflict.
type Update struct {
	AssetID         id.AssetID
	From            workflow.Status
	To              workflow.Status
	ReviewerA       *id.UserID
	ReviewerB       *id.UserID
	RejectionReason *string
	ClearRejection  bool
	UpdatedAt       time.Time
}

// Store persists creative assets.
type Store interface {
	// Create stores a new asset.
	Create(ctx context.Context, asset Asset) error
	// GetByID returns an asset or sentinel.ErrNotFound.
	GetByID(ctx context.Context, assetID id.AssetID) (Asset, error)
	// List returns assets matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]Asset, error)
	// ApplyTransition performs a compare-and-set status update. Returns
	// sentinel.ErrNotFound for unknown assets and sentinel.ErrConflict when
	// the asset is no longer in the From status.
	ApplyTransition(ctx context.Context, update Update) error
}
