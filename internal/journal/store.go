package journal

import (
	"context"

	id "brandgov/pkg/domain"
)

// Store persists journal events. Append is the only write; events are
// immutable after insertion and ListByAsset returns them in creation order.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAsset(ctx context.Context, assetID id.AssetID) ([]Event, error)
}
