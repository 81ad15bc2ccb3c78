package manuals

import (
	"context"

	id "brandgov/pkg/domain"
)

// Store persists brand manuals.
type Store interface {
	// Create stores a new manual.
	Create(ctx context.Context, manual Manual) error
	// GetByID returns a manual or sentinel.ErrNotFound.
	GetByID(ctx context.Context, manualID id.ManualID) (Manual, error)
	// List returns all manuals, newest first.
	List(ctx context.Context) ([]Manual, error)
}
