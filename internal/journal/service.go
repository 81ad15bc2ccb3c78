package journal

import (
	"context"
	"log/slog"
	"time"

	id "brandgov/pkg/domain"
	dErrors "brandgov/pkg/domain-errors"
	"brandgov/pkg/requestcontext"

	"brandgov/internal/workflow"
)

// Service is the append-only journal API. Writes go to the store; an
// optional relay mirrors committed events to an external stream,
// best-effort.
type Service struct {
	store  Store
	relay  Relay
	logger *slog.Logger
}

type Option func(*Service)

func WithRelay(relay Relay) Option {
	return func(s *Service) {
		s.relay = relay
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "journal store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Append stamps and persists one event. Call inside the unit of work that
// performs the state change being recorded.
func (s *Service) Append(ctx context.Context, event Event) (Event, error) {
	if event.ID.IsNil() {
		event.ID = id.NewEventID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = requestcontext.Now(ctx)
	}
	if err := s.store.Append(ctx, event); err != nil {
		return Event{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append journey event")
	}
	return event, nil
}

// Publish mirrors already-committed events to the relay. Call after the unit
// of work commits; failures are logged and swallowed because the store is
// the source of truth.
func (s *Service) Publish(ctx context.Context, events ...Event) {
	if s.relay == nil {
		return
	}
	for _, event := range events {
		if err := s.relay.Publish(ctx, event); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "journal relay publish failed",
				"event_id", event.ID.String(),
				"asset_id", event.AssetID.String(),
				"event_type", string(event.Type),
				"error", err,
			)
		}
	}
}

// JourneySubject is the slice of an asset the journey view needs for legacy
// synthesis. Passing it in keeps the journal package independent of the
// asset model.
type JourneySubject struct {
	AssetID   id.AssetID
	Status    workflow.Status
	CreatedBy id.UserID
	CreatedAt time.Time
}

// Journey returns the asset's events in creation order. Assets recorded
// before journaling existed have no events; for those exactly one legacy
// creation event is synthesized so the journey view is never empty and
// always ends at the asset's current status.
func (s *Service) Journey(ctx context.Context, subject JourneySubject) ([]Event, error) {
	events, err := s.store.ListByAsset(ctx, subject.AssetID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load journey events")
	}
	if len(events) > 0 {
		return events, nil
	}

	creator := subject.CreatedBy
	return []Event{{
		ID:          id.NewEventID(),
		AssetID:     subject.AssetID,
		ActorID:     &creator,
		Type:        EventAssetCreated,
		FromStatus:  nil,
		ToStatus:    subject.Status,
		Note:        "Synthesized creation event: this record predates journaling.",
		Payload:     LegacyPayload{Legacy: true},
		CreatedAt:   subject.CreatedAt,
		Synthesized: true,
	}}, nil
}
