package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "brandgov/pkg/domain"
	txcontext "brandgov/pkg/platform/tx"

	"brandgov/internal/workflow"
)

// PostgresStore persists events in the journey_events table. It joins an
// in-flight transaction from the context so appends commit atomically with
// the asset mutation that caused them.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) runner(ctx context.Context) dbRunner {
	if sqlTx, ok := txcontext.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	kind, raw, err := EncodePayload(event.Payload)
	if err != nil {
		return err
	}

	var actorID any
	if event.ActorID != nil {
		actorID = event.ActorID.String()
	}
	var fromStatus any
	if event.FromStatus != nil {
		fromStatus = string(*event.FromStatus)
	}
	var payload any
	if raw != nil {
		payload = raw
	}

	const q = `
		INSERT INTO journey_events
			(id, asset_id, actor_id, event_type, from_status, to_status, note, payload_kind, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.runner(ctx).ExecContext(ctx, q,
		event.ID.String(),
		event.AssetID.String(),
		actorID,
		string(event.Type),
		fromStatus,
		string(event.ToStatus),
		event.Note,
		nullIfEmpty(kind),
		payload,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append journey event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByAsset(ctx context.Context, assetID id.AssetID) ([]Event, error) {
	const q = `
		SELECT id, actor_id, event_type, from_status, to_status, note, payload_kind, payload, created_at
		FROM journey_events
		WHERE asset_id = $1
		ORDER BY seq ASC
	`
	rows, err := s.runner(ctx).QueryContext(ctx, q, assetID.String())
	if err != nil {
		return nil, fmt.Errorf("list journey events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event       Event
			eventID     string
			actorID     sql.NullString
			fromStatus  sql.NullString
			payloadKind sql.NullString
			payload     []byte
			createdAt   time.Time
		)
		if err := rows.Scan(&eventID, &actorID, &event.Type, &fromStatus, &event.ToStatus,
			&event.Note, &payloadKind, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan journey event: %w", err)
		}

		parsed, err := uuid.Parse(eventID)
		if err != nil {
			return nil, fmt.Errorf("parse event id: %w", err)
		}
		event.ID = id.EventID(parsed)
		event.AssetID = assetID
		event.CreatedAt = createdAt

		if actorID.Valid {
			actor, err := id.ParseUserID(actorID.String)
			if err != nil {
				return nil, fmt.Errorf("parse actor id: %w", err)
			}
			event.ActorID = &actor
		}
		if fromStatus.Valid {
			status := workflow.Status(fromStatus.String)
			event.FromStatus = &status
		}
		if payloadKind.Valid {
			decoded, err := DecodePayload(payloadKind.String, payload)
			if err != nil {
				return nil, err
			}
			event.Payload = decoded
		}

		events = append(events, event)
	}
	return events, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
