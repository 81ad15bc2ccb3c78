// Package postgres opens the shared database handle and bootstraps the
// schema. Stores in other packages run their SQL against this handle and
// join transactions via pkg/platform/tx.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects, verifies the connection, and applies the schema.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema applies idempotent DDL. The vector extension backs the native
// nearest-neighbor path; embedding width is fixed per deployment and guarded
// by the embedder, not the column type.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS brand_manuals (
			id UUID PRIMARY KEY,
			product_name TEXT NOT NULL,
			tone TEXT NOT NULL,
			audience TEXT NOT NULL,
			raw_input TEXT NOT NULL,
			manual_markdown TEXT NOT NULL,
			created_by UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS manual_chunks (
			id UUID PRIMARY KEY,
			manual_id UUID NOT NULL,
			chunk_index INT NOT NULL,
			chunk_text TEXT NOT NULL,
			embedding vector NOT NULL,
			UNIQUE (manual_id, chunk_index)
		)`,
		`CREATE INDEX IF NOT EXISTS manual_chunks_manual_idx ON manual_chunks (manual_id)`,
		`CREATE TABLE IF NOT EXISTS creative_assets (
			id UUID PRIMARY KEY,
			manual_id UUID NOT NULL,
			created_by UUID NOT NULL,
			asset_type TEXT NOT NULL,
			brief TEXT NOT NULL,
			generated_text TEXT NOT NULL,
			workflow_status TEXT NOT NULL,
			reviewer_a UUID,
			reviewer_b UUID,
			rejection_reason TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS creative_assets_status_idx ON creative_assets (workflow_status)`,
		`CREATE TABLE IF NOT EXISTS multimodal_audits (
			id UUID PRIMARY KEY,
			asset_id UUID NOT NULL,
			approver_id UUID NOT NULL,
			image_ref TEXT NOT NULL,
			verdict TEXT NOT NULL,
			explanation TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS multimodal_audits_asset_idx ON multimodal_audits (asset_id)`,
		`CREATE TABLE IF NOT EXISTS journey_events (
			id UUID PRIMARY KEY,
			seq BIGSERIAL,
			asset_id UUID NOT NULL,
			actor_id UUID,
			event_type TEXT NOT NULL,
			from_status TEXT,
			to_status TEXT NOT NULL,
			note TEXT NOT NULL,
			payload_kind TEXT,
			payload JSONB,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS journey_events_asset_idx ON journey_events (asset_id, seq)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
