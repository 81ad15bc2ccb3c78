package manuals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "brandgov/pkg/domain"
	"brandgov/pkg/platform/sentinel"
	txcontext "brandgov/pkg/platform/tx"
)

// PostgresStore persists manuals in the brand_manuals table and joins an
// in-flight transaction from the context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) runner(ctx context.Context) dbRunner {
	if sqlTx, ok := txcontext.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, manual Manual) error {
	_, err := s.runner(ctx).ExecContext(ctx, `
		INSERT INTO brand_manuals (id, product_name, tone, audience, raw_input, manual_markdown, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		manual.ID.String(),
		manual.ProductName,
		manual.Tone,
		manual.Audience,
		manual.RawInput,
		manual.ManualMarkdown,
		manual.CreatedBy.String(),
		manual.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert manual %s: %w", manual.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, manualID id.ManualID) (Manual, error) {
	row := s.runner(ctx).QueryRowContext(ctx, `
		SELECT id, product_name, tone, audience, raw_input, manual_markdown, created_by, created_at
		FROM brand_manuals
		WHERE id = $1`,
		manualID.String(),
	)
	manual, err := scanManual(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Manual{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Manual{}, fmt.Errorf("get manual %s: %w", manualID, err)
	}
	return manual, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Manual, error) {
	rows, err := s.runner(ctx).QueryContext(ctx, `
		SELECT id, product_name, tone, audience, raw_input, manual_markdown, created_by, created_at
		FROM brand_manuals
		ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list manuals: %w", err)
	}
	defer rows.Close()

	var manuals []Manual
	for rows.Next() {
		manual, err := scanManual(rows)
		if err != nil {
			return nil, fmt.Errorf("scan manual: %w", err)
		}
		manuals = append(manuals, manual)
	}
	return manuals, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanManual(row rowScanner) (Manual, error) {
	var (
		manual              Manual
		manualID, createdBy string
	)
	err := row.Scan(
		&manualID,
		&manual.ProductName,
		&manual.Tone,
		&manual.Audience,
		&manual.RawInput,
		&manual.ManualMarkdown,
		&createdBy,
		&manual.CreatedAt,
	)
	if err != nil {
		return Manual{}, err
	}
	parsedID, err := id.ParseManualID(manualID)
	if err != nil {
		return Manual{}, err
	}
	parsedCreator, err := id.ParseUserID(createdBy)
	if err != nil {
		return Manual{}, err
	}
	manual.ID = parsedID
	manual.CreatedBy = parsedCreator
	return manual, nil
}
