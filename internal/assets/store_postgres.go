package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	id "brandgov/pkg/domain"
	"brandgov/pkg/platform/sentinel"
	txcontext "brandgov/pkg/platform/tx"

	"brandgov/internal/workflow"
)

// PostgresStore persists assets in the creative_assets table and joins an
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

const assetColumns = `id, manual_id, created_by, asset_type, brief, generated_text,
	workflow_status, reviewer_a, reviewer_b, rejection_reason, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, asset Asset) error {
	_, err := s.runner(ctx).ExecContext(ctx, `
		INSERT INTO creative_assets (`+assetColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		asset.ID.String(),
		asset.ManualID.String(),
		asset.CreatedBy.String(),
		string(asset.Type),
		asset.Brief,
		asset.GeneratedText,
		string(asset.Status),
		nullableUserID(asset.ReviewerA),
		nullableUserID(asset.ReviewerB),
		asset.RejectionReason,
		asset.CreatedAt,
		asset.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert asset %s: %w", asset.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, assetID id.AssetID) (Asset, error) {
	row := s.runner(ctx).QueryRowContext(ctx, `
		SELECT `+assetColumns+`
		FROM creative_assets
		WHERE id = $1`,
		assetID.String(),
	)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Asset{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Asset{}, fmt.Errorf("get asset %s: %w", assetID, err)
	}
	return asset, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]Asset, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "workflow_status = $"+strconv.Itoa(len(args)))
	}
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		conditions = append(conditions, "asset_type = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + assetColumns + ` FROM creative_assets`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.runner(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// ApplyTransition guards the status change with a compare-and-set on the
// current status so two reviewers cannot both move the same asset.
func (s *PostgresStore) ApplyTransition(ctx context.Context, update Update) error {
	run := s.runner(ctx)

	sets := []string{"workflow_status = $1", "updated_at = $2"}
	args := []any{string(update.To), update.UpdatedAt}
	if update.ReviewerA != nil {
		args = append(args, update.ReviewerA.String())
		sets = append(sets, "reviewer_a = $"+strconv.Itoa(len(args)))
	}
	if update.ReviewerB != nil {
		args = append(args, update.ReviewerB.String())
		sets = append(sets, "reviewer_b = $"+strconv.Itoa(len(args)))
	}
	if update.RejectionReason != nil {
		args = append(args, *update.RejectionReason)
		sets = append(sets, "rejection_reason = $"+strconv.Itoa(len(args)))
	} else if update.ClearRejection {
		sets = append(sets, "rejection_reason = NULL")
	}

	args = append(args, update.AssetID.String())
	assetArg := "$" + strconv.Itoa(len(args))
	args = append(args, string(update.From))
	fromArg := "$" + strconv.Itoa(len(args))

	result, err := run.ExecContext(ctx,
		"UPDATE creative_assets SET "+strings.Join(sets, ", ")+
			" WHERE id = "+assetArg+" AND workflow_status = "+fromArg,
		args...,
	)
	if err != nil {
		return fmt.Errorf("transition asset %s: %w", update.AssetID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition asset %s: %w", update.AssetID, err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing matched: asset gone, or someone else moved it first.
	var exists bool
	err = run.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM creative_assets WHERE id = $1)",
		update.AssetID.String(),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("transition asset %s: %w", update.AssetID, err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (Asset, error) {
	var (
		asset                          Asset
		assetID, manualID, createdBy   string
		assetType, status              string
		reviewerA, reviewerB, rejected sql.NullString
	)
	err := row.Scan(
		&assetID,
		&manualID,
		&createdBy,
		&assetType,
		&asset.Brief,
		&asset.GeneratedText,
		&status,
		&reviewerA,
		&reviewerB,
		&rejected,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	if err != nil {
		return Asset{}, err
	}

	if asset.ID, err = id.ParseAssetID(assetID); err != nil {
		return Asset{}, err
	}
	if asset.ManualID, err = id.ParseManualID(manualID); err != nil {
		return Asset{}, err
	}
	if asset.CreatedBy, err = id.ParseUserID(createdBy); err != nil {
		return Asset{}, err
	}
	if asset.Type, err = ParseAssetType(assetType); err != nil {
		return Asset{}, err
	}
	parsedStatus, ok := workflow.ParseStatus(status)
	if !ok {
		return Asset{}, fmt.Errorf("unknown workflow status %q", status)
	}
	asset.Status = parsedStatus

	if reviewerA.Valid {
		userID, err := id.ParseUserID(reviewerA.String)
		if err != nil {
			return Asset{}, err
		}
		asset.ReviewerA = &userID
	}
	if reviewerB.Valid {
		userID, err := id.ParseUserID(reviewerB.String)
		if err != nil {
			return Asset{}, err
		}
		asset.ReviewerB = &userID
	}
	if rejected.Valid {
		reason := rejected.String
		asset.RejectionReason = &reason
	}
	return asset, nil
}

func nullableUserID(userID *id.UserID) any {
	if userID == nil {
		return nil
	}
	return userID.String()
}
