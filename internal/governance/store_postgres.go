package governance

import (
	"context"
	"database/sql"
	"fmt"

	id "brandgov/pkg/domain"
	txcontext "brandgov/pkg/platform/tx"
)

// PostgresAuditStore persists audits in the multimodal_audits table and
// joins an in-flight transaction from the context.
type PostgresAuditStore struct {
	db *sql.DB
}

func NewPostgresAuditStore(db *sql.DB) *PostgresAuditStore {
	return &PostgresAuditStore{db: db}
}

type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresAuditStore) runner(ctx context.Context) dbRunner {
	if sqlTx, ok := txcontext.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

func (s *PostgresAuditStore) Create(ctx context.Context, audit MultimodalAudit) error {
	_, err := s.runner(ctx).ExecContext(ctx, `
		INSERT INTO multimodal_audits (id, asset_id, approver_id, image_ref, verdict, explanation, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		audit.ID.String(),
		audit.AssetID.String(),
		audit.ApproverID.String(),
		audit.ImageRef,
		string(audit.Verdict),
		audit.Explanation,
		audit.Confidence,
		audit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit %s: %w", audit.ID, err)
	}
	return nil
}

func (s *PostgresAuditStore) ListByAsset(ctx context.Context, assetID id.AssetID) ([]MultimodalAudit, error) {
	rows, err := s.runner(ctx).QueryContext(ctx, `
		SELECT id, asset_id, approver_id, image_ref, verdict, explanation, confidence, created_at
		FROM multimodal_audits
		WHERE asset_id = $1
		ORDER BY created_at DESC, id`,
		assetID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list audits for asset %s: %w", assetID, err)
	}
	defer rows.Close()

	var audits []MultimodalAudit
	for rows.Next() {
		var (
			audit                           MultimodalAudit
			auditID, scannedAsset, approver string
			verdict                         string
		)
		if err := rows.Scan(&auditID, &scannedAsset, &approver, &audit.ImageRef, &verdict, &audit.Explanation, &audit.Confidence, &audit.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		if audit.ID, err = id.ParseAuditID(auditID); err != nil {
			return nil, err
		}
		if audit.AssetID, err = id.ParseAssetID(scannedAsset); err != nil {
			return nil, err
		}
		if audit.ApproverID, err = id.ParseUserID(approver); err != nil {
			return nil, err
		}
		audit.Verdict = Verdict(verdict)
		audits = append(audits, audit)
	}
	return audits, rows.Err()
}
