// Package governance runs the human review stages and the multimodal audit
// gate over creative assets.
package governance

import (
	"time"

	id "brandgov/pkg/domain"

	"brandgov/internal/workflow"
)

// Decision is a reviewer's verdict for one stage. The target status must be
// one of the stage's permitted outcomes.
type Decision struct {
	Target          workflow.Status
	RejectionReason string
}

// MultimodalAudit records one image audit against the asset's brand manual.
// Audits are advisory: they never move the asset's workflow status.
type MultimodalAudit struct {
	ID          id.AuditID
	AssetID     id.AssetID
	ApproverID  id.UserID
	ImageRef    string
	Verdict     Verdict
	Explanation string
	Confidence  float64
	CreatedAt   time.Time
}

// AuditRequest carries the image to audit.
type AuditRequest struct {
	AssetID  id.AssetID
	Image    []byte
	MimeType string
	Filename string
}
