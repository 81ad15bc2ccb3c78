// Package assets generates creative assets grounded on a brand manual and
// tracks them through the approval workflow.
package assets

import (
	"time"

	id "brandgov/pkg/domain"
	dErrors "brandgov/pkg/domain-errors"

	"brandgov/internal/workflow"
)

// AssetType classifies what kind of creative output an asset is.
type AssetType string

const (
	TypeProductDescription AssetType = "product_description"
	TypeVideoScript        AssetType = "video_script"
	TypeImagePrompt        AssetType = "image_prompt"
)

// ParseAssetType validates a wire value.
func ParseAssetType(s string) (AssetType, error) {
	switch AssetType(s) {
	case TypeProductDescription, TypeVideoScript, TypeImagePrompt:
		return AssetType(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown asset type: "+s)
	}
}

// Asset is one generated creative work item.
type Asset struct {
	ID              id.AssetID
	ManualID        id.ManualID
	CreatedBy       id.UserID
	Type            AssetType
	Brief           string
	GeneratedText   string
	Status          workflow.Status
	ReviewerA       *id.UserID
	ReviewerB       *id.UserID
	RejectionReason *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GenerateRequest asks for a new asset scoped to one manual.
type GenerateRequest struct {
	ManualID id.ManualID
	Type     AssetType
	Brief    string
}

// ListFilter narrows List output. Nil fields match everything.
type ListFilter struct {
	Status *workflow.Status
	Type   *AssetType
}

// AuditSummary is the newest multimodal audit outcome attached to a history
// row.
type AuditSummary struct {
	Verdict     string
	Explanation string
	Confidence  float64
	CreatedAt   time.Time
}

// HistoryItem is an asset joined with its manual context and latest audit.
type HistoryItem struct {
	Asset             Asset
	ManualProductName string
	ManualMarkdown    string
	LatestAudit       *AuditSummary
}
