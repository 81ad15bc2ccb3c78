package httptransport

import (
	"time"

	"brandgov/internal/assets"
	"brandgov/internal/governance"
	"brandgov/internal/journal"
	"brandgov/internal/manuals"
)

type manualResponse struct {
	ID             string    `json:"id"`
	ProductName    string    `json:"product_name"`
	Tone           string    `json:"tone"`
	Audience       string    `json:"audience"`
	ManualMarkdown string    `json:"manual_markdown"`
	CreatedByID    string    `json:"created_by_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func toManualResponse(m manuals.Manual) manualResponse {
	return manualResponse{
		ID:             m.ID.String(),
		ProductName:    m.ProductName,
		Tone:           m.Tone,
		Audience:       m.Audience,
		ManualMarkdown: m.ManualMarkdown,
		CreatedByID:    m.CreatedBy.String(),
		CreatedAt:      m.CreatedAt,
	}
}

type assetResponse struct {
	ID              string    `json:"id"`
	ManualID        string    `json:"manual_id"`
	CreatedByID     string    `json:"created_by_id"`
	AssetType       string    `json:"asset_type"`
	Brief           string    `json:"brief"`
	GeneratedText   string    `json:"generated_text"`
	WorkflowStatus  string    `json:"workflow_status"`
	RejectionReason *string   `json:"rejection_reason"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toAssetResponse(a assets.Asset) assetResponse {
	return assetResponse{
		ID:              a.ID.String(),
		ManualID:        a.ManualID.String(),
		CreatedByID:     a.CreatedBy.String(),
		AssetType:       string(a.Type),
		Brief:           a.Brief,
		GeneratedText:   a.GeneratedText,
		WorkflowStatus:  string(a.Status),
		RejectionReason: a.RejectionReason,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

type generateAssetResponse struct {
	Asset      assetResponse `json:"asset"`
	RAGContext []string      `json:"rag_context"`
}

type historyItemResponse struct {
	assetResponse
	ManualProductName     string     `json:"manual_product_name"`
	ManualMarkdown        string     `json:"manual_markdown"`
	LatestAuditVerdict    *string    `json:"latest_audit_verdict"`
	LatestAuditReason     *string    `json:"latest_audit_explanation"`
	LatestAuditConfidence *float64   `json:"latest_audit_confidence"`
	LatestAuditAt         *time.Time `json:"latest_audit_at"`
}

func toHistoryItemResponse(item assets.HistoryItem) historyItemResponse {
	out := historyItemResponse{
		assetResponse:     toAssetResponse(item.Asset),
		ManualProductName: item.ManualProductName,
		ManualMarkdown:    item.ManualMarkdown,
	}
	if item.LatestAudit != nil {
		verdict := item.LatestAudit.Verdict
		explanation := item.LatestAudit.Explanation
		confidence := item.LatestAudit.Confidence
		at := item.LatestAudit.CreatedAt
		out.LatestAuditVerdict = &verdict
		out.LatestAuditReason = &explanation
		out.LatestAuditConfidence = &confidence
		out.LatestAuditAt = &at
	}
	return out
}

type journeyEventResponse struct {
	ID         string  `json:"id"`
	EventType  string  `json:"event_type"`
	FromStatus *string `json:"from_status"`
	ToStatus   string  `json:"to_status"`
	Note       string  `json:"note"`
	ActorID    *string `json:"actor_id"`
	// Payload holds the event's journal.Payload; typed any so clients and
	// tests can round-trip the JSON without knowing the concrete shape.
	Payload     any       `json:"payload"`
	CreatedAt   time.Time `json:"created_at"`
	Synthesized bool      `json:"synthesized"`
}

func toJourneyEventResponse(e journal.Event) journeyEventResponse {
	out := journeyEventResponse{
		ID:          e.ID.String(),
		EventType:   string(e.Type),
		ToStatus:    string(e.ToStatus),
		Note:        e.Note,
		Payload:     e.Payload,
		CreatedAt:   e.CreatedAt,
		Synthesized: e.Synthesized,
	}
	if e.FromStatus != nil {
		from := string(*e.FromStatus)
		out.FromStatus = &from
	}
	if e.ActorID != nil {
		actor := e.ActorID.String()
		out.ActorID = &actor
	}
	return out
}

type journeyResponse struct {
	Asset  historyItemResponse    `json:"asset"`
	Events []journeyEventResponse `json:"events"`
}

type auditResponse struct {
	ID          string    `json:"id"`
	AssetID     string    `json:"asset_id"`
	ApproverID  string    `json:"approver_id"`
	ImageRef    string    `json:"image_ref"`
	Verdict     string    `json:"verdict"`
	Explanation string    `json:"explanation"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAuditResponse(a governance.MultimodalAudit) auditResponse {
	return auditResponse{
		ID:          a.ID.String(),
		AssetID:     a.AssetID.String(),
		ApproverID:  a.ApproverID.String(),
		ImageRef:    a.ImageRef,
		Verdict:     string(a.Verdict),
		Explanation: a.Explanation,
		Confidence:  a.Confidence,
		CreatedAt:   a.CreatedAt,
	}
}

type decisionResponse struct {
	AssetID         string  `json:"asset_id"`
	WorkflowStatus  string  `json:"workflow_status"`
	RejectionReason *string `json:"rejection_reason"`
}

func toDecisionResponse(a assets.Asset) decisionResponse {
	return decisionResponse{
		AssetID:         a.ID.String(),
		WorkflowStatus:  string(a.Status),
		RejectionReason: a.RejectionReason,
	}
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}
