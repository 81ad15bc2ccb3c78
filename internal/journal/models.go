// Package journal keeps the append-only, per-asset history of the approval
// workflow. Events are written by every state-changing operation and are
// never mutated or removed; replaying them reconstructs an asset's journey.
package journal

import (
	"encoding/json"
	"fmt"
	"time"

	id "brandgov/pkg/domain"

	"brandgov/internal/workflow"
)

// EventType tags what happened.
type EventType string

const (
	EventAssetCreated    EventType = "asset_created"
	EventReviewAApproved EventType = "review_a_approved"
	EventReviewARejected EventType = "review_a_rejected"
	EventReviewBApproved EventType = "review_b_approved"
	EventReviewBRejected EventType = "review_b_rejected"
	EventAuditCheck      EventType = "audit_check"
	EventAuditFail       EventType = "audit_fail"
)

// Payload is the closed union of structured event metadata. Each event kind
// carries exactly one payload shape; there is no open key/value map.
type Payload interface {
	payloadKind() string
}

// CreationPayload accompanies EventAssetCreated.
type CreationPayload struct {
	ManualID  string `json:"manual_id"`
	AssetType string `json:"asset_type"`
}

// ReviewPayload accompanies the four human review events.
type ReviewPayload struct {
	Decision        string `json:"decision"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// AuditPayload accompanies EventAuditCheck / EventAuditFail.
type AuditPayload struct {
	AuditID     string  `json:"audit_id"`
	Verdict     string  `json:"verdict"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// LegacyPayload marks the synthesized creation event returned for assets
// that predate journaling.
type LegacyPayload struct {
	Legacy bool `json:"legacy"`
}

func (CreationPayload) payloadKind() string { return "creation" }
func (ReviewPayload) payloadKind() string   { return "review" }
func (AuditPayload) payloadKind() string    { return "audit" }
func (LegacyPayload) payloadKind() string   { return "legacy" }

// EncodePayload serializes a payload with its kind tag for storage.
func EncodePayload(p Payload) (kind string, raw []byte, err error) {
	if p == nil {
		return "", nil, nil
	}
	raw, err = json.Marshal(p)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s payload: %w", p.payloadKind(), err)
	}
	return p.payloadKind(), raw, nil
}

// DecodePayload restores a payload from its kind tag. Unknown kinds fail so
// schema drift surfaces loudly instead of silently dropping metadata.
func DecodePayload(kind string, raw []byte) (Payload, error) {
	if kind == "" {
		return nil, nil
	}
	switch kind {
	case "creation":
		var p CreationPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case "review":
		var p ReviewPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case "audit":
		var p AuditPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case "legacy":
		var p LegacyPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown payload kind %q", kind)
	}
}

// Event is one immutable journal entry. FromStatus is nil only for the
// asset-creation event; ActorID is nil for system-originated events.
type Event struct {
	ID         id.EventID
	AssetID    id.AssetID
	ActorID    *id.UserID
	Type       EventType
	FromStatus *workflow.Status
	ToStatus   workflow.Status
	Note       string
	Payload    Payload
	CreatedAt  time.Time
	// Synthesized marks a legacy event built on read for assets with no
	// stored history. Synthesized events are never persisted.
	Synthesized bool
}
