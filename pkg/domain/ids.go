// Package domain holds typed identifiers shared across modules. IDs wrap
// uuid.UUID so the compiler keeps asset, manual, and user references from
// being mixed up; parse at trust boundaries, never cast raw strings.
package domain

import (
	"github.com/google/uuid"

	dErrors "brandgov/pkg/domain-errors"
)

type (
	// UserID identifies an actor (creator or approver).
	UserID uuid.UUID
	// ManualID identifies a brand manual, the scope key for retrieval.
	ManualID uuid.UUID
	// AssetID identifies a creative asset.
	AssetID uuid.UUID
	// AuditID identifies a multimodal audit record.
	AuditID uuid.UUID
	// EventID identifies a journal event.
	EventID uuid.UUID
	// ChunkID identifies an indexed retrieval chunk.
	ChunkID uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

// ParseManualID validates and returns a ManualID.
func ParseManualID(s string) (ManualID, error) {
	u, err := parseUUID(s)
	return ManualID(u), err
}

// ParseAssetID validates and returns an AssetID.
func ParseAssetID(s string) (AssetID, error) {
	u, err := parseUUID(s)
	return AssetID(u), err
}

// ParseAuditID validates and returns an AuditID.
func ParseAuditID(s string) (AuditID, error) {
	u, err := parseUUID(s)
	return AuditID(u), err
}

// ParseChunkID validates and returns a ChunkID.
func ParseChunkID(s string) (ChunkID, error) {
	u, err := parseUUID(s)
	return ChunkID(u), err
}

func NewUserID() UserID     { return UserID(uuid.New()) }
func NewManualID() ManualID { return ManualID(uuid.New()) }
func NewAssetID() AssetID   { return AssetID(uuid.New()) }
func NewAuditID() AuditID   { return AuditID(uuid.New()) }
func NewEventID() EventID   { return EventID(uuid.New()) }
func NewChunkID() ChunkID   { return ChunkID(uuid.New()) }

func (id UserID) String() string   { return uuid.UUID(id).String() }
func (id ManualID) String() string { return uuid.UUID(id).String() }
func (id AssetID) String() string  { return uuid.UUID(id).String() }
func (id AuditID) String() string  { return uuid.UUID(id).String() }
func (id EventID) String() string  { return uuid.UUID(id).String() }
func (id ChunkID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ManualID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AssetID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AuditID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ChunkID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
