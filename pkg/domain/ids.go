// Package domain holds shared domain value types: typed identifiers and the
// outreach channel enum. Typed IDs prevent accidental cross-assignment between
// entity identifiers at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "holly/pkg/domain-errors"
)

// LeadID identifies a lead.
type LeadID uuid.UUID

// ActivityID identifies an append-only activity log entry.
type ActivityID uuid.UUID

// CommunicationID identifies a single inbound or outbound message.
type CommunicationID uuid.UUID

// NewLeadID generates a fresh lead ID.
func NewLeadID() LeadID { return LeadID(uuid.New()) }

// NewActivityID generates a fresh activity ID.
func NewActivityID() ActivityID { return ActivityID(uuid.New()) }

// NewCommunicationID generates a fresh communication ID.
func NewCommunicationID() CommunicationID { return CommunicationID(uuid.New()) }

// ParseLeadID constructs a LeadID from external input.
//
// Usage: call from handlers/adapters when parsing requests; direct casting
// bypasses validation.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or the
// nil UUID.
func ParseLeadID(s string) (LeadID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return LeadID{}, err
	}
	return LeadID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

func (id LeadID) String() string          { return uuid.UUID(id).String() }
func (id LeadID) IsNil() bool             { return uuid.UUID(id) == uuid.Nil }
func (id ActivityID) String() string      { return uuid.UUID(id).String() }
func (id CommunicationID) String() string { return uuid.UUID(id).String() }

// MarshalText renders IDs as canonical UUID strings in JSON and logs.
func (id LeadID) MarshalText() ([]byte, error)          { return []byte(id.String()), nil }
func (id ActivityID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id CommunicationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
