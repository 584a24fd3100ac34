// Package domain defines the typed identifiers shared across courtyard.
//
// Every entity carries a UUID-backed ID with its own Go type so that an
// AccountID can never be passed where a CommunityID is expected. Parse
// functions enforce the invariant that IDs are valid, non-nil UUIDs at
// trust boundaries (HTTP input, storage hydration).
package domain

import (
	"github.com/google/uuid"

	dErrors "courtyard/pkg/domain-errors"
)

type (
	// AccountID identifies a resident account.
	AccountID uuid.UUID
	// CommunityID identifies a community.
	CommunityID uuid.UUID
	// InvitationID identifies a join request.
	InvitationID uuid.UUID
	// PaymentID identifies a payment posted by an admin.
	PaymentID uuid.UUID
	// MessageID identifies a message on the community board.
	MessageID uuid.UUID
)

// NewAccountID allocates a fresh account ID.
func NewAccountID() AccountID { return AccountID(uuid.New()) }

// NewCommunityID allocates a fresh community ID.
func NewCommunityID() CommunityID { return CommunityID(uuid.New()) }

// NewInvitationID allocates a fresh invitation ID.
func NewInvitationID() InvitationID { return InvitationID(uuid.New()) }

// NewPaymentID allocates a fresh payment ID.
func NewPaymentID() PaymentID { return PaymentID(uuid.New()) }

// NewMessageID allocates a fresh message ID.
func NewMessageID() MessageID { return MessageID(uuid.New()) }

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseAccountID parses and validates an account ID.
func ParseAccountID(raw string) (AccountID, error) {
	parsed, err := parseUUID(raw)
	return AccountID(parsed), err
}

// ParseCommunityID parses and validates a community ID.
func ParseCommunityID(raw string) (CommunityID, error) {
	parsed, err := parseUUID(raw)
	return CommunityID(parsed), err
}

// ParseInvitationID parses and validates an invitation ID.
func ParseInvitationID(raw string) (InvitationID, error) {
	parsed, err := parseUUID(raw)
	return InvitationID(parsed), err
}

// ParsePaymentID parses and validates a payment ID.
func ParsePaymentID(raw string) (PaymentID, error) {
	parsed, err := parseUUID(raw)
	return PaymentID(parsed), err
}

// ParseMessageID parses and validates a message ID.
func ParseMessageID(raw string) (MessageID, error) {
	parsed, err := parseUUID(raw)
	return MessageID(parsed), err
}

func (id AccountID) String() string    { return uuid.UUID(id).String() }
func (id CommunityID) String() string  { return uuid.UUID(id).String() }
func (id InvitationID) String() string { return uuid.UUID(id).String() }
func (id PaymentID) String() string    { return uuid.UUID(id).String() }
func (id MessageID) String() string    { return uuid.UUID(id).String() }

func (id AccountID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CommunityID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id InvitationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PaymentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id MessageID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps IDs as canonical UUID strings in the persisted JSON.

func (id AccountID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *AccountID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id CommunityID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *CommunityID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id InvitationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *InvitationID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id PaymentID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *PaymentID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id MessageID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *MessageID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
