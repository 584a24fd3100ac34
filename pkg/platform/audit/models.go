package audit

import (
	"context"
	"time"

	id "courtyard/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. Categories
// drive retention and routing: membership changes are the community's
// historical record, auth failures feed monitoring, the rest is operational
// visibility.
type EventCategory string

const (
	// CategoryMembership covers events that change who belongs where or who
	// owes what. These are the records residents may dispute later.
	CategoryMembership EventCategory = "membership"

	// CategorySecurity covers events relevant to monitoring and forensics.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	AccountID id.AccountID
	// Subject is a human-readable identifier for the affected entity
	// (apartment number, community name, payment id).
	Subject string
	Action  string
	Reason  string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
	// IP and Device capture where the action came from; Device is the
	// parsed User-Agent display name.
	IP     string
	Device string
}

// AuditEvent names every action courtyard records.
type AuditEvent string

const (
	EventAccountCreated     AuditEvent = "account_created"
	EventSessionCreated     AuditEvent = "session_created"
	EventSessionCleared     AuditEvent = "session_cleared"
	EventAuthFailed         AuditEvent = "auth_failed"
	EventProfileUpdated     AuditEvent = "profile_updated"
	EventCommunityCreated   AuditEvent = "community_created"
	EventInvitationSent     AuditEvent = "invitation_sent"
	EventInvitationAccepted AuditEvent = "invitation_accepted"
	EventInvitationRejected AuditEvent = "invitation_rejected"
	EventPaymentCreated     AuditEvent = "payment_created"
	EventPaymentStatusSet   AuditEvent = "payment_status_set"
	EventMessagePosted      AuditEvent = "message_posted"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAccountCreated:     CategoryMembership,
	EventCommunityCreated:   CategoryMembership,
	EventInvitationAccepted: CategoryMembership,
	EventInvitationRejected: CategoryMembership,
	EventPaymentCreated:     CategoryMembership,

	EventAuthFailed: CategorySecurity,

	EventSessionCreated:   CategoryOperations,
	EventSessionCleared:   CategoryOperations,
	EventProfileUpdated:   CategoryOperations,
	EventInvitationSent:   CategoryOperations,
	EventPaymentStatusSet: CategoryOperations,
	EventMessagePosted:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Publisher is what services emit through. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists audit events for later listing.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAccount(ctx context.Context, accountID id.AccountID) ([]Event, error)
}

// Sink receives a copy of every event without being queryable. Failures are
// logged, never propagated to the emitting operation.
type Sink interface {
	Append(ctx context.Context, event Event) error
}
