package models

import (
	"time"

	id "courtyard/pkg/domain"
	dErrors "courtyard/pkg/domain-errors"
)

// InvitationStatus is the lifecycle state of a join request.
//
// Transitions: pending → accepted and pending → rejected. Both outcomes are
// terminal; nothing ever leaves accepted or rejected.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// Terminal reports whether the status permits no further transitions.
func (s InvitationStatus) Terminal() bool {
	return s == InvitationAccepted || s == InvitationRejected
}

// Invitation is a resident's request to join a community. UserName is a
// snapshot taken when the request was sent; a later profile edit must not
// rewrite the history the admin saw.
type Invitation struct {
	ID          id.InvitationID  `json:"id"`
	UserID      id.AccountID     `json:"user_id"`
	UserName    string           `json:"user_name"`
	CommunityID id.CommunityID   `json:"community_id"`
	Status      InvitationStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NewInvitation builds a pending invitation from the requesting account's
// identity snapshot.
func NewInvitation(invitationID id.InvitationID, userID id.AccountID, userName string, communityID id.CommunityID, now time.Time) Invitation {
	return Invitation{
		ID:          invitationID,
		UserID:      userID,
		UserName:    userName,
		CommunityID: communityID,
		Status:      InvitationPending,
		CreatedAt:   now,
	}
}

// CanAccept checks that actor owns the invitation and that it is still
// pending. Use with ApplyAccept so validation and mutation stay separate.
func (i *Invitation) CanAccept(actor id.AccountID) error {
	if i.UserID != actor {
		return dErrors.New(dErrors.CodeForbidden, "invitation belongs to another resident")
	}
	if i.Status != InvitationPending {
		return dErrors.New(dErrors.CodeInvalidState, "invitation is no longer pending")
	}
	return nil
}

// ApplyAccept marks the invitation accepted. Call CanAccept first.
func (i *Invitation) ApplyAccept() {
	i.Status = InvitationAccepted
}

// CanReject checks that the invitation is still pending.
func (i *Invitation) CanReject() error {
	if i.Status != InvitationPending {
		return dErrors.New(dErrors.CodeInvalidState, "invitation is no longer pending")
	}
	return nil
}

// ApplyReject marks the invitation rejected. No membership change follows.
func (i *Invitation) ApplyReject() {
	i.Status = InvitationRejected
}
