package models

import (
	"strings"

	directory "courtyard/internal/directory/models"
	id "courtyard/pkg/domain"
	dErrors "courtyard/pkg/domain-errors"
)

// Community is the aggregate root for a named resident group.
//
// Invariants:
//   - AdminID is immutable after creation and always present in Members
//   - Members preserves insertion order (join order)
//   - at most one invitation per (UserID, CommunityID) is pending at a time
//
// Member entries are password-stripped account snapshots, not references to
// live directory records.
type Community struct {
	ID          id.CommunityID      `json:"id"`
	Name        string              `json:"name"`
	AdminID     id.AccountID        `json:"admin_id"`
	AdminName   string              `json:"admin_name"`
	Members     []directory.Account `json:"members"`
	Invitations []Invitation        `json:"invitations"`
}

// NewCommunity builds a community whose roster starts with its admin. Only
// an admin-role signup carrying a community name reaches this point.
func NewCommunity(communityID id.CommunityID, name string, admin directory.Account) (*Community, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "community name is required")
	}
	if !admin.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "community creator must have the admin role")
	}
	return &Community{
		ID:          communityID,
		Name:        name,
		AdminID:     admin.ID,
		AdminName:   admin.FullName,
		Members:     []directory.Account{admin.Stripped()},
		Invitations: []Invitation{},
	}, nil
}

// IsMember reports whether the account is on the roster.
func (c *Community) IsMember(accountID id.AccountID) bool {
	for _, m := range c.Members {
		if m.ID == accountID {
			return true
		}
	}
	return false
}

// HasPendingInvitation is the checkable precondition for RequestToJoin:
// callers can disable the action instead of tripping over the conflict.
func (c *Community) HasPendingInvitation(accountID id.AccountID) bool {
	for _, inv := range c.Invitations {
		if inv.UserID == accountID && inv.Status == InvitationPending {
			return true
		}
	}
	return false
}

// FindInvitation returns a pointer into the invitation list, or nil.
func (c *Community) FindInvitation(invitationID id.InvitationID) *Invitation {
	for i := range c.Invitations {
		if c.Invitations[i].ID == invitationID {
			return &c.Invitations[i]
		}
	}
	return nil
}

// CanInvite checks the at-most-one-pending rule for the requesting account.
func (c *Community) CanInvite(accountID id.AccountID) error {
	if c.IsMember(accountID) {
		return dErrors.New(dErrors.CodeConflict, "already a member of this community")
	}
	if c.HasPendingInvitation(accountID) {
		return dErrors.New(dErrors.CodeConflict, "a join request is already pending")
	}
	return nil
}

// ApplyInvite appends the invitation. Call CanInvite first.
func (c *Community) ApplyInvite(inv Invitation) {
	c.Invitations = append(c.Invitations, inv)
}

// ApplyJoin appends the account to the roster as a stripped snapshot.
func (c *Community) ApplyJoin(account directory.Account) {
	c.Members = append(c.Members, account.Stripped())
}

// ClosePendingFor rejects any pending invitation the account still has open
// here. Called when the account joins a community, since membership is
// exclusive and the leftover requests can no longer be accepted.
func (c *Community) ClosePendingFor(accountID id.AccountID) {
	for i := range c.Invitations {
		if c.Invitations[i].UserID == accountID && c.Invitations[i].Status == InvitationPending {
			c.Invitations[i].ApplyReject()
		}
	}
}

// Clone returns a deep copy so callers can stage mutations without touching
// the gateway's cached state.
func (c *Community) Clone() *Community {
	out := *c
	out.Members = append([]directory.Account(nil), c.Members...)
	out.Invitations = append([]Invitation(nil), c.Invitations...)
	return &out
}
