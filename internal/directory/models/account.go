package models

import (
	"strings"
	"time"

	id "courtyard/pkg/domain"
	dErrors "courtyard/pkg/domain-errors"
)

// Role distinguishes the community admin from ordinary residents.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether the role is one of the two known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Account is a resident identity. The directory is the source of truth for
// the full record including the password; everything handed outside the
// directory is a password-stripped copy.
//
// Invariants:
//   - ApartmentNumber is unique across all accounts (it is the login identifier)
//   - CommunityID is set if and only if the account appears in that
//     community's member roster
//
// The password is stored as entered. Hashing is deliberately absent here:
// the system this replaces stored plaintext-equivalent credentials and the
// behavior is preserved as a known weakness rather than silently changed.
type Account struct {
	ID              id.AccountID   `json:"id"`
	FullName        string         `json:"full_name"`
	ApartmentNumber string         `json:"apartment_number"`
	Password        string         `json:"password,omitempty"`
	Role            Role           `json:"role"`
	CommunityID     id.CommunityID `json:"community_id,omitzero"`
	CommunityName   string         `json:"community_name,omitempty"`
	PhoneNumber     string         `json:"phone_number,omitempty"`
	ProfileImageRef string         `json:"profile_image,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// NewAccount validates the signup fields and builds the account.
func NewAccount(accountID id.AccountID, fullName, apartmentNumber, password string, role Role, now time.Time) (*Account, error) {
	fullName = strings.TrimSpace(fullName)
	apartmentNumber = strings.TrimSpace(apartmentNumber)

	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "full name is required")
	}
	if apartmentNumber == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "apartment number is required")
	}
	if password == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password is required")
	}
	if !role.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "role must be admin or member")
	}

	return &Account{
		ID:              accountID,
		FullName:        fullName,
		ApartmentNumber: apartmentNumber,
		Password:        password,
		Role:            role,
		CreatedAt:       now,
	}, nil
}

// Stripped returns a copy with the password removed. Use for everything that
// leaves the directory: the session snapshot, community rosters, responses.
func (a Account) Stripped() Account {
	a.Password = ""
	return a
}

// InCommunity reports whether the account has joined a community.
func (a Account) InCommunity() bool {
	return !a.CommunityID.IsNil()
}

// IsAdmin reports whether the account has the admin role.
func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ApplyMembership stamps the community onto the account. Called when an
// admin signup creates a community and when a member's invitation is
// accepted.
func (a *Account) ApplyMembership(communityID id.CommunityID, communityName string) {
	a.CommunityID = communityID
	a.CommunityName = communityName
}

// ApplyProfileUpdate sets the optional profile fields. Empty arguments leave
// the current value untouched so a partial update never erases data.
func (a *Account) ApplyProfileUpdate(phoneNumber, profileImageRef string) {
	if phoneNumber != "" {
		a.PhoneNumber = phoneNumber
	}
	if profileImageRef != "" {
		a.ProfileImageRef = profileImageRef
	}
}
