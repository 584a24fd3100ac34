package models

import (
	"math"
	"time"

	directory "courtyard/internal/directory/models"
	id "courtyard/pkg/domain"
	dErrors "courtyard/pkg/domain-errors"
)

// MemberStatus is the per-member acknowledgment flag on a payment.
type MemberStatus string

const (
	StatusPaid   MemberStatus = "paid"
	StatusUnpaid MemberStatus = "unpaid"
)

// Valid reports whether the status is one of the two known values.
func (s MemberStatus) Valid() bool {
	return s == StatusPaid || s == StatusUnpaid
}

// MemberCharge is one roster entry frozen into a payment. Name and apartment
// are snapshots from creation time; later profile edits or roster changes do
// not touch them.
type MemberCharge struct {
	UserID          id.AccountID `json:"user_id"`
	UserName        string       `json:"user_name"`
	ApartmentNumber string       `json:"apartment_number"`
	Status          MemberStatus `json:"status"`
}

// Payment is an admin-issued charge against the community roster as it
// existed at creation. The member list length and identities are fixed then;
// only the per-member status may change afterwards.
type Payment struct {
	ID          id.PaymentID   `json:"id"`
	CommunityID id.CommunityID `json:"community_id"`
	Amount      float64        `json:"amount"`
	CreatedAt   time.Time      `json:"created_at"`
	Members     []MemberCharge `json:"members"`
}

// NewPayment validates the amount and snapshots every roster member as
// unpaid.
func NewPayment(paymentID id.PaymentID, communityID id.CommunityID, amount float64, roster []directory.Account, now time.Time) (*Payment, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "payment amount must be a positive number")
	}

	members := make([]MemberCharge, 0, len(roster))
	for _, account := range roster {
		members = append(members, MemberCharge{
			UserID:          account.ID,
			UserName:        account.FullName,
			ApartmentNumber: account.ApartmentNumber,
			Status:          StatusUnpaid,
		})
	}

	return &Payment{
		ID:          paymentID,
		CommunityID: communityID,
		Amount:      amount,
		CreatedAt:   now,
		Members:     members,
	}, nil
}

// SetMemberStatus sets one member's flag. Setting the same status twice is a
// no-op, never an error. Members outside the creation-time snapshot do not
// exist for this payment.
func (p *Payment) SetMemberStatus(userID id.AccountID, status MemberStatus) error {
	if !status.Valid() {
		return dErrors.New(dErrors.CodeInvalidInput, "status must be paid or unpaid")
	}
	for i := range p.Members {
		if p.Members[i].UserID == userID {
			p.Members[i].Status = status
			return nil
		}
	}
	return dErrors.New(dErrors.CodeNotFound, "resident is not part of this payment")
}

// Statistics is the aggregate view over one payment's snapshot.
type Statistics struct {
	TotalMembers int `json:"total_members"`
	TotalPaid    int `json:"total_paid"`
	TotalUnpaid  int `json:"total_unpaid"`
}

// Statistics recomputes the aggregate on every call; it is never cached.
func (p *Payment) Statistics() Statistics {
	stats := Statistics{TotalMembers: len(p.Members)}
	for _, m := range p.Members {
		if m.Status == StatusPaid {
			stats.TotalPaid++
		} else {
			stats.TotalUnpaid++
		}
	}
	return stats
}

// Clone returns a deep copy for staged mutation.
func (p *Payment) Clone() *Payment {
	out := *p
	out.Members = append([]MemberCharge(nil), p.Members...)
	return &out
}
