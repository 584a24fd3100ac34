// Package state is the explicit store object every service receives a
// handle to. It hydrates the full application state from the persistent
// store on startup and flushes after every mutation, so the store remains
// the single source of truth and the in-memory structures stay a cache that
// is byte-for-byte reconstructible from it.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	board "courtyard/internal/board/models"
	community "courtyard/internal/community/models"
	directory "courtyard/internal/directory/models"
	payment "courtyard/internal/payment/models"
	"courtyard/internal/storage"
	id "courtyard/pkg/domain"
	"courtyard/pkg/platform/sentinel"
)

// State is the complete durable application state. Mutation callbacks
// receive a staged deep copy; nothing becomes visible to readers until the
// flush to the persistent store has succeeded.
type State struct {
	Accounts    []directory.Account
	Communities []community.Community
	Payments    []payment.Payment
	Messages    []board.Message
	// Session is the password-stripped account of the current login, or nil.
	Session *directory.Account
}

// Store guards the state with a single lock. All state transitions are
// triggered by discrete user actions and run to completion before the next
// one is accepted, so one lock is the whole concurrency story.
type Store struct {
	mu     sync.RWMutex
	kv     storage.KV
	logger *slog.Logger
	state  State
}

// Open hydrates the store from the persistent KV. Missing keys mean a fresh
// installation and hydrate to empty collections.
func Open(ctx context.Context, kv storage.KV, logger *slog.Logger) (*Store, error) {
	s := &Store{kv: kv, logger: logger}

	if err := loadKey(ctx, kv, storage.KeyAccounts, &s.state.Accounts); err != nil {
		return nil, err
	}
	if err := loadKey(ctx, kv, storage.KeyCommunities, &s.state.Communities); err != nil {
		return nil, err
	}
	if err := loadKey(ctx, kv, storage.KeyPayments, &s.state.Payments); err != nil {
		return nil, err
	}
	if err := loadKey(ctx, kv, storage.KeyMessages, &s.state.Messages); err != nil {
		return nil, err
	}

	var session directory.Account
	switch err := loadValue(ctx, kv, storage.KeySession, &session); {
	case err == nil:
		s.state.Session = &session
	case errors.Is(err, sentinel.ErrNotFound):
		// no active session
	default:
		return nil, err
	}

	logger.InfoContext(ctx, "state hydrated",
		"accounts", len(s.state.Accounts),
		"communities", len(s.state.Communities),
		"payments", len(s.state.Payments),
		"messages", len(s.state.Messages),
	)
	return s, nil
}

func loadKey[T any](ctx context.Context, kv storage.KV, key string, out *[]T) error {
	err := loadValue(ctx, kv, key, out)
	if errors.Is(err, sentinel.ErrNotFound) {
		*out = nil
		return nil
	}
	return err
}

func loadValue(ctx context.Context, kv storage.KV, key string, out any) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		return fmt.Errorf("load %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

// Mutate stages a deep copy of the state, applies fn to it, flushes every
// collection to the KV in one atomic batch, and only then commits the staged
// copy. A failed flush leaves both memory and disk untouched, so no reader
// ever observes a partial transition.
func (s *Store) Mutate(ctx context.Context, fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := fn(&staged); err != nil {
		return err
	}

	values, err := staged.marshal()
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.kv.SetMulti(ctx, values); err != nil {
		return fmt.Errorf("flush state: %w", err)
	}

	// The session key is absent while logged out; SetMulti cannot delete.
	if staged.Session == nil && s.state.Session != nil {
		if err := s.kv.Delete(ctx, storage.KeySession); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}

	s.state = staged
	return nil
}

func (st *State) clone() State {
	out := State{
		Accounts: append([]directory.Account(nil), st.Accounts...),
		Payments: make([]payment.Payment, 0, len(st.Payments)),
		Messages: append([]board.Message(nil), st.Messages...),
	}
	out.Communities = make([]community.Community, 0, len(st.Communities))
	for i := range st.Communities {
		out.Communities = append(out.Communities, *st.Communities[i].Clone())
	}
	for i := range st.Payments {
		out.Payments = append(out.Payments, *st.Payments[i].Clone())
	}
	if st.Session != nil {
		session := *st.Session
		out.Session = &session
	}
	return out
}

func (st *State) marshal() (map[string][]byte, error) {
	values := make(map[string][]byte, 5)

	for key, v := range map[string]any{
		storage.KeyAccounts:    emptyAsList(st.Accounts),
		storage.KeyCommunities: emptyAsList(st.Communities),
		storage.KeyPayments:    emptyAsList(st.Payments),
		storage.KeyMessages:    emptyAsList(st.Messages),
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		values[key] = raw
	}

	if st.Session != nil {
		raw, err := json.Marshal(st.Session.Stripped())
		if err != nil {
			return nil, err
		}
		values[storage.KeySession] = raw
	}
	return values, nil
}

// emptyAsList keeps nil slices serialized as [] so hydration and the
// round-trip property never distinguish empty from absent.
func emptyAsList[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// FindAccount looks up the account in fn's staged state by ID. Helper for
// mutation callbacks.
func (st *State) FindAccount(accountID id.AccountID) *directory.Account {
	for i := range st.Accounts {
		if st.Accounts[i].ID == accountID {
			return &st.Accounts[i]
		}
	}
	return nil
}

// FindCommunity looks up a community in the staged state by ID.
func (st *State) FindCommunity(communityID id.CommunityID) *community.Community {
	for i := range st.Communities {
		if st.Communities[i].ID == communityID {
			return &st.Communities[i]
		}
	}
	return nil
}

// FindCommunityByInvitation locates the community owning an invitation.
// The acceptance flow calls this once, before any mutation, and threads the
// result through explicitly.
func (st *State) FindCommunityByInvitation(invitationID id.InvitationID) *community.Community {
	for i := range st.Communities {
		if st.Communities[i].FindInvitation(invitationID) != nil {
			return &st.Communities[i]
		}
	}
	return nil
}

// FindPayment looks up a payment in the staged state by ID.
func (st *State) FindPayment(paymentID id.PaymentID) *payment.Payment {
	for i := range st.Payments {
		if st.Payments[i].ID == paymentID {
			return &st.Payments[i]
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Read accessors. All return copies; the live state never escapes the lock.
// -----------------------------------------------------------------------------

// AccountByApartment returns the full directory record, password included.
// Only the directory service should call this.
func (s *Store) AccountByApartment(apartmentNumber string) (directory.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.state.Accounts {
		if a.ApartmentNumber == apartmentNumber {
			return a, true
		}
	}
	return directory.Account{}, false
}

// AccountByID returns the full directory record by ID.
func (s *Store) AccountByID(accountID id.AccountID) (directory.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.state.Accounts {
		if a.ID == accountID {
			return a, true
		}
	}
	return directory.Account{}, false
}

// Accounts returns a copy of the directory records.
func (s *Store) Accounts() []directory.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]directory.Account(nil), s.state.Accounts...)
}

// Communities returns deep copies of every community.
func (s *Store) Communities() []community.Community {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]community.Community, 0, len(s.state.Communities))
	for i := range s.state.Communities {
		out = append(out, *s.state.Communities[i].Clone())
	}
	return out
}

// CommunityByID returns a deep copy of one community.
func (s *Store) CommunityByID(communityID id.CommunityID) (community.Community, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.state.Communities {
		if s.state.Communities[i].ID == communityID {
			return *s.state.Communities[i].Clone(), true
		}
	}
	return community.Community{}, false
}

// CommunityByInvitation returns a deep copy of the community whose
// invitation list contains the given id.
func (s *Store) CommunityByInvitation(invitationID id.InvitationID) (community.Community, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.state.Communities {
		if s.state.Communities[i].FindInvitation(invitationID) != nil {
			return *s.state.Communities[i].Clone(), true
		}
	}
	return community.Community{}, false
}

// PaymentsFor returns copies of a community's payments in creation order.
func (s *Store) PaymentsFor(communityID id.CommunityID) []payment.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []payment.Payment
	for i := range s.state.Payments {
		if s.state.Payments[i].CommunityID == communityID {
			out = append(out, *s.state.Payments[i].Clone())
		}
	}
	return out
}

// PaymentByID returns a copy of one payment.
func (s *Store) PaymentByID(paymentID id.PaymentID) (payment.Payment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.state.Payments {
		if s.state.Payments[i].ID == paymentID {
			return *s.state.Payments[i].Clone(), true
		}
	}
	return payment.Payment{}, false
}

// MessagesFor returns a community's board in posting order.
func (s *Store) MessagesFor(communityID id.CommunityID) []board.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []board.Message
	for _, m := range s.state.Messages {
		if m.CommunityID == communityID {
			out = append(out, m)
		}
	}
	return out
}

// Session returns the password-stripped account of the current login.
func (s *Store) Session() (directory.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Session == nil {
		return directory.Account{}, false
	}
	// The session never leaves the gateway with a password attached.
	return s.state.Session.Stripped(), true
}
