// Package service implements community listing, join requests and the
// invitation lifecycle.
package service

import (
	"context"
	"log/slog"

	internalaudit "courtyard/internal/audit"
	community "courtyard/internal/community/models"
	directory "courtyard/internal/directory/models"
	"courtyard/internal/platform/metrics"
	"courtyard/internal/state"
	id "courtyard/pkg/domain"
	dErrors "courtyard/pkg/domain-errors"
	audit "courtyard/pkg/platform/audit"
	"courtyard/pkg/requestcontext"
)

// Service orchestrates community membership against the shared state store.
type Service struct {
	state   *state.Store
	logger  *slog.Logger
	emitter *internalaudit.Emitter
	metrics *metrics.Metrics

	auditPublisher internalaudit.Publisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher internalaudit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service over the shared state store.
func New(st *state.Store, opts ...Option) *Service {
	s := &Service{
		state:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.emitter = internalaudit.NewEmitter(s.logger, s.auditPublisher)
	return s
}

// List returns every community, pending invitations included, so callers can
// check membership and pending state without extra round trips.
func (s *Service) List(ctx context.Context) []community.Community {
	return s.state.Communities()
}

// Community returns one community by ID.
func (s *Service) Community(ctx context.Context, communityID id.CommunityID) (community.Community, error) {
	comm, ok := s.state.CommunityByID(communityID)
	if !ok {
		return community.Community{}, dErrors.New(dErrors.CodeNotFound, "community not found")
	}
	return comm, nil
}

// HasPendingInvitation reports whether the account has an open join request
// for the community. Callers use it to pre-empt the conflict RequestToJoin
// would return.
func (s *Service) HasPendingInvitation(ctx context.Context, accountID id.AccountID, communityID id.CommunityID) (bool, error) {
	comm, ok := s.state.CommunityByID(communityID)
	if !ok {
		return false, dErrors.New(dErrors.CodeNotFound, "community not found")
	}
	return comm.HasPendingInvitation(accountID), nil
}

// RequestToJoin files a pending invitation for the actor. At most one
// pending invitation per account and community may exist; re-requesting
// while one is open is a conflict and mutates nothing.
func (s *Service) RequestToJoin(ctx context.Context, actorID id.AccountID, communityID id.CommunityID) (community.Invitation, error) {
	var created community.Invitation
	err := s.state.Mutate(ctx, func(st *state.State) error {
		account := st.FindAccount(actorID)
		if account == nil {
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		if account.InCommunity() {
			return dErrors.New(dErrors.CodeConflict, "account already belongs to a community")
		}
		comm := st.FindCommunity(communityID)
		if comm == nil {
			return dErrors.New(dErrors.CodeNotFound, "community not found")
		}
		if err := comm.CanInvite(actorID); err != nil {
			return err
		}
		created = community.NewInvitation(id.NewInvitationID(), actorID, account.FullName, communityID, requestcontext.Now(ctx))
		comm.ApplyInvite(created)
		return nil
	})
	if err != nil {
		return community.Invitation{}, err
	}

	s.emitter.Emit(ctx, audit.EventInvitationSent, actorID, created.UserName, "")
	s.logger.InfoContext(ctx, "join requested",
		"account_id", actorID,
		"community_id", communityID,
		"invitation_id", created.ID,
	)
	return created, nil
}

// Accept completes the actor's own pending invitation. Three effects land in
// one atomic mutation: the invitation flips to accepted, the actor joins the
// community roster, and the account record gains the community reference.
// A failed flush leaves none of them visible.
func (s *Service) Accept(ctx context.Context, actorID id.AccountID, invitationID id.InvitationID) (directory.Account, error) {
	var joined directory.Account
	var communityID id.CommunityID
	err := s.state.Mutate(ctx, func(st *state.State) error {
		comm := st.FindCommunityByInvitation(invitationID)
		if comm == nil {
			return dErrors.New(dErrors.CodeNotFound, "invitation not found")
		}
		inv := comm.FindInvitation(invitationID)
		if err := inv.CanAccept(actorID); err != nil {
			return err
		}
		account := st.FindAccount(actorID)
		if account == nil {
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		// The request-time check does not survive a second pending
		// invitation at another community; re-check at accept time.
		if account.InCommunity() {
			return dErrors.New(dErrors.CodeConflict, "account already belongs to a community")
		}

		inv.ApplyAccept()
		account.ApplyMembership(comm.ID, comm.Name)
		comm.ApplyJoin(*account)
		// Membership is exclusive, so any other request the actor still
		// has open is now moot.
		for i := range st.Communities {
			st.Communities[i].ClosePendingFor(actorID)
		}
		if st.Session != nil && st.Session.ID == actorID {
			session := account.Stripped()
			st.Session = &session
		}

		joined = *account
		communityID = comm.ID
		return nil
	})
	if err != nil {
		return directory.Account{}, err
	}

	s.emitter.Emit(ctx, audit.EventInvitationAccepted, actorID, joined.CommunityName, "")
	if s.metrics != nil {
		s.metrics.InvitationsAccepted.Inc()
	}
	s.logger.InfoContext(ctx, "invitation accepted",
		"account_id", actorID,
		"community_id", communityID,
		"invitation_id", invitationID,
	)
	return joined.Stripped(), nil
}

// Reject closes a pending invitation without any membership change. Only the
// community's admin may reject.
func (s *Service) Reject(ctx context.Context, actorID id.AccountID, invitationID id.InvitationID) error {
	var subject string
	err := s.state.Mutate(ctx, func(st *state.State) error {
		comm := st.FindCommunityByInvitation(invitationID)
		if comm == nil {
			return dErrors.New(dErrors.CodeNotFound, "invitation not found")
		}
		if comm.AdminID != actorID {
			return dErrors.New(dErrors.CodeForbidden, "only the community admin can reject invitations")
		}
		inv := comm.FindInvitation(invitationID)
		if err := inv.CanReject(); err != nil {
			return err
		}
		inv.ApplyReject()
		subject = inv.UserName
		return nil
	})
	if err != nil {
		return err
	}

	s.emitter.Emit(ctx, audit.EventInvitationRejected, actorID, subject, "")
	return nil
}
