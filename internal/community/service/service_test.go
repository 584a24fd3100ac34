package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	community "courtyard/internal/community/models"
	directory "courtyard/internal/directory/models"
	directoryservice "courtyard/internal/directory/service"
	"courtyard/internal/state"
	"courtyard/internal/storage"
	id "courtyard/pkg/domain"
	dErrors "courtyard/pkg/domain-errors"

	"github.com/stretchr/testify/suite"
)

type CommunityServiceSuite struct {
	suite.Suite
	ctx       context.Context
	kv        *storage.Memory
	state     *state.Store
	svc       *Service
	directory *directoryservice.Service

	admin  directory.Account
	member directory.Account
	comm   community.Community
}

func (s *CommunityServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.kv = storage.NewMemory()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := state.Open(s.ctx, s.kv, logger)
	s.Require().NoError(err)
	s.state = st

	s.svc = New(st, WithLogger(logger))
	s.directory = directoryservice.New(st, directoryservice.WithLogger(logger))

	s.admin, err = s.directory.Register(s.ctx, directoryservice.RegisterParams{
		FullName:        "Alice Admin",
		ApartmentNumber: "1A",
		Password:        "secret",
		Role:            directory.RoleAdmin,
		CommunityName:   "Maple Court",
	})
	s.Require().NoError(err)

	s.member, err = s.directory.Register(s.ctx, directoryservice.RegisterParams{
		FullName:        "Bob Resident",
		ApartmentNumber: "4B",
		Password:        "secret",
		Role:            directory.RoleMember,
	})
	s.Require().NoError(err)

	communities := s.svc.List(s.ctx)
	s.Require().Len(communities, 1)
	s.comm = communities[0]
}

func TestCommunityServiceSuite(t *testing.T) {
	suite.Run(t, new(CommunityServiceSuite))
}

func (s *CommunityServiceSuite) TestRequestToJoin() {
	inv, err := s.svc.RequestToJoin(s.ctx, s.member.ID, s.comm.ID)
	s.Require().NoError(err)
	s.Equal(community.InvitationPending, inv.Status)
	s.Equal("Bob Resident", inv.UserName)

	pending, err := s.svc.HasPendingInvitation(s.ctx, s.member.ID, s.comm.ID)
	s.Require().NoError(err)
	s.True(pending)

	s.Run("second request while pending is a conflict", func() {
		_, err := s.svc.RequestToJoin(s.ctx, s.member.ID, s.comm.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		comm, err := s.svc.Community(s.ctx, s.comm.ID)
		s.Require().NoError(err)
		s.Len(comm.Invitations, 1, "failed request must not duplicate the invitation")
	})

	s.Run("admin cannot request to join their own community", func() {
		_, err := s.svc.RequestToJoin(s.ctx, s.admin.ID, s.comm.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown community", func() {
		_, err := s.svc.RequestToJoin(s.ctx, s.member.ID, id.NewCommunityID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CommunityServiceSuite) TestAccept() {
	inv, err := s.svc.RequestToJoin(s.ctx, s.member.ID, s.comm.ID)
	s.Require().NoError(err)

	joined, err := s.svc.Accept(s.ctx, s.member.ID, inv.ID)
	s.Require().NoError(err)

	// All three acceptance effects must be visible together.
	s.Run("invitation is accepted", func() {
		comm, err := s.svc.Community(s.ctx, s.comm.ID)
		s.Require().NoError(err)
		s.Require().Len(comm.Invitations, 1)
		s.Equal(community.InvitationAccepted, comm.Invitations[0].Status)
	})

	s.Run("member is on the roster", func() {
		comm, err := s.svc.Community(s.ctx, s.comm.ID)
		s.Require().NoError(err)
		s.True(comm.IsMember(s.member.ID))
		s.Len(comm.Members, 2)
	})

	s.Run("account carries the community reference", func() {
		s.Equal(s.comm.ID, joined.CommunityID)
		s.Equal("Maple Court", joined.CommunityName)

		stored, ok := s.state.AccountByID(s.member.ID)
		s.Require().True(ok)
		s.Equal(s.comm.ID, stored.CommunityID)
	})

	s.Run("session snapshot follows the account", func() {
		session, ok := s.state.Session()
		s.Require().True(ok)
		s.Equal(s.member.ID, session.ID)
		s.Equal(s.comm.ID, session.CommunityID)
	})
}

func (s *CommunityServiceSuite) TestAcceptMisuse() {
	inv, err := s.svc.RequestToJoin(s.ctx, s.member.ID, s.comm.ID)
	s.Require().NoError(err)

	s.Run("someone else's invitation is forbidden", func() {
		_, err := s.svc.Accept(s.ctx, s.admin.ID, inv.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		comm, err := s.svc.Community(s.ctx, s.comm.ID)
		s.Require().NoError(err)
		s.False(comm.IsMember(s.member.ID), "failed accept must not mutate the roster")
		s.Equal(community.InvitationPending, comm.Invitations[0].Status)
	})

	s.Run("unknown invitation", func() {
		_, err := s.svc.Accept(s.ctx, s.member.ID, id.NewInvitationID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("accepting twice", func() {
		_, err := s.svc.Accept(s.ctx, s.member.ID, inv.ID)
		s.Require().NoError(err)

		_, err = s.svc.Accept(s.ctx, s.member.ID, inv.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		comm, err := s.svc.Community(s.ctx, s.comm.ID)
		s.Require().NoError(err)
		s.Len(comm.Members, 2, "double accept must not duplicate the member")
	})
}

func (s *CommunityServiceSuite) TestReject() {
	inv, err := s.svc.RequestToJoin(s.ctx, s.member.ID, s.comm.ID)
	s.Require().NoError(err)

	s.Run("only the admin can reject", func() {
		err := s.svc.Reject(s.ctx, s.member.ID, inv.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin rejects without membership change", func() {
		s.Require().NoError(s.svc.Reject(s.ctx, s.admin.ID, inv.ID))

		comm, err := s.svc.Community(s.ctx, s.comm.ID)
		s.Require().NoError(err)
		s.Require().Len(comm.Invitations, 1)
		s.Equal(community.InvitationRejected, comm.Invitations[0].Status)
		s.False(comm.IsMember(s.member.ID))

		stored, ok := s.state.AccountByID(s.member.ID)
		s.Require().True(ok)
		s.False(stored.InCommunity())
	})

	s.Run("rejection is terminal", func() {
		_, err := s.svc.Accept(s.ctx, s.member.ID, inv.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("re-request after rejection is allowed", func() {
		again, err := s.svc.RequestToJoin(s.ctx, s.member.ID, s.comm.ID)
		s.Require().NoError(err)
		s.Equal(community.InvitationPending, again.Status)
	})
}

func (s *CommunityServiceSuite) TestAcceptIsExclusive() {
	_, err := s.directory.Register(s.ctx, directoryservice.RegisterParams{
		FullName:        "Carol Admin",
		ApartmentNumber: "2C",
		Password:        "secret",
		Role:            directory.RoleAdmin,
		CommunityName:   "Oak Grove",
	})
	s.Require().NoError(err)

	var oak community.Community
	for _, c := range s.svc.List(s.ctx) {
		if c.Name == "Oak Grove" {
			oak = c
		}
	}
	s.Require().False(oak.ID.IsNil())

	// Bob files requests at both communities, then joins Maple Court.
	invMaple, err := s.svc.RequestToJoin(s.ctx, s.member.ID, s.comm.ID)
	s.Require().NoError(err)
	invOak, err := s.svc.RequestToJoin(s.ctx, s.member.ID, oak.ID)
	s.Require().NoError(err)

	_, err = s.svc.Accept(s.ctx, s.member.ID, invMaple.ID)
	s.Require().NoError(err)

	s.Run("the other pending request is closed", func() {
		pending, err := s.svc.HasPendingInvitation(s.ctx, s.member.ID, oak.ID)
		s.Require().NoError(err)
		s.False(pending)

		got, err := s.svc.Community(s.ctx, oak.ID)
		s.Require().NoError(err)
		s.Require().Len(got.Invitations, 1)
		s.Equal(community.InvitationRejected, got.Invitations[0].Status)
	})

	s.Run("accepting the closed request changes nothing", func() {
		_, err := s.svc.Accept(s.ctx, s.member.ID, invOak.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		got, err := s.svc.Community(s.ctx, oak.ID)
		s.Require().NoError(err)
		s.False(got.IsMember(s.member.ID))

		stored, ok := s.state.AccountByID(s.member.ID)
		s.Require().True(ok)
		s.Equal(s.comm.ID, stored.CommunityID, "membership stays with the accepted community")
	})

	s.Run("a member cannot accept even a still-pending request", func() {
		var crafted community.Invitation
		err := s.state.Mutate(s.ctx, func(st *state.State) error {
			crafted = community.NewInvitation(id.NewInvitationID(), s.member.ID, s.member.FullName, oak.ID, time.Now())
			st.FindCommunity(oak.ID).ApplyInvite(crafted)
			return nil
		})
		s.Require().NoError(err)

		_, err = s.svc.Accept(s.ctx, s.member.ID, crafted.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		got, err := s.svc.Community(s.ctx, oak.ID)
		s.Require().NoError(err)
		s.False(got.IsMember(s.member.ID))
	})
}

func (s *CommunityServiceSuite) TestAcceptSurvivesReopen() {
	inv, err := s.svc.RequestToJoin(s.ctx, s.member.ID, s.comm.ID)
	s.Require().NoError(err)
	_, err = s.svc.Accept(s.ctx, s.member.ID, inv.ID)
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reopened, err := state.Open(s.ctx, s.kv, logger)
	s.Require().NoError(err)

	comm, ok := reopened.CommunityByID(s.comm.ID)
	s.Require().True(ok)
	s.True(comm.IsMember(s.member.ID))

	account, ok := reopened.AccountByID(s.member.ID)
	s.Require().True(ok)
	s.Equal(s.comm.ID, account.CommunityID)
}
