// Package service implements the community message board.
package service

import (
	"context"
	"log/slog"

	internalaudit "courtyard/internal/audit"
	board "courtyard/internal/board/models"
	"courtyard/internal/platform/metrics"
	"courtyard/internal/state"
	id "courtyard/pkg/domain"
	dErrors "courtyard/pkg/domain-errors"
	audit "courtyard/pkg/platform/audit"
	"courtyard/pkg/requestcontext"
)

// Service posts and lists board messages for community members.
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

// Post publishes a message to the actor's community board. Any member may
// post; admin messages are flagged so clients can highlight them.
func (s *Service) Post(ctx context.Context, actorID id.AccountID, content string) (board.Message, error) {
	var created board.Message
	err := s.state.Mutate(ctx, func(st *state.State) error {
		account := st.FindAccount(actorID)
		if account == nil {
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		if !account.InCommunity() {
			return dErrors.New(dErrors.CodeBadRequest, "account does not belong to a community")
		}

		msg, err := board.NewMessage(id.NewMessageID(), account.CommunityID, actorID, account.FullName, content, account.IsAdmin(), requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		st.Messages = append(st.Messages, *msg)
		created = *msg
		return nil
	})
	if err != nil {
		return board.Message{}, err
	}

	s.emitter.Emit(ctx, audit.EventMessagePosted, actorID, created.CommunityID.String(), "")
	if s.metrics != nil {
		s.metrics.MessagesPosted.Inc()
	}
	return created, nil
}

// List returns the community's messages, oldest first. Only members may read
// the board.
func (s *Service) List(ctx context.Context, actorID id.AccountID, communityID id.CommunityID) ([]board.Message, error) {
	comm, ok := s.state.CommunityByID(communityID)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "community not found")
	}
	if !comm.IsMember(actorID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only community members can read the board")
	}
	return s.state.MessagesFor(communityID), nil
}
