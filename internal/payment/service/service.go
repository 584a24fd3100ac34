// Package service implements the payment-acknowledgment ledger: admins post
// payment requests, members get ticked off as they pay.
package service

import (
	"context"
	"log/slog"

	internalaudit "courtyard/internal/audit"
	payment "courtyard/internal/payment/models"
	"courtyard/internal/platform/metrics"
	"courtyard/internal/state"
	id "courtyard/pkg/domain"
	dErrors "courtyard/pkg/domain-errors"
	audit "courtyard/pkg/platform/audit"
	"courtyard/pkg/requestcontext"
)

// Service orchestrates the payment ledger against the shared state store.
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

// Create posts a payment request for the actor's community. The current
// roster is snapshotted with every member unpaid; members joining later do
// not appear on this payment. Only the community admin may post.
func (s *Service) Create(ctx context.Context, actorID id.AccountID, amount float64) (payment.Payment, error) {
	var created payment.Payment
	err := s.state.Mutate(ctx, func(st *state.State) error {
		account := st.FindAccount(actorID)
		if account == nil {
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		if !account.InCommunity() {
			return dErrors.New(dErrors.CodeBadRequest, "account does not belong to a community")
		}
		comm := st.FindCommunity(account.CommunityID)
		if comm == nil {
			return dErrors.New(dErrors.CodeInternal, "community record missing for member")
		}
		if comm.AdminID != actorID {
			return dErrors.New(dErrors.CodeForbidden, "only the community admin can create payments")
		}

		p, err := payment.NewPayment(id.NewPaymentID(), comm.ID, amount, comm.Members, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		st.Payments = append(st.Payments, *p)
		created = *p
		return nil
	})
	if err != nil {
		return payment.Payment{}, err
	}

	s.emitter.Emit(ctx, audit.EventPaymentCreated, actorID, created.ID.String(), "")
	if s.metrics != nil {
		s.metrics.PaymentsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "payment created",
		"payment_id", created.ID,
		"community_id", created.CommunityID,
		"amount", created.Amount,
	)
	return created, nil
}

// SetPaidStatus flips one member's flag on one payment. Setting the value
// already present is a no-op, not an error. Only the community admin may
// change flags.
func (s *Service) SetPaidStatus(ctx context.Context, actorID id.AccountID, paymentID id.PaymentID, memberID id.AccountID, status payment.MemberStatus) (payment.Payment, error) {
	if !status.Valid() {
		return payment.Payment{}, dErrors.New(dErrors.CodeBadRequest, "status must be paid or unpaid")
	}

	var updated payment.Payment
	err := s.state.Mutate(ctx, func(st *state.State) error {
		p := st.FindPayment(paymentID)
		if p == nil {
			return dErrors.New(dErrors.CodeNotFound, "payment not found")
		}
		comm := st.FindCommunity(p.CommunityID)
		if comm == nil {
			return dErrors.New(dErrors.CodeInternal, "community record missing for payment")
		}
		if comm.AdminID != actorID {
			return dErrors.New(dErrors.CodeForbidden, "only the community admin can update payment status")
		}
		if err := p.SetMemberStatus(memberID, status); err != nil {
			return err
		}
		updated = *p
		return nil
	})
	if err != nil {
		return payment.Payment{}, err
	}

	s.emitter.Emit(ctx, audit.EventPaymentStatusSet, actorID, updated.ID.String(), string(status))
	return updated, nil
}

// List returns the payments posted for one community, oldest first.
func (s *Service) List(ctx context.Context, communityID id.CommunityID) []payment.Payment {
	return s.state.PaymentsFor(communityID)
}

// Statistics recomputes the aggregate for one payment on every read.
func (s *Service) Statistics(ctx context.Context, paymentID id.PaymentID) (payment.Statistics, error) {
	p, ok := s.state.PaymentByID(paymentID)
	if !ok {
		return payment.Statistics{}, dErrors.New(dErrors.CodeNotFound, "payment not found")
	}
	return p.Statistics(), nil
}
