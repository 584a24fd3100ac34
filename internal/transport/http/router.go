// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// the domain services and encode; business rules stay out of here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	board "courtyard/internal/board/models"
	community "courtyard/internal/community/models"
	directory "courtyard/internal/directory/models"
	directoryservice "courtyard/internal/directory/service"
	payment "courtyard/internal/payment/models"
	"courtyard/internal/platform/metrics"
	"courtyard/internal/platform/middleware"
	id "courtyard/pkg/domain"
	"courtyard/pkg/platform/audit"
	"courtyard/pkg/platform/httputil"
)

//go:generate mockgen -destination=mocks/service_mocks.go -package=mocks courtyard/internal/transport/http DirectoryService,TokenIssuer

// DirectoryService covers accounts and sessions.
type DirectoryService interface {
	Register(ctx context.Context, params directoryservice.RegisterParams) (directory.Account, error)
	Authenticate(ctx context.Context, apartmentNumber, password string) (directory.Account, error)
	Account(ctx context.Context, accountID id.AccountID) (directory.Account, error)
	Session(ctx context.Context) (directory.Account, bool)
	UpdateProfile(ctx context.Context, accountID id.AccountID, phoneNumber, profileImageRef string) (directory.Account, error)
	Logout(ctx context.Context) error
}

// CommunityService covers community listing and the invitation lifecycle.
type CommunityService interface {
	List(ctx context.Context) []community.Community
	Community(ctx context.Context, communityID id.CommunityID) (community.Community, error)
	HasPendingInvitation(ctx context.Context, accountID id.AccountID, communityID id.CommunityID) (bool, error)
	RequestToJoin(ctx context.Context, actorID id.AccountID, communityID id.CommunityID) (community.Invitation, error)
	Accept(ctx context.Context, actorID id.AccountID, invitationID id.InvitationID) (directory.Account, error)
	Reject(ctx context.Context, actorID id.AccountID, invitationID id.InvitationID) error
}

// PaymentService covers the payment-acknowledgment ledger.
type PaymentService interface {
	Create(ctx context.Context, actorID id.AccountID, amount float64) (payment.Payment, error)
	SetPaidStatus(ctx context.Context, actorID id.AccountID, paymentID id.PaymentID, memberID id.AccountID, status payment.MemberStatus) (payment.Payment, error)
	List(ctx context.Context, communityID id.CommunityID) []payment.Payment
	Statistics(ctx context.Context, paymentID id.PaymentID) (payment.Statistics, error)
}

// BoardService covers the community message board.
type BoardService interface {
	Post(ctx context.Context, actorID id.AccountID, content string) (board.Message, error)
	List(ctx context.Context, actorID id.AccountID, communityID id.CommunityID) ([]board.Message, error)
}

// TokenIssuer signs access tokens on login and signup.
type TokenIssuer interface {
	middleware.TokenValidator
	GenerateAccessToken(accountID id.AccountID, expiresIn time.Duration) (string, error)
}

// AuditLog is the per-account read side of the audit trail.
type AuditLog interface {
	List(ctx context.Context, accountID id.AccountID) ([]audit.Event, error)
}

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	logger      *slog.Logger
	directory   DirectoryService
	communities CommunityService
	payments    PaymentService
	board       BoardService
	tokens      TokenIssuer
	auditLog    AuditLog
	tokenTTL    time.Duration
}

func NewHandler(
	logger *slog.Logger,
	directorySvc DirectoryService,
	communitySvc CommunityService,
	paymentSvc PaymentService,
	boardSvc BoardService,
	tokens TokenIssuer,
	auditLog AuditLog,
	tokenTTL time.Duration,
) *Handler {
	return &Handler{
		logger:      logger,
		directory:   directorySvc,
		communities: communitySvc,
		payments:    paymentSvc,
		board:       boardSvc,
		tokens:      tokens,
		auditLog:    auditLog,
		tokenTTL:    tokenTTL,
	}
}

// NewRouter wires the middleware chain and every endpoint.
func NewRouter(h *Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/signup", h.handleSignup)
	r.Post("/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.tokens, h.logger))

		r.Post("/auth/logout", h.handleLogout)
		r.Get("/session", h.handleSession)
		r.Get("/me", h.handleMe)
		r.Patch("/me/profile", h.handleUpdateProfile)
		r.Get("/me/audit", h.handleMyAudit)

		r.Get("/communities", h.handleListCommunities)
		r.Post("/communities/{communityID}/join", h.handleRequestToJoin)
		r.Get("/communities/{communityID}/invitations/pending", h.handlePendingInvitation)
		r.Post("/invitations/{invitationID}/accept", h.handleAcceptInvitation)
		r.Post("/invitations/{invitationID}/reject", h.handleRejectInvitation)

		r.Get("/payments", h.handleListPayments)
		r.Post("/payments", h.handleCreatePayment)
		r.Get("/payments/{paymentID}/statistics", h.handlePaymentStatistics)
		r.Put("/payments/{paymentID}/members/{memberID}", h.handleSetPaidStatus)

		r.Get("/messages", h.handleListMessages)
		r.Post("/messages", h.handlePostMessage)
	})

	return r
}
