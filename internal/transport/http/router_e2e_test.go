package httptransport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	board "courtyard/internal/board/models"
	boardservice "courtyard/internal/board/service"
	community "courtyard/internal/community/models"
	communityservice "courtyard/internal/community/service"
	directory "courtyard/internal/directory/models"
	directoryservice "courtyard/internal/directory/service"
	jwttoken "courtyard/internal/jwt_token"
	payment "courtyard/internal/payment/models"
	paymentservice "courtyard/internal/payment/service"
	"courtyard/internal/state"
	"courtyard/internal/storage"
	"courtyard/pkg/platform/audit"
	"courtyard/pkg/platform/audit/publisher"
	auditmemory "courtyard/pkg/platform/audit/store/memory"
)

// RouterFlowSuite drives the full resident journey through the real router
// and services: admin signup, member signup, join request, acceptance,
// payment posting and the message board.
type RouterFlowSuite struct {
	suite.Suite
	router http.Handler
}

func (s *RouterFlowSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := state.Open(s.T().Context(), storage.NewMemory(), logger)
	s.Require().NoError(err)

	tokens := jwttoken.NewJWTService("e2e-test-key", "courtyard")
	auditPub := publisher.NewPublisher(auditmemory.NewInMemoryStore())
	h := NewHandler(
		logger,
		directoryservice.New(st, directoryservice.WithLogger(logger), directoryservice.WithAuditPublisher(auditPub)),
		communityservice.New(st, communityservice.WithLogger(logger), communityservice.WithAuditPublisher(auditPub)),
		paymentservice.New(st, paymentservice.WithLogger(logger)),
		boardservice.New(st, boardservice.WithLogger(logger)),
		tokens,
		auditPub,
		time.Hour,
	)
	s.router = NewRouter(h, nil)
}

func TestRouterFlowSuite(t *testing.T) {
	suite.Run(t, new(RouterFlowSuite))
}

func (s *RouterFlowSuite) request(method, path, token string, body any, out any) int {
	rec := doJSON(s.T(), s.router, method, path, body, token)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func (s *RouterFlowSuite) signup(req signupRequest) authResponse {
	var resp authResponse
	code := s.request(http.MethodPost, "/auth/signup", "", req, &resp)
	s.Require().Equal(http.StatusCreated, code)
	s.Require().NotEmpty(resp.Token)
	return resp
}

func (s *RouterFlowSuite) TestResidentJourney() {
	admin := s.signup(signupRequest{
		FullName:        "Alice Admin",
		ApartmentNumber: "1A",
		Password:        "secret",
		Role:            "admin",
		CommunityName:   "Maple Court",
	})
	member := s.signup(signupRequest{
		FullName:        "Bob Resident",
		ApartmentNumber: "4B",
		Password:        "secret",
		Role:            "member",
	})

	var communities []community.Community
	code := s.request(http.MethodGet, "/communities", member.Token, nil, &communities)
	s.Require().Equal(http.StatusOK, code)
	s.Require().Len(communities, 1)
	commID := communities[0].ID.String()

	// Bob asks to join Maple Court.
	var inv community.Invitation
	code = s.request(http.MethodPost, "/communities/"+commID+"/join", member.Token, nil, &inv)
	s.Require().Equal(http.StatusCreated, code)

	var pending map[string]bool
	code = s.request(http.MethodGet, "/communities/"+commID+"/invitations/pending", member.Token, nil, &pending)
	s.Require().Equal(http.StatusOK, code)
	s.True(pending["pending"])

	// A second request while pending is refused.
	code = s.request(http.MethodPost, "/communities/"+commID+"/join", member.Token, nil, nil)
	s.Equal(http.StatusConflict, code)

	// Bob accepts; the account now carries the community.
	var joined directory.Account
	code = s.request(http.MethodPost, "/invitations/"+inv.ID.String()+"/accept", member.Token, nil, &joined)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("Maple Court", joined.CommunityName)

	// Alice posts a payment; both residents are billed unpaid.
	var p payment.Payment
	code = s.request(http.MethodPost, "/payments", admin.Token, createPaymentRequest{Amount: 120.50}, &p)
	s.Require().Equal(http.StatusCreated, code)
	s.Require().Len(p.Members, 2)

	// Bob cannot post payments.
	code = s.request(http.MethodPost, "/payments", member.Token, createPaymentRequest{Amount: 10}, nil)
	s.Equal(http.StatusForbidden, code)

	// Alice marks Bob paid; statistics reflect it.
	code = s.request(http.MethodPut, "/payments/"+p.ID.String()+"/members/"+joined.ID.String(), admin.Token, setPaidStatusRequest{Status: "paid"}, nil)
	s.Require().Equal(http.StatusOK, code)

	var stats payment.Statistics
	code = s.request(http.MethodGet, "/payments/"+p.ID.String()+"/statistics", admin.Token, nil, &stats)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(payment.Statistics{TotalMembers: 2, TotalPaid: 1, TotalUnpaid: 1}, stats)

	// The board carries messages both ways.
	var msg board.Message
	code = s.request(http.MethodPost, "/messages", admin.Token, postMessageRequest{Content: "Water shutoff on Monday"}, &msg)
	s.Require().Equal(http.StatusCreated, code)
	s.True(msg.FromAdmin)

	var messages []board.Message
	code = s.request(http.MethodGet, "/messages", member.Token, nil, &messages)
	s.Require().Equal(http.StatusOK, code)
	s.Require().Len(messages, 1)

	// Logout then login again with the same credentials.
	code = s.request(http.MethodPost, "/auth/logout", member.Token, nil, nil)
	s.Equal(http.StatusNoContent, code)

	var relogin authResponse
	code = s.request(http.MethodPost, "/auth/login", "", loginRequest{ApartmentNumber: "4B", Password: "secret"}, &relogin)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("Maple Court", relogin.Account.CommunityName)
}

func (s *RouterFlowSuite) TestSessionAndAuditEndpoints() {
	admin := s.signup(signupRequest{
		FullName:        "Alice Admin",
		ApartmentNumber: "1A",
		Password:        "secret",
		Role:            "admin",
		CommunityName:   "Maple Court",
	})

	// The persisted session mirrors the signup and never carries a password.
	var session directory.Account
	code := s.request(http.MethodGet, "/session", admin.Token, nil, &session)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("1A", session.ApartmentNumber)
	s.Empty(session.Password)

	// Signup left a trail the resident can read back.
	var events []audit.Event
	code = s.request(http.MethodGet, "/me/audit", admin.Token, nil, &events)
	s.Require().Equal(http.StatusOK, code)
	s.Require().NotEmpty(events)
	s.Equal(admin.Account.ID, events[0].AccountID)

	// After logout there is no session to report.
	code = s.request(http.MethodPost, "/auth/logout", admin.Token, nil, nil)
	s.Require().Equal(http.StatusNoContent, code)
	code = s.request(http.MethodGet, "/session", admin.Token, nil, nil)
	s.Equal(http.StatusNotFound, code)
}

func (s *RouterFlowSuite) TestRejectFlow() {
	admin := s.signup(signupRequest{
		FullName:        "Alice Admin",
		ApartmentNumber: "1A",
		Password:        "secret",
		Role:            "admin",
		CommunityName:   "Maple Court",
	})
	member := s.signup(signupRequest{
		FullName:        "Bob Resident",
		ApartmentNumber: "4B",
		Password:        "secret",
		Role:            "member",
	})

	var communities []community.Community
	s.request(http.MethodGet, "/communities", member.Token, nil, &communities)
	s.Require().Len(communities, 1)
	commID := communities[0].ID.String()

	var inv community.Invitation
	code := s.request(http.MethodPost, "/communities/"+commID+"/join", member.Token, nil, &inv)
	s.Require().Equal(http.StatusCreated, code)

	// Bob cannot reject his own request; only the admin can.
	code = s.request(http.MethodPost, "/invitations/"+inv.ID.String()+"/reject", member.Token, nil, nil)
	s.Equal(http.StatusForbidden, code)

	code = s.request(http.MethodPost, "/invitations/"+inv.ID.String()+"/reject", admin.Token, nil, nil)
	s.Require().Equal(http.StatusNoContent, code)

	// Accepting a rejected invitation is refused.
	code = s.request(http.MethodPost, "/invitations/"+inv.ID.String()+"/accept", member.Token, nil, nil)
	s.Equal(http.StatusConflict, code)
}
