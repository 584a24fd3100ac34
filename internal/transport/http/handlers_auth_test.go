package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	directory "courtyard/internal/directory/models"
	directoryservice "courtyard/internal/directory/service"
	"courtyard/internal/transport/http/mocks"
	id "courtyard/pkg/domain"
	dErrors "courtyard/pkg/domain-errors"
	"courtyard/pkg/platform/audit/publisher"
	auditmemory "courtyard/pkg/platform/audit/store/memory"
)

func newMockedRouter(t *testing.T) (*mocks.MockDirectoryService, *mocks.MockTokenIssuer, http.Handler) {
	t.Helper()
	ctrl := gomock.NewController(t)
	dirSvc := mocks.NewMockDirectoryService(ctrl)
	tokens := mocks.NewMockTokenIssuer(ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditPub := publisher.NewPublisher(auditmemory.NewInMemoryStore())
	h := NewHandler(logger, dirSvc, nil, nil, nil, tokens, auditPub, time.Hour)
	return dirSvc, tokens, NewRouter(h, nil)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleSignup(t *testing.T) {
	account := directory.Account{
		ID:              id.NewAccountID(),
		FullName:        "Bob Resident",
		ApartmentNumber: "4B",
		Role:            directory.RoleMember,
	}

	t.Run("201 on success with token", func(t *testing.T) {
		dirSvc, tokens, router := newMockedRouter(t)
		dirSvc.EXPECT().Register(gomock.Any(), directoryservice.RegisterParams{
			FullName:        "Bob Resident",
			ApartmentNumber: "4B",
			Password:        "secret",
			Role:            directory.RoleMember,
		}).Return(account, nil)
		tokens.EXPECT().GenerateAccessToken(account.ID, time.Hour).Return("signed-token", nil)

		rec := doJSON(t, router, http.MethodPost, "/auth/signup", signupRequest{
			FullName:        "Bob Resident",
			ApartmentNumber: "4B",
			Password:        "secret",
			Role:            "member",
		}, "")

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp authResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "signed-token", resp.Token)
		assert.Equal(t, account.ID, resp.Account.ID)
	})

	t.Run("409 on duplicate apartment", func(t *testing.T) {
		dirSvc, _, router := newMockedRouter(t)
		dirSvc.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(directory.Account{}, dErrors.New(dErrors.CodeConflict, "apartment number already registered"))

		rec := doJSON(t, router, http.MethodPost, "/auth/signup", signupRequest{
			FullName:        "Bob Resident",
			ApartmentNumber: "4B",
			Password:        "secret",
			Role:            "member",
		}, "")

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("400 on malformed body", func(t *testing.T) {
		dirSvc, _, router := newMockedRouter(t)
		dirSvc.EXPECT().Register(gomock.Any(), gomock.Any()).Times(0)

		req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	account := directory.Account{
		ID:              id.NewAccountID(),
		FullName:        "Bob Resident",
		ApartmentNumber: "4B",
		Role:            directory.RoleMember,
	}

	t.Run("200 on success", func(t *testing.T) {
		dirSvc, tokens, router := newMockedRouter(t)
		dirSvc.EXPECT().Authenticate(gomock.Any(), "4B", "secret").Return(account, nil)
		tokens.EXPECT().GenerateAccessToken(account.ID, time.Hour).Return("signed-token", nil)

		rec := doJSON(t, router, http.MethodPost, "/auth/login", loginRequest{
			ApartmentNumber: "4B",
			Password:        "secret",
		}, "")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp authResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "signed-token", resp.Token)
	})

	t.Run("401 on bad credentials", func(t *testing.T) {
		dirSvc, _, router := newMockedRouter(t)
		dirSvc.EXPECT().Authenticate(gomock.Any(), "4B", "wrong").
			Return(directory.Account{}, dErrors.New(dErrors.CodeUnauthorized, "invalid apartment number or password"))

		rec := doJSON(t, router, http.MethodPost, "/auth/login", loginRequest{
			ApartmentNumber: "4B",
			Password:        "wrong",
		}, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandleMe(t *testing.T) {
	account := directory.Account{
		ID:              id.NewAccountID(),
		FullName:        "Bob Resident",
		ApartmentNumber: "4B",
		Role:            directory.RoleMember,
	}

	t.Run("200 with valid token", func(t *testing.T) {
		dirSvc, tokens, router := newMockedRouter(t)
		tokens.EXPECT().ExtractAccountID("valid-token").Return(account.ID, nil)
		dirSvc.EXPECT().Account(gomock.Any(), account.ID).Return(account, nil)

		rec := doJSON(t, router, http.MethodGet, "/me", nil, "valid-token")

		require.Equal(t, http.StatusOK, rec.Code)
		var got directory.Account
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, account.ID, got.ID)
	})

	t.Run("401 without token", func(t *testing.T) {
		_, _, router := newMockedRouter(t)
		rec := doJSON(t, router, http.MethodGet, "/me", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("401 with invalid token", func(t *testing.T) {
		_, tokens, router := newMockedRouter(t)
		tokens.EXPECT().ExtractAccountID("bad-token").
			Return(id.AccountID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))

		rec := doJSON(t, router, http.MethodGet, "/me", nil, "bad-token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandleSession(t *testing.T) {
	account := directory.Account{
		ID:              id.NewAccountID(),
		FullName:        "Bob Resident",
		ApartmentNumber: "4B",
		Role:            directory.RoleMember,
	}

	t.Run("200 when signed in", func(t *testing.T) {
		dirSvc, tokens, router := newMockedRouter(t)
		tokens.EXPECT().ExtractAccountID("valid-token").Return(account.ID, nil)
		dirSvc.EXPECT().Session(gomock.Any()).Return(account, true)

		rec := doJSON(t, router, http.MethodGet, "/session", nil, "valid-token")

		require.Equal(t, http.StatusOK, rec.Code)
		var got directory.Account
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, account.ID, got.ID)
	})

	t.Run("404 when signed out", func(t *testing.T) {
		dirSvc, tokens, router := newMockedRouter(t)
		tokens.EXPECT().ExtractAccountID("valid-token").Return(account.ID, nil)
		dirSvc.EXPECT().Session(gomock.Any()).Return(directory.Account{}, false)

		rec := doJSON(t, router, http.MethodGet, "/session", nil, "valid-token")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleMyAudit(t *testing.T) {
	accountID := id.NewAccountID()

	// The mocked router carries a real in-memory audit trail, empty here.
	_, tokens, router := newMockedRouter(t)
	tokens.EXPECT().ExtractAccountID("valid-token").Return(accountID, nil)

	rec := doJSON(t, router, http.MethodGet, "/me/audit", nil, "valid-token")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandleUpdateProfile(t *testing.T) {
	account := directory.Account{
		ID:              id.NewAccountID(),
		FullName:        "Bob Resident",
		ApartmentNumber: "4B",
		Role:            directory.RoleMember,
		PhoneNumber:     "+34 600 123 456",
	}

	dirSvc, tokens, router := newMockedRouter(t)
	tokens.EXPECT().ExtractAccountID("valid-token").Return(account.ID, nil)
	dirSvc.EXPECT().UpdateProfile(gomock.Any(), account.ID, "+34 600 123 456", "").Return(account, nil)

	rec := doJSON(t, router, http.MethodPatch, "/me/profile", profileUpdateRequest{
		PhoneNumber: "+34 600 123 456",
	}, "valid-token")

	require.Equal(t, http.StatusOK, rec.Code)
	var got directory.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "+34 600 123 456", got.PhoneNumber)
}

func TestHandleLogout(t *testing.T) {
	accountID := id.NewAccountID()

	dirSvc, tokens, router := newMockedRouter(t)
	tokens.EXPECT().ExtractAccountID("valid-token").Return(accountID, nil)
	dirSvc.EXPECT().Logout(gomock.Any()).Return(nil)

	rec := doJSON(t, router, http.MethodPost, "/auth/logout", nil, "valid-token")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
