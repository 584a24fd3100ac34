package httptransport

import (
	"net/http"

	directory "courtyard/internal/directory/models"
	directoryservice "courtyard/internal/directory/service"
	dErrors "courtyard/pkg/domain-errors"
	"courtyard/pkg/platform/audit"
	"courtyard/pkg/platform/httputil"
	"courtyard/pkg/requestcontext"
)

type signupRequest struct {
	FullName        string `json:"full_name"`
	ApartmentNumber string `json:"apartment_number"`
	Password        string `json:"password"`
	Role            string `json:"role"`
	CommunityName   string `json:"community_name,omitempty"`
}

type loginRequest struct {
	ApartmentNumber string `json:"apartment_number"`
	Password        string `json:"password"`
}

type authResponse struct {
	Token   string            `json:"token"`
	Account directory.Account `json:"account"`
}

type profileUpdateRequest struct {
	PhoneNumber  string `json:"phone_number,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[signupRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.directory.Register(r.Context(), directoryservice.RegisterParams{
		FullName:        req.FullName,
		ApartmentNumber: req.ApartmentNumber,
		Password:        req.Password,
		Role:            directory.Role(req.Role),
		CommunityName:   req.CommunityName,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := h.tokens.GenerateAccessToken(account.ID, h.tokenTTL)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "token generation failed", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to issue token"))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, authResponse{Token: token, Account: account})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[loginRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.directory.Authenticate(r.Context(), req.ApartmentNumber, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := h.tokens.GenerateAccessToken(account.ID, h.tokenTTL)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "token generation failed", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to issue token"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, authResponse{Token: token, Account: account})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.directory.Logout(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	account, ok := h.directory.Session(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no active session"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) handleMyAudit(w http.ResponseWriter, r *http.Request) {
	events, err := h.auditLog.List(r.Context(), requestcontext.AccountID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	account, err := h.directory.Account(r.Context(), requestcontext.AccountID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[profileUpdateRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.directory.UpdateProfile(r.Context(), requestcontext.AccountID(r.Context()), req.PhoneNumber, req.ProfileImage)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}
