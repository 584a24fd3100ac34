package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	id "courtyard/pkg/domain"
	"courtyard/pkg/platform/httputil"
	"courtyard/pkg/requestcontext"
)

func (h *Handler) handleListCommunities(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.communities.List(r.Context()))
}

func (h *Handler) handleRequestToJoin(w http.ResponseWriter, r *http.Request) {
	communityID, err := id.ParseCommunityID(chi.URLParam(r, "communityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	inv, err := h.communities.RequestToJoin(r.Context(), requestcontext.AccountID(r.Context()), communityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, inv)
}

func (h *Handler) handlePendingInvitation(w http.ResponseWriter, r *http.Request) {
	communityID, err := id.ParseCommunityID(chi.URLParam(r, "communityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	pending, err := h.communities.HasPendingInvitation(r.Context(), requestcontext.AccountID(r.Context()), communityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"pending": pending})
}

func (h *Handler) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	invitationID, err := id.ParseInvitationID(chi.URLParam(r, "invitationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.communities.Accept(r.Context(), requestcontext.AccountID(r.Context()), invitationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) handleRejectInvitation(w http.ResponseWriter, r *http.Request) {
	invitationID, err := id.ParseInvitationID(chi.URLParam(r, "invitationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.communities.Reject(r.Context(), requestcontext.AccountID(r.Context()), invitationID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
