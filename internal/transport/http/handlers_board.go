package httptransport

import (
	"net/http"

	dErrors "courtyard/pkg/domain-errors"
	"courtyard/pkg/platform/httputil"
	"courtyard/pkg/requestcontext"
)

type postMessageRequest struct {
	Content string `json:"content"`
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	actorID := requestcontext.AccountID(r.Context())
	account, err := h.directory.Account(r.Context(), actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !account.InCommunity() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "account does not belong to a community"))
		return
	}

	messages, err := h.board.List(r.Context(), actorID, account.CommunityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messages)
}

func (h *Handler) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[postMessageRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	msg, err := h.board.Post(r.Context(), requestcontext.AccountID(r.Context()), req.Content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, msg)
}
