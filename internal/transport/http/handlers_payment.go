package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	payment "courtyard/internal/payment/models"
	id "courtyard/pkg/domain"
	dErrors "courtyard/pkg/domain-errors"
	"courtyard/pkg/platform/httputil"
	"courtyard/pkg/requestcontext"
)

type createPaymentRequest struct {
	Amount float64 `json:"amount"`
}

type setPaidStatusRequest struct {
	Status string `json:"status"`
}

// handleListPayments returns the ledger of the caller's community.
func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	account, err := h.directory.Account(r.Context(), requestcontext.AccountID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !account.InCommunity() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "account does not belong to a community"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.payments.List(r.Context(), account.CommunityID))
}

func (h *Handler) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[createPaymentRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.payments.Create(r.Context(), requestcontext.AccountID(r.Context()), req.Amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handlePaymentStatistics(w http.ResponseWriter, r *http.Request) {
	paymentID, err := id.ParsePaymentID(chi.URLParam(r, "paymentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	stats, err := h.payments.Statistics(r.Context(), paymentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleSetPaidStatus(w http.ResponseWriter, r *http.Request) {
	paymentID, err := id.ParsePaymentID(chi.URLParam(r, "paymentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	memberID, err := id.ParseAccountID(chi.URLParam(r, "memberID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.Decode[setPaidStatusRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.payments.SetPaidStatus(r.Context(), requestcontext.AccountID(r.Context()), paymentID, memberID, payment.MemberStatus(req.Status))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}
