package api

import (
	"net/http"

	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/fastprodman/arcadeledger/internal/services/balance"
	"github.com/google/uuid"
)

// GetBalanceHandler handles GET /me/balance
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	acc, err := h.ledger.Balance(r.Context(), accountIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountView(acc))
}

// ListEntriesHandler handles GET /me/entries?limit=N
func (h *HandlerProvider) ListEntriesHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.ledger.History(r.Context(), accountIDFrom(r.Context()), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": newEntryViews(list)})
}

// ClaimBonusHandler handles POST /me/bonus/claim
func (h *HandlerProvider) ClaimBonusHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.ledger.ClaimBonus(r.Context(), accountIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newSettlementView(st))
}

type paymentRequest struct {
	Amount        string          `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	ExternalRef   string          `json:"externalRef"`
	Payout        *entries.Payout `json:"payout"`
}

// CreateDepositHandler handles POST /me/deposits
func (h *HandlerProvider) CreateDepositHandler(w http.ResponseWriter, r *http.Request) {
	h.requestPayment(w, r, entries.KindDeposit)
}

// CreateWithdrawalHandler handles POST /me/withdrawals
func (h *HandlerProvider) CreateWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	h.requestPayment(w, r, entries.KindWithdrawal)
}

func (h *HandlerProvider) requestPayment(w http.ResponseWriter, r *http.Request, kind entries.Kind) {
	var req paymentRequest

	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmountCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.ledger.RequestPending(r.Context(), balance.PendingRequest{
		AccountID:     accountIDFrom(r.Context()),
		Kind:          kind,
		Amount:        amount,
		PaymentMethod: req.PaymentMethod,
		ExternalRef:   req.ExternalRef,
		Payout:        req.Payout,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, newEntryView(e))
}

type openAccountRequest struct {
	AccountID *uuid.UUID `json:"accountId"`
}

// OpenAccountHandler handles POST /internal/accounts. The registration
// service may pass the id it already assigned.
func (h *HandlerProvider) OpenAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest

	if r.ContentLength != 0 {
		err := decodeJSON(w, r, &req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	id := uuid.Nil
	if req.AccountID != nil {
		id = *req.AccountID
	}

	acc, err := h.ledger.OpenAccount(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAccountView(acc))
}
