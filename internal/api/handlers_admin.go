package api

import (
	"net/http"
	"strings"

	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/fastprodman/arcadeledger/internal/services/balance"
	"github.com/fastprodman/arcadeledger/internal/services/paycreds"
)

type adjustRequest struct {
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

// AdjustHandler handles POST /admin/accounts/{accountId}/adjust
func (h *HandlerProvider) AdjustHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseUUIDParam(r, "accountId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req adjustRequest

	err = decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmountCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.ledger.Adjust(r.Context(), balance.AdjustRequest{
		AccountID: accountID,
		Kind:      entries.Kind(strings.ToUpper(strings.TrimSpace(req.Kind))),
		Amount:    amount,
		Reason:    req.Reason,
		AdminID:   adminIDFrom(r.Context()),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newSettlementView(st))
}

// ReconcileHandler handles GET /admin/accounts/{accountId}/reconcile
func (h *HandlerProvider) ReconcileHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseUUIDParam(r, "accountId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.ledger.Reconcile(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newReconciliationView(rec))
}

// ApproveWithdrawalHandler handles POST /admin/withdrawals/{entryId}/approve
func (h *HandlerProvider) ApproveWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := entryIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.ledger.ApproveWithdrawal(r.Context(), entryID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newSettlementView(st))
}

// RejectWithdrawalHandler handles POST /admin/withdrawals/{entryId}/reject
func (h *HandlerProvider) RejectWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := entryIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.ledger.RejectWithdrawal(r.Context(), entryID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newSettlementView(st))
}

// GetCredentialsHandler handles GET /admin/payment-credentials
func (h *HandlerProvider) GetCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	v, err := h.creds.ActiveView(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, v)
}

// RotateCredentialsHandler handles PUT /admin/payment-credentials
func (h *HandlerProvider) RotateCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	var req paycreds.RotateRequest

	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	v, err := h.creds.Rotate(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, v)
}

// DeactivateCredentialsHandler handles DELETE /admin/payment-credentials/{credentialId}
func (h *HandlerProvider) DeactivateCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "credentialId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	v, err := h.creds.Deactivate(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, v)
}
