package api

import (
	"context"
	"net/http"

	"github.com/fastprodman/arcadeledger/internal/services/balance"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type completeRequest struct {
	ExternalRef string `json:"externalRef"`
}

// FinalizeEntryHandler handles POST /payments/entries/{entryId}/{action}
// where action is complete, cancel or fail.
func (h *HandlerProvider) FinalizeEntryHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := parseUUIDParam(r, "entryId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var op func(ctx context.Context) (balance.Settlement, error)

	switch chi.URLParam(r, "action") {
	case "complete":
		var req completeRequest

		if r.ContentLength != 0 {
			err = decodeJSON(w, r, &req)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		op = func(ctx context.Context) (balance.Settlement, error) {
			return h.ledger.Complete(ctx, entryID, req.ExternalRef)
		}
	case "cancel":
		op = func(ctx context.Context) (balance.Settlement, error) { return h.ledger.Cancel(ctx, entryID) }
	case "fail":
		op = func(ctx context.Context) (balance.Settlement, error) { return h.ledger.Fail(ctx, entryID) }
	default:
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	h.runSettlement(w, r, op)
}

// FinalizeByExternalRefHandler handles POST /payments/external/{externalRef}/{action}
func (h *HandlerProvider) FinalizeByExternalRefHandler(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "externalRef")
	if ref == "" {
		writeError(w, http.StatusBadRequest, "missing externalRef")
		return
	}

	var op func(ctx context.Context) (balance.Settlement, error)

	switch chi.URLParam(r, "action") {
	case "complete":
		op = func(ctx context.Context) (balance.Settlement, error) { return h.ledger.CompleteByExternalRef(ctx, ref) }
	case "cancel":
		op = func(ctx context.Context) (balance.Settlement, error) { return h.ledger.CancelByExternalRef(ctx, ref) }
	case "fail":
		op = func(ctx context.Context) (balance.Settlement, error) { return h.ledger.FailByExternalRef(ctx, ref) }
	default:
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	h.runSettlement(w, r, op)
}

func (h *HandlerProvider) runSettlement(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context) (balance.Settlement, error),
) {
	st, err := op(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newSettlementView(st))
}

func entryIDFromPath(r *http.Request) (uuid.UUID, error) {
	return parseUUIDParam(r, "entryId")
}
