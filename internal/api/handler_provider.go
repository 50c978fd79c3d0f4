package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/fastprodman/arcadeledger/internal/infra/pgutils"
	"github.com/fastprodman/arcadeledger/internal/repos/accounts"
	"github.com/fastprodman/arcadeledger/internal/repos/credentials"
	"github.com/fastprodman/arcadeledger/internal/repos/entries"
	"github.com/fastprodman/arcadeledger/internal/repos/sessions"
	"github.com/fastprodman/arcadeledger/internal/services/balance"
	"github.com/fastprodman/arcadeledger/internal/services/game"
	"github.com/fastprodman/arcadeledger/internal/services/paycreds"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Ledger is the balance engine as the HTTP layer uses it.
type Ledger interface {
	OpenAccount(ctx context.Context, id uuid.UUID) (accounts.Account, error)
	Balance(ctx context.Context, accountID uuid.UUID) (accounts.Account, error)
	History(ctx context.Context, accountID uuid.UUID, limit int) ([]entries.Entry, error)
	ClaimBonus(ctx context.Context, accountID uuid.UUID) (balance.Settlement, error)
	RequestPending(ctx context.Context, req balance.PendingRequest) (entries.Entry, error)
	Complete(ctx context.Context, entryID uuid.UUID, externalRef string) (balance.Settlement, error)
	Cancel(ctx context.Context, entryID uuid.UUID) (balance.Settlement, error)
	Fail(ctx context.Context, entryID uuid.UUID) (balance.Settlement, error)
	CompleteByExternalRef(ctx context.Context, ref string) (balance.Settlement, error)
	CancelByExternalRef(ctx context.Context, ref string) (balance.Settlement, error)
	FailByExternalRef(ctx context.Context, ref string) (balance.Settlement, error)
	ApproveWithdrawal(ctx context.Context, entryID uuid.UUID) (balance.Settlement, error)
	RejectWithdrawal(ctx context.Context, entryID uuid.UUID) (balance.Settlement, error)
	Adjust(ctx context.Context, req balance.AdjustRequest) (balance.Settlement, error)
	Reconcile(ctx context.Context, accountID uuid.UUID) (balance.Reconciliation, error)
}

type Games interface {
	Start(ctx context.Context, accountID uuid.UUID) (game.Outcome, error)
	Advance(ctx context.Context, accountID, sessionID uuid.UUID) (game.Outcome, error)
	End(ctx context.Context, accountID, sessionID uuid.UUID) (game.Outcome, error)
	Active(ctx context.Context, accountID uuid.UUID) (sessions.Session, error)
	History(ctx context.Context, accountID uuid.UUID, limit int) ([]sessions.Session, error)
}

type PaymentCredentials interface {
	Rotate(ctx context.Context, req paycreds.RotateRequest) (paycreds.View, error)
	ActiveView(ctx context.Context) (paycreds.View, error)
	Deactivate(ctx context.Context, id uuid.UUID) (paycreds.View, error)
}

// HandlerProvider exposes the ledger, game and credential services over HTTP.
type HandlerProvider struct {
	ledger Ledger
	games  Games
	creds  PaymentCredentials
}

func NewHandler(ledger Ledger, games Games, creds PaymentCredentials) *HandlerProvider {
	return &HandlerProvider{ledger: ledger, games: games, creds: creds}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps a service error to its status code. Anything
// unrecognized is logged and reported as an internal error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classifyError(err)
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}

	writeError(w, status, msg)
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, pgutils.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store unavailable"

	case errors.Is(err, balance.ErrInvalidAmount),
		errors.Is(err, balance.ErrInvalidKind),
		errors.Is(err, balance.ErrPayoutRequired),
		errors.Is(err, balance.ErrReasonRequired),
		errors.Is(err, paycreds.ErrInvalidCredential):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, accounts.ErrAccountNotFound):
		return http.StatusNotFound, "account not found"
	case errors.Is(err, entries.ErrEntryNotFound):
		return http.StatusNotFound, "ledger entry not found"
	case errors.Is(err, sessions.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, credentials.ErrNoActiveCredential):
		return http.StatusNotFound, "no active payment credential"
	case errors.Is(err, credentials.ErrCredentialNotFound):
		return http.StatusNotFound, "payment credential not found"

	case errors.Is(err, accounts.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient funds"
	case errors.Is(err, balance.ErrAlreadyFinalized):
		return http.StatusConflict, "ledger entry already finalized"
	case errors.Is(err, accounts.ErrBonusAlreadyClaimed):
		return http.StatusConflict, "bonus already claimed"
	case errors.Is(err, entries.ErrDuplicateExternalRef):
		return http.StatusConflict, "duplicate external reference"
	case errors.Is(err, accounts.ErrAccountExists):
		return http.StatusConflict, "account already exists"
	case errors.Is(err, balance.ErrKindMismatch):
		return http.StatusConflict, "ledger entry kind mismatch"
	case errors.Is(err, sessions.ErrActiveSessionExists):
		return http.StatusConflict, "active session exists"

	case errors.Is(err, balance.ErrNoBalance):
		return http.StatusUnprocessableEntity, "bonus requires a positive balance"
	case errors.Is(err, balance.ErrBonusNotApplicable):
		return http.StatusUnprocessableEntity, "balance already at or above bonus target"

	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// decodeJSON reads a bounded JSON body and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}

		return fmt.Errorf("invalid JSON")
	}

	return nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing %s", name)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}

	return id, nil
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit")
	}

	return n, nil
}

// parseAmountCents converts a decimal string with up to 2 fractional digits into cents.
func parseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount required")
	}

	neg := false
	if s[0] == '+' {
		s = s[1:]
	} else if s[0] == '-' {
		neg = true
		s = s[1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 || parts[0] == "" {
		return 0, fmt.Errorf("invalid amount")
	}

	intPart := parts[0]
	frac := "00"

	if len(parts) == 2 {
		if len(parts[1]) > 2 {
			return 0, fmt.Errorf("amount supports up to 2 decimals")
		}

		frac = parts[1] + strings.Repeat("0", 2-len(parts[1]))
	}

	ip, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount integer")
	}

	fp, err := strconv.ParseUint(frac, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid amount fractional")
	}

	if ip > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("amount too large")
	}

	total := ip*100 + int64(fp)
	if neg {
		total = -total
	}

	if total <= 0 {
		return 0, fmt.Errorf("amount must be > 0")
	}

	return total, nil
}

// formatCents renders minor units as a two-decimal string.
func formatCents(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
