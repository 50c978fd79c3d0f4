package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type ctxKey int

const (
	accountIDKey ctxKey = iota
	adminIDKey
)

const (
	HeaderAccountID = "X-Account-ID"
	HeaderAdminID   = "X-Admin-ID"
)

// requireAccount reads the caller's account id, already verified by the
// gateway in front of this service, from X-Account-ID.
func requireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(HeaderAccountID))
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing "+HeaderAccountID+" header")
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+HeaderAccountID+" header")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountIDKey, id)))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin := strings.TrimSpace(r.Header.Get(HeaderAdminID))
		if admin == "" {
			writeError(w, http.StatusUnauthorized, "missing "+HeaderAdminID+" header")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminIDKey, admin)))
	})
}

func accountIDFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(accountIDKey).(uuid.UUID)
	return id
}

func adminIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(adminIDKey).(string)
	return id
}
