package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter constructs the chi router with all API endpoints registered.
func NewRouter(h *HandlerProvider) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/me", func(r chi.Router) {
		r.Use(requireAccount)

		r.Get("/balance", h.GetBalanceHandler)
		r.Get("/entries", h.ListEntriesHandler)
		r.Post("/bonus/claim", h.ClaimBonusHandler)
		r.Post("/deposits", h.CreateDepositHandler)
		r.Post("/withdrawals", h.CreateWithdrawalHandler)

		r.Route("/game/sessions", func(r chi.Router) {
			r.Post("/", h.StartSessionHandler)
			r.Get("/", h.ListSessionsHandler)
			r.Get("/active", h.ActiveSessionHandler)
			r.Post("/{sessionId}/advance", h.AdvanceSessionHandler)
			r.Post("/{sessionId}/end", h.EndSessionHandler)
		})
	})

	// /payments and /internal carry no caller check; they must only be
	// reachable through the gateway's internal network.
	r.Route("/payments", func(r chi.Router) {
		r.Post("/entries/{entryId}/{action}", h.FinalizeEntryHandler)
		r.Post("/external/{externalRef}/{action}", h.FinalizeByExternalRefHandler)
	})

	r.Post("/internal/accounts", h.OpenAccountHandler)

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAdmin)

		r.Post("/accounts/{accountId}/adjust", h.AdjustHandler)
		r.Get("/accounts/{accountId}/reconcile", h.ReconcileHandler)
		r.Post("/withdrawals/{entryId}/approve", h.ApproveWithdrawalHandler)
		r.Post("/withdrawals/{entryId}/reject", h.RejectWithdrawalHandler)
		r.Get("/payment-credentials", h.GetCredentialsHandler)
		r.Put("/payment-credentials", h.RotateCredentialsHandler)
		r.Delete("/payment-credentials/{credentialId}", h.DeactivateCredentialsHandler)
	})

	return r
}
