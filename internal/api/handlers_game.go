package api

import (
	"net/http"
)

// StartSessionHandler handles POST /me/game/sessions
func (h *HandlerProvider) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	out, err := h.games.Start(r.Context(), accountIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newOutcomeView(out))
}

// ListSessionsHandler handles GET /me/game/sessions?limit=N
func (h *HandlerProvider) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.games.History(r.Context(), accountIDFrom(r.Context()), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	views := make([]sessionView, 0, len(list))
	for _, s := range list {
		views = append(views, newSessionView(s))
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

// ActiveSessionHandler handles GET /me/game/sessions/active
func (h *HandlerProvider) ActiveSessionHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.games.Active(r.Context(), accountIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newSessionView(s))
}

// AdvanceSessionHandler handles POST /me/game/sessions/{sessionId}/advance
func (h *HandlerProvider) AdvanceSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.games.Advance(r.Context(), accountIDFrom(r.Context()), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newOutcomeView(out))
}

// EndSessionHandler handles POST /me/game/sessions/{sessionId}/end
func (h *HandlerProvider) EndSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.games.End(r.Context(), accountIDFrom(r.Context()), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newOutcomeView(out))
}
