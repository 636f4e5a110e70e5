package api

import (
	"net/http"
	"strconv"

	"github.com/atriumcrm/atrium/internal/analytics"
)

type analyticsHandler struct {
	svc *analytics.Service
}

func newAnalyticsHandler(svc *analytics.Service) *analyticsHandler {
	return &analyticsHandler{svc: svc}
}

// Summary handles GET /api/v1/analytics/summary?days=N. Out-of-range windows
// fall back to the 30-day default.
func (h *analyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "days must be an integer")
			return
		}
		days = n
	}

	summary, err := h.svc.Summarize(r.Context(), actor.OrganizationID, days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Funnel handles GET /api/v1/analytics/funnel.
func (h *analyticsHandler) Funnel(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	funnel, err := h.svc.Funnel(r.Context(), actor.OrganizationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, funnel)
}
