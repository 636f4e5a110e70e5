package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atriumcrm/atrium/internal/activity"
)

type activitiesHandler struct {
	svc *activity.Service
}

func newActivitiesHandler(svc *activity.Service) *activitiesHandler {
	return &activitiesHandler{svc: svc}
}

type commentRequest struct {
	Body string `json:"body"`
}

// List handles GET /api/v1/deals/{id}/activities — the deal's timeline,
// newest first.
func (h *activitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	activities, err := h.svc.ListForDeal(r.Context(), actor.OrganizationID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if activities == nil {
		activities = []activity.Activity{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"activities": activities})
}

// Comment handles POST /api/v1/deals/{id}/activities. The API only accepts
// comments; status, stage and task entries are written by the services that
// perform those changes.
func (h *activitiesHandler) Comment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "body is required")
		return
	}

	a, err := h.svc.Create(r.Context(), actor.OrganizationID, chi.URLParam(r, "id"), actor.UserID,
		activity.TypeComment, map[string]any{"body": req.Body})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}
