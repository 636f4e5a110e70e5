package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atriumcrm/atrium/internal/auth"
	"github.com/atriumcrm/atrium/internal/org"
	"github.com/atriumcrm/atrium/internal/task"
)

type tasksHandler struct {
	svc *task.Service
}

func newTasksHandler(svc *task.Service) *tasksHandler {
	return &tasksHandler{svc: svc}
}

// Create handles POST /api/v1/deals/{id}/tasks.
func (h *tasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var in task.CreateInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	t, err := h.svc.Create(r.Context(), in, chi.URLParam(r, "id"), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// ListForDeal handles GET /api/v1/deals/{id}/tasks.
func (h *tasksHandler) ListForDeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	tasks, err := h.svc.ListForDeal(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

// List handles GET /api/v1/tasks across the organization's deals. Supported
// filters: deal_id, owner_id, only_open, due_before, due_after, page,
// page_size. Members only ever see tasks on their own deals.
func (h *tasksHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	offset, limit := pageParams(r)
	f := task.ListFilters{
		DealID:  q.Get("deal_id"),
		OwnerID: q.Get("owner_id"),
		Offset:  offset,
		Limit:   limit,
	}

	if raw := q.Get("only_open"); raw != "" {
		open := raw == "true" || raw == "1"
		f.OnlyOpen = &open
	}
	var err error
	if f.DueBefore, err = parseTimeParam(q.Get("due_before")); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "due_before must be RFC 3339")
		return
	}
	if f.DueAfter, err = parseTimeParam(q.Get("due_after")); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "due_after must be RFC 3339")
		return
	}

	tasks, err := h.svc.List(r.Context(), f, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

// Get handles GET /api/v1/tasks/{id}.
func (h *tasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	t, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Update handles PATCH /api/v1/tasks/{id}.
func (h *tasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	t, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var changes task.Update
	if err := readJSON(r, &changes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	updated, err := h.svc.ApplyUpdate(r.Context(), t, changes, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/tasks/{id}.
func (h *tasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	t, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), t, actor); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireActor(w http.ResponseWriter, r *http.Request) (org.AuthContext, bool) {
	actor, ok := auth.AuthContextFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusForbidden, "permission_denied", "no organization context")
		return org.AuthContext{}, false
	}
	return actor, true
}

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
