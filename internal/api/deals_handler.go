package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atriumcrm/atrium/internal/cache"
	"github.com/atriumcrm/atrium/internal/deal"
	"github.com/atriumcrm/atrium/internal/metrics"
	"github.com/atriumcrm/atrium/internal/org"
)

// Status and stage enumerations rarely change, so the handler keeps them in
// the cache for an hour.
const (
	dealEnumsKey = "deals:statuses"
	dealEnumsTTL = time.Hour
)

type dealEnumsResponse struct {
	Statuses []deal.Status `json:"statuses"`
	Stages   []deal.Stage  `json:"stages"`
}

type dealsHandler struct {
	svc     *deal.Service
	cache   cache.Cache
	metrics *metrics.Metrics
}

func newDealsHandler(svc *deal.Service, c cache.Cache, m *metrics.Metrics) *dealsHandler {
	return &dealsHandler{svc: svc, cache: c, metrics: m}
}

// Enumerations handles GET /api/v1/deals/statuses — the valid status and
// stage values, stages in pipeline order.
func (h *dealsHandler) Enumerations(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		var cached dealEnumsResponse
		switch err := h.cache.Get(r.Context(), dealEnumsKey, &cached); {
		case err == nil:
			writeJSON(w, http.StatusOK, cached)
			return
		case !errors.Is(err, cache.ErrMiss):
			slog.Warn("deal enumerations cache read failed", "error", err)
		}
	}

	resp := dealEnumsResponse{Statuses: deal.Statuses(), Stages: deal.Stages()}
	if h.cache != nil {
		if err := h.cache.Set(r.Context(), dealEnumsKey, resp, dealEnumsTTL); err != nil {
			slog.Warn("deal enumerations cache write failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/v1/deals.
func (h *dealsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var in deal.CreateInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	d, err := h.svc.Create(r.Context(), in, actor.OrganizationID, actor.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.IncDealCreated()
	}
	writeJSON(w, http.StatusCreated, d)
}

// List handles GET /api/v1/deals. Supported filters: owner_id, status
// (comma-separated), stage, min_amount, max_amount, order_by, order, page,
// page_size. Members only ever see their own deals.
func (h *dealsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	offset, limit := pageParams(r)
	f := deal.ListFilters{
		OwnerID: q.Get("owner_id"),
		Stage:   deal.Stage(q.Get("stage")),
		OrderBy: q.Get("order_by"),
		Order:   q.Get("order"),
		Offset:  offset,
		Limit:   limit,
	}

	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st := deal.Status(strings.TrimSpace(s))
			if !st.Valid() {
				writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid status filter: "+string(st))
				return
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	if f.Stage != "" && !f.Stage.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid stage filter: "+string(f.Stage))
		return
	}
	if raw := q.Get("min_amount"); raw != "" {
		a, err := deal.ParseAmount(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid min_amount")
			return
		}
		f.MinAmount = &a
	}
	if raw := q.Get("max_amount"); raw != "" {
		a, err := deal.ParseAmount(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid max_amount")
			return
		}
		f.MaxAmount = &a
	}

	deals, err := h.svc.List(r.Context(), actor.OrganizationID, f, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if deals == nil {
		deals = []deal.Deal{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deals": deals})
}

// Get handles GET /api/v1/deals/{id}.
func (h *dealsHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, actor, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if !actor.CanAccessResource(d.OwnerID) {
		writeError(w, http.StatusForbidden, "permission_denied", "you do not have access to this deal")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Update handles PATCH /api/v1/deals/{id}. Status and stage transitions are
// checked and recorded on the deal's timeline by the service.
func (h *dealsHandler) Update(w http.ResponseWriter, r *http.Request) {
	d, actor, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if !actor.CanAccessResource(d.OwnerID) {
		writeError(w, http.StatusForbidden, "permission_denied", "you do not have access to this deal")
		return
	}

	var changes deal.Update
	if err := readJSON(r, &changes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	updated, err := h.svc.ApplyUpdate(r.Context(), d, changes, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if h.metrics != nil {
		if updated.Status != d.Status {
			h.metrics.IncStatusTransition(string(d.Status), string(updated.Status))
		}
		if updated.Stage != d.Stage {
			h.metrics.IncStageTransition(string(d.Stage), string(updated.Stage))
		}
	}
	if updated.Status != d.Status || updated.Stage != d.Stage {
		auditLog(r, "deal.transition", "deal", d.ID,
			"old_status", string(d.Status), "new_status", string(updated.Status),
			"old_stage", string(d.Stage), "new_stage", string(updated.Stage))
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *dealsHandler) fetch(w http.ResponseWriter, r *http.Request) (deal.Deal, org.AuthContext, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return deal.Deal{}, org.AuthContext{}, false
	}

	d, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), actor.OrganizationID)
	if err != nil {
		writeServiceError(w, err)
		return deal.Deal{}, org.AuthContext{}, false
	}
	return d, actor, true
}
