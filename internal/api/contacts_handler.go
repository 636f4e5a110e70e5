package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atriumcrm/atrium/internal/contact"
	"github.com/atriumcrm/atrium/internal/org"
)

type contactsHandler struct {
	svc *contact.Service
}

func newContactsHandler(svc *contact.Service) *contactsHandler {
	return &contactsHandler{svc: svc}
}

// Create handles POST /api/v1/contacts. The creator becomes the contact owner.
func (h *contactsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var in contact.CreateInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	c, err := h.svc.Create(r.Context(), in, actor.OrganizationID, actor.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// List handles GET /api/v1/contacts with owner_id, search and page filters.
// Members only ever see their own contacts regardless of filters.
func (h *contactsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	offset, limit := pageParams(r)
	f := contact.ListFilters{
		OwnerID: r.URL.Query().Get("owner_id"),
		Search:  r.URL.Query().Get("search"),
		Offset:  offset,
		Limit:   limit,
	}

	contacts, err := h.svc.List(r.Context(), actor.OrganizationID, f, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if contacts == nil {
		contacts = []contact.Contact{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"contacts": contacts})
}

// Get handles GET /api/v1/contacts/{id}.
func (h *contactsHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, actor, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if !actor.CanAccessResource(c.OwnerID) {
		writeError(w, http.StatusForbidden, "permission_denied", "you do not have access to this contact")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Update handles PATCH /api/v1/contacts/{id}.
func (h *contactsHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, actor, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if !actor.CanAccessResource(c.OwnerID) {
		writeError(w, http.StatusForbidden, "permission_denied", "you do not have access to this contact")
		return
	}

	var changes contact.Update
	if err := readJSON(r, &changes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	updated, err := h.svc.ApplyUpdate(r.Context(), c, changes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/contacts/{id}. Contacts with deals attached
// cannot be deleted.
func (h *contactsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, actor, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if !actor.CanAccessResource(c.OwnerID) {
		writeError(w, http.StatusForbidden, "permission_denied", "you do not have access to this contact")
		return
	}

	if err := h.svc.Delete(r.Context(), c); err != nil {
		writeServiceError(w, err)
		return
	}

	auditLog(r, "contact.delete", "contact", c.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *contactsHandler) fetch(w http.ResponseWriter, r *http.Request) (contact.Contact, org.AuthContext, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return contact.Contact{}, org.AuthContext{}, false
	}

	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), actor.OrganizationID)
	if err != nil {
		writeServiceError(w, err)
		return contact.Contact{}, org.AuthContext{}, false
	}
	return c, actor, true
}
