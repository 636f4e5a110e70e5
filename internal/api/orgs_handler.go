package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atriumcrm/atrium/internal/auth"
	"github.com/atriumcrm/atrium/internal/org"
)

// orgsHandler groups organization and membership endpoints.
type orgsHandler struct {
	svc *org.Service
}

func newOrgsHandler(svc *org.Service) *orgsHandler {
	return &orgsHandler{svc: svc}
}

type createOrgRequest struct {
	Name string `json:"name"`
}

type memberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type orgWithMembersResponse struct {
	org.Organization
	Members []org.Membership `json:"members"`
}

// Create handles POST /api/v1/organizations. The creating user becomes the
// organization's owner.
func (h *orgsHandler) Create(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	var req createOrgRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "name is required")
		return
	}

	o, err := h.svc.Create(r.Context(), req.Name, u.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	auditLog(r, "organization.create", "organization", o.ID)
	writeJSON(w, http.StatusCreated, o)
}

// List handles GET /api/v1/organizations — organizations the caller belongs to.
func (h *orgsHandler) List(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	orgs, err := h.svc.ListForUser(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if orgs == nil {
		orgs = []org.Organization{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"organizations": orgs})
}

// Get handles GET /api/v1/organizations/{id} — organization details with the
// member list. The caller must be operating in the requested organization.
func (h *orgsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireOrgMatch(w, r)
	if !ok {
		return
	}

	o, err := h.svc.Get(r.Context(), actor.OrganizationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	members, err := h.svc.ListMembers(r.Context(), actor.OrganizationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if members == nil {
		members = []org.Membership{}
	}
	writeJSON(w, http.StatusOK, orgWithMembersResponse{Organization: o, Members: members})
}

// InviteMember handles POST /api/v1/organizations/{id}/members.
func (h *orgsHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireOrgMatch(w, r)
	if !ok {
		return
	}

	var req memberRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "user_id is required")
		return
	}
	role, ok := org.ParseRole(req.Role)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "role must be one of owner, admin, manager, member")
		return
	}

	m, err := h.svc.InviteMember(r.Context(), actor.OrganizationID, req.UserID, role, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	auditLog(r, "organization.invite_member", "membership", m.ID, "member_user_id", req.UserID, "role", string(role))
	writeJSON(w, http.StatusCreated, m)
}

// ChangeMemberRole handles PATCH /api/v1/organizations/{id}/members/{userID}.
func (h *orgsHandler) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireOrgMatch(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userID")

	var req memberRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	role, okRole := org.ParseRole(req.Role)
	if !okRole {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "role must be one of owner, admin, manager, member")
		return
	}

	m, err := h.svc.ChangeMemberRole(r.Context(), actor.OrganizationID, userID, role, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	auditLog(r, "organization.change_member_role", "membership", m.ID, "member_user_id", userID, "role", string(role))
	writeJSON(w, http.StatusOK, m)
}

// RemoveMember handles DELETE /api/v1/organizations/{id}/members/{userID}.
func (h *orgsHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireOrgMatch(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userID")

	if err := h.svc.RemoveMember(r.Context(), actor.OrganizationID, userID, actor); err != nil {
		writeServiceError(w, err)
		return
	}

	auditLog(r, "organization.remove_member", "membership", userID, "member_user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

// requireOrgMatch fetches the resolved organization context and verifies that
// the {id} path segment refers to the same organization.
func requireOrgMatch(w http.ResponseWriter, r *http.Request) (org.AuthContext, bool) {
	actor, ok := auth.AuthContextFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusForbidden, "permission_denied", "no organization context")
		return org.AuthContext{}, false
	}
	if id := chi.URLParam(r, "id"); id != "" && id != actor.OrganizationID {
		writeError(w, http.StatusForbidden, "permission_denied", "organization mismatch")
		return org.AuthContext{}, false
	}
	return actor, true
}
