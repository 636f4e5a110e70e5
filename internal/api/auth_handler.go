package api

import (
	"errors"
	"net/http"

	"github.com/atriumcrm/atrium/internal/auth"
	"github.com/atriumcrm/atrium/internal/metrics"
	"github.com/atriumcrm/atrium/internal/user"
)

// authHandler groups registration and login endpoints.
type authHandler struct {
	svc     *auth.Service
	metrics *metrics.Metrics
}

func newAuthHandler(svc *auth.Service, m *metrics.Metrics) *authHandler {
	return &authHandler{svc: svc, metrics: m}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	User        *user.User `json:"user"`
}

// Register handles POST /api/v1/auth/register.
func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req user.CreateUserInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	if req.Email == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "email is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "name is required")
		return
	}

	u, err := h.svc.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "password must be at least 8 characters")
		case errors.Is(err, user.ErrDuplicateEmail):
			writeError(w, http.StatusConflict, "conflict", "a user with this email already exists")
		default:
			writeServiceError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

// Login handles POST /api/v1/auth/login.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			h.metrics.IncAuthFailure("invalid_credentials")
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
		case errors.Is(err, auth.ErrInactiveUser):
			h.metrics.IncAuthFailure("inactive_user")
			writeError(w, http.StatusUnauthorized, "unauthorized", "account is deactivated")
		default:
			writeServiceError(w, err)
		}
		return
	}

	h.metrics.IncAuthSuccess("password")
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		User:        result.User,
	})
}

// Me handles GET /api/v1/auth/me.
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
