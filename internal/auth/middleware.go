package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/atriumcrm/atrium/internal/fault"
	"github.com/atriumcrm/atrium/internal/org"
	"github.com/atriumcrm/atrium/internal/user"
)

type contextKey int

const (
	userContextKey contextKey = iota
	authContextKey
)

// OrganizationHeader carries the tenant the caller is acting in.
const OrganizationHeader = "X-Organization-Id"

// ContextWithUser returns a new context carrying the given user.
func ContextWithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext extracts the user from the context, or nil if not present.
func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(userContextKey).(*user.User)
	return u
}

// ContextWithAuthContext returns a new context carrying the caller's
// organization-scoped identity.
func ContextWithAuthContext(ctx context.Context, a org.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, a)
}

// AuthContextFromContext extracts the AuthContext, reporting whether one is
// present.
func AuthContextFromContext(ctx context.Context) (org.AuthContext, bool) {
	a, ok := ctx.Value(authContextKey).(org.AuthContext)
	return a, ok
}

// ContextResolver turns a verified (organization, user) pair into an
// AuthContext. Implemented by org.Service.
type ContextResolver interface {
	ResolveContext(ctx context.Context, organizationID, userID string) (org.AuthContext, error)
}

// RequireUser returns middleware that authenticates requests using a bearer
// JWT. On success the user is injected into the request context.
func RequireUser(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				writeUnauthorized(w, "missing or malformed authorization header")
				return
			}

			userID, err := svc.VerifyToken(token)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			u, err := svc.GetUser(r.Context(), userID)
			if err != nil || u == nil || !u.IsActive {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := ContextWithUser(r.Context(), u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOrganization returns middleware that resolves the X-Organization-Id
// header into an AuthContext for the already-authenticated user. Requests
// from non-members are rejected.
func RequireOrganization(resolver ContextResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			if u == nil {
				writeUnauthorized(w, "not authenticated")
				return
			}

			orgID := r.Header.Get(OrganizationHeader)
			if orgID == "" {
				writeErrorBody(w, http.StatusBadRequest, "missing_organization", OrganizationHeader+" header is required")
				return
			}

			a, err := resolver.ResolveContext(r.Context(), orgID, u.ID)
			if err != nil {
				if fault.IsKind(err, fault.KindPermissionDenied) {
					writeForbidden(w, "you are not a member of this organization")
					return
				}
				writeErrorBody(w, http.StatusInternalServerError, "internal_error", "failed to resolve organization context")
				return
			}

			ctx := ContextWithAuthContext(r.Context(), a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorBody{
			Code:    code,
			Message: message,
		},
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusUnauthorized, "unauthorized", message)
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusForbidden, "forbidden", message)
}
