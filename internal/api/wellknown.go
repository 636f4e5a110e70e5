package api

import "net/http"

// wellKnownManifest is the static JSON manifest for /.well-known/atrium.json.
const wellKnownManifest = `{
  "name": "Atrium",
  "description": "Multi-tenant CRM backend",
  "version": "0.1.0",
  "api_base": "/api/v1",
  "auth": {
    "type": "bearer",
    "header": "Authorization",
    "organization_header": "X-Organization-Id"
  },
  "endpoints": {
    "auth": "/api/v1/auth",
    "organizations": "/api/v1/organizations",
    "contacts": "/api/v1/contacts",
    "deals": "/api/v1/deals",
    "tasks": "/api/v1/tasks",
    "analytics": "/api/v1/analytics"
  },
  "health": "/health"
}`

// WellKnownHandler returns the static Atrium well-known manifest.
func WellKnownHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(wellKnownManifest))
}
