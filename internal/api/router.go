package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/atriumcrm/atrium/internal/activity"
	"github.com/atriumcrm/atrium/internal/analytics"
	"github.com/atriumcrm/atrium/internal/auth"
	"github.com/atriumcrm/atrium/internal/cache"
	"github.com/atriumcrm/atrium/internal/contact"
	"github.com/atriumcrm/atrium/internal/deal"
	"github.com/atriumcrm/atrium/internal/metrics"
	"github.com/atriumcrm/atrium/internal/org"
	"github.com/atriumcrm/atrium/internal/ratelimit"
	"github.com/atriumcrm/atrium/internal/task"
)

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Auth       *auth.Service
	Orgs       *org.Service
	Contacts   *contact.Service
	Deals      *deal.Service
	Tasks      *task.Service
	Activities *activity.Service
	Analytics  *analytics.Service
	Limiter    *ratelimit.Limiter
	Metrics    *metrics.Metrics
	Cache      cache.Cache

	AllowedOrigins []string
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(slogRequestLogger)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}
	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.OrganizationHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Handlers.
	authH := newAuthHandler(deps.Auth, deps.Metrics)
	orgs := newOrgsHandler(deps.Orgs)
	contacts := newContactsHandler(deps.Contacts)
	deals := newDealsHandler(deps.Deals, deps.Cache, deps.Metrics)
	tasks := newTasksHandler(deps.Tasks)
	activities := newActivitiesHandler(deps.Activities)
	analyticsH := newAnalyticsHandler(deps.Analytics)

	// Health check.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Well-known manifest.
	r.Get("/.well-known/atrium.json", WellKnownHandler)

	// Operational metrics summary.
	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.Handler())
	}

	// Public (unauthenticated) routes.
	r.Post("/api/v1/auth/register", authH.Register)
	r.Post("/api/v1/auth/login", authH.Login)

	var reject []func()
	if deps.Metrics != nil {
		reject = append(reject, deps.Metrics.IncRateLimitRejection)
	}

	// Authenticated routes that do not need an organization context.
	r.Route("/api/v1", func(ar chi.Router) {
		ar.Use(auth.RequireUser(deps.Auth))
		ar.Use(ratelimit.Middleware(deps.Limiter, reject...))

		ar.Get("/auth/me", authH.Me)
		ar.Post("/organizations", orgs.Create)
		ar.Get("/organizations", orgs.List)

		// Organization-scoped routes.
		ar.Group(func(or chi.Router) {
			or.Use(auth.RequireOrganization(deps.Orgs))

			or.Route("/organizations/{id}", func(r chi.Router) {
				r.Get("/", orgs.Get)
				r.Post("/members", orgs.InviteMember)
				r.Patch("/members/{userID}", orgs.ChangeMemberRole)
				r.Delete("/members/{userID}", orgs.RemoveMember)
			})

			or.Route("/contacts", func(r chi.Router) {
				r.Post("/", contacts.Create)
				r.Get("/", contacts.List)
				r.Get("/{id}", contacts.Get)
				r.Patch("/{id}", contacts.Update)
				r.Delete("/{id}", contacts.Delete)
			})

			or.Route("/deals", func(r chi.Router) {
				r.Get("/statuses", deals.Enumerations)
				r.Post("/", deals.Create)
				r.Get("/", deals.List)
				r.Get("/{id}", deals.Get)
				r.Patch("/{id}", deals.Update)

				r.Post("/{id}/tasks", tasks.Create)
				r.Get("/{id}/tasks", tasks.ListForDeal)
				r.Get("/{id}/activities", activities.List)
				r.Post("/{id}/activities", activities.Comment)
			})

			or.Route("/tasks", func(r chi.Router) {
				r.Get("/", tasks.List)
				r.Get("/{id}", tasks.Get)
				r.Patch("/{id}", tasks.Update)
				r.Delete("/{id}", tasks.Delete)
			})

			or.Get("/analytics/summary", analyticsH.Summary)
			or.Get("/analytics/funnel", analyticsH.Funnel)
		})
	})

	return r
}

// slogRequestLogger is a simple structured logging middleware using slog.
func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", ww.BytesWritten(),
			"request_id", RequestIDFromContext(r.Context()),
		)
	})
}
