package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/recents/internal/metrics"
	"github.com/starford/recents/internal/recentservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *recentservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/recents", h.ListRecents)
	r.Get("/status", h.Status)
	r.Post("/refresh", h.Refresh)

	// Search.
	r.Post("/search", h.Search)
	r.Get("/search/{token}/next", h.NextPage)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewHealthRouter serves the unauthenticated liveness and readiness checks.
func NewHealthRouter(svc *recentservice.Service) chi.Router {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/live", h.Live)
	r.Get("/ready", h.Ready)
	return r
}
