package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/StoryForge/internal/middleware"
	"github.com/Strob0t/StoryForge/internal/port/cache"
)

// RouteOptions carries the optional pieces mounted next to the REST API.
type RouteOptions struct {
	// RateLimiter guards generation and feedback routes. Nil disables it.
	RateLimiter *middleware.RateLimiter
	// IdempotencyCache replays POST responses carrying an Idempotency-Key.
	IdempotencyCache cache.Cache
	IdempotencyTTL   time.Duration
	// WS and MCP are mounted at /ws and /mcp when set.
	WS  http.HandlerFunc
	MCP http.Handler
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, opts RouteOptions) {
	r.Get("/health", h.Health)
	if opts.WS != nil {
		r.Get("/ws", opts.WS)
	}
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
	}

	// costly wraps routes that call the generator.
	costly := func(r chi.Router) chi.Router {
		if opts.RateLimiter != nil {
			r = r.With(opts.RateLimiter.Handler)
		}
		if opts.IdempotencyCache != nil {
			r = r.With(middleware.Idempotency(opts.IdempotencyCache, opts.IdempotencyTTL))
		}
		return r
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": h.Version})
		})
		r.Get("/health", h.Health)

		// Story maps
		r.Get("/storymaps", h.ListStoryMaps)
		r.Post("/storymaps", h.CreateStoryMap)
		costly(r).Post("/storymaps/generate", h.GenerateStoryMap)
		r.Get("/storymaps/{id}", h.GetStoryMap)
		r.Put("/storymaps/{id}", h.UpdateStoryMap)
		r.Delete("/storymaps/{id}", h.DeleteStoryMap)
		costly(r).Post("/storymaps/{id}/feedback", h.ApplyFeedback)
		r.Get("/storymaps/{id}/layout", h.GetLayout)
		r.Get("/storymaps/{id}/touchpoints", h.ListTouchpoints)
		r.Get("/storymaps/{id}/export.md", h.ExportMarkdown)

		// Feedback without a document
		costly(r).Post("/feedback", h.StartFromFeedback)

		// Bulk
		r.Get("/export", h.ExportAll)
		r.Post("/import", h.ImportAll)

		// Touchpoints
		r.Post("/touchpoints", h.InferTouchpoint)
	})
}
