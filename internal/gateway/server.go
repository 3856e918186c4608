package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public — no auth required.
	r.Get("/health", g.handleHealth())
	r.Handle("/metrics", g.metrics.Handler())

	// Facts API — auth required. Not mounted if no token configured.
	if g.config.AuthToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.AuthToken))
			r.Route("/api", func(r chi.Router) {
				r.Get("/facts", g.handleListFacts())
				r.Post("/facts", g.handleRememberFact())
				r.Delete("/facts", g.handleForgetFacts())
				r.Get("/stats", g.handleStats())
				r.Post("/sessions", g.handleNewSession())
			})
		})
	}

	return r
}
