package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes registers all evaluation routes under /api/v1
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		// Simulations and classifier lookups can be slow
		r.Use(middleware.Timeout(120 * time.Second))

		r.Post("/evaluate", h.HandleEvaluate)
		r.Post("/goals/parse", h.HandleParseGoal)
		r.Post("/portfolio/validate", h.HandleValidatePortfolio)
		r.Get("/tickers/{symbol}/risk", h.HandleTickerRisk)
	})
}
