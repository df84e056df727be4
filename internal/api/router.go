package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the simulation endpoints. Requests running longer than
// timeout are cancelled and the simulation stops between runs.
func NewRouter(h *SimulationHandler, timeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/healthz", h.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/simulations", h.HandleSimulations)
		r.Post("/appeals", h.HandleAppeals)
		r.Post("/fingerprint", h.HandleFingerprint)
		r.Post("/payoffs/matrix", h.HandlePayoffMatrix)
	})

	return r
}
