package api

import (
	"log/slog"

	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the API routes with request logging and metrics middleware.
func NewRouter(h *Handler, appMetrics *metrics.Metrics, log *slog.Logger) chi.Router {
	router := chi.NewRouter()

	router.Use(chimw.RealIP)
	router.Use(chimw.Recoverer)
	router.Use(RequestLogger(log))
	router.Use(RequestMetrics(appMetrics))

	router.Route("/v1", func(r chi.Router) {
		r.Get("/location", h.GetLocation)
		r.Post("/refresh", h.Refresh)
		r.Post("/location/fix", h.ReportFix)
	})

	return router
}
