package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// All routes are public and read-only:
//
//	GET /health                        liveness and ephemeris coverage
//	GET /api/v1/convert/today          today's lunisolar date (UTC+8)
//	GET /api/v1/convert/{date}         convert a Gregorian date
//	GET /api/v1/annus/{year}           month table of a lunisolar year
//	GET /api/v1/jdn/{date}             Julian day number and day cycle
func SetupRoutes(handlers *Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/convert/today", handlers.ConvertToday)
		r.Get("/convert/{date}", handlers.ConvertDate)
		r.Get("/annus/{year}", handlers.GetAnnus)
		r.Get("/jdn/{date}", handlers.GetJDN)
	})

	return r
}
