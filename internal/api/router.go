package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Fund-Advisor-Backend/internal/api/middleware"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/config"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/service"
)

// Services groups the services the router exposes. Baselines may be nil when
// category baselines are disabled.
type Services struct {
	System         *service.SystemService
	Acquisition    *service.AcquisitionService
	Recommendation *service.RecommendationService
	Baselines      *service.BaselineService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, cfg *config.Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		fundHandler := handlers.NewFundHandler(services.Acquisition)
		r.Get("/funds", fundHandler.Funds)

		analyzeHandler := handlers.NewAnalyzeHandler(services.Recommendation)
		r.Post("/analyze", analyzeHandler.Analyze)

		baselineHandler := handlers.NewBaselineHandler(services.Baselines)
		r.Get("/baselines", baselineHandler.Baselines)

		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(services.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
			r.Get("/runs", systemHandler.Runs)
			r.Route("/runs/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", systemHandler.Run)
			})
		})
	})

	return r
}
