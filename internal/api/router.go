package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/rupeeview/portfolio-backend/internal/api/handlers"
	custommiddleware "github.com/rupeeview/portfolio-backend/internal/api/middleware"
	"github.com/rupeeview/portfolio-backend/internal/config"
	"github.com/rupeeview/portfolio-backend/internal/service"
)

// Services bundles the service dependencies the router wires into handlers.
type Services struct {
	System    *service.SystemService
	Portfolio *service.PortfolioService
	Metrics   *service.MetricsService
	Returns   *service.ReturnsService
	Ingest    *service.IngestService
	Settings  *service.SettingsService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, logger zerolog.Logger) http.Handler {
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
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio, svc.Metrics, svc.Returns)
			uploadHandler := handlers.NewUploadHandler(svc.Ingest, cfg.Upload.MaxFileBytes)

			r.Get("/", portfolioHandler.Portfolios)
			r.Post("/", portfolioHandler.CreatePortfolio)

			r.Route("/{portfolioID}", func(r chi.Router) {
				r.Use(custommiddleware.ValidatePortfolioID)
				r.Get("/holdings", portfolioHandler.Holdings)
				r.Get("/metrics", portfolioHandler.Metrics)
				r.Get("/returns", portfolioHandler.Returns)
				r.Post("/holdings/upload", uploadHandler.Preview)
				r.Post("/holdings/upload/confirm", uploadHandler.Confirm)
			})
		})

		r.Route("/settings", func(r chi.Router) {
			settingsHandler := handlers.NewSettingsHandler(svc.Settings)
			r.Get("/provider", settingsHandler.GetProvider)
			r.Put("/provider", settingsHandler.UpdateProvider)
		})
	})

	return r
}
