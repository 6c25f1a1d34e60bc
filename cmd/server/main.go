package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rupeeview/portfolio-backend/internal/amfi"
	"github.com/rupeeview/portfolio-backend/internal/api"
	"github.com/rupeeview/portfolio-backend/internal/config"
	"github.com/rupeeview/portfolio-backend/internal/database"
	"github.com/rupeeview/portfolio-backend/internal/ingest"
	"github.com/rupeeview/portfolio-backend/internal/logging"
	"github.com/rupeeview/portfolio-backend/internal/quotes"
	"github.com/rupeeview/portfolio-backend/internal/repository"
	"github.com/rupeeview/portfolio-backend/internal/service"
)

func main() {
	logger := logging.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Open database connection and apply migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	logger.Info().Str("path", cfg.Database.Path).Msg("connected to database")

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	holdingRepo := repository.NewHoldingRepository(db)
	metricsRepo := repository.NewMetricsRepository(db)
	schemeRepo := repository.NewSchemeRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	cashFlowRepo := repository.NewCashFlowRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// External collaborators
	quoteClient := quotes.NewClient(cfg.Market.QuoteBaseURL + "/v8/finance/chart")
	schemeFeed := amfi.NewClient(cfg.Market.AmfiNavURL)

	// Create services
	systemService := service.NewSystemService(db, schemeRepo)
	portfolioService := service.NewPortfolioService(portfolioRepo, holdingRepo)
	marketDataService := service.NewMarketDataService(priceRepo, schemeRepo, quoteClient, schemeFeed, logger)
	metricsService := service.NewMetricsService(holdingRepo, metricsRepo, cfg.Ingest.DriftWarnPercent, logger)
	returnsService := service.NewReturnsService(cashFlowRepo, holdingRepo)
	reconcileService := service.NewReconcileService(db, assetRepo, holdingRepo, cashFlowRepo, schemeRepo, marketDataService, logger)
	ingestService := service.NewIngestService(
		portfolioRepo,
		reconcileService,
		metricsService,
		ingest.Options{MaxQuantity: cfg.Ingest.MaxQuantity, MaxPrice: cfg.Ingest.MaxPrice},
		cfg.Upload.MaxFileBytes,
		cfg.Ingest.RejectRatio,
		cfg.Ingest.WarnRatio,
		logger,
	)

	// Provider settings are optional: without a fernet key the endpoints
	// answer 503 instead of blocking startup.
	var settingsService *service.SettingsService
	if cfg.Security.FernetKey == "" {
		logger.Warn().Msg("FERNET_KEY not set; provider settings endpoints disabled")
	} else {
		settingsService, err = service.NewSettingsService(settingsRepo, cfg.Security.FernetKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize settings service")
		}
	}

	// Sync the scheme master at startup when the table is empty, so
	// mutual-fund resolution works on the first upload.
	go func() {
		if n, err := schemeRepo.Count(); err == nil && n == 0 {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			_ = marketDataService.SyncSchemes(ctx)
		}
	}()

	// Daily market-data refresh
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Market.RefreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		marketDataService.RefreshPrices(ctx)
		_ = marketDataService.SyncSchemes(ctx)
	}); err != nil {
		logger.Fatal().Err(err).Str("spec", cfg.Market.RefreshSpec).Msg("invalid refresh schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(api.Services{
		System:    systemService,
		Portfolio: portfolioService,
		Metrics:   metricsService,
		Returns:   returnsService,
		Ingest:    ingestService,
		Settings:  settingsService,
	}, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")
}
