package testutil

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rupeeview/portfolio-backend/internal/ingest"
	"github.com/rupeeview/portfolio-backend/internal/repository"
	"github.com/rupeeview/portfolio-backend/internal/service"
)

// NewTestLogger returns a silenced logger for service construction in tests.
func NewTestLogger() zerolog.Logger {
	return zerolog.Nop()
}

func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(
		repository.NewPortfolioRepository(db),
		repository.NewHoldingRepository(db),
	)
}

func NewTestMetricsService(t *testing.T, db *sql.DB) *service.MetricsService {
	t.Helper()

	return service.NewMetricsService(
		repository.NewHoldingRepository(db),
		repository.NewMetricsRepository(db),
		1.0,
		NewTestLogger(),
	)
}

func NewTestReturnsService(t *testing.T, db *sql.DB) *service.ReturnsService {
	t.Helper()

	return service.NewReturnsService(
		repository.NewCashFlowRepository(db),
		repository.NewHoldingRepository(db),
	)
}

// NewTestMarketDataService wires the market-data service onto mock
// collaborators. Pass nil for either mock to get an empty fixture.
func NewTestMarketDataService(t *testing.T, db *sql.DB, quoteC *MockQuoteClient, feed *MockSchemeFeed) *service.MarketDataService {
	t.Helper()

	if quoteC == nil {
		quoteC = NewMockQuoteClient(nil)
	}
	if feed == nil {
		feed = &MockSchemeFeed{}
	}
	return service.NewMarketDataService(
		repository.NewPriceRepository(db),
		repository.NewSchemeRepository(db),
		quoteC,
		feed,
		NewTestLogger(),
	)
}

func NewTestReconcileService(t *testing.T, db *sql.DB, marketData *service.MarketDataService) *service.ReconcileService {
	t.Helper()

	if marketData == nil {
		marketData = NewTestMarketDataService(t, db, nil, nil)
	}
	return service.NewReconcileService(
		db,
		repository.NewAssetRepository(db),
		repository.NewHoldingRepository(db),
		repository.NewCashFlowRepository(db),
		repository.NewSchemeRepository(db),
		marketData,
		NewTestLogger(),
	)
}

// NewTestIngestService wires the full confirm pipeline over an in-memory
// database and mock market data.
func NewTestIngestService(t *testing.T, db *sql.DB, marketData *service.MarketDataService) *service.IngestService {
	t.Helper()

	return service.NewIngestService(
		repository.NewPortfolioRepository(db),
		NewTestReconcileService(t, db, marketData),
		NewTestMetricsService(t, db),
		ingest.DefaultOptions(),
		ingest.DefaultMaxFileBytes,
		ingest.DefaultRejectRatio,
		ingest.DefaultWarnRatio,
		NewTestLogger(),
	)
}
