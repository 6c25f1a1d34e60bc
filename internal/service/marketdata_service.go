package service

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rupeeview/portfolio-backend/internal/model"
	"github.com/rupeeview/portfolio-backend/internal/quotes"
	"github.com/rupeeview/portfolio-backend/internal/repository"
)

// QuoteClient fetches the latest market price for an exchange symbol.
// Satisfied by quotes.Client and by test doubles.
type QuoteClient interface {
	LatestPrice(ctx context.Context, symbol string) (quotes.Quote, error)
}

// SchemeFeed downloads the mutual-fund scheme master.
// Satisfied by amfi.Client and by test doubles.
type SchemeFeed interface {
	FetchSchemes(ctx context.Context) ([]model.SchemeMaster, error)
}

// lookupConcurrency caps parallel outbound quote requests per batch.
const lookupConcurrency = 5

// MarketDataService owns the price and NAV caches: batched reads for the
// reconciler and scheduled refreshes from the outside world. Lookup misses
// are reported by absence, never as a zero price.
type MarketDataService struct {
	priceRepo  *repository.PriceRepository
	schemeRepo *repository.SchemeRepository
	quoteC     QuoteClient
	schemeFeed SchemeFeed
	logger     zerolog.Logger
}

// NewMarketDataService creates a new MarketDataService with the provided dependencies.
func NewMarketDataService(
	priceRepo *repository.PriceRepository,
	schemeRepo *repository.SchemeRepository,
	quoteC QuoteClient,
	schemeFeed SchemeFeed,
	logger zerolog.Logger,
) *MarketDataService {
	return &MarketDataService{
		priceRepo:  priceRepo,
		schemeRepo: schemeRepo,
		quoteC:     quoteC,
		schemeFeed: schemeFeed,
		logger:     logger.With().Str("module", "marketdata").Logger(),
	}
}

// GetPrices returns stored prices for the given symbols, fetching any symbols
// missing from the cache concurrently. A symbol that cannot be fetched is
// absent from the result; callers fall back per their own rules.
func (s *MarketDataService) GetPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	unique := dedupeUpper(symbols)
	if len(unique) == 0 {
		return map[string]float64{}, nil
	}

	stored, err := s.priceRepo.GetPrices(unique)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(unique))
	missing := []string{}
	for _, sym := range unique {
		if p, ok := stored[sym]; ok {
			prices[sym] = p.Price
		} else {
			missing = append(missing, sym)
		}
	}

	if len(missing) == 0 {
		return prices, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)

	for _, sym := range missing {
		g.Go(func() error {
			quote, err := s.quoteC.LatestPrice(gctx, sym)
			if err != nil {
				// A failed quote is a miss, not a batch failure.
				s.logger.Warn().Err(err).Str("symbol", sym).Msg("quote lookup failed")
				return nil
			}
			if err := s.priceRepo.Upsert(model.AssetPrice{
				Symbol:    sym,
				Price:     quote.Price,
				PriceDate: quote.PriceDate,
			}); err != nil {
				s.logger.Warn().Err(err).Str("symbol", sym).Msg("price cache write failed")
			}
			mu.Lock()
			prices[sym] = quote.Price
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return prices, nil
}

// GetNavsByIsin returns latest NAVs for mutual-fund ISINs from the synced
// scheme master. ISINs with no scheme or a zero NAV are absent.
func (s *MarketDataService) GetNavsByIsin(isins []string) (map[string]float64, error) {
	navs := map[string]float64{}
	for _, isin := range dedupeUpper(isins) {
		scheme, err := s.schemeRepo.GetByIsin(isin)
		if err != nil {
			continue
		}
		if scheme.Nav > 0 {
			navs[isin] = scheme.Nav
		}
	}
	return navs, nil
}

// RefreshPrices re-fetches every cached symbol. Invoked by the cron schedule
// after market close; individual failures are logged and skipped.
func (s *MarketDataService) RefreshPrices(ctx context.Context) {
	symbols, err := s.priceRepo.ListSymbols()
	if err != nil {
		s.logger.Error().Err(err).Msg("price refresh could not list symbols")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)

	refreshed := 0
	var mu sync.Mutex
	for _, sym := range symbols {
		g.Go(func() error {
			quote, err := s.quoteC.LatestPrice(gctx, sym)
			if err != nil {
				s.logger.Warn().Err(err).Str("symbol", sym).Msg("price refresh skipped symbol")
				return nil
			}
			if err := s.priceRepo.Upsert(model.AssetPrice{
				Symbol:    sym,
				Price:     quote.Price,
				PriceDate: quote.PriceDate,
			}); err != nil {
				s.logger.Warn().Err(err).Str("symbol", sym).Msg("price refresh write failed")
				return nil
			}
			mu.Lock()
			refreshed++
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	s.logger.Info().Int("symbols", len(symbols)).Int("refreshed", refreshed).Msg("price refresh complete")
}

// SyncSchemes downloads the scheme-master feed and upserts it wholesale.
// Invoked by the cron schedule and at startup when the table is empty.
func (s *MarketDataService) SyncSchemes(ctx context.Context) error {
	schemes, err := s.schemeFeed.FetchSchemes(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheme sync failed to fetch feed")
		return err
	}

	written, err := s.schemeRepo.UpsertBatch(schemes)
	if err != nil {
		s.logger.Error().Err(err).Int("written", written).Msg("scheme sync failed to write")
		return err
	}

	s.logger.Info().Int("schemes", written).Msg("scheme sync complete")
	return nil
}

func dedupeUpper(values []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, v := range values {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
