package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rupeeview/portfolio-backend/internal/amfi"
	"github.com/rupeeview/portfolio-backend/internal/apperrors"
	"github.com/rupeeview/portfolio-backend/internal/ingest"
	"github.com/rupeeview/portfolio-backend/internal/model"
	"github.com/rupeeview/portfolio-backend/internal/repository"
)

// ReconcileResult summarizes one reconciliation pass for the upload response.
type ReconcileResult struct {
	HoldingsCreated int      `json:"holdingsCreated"`
	HoldingsUpdated int      `json:"holdingsUpdated"`
	AssetsCreated   int      `json:"assetsCreated"`
	Failed          int      `json:"failed"`
	Warnings        []string `json:"warnings,omitempty"`
}

// ReconcileService applies grouped upload positions to persisted holdings.
//
// Asset resolution order per position: ISIN, then symbol (skipped for
// fund-like types whose "symbol" is a scheme code), then exact name within
// the same asset type, then substring name within the same asset type, then
// create. An existing holding is merged with a weighted average, never
// replaced, which is what makes re-uploading the same file additive rather
// than destructive.
type ReconcileService struct {
	db           *sql.DB
	assetRepo    *repository.AssetRepository
	holdingRepo  *repository.HoldingRepository
	cashFlowRepo *repository.CashFlowRepository
	schemeRepo   *repository.SchemeRepository
	marketData   *MarketDataService
	logger       zerolog.Logger
}

// NewReconcileService creates a new ReconcileService with the provided dependencies.
func NewReconcileService(
	db *sql.DB,
	assetRepo *repository.AssetRepository,
	holdingRepo *repository.HoldingRepository,
	cashFlowRepo *repository.CashFlowRepository,
	schemeRepo *repository.SchemeRepository,
	marketData *MarketDataService,
	logger zerolog.Logger,
) *ReconcileService {
	return &ReconcileService{
		db:           db,
		assetRepo:    assetRepo,
		holdingRepo:  holdingRepo,
		cashFlowRepo: cashFlowRepo,
		schemeRepo:   schemeRepo,
		marketData:   marketData,
		logger:       logger.With().Str("module", "reconcile").Logger(),
	}
}

// Reconcile applies each grouped position to the portfolio. One failing
// position never aborts the rest: its rows are reported as a warning and the
// pass continues.
func (s *ReconcileService) Reconcile(ctx context.Context, portfolioID string, groups []ingest.GroupedHolding, source string) (ReconcileResult, error) {
	result := ReconcileResult{}

	// Enrich fund-like positions missing an ISIN from the scheme master
	// before the batched NAV lookup.
	navsWanted := []string{}
	symbolsWanted := []string{}
	for i := range groups {
		g := &groups[i]
		switch {
		case g.AssetType.IsFundLike():
			if g.Isin == "" {
				if scheme, ok := s.resolveScheme(g.Name); ok {
					g.Isin = scheme.BestIsin()
				} else {
					// Unresolved ISINs never block ingestion; the asset is
					// created without one for later backfill.
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("no scheme-master match for %q; asset stored without ISIN", g.Name))
				}
			}
			if g.Isin != "" {
				navsWanted = append(navsWanted, g.Isin)
			}
		case g.Symbol != "":
			symbolsWanted = append(symbolsWanted, g.Symbol)
		}
	}

	prices, err := s.marketData.GetPrices(ctx, symbolsWanted)
	if err != nil {
		s.logger.Warn().Err(err).Msg("price lookup failed; falling back per holding")
		prices = map[string]float64{}
	}
	navs, err := s.marketData.GetNavsByIsin(navsWanted)
	if err != nil {
		s.logger.Warn().Err(err).Msg("nav lookup failed; falling back per holding")
		navs = map[string]float64{}
	}

	for _, g := range groups {
		if err := s.applyGroup(portfolioID, g, source, prices, navs, &result); err != nil {
			result.Failed++
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %s (%s): %v", rowList(g.RowIndices), displayName(g.ParsedHolding), err))
			s.logger.Warn().Err(err).Str("portfolio", portfolioID).Str("holding", displayName(g.ParsedHolding)).Msg("position skipped")
		}
	}

	return result, nil
}

// applyGroup resolves, merges and records one position inside its own
// transaction so a failure rolls back cleanly without touching the others.
func (s *ReconcileService) applyGroup(portfolioID string, g ingest.GroupedHolding, source string, prices, navs map[string]float64, result *ReconcileResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	assetRepo := s.assetRepo.WithTx(tx)
	holdingRepo := s.holdingRepo.WithTx(tx)
	cashFlowRepo := s.cashFlowRepo.WithTx(tx)

	asset, assetCreated, err := s.resolveAsset(assetRepo, g.ParsedHolding)
	if err != nil {
		return err
	}

	existing, err := holdingRepo.GetByPortfolioAndAsset(portfolioID, asset.ID)
	merged := false
	switch {
	case err == nil:
		qty, price := ingest.MergePosition(existing.Quantity, existing.AveragePrice, g.Quantity, g.AveragePrice)
		existing.Quantity = qty
		existing.AveragePrice = price
		existing.InvestedValue = qty * price
		existing.CurrentValue = s.currentValue(asset, existing, prices, navs)
		existing.Source = source
		if err := holdingRepo.Update(existing); err != nil {
			return err
		}
		merged = true
	case err == apperrors.ErrHoldingNotFound:
		h := model.Holding{
			PortfolioID:   portfolioID,
			AssetID:       asset.ID,
			Quantity:      g.Quantity,
			AveragePrice:  g.AveragePrice,
			InvestedValue: g.InvestedValue,
			Source:        source,
		}
		h.CurrentValue = s.currentValue(asset, h, prices, navs)
		if _, err := holdingRepo.Insert(h); err != nil {
			return err
		}
	default:
		return err
	}

	// Purchases are outflows from the investor's perspective.
	if _, err := cashFlowRepo.Insert(model.CashFlow{
		PortfolioID: portfolioID,
		AssetID:     asset.ID,
		FlowDate:    time.Now().UTC(),
		Amount:      -g.InvestedValue,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit position: %w", err)
	}

	if assetCreated {
		result.AssetsCreated++
	}
	if merged {
		result.HoldingsUpdated++
	} else {
		result.HoldingsCreated++
	}
	return nil
}

// resolveAsset finds or creates the canonical asset for a parsed position.
// The second return reports whether a new asset was created.
func (s *ReconcileService) resolveAsset(repo *repository.AssetRepository, p ingest.ParsedHolding) (model.Asset, bool, error) {
	if p.Isin != "" {
		asset, err := repo.GetByIsin(p.Isin)
		if err == nil {
			return asset, false, nil
		}
		if err != apperrors.ErrAssetNotFound {
			return model.Asset{}, false, err
		}
	}

	// Scheme codes masquerade as symbols on fund statements; skip the
	// symbol tier for fund-like types.
	if p.Symbol != "" && !p.AssetType.IsFundLike() {
		asset, err := repo.GetBySymbol(p.Symbol)
		if err == nil {
			s.backfillIsin(repo, asset, p.Isin)
			return asset, false, nil
		}
		if err != apperrors.ErrAssetNotFound {
			return model.Asset{}, false, err
		}
	}

	if p.Name != "" {
		asset, err := repo.GetByNameAndType(p.Name, p.AssetType)
		if err == nil {
			s.backfillIsin(repo, asset, p.Isin)
			return asset, false, nil
		}
		if err != apperrors.ErrAssetNotFound {
			return model.Asset{}, false, err
		}

		asset, err = repo.GetByNameSubstring(p.Name, p.AssetType)
		if err == nil {
			s.backfillIsin(repo, asset, p.Isin)
			return asset, false, nil
		}
		if err != apperrors.ErrAssetNotFound {
			return model.Asset{}, false, err
		}
	}

	name := p.Name
	if name == "" {
		name = p.Symbol
	}
	if name == "" {
		name = p.Isin
	}
	asset, err := repo.Insert(name, p.AssetType, p.Symbol, p.Isin)
	if err != nil {
		return model.Asset{}, false, err
	}
	return asset, true, nil
}

// backfillIsin attaches a newly-learned ISIN to an asset that matched on a
// weaker identity tier. Never overwrites an existing ISIN.
func (s *ReconcileService) backfillIsin(repo *repository.AssetRepository, asset model.Asset, isin string) {
	if isin == "" || asset.Isin != "" {
		return
	}
	if err := repo.UpdateIsin(asset.ID, isin); err != nil {
		s.logger.Warn().Err(err).Str("asset", asset.ID).Msg("isin backfill failed")
	}
}

// currentValue derives the holding's market value.
//
// Equity and ETF positions use quantity times the stored market price;
// fund-like positions use quantity times NAV. With no price available the
// previous current value is kept, and a brand-new position falls back to its
// invested value. The uploaded average price is never used as a market price.
func (s *ReconcileService) currentValue(asset model.Asset, h model.Holding, prices, navs map[string]float64) float64 {
	switch {
	case asset.AssetType == model.AssetTypeEquity || asset.AssetType == model.AssetTypeETF:
		if price, ok := prices[strings.ToUpper(asset.Symbol)]; ok && price > 0 {
			return h.Quantity * price
		}
	case asset.AssetType.IsFundLike():
		if nav, ok := navs[strings.ToUpper(asset.Isin)]; ok && nav > 0 {
			return h.Quantity * nav
		}
	default:
		return h.InvestedValue
	}

	if h.CurrentValue > 0 && h.Quantity > 0 {
		return h.CurrentValue
	}
	return h.InvestedValue
}

// resolveScheme finds the best scheme-master match for a fund name: exact
// normalized-name match first, then a substring search. Candidates are ranked
// by fund-house agreement with the uploaded name, then Direct+Growth variant
// preference, then freshness, then the shortest name.
func (s *ReconcileService) resolveScheme(name string) (model.SchemeMaster, bool) {
	normalized := amfi.NormalizeSchemeName(name)
	if normalized == "" {
		return model.SchemeMaster{}, false
	}

	candidates, err := s.schemeRepo.GetByNormalizedName(normalized)
	if err != nil || len(candidates) == 0 {
		candidates, err = s.schemeRepo.SearchByNameSubstring(normalized, 25)
		if err != nil || len(candidates) == 0 {
			return model.SchemeMaster{}, false
		}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if schemeBetter(c, best, normalized) {
			best = c
		}
	}
	return best, true
}

func schemeBetter(a, b model.SchemeMaster, query string) bool {
	if ha, hb := fundHouseAgrees(a, query), fundHouseAgrees(b, query); ha != hb {
		return ha
	}
	if ga, gb := a.IsGrowth(), b.IsGrowth(); ga != gb {
		return ga
	}
	// Normalization strips plan tokens, so Direct and Regular variants share
	// a normalized name; check the raw scheme name.
	if da, db := isDirectPlan(a), isDirectPlan(b); da != db {
		return da
	}
	if !a.LastUpdated.Equal(b.LastUpdated) {
		return a.LastUpdated.After(b.LastUpdated)
	}
	return len(a.NormalizedName) < len(b.NormalizedName)
}

func isDirectPlan(s model.SchemeMaster) bool {
	return strings.Contains(strings.ToLower(s.SchemeName), "direct")
}

// fundHouseAgrees reports whether the scheme's fund house is named in the
// normalized query, e.g. "axis" for "Axis Mutual Fund" in "axis bluechip".
func fundHouseAgrees(s model.SchemeMaster, query string) bool {
	house, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(s.FundHouse)), " ")
	if house == "" {
		return false
	}
	return strings.Contains(" "+query+" ", " "+house+" ")
}

func displayName(p ingest.ParsedHolding) string {
	if p.Name != "" {
		return p.Name
	}
	if p.Symbol != "" {
		return p.Symbol
	}
	return p.Isin
}

func rowList(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprint(idx + 1)
	}
	return strings.Join(parts, ",")
}
