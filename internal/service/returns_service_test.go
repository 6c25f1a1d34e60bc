package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
	"github.com/rupeeview/portfolio-backend/internal/model"
	"github.com/rupeeview/portfolio-backend/internal/repository"
	"github.com/rupeeview/portfolio-backend/internal/testutil"
)

// WHY: 100000 invested a year ago, worth 130000 today, must annualize to
// roughly 30%.
func TestGetReturnsOneYearGain(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestReturnsService(t, db)

	portfolio, err := repository.NewPortfolioRepository(db).Insert("Growth", "")
	if err != nil {
		t.Fatalf("failed to create portfolio: %v", err)
	}

	asset, err := repository.NewAssetRepository(db).Insert("Infosys", model.AssetTypeEquity, "INFY", "")
	if err != nil {
		t.Fatalf("failed to create asset: %v", err)
	}
	if _, err := repository.NewHoldingRepository(db).Insert(model.Holding{
		PortfolioID: portfolio.ID, AssetID: asset.ID,
		Quantity: 100, AveragePrice: 1000, InvestedValue: 100000, CurrentValue: 130000, Source: "test",
	}); err != nil {
		t.Fatalf("failed to insert holding: %v", err)
	}
	if _, err := repository.NewCashFlowRepository(db).Insert(model.CashFlow{
		PortfolioID: portfolio.ID, AssetID: asset.ID,
		FlowDate: time.Now().UTC().AddDate(-1, 0, 0), Amount: -100000,
	}); err != nil {
		t.Fatalf("failed to insert cash flow: %v", err)
	}

	result, err := svc.GetReturns(portfolio.ID)
	if err != nil {
		t.Fatalf("GetReturns() error = %v", err)
	}

	if !approx(result.AnnualizedReturn, 0.30, 0.01) {
		t.Errorf("annualized return = %v, want ~0.30", result.AnnualizedReturn)
	}
	if !approx(result.TotalInvested, 100000, 1e-6) {
		t.Errorf("total invested = %v, want 100000", result.TotalInvested)
	}
	if !approx(result.TotalCurrentValue, 130000, 1e-6) {
		t.Errorf("total current value = %v, want 130000", result.TotalCurrentValue)
	}
	if result.FlowCount != 1 {
		t.Errorf("flow count = %d, want 1 recorded flow", result.FlowCount)
	}
}

// WHY: with no positive terminal value there is no sign change and no rate;
// callers get the sentinel plus the partial totals, not a crash.
func TestGetReturnsNotComputable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestReturnsService(t, db)

	portfolio, err := repository.NewPortfolioRepository(db).Insert("Flat", "")
	if err != nil {
		t.Fatalf("failed to create portfolio: %v", err)
	}
	asset, err := repository.NewAssetRepository(db).Insert("Infosys", model.AssetTypeEquity, "INFY", "")
	if err != nil {
		t.Fatalf("failed to create asset: %v", err)
	}
	if _, err := repository.NewCashFlowRepository(db).Insert(model.CashFlow{
		PortfolioID: portfolio.ID, AssetID: asset.ID,
		FlowDate: time.Now().UTC().AddDate(0, -6, 0), Amount: -50000,
	}); err != nil {
		t.Fatalf("failed to insert cash flow: %v", err)
	}

	result, err := svc.GetReturns(portfolio.ID)
	if !errors.Is(err, apperrors.ErrReturnsNotComputable) {
		t.Fatalf("GetReturns() error = %v, want ErrReturnsNotComputable", err)
	}
	if !approx(result.TotalInvested, 50000, 1e-6) {
		t.Errorf("partial result total invested = %v, want 50000", result.TotalInvested)
	}
}

// WHY: an empty portfolio is the common brand-new state; it is "not
// computable", never an internal error.
func TestGetReturnsEmptyPortfolio(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestReturnsService(t, db)

	portfolio, err := repository.NewPortfolioRepository(db).Insert("New", "")
	if err != nil {
		t.Fatalf("failed to create portfolio: %v", err)
	}

	_, err = svc.GetReturns(portfolio.ID)
	if !errors.Is(err, apperrors.ErrReturnsNotComputable) {
		t.Fatalf("GetReturns() error = %v, want ErrReturnsNotComputable", err)
	}
}
