package service_test

import (
	"testing"

	"github.com/rupeeview/portfolio-backend/internal/model"
	"github.com/rupeeview/portfolio-backend/internal/repository"
	"github.com/rupeeview/portfolio-backend/internal/testutil"
)

// WHY: every holdings write is followed by a full recompute; the snapshot's
// allocation must always sum to exactly 100.
func TestRecomputeAllocationAndScores(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestMetricsService(t, db)

	portfolio, err := repository.NewPortfolioRepository(db).Insert("Balanced", "")
	if err != nil {
		t.Fatalf("failed to create portfolio: %v", err)
	}

	assetRepo := repository.NewAssetRepository(db)
	holdingRepo := repository.NewHoldingRepository(db)

	equity, err := assetRepo.Insert("Infosys", model.AssetTypeEquity, "INFY", "")
	if err != nil {
		t.Fatalf("failed to create equity asset: %v", err)
	}
	fund, err := assetRepo.Insert("HDFC Top 100", model.AssetTypeMutualFund, "", "INF179K01XQ0")
	if err != nil {
		t.Fatalf("failed to create fund asset: %v", err)
	}

	for _, h := range []model.Holding{
		{PortfolioID: portfolio.ID, AssetID: equity.ID, Quantity: 40, AveragePrice: 1500, InvestedValue: 60000, CurrentValue: 66000, Source: "test"},
		{PortfolioID: portfolio.ID, AssetID: fund.ID, Quantity: 80, AveragePrice: 500, InvestedValue: 40000, CurrentValue: 41000, Source: "test"},
	} {
		if _, err := holdingRepo.Insert(h); err != nil {
			t.Fatalf("failed to insert holding: %v", err)
		}
	}

	m, err := svc.Recompute(portfolio.ID)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	t.Run("allocation by invested value", func(t *testing.T) {
		if !approx(m.Allocation[model.AssetClassEquity], 60, 1e-9) {
			t.Errorf("equity allocation = %v, want 60", m.Allocation[model.AssetClassEquity])
		}
		if !approx(m.Allocation[model.AssetClassMutualFund], 40, 1e-9) {
			t.Errorf("mutual fund allocation = %v, want 40", m.Allocation[model.AssetClassMutualFund])
		}
		sum := 0.0
		for _, pct := range m.Allocation {
			sum += pct
		}
		if sum != 100 {
			t.Errorf("allocation sum = %v, want exactly 100", sum)
		}
	})

	t.Run("scores", func(t *testing.T) {
		// (80*60000 + 50*40000) / 100000
		if !approx(m.RiskScore, 68, 1e-9) {
			t.Errorf("risk score = %v, want 68", m.RiskScore)
		}
		if !approx(m.ConcentrationScore, 60, 1e-9) {
			t.Errorf("concentration = %v, want 60 (largest holding)", m.ConcentrationScore)
		}
		// 100 - 3*15 thin-portfolio penalty - 20 concentration overshoot.
		if !approx(m.DiversificationScore, 35, 1e-9) {
			t.Errorf("diversification = %v, want 35", m.DiversificationScore)
		}
	})

	t.Run("totals", func(t *testing.T) {
		if !approx(m.TotalInvestedValue, 100000, 1e-6) || !approx(m.TotalCurrentValue, 107000, 1e-6) {
			t.Errorf("totals = %v / %v, want 100000 / 107000", m.TotalInvestedValue, m.TotalCurrentValue)
		}
	})

	t.Run("snapshot is persisted", func(t *testing.T) {
		stored, err := svc.GetMetrics(portfolio.ID)
		if err != nil {
			t.Fatalf("GetMetrics() error = %v", err)
		}
		if !approx(stored.RiskScore, m.RiskScore, 1e-9) {
			t.Errorf("stored risk score = %v, want %v", stored.RiskScore, m.RiskScore)
		}
	})
}

// WHY: residual from repeating fractions (three equal thirds) must land in
// one bucket, never leave the sum off 100.
func TestRecomputeResidualGoesToLargestBucket(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestMetricsService(t, db)

	portfolio, err := repository.NewPortfolioRepository(db).Insert("Thirds", "")
	if err != nil {
		t.Fatalf("failed to create portfolio: %v", err)
	}

	assetRepo := repository.NewAssetRepository(db)
	holdingRepo := repository.NewHoldingRepository(db)
	fixtures := []struct {
		name string
		typ  model.AssetType
	}{
		{"Infosys", model.AssetTypeEquity},
		{"Nippon Gold BeES", model.AssetTypeETF},
		{"HDFC Top 100", model.AssetTypeMutualFund},
	}
	for _, f := range fixtures {
		asset, err := assetRepo.Insert(f.name, f.typ, "", "")
		if err != nil {
			t.Fatalf("failed to create asset: %v", err)
		}
		if _, err := holdingRepo.Insert(model.Holding{
			PortfolioID: portfolio.ID, AssetID: asset.ID,
			Quantity: 10, AveragePrice: 1000, InvestedValue: 10000, CurrentValue: 10000, Source: "test",
		}); err != nil {
			t.Fatalf("failed to insert holding: %v", err)
		}
	}

	m, err := svc.Recompute(portfolio.ID)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	sum := 0.0
	for _, pct := range m.Allocation {
		sum += pct
	}
	if sum != 100 {
		t.Errorf("allocation sum = %v, want exactly 100 after residual assignment", sum)
	}
}

// WHY: an empty portfolio has well-defined zero metrics, no NaN from
// dividing by a zero total.
func TestRecomputeEmptyPortfolio(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestMetricsService(t, db)

	portfolio, err := repository.NewPortfolioRepository(db).Insert("Empty", "")
	if err != nil {
		t.Fatalf("failed to create portfolio: %v", err)
	}

	m, err := svc.Recompute(portfolio.ID)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	if m.TotalInvestedValue != 0 || m.RiskScore != 0 || m.ConcentrationScore != 0 {
		t.Errorf("empty portfolio metrics = %+v, want all zeros", m)
	}
	for class, pct := range m.Allocation {
		if pct != 0 {
			t.Errorf("allocation[%s] = %v, want 0", class, pct)
		}
	}
}
