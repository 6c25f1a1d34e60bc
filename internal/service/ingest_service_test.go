package service_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
	"github.com/rupeeview/portfolio-backend/internal/ingest"
	"github.com/rupeeview/portfolio-backend/internal/model"
	"github.com/rupeeview/portfolio-backend/internal/repository"
	"github.com/rupeeview/portfolio-backend/internal/testutil"
)

const mutualFundCSV = "Scheme Name,Units,Invested Amount\n" +
	"ICICI Prudential Innovation Growth Direct Plan,100,50000\n"

func approx(got, want, tolerance float64) bool {
	return math.Abs(got-want) <= tolerance
}

// WHY: re-uploading the same file must merge positions, never duplicate or
// replace them — users upload incrementally from multiple brokers.
func TestConfirmIdempotentMerge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestIngestService(t, db, nil)

	portfolio, err := repository.NewPortfolioRepository(db).Insert("Retirement", "")
	if err != nil {
		t.Fatalf("failed to create portfolio: %v", err)
	}

	first, err := svc.Confirm(context.Background(), portfolio.ID, "holdings.csv", strings.NewReader(mutualFundCSV), "holdings.csv")
	if err != nil {
		t.Fatalf("first Confirm() error = %v", err)
	}
	if first.AssetsCreated != 1 || first.HoldingsCreated != 1 || first.HoldingsUpdated != 0 {
		t.Errorf("first upload = %+v, want 1 asset, 1 holding created", first)
	}

	second, err := svc.Confirm(context.Background(), portfolio.ID, "holdings.csv", strings.NewReader(mutualFundCSV), "holdings.csv")
	if err != nil {
		t.Fatalf("second Confirm() error = %v", err)
	}
	if second.AssetsCreated != 0 || second.HoldingsCreated != 0 || second.HoldingsUpdated != 1 {
		t.Errorf("second upload = %+v, want 0 created, 1 updated", second)
	}

	holdings, err := repository.NewHoldingRepository(db).ListByPortfolio(portfolio.ID)
	if err != nil {
		t.Fatalf("failed to list holdings: %v", err)
	}
	if len(holdings) != 1 {
		t.Fatalf("got %d holdings, want 1", len(holdings))
	}

	h := holdings[0]
	if !approx(h.Quantity, 200, 1e-6) {
		t.Errorf("merged quantity = %v, want 200", h.Quantity)
	}
	if !approx(h.AveragePrice, 500, 1e-6) {
		t.Errorf("merged average price = %v, want 500 (unchanged unit price)", h.AveragePrice)
	}
	if !approx(h.InvestedValue, 100000, 1e-3) {
		t.Errorf("merged invested value = %v, want 100000", h.InvestedValue)
	}
	if h.AssetType != model.AssetTypeMutualFund {
		t.Errorf("asset type = %v, want mutual_fund", h.AssetType)
	}
}

// WHY: the preview is a dry run; nothing may touch the database.
func TestPreviewPersistsNothing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestIngestService(t, db, nil)

	preview, err := svc.Preview("holdings.csv", strings.NewReader(mutualFundCSV))
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}

	if preview.Summary.TotalRows != 1 || preview.Summary.ValidRows != 1 {
		t.Errorf("summary = %+v, want 1 total, 1 valid", preview.Summary)
	}
	if !approx(preview.Summary.TotalInvestedValue, 50000, 1e-6) {
		t.Errorf("total invested = %v, want 50000", preview.Summary.TotalInvestedValue)
	}
	if len(preview.Holdings) != 1 || !approx(preview.Holdings[0].AveragePrice, 500, 1e-6) {
		t.Errorf("holdings = %+v, want one row with derived average price 500", preview.Holdings)
	}

	t.Run("detected columns follow the contract", func(t *testing.T) {
		for field, want := range map[ingest.Field]string{
			ingest.FieldName:          "Scheme Name",
			ingest.FieldQuantity:      "Units",
			ingest.FieldTotalInvested: "Invested Amount",
		} {
			got := preview.DetectedColumns[field]
			if got == nil || *got != want {
				t.Errorf("detectedColumns[%s] = %v, want %q", field, got, want)
			}
		}
		if preview.DetectedColumns[ingest.FieldAveragePrice] != nil {
			t.Errorf("average_price should be unmapped (null) for this file")
		}
	})

	var assets int
	if err := db.QueryRow(`SELECT COUNT(*) FROM asset`).Scan(&assets); err != nil {
		t.Fatalf("failed to count assets: %v", err)
	}
	if assets != 0 {
		t.Errorf("preview persisted %d assets, want 0", assets)
	}
}

// WHY: current value must come from the price collaborator when available
// and degrade to invested value, never to average price as market price.
func TestConfirmCurrentValueFallback(t *testing.T) {
	db := testutil.SetupTestDB(t)
	quoteC := testutil.NewMockQuoteClient(map[string]float64{"INFY": 1600})
	marketData := testutil.NewTestMarketDataService(t, db, quoteC, nil)
	svc := testutil.NewTestIngestService(t, db, marketData)

	portfolio, err := repository.NewPortfolioRepository(db).Insert("Stocks", "")
	if err != nil {
		t.Fatalf("failed to create portfolio: %v", err)
	}

	csv := "Name,Trading Symbol,Quantity,Avg Price\n" +
		"Infosys,INFY,10,1500\n" +
		"TCS,TCS,5,3000\n"
	if _, err := svc.Confirm(context.Background(), portfolio.ID, "stocks.csv", strings.NewReader(csv), "stocks.csv"); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	holdings, err := repository.NewHoldingRepository(db).ListByPortfolio(portfolio.ID)
	if err != nil {
		t.Fatalf("failed to list holdings: %v", err)
	}
	if len(holdings) != 2 {
		t.Fatalf("got %d holdings, want 2", len(holdings))
	}

	byName := map[string]model.HoldingWithAsset{}
	for _, h := range holdings {
		byName[h.AssetName] = h
	}

	t.Run("priced symbol uses quantity times market price", func(t *testing.T) {
		h := byName["Infosys"]
		if !approx(h.CurrentValue, 16000, 1e-6) {
			t.Errorf("current value = %v, want 16000 (10 x 1600)", h.CurrentValue)
		}
	})

	t.Run("unpriced symbol falls back to invested value", func(t *testing.T) {
		h := byName["TCS"]
		if !approx(h.CurrentValue, 15000, 1e-6) {
			t.Errorf("current value = %v, want invested 15000, never 3000-as-market", h.CurrentValue)
		}
	})
}

// WHY: when most rows cannot be classified the whole upload must be refused
// with guidance, not silently ingested as "other".
func TestConfirmAmbiguityGateRejects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestIngestService(t, db, nil)

	portfolio, err := repository.NewPortfolioRepository(db).Insert("Mixed", "")
	if err != nil {
		t.Fatalf("failed to create portfolio: %v", err)
	}

	csv := "Name,Quantity,Avg Price\n" +
		"Some Random Unclassifiable Security One,10,100\n" +
		"Another Random Unclassifiable Security Two,20,50\n"
	_, err = svc.Confirm(context.Background(), portfolio.ID, "odd.csv", strings.NewReader(csv), "odd.csv")
	if !errors.Is(err, apperrors.ErrAmbiguousClassification) {
		t.Fatalf("Confirm() error = %v, want ErrAmbiguousClassification", err)
	}

	var holdings int
	if err := db.QueryRow(`SELECT COUNT(*) FROM holding`).Scan(&holdings); err != nil {
		t.Fatalf("failed to count holdings: %v", err)
	}
	if holdings != 0 {
		t.Errorf("gate rejection persisted %d holdings, want 0", holdings)
	}
}

// WHY: one bad row may not sink the batch; it becomes a warning and the rest
// of the file lands.
func TestConfirmInvalidRowsBecomeWarnings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestIngestService(t, db, nil)

	portfolio, err := repository.NewPortfolioRepository(db).Insert("Partial", "")
	if err != nil {
		t.Fatalf("failed to create portfolio: %v", err)
	}

	csv := "Scheme Name,Units,Invested Amount\n" +
		"HDFC Top 100 Fund Direct Growth Plan,100,50000\n" +
		"Axis Bluechip Fund Growth Plan,,60000\n"
	result, err := svc.Confirm(context.Background(), portfolio.ID, "mixed.csv", strings.NewReader(csv), "mixed.csv")
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	if result.HoldingsCreated != 1 {
		t.Errorf("holdings created = %d, want 1 (valid row only)", result.HoldingsCreated)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "quantity not found or invalid") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want one naming the invalid quantity", result.Warnings)
	}
}
