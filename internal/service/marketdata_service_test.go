package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rupeeview/portfolio-backend/internal/model"
	"github.com/rupeeview/portfolio-backend/internal/testutil"
)

// WHY: the reconciler's batched lookup must serve cache hits without going
// out, fetch misses once, and report failed symbols by absence.
func TestGetPrices(t *testing.T) {
	db := testutil.SetupTestDB(t)

	t.Run("fetches misses and caches them", func(t *testing.T) {
		quoteC := testutil.NewMockQuoteClient(map[string]float64{"INFY": 1600, "TCS": 3200})
		svc := testutil.NewTestMarketDataService(t, db, quoteC, nil)

		prices, err := svc.GetPrices(context.Background(), []string{"infy", "INFY", "tcs"})
		if err != nil {
			t.Fatalf("GetPrices() error = %v", err)
		}
		if prices["INFY"] != 1600 || prices["TCS"] != 3200 {
			t.Errorf("prices = %v, want INFY 1600 and TCS 3200", prices)
		}
		if quoteC.QueryCount != 2 {
			t.Errorf("query count = %d, want 2 (duplicates collapse)", quoteC.QueryCount)
		}

		// Second batch is served from the cache.
		prices, err = svc.GetPrices(context.Background(), []string{"INFY", "TCS"})
		if err != nil {
			t.Fatalf("GetPrices() second call error = %v", err)
		}
		if prices["INFY"] != 1600 || prices["TCS"] != 3200 {
			t.Errorf("cached prices = %v", prices)
		}
		if quoteC.QueryCount != 2 {
			t.Errorf("query count = %d after cached batch, want still 2", quoteC.QueryCount)
		}
	})

	t.Run("failed symbols are absent, not zero", func(t *testing.T) {
		quoteC := testutil.NewMockQuoteClient(map[string]float64{"WIPRO": 450})
		svc := testutil.NewTestMarketDataService(t, db, quoteC, nil)

		prices, err := svc.GetPrices(context.Background(), []string{"WIPRO", "NOSUCH"})
		if err != nil {
			t.Fatalf("GetPrices() error = %v", err)
		}
		if prices["WIPRO"] != 450 {
			t.Errorf("prices = %v, want WIPRO 450", prices)
		}
		if _, ok := prices["NOSUCH"]; ok {
			t.Errorf("unknown symbol present in result: %v", prices)
		}
	})

	t.Run("empty input is an empty map", func(t *testing.T) {
		svc := testutil.NewTestMarketDataService(t, db, nil, nil)
		prices, err := svc.GetPrices(context.Background(), nil)
		if err != nil || len(prices) != 0 {
			t.Errorf("GetPrices(nil) = %v, %v, want empty map", prices, err)
		}
	})
}

// WHY: the startup and cron path both go through SyncSchemes; the NAV read
// path must see what the sync wrote.
func TestSyncSchemesAndNavLookup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()
	feed := &testutil.MockSchemeFeed{Schemes: []model.SchemeMaster{
		{
			SchemeCode: "118550", SchemeName: "HDFC Top 100 Fund - Direct Plan - Growth Option",
			NormalizedName: "hdfc top 100", FundHouse: "HDFC Mutual Fund",
			IsinGrowth: "INF179K01XQ0", Nav: 512.5, NavDate: now, IsActive: true, LastUpdated: now,
		},
		{
			SchemeCode: "100123", SchemeName: "Stale Fund - Growth",
			NormalizedName: "stale", FundHouse: "Stale AMC",
			IsinGrowth: "INF000A01010", Nav: 0, NavDate: now, IsActive: true, LastUpdated: now,
		},
	}}
	svc := testutil.NewTestMarketDataService(t, db, nil, feed)

	if err := svc.SyncSchemes(context.Background()); err != nil {
		t.Fatalf("SyncSchemes() error = %v", err)
	}

	navs, err := svc.GetNavsByIsin([]string{"inf179k01xq0", "INF000A01010", "INF999X99999"})
	if err != nil {
		t.Fatalf("GetNavsByIsin() error = %v", err)
	}
	if navs["INF179K01XQ0"] != 512.5 {
		t.Errorf("navs = %v, want INF179K01XQ0 at 512.5", navs)
	}
	if _, ok := navs["INF000A01010"]; ok {
		t.Errorf("zero-NAV scheme present in result: %v", navs)
	}
	if _, ok := navs["INF999X99999"]; ok {
		t.Errorf("unknown ISIN present in result: %v", navs)
	}
}
