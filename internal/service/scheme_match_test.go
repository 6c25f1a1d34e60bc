package service

import (
	"testing"
	"time"

	"github.com/rupeeview/portfolio-backend/internal/model"
)

// WHY: Direct and Regular plan variants normalize to the same name, and
// several fund houses sell near-identical scheme names; the ranking decides
// which ISIN an uploaded fund row gets attached to.
func TestSchemeBetter(t *testing.T) {
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		a, b   model.SchemeMaster
		query  string
		aWins  bool
		reason string
	}{
		{
			name:   "fund house agreement beats everything",
			a:      model.SchemeMaster{SchemeName: "Axis Bluechip Fund - Regular Plan - Growth", NormalizedName: "axis bluechip", FundHouse: "Axis Mutual Fund", IsinGrowth: "INF846K01131", LastUpdated: older},
			b:      model.SchemeMaster{SchemeName: "SBI Bluechip Fund - Direct Plan - Growth", NormalizedName: "sbi bluechip", FundHouse: "SBI Mutual Fund", IsinGrowth: "INF200K01QX4", LastUpdated: newer},
			query:  "axis bluechip",
			aWins:  true,
			reason: "the upload names the Axis scheme",
		},
		{
			name:   "growth variant beats payout",
			a:      model.SchemeMaster{SchemeName: "HDFC Top 100 Fund - Growth", NormalizedName: "hdfc top 100", FundHouse: "HDFC Mutual Fund", IsinGrowth: "INF179K01XQ0"},
			b:      model.SchemeMaster{SchemeName: "HDFC Top 100 Fund - IDCW", NormalizedName: "hdfc top 100", FundHouse: "HDFC Mutual Fund", IsinDivPayout: "INF179K01XR8"},
			query:  "hdfc top 100",
			aWins:  true,
			reason: "growth ISINs are preferred",
		},
		{
			name:   "direct plan beats regular on identical normalized names",
			a:      model.SchemeMaster{SchemeName: "Axis Bluechip Fund - Direct Plan - Growth", NormalizedName: "axis bluechip", FundHouse: "Axis Mutual Fund", IsinGrowth: "INF846K01EW2"},
			b:      model.SchemeMaster{SchemeName: "Axis Bluechip Fund - Regular Plan - Growth", NormalizedName: "axis bluechip", FundHouse: "Axis Mutual Fund", IsinGrowth: "INF846K01131"},
			query:  "axis bluechip",
			aWins:  true,
			reason: "normalization strips the plan token, so the raw name decides",
		},
		{
			name:   "fresher record beats stale on full ties",
			a:      model.SchemeMaster{SchemeName: "Axis Bluechip Fund - Direct Plan - Growth", NormalizedName: "axis bluechip", FundHouse: "Axis Mutual Fund", IsinGrowth: "INF846K01EW2", LastUpdated: newer},
			b:      model.SchemeMaster{SchemeName: "Axis Bluechip Fund - Direct Plan - Growth", NormalizedName: "axis bluechip", FundHouse: "Axis Mutual Fund", IsinGrowth: "INF846K01EW2", LastUpdated: older},
			query:  "axis bluechip",
			aWins:  true,
			reason: "the feed re-lists schemes; the latest row carries the current NAV",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := schemeBetter(tc.a, tc.b, tc.query); got != tc.aWins {
				t.Errorf("schemeBetter() = %v, want %v (%s)", got, tc.aWins, tc.reason)
			}
			// The comparator must be asymmetric on a strict win.
			if tc.aWins && schemeBetter(tc.b, tc.a, tc.query) {
				t.Errorf("schemeBetter() holds in both directions for %s", tc.name)
			}
		})
	}
}
