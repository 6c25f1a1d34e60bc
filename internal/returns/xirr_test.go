package returns

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestXIRR_OneYearGain covers the baseline case: -100000 on 2024-01-01 and
// +130000 exactly one year later must solve to ~+30%.
func TestXIRR_OneYearGain(t *testing.T) {
	flows := []CashFlow{
		{Date: date(2024, 1, 1), Amount: -100000},
		{Date: date(2025, 1, 1), Amount: 130000},
	}

	rate, err := XIRR(flows)
	if err != nil {
		t.Fatalf("XIRR failed: %v", err)
	}
	// 366 days of 2024 over a 365-day year nudge the result slightly below
	// the nominal 30%.
	if math.Abs(rate-0.30) > 0.005 {
		t.Errorf("rate = %v, want ~0.30", rate)
	}
}

// TestXIRR_UnsortedInput verifies sorting is internal: flow order must not
// change the solution.
func TestXIRR_UnsortedInput(t *testing.T) {
	sorted := []CashFlow{
		{Date: date(2023, 1, 1), Amount: -50000},
		{Date: date(2024, 1, 1), Amount: -50000},
		{Date: date(2025, 1, 1), Amount: 125000},
	}
	shuffled := []CashFlow{sorted[2], sorted[0], sorted[1]}

	a, errA := XIRR(sorted)
	b, errB := XIRR(shuffled)
	if errA != nil || errB != nil {
		t.Fatalf("XIRR failed: %v / %v", errA, errB)
	}
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("order changed result: %v vs %v", a, b)
	}
}

// TestXIRR_NotComputable checks the deterministic refusals: too few flows
// and single-signed flows.
func TestXIRR_NotComputable(t *testing.T) {
	cases := map[string][]CashFlow{
		"empty":         {},
		"single flow":   {{Date: date(2024, 1, 1), Amount: -1000}},
		"all negative":  {{Date: date(2024, 1, 1), Amount: -1000}, {Date: date(2025, 1, 1), Amount: -2000}},
		"all positive":  {{Date: date(2024, 1, 1), Amount: 1000}, {Date: date(2025, 1, 1), Amount: 2000}},
		"zeros only":    {{Date: date(2024, 1, 1), Amount: 0}, {Date: date(2025, 1, 1), Amount: 0}},
	}
	for name, flows := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := XIRR(flows); !errors.Is(err, apperrors.ErrReturnsNotComputable) {
				t.Errorf("got %v, want ErrReturnsNotComputable", err)
			}
		})
	}
}

// TestXIRR_SteepLoss exercises the fallback seed ladder: a halving has its
// root near -0.5, where the primary 0.10 seed overshoots past -1 and the
// -0.5 fallback seed converges.
func TestXIRR_SteepLoss(t *testing.T) {
	flows := []CashFlow{
		{Date: date(2024, 1, 1), Amount: -100000},
		{Date: date(2025, 1, 1), Amount: 50000},
	}

	rate, err := XIRR(flows)
	if err != nil {
		t.Fatalf("XIRR failed: %v", err)
	}
	if rate > -0.45 || rate < -0.55 {
		t.Errorf("rate = %v, want ~-0.50", rate)
	}

	// Verify the solution actually zeroes the NPV.
	npv := -100000 + 50000/math.Pow(1+rate, 366.0/365.0)
	if math.Abs(npv) > 1e-2 {
		t.Errorf("solution does not zero NPV: %v", npv)
	}
}

// TestXIRR_MultipleFlows sanity-checks a SIP-like series against a bounded
// range rather than an exact value.
func TestXIRR_MultipleFlows(t *testing.T) {
	flows := []CashFlow{
		{Date: date(2024, 1, 1), Amount: -10000},
		{Date: date(2024, 4, 1), Amount: -10000},
		{Date: date(2024, 7, 1), Amount: -10000},
		{Date: date(2024, 10, 1), Amount: -10000},
		{Date: date(2025, 1, 1), Amount: 44000},
	}

	rate, err := XIRR(flows)
	if err != nil {
		t.Fatalf("XIRR failed: %v", err)
	}
	// 10% absolute gain on a ~7.5-month average deployment ≈ 16-18% annualized.
	if rate < 0.12 || rate > 0.25 {
		t.Errorf("rate = %v, want within (0.12, 0.25)", rate)
	}
}
