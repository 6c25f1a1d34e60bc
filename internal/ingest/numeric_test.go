package ingest

import (
	"math"
	"testing"
)

// TestParseNumber covers the locale handling the parser exists for:
// currency prefixes, Indian digit grouping, unit suffixes, and negatives.
//
// WHY: bank and broker exports write the same number a dozen ways; every
// downstream invariant (invested = qty * price) depends on these parsing
// cases resolving to identical floats.
func TestParseNumber(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"plain integer", "1500", 1500, true},
		{"plain decimal", "123.45", 123.45, true},
		{"western grouping", "1,234,567.89", 1234567.89, true},
		{"indian grouping", "12,34,567.89", 1234567.89, true},
		{"rupee symbol", "₹1,500.50", 1500.50, true},
		{"rs prefix", "Rs. 2,000", 2000, true},
		{"inr prefix", "INR 750", 750, true},
		{"dollar prefix", "$99.99", 99.99, true},
		{"lakh suffix", "1.5L", 150000, true},
		{"lakh word", "2 Lakh", 200000, true},
		{"crore suffix", "1.2Cr", 12000000, true},
		{"crore word", "0.5 Crore", 5000000, true},
		{"currency and lakh", "₹1.5 L", 150000, true},
		{"minus negative", "-500", -500, true},
		{"parenthesized negative", "(1,200)", -1200, true},
		{"percent stripped", "12.5%", 12.5, true},
		{"empty", "", 0, false},
		{"dash placeholder", "-", 0, false},
		{"na placeholder", "N/A", 0, false},
		{"free text", "not available", 0, false},
		{"isin-looking", "INE123456789", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseNumber(tc.input)
			if ok != tc.ok {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if ok && math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("ParseNumber(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

// TestParseQuantityBounds verifies the unit-confusion sanity bounds: a
// quantity outside (0, 1e7] is rejected rather than silently accepted.
func TestParseQuantityBounds(t *testing.T) {
	if _, ok := ParseQuantity("0", DefaultMaxQuantity); ok {
		t.Error("zero quantity should be invalid")
	}
	if _, ok := ParseQuantity("-5", DefaultMaxQuantity); ok {
		t.Error("negative quantity should be invalid")
	}
	if _, ok := ParseQuantity("10000001", DefaultMaxQuantity); ok {
		t.Error("quantity above cap should be invalid")
	}
	if v, ok := ParseQuantity("100", DefaultMaxQuantity); !ok || v != 100 {
		t.Errorf("ParseQuantity(100) = %v, %v; want 100, true", v, ok)
	}
}

// TestParsePriceBounds verifies the price cap that catches a price column
// accidentally holding totals.
func TestParsePriceBounds(t *testing.T) {
	if _, ok := ParsePrice("500001", DefaultMaxPrice); ok {
		t.Error("price above cap should be invalid")
	}
	if v, ok := ParsePrice("₹499.95", DefaultMaxPrice); !ok || math.Abs(v-499.95) > 1e-9 {
		t.Errorf("ParsePrice = %v, %v; want 499.95, true", v, ok)
	}
	// Totals are allowed past the per-unit cap.
	if v, ok := ParseAmount("₹12,00,000"); !ok || v != 1200000 {
		t.Errorf("ParseAmount = %v, %v; want 1200000, true", v, ok)
	}
}
