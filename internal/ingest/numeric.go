package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// Sanity bounds against unit-confusion bugs (e.g. a price column that is
// actually a total). Product-tuned; overridable through Options.
const (
	DefaultMaxQuantity = 1e7
	DefaultMaxPrice    = 5e5
)

// Unit suffixes used by Indian bank/broker exports.
const (
	lakhMultiplier  = 100_000
	croreMultiplier = 10_000_000
)

var (
	currencyPrefixRe = regexp.MustCompile(`^(?i)(₹|rs\.?|inr|\$|€|£)\s*`)
	unitSuffixRe     = regexp.MustCompile(`(?i)\s*(l|lac|lacs|lakh|lakhs|cr|crore|crores)\.?$`)
	emptyTokens      = map[string]bool{
		"": true, "-": true, "--": true, "na": true, "n/a": true,
		"nil": true, "null": true,
	}
)

// ParseNumber converts free-text numeric cell content into a float.
// It strips currency symbols and thousand separators (including Indian
// 2-2-3 grouping), applies "L"/"Cr" unit suffixes, and accepts negatives
// written with a minus sign or parentheses. Returns ok=false on anything
// unparseable; it never panics.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if emptyTokens[strings.ToLower(s)] {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	}

	s = currencyPrefixRe.ReplaceAllString(s, "")

	multiplier := 1.0
	if m := unitSuffixRe.FindStringSubmatch(s); m != nil {
		switch strings.ToLower(strings.TrimSuffix(m[1], ".")) {
		case "l", "lac", "lacs", "lakh", "lakhs":
			multiplier = lakhMultiplier
		default:
			multiplier = croreMultiplier
		}
		s = strings.TrimSpace(s[:len(s)-len(m[0])])
	}

	// Thousand separators: both western (1,234,567.89) and Indian
	// (12,34,567.89) grouping reduce to comma removal.
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v * multiplier, true
}

// ParseQuantity parses a cell as a holding quantity. Values outside
// (0, maxQuantity] are rejected as unit-confusion artifacts.
func ParseQuantity(raw string, maxQuantity float64) (float64, bool) {
	v, ok := ParseNumber(raw)
	if !ok || v <= 0 || v > maxQuantity {
		return 0, false
	}
	return v, true
}

// ParsePrice parses a cell as a per-unit price. Values outside
// (0, maxPrice] are rejected.
func ParsePrice(raw string, maxPrice float64) (float64, bool) {
	v, ok := ParseNumber(raw)
	if !ok || v <= 0 || v > maxPrice {
		return 0, false
	}
	return v, true
}

// ParseAmount parses a cell as a monetary total (invested amount). Only
// positivity is enforced; totals legitimately exceed the per-unit price cap.
func ParseAmount(raw string) (float64, bool) {
	v, ok := ParseNumber(raw)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// normalizeKey lowercases and collapses whitespace for identity comparison.
func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
