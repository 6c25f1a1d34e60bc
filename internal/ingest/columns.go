package ingest

import (
	"regexp"
	"sort"
	"strings"
)

// maxSampleRows caps how many data rows the detector inspects per column.
const maxSampleRows = 20

// Minimum assignment scores per match tier. Weak matches need more support
// from the data validator before they are trusted.
const (
	minScoreWeak    = 0.4
	minScoreDefault = 0.3
)

// blacklistRule excludes a header from mapping entirely, with a reason the
// caller surfaces as an upload warning.
type blacklistRule struct {
	pattern *regexp.Regexp
	reason  string
}

// Columns matching these are either market-derived (stale the instant they
// are read) or are exactly the numbers this engine recomputes; trusting them
// would corrupt invested_value.
var blacklistRules = []blacklistRule{
	{regexp.MustCompile(`(?i)(current|market|present)\s*(value|val|amount|amt)`),
		"market-derived value; the system recomputes current value from quantity and price"},
	{regexp.MustCompile(`(?i)(p\s*[&/]\s*l|pnl|profit|loss|gain)`),
		"profit/loss column; derived value, recomputed from cost basis"},
	{regexp.MustCompile(`(?i)(\breturns?\b|xirr|cagr|absolute\s*return)`),
		"return percentage; derived value, recomputed from holdings"},
	{regexp.MustCompile(`(?i)((day|daily|today|1d)('?s)?\s*(change|chg|gain|loss)|change\s*%|%\s*change)`),
		"day-change column; market-derived and immediately stale"},
	{regexp.MustCompile(`(?i)\b(ltp|cmp|nav|last\s*(traded\s*)?price|closing\s*price|market\s*price)\b`),
		"last-traded price / NAV; market data is fetched from the price service instead"},
	{regexp.MustCompile(`(?i)invested\s*value`),
		"invested value is always recomputed from quantity and average price"},
	{regexp.MustCompile(`(?i)\b(txn|transaction|order|trade|ref(erence)?|account|client|demat)\s*(id|no\.?|number)\b`),
		"transaction/account identifier; not a holding attribute"},
	{regexp.MustCompile(`(?i)(\bdate\b|as\s*on|updated\s*(on|at))`),
		"date column; holdings are point-in-time, dates are ignored"},
	{regexp.MustCompile(`(?i)\b(status|remarks?|notes?|comments?)\b`),
		"free-text status column"},
}

// fieldSpec is the declarative synonym + validator table for one canonical
// field. New bank/broker header vocabularies are added here, not in code.
type fieldSpec struct {
	field     Field
	exact     []string
	strong    []string
	weak      []string
	validator func(cell string) bool
}

var isinCellRe = regexp.MustCompile(`^[A-Za-z]{2}[A-Za-z0-9]{9}[0-9]$`)
var symbolCellRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.&-]{0,19}$`)
var sectorCellRe = regexp.MustCompile(`^[A-Za-z][A-Za-z &/,-]{2,}$`)

var fieldSpecs = []fieldSpec{
	{
		field: FieldName,
		exact: []string{
			"name", "scheme name", "fund name", "stock name", "company name",
			"security name", "instrument", "instrument name", "scrip name",
			"particulars", "holding name",
		},
		strong:    []string{"scheme", "security", "company", "scrip", "holding"},
		weak:      []string{"description"},
		validator: validName,
	},
	{
		field: FieldSymbol,
		exact: []string{
			"symbol", "ticker", "trading symbol", "tradingsymbol",
			"stock symbol", "nse symbol", "bse symbol",
		},
		strong:    []string{"scrip code", "stock code", "symbol code"},
		weak:      []string{"code"},
		validator: validSymbol,
	},
	{
		field:     FieldIsin,
		exact:     []string{"isin", "isin code", "isin no", "isin number"},
		strong:    []string{"isin id"},
		validator: validIsin,
	},
	{
		field: FieldQuantity,
		exact: []string{
			"quantity", "qty", "units", "shares", "no of shares", "units held",
			"quantity held", "balance units", "qty held", "closing balance",
		},
		strong:    []string{"units balance", "net qty", "total units", "no of units"},
		weak:      []string{"balance", "holdings"},
		validator: validQuantity,
	},
	{
		field: FieldAveragePrice,
		exact: []string{
			"avg price", "average price", "avg cost", "average cost",
			"avg rate", "purchase price", "buy price", "avg buy price",
			"average buy price", "cost price", "avg nav", "purchase nav",
			"buy avg", "avg purchase price",
		},
		strong:    []string{"price", "rate", "cost per unit", "per unit cost"},
		weak:      []string{"avg", "cost"},
		validator: validPrice,
	},
	{
		field: FieldTotalInvested,
		exact: []string{
			"invested amount", "amount invested", "investment amount",
			"total invested", "purchase value", "buy value", "total cost",
			"investment", "invested",
		},
		strong:    []string{"amount", "investment value"},
		weak:      []string{"value"},
		validator: validAmount,
	},
	{
		field: FieldSector,
		exact: []string{
			"sector", "industry", "category", "asset type", "type",
			"asset class", "instrument type",
		},
		strong:    []string{"sub category", "classification", "asset category"},
		validator: validSector,
	},
}

func validName(cell string) bool {
	s := strings.TrimSpace(cell)
	if len(s) < 3 || isinCellRe.MatchString(s) {
		return false
	}
	if _, numeric := ParseNumber(s); numeric {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}) >= 0
}

func validSymbol(cell string) bool {
	s := strings.TrimSpace(cell)
	return symbolCellRe.MatchString(s) && !isinCellRe.MatchString(s)
}

func validIsin(cell string) bool {
	return isinCellRe.MatchString(strings.TrimSpace(cell))
}

func validQuantity(cell string) bool {
	_, ok := ParseQuantity(cell, DefaultMaxQuantity)
	return ok
}

func validPrice(cell string) bool {
	_, ok := ParsePrice(cell, DefaultMaxPrice)
	return ok
}

func validAmount(cell string) bool {
	_, ok := ParseAmount(cell)
	return ok
}

func validSector(cell string) bool {
	return sectorCellRe.MatchString(strings.TrimSpace(cell))
}

// candidate is one (header, field) pairing produced by the scoring pass.
type candidate struct {
	header      string
	headerIndex int
	field       Field
	fieldIndex  int
	tier        MatchTier
	score       float64
}

// DetectColumns maps spreadsheet headers onto canonical fields.
//
// Pass 1 removes blacklisted headers with a human-readable reason. Pass 2
// scores the remaining headers against each field's synonym tiers, weighted
// by how many sample cells pass the field's data validator, then assigns
// candidates greedily best-score-first: one field per header, one header per
// field, subject to a tier-dependent minimum score.
//
// Deterministic for the same headers+samples; never mutates its input.
func DetectColumns(headers []string, rows []RawRow) ColumnMapping {
	mapping := ColumnMapping{Fields: make(map[Field]*FieldMatch, len(AllFields))}
	for _, f := range AllFields {
		mapping.Fields[f] = nil
	}

	samples := rows
	if len(samples) > maxSampleRows {
		samples = samples[:maxSampleRows]
	}

	eligible := make([]int, 0, len(headers))
	for i, h := range headers {
		if rule, blocked := matchBlacklist(h); blocked {
			mapping.Ignored = append(mapping.Ignored, IgnoredColumn{
				Header: h,
				Reason: rule.reason,
			})
			continue
		}
		eligible = append(eligible, i)
	}

	var candidates []candidate
	for _, hi := range eligible {
		header := headers[hi]
		normalized := normalizeHeader(header)
		if normalized == "" {
			continue
		}
		for fi, spec := range fieldSpecs {
			tier, base := matchSynonyms(normalized, spec)
			if base == 0 {
				continue
			}
			score := base * validatorFactor(header, samples, spec.validator)
			candidates = append(candidates, candidate{
				header:      header,
				headerIndex: hi,
				field:       spec.field,
				fieldIndex:  fi,
				tier:        tier,
				score:       score,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.headerIndex != b.headerIndex {
			return a.headerIndex < b.headerIndex
		}
		return a.fieldIndex < b.fieldIndex
	})

	usedHeaders := make(map[int]bool)
	for _, c := range candidates {
		minScore := minScoreDefault
		if c.tier == TierWeak {
			minScore = minScoreWeak
		}
		if c.score < minScore || usedHeaders[c.headerIndex] || mapping.Fields[c.field] != nil {
			continue
		}
		usedHeaders[c.headerIndex] = true
		mapping.Fields[c.field] = &FieldMatch{
			Header:     c.header,
			Confidence: roundScore(c.score),
			Tier:       c.tier,
		}
	}

	return mapping
}

func matchBlacklist(header string) (blacklistRule, bool) {
	for _, rule := range blacklistRules {
		if rule.pattern.MatchString(header) {
			return rule, true
		}
	}
	return blacklistRule{}, false
}

// matchSynonyms returns the best tier and base score for a normalized header
// against one field's synonym table. Exact equality beats containment beats
// token overlap.
func matchSynonyms(normalized string, spec fieldSpec) (MatchTier, float64) {
	for _, syn := range spec.exact {
		if normalized == syn {
			return TierExact, 1.0
		}
	}
	for _, syn := range spec.strong {
		if normalized == syn {
			return TierExact, 1.0
		}
	}
	for _, syn := range append(append([]string{}, spec.exact...), spec.strong...) {
		if containsWord(normalized, syn) {
			return TierStrong, 0.75
		}
	}
	for _, syn := range spec.weak {
		if normalized == syn || containsWord(normalized, syn) {
			return TierWeak, 0.5
		}
	}
	return "", 0
}

// validatorFactor scales a synonym score by the fraction of sample cells the
// field validator accepts, so a syntactically-matching but semantically-wrong
// header (a "Price" column full of ISINs) is downweighted.
func validatorFactor(header string, samples []RawRow, validator func(string) bool) float64 {
	if validator == nil || len(samples) == 0 {
		return 1.0
	}
	var total, valid int
	for _, row := range samples {
		cell := strings.TrimSpace(row[header])
		if cell == "" {
			continue
		}
		total++
		if validator(cell) {
			valid++
		}
	}
	if total == 0 {
		return 1.0
	}
	return 0.2 + 0.8*float64(valid)/float64(total)
}

// containsWord reports whether needle appears in haystack on word boundaries.
func containsWord(haystack, needle string) bool {
	idx := strings.Index(haystack, needle)
	if idx < 0 {
		return false
	}
	if idx > 0 && haystack[idx-1] != ' ' {
		return false
	}
	end := idx + len(needle)
	return end == len(haystack) || haystack[end] == ' '
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeHeader lowercases and strips punctuation so "Avg. Price (Rs.)"
// compares as "avg price rs".
func normalizeHeader(header string) string {
	s := nonAlnumRe.ReplaceAllString(strings.ToLower(header), " ")
	return strings.TrimSpace(s)
}

func roundScore(s float64) float64 {
	if s > 1 {
		return 1
	}
	return float64(int(s*100+0.5)) / 100
}
