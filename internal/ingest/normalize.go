package ingest

import (
	"strings"
)

// Options carries the product-tuned bounds the pipeline stages honor.
type Options struct {
	MaxQuantity float64
	MaxPrice    float64
}

// DefaultOptions returns the default sanity bounds.
func DefaultOptions() Options {
	return Options{MaxQuantity: DefaultMaxQuantity, MaxPrice: DefaultMaxPrice}
}

// NormalizeRows builds one ParsedHolding per raw row.
//
// The invested value is resolved through one of two mutually exclusive
// paths: a detected total-invested column takes priority (average price is
// then derived as invested/quantity) over a detected average-price column
// (invested is then quantity*price). A row with neither is invalid. The
// uploaded file is never trusted for any other derived monetary value.
func NormalizeRows(rows []RawRow, mapping ColumnMapping, detections []AssetDetection, opts Options) []ParsedHolding {
	holdings := make([]ParsedHolding, 0, len(rows))
	for i, row := range rows {
		h := normalizeRow(row, mapping, opts)
		h.RowIndex = i
		if i < len(detections) {
			h.AssetType = detections[i].AssetType
		}
		holdings = append(holdings, h)
	}
	return holdings
}

func normalizeRow(row RawRow, mapping ColumnMapping, opts Options) ParsedHolding {
	h := ParsedHolding{
		Name:   strings.TrimSpace(row[mapping.Header(FieldName)]),
		Symbol: strings.ToUpper(strings.TrimSpace(row[mapping.Header(FieldSymbol)])),
	}
	if isin := strings.ToUpper(strings.TrimSpace(row[mapping.Header(FieldIsin)])); isinCellRe.MatchString(isin) {
		h.Isin = isin
	}

	if h.Name == "" && h.Symbol == "" && h.Isin == "" {
		h.ValidationNote = "no name, symbol or ISIN found"
		return h
	}

	qty, ok := ParseQuantity(row[mapping.Header(FieldQuantity)], opts.MaxQuantity)
	if !ok {
		h.ValidationNote = "quantity not found or invalid"
		return h
	}
	h.Quantity = qty

	switch {
	case mapping.Has(FieldTotalInvested):
		invested, ok := ParseAmount(row[mapping.Header(FieldTotalInvested)])
		if !ok {
			h.ValidationNote = "investment amount not found"
			return h
		}
		h.InvestedValue = invested
		h.AveragePrice = invested / qty
	case mapping.Has(FieldAveragePrice):
		price, ok := ParsePrice(row[mapping.Header(FieldAveragePrice)], opts.MaxPrice)
		if !ok {
			h.ValidationNote = "investment amount not found"
			return h
		}
		h.AveragePrice = price
		h.InvestedValue = qty * price
	default:
		h.ValidationNote = "investment amount not found"
		return h
	}

	h.IsValid = h.Quantity > 0 && h.InvestedValue > 0
	return h
}

// MergePosition combines two lots of the same asset with a quantity-weighted
// average price. Associative and commutative, so grouping and reconciliation
// order never affect the result.
func MergePosition(qtyA, priceA, qtyB, priceB float64) (qty, price float64) {
	qty = qtyA + qtyB
	if qty <= 0 {
		return 0, 0
	}
	price = (qtyA*priceA + qtyB*priceB) / qty
	return qty, price
}

// GroupHoldings deduplicates valid holdings by identity (ISIN, else symbol,
// else case-normalized name), summing quantities and recomputing the
// weighted-average price. Invalid rows pass through unmerged in passthrough,
// retained for user-visible audit, never silently dropped.
func GroupHoldings(holdings []ParsedHolding) (groups []GroupedHolding, passthrough []ParsedHolding) {
	index := make(map[string]int)
	for _, h := range holdings {
		if !h.IsValid {
			passthrough = append(passthrough, h)
			continue
		}
		key := h.IdentityKey()
		gi, seen := index[key]
		if !seen {
			index[key] = len(groups)
			groups = append(groups, GroupedHolding{
				ParsedHolding: h,
				RowIndices:    []int{h.RowIndex},
			})
			continue
		}

		g := &groups[gi]
		qty, price := MergePosition(g.Quantity, g.AveragePrice, h.Quantity, h.AveragePrice)
		g.Quantity = qty
		g.AveragePrice = price
		g.InvestedValue = qty * price
		g.RowIndices = append(g.RowIndices, h.RowIndex)

		// Enrich group identity from later rows of the same position.
		if g.Isin == "" {
			g.Isin = h.Isin
		}
		if g.Symbol == "" {
			g.Symbol = h.Symbol
		}
	}
	return groups, passthrough
}
