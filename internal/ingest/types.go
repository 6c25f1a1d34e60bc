// Package ingest turns an arbitrary uploaded spreadsheet of investment
// holdings into canonical, deduplicated, classified positions. Every stage is
// a pure function over the in-memory row set; persistence and external
// lookups happen in the service layer.
package ingest

import "github.com/rupeeview/portfolio-backend/internal/model"

// Field is a canonical spreadsheet column target.
type Field string

const (
	FieldName          Field = "name"
	FieldSymbol        Field = "symbol"
	FieldIsin          Field = "isin"
	FieldQuantity      Field = "quantity"
	FieldAveragePrice  Field = "average_price"
	FieldTotalInvested Field = "total_invested"
	FieldSector        Field = "sector"
)

// AllFields lists the detector's targets in assignment-report order.
var AllFields = []Field{
	FieldName,
	FieldSymbol,
	FieldIsin,
	FieldQuantity,
	FieldAveragePrice,
	FieldTotalInvested,
	FieldSector,
}

// RawRow is an ordered header→cell mapping for one spreadsheet row.
// Ephemeral; discarded after parsing.
type RawRow map[string]string

// Sheet is the decoded upload: a header row plus data rows with missing
// cells filled with "".
type Sheet struct {
	Headers []string
	Rows    []RawRow
}

// MatchTier describes how a header matched a field's synonym table.
type MatchTier string

const (
	TierExact  MatchTier = "exact"
	TierStrong MatchTier = "strong"
	TierWeak   MatchTier = "weak"
)

// FieldMatch is the chosen header for one canonical field.
type FieldMatch struct {
	Header     string    `json:"header"`
	Confidence float64   `json:"confidence"`
	Tier       MatchTier `json:"tier"`
}

// IgnoredColumn is a header excluded by the blacklist, with the reason
// surfaced to the caller as an upload warning.
type IgnoredColumn struct {
	Header string `json:"header"`
	Reason string `json:"reason"`
}

// ColumnMapping is the detector result: per canonical field the chosen
// header (nil when not found), plus the ignored-column list. Built once per
// file; never mutated afterwards.
type ColumnMapping struct {
	Fields  map[Field]*FieldMatch `json:"fields"`
	Ignored []IgnoredColumn       `json:"ignored"`
}

// Header returns the mapped header for a field, or "" when unassigned.
func (m ColumnMapping) Header(f Field) string {
	if fm := m.Fields[f]; fm != nil {
		return fm.Header
	}
	return ""
}

// Has reports whether a field was assigned a header.
func (m ColumnMapping) Has(f Field) bool { return m.Fields[f] != nil }

// AssetDetection is the per-row classification result. Not persisted; feeds
// the aggregate ambiguity gate.
type AssetDetection struct {
	RowIndex   int             `json:"rowIndex"`
	AssetType  model.AssetType `json:"assetType"`
	Confidence int             `json:"confidence"`
	Signals    SignalSet       `json:"signals"`
}

// SignalSet records the four contributing classification signals for audit.
type SignalSet struct {
	Isin       Signal `json:"isin"`
	Sector     Signal `json:"sector"`
	Structural Signal `json:"structural"`
	NameToken  Signal `json:"nameToken"`
}

// Signal is one classifier vote: a candidate type with its confidence.
// A zero Signal means the signal did not fire.
type Signal struct {
	AssetType  model.AssetType `json:"assetType,omitempty"`
	Confidence int             `json:"confidence,omitempty"`
}

// Fired reports whether the signal produced a vote.
func (s Signal) Fired() bool { return s.AssetType != "" }

// ParsedHolding is one normalized spreadsheet row.
// Invariant: when quantity and average price are both known,
// InvestedValue == Quantity*AveragePrice within floating tolerance;
// otherwise InvestedValue is 0 and IsValid is false.
type ParsedHolding struct {
	Symbol         string          `json:"symbol,omitempty"`
	Isin           string          `json:"isin,omitempty"`
	Name           string          `json:"name"`
	Quantity       float64         `json:"quantity"`
	AveragePrice   float64         `json:"averagePrice"`
	InvestedValue  float64         `json:"investedValue"`
	AssetType      model.AssetType `json:"assetType"`
	IsValid        bool            `json:"isValid"`
	ValidationNote string          `json:"validationNote,omitempty"`
	RowIndex       int             `json:"rowIndex"`
}

// IdentityKey returns the dedup/reconciliation identity: ISIN first, else
// symbol, else case-normalized name. Empty when the row has no identity.
func (p ParsedHolding) IdentityKey() string {
	switch {
	case p.Isin != "":
		return "isin:" + normalizeKey(p.Isin)
	case p.Symbol != "":
		return "symbol:" + normalizeKey(p.Symbol)
	case p.Name != "":
		return "name:" + normalizeKey(p.Name)
	}
	return ""
}

// GroupedHolding is a deduplicated identity within one upload: summed
// quantity, weighted-average price, recomputed invested value, and the
// contributing row indices for audit messages. Created once per upload,
// discarded after reconciliation.
type GroupedHolding struct {
	ParsedHolding
	RowIndices []int `json:"rowIndices"`
}
