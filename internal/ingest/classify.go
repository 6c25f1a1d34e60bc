package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rupeeview/portfolio-backend/internal/model"
)

// Rows classified below this confidence count as ambiguous for the
// aggregate gate. Product-tuned.
const AmbiguousConfidenceFloor = 70

// Aggregate ambiguity bands: at or above RejectRatio the whole upload is
// rejected; at or above WarnRatio it proceeds with a warning.
const (
	DefaultRejectRatio = 0.80
	DefaultWarnRatio   = 0.20
)

// Header patterns used by the structural signal and the mutual-fund
// indicator check.
var (
	folioHeaderRe    = regexp.MustCompile(`(?i)folio`)
	amcHeaderRe      = regexp.MustCompile(`(?i)\b(amc|fund\s*house|asset\s*management)\b`)
	tradingHeaderRe  = regexp.MustCompile(`(?i)(trading\s*symbol|exchange|\bnse\b|\bbse\b)`)
	etfNameTokenRe   = regexp.MustCompile(`(?i)(\betf\b|bees\b)`)
	fundNameTokenRe  = regexp.MustCompile(`(?i)\b(fund|scheme|plan|index|growth|dividend|idcw)\b`)
	mfNameMarkerRe   = regexp.MustCompile(`(?i)\b(fund|scheme|plan)\b`)
)

// NSDL security-series codes (ISIN characters 10–11) allotted to REIT and
// InvIT units.
const (
	reitSeriesFrom = 23
	reitSeriesTo   = 29
)

// sectorValues maps exact, normalized sector-cell text to a vote. Partial or
// free-form sector text is deliberately not trusted.
var sectorValues = map[string]Signal{
	"etf":                   {AssetType: model.AssetTypeETF, Confidence: 95},
	"exchange traded fund":  {AssetType: model.AssetTypeETF, Confidence: 95},
	"mutual fund":           {AssetType: model.AssetTypeMutualFund, Confidence: 95},
	"mf":                    {AssetType: model.AssetTypeMutualFund, Confidence: 90},
	"index fund":            {AssetType: model.AssetTypeIndexFund, Confidence: 90},
	"stock":                 {AssetType: model.AssetTypeEquity, Confidence: 90},
	"equity":                {AssetType: model.AssetTypeEquity, Confidence: 85},
	"government security":   {AssetType: model.AssetTypeOther, Confidence: 90},
	"reit":                  {AssetType: model.AssetTypeOther, Confidence: 90},
	"invit":                 {AssetType: model.AssetTypeOther, Confidence: 90},
}

// ClassifyRow resolves the asset type for one row from four independent
// signals: ISIN prefix, sector column, structural columns, and name tokens.
// Resolution order when several fire: sector > ISIN > structural > name.
func ClassifyRow(row RawRow, mapping ColumnMapping, rowIndex int) AssetDetection {
	name := strings.TrimSpace(row[mapping.Header(FieldName)])
	isin := strings.ToUpper(strings.TrimSpace(row[mapping.Header(FieldIsin)]))

	signals := SignalSet{
		Isin:       isinSignal(isin),
		Structural: structuralSignal(row),
		NameToken:  nameTokenSignal(name),
	}

	mfIndicated := hasMutualFundIndicators(row, name, isin)
	if !mfIndicated {
		signals.Sector = sectorSignal(row, mapping)
	}

	det := AssetDetection{RowIndex: rowIndex, Signals: signals}

	// An INF-prefixed ISIN is ambiguous between mutual funds and ETFs (both
	// carry INF); break the tie with the name and structural signals. The
	// INF prefix itself is not evidence here, and the sector signal never
	// fires on these rows (an INF ISIN is a mutual-fund indicator).
	if isinAmbiguousINF(isin) {
		switch {
		case signals.NameToken.AssetType == model.AssetTypeETF:
			det.AssetType, det.Confidence = model.AssetTypeETF, 90
		case signals.Structural.AssetType == model.AssetTypeMutualFund ||
			signals.NameToken.AssetType == model.AssetTypeMutualFund:
			det.AssetType, det.Confidence = model.AssetTypeMutualFund, 85
		default:
			det.AssetType, det.Confidence = model.AssetTypeMutualFund, 70
		}
		return det
	}

	for _, s := range []Signal{signals.Sector, signals.Isin, signals.Structural, signals.NameToken} {
		if s.Fired() {
			det.AssetType = s.AssetType
			det.Confidence = s.Confidence
			break
		}
	}
	if det.AssetType == "" {
		det.AssetType = model.AssetTypeOther
		det.Confidence = 0
	}

	// Final confidence is the max among signals agreeing with the outcome.
	for _, s := range []Signal{signals.Sector, signals.Isin, signals.Structural, signals.NameToken} {
		if s.AssetType == det.AssetType && s.Confidence > det.Confidence {
			det.Confidence = s.Confidence
		}
	}
	return det
}

// isinSignal votes from the ISIN country/instrument prefix.
//
//	INE       → equity (95), unless the NSDL series code falls in the
//	            band allotted to REIT/InvIT units → other
//	IN0–IN4   → government security → other (95)
//	INF       → ambiguous; handled by the tie-break in ClassifyRow
func isinSignal(isin string) Signal {
	if len(isin) != 12 || !strings.HasPrefix(isin, "IN") {
		return Signal{}
	}
	switch {
	case strings.HasPrefix(isin, "INE"):
		if isReitSeriesCode(isin) {
			return Signal{AssetType: model.AssetTypeOther, Confidence: 95}
		}
		return Signal{AssetType: model.AssetTypeEquity, Confidence: 95}
	case strings.HasPrefix(isin, "INF"):
		return Signal{}
	case isin[2] >= '0' && isin[2] <= '4':
		return Signal{AssetType: model.AssetTypeOther, Confidence: 95}
	}
	return Signal{}
}

func isinAmbiguousINF(isin string) bool {
	return len(isin) == 12 && strings.HasPrefix(isin, "INF")
}

// isReitSeriesCode checks the two-digit NSDL security-series code
// (characters 10–11) against the band reserved for REIT/InvIT units.
func isReitSeriesCode(isin string) bool {
	code, err := strconv.Atoi(isin[9:11])
	if err != nil {
		return false
	}
	return code >= reitSeriesFrom && code <= reitSeriesTo
}

// sectorSignal trusts only exact, known sector-cell values. It is consulted
// only for rows with no mutual-fund indicators: on MF rows the sector column
// describes the fund sub-category, not the asset class.
func sectorSignal(row RawRow, mapping ColumnMapping) Signal {
	header := mapping.Header(FieldSector)
	if header == "" {
		return Signal{}
	}
	value := normalizeKey(row[header])
	if v, ok := sectorValues[value]; ok {
		return v
	}
	return Signal{}
}

// structuralSignal votes from which columns the row populates: folio or AMC
// columns indicate a mutual fund, trading-symbol/exchange columns indicate
// an exchange-traded instrument.
func structuralSignal(row RawRow) Signal {
	for header, cell := range row {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		if folioHeaderRe.MatchString(header) || amcHeaderRe.MatchString(header) {
			return Signal{AssetType: model.AssetTypeMutualFund, Confidence: 85}
		}
	}
	for header, cell := range row {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		if tradingHeaderRe.MatchString(header) {
			return Signal{AssetType: model.AssetTypeEquity, Confidence: 75}
		}
	}
	return Signal{}
}

// nameTokenSignal votes from instrument-name vocabulary. Short names free of
// fund tokens lean equity, at low confidence.
func nameTokenSignal(name string) Signal {
	if name == "" {
		return Signal{}
	}
	if etfNameTokenRe.MatchString(name) {
		return Signal{AssetType: model.AssetTypeETF, Confidence: 80}
	}
	if fundNameTokenRe.MatchString(name) {
		return Signal{AssetType: model.AssetTypeMutualFund, Confidence: 70}
	}
	if len(strings.Fields(name)) <= 3 {
		return Signal{AssetType: model.AssetTypeEquity, Confidence: 50}
	}
	return Signal{}
}

// hasMutualFundIndicators reports whether the row carries any mutual-fund
// marker: a populated folio or AMC/fund-house column, an INF-prefixed ISIN,
// or fund/scheme/plan vocabulary in the name.
func hasMutualFundIndicators(row RawRow, name, isin string) bool {
	if isinAmbiguousINF(isin) {
		return true
	}
	if mfNameMarkerRe.MatchString(name) {
		return true
	}
	for header, cell := range row {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		if folioHeaderRe.MatchString(header) || amcHeaderRe.MatchString(header) {
			return true
		}
	}
	return false
}

// ClassifyRows classifies every row and summarizes the aggregate ambiguity.
func ClassifyRows(rows []RawRow, mapping ColumnMapping) ([]AssetDetection, GateResult) {
	detections := make([]AssetDetection, len(rows))
	ambiguous := 0
	for i, row := range rows {
		detections[i] = ClassifyRow(row, mapping, i)
		if detections[i].Confidence < AmbiguousConfidenceFloor {
			ambiguous++
		}
	}
	result := GateResult{Total: len(rows), Ambiguous: ambiguous}
	if result.Total > 0 {
		result.AmbiguousPercent = float64(ambiguous) / float64(result.Total) * 100
	}
	return detections, result
}

// GateResult is the aggregate ambiguity summary across an upload.
type GateResult struct {
	Total            int     `json:"total"`
	Ambiguous        int     `json:"ambiguous"`
	AmbiguousPercent float64 `json:"ambiguousPercent"`
}

// ShouldReject applies the rejection band: at or above rejectRatio of
// ambiguous rows, the whole upload is refused.
func (g GateResult) ShouldReject(rejectRatio float64) bool {
	return g.Total > 0 && float64(g.Ambiguous) >= rejectRatio*float64(g.Total)
}

// ShouldWarn applies the warning band.
func (g GateResult) ShouldWarn(warnRatio, rejectRatio float64) bool {
	if g.Total == 0 || g.ShouldReject(rejectRatio) {
		return false
	}
	return float64(g.Ambiguous) >= warnRatio*float64(g.Total)
}

// RejectionGuidance describes, per supported asset type, the columns an
// upload needs before classification can succeed. Returned with
// ambiguity-gate rejections.
func RejectionGuidance() []string {
	return []string{
		"equity: include an ISIN (INE...) column, or Symbol plus Exchange columns",
		"etf: include an ISIN column, or a name containing 'ETF'/'BEES'",
		"mutual_fund: include a Scheme Name column, or Folio Number / AMC columns, or an ISIN (INF...) column",
		"other: include an ISIN column (IN0...–IN4... for government securities)",
	}
}

// WarningForGate formats the proceed-with-warning message.
func (g GateResult) WarningForGate() string {
	return fmt.Sprintf("%d of %d rows could not be confidently classified (%.0f%%); review detected asset types before confirming", g.Ambiguous, g.Total, g.AmbiguousPercent)
}
