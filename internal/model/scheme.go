package model

import "time"

// SchemeMaster is one row of the mutual-fund scheme-master reference,
// synced from the AMFI NAVAll feed. Used for best-effort ISIN resolution of
// uploaded mutual-fund rows; never consulted as a source of monetary values
// other than NAV.
type SchemeMaster struct {
	SchemeCode      string    `json:"schemeCode"`
	SchemeName      string    `json:"schemeName"`
	NormalizedName  string    `json:"normalizedName"`
	FundHouse       string    `json:"fundHouse"`
	IsinGrowth      string    `json:"isinGrowth"`
	IsinDivPayout   string    `json:"isinDivPayout"`
	IsinDivReinvest string    `json:"isinDivReinvest"`
	Nav             float64   `json:"nav"`
	NavDate         time.Time `json:"navDate"`
	IsActive        bool      `json:"isActive"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// BestIsin returns the preferred ISIN variant: growth first, then dividend
// payout, then dividend reinvestment.
func (s SchemeMaster) BestIsin() string {
	switch {
	case s.IsinGrowth != "":
		return s.IsinGrowth
	case s.IsinDivPayout != "":
		return s.IsinDivPayout
	default:
		return s.IsinDivReinvest
	}
}

// IsGrowth reports whether the scheme is a growth variant, used to prefer
// Direct+Growth candidates on lookup ties.
func (s SchemeMaster) IsGrowth() bool {
	return s.IsinGrowth != ""
}
