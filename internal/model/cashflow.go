package model

import "time"

// CashFlow is one signed, dated flow recorded against a portfolio at
// reconciliation time. Outflows (purchases) are negative; the XIRR read path
// appends the current portfolio value as the terminal positive flow.
type CashFlow struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolioId"`
	AssetID     string    `json:"assetId"`
	FlowDate    time.Time `json:"flowDate"`
	Amount      float64   `json:"amount"`
}
