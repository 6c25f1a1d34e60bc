package model

import "time"

// PortfolioMetrics is the derived allocation/risk snapshot for one portfolio.
// One row per portfolio; recomputed wholesale from persisted holdings after
// every ingestion, never patched incrementally.
type PortfolioMetrics struct {
	PortfolioID          string                 `json:"portfolioId"`
	TotalInvestedValue   float64                `json:"totalInvestedValue"`
	TotalCurrentValue    float64                `json:"totalCurrentValue"`
	Allocation           map[AssetClass]float64 `json:"allocation"`
	RiskScore            float64                `json:"riskScore"`
	DiversificationScore float64                `json:"diversificationScore"`
	ConcentrationScore   float64                `json:"concentrationScore"`
	LastCalculated       time.Time              `json:"lastCalculated"`
}
