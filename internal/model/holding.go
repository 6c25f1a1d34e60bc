package model

import "time"

// Holding represents a portfolio's position in one asset.
// Uniqueness key: (portfolio_id, asset_id). Repeated ingestion of the same
// identity mutates the row through a weighted-average merge, never replaces it.
type Holding struct {
	ID            string    `json:"id"`
	PortfolioID   string    `json:"portfolioId"`
	AssetID       string    `json:"assetId"`
	Quantity      float64   `json:"quantity"`
	AveragePrice  float64   `json:"averagePrice"`
	InvestedValue float64   `json:"investedValue"`
	CurrentValue  float64   `json:"currentValue"`
	Source        string    `json:"source"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HoldingWithAsset joins a holding with its asset metadata for the read path.
type HoldingWithAsset struct {
	Holding
	AssetName  string     `json:"assetName"`
	AssetType  AssetType  `json:"assetType"`
	Symbol     string     `json:"symbol,omitempty"`
	Isin       string     `json:"isin,omitempty"`
	AssetClass AssetClass `json:"assetClass"`
	RiskBucket RiskBucket `json:"riskBucket"`
}
