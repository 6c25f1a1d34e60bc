package model

import "time"

// AssetPrice is the latest stored market price for one symbol.
type AssetPrice struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	PriceDate time.Time `json:"priceDate"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NavPoint is the latest stored NAV for one mutual-fund ISIN.
type NavPoint struct {
	Isin    string    `json:"isin"`
	Nav     float64   `json:"nav"`
	NavDate time.Time `json:"navDate"`
}
