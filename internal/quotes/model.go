package quotes

import "time"

// Response mirrors the chart endpoint's JSON envelope.
type Response struct {
	Chart struct {
		Result []Result `json:"result"`
		Error  *string  `json:"error"`
	} `json:"chart"`
}

// Result is one symbol's chart payload inside a Response.
type Result struct {
	Meta struct {
		Currency           string  `json:"currency"`
		Symbol             string  `json:"symbol"`
		ExchangeName       string  `json:"exchangeName"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Quote is the parsed latest price for one symbol.
type Quote struct {
	Symbol    string
	Price     float64
	Currency  string
	PriceDate time.Time
}
