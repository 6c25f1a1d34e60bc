package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rupeeview/portfolio-backend/internal/model"
	"github.com/rupeeview/portfolio-backend/internal/quotes"
)

// MockQuoteClient is a mock implementation of service.QuoteClient. It serves
// prices from a fixed map instead of making API calls.
type MockQuoteClient struct {
	mu sync.Mutex
	// Prices maps symbol to the price to return; absent symbols error like
	// an unknown ticker would.
	Prices map[string]float64
	// Err, when set, is returned for every lookup.
	Err error
	// QueryCount tracks how many lookups were made.
	QueryCount int
}

// NewMockQuoteClient creates a mock with the given symbol→price fixture.
func NewMockQuoteClient(prices map[string]float64) *MockQuoteClient {
	if prices == nil {
		prices = map[string]float64{}
	}
	return &MockQuoteClient{Prices: prices}
}

// LatestPrice returns the fixture price for the symbol.
func (m *MockQuoteClient) LatestPrice(_ context.Context, symbol string) (quotes.Quote, error) {
	m.mu.Lock()
	m.QueryCount++
	m.mu.Unlock()

	if m.Err != nil {
		return quotes.Quote{}, m.Err
	}
	price, ok := m.Prices[symbol]
	if !ok {
		return quotes.Quote{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}
	return quotes.Quote{
		Symbol:    symbol,
		Price:     price,
		Currency:  "INR",
		PriceDate: time.Now().UTC(),
	}, nil
}

// MockSchemeFeed is a mock implementation of service.SchemeFeed returning a
// fixed scheme list.
type MockSchemeFeed struct {
	Schemes []model.SchemeMaster
	Err     error
}

// FetchSchemes returns the fixture schemes.
func (m *MockSchemeFeed) FetchSchemes(_ context.Context) ([]model.SchemeMaster, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Schemes, nil
}
