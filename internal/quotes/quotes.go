package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client provides methods for fetching market prices from a Yahoo-compatible
// chart API. It wraps an HTTP client and a configurable base URL so tests can
// point it at a local server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new quote client against the given chart API base URL.
//
// Parameters:
//   - baseURL: Chart endpoint prefix, e.g. "https://query1.finance.yahoo.com/v8/finance/chart"
//
// Returns:
//   - *Client: A new client instance ready for use
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// LatestPrice fetches the most recent price for a symbol.
// The method queries the last 5 trading days (range=5d) and prefers the
// meta-level regular market price, falling back to the latest daily close
// when the meta price is absent.
//
// Parameters:
//   - ctx: Request context; cancellation aborts the HTTP call
//   - symbol: Exchange ticker, e.g. "INFY.NS"
//
// Returns:
//   - Quote: Symbol, price, currency and the price's trading date
//   - error: If the HTTP request fails, the API reports an error, or no usable price exists
func (c *Client) LatestPrice(ctx context.Context, symbol string) (Quote, error) {
	url := fmt.Sprintf("%s/%s?interval=1d&range=5d", c.baseURL, symbol)

	response, err := c.query(ctx, url)
	if err != nil {
		return Quote{}, err
	}
	if len(response.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}

	result := response.Chart.Result[0]
	quote := Quote{
		Symbol:    symbol,
		Currency:  result.Meta.Currency,
		PriceDate: time.Now().UTC(),
	}

	if result.Meta.RegularMarketPrice > 0 {
		quote.Price = result.Meta.RegularMarketPrice
		if n := len(result.Timestamp); n > 0 {
			quote.PriceDate = time.Unix(result.Timestamp[n-1], 0).UTC()
		}
		return quote, nil
	}

	if len(result.Indicators.Quote) == 0 || len(result.Indicators.Quote[0].Close) == 0 {
		return Quote{}, fmt.Errorf("no close prices returned for symbol %s", symbol)
	}

	closes := result.Indicators.Quote[0].Close
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] > 0 {
			quote.Price = closes[i]
			if i < len(result.Timestamp) {
				quote.PriceDate = time.Unix(result.Timestamp[i], 0).UTC()
			}
			return quote, nil
		}
	}

	return Quote{}, fmt.Errorf("no usable price for symbol %s", symbol)
}

// query executes one HTTP request against the chart API and decodes the
// envelope, surfacing the API-level error field when present.
func (c *Client) query(ctx context.Context, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, err
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("quote api error: %s", *response.Chart.Error)
	}

	return response, nil
}
