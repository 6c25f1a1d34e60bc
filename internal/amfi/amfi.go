// Package amfi fetches and parses the AMFI NAVAll feed, the public
// scheme-master for Indian mutual funds. Each sync refreshes scheme names,
// ISIN variants and latest NAVs.
package amfi

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rupeeview/portfolio-backend/internal/model"
)

const navDateLayout = "02-Jan-2006"

// Client downloads and parses the NAVAll feed.
type Client struct {
	feedURL    string
	httpClient *http.Client
}

// NewClient creates a feed client. The URL is configurable so tests can point
// it at a local server.
func NewClient(feedURL string) *Client {
	return &Client{
		feedURL:    feedURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// FetchSchemes downloads the feed and returns all parseable scheme rows.
func (c *Client) FetchSchemes(ctx context.Context) ([]model.SchemeMaster, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scheme feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scheme feed returned status %d", resp.StatusCode)
	}

	return ParseFeed(resp.Body)
}

// ParseFeed parses the semicolon-separated NAVAll format:
//
//	Scheme Code;ISIN Div Payout/ ISIN Growth;ISIN Div Reinvestment;Scheme Name;Net Asset Value;Date
//
// Lines without semicolons are section markers: scheme-category headers and
// fund-house names. A fund-house line applies to every scheme row until the
// next fund-house line.
func ParseFeed(r io.Reader) ([]model.SchemeMaster, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	schemes := []model.SchemeMaster{}
	fundHouse := ""

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.Contains(line, ";") {
			// Category headers carry parentheses; bare lines are fund houses.
			if !strings.Contains(line, "(") {
				fundHouse = line
			}
			continue
		}

		fields := strings.Split(line, ";")
		if len(fields) < 6 || fields[0] == "Scheme Code" {
			continue
		}

		scheme, ok := parseSchemeRow(fields, fundHouse)
		if !ok {
			continue
		}
		schemes = append(schemes, scheme)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scheme feed: %w", err)
	}

	if len(schemes) == 0 {
		return nil, fmt.Errorf("scheme feed contained no parseable rows")
	}
	return schemes, nil
}

func parseSchemeRow(fields []string, fundHouse string) (model.SchemeMaster, bool) {
	code := strings.TrimSpace(fields[0])
	name := strings.TrimSpace(fields[3])
	if code == "" || name == "" {
		return model.SchemeMaster{}, false
	}

	nav, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if err != nil {
		// "N.A." and suspended schemes; keep the row for name/ISIN lookup.
		nav = 0
	}

	scheme := model.SchemeMaster{
		SchemeCode:     code,
		SchemeName:     name,
		NormalizedName: NormalizeSchemeName(name),
		FundHouse:      fundHouse,
		Nav:            nav,
		IsActive:       true,
	}

	// The second column is growth OR dividend-payout depending on the
	// variant; growth schemes carry "growth" in the name.
	primary := cleanIsin(fields[1])
	reinvest := cleanIsin(fields[2])
	if strings.Contains(strings.ToLower(name), "growth") {
		scheme.IsinGrowth = primary
	} else {
		scheme.IsinDivPayout = primary
	}
	scheme.IsinDivReinvest = reinvest

	if d, err := time.Parse(navDateLayout, strings.TrimSpace(fields[5])); err == nil {
		scheme.NavDate = d.UTC()
	}

	return scheme, true
}

func cleanIsin(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "-" || s == "N.A." || len(s) != 12 {
		return ""
	}
	return s
}

// noiseTokens are scheme-name words that vary between broker statements and
// the feed without changing scheme identity.
var noiseTokens = map[string]bool{
	"direct":       true,
	"regular":      true,
	"growth":       true,
	"dividend":     true,
	"idcw":         true,
	"payout":       true,
	"reinvest":     true,
	"reinvestment": true,
	"plan":         true,
	"option":       true,
	"fund":         true,
	"scheme":       true,
	"mf":           true,
	"mutual":       true,
	"the":          true,
	"of":           true,
}

// NormalizeSchemeName lowercases a scheme name, strips punctuation and drops
// plan/option noise words, so broker-statement names and feed names compare
// equal. Both the sync path and the lookup path must use this same function.
func NormalizeSchemeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if !noiseTokens[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
