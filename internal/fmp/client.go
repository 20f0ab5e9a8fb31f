/**
 * @description
 * HTTP Client for the Financial Modeling Prep (FMP) quote API.
 * The Market Data Gateway of the daily puzzle: one request per symbol, each
 * succeeding or failing independently.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - backend/internal/config
 */

package fmp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/noka-project/backend/internal/config"
)

const (
	DefaultTimeout = 10 * time.Second
)

// ErrNoQuote is returned when the API answers 200 with no usable quote object
var ErrNoQuote = errors.New("fmp: no quote in response")

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL: cfg.Market.FMPBaseURL,
		APIKey:  cfg.Market.FMPAPIKey,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// GetQuote fetches the current quote for a single symbol.
// Non-2xx responses and malformed bodies surface as errors; the caller decides
// whether that is fatal (it never is for the generator).
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	u, err := url.Parse(fmt.Sprintf("%s/quote/", c.BaseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("symbol", symbol)
	q.Set("apikey", c.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fmp api error for %s: status %d", symbol, resp.StatusCode)
	}

	var quotes []Quote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, fmt.Errorf("fmp decode error for %s: %w", symbol, err)
	}

	for _, quote := range quotes {
		if quote.valid() {
			return &quote, nil
		}
	}

	return nil, ErrNoQuote
}
