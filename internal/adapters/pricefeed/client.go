// Package pricefeed fetches daily OHLCV series from the cached price data
// HTTP API. The payload carries six parallel arrays under "price_data";
// array lengths are not guaranteed to match and entries may be null or
// otherwise non-numeric.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"portfoliotrack/internal/domain"
	"portfoliotrack/internal/ports"
)

const defaultBaseURL = "https://c4rm9elh30.execute-api.us-east-1.amazonaws.com/default"

// Client implements ports.PriceProvider against the cached price data API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     ports.Logger
}

// Config holds configuration for the price feed client.
type Config struct {
	BaseURL string        // API base URL; defaults to the public endpoint
	Timeout time.Duration // HTTP timeout; defaults to 30s
	Logger  ports.Logger
}

// New creates a new price feed client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for price feed client")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}, nil
}

var _ ports.PriceProvider = (*Client)(nil)

// payload mirrors the provider response. price_data is kept raw so a
// missing container can be told apart from malformed channels.
type payload struct {
	PriceData json.RawMessage `json:"price_data"`
}

// Pointer-to-slice fields distinguish an absent or null channel (nil
// pointer) from an empty array.
type channels struct {
	Timestamp *[]domain.BarTime `json:"timestamp"`
	Open      *[]interface{}    `json:"open"`
	High      *[]interface{}    `json:"high"`
	Low       *[]interface{}    `json:"low"`
	Close     *[]interface{}    `json:"close"`
	Volume    *[]interface{}    `json:"volume"`
}

// allPresent reports whether every channel decoded to an actual array.
func (c *channels) allPresent() bool {
	return c.Timestamp != nil && c.Open != nil && c.High != nil &&
		c.Low != nil && c.Close != nil && c.Volume != nil
}

// DailySeries retrieves the daily bar series for a ticker symbol.
func (c *Client) DailySeries(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	u := fmt.Sprintf("%s/cachedPriceData?ticker=%s", c.baseURL, url.QueryEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building price request for %s: %w", symbol, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching prices for %s: %w: %v", symbol, ports.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading price response for %s: %w: %v", symbol, ports.ErrProviderUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price API returned status %d for %s: %w", resp.StatusCode, symbol, ports.ErrProviderUnavailable)
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decoding price response for %s: %w", symbol, ports.ErrPriceDataMissing)
	}
	if len(p.PriceData) == 0 || string(p.PriceData) == "null" {
		return nil, fmt.Errorf("price data missing for %s: %w", symbol, ports.ErrPriceDataMissing)
	}

	// A channel that is not list-shaped fails this decode; one that is
	// absent or null decodes to a nil pointer. Either way the payload
	// is malformed, not empty.
	var ch channels
	if err := json.Unmarshal(p.PriceData, &ch); err != nil {
		return nil, fmt.Errorf("malformed OHLCV arrays for %s: %w", symbol, ports.ErrPriceDataMissing)
	}
	if !ch.allPresent() {
		return nil, fmt.Errorf("malformed OHLCV arrays for %s: %w", symbol, ports.ErrPriceDataMissing)
	}

	series := &domain.PriceSeries{
		Timestamp: *ch.Timestamp,
		Open:      toChannel(*ch.Open),
		High:      toChannel(*ch.High),
		Low:       toChannel(*ch.Low),
		Close:     toChannel(*ch.Close),
		Volume:    toChannel(*ch.Volume),
	}

	c.logger.Debug(ctx, "Price series fetched", map[string]interface{}{
		"symbol": symbol,
		"bars":   series.UsableLen(),
	})
	return series, nil
}

// toChannel coerces a decoded JSON array into numbers; entries that are
// not numeric (null, strings, objects) become invalid markers.
func toChannel(raw []interface{}) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		if n, ok := v.(float64); ok {
			out[i] = n
		} else {
			out[i] = domain.InvalidValue()
		}
	}
	return out
}
