// Package binancefeed implements the price provider port against Binance
// spot daily klines, for deployments tracking crypto assets. The series is
// reshaped into the same parallel-channel form the cached price feed uses
// so the performance engine sees one payload shape.
package binancefeed

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adshao/go-binance/v2"

	"portfoliotrack/internal/domain"
	"portfoliotrack/internal/ports"
)

const defaultBarLimit = 1000

// Client implements ports.PriceProvider using the go-binance library.
type Client struct {
	spotClient *binance.Client
	logger     ports.Logger
	barLimit   int
}

// Config holds configuration for the Binance feed client.
type Config struct {
	APIKey    string // Optional; kline endpoints are public
	SecretKey string
	BarLimit  int // Max daily bars per series; defaults to 1000
	Logger    ports.Logger
}

// New creates a new Binance feed client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance feed client")
	}
	barLimit := cfg.BarLimit
	if barLimit <= 0 {
		barLimit = defaultBarLimit
	}
	return &Client{
		spotClient: binance.NewClient(cfg.APIKey, cfg.SecretKey),
		logger:     cfg.Logger,
		barLimit:   barLimit,
	}, nil
}

var _ ports.PriceProvider = (*Client)(nil)

// DailySeries retrieves the daily kline series for a trading symbol.
func (c *Client) DailySeries(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	klines, err := c.spotClient.NewKlinesService().
		Symbol(symbol).
		Interval("1d").
		Limit(c.barLimit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching klines for %s: %w: %v", symbol, ports.ErrProviderUnavailable, err)
	}

	series := &domain.PriceSeries{
		Timestamp: make([]domain.BarTime, 0, len(klines)),
		Open:      make([]float64, 0, len(klines)),
		High:      make([]float64, 0, len(klines)),
		Low:       make([]float64, 0, len(klines)),
		Close:     make([]float64, 0, len(klines)),
		Volume:    make([]float64, 0, len(klines)),
	}
	for _, k := range klines {
		series.Timestamp = append(series.Timestamp, domain.EpochBarTime(k.OpenTime))
		series.Open = append(series.Open, parsePrice(k.Open))
		series.High = append(series.High, parsePrice(k.High))
		series.Low = append(series.Low, parsePrice(k.Low))
		series.Close = append(series.Close, parsePrice(k.Close))
		series.Volume = append(series.Volume, parsePrice(k.Volume))
	}

	c.logger.Debug(ctx, "Kline series fetched", map[string]interface{}{
		"symbol": symbol,
		"bars":   len(klines),
	})
	return series, nil
}

// parsePrice converts Binance's decimal strings; unparseable entries
// become invalid markers the engine coerces to null.
func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.InvalidValue()
	}
	return v
}
