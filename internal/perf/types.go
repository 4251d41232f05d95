// Package perf reconstructs historical portfolio performance by replaying
// transaction ledgers against external daily price series.
package perf

import "math"

// OHLCV is one day's bar as exposed in a day record. OHLC channels are
// nil when the provider had no usable value; volume defaults to zero.
type OHLCV struct {
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume float64  `json:"volume"`
}

// AssetDay is the computed performance snapshot of one asset on one date.
type AssetDay struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	OHLCV       OHLCV   `json:"ohlcv"`
	PNL         float64 `json:"pnl"`
	MarketValue float64 `json:"marketValue"`
	Position    float64 `json:"position"`
	// CashFlow is the cumulative net trade cash through this date. The
	// API never serializes it; clients see it only implicitly through
	// the pnl = marketValue + cashFlow identity.
	CashFlow float64 `json:"-"`
}

// PortfolioDay is one date's performance aggregated across all assets.
type PortfolioDay struct {
	Date        string  `json:"date"`
	OHLCV       OHLCV   `json:"ohlcv"`
	PNL         float64 `json:"pnl"`
	MarketValue float64 `json:"marketValue"`
}

// AssetPerformance is the asset calculator's success result.
type AssetPerformance struct {
	Ticker  string     `json:"ticker"`
	History []AssetDay `json:"history"`
}

// PortfolioPerformance is the portfolio aggregator's result. A portfolio
// with no transacted assets, or whose every asset failed calculation,
// yields an empty history rather than an error.
type PortfolioPerformance struct {
	PortfolioID int64          `json:"portfolioId"`
	History     []PortfolioDay `json:"history"`
}

// isFinite reports whether v is a usable number (not NaN or infinite).
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// numOrNull coerces v to a pointer, nil when not finite.
func numOrNull(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	return &v
}

// numOrZero coerces v to a plain number, zero when not finite.
func numOrZero(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}
