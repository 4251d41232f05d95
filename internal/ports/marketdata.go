package ports

import (
	"context"

	"portfoliotrack/internal/domain"
)

// PriceProvider defines the interface for fetching an asset's daily bar
// series from an external market-data source.
type PriceProvider interface {
	// DailySeries retrieves the daily OHLCV series for a ticker symbol.
	// The returned channels are not guaranteed equal length; callers must
	// reconcile via PriceSeries.UsableLen. Failures are wrapped with
	// ErrProviderUnavailable or ErrPriceDataMissing.
	DailySeries(ctx context.Context, symbol string) (*domain.PriceSeries, error)
}

// NewsProvider defines the interface for fetching market news.
type NewsProvider interface {
	// LatestNews retrieves up to limit recent articles.
	LatestNews(ctx context.Context, limit int) ([]domain.NewsArticle, error)
}
