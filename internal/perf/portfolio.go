package perf

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// dayAccum accumulates one date's aggregates while assets are folded in.
// High and low carry infinity sentinels until a valid value arrives; they
// are normalized back to nil on output.
type dayAccum struct {
	open        *float64
	high        float64
	low         float64
	close       *float64
	volume      float64
	pnl         float64
	marketValue float64
}

// PortfolioPerformance aggregates every transacted asset's day records
// into one portfolio-wide daily series keyed by date.
//
// Assets whose calculation fails for any reason are excluded and logged;
// the aggregation itself never fails for business reasons. Assets are
// folded in ascending ID order so the last-write-wins close aggregation
// is deterministic.
func (s *Service) PortfolioPerformance(ctx context.Context, portfolioID int64) (*PortfolioPerformance, error) {
	assets, err := s.ledger.DistinctAssets(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("discovering assets for portfolio %d: %w", portfolioID, err)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })

	perDay := make(map[string]*dayAccum)
	skipped := 0

	for _, asset := range assets {
		result, err := s.AssetPerformance(ctx, portfolioID, asset.ID)
		if err != nil {
			skipped++
			s.logger.Warn(ctx, "Excluding asset from portfolio performance", map[string]interface{}{
				"portfolioID": portfolioID,
				"assetID":     asset.ID,
				"symbol":      asset.Symbol,
				"reason":      err.Error(),
			})
			continue
		}

		for _, day := range result.History {
			acc, ok := perDay[day.Date]
			if !ok {
				acc = &dayAccum{high: math.Inf(-1), low: math.Inf(1)}
				perDay[day.Date] = acc
			}

			// First valid open wins; subsequent assets are ignored.
			if acc.open == nil && day.OHLCV.Open != nil {
				acc.open = day.OHLCV.Open
			}
			if day.OHLCV.High != nil {
				acc.high = math.Max(acc.high, *day.OHLCV.High)
			}
			if day.OHLCV.Low != nil {
				acc.low = math.Min(acc.low, *day.OHLCV.Low)
			}
			// Latest valid close wins; asset order is fixed above.
			if day.OHLCV.Close != nil {
				acc.close = day.OHLCV.Close
			}
			if isFinite(day.OHLCV.Volume) {
				acc.volume += day.OHLCV.Volume
			}
			if isFinite(day.PNL) {
				acc.pnl += day.PNL
			}
			if isFinite(day.MarketValue) {
				acc.marketValue += day.MarketValue
			}
		}
	}

	if skipped > 0 {
		s.logger.Info(ctx, "Portfolio performance aggregated with skipped assets", map[string]interface{}{
			"portfolioID": portfolioID,
			"assets":      len(assets),
			"skipped":     skipped,
		})
	}

	// ISO dates order chronologically when sorted lexicographically.
	dates := make([]string, 0, len(perDay))
	for date := range perDay {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	history := make([]PortfolioDay, 0, len(dates))
	for _, date := range dates {
		acc := perDay[date]

		var high, low *float64
		if !math.IsInf(acc.high, -1) {
			h := acc.high
			high = &h
		}
		if !math.IsInf(acc.low, 1) {
			l := acc.low
			low = &l
		}

		history = append(history, PortfolioDay{
			Date: date,
			OHLCV: OHLCV{
				Open:   acc.open,
				High:   high,
				Low:    low,
				Close:  acc.close,
				Volume: acc.volume,
			},
			PNL:         acc.pnl,
			MarketValue: acc.marketValue,
		})
	}

	return &PortfolioPerformance{PortfolioID: portfolioID, History: history}, nil
}
