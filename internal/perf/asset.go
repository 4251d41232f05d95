package perf

import (
	"context"
	"fmt"

	"portfoliotrack/internal/domain"
	"portfoliotrack/internal/ports"
)

// AssetPerformance replays the (portfolio, asset) ledger against the
// asset's daily price series and returns one day record per usable bar.
//
// Expected business failures are returned as wrapped sentinel errors:
// ports.ErrNoTransactions, ports.ErrPriceDataMissing /
// ports.ErrProviderUnavailable, ports.ErrEmptyPriceSeries and
// ports.ErrNoUsableBars. Position is carried forward across bars with no
// usable close; such days still emit a record with market value zero and
// P&L equal to the cumulative cash flow.
func (s *Service) AssetPerformance(ctx context.Context, portfolioID, assetID int64) (*AssetPerformance, error) {
	asset, err := s.assets.FindAssetByID(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("looking up asset %d: %w", assetID, err)
	}

	transactions, err := s.ledger.ListForAsset(ctx, portfolioID, assetID)
	if err != nil {
		return nil, fmt.Errorf("loading ledger for portfolio %d asset %d: %w", portfolioID, assetID, err)
	}
	if asset == nil || len(transactions) == 0 {
		return nil, ports.ErrNoTransactions
	}

	series, err := s.prices.DailySeries(ctx, asset.Symbol)
	if err != nil {
		return nil, fmt.Errorf("price series for %s: %w", asset.Symbol, err)
	}

	usable := series.UsableLen()
	if usable == 0 {
		return nil, fmt.Errorf("%s: %w", asset.Symbol, ports.ErrEmptyPriceSeries)
	}

	// Transactions arrive sorted by date then insertion order; grouping by
	// calendar day preserves that order within each group and turns the
	// replay into a single pass over the bars.
	byDay := make(map[string][]*domain.Transaction, len(transactions))
	for _, tx := range transactions {
		day := tx.Day()
		byDay[day] = append(byDay[day], tx)
	}

	var position, cashFlow float64
	history := make([]AssetDay, 0, usable)

	for i := 0; i < usable; i++ {
		day, ok := series.Timestamp[i].Day()
		if !ok {
			// Unparseable timestamp: the bar contributes no record.
			continue
		}

		// All transactions dated exactly this day apply before the
		// day's record is emitted. Only buy and sell move the state.
		for _, tx := range byDay[day] {
			switch tx.Kind {
			case domain.KindBuy:
				position += tx.Quantity
				cashFlow -= tx.Quantity * tx.Price
			case domain.KindSell:
				position -= tx.Quantity
				cashFlow += tx.Quantity * tx.Price
			}
		}

		c := numOrNull(series.Close[i])

		marketValue := 0.0
		pnl := cashFlow
		if c != nil {
			marketValue = position * (*c)
			pnl = marketValue + cashFlow
		}

		history = append(history, AssetDay{
			Date: day,
			OHLCV: OHLCV{
				Open:   numOrNull(series.Open[i]),
				High:   numOrNull(series.High[i]),
				Low:    numOrNull(series.Low[i]),
				Close:  c,
				Volume: numOrZero(series.Volume[i]),
			},
			PNL:         pnl,
			MarketValue: marketValue,
			Position:    position,
			CashFlow:    cashFlow,
		})
	}

	if len(history) == 0 {
		return nil, fmt.Errorf("%s: %w", asset.Symbol, ports.ErrNoUsableBars)
	}

	return &AssetPerformance{Ticker: asset.Symbol, History: history}, nil
}
