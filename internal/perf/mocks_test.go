package perf

import (
	"context"
	"fmt"
	"testing"
	"time"

	"portfoliotrack/internal/domain"
)

// Mock implementations of the ports used by the service.

type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockAssetRepo struct {
	assets map[int64]*domain.Asset
	err    error
}

func (m *mockAssetRepo) CreateAsset(ctx context.Context, a *domain.Asset) (int64, error) {
	return 0, fmt.Errorf("not implemented")
}

func (m *mockAssetRepo) FindAssetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.assets[id], nil
}

func (m *mockAssetRepo) FindAssetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error) {
	for _, a := range m.assets {
		if a.Symbol == symbol {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAssetRepo) FindAllAssets(ctx context.Context) ([]*domain.Asset, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAssetRepo) DeleteAsset(ctx context.Context, id int64) error {
	return fmt.Errorf("not implemented")
}

type ledgerKey struct {
	portfolioID int64
	assetID     int64
}

type mockLedger struct {
	transactions map[ledgerKey][]*domain.Transaction
	distinct     []*domain.Asset
	listErr      error
	distinctErr  error
}

func (m *mockLedger) CreateTransaction(ctx context.Context, t *domain.Transaction) (int64, error) {
	return 0, fmt.Errorf("not implemented")
}

func (m *mockLedger) ListForAsset(ctx context.Context, portfolioID, assetID int64) ([]*domain.Transaction, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.transactions[ledgerKey{portfolioID, assetID}], nil
}

func (m *mockLedger) ListForPortfolio(ctx context.Context, portfolioID int64) ([]*domain.LedgerEntry, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockLedger) DistinctAssets(ctx context.Context, portfolioID int64) ([]*domain.Asset, error) {
	if m.distinctErr != nil {
		return nil, m.distinctErr
	}
	return m.distinct, nil
}

func (m *mockLedger) Holdings(ctx context.Context, portfolioID int64) ([]*domain.Holding, error) {
	return nil, fmt.Errorf("not implemented")
}

type mockPrices struct {
	series map[string]*domain.PriceSeries
	errs   map[string]error
}

func (m *mockPrices) DailySeries(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	if err, ok := m.errs[symbol]; ok {
		return nil, err
	}
	if s, ok := m.series[symbol]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("no series configured for %s", symbol)
}

// --- Test helpers ---

func day(t *testing.T, date string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation(domain.DateLayout, date, time.UTC)
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}
	return d
}

func buy(t *testing.T, date string, qty, price float64) *domain.Transaction {
	t.Helper()
	return &domain.Transaction{Date: day(t, date), Kind: domain.KindBuy, Quantity: qty, Price: price}
}

func sell(t *testing.T, date string, qty, price float64) *domain.Transaction {
	t.Helper()
	return &domain.Transaction{Date: day(t, date), Kind: domain.KindSell, Quantity: qty, Price: price}
}

// flatSeries builds a series whose OHLC channels all carry the close
// values and whose volume is vol for every bar.
func flatSeries(dates []string, closes []float64, vol float64) *domain.PriceSeries {
	s := &domain.PriceSeries{}
	for _, d := range dates {
		s.Timestamp = append(s.Timestamp, domain.TextBarTime(d))
	}
	for _, c := range closes {
		s.Open = append(s.Open, c)
		s.High = append(s.High, c)
		s.Low = append(s.Low, c)
		s.Close = append(s.Close, c)
		s.Volume = append(s.Volume, vol)
	}
	return s
}

func newTestService(t *testing.T, assets *mockAssetRepo, ledger *mockLedger, prices *mockPrices) (*Service, *mockLogger) {
	t.Helper()
	logger := &mockLogger{}
	svc, err := NewService(assets, ledger, prices, logger)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, logger
}
