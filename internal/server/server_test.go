package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfoliotrack/internal/domain"
	"portfoliotrack/internal/perf"
	"portfoliotrack/internal/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type stubRepo struct {
	portfolios   map[int64]*domain.Portfolio
	assets       map[int64]*domain.Asset
	transactions map[int64][]*domain.Transaction // keyed by asset ID
	nextID       int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		portfolios:   map[int64]*domain.Portfolio{},
		assets:       map[int64]*domain.Asset{},
		transactions: map[int64][]*domain.Transaction{},
		nextID:       100,
	}
}

func (s *stubRepo) id() int64 { s.nextID++; return s.nextID }

func (s *stubRepo) CreatePortfolio(ctx context.Context, p *domain.Portfolio) (int64, error) {
	p.ID = s.id()
	p.CreatedAt = time.Now()
	s.portfolios[p.ID] = p
	return p.ID, nil
}

func (s *stubRepo) FindPortfolioByID(ctx context.Context, id int64) (*domain.Portfolio, error) {
	return s.portfolios[id], nil
}

func (s *stubRepo) FindAllPortfolios(ctx context.Context) ([]*domain.Portfolio, error) {
	out := make([]*domain.Portfolio, 0, len(s.portfolios))
	for _, p := range s.portfolios {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubRepo) UpdatePortfolio(ctx context.Context, p *domain.Portfolio) error {
	if _, ok := s.portfolios[p.ID]; !ok {
		return fmt.Errorf("portfolio %d: %w", p.ID, ports.ErrNotFound)
	}
	s.portfolios[p.ID] = p
	return nil
}

func (s *stubRepo) DeletePortfolio(ctx context.Context, id int64) error {
	if _, ok := s.portfolios[id]; !ok {
		return fmt.Errorf("portfolio %d: %w", id, ports.ErrNotFound)
	}
	delete(s.portfolios, id)
	return nil
}

func (s *stubRepo) CreateAsset(ctx context.Context, a *domain.Asset) (int64, error) {
	a.ID = s.id()
	s.assets[a.ID] = a
	return a.ID, nil
}

func (s *stubRepo) FindAssetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	return s.assets[id], nil
}

func (s *stubRepo) FindAssetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error) {
	for _, a := range s.assets {
		if a.Symbol == symbol {
			return a, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) FindAllAssets(ctx context.Context) ([]*domain.Asset, error) {
	out := make([]*domain.Asset, 0, len(s.assets))
	for _, a := range s.assets {
		out = append(out, a)
	}
	return out, nil
}

func (s *stubRepo) DeleteAsset(ctx context.Context, id int64) error {
	if _, ok := s.assets[id]; !ok {
		return fmt.Errorf("asset %d: %w", id, ports.ErrNotFound)
	}
	delete(s.assets, id)
	return nil
}

func (s *stubRepo) CreateTransaction(ctx context.Context, t *domain.Transaction) (int64, error) {
	t.ID = s.id()
	s.transactions[t.AssetID] = append(s.transactions[t.AssetID], t)
	return t.ID, nil
}

func (s *stubRepo) ListForAsset(ctx context.Context, portfolioID, assetID int64) ([]*domain.Transaction, error) {
	out := []*domain.Transaction{}
	for _, t := range s.transactions[assetID] {
		if t.PortfolioID == portfolioID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubRepo) ListForPortfolio(ctx context.Context, portfolioID int64) ([]*domain.LedgerEntry, error) {
	out := []*domain.LedgerEntry{}
	for assetID, txs := range s.transactions {
		asset := s.assets[assetID]
		for _, t := range txs {
			if t.PortfolioID != portfolioID {
				continue
			}
			e := &domain.LedgerEntry{Transaction: *t}
			if asset != nil {
				e.Symbol = asset.Symbol
				e.AssetName = asset.Name
			}
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubRepo) Holdings(ctx context.Context, portfolioID int64) ([]*domain.Holding, error) {
	out := []*domain.Holding{}
	for assetID, txs := range s.transactions {
		asset := s.assets[assetID]
		if asset == nil {
			continue
		}
		h := &domain.Holding{AssetID: assetID, Symbol: asset.Symbol, Name: asset.Name}
		var lastBuy *domain.Transaction
		for _, t := range txs {
			if t.PortfolioID != portfolioID {
				continue
			}
			switch t.Kind {
			case domain.KindBuy:
				h.Quantity += t.Quantity
				lastBuy = t
			case domain.KindSell:
				h.Quantity -= t.Quantity
			}
		}
		if h.Quantity <= 0 {
			continue
		}
		if lastBuy != nil {
			h.LastBuyPrice = lastBuy.Price
			h.LastBuyFees = lastBuy.Fees
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (s *stubRepo) DistinctAssets(ctx context.Context, portfolioID int64) ([]*domain.Asset, error) {
	seen := map[int64]bool{}
	out := []*domain.Asset{}
	for assetID, txs := range s.transactions {
		for _, t := range txs {
			if t.PortfolioID == portfolioID && !seen[assetID] {
				seen[assetID] = true
				if a := s.assets[assetID]; a != nil {
					out = append(out, a)
				}
			}
		}
	}
	return out, nil
}

type stubPrices struct {
	series map[string]*domain.PriceSeries
	errs   map[string]error
}

func (p *stubPrices) DailySeries(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	if err, ok := p.errs[symbol]; ok {
		return nil, err
	}
	if s, ok := p.series[symbol]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("no series for %s: %w", symbol, ports.ErrPriceDataMissing)
}

func newTestServer(t *testing.T, repo *stubRepo, prices ports.PriceProvider) *httptest.Server {
	t.Helper()
	if prices == nil {
		prices = &stubPrices{}
	}
	perfService, err := perf.NewService(repo, repo, prices, nopLogger{})
	require.NoError(t, err)

	api, err := New(Config{
		Portfolios: repo,
		Assets:     repo,
		Ledger:     repo,
		Perf:       perfService,
		Logger:     nopLogger{},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestCreatePortfolio(t *testing.T) {
	srv := newTestServer(t, newStubRepo(), nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/portfolios", `{"user_id":1,"name":"Main"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Main", body["name"])
	assert.NotZero(t, body["portfolio_id"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/portfolios", `{"user_id":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "name")
}

func TestCreateTransactionValidation(t *testing.T) {
	repo := newStubRepo()
	srv := newTestServer(t, repo, nil)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing fields", `{"portfolio_id":1}`, "required"},
		{"bad kind", `{"portfolio_id":1,"asset_id":2,"date":"2024-01-02","type":"stake","quantity":1,"price":1}`, "invalid type"},
		{"negative quantity", `{"portfolio_id":1,"asset_id":2,"date":"2024-01-02","type":"buy","quantity":-1,"price":1}`, ">= 0"},
		{"bad date", `{"portfolio_id":1,"asset_id":2,"date":"02/01/2024","type":"buy","quantity":1,"price":1}`, "YYYY-MM-DD"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/transactions", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body["error"], tc.want)
		})
	}

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/transactions",
		`{"portfolio_id":1,"asset_id":2,"date":"2024-01-02","type":"buy","quantity":10,"price":5,"fees":0.5}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotZero(t, body["transaction_id"])
}

func TestAssetPerformanceEndpoint(t *testing.T) {
	repo := newStubRepo()
	assetID, err := repo.CreateAsset(context.Background(), &domain.Asset{Symbol: "X", Name: "X Corp", Type: domain.AssetStock, Currency: "USD"})
	require.NoError(t, err)

	date, err := time.ParseInLocation(domain.DateLayout, "2024-01-02", time.UTC)
	require.NoError(t, err)
	_, err = repo.CreateTransaction(context.Background(), &domain.Transaction{
		PortfolioID: 1, AssetID: assetID, Date: date, Kind: domain.KindBuy, Quantity: 10, Price: 5,
	})
	require.NoError(t, err)

	c1, c2 := 5.5, 6.0
	prices := &stubPrices{series: map[string]*domain.PriceSeries{
		"X": {
			Timestamp: []domain.BarTime{domain.TextBarTime("2024-01-02"), domain.TextBarTime("2024-01-03")},
			Open:      []float64{c1, c2},
			High:      []float64{c1, c2},
			Low:       []float64{c1, c2},
			Close:     []float64{c1, c2},
			Volume:    []float64{0, 0},
		},
	}}
	srv := newTestServer(t, repo, prices)

	url := fmt.Sprintf("%s/api/performance/asset/1/%d", srv.URL, assetID)
	resp, body := doJSON(t, http.MethodGet, url, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "X", body["ticker"])

	history, ok := body["history"].([]interface{})
	require.True(t, ok)
	require.Len(t, history, 2)

	first := history[0].(map[string]interface{})
	assert.Equal(t, "2024-01-02", first["date"])
	assert.Equal(t, 10.0, first["position"])
	assert.Equal(t, 55.0, first["marketValue"])
	assert.Equal(t, 5.0, first["pnl"])
}

func TestAssetPerformanceEndpointNoTransactions(t *testing.T) {
	srv := newTestServer(t, newStubRepo(), nil)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/performance/asset/1/2", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No transactions found for asset", body["error"])
}

func TestPortfolioPerformanceEndpointDegrades(t *testing.T) {
	repo := newStubRepo()
	goodID, err := repo.CreateAsset(context.Background(), &domain.Asset{Symbol: "GOOD", Type: domain.AssetStock, Currency: "USD"})
	require.NoError(t, err)
	brokenID, err := repo.CreateAsset(context.Background(), &domain.Asset{Symbol: "BROKEN", Type: domain.AssetStock, Currency: "USD"})
	require.NoError(t, err)

	date, err := time.ParseInLocation(domain.DateLayout, "2024-01-02", time.UTC)
	require.NoError(t, err)
	for _, assetID := range []int64{goodID, brokenID} {
		_, err = repo.CreateTransaction(context.Background(), &domain.Transaction{
			PortfolioID: 1, AssetID: assetID, Date: date, Kind: domain.KindBuy, Quantity: 1, Price: 10,
		})
		require.NoError(t, err)
	}

	prices := &stubPrices{
		series: map[string]*domain.PriceSeries{
			"GOOD": {
				Timestamp: []domain.BarTime{domain.TextBarTime("2024-01-02")},
				Open:      []float64{11},
				High:      []float64{11},
				Low:       []float64{11},
				Close:     []float64{11},
				Volume:    []float64{100},
			},
		},
		errs: map[string]error{
			"BROKEN": fmt.Errorf("malformed OHLCV arrays for BROKEN: %w", ports.ErrPriceDataMissing),
		},
	}
	srv := newTestServer(t, repo, prices)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/performance/portfolio/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, body["portfolioId"])

	history, ok := body["history"].([]interface{})
	require.True(t, ok)
	require.Len(t, history, 1)
	day := history[0].(map[string]interface{})
	assert.Equal(t, 1.0, day["pnl"]) // only the good asset contributes
}

func TestHoldingsEndpoint(t *testing.T) {
	repo := newStubRepo()
	heldID, err := repo.CreateAsset(context.Background(), &domain.Asset{Symbol: "HELD", Name: "Held Co", Type: domain.AssetStock, Currency: "USD"})
	require.NoError(t, err)
	soldID, err := repo.CreateAsset(context.Background(), &domain.Asset{Symbol: "SOLD", Name: "Sold Co", Type: domain.AssetStock, Currency: "USD"})
	require.NoError(t, err)

	date, err := time.ParseInLocation(domain.DateLayout, "2024-01-02", time.UTC)
	require.NoError(t, err)
	seed := []*domain.Transaction{
		{PortfolioID: 1, AssetID: heldID, Date: date, Kind: domain.KindBuy, Quantity: 10, Price: 5, Fees: 0.5},
		{PortfolioID: 1, AssetID: heldID, Date: date.AddDate(0, 0, 1), Kind: domain.KindBuy, Quantity: 5, Price: 6, Fees: 0.25},
		{PortfolioID: 1, AssetID: heldID, Date: date.AddDate(0, 0, 2), Kind: domain.KindSell, Quantity: 3, Price: 7},
		// Fully exited position must not appear.
		{PortfolioID: 1, AssetID: soldID, Date: date, Kind: domain.KindBuy, Quantity: 4, Price: 2},
		{PortfolioID: 1, AssetID: soldID, Date: date.AddDate(0, 0, 1), Kind: domain.KindSell, Quantity: 4, Price: 3},
	}
	for _, tx := range seed {
		_, err = repo.CreateTransaction(context.Background(), tx)
		require.NoError(t, err)
	}
	srv := newTestServer(t, repo, nil)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/portfolios/1/holdings", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var holdings []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&holdings))
	require.Len(t, holdings, 1)

	assert.Equal(t, "HELD", holdings[0]["symbol"])
	assert.Equal(t, 12.0, holdings[0]["quantity"]) // 10 + 5 - 3
	assert.Equal(t, 6.0, holdings[0]["price"])     // latest buy
	assert.Equal(t, 0.25, holdings[0]["fees"])
}

func TestHoldingsBreakdownEndpoint(t *testing.T) {
	repo := newStubRepo()
	aID, err := repo.CreateAsset(context.Background(), &domain.Asset{Symbol: "AAA", Name: "A Co", Type: domain.AssetStock, Currency: "USD"})
	require.NoError(t, err)
	bID, err := repo.CreateAsset(context.Background(), &domain.Asset{Symbol: "BBB", Name: "B Co", Type: domain.AssetStock, Currency: "USD"})
	require.NoError(t, err)

	date, err := time.ParseInLocation(domain.DateLayout, "2024-01-02", time.UTC)
	require.NoError(t, err)
	for _, tx := range []*domain.Transaction{
		{PortfolioID: 1, AssetID: aID, Date: date, Kind: domain.KindBuy, Quantity: 3, Price: 10}, // value 30
		{PortfolioID: 1, AssetID: bID, Date: date, Kind: domain.KindBuy, Quantity: 2, Price: 5},  // value 10
	} {
		_, err = repo.CreateTransaction(context.Background(), tx)
		require.NoError(t, err)
	}
	srv := newTestServer(t, repo, nil)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/portfolios/1/holdings/value-breakdown", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, body["portfolio_id"])
	assert.Equal(t, 40.0, body["total_value_usd"])

	holdings, ok := body["holdings"].([]interface{})
	require.True(t, ok)
	require.Len(t, holdings, 2)

	first := holdings[0].(map[string]interface{})
	assert.Equal(t, "AAA", first["symbol"])
	assert.Equal(t, 30.0, first["value_usd"])
	assert.Equal(t, 75.0, first["weight"])
	second := holdings[1].(map[string]interface{})
	assert.Equal(t, 25.0, second["weight"])
}

func TestNewsEndpointWithoutProvider(t *testing.T) {
	srv := newTestServer(t, newStubRepo(), nil)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/news", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["ok"])
}
