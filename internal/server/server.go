// Package server exposes the JSON HTTP API. Handlers are thin: decode,
// validate, call the service or repository, serialize the result.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"portfoliotrack/internal/perf"
	"portfoliotrack/internal/ports"
)

// Server holds the API's dependencies and builds its routing table.
type Server struct {
	portfolios ports.PortfolioRepository
	assets     ports.AssetRepository
	ledger     ports.TransactionRepository
	perf       *perf.Service
	news       ports.NewsProvider
	logger     ports.Logger
	newsLimit  int
}

// Config holds the server's dependencies.
type Config struct {
	Portfolios ports.PortfolioRepository
	Assets     ports.AssetRepository
	Ledger     ports.TransactionRepository
	Perf       *perf.Service
	News       ports.NewsProvider // Optional; nil disables /api/news
	Logger     ports.Logger
	NewsLimit  int
}

// New creates a new API server instance.
func New(cfg Config) (*Server, error) {
	if cfg.Portfolios == nil || cfg.Assets == nil || cfg.Ledger == nil || cfg.Perf == nil || cfg.Logger == nil {
		return nil, errors.New("missing required dependencies for API server")
	}
	newsLimit := cfg.NewsLimit
	if newsLimit <= 0 {
		newsLimit = 6
	}
	return &Server{
		portfolios: cfg.Portfolios,
		assets:     cfg.Assets,
		ledger:     cfg.Ledger,
		perf:       cfg.Perf,
		news:       cfg.News,
		logger:     cfg.Logger,
		newsLimit:  newsLimit,
	}, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/portfolios", s.handleListPortfolios)
	mux.HandleFunc("POST /api/portfolios", s.handleCreatePortfolio)
	mux.HandleFunc("PUT /api/portfolios/{id}", s.handleUpdatePortfolio)
	mux.HandleFunc("DELETE /api/portfolios/{id}", s.handleDeletePortfolio)
	mux.HandleFunc("GET /api/portfolios/{id}/holdings", s.handleHoldings)
	mux.HandleFunc("GET /api/portfolios/{id}/holdings/value-breakdown", s.handleHoldingsBreakdown)

	mux.HandleFunc("GET /api/assets", s.handleListAssets)
	mux.HandleFunc("POST /api/assets", s.handleCreateAsset)
	mux.HandleFunc("DELETE /api/assets/{id}", s.handleDeleteAsset)

	mux.HandleFunc("GET /api/transactions/{portfolioId}", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)

	mux.HandleFunc("GET /api/performance/portfolio/{id}", s.handlePortfolioPerformance)
	mux.HandleFunc("GET /api/performance/asset/{portfolioId}/{assetId}", s.handleAssetPerformance)

	mux.HandleFunc("GET /api/news", s.handleNews)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForError maps application errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ports.ErrNoTransactions), errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrProviderUnavailable),
		errors.Is(err, ports.ErrPriceDataMissing),
		errors.Is(err, ports.ErrEmptyPriceSeries),
		errors.Is(err, ports.ErrNoUsableBars):
		return http.StatusBadGateway
	case errors.Is(err, ports.ErrNewsUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
