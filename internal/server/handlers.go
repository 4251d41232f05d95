package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"portfoliotrack/internal/domain"
	"portfoliotrack/internal/ports"
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, ports.ErrInvalidRequest
	}
	return id, nil
}

// --- Portfolios ---

type portfolioJSON struct {
	PortfolioID int64  `json:"portfolio_id"`
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func toPortfolioJSON(p *domain.Portfolio) portfolioJSON {
	out := portfolioJSON{
		PortfolioID: p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		Description: p.Description,
	}
	if !p.CreatedAt.IsZero() {
		out.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := s.portfolios.FindAllPortfolios(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), err, "Failed to list portfolios")
		writeError(w, statusForError(err), "failed to list portfolios")
		return
	}
	out := make([]portfolioJSON, 0, len(portfolios))
	for _, p := range portfolios {
		out = append(out, toPortfolioJSON(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var in portfolioJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Name == "" || len(in.Name) > 100 {
		writeError(w, http.StatusBadRequest, "name is required (1-100 characters)")
		return
	}
	if len(in.Description) > 255 {
		writeError(w, http.StatusBadRequest, "description must be at most 255 characters")
		return
	}

	p := &domain.Portfolio{UserID: in.UserID, Name: in.Name, Description: in.Description}
	if _, err := s.portfolios.CreatePortfolio(r.Context(), p); err != nil {
		s.logger.Error(r.Context(), err, "Failed to create portfolio")
		writeError(w, statusForError(err), "failed to create portfolio")
		return
	}
	writeJSON(w, http.StatusCreated, toPortfolioJSON(p))
}

func (s *Server) handleUpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	var in portfolioJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Name == "" || len(in.Name) > 100 {
		writeError(w, http.StatusBadRequest, "name is required (1-100 characters)")
		return
	}

	p := &domain.Portfolio{ID: id, Name: in.Name, Description: in.Description}
	if err := s.portfolios.UpdatePortfolio(r.Context(), p); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "portfolio not found")
			return
		}
		s.logger.Error(r.Context(), err, "Failed to update portfolio", map[string]interface{}{"portfolioID": id})
		writeError(w, statusForError(err), "failed to update portfolio")
		return
	}
	writeJSON(w, http.StatusOK, toPortfolioJSON(p))
}

func (s *Server) handleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	if err := s.portfolios.DeletePortfolio(r.Context(), id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "portfolio not found")
			return
		}
		s.logger.Error(r.Context(), err, "Failed to delete portfolio", map[string]interface{}{"portfolioID": id})
		writeError(w, statusForError(err), "failed to delete portfolio")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Holdings ---

type holdingJSON struct {
	AssetID  int64   `json:"asset_id"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Fees     float64 `json:"fees"`
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	holdings, err := s.ledger.Holdings(r.Context(), portfolioID)
	if err != nil {
		s.logger.Error(r.Context(), err, "Failed to fetch holdings", map[string]interface{}{"portfolioID": portfolioID})
		writeError(w, statusForError(err), "failed to fetch holdings")
		return
	}
	out := make([]holdingJSON, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, holdingJSON{
			AssetID:  h.AssetID,
			Symbol:   h.Symbol,
			Name:     h.Name,
			Quantity: h.Quantity,
			Price:    h.LastBuyPrice,
			Fees:     h.LastBuyFees,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type breakdownHoldingJSON struct {
	AssetID  int64   `json:"asset_id"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	PriceUSD float64 `json:"price_usd"`
	ValueUSD float64 `json:"value_usd"`
	Weight   float64 `json:"weight"`
}

type breakdownJSON struct {
	PortfolioID   int64                  `json:"portfolio_id"`
	TotalValueUSD float64                `json:"total_value_usd"`
	Holdings      []breakdownHoldingJSON `json:"holdings"`
}

// handleHoldingsBreakdown values each position at its latest buy price and
// reports every holding's share of the total as a percentage.
func (s *Server) handleHoldingsBreakdown(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	holdings, err := s.ledger.Holdings(r.Context(), portfolioID)
	if err != nil {
		s.logger.Error(r.Context(), err, "Failed to fetch holdings breakdown", map[string]interface{}{"portfolioID": portfolioID})
		writeError(w, statusForError(err), "failed to fetch holdings breakdown")
		return
	}

	out := breakdownJSON{PortfolioID: portfolioID, Holdings: make([]breakdownHoldingJSON, 0, len(holdings))}
	for _, h := range holdings {
		value := h.Quantity * h.LastBuyPrice
		out.TotalValueUSD += value
		out.Holdings = append(out.Holdings, breakdownHoldingJSON{
			AssetID:  h.AssetID,
			Symbol:   h.Symbol,
			Name:     h.Name,
			Quantity: h.Quantity,
			PriceUSD: h.LastBuyPrice,
			ValueUSD: value,
		})
	}
	if out.TotalValueUSD > 0 {
		for i := range out.Holdings {
			out.Holdings[i].Weight = out.Holdings[i].ValueUSD / out.TotalValueUSD * 100
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Assets ---

type assetJSON struct {
	AssetID  int64  `json:"asset_id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"asset_type"`
	Currency string `json:"currency"`
	Sector   string `json:"sector,omitempty"`
}

func toAssetJSON(a *domain.Asset) assetJSON {
	return assetJSON{
		AssetID:  a.ID,
		Symbol:   a.Symbol,
		Name:     a.Name,
		Type:     string(a.Type),
		Currency: a.Currency,
		Sector:   a.Sector,
	}
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.assets.FindAllAssets(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), err, "Failed to list assets")
		writeError(w, statusForError(err), "failed to list assets")
		return
	}
	out := make([]assetJSON, 0, len(assets))
	for _, a := range assets {
		out = append(out, toAssetJSON(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var in assetJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Symbol == "" || in.Type == "" || in.Currency == "" {
		writeError(w, http.StatusBadRequest, "symbol, asset_type, currency are required")
		return
	}
	if !domain.ValidAssetType(domain.AssetType(in.Type)) {
		writeError(w, http.StatusBadRequest, "invalid asset_type")
		return
	}
	if in.Name == "" {
		in.Name = in.Symbol
	}

	a := &domain.Asset{
		Symbol:   in.Symbol,
		Name:     in.Name,
		Type:     domain.AssetType(in.Type),
		Currency: in.Currency,
		Sector:   in.Sector,
	}
	if _, err := s.assets.CreateAsset(r.Context(), a); err != nil {
		s.logger.Error(r.Context(), err, "Failed to create asset", map[string]interface{}{"symbol": in.Symbol})
		writeError(w, statusForError(err), "failed to create asset")
		return
	}
	writeJSON(w, http.StatusCreated, toAssetJSON(a))
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asset id")
		return
	}
	if err := s.assets.DeleteAsset(r.Context(), id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		s.logger.Error(r.Context(), err, "Failed to delete asset", map[string]interface{}{"assetID": id})
		writeError(w, statusForError(err), "failed to delete asset")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Transactions ---

type transactionJSON struct {
	TransactionID int64   `json:"transaction_id,omitempty"`
	PortfolioID   int64   `json:"portfolio_id"`
	AssetID       int64   `json:"asset_id"`
	Date          string  `json:"date"`
	Type          string  `json:"type"`
	Quantity      float64 `json:"quantity"`
	Price         float64 `json:"price"`
	Fees          float64 `json:"fees"`
	Notes         string  `json:"notes,omitempty"`
	Symbol        string  `json:"symbol,omitempty"`
	Name          string  `json:"name,omitempty"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := pathID(r, "portfolioId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	entries, err := s.ledger.ListForPortfolio(r.Context(), portfolioID)
	if err != nil {
		s.logger.Error(r.Context(), err, "Failed to list transactions", map[string]interface{}{"portfolioID": portfolioID})
		writeError(w, statusForError(err), "failed to list transactions")
		return
	}
	out := make([]transactionJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, transactionJSON{
			TransactionID: e.ID,
			PortfolioID:   e.PortfolioID,
			AssetID:       e.AssetID,
			Date:          e.Day(),
			Type:          string(e.Kind),
			Quantity:      e.Quantity,
			Price:         e.Price,
			Fees:          e.Fees,
			Notes:         e.Notes,
			Symbol:        e.Symbol,
			Name:          e.AssetName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in transactionJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.PortfolioID <= 0 || in.AssetID <= 0 || in.Date == "" || in.Type == "" {
		writeError(w, http.StatusBadRequest, "portfolio_id, asset_id, date, type, quantity, price are required")
		return
	}
	if !domain.ValidTransactionKind(domain.TransactionKind(in.Type)) {
		writeError(w, http.StatusBadRequest, "invalid type")
		return
	}
	if in.Quantity < 0 || in.Price < 0 || in.Fees < 0 {
		writeError(w, http.StatusBadRequest, "quantity, price and fees must be >= 0")
		return
	}
	date, err := time.ParseInLocation(domain.DateLayout, in.Date, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	t := &domain.Transaction{
		PortfolioID: in.PortfolioID,
		AssetID:     in.AssetID,
		Date:        date,
		Kind:        domain.TransactionKind(in.Type),
		Quantity:    in.Quantity,
		Price:       in.Price,
		Fees:        in.Fees,
		Notes:       in.Notes,
	}
	if _, err := s.ledger.CreateTransaction(r.Context(), t); err != nil {
		s.logger.Error(r.Context(), err, "Failed to create transaction", map[string]interface{}{
			"portfolioID": in.PortfolioID, "assetID": in.AssetID,
		})
		writeError(w, statusForError(err), "failed to create transaction")
		return
	}
	in.TransactionID = t.ID
	writeJSON(w, http.StatusCreated, in)
}

// --- Performance ---

func (s *Server) handleAssetPerformance(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := pathID(r, "portfolioId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	assetID, err := pathID(r, "assetId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	result, err := s.perf.AssetPerformance(r.Context(), portfolioID, assetID)
	if err != nil {
		if errors.Is(err, ports.ErrNoTransactions) {
			writeError(w, http.StatusNotFound, "No transactions found for asset")
			return
		}
		s.logger.Error(r.Context(), err, "Asset performance calculation failed", map[string]interface{}{
			"portfolioID": portfolioID, "assetID": assetID,
		})
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePortfolioPerformance(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}

	result, err := s.perf.PortfolioPerformance(r.Context(), portfolioID)
	if err != nil {
		s.logger.Error(r.Context(), err, "Portfolio performance calculation failed", map[string]interface{}{
			"portfolioID": portfolioID,
		})
		writeError(w, statusForError(err), "failed to calculate portfolio performance")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- News ---

type newsJSON struct {
	OK   bool                 `json:"ok"`
	News []domain.NewsArticle `json:"news"`
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		writeJSON(w, http.StatusOK, newsJSON{OK: false, News: []domain.NewsArticle{}})
		return
	}
	articles, err := s.news.LatestNews(r.Context(), s.newsLimit)
	if err != nil {
		// News is a widget, not a dependency: degrade to an empty list.
		s.logger.Warn(r.Context(), "News fetch failed", map[string]interface{}{"reason": err.Error()})
		writeJSON(w, http.StatusOK, newsJSON{OK: false, News: []domain.NewsArticle{}})
		return
	}
	writeJSON(w, http.StatusOK, newsJSON{OK: true, News: articles})
}
