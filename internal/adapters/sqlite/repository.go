package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"portfoliotrack/internal/domain"
	"portfoliotrack/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports repository interfaces (portfolios,
// assets, transactions) using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/portfolio.db" // Default path
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from
	// limiting connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS portfolios (
		portfolio_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL DEFAULT 0,
		name TEXT NOT NULL,
		description TEXT DEFAULT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS assets (
		asset_id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		asset_type TEXT NOT NULL,
		currency TEXT NOT NULL,
		sector TEXT DEFAULT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		transaction_id INTEGER PRIMARY KEY AUTOINCREMENT,
		portfolio_id INTEGER NOT NULL REFERENCES portfolios (portfolio_id) ON DELETE CASCADE,
		asset_id INTEGER NOT NULL REFERENCES assets (asset_id),
		date TEXT NOT NULL, -- calendar day, YYYY-MM-DD
		type TEXT NOT NULL,
		quantity REAL NOT NULL,
		price REAL NOT NULL,
		fees REAL NOT NULL DEFAULT 0,
		notes TEXT DEFAULT NULL
	);
	-- Add indexes for the ledger lookups
	CREATE INDEX IF NOT EXISTS idx_transactions_portfolio_asset_date ON transactions (portfolio_id, asset_id, date);
	CREATE INDEX IF NOT EXISTS idx_transactions_portfolio_date ON transactions (portfolio_id, date);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- PortfolioRepository Implementation ---

// CreatePortfolio saves a new portfolio and returns its assigned ID.
func (r *Repository) CreatePortfolio(ctx context.Context, p *domain.Portfolio) (int64, error) {
	const query = `INSERT INTO portfolios (user_id, name, description) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, p.UserID, p.Name, nullableString(p.Description))
	if err != nil {
		return 0, fmt.Errorf("failed to insert portfolio '%s': %w", p.Name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for portfolio '%s': %w", p.Name, err)
	}
	p.ID = id
	r.logger.Debug(ctx, "Portfolio created", map[string]interface{}{"portfolioID": id, "name": p.Name})
	return id, nil
}

// FindPortfolioByID retrieves a portfolio by its unique ID.
func (r *Repository) FindPortfolioByID(ctx context.Context, id int64) (*domain.Portfolio, error) {
	const query = `
	SELECT portfolio_id, user_id, name, COALESCE(description, ''), created_at
	FROM portfolios WHERE portfolio_id = ?`

	p, err := scanPortfolio(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query portfolio by ID %d: %w", id, err)
	}
	return p, nil
}

// FindAllPortfolios retrieves all portfolios, newest first.
func (r *Repository) FindAllPortfolios(ctx context.Context) ([]*domain.Portfolio, error) {
	const query = `
	SELECT portfolio_id, user_id, name, COALESCE(description, ''), created_at
	FROM portfolios ORDER BY created_at DESC, portfolio_id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	portfolios := make([]*domain.Portfolio, 0)
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio rows: %w", err)
	}
	return portfolios, nil
}

// UpdatePortfolio modifies an existing portfolio's name and description.
func (r *Repository) UpdatePortfolio(ctx context.Context, p *domain.Portfolio) error {
	const query = `UPDATE portfolios SET name = ?, description = ? WHERE portfolio_id = ?`

	result, err := r.db.ExecContext(ctx, query, p.Name, nullableString(p.Description), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update portfolio ID %d: %w", p.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for portfolio ID %d: %w", p.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("portfolio ID %d not found for update: %w", p.ID, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Portfolio updated", map[string]interface{}{"portfolioID": p.ID})
	return nil
}

// DeletePortfolio removes a portfolio; its transactions cascade.
func (r *Repository) DeletePortfolio(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM portfolios WHERE portfolio_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio ID %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for delete portfolio ID %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("portfolio ID %d not found for delete: %w", id, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Portfolio deleted", map[string]interface{}{"portfolioID": id})
	return nil
}

// --- AssetRepository Implementation ---

// CreateAsset saves a new catalog entry and returns its assigned ID.
func (r *Repository) CreateAsset(ctx context.Context, a *domain.Asset) (int64, error) {
	const query = `INSERT INTO assets (symbol, name, asset_type, currency, sector) VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, a.Symbol, a.Name, string(a.Type), a.Currency, nullableString(a.Sector))
	if err != nil {
		return 0, fmt.Errorf("failed to insert asset '%s': %w", a.Symbol, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for asset '%s': %w", a.Symbol, err)
	}
	a.ID = id
	r.logger.Debug(ctx, "Asset created", map[string]interface{}{"assetID": id, "symbol": a.Symbol})
	return id, nil
}

// FindAssetByID retrieves an asset by its unique ID.
func (r *Repository) FindAssetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	const query = `
	SELECT asset_id, symbol, name, asset_type, currency, COALESCE(sector, '')
	FROM assets WHERE asset_id = ?`

	a, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query asset by ID %d: %w", id, err)
	}
	return a, nil
}

// FindAssetBySymbol retrieves an asset by its ticker symbol.
func (r *Repository) FindAssetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error) {
	const query = `
	SELECT asset_id, symbol, name, asset_type, currency, COALESCE(sector, '')
	FROM assets WHERE symbol = ?`

	a, err := scanAsset(r.db.QueryRowContext(ctx, query, symbol))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query asset by symbol %s: %w", symbol, err)
	}
	return a, nil
}

// FindAllAssets retrieves the full catalog, ordered by symbol.
func (r *Repository) FindAllAssets(ctx context.Context) ([]*domain.Asset, error) {
	const query = `
	SELECT asset_id, symbol, name, asset_type, currency, COALESCE(sector, '')
	FROM assets ORDER BY symbol ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	assets := make([]*domain.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset rows: %w", err)
	}
	return assets, nil
}

// DeleteAsset removes a catalog entry.
func (r *Repository) DeleteAsset(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE asset_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset ID %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for delete asset ID %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("asset ID %d not found for delete: %w", id, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Asset deleted", map[string]interface{}{"assetID": id})
	return nil
}

// --- TransactionRepository Implementation ---

// CreateTransaction saves a new ledger entry and returns its assigned ID.
func (r *Repository) CreateTransaction(ctx context.Context, t *domain.Transaction) (int64, error) {
	const query = `
	INSERT INTO transactions (portfolio_id, asset_id, date, type, quantity, price, fees, notes)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		t.PortfolioID, t.AssetID, t.Day(), string(t.Kind), t.Quantity, t.Price, t.Fees, nullableString(t.Notes))
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction for portfolio %d asset %d: %w", t.PortfolioID, t.AssetID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for transaction: %w", err)
	}
	t.ID = id
	r.logger.Debug(ctx, "Transaction created", map[string]interface{}{
		"transactionID": id, "portfolioID": t.PortfolioID, "assetID": t.AssetID, "type": string(t.Kind),
	})
	return id, nil
}

// ListForAsset retrieves the ledger for one (portfolio, asset) pair,
// ordered by date ascending with insertion order breaking ties.
func (r *Repository) ListForAsset(ctx context.Context, portfolioID, assetID int64) ([]*domain.Transaction, error) {
	const query = `
	SELECT transaction_id, portfolio_id, asset_id, date, type, quantity, price, fees, COALESCE(notes, '')
	FROM transactions
	WHERE portfolio_id = ? AND asset_id = ?
	ORDER BY date ASC, transaction_id ASC`

	rows, err := r.db.QueryContext(ctx, query, portfolioID, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger for portfolio %d asset %d: %w", portfolioID, assetID, err)
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

// ListForPortfolio retrieves a portfolio's full ledger joined with asset metadata.
func (r *Repository) ListForPortfolio(ctx context.Context, portfolioID int64) ([]*domain.LedgerEntry, error) {
	const query = `
	SELECT t.transaction_id, t.portfolio_id, t.asset_id, t.date, t.type, t.quantity, t.price, t.fees,
	       COALESCE(t.notes, ''), a.symbol, a.name
	FROM transactions t
	JOIN assets a ON t.asset_id = a.asset_id
	WHERE t.portfolio_id = ?
	ORDER BY t.date ASC, t.transaction_id ASC`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger for portfolio %d: %w", portfolioID, err)
	}
	defer rows.Close()

	entries := make([]*domain.LedgerEntry, 0)
	for rows.Next() {
		e := &domain.LedgerEntry{}
		var day, kind string
		err := rows.Scan(&e.ID, &e.PortfolioID, &e.AssetID, &day, &kind, &e.Quantity, &e.Price, &e.Fees,
			&e.Notes, &e.Symbol, &e.AssetName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Date, err = time.ParseInLocation(domain.DateLayout, day, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ledger date '%s': %w", day, err)
		}
		e.Kind = domain.TransactionKind(kind)
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return entries, nil
}

// DistinctAssets retrieves the distinct assets with at least one
// transaction in the portfolio.
func (r *Repository) DistinctAssets(ctx context.Context, portfolioID int64) ([]*domain.Asset, error) {
	const query = `
	SELECT DISTINCT a.asset_id, a.symbol, a.name, a.asset_type, a.currency, COALESCE(a.sector, '')
	FROM transactions t
	JOIN assets a ON t.asset_id = a.asset_id
	WHERE t.portfolio_id = ?`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct assets for portfolio %d: %w", portfolioID, err)
	}
	defer rows.Close()

	assets := make([]*domain.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan distinct asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating distinct asset rows: %w", err)
	}
	return assets, nil
}

// Holdings retrieves the portfolio's open positions. Net quantity is the
// sum of buys minus sells per asset; only strictly positive positions are
// held. Price and fees come from the asset's latest buy (date, then
// insertion order) as a valuation estimate.
func (r *Repository) Holdings(ctx context.Context, portfolioID int64) ([]*domain.Holding, error) {
	const query = `
	SELECT a.asset_id, a.symbol, a.name,
	       SUM(CASE WHEN t.type = 'buy' THEN t.quantity
	                WHEN t.type = 'sell' THEN -t.quantity
	                ELSE 0 END) AS quantity,
	       COALESCE((SELECT tt.price FROM transactions tt
	                 WHERE tt.asset_id = a.asset_id AND tt.portfolio_id = ? AND tt.type = 'buy'
	                 ORDER BY tt.date DESC, tt.transaction_id DESC LIMIT 1), 0) AS last_buy_price,
	       COALESCE((SELECT tt.fees FROM transactions tt
	                 WHERE tt.asset_id = a.asset_id AND tt.portfolio_id = ? AND tt.type = 'buy'
	                 ORDER BY tt.date DESC, tt.transaction_id DESC LIMIT 1), 0) AS last_buy_fees
	FROM transactions t
	JOIN assets a ON t.asset_id = a.asset_id
	WHERE t.portfolio_id = ? AND t.type IN ('buy', 'sell')
	GROUP BY a.asset_id, a.symbol, a.name
	HAVING quantity > 0
	ORDER BY a.symbol ASC`

	rows, err := r.db.QueryContext(ctx, query, portfolioID, portfolioID, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings for portfolio %d: %w", portfolioID, err)
	}
	defer rows.Close()

	holdings := make([]*domain.Holding, 0)
	for rows.Next() {
		h := &domain.Holding{}
		if err := rows.Scan(&h.AssetID, &h.Symbol, &h.Name, &h.Quantity, &h.LastBuyPrice, &h.LastBuyFees); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding rows: %w", err)
	}
	return holdings, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanPortfolio scans a row into a domain.Portfolio struct.
func scanPortfolio(s scanner) (*domain.Portfolio, error) {
	p := &domain.Portfolio{}
	if err := s.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	return p, nil
}

// scanAsset scans a row into a domain.Asset struct.
func scanAsset(s scanner) (*domain.Asset, error) {
	a := &domain.Asset{}
	var assetType string
	if err := s.Scan(&a.ID, &a.Symbol, &a.Name, &assetType, &a.Currency, &a.Sector); err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	a.Type = domain.AssetType(assetType)
	return a, nil
}

// scanTransaction scans a row into a domain.Transaction struct.
// Dates are stored as YYYY-MM-DD text and parsed back at UTC so calendar
// comparison never shifts across timezones.
func scanTransaction(s scanner) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var day, kind string
	if err := s.Scan(&t.ID, &t.PortfolioID, &t.AssetID, &day, &kind, &t.Quantity, &t.Price, &t.Fees, &t.Notes); err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	var err error
	t.Date, err = time.ParseInLocation(domain.DateLayout, day, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction date '%s': %w", day, err)
	}
	t.Kind = domain.TransactionKind(kind)
	return t, nil
}

// nullableString maps "" to NULL for optional text columns.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
