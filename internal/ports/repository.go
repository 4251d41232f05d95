package ports

import (
	"context"

	"portfoliotrack/internal/domain"
)

// PortfolioRepository defines the interface for storing and retrieving portfolios.
type PortfolioRepository interface {
	// CreatePortfolio saves a new portfolio and returns its assigned ID.
	CreatePortfolio(ctx context.Context, p *domain.Portfolio) (int64, error)
	// FindPortfolioByID retrieves a portfolio by its unique ID.
	// Returns nil, nil if not found.
	FindPortfolioByID(ctx context.Context, id int64) (*domain.Portfolio, error)
	// FindAllPortfolios retrieves all portfolios, ordered by creation time descending.
	FindAllPortfolios(ctx context.Context) ([]*domain.Portfolio, error)
	// UpdatePortfolio modifies an existing portfolio's name and description.
	UpdatePortfolio(ctx context.Context, p *domain.Portfolio) error
	// DeletePortfolio removes a portfolio and its transactions.
	DeletePortfolio(ctx context.Context, id int64) error
}

// AssetRepository defines the interface for the asset catalog.
type AssetRepository interface {
	// CreateAsset saves a new catalog entry and returns its assigned ID.
	CreateAsset(ctx context.Context, a *domain.Asset) (int64, error)
	// FindAssetByID retrieves an asset by its unique ID.
	// Returns nil, nil if not found.
	FindAssetByID(ctx context.Context, id int64) (*domain.Asset, error)
	// FindAssetBySymbol retrieves an asset by its ticker symbol.
	// Returns nil, nil if not found.
	FindAssetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error)
	// FindAllAssets retrieves the full catalog, ordered by symbol.
	FindAllAssets(ctx context.Context) ([]*domain.Asset, error)
	// DeleteAsset removes a catalog entry.
	DeleteAsset(ctx context.Context, id int64) error
}

// TransactionRepository defines the interface for the transaction ledger.
type TransactionRepository interface {
	// CreateTransaction saves a new ledger entry and returns its assigned ID.
	CreateTransaction(ctx context.Context, t *domain.Transaction) (int64, error)
	// ListForAsset retrieves the ledger for one (portfolio, asset) pair,
	// ordered by date ascending with ties broken by insertion order.
	ListForAsset(ctx context.Context, portfolioID, assetID int64) ([]*domain.Transaction, error)
	// ListForPortfolio retrieves a portfolio's full ledger joined with asset
	// metadata, ordered by date ascending.
	ListForPortfolio(ctx context.Context, portfolioID int64) ([]*domain.LedgerEntry, error)
	// DistinctAssets retrieves the distinct assets with at least one
	// transaction in the portfolio.
	DistinctAssets(ctx context.Context, portfolioID int64) ([]*domain.Asset, error)
	// Holdings retrieves the portfolio's open positions: per-asset net
	// buy-minus-sell quantity with latest buy price and fees, positive
	// quantities only, ordered by symbol.
	Holdings(ctx context.Context, portfolioID int64) ([]*domain.Holding, error)
}
