package perf

import (
	"fmt"

	"portfoliotrack/internal/ports"
)

// Service computes asset and portfolio performance. It is stateless and
// safe for concurrent use; every calculation re-reads the ledger and
// price data fresh and the results are owned by the caller.
type Service struct {
	assets ports.AssetRepository
	ledger ports.TransactionRepository
	prices ports.PriceProvider
	logger ports.Logger
}

// NewService creates a new performance service instance.
func NewService(assets ports.AssetRepository, ledger ports.TransactionRepository, prices ports.PriceProvider, logger ports.Logger) (*Service, error) {
	if assets == nil || ledger == nil || prices == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for performance service")
	}
	return &Service{
		assets: assets,
		ledger: ledger,
		prices: prices,
		logger: logger,
	}, nil
}
