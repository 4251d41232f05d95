package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Performance Engine Errors
	// All four are expected business conditions, not infrastructure faults;
	// the asset calculator returns them and the portfolio aggregator
	// discards the affected asset.
	ErrNoTransactions     = errors.New("no transactions found for asset")
	ErrPriceDataMissing   = errors.New("price data missing or malformed")
	ErrEmptyPriceSeries   = errors.New("empty price series")
	ErrNoUsableBars       = errors.New("no usable bars")

	// Price Provider Errors
	ErrProviderUnavailable = errors.New("price provider is unavailable")

	// News Provider Errors
	ErrNewsUnavailable = errors.New("news provider is unavailable")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
	ErrUpdateFailed   = errors.New("database update failed")
	ErrDeleteFailed   = errors.New("database delete failed")
)
