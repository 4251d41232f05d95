package domain

// AssetType classifies an asset in the catalog.
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetBond   AssetType = "bond"
	AssetCrypto AssetType = "crypto"
	AssetFund   AssetType = "fund"
	AssetCash   AssetType = "cash"
)

// Asset is one entry in the asset catalog. Price series are fetched
// from the external provider by Symbol, never by ID.
type Asset struct {
	ID       int64     // Unique identifier (from DB)
	Symbol   string    // Ticker symbol (e.g., "AAPL")
	Name     string    // Display name (defaults to symbol)
	Type     AssetType // stock, bond, crypto, fund, cash
	Currency string    // Quote currency code (e.g., "USD")
	Sector   string    // Optional sector/industry label
}

// ValidAssetType reports whether t is one of the known asset classes.
func ValidAssetType(t AssetType) bool {
	switch t {
	case AssetStock, AssetBond, AssetCrypto, AssetFund, AssetCash:
		return true
	}
	return false
}
