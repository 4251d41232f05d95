package domain

import "time"

// DateLayout is the calendar-day format used for ledger dates and
// day-record keys throughout the system.
const DateLayout = "2006-01-02"

// TransactionKind represents the kind of a ledger entry.
type TransactionKind string

const (
	KindBuy        TransactionKind = "buy"
	KindSell       TransactionKind = "sell"
	KindDividend   TransactionKind = "dividend"
	KindDeposit    TransactionKind = "deposit"
	KindWithdrawal TransactionKind = "withdrawal"
)

// ValidTransactionKind reports whether k is one of the accepted kinds.
func ValidTransactionKind(k TransactionKind) bool {
	switch k {
	case KindBuy, KindSell, KindDividend, KindDeposit, KindWithdrawal:
		return true
	}
	return false
}

// Transaction is one immutable ledger entry. Only buy and sell entries
// move position and cash flow during replay; the other kinds are carried
// in the ledger but not folded into performance.
type Transaction struct {
	ID          int64           // Unique identifier (from DB)
	PortfolioID int64           // Owning portfolio
	AssetID     int64           // Transacted asset
	Date        time.Time       // Calendar day; time of day is not significant
	Kind        TransactionKind // buy, sell, dividend, deposit, withdrawal
	Quantity    float64         // Units transacted (>= 0)
	Price       float64         // Unit price in quote currency (>= 0)
	Fees        float64         // Broker fees (>= 0)
	Notes       string          // Optional free-text note
}

// Day returns the transaction's calendar date key (YYYY-MM-DD, UTC).
func (t *Transaction) Day() string {
	return t.Date.UTC().Format(DateLayout)
}

// LedgerEntry is a transaction joined with its asset's catalog metadata,
// as returned by portfolio-wide ledger listings.
type LedgerEntry struct {
	Transaction
	Symbol    string // Asset ticker
	AssetName string // Asset display name
}

// Holding is one asset's open position in a portfolio: net bought-minus-sold
// quantity with the price and fees of the most recent buy. Assets whose net
// quantity is zero or negative are not held.
type Holding struct {
	AssetID      int64
	Symbol       string
	Name         string
	Quantity     float64 // Net units held (> 0)
	LastBuyPrice float64 // Price of the latest buy, 0 when none recorded
	LastBuyFees  float64 // Fees of the latest buy, 0 when none recorded
}
