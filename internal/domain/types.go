package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType represents the type of trading account.
type AccountType string

const (
	AccountTypeLive  AccountType = "live"
	AccountTypePaper AccountType = "paper"
)

// Kind represents what a transaction did to the account.
type Kind string

const (
	KindBuy        Kind = "buy"
	KindSell       Kind = "sell"
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
)

// Valid reports whether k is one of the known transaction kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindBuy, KindSell, KindDeposit, KindWithdrawal:
		return true
	}
	return false
}

// IsTrade reports whether k affects inventory (buy or sell).
func (k Kind) IsTrade() bool {
	return k == KindBuy || k == KindSell
}

// Account represents a trading account.
type Account struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
}

// Fee is the fee charged on an execution, in whatever currency the venue charged it.
type Fee struct {
	Cost     decimal.Decimal `json:"cost"`
	Currency string          `json:"currency"`
}

// Trade represents a single execution. Timestamp is epoch milliseconds.
type Trade struct {
	ID        string          `json:"id"`
	AccountID string          `json:"accountId,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Kind      Kind            `json:"type"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Cost      decimal.Decimal `json:"cost"`
	Fee       Fee             `json:"fee"`
	Exchange  string          `json:"exchange,omitempty"`
	OrderID   string          `json:"orderId,omitempty"`
}

// Time returns the trade timestamp as a UTC time.
func (t Trade) Time() time.Time {
	return time.UnixMilli(t.Timestamp).UTC()
}

// Asset returns the base currency of the trade's symbol.
func (t Trade) Asset() string {
	return BaseAsset(t.Symbol)
}

// BaseAsset extracts the base currency from a BASE/QUOTE symbol.
func BaseAsset(symbol string) string {
	base, _, _ := strings.Cut(symbol, "/")
	return base
}

// QuoteAsset extracts the quote currency from a BASE/QUOTE symbol, or "" when absent.
func QuoteAsset(symbol string) string {
	_, quote, _ := strings.Cut(symbol, "/")
	return quote
}

// Position is the open inventory of one asset valued at a current price.
type Position struct {
	Symbol               string          `json:"symbol"`
	Asset                string          `json:"asset"`
	TotalAmount          decimal.Decimal `json:"totalAmount"`
	AverageCost          decimal.Decimal `json:"averageCost"`
	TotalInvested        decimal.Decimal `json:"totalInvested"`
	CurrentPrice         decimal.Decimal `json:"currentPrice"`
	CurrentValue         decimal.Decimal `json:"currentValue"`
	UnrealizedPnL        decimal.Decimal `json:"unrealizedPnL"`
	UnrealizedPnLPercent decimal.Decimal `json:"unrealizedPnLPercent"`
}

// RealizedPnL is the crystallized result of every sell of one asset.
type RealizedPnL struct {
	Symbol        string          `json:"symbol"`
	Asset         string          `json:"asset"`
	TotalRealized decimal.Decimal `json:"totalRealized"`
	TotalSold     decimal.Decimal `json:"totalSold"`
	TotalProfit   decimal.Decimal `json:"totalProfit"`
	TotalLoss     decimal.Decimal `json:"totalLoss"`
	ProfitPercent decimal.Decimal `json:"profitPercent"`
	Transactions  []Trade         `json:"transactions"`
}

// PortfolioSummary aggregates positions and realized results across assets.
type PortfolioSummary struct {
	TotalInvested      decimal.Decimal `json:"totalInvested"`
	CurrentValue       decimal.Decimal `json:"currentValue"`
	TotalUnrealizedPnL decimal.Decimal `json:"totalUnrealizedPnL"`
	TotalRealizedPnL   decimal.Decimal `json:"totalRealizedPnL"`
	TotalPnL           decimal.Decimal `json:"totalPnL"`
	TotalPnLPercent    decimal.Decimal `json:"totalPnLPercent"`
	Positions          []Position      `json:"positions"`
	RealizedPnLByAsset []RealizedPnL   `json:"realizedPnLByAsset"`
}

// Price is the latest known quote-per-base price of a symbol.
type Price struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Snapshot is a persisted portfolio calculation.
type Snapshot struct {
	ID        string           `json:"id"`
	AccountID string           `json:"account_id"`
	Since     *time.Time       `json:"since,omitempty"`
	Summary   PortfolioSummary `json:"summary"`
	CreatedAt time.Time        `json:"created_at"`
}

// InferAccountType returns the account type based on the account ID.
func InferAccountType(accountID string) AccountType {
	if accountID == "paper" {
		return AccountTypePaper
	}
	return AccountTypeLive
}
