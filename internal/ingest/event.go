package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pnlledger/internal/domain"
)

// FeeEvent is the fee part of a trade event.
type FeeEvent struct {
	Cost     decimal.Decimal `json:"cost"`
	Currency string          `json:"currency"`
}

// TradeEvent is the JSON structure for trade events received via NATS or the
// import endpoint. Timestamp is epoch milliseconds; Datetime (RFC3339) is used
// when Timestamp is absent.
type TradeEvent struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Symbol    string          `json:"symbol"`
	Type      string          `json:"type"`
	Side      string          `json:"side,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Cost      decimal.Decimal `json:"cost"`
	Fee       FeeEvent        `json:"fee"`
	Exchange  string          `json:"exchange,omitempty"`
	OrderID   string          `json:"order_id,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Datetime  string          `json:"datetime,omitempty"`
}

// Kind returns the transaction kind, falling back to the side when no type is set.
func (e *TradeEvent) Kind() domain.Kind {
	if e.Type != "" {
		return domain.Kind(e.Type)
	}
	return domain.Kind(e.Side)
}

// Validate checks that the trade event has all required fields and valid values.
func (e *TradeEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("missing required field: id")
	}
	if e.AccountID == "" {
		return fmt.Errorf("missing required field: account_id")
	}
	if e.Symbol == "" {
		return fmt.Errorf("missing required field: symbol")
	}
	if base, quote, ok := strings.Cut(e.Symbol, "/"); !ok || base == "" || quote == "" {
		return fmt.Errorf("invalid symbol: %q (must be BASE/QUOTE)", e.Symbol)
	}

	kind := e.Kind()
	if !kind.Valid() {
		return fmt.Errorf("invalid type: %q (must be buy, sell, deposit or withdrawal)", kind)
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", e.Amount)
	}
	if kind.IsTrade() && !e.Price.IsPositive() {
		return fmt.Errorf("price must be positive, got %s", e.Price)
	}
	if e.Cost.IsNegative() {
		return fmt.Errorf("cost must not be negative, got %s", e.Cost)
	}
	if e.Fee.Cost.IsNegative() {
		return fmt.Errorf("fee must not be negative, got %s", e.Fee.Cost)
	}

	if _, err := e.timestamp(); err != nil {
		return err
	}
	return nil
}

func (e *TradeEvent) timestamp() (int64, error) {
	if e.Timestamp > 0 {
		return e.Timestamp, nil
	}
	if e.Datetime == "" {
		return 0, fmt.Errorf("missing required field: timestamp")
	}
	ts, err := time.Parse(time.RFC3339, e.Datetime)
	if err != nil {
		return 0, fmt.Errorf("invalid datetime: %w", err)
	}
	return ts.UnixMilli(), nil
}

// ToDomain converts a TradeEvent to a domain Trade. A missing cost defaults to
// price × amount and a missing fee currency to the quote currency.
func (e *TradeEvent) ToDomain() (*domain.Trade, error) {
	ts, err := e.timestamp()
	if err != nil {
		return nil, err
	}

	cost := e.Cost
	if cost.IsZero() {
		cost = e.Price.Mul(e.Amount)
	}
	feeCurrency := e.Fee.Currency
	if feeCurrency == "" {
		feeCurrency = domain.QuoteAsset(e.Symbol)
	}

	return &domain.Trade{
		ID:        e.ID,
		AccountID: e.AccountID,
		Timestamp: ts,
		Symbol:    e.Symbol,
		Kind:      e.Kind(),
		Price:     e.Price,
		Amount:    e.Amount,
		Cost:      cost,
		Fee:       domain.Fee{Cost: e.Fee.Cost, Currency: feeCurrency},
		Exchange:  e.Exchange,
		OrderID:   e.OrderID,
	}, nil
}

// PriceEvent is a price tick received via NATS or the prices endpoint.
type PriceEvent struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Validate checks the tick. A zero price is allowed.
func (e *PriceEvent) Validate() error {
	if e.Symbol == "" {
		return fmt.Errorf("missing required field: symbol")
	}
	if e.Price.IsNegative() {
		return fmt.Errorf("price must not be negative, got %s", e.Price)
	}
	return nil
}

// ToDomain converts the tick, stamping it with now when it carries no timestamp.
func (e *PriceEvent) ToDomain(now time.Time) domain.Price {
	updated := now
	if e.Timestamp > 0 {
		updated = time.UnixMilli(e.Timestamp)
	}
	return domain.Price{
		Symbol:    e.Symbol,
		Price:     e.Price,
		Source:    e.Source,
		UpdatedAt: updated.UTC(),
	}
}
