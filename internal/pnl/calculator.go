// Package pnl computes FIFO cost basis, realized and unrealized profit and loss
// from a list of executed trades. Everything here is pure: a calculation reads
// trades and prices and returns a fresh summary, with no state kept between
// calls.
package pnl

import (
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"pnlledger/internal/domain"
)

// PriceMap maps a symbol to its current quote-per-base price.
type PriceMap map[string]decimal.Decimal

// Price returns the price of symbol, or zero when it is unknown.
func (p PriceMap) Price(symbol string) decimal.Decimal {
	if price, ok := p[symbol]; ok {
		return price
	}
	return decimal.Zero
}

type options struct {
	strict     bool
	workers    int
	policy     OversellPolicy
	onOversell func(domain.Trade, decimal.Decimal)
}

// Option configures Calculate.
type Option func(*options)

// WithStrict validates all trades before replaying and rejects the whole
// calculation on any invalid trade or oversell.
func WithStrict() Option {
	return func(o *options) {
		o.strict = true
		o.policy = OversellReject
	}
}

// WithWorkers replays up to n symbols concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithOversellHook registers fn to be told about every oversell absorbed at
// zero cost. fn must be safe for concurrent use when workers > 1.
func WithOversellHook(fn func(sell domain.Trade, unmatched decimal.Decimal)) Option {
	return func(o *options) {
		o.onOversell = fn
	}
}

// Replay matches one symbol's trades and values what is left at price.
func Replay(symbol string, trades []domain.Trade, price decimal.Decimal, m Matcher) (AssetResult, error) {
	lots, realized, err := m.Match(trades)
	if err != nil {
		return AssetResult{}, err
	}

	var res AssetResult
	pos, ok := Value(symbol, lots, price)
	if ok {
		res.Position = &pos
	}
	res.Realized = realized.Report(symbol, pos.AverageCost)
	return res, nil
}

// Calculate builds the portfolio summary for trades valued at prices. Symbols
// missing from prices are valued at zero.
func Calculate(trades Chronological, prices PriceMap, opts ...Option) (domain.PortfolioSummary, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	if o.strict {
		if err := Validate(trades); err != nil {
			return domain.PortfolioSummary{}, err
		}
	}

	m := Matcher{Policy: o.policy, OnOversell: o.onOversell}
	groups := Group(trades)
	symbols := groups.Symbols()
	results := make([]AssetResult, len(symbols))

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, symbol := range symbols {
		g.Go(func() error {
			res, err := Replay(symbol, groups.Trades(symbol), prices.Price(symbol), m)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.PortfolioSummary{}, err
	}

	return Aggregate(results), nil
}
