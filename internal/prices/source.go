// Package prices resolves current quote-per-base prices for symbols from the
// price book, a Redis cache and the exchange.
package prices

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Source resolves prices for symbols. Symbols it does not know are absent from
// the result. On error the map may still hold the prices resolved so far.
type Source interface {
	Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)

func (f SourceFunc) Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	return f(ctx, symbols)
}

// Chain asks each source in turn for the symbols still unresolved.
type Chain struct {
	names   []string
	sources []Source
	logger  zerolog.Logger
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{logger: log.With().Str("component", "prices").Logger()}
}

// Add appends a named source and returns the chain.
func (c *Chain) Add(name string, src Source) *Chain {
	c.names = append(c.names, name)
	c.sources = append(c.sources, src)
	return c
}

// Prices returns every price some source knows. Failing sources are skipped;
// their errors are joined into the returned error.
func (c *Chain) Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(symbols))
	missing := symbols
	var errs []error

	for i, src := range c.sources {
		if len(missing) == 0 {
			break
		}
		got, err := src.Prices(ctx, missing)
		if err != nil {
			c.logger.Warn().Err(err).Str("source", c.names[i]).
				Int("symbols", len(missing)).Msg("price source failed")
			errs = append(errs, fmt.Errorf("%s: %w", c.names[i], err))
		}

		next := missing[:0:0]
		for _, symbol := range missing {
			if p, ok := got[symbol]; ok {
				out[symbol] = p
			} else {
				next = append(next, symbol)
			}
		}
		missing = next
	}

	if len(missing) > 0 {
		c.logger.Debug().Strs("symbols", missing).Msg("no price found, valuing at zero")
	}
	return out, errors.Join(errs...)
}

// SelectPrice picks the price to value a position at from a venue ticker: the
// last trade, else the previous close, else the bid/ask midpoint.
func SelectPrice(last, prevClose, bid, ask decimal.Decimal) decimal.Decimal {
	switch {
	case last.IsPositive():
		return last
	case prevClose.IsPositive():
		return prevClose
	default:
		return bid.Add(ask).Div(decimal.NewFromInt(2))
	}
}
