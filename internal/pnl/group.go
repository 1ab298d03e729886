package pnl

import "pnlledger/internal/domain"

// Groups holds trades partitioned by symbol. Symbols iterate in the order their
// first trade appeared.
type Groups struct {
	symbols []string
	trades  map[string][]domain.Trade
}

// Group partitions trades by symbol, preserving each trade's relative order
// within its symbol.
func Group(trades Chronological) *Groups {
	g := &Groups{trades: make(map[string][]domain.Trade)}
	for _, tx := range trades.Trades() {
		if _, ok := g.trades[tx.Symbol]; !ok {
			g.symbols = append(g.symbols, tx.Symbol)
		}
		g.trades[tx.Symbol] = append(g.trades[tx.Symbol], tx)
	}
	return g
}

// Symbols returns the grouped symbols in first-trade order.
func (g *Groups) Symbols() []string {
	return g.symbols
}

// Trades returns the ordered trades of one symbol.
func (g *Groups) Trades(symbol string) []domain.Trade {
	return g.trades[symbol]
}

// Len returns the number of symbols.
func (g *Groups) Len() int {
	return len(g.symbols)
}
