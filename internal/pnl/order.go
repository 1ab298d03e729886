package pnl

import (
	"sort"
	"time"

	"pnlledger/internal/domain"
)

// Chronological is a trade list in ascending timestamp order. Trades with equal
// timestamps keep their original relative order.
type Chronological struct {
	trades []domain.Trade
}

// Sort returns a chronologically ordered copy of trades. The sort is stable so
// equal timestamps are broken by original position.
func Sort(trades []domain.Trade) Chronological {
	sorted := make([]domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	return Chronological{trades: sorted}
}

// AssumeSorted wraps trades the caller already holds in ascending timestamp
// order, such as rows read with ORDER BY timestamp. The order is not checked.
func AssumeSorted(trades []domain.Trade) Chronological {
	return Chronological{trades: trades}
}

// Trades returns the ordered trades. The slice must not be modified.
func (c Chronological) Trades() []domain.Trade {
	return c.trades
}

// Len returns the number of trades.
func (c Chronological) Len() int {
	return len(c.trades)
}

// Since keeps the trades executed at or after t. A zero t keeps everything.
func (c Chronological) Since(t time.Time) Chronological {
	if t.IsZero() {
		return c
	}
	cutoff := t.UnixMilli()
	filtered := make([]domain.Trade, 0, len(c.trades))
	for _, tx := range c.trades {
		if tx.Timestamp >= cutoff {
			filtered = append(filtered, tx)
		}
	}
	return Chronological{trades: filtered}
}
