package pnl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnlledger/internal/domain"
)

func ids(trades []domain.Trade) []string {
	out := make([]string, len(trades))
	for i, tx := range trades {
		out[i] = tx.ID
	}
	return out
}

func TestGroup_StableBySymbol(t *testing.T) {
	trades := AssumeSorted([]domain.Trade{
		buy("1", "ETH/USDT", 1, "1", "1", "1", "0"),
		buy("2", "BTC/USDT", 2, "1", "1", "1", "0"),
		sell("3", "ETH/USDT", 3, "1", "1", "1", "0"),
		buy("4", "BTC/USDT", 4, "1", "1", "1", "0"),
		buy("5", "ETH/USDT", 5, "1", "1", "1", "0"),
	})

	g := Group(trades)

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"ETH/USDT", "BTC/USDT"}, g.Symbols())
	assert.Equal(t, []string{"1", "3", "5"}, ids(g.Trades("ETH/USDT")))
	assert.Equal(t, []string{"2", "4"}, ids(g.Trades("BTC/USDT")))
	assert.Empty(t, g.Trades("SOL/USDT"))
}

func TestGroup_Empty(t *testing.T) {
	g := Group(AssumeSorted(nil))

	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.Symbols())
}

func TestSort_StableOnEqualTimestamps(t *testing.T) {
	input := []domain.Trade{
		sell("c", "BTC/USDT", 20, "1", "1", "1", "0"),
		buy("a", "BTC/USDT", 10, "1", "1", "1", "0"),
		sell("d", "BTC/USDT", 20, "1", "1", "1", "0"),
		buy("b", "BTC/USDT", 10, "1", "1", "1", "0"),
	}

	sorted := Sort(input)

	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(sorted.Trades()))
	// input is untouched
	assert.Equal(t, "c", input[0].ID)
}

func TestSince(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	trades := AssumeSorted([]domain.Trade{
		buy("old", "BTC/USDT", start.Add(-time.Hour).UnixMilli(), "1", "1", "1", "0"),
		buy("edge", "BTC/USDT", start.UnixMilli(), "1", "1", "1", "0"),
		buy("new", "BTC/USDT", start.Add(time.Hour).UnixMilli(), "1", "1", "1", "0"),
	})

	filtered := trades.Since(start)

	require.Equal(t, 2, filtered.Len())
	assert.Equal(t, []string{"edge", "new"}, ids(filtered.Trades()))
	assert.Equal(t, 3, trades.Since(time.Time{}).Len())
}
