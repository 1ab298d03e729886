package pnl

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	lots := []Lot{
		{Amount: dec("0.5"), Cost: dec("15007.5"), EntryPrice: dec("30000")},
		{Amount: dec("1.5"), Cost: dec("45000"), EntryPrice: dec("30000")},
	}

	pos, ok := Value("BTC/USDT", lots, dec("40000"))

	assert.True(t, ok)
	assert.Equal(t, "BTC", pos.Asset)
	assertDec(t, "2", pos.TotalAmount)
	assertDec(t, "60007.5", pos.TotalInvested)
	assertDec(t, "30003.75", pos.AverageCost)
	assertDec(t, "80000", pos.CurrentValue)
	assertDec(t, "19992.5", pos.UnrealizedPnL)
	assertDec(t, "40000", pos.CurrentPrice)
	assert.True(t, pos.UnrealizedPnLPercent.Round(4).Equal(dec("33.3167")),
		"got %s", pos.UnrealizedPnLPercent)
}

func TestValue_NoLots(t *testing.T) {
	pos, ok := Value("BTC/USDT", nil, dec("40000"))

	assert.False(t, ok)
	assertDec(t, "0", pos.AverageCost)
	assertDec(t, "0", pos.UnrealizedPnLPercent)
}

func TestValue_ZeroInvestedHasZeroPercent(t *testing.T) {
	lots := []Lot{{Amount: dec("10"), Cost: decimal.Zero}}

	pos, ok := Value("AIR/USDT", lots, dec("2"))

	assert.True(t, ok)
	assertDec(t, "20", pos.UnrealizedPnL)
	assertDec(t, "0", pos.UnrealizedPnLPercent)
	assertDec(t, "0", pos.AverageCost)
}

func TestValue_ZeroPriceIsFullLoss(t *testing.T) {
	lots := []Lot{{Amount: dec("2"), Cost: dec("300")}}

	pos, ok := Value("ETH/USDT", lots, decimal.Zero)

	assert.True(t, ok)
	assertDec(t, "0", pos.CurrentValue)
	assertDec(t, "-300", pos.UnrealizedPnL)
	assertDec(t, "-100", pos.UnrealizedPnLPercent)
}
