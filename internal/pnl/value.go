package pnl

import (
	"github.com/shopspring/decimal"

	"pnlledger/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Value prices the open lots of one symbol. ok is false when no inventory is
// left, in which case the position must not be reported. A zero price is valid
// and values the position at nothing.
func Value(symbol string, lots []Lot, price decimal.Decimal) (pos domain.Position, ok bool) {
	amount := decimal.Zero
	invested := decimal.Zero
	for _, l := range lots {
		amount = amount.Add(l.Amount)
		invested = invested.Add(l.Cost)
	}

	averageCost := decimal.Zero
	if amount.IsPositive() {
		averageCost = invested.Div(amount)
	}
	currentValue := amount.Mul(price)
	unrealized := currentValue.Sub(invested)

	pos = domain.Position{
		Symbol:               symbol,
		Asset:                domain.BaseAsset(symbol),
		TotalAmount:          amount,
		AverageCost:          averageCost,
		TotalInvested:        invested,
		CurrentPrice:         price,
		CurrentValue:         currentValue,
		UnrealizedPnL:        unrealized,
		UnrealizedPnLPercent: percent(unrealized, invested),
	}
	return pos, amount.IsPositive()
}

// percent returns part/whole × 100, or zero when whole is not positive.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
