package pnl

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pnlledger/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "expected %s, got %s %v", want, got.String(), msgAndArgs)
}

func buy(id, symbol string, ts int64, price, amount, cost, fee string) domain.Trade {
	return trade(id, symbol, ts, domain.KindBuy, price, amount, cost, fee)
}

func sell(id, symbol string, ts int64, price, amount, cost, fee string) domain.Trade {
	return trade(id, symbol, ts, domain.KindSell, price, amount, cost, fee)
}

func trade(id, symbol string, ts int64, kind domain.Kind, price, amount, cost, fee string) domain.Trade {
	return domain.Trade{
		ID:        id,
		Timestamp: ts,
		Symbol:    symbol,
		Kind:      kind,
		Price:     dec(price),
		Amount:    dec(amount),
		Cost:      dec(cost),
		Fee:       domain.Fee{Cost: dec(fee), Currency: domain.QuoteAsset(symbol)},
	}
}

// btcScenario buys 1 BTC at 20000 and 30000 then sells 1.5 at 40000.
func btcScenario() []domain.Trade {
	return []domain.Trade{
		buy("b1", "BTC/USDT", 1000, "20000", "1.0", "20000", "10"),
		buy("b2", "BTC/USDT", 2000, "30000", "1.0", "30000", "15"),
		sell("s1", "BTC/USDT", 3000, "40000", "1.5", "60000", "30"),
	}
}
