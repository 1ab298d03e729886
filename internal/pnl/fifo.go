package pnl

import (
	"github.com/shopspring/decimal"

	"pnlledger/internal/domain"
)

// Lot is the unconsumed part of one buy.
type Lot struct {
	Amount     decimal.Decimal // base quantity still held
	Cost       decimal.Decimal // fee-inclusive cost still attributable to Amount
	EntryPrice decimal.Decimal
}

// Realized accumulates the result of every sell of one symbol.
type Realized struct {
	TotalRealized decimal.Decimal
	TotalSold     decimal.Decimal
	TotalProfit   decimal.Decimal
	TotalLoss     decimal.Decimal
	// Unmatched is the sold quantity no open lot could cover.
	Unmatched decimal.Decimal
	Sells     []domain.Trade
}

// OversellPolicy decides what happens when a sell exceeds open inventory.
type OversellPolicy int

const (
	// OversellZeroCost lets the uncovered remainder contribute no cost basis.
	OversellZeroCost OversellPolicy = iota
	// OversellReject fails the replay with ErrOversold.
	OversellReject
)

func (p OversellPolicy) String() string {
	switch p {
	case OversellZeroCost:
		return "zero-cost"
	case OversellReject:
		return "reject"
	default:
		return "unknown"
	}
}

// Matcher replays one symbol's trades against a FIFO lot queue.
type Matcher struct {
	Policy OversellPolicy
	// OnOversell, if set, is called for every sell that exceeds open inventory
	// under OversellZeroCost. It may be called from several goroutines.
	OnOversell func(sell domain.Trade, unmatched decimal.Decimal)
}

// Match replays trades with the default zero-cost oversell policy.
func Match(trades []domain.Trade) ([]Lot, Realized) {
	lots, realized, _ := Matcher{}.Match(trades)
	return lots, realized
}

// Match replays trades, which must be in chronological order, and returns the
// lots still open afterwards together with the realized result of every sell.
// Each call starts from an empty queue. Trades other than buys and sells are
// ignored.
func (m Matcher) Match(trades []domain.Trade) ([]Lot, Realized, error) {
	var queue []Lot
	var r Realized

	for _, tx := range trades {
		switch tx.Kind {
		case domain.KindBuy:
			queue = append(queue, Lot{
				Amount:     tx.Amount,
				Cost:       tx.Cost.Add(tx.Fee.Cost),
				EntryPrice: tx.Price,
			})

		case domain.KindSell:
			toSell := tx.Amount
			revenue := tx.Cost.Sub(tx.Fee.Cost)
			costBasis := decimal.Zero

			for toSell.IsPositive() && len(queue) > 0 {
				oldest := &queue[0]
				if oldest.Amount.LessThanOrEqual(toSell) {
					costBasis = costBasis.Add(oldest.Cost)
					toSell = toSell.Sub(oldest.Amount)
					queue = queue[1:]
					continue
				}
				// Partial: consumed cost is Cost × toSell / Amount.
				consumed := oldest.Cost.Mul(toSell).Div(oldest.Amount)
				costBasis = costBasis.Add(consumed)
				oldest.Amount = oldest.Amount.Sub(toSell)
				oldest.Cost = oldest.Cost.Sub(consumed)
				toSell = decimal.Zero
			}

			if toSell.IsPositive() {
				if m.Policy == OversellReject {
					return nil, Realized{}, &TradeError{TradeID: tx.ID, Symbol: tx.Symbol, Err: ErrOversold}
				}
				r.Unmatched = r.Unmatched.Add(toSell)
				if m.OnOversell != nil {
					m.OnOversell(tx, toSell)
				}
			}

			pnl := revenue.Sub(costBasis)
			r.TotalRealized = r.TotalRealized.Add(pnl)
			r.TotalSold = r.TotalSold.Add(tx.Amount)
			if pnl.IsPositive() {
				r.TotalProfit = r.TotalProfit.Add(pnl)
			} else {
				r.TotalLoss = r.TotalLoss.Add(pnl.Abs())
			}
			r.Sells = append(r.Sells, tx)
		}
	}

	return queue, r, nil
}

// Report turns the accumulator into the per-asset realized result, or nil when
// nothing was realized. averageCost is the average cost of the lots still open.
func (r Realized) Report(symbol string, averageCost decimal.Decimal) *domain.RealizedPnL {
	if r.TotalRealized.IsZero() {
		return nil
	}

	profitPercent := decimal.Zero
	if r.TotalSold.IsPositive() {
		base := r.TotalSold.Mul(averageCost)
		if base.IsZero() {
			base = decimal.NewFromInt(1)
		}
		profitPercent = r.TotalRealized.Div(base).Mul(hundred)
	}

	sells := make([]domain.Trade, len(r.Sells))
	copy(sells, r.Sells)

	return &domain.RealizedPnL{
		Symbol:        symbol,
		Asset:         domain.BaseAsset(symbol),
		TotalRealized: r.TotalRealized,
		TotalSold:     r.TotalSold,
		TotalProfit:   r.TotalProfit,
		TotalLoss:     r.TotalLoss,
		ProfitPercent: profitPercent,
		Transactions:  sells,
	}
}
