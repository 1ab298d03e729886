package pnl

import (
	"errors"

	"pnlledger/internal/domain"
)

// Validate checks every trade and returns all problems joined together, or nil.
// Deposits and withdrawals are only checked for a known kind.
func Validate(trades Chronological) error {
	var errs []error
	bought := make(map[string]bool)

	for _, tx := range trades.Trades() {
		fail := func(err error) {
			errs = append(errs, &TradeError{TradeID: tx.ID, Symbol: tx.Symbol, Err: err})
		}

		if !tx.Kind.Valid() {
			fail(ErrUnknownKind)
			continue
		}
		if !tx.Kind.IsTrade() {
			continue
		}
		if !tx.Amount.IsPositive() {
			fail(ErrInvalidAmount)
		}
		if tx.Price.IsNegative() {
			fail(ErrInvalidPrice)
		}
		if tx.Fee.Cost.IsNegative() {
			fail(ErrInvalidFee)
		}

		if tx.Kind == domain.KindBuy {
			bought[tx.Symbol] = true
		} else if !bought[tx.Symbol] {
			fail(ErrNoPriorBuy)
		}
	}

	return errors.Join(errs...)
}
