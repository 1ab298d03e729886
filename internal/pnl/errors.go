package pnl

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidPrice  = errors.New("price must not be negative")
	ErrInvalidFee    = errors.New("fee must not be negative")
	ErrUnknownKind   = errors.New("unknown transaction kind")
	ErrNoPriorBuy    = errors.New("sell without a prior buy")
	ErrOversold      = errors.New("sell exceeds open inventory")
)

// TradeError reports a problem with one trade.
type TradeError struct {
	TradeID string
	Symbol  string
	Err     error
}

func (e *TradeError) Error() string {
	return fmt.Sprintf("trade %s (%s): %v", e.TradeID, e.Symbol, e.Err)
}

func (e *TradeError) Unwrap() error {
	return e.Err
}

// TradeErrors collects the trade errors inside err, looking through wrapped
// and joined errors.
func TradeErrors(err error) []*TradeError {
	switch e := err.(type) {
	case nil:
		return nil
	case *TradeError:
		return []*TradeError{e}
	case interface{ Unwrap() []error }:
		var out []*TradeError
		for _, inner := range e.Unwrap() {
			out = append(out, TradeErrors(inner)...)
		}
		return out
	case interface{ Unwrap() error }:
		return TradeErrors(e.Unwrap())
	}
	return nil
}
