package pnl

import (
	"github.com/shopspring/decimal"

	"pnlledger/internal/domain"
)

// AssetResult is the outcome of replaying one symbol. Either side may be nil.
type AssetResult struct {
	Position *domain.Position
	Realized *domain.RealizedPnL
}

// Aggregate sums per-asset results into a portfolio summary. Positions and
// realized results keep the order of results.
func Aggregate(results []AssetResult) domain.PortfolioSummary {
	s := domain.PortfolioSummary{
		TotalInvested:      decimal.Zero,
		CurrentValue:       decimal.Zero,
		TotalUnrealizedPnL: decimal.Zero,
		TotalRealizedPnL:   decimal.Zero,
		Positions:          []domain.Position{},
		RealizedPnLByAsset: []domain.RealizedPnL{},
	}

	for _, res := range results {
		if p := res.Position; p != nil && p.TotalAmount.IsPositive() {
			s.Positions = append(s.Positions, *p)
			s.TotalInvested = s.TotalInvested.Add(p.TotalInvested)
			s.CurrentValue = s.CurrentValue.Add(p.CurrentValue)
			s.TotalUnrealizedPnL = s.TotalUnrealizedPnL.Add(p.UnrealizedPnL)
		}
		if r := res.Realized; r != nil {
			s.RealizedPnLByAsset = append(s.RealizedPnLByAsset, *r)
			s.TotalRealizedPnL = s.TotalRealizedPnL.Add(r.TotalRealized)
		}
	}

	s.TotalPnL = s.TotalUnrealizedPnL.Add(s.TotalRealizedPnL)
	s.TotalPnLPercent = percent(s.TotalPnL, s.TotalInvested)
	return s
}
