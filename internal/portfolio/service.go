package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"pnlledger/internal/domain"
	"pnlledger/internal/pnl"
	"pnlledger/internal/prices"
)

// Store is the persistence the service needs.
type Store interface {
	TradesForReplay(ctx context.Context, accountID string) ([]domain.Trade, error)
	InsertSnapshot(ctx context.Context, snap *domain.Snapshot) error
	ListSnapshots(ctx context.Context, accountID string, limit int) ([]domain.Snapshot, error)
}

// Options configures how the engine is run.
type Options struct {
	Strict  bool
	Workers int
}

// Query selects what a calculation covers.
type Query struct {
	// Since restricts the replay to trades executed at or after it.
	Since *time.Time
	// Strict rejects invalid trades and oversells for this call.
	Strict bool
}

// Service recomputes portfolio summaries from stored trades on every call.
type Service struct {
	store  Store
	prices prices.Source
	opts   Options
	logger zerolog.Logger
}

// NewService creates a portfolio service.
func NewService(store Store, src prices.Source, opts Options) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Service{
		store:  store,
		prices: src,
		opts:   opts,
		logger: log.With().Str("component", "portfolio").Logger(),
	}
}

// Summary replays the account's trades and values open positions at current prices.
func (s *Service) Summary(ctx context.Context, accountID string, q Query) (domain.PortfolioSummary, error) {
	trades, err := s.store.TradesForReplay(ctx, accountID)
	if err != nil {
		return domain.PortfolioSummary{}, fmt.Errorf("load trades: %w", err)
	}

	ordered := pnl.AssumeSorted(trades)
	if q.Since != nil {
		ordered = ordered.Since(*q.Since)
	}

	logger := s.logger.With().Str("account_id", accountID).Logger()
	opts := []pnl.Option{
		pnl.WithWorkers(s.opts.Workers),
		pnl.WithOversellHook(func(sell domain.Trade, unmatched decimal.Decimal) {
			logger.Warn().
				Str("trade_id", sell.ID).
				Str("symbol", sell.Symbol).
				Str("unmatched", unmatched.String()).
				Msg("sell exceeds open inventory, remainder has zero cost basis")
		}),
	}
	if s.opts.Strict || q.Strict {
		opts = append(opts, pnl.WithStrict())
	}

	summary, err := pnl.Calculate(ordered, s.lookupPrices(ctx, logger, tradedSymbols(ordered)), opts...)
	if err != nil {
		return domain.PortfolioSummary{}, fmt.Errorf("calculate portfolio: %w", err)
	}

	logger.Debug().
		Int("trades", ordered.Len()).
		Int("positions", len(summary.Positions)).
		Str("total_pnl", summary.TotalPnL.String()).
		Msg("calculated portfolio")

	return summary, nil
}

// Snapshot computes a summary and persists it.
func (s *Service) Snapshot(ctx context.Context, accountID string, q Query) (*domain.Snapshot, error) {
	summary, err := s.Summary(ctx, accountID, q)
	if err != nil {
		return nil, err
	}

	snap := &domain.Snapshot{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Since:     q.Since,
		Summary:   summary,
	}
	if err := s.store.InsertSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	s.logger.Info().
		Str("account_id", accountID).
		Str("snapshot_id", snap.ID).
		Msg("saved portfolio snapshot")
	return snap, nil
}

// Snapshots lists persisted snapshots, newest first.
func (s *Service) Snapshots(ctx context.Context, accountID string, limit int) ([]domain.Snapshot, error) {
	return s.store.ListSnapshots(ctx, accountID, limit)
}

// lookupPrices never fails: symbols without a price are valued at zero.
func (s *Service) lookupPrices(ctx context.Context, logger zerolog.Logger, symbols []string) pnl.PriceMap {
	if s.prices == nil || len(symbols) == 0 {
		return pnl.PriceMap{}
	}

	got, err := s.prices.Prices(ctx, symbols)
	if err != nil {
		logger.Warn().Err(err).Msg("price lookup degraded, missing prices count as zero")
	}
	if len(got) < len(symbols) {
		for _, symbol := range symbols {
			if _, ok := got[symbol]; !ok {
				logger.Warn().Str("symbol", symbol).Msg("no current price")
			}
		}
	}
	return pnl.PriceMap(got)
}

// tradedSymbols lists the symbols with buys or sells, in first-trade order.
func tradedSymbols(trades pnl.Chronological) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, tx := range trades.Trades() {
		if tx.Kind.IsTrade() && !seen[tx.Symbol] {
			seen[tx.Symbol] = true
			symbols = append(symbols, tx.Symbol)
		}
	}
	return symbols
}
