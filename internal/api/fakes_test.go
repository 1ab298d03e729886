package api

import (
	"context"
	"errors"

	"pnlledger/internal/domain"
	"pnlledger/internal/portfolio"
	"pnlledger/internal/store"
)

type fakeStore struct {
	pingErr  error
	accounts []domain.Account
	trades   map[string]bool
	prices   []domain.Price
	filter   store.TradeFilter
	listErr  error
	failAll  bool
}

func newFakeStore(accountIDs ...string) *fakeStore {
	f := &fakeStore{trades: make(map[string]bool)}
	for _, id := range accountIDs {
		f.accounts = append(f.accounts, domain.Account{ID: id, Name: id, Type: domain.InferAccountType(id)})
	}
	return f
}

var errStore = errors.New("store unavailable")

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) ListAccounts(context.Context) ([]domain.Account, error) {
	if f.failAll {
		return nil, errStore
	}
	return f.accounts, nil
}

func (f *fakeStore) AccountExists(_ context.Context, id string) (bool, error) {
	if f.failAll {
		return false, errStore
	}
	for _, a := range f.accounts {
		if a.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ImportTrades(_ context.Context, trades []domain.Trade) ([]bool, error) {
	if f.failAll {
		return nil, errStore
	}
	inserted := make([]bool, len(trades))
	for i, t := range trades {
		if !f.trades[t.ID] {
			f.trades[t.ID] = true
			inserted[i] = true
		}
	}
	return inserted, nil
}

func (f *fakeStore) ListTrades(_ context.Context, _ string, filter store.TradeFilter) (*store.TradeListResult, error) {
	f.filter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &store.TradeListResult{Trades: []domain.Trade{}}, nil
}

func (f *fakeStore) UpsertPrices(_ context.Context, prices []domain.Price) error {
	if f.failAll {
		return errStore
	}
	f.prices = append(f.prices, prices...)
	return nil
}

func (f *fakeStore) ListPrices(_ context.Context, symbols []string) ([]domain.Price, error) {
	if f.failAll {
		return nil, errStore
	}
	if len(symbols) == 0 {
		return f.prices, nil
	}
	var out []domain.Price
	for _, p := range f.prices {
		for _, s := range symbols {
			if p.Symbol == s {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

type fakePortfolio struct {
	summary domain.PortfolioSummary
	err     error
	query   portfolio.Query
	snaps   []domain.Snapshot
}

func (f *fakePortfolio) Summary(_ context.Context, _ string, q portfolio.Query) (domain.PortfolioSummary, error) {
	f.query = q
	return f.summary, f.err
}

func (f *fakePortfolio) Snapshot(_ context.Context, accountID string, q portfolio.Query) (*domain.Snapshot, error) {
	f.query = q
	if f.err != nil {
		return nil, f.err
	}
	snap := domain.Snapshot{ID: "snap-1", AccountID: accountID, Since: q.Since, Summary: f.summary}
	f.snaps = append(f.snaps, snap)
	return &snap, nil
}

func (f *fakePortfolio) Snapshots(context.Context, string, int) ([]domain.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snaps, nil
}

type fakeCache struct {
	set []domain.Price
}

func (f *fakeCache) Set(_ context.Context, prices []domain.Price) error {
	f.set = append(f.set, prices...)
	return nil
}
