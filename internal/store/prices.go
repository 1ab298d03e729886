package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"pnlledger/internal/domain"
)

// UpsertPrices stores the latest price of each symbol. Older updates never
// overwrite newer ones.
func (r *Repository) UpsertPrices(ctx context.Context, prices []domain.Price) error {
	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(`
			INSERT INTO ledger_prices (symbol, price, source, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (symbol) DO UPDATE SET
				price = EXCLUDED.price,
				source = EXCLUDED.source,
				updated_at = EXCLUDED.updated_at
			WHERE ledger_prices.updated_at <= EXCLUDED.updated_at
		`, p.Symbol, p.Price, p.Source, p.UpdatedAt)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert prices: %w", err)
	}
	return nil
}

// ListPrices returns stored prices for symbols, or every stored price when
// symbols is empty.
func (r *Repository) ListPrices(ctx context.Context, symbols []string) ([]domain.Price, error) {
	q := newQuery()
	if len(symbols) > 0 {
		q.where("symbol = ANY(%s)", symbols)
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT symbol, price, source, updated_at FROM ledger_prices
		WHERE %s
		ORDER BY symbol
	`, q.conditions()), q.args...)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	prices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Price, error) {
		var p domain.Price
		err := row.Scan(&p.Symbol, &p.Price, &p.Source, &p.UpdatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan price: %w", err)
	}

	if prices == nil {
		prices = []domain.Price{}
	}
	return prices, nil
}

// Prices returns the stored price of each known symbol. Unknown symbols are
// absent from the result.
func (r *Repository) Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}
	list, err := r.ListPrices(ctx, symbols)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(list))
	for _, p := range list {
		out[p.Symbol] = p.Price
	}
	return out, nil
}
