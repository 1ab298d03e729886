package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"pnlledger/internal/domain"
)

// ErrInvalidCursor is returned by ListTrades for a cursor it did not issue.
var ErrInvalidCursor = errors.New("invalid cursor")

const tradeColumns = `trade_id, account_id, symbol, kind, price, amount, cost,
	fee, fee_currency, exchange, order_id, timestamp_ms`

// InsertTrade inserts a trade with ON CONFLICT DO NOTHING. Returns true if inserted.
func (r *Repository) InsertTrade(ctx context.Context, trade *domain.Trade) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO ledger_trades (`+tradeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (trade_id) DO NOTHING
	`, tradeArgs(trade)...)
	if err != nil {
		return false, fmt.Errorf("insert trade: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ImportTrades inserts a batch of trades atomically, creating missing accounts.
// The result reports, per trade, whether it was new (false means duplicate).
func (r *Repository) ImportTrades(ctx context.Context, trades []domain.Trade) ([]bool, error) {
	inserted := make([]bool, len(trades))
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		seen := make(map[string]bool)
		for i, trade := range trades {
			if !seen[trade.AccountID] {
				seen[trade.AccountID] = true
				if _, err := tx.Exec(ctx, `
					INSERT INTO ledger_accounts (id, name, type) VALUES ($1, $1, $2)
					ON CONFLICT (id) DO NOTHING
				`, trade.AccountID, string(domain.InferAccountType(trade.AccountID))); err != nil {
					return fmt.Errorf("create account %s: %w", trade.AccountID, err)
				}
			}

			tag, err := tx.Exec(ctx, `
				INSERT INTO ledger_trades (`+tradeColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				ON CONFLICT (trade_id) DO NOTHING
			`, tradeArgs(&trade)...)
			if err != nil {
				return fmt.Errorf("insert trade %s: %w", trade.ID, err)
			}
			inserted[i] = tag.RowsAffected() > 0
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func tradeArgs(trade *domain.Trade) []interface{} {
	return []interface{}{
		trade.ID, trade.AccountID, trade.Symbol, string(trade.Kind),
		trade.Price, trade.Amount, trade.Cost,
		trade.Fee.Cost, trade.Fee.Currency, trade.Exchange, trade.OrderID,
		trade.Timestamp,
	}
}

// TradeFilter defines filters for listing trades.
type TradeFilter struct {
	Symbol string
	Kind   string
	Start  *time.Time
	End    *time.Time
	Cursor string
	Limit  int
}

// TradeListResult contains paginated trade results.
type TradeListResult struct {
	Trades     []domain.Trade `json:"trades"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// ListTrades returns trades for an account, newest first, with filters and
// cursor-based pagination.
func (r *Repository) ListTrades(ctx context.Context, accountID string, filter TradeFilter) (*TradeListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}

	q := newQuery()
	q.where("account_id = %s", accountID)
	if filter.Symbol != "" {
		q.where("symbol = %s", filter.Symbol)
	}
	if filter.Kind != "" {
		q.where("kind = %s", filter.Kind)
	}
	if filter.Start != nil {
		q.where("timestamp_ms >= %s", filter.Start.UnixMilli())
	}
	if filter.End != nil {
		q.where("timestamp_ms <= %s", filter.End.UnixMilli())
	}

	// Cursor-based pagination: cursor is base64-encoded "timestamp_ms|trade_id"
	if filter.Cursor != "" {
		cursorTS, cursorID, err := decodeCursor(filter.Cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
		q.where("(timestamp_ms, trade_id) < (%s, %s)", cursorTS, cursorID)
	}

	sql := fmt.Sprintf(`
		SELECT %s FROM ledger_trades
		WHERE %s
		ORDER BY timestamp_ms DESC, trade_id DESC
		LIMIT %s
	`, tradeColumns, q.conditions(), q.arg(filter.Limit+1)) // one extra to detect a next page

	rows, err := r.pool.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	trades, err := pgx.CollectRows(rows, scanTrade)
	if err != nil {
		return nil, fmt.Errorf("scan trade: %w", err)
	}

	result := &TradeListResult{}
	if len(trades) > filter.Limit {
		trades = trades[:filter.Limit]
		last := trades[len(trades)-1]
		result.NextCursor = encodeCursor(last.Timestamp, last.ID)
	}
	result.Trades = trades
	if result.Trades == nil {
		result.Trades = []domain.Trade{}
	}

	return result, nil
}

// TradesForReplay returns every trade of an account in replay order:
// timestamp, then arrival.
func (r *Repository) TradesForReplay(ctx context.Context, accountID string) ([]domain.Trade, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+tradeColumns+` FROM ledger_trades
		WHERE account_id = $1
		ORDER BY timestamp_ms ASC, seq ASC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	trades, err := pgx.CollectRows(rows, scanTrade)
	if err != nil {
		return nil, fmt.Errorf("scan trade: %w", err)
	}
	return trades, nil
}

func scanTrade(row pgx.CollectableRow) (domain.Trade, error) {
	var t domain.Trade
	var kind string
	err := row.Scan(
		&t.ID, &t.AccountID, &t.Symbol, &kind, &t.Price, &t.Amount, &t.Cost,
		&t.Fee.Cost, &t.Fee.Currency, &t.Exchange, &t.OrderID, &t.Timestamp,
	)
	t.Kind = domain.Kind(kind)
	return t, err
}

// query accumulates numbered WHERE conditions and their arguments.
type query struct {
	conds []string
	args  []interface{}
}

func newQuery() *query {
	return &query{}
}

// where adds a condition; each %s in format is replaced by the placeholder of
// the matching argument.
func (q *query) where(format string, args ...interface{}) {
	placeholders := make([]interface{}, len(args))
	for i, a := range args {
		placeholders[i] = q.arg(a)
	}
	q.conds = append(q.conds, fmt.Sprintf(format, placeholders...))
}

func (q *query) arg(v interface{}) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

func (q *query) conditions() string {
	if len(q.conds) == 0 {
		return "TRUE"
	}
	return strings.Join(q.conds, " AND ")
}

func encodeCursor(tsMillis int64, id string) string {
	raw := fmt.Sprintf("%d|%s", tsMillis, id)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (int64, string, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, "", fmt.Errorf("decode base64: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("invalid cursor format")
	}
	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse timestamp: %w", err)
	}
	return ts, parts[1], nil
}
