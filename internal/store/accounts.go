package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pnlledger/internal/domain"
)

// GetOrCreateAccount looks up an account by ID, creating it first if needed.
func (r *Repository) GetOrCreateAccount(ctx context.Context, id string, accountType domain.AccountType) (*domain.Account, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ledger_accounts (id, name, type) VALUES ($1, $1, $2)
		ON CONFLICT (id) DO NOTHING
	`, id, string(accountType))
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		"SELECT id, name, type, created_at FROM ledger_accounts WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	acct, err := pgx.CollectExactlyOneRow(rows, scanAccount)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acct, nil
}

// AccountExists checks if an account with the given ID exists.
func (r *Repository) AccountExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM ledger_accounts WHERE id = $1)", id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account: %w", err)
	}
	return exists, nil
}

// ListAccounts returns all accounts, oldest first.
func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, name, type, created_at FROM ledger_accounts ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	accounts, err := pgx.CollectRows(rows, scanAccount)
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}

	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

func scanAccount(row pgx.CollectableRow) (domain.Account, error) {
	var acct domain.Account
	var acctType string
	err := row.Scan(&acct.ID, &acct.Name, &acctType, &acct.CreatedAt)
	acct.Type = domain.AccountType(acctType)
	return acct, err
}
