package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pnlledger/internal/domain"
)

// InsertSnapshot persists a computed portfolio summary.
func (r *Repository) InsertSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	summary, err := json.Marshal(snap.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO ledger_snapshots (id, account_id, since, summary)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, snap.ID, snap.AccountID, snap.Since, summary).Scan(&snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns the most recent snapshots of an account, newest first.
func (r *Repository) ListSnapshots(ctx context.Context, accountID string, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, account_id, since, summary, created_at
		FROM ledger_snapshots
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	snaps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Snapshot, error) {
		var s domain.Snapshot
		var summary []byte
		if err := row.Scan(&s.ID, &s.AccountID, &s.Since, &summary, &s.CreatedAt); err != nil {
			return s, err
		}
		if err := json.Unmarshal(summary, &s.Summary); err != nil {
			return s, fmt.Errorf("decode summary %s: %w", s.ID, err)
		}
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}

	if snaps == nil {
		snaps = []domain.Snapshot{}
	}
	return snaps, nil
}
