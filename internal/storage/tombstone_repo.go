package storage

import (
	"context"
	"fmt"
)

// Tombstone marks a record deleted on this device whose remote copy may
// still exist.
type Tombstone struct {
	Collection string
	ID         string
	OwnerID    string
	DeletedAt  int64
}

type TombstoneRepo struct {
	q DBTX
}

func (r *TombstoneRepo) Add(ctx context.Context, t Tombstone) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO tombstones (collection, id, owner_id, deleted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET deleted_at = excluded.deleted_at
	`, t.Collection, t.ID, t.OwnerID, t.DeletedAt)
	if err != nil {
		return fmt.Errorf("tombstone add: %w", err)
	}
	return nil
}

func (r *TombstoneRepo) Has(ctx context.Context, collection, id string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM tombstones WHERE collection = ? AND id = ?`, collection, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("tombstone has: %w", err)
	}
	return n > 0, nil
}

func (r *TombstoneRepo) ListByOwner(ctx context.Context, ownerID string) ([]Tombstone, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT collection, id, owner_id, deleted_at
		FROM tombstones WHERE owner_id = ? ORDER BY deleted_at ASC, id ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("tombstone list: %w", err)
	}
	defer rows.Close()

	var out []Tombstone
	for rows.Next() {
		var t Tombstone
		if err := rows.Scan(&t.Collection, &t.ID, &t.OwnerID, &t.DeletedAt); err != nil {
			return nil, fmt.Errorf("tombstone scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tombstone list rows: %w", err)
	}
	return out, nil
}

func (r *TombstoneRepo) Delete(ctx context.Context, collection, id string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM tombstones WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return fmt.Errorf("tombstone delete: %w", err)
	}
	return nil
}

func (r *TombstoneRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM tombstones WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("tombstone delete by owner: %w", err)
	}
	return nil
}
