package storage

import (
	"context"
	"fmt"
)

// OutboxEntry is a committed counter change not yet confirmed by the remote
// store. Payload is opaque to the store.
type OutboxEntry struct {
	Seq       int64
	EventID   string
	UserID    string
	Op        string
	Payload   string
	CreatedAt int64
}

// OutboxRepo keeps pending counter changes in commit order.
type OutboxRepo struct {
	q DBTX
}

func (r *OutboxRepo) Add(ctx context.Context, e *OutboxEntry) error {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO outbox (event_id, user_id, op, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.EventID, e.UserID, e.Op, e.Payload, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("outbox add: %w", err)
	}
	if seq, err := res.LastInsertId(); err == nil {
		e.Seq = seq
	}
	return nil
}

// ListByUser returns the pending entries of userID, oldest first.
func (r *OutboxRepo) ListByUser(ctx context.Context, userID string) ([]OutboxEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT seq, event_id, user_id, op, payload, created_at
		FROM outbox WHERE user_id = ? ORDER BY seq ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("outbox list: %w", err)
	}
	defer rows.Close()

	var out []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.Seq, &e.EventID, &e.UserID, &e.Op, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("outbox scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox list rows: %w", err)
	}
	return out, nil
}

// Delete acknowledges one entry. A missing entry is not an error.
func (r *OutboxRepo) Delete(ctx context.Context, eventID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM outbox WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("outbox delete: %w", err)
	}
	return nil
}

func (r *OutboxRepo) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM outbox WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("outbox delete by user: %w", err)
	}
	return nil
}
