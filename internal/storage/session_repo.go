package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const currentSessionKey = "current"

// SessionRepo tracks the signed-in user on this device.
type SessionRepo struct {
	q DBTX
}

// Current returns the active user id or ErrNotFound.
func (r *SessionRepo) Current(ctx context.Context) (string, error) {
	row := r.q.QueryRowContext(ctx, `SELECT user_id FROM session WHERE key = ?`, currentSessionKey)
	var userID string
	if err := row.Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", notFound("session", currentSessionKey)
		}
		return "", fmt.Errorf("session get: %w", err)
	}
	return userID, nil
}

func (r *SessionRepo) Start(ctx context.Context, userID string, startedAt int64) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO session (key, user_id, started_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET user_id = excluded.user_id, started_at = excluded.started_at
	`, currentSessionKey, userID, startedAt)
	if err != nil {
		return fmt.Errorf("session start: %w", err)
	}
	return nil
}

func (r *SessionRepo) End(ctx context.Context) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM session WHERE key = ?`, currentSessionKey); err != nil {
		return fmt.Errorf("session end: %w", err)
	}
	return nil
}
