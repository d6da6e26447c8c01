package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"habitquest/internal/model"
)

type TaskRepo struct {
	q      DBTX
	logger *slog.Logger
}

const taskColumns = `id, owner_id, title, category_id, due_date, status, recurrence, created_at, completed_at`

func (r *TaskRepo) Upsert(ctx context.Context, t *model.Task) error {
	recurrence, err := EncodeInts("recurrence", t.Recurrence)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			category_id = excluded.category_id,
			due_date = excluded.due_date,
			status = excluded.status,
			recurrence = excluded.recurrence,
			completed_at = excluded.completed_at
	`, t.ID, t.OwnerID, t.Title, nullString(t.CategoryID), t.DueDate, string(t.Status),
		recurrence, t.CreatedAt, EncodeEpoch(t.CompletedAt))
	if err != nil {
		return fmt.Errorf("task upsert: %w", err)
	}
	return nil
}

func (r *TaskRepo) Get(ctx context.Context, id string) (*model.Task, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("task", id)
	}
	return t, err
}

func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE owner_id = ? ORDER BY created_at ASC, id ASC`, ownerID)
}

func (r *TaskRepo) ListByStatus(ctx context.Context, ownerID string, status model.TaskStatus) ([]model.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE owner_id = ? AND status = ? ORDER BY created_at ASC, id ASC`, ownerID, string(status))
}

// Transition moves a task from one status to another only if it is still
// in the expected status. It reports whether the row changed, which makes a
// repeated completion a no-op.
func (r *TaskRepo) Transition(ctx context.Context, id string, from, to model.TaskStatus, completedAt *int64) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE tasks SET status = ?, completed_at = ?
		WHERE id = ? AND status = ?
	`, string(to), EncodeEpoch(completedAt), id, string(from))
	if err != nil {
		return false, fmt.Errorf("task transition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("task transition rows: %w", err)
	}
	return n == 1, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("task delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("task", id)
	}
	return nil
}

func (r *TaskRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("task delete by owner: %w", err)
	}
	return nil
}

func (r *TaskRepo) list(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("task list: %w", err)
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task list rows: %w", err)
	}
	return out, nil
}

func (r *TaskRepo) scan(row scanner) (*model.Task, error) {
	var (
		t             model.Task
		category      sql.NullString
		status        string
		recurrenceRaw sql.NullString
		completedAt   sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &category, &t.DueDate, &status,
		&recurrenceRaw, &t.CreatedAt, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("task scan: %w", err)
	}
	if category.Valid {
		v := category.String
		t.CategoryID = &v
	}
	t.Status = model.TaskStatus(status)
	t.CompletedAt = DecodeEpoch(completedAt)

	recurrence, err := DecodeInts("recurrence", recurrenceRaw)
	if err != nil {
		// A bad recurrence only loses the schedule, not the task.
		r.logger.Warn("Recovered task recurrence", slog.String("type", "db"), slog.String("task_id", t.ID), slog.Any("error", err))
	}
	if len(recurrence) > 0 {
		t.Recurrence = recurrence
	}
	return &t, nil
}
