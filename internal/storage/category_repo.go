package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"habitquest/internal/model"
)

type CategoryRepo struct {
	q DBTX
}

func (r *CategoryRepo) Upsert(ctx context.Context, c *model.Category) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO categories (id, owner_id, name, color) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, color = excluded.color
	`, c.ID, c.OwnerID, c.Name, string(c.Color))
	if err != nil {
		return fmt.Errorf("category upsert: %w", err)
	}
	return nil
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (*model.Category, error) {
	row := r.q.QueryRowContext(ctx, `SELECT id, owner_id, name, color FROM categories WHERE id = ?`, id)
	var c model.Category
	var color string
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &color); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("category", id)
		}
		return nil, fmt.Errorf("category get: %w", err)
	}
	c.Color = model.Color(color)
	return &c, nil
}

func (r *CategoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Category, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, owner_id, name, color FROM categories WHERE owner_id = ? ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("category list: %w", err)
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		var color string
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &color); err != nil {
			return nil, fmt.Errorf("category scan: %w", err)
		}
		c.Color = model.Color(color)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category rows: %w", err)
	}
	return out, nil
}

// InUse reports whether any task references the category.
func (r *CategoryRepo) InUse(ctx context.Context, id string) (bool, error) {
	row := r.q.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE category_id = ? LIMIT 1`, id)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("category in use: %w", err)
	}
	return true, nil
}

// Delete removes a category no task refers to.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	used, err := r.InUse(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("category %s is referenced by tasks: %w", id, ErrConstraintViolation)
	}
	res, err := r.q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("category delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("category", id)
	}
	return nil
}

func (r *CategoryRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM categories WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("category delete by owner: %w", err)
	}
	return nil
}
