package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"habitquest/internal/model"
)

type EquipmentRepo struct {
	q DBTX
}

const equipmentColumns = `id, owner_id, name, type, quantity, bonus, active, battles_remaining`

func (r *EquipmentRepo) Upsert(ctx context.Context, e *model.Equipment) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO equipment (`+equipmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			quantity = excluded.quantity,
			bonus = excluded.bonus,
			active = excluded.active,
			battles_remaining = excluded.battles_remaining
	`, e.ID, e.OwnerID, e.Name, string(e.Type), e.Quantity, e.Bonus, boolToInt(e.Active), e.BattlesRemaining)
	if err != nil {
		return fmt.Errorf("equipment upsert: %w", err)
	}
	return nil
}

func (r *EquipmentRepo) Get(ctx context.Context, id string) (*model.Equipment, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE id = ?`, id)
	e, err := scanEquipment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("item", id)
	}
	return e, err
}

func (r *EquipmentRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Equipment, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE owner_id = ? ORDER BY type ASC, name ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("equipment list: %w", err)
	}
	defer rows.Close()

	var out []model.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("equipment rows: %w", err)
	}
	return out, nil
}

func (r *EquipmentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("equipment delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("item", id)
	}
	return nil
}

func (r *EquipmentRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM equipment WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("equipment delete by owner: %w", err)
	}
	return nil
}

func scanEquipment(row scanner) (*model.Equipment, error) {
	var (
		e      model.Equipment
		typ    string
		active int
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Name, &typ, &e.Quantity, &e.Bonus, &active, &e.BattlesRemaining); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("equipment scan: %w", err)
	}
	e.Type = model.ItemType(typ)
	e.Active = active != 0
	return &e, nil
}
