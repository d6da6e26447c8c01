package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"habitquest/internal/model"
)

type BossRepo struct {
	q      DBTX
	logger *slog.Logger
}

func (r *BossRepo) GetByOwner(ctx context.Context, ownerID string) (*model.Boss, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, owner_id, name, level, health, max_health, rewards, weakness
		FROM bosses WHERE owner_id = ?
	`, ownerID)

	var (
		b           model.Boss
		rewardsRaw  sql.NullString
		weaknessRaw sql.NullString
	)
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Level, &b.Health, &b.MaxHealth, &rewardsRaw, &weaknessRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("boss for user", ownerID)
		}
		return nil, fmt.Errorf("boss get: %w", err)
	}

	// Broken reward or weakness tables fall back to empty ones; the boss
	// stays fightable.
	rewards, err := DecodeIntMap[int]("rewards", rewardsRaw)
	if err != nil {
		r.logger.WarnContext(ctx, "Recovered boss rewards", slog.String("type", "db"), slog.String("boss_id", b.ID), slog.Any("error", err))
	}
	b.Rewards = rewards
	weakness, err := DecodeFloatMap("weakness", weaknessRaw)
	if err != nil {
		r.logger.WarnContext(ctx, "Recovered boss weakness", slog.String("type", "db"), slog.String("boss_id", b.ID), slog.Any("error", err))
	}
	b.Weakness = weakness
	return &b, nil
}

func (r *BossRepo) Upsert(ctx context.Context, b *model.Boss) error {
	rewards, err := EncodeIntMap("rewards", b.Rewards)
	if err != nil {
		return err
	}
	weakness, err := EncodeFloatMap("weakness", b.Weakness)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO bosses (id, owner_id, name, level, health, max_health, rewards, weakness)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			id = excluded.id,
			name = excluded.name,
			level = excluded.level,
			health = excluded.health,
			max_health = excluded.max_health,
			rewards = excluded.rewards,
			weakness = excluded.weakness
	`, b.ID, b.OwnerID, b.Name, b.Level, b.Health, b.MaxHealth, rewards, weakness)
	if err != nil {
		return fmt.Errorf("boss upsert: %w", err)
	}
	return nil
}

func (r *BossRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM bosses WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("boss delete: %w", err)
	}
	return nil
}
