package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"habitquest/internal/model"
)

type UserRepo struct {
	q DBTX
}

const userColumns = `id, username, email, experience_points, level, power_points,
	current_streak, longest_streak, last_completion_day, tasks_completed,
	bosses_defeated, special_missions_completed, alliance_id,
	unlocked_badge_ids, badge_unlocked_at, created_at, updated_at`

func (r *UserRepo) Get(ctx context.Context, id string) (*model.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	return u, err
}

// Upsert writes the full user row.
func (r *UserRepo) Upsert(ctx context.Context, u *model.User) error {
	badges, err := EncodeStrings("unlocked_badge_ids", u.UnlockedBadgeIDs)
	if err != nil {
		return err
	}
	unlockedAt, err := EncodeIntMap("badge_unlocked_at", u.BadgeUnlockedAt)
	if err != nil {
		return err
	}
	alliance := nullString(&u.AllianceID)

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			email = excluded.email,
			experience_points = excluded.experience_points,
			level = excluded.level,
			power_points = excluded.power_points,
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_completion_day = excluded.last_completion_day,
			tasks_completed = excluded.tasks_completed,
			bosses_defeated = excluded.bosses_defeated,
			special_missions_completed = excluded.special_missions_completed,
			alliance_id = excluded.alliance_id,
			unlocked_badge_ids = excluded.unlocked_badge_ids,
			badge_unlocked_at = excluded.badge_unlocked_at,
			updated_at = excluded.updated_at
	`, u.ID, u.Username, u.Email, u.ExperiencePoints, u.Level, u.PowerPoints,
		u.CurrentStreak, u.LongestStreak, u.LastCompletionDay, u.TasksCompleted,
		u.BossesDefeated, u.SpecialMissionsCompleted, alliance,
		badges, unlockedAt, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("user upsert: %w", err)
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("user delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("user", id)
	}
	return nil
}

func scanUser(row scanner) (*model.User, error) {
	var (
		u          model.User
		alliance   sql.NullString
		badgesRaw  sql.NullString
		unlockedAt sql.NullString
	)
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.ExperiencePoints, &u.Level, &u.PowerPoints,
		&u.CurrentStreak, &u.LongestStreak, &u.LastCompletionDay, &u.TasksCompleted,
		&u.BossesDefeated, &u.SpecialMissionsCompleted, &alliance,
		&badgesRaw, &unlockedAt, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("user scan: %w", err)
	}
	u.AllianceID = alliance.String

	// The unlocked set is never defaulted: an empty fallback would be
	// written back on the next update and revoke badges.
	badges, err := DecodeStrings("unlocked_badge_ids", badgesRaw)
	if err != nil {
		return nil, err
	}
	u.UnlockedBadgeIDs = badges

	at, err := DecodeIntMap[int64]("badge_unlocked_at", unlockedAt)
	if err != nil {
		return nil, err
	}
	u.BadgeUnlockedAt = at
	return &u, nil
}
