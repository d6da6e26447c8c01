package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			email TEXT NOT NULL,
			experience_points INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 1,
			power_points INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_completion_day INTEGER NOT NULL DEFAULT 0,
			tasks_completed INTEGER NOT NULL DEFAULT 0,
			bosses_defeated INTEGER NOT NULL DEFAULT 0,
			special_missions_completed INTEGER NOT NULL DEFAULT 0,
			alliance_id TEXT,
			unlocked_badge_ids TEXT NOT NULL DEFAULT '[]',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			color TEXT NOT NULL,
			FOREIGN KEY(owner_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			category_id TEXT NULL,
			due_date INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			recurrence TEXT,
			created_at INTEGER NOT NULL,
			completed_at INTEGER,
			FOREIGN KEY(owner_id) REFERENCES users(id),
			FOREIGN KEY(category_id) REFERENCES categories(id)
		);`,
		`CREATE TABLE IF NOT EXISTS equipment (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 1,
			bonus INTEGER NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 0,
			battles_remaining INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY(owner_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS bosses (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			level INTEGER NOT NULL DEFAULT 1,
			health INTEGER NOT NULL,
			max_health INTEGER NOT NULL,
			rewards TEXT NOT NULL DEFAULT '{}',
			weakness TEXT NOT NULL DEFAULT '{}',
			FOREIGN KEY(owner_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS session (
			key TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			started_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS outbox (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			op TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tombstones (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			deleted_at INTEGER NOT NULL,
			PRIMARY KEY(collection, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_user_id ON outbox(user_id, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_tombstones_owner_id ON tombstones(owner_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner_status ON tasks(owner_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_category_id ON tasks(category_id);`,
		`CREATE INDEX IF NOT EXISTS idx_categories_owner_id ON categories(owner_id);`,
		`CREATE INDEX IF NOT EXISTS idx_equipment_owner_id ON equipment(owner_id);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Columns added after the first schema (ignore if already exists)
	alterStmts := []string{
		`ALTER TABLE users ADD COLUMN badge_unlocked_at TEXT NOT NULL DEFAULT '{}';`,
	}
	for _, stmt := range alterStmts {
		_, err := db.ExecContext(ctx, stmt)
		if err != nil && !strings.Contains(err.Error(), "duplicate column") {
			return fmt.Errorf("migrate alter: %w", err)
		}
	}

	return nil
}
