package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
)

const defaultWriteWorkers = 2

// Store is the on-device store. Reads go straight to the pool; writes run
// in transactions on a fixed number of write slots so callers never pile
// up on SQLite's single writer lock.
type Store struct {
	db     *sql.DB
	sem    *semaphore.Weighted
	logger *slog.Logger
}

type Options struct {
	WriteWorkers int
	Logger       *slog.Logger
}

func NewStore(db *sql.DB, opts Options) *Store {
	workers := opts.WriteWorkers
	if workers <= 0 {
		workers = defaultWriteWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		sem:    semaphore.NewWeighted(int64(workers)),
		logger: logger,
	}
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// Repos groups the entity repositories bound to one connection or transaction.
type Repos struct {
	Users      *UserRepo
	Tasks      *TaskRepo
	Categories *CategoryRepo
	Equipment  *EquipmentRepo
	Bosses     *BossRepo
	Sessions   *SessionRepo
	Outbox     *OutboxRepo
	Tombstones *TombstoneRepo
}

func newRepos(q DBTX, logger *slog.Logger) *Repos {
	return &Repos{
		Users:      &UserRepo{q: q},
		Tasks:      &TaskRepo{q: q, logger: logger},
		Categories: &CategoryRepo{q: q},
		Equipment:  &EquipmentRepo{q: q},
		Bosses:     &BossRepo{q: q, logger: logger},
		Sessions:   &SessionRepo{q: q},
		Outbox:     &OutboxRepo{q: q},
		Tombstones: &TombstoneRepo{q: q},
	}
}

// Read returns repositories outside any transaction.
func (s *Store) Read() *Repos {
	return newRepos(s.db, s.logger)
}

// Write runs fn in a transaction on one of the write slots. The operation
// name only feeds the log line.
func (s *Store) Write(ctx context.Context, op string, fn func(r *Repos) error) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire write slot: %w", err)
	}
	defer s.sem.Release(1)

	start := time.Now()
	err := WithTx(ctx, s.db, op, func(tx *sql.Tx) error {
		return fn(newRepos(tx, s.logger))
	})

	attrs := []any{
		slog.String("type", "db"),
		slog.String("op", op),
		slog.Duration("took", time.Since(start)),
	}
	if err != nil {
		s.logger.DebugContext(ctx, "Write failed", append(attrs, slog.Any("error", err))...)
		return err
	}
	s.logger.DebugContext(ctx, "Write executed", attrs...)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
