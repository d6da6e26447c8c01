package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"habitquest/internal/engine"
	"habitquest/internal/remote"
	"habitquest/internal/storage"
)

// enqueue records d in the outbox of uid. It runs inside the event's local
// transaction so a committed event always has its delta waiting for the
// remote store.
func (r *Reconciler) enqueue(ctx context.Context, repos *storage.Repos, uid, op string, d remote.Delta) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode delta: %w", err)
	}
	return repos.Outbox.Add(ctx, &storage.OutboxEntry{
		EventID:   d.EventID,
		UserID:    uid,
		Op:        op,
		Payload:   string(payload),
		CreatedAt: r.now().UnixMilli(),
	})
}

// flushOutbox replays the pending deltas of uid in commit order and drops
// each one once the remote store has it. Replays reuse the stored event id,
// so a delta the remote already applied is not counted twice.
func (r *Reconciler) flushOutbox(ctx context.Context, uid string) error {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	pending, err := r.local.Read().Outbox.ListByUser(ctx, uid)
	if err != nil {
		return err
	}
	for _, e := range pending {
		var d remote.Delta
		if err := json.Unmarshal([]byte(e.Payload), &d); err != nil {
			return fmt.Errorf("decode delta %s: %w", e.EventID, err)
		}
		applied, err := r.remote.ApplyDelta(ctx, uid, d)
		if errors.Is(err, remote.ErrNotFound) {
			if err = r.seedRemote(ctx, uid); err == nil {
				applied, err = r.remote.ApplyDelta(ctx, uid, d)
			}
		}
		if err != nil {
			return fmt.Errorf("apply counters: %w", err)
		}
		if !applied {
			r.logger.DebugContext(ctx, "Remote delta was a replay", slog.String("type", "sync"), slog.String("event_id", e.EventID))
		}
		if err := r.local.Write(ctx, "outbox ack", func(repos *storage.Repos) error {
			return repos.Outbox.Delete(ctx, e.EventID)
		}); err != nil {
			return err
		}
	}
	return nil
}

// seedRemote creates the remote user document from the local row minus the
// counters still waiting in the outbox, which the replay adds on top.
func (r *Reconciler) seedRemote(ctx context.Context, uid string) error {
	// Events add outbox entries in the same transaction as the user row, under userMu.
	r.userMu.Lock()
	read := r.local.Read()
	u, err := read.Users.Get(ctx, uid)
	var pending []storage.OutboxEntry
	if err == nil {
		pending, err = read.Outbox.ListByUser(ctx, uid)
	}
	r.userMu.Unlock()
	if err != nil {
		return err
	}

	base := withoutBadges(*u)
	for _, e := range pending {
		var d remote.Delta
		if err := json.Unmarshal([]byte(e.Payload), &d); err != nil {
			return fmt.Errorf("decode delta %s: %w", e.EventID, err)
		}
		base.ExperiencePoints -= d.XP
		base.PowerPoints -= d.PP
		base.TasksCompleted -= d.TasksCompleted
		base.BossesDefeated -= d.BossesDefeated
		base.SpecialMissionsCompleted -= d.SpecialMissions
	}
	base.Level = engine.LevelForTotalXP(base.ExperiencePoints)
	return r.remote.MergeUser(ctx, base)
}

// bury records a local deletion so a pull does not bring the record back
// before the remote copy is gone.
func bury(ctx context.Context, repos *storage.Repos, coll remote.Collection, id, ownerID string, at int64) error {
	return repos.Tombstones.Add(ctx, storage.Tombstone{
		Collection: string(coll),
		ID:         id,
		OwnerID:    ownerID,
		DeletedAt:  at,
	})
}

// flushTombstones deletes the remote copies of records removed on this
// device and forgets each tombstone once the remote side confirms.
func (r *Reconciler) flushTombstones(ctx context.Context, uid string) error {
	dead, err := r.local.Read().Tombstones.ListByOwner(ctx, uid)
	if err != nil {
		return err
	}
	for _, ts := range dead {
		if err := r.remote.Delete(ctx, remote.Collection(ts.Collection), ts.ID); err != nil {
			return fmt.Errorf("delete %s %s: %w", ts.Collection, ts.ID, err)
		}
		if err := r.local.Write(ctx, "tombstone ack", func(repos *storage.Repos) error {
			return repos.Tombstones.Delete(ctx, ts.Collection, ts.ID)
		}); err != nil {
			return err
		}
	}
	return nil
}
