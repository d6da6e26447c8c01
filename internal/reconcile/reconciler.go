// Package reconcile applies engine results to the local and remote stores.
//
// Every event runs the same sequence: authenticate, evaluate on the local
// state, commit locally in one transaction together with an outbox entry
// holding the counter delta, then replay the outbox, push the changed
// collection records and the badge grant to the remote store. A local
// failure aborts the event. A remote failure keeps the local commit and its
// outbox entry and is reported as a *PendingError.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"habitquest/internal/engine"
	"habitquest/internal/model"
	"habitquest/internal/notify"
	"habitquest/internal/remote"
	"habitquest/internal/storage"
)

const defaultMemoSize = 512

type Options struct {
	// Remote may be nil; the reconciler then runs local-only.
	Remote   remote.Store
	Location *time.Location
	Sink     notify.Sink
	Logger   *slog.Logger
	MemoSize int
	Now      func() time.Time
}

type Reconciler struct {
	local  *storage.Store
	remote remote.Store
	loc    *time.Location
	sink   notify.Sink
	logger *slog.Logger
	now    func() time.Time

	// memo holds keys of recently applied events so repeated triggers stop
	// before touching either store.
	memo *lru.Cache

	// userMu owns the read-modify-write of the user aggregate.
	userMu sync.Mutex
	// flushMu keeps outbox replays in commit order.
	flushMu sync.Mutex
}

func New(local *storage.Store, opts Options) (*Reconciler, error) {
	size := opts.MemoSize
	if size <= 0 {
		size = defaultMemoSize
	}
	memo, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("event memo: %w", err)
	}
	r := &Reconciler{
		local:  local,
		remote: opts.Remote,
		loc:    opts.Location,
		sink:   opts.Sink,
		logger: opts.Logger,
		now:    opts.Now,
		memo:   memo,
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.sink == nil {
		r.sink = notify.LogSink{Logger: r.logger}
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// Online reports whether a remote store is configured.
func (r *Reconciler) Online() bool { return r.remote != nil }

func (r *Reconciler) Location() *time.Location { return r.loc }

// Outcome is what an event produced.
type Outcome struct {
	Result *engine.Result
	// Duplicate is set when the event had already been applied; nothing
	// was written.
	Duplicate bool
	// Synced is set once the remote store confirmed the event.
	Synced bool
	// Granted lists the badges the remote store granted for this event.
	Granted []string
}

// event describes one user-aggregate mutation.
type event struct {
	op string
	// key identifies repeated triggers of the same event. Empty disables
	// the memo.
	key string
	// eval loads whatever the event needs and runs the engine.
	eval func(ctx context.Context, repos *storage.Repos, u model.User) (*engine.Result, error)
	// persist writes the collection records of res after the user row.
	persist func(ctx context.Context, repos *storage.Repos, res *engine.Result) error
}

// session returns the signed-in user id.
func (r *Reconciler) session(ctx context.Context) (string, error) {
	id, err := r.local.Read().Sessions.Current(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrAuthRequired
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// CurrentUser returns the signed-in user from the local store.
func (r *Reconciler) CurrentUser(ctx context.Context) (*model.User, error) {
	uid, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	return r.local.Read().Users.Get(ctx, uid)
}

func (r *Reconciler) apply(ctx context.Context, ev event) (*Outcome, error) {
	if ev.key != "" && r.memo.Contains(ev.key) {
		r.logger.DebugContext(ctx, "Event skipped", slog.String("type", "sync"), slog.String("key", ev.key))
		return &Outcome{Duplicate: true}, nil
	}
	uid, err := r.session(ctx)
	if err != nil {
		return nil, err
	}

	res, err := r.commitLocal(ctx, uid, ev)
	if errors.Is(err, errAlreadyApplied) {
		if ev.key != "" {
			r.memo.Add(ev.key, struct{}{})
		}
		return &Outcome{Duplicate: true}, nil
	}
	if err != nil {
		return nil, err
	}
	if ev.key != "" {
		r.memo.Add(ev.key, struct{}{})
	}

	out := &Outcome{Result: res}
	for _, p := range res.Events {
		// Level-ups are final once committed. Badge payloads wait for the
		// remote grant unless there is no remote.
		if p.Kind() == notify.KindLevelUp || r.remote == nil {
			r.sink.Notify(ctx, p)
		}
	}
	if r.remote == nil {
		out.Synced = true
		return out, nil
	}

	granted, err := r.pushEvent(ctx, res)
	out.Granted = granted
	for _, id := range granted {
		r.notifyBadge(ctx, uid, id)
	}
	if err != nil {
		r.logger.WarnContext(ctx, "Event not synced",
			slog.String("type", "sync"),
			slog.String("op", ev.op),
			slog.Any("error", err))
		return out, &PendingError{Op: ev.op, Err: err}
	}
	out.Synced = true
	return out, nil
}

// commitLocal evaluates ev against the stored user and writes the result in
// one transaction: user counters first, then the dependent records.
func (r *Reconciler) commitLocal(ctx context.Context, uid string, ev event) (*engine.Result, error) {
	r.userMu.Lock()
	defer r.userMu.Unlock()

	var res *engine.Result
	err := r.local.Write(ctx, ev.op, func(repos *storage.Repos) error {
		u, err := repos.Users.Get(ctx, uid)
		if err != nil {
			return err
		}
		before := u.Clone()
		res, err = ev.eval(ctx, repos, *u)
		if err != nil {
			return err
		}
		if err := repos.Users.Upsert(ctx, &res.User); err != nil {
			return err
		}
		if r.remote != nil && res.CountersChanged(before) {
			if err := r.enqueue(ctx, repos, uid, ev.op, deltaFor(uuid.NewString(), before, res)); err != nil {
				return err
			}
		}
		if ev.persist != nil {
			return ev.persist(ctx, repos, res)
		}
		return nil
	})
	return res, err
}

func deltaFor(eventID string, before model.User, res *engine.Result) remote.Delta {
	after := res.User
	d := remote.Delta{
		EventID:         eventID,
		XP:              after.ExperiencePoints - before.ExperiencePoints,
		PP:              after.PowerPoints - before.PowerPoints,
		TasksCompleted:  after.TasksCompleted - before.TasksCompleted,
		BossesDefeated:  after.BossesDefeated - before.BossesDefeated,
		SpecialMissions: after.SpecialMissionsCompleted - before.SpecialMissionsCompleted,
		Level:           after.Level,
		UpdatedAt:       after.UpdatedAt,
	}
	if after.CurrentStreak != before.CurrentStreak ||
		after.LongestStreak != before.LongestStreak ||
		after.LastCompletionDay != before.LastCompletionDay {
		d.Streak = &remote.StreakState{
			Current: after.CurrentStreak,
			Longest: after.LongestStreak,
			LastDay: after.LastCompletionDay,
		}
	}
	if after.AllianceID != before.AllianceID {
		id := after.AllianceID
		d.AllianceID = &id
	}
	return d
}

// pushEvent sends one committed event to the remote store. Pending
// counters go first, then the records depending on them, then the badge
// grant.
func (r *Reconciler) pushEvent(ctx context.Context, res *engine.Result) ([]string, error) {
	uid := res.User.ID
	if err := r.flushOutbox(ctx, uid); err != nil {
		return nil, err
	}
	if err := r.pushRecords(ctx, res); err != nil {
		return nil, err
	}

	// The whole local set is offered so badges unlocked while offline are
	// granted by the first event that reaches the remote store.
	granted, err := r.grantBadges(ctx, uid, res.User.UnlockedBadgeIDs)
	if err != nil {
		return nil, err
	}
	if err := r.refreshBadges(ctx, uid); err != nil {
		return granted, err
	}
	return granted, nil
}

// grantBadges offers ids to the remote set, creating the user document
// first when this device is the first to sync it.
func (r *Reconciler) grantBadges(ctx context.Context, uid string, ids []string) ([]string, error) {
	granted, err := r.remote.GrantBadges(ctx, uid, ids, r.now().UnixMilli())
	if errors.Is(err, remote.ErrNotFound) {
		if err = r.seedRemote(ctx, uid); err == nil {
			granted, err = r.remote.GrantBadges(ctx, uid, ids, r.now().UnixMilli())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("grant badges: %w", err)
	}
	return granted, nil
}

func (r *Reconciler) pushRecords(ctx context.Context, res *engine.Result) error {
	if res.Task != nil {
		if err := r.remote.SaveTask(ctx, *res.Task); err != nil {
			return fmt.Errorf("save task: %w", err)
		}
	}
	for _, it := range res.Items {
		if err := r.remote.SaveItem(ctx, it); err != nil {
			return fmt.Errorf("save item: %w", err)
		}
	}
	if len(res.RemovedItems) > 0 {
		if err := r.flushTombstones(ctx, res.User.ID); err != nil {
			return err
		}
	}
	if res.Boss != nil {
		if err := r.remote.SaveBoss(ctx, *res.Boss); err != nil {
			return fmt.Errorf("save boss: %w", err)
		}
	}
	return nil
}

// refreshBadges copies the remote unlocked set into the local row. The
// remote set is shared across devices, so its unlock times win.
func (r *Reconciler) refreshBadges(ctx context.Context, uid string) error {
	ru, err := r.remote.GetUser(ctx, uid)
	if err != nil {
		return fmt.Errorf("read badges: %w", err)
	}

	r.userMu.Lock()
	defer r.userMu.Unlock()
	return r.local.Write(ctx, "refresh badges", func(repos *storage.Repos) error {
		u, err := repos.Users.Get(ctx, uid)
		if err != nil {
			return err
		}
		u.UnlockedBadgeIDs = remote.UnionBadges(ru.UnlockedBadgeIDs, u.UnlockedBadgeIDs)
		for id, at := range ru.BadgeUnlockedAt {
			if u.BadgeUnlockedAt == nil {
				u.BadgeUnlockedAt = map[string]int64{}
			}
			u.BadgeUnlockedAt[id] = at
		}
		return repos.Users.Upsert(ctx, u)
	})
}

func (r *Reconciler) notifyBadge(ctx context.Context, uid, id string) {
	def, ok := engine.LookupBadge(id)
	if !ok {
		return
	}
	r.sink.Notify(ctx, notify.AchievementUnlocked{To: uid, BadgeID: def.ID, BadgeName: def.Name, Icon: def.Icon})
}

func withoutBadges(u model.User) model.User {
	u = u.Clone()
	u.UnlockedBadgeIDs = []string{}
	u.BadgeUnlockedAt = nil
	return u
}
