package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"habitquest/internal/model"
	"habitquest/internal/remote"
	"habitquest/internal/storage"
)

// userNamespace derives stable user ids from e-mail addresses so every
// device signing in with the same address shares one remote document.
var userNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://habitquest.app/users"))

func UserID(email string) string {
	return uuid.NewSHA1(userNamespace, []byte(strings.ToLower(strings.TrimSpace(email)))).String()
}

// Login starts a session. The user record is created on first sign-in and
// refreshed from the remote copy when one exists.
func (r *Reconciler) Login(ctx context.Context, username, email string) (*model.User, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("username and e-mail are required: %w", ErrInvalidInput)
	}
	uid := UserID(email)
	now := r.now().UnixMilli()

	var (
		ru        *model.User
		remoteErr error
	)
	if r.remote != nil {
		ru, remoteErr = r.remote.GetUser(ctx, uid)
		if errors.Is(remoteErr, remote.ErrNotFound) {
			remoteErr = nil
		}
	}

	var user model.User
	r.userMu.Lock()
	err := r.local.Write(ctx, "login", func(repos *storage.Repos) error {
		u, err := repos.Users.Get(ctx, uid)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			u = &model.User{ID: uid, Level: 1, CreatedAt: now, UnlockedBadgeIDs: []string{}}
		case err != nil:
			return err
		}
		u.Username, u.Email = username, email
		if ru != nil {
			merged := remote.MergeUsers(*u, *ru)
			u = &merged
			u.Username, u.Email = username, email
		}
		u.UpdatedAt = now
		if err := repos.Users.Upsert(ctx, u); err != nil {
			return err
		}
		user = *u
		return repos.Sessions.Start(ctx, uid, now)
	})
	r.userMu.Unlock()
	if err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "Signed in", slog.String("type", "sys"), slog.String("user_id", uid))

	if remoteErr != nil {
		return &user, &PendingError{Op: "login", Err: remoteErr}
	}
	if r.remote != nil && ru == nil {
		err := r.seedRemote(ctx, uid)
		if err == nil {
			err = r.flushOutbox(ctx, uid)
		}
		if err != nil {
			return &user, &PendingError{Op: "login", Err: err}
		}
	}
	return &user, nil
}

// Logout ends the session. Local data stays on the device.
func (r *Reconciler) Logout(ctx context.Context) error {
	return r.local.Write(ctx, "logout", func(repos *storage.Repos) error {
		return repos.Sessions.End(ctx)
	})
}

// SyncReport counts the records a pull or push touched.
type SyncReport struct {
	Tasks      int
	Categories int
	Items      int
	Granted    []string
}

// Push replays pending counters and deletions, then re-sends the local user
// and collections. Badges unlocked while offline are granted here and
// notified once.
func (r *Reconciler) Push(ctx context.Context) (*SyncReport, error) {
	uid, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	if r.remote == nil {
		return &SyncReport{}, nil
	}
	read := r.local.Read()
	u, err := read.Users.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	tasks, err := read.Tasks.ListByOwner(ctx, uid)
	if err != nil {
		return nil, err
	}
	cats, err := read.Categories.ListByOwner(ctx, uid)
	if err != nil {
		return nil, err
	}
	items, err := read.Equipment.ListByOwner(ctx, uid)
	if err != nil {
		return nil, err
	}

	// Counters still in the outbox go first; merging the local row before
	// them would count them twice.
	if err := r.flushOutbox(ctx, uid); err != nil {
		return nil, fmt.Errorf("push counters: %w", err)
	}
	if err := r.flushTombstones(ctx, uid); err != nil {
		return nil, fmt.Errorf("push deletions: %w", err)
	}

	// Grant before merging: the merge unions the badge sets and would hide
	// which ids are new.
	granted, err := r.grantBadges(ctx, uid, u.UnlockedBadgeIDs)
	if err != nil {
		return nil, fmt.Errorf("push badges: %w", err)
	}
	report := &SyncReport{Granted: granted}
	for _, id := range granted {
		r.notifyBadge(ctx, uid, id)
	}

	if err := r.remote.MergeUser(ctx, *u); err != nil {
		return report, fmt.Errorf("push user: %w", err)
	}
	for _, c := range cats {
		if err := r.remote.SaveCategory(ctx, c); err != nil {
			return report, fmt.Errorf("push category: %w", err)
		}
		report.Categories++
	}
	for _, t := range tasks {
		if err := r.remote.SaveTask(ctx, t); err != nil {
			return report, fmt.Errorf("push task: %w", err)
		}
		report.Tasks++
	}
	for _, it := range items {
		if err := r.remote.SaveItem(ctx, it); err != nil {
			return report, fmt.Errorf("push item: %w", err)
		}
		report.Items++
	}
	if b, err := read.Bosses.GetByOwner(ctx, uid); err == nil {
		if err := r.remote.SaveBoss(ctx, *b); err != nil {
			return report, fmt.Errorf("push boss: %w", err)
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return report, err
	}

	if err := r.refreshBadges(ctx, uid); err != nil {
		return report, err
	}
	r.logger.InfoContext(ctx, "Pushed",
		slog.String("type", "sync"),
		slog.Int("tasks", report.Tasks),
		slog.Int("categories", report.Categories),
		slog.Int("items", report.Items),
		slog.Int("granted", len(granted)))
	return report, nil
}

// Pull refreshes the local copy from the remote store. Counters take the
// larger value, task statuses only move forward and local items win over
// their remote copies. Records deleted on this device stay deleted.
func (r *Reconciler) Pull(ctx context.Context) (*SyncReport, error) {
	uid, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	if r.remote == nil {
		return &SyncReport{}, nil
	}
	// Local changes reach the remote copy before it is read back.
	if err := r.flushOutbox(ctx, uid); err != nil {
		return nil, fmt.Errorf("pull: %w", err)
	}
	if err := r.flushTombstones(ctx, uid); err != nil {
		return nil, fmt.Errorf("pull: %w", err)
	}
	ru, err := r.remote.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("pull user: %w", err)
	}
	cats, err := r.remote.ListCategories(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("pull categories: %w", err)
	}
	tasks, err := r.remote.ListTasks(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("pull tasks: %w", err)
	}
	items, err := r.remote.ListItems(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("pull items: %w", err)
	}
	boss, err := r.remote.GetBoss(ctx, uid)
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		return nil, fmt.Errorf("pull boss: %w", err)
	}

	report := &SyncReport{}
	r.userMu.Lock()
	defer r.userMu.Unlock()
	err = r.local.Write(ctx, "pull", func(repos *storage.Repos) error {
		u, err := repos.Users.Get(ctx, uid)
		if err != nil {
			return err
		}
		merged := remote.MergeUsers(*u, *ru)
		if err := repos.Users.Upsert(ctx, &merged); err != nil {
			return err
		}

		known := map[string]bool{}
		for i := range cats {
			if dead, err := repos.Tombstones.Has(ctx, string(remote.Categories), cats[i].ID); err != nil || dead {
				if err != nil {
					return err
				}
				continue
			}
			if err := repos.Categories.Upsert(ctx, &cats[i]); err != nil {
				return err
			}
			known[cats[i].ID] = true
			report.Categories++
		}
		for i := range tasks {
			changed, err := pullTask(ctx, repos, &tasks[i], known)
			if err != nil {
				return err
			}
			if changed {
				report.Tasks++
			}
		}
		for i := range items {
			if dead, err := repos.Tombstones.Has(ctx, string(remote.Equipment), items[i].ID); err != nil || dead {
				if err != nil {
					return err
				}
				continue
			}
			_, err := repos.Equipment.Get(ctx, items[i].ID)
			if err == nil {
				continue
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			if err := repos.Equipment.Upsert(ctx, &items[i]); err != nil {
				return err
			}
			report.Items++
		}
		if boss != nil {
			local, err := repos.Bosses.GetByOwner(ctx, uid)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			if local == nil || boss.Level > local.Level {
				return repos.Bosses.Upsert(ctx, boss)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "Pulled",
		slog.String("type", "sync"),
		slog.Int("tasks", report.Tasks),
		slog.Int("categories", report.Categories),
		slog.Int("items", report.Items))
	return report, nil
}

func pullTask(ctx context.Context, repos *storage.Repos, t *model.Task, knownCategories map[string]bool) (bool, error) {
	if dead, err := repos.Tombstones.Has(ctx, string(remote.Tasks), t.ID); err != nil || dead {
		return false, err
	}
	if t.CategoryID != nil && !knownCategories[*t.CategoryID] {
		if _, err := repos.Categories.Get(ctx, *t.CategoryID); err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return false, err
			}
			t.CategoryID = nil
		}
	}
	local, err := repos.Tasks.Get(ctx, t.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return false, err
	case local.Status != model.TaskActive || t.Status == model.TaskActive:
		return false, nil
	}
	return true, repos.Tasks.Upsert(ctx, t)
}

// Sync pushes local state and then pulls the remote copy.
func (r *Reconciler) Sync(ctx context.Context) (*SyncReport, error) {
	pushed, err := r.Push(ctx)
	if err != nil {
		return pushed, err
	}
	pulled, err := r.Pull(ctx)
	if err != nil {
		return pushed, err
	}
	pulled.Granted = pushed.Granted
	return pulled, nil
}

func (r *Reconciler) PushAsync(ctx context.Context) *Future[*SyncReport] {
	return Go(ctx, r.Push)
}

func (r *Reconciler) PullAsync(ctx context.Context) *Future[*SyncReport] {
	return Go(ctx, r.Pull)
}
