package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"habitquest/internal/remote"
	"habitquest/internal/storage"
)

// DeleteAccount removes the signed-in user everywhere. Remote tasks and
// categories go first, then equipment and the boss, then the user document.
// Local rows are only removed once the remote side is gone; a remote
// failure leaves both copies in place.
func (r *Reconciler) DeleteAccount(ctx context.Context) error {
	uid, err := r.session(ctx)
	if err != nil {
		return err
	}

	if r.remote != nil {
		stages := [][]remote.Collection{
			{remote.Tasks, remote.Categories},
			{remote.Equipment, remote.Bosses},
		}
		for _, stage := range stages {
			g, gctx := errgroup.WithContext(ctx)
			for _, coll := range stage {
				g.Go(func() error {
					return r.remote.DeleteOwned(gctx, coll, uid)
				})
			}
			if err := g.Wait(); err != nil {
				return fmt.Errorf("delete remote records: %w", err)
			}
		}
		if err := r.remote.DeleteUser(ctx, uid); err != nil {
			return fmt.Errorf("delete remote user: %w", err)
		}
	}

	r.userMu.Lock()
	defer r.userMu.Unlock()
	err = r.local.Write(ctx, "delete account", func(repos *storage.Repos) error {
		if err := repos.Tasks.DeleteByOwner(ctx, uid); err != nil {
			return err
		}
		if err := repos.Categories.DeleteByOwner(ctx, uid); err != nil {
			return err
		}
		if err := repos.Equipment.DeleteByOwner(ctx, uid); err != nil {
			return err
		}
		if err := repos.Bosses.DeleteByOwner(ctx, uid); err != nil {
			return err
		}
		if err := repos.Outbox.DeleteByUser(ctx, uid); err != nil {
			return err
		}
		if err := repos.Tombstones.DeleteByOwner(ctx, uid); err != nil {
			return err
		}
		if err := repos.Users.Delete(ctx, uid); err != nil {
			return err
		}
		return repos.Sessions.End(ctx)
	})
	if err != nil {
		return err
	}
	r.memo.Purge()
	r.logger.InfoContext(ctx, "Account deleted", slog.String("type", "sys"), slog.String("user_id", uid))
	return nil
}
