package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"habitquest/internal/reconcile"
	"habitquest/internal/ui"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile with the remote store (push then pull)",
		Args:  cobra.NoArgs,
		RunE: runSync("sync", func(ctx context.Context, r *reconcile.Reconciler) (*reconcile.SyncReport, error) {
			return r.Sync(ctx)
		}),
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "push",
			Short: "Send local progress and records to the remote store",
			Args:  cobra.NoArgs,
			RunE: runSync("push", func(ctx context.Context, r *reconcile.Reconciler) (*reconcile.SyncReport, error) {
				return r.PushAsync(ctx).Wait(ctx)
			}),
		},
		&cobra.Command{
			Use:   "pull",
			Short: "Refresh local data from the remote store",
			Args:  cobra.NoArgs,
			RunE: runSync("pull", func(ctx context.Context, r *reconcile.Reconciler) (*reconcile.SyncReport, error) {
				return r.PullAsync(ctx).Wait(ctx)
			}),
		},
	)
	return cmd
}

func runSync(op string, fn func(context.Context, *reconcile.Reconciler) (*reconcile.SyncReport, error)) func(*cobra.Command, []string) error {
	return withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		if !a.rec.Online() {
			return errors.New("no remote store configured (set remote.uri or HQ_REMOTE_URI)")
		}
		rep, err := fn(ctx, a.rec)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconCloud+" "+op+" done"),
			ui.Muted.Render(fmt.Sprintf("(%d tasks, %d categories, %d items)", rep.Tasks, rep.Categories, rep.Items)))
		return nil
	})
}
