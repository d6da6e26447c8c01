package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"habitquest/internal/ui"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <email>",
		Short: "Sign in (creates the player on first use)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("username and email are required")
			}
			return nil
		},
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			u, err := a.rec.Login(ctx, args[0], args[1])
			if u == nil {
				return settle(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Good.Render(ui.IconSparkle+" Signed in as"), u.Username, ui.Muted.Render("(level "+fmt.Sprint(u.Level)+")"))
			return settle(cmd, err)
		}),
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session (local data stays on this device)",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			if err := a.rec.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("Signed out."))
			return nil
		}),
	}
}
