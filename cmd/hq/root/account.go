package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"habitquest/internal/ui"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account management",
	}

	var yes bool
	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete the account and all its data, here and remotely",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			if !yes {
				return errors.New("this removes every task, category, item and badge; pass --yes to confirm")
			}
			if err := a.rec.DeleteAccount(ctx); err != nil {
				return settle(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render("Account deleted."))
			return nil
		}),
	}
	del.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")

	cmd.AddCommand(del)
	return cmd
}
