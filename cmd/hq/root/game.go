package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"habitquest/internal/ui"
)

func newBattleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "battle",
		Short: "Attack your boss with the equipped gear",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			out, err := a.rec.BattleAsync(ctx).Wait(ctx)
			if out == nil || out.Result == nil {
				return settle(cmd, err)
			}
			w := cmd.OutOrStdout()
			res := out.Result
			if res.Boss != nil {
				if res.BossDefeated {
					fmt.Fprintf(w, "%s %s\n", ui.Gold.Render(ui.IconSword+" Defeated!"), ui.Muted.Render(fmt.Sprintf("(-%d HP)", res.Damage)))
					fmt.Fprintf(w, "%s %s\n", ui.Muted.Render("Next up:"), fmt.Sprintf("%s level %d", res.Boss.Name, res.Boss.Level))
				} else {
					fmt.Fprintf(w, "%s %s %s\n", ui.H2.Render(ui.IconSword+" Hit"), res.Boss.Name, ui.Muted.Render(fmt.Sprintf("for %d damage", res.Damage)))
					fmt.Fprintf(w, "%s %d/%d\n", ui.ProgressBar(res.Boss.Health, res.Boss.MaxHealth, 30), res.Boss.Health, res.Boss.MaxHealth)
				}
			}
			for _, e := range res.Items {
				if !e.Active {
					fmt.Fprintf(w, "%s %s\n", ui.Muted.Render("Worn out:"), e.Name)
				}
			}
			printRewards(w, out)
			return settle(cmd, err)
		}),
	}
}

func newMissionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mission",
		Short: "Complete a special mission",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			out, err := a.rec.CompleteMissionAsync(ctx).Wait(ctx)
			if out == nil {
				return settle(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconBolt+" Mission complete"))
			printRewards(cmd.OutOrStdout(), out)
			return settle(cmd, err)
		}),
	}
}

func newAllianceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alliance",
		Short: "Join or leave an alliance",
	}
	join := &cobra.Command{
		Use:   "join <alliance>",
		Short: "Join an alliance",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			out, err := a.rec.SetAlliance(ctx, args[0])
			if out == nil {
				return settle(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render("Joined"), args[0])
			return settle(cmd, err)
		}),
	}
	leave := &cobra.Command{
		Use:   "leave",
		Short: "Leave the current alliance",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			out, err := a.rec.SetAlliance(ctx, "")
			if out == nil {
				return settle(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("Left the alliance. Badges are kept."))
			return settle(cmd, err)
		}),
	}
	cmd.AddCommand(join, leave)
	return cmd
}
