package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"habitquest/internal/engine"
	"habitquest/internal/model"
	"habitquest/internal/storage"
	"habitquest/internal/ui"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show player stats",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			u, err := a.rec.CurrentUser(ctx)
			if err != nil {
				return settle(cmd, err)
			}
			out := cmd.OutOrStdout()

			lvl := engine.LevelForTotalXP(u.ExperiencePoints)
			floor := engine.XPRequiredForLevel(lvl)
			next := engine.XPRequiredForLevel(lvl + 1)

			fmt.Fprintln(out, ui.Heading(ui.IconSparkle, u.Username))
			fmt.Fprintln(out, ui.LabelValue("Level", lvl))
			fmt.Fprintln(out, ui.LabelValue("XP", fmt.Sprintf("%d %s %s", u.ExperiencePoints,
				ui.ProgressBar(u.ExperiencePoints-floor, next-floor, 20),
				ui.Muted.Render(fmt.Sprintf("(%d to level %d)", engine.XPToNextLevel(u.ExperiencePoints), lvl+1)))))
			fmt.Fprintln(out, ui.LabelValue("Power points", u.PowerPoints))
			fmt.Fprintln(out, ui.LabelValue("Streak", fmt.Sprintf("%s %d %s", ui.IconFire, u.CurrentStreak, ui.Muted.Render(fmt.Sprintf("(longest %d)", u.LongestStreak)))))
			fmt.Fprintln(out, ui.LabelValue("Tasks completed", u.TasksCompleted))
			fmt.Fprintln(out, ui.LabelValue("Bosses defeated", u.BossesDefeated))
			fmt.Fprintln(out, ui.LabelValue("Special missions", u.SpecialMissionsCompleted))
			if u.AllianceID != "" {
				fmt.Fprintln(out, ui.LabelValue("Alliance", u.AllianceID))
			}
			fmt.Fprintln(out, ui.LabelValue("Badges", fmt.Sprintf("%d/%d", engine.CountUnlocked(*u), len(engine.Catalog()))))

			boss, err := a.rec.Boss(ctx)
			switch {
			case errors.Is(err, storage.ErrNotFound):
			case err != nil:
				return err
			default:
				fmt.Fprintln(out, "")
				fmt.Fprintln(out, ui.H2.Render(ui.IconSword+" "+boss.Name))
				fmt.Fprintf(out, "%s %s\n", ui.LabelValue("Level", boss.Level), ui.Muted.Render(fmt.Sprintf("HP %d/%d", boss.Health, boss.MaxHealth)))
				fmt.Fprintln(out, ui.ProgressBar(boss.Health, boss.MaxHealth, 30))
			}

			mode := ui.Muted.Render("local-only")
			if a.rec.Online() {
				mode = ui.Good.Render(ui.IconCloud + " online")
			}
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, ui.LabelValue("Mode", mode))
			return nil
		}),
	}
}

func newBadgesCmd() *cobra.Command {
	var all, check bool
	cmd := &cobra.Command{
		Use:   "badges",
		Short: "List badges",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			if check {
				_, err := a.rec.CheckBadges(ctx)
				if err := settle(cmd, err); err != nil {
					return err
				}
			}
			u, err := a.rec.CurrentUser(ctx)
			if err != nil {
				return settle(cmd, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconTrophy, "Badges"))
			for _, b := range engine.BadgesFor(*u) {
				if !b.Unlocked && !all {
					continue
				}
				fmt.Fprintln(out, badgeLine(a, b))
			}
			if engine.CountUnlocked(*u) == 0 && !all {
				fmt.Fprintln(out, ui.Muted.Render("(none yet, use --all to see what is available)"))
			}
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include locked badges")
	cmd.Flags().BoolVar(&check, "check", false, "Re-evaluate badge requirements first")
	return cmd
}

func badgeLine(a *app, b model.Badge) string {
	if !b.Unlocked {
		return fmt.Sprintf("- %s %s %s", ui.IconLock, ui.Muted.Render(b.Name), ui.Muted.Render("· "+b.Description))
	}
	when := ""
	if b.UnlockedAt != nil {
		when = ui.Muted.Render(" (" + b.UnlockedAt.In(a.rec.Location()).Format("2006-01-02") + ")")
	}
	return fmt.Sprintf("- %s %s %s%s", b.Icon, ui.Gold.Render(b.Name), ui.Muted.Render("· "+b.Description), when)
}
