package root

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"habitquest/internal/calendar"
	"habitquest/internal/tui"
	"habitquest/internal/ui"
)

func newCalendarCmd() *cobra.Command {
	var (
		plain  bool
		month  string
		policy string
	)

	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal", "board"},
		Short:   "Show tasks on a month calendar",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			name := a.cfg.IndicatorPolicy
			if policy != "" {
				name = policy
			}
			pol, err := calendar.ParsePolicy(name)
			if err != nil {
				return err
			}
			if !plain {
				return tui.RunCalendar(ctx, a.rec, pol, cmd.OutOrStdout())
			}

			loc := a.rec.Location()
			now := time.Now().In(loc)
			year, mon := now.Year(), now.Month()
			if month != "" {
				t, err := time.ParseInLocation("2006-01", month, loc)
				if err != nil {
					return errors.New("month must be YYYY-MM")
				}
				year, mon = t.Year(), t.Month()
			}

			tasks, err := a.rec.ListTasks(ctx)
			if err != nil {
				return settle(cmd, err)
			}
			m := calendar.Build(tasks, year, mon, loc, pol)
			fmt.Fprint(cmd.OutOrStdout(), ui.Month(m, 0, now))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print the month instead of opening the board")
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month to print with --plain (YYYY-MM)")
	cmd.Flags().StringVar(&policy, "indicators", "", "Indicator policy (first|priority)")
	return cmd
}
