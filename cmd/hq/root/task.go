package root

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"habitquest/internal/model"
	"habitquest/internal/reconcile"
	"habitquest/internal/ui"
)

var weekdayNames = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

// parseWeekdays reads a comma separated list like "mon,wed,fri" into
// Sunday-based weekday numbers.
func parseWeekdays(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		d, ok := weekdayNames[part[:min(3, len(part))]]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		out = append(out, d)
	}
	return out, nil
}

func parseDue(s string, loc *time.Location, now time.Time) (time.Time, error) {
	today := now.In(loc)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return time.Time{}, nil
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, errors.New("due must be YYYY-MM-DD, today or tomorrow")
	}
	return t, nil
}

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(newTaskAddCmd(), newTaskListCmd(), newTaskDeleteCmd())
	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var due, category, repeat string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("title is required")
			}
			return nil
		},
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			in := reconcile.TaskInput{Title: args[0]}

			var err error
			if in.Due, err = parseDue(due, a.rec.Location(), time.Now()); err != nil {
				return err
			}
			if in.Recurrence, err = parseWeekdays(repeat); err != nil {
				return err
			}
			if category != "" {
				cats, err := a.rec.ListCategories(ctx)
				if err != nil {
					return settle(cmd, err)
				}
				id, err := resolve("category", category, categoryRefs(cats))
				if err != nil {
					return err
				}
				in.CategoryID = &id
			}

			t, err := a.rec.AddTask(ctx, in)
			if t == nil {
				return settle(cmd, err)
			}
			line := fmt.Sprintf("%s %s %s", ui.Good.Render(ui.IconPlus+" Added"), t.Title, ui.Muted.Render("#"+shortID(t.ID)))
			if d, ok := t.Due(a.rec.Location()); ok {
				line += ui.Muted.Render(" due " + d.Format("2006-01-02"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return settle(cmd, err)
		}),
	}

	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date (YYYY-MM-DD, today, tomorrow)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category id or name")
	cmd.Flags().StringVarP(&repeat, "repeat", "r", "", "Weekdays to repeat on (e.g. mon,wed,fri)")
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			var (
				tasks []model.Task
				err   error
			)
			if status == "" {
				tasks, err = a.rec.ListTasks(ctx)
			} else {
				st := model.TaskStatus(strings.ToLower(status))
				if !st.IsValid() {
					return errors.New("status must be active, completed or failed")
				}
				tasks, err = a.rec.ListTasksByStatus(ctx, st)
			}
			if err != nil {
				return settle(cmd, err)
			}
			cats, err := a.rec.ListCategories(ctx)
			if err != nil {
				return err
			}
			byID := make(map[string]model.Category, len(cats))
			for _, c := range cats {
				byID[c.ID] = c
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconQuest, "Tasks"))
			if len(tasks) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(empty)"))
				return nil
			}
			for _, t := range tasks {
				line := fmt.Sprintf("- %s %s %s %s", ui.Muted.Render(shortID(t.ID)), ui.StatusDot(t.Status), t.Title, ui.StatusText(t.Status))
				if d, ok := t.Due(a.rec.Location()); ok {
					line += ui.Muted.Render(" · due " + d.Format("Mon 2006-01-02"))
				}
				if len(t.Recurrence) > 0 {
					line += ui.Muted.Render(" · " + ui.IconLoop + " " + weekdayList(t.Recurrence))
				}
				if t.CategoryID != nil {
					if c, ok := byID[*t.CategoryID]; ok {
						line += " " + ui.CategoryTag(c)
					}
				}
				fmt.Fprintln(out, line)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Only tasks with this status (active|completed|failed)")
	return cmd
}

func weekdayList(days []int) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, time.Weekday(d).String()[:3])
	}
	return strings.Join(parts, ",")
}

func newTaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <task>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			t, err := findTask(ctx, a, args[0])
			if err != nil {
				return settle(cmd, err)
			}
			if err := settle(cmd, a.rec.DeleteTask(ctx, t.ID)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Warn.Render("Deleted"), t.Title)
			return nil
		}),
	}
}

func findTask(ctx context.Context, a *app, ref string) (*model.Task, error) {
	tasks, err := a.rec.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if strings.HasPrefix(tasks[i].ID, ref) && len(ref) >= 8 {
			return &tasks[i], nil
		}
	}
	id, err := resolve("task", ref, taskRefs(tasks))
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], nil
		}
	}
	return nil, fmt.Errorf("task %q not found", ref)
}

func newDoCmd() *cobra.Command {
	return newTransitionCmd("do <task>", "Complete a task", model.TaskCompleted)
}

func newFailCmd() *cobra.Command {
	return newTransitionCmd("fail <task>", "Mark a task as failed", model.TaskFailed)
}

func newTransitionCmd(use, short string, to model.TaskStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("task id or title is required")
			}
			return nil
		},
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			t, err := findTask(ctx, a, args[0])
			if err != nil {
				return settle(cmd, err)
			}

			f := a.rec.CompleteTaskAsync
			if to == model.TaskFailed {
				f = a.rec.FailTaskAsync
			}
			out, err := f(ctx, t.ID).Wait(ctx)
			if out == nil {
				return settle(cmd, err)
			}

			w := cmd.OutOrStdout()
			if to == model.TaskCompleted {
				fmt.Fprintf(w, "%s %s\n", ui.Good.Render(ui.IconDone+" Completed"), t.Title)
			} else {
				fmt.Fprintf(w, "%s %s\n", ui.Bad.Render(ui.IconFailed+" Failed"), t.Title)
			}
			printRewards(w, out)
			return settle(cmd, err)
		}),
	}
}
