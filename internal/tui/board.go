package tui

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"habitquest/internal/calendar"
)

// RunCalendar opens the interactive month board on out.
func RunCalendar(ctx context.Context, svc Service, policy calendar.Policy, out io.Writer) error {
	m := newCalendarModel(ctx, svc, policy, time.Now())
	p := tea.NewProgram(m, tea.WithOutput(out), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
