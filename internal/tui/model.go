package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"habitquest/internal/calendar"
	"habitquest/internal/engine"
	"habitquest/internal/model"
	"habitquest/internal/reconcile"
	"habitquest/internal/ui"
)

// Service is what the board needs from the reconciler.
type Service interface {
	CurrentUser(ctx context.Context) (*model.User, error)
	ListTasks(ctx context.Context) ([]model.Task, error)
	CompleteTaskAsync(ctx context.Context, taskID string) *reconcile.Future[*reconcile.Outcome]
	FailTaskAsync(ctx context.Context, taskID string) *reconcile.Future[*reconcile.Outcome]
	Location() *time.Location
}

type calendarModel struct {
	ctx    context.Context
	svc    Service
	policy calendar.Policy
	today  time.Time

	width  int
	height int

	user  *model.User
	tasks []model.Task

	year  int
	month time.Month
	day   int
	view  calendar.Month
	due   []model.Task
	task  int

	lastLog string
	loading bool
	err     error
}

type loadedMsg struct {
	user  *model.User
	tasks []model.Task
	err   error
}

type transitionMsg struct {
	title string
	to    model.TaskStatus
	out   *reconcile.Outcome
	err   error
}

func newCalendarModel(ctx context.Context, svc Service, policy calendar.Policy, now time.Time) calendarModel {
	today := now.In(svc.Location())
	m := calendarModel{
		ctx:     ctx,
		svc:     svc,
		policy:  policy,
		today:   today,
		year:    today.Year(),
		month:   today.Month(),
		day:     today.Day(),
		loading: true,
		lastLog: "Loading…",
	}
	m.rebuild()
	return m
}

func (m calendarModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m calendarModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		u, err := m.svc.CurrentUser(m.ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		tasks, err := m.svc.ListTasks(m.ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{user: u, tasks: tasks}
	}
}

func (m calendarModel) transitionCmd(t model.Task, to model.TaskStatus) tea.Cmd {
	return func() tea.Msg {
		f := m.svc.CompleteTaskAsync
		if to == model.TaskFailed {
			f = m.svc.FailTaskAsync
		}
		out, err := f(m.ctx, t.ID).Wait(m.ctx)
		return transitionMsg{title: t.Title, to: to, out: out, err: err}
	}
}

// rebuild recomputes the month view and the selected day's tasks from
// the full task collection.
func (m *calendarModel) rebuild() {
	loc := m.svc.Location()
	m.view = calendar.Build(m.tasks, m.year, m.month, loc, m.policy)
	m.due = calendar.DueOn(m.tasks, time.Date(m.year, m.month, m.day, 12, 0, 0, 0, loc), loc)
	if m.task >= len(m.due) {
		m.task = len(m.due) - 1
	}
	if m.task < 0 {
		m.task = 0
	}
}

// moveDays shifts the selected day, crossing month boundaries.
func (m *calendarModel) moveDays(n int) {
	d := time.Date(m.year, m.month, m.day, 12, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	m.year, m.month, m.day = d.Year(), d.Month(), d.Day()
	m.task = 0
	m.rebuild()
}

func (m *calendarModel) moveMonths(n int) {
	m.year, m.month = calendar.Shift(m.year, m.month, n)
	m.day = min(m.day, calendar.DaysIn(m.year, m.month))
	m.task = 0
	m.rebuild()
}

func (m calendarModel) selectedTask() (model.Task, bool) {
	if m.task < 0 || m.task >= len(m.due) {
		return model.Task{}, false
	}
	return m.due[m.task], true
}

func (m calendarModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			m.lastLog = "Load failed: " + msg.err.Error()
			return m, nil
		}
		m.user = msg.user
		m.tasks = msg.tasks
		m.rebuild()
		m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
		return m, nil
	case transitionMsg:
		switch {
		case msg.err != nil && msg.out == nil:
			m.lastLog = "Update failed: " + msg.err.Error()
			return m, nil
		case msg.out.Duplicate:
			m.lastLog = fmt.Sprintf("%s was already %s.", msg.title, msg.to)
		case msg.to == model.TaskFailed:
			m.lastLog = fmt.Sprintf("Failed %s.", msg.title)
		default:
			res := msg.out.Result
			m.lastLog = fmt.Sprintf("Completed %s: +%d XP +%d PP (level %d → %d)", msg.title, res.XPAwarded, res.PPAwarded, res.LevelBefore, res.LevelAfter)
		}
		if msg.err != nil {
			m.lastLog += " " + ui.Warn.Render("Sync pending.")
		}
		return m, m.loadCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.lastLog = "Refreshing…"
			return m, m.loadCmd()
		case "left", "h":
			m.moveDays(-1)
		case "right", "l":
			m.moveDays(1)
		case "up", "k":
			m.moveDays(-7)
		case "down", "j":
			m.moveDays(7)
		case "[", "pgup":
			m.moveMonths(-1)
		case "]", "pgdown":
			m.moveMonths(1)
		case "t":
			m.year, m.month, m.day = m.today.Year(), m.today.Month(), m.today.Day()
			m.task = 0
			m.rebuild()
		case "tab":
			if len(m.due) > 0 {
				m.task = (m.task + 1) % len(m.due)
			}
		case "shift+tab":
			if len(m.due) > 0 {
				m.task = (m.task + len(m.due) - 1) % len(m.due)
			}
		case "c", " ", "f":
			t, ok := m.selectedTask()
			if !ok {
				m.lastLog = "No task due on this day."
				return m, nil
			}
			if t.Status != model.TaskActive {
				m.lastLog = fmt.Sprintf("%s is already %s.", t.Title, t.Status)
				return m, nil
			}
			to := model.TaskCompleted
			if msg.String() == "f" {
				to = model.TaskFailed
			}
			m.lastLog = fmt.Sprintf("Updating %s…", t.Title)
			return m, m.transitionCmd(t, to)
		}
	}
	return m, nil
}

func (m calendarModel) View() string {
	if m.err != nil {
		return ui.Bad.Render("Error: "+m.err.Error()) + "\n\nPress q to quit.\n"
	}

	left := ui.Month(m.view, m.day, m.today)
	right := m.renderDay()

	linesLeft := strings.Split(left, "\n")
	linesRight := strings.Split(right, "\n")
	rows := max(len(linesLeft), len(linesRight))

	var body strings.Builder
	for i := 0; i < rows; i++ {
		l, r := "", ""
		if i < len(linesLeft) {
			l = linesLeft[i]
		}
		if i < len(linesRight) {
			r = linesRight[i]
		}
		body.WriteString(padRight(l, 52))
		body.WriteString("  ")
		body.WriteString(r)
		body.WriteString("\n")
	}

	return m.renderHeader() + "\n\n" + body.String() + m.renderFooter()
}

func (m calendarModel) renderHeader() string {
	if m.user == nil {
		return ui.Heading(ui.IconCalendar, "habitquest") + " " + ui.Muted.Render("loading…")
	}
	u := m.user
	lvl := engine.LevelForTotalXP(u.ExperiencePoints)
	floor := engine.XPRequiredForLevel(lvl)
	bar := ui.ProgressBar(u.ExperiencePoints-floor, engine.XPRequiredForLevel(lvl+1)-floor, 24)
	return fmt.Sprintf("%s | %s | Level %d | XP %d %s | PP %d | %s %d",
		ui.Heading(ui.IconCalendar, "habitquest"), u.Username, lvl, u.ExperiencePoints, bar,
		u.PowerPoints, ui.IconFire, u.CurrentStreak)
}

func (m calendarModel) renderDay() string {
	date := time.Date(m.year, m.month, m.day, 0, 0, 0, 0, time.UTC)
	out := []string{ui.H2.Render(date.Format("Monday, 2 January"))}
	if m.loading {
		return strings.Join(append(out, "Loading…"), "\n")
	}
	if len(m.due) == 0 {
		return strings.Join(append(out, ui.Muted.Render("(nothing due)")), "\n")
	}
	for i, t := range m.due {
		cursor := "  "
		if i == m.task {
			cursor = "> "
		}
		out = append(out, fmt.Sprintf("%s%s %s (%s)", cursor, ui.StatusDot(t.Status), t.Title, ui.StatusText(t.Status)))
	}
	return strings.Join(out, "\n")
}

func (m calendarModel) renderFooter() string {
	keys := ui.Muted.Render("←/→ day  ↑/↓ week  [/] month  t today  tab task  c complete  f fail  r refresh  q quit")
	return "\n" + keys + "\n" + m.lastLog
}

func padRight(s string, w int) string {
	if n := lipgloss.Width(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}
