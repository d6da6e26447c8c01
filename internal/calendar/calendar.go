// Package calendar projects the task collection onto a month view. Every
// call recomputes from scratch; nothing is cached between months.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"habitquest/internal/model"
)

const (
	// Cells is six Monday-first weeks.
	Cells = 42
	// MaxIndicators is the number of status dots shown per day.
	MaxIndicators = 3
)

// Policy selects which statuses fill a day's indicator slots when more
// tasks are due than there are slots.
type Policy int

const (
	// FirstEncountered keeps the first statuses in collection order.
	FirstEncountered Policy = iota
	// ByPriority keeps the highest ranked statuses: completed, failed, active.
	ByPriority
)

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return FirstEncountered, nil
	case "priority":
		return ByPriority, nil
	default:
		return FirstEncountered, fmt.Errorf("unknown indicator policy %q", s)
	}
}

func (p Policy) String() string {
	if p == ByPriority {
		return "priority"
	}
	return "first"
}

// Cell is one grid slot. Padding cells have Day 0.
type Cell struct {
	Day  int
	Date time.Time
}

func (c Cell) IsPadding() bool { return c.Day == 0 }

// Grid returns the 42 cells of month, padded before day 1 and after the
// last day.
func Grid(year int, month time.Month, loc *time.Location) []Cell {
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	lead := (int(first.Weekday()) + 6) % 7
	days := DaysIn(year, month)

	cells := make([]Cell, Cells)
	for d := 1; d <= days; d++ {
		cells[lead+d-1] = Cell{Day: d, Date: time.Date(year, month, d, 0, 0, 0, 0, loc)}
	}
	return cells
}

// DaysIn returns the number of days in month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func rank(s model.TaskStatus) int {
	switch s {
	case model.TaskCompleted:
		return 0
	case model.TaskFailed:
		return 1
	default:
		return 2
	}
}

// Indicators maps each day of month that has due tasks to at most
// MaxIndicators statuses. Days are bucketed in loc.
func Indicators(tasks []model.Task, year int, month time.Month, loc *time.Location, policy Policy) map[int][]model.TaskStatus {
	if loc == nil {
		loc = time.Local
	}
	out := map[int][]model.TaskStatus{}
	for _, t := range tasks {
		due, ok := t.Due(loc)
		if !ok || due.Year() != year || due.Month() != month {
			continue
		}
		day := due.Day()
		if policy == FirstEncountered && len(out[day]) >= MaxIndicators {
			continue
		}
		out[day] = append(out[day], t.Status)
	}
	if policy == ByPriority {
		for day, st := range out {
			sort.SliceStable(st, func(i, j int) bool { return rank(st[i]) < rank(st[j]) })
			if len(st) > MaxIndicators {
				st = st[:MaxIndicators]
			}
			out[day] = st
		}
	}
	return out
}

// DueOn returns the tasks due on the calendar day of date in loc, in
// collection order.
func DueOn(tasks []model.Task, date time.Time, loc *time.Location) []model.Task {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := date.In(loc).Date()
	var out []model.Task
	for _, t := range tasks {
		due, ok := t.Due(loc)
		if !ok {
			continue
		}
		if dy, dm, dd := due.Date(); dy == y && dm == m && dd == d {
			out = append(out, t)
		}
	}
	return out
}

// Month bundles a grid with its indicators for renderers.
type Month struct {
	Year       int
	Month      time.Month
	Cells      []Cell
	Indicators map[int][]model.TaskStatus
}

func Build(tasks []model.Task, year int, month time.Month, loc *time.Location, policy Policy) Month {
	return Month{
		Year:       year,
		Month:      month,
		Cells:      Grid(year, month, loc),
		Indicators: Indicators(tasks, year, month, loc, policy),
	}
}

// Shift moves year/month by delta months.
func Shift(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, delta, 0)
	return t.Year(), t.Month()
}

func (m Month) Title() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}
