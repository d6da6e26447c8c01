package ui

import (
	"fmt"
	"strings"
	"time"

	"habitquest/internal/calendar"
)

var weekdayHeader = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// Month renders a month grid. Each day shows its number followed by its
// status dots; selected (0 for none) is highlighted.
func Month(m calendar.Month, selected int, today time.Time) string {
	const cellWidth = 7

	var b strings.Builder
	b.WriteString(H2.Render(m.Title()))
	b.WriteString("\n")
	for _, d := range weekdayHeader {
		b.WriteString(Muted.Render(padCell(d, cellWidth)))
	}
	b.WriteString("\n")

	ty, tm, td := today.Date()
	for i, c := range m.Cells {
		cell := ""
		if !c.IsPadding() {
			num := fmt.Sprintf("%2d", c.Day)
			if ty == m.Year && tm == m.Month && td == c.Day {
				num = Today.Render(num)
			}
			if c.Day == selected {
				num = SelectedRow.Render(num)
			}
			var dots strings.Builder
			for _, s := range m.Indicators[c.Day] {
				dots.WriteString(StatusDot(s))
			}
			cell = num + dots.String() + strings.Repeat(" ", max(0, cellWidth-2-len(m.Indicators[c.Day])))
		} else {
			cell = strings.Repeat(" ", cellWidth)
		}
		b.WriteString(cell)
		if i%7 == 6 {
			b.WriteString("\n")
		}
	}
	return b.String()
}


func padCell(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
