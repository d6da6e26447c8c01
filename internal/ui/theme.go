package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"habitquest/internal/model"
	"habitquest/internal/notify"
)

// habitquest theme (CLI + TUI).

const (
	IconQuest    = "🗺️"
	IconSparkle  = "✨"
	IconPlus     = "➕"
	IconDone     = "✅"
	IconFailed   = "❌"
	IconTrophy   = "🏆"
	IconBolt     = "⚡"
	IconInfo     = "ℹ️"
	IconWarn     = "⚠️"
	IconError    = "🧨"
	IconBox      = "📦"
	IconLoop     = "🔁"
	IconCalendar = "📅"
	IconSword    = "⚔️"
	IconPotion   = "🧪"
	IconShirt    = "👕"
	IconFire     = "🔥"
	IconLock     = "🔒"
	IconCloud    = "☁️"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)
	Today       = lipgloss.NewStyle().Underline(true)

	BadgeLevelUp = lipgloss.NewStyle().Bold(true).Foreground(cGold).Render("LEVEL UP")
)

// categoryColors maps the category palette onto terminal colors.
var categoryColors = map[model.Color]lipgloss.Color{
	"red":    lipgloss.Color("196"),
	"orange": lipgloss.Color("208"),
	"yellow": lipgloss.Color("226"),
	"green":  lipgloss.Color("42"),
	"blue":   lipgloss.Color("33"),
	"purple": lipgloss.Color("135"),
	"pink":   lipgloss.Color("205"),
	"gray":   lipgloss.Color("244"),
}

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

func StatusText(s model.TaskStatus) string {
	switch s {
	case model.TaskCompleted:
		return Good.Render("completed")
	case model.TaskFailed:
		return Bad.Render("failed")
	case model.TaskActive:
		return H2.Render("active")
	default:
		return Muted.Render(string(s))
	}
}

// StatusDot is the calendar indicator for one task.
func StatusDot(s model.TaskStatus) string {
	switch s {
	case model.TaskCompleted:
		return Good.Render("●")
	case model.TaskFailed:
		return Bad.Render("●")
	default:
		return H2.Render("●")
	}
}

func CategoryTag(c model.Category) string {
	color, ok := categoryColors[c.Color]
	if !ok {
		color = cMuted
	}
	return lipgloss.NewStyle().Foreground(color).Render("■ " + c.Name)
}

func ItemIcon(t model.ItemType) string {
	switch t {
	case model.ItemPotion:
		return IconPotion
	case model.ItemClothing:
		return IconShirt
	case model.ItemWeapon:
		return IconSword
	default:
		return IconBox
	}
}

func ProgressBar(value, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width <= 3 {
		width = 3
	}
	value = max(0, min(value, total))
	filled := min(width, value*width/total)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// Notification renders a payload for terminal output.
func Notification(p notify.Payload) string {
	switch p.Kind() {
	case notify.KindLevelUp:
		return BadgeLevelUp + " " + Gold.Render(p.Message())
	case notify.KindAchievementUnlocked:
		return IconTrophy + " " + Gold.Render(p.Message())
	default:
		return IconInfo + " " + p.Message()
	}
}
