package engine

import (
	"time"

	"habitquest/internal/model"
)

// Stats are the counters badge requirements are evaluated against.
type Stats struct {
	TasksCompleted  int
	BestStreak      int
	Level           int
	BossesDefeated  int
	TotalXP         int
	HasAlliance     bool
	SpecialMissions int
}

func StatsFor(u model.User) Stats {
	return Stats{
		TasksCompleted:  u.TasksCompleted,
		BestStreak:      BestStreak(u),
		Level:           LevelForTotalXP(u.ExperiencePoints),
		BossesDefeated:  u.BossesDefeated,
		TotalXP:         u.ExperiencePoints,
		HasAlliance:     u.AllianceID != "",
		SpecialMissions: u.SpecialMissionsCompleted,
	}
}

// BadgeDef is an immutable catalog entry.
type BadgeDef struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Type        model.BadgeType
	Threshold   int
}

// Met reports whether s satisfies the badge requirement.
func (d BadgeDef) Met(s Stats) bool {
	switch d.Type {
	case model.BadgeTask:
		return s.TasksCompleted >= d.Threshold
	case model.BadgeStreak:
		return s.BestStreak >= d.Threshold
	case model.BadgeLevel:
		return s.Level >= d.Threshold
	case model.BadgeBoss:
		return s.BossesDefeated >= d.Threshold
	case model.BadgeXP:
		return s.TotalXP >= d.Threshold
	case model.BadgeAlliance:
		return s.HasAlliance
	case model.BadgeMission:
		return s.SpecialMissions >= d.Threshold
	default:
		return false
	}
}

var catalog = []BadgeDef{
	// Task completion milestones
	{"first_task", "First Step", "Complete your first task", "✓", model.BadgeTask, 1},
	{"task_10", "Getting Things Done", "Complete 10 tasks", "📋", model.BadgeTask, 10},
	{"task_50", "Achiever", "Complete 50 tasks", "🏅", model.BadgeTask, 50},
	{"task_100", "Powerhouse", "Complete 100 tasks", "🏆", model.BadgeTask, 100},

	// Streaks
	{"streak_3", "On a Roll", "Keep a 3 day streak", "🔥", model.BadgeStreak, 3},
	{"streak_7", "Week Warrior", "Keep a 7 day streak", "📅", model.BadgeStreak, 7},
	{"streak_30", "Unstoppable", "Keep a 30 day streak", "🌋", model.BadgeStreak, 30},

	// Levels
	{"level_5", "Rising Hero", "Reach level 5", "🌱", model.BadgeLevel, 5},
	{"level_10", "Seasoned", "Reach level 10", "⭐", model.BadgeLevel, 10},
	{"level_20", "Legend", "Reach level 20", "💫", model.BadgeLevel, 20},

	// Bosses
	{"boss_1", "Giant Slayer", "Defeat a boss", "⚔️", model.BadgeBoss, 1},
	{"boss_10", "Boss Hunter", "Defeat 10 bosses", "🐉", model.BadgeBoss, 10},

	// Experience
	{"xp_1000", "Scholar", "Earn 1000 XP", "📚", model.BadgeXP, 1000},
	{"xp_10000", "Sage", "Earn 10000 XP", "🧙", model.BadgeXP, 10000},

	{"alliance", "Team Player", "Join an alliance", "🤝", model.BadgeAlliance, 1},

	// Special missions
	{"mission_1", "Special Agent", "Complete a special mission", "🎯", model.BadgeMission, 1},
	{"mission_10", "Elite Operative", "Complete 10 special missions", "🕶️", model.BadgeMission, 10},
}

// Catalog returns a copy of the badge templates in display order.
func Catalog() []BadgeDef {
	return append([]BadgeDef(nil), catalog...)
}

// LookupBadge returns the template for id.
func LookupBadge(id string) (BadgeDef, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return BadgeDef{}, false
}

// NewlyUnlocked returns the templates whose requirement is met and that are
// not yet in the user's unlocked set. Unlocked badges are skipped, never
// re-evaluated.
func NewlyUnlocked(u model.User) []BadgeDef {
	s := StatsFor(u)
	var out []BadgeDef
	for _, d := range catalog {
		if u.HasBadge(d.ID) {
			continue
		}
		if d.Met(s) {
			out = append(out, d)
		}
	}
	return out
}

// unlockBadges appends the newly met badges to the user's set.
func unlockBadges(res *Result, now time.Time) {
	for _, d := range NewlyUnlocked(res.User) {
		res.User.UnlockedBadgeIDs = append(res.User.UnlockedBadgeIDs, d.ID)
		if res.User.BadgeUnlockedAt == nil {
			res.User.BadgeUnlockedAt = map[string]int64{}
		}
		res.User.BadgeUnlockedAt[d.ID] = now.UnixMilli()
		res.NewBadges = append(res.NewBadges, d)
	}
}

// BadgesFor joins the catalog with the user's unlocked overlay.
func BadgesFor(u model.User) []model.Badge {
	out := make([]model.Badge, 0, len(catalog))
	for _, d := range catalog {
		b := model.Badge{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Icon:        d.Icon,
			Type:        d.Type,
			Threshold:   d.Threshold,
			Unlocked:    u.HasBadge(d.ID),
		}
		if ms, ok := u.BadgeUnlockedAt[d.ID]; ok && b.Unlocked {
			t := time.UnixMilli(ms)
			b.UnlockedAt = &t
		}
		out = append(out, b)
	}
	return out
}

// CountUnlocked returns how many catalog badges the user holds.
func CountUnlocked(u model.User) int {
	n := 0
	for _, d := range catalog {
		if u.HasBadge(d.ID) {
			n++
		}
	}
	return n
}
