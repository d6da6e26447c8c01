package engine

import (
	"time"

	"habitquest/internal/model"
	"habitquest/internal/notify"
)

// Result is the outcome of one engine evaluation. It carries the next user
// state, the collection records that changed and the payloads to deliver.
// The engine never persists it.
type Result struct {
	User        model.User
	LevelBefore int
	LevelAfter  int
	XPAwarded   int
	PPAwarded   int
	NewBadges   []BadgeDef

	Task         *model.Task
	Items        []model.Equipment
	RemovedItems []string
	Boss         *model.Boss
	BossDefeated bool
	Damage       int

	Events []notify.Payload
}

func (r *Result) LevelUp() bool {
	return r.LevelAfter > r.LevelBefore
}

// CountersChanged reports whether the user aggregate differs from before.
func (r *Result) CountersChanged(before model.User) bool {
	u := r.User
	return u.ExperiencePoints != before.ExperiencePoints ||
		u.PowerPoints != before.PowerPoints ||
		u.CurrentStreak != before.CurrentStreak ||
		u.LongestStreak != before.LongestStreak ||
		u.TasksCompleted != before.TasksCompleted ||
		u.BossesDefeated != before.BossesDefeated ||
		u.SpecialMissionsCompleted != before.SpecialMissionsCompleted ||
		u.AllianceID != before.AllianceID ||
		len(r.NewBadges) > 0
}

func newResult(u model.User) *Result {
	u = u.Clone()
	if u.Level < 1 {
		u.Level = LevelForTotalXP(u.ExperiencePoints)
	}
	return &Result{User: u, LevelBefore: u.Level}
}

// finish evaluates badges on the final counters and builds the payloads.
func finish(res *Result, now time.Time) *Result {
	res.User.Level = LevelForTotalXP(res.User.ExperiencePoints)
	res.LevelAfter = res.User.Level
	unlockBadges(res, now)
	res.User.UpdatedAt = now.UnixMilli()

	if res.LevelUp() {
		res.Events = append(res.Events, notify.LevelUp{To: res.User.ID, From: res.LevelBefore, Level: res.LevelAfter})
	}
	for _, b := range res.NewBadges {
		res.Events = append(res.Events, notify.AchievementUnlocked{To: res.User.ID, BadgeID: b.ID, BadgeName: b.Name, Icon: b.Icon})
	}
	return res
}
