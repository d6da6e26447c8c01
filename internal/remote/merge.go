package remote

import "habitquest/internal/model"

// MergeUsers combines two snapshots of the same user. Monotone counters take
// the larger value, the current streak follows whichever side completed
// last, the unlocked set is the union and the earliest unlock time wins.
func MergeUsers(stored, incoming model.User) model.User {
	out := stored.Clone()
	out.ID = incoming.ID
	if incoming.Username != "" {
		out.Username = incoming.Username
	}
	if incoming.Email != "" {
		out.Email = incoming.Email
	}
	out.ExperiencePoints = max(stored.ExperiencePoints, incoming.ExperiencePoints)
	out.Level = max(stored.Level, incoming.Level)
	out.PowerPoints = max(stored.PowerPoints, incoming.PowerPoints)
	out.TasksCompleted = max(stored.TasksCompleted, incoming.TasksCompleted)
	out.BossesDefeated = max(stored.BossesDefeated, incoming.BossesDefeated)
	out.SpecialMissionsCompleted = max(stored.SpecialMissionsCompleted, incoming.SpecialMissionsCompleted)
	out.LongestStreak = max(stored.LongestStreak, incoming.LongestStreak)
	if incoming.LastCompletionDay >= stored.LastCompletionDay {
		out.CurrentStreak = incoming.CurrentStreak
	}
	out.LastCompletionDay = max(stored.LastCompletionDay, incoming.LastCompletionDay)
	out.AllianceID = incoming.AllianceID
	out.UnlockedBadgeIDs = UnionBadges(stored.UnlockedBadgeIDs, incoming.UnlockedBadgeIDs)

	for id, at := range incoming.BadgeUnlockedAt {
		if out.BadgeUnlockedAt == nil {
			out.BadgeUnlockedAt = map[string]int64{}
		}
		if prev, ok := out.BadgeUnlockedAt[id]; !ok || at < prev {
			out.BadgeUnlockedAt[id] = at
		}
	}
	if out.CreatedAt == 0 || (incoming.CreatedAt != 0 && incoming.CreatedAt < out.CreatedAt) {
		out.CreatedAt = incoming.CreatedAt
	}
	out.UpdatedAt = max(stored.UpdatedAt, incoming.UpdatedAt)
	return out
}

// UnionBadges returns a followed by the ids of b not already in a.
func UnionBadges(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
