package engine

import (
	"time"

	"habitquest/internal/model"
)

// DayStart returns local midnight of t in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days from a to b (both local midnights).
// Calendar arithmetic keeps DST days from being off by one.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// UpdateStreak records a completion at now. The streak grows on the day
// after the last completion, is kept on the same day and restarts at 1
// after a gap. LongestStreak never decreases.
func UpdateStreak(u *model.User, now time.Time, loc *time.Location) {
	today := DayStart(now, loc)

	switch {
	case u.LastCompletionDay == 0 || u.CurrentStreak == 0:
		u.CurrentStreak = 1
	default:
		last := DayStart(time.UnixMilli(u.LastCompletionDay), loc)
		switch gap := daysBetween(last, today); {
		case gap == 0:
			// Already counted today.
		case gap == 1:
			u.CurrentStreak++
		case gap < 0:
			// Clock skew or out-of-order replay: never move the day backwards.
			return
		default:
			u.CurrentStreak = 1
		}
	}

	u.LastCompletionDay = today.UnixMilli()
	if u.CurrentStreak > u.LongestStreak {
		u.LongestStreak = u.CurrentStreak
	}
}

// BestStreak is the streak value used for badge thresholds.
func BestStreak(u model.User) int {
	if u.LongestStreak > u.CurrentStreak {
		return u.LongestStreak
	}
	return u.CurrentStreak
}
