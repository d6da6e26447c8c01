package engine

import (
	"math"
)

const (
	// XPRequiredCoef scales the curve: XP_req(L) = 100 * (L-1)^1.5
	XPRequiredCoef = 100.0

	TaskXP    = 20
	TaskPP    = 10
	MissionXP = 50
	MissionPP = 25
)

// XPRequiredForLevel returns the total XP threshold required to be at the given level.
// Level 1 (and anything below) requires 0 XP.
func XPRequiredForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	req := XPRequiredCoef * math.Pow(float64(level-1), 1.5)
	// Use ceil to avoid making thresholds easier due to floating point rounding.
	return int(math.Ceil(req))
}

// LevelForTotalXP returns the highest level L >= 1 such that totalXP >= XPRequiredForLevel(L).
func LevelForTotalXP(totalXP int) int {
	if totalXP <= 0 {
		return 1
	}

	// Exponential search upper bound, then binary search.
	low := 1
	high := 2
	for XPRequiredForLevel(high) <= totalXP {
		low = high
		high *= 2
		if high > 1_000_000 {
			break
		}
	}

	for low+1 < high {
		mid := low + (high-low)/2
		if XPRequiredForLevel(mid) <= totalXP {
			low = mid
		} else {
			high = mid
		}
	}
	return low
}

// XPToNextLevel returns how much XP is still missing for level+1.
func XPToNextLevel(totalXP int) int {
	next := XPRequiredForLevel(LevelForTotalXP(totalXP) + 1)
	if d := next - totalXP; d > 0 {
		return d
	}
	return 0
}

// addXP applies an XP gain and reports the level crossing in the same step,
// so a level-up is observed exactly once.
func addXP(res *Result, xp int) {
	if xp <= 0 {
		return
	}
	res.User.ExperiencePoints += xp
	res.XPAwarded += xp
	res.User.Level = LevelForTotalXP(res.User.ExperiencePoints)
}

func addPP(res *Result, pp int) {
	if pp <= 0 {
		return
	}
	res.User.PowerPoints += pp
	res.PPAwarded += pp
}
