// Package engine evaluates the progression rules. Every function is pure:
// it takes the current state and returns a Result without touching a store.
package engine

import (
	"time"

	"habitquest/internal/model"
)

// CompleteTask applies an active → completed transition: task rewards,
// streak and badge evaluation happen in one step.
func CompleteTask(u model.User, t model.Task, now time.Time, loc *time.Location) (*Result, error) {
	if t.Status != model.TaskActive {
		return nil, TransitionError{TaskID: t.ID, From: t.Status, To: model.TaskCompleted}
	}
	res := newResult(u)

	done := now.UnixMilli()
	t.Status = model.TaskCompleted
	t.CompletedAt = &done
	res.Task = &t

	res.User.TasksCompleted++
	UpdateStreak(&res.User, now, loc)
	addXP(res, TaskXP)
	addPP(res, TaskPP)
	return finish(res, now), nil
}

// FailTask applies an active → failed transition. No rewards, no streak change.
func FailTask(u model.User, t model.Task, now time.Time) (*Result, error) {
	if t.Status != model.TaskActive {
		return nil, TransitionError{TaskID: t.ID, From: t.Status, To: model.TaskFailed}
	}
	res := newResult(u)
	t.Status = model.TaskFailed
	res.Task = &t
	return finish(res, now), nil
}

func CompleteSpecialMission(u model.User, now time.Time) *Result {
	res := newResult(u)
	res.User.SpecialMissionsCompleted++
	addXP(res, MissionXP)
	addPP(res, MissionPP)
	return finish(res, now)
}

// SetAlliance joins (non-empty id) or leaves an alliance. Badges already
// earned stay unlocked after leaving.
func SetAlliance(u model.User, allianceID string, now time.Time) *Result {
	res := newResult(u)
	res.User.AllianceID = allianceID
	return finish(res, now)
}

// CheckBadges re-evaluates the catalog against unchanged counters.
func CheckBadges(u model.User, now time.Time) *Result {
	return finish(newResult(u), now)
}
