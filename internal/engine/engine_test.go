package engine

import (
	"errors"
	"testing"
	"time"

	"habitquest/internal/model"
	"habitquest/internal/notify"
)

var testLoc = time.UTC

func day(n int) time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, testLoc).AddDate(0, 0, n)
}

func newUser() model.User {
	return model.User{ID: "u1", Username: "hero", Level: 1}
}

func activeTask(id string) model.Task {
	return model.Task{ID: id, OwnerID: "u1", Title: "task " + id, Status: model.TaskActive}
}

func countBadge(u model.User, id string) int {
	n := 0
	for _, b := range u.UnlockedBadgeIDs {
		if b == id {
			n++
		}
	}
	return n
}

func TestXPBoundaries(t *testing.T) {
	if got := XPRequiredForLevel(1); got != 0 {
		t.Fatalf("XPRequiredForLevel(1)=%d, want 0", got)
	}
	if got := LevelForTotalXP(0); got != 1 {
		t.Fatalf("LevelForTotalXP(0)=%d, want 1", got)
	}
	l2 := XPRequiredForLevel(2)
	if got := LevelForTotalXP(l2 - 1); got != 1 {
		t.Fatalf("LevelForTotalXP(l2-1)=%d, want 1", got)
	}
	if got := LevelForTotalXP(l2); got != 2 {
		t.Fatalf("LevelForTotalXP(l2)=%d, want 2", got)
	}
	l7 := XPRequiredForLevel(7)
	if got := LevelForTotalXP(l7); got != 7 {
		t.Fatalf("LevelForTotalXP(l7)=%d, want 7", got)
	}

	prev := 1
	for xp := 0; xp < 20_000; xp += 37 {
		l := LevelForTotalXP(xp)
		if l < prev {
			t.Fatalf("level decreased at xp=%d: %d < %d", xp, l, prev)
		}
		prev = l
	}
}

func TestLevelUpFiresOncePerCrossing(t *testing.T) {
	u := newUser()
	u.ExperiencePoints = XPRequiredForLevel(2) - TaskXP + 1

	res, err := CompleteTask(u, activeTask("a"), day(0), testLoc)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if !res.LevelUp() || res.LevelAfter != 2 {
		t.Fatalf("expected level up to 2, got %d → %d", res.LevelBefore, res.LevelAfter)
	}
	levelUps := 0
	for _, ev := range res.Events {
		if ev.Kind() == notify.KindLevelUp {
			levelUps++
		}
	}
	if levelUps != 1 {
		t.Fatalf("level_up events=%d, want 1", levelUps)
	}

	res2, err := CompleteTask(res.User, activeTask("b"), day(0), testLoc)
	if err != nil {
		t.Fatalf("CompleteTask #2: %v", err)
	}
	if res2.LevelUp() {
		t.Fatalf("did not expect a second level up")
	}
}

func TestStreakGrowsResetsAndNeverShrinksLongest(t *testing.T) {
	u := newUser()
	days := []int{0, 0, 1, 2, 3, 7, 8, 8, 9, 20, 21}
	wantCurrent := []int{1, 1, 2, 3, 4, 1, 2, 2, 3, 1, 2}

	longest := 0
	for i, d := range days {
		UpdateStreak(&u, day(d), testLoc)
		if u.CurrentStreak != wantCurrent[i] {
			t.Fatalf("step %d (day %d): current=%d, want %d", i, d, u.CurrentStreak, wantCurrent[i])
		}
		if u.LongestStreak < u.CurrentStreak {
			t.Fatalf("step %d: longest %d < current %d", i, u.LongestStreak, u.CurrentStreak)
		}
		if u.LongestStreak < longest {
			t.Fatalf("step %d: longest decreased %d → %d", i, longest, u.LongestStreak)
		}
		longest = u.LongestStreak
	}
	if u.LongestStreak != 4 {
		t.Fatalf("longest=%d, want 4", u.LongestStreak)
	}
}

func TestStreakIgnoresEarlierDay(t *testing.T) {
	u := newUser()
	UpdateStreak(&u, day(5), testLoc)
	UpdateStreak(&u, day(6), testLoc)
	UpdateStreak(&u, day(2), testLoc)
	if u.CurrentStreak != 2 {
		t.Fatalf("current=%d, want 2", u.CurrentStreak)
	}
	if u.LastCompletionDay != DayStart(day(6), testLoc).UnixMilli() {
		t.Fatalf("last completion day moved backwards")
	}
}

func TestStreakBadgeUnlocksExactlyOnce(t *testing.T) {
	u := newUser()
	// 10 completions across 7 consecutive days.
	plan := []int{0, 0, 1, 2, 3, 3, 4, 5, 6, 6}
	for i, d := range plan {
		res, err := CompleteTask(u, activeTask(string(rune('a'+i))), day(d), testLoc)
		if err != nil {
			t.Fatalf("complete #%d: %v", i, err)
		}
		u = res.User
	}
	if u.CurrentStreak != 7 {
		t.Fatalf("current streak=%d, want 7", u.CurrentStreak)
	}
	for _, id := range []string{"streak_3", "streak_7", "task_10", "first_task"} {
		if n := countBadge(u, id); n != 1 {
			t.Fatalf("badge %s count=%d, want 1", id, n)
		}
	}

	again := CheckBadges(u, day(6))
	if len(again.NewBadges) != 0 {
		t.Fatalf("re-check unlocked %d badges, want 0", len(again.NewBadges))
	}
	if n := countBadge(again.User, "streak_7"); n != 1 {
		t.Fatalf("streak_7 count after re-check=%d, want 1", n)
	}
}

func TestBrokenStreakKeepsStreakBadgeEligible(t *testing.T) {
	u := newUser()
	u.CurrentStreak = 1
	u.LongestStreak = 7
	u.LastCompletionDay = DayStart(day(0), testLoc).UnixMilli()

	res := CheckBadges(u, day(0))
	if countBadge(res.User, "streak_7") != 1 {
		t.Fatalf("expected streak_7 from longest streak")
	}
}

func TestBadgesAreNeverRevoked(t *testing.T) {
	u := newUser()
	joined := SetAlliance(u, "guild-1", day(0))
	if countBadge(joined.User, "alliance") != 1 {
		t.Fatalf("expected alliance badge after joining")
	}
	left := SetAlliance(joined.User, "", day(1))
	if countBadge(left.User, "alliance") != 1 {
		t.Fatalf("alliance badge revoked after leaving")
	}
	for _, b := range BadgesFor(left.User) {
		if b.ID == "alliance" && (!b.Unlocked || b.UnlockedAt == nil) {
			t.Fatalf("alliance badge view: unlocked=%v at=%v", b.Unlocked, b.UnlockedAt)
		}
	}
}

func TestCompletingTwiceIsRejected(t *testing.T) {
	u := newUser()
	res, err := CompleteTask(u, activeTask("a"), day(0), testLoc)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	_, err = CompleteTask(res.User, *res.Task, day(0), testLoc)
	var te TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if _, err := FailTask(res.User, *res.Task, day(0)); err == nil {
		t.Fatalf("expected error failing a completed task")
	}
}

func TestFailTaskGrantsNothing(t *testing.T) {
	u := newUser()
	res, err := FailTask(u, activeTask("a"), day(0))
	if err != nil {
		t.Fatalf("FailTask: %v", err)
	}
	if res.Task.Status != model.TaskFailed {
		t.Fatalf("status=%q, want failed", res.Task.Status)
	}
	if res.XPAwarded != 0 || res.PPAwarded != 0 || res.User.CurrentStreak != 0 {
		t.Fatalf("fail granted rewards: %+v", res)
	}
}

func TestClothingCountdown(t *testing.T) {
	u := newUser()
	coat := model.Equipment{ID: "coat", OwnerID: "u1", Type: model.ItemClothing, Quantity: 1, Bonus: 5}

	res, err := UseItem(u, coat, day(0))
	if err != nil {
		t.Fatalf("UseItem: %v", err)
	}
	coat = res.Items[0]
	if !coat.Active || coat.BattlesRemaining != 2 {
		t.Fatalf("after activation: active=%v remaining=%d", coat.Active, coat.BattlesRemaining)
	}
	if got := ActiveBonus([]model.Equipment{coat}); got != 5 {
		t.Fatalf("ActiveBonus=%d, want 5", got)
	}

	boss := NewBoss("b1", "u1")
	boss.Health = 10_000
	boss.MaxHealth = 10_000
	for i := 0; i < 2; i++ {
		br, err := ResolveBattle(u, boss, []model.Equipment{coat}, day(i))
		if err != nil {
			t.Fatalf("battle %d: %v", i, err)
		}
		boss = *br.Boss
		coat = br.Items[0]
	}
	if coat.Active || coat.BattlesRemaining != 0 {
		t.Fatalf("after 2 battles: active=%v remaining=%d", coat.Active, coat.BattlesRemaining)
	}
}

func TestPotionConsumedOnce(t *testing.T) {
	u := newUser()
	potion := model.Equipment{ID: "p", OwnerID: "u1", Type: model.ItemPotion, Quantity: 1, Bonus: 20}

	res, err := UseItem(u, potion, day(0))
	if err != nil {
		t.Fatalf("UseItem: %v", err)
	}
	if res.User.PowerPoints != 20 {
		t.Fatalf("pp=%d, want 20", res.User.PowerPoints)
	}
	if len(res.RemovedItems) != 1 || res.RemovedItems[0] != "p" {
		t.Fatalf("expected potion removal, got %+v", res.RemovedItems)
	}

	potion.Quantity = 0
	if _, err := UseItem(res.User, potion, day(0)); !errors.Is(err, ErrItemDepleted) {
		t.Fatalf("expected ErrItemDepleted, got %v", err)
	}
}

func TestOtherItemsAreNotUsable(t *testing.T) {
	_, err := UseItem(newUser(), model.Equipment{ID: "x", Type: model.ItemOther, Quantity: 1}, day(0))
	if !errors.Is(err, ErrNotUsable) {
		t.Fatalf("expected ErrNotUsable, got %v", err)
	}
}

func TestBossDefeatRewardsAndLevelsUp(t *testing.T) {
	u := newUser()
	sword := model.Equipment{ID: "s", Type: model.ItemWeapon, Quantity: 1, Bonus: 20, Active: true}
	boss := NewBoss("b1", "u1")
	boss.Health = 5

	res, err := ResolveBattle(u, boss, []model.Equipment{sword}, day(0))
	if err != nil {
		t.Fatalf("ResolveBattle: %v", err)
	}
	if res.Damage != BaseDamage+30 {
		t.Fatalf("damage=%d, want %d", res.Damage, BaseDamage+30)
	}
	if !res.BossDefeated || res.User.BossesDefeated != 1 {
		t.Fatalf("expected defeat, got %+v", res)
	}
	if res.XPAwarded != BossRewardXP || res.PPAwarded != BossRewardPP {
		t.Fatalf("rewards xp=%d pp=%d", res.XPAwarded, res.PPAwarded)
	}
	if res.Boss.Level != 2 || res.Boss.Health != res.Boss.MaxHealth || res.Boss.MaxHealth <= BossBaseHealth {
		t.Fatalf("boss after defeat: %+v", res.Boss)
	}
	if countBadge(res.User, "boss_1") != 1 {
		t.Fatalf("expected boss_1 badge")
	}
}
