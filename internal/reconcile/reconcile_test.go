package reconcile

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"habitquest/internal/model"
	"habitquest/internal/notify"
	"habitquest/internal/remote"
	"habitquest/internal/storage"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type harness struct {
	rec   *Reconciler
	store *storage.Store
	sink  *notify.Recorder
}

func newHarness(t *testing.T, rem remote.Store) (*harness, func()) {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	st := storage.NewStore(db, storage.Options{})
	sink := &notify.Recorder{}
	rec, err := New(st, Options{
		Remote:   rem,
		Location: time.UTC,
		Sink:     sink,
		Now:      func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new reconciler: %v", err)
	}
	return &harness{rec: rec, store: st, sink: sink}, func() { _ = st.Close() }
}

func login(t *testing.T, h *harness) *model.User {
	t.Helper()
	u, err := h.rec.Login(context.Background(), "hero", "hero@example.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return u
}

func addTask(t *testing.T, h *harness, title string) *model.Task {
	t.Helper()
	task, err := h.rec.AddTask(context.Background(), TaskInput{Title: title, Due: testNow})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	return task
}

func localUser(t *testing.T, h *harness) *model.User {
	t.Helper()
	u, err := h.rec.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	return u
}

func TestEventsRequireSession(t *testing.T) {
	h, cleanup := newHarness(t, nil)
	defer cleanup()
	ctx := context.Background()

	if _, err := h.rec.CompleteTask(ctx, "t1"); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("CompleteTask: expected ErrAuthRequired, got %v", err)
	}
	if _, err := h.rec.AddTask(ctx, TaskInput{Title: "x"}); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("AddTask: expected ErrAuthRequired, got %v", err)
	}

	login(t, h)
	if err := h.rec.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := h.rec.Battle(ctx); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("Battle after logout: expected ErrAuthRequired, got %v", err)
	}
}

func TestCompletingTwiceAppliesOnce(t *testing.T) {
	mem := remote.NewMemory()
	h, cleanup := newHarness(t, mem)
	defer cleanup()
	ctx := context.Background()

	u := login(t, h)
	task := addTask(t, h, "stretch")

	out, err := h.rec.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out.Duplicate || !out.Synced {
		t.Fatalf("first completion: %+v", out)
	}
	again, err := h.rec.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("complete again: %v", err)
	}
	if !again.Duplicate {
		t.Fatalf("second completion not reported as duplicate")
	}

	// A fresh reconciler has an empty memo; the stored status still guards.
	fresh, err := New(h.store, Options{Remote: mem, Location: time.UTC, Sink: h.sink, Now: func() time.Time { return testNow }})
	if err != nil {
		t.Fatalf("new reconciler: %v", err)
	}
	third, err := fresh.CompleteTask(ctx, task.ID)
	if err != nil || !third.Duplicate {
		t.Fatalf("third completion: %+v, %v", third, err)
	}

	local := localUser(t, h)
	if local.ExperiencePoints != 20 || local.PowerPoints != 10 || local.TasksCompleted != 1 {
		t.Fatalf("local counters: %+v", local)
	}
	ru, err := mem.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("remote user: %v", err)
	}
	if ru.ExperiencePoints != 20 || ru.PowerPoints != 10 || ru.TasksCompleted != 1 {
		t.Fatalf("remote counters: %+v", ru)
	}
	if n := h.sink.Count(notify.KindAchievementUnlocked); n != 1 {
		t.Fatalf("achievement notifications = %d, want 1", n)
	}
}

func TestConcurrentCompletionsApplyOnce(t *testing.T) {
	h, cleanup := newHarness(t, remote.NewMemory())
	defer cleanup()
	ctx := context.Background()

	login(t, h)
	task := addTask(t, h, "water plants")

	var futures []*Future[*Outcome]
	for i := 0; i < 6; i++ {
		futures = append(futures, h.rec.CompleteTaskAsync(ctx, task.ID))
	}
	applied := 0
	for _, f := range futures {
		out, err := f.Wait(ctx)
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
		if !out.Duplicate {
			applied++
		}
	}
	if applied != 1 {
		t.Fatalf("applied %d times, want 1", applied)
	}
	if u := localUser(t, h); u.ExperiencePoints != 20 {
		t.Fatalf("xp = %d, want 20", u.ExperiencePoints)
	}
}

func TestRemoteOutageKeepsLocalStateAndDefersBadges(t *testing.T) {
	mem := remote.NewMemory()
	h, cleanup := newHarness(t, mem)
	defer cleanup()
	ctx := context.Background()

	u := login(t, h)
	task := addTask(t, h, "read")

	mem.SetOffline(true)
	out, err := h.rec.CompleteTask(ctx, task.ID)
	if !IsPending(err) || !errors.Is(err, remote.ErrUnavailable) {
		t.Fatalf("expected pending unavailable error, got %v", err)
	}
	if out == nil || out.Result == nil || out.Synced {
		t.Fatalf("outcome during outage: %+v", out)
	}
	local := localUser(t, h)
	if local.ExperiencePoints != 20 || !local.HasBadge("first_task") {
		t.Fatalf("local state not kept: %+v", local)
	}
	if n := h.sink.Count(notify.KindAchievementUnlocked); n != 0 {
		t.Fatalf("badge notified before the remote grant: %d", n)
	}

	mem.SetOffline(false)
	report, err := h.rec.Push(ctx)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if len(report.Granted) != 1 || report.Granted[0] != "first_task" {
		t.Fatalf("granted on push = %v", report.Granted)
	}
	if n := h.sink.Count(notify.KindAchievementUnlocked); n != 1 {
		t.Fatalf("achievement notifications = %d, want 1", n)
	}
	ru, _ := mem.GetUser(ctx, u.ID)
	if ru.ExperiencePoints != 20 || !ru.HasBadge("first_task") {
		t.Fatalf("remote after push: %+v", ru)
	}

	report, err = h.rec.Push(ctx)
	if err != nil {
		t.Fatalf("second push: %v", err)
	}
	if len(report.Granted) != 0 || h.sink.Count(notify.KindAchievementUnlocked) != 1 {
		t.Fatalf("second push granted %v", report.Granted)
	}
}

func TestBadgeGrantedElsewhereIsNotNotifiedAgain(t *testing.T) {
	mem := remote.NewMemory()
	h, cleanup := newHarness(t, mem)
	defer cleanup()
	ctx := context.Background()

	u := login(t, h)
	if _, err := mem.GrantBadges(ctx, u.ID, []string{"first_task"}, 1); err != nil {
		t.Fatalf("seed remote badge: %v", err)
	}
	task := addTask(t, h, "journal")
	out, err := h.rec.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(out.Granted) != 0 {
		t.Fatalf("granted = %v, want none", out.Granted)
	}
	if n := h.sink.Count(notify.KindAchievementUnlocked); n != 0 {
		t.Fatalf("achievement notifications = %d, want 0", n)
	}
	local := localUser(t, h)
	if !local.HasBadge("first_task") || local.BadgeUnlockedAt["first_task"] != 1 {
		t.Fatalf("local badge not refreshed from remote: %+v", local)
	}
}

func TestPotionIsConsumedOnce(t *testing.T) {
	mem := remote.NewMemory()
	h, cleanup := newHarness(t, mem)
	defer cleanup()
	ctx := context.Background()

	u := login(t, h)
	potion, err := h.rec.AddItem(ctx, ItemInput{Name: "Elixir", Type: model.ItemPotion, Quantity: 1, Bonus: 20})
	if err != nil {
		t.Fatalf("add potion: %v", err)
	}
	if _, err := h.rec.UseItem(ctx, potion.ID); err != nil {
		t.Fatalf("use potion: %v", err)
	}
	if got := localUser(t, h).PowerPoints; got != 20 {
		t.Fatalf("pp = %d, want 20", got)
	}
	if items, _ := h.rec.ListItems(ctx); len(items) != 0 {
		t.Fatalf("potion still listed locally: %+v", items)
	}
	if items, _ := mem.ListItems(ctx, u.ID); len(items) != 0 {
		t.Fatalf("potion still listed remotely: %+v", items)
	}

	if _, err := h.rec.UseItem(ctx, potion.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := localUser(t, h).PowerPoints; got != 20 {
		t.Fatalf("pp after second use = %d, want 20", got)
	}
	if ru, _ := mem.GetUser(ctx, u.ID); ru.PowerPoints != 20 {
		t.Fatalf("remote pp = %d, want 20", ru.PowerPoints)
	}
}

func TestClothingExpiresAfterTwoBattles(t *testing.T) {
	h, cleanup := newHarness(t, remote.NewMemory())
	defer cleanup()
	ctx := context.Background()

	login(t, h)
	coat, err := h.rec.AddItem(ctx, ItemInput{Name: "Coat", Type: model.ItemClothing, Quantity: 1, Bonus: 5})
	if err != nil {
		t.Fatalf("add coat: %v", err)
	}
	out, err := h.rec.UseItem(ctx, coat.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if it := out.Result.Items[0]; !it.Active || it.BattlesRemaining != 2 {
		t.Fatalf("after activation: %+v", it)
	}

	for i := 0; i < 2; i++ {
		if _, err := h.rec.Battle(ctx); err != nil {
			t.Fatalf("battle %d: %v", i, err)
		}
	}
	items, err := h.rec.ListItems(ctx)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 || items[0].Active || items[0].BattlesRemaining != 0 {
		t.Fatalf("after two battles: %+v", items)
	}
	boss, err := h.rec.Boss(ctx)
	if err != nil {
		t.Fatalf("boss: %v", err)
	}
	if boss.Health >= boss.MaxHealth {
		t.Fatalf("boss took no damage: %+v", boss)
	}
}

func TestLevelUpNotifiedOncePerCrossing(t *testing.T) {
	h, cleanup := newHarness(t, remote.NewMemory())
	defer cleanup()
	ctx := context.Background()

	login(t, h)
	for i := 0; i < 6; i++ {
		task := addTask(t, h, "rep")
		if _, err := h.rec.CompleteTask(ctx, task.ID); err != nil {
			t.Fatalf("complete %d: %v", i, err)
		}
	}
	if n := h.sink.Count(notify.KindLevelUp); n != 1 {
		t.Fatalf("level_up notifications = %d, want 1", n)
	}
	if u := localUser(t, h); u.Level != 2 {
		t.Fatalf("level = %d, want 2", u.Level)
	}
}

func TestLocalOnlyModeNotifiesImmediately(t *testing.T) {
	h, cleanup := newHarness(t, nil)
	defer cleanup()
	ctx := context.Background()

	login(t, h)
	task := addTask(t, h, "walk")
	out, err := h.rec.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !out.Synced {
		t.Fatalf("local-only event not reported as settled")
	}
	if n := h.sink.Count(notify.KindAchievementUnlocked); n != 1 {
		t.Fatalf("achievement notifications = %d, want 1", n)
	}
}

func TestReferencedCategoryIsKept(t *testing.T) {
	h, cleanup := newHarness(t, remote.NewMemory())
	defer cleanup()
	ctx := context.Background()

	login(t, h)
	cat, err := h.rec.AddCategory(ctx, "Health", model.Color("green"))
	if err != nil {
		t.Fatalf("add category: %v", err)
	}
	if _, err := h.rec.AddCategory(ctx, "Bad", model.Color("teal")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for off-palette color, got %v", err)
	}
	task, err := h.rec.AddTask(ctx, TaskInput{Title: "run", CategoryID: &cat.ID})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if err := h.rec.DeleteCategory(ctx, cat.ID); !errors.Is(err, storage.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
	if err := h.rec.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if err := h.rec.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	mem := remote.NewMemory()
	h, cleanup := newHarness(t, mem)
	defer cleanup()
	ctx := context.Background()

	u := login(t, h)
	cat, _ := h.rec.AddCategory(ctx, "Work", model.Color("blue"))
	if _, err := h.rec.AddTask(ctx, TaskInput{Title: "report", CategoryID: &cat.ID}); err != nil {
		t.Fatalf("add task: %v", err)
	}
	if _, err := h.rec.AddItem(ctx, ItemInput{Name: "Sword", Type: model.ItemWeapon, Quantity: 1, Bonus: 3}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := h.rec.Battle(ctx); err != nil {
		t.Fatalf("battle: %v", err)
	}

	if err := h.rec.DeleteAccount(ctx); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, err := mem.GetUser(ctx, u.ID); !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("remote user still present: %v", err)
	}
	tasks, _ := mem.ListTasks(ctx, u.ID)
	cats, _ := mem.ListCategories(ctx, u.ID)
	items, _ := mem.ListItems(ctx, u.ID)
	if len(tasks)+len(cats)+len(items) != 0 {
		t.Fatalf("remote records left: %d tasks %d categories %d items", len(tasks), len(cats), len(items))
	}
	if _, err := h.rec.CurrentUser(ctx); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired after deletion, got %v", err)
	}
	if _, err := h.store.Read().Users.Get(ctx, u.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("local user still present: %v", err)
	}
}

func TestDeleteAccountOfflineKeepsEverything(t *testing.T) {
	mem := remote.NewMemory()
	h, cleanup := newHarness(t, mem)
	defer cleanup()
	ctx := context.Background()

	u := login(t, h)
	mem.SetOffline(true)
	if err := h.rec.DeleteAccount(ctx); !errors.Is(err, remote.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, err := h.store.Read().Users.Get(ctx, u.ID); err != nil {
		t.Fatalf("local user removed despite remote failure: %v", err)
	}
}

func TestPullTakesRemoteProgress(t *testing.T) {
	mem := remote.NewMemory()
	h, cleanup := newHarness(t, mem)
	defer cleanup()
	ctx := context.Background()

	u := login(t, h)
	other := *u
	other.ExperiencePoints = 400
	other.Level = 3
	other.TasksCompleted = 12
	other.UnlockedBadgeIDs = []string{"task_10"}
	if err := mem.MergeUser(ctx, other); err != nil {
		t.Fatalf("seed remote: %v", err)
	}
	if err := mem.SaveTask(ctx, model.Task{ID: "remote-task", OwnerID: u.ID, Title: "from phone", Status: model.TaskActive}); err != nil {
		t.Fatalf("seed task: %v", err)
	}

	report, err := h.rec.Pull(ctx)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if report.Tasks != 1 {
		t.Fatalf("pulled tasks = %d, want 1", report.Tasks)
	}
	local := localUser(t, h)
	if local.ExperiencePoints != 400 || local.Level != 3 || !local.HasBadge("task_10") {
		t.Fatalf("local after pull: %+v", local)
	}
}

func TestFutureReportsThroughHandlers(t *testing.T) {
	h, cleanup := newHarness(t, nil)
	defer cleanup()
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		gotErr error
	)
	wg.Add(1)
	h.rec.CompleteTaskAsync(ctx, "missing").Then(
		func(*Outcome) { wg.Done() },
		func(_ *Outcome, err error) { gotErr = err; wg.Done() },
	)
	wg.Wait()
	if !errors.Is(gotErr, ErrAuthRequired) {
		t.Fatalf("failure handler got %v", gotErr)
	}
}

func TestOfflineCountersReachRemote(t *testing.T) {
	mem := remote.NewMemory()
	h, cleanup := newHarness(t, mem)
	defer cleanup()
	ctx := context.Background()

	u := login(t, h)
	first := addTask(t, h, "stretch")
	second := addTask(t, h, "read")

	mem.SetOffline(true)
	if _, err := h.rec.CompleteTask(ctx, first.ID); !IsPending(err) {
		t.Fatalf("expected pending error, got %v", err)
	}
	mem.SetOffline(false)
	out, err := h.rec.CompleteTask(ctx, second.ID)
	if err != nil || !out.Synced {
		t.Fatalf("online completion: %+v, %v", out, err)
	}

	local := localUser(t, h)
	ru, err := mem.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("remote user: %v", err)
	}
	if local.ExperiencePoints != 40 || ru.ExperiencePoints != local.ExperiencePoints {
		t.Fatalf("xp local=%d remote=%d, want 40", local.ExperiencePoints, ru.ExperiencePoints)
	}
	if ru.TasksCompleted != 2 || ru.PowerPoints != local.PowerPoints {
		t.Fatalf("remote counters: %+v", ru)
	}
	pending, err := h.store.Read().Outbox.ListByUser(ctx, u.ID)
	if err != nil || len(pending) != 0 {
		t.Fatalf("outbox after sync = %+v, %v", pending, err)
	}

	if _, err := h.rec.Push(ctx); err != nil {
		t.Fatalf("push: %v", err)
	}
	if ru, _ := mem.GetUser(ctx, u.ID); ru.ExperiencePoints != 40 {
		t.Fatalf("xp after push = %d, want 40", ru.ExperiencePoints)
	}
}

func TestFirstSyncSeedsBeforePendingCounters(t *testing.T) {
	mem := remote.NewMemory()
	h, cleanup := newHarness(t, mem)
	defer cleanup()
	ctx := context.Background()

	mem.SetOffline(true)
	u, err := h.rec.Login(ctx, "hero", "hero@example.com")
	if !IsPending(err) || u == nil {
		t.Fatalf("offline login: %+v, %v", u, err)
	}
	for _, title := range []string{"walk", "cook"} {
		task, err := h.rec.AddTask(ctx, TaskInput{Title: title, Due: testNow})
		if !IsPending(err) {
			t.Fatalf("offline add: %v", err)
		}
		if _, err := h.rec.CompleteTask(ctx, task.ID); !IsPending(err) {
			t.Fatalf("expected pending error, got %v", err)
		}
	}

	mem.SetOffline(false)
	if _, err := h.rec.Push(ctx); err != nil {
		t.Fatalf("push: %v", err)
	}
	ru, err := mem.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("remote user: %v", err)
	}
	if ru.ExperiencePoints != 40 || ru.TasksCompleted != 2 {
		t.Fatalf("remote counters after first sync: %+v", ru)
	}
}

func TestPotionUsedOfflineStaysConsumedAfterPull(t *testing.T) {
	mem := remote.NewMemory()
	h, cleanup := newHarness(t, mem)
	defer cleanup()
	ctx := context.Background()

	u := login(t, h)
	potion, err := h.rec.AddItem(ctx, ItemInput{Name: "Elixir", Type: model.ItemPotion, Quantity: 1, Bonus: 20})
	if err != nil {
		t.Fatalf("add potion: %v", err)
	}

	mem.SetOffline(true)
	if _, err := h.rec.UseItem(ctx, potion.ID); !IsPending(err) {
		t.Fatalf("expected pending error, got %v", err)
	}
	mem.SetOffline(false)
	if _, err := h.rec.Pull(ctx); err != nil {
		t.Fatalf("pull: %v", err)
	}

	if items, _ := h.rec.ListItems(ctx); len(items) != 0 {
		t.Fatalf("consumed potion came back: %+v", items)
	}
	if items, _ := mem.ListItems(ctx, u.ID); len(items) != 0 {
		t.Fatalf("potion still listed remotely: %+v", items)
	}
	if _, err := h.rec.UseItem(ctx, potion.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := localUser(t, h).PowerPoints; got != 20 {
		t.Fatalf("pp = %d, want 20", got)
	}
	if dead, _ := h.store.Read().Tombstones.ListByOwner(ctx, u.ID); len(dead) != 0 {
		t.Fatalf("tombstones left after remote delete: %+v", dead)
	}
}

func TestPullSkipsRecordsDeletedLocally(t *testing.T) {
	mem := remote.NewMemory()
	h, cleanup := newHarness(t, mem)
	defer cleanup()
	ctx := context.Background()

	u := login(t, h)
	task := addTask(t, h, "old chore")
	mem.SetOffline(true)
	if err := h.rec.DeleteTask(ctx, task.ID); !IsPending(err) {
		t.Fatalf("expected pending error, got %v", err)
	}
	mem.SetOffline(false)

	// The remote copy is still there until the next flush.
	if tasks, _ := mem.ListTasks(ctx, u.ID); len(tasks) != 1 {
		t.Fatalf("remote tasks before pull = %d, want 1", len(tasks))
	}
	report, err := h.rec.Pull(ctx)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if report.Tasks != 0 {
		t.Fatalf("pulled tasks = %d, want 0", report.Tasks)
	}
	if tasks, _ := h.rec.ListTasks(ctx); len(tasks) != 0 {
		t.Fatalf("deleted task came back: %+v", tasks)
	}
	if tasks, _ := mem.ListTasks(ctx, u.ID); len(tasks) != 0 {
		t.Fatalf("remote task not deleted: %+v", tasks)
	}
}

func TestOtherUsersRecordsReadAsMissing(t *testing.T) {
	h, cleanup := newHarness(t, remote.NewMemory())
	defer cleanup()
	ctx := context.Background()

	login(t, h)
	cat, err := h.rec.AddCategory(ctx, "Health", model.Color("green"))
	if err != nil {
		t.Fatalf("add category: %v", err)
	}
	task := addTask(t, h, "run")

	if _, err := h.rec.Login(ctx, "rival", "rival@example.com"); err != nil {
		t.Fatalf("login rival: %v", err)
	}
	if err := h.rec.DeleteTask(ctx, task.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("DeleteTask: expected ErrNotFound, got %v", err)
	}
	if err := h.rec.DeleteCategory(ctx, cat.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("DeleteCategory: expected ErrNotFound, got %v", err)
	}
	if _, err := h.rec.AddTask(ctx, TaskInput{Title: "borrow", CategoryID: &cat.ID}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("AddTask: expected ErrNotFound, got %v", err)
	}

	login(t, h)
	if tasks, _ := h.rec.ListTasks(ctx); len(tasks) != 1 {
		t.Fatalf("owner's tasks = %d, want 1", len(tasks))
	}
	if cats, _ := h.rec.ListCategories(ctx); len(cats) != 1 {
		t.Fatalf("owner's categories = %d, want 1", len(cats))
	}
}
