package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"habitquest/internal/model"
)

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	st := NewStore(db, Options{WriteWorkers: 1})
	return st, func() { _ = st.Close() }
}

func seedUser(t *testing.T, st *Store, id string) model.User {
	t.Helper()
	u := model.User{ID: id, Username: "hero", Email: "hero@example.com", Level: 1, CreatedAt: 1, UpdatedAt: 1}
	err := st.Write(context.Background(), "seed user", func(r *Repos) error {
		return r.Users.Upsert(context.Background(), &u)
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestCompositeFieldsEncodeEmptyContainers(t *testing.T) {
	s, err := EncodeStrings("f", nil)
	if err != nil || s != "[]" {
		t.Fatalf("EncodeStrings(nil)=%q, %v", s, err)
	}
	m, err := EncodeFloatMap("f", nil)
	if err != nil || m != "{}" {
		t.Fatalf("EncodeFloatMap(nil)=%q, %v", m, err)
	}

	for _, raw := range []sql.NullString{{}, {String: "", Valid: true}, {String: "null", Valid: true}} {
		got, err := DecodeStrings("f", raw)
		if err != nil {
			t.Fatalf("DecodeStrings(%+v): %v", raw, err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("DecodeStrings(%+v)=%v, want empty", raw, got)
		}
	}
}

func TestCompositeFieldsRoundTrip(t *testing.T) {
	in := map[string]float64{"weapon": 1.5, "clothing": 1}
	text, err := EncodeFloatMap("weakness", in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeFloatMap("weakness", sql.NullString{String: text, Valid: true})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip: got %v, want %v", out, in)
	}
	again, _ := EncodeFloatMap("weakness", out)
	if again != text {
		t.Fatalf("re-encode changed text: %q vs %q", again, text)
	}
}

func TestMalformedCompositeFieldIsReported(t *testing.T) {
	_, err := DecodeStrings("unlocked_badge_ids", sql.NullString{String: "[oops", Valid: true})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if de.Field != "unlocked_badge_ids" || de.Raw != "[oops" {
		t.Fatalf("decode error = %+v", de)
	}
}

func TestUserRoundTrip(t *testing.T) {
	st, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	u := seedUser(t, st, "u1")
	u.ExperiencePoints = 140
	u.Level = 2
	u.CurrentStreak = 3
	u.LongestStreak = 5
	u.AllianceID = "guild"
	u.UnlockedBadgeIDs = []string{"first_task", "streak_3"}
	u.BadgeUnlockedAt = map[string]int64{"first_task": 10, "streak_3": 20}
	if err := st.Read().Users.Upsert(ctx, &u); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := st.Read().Users.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(*got, u) {
		t.Fatalf("user round trip:\n got %+v\nwant %+v", *got, u)
	}

	if _, err := st.Read().Users.Get(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCorruptBadgeSetIsNotDefaulted(t *testing.T) {
	st, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedUser(t, st, "u1")
	if _, err := st.DB().ExecContext(ctx, `UPDATE users SET unlocked_badge_ids = 'not json' WHERE id = 'u1'`); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	_, err := st.Read().Users.Get(ctx, "u1")
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestTaskTransitionIsGuarded(t *testing.T) {
	st, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedUser(t, st, "u1")
	task := model.Task{ID: "t1", OwnerID: "u1", Title: "stretch", Status: model.TaskActive, Recurrence: []int{1, 3, 5}, CreatedAt: 5}
	if err := st.Read().Tasks.Upsert(ctx, &task); err != nil {
		t.Fatalf("upsert task: %v", err)
	}

	done := int64(99)
	changed, err := st.Read().Tasks.Transition(ctx, "t1", model.TaskActive, model.TaskCompleted, &done)
	if err != nil || !changed {
		t.Fatalf("first transition changed=%v err=%v", changed, err)
	}
	changed, err = st.Read().Tasks.Transition(ctx, "t1", model.TaskActive, model.TaskCompleted, &done)
	if err != nil || changed {
		t.Fatalf("second transition changed=%v err=%v", changed, err)
	}

	got, err := st.Read().Tasks.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Status != model.TaskCompleted || got.CompletedAt == nil || *got.CompletedAt != 99 {
		t.Fatalf("task after transition: %+v", got)
	}
	if !reflect.DeepEqual(got.Recurrence, []int{1, 3, 5}) {
		t.Fatalf("recurrence=%v", got.Recurrence)
	}
}

func TestBadRecurrenceKeepsTask(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	var logs bytes.Buffer
	st := NewStore(db, Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))})
	defer st.Close()

	seedUser(t, st, "u1")
	task := model.Task{ID: "t1", OwnerID: "u1", Title: "read", Status: model.TaskActive}
	if err := st.Read().Tasks.Upsert(ctx, &task); err != nil {
		t.Fatalf("upsert task: %v", err)
	}
	if _, err := st.DB().ExecContext(ctx, `UPDATE tasks SET recurrence = '{bad' WHERE id = 't1'`); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err := st.Read().Tasks.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != "read" || len(got.Recurrence) != 0 {
		t.Fatalf("task = %+v", got)
	}
	if !strings.Contains(logs.String(), "Recovered task recurrence") {
		t.Fatalf("recovery not logged through the store logger: %q", logs.String())
	}
}

func TestReferencedCategoryCannotBeDeleted(t *testing.T) {
	st, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedUser(t, st, "u1")
	cat := model.Category{ID: "c1", OwnerID: "u1", Name: "Health", Color: model.Color("green")}
	catID := cat.ID
	task := model.Task{ID: "t1", OwnerID: "u1", Title: "run", CategoryID: &catID, Status: model.TaskActive}

	err := st.Write(ctx, "seed", func(r *Repos) error {
		if err := r.Categories.Upsert(ctx, &cat); err != nil {
			return err
		}
		return r.Tasks.Upsert(ctx, &task)
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := st.Read().Categories.Delete(ctx, "c1"); !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
	if err := st.Read().Tasks.Delete(ctx, "t1"); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if err := st.Read().Categories.Delete(ctx, "c1"); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if _, err := st.Read().Categories.Get(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWriteRollsBackOnError(t *testing.T) {
	st, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedUser(t, st, "u1")
	boom := errors.New("boom")
	err := st.Write(ctx, "partial", func(r *Repos) error {
		item := model.Equipment{ID: "e1", OwnerID: "u1", Name: "Potion", Type: model.ItemPotion, Quantity: 1, Bonus: 5}
		if err := r.Equipment.Upsert(ctx, &item); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	items, err := st.Read().Equipment.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("rolled back write left %d items", len(items))
	}
}

func TestBossRecoversBrokenMaps(t *testing.T) {
	st, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seedUser(t, st, "u1")
	b := model.Boss{ID: "b1", OwnerID: "u1", Name: "Golem", Level: 1, Health: 100, MaxHealth: 100,
		Rewards: map[string]int{model.RewardXP: 100}, Weakness: map[string]float64{"weapon": 1.5}}
	if err := st.Read().Bosses.Upsert(ctx, &b); err != nil {
		t.Fatalf("upsert boss: %v", err)
	}
	got, err := st.Read().Bosses.GetByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("get boss: %v", err)
	}
	if !reflect.DeepEqual(*got, b) {
		t.Fatalf("boss round trip: got %+v want %+v", *got, b)
	}

	if _, err := st.DB().ExecContext(ctx, `UPDATE bosses SET weakness = 'x' WHERE id = 'b1'`); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err = st.Read().Bosses.GetByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("get boss after corruption: %v", err)
	}
	if got.Weakness == nil || len(got.Weakness) != 0 || got.Rewards[model.RewardXP] != 100 {
		t.Fatalf("recovered boss: %+v", got)
	}
}

func TestSessionLifecycle(t *testing.T) {
	st, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := st.Read().Sessions.Current(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no session, got %v", err)
	}
	if err := st.Read().Sessions.Start(ctx, "u1", 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := st.Read().Sessions.Start(ctx, "u2", 2); err != nil {
		t.Fatalf("restart: %v", err)
	}
	id, err := st.Read().Sessions.Current(ctx)
	if err != nil || id != "u2" {
		t.Fatalf("current=%q err=%v", id, err)
	}
	if err := st.Read().Sessions.End(ctx); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := st.Read().Sessions.Current(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no session after end, got %v", err)
	}
}

func TestOutboxKeepsCommitOrder(t *testing.T) {
	st, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for i, id := range []string{"e1", "e2", "e3"} {
		e := OutboxEntry{EventID: id, UserID: "u1", Op: "complete task", Payload: "{}", CreatedAt: int64(i)}
		if err := st.Read().Outbox.Add(ctx, &e); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	other := OutboxEntry{EventID: "x1", UserID: "u2", Op: "battle", Payload: "{}"}
	if err := st.Read().Outbox.Add(ctx, &other); err != nil {
		t.Fatalf("add other: %v", err)
	}
	if err := st.Read().Outbox.Delete(ctx, "e2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := st.Read().Outbox.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].EventID != "e1" || got[1].EventID != "e3" || got[0].Seq >= got[1].Seq {
		t.Fatalf("outbox = %+v", got)
	}

	dup := OutboxEntry{EventID: "e1", UserID: "u1", Op: "complete task", Payload: "{}"}
	if err := st.Read().Outbox.Add(ctx, &dup); err == nil {
		t.Fatalf("duplicate event id accepted")
	}
}

func TestTombstoneLifecycle(t *testing.T) {
	st, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	ts := Tombstone{Collection: "equipment", ID: "e1", OwnerID: "u1", DeletedAt: 5}
	if err := st.Read().Tombstones.Add(ctx, ts); err != nil {
		t.Fatalf("add: %v", err)
	}
	ts.DeletedAt = 6
	if err := st.Read().Tombstones.Add(ctx, ts); err != nil {
		t.Fatalf("add again: %v", err)
	}
	has, err := st.Read().Tombstones.Has(ctx, "equipment", "e1")
	if err != nil || !has {
		t.Fatalf("has = %v, %v", has, err)
	}
	if has, _ := st.Read().Tombstones.Has(ctx, "tasks", "e1"); has {
		t.Fatalf("tombstone leaked across collections")
	}
	list, err := st.Read().Tombstones.ListByOwner(ctx, "u1")
	if err != nil || len(list) != 1 || list[0].DeletedAt != 6 {
		t.Fatalf("list = %+v, %v", list, err)
	}
	if err := st.Read().Tombstones.Delete(ctx, "equipment", "e1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if has, _ := st.Read().Tombstones.Has(ctx, "equipment", "e1"); has {
		t.Fatalf("tombstone still present")
	}
}
