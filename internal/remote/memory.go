package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"habitquest/internal/model"
)

type memUser struct {
	user    model.User
	applied []string
}

// Memory is an in-process Store used when no remote URI is configured and
// in tests. SetOffline makes every call fail with ErrUnavailable.
type Memory struct {
	mu         sync.Mutex
	offline    atomic.Bool
	users      map[string]*memUser
	tasks      map[string]model.Task
	categories map[string]model.Category
	items      map[string]model.Equipment
	bosses     map[string]model.Boss
	calls      atomic.Int64
}

func NewMemory() *Memory {
	return &Memory{
		users:      map[string]*memUser{},
		tasks:      map[string]model.Task{},
		categories: map[string]model.Category{},
		items:      map[string]model.Equipment{},
		bosses:     map[string]model.Boss{},
	}
}

func (m *Memory) SetOffline(v bool) { m.offline.Store(v) }

// Calls counts the requests that reached the store.
func (m *Memory) Calls() int64 { return m.calls.Load() }

func (m *Memory) enter() error {
	if m.offline.Load() {
		return fmt.Errorf("%w: offline", ErrUnavailable)
	}
	m.calls.Add(1)
	m.mu.Lock()
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*model.User, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	doc, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	u := doc.user.Clone()
	return &u, nil
}

func (m *Memory) MergeUser(_ context.Context, u model.User) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	doc, ok := m.users[u.ID]
	if !ok {
		m.users[u.ID] = &memUser{user: u.Clone()}
		return nil
	}
	doc.user = MergeUsers(doc.user, u)
	return nil
}

func (m *Memory) ApplyDelta(_ context.Context, userID string, d Delta) (bool, error) {
	if err := m.enter(); err != nil {
		return false, err
	}
	defer m.mu.Unlock()
	doc, ok := m.users[userID]
	if !ok {
		return false, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	for _, id := range doc.applied {
		if id == d.EventID {
			return false, nil
		}
	}

	u := &doc.user
	u.ExperiencePoints += d.XP
	u.PowerPoints += d.PP
	u.TasksCompleted += d.TasksCompleted
	u.BossesDefeated += d.BossesDefeated
	u.SpecialMissionsCompleted += d.SpecialMissions
	u.Level = max(u.Level, d.Level)
	if s := d.Streak; s != nil {
		u.CurrentStreak = s.Current
		u.LastCompletionDay = s.LastDay
		u.LongestStreak = max(u.LongestStreak, s.Longest)
	}
	if d.AllianceID != nil {
		u.AllianceID = *d.AllianceID
	}
	u.UpdatedAt = max(u.UpdatedAt, d.UpdatedAt)

	doc.applied = append(doc.applied, d.EventID)
	if n := len(doc.applied); n > MaxAppliedEvents {
		doc.applied = append([]string(nil), doc.applied[n-MaxAppliedEvents:]...)
	}
	return true, nil
}

func (m *Memory) GrantBadges(_ context.Context, userID string, ids []string, at int64) ([]string, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	doc, ok := m.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	var granted []string
	for _, id := range ids {
		if doc.user.HasBadge(id) {
			continue
		}
		doc.user.UnlockedBadgeIDs = append(doc.user.UnlockedBadgeIDs, id)
		if doc.user.BadgeUnlockedAt == nil {
			doc.user.BadgeUnlockedAt = map[string]int64{}
		}
		doc.user.BadgeUnlockedAt[id] = at
		granted = append(granted, id)
	}
	return granted, nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *Memory) SaveTask(_ context.Context, t model.Task) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	return nil
}

func (m *Memory) ListTasks(_ context.Context, ownerID string) ([]model.Task, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	return owned(m.tasks, ownerID, func(t model.Task) string { return t.OwnerID }), nil
}

func (m *Memory) SaveCategory(_ context.Context, c model.Category) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.categories[c.ID] = c
	return nil
}

func (m *Memory) ListCategories(_ context.Context, ownerID string) ([]model.Category, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	return owned(m.categories, ownerID, func(c model.Category) string { return c.OwnerID }), nil
}

func (m *Memory) SaveItem(_ context.Context, e model.Equipment) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.items[e.ID] = e
	return nil
}

func (m *Memory) ListItems(_ context.Context, ownerID string) ([]model.Equipment, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	return owned(m.items, ownerID, func(e model.Equipment) string { return e.OwnerID }), nil
}

func (m *Memory) SaveBoss(_ context.Context, b model.Boss) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.bosses[b.OwnerID] = b
	return nil
}

func (m *Memory) GetBoss(_ context.Context, ownerID string) (*model.Boss, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	b, ok := m.bosses[ownerID]
	if !ok {
		return nil, fmt.Errorf("boss for %s: %w", ownerID, ErrNotFound)
	}
	return &b, nil
}

func (m *Memory) Delete(_ context.Context, coll Collection, id string) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	switch coll {
	case Users:
		delete(m.users, id)
	case Tasks:
		delete(m.tasks, id)
	case Categories:
		delete(m.categories, id)
	case Equipment:
		delete(m.items, id)
	case Bosses:
		for owner, b := range m.bosses {
			if b.ID == id {
				delete(m.bosses, owner)
			}
		}
	default:
		return fmt.Errorf("unknown collection %q", coll)
	}
	return nil
}

func (m *Memory) DeleteOwned(_ context.Context, coll Collection, ownerID string) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	switch coll {
	case Tasks:
		deleteOwned(m.tasks, ownerID, func(t model.Task) string { return t.OwnerID })
	case Categories:
		deleteOwned(m.categories, ownerID, func(c model.Category) string { return c.OwnerID })
	case Equipment:
		deleteOwned(m.items, ownerID, func(e model.Equipment) string { return e.OwnerID })
	case Bosses:
		delete(m.bosses, ownerID)
	default:
		return fmt.Errorf("unknown collection %q", coll)
	}
	return nil
}

func (m *Memory) Close(context.Context) error { return nil }

func owned[T any](docs map[string]T, ownerID string, owner func(T) string) []T {
	keys := make([]string, 0, len(docs))
	for k, v := range docs {
		if owner(v) == ownerID {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, docs[k])
	}
	return out
}

func deleteOwned[T any](docs map[string]T, ownerID string, owner func(T) string) {
	for k, v := range docs {
		if owner(v) == ownerID {
			delete(docs, k)
		}
	}
}
