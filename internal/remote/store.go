// Package remote is the server-side document store. Counters are merged
// with monotone operators and every event delta is applied at most once.
package remote

import (
	"context"
	"errors"

	"habitquest/internal/model"
)

var (
	// ErrUnavailable wraps every failure to reach the remote store.
	ErrUnavailable = errors.New("remote store unavailable")
	ErrNotFound    = errors.New("remote document not found")
)

// MaxAppliedEvents bounds the applied-event ids kept on a user document.
const MaxAppliedEvents = 256

type Collection string

const (
	Users      Collection = "users"
	Tasks      Collection = "tasks"
	Categories Collection = "categories"
	Equipment  Collection = "equipment"
	Bosses     Collection = "bosses"
)

// OwnedCollections are the per-user collections removed on account deletion.
var OwnedCollections = []Collection{Tasks, Categories, Equipment, Bosses}

// StreakState is the streak triple carried by a delta.
type StreakState struct {
	Current int   `json:"current"`
	Longest int   `json:"longest"`
	LastDay int64 `json:"lastDay"`
}

// Delta is the counter change produced by one event.
type Delta struct {
	EventID         string       `json:"eventId"`
	XP              int          `json:"xp"`
	PP              int          `json:"pp"`
	TasksCompleted  int          `json:"tasksCompleted"`
	BossesDefeated  int          `json:"bossesDefeated"`
	SpecialMissions int          `json:"specialMissions"`
	Level           int          `json:"level"`
	Streak          *StreakState `json:"streak,omitempty"`
	AllianceID      *string      `json:"allianceId,omitempty"`
	UpdatedAt       int64        `json:"updatedAt"`
}

type Store interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	// MergeUser upserts u, keeping the larger value of every monotone counter.
	MergeUser(ctx context.Context, u model.User) error
	// ApplyDelta applies d once per event id. It reports false when the
	// event was already applied and ErrNotFound when the user is missing.
	ApplyDelta(ctx context.Context, userID string, d Delta) (bool, error)
	// GrantBadges adds ids to the unlocked set and returns only the ids that
	// were not present before.
	GrantBadges(ctx context.Context, userID string, ids []string, at int64) ([]string, error)
	DeleteUser(ctx context.Context, id string) error

	SaveTask(ctx context.Context, t model.Task) error
	ListTasks(ctx context.Context, ownerID string) ([]model.Task, error)
	SaveCategory(ctx context.Context, c model.Category) error
	ListCategories(ctx context.Context, ownerID string) ([]model.Category, error)
	SaveItem(ctx context.Context, e model.Equipment) error
	ListItems(ctx context.Context, ownerID string) ([]model.Equipment, error)
	SaveBoss(ctx context.Context, b model.Boss) error
	GetBoss(ctx context.Context, ownerID string) (*model.Boss, error)

	// Delete removes one document from an owned collection.
	Delete(ctx context.Context, coll Collection, id string) error
	// DeleteOwned removes every document of ownerID in coll.
	DeleteOwned(ctx context.Context, coll Collection, ownerID string) error

	Close(ctx context.Context) error
}
