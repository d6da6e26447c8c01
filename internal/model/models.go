// Package model holds the entities shared by the local and remote stores.
// Field names are identical in both encodings so a row and a document
// describe the same record.
package model

import "time"

type TaskStatus string

const (
	TaskActive    TaskStatus = "active"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskActive, TaskCompleted, TaskFailed:
		return true
	default:
		return false
	}
}

type User struct {
	ID                       string           `json:"id" bson:"_id"`
	Username                 string           `json:"username" bson:"username"`
	Email                    string           `json:"email" bson:"email"`
	ExperiencePoints         int              `json:"experiencePoints" bson:"experiencePoints"`
	Level                    int              `json:"level" bson:"level"`
	PowerPoints              int              `json:"powerPoints" bson:"powerPoints"`
	CurrentStreak            int              `json:"currentStreak" bson:"currentStreak"`
	LongestStreak            int              `json:"longestStreak" bson:"longestStreak"`
	LastCompletionDay        int64            `json:"lastCompletionDay" bson:"lastCompletionDay"`
	TasksCompleted           int              `json:"tasksCompleted" bson:"tasksCompleted"`
	BossesDefeated           int              `json:"bossesDefeated" bson:"bossesDefeated"`
	SpecialMissionsCompleted int              `json:"specialMissionsCompleted" bson:"specialMissionsCompleted"`
	AllianceID               string           `json:"allianceId,omitempty" bson:"allianceId,omitempty"`
	UnlockedBadgeIDs         []string         `json:"unlockedBadgeIds" bson:"unlockedBadgeIds"`
	BadgeUnlockedAt          map[string]int64 `json:"badgeUnlockedAt,omitempty" bson:"badgeUnlockedAt,omitempty"`
	CreatedAt                int64            `json:"createdAt" bson:"createdAt"`
	UpdatedAt                int64            `json:"updatedAt" bson:"updatedAt"`
}

// HasBadge reports whether id is already in the unlocked set.
func (u *User) HasBadge(id string) bool {
	for _, b := range u.UnlockedBadgeIDs {
		if b == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so engine evaluation never aliases caller state.
func (u User) Clone() User {
	out := u
	out.UnlockedBadgeIDs = append([]string(nil), u.UnlockedBadgeIDs...)
	if u.BadgeUnlockedAt != nil {
		out.BadgeUnlockedAt = make(map[string]int64, len(u.BadgeUnlockedAt))
		for k, v := range u.BadgeUnlockedAt {
			out.BadgeUnlockedAt[k] = v
		}
	}
	return out
}

type Task struct {
	ID          string     `json:"id" bson:"_id"`
	OwnerID     string     `json:"ownerId" bson:"ownerId"`
	Title       string     `json:"title" bson:"title"`
	CategoryID  *string    `json:"categoryId,omitempty" bson:"categoryId,omitempty"`
	DueDate     int64      `json:"dueDate" bson:"dueDate"`
	Status      TaskStatus `json:"status" bson:"status"`
	Recurrence  []int      `json:"recurrence,omitempty" bson:"recurrence,omitempty"`
	CreatedAt   int64      `json:"createdAt" bson:"createdAt"`
	CompletedAt *int64     `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

// Due returns the due date in loc, or false for undated tasks.
func (t Task) Due(loc *time.Location) (time.Time, bool) {
	if t.DueDate == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(t.DueDate).In(loc), true
}

type Color string

// Palette is the fixed set of category colors.
var Palette = []Color{"red", "orange", "yellow", "green", "blue", "purple", "pink", "gray"}

func (c Color) IsValid() bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

type Category struct {
	ID      string `json:"id" bson:"_id"`
	OwnerID string `json:"ownerId" bson:"ownerId"`
	Name    string `json:"name" bson:"name"`
	Color   Color  `json:"color" bson:"color"`
}

type ItemType string

const (
	ItemPotion   ItemType = "potion"
	ItemClothing ItemType = "clothing"
	ItemWeapon   ItemType = "weapon"
	ItemOther    ItemType = "other"
)

func (t ItemType) IsValid() bool {
	switch t {
	case ItemPotion, ItemClothing, ItemWeapon, ItemOther:
		return true
	default:
		return false
	}
}

type Equipment struct {
	ID               string   `json:"id" bson:"_id"`
	OwnerID          string   `json:"ownerId" bson:"ownerId"`
	Name             string   `json:"name" bson:"name"`
	Type             ItemType `json:"type" bson:"type"`
	Quantity         int      `json:"quantity" bson:"quantity"`
	Bonus            int      `json:"bonus" bson:"bonus"`
	Active           bool     `json:"active" bson:"active"`
	BattlesRemaining int      `json:"battlesRemaining" bson:"battlesRemaining"`
}

// Reward table keys on Boss.Rewards.
const (
	RewardXP = "xp"
	RewardPP = "pp"
)

type Boss struct {
	ID        string             `json:"id" bson:"_id"`
	OwnerID   string             `json:"ownerId" bson:"ownerId"`
	Name      string             `json:"name" bson:"name"`
	Level     int                `json:"level" bson:"level"`
	Health    int                `json:"health" bson:"health"`
	MaxHealth int                `json:"maxHealth" bson:"maxHealth"`
	Rewards   map[string]int     `json:"rewards" bson:"rewards"`
	Weakness  map[string]float64 `json:"weakness" bson:"weakness"`
}

type BadgeType string

const (
	BadgeTask     BadgeType = "task"
	BadgeStreak   BadgeType = "streak"
	BadgeLevel    BadgeType = "level"
	BadgeBoss     BadgeType = "boss"
	BadgeXP       BadgeType = "xp"
	BadgeAlliance BadgeType = "alliance"
	BadgeMission  BadgeType = "mission"
)

// Badge is the per-user view of a catalog template. It is never persisted.
type Badge struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Type        BadgeType
	Threshold   int
	Unlocked    bool
	UnlockedAt  *time.Time
}
