// Package notify defines the structured payloads handed to the push
// collaborator. Rendering is the sink's business; producers only pick the
// payload type.
package notify

import "fmt"

type Kind string

const (
	KindFriendRequest       Kind = "friend_request"
	KindBossBattleInvite    Kind = "boss_battle_invite"
	KindAchievementUnlocked Kind = "achievement_unlocked"
	KindLevelUp             Kind = "level_up"
)

// Payload is implemented by every event kind.
type Payload interface {
	Kind() Kind
	UserID() string
	Message() string
}

type FriendRequest struct {
	To           string
	FromID       string
	FromUsername string
}

func (p FriendRequest) Kind() Kind     { return KindFriendRequest }
func (p FriendRequest) UserID() string { return p.To }
func (p FriendRequest) Message() string {
	return fmt.Sprintf("%s sent you a friend request", p.FromUsername)
}

type BossBattleInvite struct {
	To           string
	FromUsername string
	BossName     string
	BossLevel    int
}

func (p BossBattleInvite) Kind() Kind     { return KindBossBattleInvite }
func (p BossBattleInvite) UserID() string { return p.To }
func (p BossBattleInvite) Message() string {
	return fmt.Sprintf("%s invited you to fight %s (level %d)", p.FromUsername, p.BossName, p.BossLevel)
}

type AchievementUnlocked struct {
	To        string
	BadgeID   string
	BadgeName string
	Icon      string
}

func (p AchievementUnlocked) Kind() Kind     { return KindAchievementUnlocked }
func (p AchievementUnlocked) UserID() string { return p.To }
func (p AchievementUnlocked) Message() string {
	return fmt.Sprintf("%s Badge unlocked: %s", p.Icon, p.BadgeName)
}

type LevelUp struct {
	To    string
	From  int
	Level int
}

func (p LevelUp) Kind() Kind     { return KindLevelUp }
func (p LevelUp) UserID() string { return p.To }
func (p LevelUp) Message() string {
	return fmt.Sprintf("Level up! %d → %d", p.From, p.Level)
}
