package engine

import (
	"math"
	"time"

	"habitquest/internal/model"
)

const (
	BaseDamage        = 10
	BossBaseHealth    = 100
	BossRewardXP      = 100
	BossRewardPP      = 50
	bossHealthGrowth  = 1.25
	defaultMultiplier = 1.0
)

// NewBoss returns the level 1 boss for a user.
func NewBoss(id, ownerID string) model.Boss {
	b := model.Boss{
		ID:        id,
		OwnerID:   ownerID,
		Name:      "Procrastination Golem",
		Level:     1,
		MaxHealth: BossBaseHealth,
		Health:    BossBaseHealth,
		Weakness: map[string]float64{
			string(model.ItemWeapon):   1.5,
			string(model.ItemClothing): 1.0,
		},
	}
	b.Rewards = bossRewards(b.Level)
	return b
}

func bossRewards(level int) map[string]int {
	return map[string]int{
		model.RewardXP: BossRewardXP * level,
		model.RewardPP: BossRewardPP * level,
	}
}

// Damage computes one attack: base damage plus every active item's bonus
// scaled by the boss weakness for that item type.
func Damage(b model.Boss, items []model.Equipment) int {
	dmg := float64(BaseDamage)
	for _, it := range items {
		if !it.Active {
			continue
		}
		mult, ok := b.Weakness[string(it.Type)]
		if !ok {
			mult = defaultMultiplier
		}
		dmg += float64(it.Bonus) * mult
	}
	return int(math.Round(dmg))
}

// ResolveBattle runs one attack against the boss. Each call is one battle
// resolution: clothing countdowns tick whether or not the boss falls.
func ResolveBattle(u model.User, b model.Boss, items []model.Equipment, now time.Time) (*Result, error) {
	if b.MaxHealth <= 0 {
		return nil, ErrInvalidBoss
	}
	res := newResult(u)

	res.Damage = Damage(b, items)
	b.Health -= res.Damage
	if b.Health <= 0 {
		res.BossDefeated = true
		res.User.BossesDefeated++
		addXP(res, b.Rewards[model.RewardXP])
		addPP(res, b.Rewards[model.RewardPP])

		b.Level++
		b.MaxHealth = int(math.Round(float64(b.MaxHealth) * bossHealthGrowth))
		b.Health = b.MaxHealth
		b.Rewards = bossRewards(b.Level)
	}
	res.Boss = &b
	res.Items = tickBattle(items)
	return finish(res, now), nil
}
