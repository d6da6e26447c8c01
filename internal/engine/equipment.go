package engine

import (
	"time"

	"habitquest/internal/model"
)

// ClothingBattles is the countdown set when a clothing item is activated.
const ClothingBattles = 2

// ActiveBonus sums the bonus of every active item.
func ActiveBonus(items []model.Equipment) int {
	total := 0
	for _, it := range items {
		if it.Active {
			total += it.Bonus
		}
	}
	return total
}

// UseItem applies an inventory item. Potions are consumed and grant their
// bonus as PP once; clothing and weapons toggle their active flag.
func UseItem(u model.User, item model.Equipment, now time.Time) (*Result, error) {
	if item.Quantity <= 0 {
		return nil, ErrItemDepleted
	}

	res := newResult(u)
	switch item.Type {
	case model.ItemPotion:
		addPP(res, item.Bonus)
		item.Quantity--
		if item.Quantity == 0 {
			res.RemovedItems = append(res.RemovedItems, item.ID)
		} else {
			res.Items = append(res.Items, item)
		}
	case model.ItemClothing, model.ItemWeapon:
		res.Items = append(res.Items, toggle(item))
	default:
		return nil, ErrNotUsable
	}
	return finish(res, now), nil
}

func toggle(item model.Equipment) model.Equipment {
	item.Active = !item.Active
	switch {
	case item.Active && item.Type == model.ItemClothing:
		item.BattlesRemaining = ClothingBattles
	case !item.Active:
		item.BattlesRemaining = 0
	}
	return item
}

// tickBattle advances the clothing countdown after a resolved battle and
// returns the items that changed.
func tickBattle(items []model.Equipment) []model.Equipment {
	var changed []model.Equipment
	for _, it := range items {
		if !it.Active || it.Type != model.ItemClothing {
			continue
		}
		if it.BattlesRemaining > 0 {
			it.BattlesRemaining--
		}
		if it.BattlesRemaining == 0 {
			it.Active = false
		}
		changed = append(changed, it)
	}
	return changed
}
