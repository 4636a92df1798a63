package sim

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/item"
	"github.com/cory-johannsen/delve/internal/game/shop"
	"github.com/cory-johannsen/delve/internal/game/unlock"
)

// Option keys accepted by SetOption.
const (
	OptionAutoBoss = "auto_boss"
	OptionAutoLoot = "auto_loot"
)

// Every command returns false, with a warning notification on the bus, when it
// is refused. Refused commands leave the state unchanged.

// Recruit moves an available hero into the party.
func (s *Session) Recruit(heroID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return unlock.Recruit(s.state, s.cat, heroID, s.bus)
}

// Equip equips an inventory item on a hero.
func (s *Session) Equip(heroID, itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Equip(heroID, itemID, s.bus)
}

// Unequip returns the item in slot to the inventory.
func (s *Session) Unequip(heroID string, slot item.Slot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Unequip(heroID, slot, s.bus)
}

// BuyShopItem buys the shop item at index.
func (s *Session) BuyShopItem(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shop.Buy(s.state, index, s.bus)
}

// RerollShop pays to replace the shop stock.
func (s *Session) RerollShop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shop.Reroll(s.state, s.bus)
}

// SellItem sells an unlocked inventory item.
func (s *Session) SellItem(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return shop.Sell(s.state, itemID, s.bus)
}

// ToggleLock flips the sell lock of an inventory item.
func (s *Session) ToggleLock(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ToggleLock(itemID, s.bus)
}

// CollectLoot moves an item from the loot pool to the inventory.
func (s *Session) CollectLoot(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CollectLoot(itemID, s.bus)
}

// ChallengeBoss queues the floor boss as the next encounter.
func (s *Session) ChallengeBoss() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dungeon.ChallengeBoss(s.state, s.bus)
}

// Retreat abandons the current fight.
func (s *Session) Retreat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dungeon.Retreat(s.state, s.bus)
}

// MoveHero moves a hero to position to in the party order.
func (s *Session) MoveHero(heroID string, to int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.MoveHero(heroID, to, s.bus)
}

// SetOption sets a boolean player option.
//
// Postcondition: option.changed is emitted only when the value actually changed.
func (s *Session) SetOption(key string, value bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	var opt *bool
	switch key {
	case OptionAutoBoss:
		opt = &s.state.Options.AutoBoss
	case OptionAutoLoot:
		opt = &s.state.Options.AutoLoot
	default:
		s.bus.Notify(event.SeverityWarning, "Unknown option %q.", key)
		return false
	}
	if *opt == value {
		return true
	}
	*opt = value
	s.bus.Emit(event.OptionChanged, event.OptionChangedPayload{Key: key, Value: strconv.FormatBool(value)})
	return true
}

// PurchaseUpgrade buys one level of a prestige upgrade with echoes.
func (s *Session) PurchaseUpgrade(upgradeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prestige.Purchase(s.state, upgradeID, s.bus)
}

// Prestige ends the run and starts a fresh one with the earned echoes.
//
// Postcondition: On success the new run and permanent record are saved at once; a
// failed save is logged and left to the next autosave.
func (s *Session) Prestige(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.prestige.Reset(s.state, s.cat, s.bus) {
		return false
	}
	s.sinceSave = 0
	if err := s.save(ctx); err != nil {
		s.logger.Error("saving after prestige failed", zap.Error(err))
	}
	return true
}
