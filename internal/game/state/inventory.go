package state

import (
	"errors"

	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/hero"
	"github.com/cory-johannsen/delve/internal/game/item"
)

// Equip moves an inventory item onto a hero. A displaced item returns to the inventory.
//
// Postcondition: On failure nothing changes and a warning notification is emitted.
func (s *GameState) Equip(heroID, itemID string, bus *event.Bus) bool {
	h, ok := s.Hero(heroID)
	if !ok {
		bus.Notify(event.SeverityWarning, "Unknown hero %q.", heroID)
		return false
	}
	it, ok := s.Inventory.Get(itemID)
	if !ok {
		bus.Notify(event.SeverityWarning, "That item is not in the inventory.")
		return false
	}
	if err := h.CanEquip(it); err != nil {
		bus.Notify(event.SeverityWarning, "%s cannot equip %s: %s.", h.Def.Name, it.Name, equipReason(err))
		return false
	}
	s.Inventory.Remove(itemID)
	prev, _ := h.Equip(it)
	if prev != nil {
		// The slot freed by it guarantees room.
		s.Inventory.Add(prev)
	}
	s.UI.InventoryFull = s.Inventory.Full()
	return true
}

func equipReason(err error) string {
	switch {
	case errors.Is(err, hero.ErrNoSlot):
		return "no slot fits it"
	case errors.Is(err, hero.ErrClassRestricted):
		return "wrong class"
	case errors.Is(err, hero.ErrLevelTooLow):
		return "level too low"
	default:
		return err.Error()
	}
}

// Unequip moves the item in slot of a hero back to the inventory.
//
// Postcondition: Fails with a warning when the inventory is full or the slot is empty.
func (s *GameState) Unequip(heroID string, slot item.Slot, bus *event.Bus) bool {
	h, ok := s.Hero(heroID)
	if !ok {
		bus.Notify(event.SeverityWarning, "Unknown hero %q.", heroID)
		return false
	}
	if s.Inventory.Full() {
		bus.Notify(event.SeverityWarning, "The inventory is full.")
		return false
	}
	it, err := h.Unequip(slot)
	if err != nil {
		bus.Notify(event.SeverityWarning, "Nothing to unequip: %s.", err.Error())
		return false
	}
	s.Inventory.Add(it)
	s.UI.InventoryFull = s.Inventory.Full()
	return true
}

// CollectLoot moves a dropped item from the loot pool into the inventory.
func (s *GameState) CollectLoot(itemID string, bus *event.Bus) bool {
	if s.Inventory.Full() {
		s.UI.InventoryFull = true
		bus.Notify(event.SeverityWarning, "The inventory is full.")
		return false
	}
	it, ok := s.TakeLoot(itemID)
	if !ok {
		bus.Notify(event.SeverityWarning, "That item is no longer on the ground.")
		return false
	}
	s.Inventory.Add(it)
	s.UI.InventoryFull = s.Inventory.Full()
	return true
}

// ToggleLock flips the sell lock of an inventory item.
func (s *GameState) ToggleLock(itemID string, bus *event.Bus) bool {
	if _, ok := s.Inventory.ToggleLock(itemID); !ok {
		bus.Notify(event.SeverityWarning, "That item is not in the inventory.")
		return false
	}
	return true
}

// MoveHero moves the hero with heroID to position to in the party order.
// Positions beyond the party are clamped.
func (s *GameState) MoveHero(heroID string, to int, bus *event.Bus) bool {
	from := -1
	for i, h := range s.Heroes {
		if h.ID() == heroID {
			from = i
			break
		}
	}
	if from < 0 {
		bus.Notify(event.SeverityWarning, "Unknown hero %q.", heroID)
		return false
	}
	to = min(max(0, to), len(s.Heroes)-1)
	h := s.Heroes[from]
	s.Heroes = append(s.Heroes[:from], s.Heroes[from+1:]...)
	s.Heroes = append(s.Heroes[:to], append([]*hero.Hero{h}, s.Heroes[to:]...)...)
	return true
}
