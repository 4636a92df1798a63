// Package shop runs the rotating item shop and the sell-back economy.
package shop

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/item"
	"github.com/cory-johannsen/delve/internal/game/state"
)

// Shop constants.
const (
	// StockSize is the number of items offered at once.
	StockSize = 6
	// RefreshSeconds is the period of automatic restocking.
	RefreshSeconds = 60.0
	// RerollCostPerLevel prices a manual restock per shop level.
	RerollCostPerLevel = 25
)

// Manager restocks the shop and handles purchases.
type Manager struct {
	gen    *item.Generator
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: gen and logger must be non-nil.
func NewManager(gen *item.Generator, logger *zap.Logger) *Manager {
	return &Manager{gen: gen, logger: logger}
}

// Level returns the item level of shop stock for s.
func Level(s *state.GameState) int {
	return max(1, s.HighestFloor)
}

// RerollCost returns the gold price of a manual restock.
func RerollCost(s *state.GameState) int {
	return RerollCostPerLevel * Level(s)
}

// Update advances the restock timer and restocks when it elapses.
// An empty shop with an expired timer is stocked immediately.
func (m *Manager) Update(s *state.GameState, dt float64, bus *event.Bus) {
	s.ShopTimer -= dt
	if s.ShopTimer > 0 {
		return
	}
	for s.ShopTimer <= 0 {
		s.ShopTimer += RefreshSeconds
	}
	m.restock(s, bus)
}

// Refresh restocks immediately and restarts the timer.
func (m *Manager) Refresh(s *state.GameState, bus *event.Bus) {
	s.ShopTimer = RefreshSeconds
	m.restock(s, bus)
}

func (m *Manager) restock(s *state.GameState, bus *event.Bus) {
	level := Level(s)
	stock := make([]*item.Item, 0, StockSize)
	for range StockSize {
		it, err := m.gen.Generate(level)
		if err != nil {
			m.logger.Error("shop restock failed", zap.Error(err))
			break
		}
		stock = append(stock, it)
	}
	s.Shop = stock
	s.UI.ShopRefreshed = true
	bus.Emit(event.ShopRefreshed, event.ShopRefreshedPayload{Level: level})
}

// Buy purchases the stock item at index into the inventory.
//
// Postcondition: On failure nothing changes and a warning notification is emitted.
func (m *Manager) Buy(s *state.GameState, index int, bus *event.Bus) bool {
	if index < 0 || index >= len(s.Shop) {
		bus.Notify(event.SeverityWarning, "There is no item in that shop slot.")
		return false
	}
	it := s.Shop[index]
	if s.Gold < it.Cost {
		bus.Notify(event.SeverityWarning, "%s costs %d gold.", it.Name, it.Cost)
		return false
	}
	if s.Inventory.Full() {
		s.UI.InventoryFull = true
		bus.Notify(event.SeverityWarning, "The inventory is full.")
		return false
	}
	s.Shop = append(s.Shop[:index], s.Shop[index+1:]...)
	s.Inventory.Add(it)
	s.AddGold(-it.Cost, bus)
	s.UI.InventoryFull = s.Inventory.Full()
	return true
}

// Reroll pays RerollCost and restocks.
func (m *Manager) Reroll(s *state.GameState, bus *event.Bus) bool {
	cost := RerollCost(s)
	if s.Gold < cost {
		bus.Notify(event.SeverityWarning, "Restocking costs %d gold.", cost)
		return false
	}
	s.AddGold(-cost, bus)
	m.Refresh(s, bus)
	return true
}

// Sell removes an unlocked inventory item for a quarter of its cost.
//
// Postcondition: Locked or missing items are refused with a warning.
func Sell(s *state.GameState, itemID string, bus *event.Bus) bool {
	it, ok := s.Inventory.Get(itemID)
	if !ok {
		bus.Notify(event.SeverityWarning, "That item is not in the inventory.")
		return false
	}
	if it.Locked {
		bus.Notify(event.SeverityWarning, "%s is locked.", it.Name)
		return false
	}
	s.Inventory.Remove(itemID)
	s.AddGold(it.SellValue(), bus)
	s.UI.InventoryFull = false
	return true
}
