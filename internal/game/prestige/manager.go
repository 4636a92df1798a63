package prestige

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/state"
	"github.com/cory-johannsen/delve/internal/game/stats"
)

// Manager applies upgrade purchases and prestige resets to a GameState.
type Manager struct {
	upgrades []*Upgrade
	byID     map[string]*Upgrade
	logger   *zap.Logger
}

// NewManager creates a Manager over the given upgrade definitions.
//
// Precondition: upgrades must be validated with unique IDs; logger must be non-nil.
func NewManager(upgrades []*Upgrade, logger *zap.Logger) *Manager {
	m := &Manager{
		upgrades: slices.Clone(upgrades),
		byID:     make(map[string]*Upgrade, len(upgrades)),
		logger:   logger,
	}
	slices.SortFunc(m.upgrades, func(a, b *Upgrade) int { return strings.Compare(a.ID, b.ID) })
	for _, u := range m.upgrades {
		m.byID[u.ID] = u
	}
	return m
}

// Upgrades returns the upgrade definitions ordered by ID.
func (m *Manager) Upgrades() []*Upgrade { return m.upgrades }

// Upgrade returns the definition for id.
func (m *Manager) Upgrade(id string) (*Upgrade, bool) {
	u, ok := m.byID[id]
	return u, ok
}

// Meta folds levels into stat bonuses using this manager's upgrades.
func (m *Manager) Meta(levels map[string]int) stats.Meta {
	return Meta(m.upgrades, levels)
}

// Purchase buys one level of upgrade id with echoes.
//
// Postcondition: On success Echoes decreased by the cost, the level rose by one and
// every hero was recomputed against the new Meta. On failure state is unchanged and a
// warning notification is emitted.
func (m *Manager) Purchase(s *state.GameState, id string, bus *event.Bus) bool {
	u, ok := m.byID[id]
	if !ok {
		bus.Notify(event.SeverityWarning, "Unknown upgrade %q.", id)
		return false
	}
	level := s.PrestigeLevels[id]
	if level >= u.MaxLevel {
		bus.Notify(event.SeverityWarning, "%s is already at max level.", u.Name)
		return false
	}
	cost := u.Cost(level)
	if s.Echoes < cost {
		bus.Notify(event.SeverityWarning, "%s costs %d echoes; you have %d.", u.Name, cost, s.Echoes)
		return false
	}
	s.Echoes -= cost
	s.PrestigeLevels[id] = level + 1
	s.SetMeta(m.Meta(s.PrestigeLevels))
	m.logger.Info("upgrade purchased",
		zap.String("upgrade", id),
		zap.Int("level", level+1),
		zap.Int("cost", cost),
	)
	return true
}

// Reset ends the run, converting its depth into echoes and starting a fresh run
// in place from the permanent record.
//
// Postcondition: Returns false, with a warning notification and no change, when the
// award would be below one echo. Otherwise *s is a fresh run and prestige.reset was emitted.
func (m *Manager) Reset(s *state.GameState, cat state.Catalog, bus *event.Bus) bool {
	earned := Award(s.HighestFloor)
	if earned < 1 {
		bus.Notify(event.SeverityWarning, "Reach a deeper floor before prestiging.")
		return false
	}
	rec := s.Permanent()
	rec.Echoes += earned
	rec.PrestigeCount++
	rec.BestFloorEver = max(rec.BestFloorEver, s.HighestFloor)

	*s = *state.New(rec, cat, m.Meta(rec.PrestigeLevels))
	m.logger.Info("prestige reset",
		zap.Int("earned", earned),
		zap.Int("echoes", s.Echoes),
		zap.Int("prestige_count", s.PrestigeCount),
	)
	bus.Emit(event.PrestigeReset, event.PrestigeResetPayload{Earned: earned, Total: s.Echoes})
	return true
}
