// Package dungeon drives the encounter state machine: cooldown between fights,
// the fight itself, rewards and floor advancement, and recovery after a wipe.
package dungeon

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/buff"
	"github.com/cory-johannsen/delve/internal/game/combat"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/enemy"
	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/item"
	"github.com/cory-johannsen/delve/internal/game/state"
)

// RecoveryRate is the fraction of max HP an incapacitated hero recovers per
// second outside of a fight.
const RecoveryRate = 0.10

// Manager advances one GameState through the dungeon.
//
// Manager is not safe for concurrent use; it belongs to one session.
type Manager struct {
	spawner  *enemy.Spawner
	gen      *item.Generator
	roller   *dice.Roller
	buffPool []*buff.Definition
	logger   *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: spawner, gen, roller and logger must be non-nil.
func NewManager(spawner *enemy.Spawner, gen *item.Generator, roller *dice.Roller, buffPool []*buff.Definition, logger *zap.Logger) *Manager {
	return &Manager{spawner: spawner, gen: gen, roller: roller, buffPool: buffPool, logger: logger}
}

// Update advances s by dt seconds.
//
// Precondition: dt should be small (the session splits long deltas); dt <= 0 is a no-op.
// Postcondition: s.TickDamage holds this update's combat totals; every state change
// emitted dungeon.status.
func (m *Manager) Update(s *state.GameState, dt float64, bus *event.Bus) combat.Report {
	var rep combat.Report
	if dt <= 0 {
		return rep
	}
	s.Elapsed += dt
	s.TickDamage.Reset()
	m.upkeep(s, dt)

	switch s.Status {
	case state.StatusCooldown:
		recoverDowned(s, dt)
		s.CooldownTimer -= dt
		if s.CooldownTimer <= 0 {
			m.startEncounter(s, bus)
		}
	case state.StatusFighting:
		if s.Enemy == nil {
			s.CooldownTimer = s.EncounterCooldown()
			m.transition(s, state.StatusCooldown, false, bus)
			return rep
		}
		rep = combat.Resolve(combat.Round{
			Party:    s.Heroes,
			Enemy:    s.Enemy,
			Floor:    s.Floor,
			BuffPool: m.buffPool,
		}, dt, m.roller, &s.TickDamage)
		switch {
		case !s.Enemy.IsAlive():
			m.victory(s, bus)
		case len(s.FightingHeroes()) == 0:
			m.wipe(s, bus)
		}
	case state.StatusPartyWipe:
		recoverDowned(s, dt)
		if partyRecovered(s) {
			for _, h := range s.Heroes {
				h.Revive()
			}
			s.CooldownTimer = s.EncounterCooldown()
			m.transition(s, state.StatusCooldown, true, bus)
		}
	}
	return rep
}

// upkeep decays buffs on every hero and regenerates fighting heroes.
func (m *Manager) upkeep(s *state.GameState, dt float64) {
	for _, h := range s.Heroes {
		h.TickBuffs(dt)
		if h.IsFighting() {
			s.TickDamage.Healed += h.Regenerate(dt)
		}
	}
}

// recoverDowned heals incapacitated heroes at RecoveryRate and revives each one
// that reaches full health, unless the whole party is down.
func recoverDowned(s *state.GameState, dt float64) {
	wiped := s.Status == state.StatusPartyWipe
	for _, h := range s.Heroes {
		if h.IsFighting() {
			continue
		}
		h.HP = math.Min(h.MaxHP(), h.HP+h.MaxHP()*RecoveryRate*dt)
		if !wiped && h.IsFullHP() {
			h.Revive()
		}
	}
}

func partyRecovered(s *state.GameState) bool {
	for _, h := range s.Heroes {
		if !h.IsFullHP() {
			return false
		}
	}
	return true
}

func (m *Manager) startEncounter(s *state.GameState, bus *event.Bus) {
	var e enemy.Enemy
	if s.BossFightPending || (s.Options.AutoBoss && s.BossUnlocked()) {
		e = m.spawner.Boss(s.Floor)
		s.BossFightPending = false
		bus.Notify(event.SeverityInfo, "%s blocks the way down.", e.Name())
	} else {
		g, err := m.spawner.Encounter(s.Floor)
		if err != nil {
			m.logger.Error("spawning encounter", zap.Int("floor", s.Floor), zap.Error(err))
			s.CooldownTimer = s.EncounterCooldown()
			return
		}
		e = g
	}
	s.Enemy = e
	for _, h := range s.Heroes {
		h.AttackTimer = 0
	}
	m.logger.Debug("encounter started",
		zap.String("enemy", e.Name()),
		zap.Int("floor", s.Floor),
		zap.Bool("boss", e.IsBoss()),
	)
	m.transition(s, state.StatusFighting, false, bus)
}

func (m *Manager) victory(s *state.GameState, bus *event.Bus) {
	e := s.Enemy
	r := e.Rewards()
	gold := int(math.Floor(float64(r.Gold) * (1 + s.PartyGoldFind())))
	s.AddGold(gold, bus)
	for _, h := range s.Heroes {
		gained := h.GainXP(r.XP)
		for lv := h.Level - gained + 1; lv <= h.Level; lv++ {
			bus.Emit(event.HeroLeveledUp, event.HeroLeveledPayload{HeroID: h.ID(), Level: lv})
		}
	}
	s.Stats.Kills++
	if e.IsBoss() {
		s.Stats.BossKills++
	}
	bus.Emit(event.EnemyDefeated, event.EnemyDefeatedPayload{
		Name:  e.Name(),
		Boss:  e.IsBoss(),
		Gold:  gold,
		XP:    r.XP,
		Floor: s.Floor,
	})

	drops, err := enemy.RollLoot(e, m.gen, m.roller)
	if err != nil {
		m.logger.Error("rolling loot", zap.Error(err))
	}
	for _, it := range drops {
		if !(s.Options.AutoLoot && s.Inventory.Add(it)) {
			s.AddLoot(it)
		}
		bus.Emit(event.ItemDropped, event.ItemDroppedPayload{Item: it})
	}
	s.UI.InventoryFull = s.Inventory.Full()

	s.Enemy = nil
	if e.IsBoss() {
		s.Floor++
		s.EncounterIndex = 0
		s.HighestFloor = max(s.HighestFloor, s.Floor)
		s.BestFloorEver = max(s.BestFloorEver, s.HighestFloor)
		s.UI.BossUnlockReached = false
		m.logger.Info("floor advanced", zap.Int("floor", s.Floor))
		bus.Emit(event.FloorAdvanced, event.FloorAdvancedPayload{Floor: s.Floor})
	} else {
		s.EncounterIndex = min(state.EncountersPerFloor, s.EncounterIndex+1)
	}
	s.CooldownTimer = s.EncounterCooldown()
	m.transition(s, state.StatusCooldown, false, bus)
}

func (m *Manager) wipe(s *state.GameState, bus *event.Bus) {
	m.logger.Info("party wiped",
		zap.Int("floor", s.Floor),
		zap.String("enemy", s.Enemy.Name()),
	)
	s.Enemy = nil
	s.BossFightPending = false
	m.transition(s, state.StatusPartyWipe, false, bus)
	bus.Notify(event.SeverityWarning, "The party has fallen and is recovering.")
}

// ChallengeBoss queues the floor boss as the next encounter.
//
// Postcondition: Returns false with a warning notification when the boss is not unlocked.
func (m *Manager) ChallengeBoss(s *state.GameState, bus *event.Bus) bool {
	if !s.BossUnlocked() {
		bus.Notify(event.SeverityWarning, "Clear %d encounters on this floor to face its boss.", state.EncountersPerFloor)
		return false
	}
	if s.Enemy != nil && s.Enemy.IsBoss() {
		bus.Notify(event.SeverityWarning, "The boss fight is already under way.")
		return false
	}
	s.BossFightPending = true
	return true
}

// Retreat abandons the current fight without rewards.
//
// Postcondition: Returns false with a warning notification when not fighting.
func (m *Manager) Retreat(s *state.GameState, bus *event.Bus) bool {
	if s.Status != state.StatusFighting {
		bus.Notify(event.SeverityWarning, "There is nothing to retreat from.")
		return false
	}
	s.Enemy = nil
	s.BossFightPending = false
	for _, h := range s.Heroes {
		h.AttackTimer = 0
	}
	s.CooldownTimer = s.EncounterCooldown()
	m.transition(s, state.StatusCooldown, false, bus)
	return true
}

func (m *Manager) transition(s *state.GameState, to state.Status, fullHeal bool, bus *event.Bus) {
	from := s.Status
	s.Status = to
	m.logger.Debug("dungeon status changed",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Bool("full_heal", fullHeal),
	)
	bus.Emit(event.DungeonStatusChanged, event.StatusChangedPayload{
		From:     string(from),
		To:       string(to),
		FullHeal: fullHeal,
	})
}
