// Package state holds GameState, the aggregate root of one run, together with
// its serialisable snapshot forms and the rules for rebuilding live state from them.
package state

import (
	"math"

	"github.com/cory-johannsen/delve/internal/game/buff"
	"github.com/cory-johannsen/delve/internal/game/enemy"
	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/hero"
	"github.com/cory-johannsen/delve/internal/game/item"
	"github.com/cory-johannsen/delve/internal/game/stats"
)

// Status is the dungeon state machine state.
type Status string

const (
	StatusFighting  Status = "fighting"
	StatusPartyWipe Status = "party_wipe"
	StatusCooldown  Status = "encounter_cooldown"
)

// Run constants.
const (
	// EncountersPerFloor is the number of regular encounters that unlock the floor boss.
	EncountersPerFloor = 10
	// EncounterCooldownSeconds is the pause between encounters before meta reductions.
	EncounterCooldownSeconds = 3.0
	// MinEncounterCooldown bounds the reduced cooldown from below.
	MinEncounterCooldown = 0.5
	// LootPoolCap is the number of uncollected drops kept; the oldest is discarded first.
	LootPoolCap = 20
)

// Unlock is the recruitment state of a hero definition.
type Unlock string

const (
	Locked    Unlock = "locked"
	Available Unlock = "available"
	Recruited Unlock = "recruited"
)

// Options are player toggles that persist across prestige resets.
type Options struct {
	AutoBoss bool `json:"auto_boss"`
	AutoLoot bool `json:"auto_loot"`
}

// UIFlags are intent flags the external renderer reads and clears.
type UIFlags struct {
	BossUnlockReached bool `json:"boss_unlock_reached"`
	InventoryFull     bool `json:"inventory_full"`
	ShopRefreshed     bool `json:"shop_refreshed"`
	// BossAnnouncedFloor is the last floor for which boss.unlocked was emitted.
	BossAnnouncedFloor int `json:"boss_announced_floor"`
}

// TickDamage accumulates combat totals over the current tick for display.
type TickDamage struct {
	Dealt      float64 `json:"dealt"`
	Taken      float64 `json:"taken"`
	Mitigated  float64 `json:"mitigated"`
	Avoided    float64 `json:"avoided"`
	Redirected float64 `json:"redirected"`
	Healed     float64 `json:"healed"`
}

// Reset zeroes every accumulator.
func (t *TickDamage) Reset() { *t = TickDamage{} }

// RunStats are counters for the current run.
type RunStats struct {
	Kills      int `json:"kills"`
	BossKills  int `json:"boss_kills"`
	GoldEarned int `json:"gold_earned"`
}

// GameState is the complete mutable state of one run plus the permanent progress
// carried into it. It is owned by exactly one session and is not safe for
// concurrent use.
type GameState struct {
	Gold             int
	Floor            int
	HighestFloor     int
	EncounterIndex   int
	Status           Status
	Heroes           []*hero.Hero
	Enemy            enemy.Enemy
	Inventory        *item.Inventory
	Shop             []*item.Item
	ShopTimer        float64
	Loot             []*item.Item
	CooldownTimer    float64
	BossFightPending bool
	Elapsed          float64

	Echoes         int
	PrestigeLevels map[string]int
	PrestigeCount  int
	BestFloorEver  int
	HeroUnlocks    map[string]Unlock
	Options        Options

	UI         UIFlags
	TickDamage TickDamage
	Stats      RunStats
	Meta       stats.Meta
}

// Hero returns the party member with definition ID id.
func (s *GameState) Hero(id string) (*hero.Hero, bool) {
	for _, h := range s.Heroes {
		if h.ID() == id {
			return h, true
		}
	}
	return nil, false
}

// FightingHeroes returns the party members with status fighting, in party order.
func (s *GameState) FightingHeroes() []*hero.Hero {
	out := make([]*hero.Hero, 0, len(s.Heroes))
	for _, h := range s.Heroes {
		if h.IsFighting() {
			out = append(out, h)
		}
	}
	return out
}

// PartyGoldFind sums the gold-find bonus of every hero.
func (s *GameState) PartyGoldFind() float64 {
	total := 0.0
	for _, h := range s.Heroes {
		total += h.Stats().GoldFind
	}
	return total
}

// BossUnlocked reports whether the floor boss may be challenged.
func (s *GameState) BossUnlocked() bool {
	return s.EncounterIndex >= EncountersPerFloor
}

// EncounterCooldown returns the pause between encounters after meta reductions.
func (s *GameState) EncounterCooldown() float64 {
	return math.Max(MinEncounterCooldown, EncounterCooldownSeconds*(1-s.Meta.CooldownPct))
}

// AddGold changes Gold by delta and emits gold.changed.
//
// Postcondition: Gold >= 0. Positive deltas also count toward Stats.GoldEarned.
func (s *GameState) AddGold(delta int, bus *event.Bus) {
	if delta == 0 {
		return
	}
	if s.Gold+delta < 0 {
		delta = -s.Gold
	}
	s.Gold += delta
	if delta > 0 {
		s.Stats.GoldEarned += delta
	}
	bus.Emit(event.GoldChanged, event.GoldChangedPayload{Gold: s.Gold, Delta: delta})
}

// AddLoot appends drops to the loot pool, discarding the oldest beyond LootPoolCap.
//
// Postcondition: len(Loot) <= LootPoolCap.
func (s *GameState) AddLoot(items ...*item.Item) {
	s.Loot = append(s.Loot, items...)
	if over := len(s.Loot) - LootPoolCap; over > 0 {
		s.Loot = append([]*item.Item(nil), s.Loot[over:]...)
	}
}

// TakeLoot removes and returns the loot entry with id.
func (s *GameState) TakeLoot(id string) (*item.Item, bool) {
	for i, it := range s.Loot {
		if it.ID == id {
			s.Loot = append(s.Loot[:i], s.Loot[i+1:]...)
			return it, true
		}
	}
	return nil, false
}

// SetMeta replaces the prestige bonuses and recomputes every hero.
func (s *GameState) SetMeta(meta stats.Meta) {
	s.Meta = meta
	for _, h := range s.Heroes {
		h.SetMeta(meta)
	}
}

// Recruit adds a new level-1 hero for def to the party and marks it recruited.
//
// Precondition: def must be valid and not already in the party.
func (s *GameState) Recruit(def *hero.Definition) *hero.Hero {
	h := hero.New(def, s.Meta)
	s.Heroes = append(s.Heroes, h)
	s.HeroUnlocks[def.ID] = Recruited
	return h
}

// Catalog is the content the state needs to build and rebuild live objects.
// It is implemented by the content package.
type Catalog interface {
	Hero(id string) (*hero.Definition, bool)
	Heroes() []*hero.Definition
	Buff(id string) (*buff.Definition, bool)
	Items() *item.Registry
	Template(id string) (*enemy.Template, bool)
}

// New bootstraps a fresh run from the permanent record.
// Starter heroes are recruited; heroes recruited in an earlier run stay available.
//
// Postcondition: Status == StatusCooldown with a full cooldown; Floor == 1; Gold == meta.StartGold.
func New(rec PermanentRecord, cat Catalog, meta stats.Meta) *GameState {
	s := &GameState{
		Floor:          1,
		HighestFloor:   1,
		Status:         StatusCooldown,
		Inventory:      item.NewInventory(item.DefaultCapacity),
		Echoes:         rec.Echoes,
		PrestigeLevels: copyLevels(rec.PrestigeLevels),
		PrestigeCount:  rec.PrestigeCount,
		BestFloorEver:  max(1, rec.BestFloorEver),
		HeroUnlocks:    make(map[string]Unlock),
		Options:        rec.Options,
		Meta:           meta,
		Gold:           int(math.Floor(meta.StartGold)),
	}
	s.CooldownTimer = s.EncounterCooldown()
	for id, u := range rec.HeroUnlocks {
		if u == Recruited {
			u = Available
		}
		s.HeroUnlocks[id] = u
	}
	for _, def := range cat.Heroes() {
		if def.Starter {
			s.Recruit(def)
			continue
		}
		if _, ok := s.HeroUnlocks[def.ID]; !ok {
			s.HeroUnlocks[def.ID] = Locked
		}
	}
	return s
}

func copyLevels(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
