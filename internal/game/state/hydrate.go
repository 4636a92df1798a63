package state

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/enemy"
	"github.com/cory-johannsen/delve/internal/game/hero"
	"github.com/cory-johannsen/delve/internal/game/item"
	"github.com/cory-johannsen/delve/internal/game/stats"
)

// Hydrate rebuilds live state from a run snapshot.
// Unknown hero, item, buff and enemy template IDs are skipped with a warning.
// Every hero's stats are recomputed against meta and HP is clamped to the new maximum.
//
// Precondition: cat and logger must be non-nil.
// Postcondition: Returns an error only for snapshots that cannot describe a run
// (unknown status, non-positive floor, or a version newer than SnapshotVersion).
func Hydrate(snap Snapshot, cat Catalog, meta stats.Meta, logger *zap.Logger) (*GameState, error) {
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("hydrate: snapshot version %d is newer than %d", snap.Version, SnapshotVersion)
	}
	switch snap.Status {
	case StatusFighting, StatusPartyWipe, StatusCooldown:
	default:
		return nil, fmt.Errorf("hydrate: unknown status %q", snap.Status)
	}
	if snap.Floor < 1 {
		return nil, fmt.Errorf("hydrate: floor must be >= 1, got %d", snap.Floor)
	}

	rec := snap.Permanent
	s := &GameState{
		Gold:             max(0, snap.Gold),
		Floor:            snap.Floor,
		HighestFloor:     max(snap.HighestFloor, snap.Floor),
		EncounterIndex:   min(max(0, snap.EncounterIndex), EncountersPerFloor),
		Status:           snap.Status,
		Inventory:        item.NewInventory(item.DefaultCapacity),
		ShopTimer:        snap.ShopTimer,
		CooldownTimer:    snap.CooldownTimer,
		BossFightPending: snap.BossFightPending,
		Elapsed:          snap.Elapsed,
		Echoes:           max(0, rec.Echoes),
		PrestigeLevels:   copyLevels(rec.PrestigeLevels),
		PrestigeCount:    rec.PrestigeCount,
		BestFloorEver:    max(rec.BestFloorEver, snap.HighestFloor, snap.Floor),
		HeroUnlocks:      make(map[string]Unlock),
		Options:          rec.Options,
		UI:               snap.UI,
		Stats:            snap.Stats,
		Meta:             meta,
	}

	for id, u := range rec.HeroUnlocks {
		if _, ok := cat.Hero(id); !ok {
			logger.Warn("skipping unlock for unknown hero", zap.String("hero", id))
			continue
		}
		s.HeroUnlocks[id] = u
	}
	for _, def := range cat.Heroes() {
		if _, ok := s.HeroUnlocks[def.ID]; !ok {
			s.HeroUnlocks[def.ID] = Locked
		}
	}

	for _, hs := range snap.Heroes {
		h, ok := hydrateHero(hs, cat, meta, logger)
		if !ok {
			continue
		}
		if _, dup := s.Hero(h.ID()); dup {
			logger.Warn("skipping duplicate hero", zap.String("hero", h.ID()))
			continue
		}
		s.Heroes = append(s.Heroes, h)
		s.HeroUnlocks[h.ID()] = Recruited
	}
	for id, u := range s.HeroUnlocks {
		if _, inParty := s.Hero(id); u == Recruited && !inParty {
			s.HeroUnlocks[id] = Available
		}
	}

	for _, it := range knownItems(snap.Inventory, cat, logger) {
		if !s.Inventory.Add(it) {
			logger.Warn("inventory full during hydration, dropping item", zap.String("item", it.ID))
		}
	}
	s.Shop = knownItems(snap.Shop, cat, logger)
	s.Loot = knownItems(snap.Loot, cat, logger)
	if len(s.Loot) > LootPoolCap {
		s.Loot = s.Loot[len(s.Loot)-LootPoolCap:]
	}

	if snap.Enemy != nil {
		s.Enemy = hydrateEnemy(*snap.Enemy, cat, logger)
	}
	if s.Status == StatusFighting && (s.Enemy == nil || !s.Enemy.IsAlive()) {
		s.Enemy = nil
		s.Status = StatusCooldown
		s.CooldownTimer = s.EncounterCooldown()
	}
	if s.Status != StatusFighting {
		s.Enemy = nil
	}
	return s, nil
}

func hydrateHero(hs HeroSnapshot, cat Catalog, meta stats.Meta, logger *zap.Logger) (*hero.Hero, bool) {
	def, ok := cat.Hero(hs.ID)
	if !ok {
		logger.Warn("skipping unknown hero", zap.String("hero", hs.ID))
		return nil, false
	}
	h := hero.New(def, meta)
	h.Level = min(max(1, hs.Level), stats.MaxLevel)
	h.XP = max(0, hs.XP)
	h.Status = hs.Status
	if h.Status != hero.Fighting && h.Status != hero.Incapacitated {
		h.Status = hero.Fighting
	}
	h.HP = hs.HP
	h.AttackTimer = max(0, hs.AttackTimer)
	h.BuffTimer = max(0, hs.BuffTimer)

	for _, slot := range item.Slots {
		it := hs.Equipment[slot]
		if it == nil {
			continue
		}
		if _, ok := cat.Items().Base(it.BaseID); !ok {
			logger.Warn("skipping unknown equipped item",
				zap.String("hero", hs.ID), zap.String("item", it.ID), zap.String("base", it.BaseID))
			continue
		}
		if !slot.Accepts(it.Kind) {
			logger.Warn("skipping item in wrong slot",
				zap.String("hero", hs.ID), zap.String("item", it.ID), zap.String("slot", string(slot)))
			continue
		}
		h.Equipment.Put(slot, it)
	}
	for _, bs := range hs.Buffs {
		def, ok := cat.Buff(bs.ID)
		if !ok {
			logger.Warn("skipping unknown buff", zap.String("hero", hs.ID), zap.String("buff", bs.ID))
			continue
		}
		if err := h.Buffs.Apply(def, bs.Potency, bs.Remaining); err != nil {
			logger.Warn("skipping invalid buff", zap.String("hero", hs.ID), zap.Error(err))
		}
	}
	h.RestoreStats(meta)
	return h, true
}

func knownItems(items []*item.Item, cat Catalog, logger *zap.Logger) []*item.Item {
	out := make([]*item.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if _, ok := cat.Items().Base(it.BaseID); !ok {
			logger.Warn("skipping unknown item", zap.String("item", it.ID), zap.String("base", it.BaseID))
			continue
		}
		out = append(out, it)
	}
	return out
}

func hydrateEnemy(es enemy.Snapshot, cat Catalog, logger *zap.Logger) enemy.Enemy {
	if es.Variant == enemy.VariantGroup {
		if _, ok := cat.Template(es.TemplateID); !ok {
			logger.Warn("skipping enemy with unknown template", zap.String("template", es.TemplateID))
			return nil
		}
	}
	e, err := enemy.Restore(es)
	if err != nil {
		logger.Warn("skipping invalid enemy", zap.Error(err))
		return nil
	}
	return e
}
