package state

import (
	"context"
	"errors"
	"slices"

	"github.com/cory-johannsen/delve/internal/game/enemy"
	"github.com/cory-johannsen/delve/internal/game/hero"
	"github.com/cory-johannsen/delve/internal/game/item"
)

// SnapshotVersion is written into every run snapshot.
const SnapshotVersion = 1

// ErrNotFound is returned by a Store when no record exists for the profile.
var ErrNotFound = errors.New("save not found")

// Store persists run snapshots and permanent records keyed by profile ID.
type Store interface {
	SaveRun(ctx context.Context, profileID string, snap Snapshot) error
	LoadRun(ctx context.Context, profileID string) (Snapshot, error)
	SavePermanent(ctx context.Context, profileID string, rec PermanentRecord) error
	LoadPermanent(ctx context.Context, profileID string) (PermanentRecord, error)
}

// BuffSnapshot is the serialisable form of an active buff.
type BuffSnapshot struct {
	ID        string  `json:"id"`
	Potency   float64 `json:"potency"`
	Remaining float64 `json:"remaining"`
}

// HeroSnapshot is the serialisable form of a hero.
type HeroSnapshot struct {
	ID          string                   `json:"id"`
	Level       int                      `json:"level"`
	XP          int                      `json:"xp"`
	Status      hero.Status              `json:"status"`
	HP          float64                  `json:"hp"`
	Equipment   map[item.Slot]*item.Item `json:"equipment"`
	Buffs       []BuffSnapshot           `json:"buffs"`
	AttackTimer float64                  `json:"attack_timer"`
	BuffTimer   float64                  `json:"buff_timer"`
}

// PermanentRecord is the progress that survives a prestige reset.
type PermanentRecord struct {
	Echoes         int               `json:"echoes"`
	PrestigeLevels map[string]int    `json:"prestige_levels"`
	PrestigeCount  int               `json:"prestige_count"`
	BestFloorEver  int               `json:"best_floor_ever"`
	HeroUnlocks    map[string]Unlock `json:"hero_unlocks"`
	Options        Options           `json:"options"`
}

// Snapshot is the serialisable form of a whole run.
type Snapshot struct {
	Version          int             `json:"version"`
	Gold             int             `json:"gold"`
	Floor            int             `json:"floor"`
	HighestFloor     int             `json:"highest_floor"`
	EncounterIndex   int             `json:"encounter_index"`
	Status           Status          `json:"status"`
	Heroes           []HeroSnapshot  `json:"heroes"`
	Enemy            *enemy.Snapshot `json:"enemy,omitempty"`
	Inventory        []*item.Item    `json:"inventory"`
	Shop             []*item.Item    `json:"shop"`
	ShopTimer        float64         `json:"shop_timer"`
	Loot             []*item.Item    `json:"loot"`
	CooldownTimer    float64         `json:"cooldown_timer"`
	BossFightPending bool            `json:"boss_fight_pending"`
	Elapsed          float64         `json:"elapsed"`
	UI               UIFlags         `json:"ui"`
	Stats            RunStats        `json:"stats"`
	Permanent        PermanentRecord `json:"permanent"`
}

// Permanent extracts the progress that survives a prestige reset.
func (s *GameState) Permanent() PermanentRecord {
	unlocks := make(map[string]Unlock, len(s.HeroUnlocks))
	for k, v := range s.HeroUnlocks {
		unlocks[k] = v
	}
	return PermanentRecord{
		Echoes:         s.Echoes,
		PrestigeLevels: copyLevels(s.PrestigeLevels),
		PrestigeCount:  s.PrestigeCount,
		BestFloorEver:  s.BestFloorEver,
		HeroUnlocks:    unlocks,
		Options:        s.Options,
	}
}

// Snapshot captures the whole run. Items are shared with the live state; callers
// that keep the snapshot across further ticks should encode it first.
func (s *GameState) Snapshot() Snapshot {
	snap := Snapshot{
		Version:          SnapshotVersion,
		Gold:             s.Gold,
		Floor:            s.Floor,
		HighestFloor:     s.HighestFloor,
		EncounterIndex:   s.EncounterIndex,
		Status:           s.Status,
		Inventory:        s.Inventory.Items(),
		Shop:             slices.Clone(s.Shop),
		ShopTimer:        s.ShopTimer,
		Loot:             slices.Clone(s.Loot),
		CooldownTimer:    s.CooldownTimer,
		BossFightPending: s.BossFightPending,
		Elapsed:          s.Elapsed,
		UI:               s.UI,
		Stats:            s.Stats,
		Permanent:        s.Permanent(),
	}
	for _, h := range s.Heroes {
		snap.Heroes = append(snap.Heroes, heroSnapshot(h))
	}
	if s.Enemy != nil {
		e := s.Enemy.Snapshot()
		snap.Enemy = &e
	}
	return snap
}

func heroSnapshot(h *hero.Hero) HeroSnapshot {
	hs := HeroSnapshot{
		ID:          h.ID(),
		Level:       h.Level,
		XP:          h.XP,
		Status:      h.Status,
		HP:          h.HP,
		Equipment:   h.Equipment.Filled(),
		AttackTimer: h.AttackTimer,
		BuffTimer:   h.BuffTimer,
	}
	for _, a := range h.Buffs.All() {
		hs.Buffs = append(hs.Buffs, BuffSnapshot{ID: a.Def.ID, Potency: a.Potency, Remaining: a.Remaining})
	}
	return hs
}
