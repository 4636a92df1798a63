package state_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/delve/internal/game/buff"
	"github.com/cory-johannsen/delve/internal/game/enemy"
	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/hero"
	"github.com/cory-johannsen/delve/internal/game/item"
	"github.com/cory-johannsen/delve/internal/game/state"
	"github.com/cory-johannsen/delve/internal/game/stats"
)

type fakeCatalog struct {
	heroes    []*hero.Definition
	buffs     map[string]*buff.Definition
	items     *item.Registry
	templates map[string]*enemy.Template
}

func (c *fakeCatalog) Hero(id string) (*hero.Definition, bool) {
	for _, h := range c.heroes {
		if h.ID == id {
			return h, true
		}
	}
	return nil, false
}
func (c *fakeCatalog) Heroes() []*hero.Definition { return c.heroes }
func (c *fakeCatalog) Buff(id string) (*buff.Definition, bool) {
	b, ok := c.buffs[id]
	return b, ok
}
func (c *fakeCatalog) Items() *item.Registry { return c.items }
func (c *fakeCatalog) Template(id string) (*enemy.Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

func newCatalog(t *testing.T) *fakeCatalog {
	reg := item.NewRegistry()
	require.NoError(t, reg.RegisterBase(&item.BaseDef{
		ID: "hauberk", Name: "Hauberk", Kind: item.KindBody, PrimaryStat: stats.MaxHP, PrimaryBase: 40,
	}))
	base := stats.Base{
		Kind: stats.KindStandard, DamageType: stats.Physical,
		Attributes: stats.Attributes{Strength: 5, Endurance: 5},
		Damage:     5, MaxHP: 100, AttackSpeed: 1, CritDamage: 1.5,
	}
	return &fakeCatalog{
		heroes: []*hero.Definition{
			{ID: "knight", Name: "Knight", Starter: true, Stats: base},
			{ID: "archer", Name: "Archer", RecruitCost: 100, Stats: base},
		},
		buffs: map[string]*buff.Definition{
			"might": {ID: "might", Name: "Might", Duration: 5, Modifiers: map[stats.Stat]float64{stats.Damage: 3}},
		},
		items:     reg,
		templates: map[string]*enemy.Template{"rat": {ID: "rat", Name: "Rat", UnlockFloor: 1, HP: 10}},
	}
}

func TestNew_BootstrapsStarters(t *testing.T) {
	cat := newCatalog(t)
	rec := state.PermanentRecord{
		Echoes:      12,
		HeroUnlocks: map[string]state.Unlock{"archer": state.Recruited},
	}
	s := state.New(rec, cat, stats.Meta{StartGold: 50})

	require.Len(t, s.Heroes, 1)
	assert.Equal(t, "knight", s.Heroes[0].ID())
	assert.Equal(t, state.Recruited, s.HeroUnlocks["knight"])
	assert.Equal(t, state.Available, s.HeroUnlocks["archer"], "recruited heroes return to available after a reset")
	assert.Equal(t, state.StatusCooldown, s.Status)
	assert.InDelta(t, state.EncounterCooldownSeconds, s.CooldownTimer, 1e-9)
	assert.Equal(t, 50, s.Gold)
	assert.Equal(t, 12, s.Echoes)
	assert.Equal(t, 1, s.Floor)
	assert.Equal(t, item.DefaultCapacity, s.Inventory.Capacity())
}

func TestEncounterCooldown_MetaReduction(t *testing.T) {
	s := state.New(state.PermanentRecord{}, newCatalog(t), stats.Meta{CooldownPct: 0.5})
	assert.InDelta(t, 1.5, s.EncounterCooldown(), 1e-9)
	s.Meta.CooldownPct = 0.99
	assert.InDelta(t, state.MinEncounterCooldown, s.EncounterCooldown(), 1e-9)
}

func TestAddLoot_DropsOldest(t *testing.T) {
	s := state.New(state.PermanentRecord{}, newCatalog(t), stats.Meta{})
	for i := range state.LootPoolCap + 3 {
		s.AddLoot(&item.Item{ID: string(rune('a' + i))})
	}
	require.Len(t, s.Loot, state.LootPoolCap)
	assert.Equal(t, "d", s.Loot[0].ID)

	it, ok := s.TakeLoot("e")
	require.True(t, ok)
	assert.Equal(t, "e", it.ID)
	assert.Len(t, s.Loot, state.LootPoolCap-1)
}

func TestAddGold_EmitsAndFloorsAtZero(t *testing.T) {
	s := state.New(state.PermanentRecord{}, newCatalog(t), stats.Meta{})
	bus := event.NewBus(zap.NewNop())
	var got []event.GoldChangedPayload
	bus.On(event.GoldChanged, func(p any) { got = append(got, p.(event.GoldChangedPayload)) })

	s.AddGold(30, bus)
	s.AddGold(-50, bus)
	s.AddGold(0, bus)
	assert.Equal(t, 0, s.Gold)
	assert.Equal(t, 30, s.Stats.GoldEarned)
	assert.Equal(t, []event.GoldChangedPayload{{Gold: 30, Delta: 30}, {Gold: 0, Delta: -30}}, got)
}

func TestBossUnlocked(t *testing.T) {
	s := state.New(state.PermanentRecord{}, newCatalog(t), stats.Meta{})
	s.EncounterIndex = state.EncountersPerFloor - 1
	assert.False(t, s.BossUnlocked())
	s.EncounterIndex++
	assert.True(t, s.BossUnlocked())
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	cat := newCatalog(t)
	s := state.New(state.PermanentRecord{Options: state.Options{AutoLoot: true}}, cat, stats.Meta{})
	s.Gold = 321
	s.Floor = 4
	s.HighestFloor = 4
	s.EncounterIndex = 6
	s.Status = state.StatusFighting
	s.Enemy = enemy.NewMonsterGroup("rat", "Rat x3", 4, 3, 10, 1, 1, enemy.Rewards{Gold: 3, XP: 4})
	k := s.Heroes[0]
	_, err := k.Equip(&item.Item{ID: "i1", BaseID: "hauberk", Kind: item.KindBody, RequiredLevel: 1,
		Primary: item.Affix{Stat: stats.MaxHP, Kind: item.Flat, Value: 40}})
	require.NoError(t, err)
	require.NoError(t, k.ApplyBuff(cat.buffs["might"], 1.2, 4))
	k.HP = 77
	s.Inventory.Add(&item.Item{ID: "i2", BaseID: "hauberk", Kind: item.KindBody})

	data, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)
	var snap state.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	got, err := state.Hydrate(snap, cat, stats.Meta{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 321, got.Gold)
	assert.Equal(t, 6, got.EncounterIndex)
	assert.Equal(t, state.StatusFighting, got.Status)
	require.NotNil(t, got.Enemy)
	assert.Equal(t, "Rat x3", got.Enemy.Name())
	require.Len(t, got.Heroes, 1)
	gk := got.Heroes[0]
	assert.Equal(t, k.Stats(), gk.Stats())
	assert.InDelta(t, 77.0, gk.HP, 1e-9)
	assert.True(t, gk.Buffs.Has("might"))
	assert.NotNil(t, gk.Equipment.Get(item.SlotBody))
	assert.Equal(t, 1, got.Inventory.Len())
	assert.True(t, got.Options.AutoLoot)
}

func TestHydrate_SkipsUnknownIDsAndClampsHP(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)
	cat := newCatalog(t)

	snap := state.Snapshot{
		Floor:  2,
		Status: state.StatusFighting,
		Heroes: []state.HeroSnapshot{
			{ID: "knight", Level: 1, Status: hero.Fighting, HP: 99999, Buffs: []state.BuffSnapshot{{ID: "ghost", Potency: 1, Remaining: 3}}},
			{ID: "necromancer", Level: 3, HP: 10},
		},
		Inventory: []*item.Item{{ID: "x", BaseID: "vorpal_blade", Kind: item.KindWeapon}},
		Enemy:     &enemy.Snapshot{Variant: enemy.VariantGroup, TemplateID: "dragon", Name: "Dragon x1", MaxHP: 10, HP: 10, PerUnitHP: 10, Count: 1},
		Permanent: state.PermanentRecord{HeroUnlocks: map[string]state.Unlock{"necromancer": state.Available}},
	}
	got, err := state.Hydrate(snap, cat, stats.Meta{}, logger)
	require.NoError(t, err)

	require.Len(t, got.Heroes, 1)
	k := got.Heroes[0]
	assert.Equal(t, k.MaxHP(), k.HP, "HP clamped to max")
	assert.Equal(t, 0, k.Buffs.Len())
	assert.Equal(t, 0, got.Inventory.Len())
	assert.Nil(t, got.Enemy)
	assert.Equal(t, state.StatusCooldown, got.Status, "fight without a valid enemy falls back to cooldown")
	assert.NotContains(t, got.HeroUnlocks, "necromancer")
	assert.Equal(t, state.Locked, got.HeroUnlocks["archer"])

	assert.GreaterOrEqual(t, logs.Len(), 5)
	for _, e := range logs.All() {
		assert.Equal(t, zapcore.WarnLevel, e.Level)
	}
}

func TestHydrate_ZeroHPIncapacitates(t *testing.T) {
	snap := state.Snapshot{
		Floor:  1,
		Status: state.StatusPartyWipe,
		Heroes: []state.HeroSnapshot{{ID: "knight", Level: 2, Status: hero.Fighting, HP: 0}},
	}
	got, err := state.Hydrate(snap, newCatalog(t), stats.Meta{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, hero.Incapacitated, got.Heroes[0].Status)
}

func TestHydrate_RejectsBadStatus(t *testing.T) {
	_, err := state.Hydrate(state.Snapshot{Floor: 1, Status: "napping"}, newCatalog(t), stats.Meta{}, zap.NewNop())
	assert.Error(t, err)
	_, err = state.Hydrate(state.Snapshot{Floor: 0, Status: state.StatusCooldown}, newCatalog(t), stats.Meta{}, zap.NewNop())
	assert.Error(t, err)
	_, err = state.Hydrate(state.Snapshot{Version: state.SnapshotVersion + 1, Floor: 1, Status: state.StatusCooldown}, newCatalog(t), stats.Meta{}, zap.NewNop())
	assert.Error(t, err)
}
