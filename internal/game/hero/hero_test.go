package hero_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/delve/internal/game/buff"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/hero"
	"github.com/cory-johannsen/delve/internal/game/item"
	"github.com/cory-johannsen/delve/internal/game/stats"
)

func knightDef() *hero.Definition {
	return &hero.Definition{
		ID:   "knight",
		Name: "Knight",
		Stats: stats.Base{
			Kind:        stats.KindStandard,
			DamageType:  stats.Physical,
			Attributes:  stats.Attributes{Strength: 10, Agility: 5, Endurance: 8},
			PerLevel:    stats.Attributes{Strength: 2, Agility: 1, Endurance: 2},
			Damage:      10,
			MaxHP:       100,
			Armor:       5,
			AttackSpeed: 1,
			CritChance:  0.05,
			CritDamage:  1.5,
			HPRegen:     1,
		},
	}
}

func priestDef() *hero.Definition {
	return &hero.Definition{
		ID:   "priest",
		Name: "Priest",
		Stats: stats.Base{
			Kind:        stats.KindPriest,
			DamageType:  stats.Magical,
			Attributes:  stats.Attributes{Intelligence: 4, Endurance: 4},
			MaxHP:       80,
			AttackSpeed: 1,
			CritDamage:  1.5,
			HealPower:   4,
			BuffChance:  0.5,
		},
	}
}

func duelistDef() *hero.Definition {
	return &hero.Definition{
		ID:   "duelist",
		Name: "Duelist",
		Stats: stats.Base{
			Kind:          stats.KindDuelist,
			DamageType:    stats.Physical,
			Attributes:    stats.Attributes{Strength: 6},
			Damage:        8,
			MaxHP:         90,
			AttackSpeed:   1.2,
			CritDamage:    1.5,
			RiposteChance: 0.5,
		},
	}
}

func roller(seed uint64) *dice.Roller {
	return dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop())
}

func might() *buff.Definition {
	return &buff.Definition{ID: "might", Name: "Might", Duration: 4, Modifiers: map[stats.Stat]float64{stats.Damage: 10}}
}

func TestDefinition_Validate(t *testing.T) {
	assert.NoError(t, knightDef().Validate())
	d := knightDef()
	d.ID = ""
	d.Stats.Kind = "bard"
	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id must not be empty")
	assert.Contains(t, err.Error(), "kind")
}

func TestNew_FullHealth(t *testing.T) {
	h := hero.New(knightDef(), stats.Meta{})
	assert.Equal(t, 1, h.Level)
	assert.Equal(t, hero.Fighting, h.Status)
	assert.Equal(t, h.MaxHP(), h.HP)
	assert.Equal(t, 260, h.Stats().MaxHP)
}

func TestGainXP_MultipleLevels(t *testing.T) {
	h := hero.New(knightDef(), stats.Meta{})
	h.HP = 100
	before := h.MaxHP()
	// 50 for L1->2, 68 for L2->3.
	gained := h.GainXP(50 + 68 + 5)
	assert.Equal(t, 2, gained)
	assert.Equal(t, 3, h.Level)
	assert.Equal(t, 5, h.XP)
	assert.InDelta(t, 100+(h.MaxHP()-before), h.HP, 1e-9)
}

func TestGainXP_StopsAtMaxLevel(t *testing.T) {
	h := hero.New(knightDef(), stats.Meta{})
	h.Level = stats.MaxLevel - 1
	h.Recompute()
	assert.Equal(t, 1, h.GainXP(1<<40))
	assert.Equal(t, stats.MaxLevel, h.Level)
	assert.Equal(t, 0, h.XP)
	assert.Equal(t, 0, h.GainXP(1000))
	assert.Equal(t, 0, h.XP)
}

func TestEquip_Guards(t *testing.T) {
	h := hero.New(knightDef(), stats.Meta{})

	_, err := h.Equip(&item.Item{ID: "c", Kind: "cape"})
	assert.ErrorIs(t, err, hero.ErrNoSlot)

	_, err = h.Equip(&item.Item{ID: "s", Kind: item.KindWeapon, RequiredLevel: 1, Classes: []string{"mage"}})
	assert.ErrorIs(t, err, hero.ErrClassRestricted)

	_, err = h.Equip(&item.Item{ID: "s", Kind: item.KindWeapon, RequiredLevel: 5})
	assert.True(t, errors.Is(err, hero.ErrLevelTooLow))
	assert.Nil(t, h.Equipment.Get(item.SlotWeapon), "failed equip must not change equipment")
}

func TestEquip_SwapAndRecompute(t *testing.T) {
	h := hero.New(knightDef(), stats.Meta{})
	base := h.Stats().Damage

	sword := &item.Item{ID: "a", Kind: item.KindWeapon, RequiredLevel: 1, Primary: item.Affix{Stat: stats.Damage, Value: 5}}
	prev, err := h.Equip(sword)
	require.NoError(t, err)
	assert.Nil(t, prev)
	assert.InDelta(t, base+5, h.Stats().Damage, 1e-9)

	axe := &item.Item{ID: "b", Kind: item.KindWeapon, RequiredLevel: 1, Primary: item.Affix{Stat: stats.Damage, Value: 9}}
	prev, err = h.Equip(axe)
	require.NoError(t, err)
	assert.Equal(t, sword, prev)
	assert.InDelta(t, base+9, h.Stats().Damage, 1e-9)

	got, err := h.Unequip(item.SlotWeapon)
	require.NoError(t, err)
	assert.Equal(t, axe, got)
	assert.InDelta(t, base, h.Stats().Damage, 1e-9)
}

func TestUnequip_Errors(t *testing.T) {
	h := hero.New(knightDef(), stats.Meta{})
	_, err := h.Unequip(item.SlotHead)
	assert.ErrorIs(t, err, hero.ErrSlotEmpty)
	_, err = h.Unequip("tail")
	assert.ErrorIs(t, err, hero.ErrInvalidSlot)
}

func TestUnequip_ClampsHP(t *testing.T) {
	h := hero.New(knightDef(), stats.Meta{})
	amulet := &item.Item{ID: "a", Kind: item.KindAmulet, RequiredLevel: 1, Primary: item.Affix{Stat: stats.MaxHP, Value: 100}}
	_, err := h.Equip(amulet)
	require.NoError(t, err)
	h.HP = h.MaxHP()
	_, err = h.Unequip(item.SlotAmulet)
	require.NoError(t, err)
	assert.Equal(t, h.MaxHP(), h.HP)
}

func TestBuffs_RecomputeOnApplyAndExpire(t *testing.T) {
	h := hero.New(knightDef(), stats.Meta{})
	base := h.Stats().Damage
	require.NoError(t, h.ApplyBuff(might(), 1.5, 4))
	assert.InDelta(t, base+15, h.Stats().Damage, 1e-9)
	assert.Empty(t, h.TickBuffs(3))
	assert.Equal(t, []string{"might"}, h.TickBuffs(1))
	assert.InDelta(t, base, h.Stats().Damage, 1e-9)
}

func TestTakeDamage_Incapacitates(t *testing.T) {
	h := hero.New(knightDef(), stats.Meta{})
	lost := h.TakeDamage(h.MaxHP() + 50)
	assert.InDelta(t, h.MaxHP(), lost, 1e-9)
	assert.Equal(t, 0.0, h.HP)
	assert.Equal(t, hero.Incapacitated, h.Status)
	assert.False(t, h.IsFighting())

	h.Revive()
	assert.True(t, h.IsFighting())
	assert.True(t, h.IsFullHP())
}

func TestSetMeta_Recomputes(t *testing.T) {
	h := hero.New(knightDef(), stats.Meta{})
	base := h.Stats().Damage
	h.SetMeta(stats.Meta{DamagePct: 0.5})
	assert.InDelta(t, base*1.5, h.Stats().Damage, 1e-9)
}

func TestAttack_CritMultiplies(t *testing.T) {
	def := knightDef()
	def.Stats.CritChance = 1
	h := hero.New(def, stats.Meta{})
	require.InDelta(t, stats.MaxCritChance, h.Stats().CritChance, 1e-9)
	r := roller(1)
	crits := 0
	for range 1000 {
		d, crit := h.Attack(r)
		if crit {
			crits++
			assert.InDelta(t, h.Stats().Damage*1.5, d, 1e-9)
		} else {
			assert.InDelta(t, h.Stats().Damage, d, 1e-9)
		}
	}
	assert.InDelta(t, 750, crits, 60)

	def = knightDef()
	def.Stats.CritChance = 0
	def.Stats.Attributes.Agility = 0
	def.Stats.PerLevel.Agility = 0
	h = hero.New(def, stats.Meta{})
	for range 100 {
		_, crit := h.Attack(r)
		assert.False(t, crit)
	}
}

func TestPriestHeal_TargetsLowestFraction(t *testing.T) {
	p := hero.New(priestDef(), stats.Meta{})
	k := hero.New(knightDef(), stats.Meta{})
	d := hero.New(duelistDef(), stats.Meta{})
	k.HP = k.MaxHP() * 0.5
	d.HP = d.MaxHP() * 0.4
	party := []*hero.Hero{k, p, d}

	healed := p.PriestHeal(1, party)
	assert.InDelta(t, p.Stats().HealPower, healed, 1e-9)
	assert.InDelta(t, d.MaxHP()*0.4+healed, d.HP, 1e-9)
}

func TestPriestHeal_CappedAtMax(t *testing.T) {
	p := hero.New(priestDef(), stats.Meta{})
	k := hero.New(knightDef(), stats.Meta{})
	k.HP = k.MaxHP() - 1
	healed := p.PriestHeal(100, []*hero.Hero{p, k})
	assert.InDelta(t, 1.0, healed, 1e-9)
	assert.True(t, k.IsFullHP())
}

func TestLowestHPFraction_SkipsIncapacitated(t *testing.T) {
	k := hero.New(knightDef(), stats.Meta{})
	d := hero.New(duelistDef(), stats.Meta{})
	d.TakeDamage(d.MaxHP())
	assert.Equal(t, k, hero.LowestHPFraction([]*hero.Hero{k, d}))
	k.TakeDamage(k.MaxHP())
	assert.Nil(t, hero.LowestHPFraction([]*hero.Hero{k, d}))
}

func TestPriestBuff_Cooldown(t *testing.T) {
	p := hero.New(priestDef(), stats.Meta{})
	k := hero.New(knightDef(), stats.Meta{})
	pool := []*buff.Definition{might()}

	// BuffChance 0.5 -> one cast every 2s.
	casts := p.PriestBuff(5, []*hero.Hero{p, k}, pool, roller(3))
	assert.Len(t, casts, 2)
	assert.InDelta(t, 1.0, p.BuffTimer, 1e-9)
	for _, c := range casts {
		assert.Equal(t, "might", c.BuffID)
		assert.InDelta(t, 4.0, c.Duration, 1e-9)
	}
}

func TestPriestBuff_ZeroChanceNeverCasts(t *testing.T) {
	def := priestDef()
	def.Stats.BuffChance = 0
	p := hero.New(def, stats.Meta{})
	assert.Empty(t, p.PriestBuff(1000, []*hero.Hero{p}, []*buff.Definition{might()}, roller(1)))
	assert.Equal(t, 0.0, p.BuffTimer)
}

func TestRiposte_NonDuelistNeverTriggers(t *testing.T) {
	k := hero.New(knightDef(), stats.Meta{})
	r := roller(1)
	for range 100 {
		assert.Equal(t, hero.NoRiposte, k.RollRiposte(r))
	}
}

func TestRiposte_OutcomeDistribution(t *testing.T) {
	d := hero.New(duelistDef(), stats.Meta{})
	r := roller(42)
	counts := map[hero.Riposte]int{}
	const n = 20000
	for range n {
		counts[d.RollRiposte(r)]++
	}
	triggered := float64(n - counts[hero.NoRiposte])
	assert.InDelta(t, 0.5, triggered/n, 0.02)
	assert.InDelta(t, 0.15, float64(counts[hero.Counter])/triggered, 0.02)
	assert.InDelta(t, 0.35, float64(counts[hero.Parry])/triggered, 0.02)
	assert.InDelta(t, 0.50, float64(counts[hero.Dodge])/triggered, 0.02)
}

func TestProperty_GainXPInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := hero.New(knightDef(), stats.Meta{})
		grants := rapid.SliceOfN(rapid.IntRange(0, 100000), 1, 20).Draw(t, "grants")
		for _, g := range grants {
			level := h.Level
			gained := h.GainXP(g)
			if h.Level != level+gained {
				t.Fatalf("level %d != %d + %d", h.Level, level, gained)
			}
			if h.Level > stats.MaxLevel {
				t.Fatalf("level %d above cap", h.Level)
			}
			if h.Level < stats.MaxLevel && h.XP >= h.XPToNext() {
				t.Fatalf("xp %d not spent at level %d", h.XP, h.Level)
			}
			if h.HP > h.MaxHP() {
				t.Fatalf("hp %v above max %v", h.HP, h.MaxHP())
			}
		}
	})
}

func TestRecompute_OverlappingBuffsAreStable(t *testing.T) {
	h := hero.New(knightDef(), stats.Meta{})
	for i, v := range []float64{0.1, 0.2, 0.3} {
		def := &buff.Definition{ID: fmt.Sprintf("spikes%d", i), Name: "Spikes", Duration: 10,
			Modifiers: map[stats.Stat]float64{stats.Thorns: v}}
		require.NoError(t, h.Buffs.Apply(def, 1, 10))
	}
	h.Recompute()
	want := h.Stats()
	for range 200 {
		h.Recompute()
		require.Equal(t, want, h.Stats())
	}
}

// Property: recomputing an unchanged hero yields the identical snapshot, even when
// several active buffs modify the same stats.
func TestRecompute_Idempotent_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := hero.New(knightDef(), stats.Meta{})
		n := rapid.IntRange(2, 6).Draw(rt, "buffs")
		for i := range n {
			def := &buff.Definition{ID: fmt.Sprintf("b%d", i), Name: "B", Duration: 10,
				Modifiers: map[stats.Stat]float64{
					stats.Thorns:    rapid.Float64Range(0.01, 1).Draw(rt, "thorns"),
					stats.Damage:    rapid.Float64Range(0, 5).Draw(rt, "damage"),
					stats.DamagePct: rapid.Float64Range(0, 0.5).Draw(rt, "damage_pct"),
				}}
			if err := h.Buffs.Apply(def, rapid.Float64Range(0.5, 2).Draw(rt, "potency"), 5); err != nil {
				rt.Fatalf("Apply: %v", err)
			}
		}
		h.Recompute()
		want := h.Stats()
		for range 20 {
			h.Recompute()
			if got := h.Stats(); got != want {
				rt.Fatalf("recompute drifted: %+v != %+v", got, want)
			}
		}
	})
}
