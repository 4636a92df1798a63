// Package stats derives every combat-relevant number for heroes from their
// base definition, level, equipment, buffs and prestige upgrades, and holds
// the floor scaling curves shared by enemies and armor mitigation.
package stats

import "slices"

// Stat names a modifiable quantity.
type Stat string

// Primary attributes.
const (
	Strength     Stat = "strength"
	Agility      Stat = "agility"
	Intelligence Stat = "intelligence"
	Endurance    Stat = "endurance"
)

// Derived-stat modifiers.
const (
	Damage         Stat = "damage"
	DamagePct      Stat = "damage_pct"
	MaxHP          Stat = "max_hp"
	MaxHPPct       Stat = "max_hp_pct"
	Armor          Stat = "armor"
	AttackSpeedPct Stat = "attack_speed_pct"
	CritChance     Stat = "crit_chance"
	CritDamage     Stat = "crit_damage"
	HPRegen        Stat = "hp_regen"
	GoldFind       Stat = "gold_find"
	LifeSteal      Stat = "life_steal"
	Thorns         Stat = "thorns"
	HealPower      Stat = "heal_power"
	BuffChance     Stat = "buff_chance"
	BuffPotency    Stat = "buff_potency"
	BuffDuration   Stat = "buff_duration"
	RiposteChance  Stat = "riposte_chance"
)

// percentStats are expressed as fractions (0.05 == 5%); all others are flat.
var percentStats = map[Stat]bool{
	DamagePct:      true,
	MaxHPPct:       true,
	AttackSpeedPct: true,
	CritChance:     true,
	CritDamage:     true,
	GoldFind:       true,
	LifeSteal:      true,
	BuffChance:     true,
	BuffPotency:    true,
	BuffDuration:   true,
	RiposteChance:  true,
}

var knownStats = map[Stat]bool{
	Strength: true, Agility: true, Intelligence: true, Endurance: true,
	Damage: true, MaxHP: true, Armor: true, HPRegen: true, Thorns: true, HealPower: true,
}

func init() {
	for s := range percentStats {
		knownStats[s] = true
	}
}

// IsPercent reports whether s is a fractional stat.
func (s Stat) IsPercent() bool { return percentStats[s] }

// Valid reports whether s names a known stat.
func (s Stat) Valid() bool { return knownStats[s] }

// Modifiers sums stat bonuses from any number of sources.
// The zero value is not usable; use NewModifiers or a map literal.
type Modifiers map[Stat]float64

// NewModifiers returns an empty Modifiers.
func NewModifiers() Modifiers { return make(Modifiers) }

// Add accumulates v onto stat s.
func (m Modifiers) Add(s Stat, v float64) {
	m[s] += v
}

// Merge adds every entry of other into m, scaled by factor.
func (m Modifiers) Merge(other Modifiers, factor float64) {
	for s, v := range other {
		m[s] += v * factor
	}
}

// Get returns the accumulated value for s, or zero.
func (m Modifiers) Get(s Stat) float64 { return m[s] }

// Keys returns the stats present in m in sorted order.
func (m Modifiers) Keys() []Stat {
	out := make([]Stat, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}
