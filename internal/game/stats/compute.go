package stats

import (
	"fmt"
	"math"
)

// Kind is the closed set of hero variants.
type Kind string

const (
	KindStandard Kind = "standard"
	KindPriest   Kind = "priest"
	KindDuelist  Kind = "duelist"
)

// DamageType selects which attribute scales a hero's damage.
type DamageType string

const (
	Physical DamageType = "physical"
	Magical  DamageType = "magical"
)

// Stat caps.
const (
	MaxCritChance    = 0.75
	MaxRiposteChance = 0.75
	MaxLifeSteal     = 0.5
)

// Attributes holds the four primary attributes.
type Attributes struct {
	Strength     float64 `yaml:"strength" json:"strength"`
	Agility      float64 `yaml:"agility" json:"agility"`
	Intelligence float64 `yaml:"intelligence" json:"intelligence"`
	Endurance    float64 `yaml:"endurance" json:"endurance"`
}

// Base is the static stat block of a hero definition.
type Base struct {
	Kind          Kind       `yaml:"kind"`
	DamageType    DamageType `yaml:"damage_type"`
	Attributes    Attributes `yaml:"attributes"`
	PerLevel      Attributes `yaml:"per_level"`
	Damage        float64    `yaml:"damage"`
	MaxHP         float64    `yaml:"max_hp"`
	Armor         float64    `yaml:"armor"`
	AttackSpeed   float64    `yaml:"attack_speed"`
	CritChance    float64    `yaml:"crit_chance"`
	CritDamage    float64    `yaml:"crit_damage"`
	HPRegen       float64    `yaml:"hp_regen"`
	HealPower     float64    `yaml:"heal_power"`
	BuffChance    float64    `yaml:"buff_chance"`
	RiposteChance float64    `yaml:"riposte_chance"`
}

// Validate checks that the base stat block satisfies its invariants.
//
// Postcondition: Returns nil iff Kind and DamageType are known and no base value is negative.
func (b Base) Validate() error {
	switch b.Kind {
	case KindStandard, KindPriest, KindDuelist:
	default:
		return fmt.Errorf("kind must be one of standard, priest, duelist; got %q", b.Kind)
	}
	if b.DamageType != Physical && b.DamageType != Magical {
		return fmt.Errorf("damage_type must be physical or magical; got %q", b.DamageType)
	}
	if b.MaxHP <= 0 {
		return fmt.Errorf("max_hp must be > 0; got %v", b.MaxHP)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"damage", b.Damage}, {"armor", b.Armor}, {"attack_speed", b.AttackSpeed},
		{"crit_chance", b.CritChance}, {"crit_damage", b.CritDamage}, {"hp_regen", b.HPRegen},
		{"heal_power", b.HealPower}, {"buff_chance", b.BuffChance}, {"riposte_chance", b.RiposteChance},
	} {
		if f.v < 0 {
			return fmt.Errorf("%s must be >= 0; got %v", f.name, f.v)
		}
	}
	return nil
}

// Meta holds the permanent bonuses bought with prestige currency.
type Meta struct {
	DamagePct   float64
	HPPct       float64
	GoldPct     float64
	HealPct     float64
	StartGold   float64
	CooldownPct float64
}

// Snapshot is the derived, read-only stat block of a hero.
// It is replaced wholesale on every recompute and never mutated in place.
type Snapshot struct {
	Attributes    Attributes
	Damage        float64
	MaxHP         int
	Armor         float64
	AttackSpeed   float64
	CritChance    float64
	CritDamage    float64
	HPRegen       float64
	GoldFind      float64
	LifeSteal     float64
	Thorns        float64
	HealPower     float64
	BuffChance    float64
	BuffPotency   float64
	BuffDuration  float64
	RiposteChance float64
}

// AttackInterval returns the seconds between attacks.
//
// Postcondition: Returns +Inf when AttackSpeed <= 0, so the attack never fires.
func (s Snapshot) AttackInterval() float64 {
	return Interval(s.AttackSpeed)
}

// Interval converts a per-second rate into seconds between occurrences.
//
// Postcondition: Returns +Inf for non-positive rates.
func Interval(rate float64) float64 {
	if rate <= 0 || math.IsNaN(rate) {
		return math.Inf(1)
	}
	return 1 / rate
}

// ComputeHero derives a hero's stat snapshot.
// It is a pure function: identical inputs always yield an identical Snapshot.
//
// Precondition: level >= 1; mods may be nil.
// Postcondition: MaxHP >= 1; CritChance <= MaxCritChance; RiposteChance <= MaxRiposteChance.
func ComputeHero(base Base, level int, mods Modifiers, meta Meta) Snapshot {
	if level < 1 {
		level = 1
	}
	lv := float64(level - 1)
	attrs := Attributes{
		Strength:     base.Attributes.Strength + lv*base.PerLevel.Strength + mods.Get(Strength),
		Agility:      base.Attributes.Agility + lv*base.PerLevel.Agility + mods.Get(Agility),
		Intelligence: base.Attributes.Intelligence + lv*base.PerLevel.Intelligence + mods.Get(Intelligence),
		Endurance:    base.Attributes.Endurance + lv*base.PerLevel.Endurance + mods.Get(Endurance),
	}

	contribution := attrs.Strength
	if base.DamageType == Magical {
		contribution = attrs.Intelligence
	}

	s := Snapshot{Attributes: attrs}
	if base.Kind != KindPriest {
		s.Damage = math.Max(0, (base.Damage+contribution*2+mods.Get(Damage))*
			(1+mods.Get(DamagePct))*(1+meta.DamagePct))
	}

	hp := (base.MaxHP + attrs.Endurance*20 + mods.Get(MaxHP)) * (1 + mods.Get(MaxHPPct) + meta.HPPct)
	s.MaxHP = int(math.Max(1, math.Ceil(hp)))

	s.Armor = math.Max(0, base.Armor+attrs.Strength*0.5+attrs.Endurance*0.25+mods.Get(Armor))
	s.AttackSpeed = math.Max(0, base.AttackSpeed*(1+attrs.Agility*0.01+mods.Get(AttackSpeedPct)))
	s.CritChance = clamp(base.CritChance+attrs.Agility*0.001+mods.Get(CritChance), 0, MaxCritChance)
	s.CritDamage = math.Max(1, base.CritDamage+mods.Get(CritDamage))
	s.HPRegen = math.Max(0, base.HPRegen+attrs.Endurance*0.1+mods.Get(HPRegen))
	s.GoldFind = math.Max(0, mods.Get(GoldFind)+meta.GoldPct)
	s.LifeSteal = clamp(mods.Get(LifeSteal), 0, MaxLifeSteal)
	s.Thorns = math.Max(0, mods.Get(Thorns))

	switch base.Kind {
	case KindPriest:
		s.HealPower = math.Max(0, (base.HealPower+attrs.Intelligence*1.5+mods.Get(HealPower))*(1+meta.HealPct))
		s.BuffChance = math.Max(0, base.BuffChance+mods.Get(BuffChance))
		s.BuffPotency = 1 + mods.Get(BuffPotency)
		s.BuffDuration = 1 + mods.Get(BuffDuration)
	case KindDuelist:
		s.RiposteChance = clamp(base.RiposteChance+attrs.Agility*0.002+mods.Get(RiposteChance), 0, MaxRiposteChance)
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
