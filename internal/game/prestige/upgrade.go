// Package prestige implements the meta-progression loop: permanent upgrades
// bought with echoes and the reset that converts a run's depth into echoes.
package prestige

import (
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/delve/internal/game/stats"
)

// Effect names the Meta field an upgrade raises.
type Effect string

const (
	EffectDamagePct   Effect = "damage_pct"
	EffectHPPct       Effect = "hp_pct"
	EffectGoldPct     Effect = "gold_pct"
	EffectHealPct     Effect = "heal_pct"
	EffectStartGold   Effect = "start_gold"
	EffectCooldownPct Effect = "cooldown_pct"
)

// Upgrade is a permanent upgrade definition loaded from YAML.
type Upgrade struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Effect      Effect  `yaml:"effect"`
	PerLevel    float64 `yaml:"per_level"`
	BaseCost    float64 `yaml:"base_cost"`
	CostScale   float64 `yaml:"cost_scale"`
	MaxLevel    int     `yaml:"max_level"`
}

// Validate checks that the upgrade satisfies its invariants.
//
// Postcondition: returns nil iff all fields are valid.
func (u *Upgrade) Validate() error {
	var errs []error
	if u.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if u.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	switch u.Effect {
	case EffectDamagePct, EffectHPPct, EffectGoldPct, EffectHealPct, EffectStartGold, EffectCooldownPct:
	default:
		errs = append(errs, fmt.Errorf("effect %q is not known", u.Effect))
	}
	if u.PerLevel <= 0 {
		errs = append(errs, fmt.Errorf("per_level must be > 0, got %v", u.PerLevel))
	}
	if u.BaseCost < 1 {
		errs = append(errs, fmt.Errorf("base_cost must be >= 1, got %v", u.BaseCost))
	}
	if u.CostScale < 1 {
		errs = append(errs, fmt.Errorf("cost_scale must be >= 1, got %v", u.CostScale))
	}
	if u.MaxLevel < 1 {
		errs = append(errs, fmt.Errorf("max_level must be >= 1, got %d", u.MaxLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("upgrade %q validation failed: %v", u.ID, errs)
	}
	return nil
}

// Cost returns the echoes needed to go from level to level+1.
//
// Postcondition: result == floor(BaseCost * CostScale^level).
func (u *Upgrade) Cost(level int) int {
	return int(math.Floor(u.BaseCost * math.Pow(u.CostScale, float64(level))))
}

// Meta folds the upgrade levels into stat bonuses. Unknown IDs are ignored and
// levels are capped at each upgrade's MaxLevel.
func Meta(upgrades []*Upgrade, levels map[string]int) stats.Meta {
	var m stats.Meta
	for _, u := range upgrades {
		lv := min(max(0, levels[u.ID]), u.MaxLevel)
		v := u.PerLevel * float64(lv)
		switch u.Effect {
		case EffectDamagePct:
			m.DamagePct += v
		case EffectHPPct:
			m.HPPct += v
		case EffectGoldPct:
			m.GoldPct += v
		case EffectHealPct:
			m.HealPct += v
		case EffectStartGold:
			m.StartGold += v
		case EffectCooldownPct:
			m.CooldownPct += v
		}
	}
	return m
}

// Award returns the echoes earned by a run that reached highestFloor.
//
// Postcondition: result == floor(highestFloor^1.5 / 2).
func Award(highestFloor int) int {
	if highestFloor < 1 {
		return 0
	}
	return int(math.Floor(math.Pow(float64(highestFloor), 1.5) / 2))
}
