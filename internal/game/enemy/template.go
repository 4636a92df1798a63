// Package enemy provides monster templates, the two live enemy variants
// (monster groups and floor bosses), encounter generation and loot rolls.
package enemy

import "fmt"

// Template defines a monster archetype loaded from YAML.
// HP, Damage, Gold and XP are per-unit values on floor 1.
type Template struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	UnlockFloor int     `yaml:"unlock_floor"`
	HP          float64 `yaml:"hp"`
	Damage      float64 `yaml:"damage"`
	AttackSpeed float64 `yaml:"attack_speed"`
	Gold        float64 `yaml:"gold"`
	XP          float64 `yaml:"xp"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, UnlockFloor >= 1 and
// HP > 0; returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("enemy template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("enemy template %q: name must not be empty", t.ID)
	}
	if t.UnlockFloor < 1 {
		return fmt.Errorf("enemy template %q: unlock_floor must be >= 1", t.ID)
	}
	if t.HP <= 0 {
		return fmt.Errorf("enemy template %q: hp must be > 0", t.ID)
	}
	if t.Damage < 0 || t.AttackSpeed < 0 || t.Gold < 0 || t.XP < 0 {
		return fmt.Errorf("enemy template %q: damage, attack_speed, gold and xp must be >= 0", t.ID)
	}
	return nil
}
