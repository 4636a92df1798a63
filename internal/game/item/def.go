// Package item generates equipment with rarity and affixes, and holds the
// inventory and per-hero equipment containers those items move between.
package item

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/delve/internal/game/stats"
)

// Kind is the equipment category of a base item; it decides which hero slots accept it.
type Kind string

const (
	KindWeapon  Kind = "weapon"
	KindBody    Kind = "body"
	KindHead    Kind = "head"
	KindLegs    Kind = "legs"
	KindHands   Kind = "hands"
	KindFeet    Kind = "feet"
	KindAmulet  Kind = "amulet"
	KindRing    Kind = "ring"
	KindTrinket Kind = "trinket"
)

var validKinds = map[Kind]bool{
	KindWeapon: true, KindBody: true, KindHead: true, KindLegs: true, KindHands: true,
	KindFeet: true, KindAmulet: true, KindRing: true, KindTrinket: true,
}

// BaseDef defines a base item type loaded from YAML.
type BaseDef struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Kind        Kind       `yaml:"kind"`
	PrimaryStat stats.Stat `yaml:"primary_stat"`
	PrimaryBase float64    `yaml:"primary_base"`
	// AffixPool lists the AffixDef IDs this base may roll.
	AffixPool []string `yaml:"affix_pool"`
	// Classes restricts which hero definitions may equip the item. Empty means any.
	Classes []string `yaml:"classes"`
}

// Validate checks that the BaseDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *BaseDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !validKinds[d.Kind] {
		errs = append(errs, fmt.Errorf("kind %q is not a valid equipment kind", d.Kind))
	}
	if !d.PrimaryStat.Valid() {
		errs = append(errs, fmt.Errorf("primary_stat %q is not a known stat", d.PrimaryStat))
	}
	if d.PrimaryBase <= 0 {
		errs = append(errs, fmt.Errorf("primary_base must be > 0, got %v", d.PrimaryBase))
	}
	if len(errs) > 0 {
		return fmt.Errorf("base item %q validation failed: %v", d.ID, errs)
	}
	return nil
}

// AllowedFor reports whether a hero with the given definition ID may equip items of this base.
func (d *BaseDef) AllowedFor(heroID string) bool {
	return classAllowed(d.Classes, heroID)
}

func classAllowed(classes []string, heroID string) bool {
	if len(classes) == 0 {
		return true
	}
	for _, c := range classes {
		if c == heroID {
			return true
		}
	}
	return false
}

// AffixDef defines a rollable affix loaded from YAML.
type AffixDef struct {
	ID   string     `yaml:"id"`
	Stat stats.Stat `yaml:"stat"`
	Base float64    `yaml:"base"`
}

// Validate checks that the AffixDef satisfies its invariants.
//
// Postcondition: returns nil iff ID is non-empty, Stat is known and Base > 0.
func (d *AffixDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if !d.Stat.Valid() {
		errs = append(errs, fmt.Errorf("stat %q is not a known stat", d.Stat))
	}
	if d.Base <= 0 {
		errs = append(errs, fmt.Errorf("base must be > 0, got %v", d.Base))
	}
	if len(errs) > 0 {
		return fmt.Errorf("affix %q validation failed: %v", d.ID, errs)
	}
	return nil
}
