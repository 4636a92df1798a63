// Package hero implements party members: leveling, equipment, buffs, and the
// per-class routines of priests (healing and buffing) and duelists (riposte).
package hero

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/delve/internal/game/stats"
)

// Definition is the static description of a recruitable hero, loaded from YAML.
type Definition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	RecruitCost int    `yaml:"recruit_cost"`
	// Starter heroes are recruited for free at the start of every run.
	Starter bool       `yaml:"starter"`
	Stats   stats.Base `yaml:"stats"`
}

// Validate checks that the definition satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *Definition) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if d.RecruitCost < 0 {
		errs = append(errs, fmt.Errorf("recruit_cost must be >= 0, got %d", d.RecruitCost))
	}
	if err := d.Stats.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("hero %q validation failed: %v", d.ID, errs)
	}
	return nil
}
