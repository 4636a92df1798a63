// Package buff holds timed stat modifiers: the static buff definitions that
// priests draw from and the per-hero set of active buffs that decays each tick.
package buff

import (
	"fmt"
	"slices"

	"github.com/cory-johannsen/delve/internal/game/stats"
)

// Definition is the static definition of a buff, loaded from YAML.
type Definition struct {
	ID          string                 `yaml:"id"`
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Duration    float64                `yaml:"duration"` // seconds, before potency/duration bonuses
	Modifiers   map[stats.Stat]float64 `yaml:"modifiers"`
}

// Validate checks that the definition satisfies its invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty, Duration > 0, and every
// modifier names a known stat.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("buff: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("buff %q: name must not be empty", d.ID)
	}
	if d.Duration <= 0 {
		return fmt.Errorf("buff %q: duration must be > 0, got %v", d.ID, d.Duration)
	}
	if len(d.Modifiers) == 0 {
		return fmt.Errorf("buff %q: at least one modifier is required", d.ID)
	}
	for s := range d.Modifiers {
		if !s.Valid() {
			return fmt.Errorf("buff %q: unknown stat %q", d.ID, s)
		}
	}
	return nil
}

// Registry holds all known Definitions keyed by ID.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds def to the registry.
//
// Precondition: def must not be nil.
// Postcondition: Get(def.ID) returns def; returns an error if def is invalid or already registered.
func (r *Registry) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, exists := r.defs[def.ID]; exists {
		return fmt.Errorf("buff: id %q already registered", def.ID)
	}
	r.defs[def.ID] = def
	return nil
}

// Get returns the Definition for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// Pool returns every registered Definition ordered by ID.
// The order is stable so that random picks are reproducible under a fixed seed.
func (r *Registry) Pool() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b *Definition) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}
