package item

import (
	"fmt"
	"slices"
	"strings"
)

// Registry holds all loaded base item and affix definitions indexed by ID.
type Registry struct {
	bases   map[string]*BaseDef
	affixes map[string]*AffixDef
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{
		bases:   make(map[string]*BaseDef),
		affixes: make(map[string]*AffixDef),
	}
}

// RegisterAffix adds d to the registry.
//
// Precondition: d must not be nil.
// Postcondition: Affix(d.ID) returns (d, true); returns error if d is invalid or already registered.
func (r *Registry) RegisterAffix(d *AffixDef) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := r.affixes[d.ID]; exists {
		return fmt.Errorf("item: Registry.RegisterAffix: affix ID %q already registered", d.ID)
	}
	r.affixes[d.ID] = d
	return nil
}

// RegisterBase adds d to the registry. Every affix in d.AffixPool must already be registered.
//
// Precondition: d must not be nil.
// Postcondition: Base(d.ID) returns (d, true); returns error if d is invalid, already
// registered, or references an unknown affix.
func (r *Registry) RegisterBase(d *BaseDef) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := r.bases[d.ID]; exists {
		return fmt.Errorf("item: Registry.RegisterBase: base ID %q already registered", d.ID)
	}
	for _, id := range d.AffixPool {
		if _, ok := r.affixes[id]; !ok {
			return fmt.Errorf("item: Registry.RegisterBase: base %q references unknown affix %q", d.ID, id)
		}
	}
	r.bases[d.ID] = d
	return nil
}

// Base returns the BaseDef for id and whether it was found.
func (r *Registry) Base(id string) (*BaseDef, bool) {
	d, ok := r.bases[id]
	return d, ok
}

// Affix returns the AffixDef for id and whether it was found.
func (r *Registry) Affix(id string) (*AffixDef, bool) {
	d, ok := r.affixes[id]
	return d, ok
}

// Bases returns every registered BaseDef ordered by ID.
func (r *Registry) Bases() []*BaseDef {
	out := make([]*BaseDef, 0, len(r.bases))
	for _, d := range r.bases {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b *BaseDef) int { return strings.Compare(a.ID, b.ID) })
	return out
}
