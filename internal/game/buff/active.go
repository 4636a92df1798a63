package buff

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cory-johannsen/delve/internal/game/stats"
)

// Active tracks one applied buff on a hero.
type Active struct {
	Def       *Definition
	Potency   float64 // multiplier applied to every modifier
	Remaining float64 // seconds
}

// Set tracks all buffs currently applied to one hero.
// It is not safe for concurrent use; the caller must serialise access.
type Set struct {
	buffs map[string]*Active
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{buffs: make(map[string]*Active)}
}

// Apply adds def to the set, or refreshes it when already present.
// A refresh keeps the larger remaining duration and the larger potency.
//
// Precondition: def must not be nil; potency > 0; duration > 0.
// Postcondition: Has(def.ID) is true.
func (s *Set) Apply(def *Definition, potency, duration float64) error {
	if def == nil {
		return fmt.Errorf("buff: Apply: def must not be nil")
	}
	if potency <= 0 || duration <= 0 {
		return fmt.Errorf("buff %q: potency and duration must be > 0 (got %v, %v)", def.ID, potency, duration)
	}
	if existing, ok := s.buffs[def.ID]; ok {
		existing.Remaining = max(existing.Remaining, duration)
		existing.Potency = max(existing.Potency, potency)
		return nil
	}
	s.buffs[def.ID] = &Active{Def: def, Potency: potency, Remaining: duration}
	return nil
}

// Tick decays every buff by dt seconds and removes the ones that reached zero.
//
// Precondition: dt >= 0.
// Postcondition: For every id in the returned slice, Has(id) is false. The slice is sorted.
func (s *Set) Tick(dt float64) []string {
	var expired []string
	for id, a := range s.buffs {
		a.Remaining -= dt
		if a.Remaining <= 0 {
			expired = append(expired, id)
			delete(s.buffs, id)
		}
	}
	slices.Sort(expired)
	return expired
}

// Has reports whether the buff with id is active.
func (s *Set) Has(id string) bool {
	_, ok := s.buffs[id]
	return ok
}

// Len returns the number of active buffs.
func (s *Set) Len() int { return len(s.buffs) }

// Modifiers returns the summed stat modifiers of every active buff, scaled by potency.
//
// Postcondition: Buffs are summed in ID order, so equal sets yield identical sums.
func (s *Set) Modifiers() stats.Modifiers {
	m := stats.NewModifiers()
	for _, a := range s.All() {
		m.Merge(a.Def.Modifiers, a.Potency)
	}
	return m
}

// All returns the active buffs ordered by ID.
// The pointed-to values are shared; callers must not modify them.
func (s *Set) All() []*Active {
	out := make([]*Active, 0, len(s.buffs))
	for _, a := range s.buffs {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b *Active) int { return strings.Compare(a.Def.ID, b.Def.ID) })
	return out
}
