// Package unlock decides when locked heroes become available for recruitment
// and performs recruitment.
package unlock

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/state"
	"github.com/cory-johannsen/delve/internal/scripting"
)

// Rule lists the conditions under which a hero unlocks. Every present condition must hold.
type Rule struct {
	HeroID           string `yaml:"hero"`
	MinGold          int    `yaml:"min_gold"`
	MinFloor         int    `yaml:"min_floor"`
	RequiresPrestige bool   `yaml:"requires_prestige"`
	// Script is an optional Lua boolean expression over gold, floor, best_floor,
	// prestige_count and echoes.
	Script string `yaml:"script"`
}

// Validate checks that the rule satisfies its invariants.
func (r *Rule) Validate() error {
	var errs []error
	if r.HeroID == "" {
		errs = append(errs, errors.New("hero must not be empty"))
	}
	if r.MinGold < 0 || r.MinFloor < 0 {
		errs = append(errs, errors.New("min_gold and min_floor must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("unlock rule %q validation failed: %v", r.HeroID, errs)
	}
	return nil
}

// Manager evaluates unlock rules and recruits heroes.
type Manager struct {
	rules  []*Rule
	eval   *scripting.Evaluator
	logger *zap.Logger
}

// NewManager compiles every rule script into eval.
//
// Precondition: rules must be validated; eval and logger must be non-nil.
// Postcondition: Returns an error if any script fails to compile.
func NewManager(rules []*Rule, eval *scripting.Evaluator, logger *zap.Logger) (*Manager, error) {
	m := &Manager{rules: slices.Clone(rules), eval: eval, logger: logger}
	slices.SortFunc(m.rules, func(a, b *Rule) int { return strings.Compare(a.HeroID, b.HeroID) })
	for _, r := range m.rules {
		if r.Script == "" {
			continue
		}
		if err := eval.Compile(scriptName(r.HeroID), r.Script); err != nil {
			return nil, fmt.Errorf("unlock rule %q: %w", r.HeroID, err)
		}
	}
	return m, nil
}

func scriptName(heroID string) string { return "unlock:" + heroID }

// Subscribe re-evaluates the rules whenever gold, floor or prestige changes.
// current returns the state to evaluate at the time of the event.
func (m *Manager) Subscribe(bus *event.Bus, current func() *state.GameState) {
	h := func(any) { m.Evaluate(current(), bus) }
	bus.On(event.GoldChanged, h)
	bus.On(event.FloorAdvanced, h)
	bus.On(event.PrestigeReset, h)
}

// Evaluate flips every locked hero whose rule holds to available.
// Unlocks never revert.
//
// Postcondition: Returns the IDs unlocked by this call; each emitted hero.unlocked
// and an info notification.
func (m *Manager) Evaluate(s *state.GameState, bus *event.Bus) []string {
	var unlocked []string
	for _, r := range m.rules {
		if s.HeroUnlocks[r.HeroID] != state.Locked {
			continue
		}
		if !m.holds(r, s) {
			continue
		}
		s.HeroUnlocks[r.HeroID] = state.Available
		unlocked = append(unlocked, r.HeroID)
		m.logger.Info("hero unlocked", zap.String("hero", r.HeroID))
		bus.Emit(event.HeroUnlocked, event.HeroUnlockedPayload{HeroID: r.HeroID})
		bus.Notify(event.SeverityInfo, "A new hero is ready to recruit: %s.", r.HeroID)
	}
	return unlocked
}

func (m *Manager) holds(r *Rule, s *state.GameState) bool {
	bestFloor := max(s.HighestFloor, s.BestFloorEver)
	if r.MinGold > 0 && s.Gold < r.MinGold {
		return false
	}
	if r.MinFloor > 0 && bestFloor < r.MinFloor {
		return false
	}
	if r.RequiresPrestige && s.PrestigeCount < 1 {
		return false
	}
	if r.Script != "" {
		return m.eval.Eval(scriptName(r.HeroID), map[string]float64{
			"gold":           float64(s.Gold),
			"floor":          float64(s.Floor),
			"best_floor":     float64(bestFloor),
			"prestige_count": float64(s.PrestigeCount),
			"echoes":         float64(s.Echoes),
		})
	}
	return true
}

// Recruit pays the hero's recruit cost and adds it to the party at level 1.
//
// Postcondition: On success the hero is Recruited and in the party. On failure state is
// unchanged and a warning notification is emitted.
func Recruit(s *state.GameState, cat state.Catalog, heroID string, bus *event.Bus) bool {
	def, ok := cat.Hero(heroID)
	if !ok {
		bus.Notify(event.SeverityWarning, "Unknown hero %q.", heroID)
		return false
	}
	switch s.HeroUnlocks[heroID] {
	case state.Recruited:
		bus.Notify(event.SeverityWarning, "%s is already in the party.", def.Name)
		return false
	case state.Available:
	default:
		bus.Notify(event.SeverityWarning, "%s has not been unlocked yet.", def.Name)
		return false
	}
	if s.Gold < def.RecruitCost {
		bus.Notify(event.SeverityWarning, "Recruiting %s costs %d gold.", def.Name, def.RecruitCost)
		return false
	}
	s.Recruit(def)
	s.AddGold(-def.RecruitCost, bus)
	bus.Notify(event.SeverityInfo, "%s joined the party.", def.Name)
	return true
}
