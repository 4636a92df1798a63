package item

import (
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"

	"github.com/cory-johannsen/delve/internal/game/dice"
)

// Generation constants.
const (
	// MagicThreshold and RareThreshold split a uniform roll into rarity bands.
	MagicThreshold = 0.60
	RareThreshold  = 0.90
	// PrimaryGrowth is the per-level growth of an item's primary stat.
	PrimaryGrowth = 1.12
	// FlatAffixGrowth is the per-level growth of flat affixes.
	FlatAffixGrowth = 1.10
	// PercentAffixGrowth is the per-level linear growth of percent affixes.
	PercentAffixGrowth = 0.02
	// CostScale multiplies the summed stat budget into a gold price.
	CostScale = 5
)

// Generator rolls new items from a Registry.
//
// Generator is not safe for concurrent use; it belongs to one session.
type Generator struct {
	reg    *Registry
	roller *dice.Roller
	ids    io.Reader
}

// NewGenerator creates a Generator. Instance IDs are random UUIDs drawn from
// roller so that a seeded session produces identical IDs on replay.
//
// Precondition: reg and roller must be non-nil.
func NewGenerator(reg *Registry, roller *dice.Roller) *Generator {
	return &Generator{reg: reg, roller: roller, ids: sourceReader{src: roller}}
}

// Registry returns the definitions the generator rolls from.
func (g *Generator) Registry() *Registry { return g.reg }

// Generate rolls a random item of the given level from any registered base.
//
// Precondition: level >= 1.
// Postcondition: Returns an error only when the registry holds no bases.
func (g *Generator) Generate(level int) (*Item, error) {
	bases := g.reg.Bases()
	idx := g.roller.Index("item base", len(bases))
	if idx < 0 {
		return nil, fmt.Errorf("item: Generate: no base items registered")
	}
	return g.GenerateFrom(bases[idx], level)
}

// GenerateFrom rolls an item of the given level from base.
//
// Precondition: base must be non-nil and registered; level >= 1.
// Postcondition: RequiredLevel == Level; len(Affixes) <= len(base.AffixPool).
func (g *Generator) GenerateFrom(base *BaseDef, level int) (*Item, error) {
	if level < 1 {
		level = 1
	}
	rarity := RollRarity(g.roller)
	it := &Item{
		BaseID:        base.ID,
		Name:          displayName(rarity, base.Name),
		Kind:          base.Kind,
		Level:         level,
		RequiredLevel: level,
		Rarity:        rarity,
		Classes:       base.Classes,
		Primary:       rollPrimary(base, level, rarity),
	}

	pool := append([]string(nil), base.AffixPool...)
	n := min(affixCount(g.roller, rarity), len(pool))
	for range n {
		i := g.roller.Index("affix pick", len(pool))
		def, ok := g.reg.Affix(pool[i])
		pool = append(pool[:i], pool[i+1:]...)
		if !ok {
			continue
		}
		it.Affixes = append(it.Affixes, rollAffix(g.roller, def, level, rarity))
	}
	it.Cost = cost(it)

	id, err := uuid.NewRandomFromReader(g.ids)
	if err != nil {
		return nil, fmt.Errorf("item: generating id: %w", err)
	}
	it.ID = id.String()
	return it, nil
}

// RollRarity draws a rarity from the fixed 60/30/10 bands.
func RollRarity(r *dice.Roller) Rarity {
	u := r.Range("rarity", 0, 1)
	switch {
	case u < MagicThreshold:
		return Common
	case u < RareThreshold:
		return Magic
	default:
		return Rare
	}
}

func affixCount(r *dice.Roller, rarity Rarity) int {
	switch rarity {
	case Magic:
		return r.IntRange("magic affix count", 1, 2)
	case Rare:
		return r.IntRange("rare affix count", 3, 4)
	default:
		return 0
	}
}

func displayName(rarity Rarity, name string) string {
	switch rarity {
	case Magic:
		return "Magic " + name
	case Rare:
		return "Rare " + name
	default:
		return name
	}
}

func rollPrimary(base *BaseDef, level int, rarity Rarity) Affix {
	v := base.PrimaryBase * math.Pow(PrimaryGrowth, float64(level-1)) * rarity.Multiplier()
	if base.PrimaryStat.IsPercent() {
		return Affix{Stat: base.PrimaryStat, Kind: Percent, Value: round3(v)}
	}
	return Affix{Stat: base.PrimaryStat, Kind: Flat, Value: math.Max(1, math.Round(v))}
}

func rollAffix(r *dice.Roller, def *AffixDef, level int, rarity Rarity) Affix {
	u := r.Range("affix value", 0.5, 1.5)
	if def.Stat.IsPercent() {
		v := def.Base * (1 + PercentAffixGrowth*float64(level)) * u * rarity.Multiplier()
		return Affix{Stat: def.Stat, Kind: Percent, Value: round3(v)}
	}
	v := def.Base * math.Pow(FlatAffixGrowth, float64(level-1)) * u * rarity.Multiplier()
	return Affix{Stat: def.Stat, Kind: Flat, Value: math.Max(1, math.Round(v))}
}

// cost prices an item from its stat budget; percent values count ×100.
func cost(it *Item) int {
	budget := weight(it.Primary)
	for _, a := range it.Affixes {
		budget += weight(a)
	}
	return int(math.Ceil(budget * it.Rarity.CostMultiplier() * CostScale))
}

func weight(a Affix) float64 {
	if a.Kind == Percent {
		return a.Value * 100
	}
	return a.Value
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// sourceReader adapts a dice.Source into an io.Reader of random bytes.
type sourceReader struct {
	src dice.Source
}

func (s sourceReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(s.src.Intn(256))
	}
	return len(p), nil
}
