package enemy

import (
	"fmt"

	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/item"
)

// Loot constants.
const (
	// DropChance is the probability a regular encounter drops one item.
	DropChance = 0.25
	// BossDrops is the number of items a boss always drops.
	BossDrops = 2
)

// RollLoot generates the items dropped by e. Item level equals the enemy level.
//
// Precondition: e must be dead; gen and r must be non-nil.
// Postcondition: Bosses return BossDrops items; groups return zero or one.
func RollLoot(e Enemy, gen *item.Generator, r *dice.Roller) ([]*item.Item, error) {
	n := 0
	if e.IsBoss() {
		n = BossDrops
	} else if r.Chance("loot drop", DropChance) {
		n = 1
	}
	out := make([]*item.Item, 0, n)
	for range n {
		it, err := gen.Generate(max(1, e.Level()))
		if err != nil {
			return out, fmt.Errorf("rolling loot for %q: %w", e.Name(), err)
		}
		out = append(out, it)
	}
	return out, nil
}
