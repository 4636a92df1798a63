package enemy

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/stats"
)

var bossPrefixes = []string{
	"Grothak", "Vesska", "Morgul", "Ithrel", "Kazrak", "Sylvane", "Drezzar", "Ulmok",
	"Nerith", "Tharok", "Xalvor", "Brannoc",
}

var bossEpithets = []string{
	"Devourer", "Unbroken", "Bonecaller", "Ashen", "Hollow King", "Ravager",
	"Deathless", "Gloomweaver", "Iron-Tusked", "Pale", "Warden of Rot", "Crimson",
}

// Spawner builds encounters for a floor from the loaded templates.
type Spawner struct {
	templates []*Template
	roller    *dice.Roller
}

// NewSpawner creates a Spawner.
//
// Precondition: templates must be validated and ordered deterministically; roller must be non-nil.
func NewSpawner(templates []*Template, roller *dice.Roller) *Spawner {
	return &Spawner{templates: templates, roller: roller}
}

// Eligible returns the templates unlocked on floor, in registration order.
func (s *Spawner) Eligible(floor int) []*Template {
	var out []*Template
	for _, t := range s.templates {
		if t.UnlockFloor <= floor {
			out = append(out, t)
		}
	}
	return out
}

// GroupSize returns the member count for a regular encounter on floor given a
// roll in [0, 2].
func GroupSize(floor, roll int) int {
	return 2 + int(math.Floor(float64(floor)*0.3)) + roll + 2*(floor/10)
}

// Encounter spawns a regular monster group for floor.
//
// Precondition: floor >= 1.
// Postcondition: Returns an error only when no template is eligible.
func (s *Spawner) Encounter(floor int) (*MonsterGroup, error) {
	eligible := s.Eligible(floor)
	if len(eligible) == 0 {
		return nil, fmt.Errorf("enemy: no template unlocked on floor %d", floor)
	}
	t := eligible[s.roller.Index("encounter template", len(eligible))]
	count := GroupSize(floor, s.roller.IntRange("encounter size", 0, 2))
	g := stats.FloorGrowth(floor)
	rewards := Rewards{
		Gold: int(math.Round(t.Gold * float64(count) * g)),
		XP:   int(math.Round(t.XP * float64(count) * g)),
	}
	name := fmt.Sprintf("%s x%d", t.Name, count)
	return NewMonsterGroup(t.ID, name, floor, count, t.HP*g, t.Damage*g, t.AttackSpeed, rewards), nil
}

// Boss spawns the guardian of floor.
func (s *Spawner) Boss(floor int) *Boss {
	g := stats.FloorGrowth(floor)
	name := bossPrefixes[s.roller.Index("boss prefix", len(bossPrefixes))] + " the " +
		bossEpithets[s.roller.Index("boss epithet", len(bossEpithets))]
	rewards := Rewards{
		Gold: int(math.Round(BossBaseGold * g)),
		XP:   int(math.Round(BossBaseXP * g)),
	}
	return NewBoss(name, floor, BossBaseHP*g, BossBaseDamage*g, rewards)
}
