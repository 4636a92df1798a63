package hero

import (
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/stats"
)

// Riposte is the outcome of a duelist's reaction to an incoming hit.
type Riposte int

const (
	// NoRiposte means the hit lands normally.
	NoRiposte Riposte = iota
	// Counter negates the hit and answers with a full attack.
	Counter
	// Parry negates the hit and reflects half of it.
	Parry
	// Dodge negates the hit.
	Dodge
)

// String returns the outcome name.
func (r Riposte) String() string {
	switch r {
	case Counter:
		return "counter"
	case Parry:
		return "parry"
	case Dodge:
		return "dodge"
	default:
		return "none"
	}
}

// riposteWeights are the conditional outcome weights once a riposte triggers,
// indexed Counter, Parry, Dodge.
var riposteWeights = []float64{0.15, 0.35, 0.50}

// RollRiposte decides how a fighting duelist reacts to an incoming hit.
// Non-duelists always return NoRiposte without drawing.
func (h *Hero) RollRiposte(r *dice.Roller) Riposte {
	if h.Kind() != stats.KindDuelist || !h.IsFighting() {
		return NoRiposte
	}
	if !r.Chance("riposte", h.stats.RiposteChance) {
		return NoRiposte
	}
	switch r.Weighted("riposte outcome", riposteWeights) {
	case 0:
		return Counter
	case 1:
		return Parry
	default:
		return Dodge
	}
}
