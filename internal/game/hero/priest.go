package hero

import (
	"math"

	"github.com/cory-johannsen/delve/internal/game/buff"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/stats"
)

// BuffCast records one buff a priest applied.
type BuffCast struct {
	TargetID string
	BuffID   string
	Potency  float64
	Duration float64
}

// LowestHPFraction returns the fighting hero with the lowest HP fraction, or nil
// when nobody is fighting. Ties go to the earliest hero in party order.
func LowestHPFraction(party []*Hero) *Hero {
	var target *Hero
	for _, h := range party {
		if !h.IsFighting() {
			continue
		}
		if target == nil || h.HPFraction() < target.HPFraction() {
			target = h
		}
	}
	return target
}

// PriestHeal heals the most injured fighting ally by HealPower*dt.
//
// Precondition: h is a fighting priest.
// Postcondition: Returns the HP restored.
func (h *Hero) PriestHeal(dt float64, party []*Hero) float64 {
	target := LowestHPFraction(party)
	if target == nil {
		return 0
	}
	return target.Heal(h.stats.HealPower * dt)
}

// PriestBuff advances the buff cooldown by dt and casts a random buff from pool on a
// random fighting ally each time the cooldown of 1/BuffChance seconds elapses.
// A non-positive BuffChance never casts.
//
// Postcondition: Returns every cast made; BuffTimer < cooldown.
func (h *Hero) PriestBuff(dt float64, party []*Hero, pool []*buff.Definition, r *dice.Roller) []BuffCast {
	interval := stats.Interval(h.stats.BuffChance)
	if math.IsInf(interval, 1) || len(pool) == 0 {
		h.BuffTimer = 0
		return nil
	}
	h.BuffTimer += dt
	var casts []BuffCast
	for h.BuffTimer >= interval {
		h.BuffTimer -= interval
		allies := fighting(party)
		if len(allies) == 0 {
			continue
		}
		def := pool[r.Index("buff pick", len(pool))]
		target := allies[r.Index("buff target", len(allies))]
		duration := def.Duration * h.stats.BuffDuration
		potency := h.stats.BuffPotency
		if err := target.ApplyBuff(def, potency, duration); err != nil {
			continue
		}
		casts = append(casts, BuffCast{TargetID: target.ID(), BuffID: def.ID, Potency: potency, Duration: duration})
	}
	return casts
}

func fighting(party []*Hero) []*Hero {
	out := make([]*Hero, 0, len(party))
	for _, h := range party {
		if h.IsFighting() {
			out = append(out, h)
		}
	}
	return out
}
