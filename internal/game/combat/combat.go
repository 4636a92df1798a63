// Package combat resolves one fighting tick between the party and the current
// enemy: priest routines, hero attacks, and the enemy's attacks with armor,
// ripostes and thorns.
package combat

import (
	"math"

	"github.com/cory-johannsen/delve/internal/game/buff"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/enemy"
	"github.com/cory-johannsen/delve/internal/game/hero"
	"github.com/cory-johannsen/delve/internal/game/state"
	"github.com/cory-johannsen/delve/internal/game/stats"
)

// timerEpsilon keeps clamped attack timers strictly below their interval.
const timerEpsilon = 1e-9

// Round is the input of one fighting tick.
type Round struct {
	Party    []*hero.Hero
	Enemy    enemy.Enemy
	Floor    int
	BuffPool []*buff.Definition
}

// Hit is one hero's share of an enemy attack after resolution.
type Hit struct {
	HeroID    string
	Share     float64 // pre-armor damage assigned to the hero
	Mitigated float64
	Taken     float64
	Avoided   float64
	Riposte   hero.Riposte
}

// EnemyAttack records one attack by the enemy. Damage counts only the shares that
// landed before the enemy died.
//
// Invariant: Taken + Mitigated + Avoided == Damage, summed over Hits.
type EnemyAttack struct {
	Damage  float64
	Focused bool
	Hits    []Hit
}

// Report is everything that happened during one tick.
type Report struct {
	HeroAttacks  int
	Crits        int
	EnemyAttacks []EnemyAttack
	Casts        []hero.BuffCast
}

// Totals sums the enemy attacks of r.
func (r Report) Totals() (damage, taken, mitigated, avoided float64) {
	for _, a := range r.EnemyAttacks {
		damage += a.Damage
		for _, h := range a.Hits {
			taken += h.Taken
			mitigated += h.Mitigated
			avoided += h.Avoided
		}
	}
	return damage, taken, mitigated, avoided
}

// Resolve runs priest routines, hero attacks and enemy attacks for dt seconds,
// in that order, accumulating into tally.
//
// Precondition: rd.Enemy is non-nil; dt >= 0; roller and tally are non-nil.
// Postcondition: When the enemy is dead every hero attack timer is below its interval.
func Resolve(rd Round, dt float64, roller *dice.Roller, tally *state.TickDamage) Report {
	var rep Report
	if dt <= 0 || rd.Enemy == nil {
		return rep
	}
	priestRoutines(rd, dt, roller, tally, &rep)
	heroAttacks(rd, dt, roller, tally, &rep)
	if rd.Enemy.IsAlive() {
		enemyAttacks(rd, dt, roller, tally, &rep)
	}
	if !rd.Enemy.IsAlive() {
		clampTimers(rd.Party)
	}
	return rep
}

func priestRoutines(rd Round, dt float64, roller *dice.Roller, tally *state.TickDamage, rep *Report) {
	for _, h := range rd.Party {
		if !h.IsFighting() || h.Kind() != stats.KindPriest {
			continue
		}
		tally.Healed += h.PriestHeal(dt, rd.Party)
		rep.Casts = append(rep.Casts, h.PriestBuff(dt, rd.Party, rd.BuffPool, roller)...)
	}
}

func heroAttacks(rd Round, dt float64, roller *dice.Roller, tally *state.TickDamage, rep *Report) {
	e := rd.Enemy
	for _, h := range rd.Party {
		if !h.IsFighting() {
			continue
		}
		st := h.Stats()
		interval := stats.Interval(st.AttackSpeed)
		if st.Damage <= 0 || math.IsInf(interval, 1) {
			h.AttackTimer = 0
			continue
		}
		h.AttackTimer += dt
		for h.AttackTimer >= interval && e.IsAlive() {
			h.AttackTimer -= interval
			strike(h, e, roller, tally, rep)
		}
	}
}

// strike lands one attack of h on e, including crit and life steal.
func strike(h *hero.Hero, e enemy.Enemy, roller *dice.Roller, tally *state.TickDamage, rep *Report) {
	dmg, crit := h.Attack(roller)
	dealt := e.TakeDamage(dmg)
	tally.Dealt += dealt
	rep.HeroAttacks++
	if crit {
		rep.Crits++
	}
	if ls := h.Stats().LifeSteal; ls > 0 && dealt > 0 {
		tally.Healed += h.Heal(dealt * ls)
	}
}

func enemyAttacks(rd Round, dt float64, roller *dice.Roller, tally *state.TickDamage, rep *Report) {
	e := rd.Enemy
	interval := stats.Interval(e.AttackSpeed())
	if math.IsInf(interval, 1) {
		e.SetAttackTimer(0)
		return
	}
	e.SetAttackTimer(e.AttackTimer() + dt)
	c := stats.MitigationConstant(rd.Floor)
	for e.IsAlive() && e.AttackTimer() >= interval {
		fighting := fightingHeroes(rd.Party)
		if len(fighting) == 0 {
			e.SetAttackTimer(0)
			return
		}
		e.SetAttackTimer(e.AttackTimer() - interval)

		atk := EnemyAttack{Damage: e.AttackDamage()}
		var targets []*hero.Hero
		if e.NextAttackFocused() {
			atk.Focused = true
			targets = []*hero.Hero{fighting[roller.Index("boss focus", len(fighting))]}
		} else {
			targets = fighting[:e.Engaged(len(fighting))]
		}
		if len(targets) == 0 || atk.Damage <= 0 {
			continue
		}
		share := atk.Damage / float64(len(targets))
		for i, h := range targets {
			atk.Hits = append(atk.Hits, resolveHit(h, e, share, c, roller, tally, rep))
			// A riposte or thorns can kill the enemy mid-swing; later shares never land.
			if !e.IsAlive() && i < len(targets)-1 {
				atk.Damage = share * float64(i+1)
				break
			}
		}
		rep.EnemyAttacks = append(rep.EnemyAttacks, atk)
	}
}

// resolveHit applies one share of an enemy attack to h.
// Taken counts the full post-armor damage even when it exceeds the hero's HP.
func resolveHit(h *hero.Hero, e enemy.Enemy, share, c float64, roller *dice.Roller, tally *state.TickDamage, rep *Report) Hit {
	st := h.Stats()
	d := share * (1 - stats.Reduction(st.Armor, c))
	hit := Hit{HeroID: h.ID(), Share: share, Mitigated: share - d}
	tally.Mitigated += hit.Mitigated

	hit.Riposte = h.RollRiposte(roller)
	switch hit.Riposte {
	case hero.Counter:
		hit.Avoided = d
		strike(h, e, roller, tally, rep)
	case hero.Parry:
		hit.Avoided = d
		tally.Redirected += e.TakeDamage(d / 2)
	case hero.Dodge:
		hit.Avoided = d
	default:
		hit.Taken = d
		h.TakeDamage(d)
		if st.Thorns > 0 {
			tally.Redirected += e.TakeDamage(st.Thorns)
		}
	}
	tally.Taken += hit.Taken
	tally.Avoided += hit.Avoided
	return hit
}

func fightingHeroes(party []*hero.Hero) []*hero.Hero {
	out := make([]*hero.Hero, 0, len(party))
	for _, h := range party {
		if h.IsFighting() {
			out = append(out, h)
		}
	}
	return out
}

func clampTimers(party []*hero.Hero) {
	for _, h := range party {
		interval := stats.Interval(h.Stats().AttackSpeed)
		if math.IsInf(interval, 1) {
			continue
		}
		if h.AttackTimer >= interval {
			h.AttackTimer = math.Max(0, interval-timerEpsilon)
		}
	}
}
