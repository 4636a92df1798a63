package hero

import (
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/delve/internal/game/buff"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/item"
	"github.com/cory-johannsen/delve/internal/game/stats"
)

// Status is a hero's combat readiness.
type Status string

const (
	Fighting      Status = "fighting"
	Incapacitated Status = "incapacitated"
)

// Sentinel errors returned by equipment operations.
var (
	ErrNoSlot          = errors.New("no equipment slot accepts this item")
	ErrInvalidSlot     = errors.New("unknown equipment slot")
	ErrClassRestricted = errors.New("item cannot be used by this hero")
	ErrLevelTooLow     = errors.New("hero level below item requirement")
	ErrSlotEmpty       = errors.New("equipment slot is empty")
)

// Hero is one party member.
//
// The derived stat snapshot is recomputed on level-up, equipment change, buff
// change and meta change; it is never recomputed on read.
type Hero struct {
	Def         *Definition
	Level       int
	XP          int
	HP          float64
	Status      Status
	Equipment   *item.Equipment
	Buffs       *buff.Set
	AttackTimer float64
	// BuffTimer accumulates toward a priest's next buff cast.
	BuffTimer float64

	meta  stats.Meta
	stats stats.Snapshot
}

// New creates a level-1 hero at full health.
//
// Precondition: def must be non-nil and valid.
// Postcondition: Status == Fighting; HP == Stats().MaxHP.
func New(def *Definition, meta stats.Meta) *Hero {
	h := &Hero{
		Def:       def,
		Level:     1,
		Status:    Fighting,
		Equipment: item.NewEquipment(),
		Buffs:     buff.NewSet(),
		meta:      meta,
	}
	h.Recompute()
	h.HP = float64(h.stats.MaxHP)
	return h
}

// ID returns the hero's definition ID.
func (h *Hero) ID() string { return h.Def.ID }

// Kind returns the hero's variant.
func (h *Hero) Kind() stats.Kind { return h.Def.Stats.Kind }

// Stats returns the cached stat snapshot.
func (h *Hero) Stats() stats.Snapshot { return h.stats }

// MaxHP returns the cached max HP as a float.
func (h *Hero) MaxHP() float64 { return float64(h.stats.MaxHP) }

// IsFighting reports whether the hero participates in combat.
func (h *Hero) IsFighting() bool { return h.Status == Fighting }

// HPFraction returns HP / MaxHP.
func (h *Hero) HPFraction() float64 { return h.HP / h.MaxHP() }

// IsFullHP reports whether HP is at its maximum.
func (h *Hero) IsFullHP() bool { return h.HP >= h.MaxHP() }

// Recompute rebuilds the stat snapshot from level, equipment, buffs and meta and
// clamps HP to the new maximum.
//
// Postcondition: Stats() == stats.ComputeHero(def, level, equipment+buffs, meta).
func (h *Hero) Recompute() {
	mods := h.Equipment.Modifiers()
	mods.Merge(h.Buffs.Modifiers(), 1)
	h.stats = stats.ComputeHero(h.Def.Stats, h.Level, mods, h.meta)
	h.HP = math.Min(h.HP, h.MaxHP())
}

// SetMeta replaces the prestige bonuses and recomputes stats.
func (h *Hero) SetMeta(meta stats.Meta) {
	h.meta = meta
	h.Recompute()
}

// XPToNext returns the experience required to reach the next level.
func (h *Hero) XPToNext() int { return stats.XPThreshold(h.Level) }

// GainXP adds experience and applies every level-up it pays for.
// Current HP rises by the max HP gained.
//
// Precondition: amount >= 0.
// Postcondition: Returns the number of levels gained; Level <= stats.MaxLevel;
// at max level XP stays 0.
func (h *Hero) GainXP(amount int) int {
	if h.Level >= stats.MaxLevel || amount <= 0 {
		return 0
	}
	h.XP += amount
	gained := 0
	for h.Level < stats.MaxLevel && h.XP >= h.XPToNext() {
		h.XP -= h.XPToNext()
		h.Level++
		gained++
	}
	if h.Level >= stats.MaxLevel {
		h.XP = 0
	}
	if gained > 0 {
		before := h.MaxHP()
		h.Recompute()
		if h.IsFighting() {
			h.HP = math.Min(h.MaxHP(), h.HP+math.Max(0, h.MaxHP()-before))
		}
	}
	return gained
}

// CanEquip checks every equip guard for it without changing state.
func (h *Hero) CanEquip(it *item.Item) error {
	if _, ok := h.Equipment.SlotFor(it.Kind); !ok {
		return ErrNoSlot
	}
	if !it.AllowedFor(h.ID()) {
		return ErrClassRestricted
	}
	if h.Level < it.RequiredLevel {
		return fmt.Errorf("%w: level %d, requires %d", ErrLevelTooLow, h.Level, it.RequiredLevel)
	}
	return nil
}

// Equip places it in the best slot for its kind.
//
// Postcondition: on success returns the displaced item (possibly nil) and stats are recomputed;
// on error the hero is unchanged.
func (h *Hero) Equip(it *item.Item) (*item.Item, error) {
	if err := h.CanEquip(it); err != nil {
		return nil, err
	}
	slot, _ := h.Equipment.SlotFor(it.Kind)
	prev := h.Equipment.Put(slot, it)
	h.Recompute()
	return prev, nil
}

// Unequip empties slot and returns its item.
//
// Postcondition: on success stats are recomputed.
func (h *Hero) Unequip(slot item.Slot) (*item.Item, error) {
	if !slot.Valid() {
		return nil, ErrInvalidSlot
	}
	it := h.Equipment.Take(slot)
	if it == nil {
		return nil, ErrSlotEmpty
	}
	h.Recompute()
	return it, nil
}

// ApplyBuff adds or refreshes a buff and recomputes stats.
func (h *Hero) ApplyBuff(def *buff.Definition, potency, duration float64) error {
	if err := h.Buffs.Apply(def, potency, duration); err != nil {
		return err
	}
	h.Recompute()
	return nil
}

// TickBuffs decays active buffs by dt and recomputes stats when any expired.
//
// Postcondition: Returns the IDs of expired buffs.
func (h *Hero) TickBuffs(dt float64) []string {
	expired := h.Buffs.Tick(dt)
	if len(expired) > 0 {
		h.Recompute()
	}
	return expired
}

// Heal restores up to amount HP.
//
// Postcondition: Returns the HP actually restored; HP <= MaxHP.
func (h *Hero) Heal(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	before := h.HP
	h.HP = math.Min(h.MaxHP(), h.HP+amount)
	return h.HP - before
}

// Regenerate applies passive HP regeneration for dt seconds.
func (h *Hero) Regenerate(dt float64) float64 {
	return h.Heal(h.stats.HPRegen * dt)
}

// TakeDamage removes up to d HP. Reaching zero incapacitates the hero.
//
// Postcondition: Returns the HP actually lost; HP >= 0.
func (h *Hero) TakeDamage(d float64) float64 {
	if d <= 0 {
		return 0
	}
	lost := math.Min(h.HP, d)
	h.HP -= lost
	if h.HP <= 0 {
		h.HP = 0
		h.Status = Incapacitated
		h.AttackTimer = 0
	}
	return lost
}

// Revive restores the hero to full health and fighting status.
func (h *Hero) Revive() {
	h.HP = h.MaxHP()
	h.Status = Fighting
	h.AttackTimer = 0
}

// Attack rolls one attack.
//
// Postcondition: damage == Damage, or Damage*CritDamage when crit.
func (h *Hero) Attack(r *dice.Roller) (damage float64, crit bool) {
	crit = r.Chance("crit", h.stats.CritChance)
	damage = h.stats.Damage
	if crit {
		damage *= h.stats.CritDamage
	}
	return damage, crit
}

// RestoreStats rebuilds the snapshot for a hero rehydrated from a save and clamps HP.
// Status becomes Incapacitated when HP is zero.
func (h *Hero) RestoreStats(meta stats.Meta) {
	h.meta = meta
	h.Recompute()
	h.HP = math.Max(0, h.HP)
	if h.HP <= 0 {
		h.Status = Incapacitated
	}
}
