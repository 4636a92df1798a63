package item

import "github.com/cory-johannsen/delve/internal/game/stats"

// Slot identifies an equipment slot on a hero.
type Slot string

const (
	SlotWeapon  Slot = "weapon"
	SlotBody    Slot = "body"
	SlotHead    Slot = "head"
	SlotLegs    Slot = "legs"
	SlotHands   Slot = "hands"
	SlotFeet    Slot = "feet"
	SlotAmulet  Slot = "amulet"
	SlotRing1   Slot = "ring1"
	SlotRing2   Slot = "ring2"
	SlotTrinket Slot = "trinket"
)

// Slots lists every equipment slot in display order.
var Slots = []Slot{
	SlotWeapon, SlotBody, SlotHead, SlotLegs, SlotHands,
	SlotFeet, SlotAmulet, SlotRing1, SlotRing2, SlotTrinket,
}

// slotKinds maps each slot to the item kind it accepts.
var slotKinds = map[Slot]Kind{
	SlotWeapon:  KindWeapon,
	SlotBody:    KindBody,
	SlotHead:    KindHead,
	SlotLegs:    KindLegs,
	SlotHands:   KindHands,
	SlotFeet:    KindFeet,
	SlotAmulet:  KindAmulet,
	SlotRing1:   KindRing,
	SlotRing2:   KindRing,
	SlotTrinket: KindTrinket,
}

// Valid reports whether s names an equipment slot.
func (s Slot) Valid() bool {
	_, ok := slotKinds[s]
	return ok
}

// Accepts reports whether items of kind k fit in s.
func (s Slot) Accepts(k Kind) bool {
	return slotKinds[s] == k
}

// Equipment holds the item equipped in each slot of one hero.
type Equipment struct {
	slots map[Slot]*Item
}

// NewEquipment returns an Equipment with every slot empty.
func NewEquipment() *Equipment {
	return &Equipment{slots: make(map[Slot]*Item)}
}

// Get returns the item in s, or nil when empty.
func (e *Equipment) Get(s Slot) *Item {
	return e.slots[s]
}

// SlotFor picks the slot an item of kind k should go into: the first empty accepting
// slot, otherwise the first accepting slot.
//
// Postcondition: Returns ok == false when no slot accepts k.
func (e *Equipment) SlotFor(k Kind) (Slot, bool) {
	var first Slot
	found := false
	for _, s := range Slots {
		if !s.Accepts(k) {
			continue
		}
		if e.slots[s] == nil {
			return s, true
		}
		if !found {
			first, found = s, true
		}
	}
	return first, found
}

// Put places it in s and returns the item it displaced, if any.
//
// Precondition: s.Accepts(it.Kind).
func (e *Equipment) Put(s Slot, it *Item) (previous *Item) {
	previous = e.slots[s]
	e.slots[s] = it
	return previous
}

// Take empties s and returns what was there.
func (e *Equipment) Take(s Slot) *Item {
	it := e.slots[s]
	delete(e.slots, s)
	return it
}

// Filled returns every occupied slot with its item.
func (e *Equipment) Filled() map[Slot]*Item {
	out := make(map[Slot]*Item, len(e.slots))
	for s, it := range e.slots {
		if it != nil {
			out[s] = it
		}
	}
	return out
}

// Modifiers sums the stat bonuses of every equipped item.
func (e *Equipment) Modifiers() stats.Modifiers {
	m := stats.NewModifiers()
	for _, s := range Slots {
		if it := e.slots[s]; it != nil {
			m.Merge(it.Modifiers(), 1)
		}
	}
	return m
}
