package item

// DefaultCapacity is the inventory size of a new run.
const DefaultCapacity = 30

// Inventory is an ordered, capacity-bounded list of unequipped items.
type Inventory struct {
	capacity int
	items    []*Item
}

// NewInventory creates an empty Inventory.
//
// Precondition: capacity >= 0.
func NewInventory(capacity int) *Inventory {
	return &Inventory{capacity: capacity}
}

// Add appends it to the inventory.
//
// Postcondition: Returns false and leaves the inventory unchanged when it is full or it is nil.
func (inv *Inventory) Add(it *Item) bool {
	if it == nil || inv.Full() {
		return false
	}
	inv.items = append(inv.items, it)
	return true
}

// Remove takes the item with id out of the inventory.
//
// Postcondition: Returns (nil, false) when no item has that id.
func (inv *Inventory) Remove(id string) (*Item, bool) {
	for i, it := range inv.items {
		if it.ID == id {
			inv.items = append(inv.items[:i], inv.items[i+1:]...)
			return it, true
		}
	}
	return nil, false
}

// Get returns the item with id without removing it.
func (inv *Inventory) Get(id string) (*Item, bool) {
	for _, it := range inv.items {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// ToggleLock flips the Locked flag of the item with id.
//
// Postcondition: Returns the new lock state, or ok == false when the item is absent.
func (inv *Inventory) ToggleLock(id string) (locked bool, ok bool) {
	it, found := inv.Get(id)
	if !found {
		return false, false
	}
	it.Locked = !it.Locked
	return it.Locked, true
}

// Items returns a copy of the item list in insertion order.
// The items themselves are shared.
func (inv *Inventory) Items() []*Item {
	return append([]*Item(nil), inv.items...)
}

// Len returns the number of held items.
func (inv *Inventory) Len() int { return len(inv.items) }

// Capacity returns the maximum number of items.
func (inv *Inventory) Capacity() int { return inv.capacity }

// Full reports whether no further item fits.
func (inv *Inventory) Full() bool { return len(inv.items) >= inv.capacity }
