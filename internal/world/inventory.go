package world

// Stack is a pile of one item type inside a slot. Count is always > 0; an
// emptied slot is set back to nil.
type Stack struct {
	Item  string `msgpack:"item" json:"item"`
	Count int    `msgpack:"count" json:"count"`
}

// ItemCount is an (item, amount) pair used by recipes, trades and rewards.
type ItemCount struct {
	Item  string `yaml:"item" json:"item"`
	Count int    `yaml:"count" json:"count"`
}

// StackSizer reports the maximum stack size for an item.
type StackSizer func(item string) int

// Inventory is a fixed-size array of optional stacks.
// Accessed only from the game loop goroutine.
type Inventory struct {
	Slots []*Stack
}

// NewInventory creates an empty inventory with size slots.
func NewInventory(size int) *Inventory {
	return &Inventory{Slots: make([]*Stack, size)}
}

// Size returns the number of slots.
func (inv *Inventory) Size() int {
	return len(inv.Slots)
}

// Count returns how many of item the inventory holds across all stacks.
func (inv *Inventory) Count(item string) int {
	n := 0
	for _, s := range inv.Slots {
		if s != nil && s.Item == item {
			n += s.Count
		}
	}
	return n
}

// Slot returns the stack in slot i, or nil when empty or out of range.
func (inv *Inventory) Slot(i int) *Stack {
	if i < 0 || i >= len(inv.Slots) {
		return nil
	}
	return inv.Slots[i]
}

// room reports how many more of item fit, topping up existing stacks first.
func (inv *Inventory) room(item string, stackSize int) int {
	if stackSize < 1 {
		stackSize = 1
	}
	n := 0
	for _, s := range inv.Slots {
		switch {
		case s == nil:
			n += stackSize
		case s.Item == item && s.Count < stackSize:
			n += stackSize - s.Count
		}
	}
	return n
}

// CanAdd reports whether count of item fit without changing anything.
func (inv *Inventory) CanAdd(item string, count, stackSize int) bool {
	return inv.room(item, stackSize) >= count
}

// Add stores count of item, topping up existing stacks before opening new
// ones. Either everything fits or nothing changes.
func (inv *Inventory) Add(item string, count, stackSize int) error {
	if count <= 0 {
		return nil
	}
	if stackSize < 1 {
		stackSize = 1
	}
	if !inv.CanAdd(item, count, stackSize) {
		return ErrInventoryFull
	}
	left := count
	for _, s := range inv.Slots {
		if left == 0 {
			break
		}
		if s != nil && s.Item == item && s.Count < stackSize {
			n := min(stackSize-s.Count, left)
			s.Count += n
			left -= n
		}
	}
	for i := range inv.Slots {
		if left == 0 {
			break
		}
		if inv.Slots[i] == nil {
			n := min(stackSize, left)
			inv.Slots[i] = &Stack{Item: item, Count: n}
			left -= n
		}
	}
	return nil
}

// Remove takes count of item, draining the last stacks first. Either the full
// amount is removed or nothing changes.
func (inv *Inventory) Remove(item string, count int) error {
	if count <= 0 {
		return nil
	}
	if inv.Count(item) < count {
		return ErrInsufficientItems
	}
	left := count
	for i := len(inv.Slots) - 1; i >= 0 && left > 0; i-- {
		s := inv.Slots[i]
		if s == nil || s.Item != item {
			continue
		}
		n := min(s.Count, left)
		s.Count -= n
		left -= n
		if s.Count == 0 {
			inv.Slots[i] = nil
		}
	}
	return nil
}

// TakeFromSlot removes count items from slot i.
func (inv *Inventory) TakeFromSlot(i, count int) error {
	if i < 0 || i >= len(inv.Slots) {
		return ErrSlotOutOfRange
	}
	s := inv.Slots[i]
	if s == nil || s.Count < count {
		return ErrInsufficientItems
	}
	s.Count -= count
	if s.Count == 0 {
		inv.Slots[i] = nil
	}
	return nil
}

// Swap exchanges two slots.
func (inv *Inventory) Swap(a, b int) error {
	if a < 0 || b < 0 || a >= len(inv.Slots) || b >= len(inv.Slots) {
		return ErrSlotOutOfRange
	}
	inv.Slots[a], inv.Slots[b] = inv.Slots[b], inv.Slots[a]
	return nil
}

// Exchange removes every item in give and adds every item in take as one
// atomic step: on any failure the inventory is left exactly as it was.
// Crafting and barter trades both go through here.
func (inv *Inventory) Exchange(give, take []ItemCount, sizeOf StackSizer) error {
	scratch := inv.Clone()
	for _, g := range give {
		if err := scratch.Remove(g.Item, g.Count); err != nil {
			return err
		}
	}
	for _, t := range take {
		if err := scratch.Add(t.Item, t.Count, sizeOf(t.Item)); err != nil {
			return err
		}
	}
	inv.Slots = scratch.Slots
	return nil
}

// Clone returns a deep copy.
func (inv *Inventory) Clone() *Inventory {
	cp := &Inventory{Slots: make([]*Stack, len(inv.Slots))}
	for i, s := range inv.Slots {
		if s != nil {
			st := *s
			cp.Slots[i] = &st
		}
	}
	return cp
}
