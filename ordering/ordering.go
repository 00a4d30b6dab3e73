package ordering

import (
	"errors"

	"github.com/tjpotts/isam2/values"
)

// Sentinel errors for the ordering package.
var (
	// ErrKeyNotInOrdering indicates a Key was looked up but has no assigned Slot.
	ErrKeyNotInOrdering = errors.New("ordering: key not in ordering")

	// ErrSlotOutOfRange indicates a Slot index falls outside 0..Len()-1.
	ErrSlotOutOfRange = errors.New("ordering: slot out of range")

	// ErrKeyAlreadyOrdered indicates Append was called with a Key already present.
	ErrKeyAlreadyOrdered = errors.New("ordering: key already has a slot")
)

// Ordering is the bijection between variable Keys and dense Slots 0..N-1.
// Slots are always contiguous: Append assigns the next free slot, and no
// operation here ever leaves a gap. Local re-eliminations build a *new*
// Ordering for the affected variables and translate between its slots and
// the persistent global slots with plain slot-to-slot maps, not a
// Permutation.
type Ordering struct {
	keyToSlot map[values.Key]values.Slot
	slotToKey []values.Key
}

// New returns an empty Ordering.
func New() *Ordering {
	return &Ordering{keyToSlot: make(map[values.Key]values.Slot)}
}

// Len returns the number of Keys currently assigned a Slot. Complexity: O(1).
func (o *Ordering) Len() int {
	return len(o.slotToKey)
}

// Append assigns the next contiguous Slot to key. Returns ErrKeyAlreadyOrdered
// if key already has a Slot. Complexity: O(1) amortized.
func (o *Ordering) Append(key values.Key) (values.Slot, error) {
	if _, ok := o.keyToSlot[key]; ok {
		return 0, ErrKeyAlreadyOrdered
	}
	slot := values.Slot(len(o.slotToKey))
	o.slotToKey = append(o.slotToKey, key)
	o.keyToSlot[key] = slot
	return slot, nil
}

// SlotOf returns the Slot assigned to key, or ErrKeyNotInOrdering.
// Complexity: O(1).
func (o *Ordering) SlotOf(key values.Key) (values.Slot, error) {
	slot, ok := o.keyToSlot[key]
	if !ok {
		return 0, ErrKeyNotInOrdering
	}
	return slot, nil
}

// KeyOf returns the Key assigned to slot, or ErrSlotOutOfRange.
// Complexity: O(1).
func (o *Ordering) KeyOf(slot values.Slot) (values.Key, error) {
	if slot < 0 || int(slot) >= len(o.slotToKey) {
		return 0, ErrSlotOutOfRange
	}
	return o.slotToKey[slot], nil
}

// Has reports whether key has an assigned Slot.
func (o *Ordering) Has(key values.Key) bool {
	_, ok := o.keyToSlot[key]
	return ok
}

// Keys returns the Keys in Slot order (index i is the Key at Slot i).
// Complexity: O(n).
func (o *Ordering) Keys() []values.Key {
	return append([]values.Key(nil), o.slotToKey...)
}

// Clone returns a deep copy of the ordering.
func (o *Ordering) Clone() *Ordering {
	out := &Ordering{
		keyToSlot: make(map[values.Key]values.Slot, len(o.keyToSlot)),
		slotToKey: append([]values.Key(nil), o.slotToKey...),
	}
	for k, s := range o.keyToSlot {
		out.keyToSlot[k] = s
	}
	return out
}
