package ordering_test

import (
	"errors"
	"testing"

	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/values"
)

func TestOrdering_AppendAssignsContiguousSlots(t *testing.T) {
	ord := ordering.New()
	kx := values.NewKey('x', 0)
	kl := values.NewKey('l', 0)

	s0, err := ord.Append(kx)
	if err != nil || s0 != 0 {
		t.Fatalf("Append(kx) = (%v, %v), want (0, nil)", s0, err)
	}
	s1, err := ord.Append(kl)
	if err != nil || s1 != 1 {
		t.Fatalf("Append(kl) = (%v, %v), want (1, nil)", s1, err)
	}
	if ord.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ord.Len())
	}
}

func TestOrdering_AppendDuplicateKey(t *testing.T) {
	ord := ordering.New()
	k := values.NewKey('x', 0)
	_, _ = ord.Append(k)
	if _, err := ord.Append(k); !errors.Is(err, ordering.ErrKeyAlreadyOrdered) {
		t.Fatalf("got %v, want ErrKeyAlreadyOrdered", err)
	}
}

func TestOrdering_SlotOfAndKeyOfRoundTrip(t *testing.T) {
	ord := ordering.New()
	k := values.NewKey('x', 3)
	slot, _ := ord.Append(k)

	gotSlot, err := ord.SlotOf(k)
	if err != nil || gotSlot != slot {
		t.Fatalf("SlotOf = (%v, %v), want (%v, nil)", gotSlot, err, slot)
	}
	gotKey, err := ord.KeyOf(slot)
	if err != nil || gotKey != k {
		t.Fatalf("KeyOf = (%v, %v), want (%v, nil)", gotKey, err, k)
	}
}

func TestOrdering_KeyOfOutOfRange(t *testing.T) {
	ord := ordering.New()
	if _, err := ord.KeyOf(values.Slot(0)); !errors.Is(err, ordering.ErrSlotOutOfRange) {
		t.Fatalf("got %v, want ErrSlotOutOfRange", err)
	}
}

func TestOrdering_CloneIsIndependent(t *testing.T) {
	ord := ordering.New()
	k1 := values.NewKey('x', 0)
	_, _ = ord.Append(k1)

	clone := ord.Clone()
	k2 := values.NewKey('x', 1)
	_, _ = clone.Append(k2)

	if ord.Has(k2) {
		t.Fatalf("Append on clone leaked into original ordering")
	}
	if !clone.Has(k1) {
		t.Fatalf("clone should retain keys present at clone time")
	}
}

// testGraph is a minimal ordering.Graph built directly from an adjacency map.
type testGraph struct {
	vars      []values.Key
	neighbors map[values.Key][]values.Key
}

func (g testGraph) Variables() []values.Key           { return g.vars }
func (g testGraph) Neighbors(k values.Key) []values.Key { return g.neighbors[k] }

func TestOrder_ConstrainedKeysOrderedLast(t *testing.T) {
	a := values.NewKey('x', 0)
	b := values.NewKey('x', 1)
	c := values.NewKey('x', 2)
	g := testGraph{
		vars: []values.Key{a, b, c},
		neighbors: map[values.Key][]values.Key{
			a: {b}, b: {a, c}, c: {b},
		},
	}

	order := ordering.Order(g, []values.Key{b})
	if len(order) != 3 {
		t.Fatalf("Order returned %d keys, want 3", len(order))
	}
	if order[len(order)-1] != b {
		t.Fatalf("constrained key %v not ordered last: %v", b, order)
	}
	seen := make(map[values.Key]bool, 3)
	for _, k := range order {
		seen[k] = true
	}
	if !seen[a] || !seen[b] || !seen[c] {
		t.Fatalf("Order dropped a variable: %v", order)
	}
}

func TestOrder_IsolatedVertexOrderedFirst(t *testing.T) {
	// A degree-0 vertex has the smallest possible degree and should be
	// eliminated before any vertex with neighbors.
	isolated := values.NewKey('x', 0)
	a := values.NewKey('x', 1)
	b := values.NewKey('x', 2)
	g := testGraph{
		vars: []values.Key{isolated, a, b},
		neighbors: map[values.Key][]values.Key{
			a: {b}, b: {a},
		},
	}
	order := ordering.Order(g, nil)
	if order[0] != isolated {
		t.Fatalf("Order = %v, want isolated vertex first", order)
	}
}
