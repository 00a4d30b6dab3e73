package clique

import (
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/values"
	"gonum.org/v1/gonum/mat"
)

// CloneDeep returns an independent copy of c: a new Chain slice (the
// *linear.Conditional values themselves are treated as immutable once
// produced by elimination, so they are shared, matching Values.Clone's
// shallow-copy convention for immutable leaves), a fresh Gradient map, and
// Parent/Children copied by value (they are plain IDs, not owned objects).
func (c *Clique) CloneDeep() *Clique {
	out := &Clique{
		Parent:       c.Parent,
		Children:     append([]ID(nil), c.Children...),
		Chain:        append([]*linear.Conditional(nil), c.Chain...),
		CachedFactor: c.CachedFactor,
		Gradient:     make(map[values.Slot][]float64, len(c.Gradient)),
	}
	for s, g := range c.Gradient {
		out.Gradient[s] = append([]float64(nil), g...)
	}
	return out
}

// PermuteWithInverse rewrites every frontal and separator slot label in c
// through perm's inverse mapping (new slot -> old slot lookups become old
// slot -> new slot writes), and applies the same relabeling to the cached
// factor. Used when a local re-elimination assigns new slots to the
// variables this clique touches.
func (c *Clique) PermuteWithInverse(perm *ordering.Permutation) {
	for _, cond := range c.Chain {
		cond.Frontal = remap(perm, cond.Frontal)
		for i, s := range cond.SeparatorSlots {
			cond.SeparatorSlots[i] = remap(perm, s)
		}
	}
	if c.CachedFactor != nil {
		relabelJacobian(c.CachedFactor, perm)
	}
	relabelGradient(c.Gradient, perm)
}

// PermuteSeparatorWithInverse relabels only the separator slots (not the
// frontals) through perm, and reports whether any label actually changed —
// the caller uses this to decide whether the cached factor also needs
// relabeling.
func (c *Clique) PermuteSeparatorWithInverse(perm *ordering.Permutation) bool {
	changed := false
	if len(c.Chain) == 0 {
		return false
	}
	last := c.Chain[len(c.Chain)-1]
	for i, s := range last.SeparatorSlots {
		nw := remap(perm, s)
		if nw != s {
			changed = true
		}
		last.SeparatorSlots[i] = nw
	}
	if changed && c.CachedFactor != nil {
		relabelJacobian(c.CachedFactor, perm)
	}
	return changed
}

func remap(perm *ordering.Permutation, slot values.Slot) values.Slot {
	if int(slot) >= perm.Len() {
		return slot
	}
	return perm.Apply(slot)
}

// relabelJacobian rewrites jf's variable blocks in place to use perm's
// relabeled slots, by building a fresh block set and swapping it in —
// Jacobian has no block-rename primitive, and mutating its block map while
// keys shift under a bijection risks colliding writes.
func relabelJacobian(jf *linear.Jacobian, perm *ordering.Permutation) {
	type relabeled struct {
		slot values.Slot
		blk  *mat.Dense
	}
	fresh := make([]relabeled, 0, len(jf.Vars()))
	for _, s := range jf.Vars() {
		fresh = append(fresh, relabeled{slot: remap(perm, s), blk: jf.Block(s)})
	}
	jf.Reset()
	for _, r := range fresh {
		_ = jf.SetBlock(r.slot, r.blk)
	}
}

func relabelGradient(g map[values.Slot][]float64, perm *ordering.Permutation) {
	relabeled := make(map[values.Slot][]float64, len(g))
	for s, v := range g {
		relabeled[remap(perm, s)] = v
	}
	for k := range g {
		delete(g, k)
	}
	for k, v := range relabeled {
		g[k] = v
	}
}
