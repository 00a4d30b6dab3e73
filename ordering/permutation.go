package ordering

import "github.com/tjpotts/isam2/values"

// Permutation is a reversible mapping between two Slot spaces: "old" (the
// slot numbering before a local re-elimination) and "new" (the renumbering
// the re-elimination assigned to the affected variables). It is applied
// lazily — see Permuted — to avoid physically rewriting unaffected cliques'
// stored matrices every time a handful of variables are renumbered.
type Permutation struct {
	oldToNew []values.Slot
	newToOld []values.Slot
}

// Identity returns a Permutation that maps every slot in 0..n-1 to itself.
func Identity(n int) *Permutation {
	oldToNew := make([]values.Slot, n)
	newToOld := make([]values.Slot, n)
	for i := 0; i < n; i++ {
		oldToNew[i] = values.Slot(i)
		newToOld[i] = values.Slot(i)
	}
	return &Permutation{oldToNew: oldToNew, newToOld: newToOld}
}

// NewPermutation builds a Permutation from an explicit old-slot -> new-slot
// table. newToOld is derived by inverting it. oldToNew must be a bijection on
// 0..len(oldToNew)-1; violations are a programmer error and panic rather than
// return an error, since a non-bijective table can only come from a caller
// bug, not from any runtime condition worth recovering from.
func NewPermutation(oldToNew []values.Slot) *Permutation {
	newToOld := make([]values.Slot, len(oldToNew))
	seen := make([]bool, len(oldToNew))
	for old, nw := range oldToNew {
		if int(nw) < 0 || int(nw) >= len(oldToNew) {
			panic("ordering: permutation target out of range")
		}
		if seen[nw] {
			panic("ordering: permutation is not a bijection")
		}
		seen[nw] = true
		newToOld[nw] = values.Slot(old)
	}
	return &Permutation{oldToNew: append([]values.Slot(nil), oldToNew...), newToOld: newToOld}
}

// Len returns the number of slots this permutation covers.
func (p *Permutation) Len() int {
	return len(p.oldToNew)
}

// Apply maps an old slot to its new slot.
func (p *Permutation) Apply(old values.Slot) values.Slot {
	return p.oldToNew[old]
}

// Inverse maps a new slot back to its old slot.
func (p *Permutation) Inverse(nw values.Slot) values.Slot {
	return p.newToOld[nw]
}

// Compose returns the permutation equivalent to applying p then q: its
// old-space is p's old-space, its new-space is q's new-space. p and q must
// have matching length.
func Compose(p, q *Permutation) *Permutation {
	oldToNew := make([]values.Slot, len(p.oldToNew))
	for old := range p.oldToNew {
		oldToNew[old] = q.Apply(p.Apply(values.Slot(old)))
	}
	return NewPermutation(oldToNew)
}
