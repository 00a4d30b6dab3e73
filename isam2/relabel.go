package isam2

import (
	"github.com/tjpotts/isam2/elimination"
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/values"
)

// relabelJacobianSlots returns a new Jacobian with jf's variable blocks
// relabeled through m (old slot -> new slot); a slot absent from m is left
// unchanged. Block matrices themselves are shared with jf (they are never
// mutated downstream), only the slot->block association is rebuilt — so this
// never corrupts a Jacobian another clique or cache entry still references.
// Returns nil if jf is nil.
func relabelJacobianSlots(jf *linear.Jacobian, m map[values.Slot]values.Slot) *linear.Jacobian {
	if jf == nil {
		return nil
	}
	out := linear.NewJacobian(jf.RHS())
	for _, s := range jf.Vars() {
		nw := s
		if mapped, ok := m[s]; ok {
			nw = mapped
		}
		_ = out.SetBlock(nw, jf.Block(s))
	}
	return out
}

// relabelConditionalSlots rewrites cond's Frontal and SeparatorSlots in
// place through m (old slot -> new slot). A slot absent from m is left
// unchanged. Safe to mutate in place: conditionals are always freshly
// produced by elimination.Eliminate and shared with nothing yet.
func relabelConditionalSlots(cond *linear.Conditional, m map[values.Slot]values.Slot) {
	if nw, ok := m[cond.Frontal]; ok {
		cond.Frontal = nw
	}
	for i, s := range cond.SeparatorSlots {
		if nw, ok := m[s]; ok {
			cond.SeparatorSlots[i] = nw
		}
	}
}

// relabelBuiltClique recursively relabels every conditional and residual
// factor in bc (and its descendants) through m (old slot -> new slot). Used
// to translate an elimination.Result built over an ephemeral, dense local
// ordering back into the solver's permanent global slot space before
// materializing it into the Bayes tree.
func relabelBuiltClique(bc *elimination.BuiltClique, m map[values.Slot]values.Slot) {
	for _, cond := range bc.Chain {
		relabelConditionalSlots(cond, m)
	}
	bc.Residual = relabelJacobianSlots(bc.Residual, m)
	for _, child := range bc.Children {
		relabelBuiltClique(child, m)
	}
}
