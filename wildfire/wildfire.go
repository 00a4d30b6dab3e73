package wildfire

import (
	"math"

	"github.com/tjpotts/isam2/bayestree"
	"github.com/tjpotts/isam2/clique"
	"github.com/tjpotts/isam2/values"
	"gonum.org/v1/gonum/floats"
)

// Run refreshes delta in place by back-substituting through tree, root
// first. threshold is the wildfireThreshold: a clique whose recomputed
// frontal values differ from the stored ones by at most threshold in
// max-norm, and which has no slot marked in replacedMask, is left
// untouched and its subtree is not visited. Matching slots have their
// replacedMask entry cleared as they're refreshed. Returns the number of
// variables whose delta entry was actually recomputed
// (lastBacksubVariableCount).
func Run(tree *bayestree.BayesTree, delta *values.VectorValues, replacedMask map[values.Slot]bool, threshold float64) int {
	count := 0
	var visit func(id clique.ID)
	visit = func(id clique.ID) {
		c, ok := tree.Get(id)
		if !ok {
			return
		}

		sepDelta := make(map[values.Slot][]float64, len(c.Separator()))
		for _, s := range c.Separator() {
			if v, err := delta.At(s); err == nil {
				sepDelta[s] = v
			} else {
				sepDelta[s] = make([]float64, 0)
			}
		}

		fresh := c.Solve(sepDelta)

		maxDiff := 0.0
		anyMarked := false
		for _, s := range c.Frontals() {
			if replacedMask[s] {
				anyMarked = true
			}
			old, err := delta.At(s)
			if err != nil || len(old) != len(fresh[s]) {
				maxDiff = math.Inf(1)
				continue
			}
			if d := floats.Distance(fresh[s], old, math.Inf(1)); d > maxDiff {
				maxDiff = d
			}
		}

		if maxDiff <= threshold && !anyMarked {
			return // short-circuit: do not descend
		}

		for _, s := range c.Frontals() {
			_ = delta.Insert(s, fresh[s])
			delete(replacedMask, s)
			count++
		}

		for _, child := range c.Children {
			visit(child)
		}
	}

	for _, r := range tree.Roots() {
		visit(r)
	}
	return count
}
