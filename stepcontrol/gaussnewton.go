package stepcontrol

import (
	"github.com/tjpotts/isam2/bayestree"
	"github.com/tjpotts/isam2/values"
	"github.com/tjpotts/isam2/wildfire"
)

// GaussNewton is the simplest controller: the linear delta wildfire
// produces is the step, taken unconditionally. WildfireThreshold only
// governs the back-substitution short-circuit.
type GaussNewton struct {
	WildfireThreshold float64
}

// Step refreshes delta via wildfire and always accepts it as-is, returning
// the full slot-keyed delta for the caller to retract theta by.
func (c *GaussNewton) Step(tree *bayestree.BayesTree, delta *values.VectorValues, replacedMask map[values.Slot]bool) (Result, map[values.Slot][]float64) {
	n := wildfire.Run(tree, delta, replacedMask, c.WildfireThreshold)
	return Result{Accepted: true, BacksubCount: n}, delta.AsMap()
}
