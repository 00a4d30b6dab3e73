package nonlinear

import (
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/values"
)

// Factor is a single nonlinear measurement or prior constraint touching one
// or more variables. Linearize evaluates it at the current linearization
// point and produces the corresponding linear.Jacobian factor (module A's
// "linearize" collaborator, concretized for the pose manifold).
type Factor interface {
	// Keys returns the variables this factor touches, in a fixed order
	// matching Linearize's block assignment.
	Keys() []values.Key
	// Dim returns the residual dimension (number of rows the linearized
	// Jacobian factor will have).
	Dim() int
	// Error returns 0.5 * ||whitened residual(vals)||^2, the per-factor
	// contribution step controllers sum into total error.
	Error(vals *values.Values) float64
	// Linearize evaluates the factor at vals and returns the resulting
	// Jacobian factor, with one block per key in ord.
	Linearize(vals *values.Values, ord *ordering.Ordering) (*linear.Jacobian, error)
}
