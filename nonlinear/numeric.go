package nonlinear

import (
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/values"
	"gonum.org/v1/gonum/mat"
)

const numericJacobianStep = 1e-6

// numericJacobian builds a linear.Jacobian for a factor touching keys by
// central-differencing whitenedResidual with respect to each key's tangent
// space in turn. Exact closed-form SE(2) Jacobians involve adjoint terms
// that are easy to get subtly wrong without a compiler to check against, so
// every factor in this package linearizes numerically instead — the
// standard fallback when a closed form can't be verified.
func numericJacobian(vals *values.Values, ord *ordering.Ordering, keys []values.Key, residualDim int, whitenedResidual func(*values.Values) []float64) (*linear.Jacobian, error) {
	base := whitenedResidual(vals)
	b := mat.NewVecDense(residualDim, nil)
	for i, v := range base {
		b.SetVec(i, -v) // Gauss-Newton rhs is -residual
	}
	jf := linear.NewJacobian(b)

	for _, k := range keys {
		slot, err := ord.SlotOf(k)
		if err != nil {
			return nil, err
		}
		x0, err := vals.At(k)
		if err != nil {
			return nil, err
		}
		dim := x0.Dim()
		block := mat.NewDense(residualDim, dim, nil)
		for d := 0; d < dim; d++ {
			deltaPlus := make([]float64, dim)
			deltaPlus[d] = numericJacobianStep
			deltaMinus := make([]float64, dim)
			deltaMinus[d] = -numericJacobianStep

			plusVals := vals.Clone()
			plusVals.Update(k, x0.Retract(deltaPlus))
			rPlus := whitenedResidual(plusVals)

			minusVals := vals.Clone()
			minusVals.Update(k, x0.Retract(deltaMinus))
			rMinus := whitenedResidual(minusVals)

			for r := 0; r < residualDim; r++ {
				block.Set(r, d, (rPlus[r]-rMinus[r])/(2*numericJacobianStep))
			}
		}
		if err := jf.SetBlock(slot, block); err != nil {
			return nil, err
		}
	}
	return jf, nil
}
