package nonlinear

import (
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/values"
)

// BetweenFactorPose2 constrains the relative transform between two pose
// variables, with residual Logmap(measured^-1 * (x1^-1 * x2)), whitened by
// Noise.
type BetweenFactorPose2 struct {
	Key1, Key2 values.Key
	Measured   Pose2
	Noise      DiagonalNoise
}

var _ Factor = BetweenFactorPose2{}

func (f BetweenFactorPose2) Keys() []values.Key { return []values.Key{f.Key1, f.Key2} }

func (f BetweenFactorPose2) Dim() int { return 3 }

func (f BetweenFactorPose2) whitenedResidual(vals *values.Values) []float64 {
	v1, _ := vals.At(f.Key1)
	v2, _ := vals.At(f.Key2)
	x1 := v1.(Pose2)
	x2 := v2.(Pose2)
	actual := x1.inverse().compose(x2)
	dx, dy, dtheta := logmap2(f.Measured.inverse().compose(actual))
	return f.Noise.Whiten([]float64{dx, dy, dtheta})
}

func (f BetweenFactorPose2) Error(vals *values.Values) float64 {
	r := f.whitenedResidual(vals)
	sum := 0.0
	for _, v := range r {
		sum += v * v
	}
	return 0.5 * sum
}

func (f BetweenFactorPose2) Linearize(vals *values.Values, ord *ordering.Ordering) (*linear.Jacobian, error) {
	return numericJacobian(vals, ord, f.Keys(), f.Dim(), f.whitenedResidual)
}
