package nonlinear

import (
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/values"
)

// PriorFactorPose2 anchors a single pose variable to a known value, with
// residual Logmap(measured^-1 * x), whitened by Noise.
type PriorFactorPose2 struct {
	Key      values.Key
	Measured Pose2
	Noise    DiagonalNoise
}

var _ Factor = PriorFactorPose2{}

func (f PriorFactorPose2) Keys() []values.Key { return []values.Key{f.Key} }

func (f PriorFactorPose2) Dim() int { return 3 }

func (f PriorFactorPose2) whitenedResidual(vals *values.Values) []float64 {
	v, _ := vals.At(f.Key)
	x := v.(Pose2)
	dx, dy, dtheta := logmap2(f.Measured.inverse().compose(x))
	return f.Noise.Whiten([]float64{dx, dy, dtheta})
}

func (f PriorFactorPose2) Error(vals *values.Values) float64 {
	r := f.whitenedResidual(vals)
	sum := 0.0
	for _, v := range r {
		sum += v * v
	}
	return 0.5 * sum
}

func (f PriorFactorPose2) Linearize(vals *values.Values, ord *ordering.Ordering) (*linear.Jacobian, error) {
	return numericJacobian(vals, ord, f.Keys(), f.Dim(), f.whitenedResidual)
}
