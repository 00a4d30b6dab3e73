package nonlinear

import (
	"math"

	"github.com/tjpotts/isam2/values"
)

// Pose2 is a rigid transform in the plane: translation (X, Y) and heading
// Theta (radians). It implements values.Value with the standard SE(2)
// retraction: Retract composes this pose with the exponential map of the
// tangent vector, and LocalCoordinates inverts that via the logarithm of the
// relative pose, so both round-trip exactly regardless of how large Theta
// is.
type Pose2 struct {
	X, Y, Theta float64
}

var _ values.Value = Pose2{}

// NewPose2 constructs a pose, wrapping Theta into (-pi, pi].
func NewPose2(x, y, theta float64) Pose2 {
	return Pose2{X: x, Y: y, Theta: wrapAngle(theta)}
}

func wrapAngle(theta float64) float64 {
	theta = math.Mod(theta-math.Pi, 2*math.Pi)
	if theta <= 0 {
		theta += 2 * math.Pi
	}
	return theta - math.Pi
}

// Dim returns 3: two translation components plus heading.
func (p Pose2) Dim() int { return 3 }

// rotate applies this pose's rotation matrix to (x, y).
func (p Pose2) rotate(x, y float64) (float64, float64) {
	c, s := math.Cos(p.Theta), math.Sin(p.Theta)
	return c*x - s*y, s*x + c*y
}

// compose returns this * other, the standard SE(2) group operation.
func (p Pose2) compose(other Pose2) Pose2 {
	rx, ry := p.rotate(other.X, other.Y)
	return NewPose2(p.X+rx, p.Y+ry, p.Theta+other.Theta)
}

// inverse returns the SE(2) inverse of p.
func (p Pose2) inverse() Pose2 {
	c, s := math.Cos(p.Theta), math.Sin(p.Theta)
	ix := -(c*p.X + s*p.Y)
	iy := -(-s*p.X + c*p.Y)
	return NewPose2(ix, iy, -p.Theta)
}

// expmap2 computes the SE(2) exponential map of tangent vector
// (dx, dy, dtheta), the closed-form curved-arc integration GTSAM uses for
// Pose2::Expmap.
func expmap2(dx, dy, dtheta float64) Pose2 {
	var s, c float64
	if math.Abs(dtheta) < 1e-10 {
		s = 1 - dtheta*dtheta/6
		c = dtheta / 2
	} else {
		s = math.Sin(dtheta) / dtheta
		c = (1 - math.Cos(dtheta)) / dtheta
	}
	return NewPose2(dx*s-dy*c, dx*c+dy*s, dtheta)
}

// logmap2 computes the SE(2) logarithm of pose p, the inverse of expmap2.
func logmap2(p Pose2) (dx, dy, dtheta float64) {
	dtheta = p.Theta
	var s, c float64
	halfT := dtheta / 2
	if math.Abs(dtheta) < 1e-10 {
		s = 1 - dtheta*dtheta/6
		c = halfT
	} else {
		s = math.Sin(dtheta) / dtheta
		c = (1 - math.Cos(dtheta)) / dtheta
	}
	// Invert the 2x2 [[s, -c], [c, s]] mapping from expmap2.
	det := s*s + c*c
	dx = (s*p.X + c*p.Y) / det
	dy = (-c*p.X + s*p.Y) / det
	return dx, dy, dtheta
}

// Retract returns p composed with the exponential map of delta
// (delta = [dx, dy, dtheta] in the tangent space at p).
func (p Pose2) Retract(delta []float64) values.Value {
	if len(delta) != 3 {
		panic("nonlinear: Pose2.Retract requires a 3-vector")
	}
	return p.compose(expmap2(delta[0], delta[1], delta[2]))
}

// LocalCoordinates returns the tangent vector delta such that
// p.Retract(delta) == other, via the logarithm of p's relative pose to
// other.
func (p Pose2) LocalCoordinates(other values.Value) []float64 {
	o := other.(Pose2)
	rel := p.inverse().compose(o)
	dx, dy, dtheta := logmap2(rel)
	return []float64{dx, dy, dtheta}
}
