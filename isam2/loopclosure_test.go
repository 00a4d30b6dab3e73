package isam2_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tjpotts/isam2/isam2"
	"github.com/tjpotts/isam2/nonlinear"
	"github.com/tjpotts/isam2/values"
)

// TestISAM2_LoopClosure_ThreePoseLine drives a small loop-closure
// scenario across three incremental Update calls: three poses on a straight
// line arrive one at a time with odometry between consecutive poses, and a final loop-closure
// factor ties the last pose back toward the first. This exercises the
// incremental relinearization path under a cycle in the factor graph, as
// opposed to the simple chain covered elsewhere.
func TestISAM2_LoopClosure_ThreePoseLine(t *testing.T) {
	solver := isam2.New(isam2.WithEvaluateNonlinearError(true))
	noise := nonlinear.NewDiagonalNoise(0.1, 0.1, 0.05)

	x0 := values.NewKey('x', 0)
	x1 := values.NewKey('x', 1)
	x2 := values.NewKey('x', 2)

	// Step 1: anchor x0 at the origin.
	_, err := solver.Update(
		[]nonlinear.Factor{nonlinear.PriorFactorPose2{Key: x0, Measured: nonlinear.NewPose2(0, 0, 0), Noise: noise}},
		map[values.Key]values.Value{x0: nonlinear.NewPose2(0.02, 0, 0)},
		nil, nil, false,
	)
	require.NoError(t, err)

	// Step 2: x1 arrives one unit ahead of x0.
	_, err = solver.Update(
		[]nonlinear.Factor{nonlinear.BetweenFactorPose2{Key1: x0, Key2: x1, Measured: nonlinear.NewPose2(1, 0, 0), Noise: noise}},
		map[values.Key]values.Value{x1: nonlinear.NewPose2(0.95, 0, 0)},
		nil, nil, false,
	)
	require.NoError(t, err)

	// Step 3: x2 arrives one unit ahead of x1, plus a loop-closure factor
	// asserting x2 is two units ahead of x0 directly — consistent with the
	// chained odometry, so the combined system should remain well-posed and
	// reduce total error.
	result, err := solver.Update(
		[]nonlinear.Factor{
			nonlinear.BetweenFactorPose2{Key1: x1, Key2: x2, Measured: nonlinear.NewPose2(1, 0, 0), Noise: noise},
			nonlinear.BetweenFactorPose2{Key1: x0, Key2: x2, Measured: nonlinear.NewPose2(2, 0, 0), Noise: noise},
		},
		map[values.Key]values.Value{x2: nonlinear.NewPose2(2.1, 0, 0)},
		nil, nil, true,
	)
	require.NoError(t, err)
	require.True(t, result.HasError)
	require.LessOrEqual(t, result.ErrorAfter, result.ErrorBefore)

	est := solver.CalculateEstimate()
	p2, err := est.At(x2)
	require.NoError(t, err)
	pose2 := p2.(nonlinear.Pose2)
	require.InDelta(t, 2.0, pose2.X, 0.3)
	require.InDelta(t, 0.0, pose2.Y, 0.3)

	ord := solver.GetOrdering()
	require.Equal(t, 3, ord.Len())
	require.True(t, ord.Has(x0))
	require.True(t, ord.Has(x1))
	require.True(t, ord.Has(x2))
}
