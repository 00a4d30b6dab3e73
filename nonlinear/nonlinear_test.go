package nonlinear_test

import (
	"math"
	"testing"

	"github.com/tjpotts/isam2/nonlinear"
	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/values"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestPose2_RetractLocalCoordinatesRoundTrip(t *testing.T) {
	base := nonlinear.NewPose2(1, 2, 0.4)
	delta := []float64{0.3, -0.2, 0.1}

	moved := base.Retract(delta)
	got := base.LocalCoordinates(moved)

	for i, want := range delta {
		if !almostEqual(got[i], want, 1e-9) {
			t.Fatalf("LocalCoordinates(Retract(delta))[%d] = %v, want %v", i, got[i], want)
		}
	}
}

func TestPose2_RetractZeroIsIdentity(t *testing.T) {
	base := nonlinear.NewPose2(1, 2, 0.4)
	moved := base.Retract([]float64{0, 0, 0}).(nonlinear.Pose2)
	if !almostEqual(moved.X, base.X, 1e-12) || !almostEqual(moved.Y, base.Y, 1e-12) || !almostEqual(moved.Theta, base.Theta, 1e-12) {
		t.Fatalf("Retract(zero) = %+v, want %+v", moved, base)
	}
}

func TestPose2_AngleWrapsToPrincipalRange(t *testing.T) {
	p := nonlinear.NewPose2(0, 0, 3*math.Pi)
	if p.Theta <= -math.Pi || p.Theta > math.Pi {
		t.Fatalf("Theta = %v, want in (-pi, pi]", p.Theta)
	}
}

func TestPose2_Dim(t *testing.T) {
	if nonlinear.NewPose2(0, 0, 0).Dim() != 3 {
		t.Fatalf("Dim() != 3")
	}
}

func TestDiagonalNoise_Whiten(t *testing.T) {
	n := nonlinear.NewDiagonalNoise(2, 4)
	out := n.Whiten([]float64{6, 8})
	if out[0] != 3 || out[1] != 2 {
		t.Fatalf("Whiten = %v, want [3 2]", out)
	}
}

func TestDiagonalNoise_WhitenRow(t *testing.T) {
	n := nonlinear.NewDiagonalNoise(2)
	row := []float64{4, 10}
	n.WhitenRow(row, 0)
	if row[0] != 2 || row[1] != 5 {
		t.Fatalf("WhitenRow = %v, want [2 5]", row)
	}
}

// TestPriorFactorPose2_ErrorIsZeroAtMeasured checks that the residual
// vanishes when the variable's current value exactly matches the prior.
func TestPriorFactorPose2_ErrorIsZeroAtMeasured(t *testing.T) {
	k := values.NewKey('x', 0)
	vals := values.NewValues()
	measured := nonlinear.NewPose2(1, 2, 0.3)
	_ = vals.InsertNew(k, measured)

	f := nonlinear.PriorFactorPose2{Key: k, Measured: measured, Noise: nonlinear.NewDiagonalNoise(1, 1, 1)}
	if got := f.Error(vals); got > 1e-12 {
		t.Fatalf("Error() = %v, want ~0 at the measured pose", got)
	}
}

// TestPriorFactorPose2_Linearize checks that the numerically linearized
// Jacobian has the expected row count and touches only its own key.
func TestPriorFactorPose2_Linearize(t *testing.T) {
	k := values.NewKey('x', 0)
	vals := values.NewValues()
	_ = vals.InsertNew(k, nonlinear.NewPose2(0.1, 0, 0))

	ord := ordering.New()
	slot, _ := ord.Append(k)

	f := nonlinear.PriorFactorPose2{Key: k, Measured: nonlinear.NewPose2(0, 0, 0), Noise: nonlinear.NewDiagonalNoise(1, 1, 1)}
	j, err := f.Linearize(vals, ord)
	if err != nil {
		t.Fatalf("Linearize: %v", err)
	}
	if j.Rows() != 3 {
		t.Fatalf("Rows() = %d, want 3", j.Rows())
	}
	if j.Block(slot) == nil {
		t.Fatalf("Linearize produced no block for the prior's own variable")
	}
}

// TestBetweenFactorPose2_ErrorIsZeroWhenMeasurementMatches confirms a
// between-factor's residual vanishes when the two poses' relative
// transform exactly equals the measurement.
func TestBetweenFactorPose2_ErrorIsZeroWhenMeasurementMatches(t *testing.T) {
	k1 := values.NewKey('x', 0)
	k2 := values.NewKey('x', 1)
	vals := values.NewValues()
	_ = vals.InsertNew(k1, nonlinear.NewPose2(0, 0, 0))
	_ = vals.InsertNew(k2, nonlinear.NewPose2(1, 0, 0))

	f := nonlinear.BetweenFactorPose2{
		Key1: k1, Key2: k2,
		Measured: nonlinear.NewPose2(1, 0, 0),
		Noise:    nonlinear.NewDiagonalNoise(1, 1, 1),
	}
	if got := f.Error(vals); got > 1e-9 {
		t.Fatalf("Error() = %v, want ~0 when the measurement matches the relative pose", got)
	}
}

func TestBetweenFactorPose2_LinearizeTouchesBothKeys(t *testing.T) {
	k1 := values.NewKey('x', 0)
	k2 := values.NewKey('x', 1)
	vals := values.NewValues()
	_ = vals.InsertNew(k1, nonlinear.NewPose2(0, 0, 0))
	_ = vals.InsertNew(k2, nonlinear.NewPose2(0.9, 0, 0))

	ord := ordering.New()
	s1, _ := ord.Append(k1)
	s2, _ := ord.Append(k2)

	f := nonlinear.BetweenFactorPose2{
		Key1: k1, Key2: k2,
		Measured: nonlinear.NewPose2(1, 0, 0),
		Noise:    nonlinear.NewDiagonalNoise(1, 1, 1),
	}
	j, err := f.Linearize(vals, ord)
	if err != nil {
		t.Fatalf("Linearize: %v", err)
	}
	if j.Block(s1) == nil || j.Block(s2) == nil {
		t.Fatalf("Linearize did not produce blocks for both endpoints")
	}
}

func TestGraph_AddAndAt(t *testing.T) {
	g := nonlinear.New()
	k := values.NewKey('x', 0)
	f := nonlinear.PriorFactorPose2{Key: k, Measured: nonlinear.NewPose2(0, 0, 0), Noise: nonlinear.NewDiagonalNoise(1, 1, 1)}
	idx := g.Add(f)

	got, ok := g.At(idx)
	if !ok {
		t.Fatalf("At(%d) ok = false, want true", idx)
	}
	keys := got.Keys()
	if len(keys) != 1 || keys[0] != k {
		t.Fatalf("Keys() = %v, want [%v]", keys, k)
	}
	if g.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", g.Size())
	}

	if err := g.Remove(idx); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := g.At(idx); ok {
		t.Fatalf("At(%d) ok = true after Remove", idx)
	}
	if err := g.Remove(idx); err != nonlinear.ErrFactorNotFound {
		t.Fatalf("second Remove err = %v, want ErrFactorNotFound", err)
	}
}
