package linear_test

import (
	"math"
	"testing"

	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/values"
	"gonum.org/v1/gonum/mat"
)

func blk(v float64) *mat.Dense { return mat.NewDense(1, 1, []float64{v}) }

func TestJacobian_SetBlockAndVarsOrder(t *testing.T) {
	j := linear.NewJacobian(mat.NewVecDense(2, []float64{1, 2}))
	if err := j.SetBlock(values.Slot(5), blk(1)); err != nil {
		t.Fatalf("SetBlock(5): %v", err)
	}
	if err := j.SetBlock(values.Slot(1), blk(2)); err != nil {
		t.Fatalf("SetBlock(1): %v", err)
	}
	vars := j.Vars()
	if len(vars) != 2 || vars[0] != 1 || vars[1] != 5 {
		t.Fatalf("Vars() = %v, want ascending [1 5]", vars)
	}
	if j.Rows() != 2 {
		t.Fatalf("Rows() = %d, want 2", j.Rows())
	}
	if j.Dim(values.Slot(9)) != 0 {
		t.Fatalf("Dim of untouched slot = %d, want 0", j.Dim(values.Slot(9)))
	}
}

func TestJacobian_SetBlockWrongRowsRejected(t *testing.T) {
	j := linear.NewJacobian(mat.NewVecDense(2, []float64{1, 2}))
	wrong := mat.NewDense(1, 1, []float64{1})
	if err := j.SetBlock(values.Slot(0), wrong); err != linear.ErrDimensionMismatch {
		t.Fatalf("SetBlock with wrong row count: err=%v, want ErrDimensionMismatch", err)
	}
}

func TestJacobian_Reset(t *testing.T) {
	j := linear.NewJacobian(mat.NewVecDense(1, []float64{1}))
	_ = j.SetBlock(values.Slot(0), blk(1))
	j.Reset()
	if len(j.Vars()) != 0 {
		t.Fatalf("Vars() after Reset = %v, want empty", j.Vars())
	}
	if j.Rows() != 1 {
		t.Fatalf("Rows() after Reset = %d, want 1 (rhs untouched)", j.Rows())
	}
}

func TestCombine_UnionsVariablesAndZeroFills(t *testing.T) {
	a := linear.NewJacobian(mat.NewVecDense(1, []float64{3}))
	_ = a.SetBlock(values.Slot(0), blk(1))

	b := linear.NewJacobian(mat.NewVecDense(1, []float64{5}))
	_ = b.SetBlock(values.Slot(1), blk(1))

	dims := map[values.Slot]int{0: 1, 1: 1}
	out, err := linear.Combine([]*linear.Jacobian{a, b}, dims)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if out.Rows() != 2 {
		t.Fatalf("Rows() = %d, want 2", out.Rows())
	}
	vars := out.Vars()
	if len(vars) != 2 || vars[0] != 0 || vars[1] != 1 {
		t.Fatalf("Vars() = %v, want [0 1]", vars)
	}
	// Row 0 came from a, which never touched slot 1: that block is zero-filled.
	if got := out.Block(values.Slot(1)).At(0, 0); got != 0 {
		t.Fatalf("zero-filled block[1] row 0 = %v, want 0", got)
	}
	if got := out.RHS().AtVec(0); got != 3 {
		t.Fatalf("RHS()[0] = %v, want 3", got)
	}
	if got := out.RHS().AtVec(1); got != 5 {
		t.Fatalf("RHS()[1] = %v, want 5", got)
	}
}

func TestCombine_EmptyFactorList(t *testing.T) {
	if _, err := linear.Combine(nil, nil); err != linear.ErrEmptyFactor {
		t.Fatalf("Combine(nil): err=%v, want ErrEmptyFactor", err)
	}
}

func TestCombine_MissingDimErrors(t *testing.T) {
	a := linear.NewJacobian(mat.NewVecDense(1, []float64{1}))
	_ = a.SetBlock(values.Slot(0), blk(1))
	if _, err := linear.Combine([]*linear.Jacobian{a}, map[values.Slot]int{}); err != linear.ErrDimensionMismatch {
		t.Fatalf("Combine with missing dims: err=%v, want ErrDimensionMismatch", err)
	}
}

// TestConditional_Solve_WithSeparator hand-verifies back-substitution through
// a 2x2 upper-triangular R against a nonzero separator contribution:
// R = [[2, 1], [0, 3]], S = [[1], [1]], d = [5, 9], deltaSep = [2].
// Row 1: 3*d1 = 9 - 1*2 = 7 -> d1 = 7/3.
// Row 0: 2*d0 + 1*d1 = 5 - 1*2 = 3 -> d0 = (3 - 7/3)/2 = 1/3.
func TestConditional_Solve_WithSeparator(t *testing.T) {
	c := &linear.Conditional{
		Frontal:        values.Slot(0),
		FrontalDim:     2,
		SeparatorSlots: []values.Slot{1},
		SeparatorDims:  []int{1},
		R:              mat.NewDense(2, 2, []float64{2, 1, 0, 3}),
		S:              mat.NewDense(2, 1, []float64{1, 1}),
		D:              mat.NewVecDense(2, []float64{5, 9}),
	}
	out := c.Solve([]float64{2})
	if math.Abs(out[1]-7.0/3.0) > 1e-9 {
		t.Fatalf("out[1] = %v, want 7/3", out[1])
	}
	if math.Abs(out[0]-1.0/3.0) > 1e-9 {
		t.Fatalf("out[0] = %v, want 1/3", out[0])
	}
}

func TestConditional_SeparatorOffset(t *testing.T) {
	c := &linear.Conditional{
		SeparatorSlots: []values.Slot{3, 7},
		SeparatorDims:  []int{2, 1},
	}
	off, width, ok := c.SeparatorOffset(values.Slot(7))
	if !ok || off != 2 || width != 1 {
		t.Fatalf("SeparatorOffset(7) = (%d, %d, %v), want (2, 1, true)", off, width, ok)
	}
	if _, _, ok := c.SeparatorOffset(values.Slot(9)); ok {
		t.Fatalf("SeparatorOffset(9) ok = true, want false")
	}
	if c.SeparatorWidth() != 3 {
		t.Fatalf("SeparatorWidth() = %d, want 3", c.SeparatorWidth())
	}
}

// TestEliminatePivot_QRAndLDLAgree checks that both kernels' conditionals
// solve to the same frontal delta (the least-squares solution component) for
// a 2-variable, two-row joint factor, even though their R and d differ
// (Householder flips the sign of the pivot row, block Cholesky does not).
func TestEliminatePivot_QRAndLDLAgree(t *testing.T) {
	dims := map[values.Slot]int{0: 1, 1: 1}
	for _, method := range []linear.Factorization{linear.QR, linear.LDL} {
		jf := linear.NewJacobian(mat.NewVecDense(2, []float64{1, 5}))
		_ = jf.SetBlock(values.Slot(0), mat.NewDense(2, 1, []float64{1, 0}))
		_ = jf.SetBlock(values.Slot(1), mat.NewDense(2, 1, []float64{0, 1}))

		cond, residual, err := linear.EliminatePivot(jf, values.Slot(0), 1, dims, method)
		if err != nil {
			t.Fatalf("[%v] EliminatePivot: %v", method, err)
		}
		if cond.Frontal != values.Slot(0) {
			t.Fatalf("[%v] Frontal = %v, want 0", method, cond.Frontal)
		}
		if len(cond.SeparatorSlots) != 1 || cond.SeparatorSlots[0] != values.Slot(1) {
			t.Fatalf("[%v] SeparatorSlots = %v, want [1]", method, cond.SeparatorSlots)
		}
		// With these two orthogonal unit rows, elimination is a no-op: the
		// pivot's own row already decouples, so delta0 = 1 regardless of
		// separator.
		out := cond.Solve([]float64{0})
		if math.Abs(out[0]-1) > 1e-9 {
			t.Fatalf("[%v] delta0 = %v, want 1", method, out[0])
		}
		if residual == nil {
			t.Fatalf("[%v] residual = nil, want the second row carried forward on slot 1", method)
		}
	}
}

func TestEliminatePivot_LDLIndefiniteSurfacesErrIndefinite(t *testing.T) {
	// A factor whose block for the pivot is exactly zero makes Lambda_pp = 0,
	// which is not positive definite: LDL must fail where QR (which never
	// inverts a Gram matrix) would not.
	dims := map[values.Slot]int{0: 1}
	jf := linear.NewJacobian(mat.NewVecDense(1, []float64{0}))
	_ = jf.SetBlock(values.Slot(0), blk(0))

	if _, _, err := linear.EliminatePivot(jf, values.Slot(0), 1, dims, linear.LDL); err != linear.ErrIndefinite {
		t.Fatalf("EliminatePivot(LDL) on a singular pivot: err=%v, want ErrIndefinite", err)
	}
}

func TestToHessian_NormalEquations(t *testing.T) {
	// A single row [2] with rhs 4: Lambda = A^T A = [4], eta = A^T b = [8].
	jf := linear.NewJacobian(mat.NewVecDense(1, []float64{4}))
	_ = jf.SetBlock(values.Slot(0), blk(2))

	h := linear.ToHessian(jf, values.Slot(0), 1, nil, map[values.Slot]int{0: 1})
	cond, residual, err := h.EliminateFirst()
	if err != nil {
		t.Fatalf("EliminateFirst: %v", err)
	}
	if residual != nil {
		t.Fatalf("residual = %v, want nil (no separator)", residual)
	}
	out := cond.Solve(nil)
	if math.Abs(out[0]-2) > 1e-9 {
		t.Fatalf("delta0 = %v, want 2", out[0])
	}
}
