package linear

import (
	"math"

	"github.com/tjpotts/isam2/values"
	"gonum.org/v1/gonum/mat"
)

// Hessian is a symmetric augmented-information linear factor: the quadratic
// form delta^T * Lambda * delta - 2*eta^T*delta (+ const). It is the
// normal-equations form of a Jacobian (Lambda = A^T A, eta = A^T b) and is
// used internally by the LDL elimination kernel, which needs the
// information form to run block Cholesky rather than Householder
// reflections.
type Hessian struct {
	vars  []values.Slot // fixed column order: pivot first, then separator
	dims  []int
	lam   *mat.Dense // sum(dims) x sum(dims), symmetric
	eta   *mat.VecDense
	total int
}

// ToHessian forms the normal equations Lambda = A^T A, eta = A^T b for the
// joint factor jf, with columns ordered pivot-block first then sepSlots.
func ToHessian(jf *Jacobian, pivot values.Slot, pivotDim int, sepSlots []values.Slot, dims map[values.Slot]int) *Hessian {
	aug, totalCols, sepWidths := assembleDense(jf, pivot, pivotDim, sepSlots, dims)
	rows, _ := aug.Dims()

	lam := mat.NewDense(totalCols, totalCols, nil)
	eta := mat.NewVecDense(totalCols, nil)
	for i := 0; i < totalCols; i++ {
		var etaI float64
		for r := 0; r < rows; r++ {
			etaI += aug.At(r, i) * aug.At(r, totalCols)
		}
		eta.SetVec(i, etaI)
		for j := i; j < totalCols; j++ {
			var lamIJ float64
			for r := 0; r < rows; r++ {
				lamIJ += aug.At(r, i) * aug.At(r, j)
			}
			lam.Set(i, j, lamIJ)
			lam.Set(j, i, lamIJ)
		}
	}

	vars := append([]values.Slot{pivot}, sepSlots...)
	allDims := append([]int{pivotDim}, sepWidths...)
	return &Hessian{vars: vars, dims: allDims, lam: lam, eta: eta, total: totalCols}
}

// EliminateFirst eliminates the leading variable block (vars[0], width
// dims[0]) via block Cholesky: Lambda_pp = U^T U, then forward-substitutes
// the off-diagonal block and right-hand side, and finally forms the Schur
// complement for the remaining variables. Returns ErrIndefinite if Lambda_pp
// is not positive definite.
func (h *Hessian) EliminateFirst() (*Conditional, *Hessian, error) {
	pivotDim := h.dims[0]
	sepWidth := h.total - pivotDim

	u, err := blockCholesky(h.lam, pivotDim)
	if err != nil {
		return nil, nil, err
	}

	// Forward-solve U^T * X = Lambda_ps for X (pivotDim x sepWidth), and
	// U^T * y = eta_p for y (pivotDim).
	x := mat.NewDense(pivotDim, maxInt(sepWidth, 1), nil)
	y := mat.NewVecDense(pivotDim, nil)
	for i := 0; i < pivotDim; i++ {
		// y[i] = (eta_p[i] - sum_{k<i} U[k][i]*y[k]) / U[i][i]
		sum := h.eta.AtVec(i)
		for k := 0; k < i; k++ {
			sum -= u.At(k, i) * y.AtVec(k)
		}
		y.SetVec(i, sum/u.At(i, i))

		for j := 0; j < sepWidth; j++ {
			col := pivotDim + j
			sum := h.lam.At(i, col)
			for k := 0; k < i; k++ {
				sum -= u.At(k, i) * x.At(k, j)
			}
			x.Set(i, j, sum/u.At(i, i))
		}
	}

	cond := &Conditional{
		Frontal:       h.vars[0],
		FrontalDim:    pivotDim,
		SeparatorSlots: append([]values.Slot(nil), h.vars[1:]...),
		SeparatorDims:  append([]int(nil), h.dims[1:]...),
		R:             u,
		D:             y,
	}
	if sepWidth > 0 {
		s := mat.NewDense(pivotDim, sepWidth, nil)
		for i := 0; i < pivotDim; i++ {
			for j := 0; j < sepWidth; j++ {
				s.Set(i, j, x.At(i, j))
			}
		}
		cond.S = s
	}

	if sepWidth == 0 {
		return cond, nil, nil
	}

	// Schur complement: Lambda'_ss = Lambda_ss - X^T X, eta'_s = eta_s - X^T y.
	lamPrime := mat.NewDense(sepWidth, sepWidth, nil)
	etaPrime := mat.NewVecDense(sepWidth, nil)
	for i := 0; i < sepWidth; i++ {
		var etaI float64
		for k := 0; k < pivotDim; k++ {
			etaI += x.At(k, i) * y.AtVec(k)
		}
		etaPrime.SetVec(i, h.eta.AtVec(pivotDim+i)-etaI)
		for j := i; j < sepWidth; j++ {
			var lamIJ float64
			for k := 0; k < pivotDim; k++ {
				lamIJ += x.At(k, i) * x.At(k, j)
			}
			val := h.lam.At(pivotDim+i, pivotDim+j) - lamIJ
			lamPrime.Set(i, j, val)
			lamPrime.Set(j, i, val)
		}
	}

	residual := &Hessian{
		vars:  append([]values.Slot(nil), h.vars[1:]...),
		dims:  append([]int(nil), h.dims[1:]...),
		lam:   lamPrime,
		eta:   etaPrime,
		total: sepWidth,
	}
	return cond, residual, nil
}

// ToJacobian converts the Hessian's information form back to a square-root
// (Jacobian) factor via its own Cholesky factor, so it can be combined
// uniformly with other Jacobian factors at the parent elimination step
// regardless of which factorization produced it. Returns ErrIndefinite if
// the Hessian itself is not positive definite.
func (h *Hessian) ToJacobian(dimsBySlot map[values.Slot]int) (*Jacobian, error) {
	u, err := blockCholesky(h.lam, h.total)
	if err != nil {
		return nil, err
	}
	b := mat.NewVecDense(h.total, nil)
	for i := 0; i < h.total; i++ {
		sum := h.eta.AtVec(i)
		for k := 0; k < i; k++ {
			sum -= u.At(k, i) * b.AtVec(k)
		}
		b.SetVec(i, sum/u.At(i, i))
	}
	out := NewJacobian(b)
	colOffset := 0
	for _, s := range h.vars {
		w := dimsBySlot[s]
		blk := mat.NewDense(h.total, w, nil)
		for r := 0; r < h.total; r++ {
			for c := 0; c < w; c++ {
				blk.Set(r, c, u.At(r, colOffset+c))
			}
		}
		_ = out.SetBlock(s, blk)
		colOffset += w
	}
	return out, nil
}

// blockCholesky factorizes the leading n x n block of sym (symmetric, stored
// full) into an upper triangular u such that u^T * u == sym[:n,:n]. Returns
// ErrIndefinite the moment a diagonal pivot would require a non-positive
// square root.
func blockCholesky(sym *mat.Dense, n int) (*mat.Dense, error) {
	u := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		sum := sym.At(i, i)
		for k := 0; k < i; k++ {
			sum -= u.At(k, i) * u.At(k, i)
		}
		if sum <= 0 {
			return nil, ErrIndefinite
		}
		diag := math.Sqrt(sum)
		u.Set(i, i, diag)
		for j := i + 1; j < n; j++ {
			s2 := sym.At(i, j)
			for k := 0; k < i; k++ {
				s2 -= u.At(k, i) * u.At(k, j)
			}
			u.Set(i, j, s2/diag)
		}
	}
	return u, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func eliminateLDL(jf *Jacobian, pivot values.Slot, pivotDim int, sepSlots []values.Slot, dims map[values.Slot]int) (*Conditional, *Jacobian, error) {
	h := ToHessian(jf, pivot, pivotDim, sepSlots, dims)
	cond, residualH, err := h.EliminateFirst()
	if err != nil {
		return nil, nil, err
	}
	if residualH == nil {
		return cond, nil, nil
	}
	dimsBySlot := make(map[values.Slot]int, len(sepSlots))
	for _, s := range sepSlots {
		dimsBySlot[s] = dims[s]
	}
	residualJ, err := residualH.ToJacobian(dimsBySlot)
	if err != nil {
		return nil, nil, err
	}
	return cond, residualJ, nil
}
