package linear

import (
	"math"
	"sort"

	"github.com/tjpotts/isam2/values"
	"gonum.org/v1/gonum/mat"
)

// Factorization selects the numerical kernel used to eliminate the leading
// pivot block of a joint factor: a small integer, switched on directly in
// EliminatePivot, rather than hiding the two kernels behind an interface.
type Factorization int

const (
	// QR eliminates via block Householder reflections directly on the
	// Jacobian. More numerically stable; never raises ErrIndefinite.
	QR Factorization = iota
	// LDL eliminates via block Cholesky on the normal equations. Faster but
	// raises ErrIndefinite if an intermediate pivot block is not positive
	// definite.
	LDL
)

// EliminatePivot eliminates variable pivot (dimension pivotDim) from the
// joint factor jf, producing the resulting Conditional and the residual
// Jacobian factor on the remaining (separator) variables. dims supplies the
// dimension of every separator variable jf touches.
func EliminatePivot(jf *Jacobian, pivot values.Slot, pivotDim int, dims map[values.Slot]int, method Factorization) (*Conditional, *Jacobian, error) {
	sepSlots := make([]values.Slot, 0, len(jf.order))
	for _, s := range jf.Vars() {
		if s != pivot {
			sepSlots = append(sepSlots, s)
		}
	}
	sort.Slice(sepSlots, func(a, b int) bool { return sepSlots[a] < sepSlots[b] })

	switch method {
	case LDL:
		return eliminateLDL(jf, pivot, pivotDim, sepSlots, dims)
	default:
		return eliminateQR(jf, pivot, pivotDim, sepSlots, dims)
	}
}

// assembleDense builds the dense [A | b] augmented matrix for jf with
// columns ordered pivot-block first (width pivotDim), then sepSlots in
// order (each width dims[s]).
func assembleDense(jf *Jacobian, pivot values.Slot, pivotDim int, sepSlots []values.Slot, dims map[values.Slot]int) (*mat.Dense, int, []int) {
	rows := jf.Rows()
	sepWidths := make([]int, len(sepSlots))
	totalCols := pivotDim
	for i, s := range sepSlots {
		sepWidths[i] = dims[s]
		totalCols += dims[s]
	}

	aug := mat.NewDense(rows, totalCols+1, nil)
	if blk := jf.Block(pivot); blk != nil {
		for r := 0; r < rows; r++ {
			for c := 0; c < pivotDim; c++ {
				aug.Set(r, c, blk.At(r, c))
			}
		}
	}
	colOffset := pivotDim
	for i, s := range sepSlots {
		if blk := jf.Block(s); blk != nil {
			for r := 0; r < rows; r++ {
				for c := 0; c < sepWidths[i]; c++ {
					aug.Set(r, colOffset+c, blk.At(r, c))
				}
			}
		}
		colOffset += sepWidths[i]
	}
	for r := 0; r < rows; r++ {
		aug.Set(r, totalCols, jf.b.AtVec(r))
	}
	return aug, totalCols, sepWidths
}

// householderZeroLeadingColumns reduces columns 0..pivotDim-1 of aug
// (rows x (cols+1), last column is the augmented rhs) to upper-triangular
// form via Householder reflections, in place. Each reflection zeroes one
// pivot column below the diagonal; the loop stops after pivotDim columns
// rather than running to completion, since only the pivot block needs to
// become triangular, and it carries the rhs column along as just another
// trailing column to reflect.
func householderZeroLeadingColumns(aug *mat.Dense, pivotDim int) {
	rows, cols := aug.Dims() // cols includes the rhs column

	// Stage: one Householder reflection per pivot column.
	for k := 0; k < pivotDim && k < rows; k++ {
		// 1. Compute the norm of the sub-column aug[k:rows, k].
		norm := 0.0
		for i := k; i < rows; i++ {
			v := aug.At(i, k)
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue // column already zero below the diagonal; nothing to reflect
		}

		// 2. Reflection scalar alpha = -sign(pivot) * norm.
		pivotVal := aug.At(k, k)
		alpha := -math.Copysign(norm, pivotVal)

		// 3. Build the Householder vector v over rows k..rows-1.
		v := make([]float64, rows)
		for i := k; i < rows; i++ {
			v[i] = aug.At(i, k)
		}
		v[k] -= alpha

		// 4. beta = v^T v, tau = 2/beta.
		beta := 0.0
		for i := k; i < rows; i++ {
			beta += v[i] * v[i]
		}
		if beta == 0 {
			continue
		}
		tau := 2.0 / beta

		// 5. Apply the reflection to every trailing column (including rhs).
		for j := k; j < cols; j++ {
			sum := 0.0
			for i := k; i < rows; i++ {
				sum += v[i] * aug.At(i, j)
			}
			for i := k; i < rows; i++ {
				aug.Set(i, j, aug.At(i, j)-tau*v[i]*sum)
			}
		}
	}
}

func eliminateQR(jf *Jacobian, pivot values.Slot, pivotDim int, sepSlots []values.Slot, dims map[values.Slot]int) (*Conditional, *Jacobian, error) {
	aug, totalCols, sepWidths := assembleDense(jf, pivot, pivotDim, sepSlots, dims)
	rows, _ := aug.Dims()
	householderZeroLeadingColumns(aug, pivotDim)

	cond := extractConditional(aug, pivot, pivotDim, sepSlots, sepWidths)
	residual := extractResidual(aug, rows, totalCols, pivotDim, sepSlots, sepWidths)
	return cond, residual, nil
}

// extractConditional reads R, S, d off the top pivotDim rows of an augmented
// matrix already reduced so columns 0..pivotDim-1 are upper triangular.
func extractConditional(aug *mat.Dense, pivot values.Slot, pivotDim int, sepSlots []values.Slot, sepWidths []int) *Conditional {
	sepWidth := 0
	for _, w := range sepWidths {
		sepWidth += w
	}
	totalCols, _ := 0, 0
	_, cAll := aug.Dims()
	totalCols = cAll - 1

	r := mat.NewDense(pivotDim, pivotDim, nil)
	for i := 0; i < pivotDim; i++ {
		for j := 0; j < pivotDim; j++ {
			r.Set(i, j, aug.At(i, j))
		}
	}
	var s *mat.Dense
	if sepWidth > 0 {
		s = mat.NewDense(pivotDim, sepWidth, nil)
		for i := 0; i < pivotDim; i++ {
			for j := 0; j < sepWidth; j++ {
				s.Set(i, j, aug.At(i, pivotDim+j))
			}
		}
	}
	d := mat.NewVecDense(pivotDim, nil)
	for i := 0; i < pivotDim; i++ {
		d.SetVec(i, aug.At(i, totalCols))
	}
	return &Conditional{
		Frontal:        pivot,
		FrontalDim:     pivotDim,
		SeparatorSlots: append([]values.Slot(nil), sepSlots...),
		SeparatorDims:  append([]int(nil), sepWidths...),
		R:              r,
		S:              s,
		D:              d,
	}
}

// extractResidual builds the residual Jacobian on the separator variables
// from the rows of aug below pivotDim (the rows Householder elimination
// could not zero out because there were more equations than pivot columns).
// Returns nil when there is no separator, matching the LDL kernel.
func extractResidual(aug *mat.Dense, rows, totalCols, pivotDim int, sepSlots []values.Slot, sepWidths []int) *Jacobian {
	residualRows := rows - pivotDim
	if residualRows <= 0 || len(sepSlots) == 0 {
		return nil
	}
	b := mat.NewVecDense(residualRows, nil)
	for i := 0; i < residualRows; i++ {
		b.SetVec(i, aug.At(pivotDim+i, totalCols))
	}
	out := NewJacobian(b)
	colOffset := 0
	for i, s := range sepSlots {
		w := sepWidths[i]
		blk := mat.NewDense(residualRows, w, nil)
		for r := 0; r < residualRows; r++ {
			for c := 0; c < w; c++ {
				blk.Set(r, c, aug.At(pivotDim+r, pivotDim+colOffset+c))
			}
		}
		_ = out.SetBlock(s, blk)
		colOffset += w
	}
	return out
}
