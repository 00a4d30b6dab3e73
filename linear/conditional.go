package linear

import (
	"github.com/tjpotts/isam2/values"
	"gonum.org/v1/gonum/mat"
)

// Conditional is a Gaussian conditional p(frontal | separator) produced by
// eliminating one variable block from a joint factor: R*delta_frontal = d -
// S*delta_separator, with R upper triangular. SeparatorSlots fixes the
// local column order of S — S's column block j corresponds to
// SeparatorSlots[j] with width SeparatorDims[j].
type Conditional struct {
	Frontal       values.Slot
	FrontalDim    int
	SeparatorSlots []values.Slot
	SeparatorDims  []int
	R             *mat.Dense // FrontalDim x FrontalDim, upper triangular
	S             *mat.Dense // FrontalDim x sum(SeparatorDims), nil if no separator
	D             *mat.VecDense
}

// SeparatorWidth returns the total column width of the separator block.
func (c *Conditional) SeparatorWidth() int {
	total := 0
	for _, d := range c.SeparatorDims {
		total += d
	}
	return total
}

// SeparatorOffset returns the column offset within S at which slot's block
// begins, and its width. ok is false if slot is not in the separator.
func (c *Conditional) SeparatorOffset(slot values.Slot) (offset, width int, ok bool) {
	off := 0
	for i, s := range c.SeparatorSlots {
		if s == slot {
			return off, c.SeparatorDims[i], true
		}
		off += c.SeparatorDims[i]
	}
	return 0, 0, false
}

// Solve computes delta_frontal given the separator's current values
// (delta_sep, concatenated in SeparatorSlots order, total length
// SeparatorWidth()), via back-substitution through the upper-triangular R:
// R*delta_frontal = d - S*delta_sep.
//
// Complexity: O(FrontalDim^2 + FrontalDim*SeparatorWidth).
func (c *Conditional) Solve(deltaSep []float64) []float64 {
	rhs := mat.NewVecDense(c.FrontalDim, nil)
	rhs.CopyVec(c.D)
	if c.S != nil && len(deltaSep) > 0 {
		sepVec := mat.NewVecDense(len(deltaSep), deltaSep)
		var sx mat.VecDense
		sx.MulVec(c.S, sepVec)
		rhs.SubVec(rhs, &sx)
	}

	out := make([]float64, c.FrontalDim)
	// Back-substitution: R is upper triangular, solve from the last row up.
	for i := c.FrontalDim - 1; i >= 0; i-- {
		sum := rhs.AtVec(i)
		for j := i + 1; j < c.FrontalDim; j++ {
			sum -= c.R.At(i, j) * out[j]
		}
		pivot := c.R.At(i, i)
		if pivot == 0 {
			out[i] = 0
			continue
		}
		out[i] = sum / pivot
	}
	return out
}
