package linear

import (
	"sort"

	"github.com/tjpotts/isam2/values"
	"gonum.org/v1/gonum/mat"
)

// Jacobian is a raw, square-root-information-weighted linear factor: a
// stack of per-variable blocks A_i and a whitened residual vector b, read as
// the least-squares term ||sum_i A_i * delta_i - b||^2. It is produced by
// linearizing one nonlinear factor, or by combining several, or as the
// cached residual factor an elimination step hands to its parent.
type Jacobian struct {
	blocks map[values.Slot]*mat.Dense
	order  []values.Slot // insertion order, preserved for determinism
	b      *mat.VecDense
	rows   int
}

// NewJacobian returns a Jacobian with rhs b and no variable blocks yet; use
// SetBlock to attach one per touched variable.
func NewJacobian(b *mat.VecDense) *Jacobian {
	return &Jacobian{
		blocks: make(map[values.Slot]*mat.Dense),
		b:      b,
		rows:   b.Len(),
	}
}

// SetBlock attaches the A_i block for variable slot. A must have Jacobian's
// row count. Returns ErrDimensionMismatch otherwise.
func (j *Jacobian) SetBlock(slot values.Slot, a *mat.Dense) error {
	r, _ := a.Dims()
	if r != j.rows {
		return ErrDimensionMismatch
	}
	if _, exists := j.blocks[slot]; !exists {
		j.order = append(j.order, slot)
	}
	j.blocks[slot] = a
	return nil
}

// Reset discards every variable block, keeping rows and rhs, so the caller
// can rebuild the block set (e.g. under a slot relabeling) without
// reallocating the Jacobian itself.
func (j *Jacobian) Reset() {
	j.blocks = make(map[values.Slot]*mat.Dense)
	j.order = nil
}

// Block returns the A_i block for slot, or nil if this factor does not touch
// slot.
func (j *Jacobian) Block(slot values.Slot) *mat.Dense {
	return j.blocks[slot]
}

// Vars returns the variable slots this factor touches, in a fixed
// deterministic (ascending) order.
func (j *Jacobian) Vars() []values.Slot {
	out := append([]values.Slot(nil), j.order...)
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Rows returns the number of residual rows in this factor.
func (j *Jacobian) Rows() int {
	return j.rows
}

// RHS returns the whitened residual vector b.
func (j *Jacobian) RHS() *mat.VecDense {
	return j.b
}

// Dim returns the column width of the block for slot, or 0 if untouched.
func (j *Jacobian) Dim(slot values.Slot) int {
	blk, ok := j.blocks[slot]
	if !ok {
		return 0
	}
	_, c := blk.Dims()
	return c
}

// Combine vertically stacks several Jacobian factors that may touch
// overlapping but not-necessarily-identical variable sets into one joint
// Jacobian: the union of all variables, zero-filled where an individual
// factor didn't touch a variable the others did.
//
// dims supplies the column width of every variable slot appearing in any
// input factor (required so zero-fill blocks have the right shape).
func Combine(factors []*Jacobian, dims map[values.Slot]int) (*Jacobian, error) {
	if len(factors) == 0 {
		return nil, ErrEmptyFactor
	}

	varSet := make(map[values.Slot]struct{})
	totalRows := 0
	for _, f := range factors {
		totalRows += f.rows
		for _, s := range f.order {
			varSet[s] = struct{}{}
		}
	}
	vars := make([]values.Slot, 0, len(varSet))
	for s := range varSet {
		vars = append(vars, s)
	}
	sort.Slice(vars, func(a, b int) bool { return vars[a] < vars[b] })

	b := mat.NewVecDense(totalRows, nil)
	out := NewJacobian(b)
	blockAccum := make(map[values.Slot]*mat.Dense, len(vars))
	for _, s := range vars {
		d, ok := dims[s]
		if !ok {
			return nil, ErrDimensionMismatch
		}
		blockAccum[s] = mat.NewDense(totalRows, d, nil)
	}

	rowOffset := 0
	for _, f := range factors {
		for r := 0; r < f.rows; r++ {
			b.SetVec(rowOffset+r, f.b.AtVec(r))
		}
		for _, s := range vars {
			src := f.blocks[s]
			if src == nil {
				rowOffset2 := rowOffset // zero-fill: leave as zero
				_ = rowOffset2
				continue
			}
			rr, cc := src.Dims()
			dst := blockAccum[s]
			for r := 0; r < rr; r++ {
				for c := 0; c < cc; c++ {
					dst.Set(rowOffset+r, c, src.At(r, c))
				}
			}
		}
		rowOffset += f.rows
	}

	for _, s := range vars {
		if err := out.SetBlock(s, blockAccum[s]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
