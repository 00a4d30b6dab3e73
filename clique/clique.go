package clique

import (
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/values"
	"gonum.org/v1/gonum/mat"
)

// ID identifies a Clique within an Arena. The zero value is never a valid
// ID (Arena IDs start at 1), so ID(0) doubles as the "no parent" sentinel.
type ID int

// Clique is a Bayes tree node: a maximal chain of single-variable
// conditionals produced by eliminating a run of variables that each had
// exactly one child in the elimination tree, so none of them needed a
// separate clique of their own. Chain holds the conditionals in elimination
// order (Chain[0] was eliminated first); the clique's separator is Chain's
// last conditional's separator, since earlier members' separators fold in
// the not-yet-solved later chain frontals.
type Clique struct {
	Parent   ID   // 0 if this is a tree root
	Children []ID // owned by the same Arena

	Chain []*linear.Conditional

	// CachedFactor is the residual factor produced as a side effect of
	// eliminating the last variable in Chain — the summary of everything
	// below this clique on its separator, handed to the parent and used
	// as a boundary factor if this clique's subtree is later detached.
	CachedFactor *linear.Jacobian

	// Gradient is this clique's contribution to the whole-tree gradient
	// used by the dog-leg step: -(R^T)*d for each frontal, -(S^T)*d
	// distributed across separator slots, computed once at construction.
	Gradient map[values.Slot][]float64
}

// New builds a Clique from a maximal chain of conditionals (elimination
// order) and the residual factor the chain's last elimination produced.
// Gradient is computed immediately and never recomputed.
func New(chain []*linear.Conditional, cached *linear.Jacobian) *Clique {
	c := &Clique{
		Chain:        append([]*linear.Conditional(nil), chain...),
		CachedFactor: cached,
		Gradient:     make(map[values.Slot][]float64),
	}
	c.computeGradient()
	return c
}

// Frontals returns the variables this clique eliminates, in elimination
// order.
func (c *Clique) Frontals() []values.Slot {
	out := make([]values.Slot, len(c.Chain))
	for i, cond := range c.Chain {
		out[i] = cond.Frontal
	}
	return out
}

// Separator returns the clique's true separator: the last chain member's
// separator (every earlier member's separator that refers to another
// frontal in this same chain is purely internal to the clique).
func (c *Clique) Separator() []values.Slot {
	if len(c.Chain) == 0 {
		return nil
	}
	last := c.Chain[len(c.Chain)-1]
	return append([]values.Slot(nil), last.SeparatorSlots...)
}

// HasFrontal reports whether slot is one of this clique's frontals.
func (c *Clique) HasFrontal(slot values.Slot) bool {
	for _, s := range c.Frontals() {
		if s == slot {
			return true
		}
	}
	return false
}

// Solve performs the clique-local back-substitution: given the current
// delta for every true-separator slot, returns the delta for every frontal
// in this clique. Conditionals are processed from the last-eliminated
// (narrowest separator) to the first, so that by the time an earlier
// conditional is solved, every later chain frontal its separator refers to
// has already been resolved.
func (c *Clique) Solve(separatorDelta map[values.Slot][]float64) map[values.Slot][]float64 {
	known := make(map[values.Slot][]float64, len(separatorDelta)+len(c.Chain))
	for s, d := range separatorDelta {
		known[s] = d
	}
	out := make(map[values.Slot][]float64, len(c.Chain))

	for i := len(c.Chain) - 1; i >= 0; i-- {
		cond := c.Chain[i]
		flat := make([]float64, 0, cond.SeparatorWidth())
		for _, s := range cond.SeparatorSlots {
			flat = append(flat, known[s]...)
		}
		frontalDelta := cond.Solve(flat)
		known[cond.Frontal] = frontalDelta
		out[cond.Frontal] = frontalDelta
	}
	return out
}

func (c *Clique) computeGradient() {
	for _, cond := range c.Chain {
		frontalGrad := negMulTransVec(cond.R, cond.D)
		c.Gradient[cond.Frontal] = frontalGrad

		if cond.S == nil {
			continue
		}
		sepGrad := negMulTransVec(cond.S, cond.D)
		offset := 0
		for i, slot := range cond.SeparatorSlots {
			width := cond.SeparatorDims[i]
			contribution := sepGrad[offset : offset+width]
			if existing, ok := c.Gradient[slot]; ok {
				for k := range existing {
					existing[k] += contribution[k]
				}
			} else {
				c.Gradient[slot] = append([]float64(nil), contribution...)
			}
			offset += width
		}
	}
}

// negMulTransVec returns -(m^T * v) as a plain slice.
func negMulTransVec(m *mat.Dense, v *mat.VecDense) []float64 {
	_, cols := m.Dims()
	out := mat.NewVecDense(cols, nil)
	out.MulVec(m.T(), v)
	result := make([]float64, cols)
	for i := 0; i < cols; i++ {
		result[i] = -out.AtVec(i)
	}
	return result
}
