package nonlinear

import (
	"errors"

	"github.com/tjpotts/isam2/values"
)

// ErrFactorNotFound indicates a FactorIndex does not name a live factor
// (never assigned, or already removed).
var ErrFactorNotFound = errors.New("nonlinear: factor not found")

// Graph is an append-mostly, index-stable collection of nonlinear factors.
// Removed factors leave a tombstone rather than shifting later indices, so a
// FactorIndex handed out once stays valid (or cleanly reports "not found")
// for the graph's lifetime — the same index stability variableindex.Augment
// and elimination's factor bookkeeping assume.
type Graph struct {
	factors []Factor // nil at a tombstoned index
	live    int
}

// New returns an empty factor graph.
func New() *Graph {
	return &Graph{}
}

// Add appends f and returns its stable FactorIndex.
func (g *Graph) Add(f Factor) values.FactorIndex {
	idx := values.FactorIndex(len(g.factors))
	g.factors = append(g.factors, f)
	g.live++
	return idx
}

// Remove tombstones the factor at idx. Returns ErrFactorNotFound if idx is
// out of range or already removed.
func (g *Graph) Remove(idx values.FactorIndex) error {
	if int(idx) < 0 || int(idx) >= len(g.factors) || g.factors[idx] == nil {
		return ErrFactorNotFound
	}
	g.factors[idx] = nil
	g.live--
	return nil
}

// At returns the factor at idx and whether it is still live.
func (g *Graph) At(idx values.FactorIndex) (Factor, bool) {
	if int(idx) < 0 || int(idx) >= len(g.factors) || g.factors[idx] == nil {
		return nil, false
	}
	return g.factors[idx], true
}

// Size returns the number of live (non-tombstoned) factors.
func (g *Graph) Size() int { return g.live }

// Len returns the logical length including tombstones — the exclusive upper
// bound on valid FactorIndex values.
func (g *Graph) Len() int { return len(g.factors) }

// Range calls yield once per live factor, in index order. Stops early if
// yield returns false.
func (g *Graph) Range(yield func(values.FactorIndex, Factor) bool) {
	for i, f := range g.factors {
		if f == nil {
			continue
		}
		if !yield(values.FactorIndex(i), f) {
			return
		}
	}
}

// Clone returns a shallow copy: a new tombstone slice with the same Factor
// values (factors are treated as immutable once added, matching
// values.Values.Clone's convention for immutable leaves). Used to prepare a
// working copy on the side for transactional Update semantics.
func (g *Graph) Clone() *Graph {
	return &Graph{factors: append([]Factor(nil), g.factors...), live: g.live}
}

// Error sums Error(vals) over every live factor — the total nonlinear
// objective the step controllers minimize.
func (g *Graph) Error(vals *values.Values) float64 {
	total := 0.0
	g.Range(func(_ values.FactorIndex, f Factor) bool {
		total += f.Error(vals)
		return true
	})
	return total
}
