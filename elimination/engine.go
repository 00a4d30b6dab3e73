package elimination

import (
	"sort"

	"github.com/tjpotts/isam2/bayestree"
	"github.com/tjpotts/isam2/clique"
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/values"
)

// BuiltClique is a clique produced by Eliminate, not yet attached to a
// bayestree.BayesTree. Residual is the factor this clique's topmost
// elimination step handed to whatever sits above it; it is nil only for a
// clique that is a true global root (nothing above it to hand a factor to).
type BuiltClique struct {
	Chain    []*linear.Conditional
	Residual *linear.Jacobian
	Children []*BuiltClique
}

// Result is the output of one Eliminate call: one BuiltClique per root of
// the local elimination forest (almost always exactly one, since the local
// factor set is usually connected through shared boundary factors).
type Result struct {
	Roots []*BuiltClique
}

// Eliminate runs sequential variable elimination over ord (a dense local
// ordering 0..n-1) and factors (already-linearized Jacobian
// factors: boundary factors from detached orphans, freshly linearized
// nonlinear factors, and newly added factors). dims supplies every local
// slot's dimension. Returns ErrIndefiniteLinearSystem if method is
// linear.LDL and an intermediate pivot is not positive definite — the
// caller is expected to retry the same inputs with linear.QR.
func Eliminate(ord *ordering.Ordering, factors []*linear.Jacobian, dims map[values.Slot]int, method linear.Factorization) (*Result, error) {
	n := ord.Len()
	adjacency := make(map[values.Slot]map[values.Slot]struct{}, n)
	buckets := make(map[values.Slot][]*linear.Jacobian)

	for _, f := range factors {
		vars := f.Vars()
		if len(vars) == 0 {
			continue
		}
		minSlot := vars[0]
		for _, v := range vars {
			if v < minSlot {
				minSlot = v
			}
			if adjacency[v] == nil {
				adjacency[v] = make(map[values.Slot]struct{})
			}
		}
		for _, a := range vars {
			for _, b := range vars {
				if a != b {
					adjacency[a][b] = struct{}{}
				}
			}
		}
		buckets[minSlot] = append(buckets[minSlot], f)
	}

	tree := buildElimTree(n, adjacency)

	memo := make(map[values.Slot]*BuiltClique, n)
	var eliminate func(v values.Slot) (*BuiltClique, error)
	eliminate = func(v values.Slot) (*BuiltClique, error) {
		if bc, ok := memo[v]; ok {
			return bc, nil
		}
		children := tree.children[v]

		var childResults []*BuiltClique
		for _, c := range children {
			bc, err := eliminate(c)
			if err != nil {
				return nil, err
			}
			childResults = append(childResults, bc)
		}

		toCombine := append([]*linear.Jacobian(nil), buckets[v]...)
		for _, bc := range childResults {
			if bc.Residual != nil {
				toCombine = append(toCombine, bc.Residual)
			}
		}

		if len(toCombine) == 0 {
			return nil, linear.ErrEmptyFactor
		}
		var joint *linear.Jacobian
		var err error
		if len(toCombine) == 1 {
			joint = toCombine[0]
		} else {
			joint, err = linear.Combine(toCombine, dims)
			if err != nil {
				return nil, err
			}
		}

		cond, residual, err := linear.EliminatePivot(joint, v, dims[v], dims, method)
		if err != nil {
			return nil, wrapIndefinite(err)
		}

		var result *BuiltClique
		if len(children) == 1 {
			only := childResults[0]
			result = &BuiltClique{
				Chain:    append(append([]*linear.Conditional(nil), only.Chain...), cond),
				Residual: residual,
				Children: only.Children,
			}
		} else {
			result = &BuiltClique{
				Chain:    []*linear.Conditional{cond},
				Residual: residual,
				Children: childResults,
			}
		}
		memo[v] = result
		return result, nil
	}

	var roots []*BuiltClique
	sortedRoots := append([]values.Slot(nil), tree.roots...)
	sort.Slice(sortedRoots, func(a, b int) bool { return sortedRoots[a] < sortedRoots[b] })
	for _, r := range sortedRoots {
		bc, err := eliminate(r)
		if err != nil {
			return nil, err
		}
		roots = append(roots, bc)
	}
	return &Result{Roots: roots}, nil
}

// Materialize converts a BuiltClique tree into real clique.Clique objects
// and attaches them under parent in tree (parent == 0 attaches bc as a new
// Bayes-tree root). Returns the ID assigned to bc itself.
func Materialize(tree *bayestree.BayesTree, bc *BuiltClique, parent clique.ID) clique.ID {
	c := clique.New(bc.Chain, bc.Residual)
	ids := tree.Attach([]*clique.Clique{c}, []clique.ID{parent})
	id := ids[0]
	for _, child := range bc.Children {
		Materialize(tree, child, id)
	}
	return id
}
