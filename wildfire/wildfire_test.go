package wildfire_test

import (
	"testing"

	"github.com/tjpotts/isam2/bayestree"
	"github.com/tjpotts/isam2/clique"
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/values"
	"github.com/tjpotts/isam2/wildfire"
	"gonum.org/v1/gonum/mat"
)

// buildChain builds a two-clique tree: root R (frontal 1, d=5), child C
// (frontal 0, sep {1}, d=3, S=[1]) so delta0 = 3 - delta1.
func buildChain(t *testing.T) (*bayestree.BayesTree, clique.ID, clique.ID) {
	t.Helper()
	rootCond := &linear.Conditional{
		Frontal:    values.Slot(1),
		FrontalDim: 1,
		R:          mat.NewDense(1, 1, []float64{1}),
		D:          mat.NewVecDense(1, []float64{5}),
	}
	childCond := &linear.Conditional{
		Frontal:        values.Slot(0),
		FrontalDim:     1,
		SeparatorSlots: []values.Slot{1},
		SeparatorDims:  []int{1},
		R:              mat.NewDense(1, 1, []float64{1}),
		S:              mat.NewDense(1, 1, []float64{1}),
		D:              mat.NewVecDense(1, []float64{3}),
	}
	tree := bayestree.New()
	ids := tree.Attach([]*clique.Clique{clique.New([]*linear.Conditional{rootCond}, nil)}, []clique.ID{0})
	root := ids[0]
	ids = tree.Attach([]*clique.Clique{clique.New([]*linear.Conditional{childCond}, nil)}, []clique.ID{root})
	return tree, root, ids[0]
}

func TestWildfire_Run_FromEmptyDeltaRefreshesEverything(t *testing.T) {
	tree, _, _ := buildChain(t)
	delta := values.NewVectorValues()
	mask := map[values.Slot]bool{}

	count := wildfire.Run(tree, delta, mask, 0)
	if count != 2 {
		t.Fatalf("Run() refreshed %d slots, want 2", count)
	}

	d1, _ := delta.At(values.Slot(1))
	if d1[0] != 5 {
		t.Fatalf("delta[1] = %v, want 5", d1[0])
	}
	d0, _ := delta.At(values.Slot(0))
	if d0[0] != -2 {
		t.Fatalf("delta[0] = %v, want -2 (3 - 5)", d0[0])
	}
	if len(mask) != 0 {
		t.Fatalf("replacedMask = %v, want empty after a full refresh", mask)
	}
}

func TestWildfire_Run_ShortCircuitsWhenConverged(t *testing.T) {
	tree, _, _ := buildChain(t)
	delta := values.NewVectorValues()
	_ = delta.Insert(values.Slot(1), []float64{5})
	_ = delta.Insert(values.Slot(0), []float64{-2})
	mask := map[values.Slot]bool{}

	count := wildfire.Run(tree, delta, mask, 1e-9)
	if count != 0 {
		t.Fatalf("Run() refreshed %d slots, want 0 (already converged)", count)
	}
}

func TestWildfire_Run_MaskForcesRefreshEvenIfConverged(t *testing.T) {
	tree, _, _ := buildChain(t)
	delta := values.NewVectorValues()
	_ = delta.Insert(values.Slot(1), []float64{5})
	_ = delta.Insert(values.Slot(0), []float64{-2})
	mask := map[values.Slot]bool{values.Slot(1): true}

	count := wildfire.Run(tree, delta, mask, 1e9)
	if count != 1 {
		t.Fatalf("Run() refreshed %d slots, want 1 (only the marked root; the unchanged, unmarked child short-circuits)", count)
	}
	if len(mask) != 0 {
		t.Fatalf("replacedMask = %v, want empty after refresh clears visited slots", mask)
	}
}

func TestWildfire_Run_NegativeThresholdDefeatsShortCircuit(t *testing.T) {
	tree, _, _ := buildChain(t)
	delta := values.NewVectorValues()
	_ = delta.Insert(values.Slot(1), []float64{5})
	_ = delta.Insert(values.Slot(0), []float64{-2})
	mask := map[values.Slot]bool{}

	count := wildfire.Run(tree, delta, mask, -1)
	if count != 2 {
		t.Fatalf("Run() with negative threshold refreshed %d slots, want 2 (forced full pass)", count)
	}
}
