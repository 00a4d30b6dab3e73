package stepcontrol_test

import (
	"testing"

	"github.com/tjpotts/isam2/bayestree"
	"github.com/tjpotts/isam2/clique"
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/stepcontrol"
	"github.com/tjpotts/isam2/values"
	"gonum.org/v1/gonum/mat"
)

func singleVariableTree(d float64) *bayestree.BayesTree {
	cond := &linear.Conditional{
		Frontal:    values.Slot(0),
		FrontalDim: 1,
		R:          mat.NewDense(1, 1, []float64{1}),
		D:          mat.NewVecDense(1, []float64{d}),
	}
	tree := bayestree.New()
	tree.Attach([]*clique.Clique{clique.New([]*linear.Conditional{cond}, nil)}, []clique.ID{0})
	return tree
}

func TestGaussNewton_Step_AlwaysAccepts(t *testing.T) {
	tree := singleVariableTree(3.0)
	delta := values.NewVectorValues()
	mask := map[values.Slot]bool{}

	gn := &stepcontrol.GaussNewton{WildfireThreshold: 0}
	result, step := gn.Step(tree, delta, mask)

	if !result.Accepted {
		t.Fatalf("Gauss-Newton step must always be Accepted")
	}
	if result.BacksubCount != 1 {
		t.Fatalf("BacksubCount = %d, want 1", result.BacksubCount)
	}
	if got := step[values.Slot(0)][0]; got != 3.0 {
		t.Fatalf("step[0] = %v, want 3.0", got)
	}
}

func TestGaussNewton_Step_SkipsConvergedCliques(t *testing.T) {
	tree := singleVariableTree(3.0)
	delta := values.NewVectorValues()
	_ = delta.Insert(values.Slot(0), []float64{3.0})
	mask := map[values.Slot]bool{}

	gn := &stepcontrol.GaussNewton{WildfireThreshold: 1e-9}
	result, _ := gn.Step(tree, delta, mask)

	if result.BacksubCount != 0 {
		t.Fatalf("BacksubCount = %d, want 0 (already converged)", result.BacksubCount)
	}
}
