package relinearize_test

import (
	"testing"

	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/nonlinear"
	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/relinearize"
	"github.com/tjpotts/isam2/values"
	"gonum.org/v1/gonum/mat"
)

type scalar float64

func (s scalar) Dim() int { return 1 }
func (s scalar) Retract(delta []float64) values.Value { return scalar(float64(s) + delta[0]) }
func (s scalar) LocalCoordinates(other values.Value) []float64 {
	return []float64{float64(other.(scalar)) - float64(s)}
}

// countingFactor counts how many times Linearize is invoked, so Apply's
// "relinearize every factor touching a relinearized key" behavior is
// directly observable.
type countingFactor struct {
	key   values.Key
	calls *int
}

func (f countingFactor) Keys() []values.Key { return []values.Key{f.key} }
func (f countingFactor) Dim() int           { return 1 }
func (f countingFactor) Error(vals *values.Values) float64 {
	v, _ := vals.At(f.key)
	return float64(v.(scalar)) * float64(v.(scalar))
}
func (f countingFactor) Linearize(vals *values.Values, ord *ordering.Ordering) (*linear.Jacobian, error) {
	*f.calls++
	return linear.NewJacobian(mat.NewVecDense(1, []float64{0})), nil
}

func TestComputeRelinearizedSet_ScalarThreshold(t *testing.T) {
	ord := ordering.New()
	kx := values.NewKey('x', 0)
	ky := values.NewKey('x', 1)
	slotX, _ := ord.Append(kx)
	slotY, _ := ord.Append(ky)

	delta := values.NewVectorValues()
	_ = delta.Insert(slotX, []float64{0.2}) // above threshold 0.1
	_ = delta.Insert(slotY, []float64{0.05}) // below threshold 0.1

	got := relinearize.ComputeRelinearizedSet(ord, delta, relinearize.Scalar(0.1))
	if len(got) != 1 || got[0] != kx {
		t.Fatalf("ComputeRelinearizedSet = %v, want [%v]", got, kx)
	}
}

func TestComputeRelinearizedSet_PerTypeThreshold(t *testing.T) {
	ord := ordering.New()
	kx := values.NewKey('x', 0)
	kl := values.NewKey('l', 0)
	slotX, _ := ord.Append(kx)
	slotL, _ := ord.Append(kl)

	delta := values.NewVectorValues()
	_ = delta.Insert(slotX, []float64{1.0})
	_ = delta.Insert(slotL, []float64{1.0})

	// 'x' has a loose threshold (no relinearize), 'l' has none registered
	// (never relinearizes under PerType).
	th := relinearize.PerType(map[byte][]float64{'x': {10.0}})
	got := relinearize.ComputeRelinearizedSet(ord, delta, th)
	if len(got) != 0 {
		t.Fatalf("ComputeRelinearizedSet = %v, want empty", got)
	}
}

func TestApply_RetractsAndZerosDeltaForRelinearizedKeys(t *testing.T) {
	ord := ordering.New()
	k := values.NewKey('x', 0)
	slot, _ := ord.Append(k)

	vals := values.NewValues()
	_ = vals.InsertNew(k, scalar(1.0))

	delta := values.NewVectorValues()
	_ = delta.Insert(slot, []float64{0.5})

	calls := 0
	graph := nonlinear.New()
	graph.Add(countingFactor{key: k, calls: &calls})

	if err := relinearize.Apply(vals, ord, delta, []values.Key{k}, graph, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got, _ := vals.At(k)
	if got.(scalar) != 1.5 {
		t.Fatalf("theta[k] = %v, want 1.5", got)
	}
	d, _ := delta.At(slot)
	if d[0] != 0 {
		t.Fatalf("delta[slot] = %v, want 0 after relinearization", d[0])
	}
	if calls != 1 {
		t.Fatalf("Linearize called %d times, want 1", calls)
	}
}

func TestApply_CachesLinearizedFactorsWhenRequested(t *testing.T) {
	ord := ordering.New()
	k := values.NewKey('x', 0)
	slot, _ := ord.Append(k)

	vals := values.NewValues()
	_ = vals.InsertNew(k, scalar(0))
	delta := values.NewVectorValues()
	_ = delta.Insert(slot, []float64{1})

	calls := 0
	graph := nonlinear.New()
	idx := graph.Add(countingFactor{key: k, calls: &calls})

	cache := make(map[values.FactorIndex]*linear.Jacobian)
	if err := relinearize.Apply(vals, ord, delta, []values.Key{k}, graph, cache); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := cache[idx]; !ok {
		t.Fatalf("cache missing entry for factor %v", idx)
	}
}

func TestApply_LeavesUninvolvedFactorsAlone(t *testing.T) {
	ord := ordering.New()
	k1 := values.NewKey('x', 0)
	k2 := values.NewKey('x', 1)
	slot1, _ := ord.Append(k1)
	_, _ = ord.Append(k2)

	vals := values.NewValues()
	_ = vals.InsertNew(k1, scalar(0))
	_ = vals.InsertNew(k2, scalar(0))
	delta := values.NewVectorValues()
	_ = delta.Insert(slot1, []float64{1})

	calls := 0
	graph := nonlinear.New()
	graph.Add(countingFactor{key: k2, calls: &calls}) // touches only k2

	if err := relinearize.Apply(vals, ord, delta, []values.Key{k1}, graph, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if calls != 0 {
		t.Fatalf("Linearize called %d times for an uninvolved factor, want 0", calls)
	}
}
