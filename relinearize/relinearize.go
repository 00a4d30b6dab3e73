package relinearize

import (
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/nonlinear"
	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/values"
)

// ComputeRelinearizedSet decides which variables need relinearizing. Callers
// are expected to have already brought delta current (e.g. via a wildfire
// run to within wildfireThreshold — an approximation sufficient for
// threshold comparison). This returns the relinearized set R: every key
// whose current delta's mag() under threshold exceeds 1.
func ComputeRelinearizedSet(ord *ordering.Ordering, delta *values.VectorValues, threshold Threshold) []values.Key {
	var out []values.Key
	for _, key := range ord.Keys() {
		slot, err := ord.SlotOf(key)
		if err != nil {
			continue
		}
		vec, err := delta.At(slot)
		if err != nil {
			continue
		}
		if threshold.Mag(key.Tag(), vec) > 1 {
			out = append(out, key)
		}
	}
	return out
}

// Apply retracts every key in relinearized by its current delta (zeroing
// that delta afterward), then recomputes the Jacobian of every nonlinear
// factor touching any relinearized key — all-or-nothing per factor: a
// factor with only one of several variables past threshold is still fully
// relinearized, since a partially-stale Jacobian would mix linearization
// points within the same factor. If cache is non-nil, refreshed Jacobians
// are stashed into it keyed by FactorIndex.
func Apply(vals *values.Values, ord *ordering.Ordering, delta *values.VectorValues, relinearized []values.Key, graph *nonlinear.Graph, cache map[values.FactorIndex]*linear.Jacobian) error {
	relSet := make(map[values.Key]bool, len(relinearized))
	for _, k := range relinearized {
		relSet[k] = true
	}

	for _, k := range relinearized {
		slot, err := ord.SlotOf(k)
		if err != nil {
			return err
		}
		vec, err := delta.At(slot)
		if err != nil {
			continue
		}
		cur, err := vals.At(k)
		if err != nil {
			return err
		}
		if err := vals.Update(k, cur.Retract(vec)); err != nil {
			return err
		}
		if err := delta.Set(slot, make([]float64, len(vec))); err != nil {
			return err
		}
	}

	var ferr error
	graph.Range(func(idx values.FactorIndex, f nonlinear.Factor) bool {
		touches := false
		for _, k := range f.Keys() {
			if relSet[k] {
				touches = true
				break
			}
		}
		if !touches {
			return true
		}
		jf, err := f.Linearize(vals, ord)
		if err != nil {
			ferr = err
			return false
		}
		if cache != nil {
			cache[idx] = jf
		}
		return true
	})
	return ferr
}
