package isam2

import (
	"fmt"

	"github.com/tjpotts/isam2/clique"
	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/values"
	"github.com/tjpotts/isam2/wildfire"
)

// refreshDelta brings delta current to within wildfireThreshold if it is
// marked stale, then clears the staleness flag.
func (s *ISAM2) refreshDelta() {
	if s.deltaUpToDate {
		return
	}
	wildfire.Run(s.tree, s.delta, s.replacedMask, s.params.Optimization.WildfireThreshold)
	s.deltaUpToDate = true
}

// GetDelta returns the current linear delta, refreshing it first if stale.
// The zero permutation wrapper reflects this module's no-renumbering
// ordering design (see DESIGN.md): delta is always addressed directly by
// the persistent global Slot space, so Permuted here is an identity view.
func (s *ISAM2) GetDelta() *ordering.Permuted {
	s.refreshDelta()
	return ordering.NewPermuted(s.delta, nil)
}

// CalculateEstimate returns theta + unpermute(delta): every known variable's
// manifold point retracted by its current linear delta.
func (s *ISAM2) CalculateEstimate() *values.Values {
	s.refreshDelta()
	return s.materializeEstimate()
}

// CalculateBestEstimate forces a full back-substitution ignoring
// wildfireThreshold (a negative threshold defeats the short-circuit, since
// the recomputed max-norm difference is never negative) and returns the
// resulting estimate.
func (s *ISAM2) CalculateBestEstimate() *values.Values {
	wildfire.Run(s.tree, s.delta, s.replacedMask, -1)
	s.deltaUpToDate = true
	return s.materializeEstimate()
}

func (s *ISAM2) materializeEstimate() *values.Values {
	out := s.values.Clone()
	for _, k := range s.ordering.Keys() {
		slot, err := s.ordering.SlotOf(k)
		if err != nil {
			continue
		}
		d, err := s.delta.At(slot)
		if err != nil {
			continue
		}
		cur, err := out.At(k)
		if err != nil {
			continue
		}
		_ = out.Update(k, cur.Retract(d))
	}
	return out
}

// CalculateEstimatePoint returns the manifold point for a single key,
// without a whole-tree wildfire pass: only the root-to-leaf path of cliques
// owning key is solved and written back into delta.
func (s *ISAM2) CalculateEstimatePoint(key values.Key) (values.Value, error) {
	slot, err := s.ordering.SlotOf(key)
	if err != nil {
		return nil, err
	}
	owner, ok := s.cliqueOwning(slot)
	if !ok {
		return nil, fmt.Errorf("%w: key %v has not been eliminated into any clique yet", ErrPreconditionViolation, key)
	}

	var chain []clique.ID
	for cur := owner; cur != 0; {
		c, ok := s.tree.Get(cur)
		if !ok {
			break
		}
		chain = append(chain, cur)
		cur = c.Parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	known := make(map[values.Slot][]float64)
	var frontals map[values.Slot][]float64
	for _, id := range chain {
		c, _ := s.tree.Get(id)
		sepDelta := make(map[values.Slot][]float64, len(c.Separator()))
		for _, sep := range c.Separator() {
			if v, ok := known[sep]; ok {
				sepDelta[sep] = v
			} else if v, err := s.delta.At(sep); err == nil {
				sepDelta[sep] = v
			} else {
				sepDelta[sep] = make([]float64, 0)
			}
		}
		frontals = c.Solve(sepDelta)
		for fs, v := range frontals {
			known[fs] = v
			_ = s.delta.Insert(fs, v)
			delete(s.replacedMask, fs)
		}
	}

	d, ok := known[slot]
	if !ok {
		return nil, fmt.Errorf("%w: key %v not resolved by its own clique chain", ErrPreconditionViolation, key)
	}
	cur, err := s.values.At(key)
	if err != nil {
		return nil, err
	}
	return cur.Retract(d), nil
}

func (s *ISAM2) cliqueOwning(slot values.Slot) (clique.ID, bool) {
	for _, id := range s.tree.Arena().IDs() {
		c, ok := s.tree.Get(id)
		if !ok {
			continue
		}
		if c.HasFrontal(slot) {
			return id, true
		}
	}
	return 0, false
}
