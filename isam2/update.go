package isam2

import (
	"errors"
	"fmt"
	"math"

	"github.com/tjpotts/isam2/bayestree"
	"github.com/tjpotts/isam2/clique"
	"github.com/tjpotts/isam2/elimination"
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/nonlinear"
	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/relinearize"
	"github.com/tjpotts/isam2/stepcontrol"
	"github.com/tjpotts/isam2/values"
	"github.com/tjpotts/isam2/variableindex"
	"github.com/tjpotts/isam2/wildfire"
)

// Update runs the central incremental algorithm: absorb newValues,
// register newFactors and tombstone removeFactorIndices,
// mark the affected variable set, detach and locally re-eliminate the
// covering subtree, reattach orphans, and drive the configured step
// controller to refresh Delta and retract theta.
//
// Update is transactional: every piece of state it touches is prepared on a
// clone and swapped into the receiver only once the whole pipeline
// succeeds. A returned error leaves the receiver exactly as it was.
func (s *ISAM2) Update(newFactors []nonlinear.Factor, newValues map[values.Key]values.Value, removeFactorIndices []values.FactorIndex, constrainedKeys []values.Key, forceRelinearize bool) (UpdateResult, error) {
	if err := s.checkPreconditions(newFactors, newValues, removeFactorIndices); err != nil {
		return UpdateResult{}, err
	}

	graph := s.graph.Clone()
	vals := s.values.Clone()
	varIndex := s.varIndex.Clone()
	ord := s.ordering.Clone()
	tree := s.tree.Clone()
	delta := s.delta.Clone()
	mask := make(map[values.Slot]bool, len(s.replacedMask))
	for slot, v := range s.replacedMask {
		mask[slot] = v
	}
	linCache := make(map[values.FactorIndex]*linear.Jacobian, len(s.linCache))
	for idx, jf := range s.linCache {
		linCache[idx] = jf
	}
	var dogleg *stepcontrol.DogLeg
	if s.dogleg != nil {
		clone := *s.dogleg
		dogleg = &clone
	}
	callCounter := s.callCounter + 1

	// 1. Absorb new variables.
	newKeys := make(map[values.Key]bool, len(newValues))
	for k, v := range newValues {
		if err := vals.InsertNew(k, v); err != nil {
			return UpdateResult{}, fmt.Errorf("%w: newValues key %v: %v", ErrPreconditionViolation, k, err)
		}
		slot, err := ord.Append(k)
		if err != nil {
			return UpdateResult{}, fmt.Errorf("%w: newValues key %v: %v", ErrPreconditionViolation, k, err)
		}
		_ = delta.Insert(slot, make([]float64, v.Dim()))
		newKeys[k] = true
	}

	// 2. Register factors.
	newIndices := make([]values.FactorIndex, len(newFactors))
	touches := make([]variableindex.FactorTouch, len(newFactors))
	for i, f := range newFactors {
		idx := graph.Add(f)
		newIndices[i] = idx
		dims := make(map[values.Key]int, len(f.Keys()))
		for _, k := range f.Keys() {
			if val, err := vals.At(k); err == nil {
				dims[k] = val.Dim()
			}
		}
		touches[i] = variableindex.FactorTouch{Index: idx, Keys: f.Keys(), Dims: dims}
	}
	varIndex.Augment(touches)

	removedTouchedKeys := make(map[values.Key]bool)
	for _, idx := range removeFactorIndices {
		f, ok := graph.At(idx)
		if !ok {
			return UpdateResult{}, fmt.Errorf("%w: removeFactorIndices references unknown factor %d", ErrPreconditionViolation, idx)
		}
		for _, k := range f.Keys() {
			removedTouchedKeys[k] = true
		}
		if err := graph.Remove(idx); err != nil {
			return UpdateResult{}, fmt.Errorf("%w: %v", ErrPreconditionViolation, err)
		}
		delete(linCache, idx)
	}
	varIndex.Remove(removeFactorIndices)

	// 3. Determine observed variables.
	observed := make(map[values.Key]bool)
	for _, f := range newFactors {
		for _, k := range f.Keys() {
			observed[k] = true
		}
	}
	for k := range removedTouchedKeys {
		observed[k] = true
	}

	// 4. Decide relinearization. Bring delta current first (4.H step 1).
	wildfire.Run(tree, delta, mask, s.params.Optimization.WildfireThreshold)

	var relinearized []values.Key
	if s.params.EnableRelinearization && s.params.RelinearizeSkip > 0 &&
		(callCounter%s.params.RelinearizeSkip == 0 || forceRelinearize) {
		relinearized = relinearize.ComputeRelinearizedSet(ord, delta, s.params.RelinearizeThreshold)
	}

	var aboveThresholdSet map[values.Key]bool
	if s.params.EnableDetailedResults {
		aboveThresholdSet = make(map[values.Key]bool)
		for _, k := range relinearize.ComputeRelinearizedSet(ord, delta, s.params.RelinearizeThreshold) {
			aboveThresholdSet[k] = true
		}
	}

	relinSet := make(map[values.Key]bool, len(relinearized))
	for _, k := range relinearized {
		relinSet[k] = true
	}

	observedR := make(map[values.Slot]bool, len(observed)+len(relinearized))
	for k := range observed {
		if slot, err := ord.SlotOf(k); err == nil {
			observedR[slot] = true
		}
	}
	for _, k := range relinearized {
		if slot, err := ord.SlotOf(k); err == nil {
			observedR[slot] = true
		}
	}

	// 5 & 6. Mark, detach the covering subtree, harvest boundary factors.
	beforeFrontals := make(map[clique.ID][]values.Slot)
	for _, id := range tree.Arena().IDs() {
		if c, ok := tree.Get(id); ok {
			beforeFrontals[id] = c.Frontals()
		}
	}

	orphans := tree.DetachSubtreeAbove(observedR)

	afterSet := make(map[clique.ID]bool, len(beforeFrontals))
	for _, id := range tree.Arena().IDs() {
		afterSet[id] = true
	}

	L := make(map[values.Slot]bool, len(observedR))
	for slot := range observedR {
		L[slot] = true
	}
	for id, frontals := range beforeFrontals {
		if !afterSet[id] {
			for _, slot := range frontals {
				L[slot] = true
			}
		}
	}

	var boundaryFactors []*linear.Jacobian
	for _, orphanID := range orphans {
		c, ok := tree.Get(orphanID)
		if !ok || c.CachedFactor == nil {
			continue
		}
		boundaryFactors = append(boundaryFactors, c.CachedFactor)
	}

	// Relinearize R: retract theta by its current delta and zero that delta
	// (4.H steps 3-4), recomputing every factor touching an R-member.
	if len(relinearized) > 0 {
		cache := linCache
		if !s.params.CacheLinearizedFactors {
			cache = nil
		}
		if err := relinearize.Apply(vals, ord, delta, relinearized, graph, cache); err != nil {
			return UpdateResult{}, err
		}
	}

	// 7. Assemble the local factor set: boundary factors, plus every
	// nonlinear factor touching any variable in L (relinearized where R
	// overlaps, cached or freshly linearized otherwise). New factors from
	// step 2 touch only observed keys, a subset of L, so they are already
	// covered by FactorsTouching(Lkeys).
	Lkeys := make([]values.Key, 0, len(L))
	for slot := range L {
		if k, err := ord.KeyOf(slot); err == nil {
			Lkeys = append(Lkeys, k)
		}
	}

	touchingIdx := varIndex.FactorsTouching(Lkeys)
	localFactors := append([]*linear.Jacobian(nil), boundaryFactors...)
	relinearizeInvolvedKeys := make(map[values.Key]bool)
	for _, idx := range touchingIdx {
		f, ok := graph.At(idx)
		if !ok {
			continue
		}
		touchesR := false
		for _, k := range f.Keys() {
			if relinSet[k] {
				touchesR = true
				break
			}
		}

		var jf *linear.Jacobian
		switch {
		case touchesR:
			lin, err := f.Linearize(vals, ord)
			if err != nil {
				return UpdateResult{}, err
			}
			jf = lin
			if s.params.CacheLinearizedFactors {
				linCache[idx] = jf
			}
			for _, k := range f.Keys() {
				relinearizeInvolvedKeys[k] = true
			}
		case s.params.CacheLinearizedFactors:
			if cached, ok := linCache[idx]; ok {
				jf = cached
			} else {
				lin, err := f.Linearize(vals, ord)
				if err != nil {
					return UpdateResult{}, err
				}
				jf = lin
				linCache[idx] = jf
			}
		default:
			lin, err := f.Linearize(vals, ord)
			if err != nil {
				return UpdateResult{}, err
			}
			jf = lin
		}
		localFactors = append(localFactors, jf)
	}

	// 8. Local ordering: a fresh dense ordering over L only, constrained
	// keys (restricted to L) ordered last so they land root-adjacent.
	inL := make(map[values.Key]bool, len(Lkeys))
	for _, k := range Lkeys {
		inL[k] = true
	}
	var constrainedInL []values.Key
	for _, k := range constrainedKeys {
		if inL[k] {
			constrainedInL = append(constrainedInL, k)
		}
	}

	lg := newLocalGraph(ord, localFactors, Lkeys)
	localOrderKeys := ordering.Order(lg, constrainedInL)

	localOrd := ordering.New()
	globalToLocal := make(map[values.Slot]values.Slot, len(localOrderKeys))
	localToGlobal := make(map[values.Slot]values.Slot, len(localOrderKeys))
	dims := make(map[values.Slot]int, len(localOrderKeys))
	for _, k := range localOrderKeys {
		localSlot, err := localOrd.Append(k)
		if err != nil {
			return UpdateResult{}, err
		}
		globalSlot, err := ord.SlotOf(k)
		if err != nil {
			return UpdateResult{}, err
		}
		globalToLocal[globalSlot] = localSlot
		localToGlobal[localSlot] = globalSlot
		dims[localSlot] = varIndex.Dim(k)
	}

	localInput := make([]*linear.Jacobian, len(localFactors))
	for i, jf := range localFactors {
		localInput[i] = relabelJacobianSlots(jf, globalToLocal)
	}

	// 9. Eliminate locally, falling back from LDL to QR once on indefiniteness.
	method := s.params.Factorization
	result, err := elimination.Eliminate(localOrd, localInput, dims, method)
	if err != nil {
		if !errors.Is(err, elimination.ErrIndefiniteLinearSystem) {
			panic(fmt.Sprintf("isam2: internal invariant violation during elimination: %v", err))
		}
		if method != linear.LDL {
			return UpdateResult{}, fmt.Errorf("%w: %v", ErrIndefiniteLinearSystem, err)
		}
		result, err = elimination.Eliminate(localOrd, localInput, dims, linear.QR)
		if err != nil {
			return UpdateResult{}, fmt.Errorf("%w: %v", ErrIndefiniteLinearSystem, err)
		}
	}

	for _, bc := range result.Roots {
		relabelBuiltClique(bc, localToGlobal)
	}

	beforeMaterializeIDs := make(map[clique.ID]bool, tree.CliquesCount())
	for _, id := range tree.Arena().IDs() {
		beforeMaterializeIDs[id] = true
	}
	for _, bc := range result.Roots {
		elimination.Materialize(tree, bc, 0)
	}
	var newIDs []clique.ID
	for _, id := range tree.Arena().IDs() {
		if !beforeMaterializeIDs[id] {
			newIDs = append(newIDs, id)
		}
	}

	for _, orphanID := range orphans {
		c, ok := tree.Get(orphanID)
		if !ok {
			continue
		}
		parent, ok := findReattachParent(tree, newIDs, c.Separator())
		if !ok {
			panic("isam2: no new clique covers orphan separator; running intersection violated")
		}
		tree.ReattachOrphan(orphanID, parent)
	}

	// 10. Mark delta stale.
	for slot := range L {
		mask[slot] = true
	}

	// 11. Compute step and apply.
	var errorBefore float64
	if s.params.EvaluateNonlinearError {
		errorBefore = graph.Error(vals)
	}

	var stepResult stepcontrol.Result
	var stepDelta map[values.Slot][]float64
	if s.params.Optimization.Kind == OptDogLeg {
		stepResult, stepDelta = dogleg.Step(tree, delta, mask, graph, vals, ord)
	} else {
		gn := &stepcontrol.GaussNewton{WildfireThreshold: s.params.Optimization.WildfireThreshold}
		stepResult, stepDelta = gn.Step(tree, delta, mask)
	}

	if stepResult.Accepted {
		keyDelta := make(map[values.Key][]float64, len(stepDelta))
		for slot, d := range stepDelta {
			for _, v := range d {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return UpdateResult{}, ErrNumericalOverflow
				}
			}
			if k, err := ord.KeyOf(slot); err == nil {
				keyDelta[k] = d
			}
		}
		vals = vals.Retract(keyDelta)

		zeroed := values.NewVectorValues()
		for _, slot := range delta.Slots() {
			_ = zeroed.Insert(slot, make([]float64, delta.Dim(slot)))
		}
		delta = zeroed
	}

	var errorAfter float64
	if s.params.EvaluateNonlinearError {
		errorAfter = graph.Error(vals)
	}

	res := UpdateResult{
		ErrorBefore:           errorBefore,
		ErrorAfter:            errorAfter,
		HasError:              s.params.EvaluateNonlinearError,
		VariablesRelinearized: len(relinearized),
		VariablesReeliminated: len(L),
		Cliques:               tree.CliquesCount(),
		NewFactorIndices:      newIndices,
	}
	if s.params.EnableDetailedResults {
		res.Detail = buildDetail(tree, ord, observed, newKeys, aboveThresholdSet, relinearizeInvolvedKeys, relinSet, L)
	}

	s.graph = graph
	s.values = vals
	s.varIndex = varIndex
	s.ordering = ord
	s.tree = tree
	s.delta = delta
	s.replacedMask = mask
	s.callCounter = callCounter
	s.linCache = linCache
	if dogleg != nil {
		s.dogleg = dogleg
	}
	s.deltaUpToDate = false

	return res, nil
}

func (s *ISAM2) checkPreconditions(newFactors []nonlinear.Factor, newValues map[values.Key]values.Value, removeFactorIndices []values.FactorIndex) error {
	for k := range newValues {
		if s.values.Has(k) {
			return fmt.Errorf("%w: newValues key %v already present in theta", ErrPreconditionViolation, k)
		}
	}
	for _, f := range newFactors {
		for _, k := range f.Keys() {
			if s.values.Has(k) {
				continue
			}
			if _, ok := newValues[k]; !ok {
				return fmt.Errorf("%w: newFactors references key %v missing from newValues", ErrPreconditionViolation, k)
			}
		}
	}
	for _, idx := range removeFactorIndices {
		if _, ok := s.graph.At(idx); !ok {
			return fmt.Errorf("%w: removeFactorIndices references unknown or already-removed index %d", ErrPreconditionViolation, idx)
		}
	}
	return nil
}

// findReattachParent searches candidates (newly materialized cliques) for
// one whose Frontals() superset separator, preserving the property that a
// variable shared by two cliques also appears in every clique on the path
// between them.
func findReattachParent(tree *bayestree.BayesTree, candidates []clique.ID, separator []values.Slot) (clique.ID, bool) {
	if len(separator) == 0 {
		return 0, false
	}
	for _, id := range candidates {
		c, ok := tree.Get(id)
		if !ok {
			continue
		}
		frontalSet := make(map[values.Slot]bool, len(c.Frontals()))
		for _, f := range c.Frontals() {
			frontalSet[f] = true
		}
		covers := true
		for _, s := range separator {
			if !frontalSet[s] {
				covers = false
				break
			}
		}
		if covers {
			return id, true
		}
	}
	return 0, false
}

func ownerInRootClique(tree *bayestree.BayesTree, slot values.Slot) bool {
	roots := make(map[clique.ID]bool, len(tree.Roots()))
	for _, id := range tree.Roots() {
		roots[id] = true
	}
	for _, id := range tree.Arena().IDs() {
		c, ok := tree.Get(id)
		if !ok || !c.HasFrontal(slot) {
			continue
		}
		return roots[id]
	}
	return false
}

func buildDetail(tree *bayestree.BayesTree, ord *ordering.Ordering, observed, newKeys, above, relinInvolved, relin map[values.Key]bool, L map[values.Slot]bool) []VariableDetail {
	keys := ord.Keys()
	out := make([]VariableDetail, 0, len(keys))
	for _, k := range keys {
		slot, err := ord.SlotOf(k)
		if err != nil {
			continue
		}
		out = append(out, VariableDetail{
			Key:                 k,
			Observed:            observed[k],
			New:                 newKeys[k],
			AboveRelinThreshold: above[k],
			RelinearizeInvolved: relinInvolved[k],
			Relinearized:        relin[k],
			Reeliminated:        L[slot],
			InRootClique:        ownerInRootClique(tree, slot),
		})
	}
	return out
}
