package variableindex

import "github.com/tjpotts/isam2/values"

// VariableIndex maintains, for every Key seen so far, the unordered set of
// factor indices that mention it, and the variable's tangent-space
// dimension. It is append-mostly: Augment grows it as new factors arrive,
// Remove scrubs tombstoned factor indices without forgetting the variable
// itself (a variable with zero remaining factors is still "known").
type VariableIndex struct {
	factorsOf map[values.Key]map[values.FactorIndex]struct{}
	dims      map[values.Key]int
}

// New returns an empty VariableIndex.
func New() *VariableIndex {
	return &VariableIndex{
		factorsOf: make(map[values.Key]map[values.FactorIndex]struct{}),
		dims:      make(map[values.Key]int),
	}
}

// FactorTouch is one (factor index, keys touched, per-key dimension) record
// used by Augment. dims may be a nil/zero entry for a key already known; the
// first dimension recorded for a key wins.
type FactorTouch struct {
	Index values.FactorIndex
	Keys  []values.Key
	Dims  map[values.Key]int
}

// Augment records that each factor in touches mentions the given keys,
// allocating a dimension entry the first time a key is seen. Complexity:
// O(sum of len(Keys)).
func (vi *VariableIndex) Augment(touches []FactorTouch) {
	for _, t := range touches {
		for _, k := range t.Keys {
			set, ok := vi.factorsOf[k]
			if !ok {
				set = make(map[values.FactorIndex]struct{})
				vi.factorsOf[k] = set
			}
			set[t.Index] = struct{}{}
			if _, known := vi.dims[k]; !known {
				if d, ok := t.Dims[k]; ok {
					vi.dims[k] = d
				}
			}
		}
	}
}

// Remove scrubs the given factor indices from every variable's factor list.
// It does not remove the variable itself even if its factor list becomes
// empty: a variable stays known to the solver for as long as it has a slot
// in the ordering, regardless of how many live factors still touch it.
func (vi *VariableIndex) Remove(indices []values.FactorIndex) {
	removeSet := make(map[values.FactorIndex]struct{}, len(indices))
	for _, idx := range indices {
		removeSet[idx] = struct{}{}
	}
	for _, set := range vi.factorsOf {
		for idx := range removeSet {
			delete(set, idx)
		}
	}
}

// FactorsTouching returns the deduplicated union of factor indices touching
// any key in keys. Complexity: O(sum of factor-list sizes for keys).
func (vi *VariableIndex) FactorsTouching(keys []values.Key) []values.FactorIndex {
	seen := make(map[values.FactorIndex]struct{})
	for _, k := range keys {
		for idx := range vi.factorsOf[k] {
			seen[idx] = struct{}{}
		}
	}
	out := make([]values.FactorIndex, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	return out
}

// Dim returns the registered tangent-space dimension of key, or 0 if key is
// unknown.
func (vi *VariableIndex) Dim(key values.Key) int {
	return vi.dims[key]
}

// Has reports whether key has ever been registered via Augment.
func (vi *VariableIndex) Has(key values.Key) bool {
	_, ok := vi.factorsOf[key]
	return ok
}

// Neighbors returns the set of keys that co-occur with key in at least one
// surviving factor — the adjacency view consumed by ordering.Order via the
// ordering.Graph adapter a caller builds on top of VariableIndex.
func (vi *VariableIndex) Neighbors(key values.Key, keysOfFactor func(values.FactorIndex) []values.Key) []values.Key {
	seen := make(map[values.Key]struct{})
	for idx := range vi.factorsOf[key] {
		for _, other := range keysOfFactor(idx) {
			if other != key {
				seen[other] = struct{}{}
			}
		}
	}
	out := make([]values.Key, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	return out
}

// Clone returns a deep copy, independent of future mutation on either index.
// Used by the incremental updater to prepare a working copy on the side for
// transactional Update semantics.
func (vi *VariableIndex) Clone() *VariableIndex {
	out := &VariableIndex{
		factorsOf: make(map[values.Key]map[values.FactorIndex]struct{}, len(vi.factorsOf)),
		dims:      make(map[values.Key]int, len(vi.dims)),
	}
	for k, set := range vi.factorsOf {
		fresh := make(map[values.FactorIndex]struct{}, len(set))
		for idx := range set {
			fresh[idx] = struct{}{}
		}
		out.factorsOf[k] = fresh
	}
	for k, d := range vi.dims {
		out.dims[k] = d
	}
	return out
}

// Variables returns every key registered so far, in unspecified order.
func (vi *VariableIndex) Variables() []values.Key {
	out := make([]values.Key, 0, len(vi.factorsOf))
	for k := range vi.factorsOf {
		out = append(out, k)
	}
	return out
}
