// Package ordering implements the elimination ordering and permutation
// machinery: a bidirectional mapping between variable Keys and the dense
// Slots the linear algebra addresses, plus the lazy Permutation that lets a
// local re-elimination renumber a handful of slots without physically
// rewriting every clique's stored matrices.
//
// Ordering is a vector of Keys indexed by Slot (and its inverse). Permutation
// composes two slot spaces so that addressing through a stale slot number
// still resolves correctly until the caller chooses to re-materialize.
// Permuted pairs a values.VectorValues with a Permutation and translates
// reads/writes through it, so a renumbering never forces a physical copy.
package ordering
