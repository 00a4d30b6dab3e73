// Package isam2 implements the incremental updater: the central `Update`
// orchestration that marks the affected variable set, detaches the
// Bayes-tree subtree above it, reassembles a local factor set from boundary
// factors, relinearized nonlinear factors and new factors, re-eliminates
// that local set under a fresh local ordering, reattaches the result, and
// drives the configured step controller to refresh the linear delta and
// retract theta.
//
// An ISAM2 value owns every piece of global mutable state the algorithm
// carries across calls: the nonlinear factor graph, theta (Values), the
// variable index, the current ordering, the current Bayes tree, the cached
// delta and its replacedMask/staleness flag, and (for dog-leg) the
// trust-region controller's own state. Update is transactional: a new
// tree/ordering/delta/values are prepared on the side and the ISAM2 struct
// is mutated only once the whole pipeline succeeds.
package isam2
