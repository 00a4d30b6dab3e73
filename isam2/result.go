package isam2

import "github.com/tjpotts/isam2/values"

// VariableDetail is one variable's per-update flags, populated only when
// Params.EnableDetailedResults is set.
type VariableDetail struct {
	Key values.Key

	// Observed is true if this variable was touched by a new, removed, or
	// added factor this update.
	Observed bool
	// New is true if this variable did not exist in theta before this update.
	New bool
	// AboveRelinThreshold is true if mag(s) > 1 under the configured
	// relinearization threshold, independent of whether relinearizeSkip
	// actually gated this update into considering relinearization.
	AboveRelinThreshold bool
	// RelinearizeInvolved is true if any factor touching this variable was
	// relinearized this update (a superset of Relinearized: a variable whose
	// neighbor crossed threshold still gets its shared factor refreshed).
	RelinearizeInvolved bool
	// Relinearized is true if this variable is a member of R this update.
	Relinearized bool
	// Reeliminated is true if this variable was a frontal of some clique
	// rebuilt by local elimination this update.
	Reeliminated bool
	// InRootClique is true if this variable's owning clique is a Bayes tree
	// root after this update.
	InRootClique bool
}

// UpdateResult is the payload returned by Update: a summary of what the
// call did, with optional per-variable detail for callers that want it.
type UpdateResult struct {
	// ErrorBefore, ErrorAfter are populated only if Params.EvaluateNonlinearError
	// is set.
	ErrorBefore, ErrorAfter float64
	HasError                bool

	// VariablesRelinearized is |R|.
	VariablesRelinearized int
	// VariablesReeliminated is the count of slots in re-eliminated cliques (|L|).
	VariablesReeliminated int
	// Cliques is the current total clique count after this update.
	Cliques int
	// NewFactorIndices is 1:1 with the newFactors argument to Update.
	NewFactorIndices []values.FactorIndex

	// Detail is populated only if Params.EnableDetailedResults is set.
	Detail []VariableDetail
}
