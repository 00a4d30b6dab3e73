package isam2

import "errors"

// Sentinel errors for the isam2 package, covering the three operational
// failure kinds an Update call can report to its caller. Internal invariant
// violations (running intersection broken after a reattach) are not in this
// list: they panic, since validation this package performs on its own
// bookkeeping is confined to genuinely internal-only tree invariants that a
// caller has no way to have caused and no meaningful way to recover from.
var (
	// ErrPreconditionViolation indicates malformed Update input: a newValues
	// key already present in theta, a key newFactors touches missing from
	// newValues, or a removeFactorIndices entry that is unknown or already
	// removed. Surfaced immediately; Update performs no mutation first.
	ErrPreconditionViolation = errors.New("isam2: precondition violation")

	// ErrIndefiniteLinearSystem indicates LDL elimination hit a non-positive
	// pivot and the transparent QR retry also failed (or factorization was
	// already QR, so there is nothing to retry). The ISAM2 instance is left
	// in its pre-Update state.
	ErrIndefiniteLinearSystem = errors.New("isam2: indefinite linear system")

	// ErrNumericalOverflow indicates a non-finite value appeared in the
	// refreshed delta after back-substitution. The ISAM2 instance is left in
	// its pre-Update state.
	ErrNumericalOverflow = errors.New("isam2: numerical overflow in delta")
)
