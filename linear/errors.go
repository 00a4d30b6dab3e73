package linear

import "errors"

// Sentinel errors for the linear package.
var (
	// ErrDimensionMismatch indicates a block's dimensions are inconsistent with
	// the factor's declared variable dimensions.
	ErrDimensionMismatch = errors.New("linear: dimension mismatch")

	// ErrEmptyFactor indicates an elimination or combination was attempted on a
	// joint factor with no variables.
	ErrEmptyFactor = errors.New("linear: factor has no variables")

	// ErrIndefinite indicates the LDL (block Cholesky) kernel encountered a
	// non-positive pivot while factorizing the leading block. Callers (the
	// elimination engine) surface this as IndefiniteLinearSystem and retry
	// the same factor set under QR, which never raises this error.
	ErrIndefinite = errors.New("linear: indefinite pivot under LDL elimination")
)
