package stepcontrol

// Result is the outcome of one controller Step call.
type Result struct {
	// Accepted reports whether theta should move by Delta. Gauss-Newton
	// always accepts; dog-leg may reject (ratio <= 0), in which case theta
	// is left unchanged by the caller.
	Accepted bool
	// BacksubCount is the number of variables wildfire actually
	// recomputed (lastBacksubVariableCount).
	BacksubCount int
	// ErrorBefore and ErrorAfter are populated only by dog-leg (it must
	// evaluate the nonlinear error to compute the gain ratio); Gauss-Newton
	// leaves them at zero. Callers that need these for
	// evaluateNonlinearError should prefer computing them independently
	// when the controller doesn't.
	ErrorBefore, ErrorAfter float64
	HasError                bool
}
