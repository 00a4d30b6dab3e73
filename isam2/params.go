package isam2

import (
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/relinearize"
	"github.com/tjpotts/isam2/stepcontrol"
)

// OptimizationKind selects the step controller variant: the optimization
// slot is effectively a tagged union over {GaussNewton, DogLeg}, implemented
// as a sum type with an explicit discriminant rather than runtime
// polymorphism, since only one of the two variants' fields is ever
// meaningful at a time.
type OptimizationKind int

const (
	OptGaussNewton OptimizationKind = iota
	OptDogLeg
)

// OptimizationParams holds every field either step controller variant needs;
// only the fields relevant to Kind are meaningful.
type OptimizationParams struct {
	Kind              OptimizationKind
	WildfireThreshold float64
	InitialDelta      float64 // DogLeg only: initial trust-region radius.
	AdaptationMode    stepcontrol.AdaptationMode
	Verbose           bool
}

// Params is the solver's configuration bundle. Built via DefaultParams and
// a chain of functional Options, the same construction pattern used
// throughout this module wherever a type has optional, defaultable fields.
type Params struct {
	Optimization           OptimizationParams
	RelinearizeThreshold   relinearize.Threshold
	RelinearizeSkip        int
	EnableRelinearization  bool
	EvaluateNonlinearError bool
	Factorization          linear.Factorization
	CacheLinearizedFactors bool
	EnableDetailedResults  bool
}

// Option configures a Params value.
type Option func(*Params)

// DefaultParams returns the default configuration: Gauss-Newton with
// wildfireThreshold 0.001, scalar relinearizeThreshold 0.1, relinearizeSkip
// 10, relinearization enabled, QR factorization, error evaluation and
// per-variable detail both off, linearized-factor caching on.
func DefaultParams() Params {
	return Params{
		Optimization: OptimizationParams{
			Kind:              OptGaussNewton,
			WildfireThreshold: 0.001,
		},
		RelinearizeThreshold:   relinearize.Scalar(0.1),
		RelinearizeSkip:        10,
		EnableRelinearization:  true,
		EvaluateNonlinearError: false,
		Factorization:          linear.QR,
		CacheLinearizedFactors: true,
		EnableDetailedResults:  false,
	}
}

// WithGaussNewton selects the Gauss-Newton step controller: the wildfire
// delta is taken unconditionally, wildfireThreshold governs only the
// back-substitution short-circuit.
func WithGaussNewton(wildfireThreshold float64) Option {
	return func(p *Params) {
		p.Optimization = OptimizationParams{Kind: OptGaussNewton, WildfireThreshold: wildfireThreshold}
	}
}

// WithDogLeg selects Powell's dog-leg trust-region controller with the given
// initial radius and wildfire threshold.
func WithDogLeg(initialDelta, wildfireThreshold float64, mode stepcontrol.AdaptationMode) Option {
	return func(p *Params) {
		p.Optimization = OptimizationParams{
			Kind:              OptDogLeg,
			InitialDelta:      initialDelta,
			WildfireThreshold: wildfireThreshold,
			AdaptationMode:    mode,
		}
	}
}

// WithRelinearizeThreshold sets the relinearization threshold (scalar or
// per-type; see package relinearize).
func WithRelinearizeThreshold(t relinearize.Threshold) Option {
	return func(p *Params) { p.RelinearizeThreshold = t }
}

// WithRelinearizeSkip sets how many Update calls pass between
// relinearization considerations (default 10).
func WithRelinearizeSkip(n int) Option {
	return func(p *Params) { p.RelinearizeSkip = n }
}

// WithEnableRelinearization toggles the relinearization master switch; if
// false, the relinearized set is always empty regardless of relinearizeSkip.
func WithEnableRelinearization(enabled bool) Option {
	return func(p *Params) { p.EnableRelinearization = enabled }
}

// WithEvaluateNonlinearError toggles populating UpdateResult.ErrorBefore/
// ErrorAfter.
func WithEvaluateNonlinearError(enabled bool) Option {
	return func(p *Params) { p.EvaluateNonlinearError = enabled }
}

// WithFactorization selects the elimination kernel (QR or LDL).
func WithFactorization(f linear.Factorization) Option {
	return func(p *Params) { p.Factorization = f }
}

// WithCacheLinearizedFactors toggles keeping the last linear factor
// alongside each nonlinear factor, reused for unaffected factors in a local
// re-elimination instead of relinearizing them.
func WithCacheLinearizedFactors(enabled bool) Option {
	return func(p *Params) { p.CacheLinearizedFactors = enabled }
}

// WithEnableDetailedResults toggles populating UpdateResult.Detail.
func WithEnableDetailedResults(enabled bool) Option {
	return func(p *Params) { p.EnableDetailedResults = enabled }
}
