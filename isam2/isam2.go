package isam2

import (
	"github.com/tjpotts/isam2/bayestree"
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/nonlinear"
	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/stepcontrol"
	"github.com/tjpotts/isam2/values"
	"github.com/tjpotts/isam2/variableindex"
)

// ISAM2 is the incremental solver instance. It owns every piece of global
// mutable state carried across Update calls: the nonlinear factor graph,
// the current linearization point theta, the variable index, the current
// ordering, the current Bayes tree, the cached linear delta and its
// replacedMask/staleness flag, the call counter driving relinearizeSkip,
// and (when the dog-leg controller is configured) its trust-region radius
// and state.
//
// Not safe for concurrent access: every Update call mutates this shared
// state, so callers needing concurrent updates must serialize them
// themselves.
type ISAM2 struct {
	params Params

	graph    *nonlinear.Graph
	values   *values.Values
	varIndex *variableindex.VariableIndex
	ordering *ordering.Ordering
	tree     *bayestree.BayesTree

	delta         *values.VectorValues
	replacedMask  map[values.Slot]bool
	deltaUpToDate bool

	callCounter int

	dogleg *stepcontrol.DogLeg // non-nil iff params.Optimization.Kind == OptDogLeg

	// linCache holds the last linearized Jacobian for each nonlinear factor,
	// keyed by its stable FactorIndex, when params.CacheLinearizedFactors is
	// enabled. Slot labels inside a cached entry are persistent global slots,
	// which the append-only ordering never renumbers; Update's relabeling
	// into local slots works on copies (see relabel.go). Entries are dropped
	// on removal.
	linCache map[values.FactorIndex]*linear.Jacobian
}

// New returns an empty ISAM2 instance configured by opts over DefaultParams.
func New(opts ...Option) *ISAM2 {
	p := DefaultParams()
	for _, opt := range opts {
		opt(&p)
	}

	s := &ISAM2{
		params:       p,
		graph:        nonlinear.New(),
		values:       values.NewValues(),
		varIndex:     variableindex.New(),
		ordering:     ordering.New(),
		tree:         bayestree.New(),
		delta:        values.NewVectorValues(),
		replacedMask: make(map[values.Slot]bool),
		linCache:     make(map[values.FactorIndex]*linear.Jacobian),
	}
	if p.Optimization.Kind == OptDogLeg {
		s.dogleg = stepcontrol.NewDogLeg(p.Optimization.InitialDelta, p.Optimization.WildfireThreshold)
	}
	return s
}

// Params returns the configuration this instance was built with.
func (s *ISAM2) Params() Params { return s.params }

// GetOrdering returns a defensive deep copy of the current Key<->Slot
// ordering.
func (s *ISAM2) GetOrdering() *ordering.Ordering { return s.ordering.Clone() }

// GetFactorsUnsafe returns the live nonlinear factor graph without copying
// it, for callers that only need to read it: callers must not mutate it.
func (s *ISAM2) GetFactorsUnsafe() *nonlinear.Graph { return s.graph }

// CliquesCount returns the number of live cliques in the current Bayes tree.
func (s *ISAM2) CliquesCount() int { return s.tree.CliquesCount() }
