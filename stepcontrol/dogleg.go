package stepcontrol

import (
	"math"

	"github.com/tjpotts/isam2/bayestree"
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/nonlinear"
	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/values"
	"github.com/tjpotts/isam2/wildfire"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// AdaptationMode selects how the trust-region radius reacts to the gain
// ratio. AdaptStandard is currently the only mode implemented.
type AdaptationMode int

const (
	AdaptStandard AdaptationMode = iota
)

// State is the dog-leg trust-region state. A DogLeg starts in Initial; after
// every call Step leaves it at Shrink, Expand or Keep. Step never assigns
// Accepted; whether a step was accepted is reported by Result.Accepted.
type State int

const (
	Initial State = iota
	Accepted
	Shrink
	Expand
	Keep
)

// Gain-ratio breakpoints (0.25, 0.75) and the radius multipliers applied at
// each (quarter the radius on shrink, double it on expand).
const (
	shrinkBreakpoint = 0.25
	expandBreakpoint = 0.75
	shrinkMultiplier = 0.25
	expandMultiplier = 2.0
)

// DogLeg is Powell's dog-leg trust-region controller.
type DogLeg struct {
	Radius            float64
	WildfireThreshold float64
	Mode              AdaptationMode
	State             State
}

// NewDogLeg returns a DogLeg with the given initial trust-region radius and
// wildfire threshold, in the INITIAL state.
func NewDogLeg(initialDelta, wildfireThreshold float64) *DogLeg {
	return &DogLeg{Radius: initialDelta, WildfireThreshold: wildfireThreshold, State: Initial}
}

// Step computes the Gauss-Newton and steepest-descent steps, blends them to
// the trust-region boundary if neither alone fits, evaluates the gain
// ratio against graph/vals, and adapts Radius. On acceptance the caller
// must retract vals by the returned Delta itself (Step does not mutate
// vals); Result.Accepted tells the caller whether to do so.
func (c *DogLeg) Step(tree *bayestree.BayesTree, delta *values.VectorValues, replacedMask map[values.Slot]bool, graph *nonlinear.Graph, vals *values.Values, ord *ordering.Ordering) (Result, map[values.Slot][]float64) {
	n := wildfire.Run(tree, delta, replacedMask, c.WildfireThreshold)

	gn := delta.AsMap()
	g := assembleGradient(tree)

	gg := dot(g, g)
	rg := quadraticForm(tree, g, g)
	alpha := 0.0
	if rg > 0 {
		alpha = gg / rg
	}
	sd := scale(g, -alpha)

	gnNorm := norm(gn)
	sdNorm := norm(sd)

	var step map[values.Slot][]float64
	switch {
	case gnNorm <= c.Radius:
		step = gn
	case sdNorm >= c.Radius:
		step = scale(sd, c.Radius/sdNorm)
	default:
		d := subtract(gn, sd)
		a := dot(d, d)
		b := 2 * dot(sd, d)
		cc := dot(sd, sd) - c.Radius*c.Radius
		tau := 0.0
		if a > 0 {
			disc := b*b - 4*a*cc
			if disc < 0 {
				disc = 0
			}
			tau = (-b + math.Sqrt(disc)) / (2 * a)
			if tau < 0 {
				tau = 0
			}
			if tau > 1 {
				tau = 1
			}
		}
		step = addScaled(sd, d, tau)
	}

	errorBefore := graph.Error(vals)
	proposed := vals.Retract(toKeyDelta(ord, step))
	errorAfter := graph.Error(proposed)

	actualDecrease := errorBefore - errorAfter
	predictedDecrease := -dot(g, step) - 0.5*quadraticForm(tree, step, step)

	ratio := -1.0
	if predictedDecrease > 0 {
		ratio = actualDecrease / predictedDecrease
	}

	accepted := ratio > 0
	switch {
	case ratio < shrinkBreakpoint:
		c.Radius *= shrinkMultiplier
		c.State = Shrink
	case ratio > expandBreakpoint:
		c.Radius *= expandMultiplier
		c.State = Expand
	default:
		c.State = Keep
	}
	return Result{Accepted: accepted, BacksubCount: n, ErrorBefore: errorBefore, ErrorAfter: errorAfter, HasError: true}, step
}

// toKeyDelta reindexes a slot-keyed delta by the Keys ord currently assigns
// those slots, for handing to values.Values.Retract.
func toKeyDelta(ord *ordering.Ordering, bySlot map[values.Slot][]float64) map[values.Key][]float64 {
	out := make(map[values.Key][]float64, len(bySlot))
	for slot, d := range bySlot {
		key, err := ord.KeyOf(slot)
		if err != nil {
			continue
		}
		out[key] = d
	}
	return out
}

// assembleGradient sums every clique's gradient contribution into one
// whole-tree map, keyed by slot.
func assembleGradient(tree *bayestree.BayesTree) map[values.Slot][]float64 {
	out := make(map[values.Slot][]float64)
	for _, id := range tree.Traversal() {
		c, ok := tree.Get(id)
		if !ok {
			continue
		}
		for s, g := range c.Gradient {
			if existing, ok := out[s]; ok {
				for i := range existing {
					existing[i] += g[i]
				}
			} else {
				out[s] = append([]float64(nil), g...)
			}
		}
	}
	return out
}

// quadraticForm computes u^T * Lambda * v where Lambda is the whole-tree
// information matrix implied by the Bayes tree's conditionals: the sum
// over every clique conditional of (R*u_frontal + S*u_sep) . (R*v_frontal +
// S*v_sep). This evaluates the quadratic form (Rg)^T(Rg) without ever
// materializing the joint R explicitly.
func quadraticForm(tree *bayestree.BayesTree, u, v map[values.Slot][]float64) float64 {
	total := 0.0
	for _, id := range tree.Traversal() {
		c, ok := tree.Get(id)
		if !ok {
			continue
		}
		for _, cond := range c.Chain {
			ru := applyConditional(cond, u)
			rv := applyConditional(cond, v)
			for i := range ru {
				total += ru[i] * rv[i]
			}
		}
	}
	return total
}

// applyConditional returns R*w_frontal + S*w_separator for one single-
// variable conditional, zero-filling any slot absent from w.
func applyConditional(cond *linear.Conditional, w map[values.Slot][]float64) []float64 {
	gF := w[cond.Frontal]
	if gF == nil {
		gF = make([]float64, cond.FrontalDim)
	}
	fVec := mat.NewVecDense(cond.FrontalDim, append([]float64(nil), gF...))
	out := mat.NewVecDense(cond.FrontalDim, nil)
	out.MulVec(cond.R, fVec)

	if cond.S != nil && cond.SeparatorWidth() > 0 {
		sepFlat := make([]float64, 0, cond.SeparatorWidth())
		for i, slot := range cond.SeparatorSlots {
			width := cond.SeparatorDims[i]
			v := w[slot]
			if v == nil {
				v = make([]float64, width)
			}
			sepFlat = append(sepFlat, v...)
		}
		sVec := mat.NewVecDense(len(sepFlat), sepFlat)
		sContribution := mat.NewVecDense(cond.FrontalDim, nil)
		sContribution.MulVec(cond.S, sVec)
		out.AddVec(out, sContribution)
	}

	result := make([]float64, cond.FrontalDim)
	for i := 0; i < cond.FrontalDim; i++ {
		result[i] = out.AtVec(i)
	}
	return result
}

// padded returns a[s], zero-extended to width n if it's shorter or absent,
// so every per-slot vector arithmetic helper below can hand matched-length
// slices straight to gonum/floats.
func padded(a map[values.Slot][]float64, s values.Slot, n int) []float64 {
	v := a[s]
	if len(v) == n {
		return v
	}
	out := make([]float64, n)
	copy(out, v)
	return out
}

// slots returns the union of keys across a and b.
func slots(a, b map[values.Slot][]float64) map[values.Slot]bool {
	out := make(map[values.Slot]bool, len(a)+len(b))
	for s := range a {
		out[s] = true
	}
	for s := range b {
		out[s] = true
	}
	return out
}

func dot(a, b map[values.Slot][]float64) float64 {
	sum := 0.0
	for s := range slots(a, b) {
		n := len(a[s])
		if len(b[s]) > n {
			n = len(b[s])
		}
		sum += floats.Dot(padded(a, s, n), padded(b, s, n))
	}
	return sum
}

func norm(a map[values.Slot][]float64) float64 {
	sum := 0.0
	for _, v := range a {
		sum += floats.Dot(v, v)
	}
	return math.Sqrt(sum)
}

func scale(a map[values.Slot][]float64, s float64) map[values.Slot][]float64 {
	out := make(map[values.Slot][]float64, len(a))
	for k, v := range a {
		nv := append([]float64(nil), v...)
		floats.Scale(s, nv)
		out[k] = nv
	}
	return out
}

func subtract(a, b map[values.Slot][]float64) map[values.Slot][]float64 {
	out := make(map[values.Slot][]float64, len(a))
	for s := range slots(a, b) {
		n := len(a[s])
		if len(b[s]) > n {
			n = len(b[s])
		}
		nv := padded(a, s, n)
		nv = append([]float64(nil), nv...)
		floats.Sub(nv, padded(b, s, n))
		out[s] = nv
	}
	return out
}

func addScaled(base, d map[values.Slot][]float64, tau float64) map[values.Slot][]float64 {
	out := make(map[values.Slot][]float64, len(base))
	for s := range slots(base, d) {
		n := len(base[s])
		if len(d[s]) > n {
			n = len(d[s])
		}
		nv := padded(base, s, n)
		nv = append([]float64(nil), nv...)
		floats.AddScaled(nv, tau, padded(d, s, n))
		out[s] = nv
	}
	return out
}

