package relinearize

import "math"

// thresholdKind discriminates the two Threshold variants: a plain integer
// tag rather than runtime polymorphism, since mag() is evaluated once per
// slot on every relinearization check.
type thresholdKind int

const (
	scalarKind thresholdKind = iota
	perTypeKind
)

// Threshold is the relinearizeThreshold option: either a single scalar
// applied to every variable, or a per-type-tag vector of per-dimension
// thresholds.
type Threshold struct {
	kind    thresholdKind
	scalar  float64
	perType map[byte][]float64
}

// Scalar returns a Threshold that applies tau to every variable's max-norm
// delta, regardless of type.
func Scalar(tau float64) Threshold {
	return Threshold{kind: scalarKind, scalar: tau}
}

// PerType returns a Threshold keyed by Key.Tag(), each entry giving one
// per-dimension threshold vector. A variable whose tag has no entry is
// never relinearized by this policy.
func PerType(byTag map[byte][]float64) Threshold {
	return Threshold{kind: perTypeKind, perType: byTag}
}

// Mag computes mag(s) for a variable of the given type tag and current
// delta vector: the maximum, over dimensions, of the delta magnitude
// relative to its threshold. mag(s) > 1 means the variable belongs in the
// relinearized set.
func (t Threshold) Mag(tag byte, delta []float64) float64 {
	switch t.kind {
	case perTypeKind:
		thresholds, ok := t.perType[tag]
		if !ok {
			return 0
		}
		mag := 0.0
		for i, d := range delta {
			if i >= len(thresholds) || thresholds[i] == 0 {
				continue
			}
			m := math.Abs(d) / thresholds[i]
			if m > mag {
				mag = m
			}
		}
		return mag
	default:
		if t.scalar == 0 {
			return 0
		}
		maxAbs := 0.0
		for _, d := range delta {
			if math.Abs(d) > maxAbs {
				maxAbs = math.Abs(d)
			}
		}
		return maxAbs / t.scalar
	}
}
