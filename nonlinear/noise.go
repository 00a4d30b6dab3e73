package nonlinear

// DiagonalNoise whitens a residual vector by per-component standard
// deviations: whitened[i] = raw[i] / Sigmas[i]. This is the noise model
// PriorFactorPose2 and BetweenFactorPose2 use; it's the simplest model that
// still lets every factor carry its own per-component uncertainty.
type DiagonalNoise struct {
	Sigmas []float64
}

// NewDiagonalNoise returns a diagonal noise model from per-component sigmas.
func NewDiagonalNoise(sigmas ...float64) DiagonalNoise {
	return DiagonalNoise{Sigmas: sigmas}
}

// Whiten divides raw componentwise by Sigmas.
func (n DiagonalNoise) Whiten(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = v / n.Sigmas[i]
	}
	return out
}

// WhitenRow divides row i of a Jacobian block by Sigmas[i], in place.
func (n DiagonalNoise) WhitenRow(row []float64, i int) {
	s := n.Sigmas[i]
	for j := range row {
		row[j] /= s
	}
}
