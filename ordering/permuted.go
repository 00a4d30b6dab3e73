package ordering

import "github.com/tjpotts/isam2/values"

// Permuted pairs a values.VectorValues with a Permutation and translates
// reads and writes through it, so the raw storage never needs to be
// physically reshuffled when an Ordering is locally renumbered. Logical slot
// s addresses raw storage slot perm.Apply(s).
type Permuted struct {
	raw  *values.VectorValues
	perm *Permutation
}

// NewPermuted wraps raw with perm. A nil perm is treated as identity.
func NewPermuted(raw *values.VectorValues, perm *Permutation) *Permuted {
	return &Permuted{raw: raw, perm: perm}
}

// At returns the vector for logical slot s, translating through the
// permutation before reading raw storage.
func (p *Permuted) At(s values.Slot) ([]float64, error) {
	return p.raw.At(p.translate(s))
}

// Set writes the vector for logical slot s, translating through the
// permutation before writing raw storage.
func (p *Permuted) Set(s values.Slot, vec []float64) error {
	return p.raw.Set(p.translate(s), vec)
}

// Has reports whether logical slot s resolves to a populated raw slot.
func (p *Permuted) Has(s values.Slot) bool {
	return p.raw.Has(p.translate(s))
}

func (p *Permuted) translate(s values.Slot) values.Slot {
	if p.perm == nil {
		return s
	}
	return p.perm.Apply(s)
}

// Materialize returns a fresh, physically-permuted values.VectorValues: a
// plain copy addressed directly by logical slot, with no permutation
// indirection left. Only needed when handing the result to a collaborator
// that expects Key-indexed/Slot-indexed output with no further translation.
func (p *Permuted) Materialize() *values.VectorValues {
	out := values.NewVectorValues()
	for _, s := range p.raw.Slots() {
		// raw slot -> logical slot is the inverse of perm.
		logical := s
		if p.perm != nil {
			logical = p.perm.Inverse(s)
		}
		vec, _ := p.raw.At(s)
		_ = out.Insert(logical, vec)
	}
	return out
}

// Raw returns the underlying, untranslated VectorValues. Used by callers
// (e.g. wildfire) that already reason in raw-storage slot space.
func (p *Permuted) Raw() *values.VectorValues {
	return p.raw
}

// Permutation returns the permutation this wrapper translates through (nil
// meaning identity).
func (p *Permuted) Permutation() *Permutation {
	return p.perm
}
