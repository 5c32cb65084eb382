package lazyset

import "gonum.org/v1/gonum/mat"

// Scaled is the lazy set δ·S for a nonnegative scalar δ, as used throughout
// the discretization formulas ("δ·U", "δ·ZeroSet"). It is equivalent to
// LinearMap(δ·I, S) but avoids building an n×n identity matrix for a plain
// scalar multiply.
type Scaled struct {
	factor float64
	s      ConvexSet
}

// NewScaled creates the lazy set δ·S. It panics if factor is negative, since
// the discretization engine only ever scales by a non-negative step size.
func NewScaled(factor float64, s ConvexSet) Scaled {
	if factor < 0 {
		panic("lazyset: Scaled requires a non-negative factor")
	}
	return Scaled{factor: factor, s: s}
}

// Dim implements ConvexSet.
func (s Scaled) Dim() int { return s.s.Dim() }

// Support implements ConvexSet: ρ_{δ·S}(d) = δ·ρ_S(d) for δ ≥ 0.
func (s Scaled) Support(d *mat.VecDense) float64 {
	return s.factor * s.s.Support(d)
}
