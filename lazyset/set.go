// Package lazyset implements the lazy convex-set algebra consumed by the
// discretization and reachability packages. There is no general-purpose lazy
// convex-set library in the Go ecosystem (the reference material for this
// module's domain ships one only for Julia), so the contract described by
// the engine's external-interfaces section is implemented here directly:
// sets are immutable values that answer support-function queries, and
// operations such as Minkowski sum, linear map, convex hull, Cartesian
// product, and symmetric interval hull build trees of such values instead of
// materializing a concrete polytope.
package lazyset

import "gonum.org/v1/gonum/mat"

// ConvexSet is a convex subset of R^n queryable through its support
// function. Implementations are immutable; every operation that transforms a
// ConvexSet returns a new value which may reference its operands.
type ConvexSet interface {
	// Dim returns the ambient dimension n.
	Dim() int
	// Support evaluates the support function ρ_S(d) = sup_{x∈S} <d,x> in the
	// given direction. d must have length Dim().
	Support(d *mat.VecDense) float64
}

// IsZeroLike reports whether s is algebraically equivalent to {0}: either the
// algebraic zero element VoidSet, or a ZeroSet.
func IsZeroLike(s ConvexSet) bool {
	switch s.(type) {
	case VoidSet, ZeroSet:
		return true
	default:
		return false
	}
}

// unitVec returns the i-th standard basis vector of R^n, or its negation.
func unitVec(n, i int, negative bool) *mat.VecDense {
	v := mat.NewVecDense(n, nil)
	if negative {
		v.SetVec(i, -1)
	} else {
		v.SetVec(i, 1)
	}
	return v
}

// InfinityNorm returns ‖S‖∞ = sup_{x∈S} ‖x‖∞, computed from the 2n support
// function evaluations at ±e_i. It implements the "norm operator ‖·‖∞ on
// sets" required by the external set-library contract.
func InfinityNorm(s ConvexSet) float64 {
	n := s.Dim()
	max := 0.0
	for i := 0; i < n; i++ {
		pos := s.Support(unitVec(n, i, false))
		neg := s.Support(unitVec(n, i, true))
		if pos > max {
			max = pos
		}
		if neg > max {
			max = neg
		}
	}
	return max
}
