package lazyset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearMap is the lazy image M·S of a convex set S under a linear map M. It
// never materializes M·S; it only rewrites support-function queries into
// queries against S, as ρ_{M·S}(d) = ρ_S(M^T d).
type LinearMap struct {
	m *mat.Dense
	s ConvexSet
}

// NewLinearMap creates the lazy linear map M·S. It panics if M's column
// count does not match dim(S).
func NewLinearMap(m *mat.Dense, s ConvexSet) LinearMap {
	_, cols := m.Dims()
	if cols != s.Dim() {
		panic(fmt.Sprintf("lazyset: linear map dimension mismatch: M has %d columns, dim(S)=%d", cols, s.Dim()))
	}
	return LinearMap{m: mat.DenseCopyOf(m), s: s}
}

// Matrix returns the map's matrix.
func (l LinearMap) Matrix() *mat.Dense { return mat.DenseCopyOf(l.m) }

// Set returns the wrapped set.
func (l LinearMap) Set() ConvexSet { return l.s }

// Dim implements ConvexSet.
func (l LinearMap) Dim() int {
	rows, _ := l.m.Dims()
	return rows
}

// Support implements ConvexSet: ρ_{M·S}(d) = ρ_S(M^T d).
func (l LinearMap) Support(d *mat.VecDense) float64 {
	var mtd mat.VecDense
	mtd.MulVec(l.m.T(), d)
	return l.s.Support(&mtd)
}

// MinkowskiSumArray is the lazy Minkowski sum S₁ ⊕ S₂ ⊕ ... ⊕ Sₖ of a
// sequence of sets sharing the same dimension. Its support function is the
// sum of the operands' support functions.
type MinkowskiSumArray struct {
	sets []ConvexSet
}

// NewMinkowskiSumArray creates the lazy sum of sets. It panics if sets is
// empty or if the operands' dimensions disagree.
func NewMinkowskiSumArray(sets []ConvexSet) MinkowskiSumArray {
	if len(sets) == 0 {
		panic("lazyset: MinkowskiSumArray requires at least one operand")
	}
	n := sets[0].Dim()
	for _, s := range sets {
		if s.Dim() != n {
			panic(fmt.Sprintf("lazyset: MinkowskiSumArray dimension mismatch: expected %d, got %d", n, s.Dim()))
		}
	}
	return MinkowskiSumArray{sets: sets}
}

// Sets returns the summands, in order.
func (m MinkowskiSumArray) Sets() []ConvexSet { return m.sets }

// Dim implements ConvexSet.
func (m MinkowskiSumArray) Dim() int { return m.sets[0].Dim() }

// Support implements ConvexSet: ρ_{⊕Sᵢ}(d) = Σᵢ ρ_{Sᵢ}(d).
func (m MinkowskiSumArray) Support(d *mat.VecDense) float64 {
	total := 0.0
	for _, s := range m.sets {
		total += s.Support(d)
	}
	return total
}

// ApplyLinearMap builds the lazy image M·S, special-casing VoidSet: since
// VoidSet is the Minkowski-sum identity and Support is zero in every
// direction regardless of dimension, M·VoidSet(m) is again VoidSet, now of
// dimension rows(M), rather than a LinearMap wrapper. This preserves the
// algebraic identity M·VoidSet = VoidSet through the engine's M·𝒰 algebra
// (see input.ConstantInput.MulMatrix / input.VaryingInput.MulMatrix).
func ApplyLinearMap(m *mat.Dense, s ConvexSet) ConvexSet {
	if _, ok := s.(VoidSet); ok {
		rows, _ := m.Dims()
		return NewVoidSet(rows)
	}
	return NewLinearMap(m, s)
}

// Sum is a convenience Minkowski sum of exactly two sets, used wherever the
// discretization formulas write "A + B" directly rather than building an
// explicit array.
func Sum(a, b ConvexSet) MinkowskiSumArray {
	return NewMinkowskiSumArray([]ConvexSet{a, b})
}

// CartesianProductArray is the lazy Cartesian product S₁ × S₂ × ... × Sₖ.
// Its ambient dimension is the sum of the operands' dimensions; a direction
// vector is split blockwise across the operands and their support values
// summed.
type CartesianProductArray struct {
	sets []ConvexSet
	dim  int
}

// NewCartesianProductArray creates the lazy Cartesian product of sets, in
// order.
func NewCartesianProductArray(sets []ConvexSet) CartesianProductArray {
	dim := 0
	for _, s := range sets {
		dim += s.Dim()
	}
	return CartesianProductArray{sets: sets, dim: dim}
}

// Sets returns the factors, in order.
func (c CartesianProductArray) Sets() []ConvexSet { return c.sets }

// Dim implements ConvexSet.
func (c CartesianProductArray) Dim() int { return c.dim }

// Support implements ConvexSet: ρ_{S₁×...×Sₖ}(d) = Σᵢ ρ_{Sᵢ}(d_block_i),
// where d_block_i is the sub-vector of d covering Sᵢ's coordinate range.
func (c CartesianProductArray) Support(d *mat.VecDense) float64 {
	total := 0.0
	offset := 0
	for _, s := range c.sets {
		n := s.Dim()
		block := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			block.SetVec(i, d.AtVec(offset+i))
		}
		total += s.Support(block)
		offset += n
	}
	return total
}

// SymmetricIntervalHull is the smallest axis-aligned box centered at the
// origin containing S. The per-axis radii are computed once, from 2n support
// queries against S, and cached; S itself is never materialized.
type SymmetricIntervalHull struct {
	radii []float64
}

// NewSymmetricIntervalHull computes sih(S).
func NewSymmetricIntervalHull(s ConvexSet) SymmetricIntervalHull {
	n := s.Dim()
	radii := make([]float64, n)
	for i := 0; i < n; i++ {
		pos := s.Support(unitVec(n, i, false))
		neg := s.Support(unitVec(n, i, true))
		r := pos
		if neg > r {
			r = neg
		}
		if r < 0 {
			r = 0
		}
		radii[i] = r
	}
	return SymmetricIntervalHull{radii: radii}
}

// Radii returns a copy of the per-axis radii of the hull.
func (h SymmetricIntervalHull) Radii() []float64 {
	out := make([]float64, len(h.radii))
	copy(out, h.radii)
	return out
}

// Dim implements ConvexSet.
func (h SymmetricIntervalHull) Dim() int { return len(h.radii) }

// Support implements ConvexSet: ρ(d) = Σᵢ rᵢ·|dᵢ|.
func (h SymmetricIntervalHull) Support(d *mat.VecDense) float64 {
	total := 0.0
	for i, r := range h.radii {
		v := d.AtVec(i)
		if v < 0 {
			v = -v
		}
		total += r * v
	}
	return total
}

// ConvexHull is the lazy convex hull CH(A,B) of two sets of equal dimension.
type ConvexHull struct {
	a, b ConvexSet
}

// NewConvexHull creates the lazy convex hull of a and b. It panics if their
// dimensions disagree.
func NewConvexHull(a, b ConvexSet) ConvexHull {
	if a.Dim() != b.Dim() {
		panic(fmt.Sprintf("lazyset: ConvexHull dimension mismatch: %d != %d", a.Dim(), b.Dim()))
	}
	return ConvexHull{a: a, b: b}
}

// Dim implements ConvexSet.
func (c ConvexHull) Dim() int { return c.a.Dim() }

// Support implements ConvexSet: ρ_{CH(A,B)}(d) = max(ρ_A(d), ρ_B(d)).
func (c ConvexHull) Support(d *mat.VecDense) float64 {
	pa := c.a.Support(d)
	pb := c.b.Support(d)
	if pa > pb {
		return pa
	}
	return pb
}

// CH is shorthand for NewConvexHull, matching the discretization formulas'
// "CH(A,B)" notation.
func CH(a, b ConvexSet) ConvexHull { return NewConvexHull(a, b) }
