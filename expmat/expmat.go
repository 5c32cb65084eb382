// Package expmat is the matrix-exponential façade: uniform access to
// exp(Aδ) through three backends (dense, Padé, lazy), generalizing an
// inline exp(Aδ) computation built on gonum's (*mat.Dense).Exp into an
// explicit, swappable interface.
package expmat

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Mode selects the matrix-exponential backend.
type Mode int

const (
	// Dense computes exp(Aδ) directly into a dense matrix using gonum's
	// scaling-and-squaring implementation.
	Dense Mode = iota
	// Pade computes exp(Aδ) via an explicit Padé approximant built from
	// gonum primitives (Mul, Scale, Add, Inverse), since gonum does not
	// expose a separate Padé entry point.
	Pade
	// Lazy wraps Aδ in a LazyMatrixExp; exp(Aδ) is not computed until the
	// first query against it.
	Lazy
)

func (m Mode) String() string {
	switch m {
	case Dense:
		return "dense"
	case Pade:
		return "pade"
	case Lazy:
		return "lazy"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MatrixExp is the result of the façade: either a materialized dense matrix
// (Dense/Pade backends) or a LazyMatrixExp (Lazy backend). Callers that need
// a concrete *mat.Dense call Materialize; callers that only need rows,
// row ranges, or column ranges can use the narrower accessors directly on
// the concrete type.
type MatrixExp interface {
	// Dims returns the matrix dimensions.
	Dims() (r, c int)
	// Materialize returns a dense copy of the matrix. For the lazy backend
	// this forces full evaluation and defeats the point of using it; it
	// exists for backends and tests that genuinely need the whole matrix.
	Materialize() *mat.Dense
}

// denseMatrixExp adapts *mat.Dense to MatrixExp.
type denseMatrixExp struct {
	m *mat.Dense
}

func (d denseMatrixExp) Dims() (int, int)        { return d.m.Dims() }
func (d denseMatrixExp) Materialize() *mat.Dense { return mat.DenseCopyOf(d.m) }

// Wrap adapts an already-computed dense matrix to the MatrixExp interface,
// for constructing a DiscreteSystem directly from a known Φ rather than via
// Expmat.
func Wrap(m *mat.Dense) MatrixExp {
	return denseMatrixExp{m: mat.DenseCopyOf(m)}
}

// Expmat computes exp(A·δ) using the requested backend. A must be square.
func Expmat(a *mat.Dense, delta float64, mode Mode) (MatrixExp, error) {
	rows, cols := a.Dims()
	if rows != cols {
		return nil, fmt.Errorf("expmat: A must be square, got %dx%d", rows, cols)
	}

	scaled := mat.NewDense(rows, rows, nil)
	scaled.Scale(delta, a)

	switch mode {
	case Dense:
		out := new(mat.Dense)
		out.Exp(scaled)
		return denseMatrixExp{m: out}, nil
	case Pade:
		out, err := padeExp(scaled)
		if err != nil {
			return nil, fmt.Errorf("expmat: pade backend: %w", err)
		}
		return denseMatrixExp{m: out}, nil
	case Lazy:
		return NewLazyMatrixExp(scaled), nil
	default:
		return nil, fmt.Errorf("expmat: unknown mode %v", mode)
	}
}

// padeExp computes exp(m) via a scaled (6,6) diagonal Padé approximant with
// squaring, built entirely from gonum dense operations. order 6 is the
// default used by most numerical libraries for this scale-and-square scheme.
func padeExp(m *mat.Dense) (*mat.Dense, error) {
	n, _ := m.Dims()

	norm := mat.Norm(m, 1)
	// choose the squaring count s so that the scaled matrix has norm <= 0.5
	s := 0
	scale := 1.0
	for norm*scale > 0.5 {
		scale /= 2
		s++
	}
	scaled := mat.NewDense(n, n, nil)
	scaled.Scale(scale, m)

	const order = 6
	// coefficients of the (order,order) diagonal Padé approximant for exp:
	// c_k = (2*order - k)! * order! / ((2*order)! * k! * (order - k)!)
	c := padeCoeffs(order)

	identity := identityDense(n)

	// powers[k] = scaled^k
	powers := make([]*mat.Dense, order+1)
	powers[0] = identity
	for k := 1; k <= order; k++ {
		p := new(mat.Dense)
		p.Mul(powers[k-1], scaled)
		powers[k] = p
	}

	num := mat.NewDense(n, n, nil)
	den := mat.NewDense(n, n, nil)
	for k := 0; k <= order; k++ {
		term := new(mat.Dense)
		term.Scale(c[k], powers[k])
		num.Add(num, term)

		if k%2 == 0 {
			den.Add(den, term)
		} else {
			neg := new(mat.Dense)
			neg.Scale(-1, term)
			den.Add(den, neg)
		}
	}

	denInv := new(mat.Dense)
	if err := denInv.Inverse(den); err != nil {
		return nil, fmt.Errorf("pade denominator is singular: %w", err)
	}

	result := new(mat.Dense)
	result.Mul(denInv, num)

	for i := 0; i < s; i++ {
		result.Mul(result, result)
	}
	return result, nil
}

// padeCoeffs returns the coefficients c_0..c_order of the diagonal (order,
// order) Padé approximant to exp(x).
func padeCoeffs(order int) []float64 {
	c := make([]float64, order+1)
	c[0] = 1
	for k := 1; k <= order; k++ {
		c[k] = c[k-1] * float64(order-k+1) / float64((2*order-k+1)*k)
	}
	return c
}

func identityDense(n int) *mat.Dense {
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
	}
	return out
}
