// Package system holds the immutable descriptors of continuous- and
// discrete-time affine systems, using a small shared struct embedded by
// both time-domain variants, adapted from vector states with process
// noise to set-valued initial conditions and inputs.
package system

import (
	"fmt"

	"github.com/reachcore/reach/expmat"
	"github.com/reachcore/reach/input"
	"github.com/reachcore/reach/lazyset"
	"gonum.org/v1/gonum/mat"
)

// ContinuousSystem describes x'(t) = A x(t) + u(t), x(0) ∈ X0, u(t) ∈ 𝒰(t).
type ContinuousSystem struct {
	A  *mat.Dense
	X0 lazyset.ConvexSet
	U  input.NonDeterministicInput
}

// Dim returns the ambient dimension n = rows(A).
func (s ContinuousSystem) Dim() int {
	r, _ := s.A.Dims()
	return r
}

func checkSquare(a *mat.Dense) error {
	r, c := a.Dims()
	if r != c {
		return &DimensionMismatchError{Msg: fmt.Sprintf("A must be square, got %dx%d", r, c)}
	}
	return nil
}

func checkDim(n int, x0 lazyset.ConvexSet) error {
	if x0.Dim() != n {
		return &DimensionMismatchError{Msg: fmt.Sprintf("dim(X0)=%d, want %d", x0.Dim(), n)}
	}
	return nil
}

// NewContinuousSystem creates a homogeneous continuous system: 𝒰 defaults
// to a constant VoidSet input (no input term).
func NewContinuousSystem(a *mat.Dense, x0 lazyset.ConvexSet) (*ContinuousSystem, error) {
	if err := checkSquare(a); err != nil {
		return nil, err
	}
	n, _ := a.Dims()
	if err := checkDim(n, x0); err != nil {
		return nil, err
	}
	return &ContinuousSystem{
		A:  mat.DenseCopyOf(a),
		X0: x0,
		U:  input.NewConstantInput(lazyset.NewVoidSet(n)),
	}, nil
}

// NewContinuousSystemWithInput creates a continuous system with a constant
// input set U.
func NewContinuousSystemWithInput(a *mat.Dense, x0 lazyset.ConvexSet, u lazyset.ConvexSet) (*ContinuousSystem, error) {
	if err := checkSquare(a); err != nil {
		return nil, err
	}
	n, _ := a.Dims()
	if err := checkDim(n, x0); err != nil {
		return nil, err
	}
	if u.Dim() != n {
		return nil, &DimensionMismatchError{Msg: fmt.Sprintf("dim(U)=%d, want %d", u.Dim(), n)}
	}
	return &ContinuousSystem{
		A:  mat.DenseCopyOf(a),
		X0: x0,
		U:  input.NewConstantInput(u),
	}, nil
}

// NewContinuousSystemVarying creates a continuous system with a
// time-varying input sequence U1..Um.
func NewContinuousSystemVarying(a *mat.Dense, x0 lazyset.ConvexSet, us []lazyset.ConvexSet) (*ContinuousSystem, error) {
	if err := checkSquare(a); err != nil {
		return nil, err
	}
	n, _ := a.Dims()
	if err := checkDim(n, x0); err != nil {
		return nil, err
	}
	for i, u := range us {
		if u.Dim() != n {
			return nil, &DimensionMismatchError{Msg: fmt.Sprintf("dim(U[%d])=%d, want %d", i, u.Dim(), n)}
		}
	}
	vi, err := input.NewVaryingInput(us)
	if err != nil {
		return nil, &DimensionMismatchError{Msg: err.Error()}
	}
	return &ContinuousSystem{A: mat.DenseCopyOf(a), X0: x0, U: vi}, nil
}

// DiscreteSystem describes x[k+1] = Φ x[k] + 𝒱[k], x[0] ∈ X0, with sampling
// time δ. Φ is the matrix-exponential façade result of discretizing a
// continuous system; it may be a materialized dense matrix or a lazy one.
type DiscreteSystem struct {
	Phi   expmat.MatrixExp
	X0    lazyset.ConvexSet
	U     input.NonDeterministicInput
	Delta float64
}

// Dim returns the ambient dimension.
func (s DiscreteSystem) Dim() int {
	r, _ := s.Phi.Dims()
	return r
}

// NewDiscreteSystem creates a homogeneous discrete system from an
// already-computed transition matrix phi. It returns a DomainError if delta
// is negative.
func NewDiscreteSystem(phi *mat.Dense, x0 lazyset.ConvexSet, delta float64) (*DiscreteSystem, error) {
	if delta < 0 {
		return nil, &DomainError{Msg: fmt.Sprintf("delta must be >= 0, got %v", delta)}
	}
	if err := checkSquare(phi); err != nil {
		return nil, err
	}
	n, _ := phi.Dims()
	if err := checkDim(n, x0); err != nil {
		return nil, err
	}
	return &DiscreteSystem{
		Phi:   expmat.Wrap(phi),
		X0:    x0,
		U:     input.NewConstantInput(lazyset.NewVoidSet(n)),
		Delta: delta,
	}, nil
}

// NewDiscreteSystemWithInput creates a discrete system with a constant
// input set U. It returns a DomainError if delta is negative.
func NewDiscreteSystemWithInput(phi *mat.Dense, x0, u lazyset.ConvexSet, delta float64) (*DiscreteSystem, error) {
	if delta < 0 {
		return nil, &DomainError{Msg: fmt.Sprintf("delta must be >= 0, got %v", delta)}
	}
	if err := checkSquare(phi); err != nil {
		return nil, err
	}
	n, _ := phi.Dims()
	if err := checkDim(n, x0); err != nil {
		return nil, err
	}
	if u.Dim() != n {
		return nil, &DimensionMismatchError{Msg: fmt.Sprintf("dim(U)=%d, want %d", u.Dim(), n)}
	}
	return &DiscreteSystem{
		Phi:   expmat.Wrap(phi),
		X0:    x0,
		U:     input.NewConstantInput(u),
		Delta: delta,
	}, nil
}

// IVP is the initial-value-problem wrapper named in the component design: a
// continuous system wrapped as the problem handed to discretization. It
// carries no discretization settings; δ and the options are passed to
// discretize.Discretize separately. It exists so discretize.Discretize has a single argument type to accept,
// matching the "discretize(ivp, δ, ...)" signature of the external
// reachability API.
type IVP struct {
	System *ContinuousSystem
}

// NewIVP wraps a continuous system as an initial-value problem.
func NewIVP(s *ContinuousSystem) IVP { return IVP{System: s} }
