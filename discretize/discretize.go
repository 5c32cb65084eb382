// Package discretize implements the discretization engine: it converts a
// continuous affine system into a discrete affine abstraction (Φ, Ω0, 𝒱)
// using one of four approximation models. The continuous-to-discrete
// conversion scales A by the sampling time and exponentiates it with
// gonum's (*mat.Dense).Exp, generalizing a single Euler-style conversion
// into four set-valued approximation models.
package discretize

import (
	"fmt"
	"math"

	"github.com/milosgajdos/matrix"
	"github.com/reachcore/reach/expmat"
	"github.com/reachcore/reach/input"
	"github.com/reachcore/reach/lazyset"
	customMatrix "github.com/reachcore/reach/matrix"
	"github.com/reachcore/reach/system"
	"gonum.org/v1/gonum/mat"
)

// ApproxModel names one of the four discretization approximation models.
type ApproxModel string

const (
	Forward    ApproxModel = "forward"
	Backward   ApproxModel = "backward"
	FirstOrder ApproxModel = "firstorder"
	NoBloating ApproxModel = "nobloating"
)

// Options configures a Discretize call.
type Options struct {
	ApproxModel ApproxModel
	PadeExpm    bool
	LazyExpm    bool
	LazySih     bool
	Parallel    bool
}

// DefaultOptions returns the documented defaults: pade_expm=false,
// lazy_expm=false, lazy_sih=true, parallel=false. ApproxModel must still be
// set by the caller.
func DefaultOptions(model ApproxModel) Options {
	return Options{
		ApproxModel: model,
		PadeExpm:    false,
		LazyExpm:    false,
		LazySih:     true,
		Parallel:    false,
	}
}

func (o Options) mode() expmat.Mode {
	switch {
	case o.LazyExpm:
		return expmat.Lazy
	case o.PadeExpm:
		return expmat.Pade
	default:
		return expmat.Dense
	}
}

// Discretize converts ivp into a DiscreteSystem abstraction (Φ, Ω0, 𝒱) per
// the requested approximation model.
func Discretize(ivp system.IVP, delta float64, opts Options) (*system.DiscreteSystem, error) {
	if opts.Parallel {
		return nil, &system.NotImplementedError{Msg: "parallel discretization is not implemented"}
	}
	if delta < 0 {
		return nil, &system.DomainError{Msg: fmt.Sprintf("delta must be >= 0, got %v", delta)}
	}

	cs := ivp.System
	n := cs.Dim()
	mode := opts.mode()

	phi, err := expmat.Expmat(cs.A, delta, mode)
	if err != nil {
		return nil, fmt.Errorf("discretize: computing Φ: %w", err)
	}

	switch opts.ApproxModel {
	case NoBloating:
		return noBloating(cs, phi, delta, n, mode)
	case Forward:
		return interpolate(cs, phi, delta, n, mode, true)
	case Backward:
		return interpolate(cs, phi, delta, n, mode, false)
	case FirstOrder:
		return firstOrder(cs, phi, delta, n)
	default:
		return nil, &system.InvalidApproxModelError{Model: string(opts.ApproxModel)}
	}
}

// phiMaterialized returns a dense copy of phi, forcing evaluation once if
// the backend is lazy.
func phiMaterialized(phi expmat.MatrixExp) *mat.Dense {
	return phi.Materialize()
}

// buildAugmented3n assembles the 3n×3n block matrix
//
//	[[ block, δI, 0 ],
//	 [ 0,     0,  δI],
//	 [ 0,     0,  0 ]]
//
// used to obtain Φ1(A,δ) (block=Aδ) and Φ2(A,δ) (block=|A|δ) as blocks of
// its exponential.
func buildAugmented3n(block *mat.Dense, delta float64, n int) *mat.Dense {
	aug := mat.NewDense(3*n, 3*n, nil)
	setBlock(aug, 0, 0, block)
	setBlock(aug, 0, n, scaledIdentity(n, delta))
	setBlock(aug, n, 2*n, scaledIdentity(n, delta))
	return aug
}

func setBlock(dst *mat.Dense, r0, c0 int, src mat.Matrix) {
	rows, cols := src.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst.Set(r0+i, c0+j, src.At(i, j))
		}
	}
}

func scaledIdentity(n int, scale float64) *mat.Dense {
	eye, _ := matrix.NewDenseValIdentity(n, scale)
	return eye
}

// extractBlock extracts the n×n block at (r0,c0) from an exponentiated
// augmented matrix. For a lazy backend it reads the block through Columns,
// which still evaluates the whole 3n×3n exponential once and copies the
// requested columns out of it; otherwise it reads it from Materialize.
func extractBlock(exp expmat.MatrixExp, r0, c0, n int) *mat.Dense {
	if lazy, ok := exp.(*expmat.LazyMatrixExp); ok {
		cols := lazy.Columns(c0, c0+n)
		out := mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				out.Set(i, j, cols.At(r0+i, j))
			}
		}
		return out
	}
	full := exp.Materialize()
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, full.At(r0+i, c0+j))
		}
	}
	return out
}

// mulInput applies the linear map m to every set in u, following the
// M·ConstantInput(U) = ConstantInput(M·U) algebra (and its VaryingInput
// analogue) from the input package, preserving VoidSet under any linear
// map.
func mulInput(m *mat.Dense, u input.NonDeterministicInput) (input.NonDeterministicInput, error) {
	switch v := u.(type) {
	case input.ConstantInput:
		return v.MulMatrix(m), nil
	case input.VaryingInput:
		return v.MulMatrix(m), nil
	default:
		return nil, fmt.Errorf("discretize: unsupported input variant %T", u)
	}
}

// noBloating implements the `nobloating` discrete-time reachability model.
func noBloating(cs *system.ContinuousSystem, phi expmat.MatrixExp, delta float64, n int, mode expmat.Mode) (*system.DiscreteSystem, error) {
	aug := buildAugmented3n(scaled(cs.A, delta), delta, n)
	augExp, err := expmat.Expmat(aug, 1, mode)
	if err != nil {
		return nil, fmt.Errorf("discretize: nobloating Φ1: %w", err)
	}
	m := extractBlock(augExp, 0, n, n)

	v, err := mulInput(m, cs.U)
	if err != nil {
		return nil, err
	}

	return &system.DiscreteSystem{
		Phi:   phi,
		X0:    cs.X0,
		U:     v,
		Delta: delta,
	}, nil
}

// scaled returns a copy of m scaled by factor.
func scaled(m *mat.Dense, factor float64) *mat.Dense {
	out := new(mat.Dense)
	out.Scale(factor, m)
	return out
}

// interpolate implements the `forward` (forwardModel=true) and `backward`
// (forwardModel=false) discretization models.
func interpolate(cs *system.ContinuousSystem, phi expmat.MatrixExp, delta float64, n int, mode expmat.Mode, forwardModel bool) (*system.DiscreteSystem, error) {
	absA := customMatrix.AbsElementwise(cs.A)
	aug := buildAugmented3n(scaled(absA, delta), delta, n)
	augExp, err := expmat.Expmat(aug, 1, mode)
	if err != nil {
		return nil, fmt.Errorf("discretize: interpolation Φ2|A|: %w", err)
	}
	phi2AbsA := extractBlock(augExp, 0, 2*n, n)

	phiDense := phiMaterialized(phi)

	state := cs.U.Start()
	uSet := state.Set

	if lazyset.IsZeroLike(uSet) {
		v := input.NewConstantInput(lazyset.NewVoidSet(n))
		phiX0 := lazyset.NewLinearMap(phiDense, cs.X0)
		bloat := lazyset.NewScaled(delta, lazyset.NewZeroSet(n))
		omega0 := lazyset.CH(cs.X0, lazyset.Sum(phiX0, bloat))
		return &system.DiscreteSystem{Phi: phi, X0: omega0, U: v, Delta: delta}, nil
	}

	vSeq, err := buildInterpolationInputSequence(cs.U, cs.A, phi2AbsA, delta, n)
	if err != nil {
		return nil, err
	}

	vFirst := firstSetOf(vSeq)

	phiX0 := lazyset.NewLinearMap(phiDense, cs.X0)

	var eOmega lazyset.ConvexSet
	if forwardModel {
		aSquared := new(mat.Dense)
		aSquared.Mul(cs.A, cs.A)
		aSqX0 := lazyset.NewLinearMap(aSquared, cs.X0)
		sihInner := lazyset.NewSymmetricIntervalHull(aSqX0)
		eOmega = lazyset.NewSymmetricIntervalHull(lazyset.NewLinearMap(phi2AbsA, sihInner))
	} else {
		aSqPhi := new(mat.Dense)
		aSqPhi.Mul(cs.A, cs.A)
		aSqPhi.Mul(aSqPhi, phiDense)
		aSqPhiX0 := lazyset.NewLinearMap(aSqPhi, cs.X0)
		sihInner := lazyset.NewSymmetricIntervalHull(aSqPhiX0)
		eOmega = lazyset.NewSymmetricIntervalHull(lazyset.NewLinearMap(phi2AbsA, sihInner))
	}

	omega0 := lazyset.CH(cs.X0, lazyset.NewMinkowskiSumArray([]lazyset.ConvexSet{phiX0, vFirst, eOmega}))

	return &system.DiscreteSystem{Phi: phi, X0: omega0, U: vSeq, Delta: delta}, nil
}

// buildInterpolationInputSequence computes 𝒱_Ui = δ·Ui + sih(Φ2|A|·sih(A·Ui))
// for every set in u's sequence, returning it as an input of the same
// cardinality.
func buildInterpolationInputSequence(u input.NonDeterministicInput, a, phi2AbsA *mat.Dense, delta float64, n int) (input.NonDeterministicInput, error) {
	vOf := func(uSet lazyset.ConvexSet) lazyset.ConvexSet {
		aU := lazyset.NewLinearMap(a, uSet)
		sihAU := lazyset.NewSymmetricIntervalHull(aU)
		ePsi := lazyset.NewSymmetricIntervalHull(lazyset.NewLinearMap(phi2AbsA, sihAU))
		return lazyset.Sum(lazyset.NewScaled(delta, uSet), ePsi)
	}

	switch v := u.(type) {
	case input.ConstantInput:
		return input.NewConstantInput(vOf(v.Set())), nil
	case input.VaryingInput:
		sets := make([]lazyset.ConvexSet, v.Length())
		state := v.Start()
		for i := 0; i < v.Length(); i++ {
			sets[i] = vOf(state.Set)
			state = v.Next(state)
		}
		vi, err := input.NewVaryingInput(sets)
		if err != nil {
			return nil, err
		}
		return vi, nil
	default:
		return nil, fmt.Errorf("discretize: unsupported input variant %T", u)
	}
}

func firstSetOf(u input.NonDeterministicInput) lazyset.ConvexSet {
	return u.Start().Set
}

// firstOrder implements the `firstorder` infinity-norm approximation model.
func firstOrder(cs *system.ContinuousSystem, phi expmat.MatrixExp, delta float64, n int) (*system.DiscreteSystem, error) {
	an := customMatrix.InfinityNorm(cs.A)
	rX0 := lazyset.InfinityNorm(cs.X0)
	c := safeExpMinus(delta * an)

	phiDense := phiMaterialized(phi)
	phiX0 := lazyset.NewLinearMap(phiDense, cs.X0)

	state := cs.U.Start()
	uSet := state.Set

	if lazyset.IsZeroLike(uSet) {
		alpha := c * rX0
		omega0 := lazyset.CH(cs.X0, lazyset.Sum(phiX0, lazyset.NewBall2(mat.NewVecDense(n, nil), alpha)))
		v := input.NewConstantInput(lazyset.NewVoidSet(n))
		return &system.DiscreteSystem{Phi: phi, X0: omega0, U: v, Delta: delta}, nil
	}

	alphaBeta := func(s lazyset.ConvexSet) (float64, float64) {
		rU := lazyset.InfinityNorm(s)
		if an == 0 {
			return 0, 0
		}
		return c * (rX0 + rU/an), c * rU / an
	}
	vOf := func(s lazyset.ConvexSet) lazyset.ConvexSet {
		_, beta := alphaBeta(s)
		return lazyset.Sum(lazyset.NewScaled(delta, s), lazyset.NewBall2(mat.NewVecDense(n, nil), beta))
	}

	alpha, _ := alphaBeta(uSet)
	deltaU := lazyset.NewScaled(delta, uSet)
	omega0 := lazyset.CH(cs.X0, lazyset.NewMinkowskiSumArray([]lazyset.ConvexSet{
		phiX0, deltaU, lazyset.NewBall2(mat.NewVecDense(n, nil), alpha),
	}))

	var vSeq input.NonDeterministicInput
	var err error
	switch v := cs.U.(type) {
	case input.ConstantInput:
		vSeq = input.NewConstantInput(vOf(v.Set()))
	case input.VaryingInput:
		sets := make([]lazyset.ConvexSet, v.Length())
		st := v.Start()
		for i := 0; i < v.Length(); i++ {
			sets[i] = vOf(st.Set)
			st = v.Next(st)
		}
		vSeq, err = input.NewVaryingInput(sets)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("discretize: unsupported input variant %T", cs.U)
	}

	return &system.DiscreteSystem{Phi: phi, X0: omega0, U: vSeq, Delta: delta}, nil
}

func safeExpMinus(x float64) float64 {
	// c = exp(x) - 1 - x, via math.Expm1 for better precision than
	// math.Exp(x)-1 when x is small.
	return math.Expm1(x) - x
}
