// Package reach implements block-decomposed reachability with property
// checking: it iteratively propagates per-block over-approximations of the
// reachable set and evaluates a safety property at every step, returning
// the earliest violating step index (or 0 if the property holds
// throughout). The propagation loop is matrix multiplies driving a
// step-by-step state update, generalized from a single vector state to
// block-projected lazy convex sets.
package reach

import (
	"fmt"

	"github.com/reachcore/reach/expmat"
	"github.com/reachcore/reach/input"
	"github.com/reachcore/reach/lazyset"
	"github.com/reachcore/reach/system"
	"gonum.org/v1/gonum/mat"
)

// Block is a contiguous, half-open coordinate range [Lo, Hi) of the state
// space. A singleton index i is represented as Block{Lo: i, Hi: i + 1}.
type Block struct {
	Lo, Hi int
}

// Len returns the number of coordinates in the block.
func (b Block) Len() int { return b.Hi - b.Lo }

// Singleton returns the one-coordinate block covering index i.
func Singleton(i int) Block { return Block{Lo: i, Hi: i + 1} }

// Partition is an ordered, non-overlapping, contiguous covering of
// {0, ..., n-1}.
type Partition []Block

// Validate reports whether p is a valid partition of {0, ..., n-1}: blocks
// given in ascending order, no gaps, no overlaps. A failure is a
// *system.DimensionMismatchError, the same taxonomy member reported when A,
// X0, or 𝒰 disagree on dimension.
func (p Partition) Validate(n int) error {
	if len(p) == 0 {
		return &system.DimensionMismatchError{Msg: "partition is empty"}
	}
	want := 0
	for i, b := range p {
		if b.Lo != want {
			return &system.DimensionMismatchError{Msg: fmt.Sprintf("partition block %d starts at %d, want %d (gap or overlap)", i, b.Lo, want)}
		}
		if b.Hi <= b.Lo {
			return &system.DimensionMismatchError{Msg: fmt.Sprintf("partition block %d is empty or inverted: [%d,%d)", i, b.Lo, b.Hi)}
		}
		want = b.Hi
	}
	if want != n {
		return &system.DimensionMismatchError{Msg: fmt.Sprintf("partition covers {0,...,%d}, want {0,...,%d}", want-1, n-1)}
	}
	return nil
}

// Property is a safety predicate evaluated on the Cartesian product of the
// queried blocks' current over-approximations.
type Property func(lazyset.ConvexSet) bool

// OverApproxInputs lets the caller simplify the accumulated input
// over-approximation Ŵ[i] at each step, to prevent unbounded growth of its
// lazy representation over long horizons. The engine treats it as an
// opaque pure function: (step, blockIndex, set) -> simplified set.
type OverApproxInputs func(step, blockIndex int, set lazyset.ConvexSet) lazyset.ConvexSet

// Identity is an OverApproxInputs that performs no simplification.
func Identity(step, blockIndex int, set lazyset.ConvexSet) lazyset.ConvexSet { return set }

// Backend selects one of the four Φ-power strategies named in the
// component design. Dense and Sparse both keep Φ materialized; LazySparse
// and LazyDense drive Φ through expmat.LazyMatrixExp's additive power
// update instead of repeated multiplication. Sparse and LazySparse skip
// any block(Φᵏ)[bi,bj] that is numerically all-zero; Dense and LazyDense
// always include every block.
type Backend int

const (
	DenseBackend Backend = iota
	SparseBackend
	LazySparseBackend
	LazyDenseBackend
)

func (b Backend) isLazy() bool {
	return b == LazySparseBackend || b == LazyDenseBackend
}

func (b Backend) skipZeroBlocks() bool {
	return b == SparseBackend || b == LazySparseBackend
}

const zeroBlockTolerance = 1e-15

// phiPower advances and queries Φᵏ for k = 1, 2, ....
type phiPower interface {
	// Block extracts the sub-matrix of the current power at [bi, bj].
	Block(bi, bj Block) *mat.Dense
	// Advance moves from Φᵏ to Φᵏ⁺¹.
	Advance()
}

// densePhiPower advances by explicit multiplication Φᵏ⁺¹ = Φᵏ·Φ into a
// pre-sized scratch buffer, as the dense and sparse backends do.
type densePhiPower struct {
	base    *mat.Dense
	current *mat.Dense
	scratch *mat.Dense
}

func newDensePhiPower(phi *mat.Dense) *densePhiPower {
	n, _ := phi.Dims()
	return &densePhiPower{
		base:    mat.DenseCopyOf(phi),
		current: mat.DenseCopyOf(phi),
		scratch: mat.NewDense(n, n, nil),
	}
}

func (p *densePhiPower) Block(bi, bj Block) *mat.Dense {
	return subMatrix(p.current, bi, bj)
}

func (p *densePhiPower) Advance() {
	p.scratch.Mul(p.current, p.base)
	p.current, p.scratch = p.scratch, p.current
}

// lazyPhiPower advances by the additive generator update described in
// expmat.LazyMatrixExp.AdvancePower, as the lazy-sparse and lazy-dense
// backends do.
type lazyPhiPower struct {
	lme *expmat.LazyMatrixExp
	n   int
}

func newLazyPhiPower(lme *expmat.LazyMatrixExp) *lazyPhiPower {
	r, _ := lme.Dims()
	return &lazyPhiPower{lme: lme, n: r}
}

func (p *lazyPhiPower) Block(bi, bj Block) *mat.Dense {
	rows := p.lme.Rows(bi.Lo, bi.Hi)
	out := mat.NewDense(bi.Len(), bj.Len(), nil)
	for i := 0; i < bi.Len(); i++ {
		for j := 0; j < bj.Len(); j++ {
			out.Set(i, j, rows.At(i, bj.Lo+j))
		}
	}
	return out
}

func (p *lazyPhiPower) Advance() { p.lme.AdvancePower() }

func subMatrix(m *mat.Dense, bi, bj Block) *mat.Dense {
	out := mat.NewDense(bi.Len(), bj.Len(), nil)
	for i := 0; i < bi.Len(); i++ {
		for j := 0; j < bj.Len(); j++ {
			out.Set(i, j, m.At(bi.Lo+i, bj.Lo+j))
		}
	}
	return out
}

func isAllZero(m *mat.Dense) bool {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if v > zeroBlockTolerance || v < -zeroBlockTolerance {
				return false
			}
		}
	}
	return true
}

func projectionMatrix(b Block, n int) *mat.Dense {
	m := mat.NewDense(b.Len(), n, nil)
	for i := 0; i < b.Len(); i++ {
		m.Set(i, b.Lo+i, 1)
	}
	return m
}

// CheckBlocks iteratively propagates the per-block over-approximations
// X0[j] (one set per partition block, covering the whole partition even
// though only `blocks` are queried) through Φ, evaluates prop at every step
// 1..N, and returns the earliest step at which it is violated, or 0 if it
// holds throughout.
//
// u may be nil to represent an absent/omitted input (the Ŵ accumulation is
// skipped entirely in that case, per the no-input edge case); otherwise it
// is the NonDeterministicInput whose first state drives every step's input
// term, matching the reference algorithm's reuse of 𝒰's first set rather
// than re-sampling it at each k.
//
// An invalid partition or an X0/partition block-count disagreement is
// reported as a *system.DimensionMismatchError, the same taxonomy member
// system's own constructors use for A/X0/𝒰 shape disagreements.
func CheckBlocks(
	phi expmat.MatrixExp,
	x0 []lazyset.ConvexSet,
	u input.NonDeterministicInput,
	overApprox OverApproxInputs,
	n, N int,
	blocks []int,
	partition Partition,
	eager bool,
	prop Property,
	backend Backend,
) (int, error) {
	if err := partition.Validate(n); err != nil {
		return 0, err
	}
	if len(x0) != len(partition) {
		return 0, &system.DimensionMismatchError{Msg: fmt.Sprintf("X0 has %d blocks, partition has %d", len(x0), len(partition))}
	}
	if N < 1 {
		return 0, fmt.Errorf("reach: N must be >= 1, got %d", N)
	}
	if len(blocks) == 0 {
		return 0, fmt.Errorf("reach: blocks must be non-empty")
	}
	if overApprox == nil {
		overApprox = Identity
	}

	power, err := newPhiPower(phi, backend)
	if err != nil {
		return 0, err
	}

	evalAt := func(sets []lazyset.ConvexSet) bool {
		queried := make([]lazyset.ConvexSet, len(blocks))
		for idx, bi := range blocks {
			queried[idx] = sets[bi]
		}
		return prop(lazyset.NewCartesianProductArray(queried))
	}

	violation := 0

	step1 := make([]lazyset.ConvexSet, len(partition))
	copy(step1, x0)
	if !evalAt(step1) {
		if eager {
			return 1, nil
		}
		violation = 1
	}
	if N == 1 {
		return violation, nil
	}

	var u1 lazyset.ConvexSet
	w := make(map[int]lazyset.ConvexSet, len(blocks))
	if u != nil {
		u1 = u.Start().Set
		for _, bi := range blocks {
			bRange := partition[bi]
			proj := lazyset.ApplyLinearMap(projectionMatrix(bRange, n), u1)
			w[bi] = overApprox(1, bi, proj)
		}
	}

	for k := 2; k <= N; k++ {
		current := make([]lazyset.ConvexSet, len(partition))
		for _, bi := range blocks {
			bRange := partition[bi]
			terms := make([]lazyset.ConvexSet, 0, len(partition)+1)
			for j, bj := range partition {
				block := power.Block(bRange, bj)
				if backend.skipZeroBlocks() && isAllZero(block) {
					continue
				}
				terms = append(terms, lazyset.ApplyLinearMap(block, x0[j]))
			}
			if u != nil {
				terms = append(terms, w[bi])
			}
			if len(terms) == 0 {
				current[bi] = lazyset.NewZeroSet(bRange.Len())
			} else if len(terms) == 1 {
				current[bi] = terms[0]
			} else {
				current[bi] = lazyset.NewMinkowskiSumArray(terms)
			}
		}

		if !evalAt(current) {
			if eager {
				return k, nil
			}
			if violation == 0 {
				violation = k
			}
		}
		if k == N {
			break
		}

		if u != nil {
			for _, bi := range blocks {
				bRange := partition[bi]
				rowBlock := power.Block(bRange, Block{Lo: 0, Hi: n})
				term := lazyset.ApplyLinearMap(rowBlock, u1)
				w[bi] = overApprox(k, bi, lazyset.Sum(w[bi], term))
			}
		}

		power.Advance()
	}

	return violation, nil
}

func newPhiPower(phi expmat.MatrixExp, backend Backend) (phiPower, error) {
	if backend.isLazy() {
		lme, ok := phi.(*expmat.LazyMatrixExp)
		if !ok {
			return nil, fmt.Errorf("reach: backend %v requires a lazy Φ", backend)
		}
		return newLazyPhiPower(lme), nil
	}
	return newDensePhiPower(phi.Materialize()), nil
}

// DiscreteSystemBlocks is a convenience helper that reads Φ and 𝒰 off a
// discretized system, so callers driving CheckBlocks directly from
// discretize.Discretize's output don't need to unpack it by hand.
func DiscreteSystemBlocks(ds *system.DiscreteSystem) (expmat.MatrixExp, input.NonDeterministicInput) {
	return ds.Phi, ds.U
}
