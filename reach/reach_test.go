package reach

import (
	"math"
	"testing"

	"github.com/reachcore/reach/expmat"
	"github.com/reachcore/reach/input"
	"github.com/reachcore/reach/lazyset"
	"github.com/reachcore/reach/system"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func diagPhi(t *testing.T, diag []float64) expmat.MatrixExp {
	t.Helper()
	n := len(diag)
	m := mat.NewDense(n, n, nil)
	for i, v := range diag {
		m.Set(i, i, v)
	}
	return expmat.Wrap(m)
}

// boundedProperty2D mirrors boundedProperty but queries a 2-dimensional
// block's support in the e0 direction, for tests over multi-coordinate
// blocks rather than singletons.
func boundedProperty2D(limit float64) Property {
	e0 := mat.NewVecDense(2, []float64{1, 0})
	return func(s lazyset.ConvexSet) bool {
		cp := s.(lazyset.CartesianProductArray)
		return cp.Sets()[0].Support(e0) <= limit
	}
}

func boundedProperty(limit float64) Property {
	e0 := mat.NewVecDense(1, []float64{1})
	return func(s lazyset.ConvexSet) bool {
		cp, ok := s.(lazyset.CartesianProductArray)
		if !ok {
			return s.Support(mat.NewVecDense(s.Dim(), []float64{1})) <= limit
		}
		return cp.Sets()[0].Support(e0) <= limit
	}
}

// S5: a growing diagonal map pushes block 0's reach set past a fixed bound
// by the third step (support sequence 1, 3, 9, ... crosses the limit of 5
// at k=3); CheckBlocks must report violation at k=3 exactly.
func TestCheckBlocksDetectsViolationAtStepThree(t *testing.T) {
	assert := assert.New(t)

	phi := diagPhi(t, []float64{3, 1})
	x0 := []lazyset.ConvexSet{
		lazyset.NewBallInf(mat.NewVecDense(1, nil), 1),
		lazyset.NewBallInf(mat.NewVecDense(1, nil), 1),
	}
	partition := Partition{Singleton(0), Singleton(1)}

	k, err := CheckBlocks(phi, x0, nil, nil, 2, 5, []int{0, 1}, partition, false, boundedProperty(5), DenseBackend)
	assert.NoError(err)
	assert.Equal(3, k)
}

// Same scenario under the eager policy must short-circuit at the same step.
func TestCheckBlocksEagerMatchesNonEagerViolationStep(t *testing.T) {
	assert := assert.New(t)

	phi := diagPhi(t, []float64{3, 1})
	x0 := []lazyset.ConvexSet{
		lazyset.NewBallInf(mat.NewVecDense(1, nil), 1),
		lazyset.NewBallInf(mat.NewVecDense(1, nil), 1),
	}
	partition := Partition{Singleton(0), Singleton(1)}

	k, err := CheckBlocks(phi, x0, nil, nil, 2, 5, []int{0, 1}, partition, true, boundedProperty(5), DenseBackend)
	assert.NoError(err)
	assert.Equal(3, k)
}

// S6: a generously bounded property holds at every step; CheckBlocks must
// return 0 and, since this run carries an input, invoke the over-approx
// callback exactly (N-1)*|blocks| times: once per queried block when the
// Ŵ accumulator is seeded at step 1, and once per queried block at each
// subsequent step 2..N-1 (the final step N evaluates the property but never
// updates Ŵ again).
func TestCheckBlocksSafeRunReturnsZeroAndCountsCallback(t *testing.T) {
	assert := assert.New(t)

	phi := diagPhi(t, []float64{1.01, 1.01})
	x0 := []lazyset.ConvexSet{
		lazyset.NewBallInf(mat.NewVecDense(1, nil), 1),
		lazyset.NewBallInf(mat.NewVecDense(1, nil), 1),
	}
	u := input.NewConstantInput(lazyset.NewZeroSet(2))
	partition := Partition{Singleton(0), Singleton(1)}

	calls := 0
	counting := func(step, blockIndex int, s lazyset.ConvexSet) lazyset.ConvexSet {
		calls++
		return s
	}

	const n = 10
	k, err := CheckBlocks(phi, x0, u, counting, 2, n, []int{0, 1}, partition, false, boundedProperty(100), DenseBackend)
	assert.NoError(err)
	assert.Equal(0, k)
	assert.Equal((n-1)*2, calls)
}

// The returned violation index must always lie in {0, ..., N}.
func TestCheckBlocksViolationIndexInRange(t *testing.T) {
	assert := assert.New(t)

	phi := diagPhi(t, []float64{2, 1})
	x0 := []lazyset.ConvexSet{
		lazyset.NewBallInf(mat.NewVecDense(1, nil), 1),
		lazyset.NewBallInf(mat.NewVecDense(1, nil), 1),
	}
	partition := Partition{Singleton(0), Singleton(1)}

	const n = 6
	k, err := CheckBlocks(phi, x0, nil, nil, 2, n, []int{0, 1}, partition, false, boundedProperty(5), DenseBackend)
	assert.NoError(err)
	assert.GreaterOrEqual(k, 0)
	assert.LessOrEqual(k, n)
}

// Querying only a subset of the partition's blocks must not error and must
// ignore the unqueried block's contribution to the property.
func TestCheckBlocksQueriesSubsetOfBlocks(t *testing.T) {
	assert := assert.New(t)

	phi := diagPhi(t, []float64{2, 100})
	x0 := []lazyset.ConvexSet{
		lazyset.NewBallInf(mat.NewVecDense(1, nil), 1),
		lazyset.NewBallInf(mat.NewVecDense(1, nil), 1),
	}
	partition := Partition{Singleton(0), Singleton(1)}

	// Block 1 blows up instantly but is never queried, so the run stays safe:
	// block 0's support sequence is 1, 2, 4 over 3 steps, never exceeding 5.
	k, err := CheckBlocks(phi, x0, nil, nil, 2, 3, []int{0}, partition, false, boundedProperty(5), DenseBackend)
	assert.NoError(err)
	assert.Equal(0, k)
}

// Phi and the lazy backend's exp(generator) must agree on the same Φ: the
// generator is log(diag) elementwise, so exp(generator) == Phi exactly and
// AdvancePower's exp((k+1)*generator) tracks Phi^(k+1).
func TestCheckBlocksLazyDenseMatchesDenseBackend(t *testing.T) {
	assert := assert.New(t)

	diag := []float64{2, 1}
	n := len(diag)
	m := mat.NewDense(n, n, nil)
	generator := mat.NewDense(n, n, nil)
	for i, v := range diag {
		m.Set(i, i, v)
		if v > 0 {
			generator.Set(i, i, math.Log(v))
		}
	}
	lazy := expmat.NewLazyMatrixExp(generator)

	x0 := []lazyset.ConvexSet{
		lazyset.NewBallInf(mat.NewVecDense(1, nil), 1),
		lazyset.NewBallInf(mat.NewVecDense(1, nil), 1),
	}
	partition := Partition{Singleton(0), Singleton(1)}

	kDense, err := CheckBlocks(expmat.Wrap(m), x0, nil, nil, 2, 5, []int{0, 1}, partition, false, boundedProperty(5), DenseBackend)
	assert.NoError(err)

	kLazy, err := CheckBlocks(lazy, x0, nil, nil, 2, 5, []int{0, 1}, partition, false, boundedProperty(5), LazyDenseBackend)
	assert.NoError(err)

	assert.Equal(kDense, kLazy)
}

// TestSparseBackendsMatchDenseBackendsOnBlockDiagonalPhi exercises the
// zero-sub-block skip path: Phi is block-diagonal (the off-diagonal block
// between the two partition blocks is all zero), so Sparse and LazySparse
// take the isAllZero-skip branch that Dense and LazyDense never do. All
// four backends must still agree on the violation index.
func TestSparseBackendsMatchDenseBackendsOnBlockDiagonalPhi(t *testing.T) {
	assert := assert.New(t)

	diag := []float64{3, 3, 1, 1}
	n := len(diag)
	m := mat.NewDense(n, n, nil)
	generator := mat.NewDense(n, n, nil)
	for i, v := range diag {
		m.Set(i, i, v)
		if v > 0 {
			generator.Set(i, i, math.Log(v))
		}
	}
	lazy := func() *expmat.LazyMatrixExp { return expmat.NewLazyMatrixExp(generator) }

	x0 := []lazyset.ConvexSet{
		lazyset.NewBallInf(mat.NewVecDense(2, nil), 1),
		lazyset.NewBallInf(mat.NewVecDense(2, nil), 1),
	}
	partition := Partition{{Lo: 0, Hi: 2}, {Lo: 2, Hi: 4}}

	kDense, err := CheckBlocks(expmat.Wrap(m), x0, nil, nil, n, 5, []int{0, 1}, partition, false, boundedProperty2D(5), DenseBackend)
	assert.NoError(err)

	kSparse, err := CheckBlocks(expmat.Wrap(m), x0, nil, nil, n, 5, []int{0, 1}, partition, false, boundedProperty2D(5), SparseBackend)
	assert.NoError(err)
	assert.Equal(kDense, kSparse)

	kLazyDense, err := CheckBlocks(lazy(), x0, nil, nil, n, 5, []int{0, 1}, partition, false, boundedProperty2D(5), LazyDenseBackend)
	assert.NoError(err)
	assert.Equal(kDense, kLazyDense)

	kLazySparse, err := CheckBlocks(lazy(), x0, nil, nil, n, 5, []int{0, 1}, partition, false, boundedProperty2D(5), LazySparseBackend)
	assert.NoError(err)
	assert.Equal(kDense, kLazySparse)
}

func TestCheckBlocksRejectsInvalidPartition(t *testing.T) {
	assert := assert.New(t)

	phi := diagPhi(t, []float64{1, 1})
	x0 := []lazyset.ConvexSet{lazyset.NewZeroSet(1), lazyset.NewZeroSet(1)}
	bad := Partition{Singleton(0), Singleton(1), Singleton(2)}

	_, err := CheckBlocks(phi, x0, nil, nil, 2, 3, []int{0}, bad, false, boundedProperty(1), DenseBackend)
	assert.Error(err)
	assert.ErrorIs(err, system.ErrDimensionMismatch)
	var dimErr *system.DimensionMismatchError
	assert.ErrorAs(err, &dimErr)
}

func TestCheckBlocksRejectsX0PartitionBlockCountMismatch(t *testing.T) {
	assert := assert.New(t)

	phi := diagPhi(t, []float64{1, 1})
	x0 := []lazyset.ConvexSet{lazyset.NewZeroSet(1)}
	partition := Partition{Singleton(0), Singleton(1)}

	_, err := CheckBlocks(phi, x0, nil, nil, 2, 3, []int{0}, partition, false, boundedProperty(1), DenseBackend)
	assert.Error(err)
	assert.ErrorIs(err, system.ErrDimensionMismatch)
}

func TestCheckBlocksRejectsLazyBackendWithDensePhi(t *testing.T) {
	assert := assert.New(t)

	phi := diagPhi(t, []float64{1, 1})
	x0 := []lazyset.ConvexSet{lazyset.NewZeroSet(1), lazyset.NewZeroSet(1)}
	partition := Partition{Singleton(0), Singleton(1)}

	_, err := CheckBlocks(phi, x0, nil, nil, 2, 3, []int{0, 1}, partition, false, boundedProperty(1), LazyDenseBackend)
	assert.Error(err)
}
