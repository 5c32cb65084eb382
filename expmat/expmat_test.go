package expmat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestExpmatDenseMatchesGonum(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(2, 2, []float64{0, 1, -1, 0})
	delta := 0.1

	want := new(mat.Dense)
	scaled := new(mat.Dense)
	scaled.Scale(delta, a)
	want.Exp(scaled)

	got, err := Expmat(a, delta, Dense)
	assert.NoError(err)
	assert.True(mat.EqualApprox(want, got.Materialize(), 1e-9))
}

func TestExpmatPadeApproximatesDense(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(3, 3, []float64{
		1, 2, 0,
		0, 3, 0,
		0, 0, 4,
	})
	delta := 0.01

	dense, err := Expmat(a, delta, Dense)
	assert.NoError(err)

	pade, err := Expmat(a, delta, Pade)
	assert.NoError(err)

	assert.True(mat.EqualApprox(dense.Materialize(), pade.Materialize(), 1e-6))
}

func TestExpmatRejectsNonSquare(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(2, 3, nil)
	_, err := Expmat(a, 0.1, Dense)
	assert.Error(err)
}

func TestLazyMatrixExpMatchesDense(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(2, 2, []float64{1, 0, 0, 2})
	delta := 0.05

	dense, err := Expmat(a, delta, Dense)
	assert.NoError(err)

	lazy, err := Expmat(a, delta, Lazy)
	assert.NoError(err)

	assert.True(mat.EqualApprox(dense.Materialize(), lazy.Materialize(), 1e-9))

	lm := lazy.(*LazyMatrixExp)
	row0 := lm.Row(0)
	assert.InDelta(dense.Materialize().At(0, 0), row0.AtVec(0), 1e-9)
}

func TestLazyMatrixExpAdvancePower(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(2, 2, []float64{0.5, 0, 0, 0.5})
	delta := 1.0

	lazy, err := Expmat(a, delta, Lazy)
	assert.NoError(err)
	lm := lazy.(*LazyMatrixExp)

	firstPower := lm.Materialize()

	lm.AdvancePower()
	secondPower := lm.Materialize()

	// exp(2*A*delta) = exp(A*delta)^2 for a diagonal A
	want := new(mat.Dense)
	want.Mul(firstPower, firstPower)
	assert.True(mat.EqualApprox(want, secondPower, 1e-9))
}
