package matrix

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestFormat(t *testing.T) {
	assert := assert.New(t)

	out := `⎡1.2  3.4⎤
⎣4.5  6.7⎦`
	data := []float64{1.2, 3.4, 4.5, 6.7}
	m := mat.NewDense(2, 2, data)
	assert.NotNil(m)

	format := Format(m)
	tstOut := fmt.Sprintf("%v", format)
	assert.Equal(out, tstOut)
}

func TestInfinityNorm(t *testing.T) {
	assert := assert.New(t)

	data := []float64{1, -2, -3, 4}
	m := mat.NewDense(2, 2, data)
	assert.Equal(7.0, InfinityNorm(m))

	zero := mat.NewDense(3, 3, nil)
	assert.Equal(0.0, InfinityNorm(zero))
}

func TestAbsElementwise(t *testing.T) {
	assert := assert.New(t)

	data := []float64{1, -2, -3, 4}
	m := mat.NewDense(2, 2, data)
	abs := AbsElementwise(m)

	assert.Equal(1.0, abs.At(0, 0))
	assert.Equal(2.0, abs.At(0, 1))
	assert.Equal(3.0, abs.At(1, 0))
	assert.Equal(4.0, abs.At(1, 1))
}
