// Package matrix provides small dense-matrix helpers shared by the
// discretization and reachability packages: pretty-printing for error
// messages and the infinity-norm used by the firstorder approximation model.
package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Format returns a matrix formatter for printing matrices in error messages
// and debug output.
func Format(m mat.Matrix) fmt.Formatter {
	return mat.Formatted(m, mat.Prefix(""), mat.Squeeze())
}

// InfinityNorm returns ‖m‖∞, the maximum absolute row sum of m, using
// gonum/floats' L1 vector norm per row.
func InfinityNorm(m mat.Matrix) float64 {
	rows, cols := m.Dims()
	if dense, ok := m.(*mat.Dense); ok {
		sums := make([]float64, rows)
		for i := 0; i < rows; i++ {
			sums[i] = floats.Norm(dense.RawRowView(i), 1)
		}
		return floats.Max(sums)
	}
	sums := make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = m.At(i, j)
		}
		sums[i] = floats.Norm(row, 1)
	}
	return floats.Max(sums)
}

// AbsElementwise returns a new dense matrix holding the elementwise absolute
// value of m. It is used to build the |A| matrix required by the forward and
// backward discretization models.
func AbsElementwise(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, math.Abs(m.At(i, j)))
		}
	}
	return out
}
