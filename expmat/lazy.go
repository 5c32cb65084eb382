package expmat

import "gonum.org/v1/gonum/mat"

// LazyMatrixExp represents exp(M) without eagerly materializing it. It
// defers evaluation until the first Row/Rows/Columns/Materialize call, and
// caches the result until the generator is advanced by AdvancePower.
// Evaluation always computes the full exp(current) with gonum's dense Exp;
// Row, Rows and Columns copy their slice out of that cached matrix, so a
// single row or column query costs one full matrix exponential.
//
// AdvancePower implements the additive power-update described for the
// block-reachability loop: rather than recomputing exp((k+1)·A·δ) from
// scratch or multiplying Φᵏ·Φ, it adds the original generator Aδ to the
// current one, which is algebraically equivalent because (k·Aδ) + Aδ =
// (k+1)·Aδ and exp is evaluated fresh against the updated generator on the
// next query.
type LazyMatrixExp struct {
	base    *mat.Dense // original generator, e.g. A·δ
	current *mat.Dense // generator for the current power
	cache   *mat.Dense // materialized exp(current), invalidated by AdvancePower
}

// NewLazyMatrixExp wraps generator (e.g. A·δ) as a LazyMatrixExp
// representing exp(generator).
func NewLazyMatrixExp(generator *mat.Dense) *LazyMatrixExp {
	return &LazyMatrixExp{
		base:    mat.DenseCopyOf(generator),
		current: mat.DenseCopyOf(generator),
	}
}

// Dims implements MatrixExp.
func (l *LazyMatrixExp) Dims() (int, int) { return l.current.Dims() }

// Materialize implements MatrixExp: it forces full evaluation of exp(M).
func (l *LazyMatrixExp) Materialize() *mat.Dense {
	l.ensure()
	return mat.DenseCopyOf(l.cache)
}

// Row extracts row i of exp(M).
func (l *LazyMatrixExp) Row(i int) *mat.VecDense {
	l.ensure()
	return mat.VecDenseCopyOf(l.cache.RowView(i))
}

// Rows extracts the row range [lo, hi) of exp(M).
func (l *LazyMatrixExp) Rows(lo, hi int) *mat.Dense {
	l.ensure()
	_, cols := l.cache.Dims()
	out := mat.NewDense(hi-lo, cols, nil)
	out.Copy(l.cache.Slice(lo, hi, 0, cols))
	return out
}

// Columns extracts the column range [lo, hi) of exp(M).
func (l *LazyMatrixExp) Columns(lo, hi int) *mat.Dense {
	l.ensure()
	rows, _ := l.cache.Dims()
	out := mat.NewDense(rows, hi-lo, nil)
	out.Copy(l.cache.Slice(0, rows, lo, hi))
	return out
}

// AdvancePower advances the lazy exponent so that the next Row/Rows/Columns
// query behaves as exp((k+1)·A·δ), given it currently represents exp(k·A·δ).
func (l *LazyMatrixExp) AdvancePower() {
	l.current.Add(l.current, l.base)
	l.cache = nil
}

func (l *LazyMatrixExp) ensure() {
	if l.cache != nil {
		return
	}
	out := new(mat.Dense)
	out.Exp(l.current)
	l.cache = out
}
