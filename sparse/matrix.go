package sparse

import (
	jsparse "github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// COO and CSR are the coordinate-list and compressed sparse row formats of
// github.com/james-bowman/sparse. Build COO values with NewCOO or FromDense
// so that duplicates are merged before conversion.
type (
	COO = jsparse.COO
	CSR = jsparse.CSR
)

// Matrix is a sparse matrix in any of the supported formats.
type Matrix interface {
	mat.Matrix
	mat.NonZeroDoer
	NNZ() int
	ToDense() *mat.Dense
}

// IsSparse reports whether m is stored in one of the sparse formats.
func IsSparse(m mat.Matrix) bool {
	_, ok := m.(Matrix)
	return ok
}

// AsCSR returns m in CSR form when it is sparse. A CSR input is returned as is.
func AsCSR(m mat.Matrix) (*CSR, bool) {
	switch s := m.(type) {
	case *CSR:
		return s, true
	case jsparse.TypeConverter:
		return s.ToCSR(), true
	}
	return nil, false
}

// PrependIntercept returns m with a leading column of ones. Dense input gives
// a *mat.Dense. Sparse input is rebuilt through coordinate-list construction
// and returned as *CSR.
func PrependIntercept(m mat.Matrix) mat.Matrix {
	r, c := m.Dims()

	if sm, ok := m.(Matrix); ok {
		rowIdx := make([]int, 0, r+sm.NNZ())
		colIdx := make([]int, 0, r+sm.NNZ())
		data := make([]float64, 0, r+sm.NNZ())
		for i := 0; i < r; i++ {
			rowIdx = append(rowIdx, i)
			colIdx = append(colIdx, 0)
			data = append(data, 1)
		}
		sm.DoNonZero(func(i, j int, v float64) {
			rowIdx = append(rowIdx, i)
			colIdx = append(colIdx, j+1)
			data = append(data, v)
		})
		rowIdx, colIdx, data = canonical(rowIdx, colIdx, data)
		return jsparse.NewCOO(r, c+1, rowIdx, colIdx, data).ToCSR()
	}

	out := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, 1)
	}
	out.Slice(0, r, 1, c+1).(*mat.Dense).Copy(m)
	return out
}

// RowDot returns x_iᵀ·v for row i of m.
func RowDot(m *CSR, i int, v []float64) float64 {
	raw := m.RawMatrix()
	lo, hi := raw.Indptr[i], raw.Indptr[i+1]
	return blas.Dusdot(raw.Data[lo:hi], raw.Ind[lo:hi], v, 1)
}

// RowEntries returns the column indices and values stored in row i of m.
// The slices share storage with m.
func RowEntries(m *CSR, i int) (cols []int, vals []float64) {
	raw := m.RawMatrix()
	lo, hi := raw.Indptr[i], raw.Indptr[i+1]
	return raw.Ind[lo:hi], raw.Data[lo:hi]
}

// RowSlice returns a new CSR holding the given rows of m, in order.
func RowSlice(m *CSR, rows []int) *CSR {
	_, c := m.Dims()
	indptr := make([]int, len(rows)+1)
	var ind []int
	var data []float64
	for r, i := range rows {
		cols, vals := RowEntries(m, i)
		ind = append(ind, cols...)
		data = append(data, vals...)
		indptr[r+1] = len(data)
	}
	return jsparse.NewCSR(len(rows), c, indptr, ind, data)
}

var (
	_ Matrix             = (*COO)(nil)
	_ Matrix             = (*CSR)(nil)
	_ mat.RowNonZeroDoer = (*CSR)(nil)
)
