package model_selection

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/sparse"
)

// TakeRows returns the rows of X listed in idx, in order. Sparse input stays
// sparse (CSR); anything else is copied into a *mat.Dense.
func TakeRows(X mat.Matrix, idx []int) mat.Matrix {
	if csr, ok := sparse.AsCSR(X); ok {
		return sparse.RowSlice(csr, idx)
	}
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	if d, ok := X.(mat.RawRowViewer); ok {
		for r, i := range idx {
			out.SetRow(r, d.RawRowView(i))
		}
		return out
	}
	for r, i := range idx {
		for j := 0; j < c; j++ {
			out.Set(r, j, X.At(i, j))
		}
	}
	return out
}

// TakeValues returns v[idx[0]], v[idx[1]], ... . A nil v gives nil.
func TakeValues(v []float64, idx []int) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(idx))
	for r, i := range idx {
		out[r] = v[i]
	}
	return out
}
