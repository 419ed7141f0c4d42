// Package sparse wraps the COO and CSR matrices of
// github.com/james-bowman/sparse with validated construction and the row
// operations the benchmark adapters and solvers need.
package sparse

import (
	"cmp"
	"slices"

	jsparse "github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

// NewCOO validates coordinate arrays and builds a COO matrix. Entries are
// stored row-major with duplicate coordinates summed. The input slices are
// not retained.
func NewCOO(rows, cols int, rowIdx, colIdx []int, data []float64) (*COO, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.NewValueError("sparse.NewCOO", "shape must be positive")
	}
	if len(rowIdx) != len(data) {
		return nil, errors.NewDimensionError("sparse.NewCOO", len(data), len(rowIdx), 0)
	}
	if len(colIdx) != len(data) {
		return nil, errors.NewDimensionError("sparse.NewCOO", len(data), len(colIdx), 1)
	}
	for k := range data {
		if rowIdx[k] < 0 || rowIdx[k] >= rows {
			return nil, errors.NewValidationError("row_index", "out of range", rowIdx[k])
		}
		if colIdx[k] < 0 || colIdx[k] >= cols {
			return nil, errors.NewValidationError("col_index", "out of range", colIdx[k])
		}
	}

	r, c, d := canonical(rowIdx, colIdx, data)
	return jsparse.NewCOO(rows, cols, r, c, d), nil
}

// FromDense builds a COO holding the non-zero entries of m in row-major order.
func FromDense(m mat.Matrix) *COO {
	r, c := m.Dims()
	var rowIdx, colIdx []int
	var data []float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); v != 0 {
				rowIdx = append(rowIdx, i)
				colIdx = append(colIdx, j)
				data = append(data, v)
			}
		}
	}
	return jsparse.NewCOO(r, c, rowIdx, colIdx, data)
}

// Triplets returns the row indices, column indices and values of the stored
// entries of m in its DoNonZero order.
func Triplets(m Matrix) (rowIdx, colIdx []int, data []float64) {
	nnz := m.NNZ()
	rowIdx = make([]int, 0, nnz)
	colIdx = make([]int, 0, nnz)
	data = make([]float64, 0, nnz)
	m.DoNonZero(func(i, j int, v float64) {
		rowIdx = append(rowIdx, i)
		colIdx = append(colIdx, j)
		data = append(data, v)
	})
	return rowIdx, colIdx, data
}

// canonical returns fresh coordinate arrays sorted row-major with duplicate
// coordinates summed.
func canonical(rowIdx, colIdx []int, data []float64) ([]int, []int, []float64) {
	order := make([]int, len(data))
	for k := range order {
		order[k] = k
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if c := cmp.Compare(rowIdx[a], rowIdx[b]); c != 0 {
			return c
		}
		return cmp.Compare(colIdx[a], colIdx[b])
	})

	r := make([]int, 0, len(data))
	c := make([]int, 0, len(data))
	d := make([]float64, 0, len(data))
	for _, k := range order {
		last := len(d) - 1
		if last >= 0 && r[last] == rowIdx[k] && c[last] == colIdx[k] {
			d[last] += data[k]
			continue
		}
		r = append(r, rowIdx[k])
		c = append(c, colIdx[k])
		d = append(d, data[k])
	}
	return r, c, d
}
