package sparse

import (
	"testing"

	jsparse "github.com/james-bowman/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

func sampleDense() *mat.Dense {
	return mat.NewDense(4, 3, []float64{
		0, 1.5, 0,
		2, 0, 0,
		0, 0, 0,
		-3.25, 0, 4,
	})
}

func TestFromDense_RoundTrip(t *testing.T) {
	d := sampleDense()
	coo := FromDense(d)

	assert.Equal(t, 4, coo.NNZ())
	assert.True(t, mat.Equal(d, coo.ToDense()))
	assert.True(t, mat.Equal(d, coo.ToCSR().ToDense()))
	assert.True(t, mat.Equal(d, coo.ToCSR().ToCOO().ToDense()))
}

func TestTriplets_RebuildExactly(t *testing.T) {
	d := sampleDense()
	r, c := d.Dims()

	rows, cols, vals := Triplets(FromDense(d))
	rebuilt, err := NewCOO(r, c, rows, cols, vals)
	require.NoError(t, err)

	assert.True(t, mat.Equal(d, rebuilt))
	assert.True(t, mat.Equal(d, rebuilt.ToCSR()))

	// CSR storage gives the same coordinates
	csrRows, csrCols, csrVals := Triplets(rebuilt.ToCSR())
	assert.Equal(t, rows, csrRows)
	assert.Equal(t, cols, csrCols)
	assert.Equal(t, vals, csrVals)
}

func TestNewCOO_SumsDuplicates(t *testing.T) {
	coo, err := NewCOO(2, 2, []int{0, 0, 1}, []int{1, 1, 0}, []float64{1, 2, 5})
	require.NoError(t, err)

	assert.Equal(t, 3.0, coo.At(0, 1))
	csr := coo.ToCSR()
	assert.Equal(t, 2, csr.NNZ())
	assert.Equal(t, 3.0, csr.At(0, 1))
	assert.Equal(t, 5.0, csr.At(1, 0))
	assert.Equal(t, 0.0, csr.At(1, 1))
}

func TestNewCOO_MergesDuplicateAtRowStart(t *testing.T) {
	// the repeated coordinate is the first entry of its row
	coo, err := NewCOO(3, 3,
		[]int{1, 0, 1, 2, 1},
		[]int{0, 2, 0, 1, 2},
		[]float64{1, 4, 2, -1, 3})
	require.NoError(t, err)
	assert.Equal(t, 4, coo.NNZ())

	csr := coo.ToCSR()
	assert.Equal(t, 4, csr.NNZ())
	assert.Equal(t, 3.0, csr.At(1, 0))
	assert.Equal(t, 3.0, csr.At(1, 2))

	cols, vals := RowEntries(csr, 1)
	assert.Equal(t, []int{0, 2}, cols)
	assert.Equal(t, []float64{3, 3}, vals)
}

func TestNewCOO_Validation(t *testing.T) {
	_, err := NewCOO(2, 2, []int{0}, []int{0, 1}, []float64{1})
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))

	_, err = NewCOO(2, 2, []int{2}, []int{0}, []float64{1})
	var val *errors.ValidationError
	assert.True(t, errors.As(err, &val))

	_, err = NewCOO(0, 2, nil, nil, nil)
	assert.Error(t, err)
}

func TestPrependIntercept_SparseMatchesDense(t *testing.T) {
	d := sampleDense()

	dense := PrependIntercept(d)
	sp := PrependIntercept(FromDense(d))

	require.True(t, IsSparse(sp))
	assert.False(t, IsSparse(dense))

	r, c := sp.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 4, c)
	assert.True(t, mat.Equal(dense, sp.(*CSR).ToDense()))
	for i := 0; i < r; i++ {
		assert.Equal(t, 1.0, dense.At(i, 0))
	}
}

func TestCSR_RowOps(t *testing.T) {
	csr := FromDense(sampleDense()).ToCSR()

	v := []float64{1, 2, 3}
	var dots []float64
	for i := 0; i < 4; i++ {
		dots = append(dots, RowDot(csr, i, v))
	}
	assert.Equal(t, []float64{3, 2, 0, 8.75}, dots)

	sub := RowSlice(csr, []int{3, 0})
	assert.True(t, mat.Equal(mat.NewDense(2, 3, []float64{-3.25, 0, 4, 0, 1.5, 0}), sub))

	var got [][2]int
	csr.DoRowNonZero(3, func(i, j int, v float64) { got = append(got, [2]int{i, j}) })
	assert.Equal(t, [][2]int{{3, 0}, {3, 2}}, got)
}

func TestAsCSR(t *testing.T) {
	d := sampleDense()

	_, ok := AsCSR(d)
	assert.False(t, ok)

	csr := FromDense(d).ToCSR()
	same, ok := AsCSR(csr)
	require.True(t, ok)
	assert.Same(t, csr, same)

	for name, m := range map[string]mat.Matrix{
		"coo": FromDense(d),
		"csc": FromDense(d).ToCSC(),
		"dok": jsparse.NewDOK(4, 3),
	} {
		got, ok := AsCSR(m)
		require.True(t, ok, name)
		assert.True(t, mat.Equal(m, got), name)
	}
}

func TestAt_OutOfRangePanics(t *testing.T) {
	csr := FromDense(sampleDense()).ToCSR()
	assert.Panics(t, func() { csr.At(4, 0) })
	assert.Panics(t, func() { csr.At(0, -1) })
}
