package model_selection

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/sparse"
)

func TestKFold_ContiguousFolds(t *testing.T) {
	folds, err := NewKFold(3, false, 0).Split(8)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	assert.Equal(t, []int{0, 1, 2}, folds[0].TestIndices)
	assert.Equal(t, []int{3, 4, 5}, folds[1].TestIndices)
	assert.Equal(t, []int{6, 7}, folds[2].TestIndices)
	assert.Equal(t, []int{0, 1, 2, 6, 7}, folds[1].TrainIndices)
}

func TestKFold_ShuffleCoversAllSamples(t *testing.T) {
	kf := NewKFold(4, true, 42)
	folds, err := kf.Split(21)
	require.NoError(t, err)

	var all []int
	for _, f := range folds {
		assert.Len(t, f.TrainIndices, 21-len(f.TestIndices))
		all = append(all, f.TestIndices...)
	}
	sort.Ints(all)
	for i, v := range all {
		assert.Equal(t, i, v)
	}

	again, err := kf.Split(21)
	require.NoError(t, err)
	assert.Equal(t, folds, again, "same seed must give the same split")
}

func TestKFold_Errors(t *testing.T) {
	_, err := NewKFold(5, false, 0).Split(3)
	assert.Error(t, err)

	_, err = (&KFold{NSplits: 1}).Split(10)
	assert.Error(t, err)

	assert.Equal(t, 5, NewKFold(0, false, 0).GetNSplits())
}

func TestTakeRows_DenseAndSparse(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 0,
		0, 2,
		3, 0,
		0, 4,
	})
	idx := []int{3, 0}

	got := TakeRows(X, idx)
	assert.Equal(t, []float64{0, 4, 1, 0}, mat.DenseCopyOf(got).RawMatrix().Data)

	sp := TakeRows(sparse.FromDense(X), idx)
	require.True(t, sparse.IsSparse(sp))
	assert.True(t, mat.Equal(got, sp))

	assert.Equal(t, []float64{40, 10}, TakeValues([]float64{10, 20, 30, 40}, idx))
	assert.Nil(t, TakeValues(nil, idx))
}
