package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMeanTweedieDeviance_NormalMatchesMSE(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5})

	dev, err := MeanTweedieDeviance(yTrue, yPred, nil, 0)
	require.NoError(t, err)
	mse, err := MSE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, mse, dev, 1e-12)
}

func TestMeanPoissonDeviance(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{0, 1, 2})
	yPred := mat.NewVecDense(3, []float64{1, 1, 1})

	got, err := MeanPoissonDeviance(yTrue, yPred)
	require.NoError(t, err)
	want := (2 + 0 + 2*(2*math.Log(2)-1)) / 3
	assert.InDelta(t, want, got, 1e-12)
}

func TestMeanGammaDeviance_PerfectFit(t *testing.T) {
	y := mat.NewVecDense(3, []float64{0.5, 1, 4})
	got, err := MeanGammaDeviance(y, y)
	require.NoError(t, err)
	assert.InDelta(t, 0, got, 1e-12)
}

func TestMeanTweedieDeviance_Weighted(t *testing.T) {
	yTrue := mat.NewVecDense(2, []float64{0, 2})
	yPred := mat.NewVecDense(2, []float64{1, 2})

	// 重み0のサンプルは無視される
	got, err := MeanTweedieDeviance(yTrue, yPred, []float64{0, 1}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, got, 1e-12)
}

func TestMeanTweedieDeviance_Errors(t *testing.T) {
	pos := mat.NewVecDense(2, []float64{1, 2})

	tests := []struct {
		name  string
		yTrue *mat.VecDense
		yPred *mat.VecDense
		w     []float64
		power float64
	}{
		{"non-positive prediction", pos, mat.NewVecDense(2, []float64{0, 1}), nil, 1},
		{"negative target for poisson", mat.NewVecDense(2, []float64{-1, 1}), pos, nil, 1},
		{"zero target for gamma", mat.NewVecDense(2, []float64{0, 1}), pos, nil, 2},
		{"invalid power", pos, pos, nil, 0.5},
		{"weight length", pos, pos, []float64{1}, 0},
		{"dimension mismatch", pos, mat.NewVecDense(1, []float64{1}), nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MeanTweedieDeviance(tt.yTrue, tt.yPred, tt.w, tt.power)
			assert.Error(t, err)
		})
	}
}
