package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRegressionScores(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5})

	tests := []struct {
		name  string
		score func(a, b *mat.VecDense) (float64, error)
		want  float64
	}{
		{"MSE", MSE, 0.25},
		{"RMSE", RMSE, 0.5},
		{"MAE", MAE, 0.5},
		// TSS = 5, RSS = 1
		{"R2Score", R2Score, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.score(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)

			perfect, err := tt.score(yTrue, yTrue)
			require.NoError(t, err)
			if tt.name == "R2Score" {
				assert.Equal(t, 1.0, perfect)
			} else {
				assert.Equal(t, 0.0, perfect)
			}
		})
	}
}

func TestRegressionScores_InvalidInput(t *testing.T) {
	scores := map[string]func(a, b *mat.VecDense) (float64, error){
		"MSE":     MSE,
		"RMSE":    RMSE,
		"MAE":     MAE,
		"R2Score": R2Score,
	}
	for name, score := range scores {
		t.Run(name, func(t *testing.T) {
			_, err := score(&mat.VecDense{}, &mat.VecDense{})
			assert.Error(t, err, "empty vectors")

			_, err = score(mat.NewVecDense(3, []float64{1, 2, 3}), mat.NewVecDense(2, []float64{1, 2}))
			assert.Error(t, err, "length mismatch")
		})
	}
}

func TestR2Score_ConstantTarget(t *testing.T) {
	y := mat.NewVecDense(3, []float64{2, 2, 2})
	_, err := R2Score(y, mat.NewVecDense(3, []float64{1, 2, 3}))
	assert.Error(t, err)
}

func TestR2Score_WorseThanMean(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{1, 2, 3})
	yPred := mat.NewVecDense(3, []float64{3, 2, 1})

	got, err := R2Score(yTrue, yPred)
	require.NoError(t, err)
	// RSS = 8, TSS = 2
	assert.InDelta(t, -3.0, got, 1e-12)
}

func TestRMSE_LargeErrors(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{10, 20, 30})
	yPred := mat.NewVecDense(3, []float64{12, 18, 33})

	got, err := RMSE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(17.0/3.0), got, 1e-12)
}

func BenchmarkMSE(b *testing.B) {
	n := 10000
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, float64(i))
		yPred.SetVec(i, float64(i)+0.5)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSE(yTrue, yPred)
	}
}
