package linear_model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/linear"
)

func flatten2(v [][]float64) []float64 {
	var out []float64
	for _, row := range v {
		out = append(out, row...)
	}
	return out
}

func flatten3(v [][][]float64) []float64 {
	var out []float64
	for _, m := range v {
		out = append(out, flatten2(m)...)
	}
	return out
}

// Automatic grids need l1_ratio > 0 in both estimators, so l1_ratio = 0 is
// covered by the ridge comparison below.
func TestGLMCV_NormalElasticNetComparison(t *testing.T) {
	const (
		nSamples = 100
		nAlphas  = 2
		tol      = 1e-9
	)
	X, T, y := splitRegression(t, nSamples, 10, 8, 10)

	for _, l1Ratio := range [][]float64{{0.5}, {1}, {0.3, 0.6}} {
		for _, fitIntercept := range []bool{false, true} {
			t.Run(fmt.Sprintf("l1=%v/intercept=%v", l1Ratio, fitIntercept), func(t *testing.T) {
				en := linear.NewElasticNetCV(
					linear.WithL1Ratios(l1Ratio...),
					linear.WithNAlphas(nAlphas),
					linear.WithFitIntercept(fitIntercept),
					linear.WithTol(tol),
				)
				require.NoError(t, en.Fit(X, y))
				enPred, err := en.Predict(T)
				require.NoError(t, err)

				glm, err := NewGeneralizedLinearRegressorCV(
					WithCVL1Ratios(l1Ratio...),
					WithNAlphas(nAlphas),
					WithCVFitIntercept(fitIntercept),
					WithCVLink(Identity),
					WithCVGradientTol(tol),
				)
				require.NoError(t, err)
				require.NoError(t, glm.Fit(X, y))
				glmPred, err := glm.Predict(T)
				require.NoError(t, err)

				const rtol, atol = 1e-7, 1e-8
				assertClose(t, en.L1Ratio_, glm.L1Ratio_, rtol, atol, "l1_ratio_")
				assertAllClose(t, flatten2(en.Alphas_), flatten2(glm.Alphas_), rtol, atol, "alphas_")
				assertClose(t, en.Alpha_, glm.Alpha_, rtol, atol, "alpha_")
				assertClose(t, en.Intercept_, glm.Intercept_, rtol, atol, "intercept_")
				assertAllClose(t, en.Coef_, glm.Coef_, rtol, atol, "coef_")
				assertAllClose(t, column(enPred), column(glmPred), rtol, atol, "predictions")
				assertAllClose(t, flatten3(en.MSEPath_), flatten3(glm.MSEPath_), rtol, atol, "mse_path_")
			})
		}
	}
}

// Ridge penalises the summed squared loss while the GLM penalises the mean,
// so at the same alpha the two differ by a factor n in effective penalty.
// With pure-noise features the coefficients are close to zero and the gap
// stays far below the tolerances.
func TestGLMCV_NormalRidgeComparison(t *testing.T) {
	X, T, y := splitRegression(t, 100, 2, 0, 10)
	alphas := []float64{1e-4}

	for _, fitIntercept := range []bool{false, true} {
		ridge := linear.NewRidgeCV(linear.WithFitIntercept(fitIntercept), linear.WithCV(5),
			linear.WithAlphas(alphas...))
		require.NoError(t, ridge.Fit(X, y))
		ridgePred, err := ridge.Predict(T)
		require.NoError(t, err)

		exact := linear.NewRidge(linear.WithAlpha(100*alphas[0]), linear.WithFitIntercept(fitIntercept))
		require.NoError(t, exact.Fit(X, y))

		var ref *GeneralizedLinearRegressorCV
		for _, solver := range []Solver{SolverIRLS, SolverLBFGS, SolverCD} {
			t.Run(fmt.Sprintf("intercept=%v/%s", fitIntercept, solver), func(t *testing.T) {
				glm, err := NewGeneralizedLinearRegressorCV(
					WithCVFitIntercept(fitIntercept),
					WithCVLink(Identity),
					WithCVSolver(solver),
					WithCVGradientTol(1e-9),
					WithAlphas(alphas...),
					WithCVL1Ratios(0),
				)
				require.NoError(t, err)
				require.NoError(t, glm.Fit(X, y))
				glmPred, err := glm.Predict(T)
				require.NoError(t, err)

				assert.Equal(t, ridge.Alpha_, glm.Alpha_)
				assertAllClose(t, column(ridgePred), column(glmPred), 1e-3, 4e-6, "predictions")
				assertClose(t, ridge.Intercept_, glm.Intercept_, 1e-3, 4e-7, "intercept_")
				assertAllClose(t, ridge.Coef_, glm.Coef_, 1e-3, 3e-6, "coef_")

				// with the penalty rescaled by n the two objectives coincide
				atol := 1e-10
				if solver != SolverIRLS {
					atol = 1e-8
				}
				assertAllClose(t, exact.Coef_, glm.Coef_, 1e-8, atol, "rescaled coef_")
				assertClose(t, exact.Intercept_, glm.Intercept_, 1e-8, atol, "rescaled intercept_")

				if ref == nil {
					ref = glm
					return
				}
				// 全ソルバーが同じ選択と経路を返す
				assert.Equal(t, ref.Alpha_, glm.Alpha_)
				assertAllClose(t, ref.Coef_, glm.Coef_, 1e-6, 1e-8, "coef_ vs irls")
				assertClose(t, ref.Intercept_, glm.Intercept_, 1e-6, 1e-8, "intercept_ vs irls")
				assertAllClose(t, flatten3(ref.MSEPath_), flatten3(glm.MSEPath_), 1e-6, 1e-10, "mse_path_ vs irls")
			})
		}
	}
}

func TestGLMCV_PredictIsBitIdentical(t *testing.T) {
	X, T, y := splitRegression(t, 100, 5, 4, 10)

	glm, err := NewGeneralizedLinearRegressorCV(WithCVL1Ratios(0.5), WithNAlphas(5), WithCV(3))
	require.NoError(t, err)
	require.NoError(t, glm.Fit(X, y))

	first, err := glm.Predict(T)
	require.NoError(t, err)
	second, err := glm.Predict(T)
	require.NoError(t, err)
	assert.Equal(t, column(first), column(second))
}

func TestGLMCV_ParallelMatchesSerial(t *testing.T) {
	X, _, y := splitRegression(t, 90, 6, 4, 0)

	fit := func(jobs int) *GeneralizedLinearRegressorCV {
		m, err := NewGeneralizedLinearRegressorCV(
			WithCVL1Ratios(0.2, 0.8), WithNAlphas(4), WithCV(3), WithNJobs(jobs), WithCVGradientTol(1e-8))
		require.NoError(t, err)
		require.NoError(t, m.Fit(X, y))
		return m
	}
	serial, par := fit(1), fit(6)

	assert.Equal(t, serial.MSEPath_, par.MSEPath_)
	assert.Equal(t, serial.Alphas_, par.Alphas_)
	assert.Equal(t, serial.Coef_, par.Coef_)
	assert.Equal(t, serial.Intercept_, par.Intercept_)
}

func TestGLMCV_PathShapeAndSelection(t *testing.T) {
	X, _, y := splitRegression(t, 60, 3, 2, 0)

	m, err := NewGeneralizedLinearRegressorCV(WithCVL1Ratios(0.5, 1), WithNAlphas(3), WithCV(4))
	require.NoError(t, err)
	require.NoError(t, m.Fit(X, y))

	require.Len(t, m.MSEPath_, 2)
	bestL, bestA, best := -1, -1, 0.0
	for li, byAlpha := range m.MSEPath_ {
		require.Len(t, byAlpha, 3)
		require.Len(t, m.Alphas_[li], 3)
		for ai, folds := range byAlpha {
			require.Len(t, folds, 4)
			mean := (folds[0] + folds[1] + folds[2] + folds[3]) / 4
			if bestL < 0 || mean < best {
				bestL, bestA, best = li, ai, mean
			}
		}
	}
	assert.Equal(t, []float64{0.5, 1}[bestL], m.L1Ratio_)
	assert.Equal(t, m.Alphas_[bestL][bestA], m.Alpha_)
	assert.True(t, m.Converged_)
}

func TestGLMCV_PoissonFamily(t *testing.T) {
	countWarnings(t)
	X, y := poissonData(t, 300, 4, 9)

	m, err := NewGeneralizedLinearRegressorCV(WithCVFamily(Poisson), WithCVL1Ratios(0.5),
		WithNAlphas(4), WithCV(3), WithCVGradientTol(1e-6))
	require.NoError(t, err)
	require.NoError(t, m.Fit(X, y))

	pred, err := m.Predict(X)
	require.NoError(t, err)
	for _, mu := range column(pred) {
		assert.Greater(t, mu, 0.0)
	}
	d2, err := m.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, d2, 0.0)

	w, err := m.ExportWeights()
	require.NoError(t, err)
	assert.Equal(t, "GeneralizedLinearRegressorCV", w.ModelType)
	assert.Equal(t, "log", w.Hyperparameters["link"])
}

func TestGLMCV_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts []CVOption
	}{
		{"automatic grid with l1 ratio zero", []CVOption{WithCVL1Ratios(0)}},
		{"default l1 ratio needs alphas", nil},
		{"l1 ratio out of range", []CVOption{WithCVL1Ratios(0.5, 1.2)}},
		{"no l1 ratios", []CVOption{WithCVL1Ratios()}},
		{"negative alpha", []CVOption{WithAlphas(1, -1)}},
		{"zero n_alphas", []CVOption{WithCVL1Ratios(1), WithNAlphas(0)}},
		{"bad eps", []CVOption{WithCVL1Ratios(1), WithMinAlphaRatio(1)}},
		{"one fold", []CVOption{WithCVL1Ratios(1), WithCV(1)}},
		{"irls with l1", []CVOption{WithCVL1Ratios(0.5), WithCVSolver(SolverIRLS)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGeneralizedLinearRegressorCV(tt.opts...)
			assert.Error(t, err)
		})
	}

	m, err := NewGeneralizedLinearRegressorCV(WithAlphas(0.1))
	require.NoError(t, err)
	_, err = m.Predict(mat.NewDense(1, 1, nil))
	assert.Error(t, err)
}

func TestAlphaGrid_ZeroGradientFillsTiny(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := []float64{3, 3, 3, 3}

	pr, err := newProblem(X, y, nil, true, Normal, Identity)
	require.NoError(t, err)
	assert.Equal(t, []float64{1e-15, 1e-15, 1e-15}, alphaGrid(pr, 0.5, 3, 1e-3))

	pr, err = newProblem(X, []float64{1, 2, 3, 5}, nil, true, Normal, Identity)
	require.NoError(t, err)
	grid := alphaGrid(pr, 1, 1, 1e-3)
	require.Len(t, grid, 1)
	assert.Greater(t, grid[0], 0.0)
}
