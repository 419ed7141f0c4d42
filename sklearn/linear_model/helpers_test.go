package linear_model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/datasets"
	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

// assertAllClose checks |got - want| <= atol + rtol·|want| elementwise.
func assertAllClose(t *testing.T, want, got []float64, rtol, atol float64, msgAndArgs ...interface{}) {
	t.Helper()
	require.Len(t, got, len(want), msgAndArgs...)
	for i := range want {
		tol := atol + rtol*math.Abs(want[i])
		if diff := math.Abs(got[i] - want[i]); !(diff <= tol) {
			assert.Failf(t, "values differ",
				"index %d: got %.17g, want %.17g (|diff| = %.3g > %.3g) %v", i, got[i], want[i], diff, tol, msgAndArgs)
		}
	}
}

func assertClose(t *testing.T, want, got, rtol, atol float64, msgAndArgs ...interface{}) {
	t.Helper()
	assertAllClose(t, []float64{want}, []float64{got}, rtol, atol, msgAndArgs...)
}

func column(m mat.Matrix) []float64 {
	return mat.Col(nil, 0, m)
}

// countWarnings routes library warnings into a counter for the duration of t.
func countWarnings(t *testing.T) *int {
	t.Helper()
	n := 0
	prev := errors.SetWarningHandler(func(error) { n++ })
	t.Cleanup(func() { errors.SetWarningHandler(prev) })
	return &n
}

// splitRegression reproduces a make_regression problem with nPredict
// held-out rows.
func splitRegression(t *testing.T, nSamples, nFeatures, nInformative, nPredict int) (X, T *mat.Dense, y *mat.Dense) {
	t.Helper()
	full, target, _, err := datasets.MakeRegression(datasets.Config{
		NSamples:     nSamples + nPredict,
		NFeatures:    nFeatures,
		NInformative: nInformative,
		Noise:        0.5,
		RandomState:  42,
	})
	require.NoError(t, err)
	X = mat.DenseCopyOf(full.Slice(0, nSamples, 0, nFeatures))
	if nPredict > 0 {
		T = mat.DenseCopyOf(full.Slice(nSamples, nSamples+nPredict, 0, nFeatures))
	}
	y = mat.NewDense(nSamples, 1, target[:nSamples])
	return X, T, y
}

func poissonData(t *testing.T, n, p int, seed uint64) (*mat.Dense, *mat.Dense) {
	t.Helper()
	X, y, _, err := datasets.MakePoissonRegression(datasets.Config{
		NSamples: n, NFeatures: p, NInformative: p, Bias: 0.5, RandomState: seed,
	})
	require.NoError(t, err)
	return X, mat.NewDense(n, 1, y)
}
