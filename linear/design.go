package linear

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
	"github.com/YuminosukeSato/glmbench/preprocessing"
)

// centred is a least-squares design with X and y centred when an intercept
// is fitted. Coefficients found on it map back through the scaler.
type centred struct {
	X      *mat.Dense
	y      []float64
	yMean  float64
	scaler *preprocessing.StandardScaler
}

func centre(op string, X mat.Matrix, y []float64, fitIntercept bool) (*centred, error) {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if len(y) != n {
		return nil, errors.NewDimensionError(op, n, len(y), 0)
	}

	scaler := preprocessing.NewStandardScaler(fitIntercept, false)
	if err := scaler.Fit(X); err != nil {
		return nil, err
	}
	Xc, err := scaler.TransformDense(X)
	if err != nil {
		return nil, err
	}

	c := &centred{X: Xc, y: make([]float64, n), scaler: scaler}
	copy(c.y, y)
	if fitIntercept {
		c.yMean = floats.Sum(y) / float64(n)
		floats.AddConst(-c.yMean, c.y)
	}
	return c, nil
}

// coefficients maps w on the centred design to (coef, intercept).
func (c *centred) coefficients(w []float64) ([]float64, float64) {
	coef, intercept, err := c.scaler.UnscaleCoef(w, c.yMean)
	if err != nil {
		// the scaler was fitted on this design
		panic(err)
	}
	return coef, intercept
}

// predictLinear returns intercept + X·coef as an n×1 matrix.
func predictLinear(X mat.Matrix, coef []float64, intercept float64) *mat.Dense {
	rows, cols := X.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		pred := intercept
		for j := 0; j < cols; j++ {
			pred += X.At(i, j) * coef[j]
		}
		out.Set(i, 0, pred)
	}
	return out
}
