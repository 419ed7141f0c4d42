package model

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

// ResponseVector flattens an n×1 target (or a mat.Vector) into a new slice.
// op names the caller in the DimensionError returned for wider targets.
func ResponseVector(op string, y mat.Matrix) ([]float64, error) {
	if v, ok := y.(mat.Vector); ok {
		out := make([]float64, v.Len())
		for i := range out {
			out[i] = v.AtVec(i)
		}
		return out, nil
	}
	_, c := y.Dims()
	if c != 1 {
		return nil, errors.NewDimensionError(op, 1, c, 1)
	}
	return mat.Col(nil, 0, y), nil
}

// SoftThreshold は sign(z)·max(|z| − gamma, 0) を返す。NaN はそのまま伝播する。
func SoftThreshold(z, gamma float64) float64 {
	if math.Abs(z) <= gamma {
		return 0
	}
	return z - math.Copysign(gamma, z)
}
