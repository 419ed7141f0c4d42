package errors

import (
	"math"
)

// CheckNumericalStability checks if values contain NaN or Inf
// and returns an error if numerical instability is detected.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// ClipValue clips value to [lo, hi].
func ClipValue(value, lo, hi float64) float64 {
	return math.Min(math.Max(value, lo), hi)
}

const (
	// exp(MaxExp) is finite in float64
	MaxExp = 700.0
	// LogFloor is the smallest argument StabilizeLog passes to math.Log.
	LogFloor = 1e-10
)

// StabilizeLog returns log(max(value, LogFloor)). NaN stays NaN.
func StabilizeLog(value float64) float64 {
	if value < LogFloor {
		return math.Log(LogFloor)
	}
	return math.Log(value)
}

// StabilizeExp returns exp(min(value, MaxExp)), so it never overflows to
// +Inf. NaN stays NaN.
func StabilizeExp(value float64) float64 {
	if value > MaxExp {
		value = MaxExp
	}
	return math.Exp(value)
}
