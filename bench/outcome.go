// Package bench runs GLM fitting routines behind a uniform benchmark
// interface. An adapter either returns timing and fitted parameters or
// abstains with a reason when it cannot handle the input.
package bench

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
	"github.com/YuminosukeSato/glmbench/pkg/log"
)

// Data is the input of a benchmark run. X may be dense or sparse.
// Weights is nil when the problem is unweighted.
type Data struct {
	X       mat.Matrix
	Y       []float64
	Weights []float64
}

// Result is the payload of a completed run.
type Result struct {
	// Runtime is the wall-clock time of the fit in seconds.
	Runtime   float64
	Intercept float64
	Coef      []float64
	// Model is the raw object returned by the fitting routine.
	Model     any
	NIter     int
	Converged bool
}

// Outcome is either a Result or the reason the adapter abstained.
type Outcome struct {
	Result *Result
	Reason string
}

// Skipped reports whether the adapter abstained.
func (o Outcome) Skipped() bool { return o.Result == nil }

// ToMap returns the result under the keys runtime, intercept, coef,
// model_obj and n_iter. A skipped outcome gives an empty map.
func (o Outcome) ToMap() map[string]any {
	out := map[string]any{}
	if o.Skipped() {
		return out
	}
	out["runtime"] = o.Result.Runtime
	out["intercept"] = o.Result.Intercept
	out["coef"] = o.Result.Coef
	out["model_obj"] = o.Result.Model
	out["n_iter"] = o.Result.NIter
	return out
}

// skip emits one SkipWarning and returns the abstained outcome.
func skip(logger log.Logger, library, reason string) Outcome {
	errors.Warn(errors.NewSkipWarning(library, reason))
	logger.Info("benchmark skipped",
		log.ErrorCodeKey, log.ErrorSkipped,
		log.ReasonKey, reason,
	)
	return Outcome{Reason: reason}
}

func validate(op string, data Data, alpha, l1Ratio float64) (int, error) {
	if data.X == nil {
		return 0, errors.Wrap(errors.ErrEmptyData, op)
	}
	n, _ := data.X.Dims()
	if len(data.Y) != n {
		return 0, errors.NewDimensionError(op, n, len(data.Y), 0)
	}
	if data.Weights != nil && len(data.Weights) != n {
		return 0, errors.NewDimensionError(op, n, len(data.Weights), 0)
	}
	if !(alpha >= 0) {
		return 0, errors.NewValidationError("alpha", "must be non-negative", alpha)
	}
	if !(l1Ratio >= 0 && l1Ratio <= 1) {
		return 0, errors.NewValidationError("l1_ratio", "must be in [0, 1]", l1Ratio)
	}
	return n, nil
}

func since(start time.Time) float64 {
	return time.Since(start).Seconds()
}
