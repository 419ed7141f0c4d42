package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/YuminosukeSato/glmbench/fitsparse"
	"github.com/YuminosukeSato/glmbench/pkg/errors"
	"github.com/YuminosukeSato/glmbench/pkg/log"
	"github.com/YuminosukeSato/glmbench/sparse"
)

const (
	// fitsparse fails on sparse designs below this many rows.
	minRowsSparse = 156
	minRowsDense  = 38

	fitSparseTolerance = 1e-2
	// coefficients diverge to ±Inf past two iterations
	fitSparseMaxIterations = 2
)

// FitSparse benchmarks fitsparse.Fit on data. distribution must be
// "gaussian" or "poisson" (case-insensitive), anything else is an error
// wrapping errors.ErrNotImplemented.
//
// The adapter abstains when data is weighted, when a sparse X has fewer
// than 156 rows, or when X has fewer than 38 rows. Non-finite fitted
// coefficients are returned as a NumericalInstabilityError.
func FitSparse(data Data, distribution string, alpha, l1Ratio float64) (Outcome, error) {
	return FitSparseContext(context.Background(), data, distribution, alpha, l1Ratio)
}

// FitSparseContext is FitSparse with a context passed on to the fit.
func FitSparseContext(ctx context.Context, data Data, distribution string, alpha, l1Ratio float64) (Outcome, error) {
	const library = "fitsparse"

	model, err := fitsparse.ParseModel(distribution)
	if err != nil {
		return Outcome{}, err
	}
	// weights abstain before any shape check
	if data.Weights != nil {
		logger := log.GetLoggerWithName("bench").With(log.LibraryKey, library)
		return skip(logger, library, "fit_sparse doesn't support weights"), nil
	}
	n, err := validate("bench.FitSparse", data, alpha, l1Ratio)
	if err != nil {
		return Outcome{}, err
	}

	isSparse := sparse.IsSparse(data.X)
	logger := log.GetLoggerWithName("bench").With(
		log.LibraryKey, library,
		log.SamplesKey, n,
		log.SparseKey, isSparse,
	)

	switch {
	case isSparse && n < minRowsSparse:
		return skip(logger, library, fmt.Sprintf("fit_sparse doesn't work with fewer than %d rows when sparse", minRowsSparse)), nil
	case n < minRowsDense:
		return skip(logger, library, fmt.Sprintf("fit_sparse doesn't work with fewer than %d rows", minRowsDense)), nil
	}

	X := sparse.PrependIntercept(data.X)
	_, p := X.Dims()

	opts := fitsparse.Options{
		Start:                     make([]float64, p),
		Tolerance:                 fitSparseTolerance,
		L1:                        alpha * l1Ratio,
		L2:                        alpha * (1 - l1Ratio),
		MaximumIterations:         fitSparseMaxIterations,
		MaxFullSweepsPerIteration: 1,
	}

	start := time.Now()
	fit, err := fitsparse.Fit(ctx, X, data.Y, model, opts)
	runtime := since(start)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "bench.FitSparse")
	}
	if err := errors.CheckNumericalStability("bench.FitSparse", fit.Coefficients, fit.Iterations); err != nil {
		logger.Error("non-finite coefficients", err, log.IterationKey, fit.Iterations)
		return Outcome{}, err
	}

	logger.Info("benchmark completed",
		log.FeaturesKey, p-1,
		log.DurationMsKey, runtime*1e3,
		log.IterationKey, fit.Iterations,
		log.ConvergedKey, fit.Converged,
	)

	return Outcome{Result: &Result{
		Runtime:   runtime,
		Intercept: fit.Coefficients[0],
		Coef:      fit.Coefficients[1:],
		Model:     fit,
		NIter:     fit.Iterations,
		Converged: fit.Converged,
	}}, nil
}
