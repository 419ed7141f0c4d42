package fitsparse

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/core/model"
	"github.com/YuminosukeSato/glmbench/pkg/errors"
	"github.com/YuminosukeSato/glmbench/pkg/log"
)

// Options controls a Fit call. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	// Start is the initial coefficient vector. nil means all zeros.
	Start []float64
	// Tolerance on ‖Δβ‖₂ / (1 + ‖β‖₂).
	Tolerance float64
	L1        float64
	L2        float64
	// MaximumIterations bounds the number of Newton iterations.
	MaximumIterations int
	// MaxFullSweepsPerIteration is the number of coordinate sweeps over the
	// quadratic model in every iteration.
	MaxFullSweepsPerIteration int
}

// DefaultOptions returns tolerance 1e-4, no penalty, 100 iterations and one
// sweep per iteration.
func DefaultOptions() Options {
	return Options{
		Tolerance:                 1e-4,
		MaximumIterations:         100,
		MaxFullSweepsPerIteration: 1,
	}
}

// Result is the outcome of Fit.
type Result struct {
	Coefficients []float64
	Converged    bool
	Iterations   int
}

func (o Options) validate(p int) error {
	if !(o.Tolerance > 0) {
		return errors.NewValidationError("tolerance", "must be positive", o.Tolerance)
	}
	if o.L1 < 0 || math.IsNaN(o.L1) {
		return errors.NewValidationError("l1_regularizer", "must be non-negative", o.L1)
	}
	if o.L2 < 0 || math.IsNaN(o.L2) {
		return errors.NewValidationError("l2_regularizer", "must be non-negative", o.L2)
	}
	if o.MaximumIterations < 1 {
		return errors.NewValidationError("maximum_iterations", "must be at least 1", o.MaximumIterations)
	}
	if o.MaxFullSweepsPerIteration < 1 {
		return errors.NewValidationError("maximum_full_sweeps_per_iteration", "must be at least 1", o.MaxFullSweepsPerIteration)
	}
	if o.Start != nil && len(o.Start) != p {
		return errors.NewDimensionError("fitsparse.Fit", p, len(o.Start), 1)
	}
	return nil
}

// Fit minimizes Σ nll(y_i, x_iᵀβ) + L1·‖β‖₁ + L2·‖β‖²₂ over all columns of X.
//
// Every iteration takes one full proximal Newton step with unit step size,
// there is no line search. ctx is checked before each iteration.
func Fit(ctx context.Context, X mat.Matrix, y []float64, model Model, opts Options) (res *Result, err error) {
	defer errors.Recover(&err, "fitsparse.Fit")

	if X == nil {
		return nil, errors.Wrap(errors.ErrEmptyData, "fitsparse.Fit")
	}
	d := newDesign(X)
	n, p := d.dims()
	if n == 0 || p == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "fitsparse.Fit")
	}
	if len(y) != n {
		return nil, errors.NewDimensionError("fitsparse.Fit", n, len(y), 0)
	}
	for _, v := range y {
		if !model.validY(v) {
			return nil, errors.NewValueError("fitsparse.Fit", "y is outside the domain of the "+model.String()+" model")
		}
	}
	if err := opts.validate(p); err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("fitsparse")

	beta := make([]float64, p)
	if opts.Start != nil {
		copy(beta, opts.Start)
	}

	var (
		eta   = make([]float64, n)
		resid = make([]float64, n)
		w     = make([]float64, n)
		grad  = make([]float64, p)
		prev  = make([]float64, p)
		delta = make([]float64, p)
		gram  = mat.NewSymDense(p, nil)
	)

	res = &Result{}
	for iter := 1; iter <= opts.MaximumIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "fitsparse.Fit")
		}

		d.linearPredictor(beta, eta)
		for i := range eta {
			resid[i] = model.mean(eta[i]) - y[i]
			w[i] = model.fisherWeight(eta[i])
		}
		d.gradientAndGram(resid, w, grad, gram)

		copy(prev, beta)
		sweep(gram, grad, prev, beta, opts.L1, opts.L2, opts.MaxFullSweepsPerIteration)

		floats.SubTo(delta, beta, prev)
		res.Iterations = iter
		rel := floats.Norm(delta, 2) / (1 + floats.Norm(beta, 2))

		if logger.Enabled(ctx, log.LevelDebug) {
			logger.Debug("fitsparse iteration",
				log.IterationKey, iter,
				log.LossKey, objective(model, y, eta, prev, opts.L1, opts.L2),
				"relative_change", rel,
			)
		}

		if rel < opts.Tolerance {
			res.Converged = true
			break
		}
	}

	res.Coefficients = beta
	return res, nil
}

// sweep runs coordinate descent on the quadratic model around beta0
//
//	gᵀδ + ½δᵀHδ + l1‖β₀+δ‖₁ + l2‖β₀+δ‖²
//
// and leaves the minimizer in beta, which must hold beta0 on entry.
func sweep(h *mat.SymDense, g, beta0, beta []float64, l1, l2 float64, sweeps int) {
	p := len(beta)
	// hd = H·(β − β₀), kept current as coordinates move
	hd := make([]float64, p)
	for s := 0; s < sweeps; s++ {
		for j := 0; j < p; j++ {
			hjj := h.At(j, j)
			denom := hjj + 2*l2
			if denom <= 0 {
				continue
			}
			m := g[j] + hd[j]
			old := beta[j]
			next := model.SoftThreshold(hjj*old-m, l1) / denom
			if next == old {
				continue
			}
			step := next - old
			beta[j] = next
			for k := 0; k < p; k++ {
				hd[k] += step * h.At(k, j)
			}
		}
	}
}

// objective is the penalized negative log-likelihood at beta given eta = Xβ.
func objective(model Model, y, eta, beta []float64, l1, l2 float64) float64 {
	var f float64
	for i := range y {
		f += model.nll(y[i], eta[i])
	}
	return f + l1*floats.Norm(beta, 1) + l2*floats.Dot(beta, beta)
}
