package linear_model

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/YuminosukeSato/glmbench/core/model"
	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

// Solver selects the optimisation backend.
type Solver int

const (
	// SolverAuto uses cd when the L1 part of the penalty is positive and
	// irls otherwise.
	SolverAuto Solver = iota
	// SolverCD is IRLS with penalised coordinate descent on the weighted
	// Gram matrix. It supports any l1_ratio.
	SolverCD
	// SolverIRLS is Newton/IRLS with a Cholesky solve. L2 only.
	SolverIRLS
	// SolverLBFGS is gonum's L-BFGS on the smooth objective. L2 only.
	SolverLBFGS
)

// ParseSolver maps a solver name to a Solver.
func ParseSolver(name string) (Solver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return SolverAuto, nil
	case "cd":
		return SolverCD, nil
	case "irls":
		return SolverIRLS, nil
	case "lbfgs", "l-bfgs":
		return SolverLBFGS, nil
	}
	return 0, errors.NewValidationError("solver", "unknown solver", name)
}

func (s Solver) String() string {
	switch s {
	case SolverAuto:
		return "auto"
	case SolverCD:
		return "cd"
	case SolverIRLS:
		return "irls"
	case SolverLBFGS:
		return "lbfgs"
	}
	return "unknown"
}

func (s Solver) valid() bool {
	return s >= SolverAuto && s <= SolverLBFGS
}

// supports reports whether the solver can handle the given l1_ratio.
func (s Solver) supports(l1Ratio float64) bool {
	switch s {
	case SolverIRLS, SolverLBFGS:
		return l1Ratio == 0
	}
	return true
}

// resolve turns SolverAuto into a concrete solver for l1Ratio.
func (s Solver) resolve(l1Ratio float64) Solver {
	if s != SolverAuto {
		return s
	}
	if l1Ratio > 0 {
		return SolverCD
	}
	return SolverIRLS
}

// solveSettings are the stopping rules shared by all backends.
type solveSettings struct {
	gradientTol float64
	maxIter     int
}

// solveResult reports how a backend finished.
type solveResult struct {
	nIter     int
	converged bool
}

// strategy minimises F(β) for a fixed penalty, updating beta in place.
type strategy interface {
	solve(pr *problem, pen penalty, beta []float64, cfg solveSettings) (solveResult, error)
}

func (s Solver) strategy(l1Ratio float64) (strategy, error) {
	switch r := s.resolve(l1Ratio); r {
	case SolverCD:
		return cdSolver{}, nil
	case SolverIRLS, SolverLBFGS:
		if l1Ratio != 0 {
			return nil, errors.NewValidationError("solver", r.String()+" only supports l1_ratio = 0", l1Ratio)
		}
		if r == SolverIRLS {
			return irlsSolver{}, nil
		}
		return lbfgsSolver{}, nil
	}
	return nil, errors.NewValidationError("solver", "unknown solver", int(s))
}

// lineSearch backtracks from the full step beta+d until the objective does
// not increase. It returns false when no acceptable step was found.
func lineSearch(pr *problem, pen penalty, beta, d []float64, fOld float64) bool {
	trial := make([]float64, len(beta))
	slack := 1e-12 * math.Max(1, math.Abs(fOld))
	for t := 1.0; t > 1e-10; t *= 0.5 {
		floats.AddScaledTo(trial, beta, t, d)
		if f := pr.objective(trial, pen); f <= fOld+slack {
			copy(beta, trial)
			return true
		}
	}
	return false
}

// cdSolver runs IRLS outer iterations. Each one minimises the penalised
// quadratic model of the objective by cyclic coordinate descent on the
// Fisher Gram matrix, keeping the model gradient up to date after every
// coordinate change.
type cdSolver struct{}

const maxInnerSweeps = 10000

func (cdSolver) solve(pr *problem, pen penalty, beta []float64, cfg solveSettings) (solveResult, error) {
	q := len(beta)
	g := make([]float64, q)
	hess := mat.NewSymDense(q, nil)
	gram := make([]float64, q*q)
	next := make([]float64, q)
	mg := make([]float64, q)
	step := make([]float64, q)

	for it := 0; it < cfg.maxIter; it++ {
		pr.gradient(beta, g, hess)
		if subgradientNorm(g, beta, pen) <= cfg.gradientTol {
			return solveResult{nIter: it, converged: true}, nil
		}

		for i := 0; i < q; i++ {
			for j := 0; j < q; j++ {
				gram[i*q+j] = hess.At(i, j)
			}
		}

		copy(next, beta)
		copy(mg, g)
		coordinateDescent(gram, mg, next, pen, cfg.gradientTol)

		floats.SubTo(step, next, beta)
		if pr.isQuadratic() {
			copy(beta, next)
			continue
		}
		fOld := pr.objective(beta, pen)
		if !lineSearch(pr, pen, beta, step, fOld) {
			return solveResult{nIter: it + 1}, nil
		}
	}

	pr.gradient(beta, g, nil)
	converged := subgradientNorm(g, beta, pen) <= cfg.gradientTol
	return solveResult{nIter: cfg.maxIter, converged: converged}, nil
}

// coordinateDescent minimises ½δᵀHδ + gᵀδ + penalty(β+δ) over β in place,
// where mg starts as g and tracks the model gradient Hδ + g.
func coordinateDescent(gram, mg, beta []float64, pen penalty, tol float64) {
	q := len(beta)
	l1, l2 := pen.l1(), pen.l2()
	for sweep := 0; sweep < maxInnerSweeps; sweep++ {
		for j := 0; j < q; j++ {
			hjj := gram[j*q+j]
			if hjj <= 0 {
				continue
			}
			old := beta[j]
			var b float64
			if j < pen.offset {
				b = old - mg[j]/hjj
			} else {
				b = model.SoftThreshold(hjj*old-mg[j], l1) / (hjj + l2)
			}
			if b == old {
				continue
			}
			beta[j] = b
			floats.AddScaled(mg, b-old, gram[j*q:(j+1)*q])
		}
		if subgradientNorm(mg, beta, pen) <= tol {
			return
		}
	}
}

// irlsSolver takes Newton steps on the L2-penalised objective, solving the
// penalised normal equations with a Cholesky factorisation.
type irlsSolver struct{}

func (irlsSolver) solve(pr *problem, pen penalty, beta []float64, cfg solveSettings) (solveResult, error) {
	q := len(beta)
	g := make([]float64, q)
	hess := mat.NewSymDense(q, nil)
	step := mat.NewVecDense(q, nil)
	var chol mat.Cholesky

	for it := 0; it < cfg.maxIter; it++ {
		pr.gradient(beta, g, hess)
		pr.fullGradient(beta, g, pen)
		if floats.Norm(g, math.Inf(1)) <= cfg.gradientTol {
			return solveResult{nIter: it, converged: true}, nil
		}

		for j := pen.offset; j < q; j++ {
			hess.SetSym(j, j, hess.At(j, j)+pen.l2())
		}
		if ok := chol.Factorize(hess); !ok {
			return solveResult{nIter: it}, errors.NewModelError("irls", "Fisher information is not positive definite", errors.ErrSingularMatrix)
		}
		floats.Scale(-1, g)
		if err := chol.SolveVecTo(step, mat.NewVecDense(q, g)); err != nil {
			return solveResult{nIter: it}, errors.NewModelError("irls", "Newton step failed", err)
		}

		d := step.RawVector().Data
		if pr.isQuadratic() {
			floats.Add(beta, d)
			continue
		}
		if !lineSearch(pr, pen, beta, d, pr.objective(beta, pen)) {
			return solveResult{nIter: it + 1}, nil
		}
	}

	pr.gradient(beta, g, nil)
	pr.fullGradient(beta, g, pen)
	return solveResult{nIter: cfg.maxIter, converged: floats.Norm(g, math.Inf(1)) <= cfg.gradientTol}, nil
}

// lbfgsSolver minimises the smooth L2-penalised objective with gonum's
// limited-memory BFGS.
type lbfgsSolver struct{}

func (lbfgsSolver) solve(pr *problem, pen penalty, beta []float64, cfg solveSettings) (solveResult, error) {
	q := len(beta)
	prob := optimize.Problem{
		Func: func(x []float64) float64 {
			return pr.objective(x, pen)
		},
		Grad: func(grad, x []float64) {
			pr.gradient(x, grad, nil)
			pr.fullGradient(x, grad, pen)
		},
	}
	settings := optimize.Settings{
		GradientThreshold: cfg.gradientTol,
		MajorIterations:   cfg.maxIter,
		Converger:         optimize.NeverTerminate{},
	}

	result, err := optimize.Minimize(prob, beta, &settings, &optimize.LBFGS{})
	if result == nil {
		return solveResult{}, errors.Wrap(err, "lbfgs optimization failed")
	}
	copy(beta, result.X)

	g := make([]float64, q)
	prob.Grad(g, beta)
	converged := floats.Norm(g, math.Inf(1)) <= cfg.gradientTol
	// A line-search failure at the floating-point floor still leaves the best
	// point found in result.X; only the convergence flag reflects it.
	return solveResult{nIter: result.Stats.MajorIterations, converged: converged}, nil
}
