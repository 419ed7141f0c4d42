package linear

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/core/model"
	"github.com/YuminosukeSato/glmbench/core/parallel"
	"github.com/YuminosukeSato/glmbench/metrics"
	"github.com/YuminosukeSato/glmbench/pkg/errors"
	"github.com/YuminosukeSato/glmbench/pkg/log"
	"github.com/YuminosukeSato/glmbench/sklearn/model_selection"
)

var _ model.Regressor = (*ElasticNetCV)(nil)

// ElasticNetCV は交差検証で alpha と l1_ratio を選ぶ ElasticNet
type ElasticNetCV struct {
	state *model.StateManager
	p     params

	Coef_      []float64
	Intercept_ float64
	Alpha_     float64
	L1Ratio_   float64
	// Alphas_ は l1_ratio ごとの alpha グリッド（降順）
	Alphas_ [][]float64
	// MSEPath_[l1][alpha][fold]
	MSEPath_ [][][]float64
	NIter_   int
}

// NewElasticNetCV は新しいElasticNetCVを作成する
func NewElasticNetCV(opts ...Option) *ElasticNetCV {
	p := defaultParams()
	for _, opt := range opts {
		opt(&p)
	}
	return &ElasticNetCV{state: model.NewStateManager(), p: p}
}

func (e *ElasticNetCV) validate() error {
	if len(e.p.l1Ratios) == 0 {
		return errors.NewValidationError("l1_ratio", "at least one value is required", 0)
	}
	for _, l1 := range e.p.l1Ratios {
		if !(l1 >= 0 && l1 <= 1) {
			return errors.NewValidationError("l1_ratio", "must be in [0, 1]", l1)
		}
		if l1 == 0 && e.p.alphas == nil {
			return errors.NewValidationError("l1_ratio",
				"automatic alpha grid needs l1_ratio > 0; pass alphas explicitly", l1)
		}
	}
	if e.p.alphas == nil {
		if e.p.nAlphas < 1 {
			return errors.NewValidationError("n_alphas", "must be at least 1", e.p.nAlphas)
		}
		if !(e.p.eps > 0 && e.p.eps < 1) {
			return errors.NewValidationError("eps", "must be in (0, 1)", e.p.eps)
		}
	}
	if e.p.cv < 2 {
		return errors.NewValidationError("cv", "must be at least 2", e.p.cv)
	}
	return validateSolver(e.p)
}

// Fit は交差検証で alpha と l1_ratio を選び、全データで再学習する
func (e *ElasticNetCV) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "ElasticNetCV.Fit")

	if err := e.validate(); err != nil {
		return err
	}
	yv, err := model.ResponseVector("ElasticNetCV.Fit", y)
	if err != nil {
		return err
	}
	full, err := centre("ElasticNetCV.Fit", X, yv, e.p.fitIntercept)
	if err != nil {
		return err
	}
	n, p := X.Dims()

	alphas := make([][]float64, len(e.p.l1Ratios))
	for li, l1 := range e.p.l1Ratios {
		if e.p.alphas != nil {
			alphas[li] = slices.Clone(e.p.alphas)
			slices.Sort(alphas[li])
			slices.Reverse(alphas[li])
			continue
		}
		alphas[li] = alphaGrid(full, l1, e.p.nAlphas, e.p.eps)
	}

	folds, err := model_selection.NewKFold(e.p.cv, false, 0).Split(n)
	if err != nil {
		return err
	}

	path := make([][][]float64, len(e.p.l1Ratios))
	for li := range path {
		path[li] = make([][]float64, len(alphas[li]))
		for ai := range path[li] {
			path[li][ai] = make([]float64, len(folds))
		}
	}

	jobs := len(e.p.l1Ratios) * len(folds)
	err = parallel.ForEach(jobs, e.p.nJobs, func(job int) error {
		li, fi := job/len(folds), job%len(folds)
		return e.fitFold(X, yv, folds[fi], e.p.l1Ratios[li], alphas[li], func(ai int, mse float64) {
			path[li][ai][fi] = mse
		})
	})
	if err != nil {
		return err
	}

	bestL, bestA := 0, 0
	bestMSE := math.Inf(1)
	for li := range path {
		for ai := range path[li] {
			if mean := floats.Sum(path[li][ai]) / float64(len(folds)); mean < bestMSE {
				bestMSE, bestL, bestA = mean, li, ai
			}
		}
	}

	refit := NewElasticNet(
		WithAlpha(alphas[bestL][bestA]),
		WithL1Ratio(e.p.l1Ratios[bestL]),
		WithFitIntercept(e.p.fitIntercept),
		WithTol(e.p.tol),
		WithMaxIter(e.p.maxIter),
	)
	if err := refit.Fit(X, y); err != nil {
		return err
	}

	e.Coef_ = refit.Coef_
	e.Intercept_ = refit.Intercept_
	e.NIter_ = refit.NIter_
	e.Alpha_ = alphas[bestL][bestA]
	e.L1Ratio_ = e.p.l1Ratios[bestL]
	e.Alphas_ = alphas
	e.MSEPath_ = path
	e.state.SetFitted()
	e.state.SetDimensions(p, n)

	log.GetLoggerWithName("linear").Info("cross-validation completed",
		log.ModelNameKey, "ElasticNetCV",
		log.OperationKey, log.OperationFit,
		log.NFoldsKey, len(folds),
		log.AlphaKey, e.Alpha_,
		log.L1RatioKey, e.L1Ratio_,
		log.MSEKey, bestMSE,
	)
	return nil
}

// fitFold は1つの fold で alpha パスをウォームスタートで学習し、検証 MSE を記録する
func (e *ElasticNetCV) fitFold(X mat.Matrix, y []float64, fold model_selection.Fold,
	l1 float64, alphas []float64, record func(ai int, mse float64)) error {
	train, err := centre("ElasticNetCV.Fit",
		model_selection.TakeRows(X, fold.TrainIndices),
		model_selection.TakeValues(y, fold.TrainIndices),
		e.p.fitIntercept)
	if err != nil {
		return err
	}
	Xte := model_selection.TakeRows(X, fold.TestIndices)
	yte := mat.NewVecDense(len(fold.TestIndices), model_selection.TakeValues(y, fold.TestIndices))

	_, p := X.Dims()
	w := make([]float64, p)
	for ai, alpha := range alphas {
		nIter, converged := coordinateDescent(train.X, train.y, w, alpha, l1, e.p.tol, e.p.maxIter)
		if !converged {
			errors.Warn(errors.NewConvergenceWarning("ElasticNetCV", nIter,
				"cross-validation fit did not converge"))
		}
		coef, intercept := train.coefficients(w)
		pred := predictLinear(Xte, coef, intercept)
		mse, err := metrics.MSE(yte, mat.NewVecDense(len(fold.TestIndices), pred.RawMatrix().Data))
		if err != nil {
			return err
		}
		record(ai, mse)
	}
	return nil
}

// alphaGrid は max|Xᶜᵀyᶜ|/(n·l1) から始まる対数等間隔グリッドを降順で返す
func alphaGrid(c *centred, l1Ratio float64, nAlphas int, eps float64) []float64 {
	n, p := c.X.Dims()
	var alphaMax float64
	for j := 0; j < p; j++ {
		alphaMax = math.Max(alphaMax, math.Abs(floats.Dot(mat.Col(nil, j, c.X), c.y)))
	}
	alphaMax /= float64(n) * l1Ratio

	grid := make([]float64, nAlphas)
	if alphaMax <= math.SmallestNonzeroFloat64 {
		for i := range grid {
			grid[i] = 1e-15
		}
		return grid
	}
	if nAlphas == 1 {
		grid[0] = alphaMax
		return grid
	}
	floats.LogSpan(grid, alphaMax*eps, alphaMax)
	slices.Reverse(grid)
	return grid
}

// Predict は入力データに対する予測を行う
func (e *ElasticNetCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := e.state.RequireFitted("ElasticNetCV", "Predict"); err != nil {
		return nil, err
	}
	_, cols := X.Dims()
	if err := e.state.RequireFeatures("ElasticNetCV.Predict", cols); err != nil {
		return nil, err
	}
	return predictLinear(X, e.Coef_, e.Intercept_), nil
}

// Score はモデルの決定係数（R²）を計算
func (e *ElasticNetCV) Score(X, y mat.Matrix) (float64, error) {
	return score(e, X, y)
}

// Coef は学習された重み係数を返す
func (e *ElasticNetCV) Coef() []float64 { return slices.Clone(e.Coef_) }

// Intercept は学習された切片を返す
func (e *ElasticNetCV) Intercept() float64 { return e.Intercept_ }
