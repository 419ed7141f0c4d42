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

var (
	_ model.Regressor = (*Ridge)(nil)
	_ model.Regressor = (*RidgeCV)(nil)
)

// Ridge は L2 正則化付き最小二乗回帰
//
//	‖y - Xw - b‖² + α‖w‖²
//
// 中心化した正規方程式 (XᶜᵀXᶜ + αI)w = Xᶜᵀyᶜ をコレスキー分解で解く。
// ElasticNet と異なり損失は n で割らない。
type Ridge struct {
	state *model.StateManager
	p     params

	Coef_      []float64
	Intercept_ float64
}

// NewRidge は新しいRidgeを作成する
func NewRidge(opts ...Option) *Ridge {
	p := defaultParams()
	for _, opt := range opts {
		opt(&p)
	}
	return &Ridge{state: model.NewStateManager(), p: p}
}

// Fit はモデルを訓練データで学習
func (r *Ridge) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "Ridge.Fit")

	if r.p.alpha < 0 || math.IsNaN(r.p.alpha) || math.IsInf(r.p.alpha, 0) {
		return errors.NewValidationError("alpha", "must be finite and non-negative", r.p.alpha)
	}
	yv, err := model.ResponseVector("Ridge.Fit", y)
	if err != nil {
		return err
	}
	c, err := centre("Ridge.Fit", X, yv, r.p.fitIntercept)
	if err != nil {
		return err
	}
	w, err := solveRidge(c, r.p.alpha)
	if err != nil {
		return err
	}

	n, p := X.Dims()
	r.Coef_, r.Intercept_ = c.coefficients(w)
	r.state.SetFitted()
	r.state.SetDimensions(p, n)
	return nil
}

func solveRidge(c *centred, alpha float64) ([]float64, error) {
	_, p := c.X.Dims()

	gram := mat.NewSymDense(p, nil)
	gram.SymOuterK(1, c.X.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+alpha)
	}

	rhs := mat.NewVecDense(p, nil)
	rhs.MulVec(c.X.T(), mat.NewVecDense(len(c.y), c.y))

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return nil, errors.NewModelError("Ridge.Fit", "normal equations are not positive definite", errors.ErrSingularMatrix)
	}
	w := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(w, rhs); err != nil {
		return nil, errors.NewModelError("Ridge.Fit", "failed to solve normal equations", err)
	}
	return w.RawVector().Data, nil
}

// Predict は入力データに対する予測を行う
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := r.state.RequireFitted("Ridge", "Predict"); err != nil {
		return nil, err
	}
	_, cols := X.Dims()
	if err := r.state.RequireFeatures("Ridge.Predict", cols); err != nil {
		return nil, err
	}
	return predictLinear(X, r.Coef_, r.Intercept_), nil
}

// Score はモデルの決定係数（R²）を計算
func (r *Ridge) Score(X, y mat.Matrix) (float64, error) {
	return score(r, X, y)
}

// Coef は学習された重み係数を返す
func (r *Ridge) Coef() []float64 { return slices.Clone(r.Coef_) }

// Intercept は学習された切片を返す
func (r *Ridge) Intercept() float64 { return r.Intercept_ }

// RidgeCV は K-fold 交差検証（評価指標は R²）で alpha を選ぶ Ridge
type RidgeCV struct {
	state *model.StateManager
	p     params

	Coef_      []float64
	Intercept_ float64
	Alpha_     float64
	// Scores_[alpha] は各 fold の R²
	Scores_ [][]float64
}

// NewRidgeCV は新しいRidgeCVを作成する。alpha の既定の候補は 0.1, 1, 10。
func NewRidgeCV(opts ...Option) *RidgeCV {
	p := defaultParams()
	p.alphas = []float64{0.1, 1, 10}
	for _, opt := range opts {
		opt(&p)
	}
	return &RidgeCV{state: model.NewStateManager(), p: p}
}

// Fit は各 alpha の fold 平均 R² を比較し、最良の alpha で全データを再学習する。
// 同点の場合は先に指定された alpha を選ぶ。
func (r *RidgeCV) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RidgeCV.Fit")

	if len(r.p.alphas) == 0 {
		return errors.NewValidationError("alphas", "must not be empty", 0)
	}
	for _, a := range r.p.alphas {
		if a < 0 || math.IsNaN(a) || math.IsInf(a, 0) {
			return errors.NewValidationError("alphas", "must be finite and non-negative", a)
		}
	}
	yv, err := model.ResponseVector("RidgeCV.Fit", y)
	if err != nil {
		return err
	}
	n, p := X.Dims()
	folds, err := model_selection.NewKFold(r.p.cv, false, 0).Split(n)
	if err != nil {
		return err
	}

	scores := make([][]float64, len(r.p.alphas))
	for ai := range scores {
		scores[ai] = make([]float64, len(folds))
	}
	err = parallel.ForEach(len(folds), r.p.nJobs, func(fi int) error {
		return r.scoreFold(X, yv, folds[fi], func(ai int, s float64) {
			scores[ai][fi] = s
		})
	})
	if err != nil {
		return err
	}

	best, bestScore := 0, math.Inf(-1)
	for ai, s := range scores {
		if mean := floats.Sum(s) / float64(len(s)); mean > bestScore {
			best, bestScore = ai, mean
		}
	}

	refit := NewRidge(WithAlpha(r.p.alphas[best]), WithFitIntercept(r.p.fitIntercept))
	if err := refit.Fit(X, y); err != nil {
		return err
	}
	r.Coef_ = refit.Coef_
	r.Intercept_ = refit.Intercept_
	r.Alpha_ = r.p.alphas[best]
	r.Scores_ = scores
	r.state.SetFitted()
	r.state.SetDimensions(p, n)

	log.GetLoggerWithName("linear").Info("cross-validation completed",
		log.ModelNameKey, "RidgeCV",
		log.OperationKey, log.OperationFit,
		log.NFoldsKey, len(folds),
		log.AlphaKey, r.Alpha_,
		log.R2ScoreKey, bestScore,
	)
	return nil
}

func (r *RidgeCV) scoreFold(X mat.Matrix, y []float64, fold model_selection.Fold, record func(ai int, s float64)) error {
	train, err := centre("RidgeCV.Fit",
		model_selection.TakeRows(X, fold.TrainIndices),
		model_selection.TakeValues(y, fold.TrainIndices),
		r.p.fitIntercept)
	if err != nil {
		return err
	}
	Xte := model_selection.TakeRows(X, fold.TestIndices)
	yte := mat.NewVecDense(len(fold.TestIndices), model_selection.TakeValues(y, fold.TestIndices))

	for ai, alpha := range r.p.alphas {
		w, err := solveRidge(train, alpha)
		if err != nil {
			return err
		}
		coef, intercept := train.coefficients(w)
		pred := predictLinear(Xte, coef, intercept)
		s, err := metrics.R2Score(yte, mat.NewVecDense(len(fold.TestIndices), pred.RawMatrix().Data))
		if err != nil {
			return err
		}
		record(ai, s)
	}
	return nil
}

// Predict は入力データに対する予測を行う
func (r *RidgeCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := r.state.RequireFitted("RidgeCV", "Predict"); err != nil {
		return nil, err
	}
	_, cols := X.Dims()
	if err := r.state.RequireFeatures("RidgeCV.Predict", cols); err != nil {
		return nil, err
	}
	return predictLinear(X, r.Coef_, r.Intercept_), nil
}

// Score はモデルの決定係数（R²）を計算
func (r *RidgeCV) Score(X, y mat.Matrix) (float64, error) {
	return score(r, X, y)
}

// Coef は学習された重み係数を返す
func (r *RidgeCV) Coef() []float64 { return slices.Clone(r.Coef_) }

// Intercept は学習された切片を返す
func (r *RidgeCV) Intercept() float64 { return r.Intercept_ }
