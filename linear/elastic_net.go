package linear

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/core/model"
	"github.com/YuminosukeSato/glmbench/metrics"
	"github.com/YuminosukeSato/glmbench/pkg/errors"
	"github.com/YuminosukeSato/glmbench/pkg/log"
)

var _ model.Regressor = (*ElasticNet)(nil)

// ElasticNet は L1 と L2 を組み合わせた正則化付き最小二乗回帰
//
// 目的関数:
//
//	1/(2n)‖y - Xw - b‖² + α·l1·‖w‖₁ + α·(1-l1)/2·‖w‖²
//
// 切片を学習する場合は X と y を中心化し、残差を更新しながら巡回座標降下法で解く。
// 劣勾配の∞ノルムが tol 以下になった時点で収束とみなす。
type ElasticNet struct {
	state *model.StateManager
	p     params

	Coef_      []float64
	Intercept_ float64
	NIter_     int
	Converged_ bool
}

// NewElasticNet は新しいElasticNetを作成する
func NewElasticNet(opts ...Option) *ElasticNet {
	p := defaultParams()
	for _, opt := range opts {
		opt(&p)
	}
	return &ElasticNet{state: model.NewStateManager(), p: p}
}

func (e *ElasticNet) validate() error {
	if e.p.alpha < 0 || math.IsNaN(e.p.alpha) || math.IsInf(e.p.alpha, 0) {
		return errors.NewValidationError("alpha", "must be finite and non-negative", e.p.alpha)
	}
	if !(e.p.l1Ratio >= 0 && e.p.l1Ratio <= 1) {
		return errors.NewValidationError("l1_ratio", "must be in [0, 1]", e.p.l1Ratio)
	}
	return validateSolver(e.p)
}

func validateSolver(p params) error {
	if !(p.tol > 0) {
		return errors.NewValidationError("tol", "must be positive", p.tol)
	}
	if p.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", p.maxIter)
	}
	return nil
}

// Fit はモデルを訓練データで学習
func (e *ElasticNet) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "ElasticNet.Fit")

	if err := e.validate(); err != nil {
		return err
	}
	yv, err := model.ResponseVector("ElasticNet.Fit", y)
	if err != nil {
		return err
	}
	c, err := centre("ElasticNet.Fit", X, yv, e.p.fitIntercept)
	if err != nil {
		return err
	}

	n, p := X.Dims()
	w := make([]float64, p)
	nIter, converged := coordinateDescent(c.X, c.y, w, e.p.alpha, e.p.l1Ratio, e.p.tol, e.p.maxIter)
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("ElasticNet", nIter,
			"consider increasing max_iter or tol"))
	}

	e.Coef_, e.Intercept_ = c.coefficients(w)
	e.NIter_ = nIter
	e.Converged_ = converged
	e.state.SetFitted()
	e.state.SetDimensions(p, n)

	log.GetLoggerWithName("linear").Debug("fit completed",
		log.ModelNameKey, "ElasticNet",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.AlphaKey, e.p.alpha,
		log.L1RatioKey, e.p.l1Ratio,
		log.IterationKey, nIter,
		log.ConvergedKey, converged,
	)
	return nil
}

// coordinateDescent は w をその場で更新しながら巡回座標降下を行い、
// (スイープ回数, 収束したか) を返す。X と y は中心化済みであること。
func coordinateDescent(X *mat.Dense, y, w []float64, alpha, l1Ratio, tol float64, maxIter int) (int, bool) {
	n, p := X.Dims()
	nf := float64(n)
	l1 := alpha * l1Ratio
	l2 := alpha * (1 - l1Ratio)

	cols := make([][]float64, p)
	norm := make([]float64, p)
	for j := range cols {
		cols[j] = mat.Col(nil, j, X)
		norm[j] = floats.Dot(cols[j], cols[j]) / nf
	}

	// r = y - Xw
	r := slices.Clone(y)
	for j, wj := range w {
		if wj != 0 {
			floats.AddScaled(r, -wj, cols[j])
		}
	}

	for it := 0; it < maxIter; it++ {
		for j := 0; j < p; j++ {
			if norm[j] == 0 {
				continue
			}
			old := w[j]
			rho := floats.Dot(cols[j], r)/nf + norm[j]*old
			next := model.SoftThreshold(rho, l1) / (norm[j] + l2)
			if next == old {
				continue
			}
			floats.AddScaled(r, old-next, cols[j])
			w[j] = next
		}

		if subgradientNorm(cols, r, w, nf, l1, l2) <= tol {
			return it + 1, true
		}
	}
	return maxIter, false
}

// subgradientNorm は目的関数の最小ノルム劣勾配の∞ノルムを返す
func subgradientNorm(cols [][]float64, r, w []float64, nf, l1, l2 float64) float64 {
	var worst float64
	for j, col := range cols {
		g := -floats.Dot(col, r)/nf + l2*w[j]
		var v float64
		switch {
		case w[j] > 0:
			v = math.Abs(g + l1)
		case w[j] < 0:
			v = math.Abs(g - l1)
		default:
			v = math.Max(math.Abs(g)-l1, 0)
		}
		worst = math.Max(worst, v)
	}
	return worst
}

// Predict は入力データに対する予測を行う
func (e *ElasticNet) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := e.state.RequireFitted("ElasticNet", "Predict"); err != nil {
		return nil, err
	}
	_, cols := X.Dims()
	if err := e.state.RequireFeatures("ElasticNet.Predict", cols); err != nil {
		return nil, err
	}
	return predictLinear(X, e.Coef_, e.Intercept_), nil
}

// Score はモデルの決定係数（R²）を計算
func (e *ElasticNet) Score(X, y mat.Matrix) (float64, error) {
	return score(e, X, y)
}

// Coef は学習された重み係数を返す
func (e *ElasticNet) Coef() []float64 { return slices.Clone(e.Coef_) }

// Intercept は学習された切片を返す
func (e *ElasticNet) Intercept() float64 { return e.Intercept_ }

// score は R² を計算する
func score(m model.Predictor, X, y mat.Matrix) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	yv, err := model.ResponseVector("Score", y)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(mat.NewVecDense(len(yv), yv), mat.NewVecDense(len(yv), mat.Col(nil, 0, pred)))
}
