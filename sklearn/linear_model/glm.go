package linear_model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/core/model"
	"github.com/YuminosukeSato/glmbench/metrics"
	"github.com/YuminosukeSato/glmbench/pkg/errors"
	"github.com/YuminosukeSato/glmbench/pkg/log"
)

var (
	_ model.Regressor      = (*GeneralizedLinearRegressor)(nil)
	_ model.WeightedFitter = (*GeneralizedLinearRegressor)(nil)
	_ model.Exporter       = (*GeneralizedLinearRegressor)(nil)
)

// GeneralizedLinearRegressor はelastic-net正則化付きの一般化線形モデル
//
// 目的関数（s はサンプル重みを合計1に正規化したもの）:
//
//	F(b, w) = ½ Σ s_i d(y_i, μ_i) + α·l1·‖w‖₁ + α·(1-l1)/2·‖w‖²
//	μ_i = h(b + x_iᵀw)
//
// Normal族・恒等リンクでは 1/(2n)‖y - b - Xw‖² となり、ElasticNet と同じ目的関数になる。
type GeneralizedLinearRegressor struct {
	state *model.StateManager

	// ハイパーパラメータ
	alpha        float64
	l1Ratio      float64
	fitIntercept bool
	family       Family
	link         Link
	solver       Solver
	gradientTol  float64
	maxIter      int
	warmStart    bool

	// 学習済みパラメータ
	coef_      []float64
	intercept_ float64
	nIter_     int
	converged_ bool
	link_      Link
}

// Option はGeneralizedLinearRegressorの設定オプション
type Option func(*GeneralizedLinearRegressor)

// WithAlpha は正則化の強さを設定
func WithAlpha(alpha float64) Option {
	return func(m *GeneralizedLinearRegressor) {
		m.alpha = alpha
	}
}

// WithL1Ratio はL1とL2の混合比を設定（0: ridge, 1: lasso）
func WithL1Ratio(l1Ratio float64) Option {
	return func(m *GeneralizedLinearRegressor) {
		m.l1Ratio = l1Ratio
	}
}

// WithFitIntercept は切片の学習有無を設定
func WithFitIntercept(fit bool) Option {
	return func(m *GeneralizedLinearRegressor) {
		m.fitIntercept = fit
	}
}

// WithFamily は分布族を設定
func WithFamily(f Family) Option {
	return func(m *GeneralizedLinearRegressor) {
		m.family = f
	}
}

// WithLink はリンク関数を設定（LinkAuto なら分布族の既定リンク）
func WithLink(l Link) Option {
	return func(m *GeneralizedLinearRegressor) {
		m.link = l
	}
}

// WithSolver は最適化ソルバーを設定
func WithSolver(s Solver) Option {
	return func(m *GeneralizedLinearRegressor) {
		m.solver = s
	}
}

// WithGradientTol は収束判定に使う劣勾配の∞ノルムの閾値を設定
func WithGradientTol(tol float64) Option {
	return func(m *GeneralizedLinearRegressor) {
		m.gradientTol = tol
	}
}

// WithMaxIter は最大反復回数を設定
func WithMaxIter(n int) Option {
	return func(m *GeneralizedLinearRegressor) {
		m.maxIter = n
	}
}

// WithWarmStart は前回の学習結果を初期値として再利用するかを設定
func WithWarmStart(warm bool) Option {
	return func(m *GeneralizedLinearRegressor) {
		m.warmStart = warm
	}
}

// NewGeneralizedLinearRegressor は新しいGeneralizedLinearRegressorを作成する。
// 不正なハイパーパラメータはここで検出される。
func NewGeneralizedLinearRegressor(opts ...Option) (*GeneralizedLinearRegressor, error) {
	m := &GeneralizedLinearRegressor{
		state:        model.NewStateManager(),
		alpha:        1.0,
		l1Ratio:      0,
		fitIntercept: true,
		family:       Normal,
		link:         LinkAuto,
		solver:       SolverAuto,
		gradientTol:  1e-4,
		maxIter:      100,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *GeneralizedLinearRegressor) validate() error {
	if err := validateCommon(m.family, m.link, m.solver, m.gradientTol, m.maxIter); err != nil {
		return err
	}
	if m.alpha < 0 || math.IsNaN(m.alpha) || math.IsInf(m.alpha, 0) {
		return errors.NewValidationError("alpha", "must be finite and non-negative", m.alpha)
	}
	if err := validateL1Ratio(m.l1Ratio); err != nil {
		return err
	}
	if !m.solver.supports(m.l1Ratio) {
		return errors.NewValidationError("solver", m.solver.String()+" only supports l1_ratio = 0", m.l1Ratio)
	}
	return nil
}

func validateCommon(family Family, link Link, solver Solver, tol float64, maxIter int) error {
	if !family.valid() {
		return errors.NewValidationError("family", "unknown family", int(family))
	}
	if !link.valid() {
		return errors.NewValidationError("link", "unknown link", int(link))
	}
	if !solver.valid() {
		return errors.NewValidationError("solver", "unknown solver", int(solver))
	}
	if !(tol > 0) {
		return errors.NewValidationError("gradient_tol", "must be positive", tol)
	}
	if maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", maxIter)
	}
	return nil
}

func validateL1Ratio(l1 float64) error {
	if !(l1 >= 0 && l1 <= 1) {
		return errors.NewValidationError("l1_ratio", "must be in [0, 1]", l1)
	}
	return nil
}

// Fit はモデルを訓練データで学習
func (m *GeneralizedLinearRegressor) Fit(X, y mat.Matrix) error {
	return m.FitWeighted(X, y, nil)
}

// FitWeighted はサンプル重み付きで学習する。sampleWeight が nil なら全て等しい重み。
// 収束しなかった場合は ConvergenceWarning を出し、その時点の係数を保持する。
func (m *GeneralizedLinearRegressor) FitWeighted(X, y mat.Matrix, sampleWeight []float64) (err error) {
	defer errors.Recover(&err, "GeneralizedLinearRegressor.Fit")

	yv, err := model.ResponseVector("GeneralizedLinearRegressor.Fit", y)
	if err != nil {
		return err
	}
	pr, err := newProblem(X, yv, sampleWeight, m.fitIntercept, m.family, m.link)
	if err != nil {
		return err
	}
	strat, err := m.solver.strategy(m.l1Ratio)
	if err != nil {
		return err
	}

	n, p := X.Dims()
	beta := pr.nullStart()
	if m.warmStart && m.state.IsFitted() && len(m.coef_) == p {
		beta = pr.fromCoefficients(m.coef_, m.intercept_)
	}

	pen := penalty{alpha: m.alpha, l1Ratio: m.l1Ratio, offset: pr.offset}
	res, err := strat.solve(pr, pen, beta, solveSettings{gradientTol: m.gradientTol, maxIter: m.maxIter})
	if err != nil {
		return err
	}

	m.coef_, m.intercept_ = pr.coefficients(beta)
	m.nIter_ = res.nIter
	m.converged_ = res.converged
	m.link_ = pr.link
	m.state.SetFitted()
	m.state.SetDimensions(p, n)

	solverName := m.solver.resolve(m.l1Ratio).String()
	if !res.converged {
		errors.Warn(errors.NewConvergenceWarning(solverName, res.nIter,
			"increase max_iter or gradient_tol"))
	}

	logger := log.GetLoggerWithName("linear_model").With(log.ModelNameKey, "GeneralizedLinearRegressor")
	logger.Debug("fit completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.AlphaKey, m.alpha,
		log.L1RatioKey, m.l1Ratio,
		log.SolverKey, solverName,
		log.IterationKey, res.nIter,
		log.ConvergedKey, res.converged,
	)
	return nil
}

// Predict は予測平均 μ = h(intercept + X·coef) を n×1 行列で返す
func (m *GeneralizedLinearRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("GeneralizedLinearRegressor", "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := m.state.RequireFeatures("GeneralizedLinearRegressor.Predict", cols); err != nil {
		return nil, err
	}
	return mat.NewDense(rows, 1, predictRows(X, m.coef_, m.intercept_, m.link_)), nil
}

// Score はD²（説明された逸脱度の割合）を返す。Normal族では R² と一致する。
func (m *GeneralizedLinearRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	yv, err := model.ResponseVector("GeneralizedLinearRegressor.Score", y)
	if err != nil {
		return 0, err
	}
	return d2Score(m.family, yv, pred)
}

func d2Score(family Family, y []float64, pred mat.Matrix) (float64, error) {
	n := len(y)
	if r, _ := pred.Dims(); r != n {
		return 0, errors.NewDimensionError("Score", r, n, 0)
	}
	yTrue := mat.NewVecDense(n, nil)
	mu := mat.NewVecDense(n, nil)
	null := mat.NewVecDense(n, nil)
	ybar := floats.Sum(y) / float64(n)
	for i, v := range y {
		yTrue.SetVec(i, v)
		mu.SetVec(i, pred.At(i, 0))
		null.SetVec(i, ybar)
	}

	dev, err := meanDeviance(family, yTrue, mu)
	if err != nil {
		return 0, errors.Wrap(err, "Score")
	}
	nullDev, err := meanDeviance(family, yTrue, null)
	if err != nil {
		return 0, errors.Wrap(err, "Score")
	}
	if nullDev == 0 {
		return 0, errors.NewValueError("Score", "cannot compute D² with zero null deviance")
	}
	return 1 - dev/nullDev, nil
}

// meanDeviance returns the mean unit deviance of family at mu.
func meanDeviance(family Family, y, mu *mat.VecDense) (float64, error) {
	switch family {
	case Normal:
		return metrics.MeanTweedieDeviance(y, mu, nil, 0)
	case Poisson:
		return metrics.MeanPoissonDeviance(y, mu)
	case Gamma:
		return metrics.MeanGammaDeviance(y, mu)
	}
	// Binomial は Tweedie 族に含まれない
	var dev float64
	for i := 0; i < y.Len(); i++ {
		dev += family.UnitDeviance(y.AtVec(i), mu.AtVec(i))
	}
	return dev / float64(y.Len()), nil
}

// Coef は学習された重み係数を返す
func (m *GeneralizedLinearRegressor) Coef() []float64 {
	if m.coef_ == nil {
		return nil
	}
	coef := make([]float64, len(m.coef_))
	copy(coef, m.coef_)
	return coef
}

// Intercept は学習された切片を返す
func (m *GeneralizedLinearRegressor) Intercept() float64 {
	return m.intercept_
}

// NIter はソルバーの反復回数を返す
func (m *GeneralizedLinearRegressor) NIter() int {
	return m.nIter_
}

// Converged はソルバーが gradient_tol に到達したかを返す
func (m *GeneralizedLinearRegressor) Converged() bool {
	return m.converged_
}

// GetParams はハイパーパラメータを返す
func (m *GeneralizedLinearRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":         m.alpha,
		"l1_ratio":      m.l1Ratio,
		"fit_intercept": m.fitIntercept,
		"family":        m.family.String(),
		"link":          m.link.Resolve(m.family).String(),
		"solver":        m.solver.String(),
		"gradient_tol":  m.gradientTol,
		"max_iter":      m.maxIter,
		"warm_start":    m.warmStart,
	}
}

// ExportWeights はモデルの重みをエクスポート
func (m *GeneralizedLinearRegressor) ExportWeights() (*model.ModelWeights, error) {
	if err := m.state.RequireFitted("GeneralizedLinearRegressor", "ExportWeights"); err != nil {
		return nil, err
	}
	nFeatures, nSamples := m.state.GetDimensions()
	return exportWeights("GeneralizedLinearRegressor", m.Coef(), m.intercept_, m.GetParams(), map[string]interface{}{
		"n_features": nFeatures,
		"n_samples":  nSamples,
		"n_iter":     m.nIter_,
		"converged":  m.converged_,
	})
}

// exportWeights はチェックサム付きの ModelWeights を組み立てる
func exportWeights(modelType string, coef []float64, intercept float64, params, metadata map[string]interface{}) (*model.ModelWeights, error) {
	weights := &model.ModelWeights{
		ModelType:       modelType,
		Version:         model.WeightsVersion,
		Coefficients:    coef,
		Intercept:       intercept,
		IsFitted:        true,
		Hyperparameters: params,
		Metadata:        metadata,
	}

	data, err := json.Marshal(weights.Coefficients)
	if err != nil {
		return nil, errors.Wrap(err, "marshal coefficients")
	}
	hash := sha256.Sum256(data)
	weights.Metadata["checksum"] = hex.EncodeToString(hash[:])
	return weights, nil
}

// ImportWeights は ExportWeights で書き出した重みを読み込み、学習済み状態にする
func (m *GeneralizedLinearRegressor) ImportWeights(w *model.ModelWeights) error {
	if w == nil {
		return errors.NewValidationError("weights", "must not be nil", nil)
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if !w.IsFitted {
		return errors.NewValidationError("is_fitted", "weights of an unfitted model cannot be imported", false)
	}

	if name, ok := w.Hyperparameters["family"].(string); ok {
		f, err := ParseFamily(name)
		if err != nil {
			return err
		}
		m.family = f
	}
	if name, ok := w.Hyperparameters["link"].(string); ok {
		l, err := ParseLink(name)
		if err != nil {
			return err
		}
		m.link = l
	}
	if v, ok := w.Hyperparameters["alpha"].(float64); ok {
		m.alpha = v
	}
	if v, ok := w.Hyperparameters["l1_ratio"].(float64); ok {
		m.l1Ratio = v
	}
	if v, ok := w.Hyperparameters["fit_intercept"].(bool); ok {
		m.fitIntercept = v
	}

	m.coef_ = append([]float64(nil), w.Coefficients...)
	m.intercept_ = w.Intercept
	m.link_ = m.link.Resolve(m.family)
	if v, ok := w.Metadata["n_iter"].(float64); ok {
		m.nIter_ = int(v)
	}
	if v, ok := w.Metadata["converged"].(bool); ok {
		m.converged_ = v
	}

	nSamples := 0
	if v, ok := w.Metadata["n_samples"].(float64); ok {
		nSamples = int(v)
	}
	m.state.SetFitted()
	m.state.SetDimensions(len(m.coef_), nSamples)
	return nil
}
