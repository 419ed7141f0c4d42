package linear_model

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
	_ model.Regressor = (*GeneralizedLinearRegressorCV)(nil)
	_ model.Exporter  = (*GeneralizedLinearRegressorCV)(nil)
)

// GeneralizedLinearRegressorCV は交差検証で alpha と l1_ratio を選ぶ GeneralizedLinearRegressor
//
// l1_ratio の候補ごとに alpha のグリッドを作り、各 (l1_ratio, fold) で
// alpha の降順にウォームスタートしながらパスを学習し、検証 fold の MSE を記録する。
// fold 平均が最小の組み合わせで全データを再学習する。
type GeneralizedLinearRegressorCV struct {
	state *model.StateManager

	// ハイパーパラメータ
	l1Ratios      []float64
	nAlphas       int
	alphas        []float64
	minAlphaRatio float64
	fitIntercept  bool
	family        Family
	link          Link
	solver        Solver
	gradientTol   float64
	maxIter       int
	cv            int
	nJobs         int

	// 学習済みパラメータ
	Coef_      []float64
	Intercept_ float64
	Alpha_     float64
	L1Ratio_   float64
	// Alphas_ は l1_ratio ごとの alpha グリッド（降順）
	Alphas_ [][]float64
	// MSEPath_[l1][alpha][fold] は検証 fold の平均二乗誤差
	MSEPath_   [][][]float64
	NIter_     int
	Converged_ bool

	link_ Link
}

// CVOption はGeneralizedLinearRegressorCVの設定オプション
type CVOption func(*GeneralizedLinearRegressorCV)

// WithCVL1Ratios は l1_ratio の候補を設定。1つなら固定、複数なら2次元探索。
func WithCVL1Ratios(l1Ratios ...float64) CVOption {
	return func(m *GeneralizedLinearRegressorCV) {
		m.l1Ratios = append([]float64(nil), l1Ratios...)
	}
}

// WithNAlphas は自動生成する alpha グリッドの点数を設定
func WithNAlphas(n int) CVOption {
	return func(m *GeneralizedLinearRegressorCV) {
		m.nAlphas = n
	}
}

// WithAlphas は alpha の候補を明示する（降順に並べ替えられ、自動グリッドは使われない）
func WithAlphas(alphas ...float64) CVOption {
	return func(m *GeneralizedLinearRegressorCV) {
		m.alphas = append([]float64(nil), alphas...)
	}
}

// WithMinAlphaRatio は alpha_min / alpha_max を設定
func WithMinAlphaRatio(eps float64) CVOption {
	return func(m *GeneralizedLinearRegressorCV) {
		m.minAlphaRatio = eps
	}
}

// WithCVFitIntercept は切片の学習有無を設定
func WithCVFitIntercept(fit bool) CVOption {
	return func(m *GeneralizedLinearRegressorCV) {
		m.fitIntercept = fit
	}
}

// WithCVFamily は分布族を設定
func WithCVFamily(f Family) CVOption {
	return func(m *GeneralizedLinearRegressorCV) {
		m.family = f
	}
}

// WithCVLink はリンク関数を設定
func WithCVLink(l Link) CVOption {
	return func(m *GeneralizedLinearRegressorCV) {
		m.link = l
	}
}

// WithCVSolver はソルバーを設定
func WithCVSolver(s Solver) CVOption {
	return func(m *GeneralizedLinearRegressorCV) {
		m.solver = s
	}
}

// WithCVGradientTol は収束判定の閾値を設定
func WithCVGradientTol(tol float64) CVOption {
	return func(m *GeneralizedLinearRegressorCV) {
		m.gradientTol = tol
	}
}

// WithCVMaxIter は最大反復回数を設定
func WithCVMaxIter(n int) CVOption {
	return func(m *GeneralizedLinearRegressorCV) {
		m.maxIter = n
	}
}

// WithCV は fold 数を設定
func WithCV(folds int) CVOption {
	return func(m *GeneralizedLinearRegressorCV) {
		m.cv = folds
	}
}

// WithNJobs は (l1_ratio, fold) ジョブの並列数を設定。0以下なら CPU 数。
func WithNJobs(n int) CVOption {
	return func(m *GeneralizedLinearRegressorCV) {
		m.nJobs = n
	}
}

// NewGeneralizedLinearRegressorCV は新しいGeneralizedLinearRegressorCVを作成する
func NewGeneralizedLinearRegressorCV(opts ...CVOption) (*GeneralizedLinearRegressorCV, error) {
	m := &GeneralizedLinearRegressorCV{
		state:         model.NewStateManager(),
		l1Ratios:      []float64{0},
		nAlphas:       100,
		minAlphaRatio: 1e-3,
		fitIntercept:  true,
		family:        Normal,
		link:          LinkAuto,
		solver:        SolverAuto,
		gradientTol:   1e-4,
		maxIter:       100,
		cv:            5,
		nJobs:         1,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *GeneralizedLinearRegressorCV) validate() error {
	if err := validateCommon(m.family, m.link, m.solver, m.gradientTol, m.maxIter); err != nil {
		return err
	}
	if len(m.l1Ratios) == 0 {
		return errors.NewValidationError("l1_ratio", "at least one value is required", 0)
	}
	for _, l1 := range m.l1Ratios {
		if err := validateL1Ratio(l1); err != nil {
			return err
		}
		if !m.solver.supports(l1) {
			return errors.NewValidationError("solver", m.solver.String()+" only supports l1_ratio = 0", l1)
		}
		if l1 == 0 && m.alphas == nil {
			return errors.NewValidationError("l1_ratio",
				"automatic alpha grid needs l1_ratio > 0; pass alphas explicitly", l1)
		}
	}
	if m.alphas != nil {
		if len(m.alphas) == 0 {
			return errors.NewValidationError("alphas", "must not be empty", 0)
		}
		for _, a := range m.alphas {
			if a < 0 || math.IsNaN(a) || math.IsInf(a, 0) {
				return errors.NewValidationError("alphas", "must be finite and non-negative", a)
			}
		}
	} else {
		if m.nAlphas < 1 {
			return errors.NewValidationError("n_alphas", "must be at least 1", m.nAlphas)
		}
		if !(m.minAlphaRatio > 0 && m.minAlphaRatio < 1) {
			return errors.NewValidationError("min_alpha_ratio", "must be in (0, 1)", m.minAlphaRatio)
		}
	}
	if m.cv < 2 {
		return errors.NewValidationError("cv", "must be at least 2", m.cv)
	}
	return nil
}

// Fit は交差検証で alpha と l1_ratio を選び、全データで再学習する
func (m *GeneralizedLinearRegressorCV) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "GeneralizedLinearRegressorCV.Fit")

	yv, err := model.ResponseVector("GeneralizedLinearRegressorCV.Fit", y)
	if err != nil {
		return err
	}
	n, p := X.Dims()

	full, err := newProblem(X, yv, nil, m.fitIntercept, m.family, m.link)
	if err != nil {
		return err
	}

	alphas := make([][]float64, len(m.l1Ratios))
	for li, l1 := range m.l1Ratios {
		if m.alphas != nil {
			alphas[li] = slices.Clone(m.alphas)
			slices.Sort(alphas[li])
			slices.Reverse(alphas[li])
			continue
		}
		alphas[li] = alphaGrid(full, l1, m.nAlphas, m.minAlphaRatio)
	}

	folds, err := model_selection.NewKFold(m.cv, false, 0).Split(n)
	if err != nil {
		return err
	}

	logger := log.GetLoggerWithName("linear_model").With(log.ModelNameKey, "GeneralizedLinearRegressorCV")
	cfg := solveSettings{gradientTol: m.gradientTol, maxIter: m.maxIter}

	path := make([][][]float64, len(m.l1Ratios))
	for li := range path {
		path[li] = make([][]float64, len(alphas[li]))
		for ai := range path[li] {
			path[li][ai] = make([]float64, len(folds))
		}
	}

	// 各ジョブは path[li][*][fi] にのみ書き込む
	nJobs := len(m.l1Ratios) * len(folds)
	err = parallel.ForEach(nJobs, m.nJobs, func(job int) error {
		li, fi := job/len(folds), job%len(folds)
		return m.fitFold(X, yv, folds[fi], m.l1Ratios[li], alphas[li], cfg, func(ai int, mse float64) {
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

	l1 := m.l1Ratios[bestL]
	alpha := alphas[bestL][bestA]
	strat, err := m.solver.strategy(l1)
	if err != nil {
		return err
	}
	beta := full.nullStart()
	res, err := strat.solve(full, penalty{alpha: alpha, l1Ratio: l1, offset: full.offset}, beta, cfg)
	if err != nil {
		return err
	}
	if !res.converged {
		errors.Warn(errors.NewConvergenceWarning(m.solver.resolve(l1).String(), res.nIter,
			"refit at the selected alpha did not converge"))
	}

	m.Coef_, m.Intercept_ = full.coefficients(beta)
	m.Alpha_ = alpha
	m.L1Ratio_ = l1
	m.Alphas_ = alphas
	m.MSEPath_ = path
	m.NIter_ = res.nIter
	m.Converged_ = res.converged
	m.link_ = full.link
	m.state.SetFitted()
	m.state.SetDimensions(p, n)

	logger.Info("cross-validation completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.NFoldsKey, len(folds),
		log.AlphaKey, alpha,
		log.L1RatioKey, l1,
		log.MSEKey, bestMSE,
		log.IterationKey, res.nIter,
		log.ConvergedKey, res.converged,
	)
	return nil
}

// fitFold は1つの fold で alpha パス全体を学習し、各 alpha の検証 MSE を record に渡す
func (m *GeneralizedLinearRegressorCV) fitFold(X mat.Matrix, y []float64, fold model_selection.Fold,
	l1 float64, alphas []float64, cfg solveSettings, record func(ai int, mse float64)) error {
	pr, err := newProblem(
		model_selection.TakeRows(X, fold.TrainIndices),
		model_selection.TakeValues(y, fold.TrainIndices),
		nil, m.fitIntercept, m.family, m.link)
	if err != nil {
		return err
	}
	strat, err := m.solver.strategy(l1)
	if err != nil {
		return err
	}

	Xte := model_selection.TakeRows(X, fold.TestIndices)
	yte := mat.NewVecDense(len(fold.TestIndices), model_selection.TakeValues(y, fold.TestIndices))

	beta := pr.nullStart()
	for ai, alpha := range alphas {
		res, err := strat.solve(pr, penalty{alpha: alpha, l1Ratio: l1, offset: pr.offset}, beta, cfg)
		if err != nil {
			return err
		}
		if !res.converged {
			errors.Warn(errors.NewConvergenceWarning(m.solver.resolve(l1).String(), res.nIter,
				"cross-validation fit did not converge"))
		}
		coef, intercept := pr.coefficients(beta)
		pred := predictRows(Xte, coef, intercept, pr.link)
		mse, err := metrics.MSE(yte, mat.NewVecDense(len(pred), pred))
		if err != nil {
			return err
		}
		record(ai, mse)
	}
	return nil
}

// alphaGrid は alpha_max から alpha_max·eps までの対数等間隔グリッドを降順で返す。
// alpha_max は null モデルでの特徴量方向の勾配の最大絶対値を l1Ratio で割ったもの。
func alphaGrid(pr *problem, l1Ratio float64, nAlphas int, eps float64) []float64 {
	g := make([]float64, pr.nCoef())
	pr.gradient(pr.nullStart(), g, nil)
	alphaMax := floats.Norm(g[pr.offset:], math.Inf(1)) / l1Ratio

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

// Predict は予測平均を n×1 行列で返す
func (m *GeneralizedLinearRegressorCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("GeneralizedLinearRegressorCV", "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := m.state.RequireFeatures("GeneralizedLinearRegressorCV.Predict", cols); err != nil {
		return nil, err
	}
	return mat.NewDense(rows, 1, predictRows(X, m.Coef_, m.Intercept_, m.link_)), nil
}

// Score は D² を返す
func (m *GeneralizedLinearRegressorCV) Score(X, y mat.Matrix) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	yv, err := model.ResponseVector("GeneralizedLinearRegressorCV.Score", y)
	if err != nil {
		return 0, err
	}
	return d2Score(m.family, yv, pred)
}

// Coef は学習された重み係数を返す
func (m *GeneralizedLinearRegressorCV) Coef() []float64 {
	return slices.Clone(m.Coef_)
}

// Intercept は学習された切片を返す
func (m *GeneralizedLinearRegressorCV) Intercept() float64 {
	return m.Intercept_
}

// GetParams はハイパーパラメータを返す
func (m *GeneralizedLinearRegressorCV) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"l1_ratio":        slices.Clone(m.l1Ratios),
		"n_alphas":        m.nAlphas,
		"alphas":          slices.Clone(m.alphas),
		"min_alpha_ratio": m.minAlphaRatio,
		"fit_intercept":   m.fitIntercept,
		"family":          m.family.String(),
		"link":            m.link.Resolve(m.family).String(),
		"solver":          m.solver.String(),
		"gradient_tol":    m.gradientTol,
		"max_iter":        m.maxIter,
		"cv":              m.cv,
		"n_jobs":          m.nJobs,
	}
}

// ExportWeights は選択されたモデルの重みと CV の結果をエクスポート
func (m *GeneralizedLinearRegressorCV) ExportWeights() (*model.ModelWeights, error) {
	if err := m.state.RequireFitted("GeneralizedLinearRegressorCV", "ExportWeights"); err != nil {
		return nil, err
	}
	nFeatures, nSamples := m.state.GetDimensions()
	return exportWeights("GeneralizedLinearRegressorCV", m.Coef(), m.Intercept_, m.GetParams(), map[string]interface{}{
		"n_features": nFeatures,
		"n_samples":  nSamples,
		"alpha":      m.Alpha_,
		"l1_ratio":   m.L1Ratio_,
		"alphas":     m.Alphas_,
		"mse_path":   m.MSEPath_,
		"n_iter":     m.NIter_,
		"converged":  m.Converged_,
	})
}
