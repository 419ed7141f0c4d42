// Package linear provides least-squares reference estimators: ElasticNet and
// Ridge, each with a cross-validated variant.
package linear

// params holds the hyperparameters shared by the estimators in this package.
// Each estimator reads only the fields it uses.
type params struct {
	alpha        float64
	l1Ratio      float64
	fitIntercept bool
	maxIter      int
	tol          float64

	// cross-validation
	l1Ratios []float64
	nAlphas  int
	alphas   []float64
	eps      float64
	cv       int
	nJobs    int
}

func defaultParams() params {
	return params{
		alpha:        1.0,
		l1Ratio:      0.5,
		fitIntercept: true,
		maxIter:      1000,
		tol:          1e-4,
		l1Ratios:     []float64{0.5},
		nAlphas:      100,
		eps:          1e-3,
		cv:           5,
		nJobs:        1,
	}
}

// Option is a function that configures an estimator in this package
type Option func(*params)

// WithAlpha sets the regularization strength
func WithAlpha(alpha float64) Option {
	return func(p *params) {
		p.alpha = alpha
	}
}

// WithL1Ratio sets the elastic-net mixing parameter (0: ridge, 1: lasso)
func WithL1Ratio(l1Ratio float64) Option {
	return func(p *params) {
		p.l1Ratio = l1Ratio
	}
}

// WithL1Ratios sets the l1_ratio candidates searched by ElasticNetCV
func WithL1Ratios(l1Ratios ...float64) Option {
	return func(p *params) {
		p.l1Ratios = append([]float64(nil), l1Ratios...)
	}
}

// WithFitIntercept sets whether to calculate the intercept
func WithFitIntercept(fit bool) Option {
	return func(p *params) {
		p.fitIntercept = fit
	}
}

// WithMaxIter sets the maximum number of coordinate descent sweeps
func WithMaxIter(n int) Option {
	return func(p *params) {
		p.maxIter = n
	}
}

// WithTol sets the tolerance for the optimization
func WithTol(tol float64) Option {
	return func(p *params) {
		p.tol = tol
	}
}

// WithNAlphas sets the length of the automatic alpha grid
func WithNAlphas(n int) Option {
	return func(p *params) {
		p.nAlphas = n
	}
}

// WithAlphas sets explicit alpha candidates
func WithAlphas(alphas ...float64) Option {
	return func(p *params) {
		p.alphas = append([]float64(nil), alphas...)
	}
}

// WithEps sets alpha_min / alpha_max for the automatic grid
func WithEps(eps float64) Option {
	return func(p *params) {
		p.eps = eps
	}
}

// WithCV sets the number of folds
func WithCV(folds int) Option {
	return func(p *params) {
		p.cv = folds
	}
}

// WithNJobs sets the number of parallel jobs
func WithNJobs(n int) Option {
	return func(p *params) {
		p.nJobs = n
	}
}
