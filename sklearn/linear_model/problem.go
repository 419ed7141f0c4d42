package linear_model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

// penalty is the elastic-net penalty α·l1·‖w‖₁ + α·(1-l1)/2·‖w‖².
// The first offset coefficients (the intercept) are not penalised.
type penalty struct {
	alpha   float64
	l1Ratio float64
	offset  int
}

func (p penalty) l1() float64 { return p.alpha * p.l1Ratio }
func (p penalty) l2() float64 { return p.alpha * (1 - p.l1Ratio) }

func (p penalty) value(beta []float64) float64 {
	var a, s float64
	for _, b := range beta[p.offset:] {
		a += math.Abs(b)
		s += b * b
	}
	return p.l1()*a + 0.5*p.l2()*s
}

// problem is a GLM fitting problem on a fixed design. When the intercept is
// fitted, the design carries a leading ones column and the feature columns
// are centred by the weighted feature means, which keeps the intercept
// nearly decoupled from the features.
type problem struct {
	design *mat.Dense // n × (offset + p)
	y      []float64
	// s are the sample weights normalised to sum to one.
	s      []float64
	xMean  []float64
	offset int
	family Family
	link   Link

	// scratch
	eta []float64
}

// newProblem builds a problem from raw features. sampleWeight may be nil.
func newProblem(X mat.Matrix, y, sampleWeight []float64, fitIntercept bool, family Family, link Link) (*problem, error) {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.NewModelError("GeneralizedLinearRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(y) != n {
		return nil, errors.NewDimensionError("GeneralizedLinearRegressor.Fit", n, len(y), 0)
	}
	for _, v := range y {
		if !family.InYRange(v) {
			return nil, errors.NewValidationError("y", "outside the domain of the "+family.String()+" family", v)
		}
	}

	s, err := normalizedWeights(sampleWeight, n)
	if err != nil {
		return nil, err
	}

	offset := 0
	if fitIntercept {
		offset = 1
	}

	pr := &problem{
		design: mat.NewDense(n, offset+p, nil),
		y:      y,
		s:      s,
		offset: offset,
		family: family,
		link:   link.Resolve(family),
		eta:    make([]float64, n),
	}

	if fitIntercept {
		pr.xMean = make([]float64, p)
		for i := 0; i < n; i++ {
			for j := 0; j < p; j++ {
				pr.xMean[j] += s[i] * X.At(i, j)
			}
		}
	}
	for i := 0; i < n; i++ {
		if fitIntercept {
			pr.design.Set(i, 0, 1)
		}
		for j := 0; j < p; j++ {
			v := X.At(i, j)
			if fitIntercept {
				v -= pr.xMean[j]
			}
			pr.design.Set(i, offset+j, v)
		}
	}
	return pr, nil
}

func normalizedWeights(sampleWeight []float64, n int) ([]float64, error) {
	s := make([]float64, n)
	if sampleWeight == nil {
		for i := range s {
			s[i] = 1 / float64(n)
		}
		return s, nil
	}
	if len(sampleWeight) != n {
		return nil, errors.NewDimensionError("GeneralizedLinearRegressor.Fit", n, len(sampleWeight), 0)
	}
	var sum float64
	for _, w := range sampleWeight {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, errors.NewValidationError("sample_weight", "must be finite and non-negative", w)
		}
		sum += w
	}
	if sum <= 0 {
		return nil, errors.NewValidationError("sample_weight", "must have a positive sum", sum)
	}
	for i, w := range sampleWeight {
		s[i] = w / sum
	}
	return s, nil
}

func (pr *problem) nCoef() int {
	_, c := pr.design.Dims()
	return c
}

// linearPredictor sets pr.eta = design·beta.
func (pr *problem) linearPredictor(beta []float64) []float64 {
	n, q := pr.design.Dims()
	raw := pr.design.RawMatrix()
	for i := 0; i < n; i++ {
		pr.eta[i] = floats.Dot(raw.Data[i*raw.Stride:i*raw.Stride+q], beta)
	}
	return pr.eta
}

// deviance returns Σ s_i·d(y_i, μ_i).
func (pr *problem) deviance(beta []float64) float64 {
	eta := pr.linearPredictor(beta)
	var dev float64
	for i, e := range eta {
		dev += pr.s[i] * pr.family.UnitDeviance(pr.y[i], pr.link.Inverse(e))
	}
	return dev
}

// objective returns F(β) = deviance/2 + penalty. It is +Inf when β maps
// some observation outside the mean domain.
func (pr *problem) objective(beta []float64, pen penalty) float64 {
	dev := pr.deviance(beta)
	if math.IsNaN(dev) {
		return math.Inf(1)
	}
	return 0.5*dev + pen.value(beta)
}

// gradient writes the gradient of deviance/2 into g. When hess is not nil
// it also receives the Fisher information Xᵀ·diag(W)·X with
// W_i = s_i·h'(η_i)²/V(μ_i).
func (pr *problem) gradient(beta, g []float64, hess *mat.SymDense) {
	n, q := pr.design.Dims()
	eta := pr.linearPredictor(beta)

	for j := range g {
		g[j] = 0
	}

	var scaled *mat.Dense
	if hess != nil {
		scaled = mat.NewDense(n, q, nil)
	}
	raw := pr.design.RawMatrix()
	for i := 0; i < n; i++ {
		if pr.s[i] == 0 {
			continue
		}
		mu := pr.family.clipMu(pr.link.Inverse(eta[i]))
		hp := pr.link.InverseDerivative(eta[i])
		v := pr.family.Variance(mu)
		if v <= 0 {
			v = muEpsilon
		}
		row := raw.Data[i*raw.Stride : i*raw.Stride+q]
		floats.AddScaled(g, -pr.s[i]*(pr.y[i]-mu)*hp/v, row)

		if scaled != nil {
			w := math.Sqrt(pr.s[i] * hp * hp / v)
			for j, x := range row {
				scaled.Set(i, j, w*x)
			}
		}
	}

	if hess != nil {
		hess.SymOuterK(1, scaled.T())
	}
}

// fullGradient adds the L2 part of the penalty to the smooth gradient g.
func (pr *problem) fullGradient(beta, g []float64, pen penalty) {
	for j := pen.offset; j < len(g); j++ {
		g[j] += pen.l2() * beta[j]
	}
}

// subgradientNorm returns the ∞-norm of the minimum-norm subgradient of
// the penalised objective, given the gradient g of its smooth part without
// the L2 term.
func subgradientNorm(g, beta []float64, pen penalty) float64 {
	var worst float64
	for j := range g {
		var v float64
		switch {
		case j < pen.offset:
			v = math.Abs(g[j])
		case beta[j] > 0:
			v = math.Abs(g[j] + pen.l2()*beta[j] + pen.l1())
		case beta[j] < 0:
			v = math.Abs(g[j] + pen.l2()*beta[j] - pen.l1())
		default:
			v = math.Max(math.Abs(g[j])-pen.l1(), 0)
		}
		if v > worst {
			worst = v
		}
	}
	return worst
}

// nullStart returns the intercept-only (or all-zero) starting point.
func (pr *problem) nullStart() []float64 {
	beta := make([]float64, pr.nCoef())
	if pr.offset == 1 {
		var ybar float64
		for i, y := range pr.y {
			ybar += pr.s[i] * y
		}
		beta[0] = pr.link.Link(pr.family.clipMu(ybar))
	}
	return beta
}

// isQuadratic reports whether the deviance is exactly quadratic in β.
func (pr *problem) isQuadratic() bool {
	return pr.family == Normal && pr.link == Identity
}

// predictRows returns μ for rows of X using coefficients in the original
// feature space.
func predictRows(X mat.Matrix, coef []float64, intercept float64, link Link) []float64 {
	r, c := X.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		eta := intercept
		for j := 0; j < c; j++ {
			eta += X.At(i, j) * coef[j]
		}
		out[i] = link.Inverse(eta)
	}
	return out
}

// coefficients splits β into feature coefficients and an intercept in the
// original (uncentred) feature space.
func (pr *problem) coefficients(beta []float64) ([]float64, float64) {
	coef := make([]float64, len(beta)-pr.offset)
	copy(coef, beta[pr.offset:])
	if pr.offset == 0 {
		return coef, 0
	}
	return coef, beta[0] - floats.Dot(pr.xMean, coef)
}

// fromCoefficients is the inverse of coefficients.
func (pr *problem) fromCoefficients(coef []float64, intercept float64) []float64 {
	beta := make([]float64, pr.nCoef())
	copy(beta[pr.offset:], coef)
	if pr.offset == 1 {
		beta[0] = intercept + floats.Dot(pr.xMean, coef)
	}
	return beta
}
