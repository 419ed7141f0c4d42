// Package datasets generates synthetic regression problems with known
// coefficients for tests and benchmarks.
package datasets

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
	"github.com/YuminosukeSato/glmbench/sparse"
)

// Config describes a synthetic regression problem.
type Config struct {
	NSamples  int
	NFeatures int
	// NInformative is the number of features with a non-zero coefficient.
	// They are chosen at random. Zero gives a pure-noise target.
	NInformative int
	// Noise is the standard deviation of the Gaussian noise added to y.
	Noise float64
	Bias  float64
	// RandomState seeds the PCG generator.
	RandomState uint64
}

func (c Config) validate() error {
	if c.NSamples <= 0 {
		return errors.NewValidationError("n_samples", "must be positive", c.NSamples)
	}
	if c.NFeatures <= 0 {
		return errors.NewValidationError("n_features", "must be positive", c.NFeatures)
	}
	if c.NInformative < 0 || c.NInformative > c.NFeatures {
		return errors.NewValidationError("n_informative", "must be in [0, n_features]", c.NInformative)
	}
	if c.Noise < 0 {
		return errors.NewValidationError("noise", "must be non-negative", c.Noise)
	}
	return nil
}

// exp(maxLogMean) bounds the Poisson mean
const maxLogMean = 20

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// MakeRegression returns a standard-normal design X, the target
// y = Bias + X·coef + Noise·ε and the true coefficients. NInformative
// randomly chosen features get a coefficient drawn from U(0, 100).
func MakeRegression(cfg Config) (*mat.Dense, []float64, []float64, error) {
	if err := cfg.validate(); err != nil {
		return nil, nil, nil, err
	}
	rng := newRand(cfg.RandomState)

	X := standardNormal(rng, cfg.NSamples, cfg.NFeatures)
	coef := InformativeCoef(rng, cfg.NFeatures, cfg.NInformative, 0, 100)
	y := LinearResponse(rng, X, coef, cfg.Bias, cfg.Noise)
	return X, y, coef, nil
}

// MakePoissonRegression returns a design X with entries N(0, 1/n_features),
// counts y ~ Poisson(exp(Bias + X·coef)) and the true coefficients, drawn
// from U(-1, 1) for informative features. Noise is ignored.
func MakePoissonRegression(cfg Config) (*mat.Dense, []float64, []float64, error) {
	if err := cfg.validate(); err != nil {
		return nil, nil, nil, err
	}
	rng := newRand(cfg.RandomState)

	X := standardNormal(rng, cfg.NSamples, cfg.NFeatures)
	X.Scale(1/math.Sqrt(float64(cfg.NFeatures)), X)

	coef := InformativeCoef(rng, cfg.NFeatures, cfg.NInformative, -1, 1)
	y := PoissonResponse(rng, X, coef, cfg.Bias)
	return X, y, coef, nil
}

// MakeSparse returns a rows×cols CSR matrix in which each entry is non-zero
// with probability density, with standard-normal values.
func MakeSparse(rows, cols int, density float64, seed uint64) (*sparse.CSR, error) {
	if density <= 0 || density > 1 {
		return nil, errors.NewValidationError("density", "must be in (0, 1]", density)
	}
	if rows <= 0 || cols <= 0 {
		return nil, errors.NewValueError("MakeSparse", "shape must be positive")
	}
	rng := newRand(seed)
	keep := distuv.Bernoulli{P: density, Src: rng}
	value := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}

	var rowIdx, colIdx []int
	var data []float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if keep.Rand() == 1 {
				rowIdx = append(rowIdx, i)
				colIdx = append(colIdx, j)
				data = append(data, value.Rand())
			}
		}
	}
	coo, err := sparse.NewCOO(rows, cols, rowIdx, colIdx, data)
	if err != nil {
		return nil, err
	}
	return coo.ToCSR(), nil
}

// LinearResponse returns bias + X·coef + noise·ε.
func LinearResponse(rng *rand.Rand, X mat.Matrix, coef []float64, bias, noise float64) []float64 {
	eta := linearPredictor(X, coef, bias)
	if noise > 0 {
		eps := distuv.Normal{Mu: 0, Sigma: noise, Src: rng}
		for i := range eta {
			eta[i] += eps.Rand()
		}
	}
	return eta
}

// PoissonResponse draws y_i ~ Poisson(exp(bias + x_i·coef)). The linear
// predictor is capped at maxLogMean.
func PoissonResponse(rng *rand.Rand, X mat.Matrix, coef []float64, bias float64) []float64 {
	eta := linearPredictor(X, coef, bias)
	y := make([]float64, len(eta))
	for i, e := range eta {
		y[i] = distuv.Poisson{Lambda: math.Exp(math.Min(e, maxLogMean)), Src: rng}.Rand()
	}
	return y
}

// NewRand returns the PCG generator used by this package for seed.
func NewRand(seed uint64) *rand.Rand {
	return newRand(seed)
}

func linearPredictor(X mat.Matrix, coef []float64, bias float64) []float64 {
	r, _ := X.Dims()
	eta := make([]float64, r)
	for i := range eta {
		eta[i] = bias
	}
	if nz, ok := X.(mat.NonZeroDoer); ok {
		nz.DoNonZero(func(i, j int, v float64) { eta[i] += v * coef[j] })
		return eta
	}
	var out mat.VecDense
	out.MulVec(X, mat.NewVecDense(len(coef), coef))
	for i := range eta {
		eta[i] += out.AtVec(i)
	}
	return eta
}

func standardNormal(rng *rand.Rand, r, c int) *mat.Dense {
	z := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	data := make([]float64, r*c)
	for k := range data {
		data[k] = z.Rand()
	}
	return mat.NewDense(r, c, data)
}

// InformativeCoef returns nFeatures coefficients of which nInformative,
// picked by a random permutation, are drawn from U(lo, hi). The rest are zero.
func InformativeCoef(rng *rand.Rand, nFeatures, nInformative int, lo, hi float64) []float64 {
	dist := distuv.Uniform{Min: lo, Max: hi, Src: rng}
	coef := make([]float64, nFeatures)
	for _, j := range rng.Perm(nFeatures)[:nInformative] {
		coef[j] = dist.Rand()
	}
	return coef
}
