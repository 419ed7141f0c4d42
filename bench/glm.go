package bench

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
	"github.com/YuminosukeSato/glmbench/pkg/log"
	lm "github.com/YuminosukeSato/glmbench/sklearn/linear_model"
)

// GLM benchmarks GeneralizedLinearRegressor on data with the family's
// default link and the automatic solver. Weights are supported and there is
// no size limit, so the adapter never abstains.
func GLM(data Data, distribution string, alpha, l1Ratio float64) (Outcome, error) {
	const library = "glm"

	family, err := lm.ParseFamily(distribution)
	if err != nil {
		return Outcome{}, errors.NewNotImplementedError("bench.GLM", "unsupported distribution \""+distribution+"\"")
	}
	n, err := validate("bench.GLM", data, alpha, l1Ratio)
	if err != nil {
		return Outcome{}, err
	}

	logger := log.GetLoggerWithName("bench").With(
		log.LibraryKey, library,
		log.SamplesKey, n,
		log.FamilyKey, family.String(),
	)

	model, err := lm.NewGeneralizedLinearRegressor(
		lm.WithFamily(family),
		lm.WithAlpha(alpha),
		lm.WithL1Ratio(l1Ratio),
	)
	if err != nil {
		return Outcome{}, err
	}

	y := mat.NewVecDense(n, append([]float64(nil), data.Y...))
	start := time.Now()
	err = model.FitWeighted(data.X, y, data.Weights)
	runtime := since(start)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "bench.GLM")
	}

	coef := model.Coef()
	if err := errors.CheckNumericalStability("bench.GLM", coef, model.NIter()); err != nil {
		return Outcome{}, err
	}

	logger.Info("benchmark completed",
		log.DurationMsKey, runtime*1e3,
		log.IterationKey, model.NIter(),
		log.ConvergedKey, model.Converged(),
	)

	return Outcome{Result: &Result{
		Runtime:   runtime,
		Intercept: model.Intercept(),
		Coef:      coef,
		Model:     model,
		NIter:     model.NIter(),
		Converged: model.Converged(),
	}}, nil
}
