package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/bench"
	"github.com/YuminosukeSato/glmbench/metrics"
	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

// runOutput is the JSON document printed by `glmbench run`.
type runOutput struct {
	Library      string    `json:"library"`
	Distribution string    `json:"distribution"`
	Skipped      bool      `json:"skipped"`
	Reason       string    `json:"reason,omitempty"`
	Runtime      float64   `json:"runtime,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`
	Coef         []float64 `json:"coef,omitempty"`
	NIter        int       `json:"n_iter,omitempty"`
	Converged    bool      `json:"converged,omitempty"`
	// Metrics are in-sample scores of the fitted coefficients.
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one benchmark adapter and print the result as JSON",
		Example: `  glmbench run --library fitsparse --distribution poisson --rows 1000
  glmbench run --library glm --weights --alpha 0.01 --l1-ratio 0.5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := bench.DefaultRegistry()
			library := v.GetString("library")
			fn, err := registry.Lookup(library)
			if err != nil {
				return err
			}

			distribution := v.GetString("distribution")
			cfg := readDataConfig(v, strings.EqualFold(distribution, "poisson"))
			cfg.weights = v.GetBool("weights")
			data, err := makeData(cfg)
			if err != nil {
				return err
			}

			out, err := fn(data, distribution, v.GetFloat64("alpha"), v.GetFloat64("l1-ratio"))
			if err != nil {
				return errors.Wrapf(err, "run %s", library)
			}

			doc := runOutput{
				Library:      strings.ToLower(library),
				Distribution: strings.ToLower(distribution),
				Skipped:      out.Skipped(),
				Reason:       out.Reason,
			}
			if r := out.Result; r != nil {
				doc.Runtime = r.Runtime
				doc.Intercept = r.Intercept
				doc.Coef = r.Coef
				doc.NIter = r.NIter
				doc.Converged = r.Converged
				if doc.Metrics, err = fitMetrics(data, doc.Distribution, r); err != nil {
					return errors.Wrapf(err, "run %s", library)
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}

	f := cmd.Flags()
	f.String("library", "fitsparse", "adapter to run: fitsparse, glm")
	f.String("distribution", "gaussian", "response distribution: gaussian, poisson")
	f.Float64("alpha", 0.1, "overall penalty strength")
	f.Float64("l1-ratio", 0.5, "elastic-net mixing parameter in [0, 1]")
	f.Bool("weights", false, "attach random sample weights")
	addDataFlags(cmd)
	return cmd
}

// fitMetrics scores r on the data it was fitted to. Gaussian fits report
// RMSE, MAE and R², Poisson fits report the mean Poisson deviance.
func fitMetrics(data bench.Data, distribution string, r *bench.Result) (map[string]float64, error) {
	n := len(data.Y)
	eta := mat.NewVecDense(n, nil)
	eta.MulVec(data.X, mat.NewVecDense(len(r.Coef), r.Coef))
	yTrue := mat.NewVecDense(n, data.Y)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		e := eta.AtVec(i) + r.Intercept
		if distribution == "poisson" {
			e = errors.StabilizeExp(e)
		}
		yPred.SetVec(i, e)
	}

	if distribution == "poisson" {
		dev, err := metrics.MeanPoissonDeviance(yTrue, yPred)
		if err != nil {
			return nil, err
		}
		return map[string]float64{"poisson_deviance": dev}, nil
	}

	out := make(map[string]float64, 3)
	scores := []struct {
		name  string
		score func(a, b *mat.VecDense) (float64, error)
	}{
		{"rmse", metrics.RMSE},
		{"mae", metrics.MAE},
		{"r2", metrics.R2Score},
	}
	for _, s := range scores {
		v, err := s.score(yTrue, yPred)
		if err != nil {
			return nil, err
		}
		out[s.name] = v
	}
	return out, nil
}
