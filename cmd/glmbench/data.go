package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/glmbench/bench"
	"github.com/YuminosukeSato/glmbench/datasets"
	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

// dataConfig describes the synthetic problem a command fits.
type dataConfig struct {
	rows     int
	features int
	sparse   bool
	density  float64
	seed     uint64
	weights  bool
	poisson  bool
}

func addDataFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("rows", 500, "number of observations")
	f.Int("features", 10, "number of features")
	f.Bool("sparse", false, "store X as a CSR matrix")
	f.Float64("density", 0.1, "fraction of non-zero entries when --sparse")
	f.Uint64("seed", 42, "random seed")
}

func readDataConfig(v *viper.Viper, poisson bool) dataConfig {
	return dataConfig{
		rows:     v.GetInt("rows"),
		features: v.GetInt("features"),
		sparse:   v.GetBool("sparse"),
		density:  v.GetFloat64("density"),
		seed:     v.GetUint64("seed"),
		poisson:  poisson,
	}
}

// makeData draws X, y and optional weights for cfg.
func makeData(cfg dataConfig) (bench.Data, error) {
	ds := datasets.Config{
		NSamples:     cfg.rows,
		NFeatures:    cfg.features,
		NInformative: (cfg.features + 1) / 2,
		Noise:        1,
		Bias:         1,
		RandomState:  cfg.seed,
	}

	var data bench.Data
	switch {
	case cfg.sparse:
		X, err := datasets.MakeSparse(cfg.rows, cfg.features, cfg.density, cfg.seed)
		if err != nil {
			return data, err
		}
		rng := datasets.NewRand(cfg.seed + 1)
		coef := datasets.InformativeCoef(rng, cfg.features, ds.NInformative, -1, 1)
		data.X = X
		if cfg.poisson {
			data.Y = datasets.PoissonResponse(rng, X, coef, 0.5)
		} else {
			data.Y = datasets.LinearResponse(rng, X, coef, ds.Bias, ds.Noise)
		}
	case cfg.poisson:
		ds.Bias = 0.5
		X, y, _, err := datasets.MakePoissonRegression(ds)
		if err != nil {
			return data, err
		}
		data.X, data.Y = X, y
	default:
		X, y, _, err := datasets.MakeRegression(ds)
		if err != nil {
			return data, err
		}
		data.X, data.Y = X, y
	}

	if cfg.weights {
		w := distuv.Uniform{Min: 0.5, Max: 1.5, Src: datasets.NewRand(cfg.seed + 2)}
		data.Weights = make([]float64, cfg.rows)
		for i := range data.Weights {
			data.Weights[i] = w.Rand()
		}
	}
	return data, nil
}

// parseFloatList parses a comma separated list such as "0.3,0.6".
func parseFloatList(name, s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		x, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, errors.NewValidationError(name, "must be a comma separated list of numbers", s)
		}
		out = append(out, x)
	}
	if len(out) == 0 {
		return nil, errors.NewValidationError(name, "must not be empty", s)
	}
	return out, nil
}
