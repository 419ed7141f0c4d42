package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
	"github.com/YuminosukeSato/glmbench/pkg/log"
	lm "github.com/YuminosukeSato/glmbench/sklearn/linear_model"
)

// cvOutput is the JSON document printed by `glmbench cv`.
type cvOutput struct {
	Family    string      `json:"family"`
	Alpha     float64     `json:"alpha"`
	L1Ratio   float64     `json:"l1_ratio"`
	Intercept float64     `json:"intercept"`
	Coef      []float64   `json:"coef"`
	NIter     int         `json:"n_iter"`
	Converged bool        `json:"converged"`
	Alphas    [][]float64 `json:"alphas"`
	// MeanMSE[l1][alpha] is the fold mean of the CV error.
	MeanMSE [][]float64 `json:"mean_mse"`
}

func newCVCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cv",
		Short: "Fit the cross-validated elastic-net GLM and print the selection",
		Example: `  glmbench cv --l1-ratio 0.3,0.6 --n-alphas 20 --cv 5 --plot mse.png
  glmbench cv --family poisson --solver cd --export weights.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCV(cmd, v)
		},
	}

	f := cmd.Flags()
	f.String("family", "normal", "distribution family: normal, poisson, gamma, binomial")
	f.String("link", "auto", "link function: auto, identity, log, logit")
	f.String("l1-ratio", "0.5", "comma separated l1_ratio candidates")
	f.Int("n-alphas", 100, "alpha grid size per l1_ratio")
	f.Float64("eps", 1e-3, "alpha_min / alpha_max of the grid")
	f.Int("cv", 5, "number of folds")
	f.String("solver", "auto", "solver: auto, cd, irls, lbfgs")
	f.Bool("fit-intercept", true, "fit an unpenalized intercept")
	f.Float64("gradient-tol", 1e-4, "convergence tolerance on the gradient")
	f.Int("max-iter", 100, "iteration budget per fit")
	f.Int("n-jobs", 1, "parallel (l1_ratio, fold) jobs, <= 0 uses all CPUs")
	f.String("plot", "", "write the MSE path plot to this file (.png, .svg, .pdf)")
	f.String("export", "", "write the fitted weights as JSON to this file")
	addDataFlags(cmd)
	return cmd
}

func runCV(cmd *cobra.Command, v *viper.Viper) error {
	family, err := lm.ParseFamily(v.GetString("family"))
	if err != nil {
		return err
	}
	link, err := lm.ParseLink(v.GetString("link"))
	if err != nil {
		return err
	}
	solver, err := lm.ParseSolver(v.GetString("solver"))
	if err != nil {
		return err
	}
	l1Ratios, err := parseFloatList("l1-ratio", v.GetString("l1-ratio"))
	if err != nil {
		return err
	}

	data, err := makeData(readDataConfig(v, family == lm.Poisson))
	if err != nil {
		return err
	}

	model, err := lm.NewGeneralizedLinearRegressorCV(
		lm.WithCVFamily(family),
		lm.WithCVLink(link),
		lm.WithCVSolver(solver),
		lm.WithCVL1Ratios(l1Ratios...),
		lm.WithNAlphas(v.GetInt("n-alphas")),
		lm.WithMinAlphaRatio(v.GetFloat64("eps")),
		lm.WithCV(v.GetInt("cv")),
		lm.WithCVFitIntercept(v.GetBool("fit-intercept")),
		lm.WithCVGradientTol(v.GetFloat64("gradient-tol")),
		lm.WithCVMaxIter(v.GetInt("max-iter")),
		lm.WithNJobs(v.GetInt("n-jobs")),
	)
	if err != nil {
		return err
	}

	y := mat.NewVecDense(len(data.Y), data.Y)
	if err := model.Fit(data.X, y); err != nil {
		return errors.Wrap(err, "cv fit")
	}

	doc := cvOutput{
		Family:    family.String(),
		Alpha:     model.Alpha_,
		L1Ratio:   model.L1Ratio_,
		Intercept: model.Intercept(),
		Coef:      model.Coef(),
		NIter:     model.NIter_,
		Converged: model.Converged_,
		Alphas:    model.Alphas_,
		MeanMSE:   meanMSE(model.MSEPath_),
	}

	logger := log.GetLoggerWithName("glmbench")
	if path := v.GetString("plot"); path != "" {
		if err := plotMSEPath(path, l1Ratios, doc.Alphas, doc.MeanMSE, doc.Alpha); err != nil {
			return err
		}
		logger.Info("wrote MSE path plot", "path", path)
	}
	if path := v.GetString("export"); path != "" {
		if err := exportWeights(model, path); err != nil {
			return err
		}
		logger.Info("wrote model weights", "path", path)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// meanMSE averages mse[l1][alpha][fold] over folds.
func meanMSE(path [][][]float64) [][]float64 {
	out := make([][]float64, len(path))
	for i, byAlpha := range path {
		out[i] = make([]float64, len(byAlpha))
		for k, folds := range byAlpha {
			out[i][k] = stat.Mean(folds, nil)
		}
	}
	return out
}

func exportWeights(model *lm.GeneralizedLinearRegressorCV, path string) error {
	w, err := model.ExportWeights()
	if err != nil {
		return err
	}
	b, err := w.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
