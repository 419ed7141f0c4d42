// Package glmbench is a benchmark harness for regularized generalized linear
// models (GLMs) in Go.
//
// It has two parts. The bench package wraps GLM fitting routines behind a
// uniform adapter that returns timing and fitted coefficients, or abstains
// with a reason when the input is outside what the routine supports. The
// sklearn/linear_model package provides GeneralizedLinearRegressor and its
// cross-validated variant, whose results agree with the reference
// ElasticNetCV and RidgeCV in the linear package.
//
// # Installation
//
//	go get github.com/YuminosukeSato/glmbench
//
// # Quick Start
//
// Cross-validated elastic net with an identity link:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/glmbench/datasets"
//	    lm "github.com/YuminosukeSato/glmbench/sklearn/linear_model"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X, y, _, err := datasets.MakeRegression(datasets.Config{
//	        NSamples: 110, NFeatures: 10, NInformative: 5, Noise: 0.5, RandomState: 42,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    model, err := lm.NewGeneralizedLinearRegressorCV(
//	        lm.WithCVL1Ratios(0.3, 0.6),
//	        lm.WithNAlphas(20),
//	        lm.WithCV(5),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := model.Fit(X, mat.NewVecDense(len(y), y)); err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(model.Alpha_, model.L1Ratio_, model.Coef())
//	}
//
// Benchmarking the fit_sparse routine:
//
//	out, err := bench.FitSparse(bench.Data{X: X, Y: y}, "poisson", 0.1, 0.5)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if out.Skipped() {
//	    fmt.Println("skipped:", out.Reason)
//	}
//
// # Packages
//
//   - bench: benchmark adapters (fitsparse, glm), Outcome and Registry
//   - fitsparse: proximal Newton fit of L1/L2 regularized Normal and Poisson GLMs
//   - sklearn/linear_model: GeneralizedLinearRegressor(CV) with cd, irls and lbfgs solvers
//   - sklearn/model_selection: KFold and row subsetting
//   - linear: reference ElasticNet(CV) and Ridge(CV)
//   - sparse: COO and CSR matrices implementing mat.Matrix
//   - datasets: synthetic regression problems
//   - metrics: MSE, R² and deviances
//   - preprocessing: weighted StandardScaler
//   - core/model: estimator interfaces, fitted state and weight export
//   - core/parallel: worker helpers
//   - pkg/errors, pkg/log: error types and structured logging
//
// # Command line
//
// cmd/glmbench runs the adapters and the CV fit on synthetic data:
//
//	glmbench run --library fitsparse --distribution poisson --rows 1000
//	glmbench cv --l1-ratio 0.3,0.6 --n-alphas 20 --plot mse.png
//
// # License
//
// glmbench is released under the MIT License.
package glmbench
