// Package fitsparse fits L1/L2 regularized GLMs by proximal Newton
// iterations: every iteration builds the Fisher information at the current
// coefficients and runs a fixed number of coordinate-descent sweeps over the
// penalized quadratic model. The design is used as given, so an intercept
// has to be supplied as an explicit column and is penalized like any other
// coefficient.
package fitsparse

import (
	"math"
	"strings"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

// Model is the response distribution with its canonical link.
type Model int

const (
	// Normal has identity link and unit scale.
	Normal Model = iota
	// Poisson has log link.
	Poisson
)

// ParseModel maps a distribution name to a Model. Only "gaussian" and
// "poisson" are recognized, in any letter case.
func ParseModel(name string) (Model, error) {
	switch strings.ToLower(name) {
	case "gaussian":
		return Normal, nil
	case "poisson":
		return Poisson, nil
	}
	return 0, errors.NewNotImplementedError("fitsparse", "unsupported distribution \""+name+"\"")
}

func (m Model) String() string {
	switch m {
	case Normal:
		return "gaussian"
	case Poisson:
		return "poisson"
	}
	return "unknown"
}

// mean returns μ = h(η).
func (m Model) mean(eta float64) float64 {
	if m == Poisson {
		return errors.StabilizeExp(eta)
	}
	return eta
}

// nll returns the negative log-likelihood of y at η without constant terms.
func (m Model) nll(y, eta float64) float64 {
	if m == Poisson {
		return errors.StabilizeExp(eta) - y*eta
	}
	d := y - eta
	return 0.5 * d * d
}

// fisherWeight returns the Fisher information weight at η.
func (m Model) fisherWeight(eta float64) float64 {
	if m == Poisson {
		return errors.StabilizeExp(eta)
	}
	return 1
}

func (m Model) validY(y float64) bool {
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return false
	}
	return m != Poisson || y >= 0
}
