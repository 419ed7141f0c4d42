package linear_model

import (
	"math"
	"strings"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

// Family is an exponential-dispersion family of the response.
type Family int

const (
	// Normal is the Gaussian family, V(μ) = 1.
	Normal Family = iota
	// Poisson is for counts, V(μ) = μ.
	Poisson
	// Gamma is for positive continuous responses, V(μ) = μ².
	Gamma
	// Binomial is for proportions in [0, 1], V(μ) = μ(1-μ).
	Binomial
)

const muEpsilon = 1e-15

// ParseFamily maps a family name to a Family. Names are case-insensitive and
// "gaussian" is accepted for Normal.
func ParseFamily(name string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "normal", "gaussian":
		return Normal, nil
	case "poisson":
		return Poisson, nil
	case "gamma":
		return Gamma, nil
	case "binomial":
		return Binomial, nil
	}
	return 0, errors.NewValidationError("family", "unknown family", name)
}

func (f Family) String() string {
	switch f {
	case Normal:
		return "normal"
	case Poisson:
		return "poisson"
	case Gamma:
		return "gamma"
	case Binomial:
		return "binomial"
	}
	return "unknown"
}

func (f Family) valid() bool {
	return f >= Normal && f <= Binomial
}

// DefaultLink returns the link used when none is configured.
// Gamma uses the log link.
func (f Family) DefaultLink() Link {
	switch f {
	case Poisson, Gamma:
		return Log
	case Binomial:
		return Logit
	}
	return Identity
}

// Variance returns the unit variance function V(μ).
func (f Family) Variance(mu float64) float64 {
	switch f {
	case Poisson:
		return mu
	case Gamma:
		return mu * mu
	case Binomial:
		return mu * (1 - mu)
	}
	return 1
}

// UnitDeviance returns d(y, μ). It is +Inf when μ is outside the family's
// mean domain.
func (f Family) UnitDeviance(y, mu float64) float64 {
	if !f.inMuRange(mu) {
		return math.Inf(1)
	}
	switch f {
	case Poisson:
		return 2 * (xlogy(y, y/mu) - y + mu)
	case Gamma:
		return 2 * (math.Log(mu/y) + y/mu - 1)
	case Binomial:
		return 2 * (xlogy(y, y/mu) + xlogy(1-y, (1-y)/(1-mu)))
	}
	d := y - mu
	return d * d
}

// InYRange reports whether y is a valid response value.
func (f Family) InYRange(y float64) bool {
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return false
	}
	switch f {
	case Poisson:
		return y >= 0
	case Gamma:
		return y > 0
	case Binomial:
		return y >= 0 && y <= 1
	}
	return true
}

func (f Family) inMuRange(mu float64) bool {
	if math.IsNaN(mu) || math.IsInf(mu, 0) {
		return false
	}
	switch f {
	case Poisson, Gamma:
		return mu > 0
	case Binomial:
		return mu > 0 && mu < 1
	}
	return true
}

// clipMu keeps μ strictly inside the mean domain so that variance and link
// evaluations stay finite.
func (f Family) clipMu(mu float64) float64 {
	switch f {
	case Poisson, Gamma:
		return math.Max(mu, muEpsilon)
	case Binomial:
		return errors.ClipValue(mu, muEpsilon, 1-muEpsilon)
	}
	return mu
}

// xlogy returns x·log(r) with 0·log(·) = 0.
func xlogy(x, r float64) float64 {
	if x == 0 {
		return 0
	}
	return x * math.Log(r)
}
