package linear_model

import (
	"math"
	"strings"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

// Link maps the mean μ to the linear predictor η.
type Link int

const (
	// LinkAuto selects the family's default link.
	LinkAuto Link = iota - 1
	// Identity is η = μ.
	Identity
	// Log is η = log(μ).
	Log
	// Logit is η = log(μ / (1-μ)).
	Logit
)

// ParseLink maps a link name to a Link. "auto" and "" give LinkAuto.
func ParseLink(name string) (Link, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return LinkAuto, nil
	case "identity":
		return Identity, nil
	case "log":
		return Log, nil
	case "logit":
		return Logit, nil
	}
	return 0, errors.NewValidationError("link", "unknown link", name)
}

func (l Link) String() string {
	switch l {
	case LinkAuto:
		return "auto"
	case Identity:
		return "identity"
	case Log:
		return "log"
	case Logit:
		return "logit"
	}
	return "unknown"
}

func (l Link) valid() bool {
	return l >= LinkAuto && l <= Logit
}

// Resolve returns the concrete link for family f.
func (l Link) Resolve(f Family) Link {
	if l == LinkAuto {
		return f.DefaultLink()
	}
	return l
}

// Link returns η = g(μ).
func (l Link) Link(mu float64) float64 {
	switch l {
	case Log:
		return errors.StabilizeLog(mu)
	case Logit:
		return errors.StabilizeLog(mu) - errors.StabilizeLog(1-mu)
	}
	return mu
}

// Inverse returns μ = h(η) = g⁻¹(η).
func (l Link) Inverse(eta float64) float64 {
	switch l {
	case Log:
		return errors.StabilizeExp(eta)
	case Logit:
		return 1 / (1 + math.Exp(-eta))
	}
	return eta
}

// InverseDerivative returns h'(η) = dμ/dη.
func (l Link) InverseDerivative(eta float64) float64 {
	switch l {
	case Log:
		return errors.StabilizeExp(eta)
	case Logit:
		e := math.Exp(-math.Abs(eta))
		return e / ((1 + e) * (1 + e))
	}
	return 1
}
