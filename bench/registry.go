package bench

import (
	"slices"
	"strings"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

// Func is a benchmark adapter.
type Func func(data Data, distribution string, alpha, l1Ratio float64) (Outcome, error)

// Registry maps library names to adapters.
type Registry map[string]Func

// DefaultRegistry returns the adapters shipped with this package.
func DefaultRegistry() Registry {
	return Registry{
		"fitsparse": FitSparse,
		"glm":       GLM,
	}
}

// Lookup returns the adapter registered under name (case-insensitive).
func (r Registry) Lookup(name string) (Func, error) {
	fn, ok := r[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.NewValidationError("library", "unknown library, expected one of "+strings.Join(r.Names(), ", "), name)
	}
	return fn, nil
}

// Names returns the registered library names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
