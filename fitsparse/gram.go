package fitsparse

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/core/parallel"
	"github.com/YuminosukeSato/glmbench/sparse"
)

// rows per call below which X·β is computed serially
const parallelRows = 4096

// design evaluates X·β and the weighted Gram matrix for either storage.
type design interface {
	dims() (int, int)
	// linearPredictor writes X·β into eta.
	linearPredictor(beta, eta []float64)
	// gradientAndGram writes Xᵀr into g and XᵀWX into h.
	gradientAndGram(r, w, g []float64, h *mat.SymDense)
}

func newDesign(X mat.Matrix) design {
	if csr, ok := sparse.AsCSR(X); ok {
		return csrDesign{csr}
	}
	if d, ok := X.(*mat.Dense); ok {
		return denseDesign{d}
	}
	return denseDesign{mat.DenseCopyOf(X)}
}

type denseDesign struct{ X *mat.Dense }

func (d denseDesign) dims() (int, int) { return d.X.Dims() }

func (d denseDesign) linearPredictor(beta, eta []float64) {
	n, _ := d.X.Dims()
	parallel.ParallelizeWithThreshold(n, parallelRows, func(start, end int) {
		for i := start; i < end; i++ {
			eta[i] = floats.Dot(d.X.RawRowView(i), beta)
		}
	})
}

func (d denseDesign) gradientAndGram(r, w, g []float64, h *mat.SymDense) {
	n, p := d.X.Dims()
	for j := range g {
		g[j] = 0
	}
	scaled := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		row := d.X.RawRowView(i)
		floats.AddScaled(g, r[i], row)
		floats.ScaleTo(scaled.RawRowView(i), math.Sqrt(w[i]), row)
	}
	h.SymOuterK(1, scaled.T())
}

type csrDesign struct{ X *sparse.CSR }

func (d csrDesign) dims() (int, int) { return d.X.Dims() }

func (d csrDesign) linearPredictor(beta, eta []float64) {
	n, _ := d.X.Dims()
	parallel.ParallelizeWithThreshold(n, parallelRows, func(start, end int) {
		for i := start; i < end; i++ {
			eta[i] = sparse.RowDot(d.X, i, beta)
		}
	})
}

// gradientAndGram accumulates only the non-zero pairs of every row.
func (d csrDesign) gradientAndGram(r, w, g []float64, h *mat.SymDense) {
	n, p := d.X.Dims()
	for j := range g {
		g[j] = 0
	}
	acc := make([]float64, p*p)
	for i := 0; i < n; i++ {
		cols, vals := sparse.RowEntries(d.X, i)
		for a, ja := range cols {
			g[ja] += r[i] * vals[a]
			wa := w[i] * vals[a]
			for b := a; b < len(cols); b++ {
				lo, hi := ja, cols[b]
				if lo > hi {
					lo, hi = hi, lo
				}
				acc[lo*p+hi] += wa * vals[b]
			}
		}
	}
	for a := 0; a < p; a++ {
		for b := a; b < p; b++ {
			h.SetSym(a, b, acc[a*p+b])
		}
	}
}
