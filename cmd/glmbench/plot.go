package main

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

// plotMSEPath draws the fold-mean CV error against alpha on a log axis,
// one line per l1_ratio, with the selected alpha marked.
func plotMSEPath(path string, l1Ratios []float64, alphas, meanMSE [][]float64, selected float64) error {
	p := plot.New()
	p.Title.Text = "Cross-validation MSE path"
	p.X.Label.Text = "alpha"
	p.Y.Label.Text = "mean MSE"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, grid := range alphas {
		pts := make(plotter.XYs, 0, len(grid))
		for k, a := range grid {
			if a <= 0 {
				// log axis
				continue
			}
			pts = append(pts, plotter.XY{X: a, Y: meanMSE[i][k]})
			lo = math.Min(lo, meanMSE[i][k])
			hi = math.Max(hi, meanMSE[i][k])
		}
		if len(pts) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return errors.Wrap(err, "plot MSE path")
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)
		p.Legend.Add(fmt.Sprintf("l1_ratio=%g", l1Ratios[i]), line, points)
	}

	if selected > 0 && lo <= hi {
		marker, err := plotter.NewLine(plotter.XYs{{X: selected, Y: lo}, {X: selected, Y: hi}})
		if err != nil {
			return errors.Wrap(err, "plot selected alpha")
		}
		marker.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(marker)
		p.Legend.Add(fmt.Sprintf("alpha_=%.3g", selected), marker)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
