package main

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// savePlot renders a validation curve to an image; the format follows the
// file extension (.png, .svg, .pdf).
func savePlot(path, metric string, values []float64) error {
	if len(values) == 0 {
		return errors.NewValueError("savePlot", "no validation errors to plot")
	}
	p := plot.New()
	p.Title.Text = "Validation " + metric
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = metric

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "failed to build validation curve")
	}
	p.Add(plotter.NewGrid(), line)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save plot %s", path)
	}
	return nil
}
