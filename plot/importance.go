// Package plot renders charts for trained boosters with gonum/plot.
package plot

import (
	"io"
	"path/filepath"
	"sort"
	"strings"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

type options struct {
	title       string
	xLabel      string
	maxFeatures int
	width       vg.Length
}

// Option customizes an importance chart.
type Option func(*options)

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(o *options) { o.title = title }
}

// WithXLabel sets the value axis label, e.g. "gain".
func WithXLabel(label string) Option {
	return func(o *options) { o.xLabel = label }
}

// WithMaxFeatures keeps only the n most important features. n <= 0 keeps all.
func WithMaxFeatures(n int) Option {
	return func(o *options) { o.maxFeatures = n }
}

// WithWidth sets the image width. The height follows the number of bars.
func WithWidth(w vg.Length) Option {
	return func(o *options) { o.width = w }
}

type bar struct {
	name  string
	value float64
}

// rank pairs names with values and orders them by ascending value, so the
// most important feature is drawn at the top.
func rank(names []string, values []float64, maxFeatures int) []bar {
	bars := make([]bar, len(names))
	for i := range names {
		bars[i] = bar{name: names[i], value: values[i]}
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].value > bars[j].value })
	if maxFeatures > 0 && maxFeatures < len(bars) {
		bars = bars[:maxFeatures]
	}
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars
}

func build(op string, names []string, values []float64, opts []Option) (*gplot.Plot, vg.Length, vg.Length, error) {
	if len(names) != len(values) {
		return nil, 0, 0, errors.NewDimensionError(op, len(names), len(values), 1)
	}
	if len(names) == 0 {
		return nil, 0, 0, errors.NewValueError(op, "no features to plot")
	}
	o := &options{title: "Feature importance", xLabel: "importance", width: 6 * vg.Inch}
	for _, opt := range opts {
		opt(o)
	}

	bars := rank(names, values, o.maxFeatures)
	heights := make(plotter.Values, len(bars))
	labels := make([]string, len(bars))
	for i, b := range bars {
		heights[i] = b.value
		labels[i] = b.name
	}

	p := gplot.New()
	p.Title.Text = o.title
	p.X.Label.Text = o.xLabel
	p.X.Min = 0

	chart, err := plotter.NewBarChart(heights, vg.Points(12))
	if err != nil {
		return nil, 0, 0, errors.Wrap(err, op)
	}
	chart.Horizontal = true
	p.Add(chart)
	p.NominalY(labels...)

	height := vg.Inch + vg.Length(len(bars))*vg.Points(20)
	return p, o.width, height, nil
}

// Importance renders a horizontal bar chart of values by feature name to
// path. The image format follows the extension (.png, .svg, .pdf, ...).
func Importance(names []string, values []float64, path string, opts ...Option) error {
	const op = "plot.Importance"
	p, w, h, err := build(op, names, values, opts)
	if err != nil {
		return err
	}
	if err := p.Save(w, h, path); err != nil {
		return errors.Wrapf(err, "%s: save %s", op, filepath.Base(path))
	}
	return nil
}

// WriteImportance renders the same chart as Importance to w in the given
// format ("png", "svg", ...).
func WriteImportance(w io.Writer, format string, names []string, values []float64, opts ...Option) error {
	const op = "plot.WriteImportance"
	p, width, height, err := build(op, names, values, opts)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, strings.ToLower(format))
	if err != nil {
		return errors.Wrap(err, op)
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, op)
}
