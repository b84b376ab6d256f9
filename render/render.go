// Package render draws the per-variable comparison figure: the processes
// overlaid in a top panel and their ratio to the first process below.
package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/decibelcooper/cfgplot"
	"github.com/decibelcooper/cfgplot/histo"
)

// OutputRoot is the directory every run writes below.
const OutputRoot = "Output"

// Formats lists the accepted output file extensions.
var Formats = []string{"pdf", "png", "svg", "eps", "jpg", "tiff", "tex"}

// Series is one process in a figure.
type Series struct {
	Name string
	Data bool // drawn with markers and error bars
	Hist *histo.Hist
}

// Figure describes one comparison plot.
type Figure struct {
	XLabel     string
	Header     string
	Normalise  bool       // draw densities and compare shapes in the ratio
	RatioRange [2]float64 // y range of the ratio panel
	Series     []Series
}

// OutputPath returns Output/<outDir>/<column>.<ext>.
func OutputPath(outDir, column, ext string) string {
	return filepath.Join(OutputRoot, outDir, column+"."+ext)
}

// Experiment is the experiment label opening every panel header.
const Experiment = "ATLAS Internal"

// Header returns the panel header, e.g.
// "ATLAS Internal  √s = 13 TeV, 140 fb⁻¹  Z+jets".
func Header(lumi float64, label string) string {
	h := fmt.Sprintf("%s  √s = 13 TeV, %g fb⁻¹", Experiment, lumi)
	if label != "" {
		h += "  " + label
	}
	return h
}

// Legend returns the legend entry "<process> (<yield>)".
func Legend(name string, yield float64) string {
	return fmt.Sprintf("%s (%d)", name, int(yield))
}

// Save draws fig and writes it to path, creating the directory.
func Save(fig Figure, path string) error {
	rp, err := Draw(fig)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}
	if err := hplot.Save(rp, 7*vg.Inch, 7*vg.Inch, path); err != nil {
		return fmt.Errorf("could not save %q: %w", path, err)
	}
	return nil
}

// Draw builds the ratio plot for fig.
func Draw(fig Figure) (*hplot.RatioPlot, error) {
	if len(fig.Series) == 0 {
		return nil, fmt.Errorf("figure %q has no processes", fig.XLabel)
	}
	if !(fig.RatioRange[1] > fig.RatioRange[0]) {
		return nil, fmt.Errorf("invalid ratio range [%g, %g]", fig.RatioRange[0], fig.RatioRange[1])
	}

	hists := make([]*histo.Hist, len(fig.Series))
	for i, s := range fig.Series {
		hists[i] = s.Hist
	}
	ratios, err := histo.Ratios(hists, fig.Normalise)
	if err != nil {
		return nil, err
	}

	rp := hplot.NewRatioPlot()
	rp.Ratio = 1.0 / 7

	top := rp.Top
	top.Title.Text = fig.Header
	top.Legend.Top = true
	top.Legend.Padding = 2 * vg.Millimeter
	top.X.Tick.Marker = cfgplot.PreciseTicks{NSuggestedTicks: 5}
	top.Y.Tick.Marker = cfgplot.PreciseTicks{NSuggestedTicks: 5}
	top.Y.Label.Text = "Events"
	if fig.Normalise {
		top.Y.Label.Text = "Normalised"
	}

	bottom := rp.Bottom
	bottom.X.Label.Text = fig.XLabel
	bottom.X.Tick.Marker = cfgplot.PreciseTicks{NSuggestedTicks: 5}
	bottom.Y.Label.Text = "Ratio"

	edges := hists[0].Edges()
	yMax := 0.0
	mc := 0
	for i, s := range fig.Series {
		values, errs := s.Hist.Values(), s.Hist.Errors()
		if fig.Normalise {
			values, errs = s.Hist.Density()
		}
		for j := range values {
			yMax = math.Max(yMax, values[j]+errs[j])
		}

		lineColor := color.Color(color.Black)
		if !s.Data {
			lineColor = seriesColor(mc)
			mc++
		}

		thumb, err := addSeries(top, s, edges, values, errs, lineColor)
		if err != nil {
			return nil, fmt.Errorf("could not draw %q: %w", s.Name, err)
		}
		top.Legend.Add(Legend(s.Name, s.Hist.Yield()), thumb)

		steps, err := stepLines(edges, ratios[i])
		if err != nil {
			return nil, fmt.Errorf("could not draw ratio of %q: %w", s.Name, err)
		}
		for _, l := range steps {
			l.Color = lineColor
			bottom.Add(l)
		}
	}

	unity := plotter.NewFunction(func(float64) float64 { return 1 })
	unity.Color = color.Gray{Y: 128}
	unity.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	bottom.Add(unity)

	xmin, xmax := edges[0], edges[len(edges)-1]
	top.X.Min, top.X.Max = xmin, xmax
	bottom.X.Min, bottom.X.Max = xmin, xmax
	if yMax <= 0 {
		yMax = 1
	}
	top.Y.Min = 0
	top.Y.Max = yMax * 1.3
	bottom.Y.Min, bottom.Y.Max = fig.RatioRange[0], fig.RatioRange[1]

	return rp, nil
}

// seriesColor picks the line colour of the i-th simulated process.
func seriesColor(i int) color.Color {
	switch i {
	case 0:
		return color.RGBA{R: 255, A: 255}
	case 1:
		return color.RGBA{B: 255, A: 255}
	case 2:
		return color.RGBA{G: 160, A: 255}
	case 3:
		return color.RGBA{R: 255, B: 127, G: 127, A: 255}
	}
	return plotutil.Color(i)
}

// addSeries draws data as markers with error bars and everything else as
// a step line with error bars, returning the legend thumbnail.
func addSeries(p *hplot.Plot, s Series, edges, values, errs []float64, c color.Color) (plot.Thumbnailer, error) {
	n := len(values)
	points := make(plotter.XYs, n)
	yErrors := make(plotter.YErrors, n)
	for i := range points {
		points[i].X = 0.5 * (edges[i] + edges[i+1])
		points[i].Y = values[i]
		yErrors[i].Low = errs[i]
		yErrors[i].High = errs[i]
	}
	errPoints := plotutil.ErrorPoints{XYs: points, YErrors: yErrors}
	yerr, err := plotter.NewYErrorBars(errPoints)
	if err != nil {
		return nil, err
	}
	yerr.LineStyle.Color = c

	if s.Data {
		xErrors := make(plotter.XErrors, n)
		for i := range xErrors {
			half := 0.5 * (edges[i+1] - edges[i])
			xErrors[i].Low, xErrors[i].High = half, half
		}
		errPoints.XErrors = xErrors
		xerr, err := plotter.NewXErrorBars(errPoints)
		if err != nil {
			return nil, err
		}
		xerr.LineStyle.Color = c
		xerr.CapWidth = 0

		markers, err := plotter.NewScatter(points)
		if err != nil {
			return nil, err
		}
		markers.GlyphStyle.Shape = draw.CircleGlyph{}
		markers.GlyphStyle.Color = c
		markers.GlyphStyle.Radius = vg.Points(2.5)

		p.Add(xerr, yerr, markers)
		return markers, nil
	}

	lines, err := stepLines(edges, values)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		l.Color = c
		p.Add(l)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no finite bins")
	}
	p.Add(yerr)
	return lines[0], nil
}

// stepLines draws values as a histogram outline. Non-finite bins, such as
// ratios to an empty reference bin, break the outline into pieces.
func stepLines(edges, values []float64) ([]*plotter.Line, error) {
	var (
		lines []*plotter.Line
		pts   plotter.XYs
	)
	flush := func(end int) error {
		if len(pts) == 0 {
			return nil
		}
		pts = append(pts, plotter.XY{X: edges[end], Y: pts[len(pts)-1].Y})
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.StepStyle = plotter.PostStep
		l.Width = vg.Points(1.2)
		lines = append(lines, l)
		pts = nil
		return nil
	}

	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if err := flush(i); err != nil {
				return nil, err
			}
			continue
		}
		pts = append(pts, plotter.XY{X: edges[i], Y: v})
	}
	if err := flush(len(values)); err != nil {
		return nil, err
	}
	return lines, nil
}
