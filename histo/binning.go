// Package histo builds weighted one-dimensional histograms per process.
package histo

import (
	"fmt"
	"math"
	"strings"

	"github.com/decibelcooper/cfgplot"
	"github.com/decibelcooper/cfgplot/config"
)

// Binning is either Nbins equal-width bins between Low and High, or
// explicit Edges when Edges is non-nil.
type Binning struct {
	Nbins     int
	Low, High float64
	Explicit  []float64
}

// Regular returns equal-width binning.
func Regular(nbins int, low, high float64) (Binning, error) {
	switch {
	case nbins <= 0:
		return Binning{}, fmt.Errorf("regular binning needs a positive number of bins, got %d", nbins)
	case math.IsNaN(low) || math.IsNaN(high) || math.IsInf(low, 0) || math.IsInf(high, 0):
		return Binning{}, fmt.Errorf("regular binning needs a finite range, got [%g, %g]", low, high)
	case !(low < high):
		return Binning{}, fmt.Errorf("regular binning needs low < high, got [%g, %g]", low, high)
	}
	return Binning{Nbins: nbins, Low: low, High: high}, nil
}

// Variable returns binning with the given strictly increasing edges.
func Variable(edges []float64) (Binning, error) {
	if len(edges) < 2 {
		return Binning{}, fmt.Errorf("variable binning needs at least 2 edges, got %d", len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return Binning{}, fmt.Errorf("bin edges must be strictly increasing, got %g after %g", edges[i], edges[i-1])
		}
	}
	explicit := append([]float64(nil), edges...)
	return Binning{
		Nbins:    len(edges) - 1,
		Low:      edges[0],
		High:     edges[len(edges)-1],
		Explicit: explicit,
	}, nil
}

// Parse returns the binning described by text: the regular-binning
// sentinel (or empty) selects nbins bins over [low, high], anything else is
// read as a comma-separated list of edges and the other arguments are
// ignored.
func Parse(nbins int, low, high float64, text string) (Binning, error) {
	v := config.Variable{Nbins: nbins, Low: low, High: high, Binning: text}
	if v.IsRegular() {
		return Regular(nbins, low, high)
	}
	text = strings.TrimSpace(text)
	edges, err := cfgplot.ParseFloatList(text)
	if err != nil {
		return Binning{}, fmt.Errorf("could not parse bin edges %q: %w", text, err)
	}
	return Variable(edges)
}

// ForVariable returns the binning configured for v.
func ForVariable(v config.Variable) (Binning, error) {
	b, err := Parse(v.Nbins, v.Low, v.High, v.Binning)
	if err != nil {
		return Binning{}, fmt.Errorf("variable %q: %w", v.Branch, err)
	}
	return b, nil
}

// IsRegular reports whether the bins have equal widths by construction.
func (b Binning) IsRegular() bool {
	return b.Explicit == nil
}

// Edges returns the Nbins+1 bin edges. For regular binning the last edge
// is exactly High.
func (b Binning) Edges() []float64 {
	if !b.IsRegular() {
		return append([]float64(nil), b.Explicit...)
	}
	edges := make([]float64, b.Nbins+1)
	width := (b.High - b.Low) / float64(b.Nbins)
	for i := range edges {
		edges[i] = b.Low + float64(i)*width
	}
	edges[b.Nbins] = b.High
	return edges
}
