package histo

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"
)

// Hist is a weighted histogram with the yield of everything filled into
// it, in range or not.
type Hist struct {
	edges   []float64
	h       *hbook.H1D
	yield   float64
	skipped int
}

// New returns an empty histogram with binning b.
func New(b Binning) *Hist {
	var h *hbook.H1D
	if b.IsRegular() {
		h = hbook.NewH1D(b.Nbins, b.Low, b.High)
	} else {
		h = hbook.NewH1DFromEdges(b.Explicit)
	}
	return &Hist{edges: b.Edges(), h: h}
}

// Fill adds one event with weight w. Events with a NaN value or weight
// are counted as skipped and not filled.
func (h *Hist) Fill(x, w float64) {
	if math.IsNaN(x) || math.IsNaN(w) {
		h.skipped++
		return
	}
	h.h.Fill(x, w)
	h.yield += w
}

// FillN fills values with weight weights[i]*scale, or scale alone when
// weights is nil.
func (h *Hist) FillN(values, weights []float64, scale float64) error {
	if weights != nil && len(weights) != len(values) {
		return fmt.Errorf("%d values but %d weights", len(values), len(weights))
	}
	for i, x := range values {
		w := scale
		if weights != nil {
			w *= weights[i]
		}
		h.Fill(x, w)
	}
	return nil
}

// Edges returns the bin edges.
func (h *Hist) Edges() []float64 {
	return append([]float64(nil), h.edges...)
}

// Len returns the number of bins.
func (h *Hist) Len() int { return len(h.edges) - 1 }

// Values returns the sum of weights in each bin.
func (h *Hist) Values() []float64 {
	out := make([]float64, h.Len())
	for i := range out {
		out[i] = h.h.Binning.Bins[i].SumW()
	}
	return out
}

// Errors returns the square root of the sum of squared weights per bin.
func (h *Hist) Errors() []float64 {
	out := make([]float64, h.Len())
	for i := range out {
		out[i] = math.Sqrt(h.h.Binning.Bins[i].SumW2())
	}
	return out
}

// Yield is the sum of all filled weights, including under- and overflow.
func (h *Hist) Yield() float64 { return h.yield }

// Skipped counts the events not filled because of NaN values or weights.
func (h *Hist) Skipped() int { return h.skipped }

// Integral is the sum of weights inside the axis range.
func (h *Hist) Integral() float64 {
	sum := 0.0
	for _, v := range h.Values() {
		sum += v
	}
	return sum
}

// Density returns values and errors divided by the in-range integral and
// the bin width, so the histogram integrates to one.
func (h *Hist) Density() (values, errors []float64) {
	values = h.Values()
	errors = h.Errors()
	norm := h.Integral()
	for i := range values {
		width := h.edges[i+1] - h.edges[i]
		if norm == 0 {
			values[i], errors[i] = 0, 0
			continue
		}
		values[i] /= norm * width
		errors[i] /= norm * width
	}
	return values, errors
}

// Ratio divides num by ref bin by bin. When normalise is set the result
// is also multiplied by ref.Yield()/num.Yield(), comparing shapes rather
// than absolute yields. Bins with an empty reference are NaN.
func Ratio(num, ref *Hist, normalise bool) ([]float64, error) {
	if num.Len() != ref.Len() {
		return nil, fmt.Errorf("cannot divide a %d-bin histogram by a %d-bin one", num.Len(), ref.Len())
	}
	scale := 1.0
	if normalise {
		scale = ref.Yield() / num.Yield()
	}
	nv, rv := num.Values(), ref.Values()
	out := make([]float64, len(nv))
	for i := range nv {
		if rv[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = nv[i] / rv[i] * scale
	}
	return out, nil
}

// Ratios divides every histogram by the first one. A single histogram is
// returned as its own values.
func Ratios(hists []*Hist, normalise bool) ([][]float64, error) {
	if len(hists) == 1 {
		return [][]float64{hists[0].Values()}, nil
	}
	out := make([][]float64, len(hists))
	for i, h := range hists {
		r, err := Ratio(h, hists[0], normalise)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}
