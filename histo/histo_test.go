package histo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/cfgplot/config"
)

func TestRegularEdges(t *testing.T) {
	b, err := Parse(4, 0, 8, config.RegularBinning)
	require.NoError(t, err)
	assert.True(t, b.IsRegular())
	assert.Equal(t, []float64{0, 2, 4, 6, 8}, b.Edges())

	b, err = Parse(3, 0, 1, "")
	require.NoError(t, err)
	edges := b.Edges()
	require.Len(t, edges, 4)
	assert.Equal(t, 1.0, edges[3])
	assert.InDelta(t, 1.0/3, edges[1], 1e-15)
}

func TestVariableEdges(t *testing.T) {
	b, err := Parse(99, -5, 5, "0,1,5,10")
	require.NoError(t, err)
	assert.False(t, b.IsRegular())
	assert.Equal(t, 3, b.Nbins)
	assert.Equal(t, []float64{0, 1, 5, 10}, b.Edges())

	b, err = Parse(0, 0, 0, " 0, 2.5 ,1e1 ")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2.5, 10}, b.Edges())
}

func TestBinningErrors(t *testing.T) {
	tests := []struct {
		name    string
		nbins   int
		low     float64
		high    float64
		binning string
		errPart string
	}{
		{name: "no bins", nbins: 0, low: 0, high: 1, binning: "-99", errPart: "positive number of bins"},
		{name: "inverted", nbins: 2, low: 1, high: 0, binning: "-99", errPart: "low < high"},
		{name: "empty range", nbins: 2, low: 1, high: 1, binning: "", errPart: "low < high"},
		{name: "infinite", nbins: 2, low: 0, high: math.Inf(1), binning: "", errPart: "finite range"},
		{name: "one edge", binning: "3", errPart: "at least 2 edges"},
		{name: "unsorted", binning: "0,5,1", errPart: "strictly increasing"},
		{name: "repeated", binning: "0,1,1,2", errPart: "strictly increasing"},
		{name: "not a number", binning: "0,a,2", errPart: "could not parse bin edges"},
		{name: "empty item", binning: "0,,2", errPart: "could not parse bin edges"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.nbins, tt.low, tt.high, tt.binning)
			assert.ErrorContains(t, err, tt.errPart)
		})
	}
}

func TestForVariable(t *testing.T) {
	_, err := ForVariable(config.Variable{Branch: "pt", Nbins: 0, Binning: "-99"})
	assert.ErrorContains(t, err, `variable "pt"`)

	b, err := ForVariable(config.Variable{Branch: "pt", Binning: "0,10,20"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 10, 20}, b.Edges())

	for _, text := range []string{"", "-99", " -99 ", "0,10,20"} {
		v := config.Variable{Branch: "pt", Nbins: 2, Low: 0, High: 20, Binning: text}
		b, err := ForVariable(v)
		require.NoError(t, err, text)
		assert.Equal(t, v.IsRegular(), b.IsRegular(), text)
	}
}

func TestFillWeightedYield(t *testing.T) {
	b, err := Regular(1, 0, 2)
	require.NoError(t, err)
	h := New(b)

	const lumi = 3.0
	require.NoError(t, h.FillN([]float64{1, 1, 1}, []float64{2, 2, 2}, lumi))

	assert.Equal(t, []float64{18}, h.Values())
	assert.Equal(t, 18.0, h.Yield())
	assert.InDelta(t, math.Sqrt(3*36), h.Errors()[0], 1e-12)
}

func TestFillUnweightedAndOutOfRange(t *testing.T) {
	b, err := Regular(4, 0, 100)
	require.NoError(t, err)
	h := New(b)

	require.NoError(t, h.FillN([]float64{10, 30, 30, 99, 150, -1, math.NaN()}, nil, 1))

	assert.Equal(t, []float64{1, 2, 0, 1}, h.Values())
	assert.Equal(t, 4.0, h.Integral())
	assert.Equal(t, 6.0, h.Yield(), "yield counts under- and overflow")
	assert.Equal(t, 1, h.Skipped())
}

func TestFillVariableBins(t *testing.T) {
	b, err := Variable([]float64{0, 1, 5, 10})
	require.NoError(t, err)
	h := New(b)

	require.NoError(t, h.FillN([]float64{0.5, 2, 4, 7}, []float64{1, 0.5, 0.5, math.NaN()}, 2))
	assert.Equal(t, []float64{2, 2, 0}, h.Values())
	assert.Equal(t, 4.0, h.Yield())
	assert.Equal(t, 1, h.Skipped())
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []float64{0, 1, 5, 10}, h.Edges())
}

func TestFillNLengthMismatch(t *testing.T) {
	b, _ := Regular(1, 0, 1)
	assert.Error(t, New(b).FillN([]float64{1, 2}, []float64{1}, 1))
}

func TestDensity(t *testing.T) {
	b, err := Variable([]float64{0, 1, 3})
	require.NoError(t, err)
	h := New(b)
	require.NoError(t, h.FillN([]float64{0.5, 2, 2, 2}, nil, 1))

	values, errs := h.Density()
	assert.InDelta(t, 0.25, values[0], 1e-12)
	assert.InDelta(t, 0.375, values[1], 1e-12)
	assert.InDelta(t, 0.25, errs[0], 1e-12)
	assert.InDelta(t, math.Sqrt(3)/8, errs[1], 1e-12)

	integral := values[0]*1 + values[1]*2
	assert.InDelta(t, 1.0, integral, 1e-12)

	empty := New(b)
	values, _ = empty.Density()
	assert.Equal(t, []float64{0, 0}, values)
}

func TestRatio(t *testing.T) {
	b, _ := Regular(3, 0, 3)
	ref := New(b)
	num := New(b)
	require.NoError(t, ref.FillN([]float64{0.5, 0.5, 1.5, 1.5}, nil, 1))
	require.NoError(t, num.FillN([]float64{0.5, 1.5, 1.5, 1.5, 1.5, 2.5}, nil, 1))

	got, err := Ratio(num, ref, false)
	require.NoError(t, err)
	assert.Equal(t, 0.5, got[0])
	assert.Equal(t, 2.0, got[1])
	assert.True(t, math.IsNaN(got[2]))

	got, err = Ratio(num, ref, true)
	require.NoError(t, err)
	assert.InDelta(t, 0.5*4.0/6.0, got[0], 1e-12)
	assert.InDelta(t, 2.0*4.0/6.0, got[1], 1e-12)

	other, _ := Regular(2, 0, 3)
	_, err = Ratio(New(other), ref, false)
	assert.Error(t, err)
}

func TestRatios(t *testing.T) {
	b, _ := Regular(2, 0, 2)
	only := New(b)
	require.NoError(t, only.FillN([]float64{0.5, 1.5, 1.5}, nil, 2))

	got, err := Ratios([]*Hist{only}, true)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 4}}, got)

	second := New(b)
	require.NoError(t, second.FillN([]float64{0.5, 0.5, 1.5}, nil, 1))
	got, err = Ratios([]*Hist{only, second}, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, got[0])
	assert.Equal(t, []float64{1, 0.25}, got[1])
}
