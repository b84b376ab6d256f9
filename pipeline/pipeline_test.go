package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/cfgplot/config"
	"github.com/decibelcooper/cfgplot/field"
	"github.com/decibelcooper/cfgplot/histo"
	"github.com/decibelcooper/cfgplot/loader"
	"github.com/decibelcooper/cfgplot/report"
	"github.com/decibelcooper/cfgplot/selection"
	"github.com/decibelcooper/cfgplot/table"
)

// memReader serves one freshly built table per file pattern.
type memReader struct {
	mu     sync.Mutex
	tables map[string]func(t *testing.T) *table.Table
	fields map[string][]string
	t      *testing.T
}

func (m *memReader) Read(_ context.Context, files []string, _ string, fields []string) (*table.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fields == nil {
		m.fields = make(map[string][]string)
	}
	m.fields[files[0]] = fields
	mk, ok := m.tables[files[0]]
	if !ok {
		return nil, errors.New("no such file")
	}
	return mk(m.t), nil
}

func glob(_, pattern string) ([]string, error) { return []string{pattern}, nil }

func mcTable(t *testing.T) *table.Table {
	tbl := table.New(4)
	require.NoError(t, tbl.SetScalars("pt", []float64{5, 15, 30, 60}))
	require.NoError(t, tbl.SetScalars("w", []float64{1, 2, 1, 1}))
	require.NoError(t, tbl.SetVectors("jet_pt", [][]float64{{1}, {20, 3}, {70}, {}}))
	return tbl
}

func dataTable(t *testing.T) *table.Table {
	tbl := table.New(3)
	require.NoError(t, tbl.SetScalars("pt", []float64{12, 35, 80}))
	require.NoError(t, tbl.SetVectors("jet_pt", [][]float64{{10}, {60}, {90, 1}}))
	return tbl
}

func newReader(t *testing.T) *memReader {
	return &memReader{t: t, tables: map[string]func(*testing.T) *table.Table{
		"mc":   mcTable,
		"data": dataTable,
	}}
}

func newConfig() *config.Config {
	cfg := &config.Config{
		InputDirectory: "in/",
		TreeName:       "events",
		MCWeight:       "w",
		OutDir:         "zjets",
		Label:          "CR",
		Lumi:           2,
		SelectionCuts:  "pt > 10",
		Variables: []config.Variable{
			{Branch: "pt", Title: "p_T", Nbins: 4, Low: 0, High: 100, Binning: "-99"},
			{Branch: "jet_pt[0]", Binning: "0,50,100"},
		},
		Processes: config.Processes{
			Name: []string{"MC", "Data"},
			File: []string{"mc", "data"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestNewPlan(t *testing.T) {
	cfg := newConfig()
	cfg.Processes.Selection = []string{"and abs(jet_pt[1]) < 100", ""}
	cfg.Processes.Rescale = []float64{1.5, 2}

	plan, err := NewPlan(cfg)
	require.NoError(t, err)

	require.Len(t, plan.Processes, 2)
	mc, data := plan.Processes[0], plan.Processes[1]
	assert.Equal(t, "pt > 10 and abs(jet_pt[1]) < 100", mc.Cut)
	assert.Equal(t, "pt > 10", data.Cut)
	assert.Equal(t, 3.0, mc.Scale)
	assert.Equal(t, 2.0, data.Scale, "data is rescaled but not scaled by the luminosity")
	assert.False(t, mc.Data)
	assert.True(t, data.Data)

	assert.Equal(t, []string{"pt", "jet_pt", "w"}, plan.Fields(mc))
	assert.Equal(t, []string{"pt", "jet_pt"}, plan.Fields(data))
	assert.Equal(t, []field.Ref{{Name: "jet_pt", Index: 0}, {Name: "jet_pt", Index: 1}}, plan.Refs())

	require.Len(t, plan.Variables, 2)
	assert.Equal(t, "pt", plan.Variables[0].Column)
	assert.Equal(t, "jet_pt_0", plan.Variables[1].Column)
	assert.Equal(t, "jet_pt_0", plan.Variables[1].Title)
	assert.Equal(t, []float64{0, 50, 100}, plan.Variables[1].Binning.Edges())
	assert.Equal(t, "ATLAS Internal  √s = 13 TeV, 2 fb⁻¹  CR", plan.Header)

	jobs, err := plan.Jobs(glob)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, loader.Job{
		Process: "MC",
		Files:   []string{"mc"},
		Tree:    "events",
		Fields:  []string{"pt", "jet_pt", "w"},
		Refs:    []field.Ref{{Name: "jet_pt", Index: 0}, {Name: "jet_pt", Index: 1}},
	}, jobs[0])
}

func TestNewPlanErrors(t *testing.T) {
	cfg := newConfig()
	cfg.Processes.Selection = []string{"", "pt >"}
	_, err := NewPlan(cfg)
	var syntax *selection.SyntaxError
	require.ErrorAs(t, err, &syntax)
	assert.ErrorContains(t, err, `process "Data"`)

	cfg = newConfig()
	cfg.Variables[0].Nbins = 0
	_, err = NewPlan(cfg)
	assert.ErrorContains(t, err, `variable "pt"`)
}

func TestSelectAndBuild(t *testing.T) {
	plan, err := NewPlan(newConfig())
	require.NoError(t, err)
	jobs, err := plan.Jobs(glob)
	require.NoError(t, err)

	tables, err := loader.LoadAll(context.Background(), newReader(t), jobs, 2)
	require.NoError(t, err)

	selected, err := plan.Select(tables)
	require.NoError(t, err)
	assert.Equal(t, 3, selected[0].Len())
	assert.Equal(t, 3, selected[1].Len())

	// selecting again changes nothing
	again, err := plan.Select(selected)
	require.NoError(t, err)
	assert.Equal(t, selected[0].Len(), again[0].Len())

	hists, err := plan.Build(plan.Variables[0], selected)
	require.NoError(t, err)
	mc, data := hists[0], hists[1]
	assert.InDeltaSlice(t, []float64{4, 2, 2, 0}, mc.Values(), 1e-12)
	assert.InDelta(t, 8.0, mc.Yield(), 1e-12)
	assert.InDeltaSlice(t, []float64{1, 1, 0, 1}, data.Values(), 1e-12)
	assert.InDelta(t, 3.0, data.Yield(), 1e-12)

	ratios, err := histo.Ratios(hists, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, ratios[0][:3])
	assert.True(t, math.IsNaN(ratios[0][3]))
	assert.InDeltaSlice(t, []float64{0.25, 0.5, 0}, ratios[1][:3], 1e-12)
	assert.True(t, math.IsNaN(ratios[1][3]))

	hists, err = plan.Build(plan.Variables[1], selected)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{4, 2}, hists[0].Values(), 1e-12)
	assert.Equal(t, 1, hists[0].Skipped(), "event without a jet")
	assert.InDeltaSlice(t, []float64{1, 2}, hists[1].Values(), 1e-12)
}

func TestRun(t *testing.T) {
	t.Chdir(t.TempDir())

	var buf bytes.Buffer
	r := newReader(t)
	paths, err := Run(context.Background(), newConfig(), Options{
		Reader:   r,
		Reporter: report.New(&buf),
		Format:   "png",
		Glob:     glob,
	})
	require.NoError(t, err)

	want := []string{
		filepath.Join("Output", "zjets", "pt.png"),
		filepath.Join("Output", "zjets", "jet_pt_0.png"),
	}
	assert.Equal(t, want, paths)
	for _, path := range want {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	assert.Equal(t, []string{"pt", "jet_pt", "w"}, r.fields["mc"])
	assert.Equal(t, []string{"pt", "jet_pt"}, r.fields["data"])
	assert.Contains(t, buf.String(), "MC: 3 of 4 events selected")
	assert.Contains(t, buf.String(), "jet_pt_0: 1 events of MC have no value or weight")
}

func TestRunErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	ctx := context.Background()

	_, err := Run(ctx, newConfig(), Options{Reader: newReader(t), Format: "gif", Glob: glob})
	assert.ErrorContains(t, err, `unsupported output format "gif"`)

	cfg := newConfig()
	cfg.SelectionCuts = "met > 1"
	_, err = Run(ctx, cfg, Options{Reader: newReader(t), Glob: glob})
	var unknown *selection.UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "met", unknown.Field)

	cfg = newConfig()
	cfg.MCWeight = "weight"
	_, err = Run(ctx, cfg, Options{Reader: newReader(t), Glob: glob})
	assert.ErrorContains(t, err, "event weight")

	cfg = newConfig()
	cfg.Processes.File[1] = "nothing"
	_, err = Run(ctx, cfg, Options{Reader: newReader(t), Glob: glob})
	assert.ErrorContains(t, err, `could not read "Data"`)
}
