package loader

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/cfgplot/field"
	"github.com/decibelcooper/cfgplot/table"
)

// memReader serves tables keyed by the first file name.
type memReader struct {
	mu     sync.Mutex
	tables map[string]func() *table.Table
	calls  map[string][]string
}

func (m *memReader) Read(_ context.Context, files []string, _ string, fields []string) (*table.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string][]string)
	}
	m.calls[files[0]] = fields
	mk, ok := m.tables[files[0]]
	if !ok {
		return nil, errors.New("no such file")
	}
	return mk(), nil
}

func jetTable(t *testing.T) *table.Table {
	tbl := table.New(2)
	require.NoError(t, tbl.SetScalars("met", []float64{1, 2}))
	require.NoError(t, tbl.SetVectors("jet_pt", [][]float64{{10, 20}, {5}}))
	return tbl
}

func TestLoadFlattensAndDrops(t *testing.T) {
	r := &memReader{tables: map[string]func() *table.Table{"mc.root": func() *table.Table { return jetTable(t) }}}

	tbl, err := Load(context.Background(), r, Job{
		Process: "MC",
		Files:   []string{"mc.root"},
		Tree:    "events",
		Fields:  []string{"met", "jet_pt"},
		Refs:    []field.Ref{{Name: "jet_pt", Index: 0}, {Name: "jet_pt", Index: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"met", "jet_pt"}, r.calls["mc.root"])
	assert.False(t, tbl.Has("jet_pt"))
	assert.Equal(t, []string{"met", "jet_pt_0", "jet_pt_1"}, tbl.Names())

	first, err := tbl.Scalars("jet_pt_0")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 5}, first)

	second, err := tbl.Scalars("jet_pt_1")
	require.NoError(t, err)
	assert.Equal(t, 20.0, second[0])
	assert.True(t, math.IsNaN(second[1]))
}

func TestLoadSkipsVectorsMissingEverywhere(t *testing.T) {
	r := &memReader{tables: map[string]func() *table.Table{"mc.root": func() *table.Table { return jetTable(t) }}}

	tbl, err := Load(context.Background(), r, Job{
		Process: "MC",
		Files:   []string{"mc.root"},
		Refs:    []field.Ref{{Name: "lep_pt", Index: 0}},
	})
	require.NoError(t, err)
	assert.False(t, tbl.Has("lep_pt_0"))
	assert.True(t, tbl.Has("jet_pt"))
}

func TestLoadScalarRefIsAnError(t *testing.T) {
	r := &memReader{tables: map[string]func() *table.Table{"mc.root": func() *table.Table { return jetTable(t) }}}

	_, err := Load(context.Background(), r, Job{
		Process: "MC",
		Files:   []string{"mc.root"},
		Refs:    []field.Ref{{Name: "met", Index: 0}},
	})
	assert.ErrorContains(t, err, `process "MC"`)
}

func TestLoadAll(t *testing.T) {
	mk := func(n float64) func() *table.Table {
		return func() *table.Table {
			tbl := table.New(1)
			_ = tbl.SetScalars("x", []float64{n})
			return tbl
		}
	}
	r := &memReader{tables: map[string]func() *table.Table{
		"a.root": mk(1),
		"b.root": mk(2),
		"c.root": mk(3),
	}}

	jobs := []Job{
		{Process: "A", Files: []string{"a.root"}},
		{Process: "B", Files: []string{"b.root"}},
		{Process: "C", Files: []string{"c.root"}},
	}
	for _, limit := range []int{0, 1, 3} {
		tables, err := LoadAll(context.Background(), r, jobs, limit)
		require.NoError(t, err)
		require.Len(t, tables, 3)
		for i, tbl := range tables {
			x, err := tbl.Scalars("x")
			require.NoError(t, err)
			assert.Equal(t, []float64{float64(i + 1)}, x)
		}
	}

	_, err := LoadAll(context.Background(), r, append(jobs, Job{Process: "D", Files: []string{"d.root"}}), 2)
	assert.ErrorContains(t, err, `could not read "D"`)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"mc_b.root", "mc_a.root", "data.root"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "mc_dir"), 0o700))

	files, err := Files(dir+"/", "mc")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "mc_a.root"), filepath.Join(dir, "mc_b.root")}, files)

	files, err = Files(dir+"/", "data")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = Files(dir+"/", "ttbar")
	assert.ErrorContains(t, err, "no input files")
}
