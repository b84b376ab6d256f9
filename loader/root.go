package loader

import (
	"context"
	"fmt"
	"reflect"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/decibelcooper/cfgplot/table"
)

// ROOTReader reads branches of a TTree from ROOT files. Numeric leaves
// become scalar columns and slice or array leaves become vector columns.
type ROOTReader struct{}

// Read reads fields from tree in every file and concatenates the events.
// A field missing from some files is filled with NaN for their events and
// a field missing from all files is left out of the table.
func (ROOTReader) Read(ctx context.Context, files []string, tree string, fields []string) (*table.Table, error) {
	var parts []*table.Table
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		part, err := readFile(path, tree, fields)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return table.Concat(parts...)
}

// OpenTree opens path and returns the named tree with a function closing
// the file.
func OpenTree(path, name string) (rtree.Tree, func() error, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open ROOT file %q: %w", path, err)
	}

	obj, err := riofs.Dir(f).Get(name)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("could not find tree %q in %q: %w", name, path, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		f.Close()
		return nil, nil, fmt.Errorf("object %q in %q is a %s, not a tree", name, path, obj.Class())
	}
	return tree, f.Close, nil
}

func readFile(path, treeName string, fields []string) (*table.Table, error) {
	tree, closeFile, err := OpenTree(path, treeName)
	if err != nil {
		return nil, err
	}
	defer closeFile()

	want := make(map[string]bool, len(fields))
	for _, name := range fields {
		want[name] = true
	}

	var (
		rvars []rtree.ReadVar
		cols  []*accumulator
	)
	for _, rv := range rtree.NewReadVars(tree) {
		if !want[rv.Name] {
			continue
		}
		want[rv.Name] = false
		acc, err := newAccumulator(rv)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rvars = append(rvars, rv)
		cols = append(cols, acc)
	}

	if len(rvars) == 0 {
		return table.New(int(tree.Entries())), nil
	}

	r, err := rtree.NewReader(tree, rvars)
	if err != nil {
		return nil, fmt.Errorf("could not create reader for %q: %w", path, err)
	}
	defer r.Close()

	rows := 0
	err = r.Read(func(rtree.RCtx) error {
		for _, c := range cols {
			c.add()
		}
		rows++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not read tree %q from %q: %w", treeName, path, err)
	}

	out := table.New(rows)
	for _, c := range cols {
		if err := c.store(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// accumulator converts the value a ReadVar points at into float64s after
// each entry is read.
type accumulator struct {
	name    string
	value   reflect.Value
	vector  bool
	scalars []float64
	vectors [][]float64
}

func newAccumulator(rv rtree.ReadVar) (*accumulator, error) {
	v := reflect.ValueOf(rv.Value)
	if v.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("branch %q: unexpected read target %T", rv.Name, rv.Value)
	}
	v = v.Elem()

	acc := &accumulator{name: rv.Name, value: v}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if !isNumeric(v.Type().Elem().Kind()) {
			return nil, fmt.Errorf("branch %q has unsupported element type %s", rv.Name, v.Type().Elem())
		}
		acc.vector = true
		acc.vectors = [][]float64{}
	default:
		if !isNumeric(v.Kind()) {
			return nil, fmt.Errorf("branch %q has unsupported type %s", rv.Name, v.Type())
		}
	}
	return acc, nil
}

func (a *accumulator) add() {
	if !a.vector {
		a.scalars = append(a.scalars, toFloat(a.value))
		return
	}
	vec := make([]float64, a.value.Len())
	for i := range vec {
		vec[i] = toFloat(a.value.Index(i))
	}
	a.vectors = append(a.vectors, vec)
}

func (a *accumulator) store(t *table.Table) error {
	if a.vector {
		return t.SetVectors(a.name, a.vectors)
	}
	if a.scalars == nil {
		a.scalars = []float64{}
	}
	return t.SetScalars(a.name, a.scalars)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	}
	return v.Float()
}
