// Package table holds per-process event data as named columns.
package table

import (
	"fmt"
	"math"

	"github.com/decibelcooper/cfgplot/field"
)

// Column is a per-event sequence of either scalars or vectors.
type Column struct {
	Name    string
	Scalars []float64
	Vectors [][]float64
}

// IsVector reports whether the column stores one vector per event.
func (c *Column) IsVector() bool {
	return c.Vectors != nil
}

// Len returns the number of events in the column.
func (c *Column) Len() int {
	if c.IsVector() {
		return len(c.Vectors)
	}
	return len(c.Scalars)
}

// Table is an ordered set of columns sharing the same number of events.
type Table struct {
	rows  int
	order []string
	cols  map[string]*Column
}

// New returns an empty table for rows events.
func New(rows int) *Table {
	return &Table{rows: rows, cols: make(map[string]*Column)}
}

// Len returns the number of events.
func (t *Table) Len() int { return t.rows }

// Names returns the column names in insertion order.
func (t *Table) Names() []string {
	return append([]string(nil), t.order...)
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the column called name, or nil.
func (t *Table) Column(name string) *Column {
	return t.cols[name]
}

// Scalars returns the values of a scalar column.
func (t *Table) Scalars(name string) ([]float64, error) {
	c, ok := t.cols[name]
	switch {
	case !ok:
		return nil, &MissingColumnError{Name: name}
	case c.IsVector():
		return nil, fmt.Errorf("column %q is vector-valued, select an element with %s[index]", name, name)
	}
	return c.Scalars, nil
}

// SetScalars adds or replaces a scalar column.
func (t *Table) SetScalars(name string, values []float64) error {
	if len(values) != t.rows {
		return fmt.Errorf("column %q has %d entries, table has %d events", name, len(values), t.rows)
	}
	t.set(&Column{Name: name, Scalars: values})
	return nil
}

// SetVectors adds or replaces a vector column. A nil element is an empty vector.
func (t *Table) SetVectors(name string, values [][]float64) error {
	if len(values) != t.rows {
		return fmt.Errorf("column %q has %d entries, table has %d events", name, len(values), t.rows)
	}
	if values == nil {
		values = [][]float64{}
	}
	t.set(&Column{Name: name, Vectors: values})
	return nil
}

func (t *Table) set(c *Column) {
	if _, ok := t.cols[c.Name]; !ok {
		t.order = append(t.order, c.Name)
	}
	t.cols[c.Name] = c
}

// Drop removes the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) {
	for _, name := range names {
		if _, ok := t.cols[name]; !ok {
			continue
		}
		delete(t.cols, name)
		for i, n := range t.order {
			if n == name {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
	}
}

// Flatten adds the scalar column ref.FlatName() holding element ref.Index
// of the vector column ref.Name for every event. Events whose vector has no
// such element get NaN. The vector column is kept; see Drop.
func (t *Table) Flatten(ref field.Ref) (string, error) {
	c, ok := t.cols[ref.Name]
	switch {
	case !ok:
		return "", &MissingColumnError{Name: ref.Name}
	case !c.IsVector():
		return "", fmt.Errorf("cannot take element %d of scalar column %q", ref.Index, ref.Name)
	}

	values := make([]float64, t.rows)
	for i, vec := range c.Vectors {
		idx := ref.Index
		if idx < 0 {
			idx += len(vec)
		}
		if idx < 0 || idx >= len(vec) {
			values[i] = math.NaN()
			continue
		}
		values[i] = vec[idx]
	}

	name := ref.FlatName()
	t.set(&Column{Name: name, Scalars: values})
	return name, nil
}

// Filter returns a new table holding the events for which keep is true.
func (t *Table) Filter(keep []bool) (*Table, error) {
	if len(keep) != t.rows {
		return nil, fmt.Errorf("mask has %d entries, table has %d events", len(keep), t.rows)
	}

	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}

	out := New(n)
	for _, name := range t.order {
		c := t.cols[name]
		if c.IsVector() {
			vs := make([][]float64, 0, n)
			for i, v := range c.Vectors {
				if keep[i] {
					vs = append(vs, v)
				}
			}
			out.set(&Column{Name: name, Vectors: vs})
			continue
		}
		vs := make([]float64, 0, n)
		for i, v := range c.Scalars {
			if keep[i] {
				vs = append(vs, v)
			}
		}
		out.set(&Column{Name: name, Scalars: vs})
	}
	return out, nil
}

// Concat appends the events of the given tables. A column missing from
// some of the inputs is filled with NaN (scalars) or empty vectors for
// their events.
func Concat(tables ...*Table) (*Table, error) {
	rows := 0
	var order []string
	kinds := make(map[string]bool)
	for _, tbl := range tables {
		rows += tbl.rows
		for _, name := range tbl.order {
			vec := tbl.cols[name].IsVector()
			prev, seen := kinds[name]
			if !seen {
				order = append(order, name)
				kinds[name] = vec
				continue
			}
			if prev != vec {
				return nil, fmt.Errorf("column %q is scalar in some inputs and vector-valued in others", name)
			}
		}
	}

	out := New(rows)
	for _, name := range order {
		if kinds[name] {
			vs := make([][]float64, 0, rows)
			for _, tbl := range tables {
				if c, ok := tbl.cols[name]; ok {
					vs = append(vs, c.Vectors...)
					continue
				}
				vs = append(vs, make([][]float64, tbl.rows)...)
			}
			out.set(&Column{Name: name, Vectors: vs})
			continue
		}
		vs := make([]float64, 0, rows)
		for _, tbl := range tables {
			if c, ok := tbl.cols[name]; ok {
				vs = append(vs, c.Scalars...)
				continue
			}
			for i := 0; i < tbl.rows; i++ {
				vs = append(vs, math.NaN())
			}
		}
		out.set(&Column{Name: name, Scalars: vs})
	}
	return out, nil
}

// MissingColumnError reports a reference to a column the table does not have.
type MissingColumnError struct {
	Name string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("no column %q", e.Name)
}
