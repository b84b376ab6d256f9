package selection

import (
	"fmt"
	"math"

	"github.com/decibelcooper/cfgplot/table"
)

type numFunc func(t *table.Table) ([]float64, error)
type boolFunc func(t *table.Table) ([]bool, error)

// Predicate is a selection bound to table columns. It is built once per
// process and evaluated column-wise.
type Predicate struct {
	src     string
	columns []string
	eval    boolFunc
}

// Compile binds the identifiers of e to the columns of t. Indexed
// identifiers read the flattened column, so jet_pt[0] reads jet_pt_0.
func Compile(e Expr, t *table.Table) (*Predicate, error) {
	c := &compiler{t: t, seen: make(map[string]bool)}
	eval, err := c.boolean(e)
	if err != nil {
		return nil, err
	}
	return &Predicate{src: e.String(), columns: c.columns, eval: eval}, nil
}

// CompileString parses and compiles src. An empty selection keeps every event.
func CompileString(src string, t *table.Table) (*Predicate, error) {
	if isBlank(src) {
		return &Predicate{eval: all}, nil
	}
	e, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Compile(e, t)
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isSpace(s[i]) {
			return false
		}
	}
	return true
}

func all(t *table.Table) ([]bool, error) {
	mask := make([]bool, t.Len())
	for i := range mask {
		mask[i] = true
	}
	return mask, nil
}

// Columns lists the table columns the predicate reads.
func (p *Predicate) Columns() []string {
	return append([]string(nil), p.columns...)
}

func (p *Predicate) String() string {
	return p.src
}

// Mask evaluates the predicate for every event of t.
func (p *Predicate) Mask(t *table.Table) ([]bool, error) {
	return p.eval(t)
}

// Apply returns the events of t passing the predicate.
func (p *Predicate) Apply(t *table.Table) (*table.Table, error) {
	mask, err := p.eval(t)
	if err != nil {
		return nil, err
	}
	return t.Filter(mask)
}

type compiler struct {
	t       *table.Table
	columns []string
	seen    map[string]bool
}

func (c *compiler) boolean(e Expr) (boolFunc, error) {
	switch x := e.(type) {
	case *Binary:
		return c.binary(x)
	case *Compare:
		return c.compare(x)
	case *Unary:
		if x.Op == NOT {
			inner, err := c.boolean(x.X)
			if err != nil {
				return nil, err
			}
			return func(t *table.Table) ([]bool, error) {
				m, err := inner(t)
				if err != nil {
					return nil, err
				}
				out := make([]bool, len(m))
				for i, v := range m {
					out[i] = !v
				}
				return out, nil
			}, nil
		}
	}

	// A numeric expression in boolean context is true when non-zero.
	num, err := c.numeric(e)
	if err != nil {
		return nil, err
	}
	return func(t *table.Table) ([]bool, error) {
		vs, err := num(t)
		if err != nil {
			return nil, err
		}
		out := make([]bool, len(vs))
		for i, v := range vs {
			out[i] = v != 0 && !math.IsNaN(v)
		}
		return out, nil
	}, nil
}

func (c *compiler) binary(x *Binary) (boolFunc, error) {
	lhs, err := c.boolean(x.X)
	if err != nil {
		return nil, err
	}
	rhs, err := c.boolean(x.Y)
	if err != nil {
		return nil, err
	}
	and := x.Op == AND
	return func(t *table.Table) ([]bool, error) {
		l, err := lhs(t)
		if err != nil {
			return nil, err
		}
		r, err := rhs(t)
		if err != nil {
			return nil, err
		}
		out := make([]bool, len(l))
		for i := range l {
			if and {
				out[i] = l[i] && r[i]
			} else {
				out[i] = l[i] || r[i]
			}
		}
		return out, nil
	}, nil
}

func (c *compiler) compare(x *Compare) (boolFunc, error) {
	operands := make([]numFunc, len(x.Operands))
	for i, o := range x.Operands {
		f, err := c.numeric(o)
		if err != nil {
			return nil, err
		}
		operands[i] = f
	}
	ops := x.Ops
	return func(t *table.Table) ([]bool, error) {
		out, err := all(t)
		if err != nil {
			return nil, err
		}
		lhs, err := operands[0](t)
		if err != nil {
			return nil, err
		}
		for k, op := range ops {
			rhs, err := operands[k+1](t)
			if err != nil {
				return nil, err
			}
			for i := range out {
				out[i] = out[i] && compareValues(op, lhs[i], rhs[i])
			}
			lhs = rhs
		}
		return out, nil
	}, nil
}

// compareValues follows IEEE semantics: any comparison with NaN is false
// except !=.
func compareValues(op Kind, a, b float64) bool {
	switch op {
	case LT:
		return a < b
	case GT:
		return a > b
	case LE:
		return a <= b
	case GE:
		return a >= b
	case EQ:
		return a == b
	case NE:
		return a != b
	}
	panic(fmt.Sprintf("selection: %v is not a comparison", op))
}

func (c *compiler) numeric(e Expr) (numFunc, error) {
	switch x := e.(type) {
	case *Number:
		v := x.Value
		return func(t *table.Table) ([]float64, error) {
			out := make([]float64, t.Len())
			for i := range out {
				out[i] = v
			}
			return out, nil
		}, nil

	case *Ident:
		return c.ident(x)

	case *Unary:
		if x.Op == NOT {
			break
		}
		inner, err := c.numeric(x.X)
		if err != nil {
			return nil, err
		}
		apply := math.Abs
		if x.Op == MINUS {
			apply = func(v float64) float64 { return -v }
		}
		return func(t *table.Table) ([]float64, error) {
			vs, err := inner(t)
			if err != nil {
				return nil, err
			}
			out := make([]float64, len(vs))
			for i, v := range vs {
				out[i] = apply(v)
			}
			return out, nil
		}, nil
	}

	return nil, &TypeError{Pos: e.Pos(), Msg: fmt.Sprintf("%s is a condition, not a number", e)}
}

func (c *compiler) ident(x *Ident) (numFunc, error) {
	name := x.Column()
	col := c.t.Column(name)
	if col == nil {
		return nil, &UnknownFieldError{Field: x.Text(), Column: name}
	}
	if col.IsVector() {
		return nil, &TypeError{Pos: x.At, Msg: fmt.Sprintf("%q is vector-valued, select an element with %s[index]", x.Name, x.Name)}
	}
	if !c.seen[name] {
		c.seen[name] = true
		c.columns = append(c.columns, name)
	}
	return func(t *table.Table) ([]float64, error) {
		vs, err := t.Scalars(name)
		if err != nil {
			return nil, &UnknownFieldError{Field: x.Text(), Column: name}
		}
		return vs, nil
	}, nil
}
