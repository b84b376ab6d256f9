package selection

import (
	"strings"

	"github.com/decibelcooper/cfgplot/field"
)

// Expr is a node of a parsed selection.
type Expr interface {
	Pos() int
	String() string
}

// Ident references a branch, optionally one element of a vector branch.
type Ident struct {
	Name    string
	Index   int
	Indexed bool
	At      int
}

// Number is a numeric literal.
type Number struct {
	Value float64
	Lit   string
	At    int
}

// Unary is a prefix operation: NOT, MINUS or ABS.
type Unary struct {
	Op Kind
	X  Expr
	At int
}

// Binary is a boolean AND or OR.
type Binary struct {
	Op   Kind
	X, Y Expr
}

// Compare is a comparison chain; a < b <= c holds when a < b and b <= c.
type Compare struct {
	Ops      []Kind
	Operands []Expr
}

func (x *Ident) Pos() int   { return x.At }
func (x *Number) Pos() int  { return x.At }
func (x *Unary) Pos() int   { return x.At }
func (x *Binary) Pos() int  { return x.X.Pos() }
func (x *Compare) Pos() int { return x.Operands[0].Pos() }

// Text is the identifier as written, e.g. jet_pt[0].
func (x *Ident) Text() string {
	if !x.Indexed {
		return x.Name
	}
	return x.Ref().String()
}

// Ref returns the vector element referenced by an indexed identifier.
func (x *Ident) Ref() field.Ref {
	return field.Ref{Name: x.Name, Index: x.Index}
}

// Column is the name of the table column the identifier reads after
// vector branches have been flattened.
func (x *Ident) Column() string {
	if !x.Indexed {
		return x.Name
	}
	return x.Ref().FlatName()
}

func (x *Ident) String() string  { return x.Text() }
func (x *Number) String() string { return x.Lit }

func (x *Unary) String() string {
	switch x.Op {
	case NOT:
		return "not " + x.X.String()
	case MINUS:
		return "-" + x.X.String()
	}
	return x.Op.String() + "(" + x.X.String() + ")"
}

func (x *Binary) String() string {
	return "(" + x.X.String() + " " + x.Op.String() + " " + x.Y.String() + ")"
}

func (x *Compare) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(x.Operands[0].String())
	for i, op := range x.Ops {
		b.WriteString(" " + op.String() + " ")
		b.WriteString(x.Operands[i+1].String())
	}
	b.WriteString(")")
	return b.String()
}

// Walk calls fn for every node of e in depth-first, left-to-right order.
func Walk(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch x := e.(type) {
	case *Unary:
		Walk(x.X, fn)
	case *Binary:
		Walk(x.X, fn)
		Walk(x.Y, fn)
	case *Compare:
		for _, o := range x.Operands {
			Walk(o, fn)
		}
	}
}

// Idents returns the identifiers of e in order of first appearance,
// without repeats.
func Idents(e Expr) []*Ident {
	seen := make(map[string]bool)
	var out []*Ident
	Walk(e, func(n Expr) {
		id, ok := n.(*Ident)
		if !ok || seen[id.Text()] {
			return
		}
		seen[id.Text()] = true
		out = append(out, id)
	})
	return out
}

// Refs returns the vector elements referenced in e.
func Refs(e Expr) []field.Ref {
	var refs []field.Ref
	for _, id := range Idents(e) {
		if id.Indexed {
			refs = append(refs, id.Ref())
		}
	}
	return refs
}
