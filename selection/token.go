package selection

import "fmt"

// Kind is the type of a lexical token.
type Kind int

// Token kinds.
const (
	EOF Kind = iota
	IDENT
	NUMBER

	LPAREN // (
	RPAREN // )
	LBRACK // [
	RBRACK // ]
	MINUS  // -
	PLUS   // +

	LT // <
	GT // >
	LE // <=
	GE // >=
	EQ // ==
	NE // !=

	AND // and, &, &&
	OR  // or, |, ||
	NOT // not, ~, !
	ABS // abs
)

var kindNames = [...]string{
	EOF:    "end of selection",
	IDENT:  "identifier",
	NUMBER: "number",
	LPAREN: "(",
	RPAREN: ")",
	LBRACK: "[",
	RBRACK: "]",
	MINUS:  "-",
	PLUS:   "+",
	LT:     "<",
	GT:     ">",
	LE:     "<=",
	GE:     ">=",
	EQ:     "==",
	NE:     "!=",
	AND:    "and",
	OR:     "or",
	NOT:    "not",
	ABS:    "abs",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsComparison reports whether k is one of the comparison operators.
func (k Kind) IsComparison() bool {
	return k >= LT && k <= NE
}

var keywords = map[string]Kind{
	"and": AND,
	"or":  OR,
	"not": NOT,
	"abs": ABS,
}

// Token is a lexical token with its byte offset in the selection.
type Token struct {
	Kind Kind
	Text string
	Pos  int
}
