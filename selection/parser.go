package selection

import (
	"fmt"
	"strconv"
)

// Parse parses a selection such as "pt > 20 and abs(eta[0]) < 2.5".
//
// Grammar, loosest binding first:
//
//	expr    = and { ("or" | "|") and }
//	and     = not { ("and" | "&") not }
//	not     = ("not" | "~") not | cmp
//	cmp     = operand { ("<" | ">" | "<=" | ">=" | "==" | "!=") operand }
//	operand = number | ident [ "[" int "]" ] | "abs" "(" expr ")" | "(" expr ")" | "-" operand
func Parse(src string) (Expr, error) {
	p := &parser{lex: newLexer(src), src: src}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Kind == EOF {
		return nil, p.errorf(p.tok.Pos, "empty selection")
	}

	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != EOF {
		return nil, p.unexpected("an operator or end of selection")
	}
	return e, nil
}

type parser struct {
	lex *lexer
	tok Token
	src string
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return &SyntaxError{Src: p.src, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) unexpected(want string) error {
	got := p.tok.Kind.String()
	if p.tok.Text != "" {
		got = strconv.Quote(p.tok.Text)
	}
	return p.errorf(p.tok.Pos, "unexpected %s, expected %s", got, want)
}

func (p *parser) expect(kind Kind) error {
	if p.tok.Kind != kind {
		return p.unexpected(strconv.Quote(kind.String()))
	}
	return p.advance()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == OR {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OR, X: left, Y: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == AND {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: AND, X: left, Y: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.tok.Kind != NOT {
		return p.parseCompare()
	}
	pos := p.tok.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &Unary{Op: NOT, X: x, At: pos}, nil
}

func (p *parser) parseCompare() (Expr, error) {
	first, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if !p.tok.Kind.IsComparison() {
		return first, nil
	}

	cmp := &Compare{Operands: []Expr{first}}
	for p.tok.Kind.IsComparison() {
		cmp.Ops = append(cmp.Ops, p.tok.Kind)
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		cmp.Operands = append(cmp.Operands, operand)
	}
	return cmp, nil
}

func (p *parser) parseOperand() (Expr, error) {
	tok := p.tok
	switch tok.Kind {
	case NUMBER:
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, p.errorf(tok.Pos, "invalid number literal %q", tok.Text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Number{Value: v, Lit: tok.Text, At: tok.Pos}, nil

	case IDENT:
		if err := p.advance(); err != nil {
			return nil, err
		}
		id := &Ident{Name: tok.Text, At: tok.Pos}
		if p.tok.Kind == LBRACK {
			if err := p.parseIndex(id); err != nil {
				return nil, err
			}
		}
		return id, nil

	case ABS:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return &Unary{Op: ABS, X: x, At: tok.Pos}, nil

	case LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return x, nil

	case MINUS:
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if n, ok := x.(*Number); ok {
			return &Number{Value: -n.Value, Lit: "-" + n.Lit, At: tok.Pos}, nil
		}
		return &Unary{Op: MINUS, X: x, At: tok.Pos}, nil

	case PLUS:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseOperand()
	}

	return nil, p.unexpected("a branch name, number or \"(\"")
}

// parseIndex parses the "[" int "]" suffix of an identifier.
func (p *parser) parseIndex(id *Ident) error {
	if err := p.advance(); err != nil {
		return err
	}
	sign := 1
	switch p.tok.Kind {
	case MINUS:
		sign = -1
		fallthrough
	case PLUS:
		if err := p.advance(); err != nil {
			return err
		}
	}
	if p.tok.Kind != NUMBER {
		return p.unexpected("an integer index")
	}
	idx, err := strconv.Atoi(p.tok.Text)
	if err != nil {
		return p.errorf(p.tok.Pos, "index %q is not an integer", p.tok.Text)
	}
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect(RBRACK); err != nil {
		return err
	}
	id.Index = sign * idx
	id.Indexed = true
	return nil
}
