package selection

import (
	"fmt"
)

// lexer splits a selection into tokens.
type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func (l *lexer) peekByte(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

// next returns the next token, or a *SyntaxError for characters that
// cannot start one.
func (l *lexer) next() (Token, error) {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Pos: start}, nil
	}

	ch := l.src[l.pos]
	switch {
	case isIdentStart(ch):
		for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
			l.pos++
		}
		text := l.src[start:l.pos]
		if kind, ok := keywords[text]; ok {
			return Token{Kind: kind, Text: text, Pos: start}, nil
		}
		return Token{Kind: IDENT, Text: text, Pos: start}, nil

	case isDigit(ch) || (ch == '.' && isDigit(l.peekByte(1))):
		return l.number()
	}

	two := func(kind Kind) (Token, error) {
		l.pos += 2
		return Token{Kind: kind, Text: l.src[start:l.pos], Pos: start}, nil
	}
	one := func(kind Kind) (Token, error) {
		l.pos++
		return Token{Kind: kind, Text: l.src[start:l.pos], Pos: start}, nil
	}

	switch ch {
	case '(':
		return one(LPAREN)
	case ')':
		return one(RPAREN)
	case '[':
		return one(LBRACK)
	case ']':
		return one(RBRACK)
	case '-':
		return one(MINUS)
	case '+':
		return one(PLUS)
	case '~':
		return one(NOT)
	case '<':
		if l.peekByte(1) == '=' {
			return two(LE)
		}
		return one(LT)
	case '>':
		if l.peekByte(1) == '=' {
			return two(GE)
		}
		return one(GT)
	case '=':
		if l.peekByte(1) == '=' {
			return two(EQ)
		}
		return Token{}, &SyntaxError{Src: l.src, Pos: start, Msg: `unexpected "=", use "==" to compare`}
	case '!':
		if l.peekByte(1) == '=' {
			return two(NE)
		}
		return one(NOT)
	case '&':
		if l.peekByte(1) == '&' {
			return two(AND)
		}
		return one(AND)
	case '|':
		if l.peekByte(1) == '|' {
			return two(OR)
		}
		return one(OR)
	}

	return Token{}, &SyntaxError{Src: l.src, Pos: start, Msg: fmt.Sprintf("unexpected character %q", ch)}
}

// number scans digits, an optional fraction and an optional exponent.
func (l *lexer) number() (Token, error) {
	start := l.pos
	for isDigit(l.peekByte(0)) {
		l.pos++
	}
	if l.peekByte(0) == '.' {
		l.pos++
		for isDigit(l.peekByte(0)) {
			l.pos++
		}
	}
	if c := l.peekByte(0); c == 'e' || c == 'E' {
		off := 1
		if s := l.peekByte(1); s == '+' || s == '-' {
			off = 2
		}
		if isDigit(l.peekByte(off)) {
			l.pos += off
			for isDigit(l.peekByte(0)) {
				l.pos++
			}
		}
	}
	if isIdentStart(l.peekByte(0)) && !l.connectiveFollows() {
		return Token{}, &SyntaxError{Src: l.src, Pos: start, Msg: "invalid number literal"}
	}
	return Token{Kind: NUMBER, Text: l.src[start:l.pos], Pos: start}, nil
}

// connectiveFollows reports whether the word at the current position is
// "and" or "or", so that "pt>10and eta<2" splits after the number.
func (l *lexer) connectiveFollows() bool {
	end := l.pos
	for end < len(l.src) && isIdentChar(l.src[end]) {
		end++
	}
	kind, ok := keywords[l.src[l.pos:end]]
	return ok && (kind == AND || kind == OR)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '.'
}
