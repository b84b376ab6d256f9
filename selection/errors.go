package selection

import "fmt"

// SyntaxError reports a malformed selection.
type SyntaxError struct {
	Src string
	Pos int // byte offset in Src
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("selection %q: %s at offset %d", e.Src, e.Msg, e.Pos)
}

// UnknownFieldError reports a selection identifier with no matching column.
type UnknownFieldError struct {
	Field  string // as written in the selection
	Column string // column looked up
}

func (e *UnknownFieldError) Error() string {
	if e.Field == e.Column {
		return fmt.Sprintf("selection uses unknown field %q", e.Field)
	}
	return fmt.Sprintf("selection uses unknown field %q (column %q)", e.Field, e.Column)
}

// TypeError reports a boolean used as a number or similar misuse.
type TypeError struct {
	Pos int
	Msg string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("selection: %s at offset %d", e.Msg, e.Pos)
}
