package query

import "fmt"

// LexError reports a malformed token or unterminated literal.
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at position %d: %s", e.Pos, e.Msg)
}

// ParseError reports an unexpected token or unbalanced grouping.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Pos, e.Msg)
}

// UnknownFieldError reports an explicit file.* field that does not match
// a native column.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field: %s", e.Field)
}

// InvalidLiteralError reports a literal that cannot be coerced to the
// compared field's type (unparsable timestamp, malformed number).
type InvalidLiteralError struct {
	Literal string
	Msg     string
}

func (e *InvalidLiteralError) Error() string {
	return fmt.Sprintf("invalid literal %q: %s", e.Literal, e.Msg)
}

// ArityError reports a function call with the wrong argument count.
type ArityError struct {
	Func string
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s() takes %d arguments, got %d", e.Func, e.Want, e.Got)
}

// TypeError reports a function applied to a field of the wrong type.
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string {
	return e.Msg
}
