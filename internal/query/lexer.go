// Package query implements the mdb query language: a tokenizer, a
// recursive-descent parser, and a compiler that emits parameterized SQL
// predicates against the document store.
package query

import (
	"strings"
	"unicode"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF      TokenType = iota
	TokenField              // identifiers like "name", "file.size", "note.status"
	TokenOperator           // ==, !=, >, <, >=, <=, =~
	TokenString             // 'single' or "double" quoted literal
	TokenNumber             // integer or decimal literal
	TokenLParen             // (
	TokenRParen             // )
	TokenComma              // ,
	TokenFunc               // identifier immediately followed by (
	TokenAnd                // and (case-insensitive)
	TokenOr                 // or (case-insensitive)
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of query"
	case TokenField:
		return "field"
	case TokenOperator:
		return "operator"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenComma:
		return "','"
	case TokenFunc:
		return "function"
	case TokenAnd:
		return "'and'"
	case TokenOr:
		return "'or'"
	default:
		return "unknown"
	}
}

// Token represents a lexer token.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Lexer tokenizes a query string in a single left-to-right pass with one
// character of lookahead.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize consumes the whole input and returns the token stream,
// terminated by a TokenEOF marker.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// Next returns the next token from the input.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	switch {
	case ch == '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: start}, nil
	case ch == ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: start}, nil
	case ch == ',':
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: start}, nil
	case ch == '\'' || ch == '"':
		return l.scanString()
	case ch >= '0' && ch <= '9':
		return l.scanNumber(), nil
	case isIdentStart(ch):
		return l.scanIdent(), nil
	case ch == '=' || ch == '!' || ch == '>' || ch == '<':
		return l.scanOperator()
	default:
		return Token{}, &LexError{Pos: start, Msg: "unrecognized character " + string(ch)}
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

// scanString reads a quoted literal. No escape processing: the literal
// runs to the next occurrence of the opening quote.
func (l *Lexer) scanString() (Token, error) {
	start := l.pos
	quote := l.input[l.pos]
	l.pos++

	valueStart := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != quote {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return Token{}, &LexError{Pos: start, Msg: "unterminated string literal"}
	}
	value := l.input[valueStart:l.pos]
	l.pos++ // closing quote
	return Token{Type: TokenString, Value: value, Pos: start}, nil
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.pos++
	}
	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	value := l.input[start:l.pos]

	switch strings.ToLower(value) {
	case "and":
		return Token{Type: TokenAnd, Value: value, Pos: start}
	case "or":
		return Token{Type: TokenOr, Value: value, Pos: start}
	}

	// An identifier immediately followed by '(' is a function name.
	if l.pos < len(l.input) && l.input[l.pos] == '(' {
		return Token{Type: TokenFunc, Value: value, Pos: start}
	}

	return Token{Type: TokenField, Value: value, Pos: start}
}

// scanOperator matches multi-character operators greedily (>= before >).
func (l *Lexer) scanOperator() (Token, error) {
	start := l.pos
	ch := l.input[l.pos]
	l.pos++

	if l.pos < len(l.input) {
		two := string(ch) + string(l.input[l.pos])
		switch two {
		case "==", "!=", ">=", "<=", "=~":
			l.pos++
			return Token{Type: TokenOperator, Value: two, Pos: start}, nil
		}
	}

	if ch == '>' || ch == '<' {
		return Token{Type: TokenOperator, Value: string(ch), Pos: start}, nil
	}
	return Token{}, &LexError{Pos: start, Msg: "unrecognized operator " + string(ch)}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		ch == '_'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '.' || ch == '-'
}
