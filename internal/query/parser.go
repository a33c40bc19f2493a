package query

import "fmt"

// functions maps known function names to their arity.
var functions = map[string]int{
	"has": 2,
}

// Parser consumes a token stream and produces an expression tree.
//
// Grammar (highest to lowest binding):
//
//	term       := Field | StringLiteral | NumberLiteral
//	comparison := term Operator term | FunctionCall | '(' expr ')'
//	and_expr   := comparison ( 'and' comparison )*
//	or_expr    := and_expr ( 'or' and_expr )*
//	expr       := or_expr
//
// Grouping parentheses must balance but are transparent: the inner
// expression is promoted into the tree.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse tokenizes and parses a query string.
func Parse(input string) (Expr, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// NewParser creates a parser over a token stream.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse returns the expression tree root. Parsing is strict: tokens left
// over after a complete expression are an error.
func (p *Parser) Parse() (Expr, error) {
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != TokenEOF {
		return nil, p.unexpected(tok, "end of query")
	}
	return expr, nil
}

func (p *Parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Type: TokenEOF}
}

func (p *Parser) advance() Token {
	tok := p.current()
	p.pos++
	return tok
}

func (p *Parser) unexpected(tok Token, want string) error {
	return &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected %s, expected %s", tok.Type, want)}
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &OrExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &AndExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseComparison() (Expr, error) {
	switch tok := p.current(); tok.Type {
	case TokenLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.current(); closing.Type != TokenRParen {
			return nil, p.unexpected(closing, "')'")
		}
		p.advance()
		return inner, nil

	case TokenFunc:
		return p.parseCall()

	case TokenField, TokenString, TokenNumber:
		left := p.parseTerm()
		op := p.current()
		if op.Type != TokenOperator {
			return nil, p.unexpected(op, "operator")
		}
		p.advance()
		switch p.current().Type {
		case TokenField, TokenString, TokenNumber:
		default:
			return nil, p.unexpected(p.current(), "field or literal")
		}
		right := p.parseTerm()
		return &CompareExpr{Left: left, Op: op.Value, Right: right, Pos: tok.Pos}, nil

	default:
		return nil, p.unexpected(tok, "comparison, function call, or '('")
	}
}

// parseTerm consumes a field or literal token. Callers check the token
// type first.
func (p *Parser) parseTerm() Term {
	tok := p.advance()
	kind := TermField
	switch tok.Type {
	case TokenString:
		kind = TermString
	case TokenNumber:
		kind = TermNumber
	}
	return Term{Kind: kind, Value: tok.Value, Pos: tok.Pos}
}

func (p *Parser) parseCall() (Expr, error) {
	name := p.advance()
	arity, known := functions[name.Value]
	if !known {
		return nil, &ParseError{Pos: name.Pos, Msg: fmt.Sprintf("unknown function %q", name.Value)}
	}

	if open := p.current(); open.Type != TokenLParen {
		return nil, p.unexpected(open, "'('")
	}
	p.advance()

	var args []Term
	if p.current().Type != TokenRParen {
		for {
			switch p.current().Type {
			case TokenField, TokenString, TokenNumber:
			default:
				return nil, p.unexpected(p.current(), "field or literal argument")
			}
			args = append(args, p.parseTerm())
			if p.current().Type != TokenComma {
				break
			}
			p.advance()
		}
	}

	if closing := p.current(); closing.Type != TokenRParen {
		return nil, p.unexpected(closing, "')'")
	}
	p.advance()

	if len(args) != arity {
		return nil, &ArityError{Func: name.Value, Want: arity, Got: len(args)}
	}

	return &CallExpr{Name: name.Value, Args: args, Pos: name.Pos}, nil
}
