package query

import (
	"errors"
	"testing"
)

func TestParseComparison(t *testing.T) {
	expr, err := Parse("file.name == 'readme'")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cmp, ok := expr.(*CompareExpr)
	if !ok {
		t.Fatalf("got %T, want *CompareExpr", expr)
	}
	if cmp.Left.Kind != TermField || cmp.Left.Value != "file.name" {
		t.Errorf("Left = %+v", cmp.Left)
	}
	if cmp.Op != "==" {
		t.Errorf("Op = %q", cmp.Op)
	}
	if cmp.Right.Kind != TermString || cmp.Right.Value != "readme" {
		t.Errorf("Right = %+v", cmp.Right)
	}
}

func TestParseAllOperators(t *testing.T) {
	for _, op := range []string{"==", "!=", ">", "<", ">=", "<=", "=~"} {
		expr, err := Parse("size " + op + " 100")
		if err != nil {
			t.Fatalf("operator %s: %v", op, err)
		}
		cmp, ok := expr.(*CompareExpr)
		if !ok {
			t.Fatalf("operator %s: got %T", op, expr)
		}
		if cmp.Op != op {
			t.Errorf("Op = %q, want %q", cmp.Op, op)
		}
	}
}

func TestParseAndOr(t *testing.T) {
	expr, err := Parse("a == 1 and b == 2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	and, ok := expr.(*AndExpr)
	if !ok {
		t.Fatalf("got %T, want *AndExpr", expr)
	}
	if _, ok := and.Left.(*CompareExpr); !ok {
		t.Errorf("Left = %T", and.Left)
	}
	if _, ok := and.Right.(*CompareExpr); !ok {
		t.Errorf("Right = %T", and.Right)
	}

	expr, err = Parse("a == 1 or b == 2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := expr.(*OrExpr); !ok {
		t.Fatalf("got %T, want *OrExpr", expr)
	}
}

// and binds tighter than or: a==1 or b==2 and c==3 parses as
// a==1 or (b==2 and c==3).
func TestParsePrecedence(t *testing.T) {
	expr, err := Parse("a == 1 or b == 2 and c == 3")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	or, ok := expr.(*OrExpr)
	if !ok {
		t.Fatalf("got %T, want *OrExpr at root", expr)
	}
	if _, ok := or.Left.(*CompareExpr); !ok {
		t.Errorf("Left = %T, want comparison", or.Left)
	}
	if _, ok := or.Right.(*AndExpr); !ok {
		t.Errorf("Right = %T, want AND group", or.Right)
	}
}

func TestParseLeftAssociative(t *testing.T) {
	expr, err := Parse("a == 1 and b == 2 and c == 3")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	and, ok := expr.(*AndExpr)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if _, ok := and.Left.(*AndExpr); !ok {
		t.Errorf("Left = %T, want nested AND", and.Left)
	}
}

// Grouping parentheses are transparent: the inner expression is promoted.
func TestParseGroupingPromoted(t *testing.T) {
	expr, err := Parse("(a == 1)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := expr.(*CompareExpr); !ok {
		t.Fatalf("got %T, want promoted *CompareExpr", expr)
	}

	expr, err = Parse("(a == 1 or b == 2) and c == 3")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	and, ok := expr.(*AndExpr)
	if !ok {
		t.Fatalf("got %T, want *AndExpr", expr)
	}
	if _, ok := and.Left.(*OrExpr); !ok {
		t.Errorf("Left = %T, want OR group", and.Left)
	}
}

func TestParseFunctionCall(t *testing.T) {
	expr, err := Parse("has(tags, 'important')")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	call, ok := expr.(*CallExpr)
	if !ok {
		t.Fatalf("got %T, want *CallExpr", expr)
	}
	if call.Name != "has" || len(call.Args) != 2 {
		t.Fatalf("call = %+v", call)
	}
	if call.Args[0].Kind != TermField || call.Args[0].Value != "tags" {
		t.Errorf("arg 0 = %+v", call.Args[0])
	}
	if call.Args[1].Kind != TermString || call.Args[1].Value != "important" {
		t.Errorf("arg 1 = %+v", call.Args[1])
	}
}

func TestParseFunctionInExpression(t *testing.T) {
	expr, err := Parse("has(tags, 'a') and has(links, 'b')")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	and, ok := expr.(*AndExpr)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if _, ok := and.Left.(*CallExpr); !ok {
		t.Errorf("Left = %T", and.Left)
	}
	if _, ok := and.Right.(*CallExpr); !ok {
		t.Errorf("Right = %T", and.Right)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bare field", "name"},
		{"bare literal", "42"},
		{"missing right operand", "name =="},
		{"missing operator", "name 'x'"},
		{"unbalanced open paren", "(a == 1"},
		{"stray close paren", "a == 1)"},
		{"trailing tokens", "a == 1 b == 2"},
		{"trailing operator", "a == 1 and"},
		{"unknown function", "contains(tags, 'x')"},
		{"empty input", ""},
		{"function as operand", "name == has(tags, 'x')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("got %v (%T), want ParseError", err, err)
			}
		})
	}
}

func TestParseArityError(t *testing.T) {
	for _, input := range []string{"has(tags)", "has(tags, 'a', 'b')", "has()"} {
		_, err := Parse(input)
		var arityErr *ArityError
		if !errors.As(err, &arityErr) {
			t.Fatalf("%q: got %v (%T), want ArityError", input, err, err)
		}
		if arityErr.Want != 2 {
			t.Errorf("%q: Want = %d", input, arityErr.Want)
		}
	}
}
