package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NativeColumns is the document table catalog consumed by the resolver,
// in projection order.
var NativeColumns = []string{
	"path", "folder", "name", "ext", "title", "size",
	"created_at", "modified_at", "body",
	"tags", "links", "backlinks", "embeds",
}

// containerColumns hold JSON arrays and are the only valid has() targets.
var containerColumns = map[string]bool{
	"tags":      true,
	"links":     true,
	"backlinks": true,
	"embeds":    true,
}

// timeColumns store unix-seconds timestamps.
var timeColumns = map[string]bool{
	"created_at":  true,
	"modified_at": true,
}

var sqlOps = map[string]string{
	"==": "=",
	"!=": "!=",
	">":  ">",
	"<":  "<",
	">=": ">=",
	"<=": "<=",
	"=~": "LIKE",
}

// Compiled is a SQL boolean predicate plus its ordered bind values.
// Literals are never interpolated into the predicate text.
type Compiled struct {
	Predicate string
	Binds     []interface{}
}

// Compile walks a parsed expression tree and produces the SQL predicate.
func Compile(expr Expr) (*Compiled, error) {
	c := &compiler{}
	sql, err := c.compile(expr)
	if err != nil {
		return nil, err
	}
	return &Compiled{Predicate: sql, Binds: c.binds}, nil
}

// Build tokenizes, parses, and compiles a query string in one step.
func Build(input string) (*Compiled, error) {
	expr, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return Compile(expr)
}

// fieldRef is a resolved field: either a native column or a JSON
// extraction from the properties map.
type fieldRef struct {
	SQL       string
	Container bool
	Time      bool
}

// resolveField maps a query field name to a storage expression.
//
// Explicit namespaces: file.* must match a native column exactly, note.*
// always extracts from properties. Unprefixed shorthand tries a native
// column first, then falls back to a properties extraction.
func resolveField(name string) (fieldRef, error) {
	if prefix, rest, found := strings.Cut(name, "."); found {
		switch prefix {
		case "file":
			if isNativeColumn(rest) {
				return columnRef(rest), nil
			}
			return fieldRef{}, &UnknownFieldError{Field: name}
		case "note":
			return propertyRef(rest), nil
		}
		// Dotted name outside the known namespaces: nested property path.
		return propertyRef(name), nil
	}

	if isNativeColumn(name) {
		return columnRef(name), nil
	}
	return propertyRef(name), nil
}

func isNativeColumn(name string) bool {
	for _, col := range NativeColumns {
		if col == name {
			return true
		}
	}
	return false
}

func columnRef(col string) fieldRef {
	return fieldRef{
		SQL:       col,
		Container: containerColumns[col],
		Time:      timeColumns[col],
	}
}

// propertyRef builds a json_extract over the properties column. Property
// lookup is case-sensitive; dots navigate nested keys.
func propertyRef(key string) fieldRef {
	var path strings.Builder
	path.WriteString("$")
	for _, part := range strings.Split(key, ".") {
		fmt.Fprintf(&path, ".%q", part)
	}
	return fieldRef{SQL: fmt.Sprintf("json_extract(properties, '%s')", path.String())}
}

type compiler struct {
	binds []interface{}
}

func (c *compiler) compile(e Expr) (string, error) {
	switch n := e.(type) {
	case *AndExpr:
		return c.logical(n.Left, "AND", n.Right)
	case *OrExpr:
		return c.logical(n.Left, "OR", n.Right)
	case *CompareExpr:
		return c.compare(n)
	case *CallExpr:
		return c.call(n)
	default:
		return "", fmt.Errorf("unsupported expression node %T", e)
	}
}

// logical joins compiled children with explicit parentheses so that
// precedence survives regardless of source grouping.
func (c *compiler) logical(left Expr, op string, right Expr) (string, error) {
	l, err := c.compile(left)
	if err != nil {
		return "", err
	}
	r, err := c.compile(right)
	if err != nil {
		return "", err
	}
	return "(" + l + " " + op + " " + r + ")", nil
}

func (c *compiler) compare(n *CompareExpr) (string, error) {
	sqlOp, ok := sqlOps[n.Op]
	if !ok {
		return "", &ParseError{Pos: n.Pos, Msg: fmt.Sprintf("unknown operator %q", n.Op)}
	}

	leftRef, err := c.resolveTerm(n.Left)
	if err != nil {
		return "", err
	}
	rightRef, err := c.resolveTerm(n.Right)
	if err != nil {
		return "", err
	}

	// A string literal compared against a timestamp column is coerced
	// through a date/time parse at compile time.
	timeCtx := (leftRef != nil && leftRef.Time && n.Right.Kind == TermString) ||
		(rightRef != nil && rightRef.Time && n.Left.Kind == TermString)

	leftSQL, err := c.renderSide(n.Left, leftRef, timeCtx)
	if err != nil {
		return "", err
	}
	rightSQL, err := c.renderSide(n.Right, rightRef, timeCtx)
	if err != nil {
		return "", err
	}

	return leftSQL + " " + sqlOp + " " + rightSQL, nil
}

// resolveTerm resolves field terms; literals resolve to nil.
func (c *compiler) resolveTerm(t Term) (*fieldRef, error) {
	if t.Kind != TermField {
		return nil, nil
	}
	ref, err := resolveField(t.Value)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// renderSide emits the SQL for one comparison operand, appending a bind
// value when the operand is a literal. Binds stay in left-to-right order.
func (c *compiler) renderSide(t Term, ref *fieldRef, timeCtx bool) (string, error) {
	if ref != nil {
		return ref.SQL, nil
	}

	if timeCtx && t.Kind == TermString {
		secs, err := parseTimeLiteral(t.Value)
		if err != nil {
			return "", err
		}
		c.binds = append(c.binds, secs)
		return "?", nil
	}

	value, err := literalValue(t)
	if err != nil {
		return "", err
	}
	c.binds = append(c.binds, value)
	return "?", nil
}

// call compiles has(field, value) into a containment test over a JSON
// array column.
func (c *compiler) call(n *CallExpr) (string, error) {
	// The parser already enforces name and arity for known functions;
	// re-check arity so compilation stays safe over hand-built ASTs.
	if len(n.Args) != 2 {
		return "", &ArityError{Func: n.Name, Want: 2, Got: len(n.Args)}
	}

	field := n.Args[0]
	if field.Kind != TermField {
		return "", &TypeError{Msg: "has() first argument must be a field"}
	}
	ref, err := resolveField(field.Value)
	if err != nil {
		return "", err
	}
	if !ref.Container {
		return "", &TypeError{Msg: fmt.Sprintf("has() requires a container field (tags, links, backlinks, embeds); %s is not one", field.Value)}
	}

	arg := n.Args[1]
	if arg.Kind == TermField {
		return "", &TypeError{Msg: "has() second argument must be a literal"}
	}
	value, err := literalValue(arg)
	if err != nil {
		return "", err
	}
	c.binds = append(c.binds, value)

	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value = ?)", ref.SQL), nil
}

// literalValue converts a literal term to its typed bind value: numbers
// bind numerically, everything else binds as text.
func literalValue(t Term) (interface{}, error) {
	if t.Kind != TermNumber {
		return t.Value, nil
	}
	if strings.Contains(t.Value, ".") {
		f, err := strconv.ParseFloat(t.Value, 64)
		if err != nil {
			return nil, &InvalidLiteralError{Literal: t.Value, Msg: "not a valid number"}
		}
		return f, nil
	}
	i, err := strconv.ParseInt(t.Value, 10, 64)
	if err != nil {
		return nil, &InvalidLiteralError{Literal: t.Value, Msg: "not a valid number"}
	}
	return i, nil
}

// timeLayouts are the accepted timestamp literal formats.
var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseTimeLiteral(s string) (int64, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.Unix(), nil
		}
	}
	return 0, &InvalidLiteralError{Literal: s, Msg: "not a valid timestamp (want YYYY-MM-DD, YYYY-MM-DD HH:MM:SS, or RFC 3339)"}
}

// Projection is an output field resolved to a SQL select expression.
type Projection struct {
	Name string // field name as written
	Expr string // SQL expression
	Time bool   // value is a unix-seconds timestamp
}

// ResolveProjection resolves a comma-separated output-field list. "*"
// expands to the full native catalog.
func ResolveProjection(spec string) ([]Projection, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "*" {
		out := make([]Projection, 0, len(NativeColumns))
		for _, col := range NativeColumns {
			out = append(out, Projection{Name: col, Expr: col, Time: timeColumns[col]})
		}
		return out, nil
	}

	var out []Projection
	for _, raw := range strings.Split(spec, ",") {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if !validFieldName(name) {
			return nil, &InvalidLiteralError{Literal: name, Msg: "not a valid field name"}
		}
		ref, err := resolveField(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Projection{Name: name, Expr: ref.SQL, Time: ref.Time})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no output fields specified")
	}
	return out, nil
}

// validFieldName holds output fields to the same identifier rules the
// lexer applies to predicate fields. They arrive from a flag rather
// than the lexer, and the resolved expression is spliced into the
// SELECT text, so anything outside the identifier charset is rejected
// up front.
func validFieldName(name string) bool {
	if name == "" || !isIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentChar(name[i]) {
			return false
		}
	}
	return true
}
