package query

// Expr is a node in the query expression tree. Exprs are transient: they
// live for a single compilation and are discarded after SQL generation.
type Expr interface {
	exprNode()
}

// AndExpr joins two expressions with logical AND.
type AndExpr struct {
	Left, Right Expr
}

func (*AndExpr) exprNode() {}

// OrExpr joins two expressions with logical OR.
type OrExpr struct {
	Left, Right Expr
}

func (*OrExpr) exprNode() {}

// CompareExpr is a single `term operator term` comparison.
type CompareExpr struct {
	Left  Term
	Op    string // ==, !=, >, <, >=, <=, =~
	Right Term
	Pos   int
}

func (*CompareExpr) exprNode() {}

// CallExpr is a function call predicate such as has(tags, 'todo').
type CallExpr struct {
	Name string
	Args []Term
	Pos  int
}

func (*CallExpr) exprNode() {}

// TermKind discriminates comparison operands and function arguments.
type TermKind int

const (
	TermField TermKind = iota
	TermString
	TermNumber
)

// Term is a comparison operand: a field reference or a literal.
type Term struct {
	Kind  TermKind
	Value string
	Pos   int
}

// IsLiteral reports whether the term is a string or number literal.
func (t Term) IsLiteral() bool {
	return t.Kind != TermField
}
