package dsl

// Node is a node of the DSL parse tree.
//
// This is a sealed interface: only types in this package implement it, so
// consumers can switch exhaustively over the node kinds.
type Node interface {
	// Text returns the node's tokens concatenated without whitespace.
	Text() string
	// Pos returns the byte offset of the node's first token.
	Pos() int
	node()
}

// Span records where a node came from. Text is the concatenation of the
// node's token texts without intervening whitespace.
type Span struct {
	Start int
	Src   string
}

func (s Span) Text() string { return s.Src }
func (s Span) Pos() int { return s.Start }

// BoolOp joins the operands of an expression chain.
type BoolOp int

const (
	OpAnd BoolOp = iota
	OpOr
)

func (op BoolOp) String() string {
	if op == OpOr {
		return "OR"
	}
	return "AND"
}

// LiteralKind classifies a Literal.
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
	LitFloat
	LitBool
)

// Query is the root node. Every part except Source is optional.
type Query struct {
	Span
	Source  *QuerySource
	GroupBy *GroupByExpr
	Select  *SelectExpr
	OrderBy *OrderByExpr
	Limit   *LimitOffset
}

// QuerySource is the leading part of a query: an explicit from-source with
// an optional where clause, a bare where clause, or a bare expression.
type QuerySource struct {
	Span
	From  *FromExpr
	Where *WhereClause
	Expr  *Expr
}

// FromExpr names the entity type being queried, optionally aliased
// (`hive_table as t`).
type FromExpr struct {
	Span
	Source string
	Alias  string
}

// WhereClause is `where <expr>`.
type WhereClause struct {
	Span
	Expr *Expr
}

// Expr is a boolean chain: Left followed by zero or more AND/OR operands.
type Expr struct {
	Span
	Left   Node
	Rights []*ExprRight
}

// ExprRight is one `and <operand>` or `or <operand>` link of a chain.
type ExprRight struct {
	Span
	Op      BoolOp
	Operand Node
}

// Comparison is `<lhs> <op> <rhs>`. Op holds the operator as written.
type Comparison struct {
	Span
	LHS *ArithExpr
	Op  string
	RHS *ArithExpr
}

// IsClause is `<subject> isa <trait>`.
type IsClause struct {
	Span
	Subject *ArithExpr
	Trait   string
}

// HasClause is `<subject> has <property>`.
type HasClause struct {
	Span
	Subject  *ArithExpr
	Property string
}

// HasTermClause is `<subject> hasTerm <term>`.
type HasTermClause struct {
	Span
	Subject *ArithExpr
	Term    string
}

// ArithExpr is a run of atoms joined by + - * /. Most arithmetic
// expressions in practice hold a single atom.
type ArithExpr struct {
	Span
	Operands  []Node
	Operators []string
}

// Atom returns the single operand of a non-arithmetic expression, or nil.
func (a *ArithExpr) Atom() Node {
	if a == nil || len(a.Operands) != 1 {
		return nil
	}
	return a.Operands[0]
}

// ParenExpr is a parenthesised sub-expression.
type ParenExpr struct {
	Span
	Inner *Expr
}

// Identifier is a (possibly dotted) name.
type Identifier struct {
	Span
	Name string
}

// Literal is a scalar literal. Value is unquoted for strings.
type Literal struct {
	Span
	Kind  LiteralKind
	Value string
}

// ValueArray is a bracketed literal list: `["a", "b"]`.
type ValueArray struct {
	Span
	Items []*Literal
}

// SelectExpr is the comma-separated projection list of a select clause or a
// groupby.
type SelectExpr struct {
	Span
	Items []*SelectItem
}

// SelectItem is one projection, optionally aliased.
type SelectItem struct {
	Span
	Expr  *Expr
	Alias string
}

// CountClause is `count()`.
type CountClause struct {
	Span
}

// SumClause is `sum(<expr>)`.
type SumClause struct {
	Span
	Arg *Expr
}

// MinClause is `min(<expr>)`.
type MinClause struct {
	Span
	Arg *Expr
}

// MaxClause is `max(<expr>)`.
type MaxClause struct {
	Span
	Arg *Expr
}

// GroupByExpr is `groupby(<select expr>)`.
type GroupByExpr struct {
	Span
	Select *SelectExpr
}

// OrderByExpr is `orderby <expr> [asc|desc]`. Order holds the sort token as
// written, or "" when absent.
type OrderByExpr struct {
	Span
	Expr  *Expr
	Order string
}

// LimitOffset is `limit N [offset M]`. Offset is "" when absent.
type LimitOffset struct {
	Span
	Limit  string
	Offset string
}

func (*Query) node() {}
func (*QuerySource) node() {}
func (*FromExpr) node() {}
func (*WhereClause) node() {}
func (*Expr) node() {}
func (*ExprRight) node() {}
func (*Comparison) node() {}
func (*IsClause) node() {}
func (*HasClause) node() {}
func (*HasTermClause) node() {}
func (*ArithExpr) node() {}
func (*ParenExpr) node() {}
func (*Identifier) node() {}
func (*Literal) node() {}
func (*ValueArray) node() {}
func (*SelectExpr) node() {}
func (*SelectItem) node() {}
func (*CountClause) node() {}
func (*SumClause) node() {}
func (*MinClause) node() {}
func (*MaxClause) node() {}
func (*GroupByExpr) node() {}
func (*OrderByExpr) node() {}
func (*LimitOffset) node() {}
