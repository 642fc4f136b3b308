package dsl

// Inspect traverses the tree rooted at n in source order, calling fn for
// each node. If fn returns false, the children of that node are skipped.
// Nil children are never visited.
func Inspect(n Node, fn func(Node) bool) {
	if IsNil(n) || !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Inspect(child, fn)
	}
}

// Children returns the direct, non-nil children of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(children ...Node) {
		for _, c := range children {
			if !IsNil(c) {
				out = append(out, c)
			}
		}
	}

	switch v := n.(type) {
	case *Query:
		add(v.Source, v.GroupBy, v.Select, v.OrderBy, v.Limit)
	case *QuerySource:
		add(v.From, v.Where, v.Expr)
	case *WhereClause:
		add(v.Expr)
	case *Expr:
		add(v.Left)
		for _, r := range v.Rights {
			add(r)
		}
	case *ExprRight:
		add(v.Operand)
	case *Comparison:
		add(v.LHS, v.RHS)
	case *IsClause:
		add(v.Subject)
	case *HasClause:
		add(v.Subject)
	case *HasTermClause:
		add(v.Subject)
	case *ArithExpr:
		add(v.Operands...)
	case *ParenExpr:
		add(v.Inner)
	case *ValueArray:
		for _, item := range v.Items {
			add(item)
		}
	case *SelectExpr:
		for _, item := range v.Items {
			add(item)
		}
	case *SelectItem:
		add(v.Expr)
	case *SumClause:
		add(v.Arg)
	case *MinClause:
		add(v.Arg)
	case *MaxClause:
		add(v.Arg)
	case *GroupByExpr:
		add(v.Select)
	case *OrderByExpr:
		add(v.Expr)
	}
	return out
}

// isNil reports whether n is nil or a typed nil pointer.
func IsNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *Query:
		return v == nil
	case *QuerySource:
		return v == nil
	case *FromExpr:
		return v == nil
	case *WhereClause:
		return v == nil
	case *Expr:
		return v == nil
	case *ExprRight:
		return v == nil
	case *Comparison:
		return v == nil
	case *IsClause:
		return v == nil
	case *HasClause:
		return v == nil
	case *HasTermClause:
		return v == nil
	case *ArithExpr:
		return v == nil
	case *ParenExpr:
		return v == nil
	case *Identifier:
		return v == nil
	case *Literal:
		return v == nil
	case *ValueArray:
		return v == nil
	case *SelectExpr:
		return v == nil
	case *SelectItem:
		return v == nil
	case *CountClause:
		return v == nil
	case *SumClause:
		return v == nil
	case *MinClause:
		return v == nil
	case *MaxClause:
		return v == nil
	case *GroupByExpr:
		return v == nil
	case *OrderByExpr:
		return v == nil
	case *LimitOffset:
		return v == nil
	}
	return false
}

