package compiler

import (
	"strings"

	"github.com/roach88/metacat/internal/dsl"
	"github.com/roach88/metacat/internal/ir"
	"github.com/roach88/metacat/internal/queryplan"
)

// processTopLevel compiles the outermost boolean expression of a query
// into target and runs the trait pass over it. Nested parenthesised groups
// go through process directly and never trigger their own trait pass.
func (w *walker) processTopLevel(expr dsl.Node, target *composer) error {
	if !target.hasFrom {
		if source, ok := inferSource(expr); ok {
			w.logger.Debug("inferred from-source", "source", source)
			target.addFrom(source)
		}
	}

	exprComp := target.nested()
	if err := w.process(expr, exprComp); err != nil {
		return err
	}
	needsTrait := exprComp.referencesTrait()
	target.merge(exprComp)

	if !needsTrait {
		return nil
	}

	w.logger.Debug("trait pass", "expr", expr.Text())
	traitComp := target.nested()
	traitComp.traitScope = true
	if err := w.process(expr, traitComp); err != nil {
		return err
	}
	target.addAnd([]*queryplan.Plan{traitComp.freeze()})
	return nil
}

// inferSource returns the subject text of the first isa/has/hasTerm clause
// in source order.
func inferSource(expr dsl.Node) (string, bool) {
	var source string
	dsl.Inspect(expr, func(n dsl.Node) bool {
		if source != "" {
			return false
		}
		switch v := n.(type) {
		case *dsl.IsClause:
			source = subjectText(v.Subject)
		case *dsl.HasClause:
			source = subjectText(v.Subject)
		case *dsl.HasTermClause:
			source = subjectText(v.Subject)
		}
		return source == ""
	})
	return source, source != ""
}

func subjectText(a *dsl.ArithExpr) string {
	if a == nil {
		return ""
	}
	return a.Text()
}

// process compiles a boolean chain into target.
//
// Operands collect in a pending list. Every change of operator closes the
// pending list into one child plan wrapped by the previous operator, and
// the last operator wraps whatever is pending at the end:
//
//	A                  -> A's clauses inlined
//	A and B and C      -> and(A, B, C)
//	A or B or C        -> or(A, B, C)
//	A and B or C       -> or(and(A, B), C)
//	A or B and C       -> and(or(A, B), C)
//	A and B or C and D -> and(or(and(A, B), C), D)
//
// Parentheses are the only way to group differently.
func (w *walker) process(node dsl.Node, target *composer) error {
	expr, ok := node.(*dsl.Expr)
	if !ok {
		// A lone clause outside any chain.
		comp := target.nested()
		if err := w.compileOperand(node, comp); err != nil {
			return err
		}
		target.merge(comp)
		return nil
	}
	if dsl.IsNil(expr.Left) {
		return malformedChain(expr.Text(), expr.Pos(), "boolean chain without a first operand")
	}

	first := target.nested()
	if err := w.compileOperand(expr.Left, first); err != nil {
		return err
	}
	if len(expr.Rights) == 0 {
		target.merge(first)
		return nil
	}

	pending := []*queryplan.Plan{first.freeze()}
	target.addTouched(pending[0].TouchedAttributes)
	var prev dsl.BoolOp
	seen := false
	for _, right := range expr.Rights {
		if right == nil || dsl.IsNil(right.Operand) {
			return malformedChain(expr.Text(), expr.Pos(), "boolean operator without an operand")
		}
		if seen && right.Op != prev {
			group := target.wrap(wrapOpFor(prev), pending)
			pending = []*queryplan.Plan{group}
		}
		comp := target.nested()
		if err := w.compileOperand(right.Operand, comp); err != nil {
			return err
		}
		child := comp.freeze()
		target.addTouched(child.TouchedAttributes)
		pending = append(pending, child)
		prev, seen = right.Op, true
	}

	if prev == dsl.OpOr {
		target.addOr(pending)
	} else {
		target.addAnd(pending)
	}
	return nil
}

func wrapOpFor(op dsl.BoolOp) wrapOp {
	if op == dsl.OpOr {
		return wrapOr
	}
	return wrapAnd
}

// compileOperand applies the leaf-clause rules to one chain operand.
func (w *walker) compileOperand(node dsl.Node, comp *composer) error {
	if dsl.IsNil(node) {
		return malformedChain("", 0, "missing operand")
	}
	w.logger.Debug("=> visit", "kind", kindOf(node), "text", node.Text())

	switch n := node.(type) {
	case *dsl.Comparison:
		return w.compileComparison(n, comp)
	case *dsl.IsClause:
		if n.Subject == nil || n.Trait == "" {
			return malformedChain(n.Text(), n.Pos(), "isa clause needs a subject and a classification")
		}
		comp.add(queryplan.IsA{TypeExpr: n.Subject.Text(), TraitName: n.Trait})
		comp.touch(n.Trait)
		return nil
	case *dsl.HasClause:
		if n.Subject == nil || n.Property == "" {
			return malformedChain(n.Text(), n.Pos(), "has clause needs a subject and an attribute")
		}
		comp.add(queryplan.Has{PropertyExpr: n.Subject.Text(), Alias: n.Property})
		comp.touch(n.Property)
		return nil
	case *dsl.HasTermClause:
		if n.Subject == nil || n.Term == "" {
			return malformedChain(n.Text(), n.Pos(), "hasTerm clause needs a subject and a term")
		}
		comp.add(queryplan.HasTerm{TermExpr: n.Subject.Text(), Alias: n.Term})
		comp.touch(n.Term)
		return nil
	case *dsl.ArithExpr:
		if paren, ok := n.Atom().(*dsl.ParenExpr); ok {
			return w.compileParen(paren, comp)
		}
		return malformedChain(n.Text(), n.Pos(), "expected a comparison or a parenthesised group")
	case *dsl.ParenExpr:
		return w.compileParen(n, comp)
	case *dsl.Expr:
		return w.process(n, comp)
	case *dsl.CountClause, *dsl.SumClause, *dsl.MinClause, *dsl.MaxClause:
		return unsupported(n.Text(), n.Pos(), "aggregate used as a filter")
	default:
		return unsupported(node.Text(), node.Pos(), "%s cannot appear in a boolean expression", kindOf(node))
	}
}

func (w *walker) compileParen(p *dsl.ParenExpr, comp *composer) error {
	if p.Inner == nil {
		return malformedChain(p.Text(), p.Pos(), "empty parenthesised group")
	}
	return w.process(p.Inner, comp)
}

// compileComparison emits a Where clause. A bracketed right-hand side is a
// value list and becomes an IN predicate over its items.
func (w *walker) compileComparison(c *dsl.Comparison, comp *composer) error {
	if c.LHS == nil || c.RHS == nil || c.Op == "" {
		return malformedChain(c.Text(), c.Pos(), "comparison needs a left side, an operator and a right side")
	}
	lhs := c.LHS.Text()
	op, err := queryplan.ParseOperator(c.Op)
	if err != nil {
		return unsupported(c.Text(), c.Pos(), "%v", err)
	}

	rhs := c.RHS.Text()
	var value ir.IRValue
	if isListText(c.RHS) {
		if op != queryplan.OpEq {
			return unsupported(c.Text(), c.Pos(), "operator %s cannot take a value list", c.Op)
		}
		items, err := splitList(rhs, c.RHS.Pos())
		if err != nil {
			return err
		}
		op = queryplan.OpIn
		rhs = strings.Join(items, ",")
		value = listValue(items)
	} else {
		value = rhsValue(c.RHS)
		if op == queryplan.OpLike {
			op, value = likePredicate(value)
		}
	}

	opText := strings.ToUpper(c.Op)
	if op == queryplan.OpIn {
		opText = string(queryplan.OpIn)
	}
	comp.add(queryplan.Where{
		LHS: lhs,
		Op:  opText,
		RHS: rhs,
		Predicate: queryplan.HasPredicate{
			Property: lhs,
			Operator: op,
			Value:    value,
		},
	})
	comp.touch(lhs)
	return nil
}

// isListText reports whether the right-hand side is written as a value
// list. A quoted string is never a list, whatever its content.
func isListText(rhs *dsl.ArithExpr) bool {
	switch atom := rhs.Atom().(type) {
	case *dsl.ValueArray:
		return true
	case *dsl.Literal:
		if atom.Kind == dsl.LitString {
			return false
		}
	}
	text := strings.TrimSpace(rhs.Text())
	return strings.HasPrefix(text, "[") || strings.HasSuffix(text, "]")
}

// rhsValue types a scalar right-hand side. Arithmetic expressions stay as
// their source text.
func rhsValue(rhs *dsl.ArithExpr) ir.IRValue {
	switch atom := rhs.Atom().(type) {
	case *dsl.Literal:
		switch atom.Kind {
		case dsl.LitString:
			return ir.IRString(atom.Value)
		case dsl.LitNumber, dsl.LitBool:
			return literalValue(atom.Value)
		default:
			return ir.IRString(atom.Value)
		}
	case *dsl.Identifier:
		return ir.IRString(atom.Name)
	}
	return ir.IRString(rhs.Text())
}
