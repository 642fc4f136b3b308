package compiler

import (
	"github.com/roach88/metacat/internal/dsl"
	"github.com/roach88/metacat/internal/queryplan"
)

// resolvedItem is one select position.
type resolvedItem struct {
	label string
	expr  string
	kind  queryplan.AggregateKind
}

// resolveSelect builds the SelectSpec of a projection list. The first
// occurrence of each aggregate kind claims its slot; later duplicates are
// projected but not indexed.
func resolveSelect(sel *dsl.SelectExpr) (queryplan.SelectSpec, error) {
	spec := queryplan.NewSelectSpec()
	spec.Labels = make([]string, 0, len(sel.Items))
	spec.Expressions = make([]string, 0, len(sel.Items))

	for i, item := range sel.Items {
		r, err := resolveItem(item, sel)
		if err != nil {
			return queryplan.SelectSpec{}, err
		}
		spec.Labels = append(spec.Labels, r.label)
		spec.Expressions = append(spec.Expressions, r.expr)

		switch r.kind {
		case queryplan.AggCount:
			claim(&spec.CountIdx, i)
		case queryplan.AggSum:
			claim(&spec.SumIdx, i)
		case queryplan.AggMin:
			claim(&spec.MinIdx, i)
		case queryplan.AggMax:
			claim(&spec.MaxIdx, i)
		}
	}
	return spec, nil
}

func claim(slot *int, i int) {
	if *slot == queryplan.NoIndex {
		*slot = i
	}
}

// resolveItem computes (label, expression, aggregate kind) for one item.
// An item is an aggregate only when its whole expression is a single
// count/sum/min/max call.
func resolveItem(item *dsl.SelectItem, sel *dsl.SelectExpr) (resolvedItem, error) {
	if item == nil || item.Expr == nil || dsl.IsNil(item.Expr.Left) {
		return resolvedItem{}, malformedChain(sel.Text(), sel.Pos(), "select item without expression")
	}

	r := resolvedItem{label: item.Alias, expr: item.Expr.Text(), kind: queryplan.AggNone}

	if len(item.Expr.Rights) == 0 {
		switch agg := item.Expr.Left.(type) {
		case *dsl.CountClause:
			r.expr = "count"
			r.kind = queryplan.AggCount
			if r.label == "" {
				r.label = "count"
			}
		case *dsl.SumClause:
			arg, err := aggregateArg(agg.Arg, agg)
			if err != nil {
				return resolvedItem{}, err
			}
			r.expr, r.kind = arg, queryplan.AggSum
		case *dsl.MinClause:
			arg, err := aggregateArg(agg.Arg, agg)
			if err != nil {
				return resolvedItem{}, err
			}
			r.expr, r.kind = arg, queryplan.AggMin
		case *dsl.MaxClause:
			arg, err := aggregateArg(agg.Arg, agg)
			if err != nil {
				return resolvedItem{}, err
			}
			r.expr, r.kind = arg, queryplan.AggMax
		}
	}

	if r.label == "" {
		r.label = item.Expr.Text()
	}
	return r, nil
}

func aggregateArg(arg *dsl.Expr, call dsl.Node) (string, error) {
	if arg == nil {
		return "", malformedChain(call.Text(), call.Pos(), "aggregate without argument")
	}
	return arg.Text(), nil
}
