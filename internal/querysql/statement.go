package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/metacat/internal/queryplan"
)

// Statement is a lowered plan ready for database/sql.
//
// Without a select clause the statement yields one column, the entity
// GUID, and Projection is false. With one, Columns holds the select labels
// in order.
type Statement struct {
	SQL        string
	Params     []any
	Columns    []string
	Projection bool
}

// Lower projects p onto a new Builder and assembles the statement.
//
// When p carries a trait-scope branch, trait predicates in the ordinary
// clauses are left to that branch: the branch holds the whole filter
// evaluated with classification semantics, and the ordinary clauses with
// every trait predicate taken as true are implied by it.
func Lower(p *queryplan.Plan, opts ...Option) (Statement, error) {
	b := NewBuilder(opts...)
	b.deferTraits = hasTraitScope(p)
	if err := p.Apply(b); err != nil {
		return Statement{}, fmt.Errorf("lower plan: %w", err)
	}
	return b.Build()
}

func hasTraitScope(p *queryplan.Plan) bool {
	found := false
	p.Walk(func(c queryplan.Clause, _ int) {
		var children []*queryplan.Plan
		switch v := c.(type) {
		case queryplan.And:
			children = v.Children
		case queryplan.Or:
			children = v.Children
		}
		for _, child := range children {
			if child.TraitScope {
				found = true
			}
		}
	})
	return found
}

// Build assembles the statement from the clauses applied so far.
//
// CRITICAL: Parameters are collected in the order their placeholders
// appear: select list, WHERE, GROUP BY, ORDER BY, LIMIT.
func (b *Builder) Build() (Statement, error) {
	if b.nested {
		return Statement{}, fmt.Errorf("build called on a nested builder")
	}

	var (
		sb     strings.Builder
		params []any
		st     Statement
	)

	if b.spec == nil {
		sb.WriteString("SELECT e.guid FROM entities e")
		st.Columns = []string{"guid"}
	} else {
		cols, colParams, err := b.selectList()
		if err != nil {
			return Statement{}, err
		}
		sb.WriteString("SELECT " + cols + " FROM entities e")
		params = append(params, colParams...)
		st.Columns = append([]string(nil), b.spec.Labels...)
		st.Projection = true
	}

	where := b.where()
	sb.WriteString(" WHERE " + where.sql)
	params = append(params, where.params...)

	var groupCols []string
	if len(b.group) > 0 {
		for _, attr := range b.group {
			c := column(b.attrName(attr))
			groupCols = append(groupCols, c.sql)
			params = append(params, c.params...)
		}
		sb.WriteString(" GROUP BY " + strings.Join(groupCols, ", "))
	}

	aggregated := b.spec != nil && b.spec.HasAggregate()
	var orderCols []string
	if b.order != nil {
		c := column(b.attrName(b.order.attr))
		dir := " ASC"
		if b.order.desc {
			dir = " DESC"
		}
		orderCols = append(orderCols, c.sql+dir)
		params = append(params, c.params...)
	}
	switch {
	case len(b.group) > 0:
		// One row per group; the group keys make the order total.
		for i, attr := range b.group {
			c := column(b.attrName(attr))
			orderCols = append(orderCols, groupCols[i]+" ASC")
			params = append(params, c.params...)
		}
	case !aggregated:
		orderCols = append(orderCols, "e.guid ASC COLLATE BINARY")
	}
	if len(orderCols) > 0 {
		sb.WriteString(" ORDER BY " + strings.Join(orderCols, ", "))
	}

	if b.limit != nil {
		sb.WriteString(" LIMIT ? OFFSET ?")
		params = append(params, b.limit.Count, b.limit.Offset)
	}

	st.SQL = sb.String()
	st.Params = params
	return st, nil
}

// selectList renders the projection. Aggregate positions become COUNT(*),
// SUM, MIN and MAX over the attribute named by the expression.
func (b *Builder) selectList() (string, []any, error) {
	spec := b.spec
	parts := make([]string, spec.Len())
	var params []any
	for i, label := range spec.Labels {
		expr := spec.Expressions[i]
		var sql string
		switch kind := spec.AggregateAt(i); kind {
		case queryplan.AggCount:
			sql = "COUNT(*)"
		case queryplan.AggSum, queryplan.AggMin, queryplan.AggMax:
			if expr == "" {
				return "", nil, fmt.Errorf("select %q: %s needs an attribute", label, kind)
			}
			c := column(b.attrName(expr))
			sql = strings.ToUpper(kind.String()) + "(" + c.sql + ")"
			params = append(params, c.params...)
		default:
			c := column(b.attrName(expr))
			sql = c.sql
			params = append(params, c.params...)
		}
		parts[i] = sql + " AS " + quoteIdent(label)
	}
	return strings.Join(parts, ", "), params, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
