package queryplan

import (
	"fmt"
	"strings"

	"github.com/roach88/metacat/internal/ir"
)

// NativeQuery is the adapter a Plan is projected onto. Each method
// receives one clause; And/Or receive the child plans, which the adapter
// applies to nested query objects of its own.
type NativeQuery interface {
	And(children []*Plan) error
	Or(children []*Plan) error
	Has(property string, op Operator, value ir.IRValue) error
	IsA(typeExpr, traitName string) error
	HasTerm(termExpr, alias string) error
	Select(spec SelectSpec) error
	OrderBy(attr string, desc bool) error
	GroupBy(expr string) error
	Limit(count, offset int64) error
	From(source string) error
	FromAlias(alias, source string) error
}

// Apply projects every clause of the plan, in order, onto q.
// Has clauses cross the boundary as existence predicates on their alias.
func (p *Plan) Apply(q NativeQuery) error {
	for i, clause := range p.Clauses {
		if err := applyClause(clause, q); err != nil {
			return fmt.Errorf("clause %d: %w", i, err)
		}
	}
	return nil
}

func applyClause(clause Clause, q NativeQuery) error {
	switch c := clause.(type) {
	case Where:
		return c.Predicate.Apply(q)
	case IsA:
		return q.IsA(c.TypeExpr, c.TraitName)
	case Has:
		return HasPredicate{Property: c.Alias, Operator: OpExists, Value: ir.IRNull{}}.Apply(q)
	case HasTerm:
		return q.HasTerm(c.TermExpr, c.Alias)
	case Select:
		return q.Select(c.Spec)
	case OrderBy:
		return q.OrderBy(c.Attr, c.Descending)
	case GroupBy:
		return q.GroupBy(c.Expr)
	case Limit:
		return q.Limit(c.Count, c.Offset)
	case From:
		return q.From(c.Source)
	case FromAlias:
		return q.FromAlias(c.Alias, c.Source)
	case And:
		return q.And(c.Children)
	case Or:
		return q.Or(c.Children)
	default:
		return fmt.Errorf("unsupported clause type: %T", clause)
	}
}

// String renders the plan as a chain of clause calls, e.g.
//
//	from(hive_table).and(where(owner = "etl"), where(PII = true))
//
// Trait-scope plans are wrapped in trait(...). The rendering is stable and
// is what query-case scenarios assert against.
func (p *Plan) String() string {
	if p == nil {
		return ""
	}
	parts := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		parts[i] = clauseString(c)
	}
	s := strings.Join(parts, ".")
	if p.TraitScope {
		return "trait(" + s + ")"
	}
	return s
}

func clauseString(clause Clause) string {
	switch c := clause.(type) {
	case Where:
		return fmt.Sprintf("where(%s %s %s)", c.LHS, c.Op, c.RHS)
	case IsA:
		return fmt.Sprintf("isa(%s, %s)", c.TypeExpr, c.TraitName)
	case Has:
		return fmt.Sprintf("has(%s, %s)", c.PropertyExpr, c.Alias)
	case HasTerm:
		return fmt.Sprintf("hasTerm(%s, %s)", c.TermExpr, c.Alias)
	case Select:
		return "select(" + selectString(c.Spec) + ")"
	case OrderBy:
		if c.Descending {
			return fmt.Sprintf("orderby(%s desc)", c.Attr)
		}
		return fmt.Sprintf("orderby(%s)", c.Attr)
	case GroupBy:
		return fmt.Sprintf("groupby(%s)", c.Expr)
	case Limit:
		return fmt.Sprintf("limit(%d, %d)", c.Count, c.Offset)
	case From:
		return fmt.Sprintf("from(%s)", c.Source)
	case FromAlias:
		return fmt.Sprintf("from(%s as %s)", c.Source, c.Alias)
	case And:
		return "and(" + childrenString(c.Children) + ")"
	case Or:
		return "or(" + childrenString(c.Children) + ")"
	default:
		return fmt.Sprintf("unknown(%T)", clause)
	}
}

func childrenString(children []*Plan) string {
	parts := make([]string, len(children))
	for i, child := range children {
		parts[i] = child.String()
	}
	return strings.Join(parts, ", ")
}

func selectString(spec SelectSpec) string {
	parts := make([]string, spec.Len())
	for i := range parts {
		var raw string
		if i < len(spec.Expressions) {
			raw = spec.Expressions[i]
		}
		expr := raw
		switch spec.AggregateAt(i) {
		case AggCount:
			expr = "count()"
		case AggSum, AggMin, AggMax:
			expr = spec.AggregateAt(i).String() + "(" + raw + ")"
		}
		if spec.Labels[i] == raw || spec.Labels[i] == expr {
			parts[i] = expr
		} else {
			parts[i] = spec.Labels[i] + "=" + expr
		}
	}
	return strings.Join(parts, ", ")
}

// Canonical returns the plan as a map suitable for ir.MarshalCanonical.
func (p *Plan) Canonical() map[string]any {
	clauses := make([]any, len(p.Clauses))
	for i, c := range p.Clauses {
		clauses[i] = canonicalClause(c)
	}
	touched := make([]any, len(p.TouchedAttributes))
	for i, a := range p.TouchedAttributes {
		touched[i] = a
	}
	return map[string]any{
		"clauses":            clauses,
		"has_from":           p.HasFrom,
		"touched_attributes": touched,
		"references_trait":   p.ReferencesTrait,
		"trait_scope":        p.TraitScope,
	}
}

func canonicalClause(clause Clause) map[string]any {
	switch c := clause.(type) {
	case Where:
		return map[string]any{
			"where": map[string]any{
				"lhs":      c.LHS,
				"op":       c.Op,
				"rhs":      c.RHS,
				"property": c.Predicate.Property,
				"operator": string(c.Predicate.Operator),
				"value":    canonicalValue(c.Predicate.Value),
			},
		}
	case IsA:
		return map[string]any{"isa": map[string]any{"type_expr": c.TypeExpr, "trait_name": c.TraitName}}
	case Has:
		return map[string]any{"has": map[string]any{"property_expr": c.PropertyExpr, "alias": c.Alias}}
	case HasTerm:
		return map[string]any{"has_term": map[string]any{"term_expr": c.TermExpr, "alias": c.Alias}}
	case Select:
		return map[string]any{"select": map[string]any{
			"labels":      stringsToAny(c.Spec.Labels),
			"expressions": stringsToAny(c.Spec.Expressions),
			"count_idx":   c.Spec.CountIdx,
			"sum_idx":     c.Spec.SumIdx,
			"min_idx":     c.Spec.MinIdx,
			"max_idx":     c.Spec.MaxIdx,
		}}
	case OrderBy:
		return map[string]any{"order_by": map[string]any{"attr": c.Attr, "descending": c.Descending}}
	case GroupBy:
		return map[string]any{"group_by": map[string]any{"expr": c.Expr}}
	case Limit:
		return map[string]any{"limit": map[string]any{"count": c.Count, "offset": c.Offset}}
	case From:
		return map[string]any{"from": map[string]any{"source": c.Source}}
	case FromAlias:
		return map[string]any{"from_alias": map[string]any{"alias": c.Alias, "source": c.Source}}
	case And:
		return map[string]any{"and": canonicalChildren(c.Children)}
	case Or:
		return map[string]any{"or": canonicalChildren(c.Children)}
	default:
		return map[string]any{"unknown": fmt.Sprintf("%T", clause)}
	}
}

func canonicalChildren(children []*Plan) []any {
	out := make([]any, len(children))
	for i, child := range children {
		out[i] = child.Canonical()
	}
	return out
}

// canonicalValue tags the value with its type so "1" and 1 stay distinct.
func canonicalValue(v ir.IRValue) map[string]any {
	switch val := v.(type) {
	case ir.IRString:
		return map[string]any{"string": string(val)}
	case ir.IRInt:
		return map[string]any{"int": int64(val)}
	case ir.IRBool:
		return map[string]any{"bool": bool(val)}
	case ir.IRArray:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = canonicalValue(item)
		}
		return map[string]any{"array": items}
	default:
		return map[string]any{"null": true}
	}
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// MarshalJSON encodes the plan as canonical JSON.
func (p *Plan) MarshalJSON() ([]byte, error) {
	return ir.MarshalCanonical(p.Canonical())
}

// Fingerprint returns a content hash of the plan. Compiling the same query
// twice yields the same fingerprint.
func (p *Plan) Fingerprint() (string, error) {
	return ir.Fingerprint(ir.DomainPlan, map[string]any{
		"version": ir.PlanVersion,
		"plan":    p.Canonical(),
	})
}

// Walk calls fn for every clause of p and of its nested plans, depth first.
// depth is 0 for p's own clauses.
func (p *Plan) Walk(fn func(c Clause, depth int)) {
	p.walk(fn, 0)
}

func (p *Plan) walk(fn func(c Clause, depth int), depth int) {
	for _, c := range p.Clauses {
		fn(c, depth)
		switch v := c.(type) {
		case And:
			for _, child := range v.Children {
				child.walk(fn, depth+1)
			}
		case Or:
			for _, child := range v.Children {
				child.walk(fn, depth+1)
			}
		}
	}
}

// LimitClause returns the plan's top-level Limit clause, if any.
func (p *Plan) LimitClause() (Limit, bool) {
	for _, c := range p.Clauses {
		if l, ok := c.(Limit); ok {
			return l, true
		}
	}
	return Limit{}, false
}

// WithLimit returns a copy of p with a Limit clause appended. p is not
// modified.
func (p *Plan) WithLimit(count, offset int64) *Plan {
	cp := *p
	cp.Clauses = append(append([]Clause(nil), p.Clauses...), Limit{Count: count, Offset: offset})
	return &cp
}
