package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/metacat/internal/ir"
	"github.com/roach88/metacat/internal/queryplan"
	"github.com/roach88/metacat/internal/registry"
)

// Builder is the SQLite NativeQuery. Plan.Apply feeds it one clause at a
// time; Build assembles the statement.
//
// CRITICAL: ALL statements include ORDER BY for deterministic results.
// CRITICAL: All values are parameterized (never interpolated).
type Builder struct {
	isTrait     func(string) bool
	traitScope  bool
	deferTraits bool
	nested      bool

	alias string
	conds []fragment
	spec  *queryplan.SelectSpec
	group []string
	order *orderKey
	limit *queryplan.Limit
}

// fragment is a piece of SQL with the parameters its placeholders take,
// in order.
type fragment struct {
	sql    string
	params []any
}

type orderKey struct {
	attr string
	desc bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithTraitPredicate sets the test deciding which attribute names live on
// classifications rather than on entities.
func WithTraitPredicate(p func(string) bool) Option {
	return func(b *Builder) {
		if p != nil {
			b.isTrait = p
		}
	}
}

// NewBuilder returns an empty builder over the entities table.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{isTrait: func(string) bool { return false }}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// child returns a builder for a nested And/Or member plan.
func (b *Builder) child(p *queryplan.Plan) *Builder {
	return &Builder{
		isTrait:     b.isTrait,
		traitScope:  b.traitScope || p.TraitScope,
		deferTraits: b.deferTraits,
		nested:      true,
		alias:       b.alias,
	}
}

var _ queryplan.NativeQuery = (*Builder)(nil)

// And adds one condition requiring every child plan to match.
func (b *Builder) And(children []*queryplan.Plan) error {
	return b.addGroup(children, " AND ")
}

// Or adds one condition requiring at least one child plan to match.
func (b *Builder) Or(children []*queryplan.Plan) error {
	return b.addGroup(children, " OR ")
}

func (b *Builder) addGroup(children []*queryplan.Plan, sep string) error {
	if len(children) == 0 {
		return fmt.Errorf("empty boolean group")
	}
	parts := make([]string, 0, len(children))
	var params []any
	for i, child := range children {
		cb := b.child(child)
		if err := child.Apply(cb); err != nil {
			return fmt.Errorf("child %d: %w", i, err)
		}
		f := cb.where()
		parts = append(parts, "("+f.sql+")")
		params = append(params, f.params...)
	}
	b.conds = append(b.conds, fragment{sql: "(" + strings.Join(parts, sep) + ")", params: params})
	return nil
}

// Has adds an attribute predicate.
func (b *Builder) Has(property string, op queryplan.Operator, value ir.IRValue) error {
	name := b.attrName(property)
	if name == registry.AttrTraitNames || name == registry.AttrClassificationNames {
		f, err := classificationNameCondition(op, value)
		if err != nil {
			return fmt.Errorf("has %s: %w", property, err)
		}
		b.conds = append(b.conds, f)
		return nil
	}
	if b.isTrait(name) {
		if !b.traitScope && b.deferTraits {
			// Decided by the trait-scope branch of the same plan.
			b.conds = append(b.conds, fragment{sql: "1 = 1"})
			return nil
		}
		f, err := traitCondition(name, op, value)
		if err != nil {
			return fmt.Errorf("has %s: %w", property, err)
		}
		b.conds = append(b.conds, f)
		return nil
	}

	f, err := attributeCondition("entity_attributes", name, op, value)
	if err != nil {
		return fmt.Errorf("has %s: %w", property, err)
	}
	b.conds = append(b.conds, f)
	return nil
}

// IsA requires the entity to carry the classification.
func (b *Builder) IsA(typeExpr, traitName string) error {
	b.conds = append(b.conds, classificationExists(traitName))
	return nil
}

// HasTerm requires the entity to be assigned the glossary term.
func (b *Builder) HasTerm(termExpr, alias string) error {
	b.conds = append(b.conds, fragment{
		sql:    "EXISTS (SELECT 1 FROM term_assignments t WHERE t.guid = e.guid AND t.term = ?)",
		params: []any{alias},
	})
	return nil
}

// Select projects the result. Only allowed at the top level.
func (b *Builder) Select(spec queryplan.SelectSpec) error {
	if b.nested {
		return fmt.Errorf("select inside a boolean group")
	}
	if b.spec != nil {
		return fmt.Errorf("duplicate select")
	}
	if len(spec.Labels) != len(spec.Expressions) {
		return fmt.Errorf("select has %d labels for %d expressions", len(spec.Labels), len(spec.Expressions))
	}
	s := spec
	b.spec = &s
	return nil
}

// OrderBy sorts on one attribute. Only allowed at the top level.
func (b *Builder) OrderBy(attr string, desc bool) error {
	if b.nested {
		return fmt.Errorf("orderby inside a boolean group")
	}
	b.order = &orderKey{attr: attr, desc: desc}
	return nil
}

// GroupBy groups on the comma-separated attributes of expr.
func (b *Builder) GroupBy(expr string) error {
	if b.nested {
		return fmt.Errorf("groupby inside a boolean group")
	}
	for _, attr := range strings.Split(expr, ",") {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			return fmt.Errorf("empty groupby attribute in %q", expr)
		}
		b.group = append(b.group, attr)
	}
	return nil
}

// Limit pages the result. Only allowed at the top level.
func (b *Builder) Limit(count, offset int64) error {
	if b.nested {
		return fmt.Errorf("limit inside a boolean group")
	}
	if count < 0 || offset < 0 {
		return fmt.Errorf("limit %d offset %d: must not be negative", count, offset)
	}
	b.limit = &queryplan.Limit{Count: count, Offset: offset}
	return nil
}

// From restricts the entity type.
func (b *Builder) From(source string) error {
	b.conds = append(b.conds, fragment{sql: "e.type_name = ?", params: []any{source}})
	return nil
}

// FromAlias restricts the entity type and lets attributes be written as
// alias.name.
func (b *Builder) FromAlias(alias, source string) error {
	b.alias = alias
	return b.From(source)
}

// attrName strips the from-alias qualifier from an attribute name.
func (b *Builder) attrName(name string) string {
	if b.alias != "" && strings.HasPrefix(name, b.alias+".") {
		return strings.TrimPrefix(name, b.alias+".")
	}
	return name
}

// where joins the accumulated conditions.
func (b *Builder) where() fragment {
	if len(b.conds) == 0 {
		return fragment{sql: "1 = 1"}
	}
	parts := make([]string, len(b.conds))
	var params []any
	for i, c := range b.conds {
		parts[i] = c.sql
		params = append(params, c.params...)
	}
	return fragment{sql: strings.Join(parts, " AND "), params: params}
}
