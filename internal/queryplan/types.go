package queryplan

// Clause is one typed unit of a Plan.
//
// This is a sealed interface - only types in this package implement it.
//
// Clause types:
//   - Where, IsA, Has, HasTerm: filters
//   - Select, OrderBy, GroupBy, Limit: projection, ordering and paging
//   - From, FromAlias: the entity type being queried
//   - And, Or: boolean groups of child plans
type Clause interface {
	clauseNode() // Marker method - seals interface to this package
}

// Where is an attribute comparison.
//
// LHS, Op and RHS keep the source text (Op upper-cased, "IN" for value
// lists, RHS with the list brackets removed). Predicate is the resolved,
// typed form the adapter receives.
//
// Example: `name = "orders"` becomes
//
//	Where{LHS: "name", Op: "=", RHS: `"orders"`,
//	      Predicate: HasPredicate{Property: "name", Operator: OpEq, Value: ir.IRString("orders")}}
type Where struct {
	LHS       string
	Op        string
	RHS       string
	Predicate HasPredicate
}

func (Where) clauseNode() {}

// IsA filters entities carrying a classification: `<typeExpr> isa <trait>`.
type IsA struct {
	TypeExpr  string
	TraitName string
}

func (IsA) clauseNode() {}

// Has filters entities on which an attribute is present:
// `<propertyExpr> has <alias>`.
type Has struct {
	PropertyExpr string
	Alias        string
}

func (Has) clauseNode() {}

// HasTerm filters entities assigned a glossary term:
// `<termExpr> hasTerm <alias>`.
type HasTerm struct {
	TermExpr string
	Alias    string
}

func (HasTerm) clauseNode() {}

// Select projects attributes and aggregates.
type Select struct {
	Spec SelectSpec
}

func (Select) clauseNode() {}

// OrderBy sorts results on one attribute.
type OrderBy struct {
	Attr       string
	Descending bool
}

func (OrderBy) clauseNode() {}

// GroupBy groups results. Expr is the group-by select text.
type GroupBy struct {
	Expr string
}

func (GroupBy) clauseNode() {}

// Limit pages results.
type Limit struct {
	Count  int64
	Offset int64
}

func (Limit) clauseNode() {}

// From names the entity type being queried.
type From struct {
	Source string
}

func (From) clauseNode() {}

// FromAlias names the entity type being queried under an alias.
type FromAlias struct {
	Alias  string
	Source string
}

func (FromAlias) clauseNode() {}

// And requires every child plan to match.
type And struct {
	Children []*Plan
}

func (And) clauseNode() {}

// Or requires at least one child plan to match.
type Or struct {
	Children []*Plan
}

func (Or) clauseNode() {}

// NoIndex marks an absent aggregate slot in a SelectSpec.
const NoIndex = -1

// AggregateKind identifies the aggregate function occupying a select
// position.
type AggregateKind int

const (
	AggNone AggregateKind = iota
	AggCount
	AggSum
	AggMin
	AggMax
)

func (k AggregateKind) String() string {
	switch k {
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	default:
		return "none"
	}
}

// SelectSpec is a resolved projection list. Labels and Expressions are
// parallel; each aggregate index is the select position holding that
// aggregate, or NoIndex.
type SelectSpec struct {
	Labels      []string
	Expressions []string
	CountIdx    int
	SumIdx      int
	MinIdx      int
	MaxIdx      int
}

// NewSelectSpec returns an empty spec with every aggregate slot absent.
func NewSelectSpec() SelectSpec {
	return SelectSpec{CountIdx: NoIndex, SumIdx: NoIndex, MinIdx: NoIndex, MaxIdx: NoIndex}
}

// Len returns the number of select positions.
func (s SelectSpec) Len() int {
	return len(s.Labels)
}

// AggregateAt reports which aggregate occupies position i.
func (s SelectSpec) AggregateAt(i int) AggregateKind {
	switch i {
	case NoIndex:
		return AggNone
	case s.CountIdx:
		return AggCount
	case s.SumIdx:
		return AggSum
	case s.MinIdx:
		return AggMin
	case s.MaxIdx:
		return AggMax
	default:
		return AggNone
	}
}

// HasAggregate reports whether any aggregate slot is occupied.
func (s SelectSpec) HasAggregate() bool {
	return s.CountIdx != NoIndex || s.SumIdx != NoIndex || s.MinIdx != NoIndex || s.MaxIdx != NoIndex
}

// Plan is the compiler's output: an ordered clause list plus the scope
// state recorded while it was built.
//
// TouchedAttributes holds the attribute names referenced in this scope and
// in merged children, sorted. ReferencesTrait is true when any of them is a
// classification (trait) attribute. TraitScope marks the plan produced by
// the trait re-processing pass; adapters evaluate its attribute filters
// against classification attributes instead of entity attributes.
type Plan struct {
	Clauses           []Clause
	HasFrom           bool
	TouchedAttributes []string
	ReferencesTrait   bool
	TraitScope        bool
}
