package compiler

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/metacat/internal/dsl"
	"github.com/roach88/metacat/internal/queryplan"
)

// Compiler turns parse trees into query plans. A Compiler holds only
// configuration; every Compile call builds its own scopes, so one Compiler
// may be shared between goroutines.
type Compiler struct {
	logger  *slog.Logger
	isTrait TraitPredicate
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for debug tracing of the tree walk.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTraitPredicate sets the test deciding which attribute names are
// classification (trait) attributes.
func WithTraitPredicate(p TraitPredicate) Option {
	return func(c *Compiler) {
		if p != nil {
			c.isTrait = p
		}
	}
}

// WithTraitDomain uses d.IsTraitAttribute as the trait predicate.
func WithTraitDomain(d TraitDomain) Option {
	return func(c *Compiler) {
		if d != nil {
			c.isTrait = d.IsTraitAttribute
		}
	}
}

// New returns a Compiler. Without options no attribute is a trait
// attribute and debug output goes to slog.Default().
func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger:  slog.Default(),
		isTrait: NoTraits,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile is shorthand for New(opts...).Compile(root).
func Compile(root dsl.Node, opts ...Option) (*queryplan.Plan, error) {
	return New(opts...).Compile(root)
}

// Compile walks root depth-first and returns the finished plan. root is
// normally a *dsl.Query; a bare expression or clause node is compiled as
// if it were the where-expression of a query without a from-source.
//
// Errors are *CompileError values; nothing is returned alongside them.
func (c *Compiler) Compile(root dsl.Node) (*queryplan.Plan, error) {
	w := &walker{logger: c.logger}
	target := newComposer(c.isTrait)
	if err := w.visit(root, target); err != nil {
		return nil, err
	}
	return target.freeze(), nil
}

// walker carries the per-call state of one Compile.
type walker struct {
	logger *slog.Logger
}

func (w *walker) visit(node dsl.Node, target *composer) error {
	if dsl.IsNil(node) {
		return malformedChain("", 0, "nothing to compile")
	}
	w.logger.Debug("=> visit", "kind", kindOf(node), "text", node.Text())

	switch n := node.(type) {
	case *dsl.Query:
		return w.visitQuery(n, target)
	case *dsl.QuerySource:
		return w.visitSource(n, target)
	case *dsl.FromExpr:
		return w.visitFrom(n, target)
	case *dsl.WhereClause:
		if n.Expr == nil {
			return malformedChain(n.Text(), n.Pos(), "where clause without expression")
		}
		return w.processTopLevel(n.Expr, target)
	case *dsl.Expr, *dsl.Comparison, *dsl.IsClause, *dsl.HasClause, *dsl.HasTermClause,
		*dsl.ParenExpr:
		return w.processTopLevel(n, target)
	case *dsl.SelectExpr:
		return w.visitSelect(n, target)
	case *dsl.GroupByExpr:
		return w.visitGroupBy(n, target)
	case *dsl.OrderByExpr:
		return w.visitOrderBy(n, target)
	case *dsl.LimitOffset:
		return w.visitLimit(n, target)
	default:
		return unsupported(node.Text(), node.Pos(), "%s is not a query construct", kindOf(node))
	}
}

// visitQuery compiles the source first, then the trailing clauses in the
// order they were written.
func (w *walker) visitQuery(q *dsl.Query, target *composer) error {
	if q.Source == nil {
		return malformedChain(q.Text(), q.Pos(), "query without a source")
	}
	if err := w.visitSource(q.Source, target); err != nil {
		return err
	}

	var trailing []dsl.Node
	for _, n := range []dsl.Node{q.GroupBy, q.Select, q.OrderBy, q.Limit} {
		if !dsl.IsNil(n) {
			trailing = append(trailing, n)
		}
	}
	sort.SliceStable(trailing, func(i, j int) bool {
		return trailing[i].Pos() < trailing[j].Pos()
	})
	for _, n := range trailing {
		if err := w.visit(n, target); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) visitSource(src *dsl.QuerySource, target *composer) error {
	if src.From == nil && src.Where == nil && src.Expr == nil {
		return malformedChain(src.Text(), src.Pos(), "empty query source")
	}
	if src.From != nil {
		if err := w.visitFrom(src.From, target); err != nil {
			return err
		}
	}
	if src.Where != nil {
		if err := w.visit(src.Where, target); err != nil {
			return err
		}
	}
	if src.Expr != nil {
		return w.processTopLevel(src.Expr, target)
	}
	return nil
}

func (w *walker) visitFrom(f *dsl.FromExpr, target *composer) error {
	if f.Source == "" {
		return malformedChain(f.Text(), f.Pos(), "from clause without a source")
	}
	if f.Alias != "" {
		target.addFromAlias(f.Alias, f.Source)
		return nil
	}
	target.addFrom(f.Source)
	return nil
}

func (w *walker) visitSelect(sel *dsl.SelectExpr, target *composer) error {
	if len(sel.Items) == 0 {
		return malformedChain(sel.Text(), sel.Pos(), "select without items")
	}
	spec, err := resolveSelect(sel)
	if err != nil {
		return err
	}
	target.add(queryplan.Select{Spec: spec})
	return nil
}

// visitGroupBy only needs the text of its select list; the list is not
// resolved as a projection.
func (w *walker) visitGroupBy(g *dsl.GroupByExpr, target *composer) error {
	if g.Select == nil {
		return malformedChain(g.Text(), g.Pos(), "groupby without a select list")
	}
	target.add(queryplan.GroupBy{Expr: g.Select.Text()})
	return nil
}

var parenStripper = strings.NewReplacer("(", "", ")", "")

func (w *walker) visitOrderBy(o *dsl.OrderByExpr, target *composer) error {
	if o.Expr == nil {
		return malformedChain(o.Text(), o.Pos(), "orderby without an expression")
	}
	target.add(queryplan.OrderBy{
		Attr:       parenStripper.Replace(o.Expr.Text()),
		Descending: strings.EqualFold(o.Order, "desc"),
	})
	return nil
}

func (w *walker) visitLimit(l *dsl.LimitOffset, target *composer) error {
	count, err := strconv.ParseInt(l.Limit, 10, 64)
	if err != nil {
		return malformedChain(l.Text(), l.Pos(), "limit is not an integer")
	}
	var offset int64
	if l.Offset != "" {
		offset, err = strconv.ParseInt(l.Offset, 10, 64)
		if err != nil {
			return malformedChain(l.Text(), l.Pos(), "offset is not an integer")
		}
	}
	target.add(queryplan.Limit{Count: count, Offset: offset})
	return nil
}

func kindOf(n dsl.Node) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "*dsl.")
}
