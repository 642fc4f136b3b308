package compiler

import (
	"sort"

	"github.com/roach88/metacat/internal/queryplan"
)

// composer accumulates the clauses of one lexical scope. It is the only
// mutable object in a compile call; freeze turns it into an immutable
// *queryplan.Plan and the composer must not be used afterwards.
type composer struct {
	clauses    []queryplan.Clause
	hasFrom    bool
	touched    map[string]bool
	isTrait    TraitPredicate
	traitScope bool
}

func newComposer(isTrait TraitPredicate) *composer {
	return &composer{
		touched: make(map[string]bool),
		isTrait: isTrait,
	}
}

// nested creates an empty composer for a child scope.
func (c *composer) nested() *composer {
	return newComposer(c.isTrait)
}

func (c *composer) add(clause queryplan.Clause) {
	c.clauses = append(c.clauses, clause)
}

func (c *composer) touch(attr string) {
	if attr != "" {
		c.touched[attr] = true
	}
}

// addTouched unions names into this scope's touched set.
func (c *composer) addTouched(names []string) {
	for _, n := range names {
		c.touch(n)
	}
}

func (c *composer) addFrom(source string) {
	c.add(queryplan.From{Source: source})
	c.hasFrom = true
}

func (c *composer) addFromAlias(alias, source string) {
	c.add(queryplan.FromAlias{Alias: alias, Source: source})
	c.hasFrom = true
}

// addAnd wraps children in one And clause. The children are frozen plans
// owned by the new clause from here on.
func (c *composer) addAnd(children []*queryplan.Plan) {
	c.add(queryplan.And{Children: children})
	c.absorb(children)
}

// addOr wraps children in one Or clause.
func (c *composer) addOr(children []*queryplan.Plan) {
	c.add(queryplan.Or{Children: children})
	c.absorb(children)
}

func (c *composer) absorb(children []*queryplan.Plan) {
	for _, child := range children {
		c.addTouched(child.TouchedAttributes)
	}
}

// merge moves the child's clauses and touched attributes into c. The
// child must not be used afterwards.
func (c *composer) merge(child *composer) {
	c.clauses = append(c.clauses, child.clauses...)
	for attr := range child.touched {
		c.touched[attr] = true
	}
	if child.hasFrom {
		c.hasFrom = true
	}
	child.clauses = nil
}

// referencesTrait reports whether any touched attribute is a trait
// attribute.
func (c *composer) referencesTrait() bool {
	if c.isTrait == nil {
		return false
	}
	for attr := range c.touched {
		if c.isTrait(attr) {
			return true
		}
	}
	return false
}

func (c *composer) touchedSorted() []string {
	out := make([]string, 0, len(c.touched))
	for attr := range c.touched {
		out = append(out, attr)
	}
	sort.Strings(out)
	return out
}

// freeze returns the immutable plan for this scope.
func (c *composer) freeze() *queryplan.Plan {
	clauses := make([]queryplan.Clause, len(c.clauses))
	copy(clauses, c.clauses)
	return &queryplan.Plan{
		Clauses:           clauses,
		HasFrom:           c.hasFrom,
		TouchedAttributes: c.touchedSorted(),
		ReferencesTrait:   c.referencesTrait(),
		TraitScope:        c.traitScope,
	}
}

// wrap freezes a fresh child plan holding a single And/Or over members.
func (c *composer) wrap(op wrapOp, members []*queryplan.Plan) *queryplan.Plan {
	w := c.nested()
	if op == wrapOr {
		w.addOr(members)
	} else {
		w.addAnd(members)
	}
	return w.freeze()
}

type wrapOp int

const (
	wrapAnd wrapOp = iota
	wrapOr
)
