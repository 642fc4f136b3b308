// Package compiler turns a dsl parse tree into a queryplan.Plan.
//
// The compiler is a single depth-first walk. Each lexical scope (the query
// itself, each operand of a boolean chain, each parenthesised group) gets
// its own composer; a finished child scope is either merged into its parent
// clause-by-clause or frozen and attached as one And/Or member. Nothing is
// shared between Compile calls.
//
// BOOLEAN CHAINS:
//
// There is no operator precedence. Operands collect left to right; each
// change of operator wraps everything collected so far into one member
// under the previous operator, and the last operator wraps the rest:
//
//	a = 1 or b = 2 and c = 3  ->  and(or(where(a = 1), where(b = 2)), where(c = 3))
//
// Parenthesised groups are compiled on their own and join the chain as a
// single operand.
//
// A lone operand is inlined without any wrapper.
//
// TRAIT PASS:
//
// When the outermost expression touches a classification (trait)
// attribute, the expression is compiled a second time into a trait-scoped
// child plan appended as an extra And member. Adapters evaluate that child
// against classification attributes. Which names count as trait attributes
// is decided by a TraitPredicate, usually backed by the type registry.
//
// ERRORS:
//
// Compile fails with a *CompileError (E201 malformed chain, E202 malformed
// value list, E203 unsupported construct) naming the offending source text.
// The compiler does no semantic checks; unknown types and attributes are
// left to the registry and the executing backend.
package compiler
