// Package queryplan defines the backend-agnostic query plan produced by the
// DSL compiler and the adapter interface it is lowered through.
//
// ARCHITECTURE:
//
//	[DSL text] → [dsl parse tree] → [compiler] → [Plan] → [NativeQuery adapter]
//
// A Plan is an ordered list of typed clauses. Filters, projections,
// ordering, grouping and paging are leaf clauses; And/Or clauses hold child
// Plans, which is how boolean structure is represented. Clause order is the
// source order of the query except where boolean regrouping introduced one
// level of nesting.
//
// SEALED INTERFACES:
//
// Clause is a sealed interface using the marker method pattern. Only types
// in this package implement it, so adapters can switch exhaustively:
//
//	switch c := clause.(type) {
//	case Where:
//	    // attribute filter
//	case And:
//	    // nested plans
//	default:
//	    // impossible
//	}
//
// IMMUTABILITY:
//
// A Plan is built by the compiler's composer and is never mutated once
// returned. Child plans are owned by exactly one And/Or clause.
//
// ADAPTER BOUNDARY:
//
// Plan.Apply projects every clause onto a NativeQuery, the only seam
// between the plan and a concrete backend. Attribute filters cross that
// seam as HasPredicate values, which dispatch themselves with one
// NativeQuery.Has call.
package queryplan
