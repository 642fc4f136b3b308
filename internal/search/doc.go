// Package search runs DSL searches against the catalog store.
//
// A search folds the request's typeName and classification parameters
// into the query text, parses and compiles it, validates the plan, applies
// the request's paging, lowers the plan to SQL and executes it. Plain
// queries return full entities; queries with a select clause return rows.
//
// Errors caused by the request (parse and compile errors, bad parameters)
// satisfy IsClientError; everything else is a catalog failure.
package search
