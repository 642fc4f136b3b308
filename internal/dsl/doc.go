// Package dsl lexes and parses metacat query text into a typed parse tree.
//
// A query is a source (a type name, a where clause, or a bare boolean
// expression) followed by optional groupby, select, orderby and limit
// clauses:
//
//	hive_table where owner = "etl" and (db.name = "sales" or PII = true) select name orderby name limit 10
//
// The parser keeps boolean chains flat: AND/OR regrouping is the
// compiler's job. Every node remembers its source text with whitespace
// removed, which the compiler uses verbatim for attribute names, labels and
// group/order expressions.
package dsl
