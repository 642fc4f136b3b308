// Package querysql lowers query plans to SQLite statements over the
// catalog schema of package store.
//
// Builder implements queryplan.NativeQuery: Plan.Apply feeds it one clause
// at a time, And/Or children are applied to nested builders, and Build
// assembles the final statement. Lower does both steps.
//
// # Attribute Filters
//
// Entity attributes are matched with correlated EXISTS subqueries on
// entity_attributes. Names the trait predicate accepts are matched against
// classification_attributes, and a trait name compared with a boolean
// tests whether the classification is attached.
//
// # Deterministic Results
//
//   - Plain queries always end with ORDER BY e.guid ASC COLLATE BINARY
//   - Grouped queries order by the group keys
//   - Values are bound as parameters, never interpolated
package querysql
