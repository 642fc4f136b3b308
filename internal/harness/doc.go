// Package harness runs DSL query-case scenarios.
//
// A scenario is a YAML file naming a trait domain, an optional catalog
// fixture and a list of cases:
//
//	name: precedence
//	traits: [PII]
//	fixture: ../catalog.yaml
//	cases:
//	  - name: and_binds_tighter
//	    query: a = 1 and b = 2 or c = 3
//	    plan: or(and(where(a = 1), where(b = 2)), where(c = 3))
//	  - name: pii
//	    query: PII = true
//	    matches: [orders, customers]
//	  - name: aggregate_in_filter
//	    query: from t where count() and a = 1
//	    error: E203
//
// Each case is compiled exactly as the search service compiles requests.
// Cases with matches are also executed against the fixture. Results can
// be compared against goldie snapshots with RunWithGolden.
package harness
