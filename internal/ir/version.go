package ir

// Version constants for the plan schema and the compiler.
const (
	// PlanVersion is the query plan schema version. It is mixed into every
	// plan fingerprint so a schema change never collides with older plans.
	PlanVersion = "1"

	// CompilerVersion is the metacat DSL compiler version.
	CompilerVersion = "0.1.0"
)
