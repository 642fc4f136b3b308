package harness

// CaseResult is what one query case produced.
type CaseResult struct {
	Name  string `json:"name"`
	Query string `json:"query"`

	// Plan is the compiled plan text. Empty when compilation failed.
	Plan        string `json:"plan,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`

	// Error is the error code of a rejected query: a compile error code
	// (E201-E203) or one of the Code* constants.
	Error string `json:"error,omitempty"`

	// Matches holds the names of the matching entities, or the first
	// column of each row for select queries. Nil unless the scenario has
	// a fixture and the case asked for matches.
	Matches []string `json:"matches,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every case met its expectations.
	Pass bool `json:"pass"`

	Cases []CaseResult `json:"cases"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
