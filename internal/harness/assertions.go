package harness

import (
	"fmt"
	"slices"
	"strings"
)

// checkCase compares one case's outcome against its expectations and
// returns a message per mismatch.
func checkCase(want QueryCase, got CaseResult) []string {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("%s: ", want.Name)+fmt.Sprintf(format, args...))
	}

	if want.Error != "" {
		if got.Error != want.Error {
			fail("expected error %s, got %s", want.Error, describe(got))
		}
		return errs
	}
	if got.Error != "" {
		fail("unexpected error %s for query %q", got.Error, want.Query)
		return errs
	}

	if want.Plan != "" && got.Plan != want.Plan {
		fail("plan mismatch\n  expected: %s\n  actual:   %s", want.Plan, got.Plan)
	}
	if want.Matches != nil && !slices.Equal(want.Matches, got.Matches) {
		fail("matches mismatch\n  expected: [%s]\n  actual:   [%s]",
			strings.Join(want.Matches, ", "), strings.Join(got.Matches, ", "))
	}
	return errs
}

func describe(got CaseResult) string {
	if got.Error != "" {
		return got.Error
	}
	return "plan " + got.Plan
}
