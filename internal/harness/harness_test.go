package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogFixture = "../store/testdata/catalog.yaml"

func TestRun_CompileOnly(t *testing.T) {
	scenario := &Scenario{
		Name: "compile_only",
		Cases: []QueryCase{
			{Name: "or", Query: `a = 1 or b = 2`, Plan: `or(where(a = 1), where(b = 2))`},
			{Name: "limit", Query: `from t limit 10 offset 5`, Plan: `from(t).limit(10, 5)`},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Cases, 2)
	assert.Equal(t, `or(where(a = 1), where(b = 2))`, result.Cases[0].Plan)
	assert.NotEmpty(t, result.Cases[0].Fingerprint)
	assert.Nil(t, result.Cases[0].Matches)
}

func TestRun_ReportsMismatches(t *testing.T) {
	scenario := &Scenario{
		Name:    "mismatch",
		Fixture: catalogFixture,
		Cases: []QueryCase{
			{Name: "wrong_plan", Query: `a = 1`, Plan: `where(a = 2)`},
			{Name: "wrong_matches", Query: `owner = "sec"`, Matches: []string{"orders"}},
			{Name: "missing_error", Query: `a = 1`, Error: "E203"},
			{Name: "unexpected_error", Query: `a =`},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "wrong_plan: plan mismatch")
	assert.Contains(t, result.Errors[1], "wrong_matches: matches mismatch")
	assert.Contains(t, result.Errors[1], "actual:   [audit_log]")
	assert.Contains(t, result.Errors[2], "missing_error: expected error E203, got plan where(a = 1)")
	assert.Contains(t, result.Errors[3], "unexpected_error: unexpected error parse")
}

func TestRun_ErrorCodes(t *testing.T) {
	scenario := &Scenario{
		Name: "codes",
		Cases: []QueryCase{
			{Name: "parse", Query: `owner = `, Error: CodeParse},
			{Name: "unsupported", Query: `from t where count() and a = 1`, Error: "E203"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, CodeParse, result.Cases[0].Error)
	assert.Empty(t, result.Cases[0].Plan)
	assert.Equal(t, "E203", result.Cases[1].Error)
}

func TestRun_TraitsFromRegistry(t *testing.T) {
	scenario := &Scenario{
		Name:     "registry",
		Registry: "../search/testdata/registry",
		Fixture:  catalogFixture,
		Cases: []QueryCase{
			{Name: "level", Query: `level > 1`, Matches: []string{"customers"}},
			{Name: "days", Query: `days = 30 or owner = "sec"`, Matches: []string{"orders", "audit_log"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Contains(t, result.Cases[0].Plan, "trait(")
}

func TestRun_SetupFailures(t *testing.T) {
	t.Run("missing fixture", func(t *testing.T) {
		_, err := Run(&Scenario{
			Name:    "x",
			Fixture: "testdata/nope.yaml",
			Cases:   []QueryCase{{Name: "a", Query: "a = 1"}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load fixture")
	})

	t.Run("missing registry", func(t *testing.T) {
		_, err := Run(&Scenario{
			Name:     "x",
			Registry: "testdata/nope",
			Cases:    []QueryCase{{Name: "a", Query: "a = 1"}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load registry")
	})
}
