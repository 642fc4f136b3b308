package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/metacat/internal/ir"
)

// Snapshot is the golden-file form of a scenario result. Fingerprints are
// left out so a snapshot reads as plan text alone.
type Snapshot struct {
	ScenarioName string
	Cases        []CaseResult
}

func (s *Snapshot) toCanonicalMap() map[string]any {
	cases := make([]any, 0, len(s.Cases))
	for _, c := range s.Cases {
		m := map[string]any{
			"name":  c.Name,
			"query": c.Query,
		}
		if c.Plan != "" {
			m["plan"] = c.Plan
		}
		if c.Error != "" {
			m["error"] = c.Error
		}
		if c.Matches != nil {
			m["matches"] = c.Matches
		}
		cases = append(cases, m)
	}
	return map[string]any{
		"scenario": s.ScenarioName,
		"cases":    cases,
	}
}

// MarshalSnapshot renders a result as canonical snapshot JSON, the
// golden file content.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{ScenarioName: scenarioName, Cases: result.Cases}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/<name>.golden. Run the test with -update to rewrite
// the golden file.
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already computed result against the golden
// file for scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
