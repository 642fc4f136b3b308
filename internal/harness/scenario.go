package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/metacat/internal/search"
)

// Scenario is a named batch of DSL query cases sharing one trait domain
// and, optionally, one catalog fixture.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Traits lists attribute names treated as trait attributes.
	Traits []string `yaml:"traits,omitempty"`

	// Registry is a directory of CUE type definitions whose
	// classification attributes join the trait domain.
	Registry string `yaml:"registry,omitempty"`

	// Fixture is a catalog YAML file loaded into an in-memory store.
	// Required by cases that declare matches.
	Fixture string `yaml:"fixture,omitempty"`

	Cases []QueryCase `yaml:"cases"`
}

// QueryCase is one query and what it must produce. A case expects either
// an error code or success; on success Plan and Matches are checked when
// set.
type QueryCase struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`

	// Plan is the expected plan text.
	Plan string `yaml:"plan,omitempty"`

	// Error is the expected error code: E201-E203, "parse",
	// "invalid_request" or "invalid_plan".
	Error string `yaml:"error,omitempty"`

	// Matches lists the expected entity names in result order. An empty
	// list expects no results; omit the key to skip execution.
	Matches []string `yaml:"matches,omitempty"`
}

// Error codes for rejections that carry no compile error code.
const (
	CodeParse          = search.CodeParse
	CodeInvalidRequest = search.CodeInvalidRequest
	CodeInvalidPlan    = search.CodeInvalidPlan
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Registry and fixture paths are resolved relative to the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	scenario.Registry = resolvePath(base, scenario.Registry)
	scenario.Fixture = resolvePath(base, scenario.Fixture)
	return scenario, nil
}

// ParseScenario parses and validates scenario YAML. Paths are left as
// written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "matchs:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i := range s.Cases {
		c := &s.Cases[i]
		if err := validateCase(i, c, s.Fixture != ""); err != nil {
			return err
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

func validateCase(index int, c *QueryCase, hasFixture bool) error {
	if c.Name == "" {
		return fmt.Errorf("cases[%d]: name is required", index)
	}
	if c.Query == "" {
		return fmt.Errorf("cases[%d] (%s): query is required", index, c.Name)
	}
	if c.Error != "" && (c.Plan != "" || c.Matches != nil) {
		return fmt.Errorf("cases[%d] (%s): error cannot be combined with plan or matches", index, c.Name)
	}
	if c.Matches != nil && !hasFixture {
		return fmt.Errorf("cases[%d] (%s): matches requires a fixture", index, c.Name)
	}
	return nil
}
