package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/metacat/internal/ir"
)

// Fixture is a YAML catalog snapshot:
//
//	entities:
//	  - type: hive_table
//	    attributes: {name: orders, owner: etl, rows: 1200}
//	    classifications:
//	      - PII
//	      - name: Retention
//	        attributes: {days: 30}
//	    terms: [sales]
type Fixture struct {
	Entities []FixtureEntity `yaml:"entities"`
}

// FixtureEntity is one entity of a fixture. GUID is optional.
type FixtureEntity struct {
	GUID            string                  `yaml:"guid,omitempty"`
	Type            string                  `yaml:"type"`
	Attributes      map[string]any          `yaml:"attributes,omitempty"`
	Classifications []FixtureClassification `yaml:"classifications,omitempty"`
	Terms           []string                `yaml:"terms,omitempty"`
}

// FixtureClassification is written either as a bare name or as a mapping
// with name and attributes.
type FixtureClassification struct {
	Name       string         `yaml:"name"`
	Attributes map[string]any `yaml:"attributes,omitempty"`
}

// UnmarshalYAML accepts the bare-name shorthand.
func (c *FixtureClassification) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Name = node.Value
		return nil
	}
	type plain FixtureClassification
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = FixtureClassification(p)
	return nil
}

// ParseFixture decodes fixture YAML and converts it to entities. Unknown
// fields are rejected.
func ParseFixture(r io.Reader) ([]ir.Entity, error) {
	var f Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return f.toEntities()
}

// LoadFixtureFile reads a fixture file.
func LoadFixtureFile(path string) ([]ir.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	entities, err := ParseFixture(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entities, nil
}

// LoadFixture stores every entity of a fixture file and returns their GUIDs.
func (s *Store) LoadFixture(ctx context.Context, path string) ([]string, error) {
	entities, err := LoadFixtureFile(path)
	if err != nil {
		return nil, err
	}
	return s.PutEntities(ctx, entities)
}

func (f *Fixture) toEntities() ([]ir.Entity, error) {
	out := make([]ir.Entity, 0, len(f.Entities))
	for i, fe := range f.Entities {
		if fe.Type == "" {
			return nil, fmt.Errorf("entities[%d]: type is required", i)
		}
		attrs, err := toIRObject(fe.Attributes)
		if err != nil {
			return nil, fmt.Errorf("entities[%d].attributes: %w", i, err)
		}

		e := ir.Entity{
			GUID:       fe.GUID,
			TypeName:   fe.Type,
			Attributes: attrs,
			Terms:      append([]string(nil), fe.Terms...),
		}
		for j, fc := range fe.Classifications {
			if fc.Name == "" {
				return nil, fmt.Errorf("entities[%d].classifications[%d]: name is required", i, j)
			}
			cattrs, err := toIRObject(fc.Attributes)
			if err != nil {
				return nil, fmt.Errorf("entities[%d].classifications[%d]: %w", i, j, err)
			}
			e.Classifications = append(e.Classifications, ir.Classification{TypeName: fc.Name, Attributes: cattrs})
		}
		sort.Slice(e.Classifications, func(a, b int) bool {
			return e.Classifications[a].TypeName < e.Classifications[b].TypeName
		})
		sort.Strings(e.Terms)
		out = append(out, e)
	}
	return out, nil
}

func toIRObject(m map[string]any) (ir.IRObject, error) {
	obj := make(ir.IRObject, len(m))
	for k, v := range m {
		irv, err := ir.FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		obj[k] = irv
	}
	return obj, nil
}
