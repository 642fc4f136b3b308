package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metacat/internal/ir"
)

func TestParseFixture(t *testing.T) {
	src := `
entities:
  - type: hive_table
    attributes: {name: orders, rows: 12, live: true}
    classifications:
      - Retention
      - name: PII
        attributes: {level: 2}
    terms: [sales, events]
`
	entities, err := ParseFixture(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, entities, 1)

	e := entities[0]
	assert.Equal(t, "", e.GUID)
	assert.Equal(t, "hive_table", e.TypeName)
	assert.Equal(t, ir.IRObject{"name": ir.IRString("orders"), "rows": ir.IRInt(12), "live": ir.IRBool(true)}, e.Attributes)
	assert.Equal(t, []ir.Classification{
		{TypeName: "PII", Attributes: ir.IRObject{"level": ir.IRInt(2)}},
		{TypeName: "Retention", Attributes: ir.IRObject{}},
	}, e.Classifications)
	assert.Equal(t, []string{"events", "sales"}, e.Terms)
}

func TestParseFixtureErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown field", "entities:\n  - type: t\n    atributes: {}\n", "atributes"},
		{"missing type", "entities:\n  - attributes: {a: 1}\n", "type is required"},
		{"float attribute", "entities:\n  - type: t\n    attributes: {a: 1.5}\n", "floats are forbidden"},
		{"classification without name", "entities:\n  - type: t\n    classifications:\n      - attributes: {a: 1}\n", "name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFixture(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	guids, err := s.LoadFixture(ctx, "testdata/catalog.yaml")
	require.NoError(t, err)
	assert.Len(t, guids, 4)

	n, err := s.CountEntities(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	e, err := s.GetEntity(ctx, "00000000-0000-7000-8000-000000000003")
	require.NoError(t, err)
	assert.Equal(t, "kafka_topic", e.TypeName)
	assert.Equal(t, ir.IRArray{ir.IRString("stream"), ir.IRString("orders")}, e.Attributes["tags"])
	assert.Equal(t, []string{"events", "sales"}, e.Terms)
	assert.Nil(t, e.Classifications)

	_, err = s.LoadFixture(ctx, "testdata/missing.yaml")
	assert.Error(t, err)
}
