package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldQuery(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		typeName       string
		classification string
		want           string
	}{
		{
			name:  "no parameters",
			query: `  owner = "etl" or rows > 1 `,
			want:  `owner = "etl" or rows > 1`,
		},
		{
			name:     "type only",
			typeName: "hive_table",
			want:     "from hive_table",
		},
		{
			name:           "type and classification",
			typeName:       "hive_table",
			classification: "PII",
			want:           "from hive_table where hive_table isa PII",
		},
		{
			name:     "type with filter",
			query:    `owner = "etl" or rows > 1`,
			typeName: "hive_table",
			want:     `from hive_table where (owner = "etl" or rows > 1)`,
		},
		{
			name:           "trailing clauses kept",
			query:          `owner = "etl" select name limit 5`,
			typeName:       "hive_table",
			classification: "PII",
			want:           `from hive_table where hive_table isa PII and (owner = "etl") select name limit 5`,
		},
		{
			name:           "classification only",
			query:          `where owner = "etl" or rows > 1`,
			classification: "PII",
			want:           `where __classificationNames = "PII" and (owner = "etl" or rows > 1)`,
		},
		{
			name:           "own from-source kept",
			query:          `from hive_table as t where t.owner = "etl" orderby name`,
			classification: "PII",
			want:           `from hive_table as t where __classificationNames = "PII" and (t.owner = "etl") orderby name`,
		},
		{
			name:           "lone from-source",
			query:          `hive_table`,
			classification: "PII",
			want:           `from hive_table where __classificationNames = "PII"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FoldQuery(tt.query, tt.typeName, tt.classification)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFoldQueryErrors(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		typeName       string
		classification string
		client         bool
	}{
		{"from-source and typeName", `from kafka_topic where owner = "etl"`, "hive_table", "", true},
		{"bad type name", "", "hive table", "", true},
		{"bad classification", "", "hive_table", `PII"`, true},
		{"unparseable query", `owner = `, "hive_table", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FoldQuery(tt.query, tt.typeName, tt.classification)
			require.Error(t, err)
			assert.Equal(t, tt.client, IsClientError(err))
		})
	}
}

func TestIsName(t *testing.T) {
	assert.True(t, isName("hive_table"))
	assert.True(t, isName("db.table2"))
	assert.True(t, isName("_x"))
	assert.False(t, isName(""))
	assert.False(t, isName("2x"))
	assert.False(t, isName("a b"))
	assert.False(t, isName(".a"))
}
