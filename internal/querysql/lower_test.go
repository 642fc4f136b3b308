package querysql_test

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metacat/internal/compiler"
	"github.com/roach88/metacat/internal/dsl"
	"github.com/roach88/metacat/internal/querysql"
	"github.com/roach88/metacat/internal/store"
)

const catalogFixture = "../store/testdata/catalog.yaml"

func openCatalog(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.LoadFixture(context.Background(), catalogFixture)
	require.NoError(t, err)
	return s
}

func lowerQuery(t *testing.T, src string, traits ...string) querysql.Statement {
	t.Helper()
	q, err := dsl.Parse(src)
	require.NoError(t, err)
	p, err := compiler.Compile(q, compiler.WithTraitPredicate(compiler.TraitSet(traits...)))
	require.NoError(t, err)
	st, err := querysql.Lower(p, querysql.WithTraitPredicate(compiler.TraitSet(traits...)))
	require.NoError(t, err)
	return st
}

// matchIDs runs a plain query and returns the last digit of every GUID.
func matchIDs(t *testing.T, s *store.Store, src string, traits ...string) []string {
	t.Helper()
	st := lowerQuery(t, src, traits...)
	rows, err := s.Query(context.Background(), st.SQL, st.Params...)
	require.NoError(t, err)
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var guid string
		require.NoError(t, rows.Scan(&guid))
		ids = append(ids, guid[len(guid)-1:])
	}
	require.NoError(t, rows.Err())
	return ids
}

func TestExecute_Filters(t *testing.T) {
	s := openCatalog(t)

	tests := []struct {
		query  string
		traits []string
		want   []string
	}{
		{`from hive_table where owner = "etl"`, nil, []string{"1"}},
		{`rows > 100`, nil, []string{"1", "4"}},
		{`owner = "etl" or owner = "sec"`, nil, []string{"1", "3", "4"}},
		{`owner = "etl" and rows > 100 or owner = "crm"`, nil, []string{"1", "2"}},
		{`name like "ord*"`, nil, []string{"1", "3"}},
		{`name like "*_log"`, nil, []string{"4"}},
		{`name = ["orders", "audit_log"]`, nil, []string{"1", "4"}},
		{`partitioned = true`, nil, []string{"1"}},
		{`hive_table isa PII`, nil, []string{"1", "2"}},
		{`where kafka_topic hasTerm "sales"`, nil, []string{"3"}},
		{`hive_table has partitioned`, nil, []string{"1", "2"}},
		{`from kafka_topic where owner = "etl"`, nil, []string{"3"}},
		{`owner = "nobody"`, nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, matchIDs(t, s, tt.query, tt.traits...))
		})
	}
}

func TestExecute_TraitFilters(t *testing.T) {
	s := openCatalog(t)

	tests := []struct {
		query  string
		traits []string
		want   []string
	}{
		{`PII = true`, []string{"PII"}, []string{"1", "2"}},
		{`PII = false`, []string{"PII"}, []string{"3", "4"}},
		{`level > 1`, []string{"level"}, []string{"2"}},
		{`days = 30`, []string{"days"}, []string{"1"}},
		{`owner = "etl" and PII = true`, []string{"PII"}, []string{"1"}},
		{`owner = "sec" or PII = true`, []string{"PII"}, []string{"1", "2", "4"}},
		{`owner = "etl" and (rows > 5000 or PII = true)`, []string{"PII"}, []string{"1"}},
		{`from hive_table where PII = false`, []string{"PII"}, []string{"4"}},
		{`__traitNames = "Retention"`, []string{"__traitNames"}, []string{"1"}},
		{`__classificationNames = ["PII", "Retention"]`, nil, []string{"1", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, matchIDs(t, s, tt.query, tt.traits...))
		})
	}
}

func TestExecute_OrderingAndPaging(t *testing.T) {
	s := openCatalog(t)

	assert.Equal(t, []string{"4", "1", "2"}, matchIDs(t, s, `from hive_table orderby rows desc`))
	assert.Equal(t, []string{"2", "1", "4"}, matchIDs(t, s, `from hive_table orderby rows`))
	assert.Equal(t, []string{"1"}, matchIDs(t, s, `from hive_table orderby rows limit 1 offset 1`))
}

func TestExecute_Projection(t *testing.T) {
	s := openCatalog(t)

	st := lowerQuery(t, `from hive_table select name, rows as size orderby name`)
	assert.True(t, st.Projection)
	assert.Equal(t, []string{"name", "size"}, st.Columns)

	rows, err := s.Query(context.Background(), st.SQL, st.Params...)
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	for rows.Next() {
		var (
			name string
			size int64
		)
		require.NoError(t, rows.Scan(&name, &size))
		got = append(got, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"audit_log", "customers", "orders"}, got)
}

func TestExecute_GroupedAggregates(t *testing.T) {
	s := openCatalog(t)

	st := lowerQuery(t, `where rows > 0 groupby(owner) select owner, count(), sum(rows) as total`)
	assert.Equal(t, []string{"owner", "count", "total"}, st.Columns)

	rows, err := s.Query(context.Background(), st.SQL, st.Params...)
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	for rows.Next() {
		var (
			owner        string
			count, total int64
		)
		require.NoError(t, rows.Scan(&owner, &count, &total))
		got = append(got, strings.Join([]string{owner, strconv.FormatInt(count, 10), strconv.FormatInt(total, 10)}, ":"))
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"crm:1:50", "etl:1:1200", "sec:1:9000"}, got)
}

func TestExecute_CountWithoutGroup(t *testing.T) {
	s := openCatalog(t)

	st := lowerQuery(t, `owner = "etl" select count()`)
	var n int64
	require.NoError(t, s.DB().QueryRow(st.SQL, st.Params...).Scan(&n))
	assert.Equal(t, int64(2), n)
}
