package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metacat/internal/compiler"
	"github.com/roach88/metacat/internal/ir"
	"github.com/roach88/metacat/internal/registry"
	"github.com/roach88/metacat/internal/store"
)

const catalogFixture = "../store/testdata/catalog.yaml"

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newCatalogService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.LoadFixture(context.Background(), catalogFixture)
	require.NoError(t, err)
	return New(st, append([]Option{WithLogger(quietLogger)}, opts...)...)
}

func entityNames(entities []ir.Entity) []string {
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, string(e.Attributes["name"].(ir.IRString)))
	}
	return names
}

func TestSearch_ReturnsEntities(t *testing.T) {
	svc := newCatalogService(t)

	res, err := svc.Search(context.Background(), Request{Query: `owner = "etl"`})
	require.NoError(t, err)

	assert.Equal(t, `owner = "etl"`, res.Query)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []string{"orders", "order_events"}, entityNames(res.Entities))
	assert.Equal(t, "hive_table", res.Entities[0].TypeName)
	assert.True(t, res.Entities[0].HasClassification("PII"))
	assert.Equal(t, []string{"sales"}, res.Entities[0].Terms)
	assert.Empty(t, res.Columns)
	assert.NotEmpty(t, res.Fingerprint)
	assert.Contains(t, res.Plan, "limit(100, 0)")
}

func TestSearch_FoldsParameters(t *testing.T) {
	svc := newCatalogService(t)

	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{"type", Request{TypeName: "hive_table"}, []string{"orders", "customers", "audit_log"}},
		{"type and classification", Request{TypeName: "hive_table", Classification: "PII"}, []string{"orders", "customers"}},
		{"classification", Request{Classification: "Retention"}, []string{"orders"}},
		{"type and query", Request{Query: `owner = "etl"`, TypeName: "kafka_topic"}, []string{"order_events"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Search(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, entityNames(res.Entities))
		})
	}
}

func TestSearch_Paging(t *testing.T) {
	t.Run("request limit and offset", func(t *testing.T) {
		svc := newCatalogService(t)
		res, err := svc.Search(context.Background(), Request{Query: "from hive_table", Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"customers"}, entityNames(res.Entities))
	})

	t.Run("query limit wins", func(t *testing.T) {
		svc := newCatalogService(t)
		res, err := svc.Search(context.Background(), Request{Query: "from hive_table limit 1", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"orders"}, entityNames(res.Entities))
	})

	t.Run("default limit", func(t *testing.T) {
		svc := newCatalogService(t, WithDefaultLimit(2))
		res, err := svc.Search(context.Background(), Request{Query: "from hive_table"})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Count)
	})

	t.Run("unlimited", func(t *testing.T) {
		svc := newCatalogService(t, WithDefaultLimit(0))
		res, err := svc.Search(context.Background(), Request{Query: "from hive_table"})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Count)
		assert.NotContains(t, res.Plan, "limit")
	})

	t.Run("offset without any limit", func(t *testing.T) {
		svc := newCatalogService(t, WithDefaultLimit(0))
		_, err := svc.Search(context.Background(), Request{Query: "from hive_table", Offset: 2})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.Equal(t, CodeInvalidRequest, ErrorCode(err))
	})

	t.Run("offset with default limit", func(t *testing.T) {
		svc := newCatalogService(t, WithDefaultLimit(10))
		res, err := svc.Search(context.Background(), Request{Query: "from hive_table", Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Count)
		assert.Contains(t, res.Plan, "limit(10, 2)")
	})
}

func TestSearch_Projection(t *testing.T) {
	svc := newCatalogService(t)

	res, err := svc.Search(context.Background(), Request{Query: "from hive_table select name, rows orderby name"})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "rows"}, res.Columns)
	assert.Equal(t, [][]any{
		{"audit_log", int64(9000)},
		{"customers", int64(50)},
		{"orders", int64(1200)},
	}, res.Rows)
	assert.Nil(t, res.Entities)
	assert.Equal(t, 3, res.Count)
}

func TestSearch_Aggregate(t *testing.T) {
	svc := newCatalogService(t)

	res, err := svc.Search(context.Background(), Request{Query: `owner = "etl" select count()`})
	require.NoError(t, err)
	assert.Equal(t, []string{"count"}, res.Columns)
	assert.Equal(t, [][]any{{int64(2)}}, res.Rows)
}

func TestSearch_TraitDomainFromRegistry(t *testing.T) {
	reg, err := registry.LoadDir("testdata/registry")
	require.NoError(t, err)
	svc := newCatalogService(t, WithTraitDomain(reg))

	tests := []struct {
		query string
		want  []string
	}{
		{`level > 1`, []string{"customers"}},
		{`PII = true and owner = "etl"`, []string{"orders"}},
		{`days = 30 or owner = "sec"`, []string{"orders", "audit_log"}},
		{`from hive_table where PII = false`, []string{"audit_log"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := svc.Search(context.Background(), Request{Query: tt.query})
			require.NoError(t, err)
			assert.Equal(t, tt.want, entityNames(res.Entities))
			assert.Contains(t, res.Plan, "trait(")
		})
	}
}

func TestSearch_TraitSet(t *testing.T) {
	svc := newCatalogService(t, WithTraitPredicate(compiler.TraitSet("PII")))

	res, err := svc.Search(context.Background(), Request{Query: `PII = true`})
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "customers"}, entityNames(res.Entities))
}

func TestSearch_ClientErrors(t *testing.T) {
	svc := newCatalogService(t)

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"parse error", Request{Query: `owner = `}, nil},
		{"compile error", Request{Query: `from t where count() and a = 1`}, compiler.ErrUnsupportedConstruct},
		{"empty", Request{Query: "  "}, ErrInvalidRequest},
		{"negative limit", Request{Query: "from t", Limit: -1}, ErrInvalidRequest},
		{"too long", Request{Query: strings.Repeat("a", 5000)}, ErrInvalidRequest},
		{"from conflict", Request{Query: "from t", TypeName: "hive_table"}, ErrInvalidRequest},
		{"malformed list", Request{Query: `type = ["a", "b"`}, compiler.ErrMalformedListLiteral},
		{"empty list", Request{Query: `type = []`}, compiler.ErrMalformedListLiteral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, IsClientError(err), "want client error, got %v", err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestSearch_StoreErrors(t *testing.T) {
	newMockService := func(t *testing.T) (*Service, sqlmock.Sqlmock) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return New(store.New(db), WithLogger(quietLogger)), mock
	}

	t.Run("query fails", func(t *testing.T) {
		svc, mock := newMockService(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT e.guid FROM entities e WHERE")).
			WillReturnError(errors.New("disk I/O error"))

		_, err := svc.Search(context.Background(), Request{Query: `owner = "etl"`})
		require.Error(t, err)
		assert.False(t, IsClientError(err))
		assert.Contains(t, err.Error(), "disk I/O error")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("scan fails", func(t *testing.T) {
		svc, mock := newMockService(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT e.guid FROM entities e WHERE")).
			WillReturnRows(sqlmock.NewRows([]string{"guid"}).
				AddRow("g1").
				RowError(0, errors.New("row corrupted")))

		_, err := svc.Search(context.Background(), Request{Query: `owner = "etl"`})
		require.Error(t, err)
		assert.False(t, IsClientError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("entity load fails", func(t *testing.T) {
		svc, mock := newMockService(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT e.guid FROM entities e WHERE")).
			WillReturnRows(sqlmock.NewRows([]string{"guid"}).AddRow("g1"))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT guid, type_name FROM entities WHERE guid = ?")).
			WithArgs("g1").
			WillReturnError(errors.New("connection reset"))

		_, err := svc.Search(context.Background(), Request{Query: `owner = "etl"`})
		require.Error(t, err)
		assert.False(t, IsClientError(err))
		assert.Contains(t, err.Error(), "get entity g1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("projection query fails", func(t *testing.T) {
		svc, mock := newMockService(t)
		mock.ExpectQuery(regexp.QuoteMeta(`AS "name" FROM entities e`)).
			WillReturnError(errors.New("database is locked"))

		_, err := svc.Search(context.Background(), Request{Query: `from t select name`})
		require.Error(t, err)
		assert.False(t, IsClientError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestService_CompileAppliesPaging(t *testing.T) {
	svc := New(nil, WithLogger(quietLogger))

	text, plan, err := svc.Compile(Request{Query: `owner = "etl"`, Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, `owner = "etl"`, text)
	assert.Equal(t, `where(owner = "etl").limit(5, 10)`, plan.String())
}

func TestErrorCode(t *testing.T) {
	svc := New(nil, WithLogger(quietLogger))

	tests := []struct {
		req  Request
		want string
	}{
		{Request{Query: `owner = `}, CodeParse},
		{Request{Query: `from t where count() and a = 1`}, compiler.ErrCodeUnsupportedConstruct},
		{Request{Query: `from t`, Offset: -1}, CodeInvalidRequest},
		{Request{TypeName: "a b"}, CodeInvalidRequest},
	}
	for _, tt := range tests {
		_, _, err := svc.Compile(tt.req)
		require.Error(t, err)
		assert.Equal(t, tt.want, ErrorCode(err), "%+v", tt.req)
	}

	assert.Equal(t, CodeInvalidPlan, ErrorCode(fmt.Errorf("%w: empty and group", ErrInvalidPlan)))
	assert.Empty(t, ErrorCode(errors.New("disk I/O error")))
}
