package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metacat/internal/search"
)

// loadedCatalog returns the path of a database holding the sample catalog.
func loadedCatalog(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "catalog.db")
	out, err := execute(t, "load", "--db", db, catalogFixture)
	require.NoError(t, err)
	require.Contains(t, out, "✓ Loaded 4 entit(ies) from 1 file(s); catalog holds 4")
	return db
}

func TestLoad_JSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")
	out, err := execute(t, "--format", "json", "load", "--db", db, catalogFixture)
	require.NoError(t, err)

	var resp struct {
		Data LoadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 4, resp.Data.Loaded)
	assert.Equal(t, int64(4), resp.Data.Total)
}

func TestLoad_Errors(t *testing.T) {
	_, err := execute(t, "load", "--db", filepath.Join(t.TempDir(), "c.db"), "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "fixture not found")

	_, err = execute(t, "load", catalogFixture)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--db is required")
}

func TestSearch_Entities(t *testing.T) {
	db := loadedCatalog(t)

	out, err := execute(t, "search", "--db", db, `owner = "etl"`)
	require.NoError(t, err)

	assert.Contains(t, out, "GUID")
	assert.Contains(t, out, "00000000-0000-7000-8000-000000000001  hive_table   orders")
	assert.Contains(t, out, "order_events")
	assert.Contains(t, out, "2 result(s)")
}

func TestSearch_Projection(t *testing.T) {
	db := loadedCatalog(t)

	out, err := execute(t, "search", "--db", db, "from hive_table select name, rows orderby name")
	require.NoError(t, err)

	assert.Contains(t, out, "audit_log  9000")
	assert.Contains(t, out, "orders     1200")
	assert.Contains(t, out, "3 result(s)")
}

func TestSearch_ParametersJSON(t *testing.T) {
	db := loadedCatalog(t)

	out, err := execute(t, "--format", "json", "search", "--db", db, "--type", "hive_table", "--classification", "PII")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   search.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "from hive_table where hive_table isa PII", resp.Data.Query)
	assert.Equal(t, 2, resp.Data.Count)
}

func TestSearch_Traits(t *testing.T) {
	db := loadedCatalog(t)

	out, err := execute(t, "--trait", "PII", "search", "--db", db, "PII = true")
	require.NoError(t, err)
	assert.Contains(t, out, "customers")
	assert.Contains(t, out, "2 result(s)")

	out, err = execute(t, "--registry", registryDir, "search", "--db", db, "days = 30")
	require.NoError(t, err)
	assert.Contains(t, out, "1 result(s)")
}

func TestSearch_Errors(t *testing.T) {
	db := loadedCatalog(t)

	_, err := execute(t, "search", "owner = 1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, "search", "--db", db, "owner =")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [parse]")
}
