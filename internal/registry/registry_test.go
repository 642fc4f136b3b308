package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metacat/internal/ir"
)

const catalogCUE = `
entity: DataSet: attributes: {
	name:  string
	owner: string
}

entity: hive_table: {
	superTypes: ["DataSet"]
	attributes: {
		rows:    int
		columns: [...string]
		managed: bool
	}
}

classification: PII: attributes: {
	level: int
}

classification: Finance: {}
`

func TestLoadString(t *testing.T) {
	reg, err := LoadString(catalogCUE)
	require.NoError(t, err)

	assert.Equal(t, []string{"DataSet", "hive_table"}, reg.EntityTypes())
	assert.Equal(t, []string{"Finance", "PII"}, reg.Classifications())

	def, ok := reg.EntityType("hive_table")
	require.True(t, ok)
	assert.Equal(t, []string{"DataSet"}, def.SuperTypes)
	assert.Equal(t, map[string]ir.AttributeType{
		"rows":    ir.TypeInt,
		"columns": ir.TypeArray,
		"managed": ir.TypeBool,
	}, def.Attributes)

	pii, ok := reg.Classification("PII")
	require.True(t, ok)
	assert.Equal(t, ir.TypeInt, pii.Attributes["level"])
}

func TestTraitAttributeDomain(t *testing.T) {
	reg, err := LoadString(catalogCUE)
	require.NoError(t, err)

	assert.True(t, reg.IsTraitAttribute("PII"))
	assert.True(t, reg.IsTraitAttribute("Finance"))
	assert.True(t, reg.IsTraitAttribute("level"))
	assert.True(t, reg.IsTraitAttribute(AttrTraitNames))
	assert.True(t, reg.IsTraitAttribute(AttrClassificationNames))
	assert.False(t, reg.IsTraitAttribute("owner"))
	assert.False(t, reg.IsTraitAttribute("rows"))

	assert.Equal(t, []string{"Finance", "PII", AttrClassificationNames, AttrTraitNames, "level"}, reg.TraitAttributes())
}

func TestAddTraitAttribute(t *testing.T) {
	reg := New()
	assert.False(t, reg.IsTraitAttribute("retention"))
	reg.AddTraitAttribute("retention")
	assert.True(t, reg.IsTraitAttribute("retention"))
}

func TestIsSubtypeOf(t *testing.T) {
	reg, err := LoadString(catalogCUE)
	require.NoError(t, err)

	assert.True(t, reg.IsSubtypeOf("hive_table", "DataSet"))
	assert.True(t, reg.IsSubtypeOf("hive_table", "hive_table"))
	assert.False(t, reg.IsSubtypeOf("DataSet", "hive_table"))
	assert.False(t, reg.IsSubtypeOf("unknown", "DataSet"))
}

func TestIsSubtypeOfCycle(t *testing.T) {
	reg := New()
	require.NoError(t, reg.AddEntity(ir.EntityTypeDef{Name: "a", SuperTypes: []string{"b"}}))
	require.NoError(t, reg.AddEntity(ir.EntityTypeDef{Name: "b", SuperTypes: []string{"a"}}))
	assert.False(t, reg.IsSubtypeOf("a", "c"))
}

func TestLoadStringRejectsFloat(t *testing.T) {
	_, err := LoadString(`classification: Quality: attributes: score: float`)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeInvalidType, loadErr.Code)
	assert.Contains(t, loadErr.Message, "float")
}

func TestLoadStringRejectsNumber(t *testing.T) {
	_, err := LoadString(`entity: t: attributes: size: number`)
	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeInvalidType, loadErr.Code)
}

func TestLoadStringSyntaxError(t *testing.T) {
	_, err := LoadString(`entity: {`)
	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeBuildFailed, loadErr.Code)
}

func TestAddDuplicate(t *testing.T) {
	reg := New()
	require.NoError(t, reg.AddClassification(ir.ClassificationDef{Name: "PII"}))
	err := reg.AddClassification(ir.ClassificationDef{Name: "PII"})

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeDuplicateName, loadErr.Code)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.cue"), []byte("package catalog\n"+catalogCUE), 0o644))

	reg, err := LoadDir(dir)
	require.NoError(t, err)
	assert.True(t, reg.IsTraitAttribute("level"))
}

func TestLoadDirErrors(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)

	_, err = LoadDir(t.TempDir())
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

func TestLoadErrorString(t *testing.T) {
	err := &LoadError{Code: ErrCodeGeneric, Message: "boom"}
	assert.Equal(t, "E001: boom", err.Error())
}
