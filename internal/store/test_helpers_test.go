package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/metacat/internal/ir"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEntity creates an entity with a fixed GUID and the given
// string attributes.
func createTestEntity(guid, typeName string, attrs map[string]string) ir.Entity {
	obj := ir.IRObject{}
	for k, v := range attrs {
		obj[k] = ir.IRString(v)
	}
	return ir.Entity{GUID: guid, TypeName: typeName, Attributes: obj}
}
