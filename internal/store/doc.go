// Package store provides the SQLite-backed metadata catalog that search
// queries run against.
//
// Entities are stored entity-attribute-value style:
//   - entities: GUID, type name, content hash, load sequence
//   - entity_attributes: one row per attribute value
//   - entity_classifications / classification_attributes: attached traits
//   - term_assignments: glossary terms
//
// # Deterministic Results
//
// Every read orders its rows explicitly (by name or term with COLLATE
// BINARY), so identical catalogs produce identical results regardless of
// insertion order. Entity GUIDs are UUIDv7; content hashes come from
// ir.EntityContentHash.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity (cascading deletes)
//
// Fixtures are YAML files decoded with strict field checking; see Fixture.
package store
