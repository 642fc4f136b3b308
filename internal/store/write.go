package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/metacat/internal/ir"
)

// NewGUID generates a new entity GUID using UUIDv7.
// UUIDv7 is time-sortable, so GUIDs of entities loaded later sort later.
func NewGUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// PutEntity inserts or replaces an entity and returns its GUID. An entity
// without a GUID is assigned a new one. Replacing keeps the entity's
// original sequence number and rewrites its attributes, classifications
// and terms. Null attribute values are not stored.
func (s *Store) PutEntity(ctx context.Context, e ir.Entity) (string, error) {
	if e.TypeName == "" {
		return "", fmt.Errorf("put entity: type name is required")
	}
	if e.GUID == "" {
		e.GUID = NewGUID()
	}

	hash, err := ir.EntityContentHash(e)
	if err != nil {
		return "", fmt.Errorf("put entity %s: %w", e.GUID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("put entity: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entities (guid, type_name, content_hash, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM entities))
		ON CONFLICT(guid) DO UPDATE SET
			type_name = excluded.type_name,
			content_hash = excluded.content_hash
	`, e.GUID, e.TypeName, hash)
	if err != nil {
		return "", fmt.Errorf("put entity %s: %w", e.GUID, err)
	}

	for _, table := range []string{"entity_attributes", "entity_classifications", "classification_attributes", "term_assignments"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE guid = ?", e.GUID); err != nil {
			return "", fmt.Errorf("put entity %s: clear %s: %w", e.GUID, table, err)
		}
	}

	if err := insertAttributes(ctx, tx, e.GUID, e.Attributes); err != nil {
		return "", fmt.Errorf("put entity %s: %w", e.GUID, err)
	}
	for _, c := range e.Classifications {
		if err := insertClassification(ctx, tx, e.GUID, c); err != nil {
			return "", fmt.Errorf("put entity %s: %w", e.GUID, err)
		}
	}
	for _, term := range e.Terms {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO term_assignments (guid, term) VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, e.GUID, term)
		if err != nil {
			return "", fmt.Errorf("put entity %s: term %q: %w", e.GUID, term, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("put entity %s: commit: %w", e.GUID, err)
	}
	return e.GUID, nil
}

// PutEntities stores entities in order and returns their GUIDs.
func (s *Store) PutEntities(ctx context.Context, entities []ir.Entity) ([]string, error) {
	guids := make([]string, 0, len(entities))
	for i, e := range entities {
		guid, err := s.PutEntity(ctx, e)
		if err != nil {
			return guids, fmt.Errorf("entity[%d]: %w", i, err)
		}
		guids = append(guids, guid)
	}
	return guids, nil
}

func insertAttributes(ctx context.Context, tx *sql.Tx, guid string, attrs ir.IRObject) error {
	for _, name := range attrs.SortedKeys() {
		v := attrs[name]
		if _, isNull := v.(ir.IRNull); isNull || v == nil {
			continue
		}
		kind, value, err := encodeValue(v)
		if err != nil {
			return fmt.Errorf("attribute %q: %w", name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO entity_attributes (guid, name, kind, value) VALUES (?, ?, ?, ?)
		`, guid, name, kind, value)
		if err != nil {
			return fmt.Errorf("attribute %q: %w", name, err)
		}
	}
	return nil
}

func insertClassification(ctx context.Context, tx *sql.Tx, guid string, c ir.Classification) error {
	if c.TypeName == "" {
		return fmt.Errorf("classification without a type name")
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO entity_classifications (guid, name) VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, guid, c.TypeName)
	if err != nil {
		return fmt.Errorf("classification %q: %w", c.TypeName, err)
	}

	for _, name := range c.Attributes.SortedKeys() {
		v := c.Attributes[name]
		if _, isNull := v.(ir.IRNull); isNull || v == nil {
			continue
		}
		kind, value, err := encodeValue(v)
		if err != nil {
			return fmt.Errorf("classification %q attribute %q: %w", c.TypeName, name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO classification_attributes (guid, classification, name, kind, value)
			VALUES (?, ?, ?, ?, ?)
		`, guid, c.TypeName, name, kind, value)
		if err != nil {
			return fmt.Errorf("classification %q attribute %q: %w", c.TypeName, name, err)
		}
	}
	return nil
}

// DeleteEntity removes an entity and everything attached to it.
// Deleting a missing entity returns ErrNotFound.
func (s *Store) DeleteEntity(ctx context.Context, guid string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE guid = ?`, guid)
	if err != nil {
		return fmt.Errorf("delete entity %s: %w", guid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entity %s: rows affected: %w", guid, err)
	}
	if n == 0 {
		return fmt.Errorf("delete entity %s: %w", guid, ErrNotFound)
	}
	return nil
}
