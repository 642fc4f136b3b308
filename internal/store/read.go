package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/metacat/internal/ir"
)

// GetEntity returns one entity with its attributes, classifications and
// terms. Classifications and terms come back sorted by name.
func (s *Store) GetEntity(ctx context.Context, guid string) (ir.Entity, error) {
	var e ir.Entity
	err := s.db.QueryRowContext(ctx, `
		SELECT guid, type_name FROM entities WHERE guid = ?
	`, guid).Scan(&e.GUID, &e.TypeName)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Entity{}, fmt.Errorf("get entity %s: %w", guid, ErrNotFound)
	}
	if err != nil {
		return ir.Entity{}, fmt.Errorf("get entity %s: %w", guid, err)
	}

	if e.Attributes, err = s.readAttributes(ctx, guid); err != nil {
		return ir.Entity{}, err
	}
	if e.Classifications, err = s.readClassifications(ctx, guid); err != nil {
		return ir.Entity{}, err
	}
	if e.Terms, err = s.readTerms(ctx, guid); err != nil {
		return ir.Entity{}, err
	}
	return e, nil
}

// GetEntities loads entities in the order of guids.
func (s *Store) GetEntities(ctx context.Context, guids []string) ([]ir.Entity, error) {
	out := make([]ir.Entity, 0, len(guids))
	for _, guid := range guids {
		e, err := s.GetEntity(ctx, guid)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// CountEntities returns the number of stored entities.
func (s *Store) CountEntities(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entities: %w", err)
	}
	return n, nil
}

func (s *Store) readAttributes(ctx context.Context, guid string) (ir.IRObject, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind, value FROM entity_attributes
		WHERE guid = ?
		ORDER BY name COLLATE BINARY ASC
	`, guid)
	if err != nil {
		return nil, fmt.Errorf("query attributes of %s: %w", guid, err)
	}
	defer rows.Close()

	attrs := ir.IRObject{}
	for rows.Next() {
		name, v, err := scanAttribute(rows)
		if err != nil {
			return nil, fmt.Errorf("attributes of %s: %w", guid, err)
		}
		attrs[name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attributes of %s: %w", guid, err)
	}
	return attrs, nil
}

func (s *Store) readClassifications(ctx context.Context, guid string) ([]ir.Classification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM entity_classifications
		WHERE guid = ?
		ORDER BY name COLLATE BINARY ASC
	`, guid)
	if err != nil {
		return nil, fmt.Errorf("query classifications of %s: %w", guid, err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan classification of %s: %w", guid, err)
		}
		names = append(names, name)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate classifications of %s: %w", guid, err)
	}

	if len(names) == 0 {
		return nil, nil
	}

	// The connection pool has a single connection; the classification
	// rows must be closed before the attribute queries run.
	out := make([]ir.Classification, 0, len(names))
	for _, name := range names {
		attrs, err := s.readClassificationAttributes(ctx, guid, name)
		if err != nil {
			return nil, err
		}
		out = append(out, ir.Classification{TypeName: name, Attributes: attrs})
	}
	return out, nil
}

func (s *Store) readClassificationAttributes(ctx context.Context, guid, classification string) (ir.IRObject, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind, value FROM classification_attributes
		WHERE guid = ? AND classification = ?
		ORDER BY name COLLATE BINARY ASC
	`, guid, classification)
	if err != nil {
		return nil, fmt.Errorf("query %s attributes of %s: %w", classification, guid, err)
	}
	defer rows.Close()

	attrs := ir.IRObject{}
	for rows.Next() {
		name, v, err := scanAttribute(rows)
		if err != nil {
			return nil, fmt.Errorf("%s attributes of %s: %w", classification, guid, err)
		}
		attrs[name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s attributes of %s: %w", classification, guid, err)
	}
	return attrs, nil
}

func (s *Store) readTerms(ctx context.Context, guid string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT term FROM term_assignments
		WHERE guid = ?
		ORDER BY term COLLATE BINARY ASC
	`, guid)
	if err != nil {
		return nil, fmt.Errorf("query terms of %s: %w", guid, err)
	}
	defer rows.Close()

	var terms []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("scan term of %s: %w", guid, err)
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate terms of %s: %w", guid, err)
	}
	return terms, nil
}

// scanAttribute scans a (name, kind, value) row.
func scanAttribute(rows *sql.Rows) (string, ir.IRValue, error) {
	var (
		name string
		kind string
		raw  any
	)
	if err := rows.Scan(&name, &kind, &raw); err != nil {
		return "", nil, fmt.Errorf("scan attribute: %w", err)
	}
	v, err := decodeValue(kind, raw)
	if err != nil {
		return "", nil, fmt.Errorf("attribute %q: %w", name, err)
	}
	return name, v, nil
}
