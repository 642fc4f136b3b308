// Package registry holds the catalog's entity and classification type
// definitions and answers the compiler's trait-attribute membership test.
//
// Definitions are loaded from CUE:
//
//	entity: hive_table: {
//		superTypes: ["DataSet"]
//		attributes: {
//			name:  string
//			owner: string
//		}
//	}
//
//	classification: PII: attributes: {
//		level: int
//	}
//
// The trait-attribute domain is every classification name, every
// classification attribute name, and the system trait attributes.
package registry

import (
	"fmt"
	"sort"

	"github.com/roach88/metacat/internal/ir"
)

// System attributes that always address classifications.
const (
	AttrTraitNames          = "__traitNames"
	AttrClassificationNames = "__classificationNames"
)

// Registry is an in-memory set of type definitions. It is safe for
// concurrent reads once loading is complete.
type Registry struct {
	entities        map[string]ir.EntityTypeDef
	classifications map[string]ir.ClassificationDef
	traitAttrs      map[string]bool
}

// New returns an empty registry containing only the system trait
// attributes.
func New() *Registry {
	return &Registry{
		entities:        make(map[string]ir.EntityTypeDef),
		classifications: make(map[string]ir.ClassificationDef),
		traitAttrs: map[string]bool{
			AttrTraitNames:          true,
			AttrClassificationNames: true,
		},
	}
}

// AddEntity registers an entity type. Names must be unique.
func (r *Registry) AddEntity(def ir.EntityTypeDef) error {
	if _, exists := r.entities[def.Name]; exists {
		return &LoadError{Code: ErrCodeDuplicateName, Message: fmt.Sprintf("duplicate entity type %q", def.Name)}
	}
	r.entities[def.Name] = def
	return nil
}

// AddClassification registers a classification type and adds its name and
// attributes to the trait-attribute domain.
func (r *Registry) AddClassification(def ir.ClassificationDef) error {
	if _, exists := r.classifications[def.Name]; exists {
		return &LoadError{Code: ErrCodeDuplicateName, Message: fmt.Sprintf("duplicate classification %q", def.Name)}
	}
	r.classifications[def.Name] = def
	r.traitAttrs[def.Name] = true
	for attr := range def.Attributes {
		r.traitAttrs[attr] = true
	}
	return nil
}

// AddTraitAttribute adds a name to the trait-attribute domain without a
// backing classification definition.
func (r *Registry) AddTraitAttribute(name string) {
	r.traitAttrs[name] = true
}

// IsTraitAttribute reports whether name addresses classification data.
func (r *Registry) IsTraitAttribute(name string) bool {
	return r.traitAttrs[name]
}

// TraitAttributes returns the trait-attribute domain, sorted.
func (r *Registry) TraitAttributes() []string {
	out := make([]string, 0, len(r.traitAttrs))
	for name := range r.traitAttrs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// EntityType looks up an entity type definition.
func (r *Registry) EntityType(name string) (ir.EntityTypeDef, bool) {
	def, ok := r.entities[name]
	return def, ok
}

// Classification looks up a classification definition.
func (r *Registry) Classification(name string) (ir.ClassificationDef, bool) {
	def, ok := r.classifications[name]
	return def, ok
}

// EntityTypes returns the entity type names, sorted.
func (r *Registry) EntityTypes() []string {
	out := make([]string, 0, len(r.entities))
	for name := range r.entities {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Classifications returns the classification names, sorted.
func (r *Registry) Classifications() []string {
	out := make([]string, 0, len(r.classifications))
	for name := range r.classifications {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsSubtypeOf reports whether typeName is superType or inherits from it,
// following superTypes transitively.
func (r *Registry) IsSubtypeOf(typeName, superType string) bool {
	seen := make(map[string]bool)
	var visit func(string) bool
	visit = func(name string) bool {
		if name == superType {
			return true
		}
		if seen[name] {
			return false
		}
		seen[name] = true
		def, ok := r.entities[name]
		if !ok {
			return false
		}
		for _, parent := range def.SuperTypes {
			if visit(parent) {
				return true
			}
		}
		return false
	}
	return visit(typeName)
}
