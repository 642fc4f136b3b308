package queryplan

import (
	"fmt"
)

// ValidationResult lists structural problems found in a plan.
//
// The compiler never produces a plan with warnings; Validate exists for
// plans assembled by hand or loaded from elsewhere, and is run by the
// search service before a plan reaches an adapter.
type ValidationResult struct {
	// IsValid is true when Warnings is empty.
	IsValid bool

	// Warnings describes each problem, in clause order.
	Warnings []string
}

// Validate checks a plan's structural invariants:
//  1. At most one From/FromAlias, one Select, one Limit per top-level plan
//  2. And/Or groups have at least one non-nil child
//  3. SelectSpec labels and expressions are parallel, aggregate indices in range
//  4. Limit count and offset are non-negative
//  5. Where clauses carry a predicate property and operator
//
// Validate is a pure function with no side effects.
func Validate(p *Plan) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validatePlan(p, "plan", true)

	return ValidationResult{
		IsValid:  len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

// addWarning appends a warning message.
func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// validatePlan recursively validates a plan and its children.
func (v *validator) validatePlan(p *Plan, path string, top bool) {
	if p == nil {
		v.addWarning("%s: nil plan", path)
		return
	}

	var froms, selects, limits int
	for i, clause := range p.Clauses {
		at := fmt.Sprintf("%s[%d]", path, i)
		switch c := clause.(type) {
		case Where:
			v.validateWhere(c, at)
		case From, FromAlias:
			froms++
		case Select:
			selects++
			v.validateSelect(c.Spec, at)
		case Limit:
			limits++
			if c.Count < 0 || c.Offset < 0 {
				v.addWarning("%s: negative limit(%d, %d)", at, c.Count, c.Offset)
			}
		case And:
			v.validateGroup("and", c.Children, at)
		case Or:
			v.validateGroup("or", c.Children, at)
		case IsA, Has, HasTerm, OrderBy, GroupBy:
			// No structural constraints beyond their fields.
		default:
			v.addWarning("%s: unknown clause type %T", at, clause)
		}
	}

	if top {
		if froms > 1 {
			v.addWarning("%s: %d from clauses, expected at most one", path, froms)
		}
		if selects > 1 {
			v.addWarning("%s: %d select clauses, expected at most one", path, selects)
		}
		if limits > 1 {
			v.addWarning("%s: %d limit clauses, expected at most one", path, limits)
		}
	}
}

func (v *validator) validateWhere(w Where, at string) {
	if w.Predicate.Property == "" {
		v.addWarning("%s: where clause without property", at)
	}
	if w.Predicate.Operator == "" {
		v.addWarning("%s: where clause without operator", at)
	}
	if w.Predicate.Value == nil {
		v.addWarning("%s: where clause without value", at)
	}
}

func (v *validator) validateSelect(spec SelectSpec, at string) {
	if len(spec.Labels) != len(spec.Expressions) {
		v.addWarning("%s: select has %d labels but %d expressions", at, len(spec.Labels), len(spec.Expressions))
	}
	slots := []struct {
		name string
		idx  int
	}{
		{"count", spec.CountIdx},
		{"sum", spec.SumIdx},
		{"min", spec.MinIdx},
		{"max", spec.MaxIdx},
	}
	for _, slot := range slots {
		if slot.idx != NoIndex && (slot.idx < 0 || slot.idx >= len(spec.Expressions)) {
			v.addWarning("%s: %s index %d out of range", at, slot.name, slot.idx)
		}
	}
}

func (v *validator) validateGroup(kind string, children []*Plan, at string) {
	if len(children) == 0 {
		v.addWarning("%s: empty %s group", at, kind)
		return
	}
	for i, child := range children {
		v.validatePlan(child, fmt.Sprintf("%s.%s[%d]", at, kind, i), false)
	}
}
