package queryplan

import (
	"fmt"
	"strings"

	"github.com/roach88/metacat/internal/ir"
)

// Operator is the closed set of comparison operators a predicate can carry.
type Operator string

const (
	OpEq         Operator = "="
	OpNeq        Operator = "!="
	OpLt         Operator = "<"
	OpLte        Operator = "<="
	OpGt         Operator = ">"
	OpGte        Operator = ">="
	OpLike       Operator = "LIKE"
	OpContains   Operator = "CONTAINS"
	OpStartsWith Operator = "STARTS_WITH"
	OpIn         Operator = "IN"
	OpExists     Operator = "EXISTS"
)

// ParseOperator maps an operator token (any case) to an Operator.
// "==" is accepted as an alias for "=".
func ParseOperator(token string) (Operator, error) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "=", "==":
		return OpEq, nil
	case "!=":
		return OpNeq, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLte, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGte, nil
	case "LIKE":
		return OpLike, nil
	case "CONTAINS":
		return OpContains, nil
	case "STARTS_WITH":
		return OpStartsWith, nil
	case "IN":
		return OpIn, nil
	case "EXISTS":
		return OpExists, nil
	default:
		return "", fmt.Errorf("unknown operator %q", token)
	}
}

// HasPredicate is a single-attribute comparison. It is the only form in
// which attribute filters reach a NativeQuery.
type HasPredicate struct {
	Property string
	Operator Operator
	Value    ir.IRValue
}

// Apply hands the predicate to the adapter.
func (p HasPredicate) Apply(q NativeQuery) error {
	return q.Has(p.Property, p.Operator, p.Value)
}

func (p HasPredicate) String() string {
	if p.Operator == OpExists {
		return p.Property + " EXISTS"
	}
	return fmt.Sprintf("%s %s %s", p.Property, p.Operator, ir.Format(p.Value))
}
