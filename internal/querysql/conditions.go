package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/metacat/internal/ir"
	"github.com/roach88/metacat/internal/queryplan"
)

// comparisonSQL maps the ordering/equality operators to SQL.
var comparisonSQL = map[queryplan.Operator]string{
	queryplan.OpEq:  "=",
	queryplan.OpNeq: "!=",
	queryplan.OpLt:  "<",
	queryplan.OpLte: "<=",
	queryplan.OpGt:  ">",
	queryplan.OpGte: ">=",
}

// valueTest renders the test applied to column for one predicate.
// CRITICAL: Values are NEVER interpolated - always parameterized.
func valueTest(column string, op queryplan.Operator, value ir.IRValue) (fragment, error) {
	if sqlOp, ok := comparisonSQL[op]; ok {
		param, err := ir.ToNative(value)
		if err != nil {
			return fragment{}, err
		}
		return fragment{sql: fmt.Sprintf("%s %s ?", column, sqlOp), params: []any{param}}, nil
	}

	switch op {
	case queryplan.OpLike, queryplan.OpContains, queryplan.OpStartsWith:
		s, ok := value.(ir.IRString)
		if !ok {
			return fragment{}, fmt.Errorf("%s needs a string pattern, got %s", op, ir.Format(value))
		}
		var pattern string
		switch op {
		case queryplan.OpLike:
			pattern = globToLike(string(s))
		case queryplan.OpContains:
			pattern = "%" + escapeLike(string(s)) + "%"
		default:
			pattern = escapeLike(string(s)) + "%"
		}
		return fragment{sql: column + ` LIKE ? ESCAPE '\'`, params: []any{pattern}}, nil

	case queryplan.OpIn:
		arr, ok := value.(ir.IRArray)
		if !ok {
			return fragment{}, fmt.Errorf("IN needs a value list, got %s", ir.Format(value))
		}
		if len(arr) == 0 {
			return fragment{}, errors.New("IN needs at least one value")
		}
		params := make([]any, len(arr))
		for i, item := range arr {
			p, err := ir.ToNative(item)
			if err != nil {
				return fragment{}, fmt.Errorf("IN item %d: %w", i, err)
			}
			params[i] = p
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(arr)), ", ")
		return fragment{sql: fmt.Sprintf("%s IN (%s)", column, placeholders), params: params}, nil

	case queryplan.OpExists:
		return fragment{sql: "1 = 1"}, nil
	}
	return fragment{}, fmt.Errorf("unsupported operator %q", op)
}

// attributeCondition matches entities having an attribute row in table
// that passes the predicate.
func attributeCondition(table, name string, op queryplan.Operator, value ir.IRValue) (fragment, error) {
	test, err := valueTest("a.value", op, value)
	if err != nil {
		return fragment{}, err
	}
	return fragment{
		sql:    "EXISTS (SELECT 1 FROM " + table + " a WHERE a.guid = e.guid AND a.name = ? AND " + test.sql + ")",
		params: append([]any{name}, test.params...),
	}, nil
}

// traitCondition evaluates a predicate on a trait name: it matches an
// attribute of any attached classification, and a classification name
// compared with a boolean (or tested for existence) checks whether that
// classification is attached.
func traitCondition(name string, op queryplan.Operator, value ir.IRValue) (fragment, error) {
	attr, err := attributeCondition("classification_attributes", name, op, value)
	if err != nil {
		return fragment{}, err
	}

	present := classificationExists(name)
	switch {
	case op == queryplan.OpExists,
		op == queryplan.OpEq && value == ir.IRBool(true),
		op == queryplan.OpNeq && value == ir.IRBool(false):
		return or(attr, present), nil
	case op == queryplan.OpEq && value == ir.IRBool(false),
		op == queryplan.OpNeq && value == ir.IRBool(true):
		return or(attr, fragment{sql: "NOT " + present.sql, params: present.params}), nil
	}
	return attr, nil
}

// classificationNameCondition tests the names of the attached
// classifications.
func classificationNameCondition(op queryplan.Operator, value ir.IRValue) (fragment, error) {
	test, err := valueTest("c.name", op, value)
	if err != nil {
		return fragment{}, err
	}
	return fragment{
		sql:    "EXISTS (SELECT 1 FROM entity_classifications c WHERE c.guid = e.guid AND " + test.sql + ")",
		params: test.params,
	}, nil
}

func classificationExists(name string) fragment {
	return fragment{
		sql:    "EXISTS (SELECT 1 FROM entity_classifications c WHERE c.guid = e.guid AND c.name = ?)",
		params: []any{name},
	}
}

func or(a, b fragment) fragment {
	return fragment{
		sql:    "(" + a.sql + " OR " + b.sql + ")",
		params: append(append([]any{}, a.params...), b.params...),
	}
}

// column returns the SQL expression yielding an attribute of e. The
// pseudo-attributes __guid and __typeName read the entity row itself.
func column(attr string) fragment {
	switch attr {
	case "__guid":
		return fragment{sql: "e.guid"}
	case "__typeName":
		return fragment{sql: "e.type_name"}
	}
	return fragment{
		sql:    "(SELECT a.value FROM entity_attributes a WHERE a.guid = e.guid AND a.name = ?)",
		params: []any{attr},
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// globToLike converts a DSL pattern (* any run, ? one character) to a SQL
// LIKE pattern with backslash escapes.
func globToLike(pattern string) string {
	var sb strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteByte('%')
		case '?':
			sb.WriteByte('_')
		case '\\', '%', '_':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
