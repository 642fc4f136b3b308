package search

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/metacat/internal/dsl"
	"github.com/roach88/metacat/internal/registry"
)

// FoldQuery merges the typeName and classification request parameters
// into the query text:
//
//	typeName=hive_table classification=PII query=`owner = "etl" select name`
//	=> from hive_table where hive_table isa PII and (owner = "etl") select name
//
// Without a type name the classification becomes a test on the attached
// classification names. The query's own from-source is kept; giving both a
// from-source and typeName is an error. With neither parameter the query
// is returned unchanged.
func FoldQuery(query, typeName, classification string) (string, error) {
	query = strings.TrimSpace(query)
	typeName = strings.TrimSpace(typeName)
	classification = strings.TrimSpace(classification)
	if typeName == "" && classification == "" {
		return query, nil
	}
	if typeName != "" && !isName(typeName) {
		return "", fmt.Errorf("%w: typeName %q is not a type name", ErrInvalidRequest, typeName)
	}
	if classification != "" && !isName(classification) {
		return "", fmt.Errorf("%w: classification %q is not a classification name", ErrInvalidRequest, classification)
	}

	var from, filter, trailing string
	if query != "" {
		parts, err := splitQuery(query)
		if err != nil {
			return "", err
		}
		from, filter, trailing = parts.from, parts.filter, parts.trailing
	}
	if from != "" && typeName != "" {
		return "", fmt.Errorf("%w: typeName given for a query with a from-source", ErrInvalidRequest)
	}
	if typeName != "" {
		from = typeName
	}

	var conds []string
	switch {
	case classification != "" && typeName != "":
		conds = append(conds, typeName+" isa "+classification)
	case classification != "":
		conds = append(conds, registry.AttrClassificationNames+" = "+strconv.Quote(classification))
	}
	if filter != "" {
		conds = append(conds, "("+filter+")")
	}

	var sb strings.Builder
	if from != "" {
		sb.WriteString("from " + from)
	}
	if len(conds) > 0 {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString("where " + strings.Join(conds, " and "))
	}
	if trailing != "" {
		sb.WriteString(" " + trailing)
	}
	return sb.String(), nil
}

type queryParts struct {
	from     string // from-source text, alias included
	filter   string // boolean expression text
	trailing string // groupby/select/orderby/limit clauses
}

// splitQuery cuts query text into its from-source, filter expression and
// trailing clauses. The text is parsed first so only well-formed queries
// are folded.
func splitQuery(query string) (queryParts, error) {
	q, err := dsl.Parse(query)
	if err != nil {
		return queryParts{}, err
	}
	toks, err := dsl.NewLexer(query).Tokenize()
	if err != nil {
		return queryParts{}, err
	}

	end, wherePos := len(query), -1
	for _, tok := range toks {
		switch tok.Kind {
		case dsl.TokWhere:
			if wherePos < 0 {
				wherePos = tok.Pos
			}
		case dsl.TokGroupBy, dsl.TokSelect, dsl.TokOrderBy, dsl.TokLimit:
			if tok.Pos < end {
				end = tok.Pos
			}
		}
	}

	var parts queryParts
	parts.trailing = strings.TrimSpace(query[end:])

	src := q.Source
	switch {
	case src.From != nil:
		fromEnd := end
		if wherePos >= 0 && wherePos < end {
			fromEnd = wherePos
		}
		parts.from = strings.TrimSpace(query[src.From.Pos():fromEnd])
		if src.Where != nil && src.Where.Expr != nil {
			parts.filter = strings.TrimSpace(query[src.Where.Expr.Pos():end])
		}
	case src.Where != nil && src.Where.Expr != nil:
		parts.filter = strings.TrimSpace(query[src.Where.Expr.Pos():end])
	case src.Expr != nil:
		parts.filter = strings.TrimSpace(query[src.Expr.Pos():end])
	}
	return parts, nil
}

func isName(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '.'):
		default:
			return false
		}
	}
	return s != ""
}
