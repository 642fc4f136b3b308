package compiler

import (
	"strconv"
	"strings"

	"github.com/roach88/metacat/internal/ir"
	"github.com/roach88/metacat/internal/queryplan"
)

// splitList strips exactly one layer of enclosing brackets from a value
// list literal and splits it on top-level commas. Commas inside quoted
// items do not split. Brackets must be paired and the list must not be
// empty.
func splitList(text string, pos int) ([]string, error) {
	s := strings.TrimSpace(text)
	open := strings.HasPrefix(s, "[")
	closed := strings.HasSuffix(s, "]")
	if open != closed || (open && len(s) < 2) {
		return nil, malformedList(text, pos, "unpaired bracket in value list")
	}
	if open {
		s = s[1 : len(s)-1]
	}
	if strings.TrimSpace(s) == "" {
		return nil, malformedList(text, pos, "empty value list")
	}

	var items []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(ch)
			if ch == '\\' && i+1 < len(s) {
				i++
				cur.WriteByte(s[i])
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
			cur.WriteByte(ch)
		case ch == ',':
			items = append(items, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	if quote != 0 {
		return nil, malformedList(text, pos, "unterminated quote in value list")
	}
	items = append(items, strings.TrimSpace(cur.String()))

	for _, item := range items {
		if item == "" {
			return nil, malformedList(text, pos, "empty item in value list")
		}
	}
	return items, nil
}

// literalValue converts literal source text into a typed value: quoted
// text becomes a string without its quotes, integers become ints,
// true/false become bools, and anything else (names, decimals) stays a
// string of its text.
func literalValue(text string) ir.IRValue {
	if unq, ok := unquote(text); ok {
		return ir.IRString(unq)
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return ir.IRInt(n)
	}
	switch strings.ToLower(text) {
	case "true":
		return ir.IRBool(true)
	case "false":
		return ir.IRBool(false)
	}
	return ir.IRString(text)
}

func unquote(text string) (string, bool) {
	if len(text) < 2 {
		return "", false
	}
	q := text[0]
	if (q != '"' && q != '\'') || text[len(text)-1] != q {
		return "", false
	}
	inner := text[1 : len(text)-1]
	if !strings.Contains(inner, `\`) {
		return inner, true
	}

	var sb strings.Builder
	for i := 0; i < len(inner); i++ {
		ch := inner[i]
		if ch != '\\' || i+1 == len(inner) {
			sb.WriteByte(ch)
			continue
		}
		i++
		switch inner[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		default:
			sb.WriteByte(inner[i])
		}
	}
	return sb.String(), true
}

// listValue converts the items of a split value list.
func listValue(items []string) ir.IRArray {
	arr := make(ir.IRArray, len(items))
	for i, item := range items {
		arr[i] = literalValue(item)
	}
	return arr
}

// likePredicate narrows a LIKE pattern: "*x*" is a contains match, "x*" a
// prefix match. Any other pattern stays LIKE.
func likePredicate(value ir.IRValue) (queryplan.Operator, ir.IRValue) {
	s, ok := value.(ir.IRString)
	if !ok {
		return queryplan.OpLike, value
	}
	pattern := string(s)
	if len(pattern) >= 2 && strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		inner := pattern[1 : len(pattern)-1]
		if !strings.ContainsAny(inner, "*?") {
			return queryplan.OpContains, ir.IRString(inner)
		}
	}
	if len(pattern) >= 1 && strings.HasSuffix(pattern, "*") {
		prefix := pattern[:len(pattern)-1]
		if !strings.ContainsAny(prefix, "*?") {
			return queryplan.OpStartsWith, ir.IRString(prefix)
		}
	}
	return queryplan.OpLike, value
}
