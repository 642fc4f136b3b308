package dsl

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFromSource(t *testing.T) {
	q, err := Parse(`hive_table where name = "orders"`)
	require.NoError(t, err)

	require.NotNil(t, q.Source.From)
	assert.Equal(t, "hive_table", q.Source.From.Source)
	assert.Empty(t, q.Source.From.Alias)
	require.NotNil(t, q.Source.Where)
	assert.Nil(t, q.Source.Expr)

	cmp, ok := q.Source.Where.Expr.Left.(*Comparison)
	require.True(t, ok)
	assert.Equal(t, "name", cmp.LHS.Text())
	assert.Equal(t, "=", cmp.Op)
	assert.Equal(t, `"orders"`, cmp.RHS.Text())
	assert.Equal(t, `name="orders"`, cmp.Text())
	assert.Equal(t, `hive_tablewherename="orders"`, q.Text())
}

func TestParseFromKeywordAndAlias(t *testing.T) {
	q, err := Parse("from hive_table as t")
	require.NoError(t, err)
	assert.Equal(t, "hive_table", q.Source.From.Source)
	assert.Equal(t, "t", q.Source.From.Alias)

	q, err = Parse(`"hive_table"`)
	require.NoError(t, err)
	assert.Equal(t, "hive_table", q.Source.From.Source)
}

func TestParseBareExpression(t *testing.T) {
	q, err := Parse("hive_table isa PII")
	require.NoError(t, err)
	assert.Nil(t, q.Source.From)
	require.NotNil(t, q.Source.Expr)

	is, ok := q.Source.Expr.Left.(*IsClause)
	require.True(t, ok)
	assert.Equal(t, "hive_table", is.Subject.Text())
	assert.Equal(t, "PII", is.Trait)
}

func TestParseHasAndHasTerm(t *testing.T) {
	q, err := Parse(`hive_table has owner and hive_table hasTerm "sales"`)
	require.NoError(t, err)

	expr := q.Source.Expr
	has, ok := expr.Left.(*HasClause)
	require.True(t, ok)
	assert.Equal(t, "owner", has.Property)

	require.Len(t, expr.Rights, 1)
	assert.Equal(t, OpAnd, expr.Rights[0].Op)
	term, ok := expr.Rights[0].Operand.(*HasTermClause)
	require.True(t, ok)
	assert.Equal(t, "sales", term.Term)
}

func TestParseChainIsFlat(t *testing.T) {
	q, err := Parse("t where a = 1 and b = 2 or c = 3 and d = 4")
	require.NoError(t, err)

	expr := q.Source.Where.Expr
	require.Len(t, expr.Rights, 3)
	assert.Equal(t, []BoolOp{OpAnd, OpOr, OpAnd}, []BoolOp{expr.Rights[0].Op, expr.Rights[1].Op, expr.Rights[2].Op})
	assert.Equal(t, "a=1", expr.Left.Text())
	assert.Equal(t, "andd=4", expr.Rights[2].Text())
}

func TestParseParenthesised(t *testing.T) {
	q, err := Parse("t where (a = 1 or b = 2) and c = 3")
	require.NoError(t, err)

	expr := q.Source.Where.Expr
	arith, ok := expr.Left.(*ArithExpr)
	require.True(t, ok)
	paren, ok := arith.Atom().(*ParenExpr)
	require.True(t, ok)
	assert.Len(t, paren.Inner.Rights, 1)
	assert.Equal(t, "(a=1orb=2)", paren.Text())
}

func TestParseValueArray(t *testing.T) {
	q, err := Parse(`t where name = ["a", "b"]`)
	require.NoError(t, err)

	cmp := q.Source.Where.Expr.Left.(*Comparison)
	arr, ok := cmp.RHS.Atom().(*ValueArray)
	require.True(t, ok)
	require.Len(t, arr.Items, 2)
	assert.Equal(t, "a", arr.Items[0].Value)
	assert.Equal(t, `["a","b"]`, arr.Text())
}

func TestParseValueArrayLeftToCompiler(t *testing.T) {
	tests := []struct {
		name  string
		input string
		text  string
		items int
	}{
		{"empty", `t where a = []`, `[]`, 0},
		{"unclosed at end", `t where a = ["x", "y"`, `["x","y"`, 2},
		{"unclosed after comma", `t where a = ["x",`, `["x",`, 1},
		{"unclosed before and", `t where a = ["x" and b = 1`, `["x"`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.input)
			require.NoError(t, err)

			cmp := q.Source.Where.Expr.Left.(*Comparison)
			arr, ok := cmp.RHS.Atom().(*ValueArray)
			require.True(t, ok)
			assert.Len(t, arr.Items, tt.items)
			assert.Equal(t, tt.text, arr.Text())
		})
	}
}

func TestParseLiterals(t *testing.T) {
	q, err := Parse("t where a = 10 and b = 1.5 and c = true and d = x")
	require.NoError(t, err)

	expr := q.Source.Where.Expr
	operands := []Node{expr.Left}
	for _, r := range expr.Rights {
		operands = append(operands, r.Operand)
	}
	rhs := func(i int) Node { return operands[i].(*Comparison).RHS.Atom() }

	assert.Equal(t, LitNumber, rhs(0).(*Literal).Kind)
	assert.Equal(t, LitFloat, rhs(1).(*Literal).Kind)
	assert.Equal(t, LitBool, rhs(2).(*Literal).Kind)
	assert.IsType(t, &Identifier{}, rhs(3))
}

func TestParseTrailingClauses(t *testing.T) {
	q, err := Parse(`hive_table groupby(owner) select count() as n, owner orderby (owner) desc limit 10 offset 5`)
	require.NoError(t, err)

	require.NotNil(t, q.GroupBy)
	assert.Equal(t, "owner", q.GroupBy.Select.Text())

	require.NotNil(t, q.Select)
	require.Len(t, q.Select.Items, 2)
	assert.Equal(t, "n", q.Select.Items[0].Alias)
	assert.IsType(t, &CountClause{}, q.Select.Items[0].Expr.Left)

	require.NotNil(t, q.OrderBy)
	assert.Equal(t, "(owner)", q.OrderBy.Expr.Text())
	assert.Equal(t, "desc", q.OrderBy.Order)

	require.NotNil(t, q.Limit)
	assert.Equal(t, "10", q.Limit.Limit)
	assert.Equal(t, "5", q.Limit.Offset)
}

func TestParseClausesAnyOrder(t *testing.T) {
	q, err := Parse("t limit 3 select name")
	require.NoError(t, err)
	assert.NotNil(t, q.Limit)
	assert.NotNil(t, q.Select)
	assert.Empty(t, q.Limit.Offset)
}

func TestParseAggregates(t *testing.T) {
	q, err := Parse("t select sum(size), min(size), max(size), count()")
	require.NoError(t, err)

	items := q.Select.Items
	require.Len(t, items, 4)
	sum, ok := items[0].Expr.Left.(*SumClause)
	require.True(t, ok)
	assert.Equal(t, "size", sum.Arg.Text())
	assert.IsType(t, &MinClause{}, items[1].Expr.Left)
	assert.IsType(t, &MaxClause{}, items[2].Expr.Left)
	assert.Equal(t, "count()", items[3].Text())
}

func TestParseAggregateNameAsAttribute(t *testing.T) {
	q, err := Parse("t where count = 3")
	require.NoError(t, err)
	cmp := q.Source.Where.Expr.Left.(*Comparison)
	assert.Equal(t, "count", cmp.LHS.Text())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmptyQuery},
		{"whitespace", "   ", ErrEmptyQuery},
		{"unclosed paren", "t where (a = 1", ErrUnmatchedParen},
		{"stray close paren", "t where a = 1)", ErrUnmatchedParen},
		{"bracket around junk", `t where a = [x]`, ErrUnexpectedToken},
		{"stray close bracket", `t where a = "x"]`, ErrUnmatchedBracket},
		{"empty parens", "t where ()", ErrEmptyQuery},
		{"dangling and", "t where a = 1 and", ErrUnexpectedEOF},
		{"missing trait", "t isa", ErrUnexpectedEOF},
		{"limit not number", "t limit x", ErrUnexpectedToken},
		{"duplicate limit", "t limit 1 limit 2", ErrDuplicateClause},
		{"duplicate select", "t select a select b", ErrDuplicateClause},
		{"count with args", "t select count(x)", ErrUnmatchedParen},
		{"junk after expr", "t where a = 1 b", ErrUnexpectedToken},
		{"too long", "t where a = \"" + strings.Repeat("x", MaxQueryLength) + "\"", ErrQueryTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParseExpr(t *testing.T) {
	expr, err := ParseExpr("a = 1 or b isa PII")
	require.NoError(t, err)
	require.Len(t, expr.Rights, 1)
	assert.Equal(t, OpOr, expr.Rights[0].Op)

	_, err = ParseExpr("a = 1 limit 3")
	assert.ErrorIs(t, err, ErrUnexpectedToken)
}

func TestInspectSourceOrder(t *testing.T) {
	q, err := Parse("t where a = 1 and (x has owner or y isa PII)")
	require.NoError(t, err)

	var seen []string
	Inspect(q, func(n Node) bool {
		switch v := n.(type) {
		case *HasClause:
			seen = append(seen, "has:"+v.Property)
		case *IsClause:
			seen = append(seen, "isa:"+v.Trait)
		case *Comparison:
			seen = append(seen, "cmp:"+v.LHS.Text())
		}
		return true
	})
	assert.Equal(t, []string{"cmp:a", "has:owner", "isa:PII"}, seen)
}

func TestIsNil(t *testing.T) {
	var cmp *Comparison
	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(cmp))
	assert.False(t, IsNil(&Comparison{}))
}
