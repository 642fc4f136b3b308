package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metacat/internal/ir"
	"github.com/roach88/metacat/internal/queryplan"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"[a,b]", []string{"a", "b"}},
		{"[ a , b ]", []string{"a", "b"}},
		{"a,b", []string{"a", "b"}},
		{`["a,b", "c"]`, []string{`"a,b"`, `"c"`}},
		{`['x\'y', z]`, []string{`'x\'y'`, "z"}},
		{"[[a]]", []string{"[a]"}},
		{"[single]", []string{"single"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := splitList(tt.in, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitListMalformed(t *testing.T) {
	for _, in := range []string{"[a", "a]", "[", "]", `["a]`, "[a,,b]", "[a,]", "[]", "[ ]"} {
		t.Run(in, func(t *testing.T) {
			_, err := splitList(in, 3)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedListLiteral))

			var ce *CompileError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, in, ce.Source)
			assert.Equal(t, 3, ce.Pos)
		})
	}
}

func TestLiteralValue(t *testing.T) {
	tests := []struct {
		in   string
		want ir.IRValue
	}{
		{`"orders"`, ir.IRString("orders")},
		{`'orders'`, ir.IRString("orders")},
		{`"a\"b"`, ir.IRString(`a"b`)},
		{`"tab\there"`, ir.IRString("tab\there")},
		{"42", ir.IRInt(42)},
		{"-7", ir.IRInt(-7)},
		{"TRUE", ir.IRBool(true)},
		{"false", ir.IRBool(false)},
		{"1.5", ir.IRString("1.5")},
		{"owner", ir.IRString("owner")},
		{`"`, ir.IRString(`"`)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, literalValue(tt.in))
		})
	}
}

func TestLikePredicate(t *testing.T) {
	tests := []struct {
		in      ir.IRValue
		wantOp  queryplan.Operator
		wantVal ir.IRValue
	}{
		{ir.IRString("*ord*"), queryplan.OpContains, ir.IRString("ord")},
		{ir.IRString("ord*"), queryplan.OpStartsWith, ir.IRString("ord")},
		{ir.IRString("**"), queryplan.OpContains, ir.IRString("")},
		{ir.IRString("*ord"), queryplan.OpLike, ir.IRString("*ord")},
		{ir.IRString("o*r*d"), queryplan.OpLike, ir.IRString("o*r*d")},
		{ir.IRString("or?*"), queryplan.OpLike, ir.IRString("or?*")},
		{ir.IRInt(3), queryplan.OpLike, ir.IRInt(3)},
	}

	for _, tt := range tests {
		t.Run(ir.Format(tt.in), func(t *testing.T) {
			op, val := likePredicate(tt.in)
			assert.Equal(t, tt.wantOp, op)
			assert.Equal(t, tt.wantVal, val)
		})
	}
}
