package dsl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenKind
	}{
		{"empty", "", []TokenKind{TokEOF}},
		{"ident", "hive_table", []TokenKind{TokIdent, TokEOF}},
		{"dotted ident", "db.name", []TokenKind{TokIdent, TokEOF}},
		{"comparison", `name = "orders"`, []TokenKind{TokIdent, TokEq, TokString, TokEOF}},
		{"double equals", "a == 1", []TokenKind{TokIdent, TokEq, TokNumber, TokEOF}},
		{"operators", "a != b <= c >= d < e > f", []TokenKind{
			TokIdent, TokNeq, TokIdent, TokLte, TokIdent, TokGte, TokIdent, TokLt, TokIdent, TokGt, TokIdent, TokEOF,
		}},
		{"keywords case-insensitive", "WHERE x AND y Or z", []TokenKind{TokWhere, TokIdent, TokAnd, TokIdent, TokOr, TokIdent, TokEOF}},
		{"isa and is", "t isa PII is X", []TokenKind{TokIdent, TokIsa, TokIdent, TokIsa, TokIdent, TokEOF}},
		{"has hasTerm", "t has owner hasTerm sales", []TokenKind{TokIdent, TokHas, TokIdent, TokHasTerm, TokIdent, TokEOF}},
		{"order by folded", "order by name", []TokenKind{TokOrderBy, TokIdent, TokEOF}},
		{"group by folded", "group  by (x)", []TokenKind{TokGroupBy, TokLParen, TokIdent, TokRParen, TokEOF}},
		{"order without by", "order = 1", []TokenKind{TokIdent, TokEq, TokNumber, TokEOF}},
		{"array", `["a", "b"]`, []TokenKind{TokLBracket, TokString, TokComma, TokString, TokRBracket, TokEOF}},
		{"numbers", "10 1.5", []TokenKind{TokNumber, TokFloat, TokEOF}},
		{"bools", "true FALSE", []TokenKind{TokBool, TokBool, TokEOF}},
		{"arith", "a + b - c * d / e", []TokenKind{
			TokIdent, TokPlus, TokIdent, TokMinus, TokIdent, TokStar, TokIdent, TokSlash, TokIdent, TokEOF,
		}},
		{"backquoted keyword", "`where`", []TokenKind{TokIdent, TokEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := NewLexer(tt.input).Tokenize()
			require.NoError(t, err)
			assert.Equal(t, tt.want, kinds(toks))
		})
	}
}

func TestLexerStringLiterals(t *testing.T) {
	toks, err := NewLexer(`"a\"b" 'c d'`).Tokenize()
	require.NoError(t, err)

	assert.Equal(t, `a"b`, toks[0].Lit)
	assert.Equal(t, `"a\"b"`, toks[0].Raw)
	assert.Equal(t, "c d", toks[1].Lit)
	assert.Equal(t, 7, toks[1].Pos)
}

func TestLexerFoldedKeywordRaw(t *testing.T) {
	toks, err := NewLexer("ORDER BY x").Tokenize()
	require.NoError(t, err)
	assert.Equal(t, "ORDERBY", toks[0].Raw)
	assert.Equal(t, "orderby", toks[0].Lit)
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unterminated string", `"abc`, ErrUnterminatedString},
		{"bad escape", `"a\qb"`, ErrInvalidEscape},
		{"bang alone", "a ! b", ErrUnexpectedChar},
		{"stray char", "a # b", ErrUnexpectedChar},
		{"trailing dot number", "1.", ErrInvalidNumber},
		{"number then letters", "12ab", ErrInvalidNumber},
		{"unterminated backquote", "`abc", ErrUnterminatedString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(tt.input).Tokenize()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var pe *ParseError
			assert.True(t, errors.As(err, &pe))
		})
	}
}

func TestTokenKindString(t *testing.T) {
	assert.Equal(t, "HASTERM", TokHasTerm.String())
	assert.Equal(t, "<=", TokLte.String())
	assert.Equal(t, "UNKNOWN", TokenKind(999).String())
	assert.True(t, TokLike.IsComparison())
	assert.False(t, TokAnd.IsComparison())
}
