package dsl

import (
	"strings"
)

// TokenKind identifies the type of lexical token.
type TokenKind int

const (
	TokEOF      TokenKind = iota
	TokIdent              // identifier, possibly dotted (db.table)
	TokString             // quoted string (Lit unescaped, Raw keeps quotes)
	TokNumber             // integer literal
	TokFloat              // decimal literal
	TokBool               // true / false
	TokLParen             // (
	TokRParen             // )
	TokLBracket           // [
	TokRBracket           // ]
	TokComma              // ,
	TokEq                 // = or ==
	TokNeq                // !=
	TokLt                 // <
	TokLte                // <=
	TokGt                 // >
	TokGte                // >=
	TokPlus               // +
	TokMinus              // -
	TokStar               // *
	TokSlash              // /
	TokAnd                // AND (case-insensitive)
	TokOr                 // OR (case-insensitive)
	TokFrom               // FROM
	TokWhere              // WHERE
	TokSelect             // SELECT
	TokAs                 // AS
	TokIsa                // ISA / IS
	TokHas                // HAS
	TokHasTerm            // HASTERM
	TokLike               // LIKE
	TokGroupBy            // GROUPBY / GROUP BY
	TokOrderBy            // ORDERBY / ORDER BY
	TokAsc                // ASC
	TokDesc               // DESC
	TokLimit              // LIMIT
	TokOffset             // OFFSET
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "EOF"
	case TokIdent:
		return "IDENT"
	case TokString:
		return "STRING"
	case TokNumber:
		return "NUMBER"
	case TokFloat:
		return "FLOAT"
	case TokBool:
		return "BOOL"
	case TokLParen:
		return "("
	case TokRParen:
		return ")"
	case TokLBracket:
		return "["
	case TokRBracket:
		return "]"
	case TokComma:
		return ","
	case TokEq:
		return "="
	case TokNeq:
		return "!="
	case TokLt:
		return "<"
	case TokLte:
		return "<="
	case TokGt:
		return ">"
	case TokGte:
		return ">="
	case TokPlus:
		return "+"
	case TokMinus:
		return "-"
	case TokStar:
		return "*"
	case TokSlash:
		return "/"
	case TokAnd:
		return "AND"
	case TokOr:
		return "OR"
	case TokFrom:
		return "FROM"
	case TokWhere:
		return "WHERE"
	case TokSelect:
		return "SELECT"
	case TokAs:
		return "AS"
	case TokIsa:
		return "ISA"
	case TokHas:
		return "HAS"
	case TokHasTerm:
		return "HASTERM"
	case TokLike:
		return "LIKE"
	case TokGroupBy:
		return "GROUPBY"
	case TokOrderBy:
		return "ORDERBY"
	case TokAsc:
		return "ASC"
	case TokDesc:
		return "DESC"
	case TokLimit:
		return "LIMIT"
	case TokOffset:
		return "OFFSET"
	default:
		return "UNKNOWN"
	}
}

// IsComparison reports whether the token is a comparison operator.
func (k TokenKind) IsComparison() bool {
	switch k {
	case TokEq, TokNeq, TokLt, TokLte, TokGt, TokGte, TokLike:
		return true
	}
	return false
}

var keywords = map[string]TokenKind{
	"and":     TokAnd,
	"or":      TokOr,
	"from":    TokFrom,
	"where":   TokWhere,
	"select":  TokSelect,
	"as":      TokAs,
	"isa":     TokIsa,
	"is":      TokIsa,
	"has":     TokHas,
	"hasterm": TokHasTerm,
	"like":    TokLike,
	"groupby": TokGroupBy,
	"orderby": TokOrderBy,
	"asc":     TokAsc,
	"desc":    TokDesc,
	"limit":   TokLimit,
	"offset":  TokOffset,
	"true":    TokBool,
	"false":   TokBool,
}

// Token represents a lexical token.
type Token struct {
	Kind TokenKind
	Lit  string // for quoted strings: unescaped content without quotes
	Raw  string // source text of the token, quotes included
	Pos  int    // byte offset in input for error reporting
}

// Lexer tokenizes a query string.
type Lexer struct {
	input string
	pos   int // current position in input
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize returns every token of the input, ending with TokEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokEOF {
			return toks, nil
		}
	}
}

// Next returns the next token.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Kind: TokEOF, Pos: l.pos}, nil
	}

	startPos := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		return l.single(TokLParen), nil
	case ')':
		return l.single(TokRParen), nil
	case '[':
		return l.single(TokLBracket), nil
	case ']':
		return l.single(TokRBracket), nil
	case ',':
		return l.single(TokComma), nil
	case '+':
		return l.single(TokPlus), nil
	case '-':
		return l.single(TokMinus), nil
	case '*':
		return l.single(TokStar), nil
	case '/':
		return l.single(TokSlash), nil
	case '=':
		if l.peekByte(1) == '=' {
			return l.operator(TokEq, 2), nil
		}
		return l.single(TokEq), nil
	case '!':
		if l.peekByte(1) == '=' {
			return l.operator(TokNeq, 2), nil
		}
		return Token{}, newParseError(startPos, ErrUnexpectedChar, "unexpected character %q", ch)
	case '<':
		if l.peekByte(1) == '=' {
			return l.operator(TokLte, 2), nil
		}
		return l.single(TokLt), nil
	case '>':
		if l.peekByte(1) == '=' {
			return l.operator(TokGte, 2), nil
		}
		return l.single(TokGt), nil
	case '"', '\'':
		return l.scanQuotedString(ch)
	case '`':
		return l.scanQuotedIdent()
	}

	if isDigit(ch) {
		return l.scanNumber()
	}
	if isIdentStart(ch) {
		return l.scanWord(), nil
	}
	return Token{}, newParseError(startPos, ErrUnexpectedChar, "unexpected character %q", ch)
}

func (l *Lexer) single(kind TokenKind) Token {
	return l.operator(kind, 1)
}

func (l *Lexer) operator(kind TokenKind, width int) Token {
	start := l.pos
	l.pos += width
	raw := l.input[start:l.pos]
	return Token{Kind: kind, Lit: raw, Raw: raw, Pos: start}
}

func (l *Lexer) peekByte(offset int) byte {
	if l.pos+offset < len(l.input) {
		return l.input[l.pos+offset]
	}
	return 0
}

// skipWhitespace advances past whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
}

// scanQuotedString scans a quoted string, processing escape sequences.
func (l *Lexer) scanQuotedString(quote byte) (Token, error) {
	startPos := l.pos
	l.pos++ // skip opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]

		if ch == quote {
			l.pos++ // skip closing quote
			return Token{Kind: TokString, Lit: sb.String(), Raw: l.input[startPos:l.pos], Pos: startPos}, nil
		}

		if ch == '\\' {
			l.pos++
			if l.pos >= len(l.input) {
				return Token{}, newParseError(l.pos-1, ErrUnterminatedString, "unterminated string: escape at end of input")
			}

			escaped := l.input[l.pos]
			switch escaped {
			case '\\', '"', '\'':
				sb.WriteByte(escaped)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				return Token{}, newParseError(l.pos-1, ErrInvalidEscape, "invalid escape sequence: \\%c", escaped)
			}
			l.pos++
			continue
		}

		sb.WriteByte(ch)
		l.pos++
	}

	return Token{}, newParseError(startPos, ErrUnterminatedString, "unterminated string starting at position %d", startPos)
}

// scanQuotedIdent scans a `backquoted` identifier. Keywords inside backquotes
// are plain identifiers.
func (l *Lexer) scanQuotedIdent() (Token, error) {
	startPos := l.pos
	end := strings.IndexByte(l.input[l.pos+1:], '`')
	if end < 0 {
		return Token{}, newParseError(startPos, ErrUnterminatedString, "unterminated quoted identifier starting at position %d", startPos)
	}
	l.pos += end + 2
	return Token{
		Kind: TokIdent,
		Lit:  l.input[startPos+1 : l.pos-1],
		Raw:  l.input[startPos:l.pos],
		Pos:  startPos,
	}, nil
}

// scanNumber scans an integer or decimal literal.
func (l *Lexer) scanNumber() (Token, error) {
	startPos := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	kind := TokNumber
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		if l.pos >= len(l.input) || !isDigit(l.input[l.pos]) {
			return Token{}, newParseError(startPos, ErrInvalidNumber, "invalid number %q", l.input[startPos:l.pos])
		}
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
		kind = TokFloat
	}
	if l.pos < len(l.input) && isIdentStart(l.input[l.pos]) {
		return Token{}, newParseError(startPos, ErrInvalidNumber, "invalid number %q", l.input[startPos:l.pos+1])
	}
	raw := l.input[startPos:l.pos]
	return Token{Kind: kind, Lit: raw, Raw: raw, Pos: startPos}, nil
}

// scanWord scans an identifier or keyword. "order by" and "group by" are
// folded into a single token.
func (l *Lexer) scanWord() Token {
	startPos := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	raw := l.input[startPos:l.pos]
	lower := strings.ToLower(raw)

	if lower == "order" || lower == "group" {
		if by, ok := l.scanBy(); ok {
			raw += by
			lower += "by"
		}
	}

	if kind, ok := keywords[lower]; ok {
		return Token{Kind: kind, Lit: lower, Raw: raw, Pos: startPos}
	}
	return Token{Kind: TokIdent, Lit: raw, Raw: raw, Pos: startPos}
}

// scanBy consumes a following "by" word, if present.
func (l *Lexer) scanBy() (string, bool) {
	i := l.pos
	for i < len(l.input) && isSpace(l.input[i]) {
		i++
	}
	if i == l.pos || i+2 > len(l.input) || !strings.EqualFold(l.input[i:i+2], "by") {
		return "", false
	}
	if i+2 < len(l.input) && isIdentChar(l.input[i+2]) {
		return "", false
	}
	l.pos = i + 2
	return l.input[i : i+2], true
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '.'
}
