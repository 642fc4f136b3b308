package dsl

import (
	"strings"
)

// MaxQueryLength is the longest query text Parse accepts, in bytes.
const MaxQueryLength = 4096

// parser is a recursive-descent parser over a pre-lexed token stream.
//
// Grammar (EBNF):
//
//	query        = source { groupby | select | orderby | limit_offset } EOF
//	source       = "from" from_src [ where ] | from_src [ where ] | where | expr
//	from_src     = ( IDENT | STRING ) [ "as" IDENT ]
//	where        = "where" expr
//	expr         = comp_e { ( "and" | "or" ) comp_e }
//	comp_e       = aggregate | arith [ cmp_op arith | "isa" IDENT | "has" IDENT | "hasTerm" term ]
//	aggregate    = "count" "(" ")" | ( "sum" | "min" | "max" ) "(" expr ")"
//	arith        = multi { ( "+" | "-" ) multi }
//	multi        = atom { ( "*" | "/" ) atom }
//	atom         = IDENT | literal | value_array | "(" expr ")"
//	literal      = STRING | NUMBER | FLOAT | BOOL
//	value_array  = "[" literal { "," literal } "]"
//	term         = IDENT | STRING
//	select       = "select" select_expr
//	select_expr  = select_item { "," select_item }
//	select_item  = expr [ "as" IDENT ]
//	groupby      = "groupby" "(" select_expr ")"
//	orderby      = "orderby" expr [ "asc" | "desc" ]
//	limit_offset = "limit" NUMBER [ "offset" NUMBER ]
//	cmp_op       = "=" | "!=" | "<" | "<=" | ">" | ">=" | "like"
//
// AND and OR share one precedence level here: the chain is kept flat and
// regrouped by the compiler. A source made of a lone name followed by a
// clause keyword (or nothing) is a from-source; anything else is an
// expression whose source type is inferred during compilation.
type parser struct {
	toks []Token
	i    int
}

// Parse parses query text into a *Query tree.
func Parse(input string) (*Query, error) {
	if len(input) > MaxQueryLength {
		return nil, newParseError(MaxQueryLength, ErrQueryTooLong, "query exceeds %d bytes", MaxQueryLength)
	}

	toks, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}
	if toks[0].Kind == TokEOF {
		return nil, newParseError(0, ErrEmptyQuery, "empty query")
	}

	p := &parser{toks: toks}
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ParseExpr parses a standalone boolean expression (no clauses).
func ParseExpr(input string) (*Expr, error) {
	toks, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}
	if toks[0].Kind == TokEOF {
		return nil, newParseError(0, ErrEmptyQuery, "empty expression")
	}

	p := &parser{toks: toks}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != TokEOF {
		return nil, p.unexpected()
	}
	return expr, nil
}

func (p *parser) cur() Token {
	return p.toks[p.i]
}

func (p *parser) peek() Token {
	if p.i+1 < len(p.toks) {
		return p.toks[p.i+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() Token {
	tok := p.toks[p.i]
	if tok.Kind != TokEOF {
		p.i++
	}
	return tok
}

// span builds the Span of the tokens consumed since start.
func (p *parser) span(start int) Span {
	var sb strings.Builder
	for _, tok := range p.toks[start:p.i] {
		sb.WriteString(tok.Raw)
	}
	return Span{Start: p.toks[start].Pos, Src: sb.String()}
}

func (p *parser) expect(kind TokenKind, what string) (Token, error) {
	if p.cur().Kind != kind {
		if p.cur().Kind == TokEOF {
			return Token{}, newParseError(p.cur().Pos, ErrUnexpectedEOF, "expected %s, got end of query", what)
		}
		return Token{}, newParseError(p.cur().Pos, ErrUnexpectedToken, "expected %s, got %q", what, p.cur().Raw)
	}
	return p.advance(), nil
}

func (p *parser) unexpected() error {
	tok := p.cur()
	if tok.Kind == TokEOF {
		return newParseError(tok.Pos, ErrUnexpectedEOF, "unexpected end of query")
	}
	return newParseError(tok.Pos, ErrUnexpectedToken, "unexpected token %q", tok.Raw)
}

// parseQuery parses: query = source { groupby | select | orderby | limit_offset } EOF
func (p *parser) parseQuery() (*Query, error) {
	start := p.i
	q := &Query{}

	src, err := p.parseSource()
	if err != nil {
		return nil, err
	}
	q.Source = src

	for p.cur().Kind != TokEOF {
		tok := p.cur()
		switch tok.Kind {
		case TokGroupBy:
			if q.GroupBy != nil {
				return nil, newParseError(tok.Pos, ErrDuplicateClause, "duplicate groupby clause")
			}
			if q.GroupBy, err = p.parseGroupBy(); err != nil {
				return nil, err
			}
		case TokSelect:
			if q.Select != nil {
				return nil, newParseError(tok.Pos, ErrDuplicateClause, "duplicate select clause")
			}
			p.advance()
			if q.Select, err = p.parseSelectExpr(); err != nil {
				return nil, err
			}
		case TokOrderBy:
			if q.OrderBy != nil {
				return nil, newParseError(tok.Pos, ErrDuplicateClause, "duplicate orderby clause")
			}
			if q.OrderBy, err = p.parseOrderBy(); err != nil {
				return nil, err
			}
		case TokLimit:
			if q.Limit != nil {
				return nil, newParseError(tok.Pos, ErrDuplicateClause, "duplicate limit clause")
			}
			if q.Limit, err = p.parseLimitOffset(); err != nil {
				return nil, err
			}
		case TokRParen:
			return nil, newParseError(tok.Pos, ErrUnmatchedParen, "unmatched closing parenthesis")
		case TokRBracket:
			return nil, newParseError(tok.Pos, ErrUnmatchedBracket, "unmatched closing bracket")
		default:
			return nil, p.unexpected()
		}
	}

	q.Span = p.span(start)
	return q, nil
}

// parseSource parses the leading from/where/expression part of a query.
func (p *parser) parseSource() (*QuerySource, error) {
	start := p.i
	src := &QuerySource{}

	switch {
	case p.cur().Kind == TokFrom:
		p.advance()
		from, err := p.parseFromSrc()
		if err != nil {
			return nil, err
		}
		src.From = from
	case p.isFromSource():
		from, err := p.parseFromSrc()
		if err != nil {
			return nil, err
		}
		src.From = from
	case p.cur().Kind == TokWhere:
		// handled below
	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		src.Expr = expr
		src.Span = p.span(start)
		return src, nil
	}

	if p.cur().Kind == TokWhere {
		where, err := p.parseWhere()
		if err != nil {
			return nil, err
		}
		src.Where = where
	}

	src.Span = p.span(start)
	return src, nil
}

// isFromSource reports whether the current token is a lone type name: a
// name followed by a clause keyword or the end of the query.
func (p *parser) isFromSource() bool {
	if k := p.cur().Kind; k != TokIdent && k != TokString {
		return false
	}
	switch p.peek().Kind {
	case TokEOF, TokWhere, TokAs, TokSelect, TokGroupBy, TokOrderBy, TokLimit:
		return true
	}
	return false
}

// parseFromSrc parses: from_src = ( IDENT | STRING ) [ "as" IDENT ]
func (p *parser) parseFromSrc() (*FromExpr, error) {
	start := p.i
	tok := p.cur()
	if tok.Kind != TokIdent && tok.Kind != TokString {
		return nil, newParseError(tok.Pos, ErrUnexpectedToken, "expected type name, got %q", tok.Raw)
	}
	p.advance()
	from := &FromExpr{Source: tok.Lit}

	if p.cur().Kind == TokAs {
		p.advance()
		alias, err := p.expect(TokIdent, "alias")
		if err != nil {
			return nil, err
		}
		from.Alias = alias.Lit
	}

	from.Span = p.span(start)
	return from, nil
}

// parseWhere parses: where = "where" expr
func (p *parser) parseWhere() (*WhereClause, error) {
	start := p.i
	p.advance()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &WhereClause{Span: p.span(start), Expr: expr}, nil
}

// parseExpr parses: expr = comp_e { ( "and" | "or" ) comp_e }
func (p *parser) parseExpr() (*Expr, error) {
	start := p.i
	left, err := p.parseCompE()
	if err != nil {
		return nil, err
	}
	expr := &Expr{Left: left}

	for p.cur().Kind == TokAnd || p.cur().Kind == TokOr {
		rstart := p.i
		op := OpAnd
		if p.advance().Kind == TokOr {
			op = OpOr
		}
		operand, err := p.parseCompE()
		if err != nil {
			return nil, err
		}
		expr.Rights = append(expr.Rights, &ExprRight{Span: p.span(rstart), Op: op, Operand: operand})
	}

	expr.Span = p.span(start)
	return expr, nil
}

// parseCompE parses: comp_e = aggregate | arith [ cmp_op arith | "isa" IDENT | "has" IDENT | "hasTerm" term ]
func (p *parser) parseCompE() (Node, error) {
	if p.isAggregate() {
		return p.parseAggregate()
	}

	start := p.i
	subject, err := p.parseArith()
	if err != nil {
		return nil, err
	}

	tok := p.cur()
	switch {
	case tok.Kind.IsComparison():
		p.advance()
		rhs, err := p.parseArith()
		if err != nil {
			return nil, err
		}
		return &Comparison{Span: p.span(start), LHS: subject, Op: tok.Raw, RHS: rhs}, nil
	case tok.Kind == TokIsa:
		p.advance()
		trait, err := p.expect(TokIdent, "classification name")
		if err != nil {
			return nil, err
		}
		return &IsClause{Span: p.span(start), Subject: subject, Trait: trait.Lit}, nil
	case tok.Kind == TokHas:
		p.advance()
		prop, err := p.expect(TokIdent, "attribute name")
		if err != nil {
			return nil, err
		}
		return &HasClause{Span: p.span(start), Subject: subject, Property: prop.Lit}, nil
	case tok.Kind == TokHasTerm:
		p.advance()
		term := p.cur()
		if term.Kind != TokIdent && term.Kind != TokString {
			return nil, newParseError(term.Pos, ErrUnexpectedToken, "expected glossary term, got %q", term.Raw)
		}
		p.advance()
		return &HasTermClause{Span: p.span(start), Subject: subject, Term: term.Lit}, nil
	}

	return subject, nil
}

// isAggregate reports whether the parser sits on count( / sum( / min( / max(.
func (p *parser) isAggregate() bool {
	if p.cur().Kind != TokIdent || p.peek().Kind != TokLParen {
		return false
	}
	switch strings.ToLower(p.cur().Lit) {
	case "count", "sum", "min", "max":
		return true
	}
	return false
}

// parseAggregate parses: aggregate = "count" "(" ")" | ( "sum" | "min" | "max" ) "(" expr ")"
func (p *parser) parseAggregate() (Node, error) {
	start := p.i
	fn := strings.ToLower(p.advance().Lit)
	open := p.advance() // "("

	if fn == "count" {
		if p.cur().Kind != TokRParen {
			return nil, newParseError(open.Pos, ErrUnmatchedParen, "count() takes no arguments")
		}
		p.advance()
		return &CountClause{Span: p.span(start)}, nil
	}

	arg, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != TokRParen {
		return nil, newParseError(open.Pos, ErrUnmatchedParen, "unmatched opening parenthesis")
	}
	p.advance()

	switch fn {
	case "sum":
		return &SumClause{Span: p.span(start), Arg: arg}, nil
	case "min":
		return &MinClause{Span: p.span(start), Arg: arg}, nil
	default:
		return &MaxClause{Span: p.span(start), Arg: arg}, nil
	}
}

// parseArith parses: arith = multi { ( "+" | "-" ) multi }
// and multi = atom { ( "*" | "/" ) atom }, flattened into one operand list.
func (p *parser) parseArith() (*ArithExpr, error) {
	start := p.i
	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	arith := &ArithExpr{Operands: []Node{first}}

	for {
		k := p.cur().Kind
		if k != TokPlus && k != TokMinus && k != TokStar && k != TokSlash {
			break
		}
		arith.Operators = append(arith.Operators, p.advance().Raw)
		next, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		arith.Operands = append(arith.Operands, next)
	}

	arith.Span = p.span(start)
	return arith, nil
}

// parseAtom parses: atom = IDENT | literal | value_array | "(" expr ")"
func (p *parser) parseAtom() (Node, error) {
	start := p.i
	tok := p.cur()

	switch tok.Kind {
	case TokIdent:
		p.advance()
		return &Identifier{Span: p.span(start), Name: tok.Lit}, nil
	case TokString, TokNumber, TokFloat, TokBool:
		return p.parseLiteral()
	case TokLBracket:
		return p.parseValueArray()
	case TokLParen:
		p.advance()
		if p.cur().Kind == TokRParen {
			return nil, newParseError(tok.Pos, ErrEmptyQuery, "empty parentheses")
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur().Kind != TokRParen {
			return nil, newParseError(tok.Pos, ErrUnmatchedParen, "unmatched opening parenthesis")
		}
		p.advance()
		return &ParenExpr{Span: p.span(start), Inner: inner}, nil
	case TokRParen:
		return nil, newParseError(tok.Pos, ErrUnmatchedParen, "unmatched closing parenthesis")
	case TokRBracket:
		return nil, newParseError(tok.Pos, ErrUnmatchedBracket, "unmatched closing bracket")
	case TokEOF:
		return nil, newParseError(tok.Pos, ErrUnexpectedEOF, "unexpected end of query")
	default:
		return nil, newParseError(tok.Pos, ErrUnexpectedToken, "unexpected token %q", tok.Raw)
	}
}

// parseLiteral parses: literal = STRING | NUMBER | FLOAT | BOOL
func (p *parser) parseLiteral() (*Literal, error) {
	start := p.i
	tok := p.cur()
	lit := &Literal{Value: tok.Lit}
	switch tok.Kind {
	case TokString:
		lit.Kind = LitString
	case TokNumber:
		lit.Kind = LitNumber
	case TokFloat:
		lit.Kind = LitFloat
	case TokBool:
		lit.Kind = LitBool
	default:
		return nil, p.unexpected()
	}
	p.advance()
	lit.Span = p.span(start)
	return lit, nil
}

// parseValueArray parses: value_array = "[" [ literal { "," literal } ] "]"
//
// A list that runs into the end of its comparison without "]" is returned
// as written; the compiler reports the unpaired bracket. An empty list is
// accepted here for the same reason.
func (p *parser) parseValueArray() (*ValueArray, error) {
	start := p.i
	p.advance()
	arr := &ValueArray{}

	for p.cur().Kind != TokRBracket {
		if p.cur().Kind == TokEOF {
			arr.Span = p.span(start)
			return arr, nil
		}
		item, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, item)

		if p.cur().Kind != TokComma {
			if p.cur().Kind != TokRBracket {
				arr.Span = p.span(start)
				return arr, nil
			}
			break
		}
		p.advance()
	}
	p.advance()

	arr.Span = p.span(start)
	return arr, nil
}

// parseSelectExpr parses: select_expr = select_item { "," select_item }
func (p *parser) parseSelectExpr() (*SelectExpr, error) {
	start := p.i
	sel := &SelectExpr{}

	for {
		istart := p.i
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item := &SelectItem{Expr: expr}
		if p.cur().Kind == TokAs {
			p.advance()
			alias, err := p.expect(TokIdent, "alias")
			if err != nil {
				return nil, err
			}
			item.Alias = alias.Lit
		}
		item.Span = p.span(istart)
		sel.Items = append(sel.Items, item)

		if p.cur().Kind != TokComma {
			break
		}
		p.advance()
	}

	sel.Span = p.span(start)
	return sel, nil
}

// parseGroupBy parses: groupby = "groupby" "(" select_expr ")"
func (p *parser) parseGroupBy() (*GroupByExpr, error) {
	start := p.i
	p.advance()
	open, err := p.expect(TokLParen, "(")
	if err != nil {
		return nil, err
	}
	sel, err := p.parseSelectExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != TokRParen {
		return nil, newParseError(open.Pos, ErrUnmatchedParen, "unmatched opening parenthesis")
	}
	p.advance()
	return &GroupByExpr{Span: p.span(start), Select: sel}, nil
}

// parseOrderBy parses: orderby = "orderby" expr [ "asc" | "desc" ]
func (p *parser) parseOrderBy() (*OrderByExpr, error) {
	start := p.i
	p.advance()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	ob := &OrderByExpr{Expr: expr}
	if k := p.cur().Kind; k == TokAsc || k == TokDesc {
		ob.Order = p.advance().Raw
	}
	ob.Span = p.span(start)
	return ob, nil
}

// parseLimitOffset parses: limit_offset = "limit" NUMBER [ "offset" NUMBER ]
func (p *parser) parseLimitOffset() (*LimitOffset, error) {
	start := p.i
	p.advance()
	limit, err := p.expect(TokNumber, "limit count")
	if err != nil {
		return nil, err
	}
	lo := &LimitOffset{Limit: limit.Lit}
	if p.cur().Kind == TokOffset {
		p.advance()
		offset, err := p.expect(TokNumber, "offset count")
		if err != nil {
			return nil, err
		}
		lo.Offset = offset.Lit
	}
	lo.Span = p.span(start)
	return lo, nil
}
