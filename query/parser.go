package query

import (
	"strconv"
)

// Parser parses token sequences into compiled statements
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a new parser
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// current returns the current token
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// advance moves to the next token
func (p *Parser) advance() {
	p.pos++
}

// accept consumes the current token when it matches
func (p *Parser) accept(typ TokenType) bool {
	if p.current().Type == typ {
		p.advance()
		return true
	}
	return false
}

// expect consumes and returns the current token, or fails naming the
// expected construct
func (p *Parser) expect(typ TokenType, what string) (Token, error) {
	tok := p.current()
	if tok.Type != typ {
		return Token{}, &ParseError{Offset: tok.Offset, Expected: what, Found: tok}
	}
	p.advance()
	return tok, nil
}

// errorf builds a parse error at the current token
func (p *Parser) errorf(what string) error {
	tok := p.current()
	return &ParseError{Offset: tok.Offset, Expected: what, Found: tok}
}

// Parse compiles query text into a Statement. The parser builds the
// same AST nodes the builder produces, so both front ends are
// representation-equivalent. A malformed query never yields a partial
// statement.
func Parse(text string) (*Statement, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}

	parser := NewParser(tokens)
	stmt, err := parser.parseStatement()
	if err != nil {
		return nil, err
	}

	if parser.current().Type != TokenEOF {
		return nil, parser.errorf("end of query")
	}

	return stmt, nil
}

// parseStatement parses:
//
//	SELECT [DISTINCT] projlist [WHERE expr] [GROUP BY exprlist] [RETURNING ident]
func (p *Parser) parseStatement() (*Statement, error) {
	if _, err := p.expect(TokenSelect, "SELECT"); err != nil {
		return nil, err
	}

	distinct := p.accept(TokenDistinct)

	projection, err := p.parseExprList("projection expression")
	if err != nil {
		return nil, err
	}

	stmt := &Statement{projection: projection, distinct: distinct}

	if p.accept(TokenWhere) {
		predicate, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.predicate = predicate
	}

	if p.accept(TokenGroup) {
		if _, err := p.expect(TokenBy, "BY after GROUP"); err != nil {
			return nil, err
		}
		groupBy, err := p.parseExprList("GROUP BY expression")
		if err != nil {
			return nil, err
		}
		stmt.groupBy = groupBy
	}

	if p.accept(TokenReturning) {
		tok, err := p.expect(TokenIdent, "return view name after RETURNING")
		if err != nil {
			return nil, err
		}
		if _, ok := lookupReturning(tok.Value); !ok {
			return nil, &ParseError{Offset: tok.Offset, Expected: "registered return view name", Found: tok}
		}
		stmt.returning = tok.Value
	}

	return stmt, nil
}

// startsExpr reports whether a token can begin an expression
func startsExpr(tok Token) bool {
	switch tok.Type {
	case TokenInt, TokenFloat, TokenString, TokenTrue, TokenFalse, TokenNull,
		TokenRecord, TokenIdent, TokenLeftParen, TokenMinus, TokenNot:
		return true
	}
	return false
}

// parseExprList parses a comma-separated expression list with at least
// one element. A trailing comma is accepted and ignored.
func (p *Parser) parseExprList(what string) ([]Expr, error) {
	if !startsExpr(p.current()) {
		return nil, p.errorf(what)
	}

	var exprs []Expr
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)

		if !p.accept(TokenComma) {
			return exprs, nil
		}
		if !startsExpr(p.current()) {
			// trailing comma
			return exprs, nil
		}
	}
}

// parseExpr parses OR expressions (lowest precedence)
func (p *Parser) parseExpr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpOr, Left: left, Right: right}
	}

	return left, nil
}

// parseAnd parses AND expressions
func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpAnd, Left: left, Right: right}
	}

	return left, nil
}

// parseNot parses NOT expressions
func (p *Parser) parseNot() (Expr, error) {
	if p.current().Type == TokenNot {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Operand: operand}, nil
	}
	return p.parseComparison()
}

var compareOps = map[string]BinaryOp{
	"=":        OpEq,
	"!=":       OpNe,
	"<":        OpLt,
	"<=":       OpLe,
	">":        OpGt,
	">=":       OpGe,
	"IS":       OpIs,
	"CONTAINS": OpContains,
	"LIKE":     OpLike,
	"MATCHES":  OpMatches,
}

// parseComparison parses comparison and IN expressions
func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		switch p.current().Type {
		case TokenIn:
			p.advance()
			list, err := p.parseInList()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: OpIn, Left: left, Right: list}
		case TokenCompare:
			op := compareOps[p.current().Value]
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: op, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

// parseInList parses the right-hand side of IN: either a parenthesized
// expression list, or a bare comma-separated list of arithmetic
// expressions (bare list elements stop below AND/OR so the list does
// not swallow the rest of the predicate).
func (p *Parser) parseInList() (Expr, error) {
	if p.accept(TokenLeftParen) {
		if p.current().Type == TokenRightParen {
			return nil, p.errorf("expression in IN list")
		}
		elems, err := p.parseExprList("expression in IN list")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen, ") after IN list"); err != nil {
			return nil, err
		}
		return &ListExpr{Elems: elems}, nil
	}

	var elems []Expr
	for {
		elem, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)

		if !p.accept(TokenComma) {
			return &ListExpr{Elems: elems}, nil
		}
		if !startsExpr(p.current()) {
			// trailing comma
			return &ListExpr{Elems: elems}, nil
		}
	}
}

// parseAdditive parses + and - expressions
func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		var op BinaryOp
		switch p.current().Type {
		case TokenPlus:
			op = OpAdd
		case TokenMinus:
			op = OpSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

// parseMultiplicative parses *, / and % expressions
func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}

	for {
		var op BinaryOp
		switch p.current().Type {
		case TokenStar:
			op = OpMul
		case TokenSlash:
			op = OpDiv
		case TokenPercent:
			op = OpMod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

// parsePower parses the right-associative power operator
func (p *Parser) parsePower() (Expr, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	if p.current().Type == TokenPow {
		p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: OpPow, Left: left, Right: right}, nil
	}

	return left, nil
}

// parseAtom parses atomic field expressions and their suffixes
func (p *Parser) parseAtom() (Expr, error) {
	var expr Expr

	tok := p.current()
	switch tok.Type {
	case TokenMinus:
		// The grammar has no unary minus; a minus directly before a
		// numeric literal is a negative literal.
		p.advance()
		value, err := p.parseNumber(true)
		if err != nil {
			return nil, err
		}
		expr = &Literal{Value: value}
	case TokenInt, TokenFloat:
		value, err := p.parseNumber(false)
		if err != nil {
			return nil, err
		}
		expr = &Literal{Value: value}
	case TokenString:
		p.advance()
		expr = &Literal{Value: tok.Value}
	case TokenTrue:
		p.advance()
		expr = &Literal{Value: true}
	case TokenFalse:
		p.advance()
		expr = &Literal{Value: false}
	case TokenNull:
		p.advance()
		expr = &Literal{Value: nil}
	case TokenRecord:
		p.advance()
		expr = &Root{}
	case TokenIdent:
		p.advance()
		call, err := p.parseCall(tok.Value)
		if err != nil {
			return nil, err
		}
		expr = call
	case TokenLeftParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen, ") after expression"); err != nil {
			return nil, err
		}
		expr = inner
	default:
		return nil, p.errorf("expression")
	}

	return p.parseSuffixes(expr)
}

// parseCall parses the argument list of a function call. Bare
// identifiers are not part of the grammar (fields are reached through
// the current record), so an identifier must be a call.
func (p *Parser) parseCall(name string) (Expr, error) {
	if _, err := p.expect(TokenLeftParen, "( after function name"); err != nil {
		return nil, err
	}

	var args []Expr
	if p.current().Type != TokenRightParen {
		var err error
		args, err = p.parseExprList("function argument")
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(TokenRightParen, ") after function arguments"); err != nil {
		return nil, err
	}

	return &CallExpr{Name: name, Args: args}, nil
}

// parseSuffixes parses chained attribute access, index access and
// alias suffixes
func (p *Parser) parseSuffixes(expr Expr) (Expr, error) {
	for {
		switch p.current().Type {
		case TokenDot:
			p.advance()
			tok, err := p.expect(TokenIdent, "attribute name after .")
			if err != nil {
				return nil, err
			}
			expr = &AttrExpr{Base: expr, Name: tok.Value}
		case TokenLeftBracket:
			p.advance()
			key, err := p.parseKeyLiteral()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRightBracket, "] after index"); err != nil {
				return nil, err
			}
			expr = &KeyExpr{Base: expr, Key: key}
		case TokenAs:
			p.advance()
			tok, err := p.expect(TokenIdent, "alias name after AS")
			if err != nil {
				return nil, err
			}
			expr = &AliasExpr{Expr: expr, Name: tok.Value}
		default:
			return expr, nil
		}
	}
}

// parseKeyLiteral parses the literal inside index access brackets
func (p *Parser) parseKeyLiteral() (interface{}, error) {
	tok := p.current()
	switch tok.Type {
	case TokenMinus:
		p.advance()
		return p.parseNumber(true)
	case TokenInt, TokenFloat:
		return p.parseNumber(false)
	case TokenString:
		p.advance()
		return tok.Value, nil
	case TokenTrue:
		p.advance()
		return true, nil
	case TokenFalse:
		p.advance()
		return false, nil
	case TokenNull:
		p.advance()
		return nil, nil
	}
	return nil, p.errorf("literal index")
}

// parseNumber converts the current numeric token, applying negation
// for a consumed leading minus
func (p *Parser) parseNumber(negate bool) (interface{}, error) {
	tok := p.current()
	switch tok.Type {
	case TokenInt:
		p.advance()
		// Hex literals carry the 0x prefix; everything else is plain
		// decimal, leading zeros included.
		base := 10
		digits := tok.Value
		if len(digits) > 2 && (digits[:2] == "0x" || digits[:2] == "0X") {
			base = 16
			digits = digits[2:]
		}
		value, err := strconv.ParseInt(digits, base, 64)
		if err != nil {
			return nil, &ParseError{Offset: tok.Offset, Expected: "valid integer literal", Found: tok}
		}
		if negate {
			value = -value
		}
		return value, nil
	case TokenFloat:
		p.advance()
		value, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, &ParseError{Offset: tok.Offset, Expected: "valid float literal", Found: tok}
		}
		if negate {
			value = -value
		}
		return value, nil
	}
	return nil, p.errorf("numeric literal")
}
