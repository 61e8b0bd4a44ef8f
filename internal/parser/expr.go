package parser

import (
	"github.com/eshc-lang/eshc/internal/ast"
	"github.com/eshc-lang/eshc/internal/token"
)

// Expression parses a single expression at the lowest precedence
// (logical-or), per the nine-level table in spec.md §4.2.
func (p *Parser) Expression() (ast.Node, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.check(token.OR) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(spanOf(left.Range(), right.Range()), ast.Or, left, right)
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.check(token.AND) {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(spanOf(left.Range(), right.Range()), ast.And, left, right)
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.check(token.EQUAL) || p.check(token.NOT_EQUAL) {
		op := ast.Equal
		if p.current().Kind == token.NOT_EQUAL {
			op = ast.NotEqual
		}
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(spanOf(left.Range(), right.Range()), op, left, right)
	}
	return left, nil
}

func (p *Parser) parseComparison() (ast.Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch p.current().Kind {
		case token.LANGLE:
			op = ast.LessThan
		case token.RANGLE:
			op = ast.GreaterThan
		case token.LESS_EQ:
			op = ast.LessThanOrEqual
		case token.GREATER_EQ:
			op = ast.GreaterThanOrEqual
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(spanOf(left.Range(), right.Range()), op, left, right)
	}
}

func (p *Parser) parseAdditive() (ast.Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := ast.Sum
		if p.current().Kind == token.MINUS {
			op = ast.Difference
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(spanOf(left.Range(), right.Range()), op, left, right)
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch p.current().Kind {
		case token.STAR:
			op = ast.Product
		case token.SLASH:
			op = ast.Quotient
		case token.PERCENT:
			op = ast.Modulo
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(spanOf(left.Range(), right.Range()), op, left, right)
	}
}

func (p *Parser) parseUnary() (ast.Node, error) {
	if p.check(token.BANG) {
		start := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(spanOf(start.Range, operand.Range()), ast.Not, operand), nil
	}
	if p.check(token.MINUS) {
		start := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(spanOf(start.Range, operand.Range()), ast.Negative, operand), nil
	}
	return p.parsePostfix()
}

// parsePostfix handles call/index/member-access chains, flattening dotted
// access into a single Access node per spec.md §4.2's disambiguation rule.
func (p *Parser) parsePostfix() (ast.Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.check(token.DOT):
			p.advance()
			memberTok, err := p.consume(token.IDENT, MissingIdentifier, "member name")
			if err != nil {
				return nil, err
			}
			member := ast.NewPrimary(memberTok.Range, memberTok)
			if existing, ok := node.(*ast.Access); ok {
				parts := append(append([]ast.Node{}, existing.Parts...), member)
				node = ast.NewAccess(spanOf(existing.Range(), member.Range()), parts)
			} else {
				node = ast.NewAccess(spanOf(node.Range(), member.Range()), []ast.Node{node, member})
			}
		case p.check(token.LPAREN):
			lp := p.advance()
			args, rp, err := p.parseArgList(lp)
			if err != nil {
				return nil, err
			}
			node = ast.NewFunctionCall(spanOf(node.Range(), rp.Range), node, args)
		case p.check(token.LBRACKET):
			p.advance()
			idx, err := p.Expression()
			if err != nil {
				return nil, err
			}
			end, err := p.consume(token.RBRACKET, MissingParenthesis, "']'")
			if err != nil {
				return nil, err
			}
			node = ast.NewListCall(spanOf(node.Range(), end.Range), node, idx)
		default:
			return node, nil
		}
	}
}

func (p *Parser) parseArgList(lp token.Token) (*ast.Tuple, token.Token, error) {
	var elems []ast.Node
	if !p.check(token.RPAREN) {
		for {
			e, err := p.Expression()
			if err != nil {
				return nil, token.Token{}, err
			}
			elems = append(elems, e)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	rp, err := p.consume(token.RPAREN, MissingParenthesis, "')'")
	if err != nil {
		return nil, token.Token{}, err
	}
	return ast.NewTuple(spanOf(lp.Range, rp.Range), elems), rp, nil
}

// parsePrimary handles literals, identifiers, parenthesized groups/tuples,
// list literals, vector/location literals, and struct-literal construction.
func (p *Parser) parsePrimary() (ast.Node, error) {
	switch p.current().Kind {
	case token.NUMBER, token.STRING, token.TRUE, token.FALSE:
		tok := p.advance()
		return ast.NewPrimary(tok.Range, tok), nil

	case token.IDENT:
		tok := p.advance()
		primary := ast.Node(ast.NewPrimary(tok.Range, tok))
		if p.inCondition == 0 && p.check(token.LBRACE) {
			return p.parseConstruct(tok, primary)
		}
		return primary, nil

	case token.LPAREN:
		return p.parseParenOrTuple()

	case token.LBRACKET:
		return p.parseListLiteral()

	case token.LANGLE:
		return p.parseVectorOrLocation()

	default:
		return nil, p.errHere(InvalidToken, "unexpected token %s in expression", p.current().Kind)
	}
}

func (p *Parser) parseParenOrTuple() (ast.Node, error) {
	start := p.advance() // `(`
	if p.check(token.RPAREN) {
		end := p.advance()
		return ast.NewTuple(spanOf(start.Range, end.Range), nil), nil
	}
	first, err := p.Expression()
	if err != nil {
		return nil, err
	}
	elems := []ast.Node{first}
	isTuple := false
	for p.match(token.COMMA) {
		isTuple = true
		e, err := p.Expression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	end, err := p.consume(token.RPAREN, MissingParenthesis, "')'")
	if err != nil {
		return nil, err
	}
	if !isTuple {
		return first, nil
	}
	return ast.NewTuple(spanOf(start.Range, end.Range), elems), nil
}

func (p *Parser) parseListLiteral() (ast.Node, error) {
	start := p.advance() // `[`
	var elems []ast.Node
	if !p.check(token.RBRACKET) {
		for {
			e, err := p.Expression()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	end, err := p.consume(token.RBRACKET, MissingParenthesis, "']'")
	if err != nil {
		return nil, err
	}
	return ast.NewList(spanOf(start.Range, end.Range), elems), nil
}

// parseVectorOrLocation implements spec.md §4.2's position-sensitive
// tentative parse: try a `<`-delimited, comma-separated group of exactly 3
// or 5 expressions; restore and fail otherwise (there is no other meaning
// for `<` in primary/value position). Components are parsed at additive
// precedence so the closing `>` is not taken as a greater-than operator;
// a comparison or logical component needs parentheses.
func (p *Parser) parseVectorOrLocation() (ast.Node, error) {
	save := p.pos
	start := p.advance() // `<`
	var elems []ast.Node
	failed := false
	for {
		e, err := p.parseAdditive()
		if err != nil {
			failed = true
			break
		}
		elems = append(elems, e)
		if !p.match(token.COMMA) {
			break
		}
	}
	if !failed && p.check(token.RANGLE) && (len(elems) == 3 || len(elems) == 5) {
		end := p.advance()
		if len(elems) == 3 {
			return ast.NewVector(spanOf(start.Range, end.Range), elems), nil
		}
		return ast.NewLocation(spanOf(start.Range, end.Range), elems), nil
	}
	p.pos = save
	return nil, p.errHere(InvalidToken, "expected a 3- or 5-component vector/location literal")
}

// parseConstruct parses the field-initializer block of a struct literal:
// `name { field = expr; ... }`.
func (p *Parser) parseConstruct(typeTok token.Token, typeNode ast.Node) (ast.Node, error) {
	lbrace := p.advance() // `{`
	var stmts []ast.Node
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		fieldTok, err := p.consume(token.IDENT, MissingIdentifier, "field name")
		if err != nil {
			return nil, err
		}
		field := ast.NewPrimary(fieldTok.Range, fieldTok)
		if _, err := p.consume(token.ASSIGN, InvalidToken, "'='"); err != nil {
			return nil, err
		}
		value, err := p.Expression()
		if err != nil {
			return nil, err
		}
		semi, err := p.consume(token.SEMI, MissingSemicolon, "';'")
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, ast.NewAssignment(spanOf(field.Range(), semi.Range), field, value))
	}
	rbrace, err := p.consume(token.RBRACE, MissingBrace, "'}'")
	if err != nil {
		return nil, err
	}
	body := ast.NewBlock(spanOf(lbrace.Range, rbrace.Range), stmts)
	return ast.NewConstruct(spanOf(typeTok.Range, rbrace.Range), typeNode, body), nil
}
