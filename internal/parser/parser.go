// Package parser turns a token stream into the per-construct AST defined in
// internal/ast, by recursive descent with Pratt-style precedence climbing
// for expressions.
//
// Grounded in shape on pkgs/parser/parser.go's function-per-construct,
// (ast.Node, error)-returning style from the teacher repo, and validated
// against the authoritative per-construct node shapes confirmed by
// original_source/esh_parser/src/tests.rs (list_test, location_test,
// struct_test), per spec.md §9's resolution of the two-parser ambiguity.
package parser

import (
	"github.com/eshc-lang/eshc/internal/ast"
	"github.com/eshc-lang/eshc/internal/lexer"
	"github.com/eshc-lang/eshc/internal/suggest"
	"github.com/eshc-lang/eshc/internal/token"
)

// Parser holds parsing state over a fixed token slice.
type Parser struct {
	input       string
	tokens      []token.Token
	pos         int
	known       []string // identifiers seen in declaration position, for suggest
	inCondition int      // >0 while parsing an if/while condition; disables struct-literal parsing
}

// New tokenizes input and returns a Parser ready to parse it. Comments are
// retained by the lexer (spec.md's Data Model keeps them as literal-bearing
// tokens) but carry no grammar, so they are filtered out here rather than
// threaded through every construct in the recursive-descent grammar below.
func New(input string) (*Parser, error) {
	toks, err := lexer.Tokenize(input)
	if err != nil {
		return nil, err
	}
	return &Parser{input: input, tokens: withoutComments(toks)}, nil
}

func withoutComments(toks []token.Token) []token.Token {
	out := make([]token.Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind == token.COMMENT {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Parse is the top-level entry point: parses every statement in the input
// into a single Block.
func (p *Parser) Parse() (*ast.Block, error) {
	return p.StatementBlock()
}

// StatementBlock parses statements until end-of-input or a `}` (which is
// left unconsumed for the caller to match).
func (p *Parser) StatementBlock() (*ast.Block, error) {
	start := p.current().Range
	var stmts []ast.Node
	for !p.isAtEnd() && !p.check(token.RBRACE) {
		stmt, err := p.Statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	end := p.current().Range
	return ast.NewBlock(spanOf(start, end), stmts), nil
}

// Statement parses a single top-level form, dispatching on the head token.
func (p *Parser) Statement() (ast.Node, error) {
	switch p.current().Kind {
	case token.FUNC:
		return p.parseFunc()
	case token.STRUCT:
		return p.parseStruct()
	case token.IF:
		return p.parseIfChain()
	case token.WHILE:
		return p.parseWhile()
	case token.RETURN:
		return p.parseReturn()
	case token.EOF:
		return nil, p.errHere(UnexpectedEndOfInput, "unexpected end of input")
	default:
		return p.parseDeclAssignOrExprStatement()
	}
}

// ---- token-stream helpers ----

func (p *Parser) current() token.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind(offset int) token.Kind {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return token.EOF
	}
	return p.tokens[idx].Kind
}

func (p *Parser) isAtEnd() bool {
	return p.current().Kind == token.EOF
}

func (p *Parser) check(k token.Kind) bool {
	return p.current().Kind == k
}

func (p *Parser) advance() token.Token {
	t := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(k token.Kind, errKind ErrorKind, what string) (token.Token, error) {
	if p.check(k) {
		return p.advance(), nil
	}
	return token.Token{}, p.errHere(errKind, "expected %s, got %s", what, p.current().Kind)
}

func spanOf(start, end token.Range) token.Range {
	return token.Range{Start: start.Start, End: end.End}
}

func (p *Parser) declareKnown(name string) {
	p.known = append(p.known, name)
}

func (p *Parser) identErr(tok token.Token) error {
	e := p.errAt(MissingIdentifier, tok, "unexpected token %s", tok.Kind)
	if hint := suggest.Best(tok.Text, p.known); hint != "" {
		e.(*Error).Suggestion = hint
	}
	return e
}

// ---- statements ----

func (p *Parser) parseFunc() (ast.Node, error) {
	start := p.advance().Range // `func`
	nameTok, err := p.consume(token.IDENT, MissingIdentifier, "function name")
	if err != nil {
		return nil, err
	}
	name := ast.NewPrimary(nameTok.Range, nameTok)
	p.declareKnown(nameTok.Text)

	if _, err := p.consume(token.LPAREN, MissingParenthesis, "'('"); err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, MissingParenthesis, "')'"); err != nil {
		return nil, err
	}

	var retType ast.Node
	if p.match(token.ARROW) {
		retType, err = p.parseTypeExprOrTuple()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.consume(token.LBRACE, MissingBrace, "'{'"); err != nil {
		return nil, err
	}
	body, err := p.StatementBlock()
	if err != nil {
		return nil, err
	}
	end, err := p.consume(token.RBRACE, MissingBrace, "'}'")
	if err != nil {
		return nil, err
	}
	return ast.NewFunc(spanOf(start, end.Range), name, params, retType, body), nil
}

func (p *Parser) parseParamList() (*ast.Tuple, error) {
	start := p.current().Range
	var elems []ast.Node
	if !p.check(token.RPAREN) {
		for {
			typ, ok := p.tryParseTypeExpr()
			if !ok {
				return nil, p.identErr(p.current())
			}
			nameTok, err := p.consume(token.IDENT, MissingIdentifier, "parameter name")
			if err != nil {
				return nil, err
			}
			name := ast.NewPrimary(nameTok.Range, nameTok)
			p.declareKnown(nameTok.Text)
			elems = append(elems, ast.NewDeclaration(spanOf(typ.Range(), name.Range()), typ, name))
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	return ast.NewTuple(spanOf(start, p.current().Range), elems), nil
}

// tryParseTypeExpr attempts to parse a type reference: an identifier
// optionally suffixed by one or more empty `[]` pairs. It does not consume
// anything and returns (nil, false) if the current token isn't an
// identifier.
func (p *Parser) tryParseTypeExpr() (ast.Node, bool) {
	if !p.check(token.IDENT) {
		return nil, false
	}
	tok := p.advance()
	node := ast.Node(ast.NewPrimary(tok.Range, tok))
	for p.check(token.LBRACKET) && p.peekKind(1) == token.RBRACKET {
		p.advance()
		end := p.advance()
		node = ast.NewListCall(spanOf(node.Range(), end.Range), node, nil)
	}
	return node, true
}

func (p *Parser) parseTypeExprOrTuple() (ast.Node, error) {
	if p.check(token.LPAREN) {
		start := p.advance()
		var elems []ast.Node
		if !p.check(token.RPAREN) {
			for {
				t, ok := p.tryParseTypeExpr()
				if !ok {
					return nil, p.identErr(p.current())
				}
				elems = append(elems, t)
				if !p.match(token.COMMA) {
					break
				}
			}
		}
		end, err := p.consume(token.RPAREN, MissingParenthesis, "')'")
		if err != nil {
			return nil, err
		}
		return ast.NewTuple(spanOf(start.Range, end.Range), elems), nil
	}
	t, ok := p.tryParseTypeExpr()
	if !ok {
		return nil, p.identErr(p.current())
	}
	return t, nil
}

func (p *Parser) parseStruct() (ast.Node, error) {
	start := p.advance().Range // `struct`
	nameTok, err := p.consume(token.IDENT, MissingIdentifier, "struct name")
	if err != nil {
		return nil, err
	}
	name := ast.NewPrimary(nameTok.Range, nameTok)
	p.declareKnown(nameTok.Text)
	if _, err := p.consume(token.LBRACE, MissingBrace, "'{'"); err != nil {
		return nil, err
	}
	body, err := p.StatementBlock()
	if err != nil {
		return nil, err
	}
	end, err := p.consume(token.RBRACE, MissingBrace, "'}'")
	if err != nil {
		return nil, err
	}
	return ast.NewStruct(spanOf(start, end.Range), name, body), nil
}

// parseIfChain parses `if ... { } [else ...]`, producing an *ast.If when
// there is no else clause, or a right-associated *ast.Else chain otherwise.
func (p *Parser) parseIfChain() (ast.Node, error) {
	ifNode, err := p.parseIf()
	if err != nil {
		return nil, err
	}
	if !p.match(token.ELSE) {
		return ifNode, nil
	}
	var branch ast.Node
	if p.check(token.IF) {
		branch, err = p.parseIfChain()
		if err != nil {
			return nil, err
		}
	} else {
		if _, err := p.consume(token.LBRACE, MissingBrace, "'{'"); err != nil {
			return nil, err
		}
		block, err := p.StatementBlock()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RBRACE, MissingBrace, "'}'"); err != nil {
			return nil, err
		}
		branch = block
	}
	return ast.NewElse(spanOf(ifNode.Range(), branch.Range()), ifNode, branch), nil
}

func (p *Parser) parseIf() (*ast.If, error) {
	start := p.advance().Range // `if`
	p.inCondition++
	cond, err := p.Expression()
	p.inCondition--
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, MissingBrace, "'{'"); err != nil {
		return nil, err
	}
	then, err := p.StatementBlock()
	if err != nil {
		return nil, err
	}
	end, err := p.consume(token.RBRACE, MissingBrace, "'}'")
	if err != nil {
		return nil, err
	}
	return ast.NewIf(spanOf(start, end.Range), cond, then), nil
}

func (p *Parser) parseWhile() (ast.Node, error) {
	start := p.advance().Range // `while`
	p.inCondition++
	cond, err := p.Expression()
	p.inCondition--
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, MissingBrace, "'{'"); err != nil {
		return nil, err
	}
	body, err := p.StatementBlock()
	if err != nil {
		return nil, err
	}
	end, err := p.consume(token.RBRACE, MissingBrace, "'}'")
	if err != nil {
		return nil, err
	}
	return ast.NewWhile(spanOf(start, end.Range), cond, body), nil
}

func (p *Parser) parseReturn() (ast.Node, error) {
	start := p.advance().Range // `return`
	var value ast.Node
	if !p.check(token.SEMI) {
		v, err := p.Expression()
		if err != nil {
			return nil, err
		}
		value = v
	}
	end, err := p.consume(token.SEMI, MissingSemicolon, "';'")
	if err != nil {
		return nil, err
	}
	return ast.NewReturn(spanOf(start, end.Range), value), nil
}

// parseDeclAssignOrExprStatement implements the type-declaration vs.
// identifier-expression disambiguation rule from spec.md §4.2: a tentative
// parse of "identifier ... identifier" is a Declaration; otherwise the
// cursor is restored and the statement is parsed as an expression statement
// (plain expression or assignment to an existing lvalue).
func (p *Parser) parseDeclAssignOrExprStatement() (ast.Node, error) {
	save := p.pos
	if typ, ok := p.tryParseTypeExpr(); ok && p.check(token.IDENT) {
		nameTok := p.advance()
		name := ast.NewPrimary(nameTok.Range, nameTok)
		p.declareKnown(nameTok.Text)
		decl := ast.NewDeclaration(spanOf(typ.Range(), name.Range()), typ, name)
		if p.match(token.ASSIGN) {
			value, err := p.Expression()
			if err != nil {
				return nil, err
			}
			end, err := p.consume(token.SEMI, MissingSemicolon, "';'")
			if err != nil {
				return nil, err
			}
			return ast.NewAssignment(spanOf(decl.Range(), end.Range), decl, value), nil
		}
		if _, err := p.consume(token.SEMI, MissingSemicolon, "';'"); err != nil {
			return nil, err
		}
		return decl, nil
	}
	p.pos = save

	expr, err := p.Expression()
	if err != nil {
		return nil, err
	}
	if p.match(token.ASSIGN) {
		value, err := p.Expression()
		if err != nil {
			return nil, err
		}
		end, err := p.consume(token.SEMI, MissingSemicolon, "';'")
		if err != nil {
			return nil, err
		}
		return ast.NewAssignment(spanOf(expr.Range(), end.Range), expr, value), nil
	}
	if _, err := p.consume(token.SEMI, MissingSemicolon, "';'"); err != nil {
		return nil, err
	}
	return expr, nil
}
