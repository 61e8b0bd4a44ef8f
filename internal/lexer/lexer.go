// Package lexer scans source text into a stream of token.Token values.
//
// Grounded on the original Rust lexer (lexer/src/lib.rs: Lexer.next_char,
// skip_whitespace, parse_ident, parse_string) generalized to cover the full
// punctuation/number surface the parser needs, per spec.md §4.1.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/eshc-lang/eshc/internal/token"
)

// Lexer scans a single source string. It holds no buffering machinery; like
// the teacher's simpler lexers it reads the whole input up front.
type Lexer struct {
	input string
	pos   int // byte offset
	line  int
	col   int
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{input: src, pos: 0, line: 1, col: 1}
}

func (l *Lexer) errAt(start token.Position, kind ErrorKind, msg string) error {
	return &Error{
		Kind:  kind,
		Range: token.Range{Start: start, End: l.position()},
		Msg:   msg,
		Input: l.input,
	}
}

func (l *Lexer) position() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) peek() rune {
	if l.atEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *Lexer) peekAt(offset int) rune {
	p := l.pos
	for i := 0; i < offset && p < len(l.input); i++ {
		_, n := utf8.DecodeRuneInString(l.input[p:])
		p += n
	}
	if p >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[p:])
	return r
}

func (l *Lexer) advance() rune {
	if l.atEnd() {
		return 0
	}
	r, n := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += n
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// skipWhitespace consumes runs of plain whitespace only. Comments are
// retained as token.COMMENT tokens (spec.md's Data Model lists "comment"
// as a literal-carrying kind), so they are lexed in Next rather than
// discarded here.
func (l *Lexer) skipWhitespace() {
	for !l.atEnd() {
		c := l.peek()
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			l.advance()
			continue
		}
		return
	}
}

func isLetter(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Next scans and returns the next token, or an *Error if the source cannot
// be tokenized from this position. At the end of input it returns a token
// with Kind == token.EOF and a nil error.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespace()
	start := l.position()

	if l.atEnd() {
		return token.Token{Kind: token.EOF, Range: token.Range{Start: start, End: start}}, nil
	}

	c := l.peek()

	switch {
	case c == '/' && l.peekAt(1) == '/':
		return l.lexComment(start), nil
	case isLetter(c):
		return l.lexIdent(start), nil
	case isDigit(c):
		return l.lexNumber(start)
	case c == '"':
		return l.lexString(start)
	default:
		return l.lexPunct(start)
	}
}

// lexComment scans a "//" line comment and retains its text (spec.md's Data
// Model carries comment as a literal-bearing token kind rather than trivia to
// be discarded). Text excludes the leading "//" and the terminating newline.
func (l *Lexer) lexComment(start token.Position) token.Token {
	l.advance()
	l.advance()
	begin := l.pos
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
	return token.Token{Kind: token.COMMENT, Text: l.input[begin:l.pos], Range: token.Range{Start: start, End: l.position()}}
}

func (l *Lexer) lexIdent(start token.Position) token.Token {
	begin := l.pos
	for !l.atEnd() && (isLetter(l.peek()) || isDigit(l.peek())) {
		l.advance()
	}
	text := l.input[begin:l.pos]
	kind := token.IDENT
	if kw, ok := token.Keywords[text]; ok {
		kind = kw
	}
	return token.Token{Kind: kind, Text: text, Range: token.Range{Start: start, End: l.position()}}
}

func (l *Lexer) lexNumber(start token.Position) (token.Token, error) {
	begin := l.pos
	for !l.atEnd() && isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()
		for !l.atEnd() && isDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		save := l.pos
		saveLine, saveCol := l.line, l.col
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if isDigit(l.peek()) {
			for !l.atEnd() && isDigit(l.peek()) {
				l.advance()
			}
		} else {
			l.pos, l.line, l.col = save, saveLine, saveCol
		}
	}
	if !l.atEnd() && isLetter(l.peek()) {
		return token.Token{}, l.errAt(start, InvalidNumber, "invalid number literal")
	}
	text := l.input[begin:l.pos]
	return token.Token{Kind: token.NUMBER, Text: text, Range: token.Range{Start: start, End: l.position()}}, nil
}

func (l *Lexer) lexString(start token.Position) (token.Token, error) {
	l.advance() // opening quote
	var b strings.Builder
	for {
		if l.atEnd() {
			return token.Token{}, l.errAt(start, UnterminatedString, "unterminated string literal")
		}
		c := l.advance()
		if c == '"' {
			break
		}
		if c == '\\' {
			if l.atEnd() {
				return token.Token{}, l.errAt(start, UnterminatedString, "unterminated string literal")
			}
			esc := l.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteRune(esc)
			}
			continue
		}
		b.WriteRune(c)
	}
	return token.Token{Kind: token.STRING, Text: b.String(), Range: token.Range{Start: start, End: l.position()}}, nil
}

// twoCharTokens is checked before single-char tokens (longest match wins).
var twoCharTokens = map[string]token.Kind{
	"==": token.EQUAL, "!=": token.NOT_EQUAL, "<=": token.LESS_EQ, ">=": token.GREATER_EQ,
	"||": token.OR, "&&": token.AND, "->": token.ARROW,
}

var singleCharTokens = map[rune]token.Kind{
	'=': token.ASSIGN, '<': token.LANGLE, '>': token.RANGLE,
	'+': token.PLUS, '-': token.MINUS, '*': token.STAR, '/': token.SLASH, '%': token.PERCENT,
	'!': token.BANG, ',': token.COMMA, '.': token.DOT, ';': token.SEMI,
	'|': token.PIPE, '&': token.AMP, ':': token.COLON,
	'{': token.LBRACE, '}': token.RBRACE, '(': token.LPAREN, ')': token.RPAREN,
	'[': token.LBRACKET, ']': token.RBRACKET,
}

func (l *Lexer) lexPunct(start token.Position) (token.Token, error) {
	c := l.peek()
	two := string(c) + string(l.peekAt(1))
	if kind, ok := twoCharTokens[two]; ok {
		l.advance()
		l.advance()
		return token.Token{Kind: kind, Text: two, Range: token.Range{Start: start, End: l.position()}}, nil
	}
	if kind, ok := singleCharTokens[c]; ok {
		l.advance()
		return token.Token{Kind: kind, Text: string(c), Range: token.Range{Start: start, End: l.position()}}, nil
	}
	l.advance()
	return token.Token{}, l.errAt(start, InvalidCharacter, "unexpected character "+strconvQuote(c))
}

func strconvQuote(r rune) string {
	return "'" + string(r) + "'"
}

// Tokenize scans src to completion, returning every token up to and
// including the terminal EOF token, or the first lexical error encountered.
func Tokenize(src string) ([]token.Token, error) {
	l := New(src)
	var toks []token.Token
	for {
		t, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks, nil
		}
	}
}
