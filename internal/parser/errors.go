package parser

import (
	"fmt"
	"strings"

	"github.com/eshc-lang/eshc/internal/token"
)

// ErrorKind is the parse-error taxonomy from spec.md §7.
type ErrorKind int

const (
	InvalidToken ErrorKind = iota
	InvalidStatement
	MissingIdentifier
	MissingSemicolon
	MissingParenthesis
	MissingBrace
	UnexpectedEndOfInput
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidToken:
		return "invalid token"
	case InvalidStatement:
		return "invalid statement"
	case MissingIdentifier:
		return "missing identifier"
	case MissingSemicolon:
		return "missing semicolon"
	case MissingParenthesis:
		return "missing parenthesis"
	case MissingBrace:
		return "missing brace"
	case UnexpectedEndOfInput:
		return "unexpected end of input"
	default:
		return "parse error"
	}
}

// Error is a single parse failure. Rendering follows
// runtime/parser/errors.go's Rust/Clang-style code snippet (-->, |, caret).
type Error struct {
	Kind       ErrorKind
	Message    string
	Token      token.Token
	Input      string
	Suggestion string // optional "did you mean" hint, see internal/suggest
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s (did you mean '%s'?)", msg, e.Suggestion)
	}
	return fmt.Sprintf("%s: %s\n%s", e.Kind, msg, e.snippet())
}

func (e *Error) snippet() string {
	if e.Input == "" || e.Token.Range.Start.Line == 0 {
		return ""
	}
	lines := strings.Split(e.Input, "\n")
	lineNo := e.Token.Range.Start.Line
	if lineNo > len(lines) {
		return ""
	}
	lineContent := lines[lineNo-1]
	col := e.Token.Range.Start.Column

	var b strings.Builder
	fmt.Fprintf(&b, "  --> %d:%d\n", lineNo, col)
	b.WriteString("   |\n")
	fmt.Fprintf(&b, "%2d | %s\n", lineNo, lineContent)
	b.WriteString("   | ")
	if col > 0 && col <= len(lineContent)+1 {
		b.WriteString(strings.Repeat(" ", col-1) + "^")
	}
	return b.String()
}

func (p *Parser) errAt(kind ErrorKind, tok token.Token, format string, args ...any) error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Token:   tok,
		Input:   p.input,
	}
}

func (p *Parser) errHere(kind ErrorKind, format string, args ...any) error {
	return p.errAt(kind, p.current(), format, args...)
}
