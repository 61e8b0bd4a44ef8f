package lexer

import (
	"fmt"

	"github.com/eshc-lang/eshc/internal/token"
)

// ErrorKind categorizes a lex-time failure.
type ErrorKind int

const (
	InvalidCharacter ErrorKind = iota
	UnterminatedString
	InvalidNumber
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidCharacter:
		return "invalid character"
	case UnterminatedString:
		return "unterminated string"
	case InvalidNumber:
		return "invalid number"
	default:
		return "lex error"
	}
}

// Error is returned for any lexical failure. It carries the source range of
// the offending text and renders a Rust/Clang-style code snippet, matching
// the rest of the toolchain's error presentation.
type Error struct {
	Kind  ErrorKind
	Range token.Range
	Msg   string
	Input string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s\n%s", e.Kind, e.Msg, snippet(e.Input, e.Range))
}

func snippet(input string, r token.Range) string {
	lines := splitLines(input)
	if r.Start.Line < 1 || r.Start.Line > len(lines) {
		return ""
	}
	line := lines[r.Start.Line-1]
	out := fmt.Sprintf("  --> %d:%d\n   |\n%2d | %s\n   | ", r.Start.Line, r.Start.Column, r.Start.Line, line)
	if r.Start.Column > 0 && r.Start.Column <= len(line)+1 {
		for i := 0; i < r.Start.Column-1; i++ {
			out += " "
		}
		out += "^"
	}
	return out
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}
