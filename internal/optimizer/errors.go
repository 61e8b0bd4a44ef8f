// Package optimizer implements the line-splitting pass over an instr.Buffer,
// per spec.md §4.3, grounded on
// original_source/optimizer/src/{optimizer.rs,errors.rs}.
package optimizer

import "fmt"

// ErrorKind is the optimizer error taxonomy from spec.md §7. Generic,
// ExpectedBlock, and ExpectedIdentifier come from the original Rust
// ErrorRepr; MalformedBranch and SplitLoopExceeded are spec.md additions not
// present in the original (see DESIGN.md).
type ErrorKind int

const (
	Generic ErrorKind = iota
	ExpectedBlock
	ExpectedIdentifier
	MalformedBranch
	SplitLoopExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case Generic:
		return "generic optimizer error"
	case ExpectedBlock:
		return "expected block"
	case ExpectedIdentifier:
		return "expected identifier"
	case MalformedBranch:
		return "malformed branch"
	case SplitLoopExceeded:
		return "split loop exceeded"
	default:
		return "optimizer error"
	}
}

// Error carries the offending instruction index per spec.md §6/§7 ("instruction
// index for optimizer").
type Error struct {
	Kind             ErrorKind
	Message          string
	InstructionIndex int
	Headless         bool // true when no specific instruction index applies
}

func (e *Error) Error() string {
	if e.Headless {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s at instruction %d", e.Kind, e.Message, e.InstructionIndex)
}

func newErr(index int, kind ErrorKind, msg string) error {
	return &Error{Kind: kind, Message: msg, InstructionIndex: index}
}

func newErrHeadless(kind ErrorKind, msg string) error {
	return &Error{Kind: kind, Message: msg, Headless: true}
}
