package compiler

import "fmt"

// Error is a Mini32 source error: the line it was found on and a message,
// in the same Position-bearing style as the assembler's *asm.Error.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func newError(line int, format string, args ...any) *Error {
	return &Error{Line: line, Message: fmt.Sprintf(format, args...)}
}
