// Package typecheck implements the one-pass structural type-checker both
// transforms re-run on their input and output (spec.md §4.2).
package typecheck

import "fmt"

// Kind tags the single error condition this checker raises.
type Kind int

const (
	// TypeMismatch is raised whenever an instruction's declared result
	// type, a call's argument types, or a terminal's type disagrees with
	// what the checker infers.
	TypeMismatch Kind = iota
)

func (k Kind) String() string {
	if k == TypeMismatch {
		return "TypeMismatch"
	}
	return "?"
}

// Error is the structured diagnostic the checker returns, naming the
// offending instruction and the mismatch — the same flat, tagged-value
// idiom the IR itself uses, adapted from the teacher's addError/Errors()
// collected-diagnostics pattern to a single first-error-wins value, since
// this checker fails fast rather than collecting every defect.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(format string, args ...any) *Error {
	return &Error{Kind: TypeMismatch, Message: fmt.Sprintf(format, args...)}
}
