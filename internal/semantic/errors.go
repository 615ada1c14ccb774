// Package semantic provides scope analysis and the support check that
// gates the baseline code generator.
//
// The resolver performs:
//   - Name resolution: binding every reference to a variable
//   - Slot allocation: parameters, stack locals and context slots
//   - Literal numbering: one materialization slot per regexp, object
//     and array literal
//   - Jump binding: attaching break and continue to their targets
//
// The support check walks a resolved function and reports whether the
// baseline generator can handle every construct it contains.
package semantic

import (
	"fmt"
	"strings"

	"github.com/kolkov/ujit/internal/token"
)

// Error is a scope error at a source position.
type Error struct {
	Pos     token.Position
	Message string
}

func (e *Error) Error() string {
	if !e.Pos.IsValid() {
		return e.Message
	}
	return e.Pos.String() + ": " + e.Message
}

// ErrorList collects the scope errors of one resolution, in the order
// they were found.
type ErrorList []*Error

// Add records an error.
func (el *ErrorList) Add(pos token.Position, format string, args ...any) {
	*el = append(*el, &Error{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Err returns el as an error, or nil when nothing was recorded.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// Error joins the messages, one per line.
func (el ErrorList) Error() string {
	msgs := make([]string, len(el))
	for i, e := range el {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Scope error messages.
const (
	errBreakOutsideLoop    = "break statement must be inside a loop or switch"
	errContinueOutsideLoop = "continue statement must be inside a loop"
	errContinueNotLoop     = "continue target %q is not a loop"
	errUndefinedLabel      = "undefined label %q"
	errReturnOutsideFunc   = "return statement must be inside a function"
	errUnbalancedWith      = "with exit without matching enter"
	errUnknownNode         = "unexpected node %T"
)
