package ujit

import (
	"errors"
	"fmt"

	"github.com/kolkov/ujit/internal/astjson"
	"github.com/kolkov/ujit/internal/compiler"
	"github.com/kolkov/ujit/internal/semantic"
	"github.com/kolkov/ujit/internal/token"
	"github.com/kolkov/ujit/internal/vm"
)

var (
	// ErrUnsupported is wrapped by every UnsupportedError.
	ErrUnsupported = compiler.ErrUnsupported

	// ErrStackOverflow is wrapped by the CompileError of a tree nested too
	// deeply to generate.
	ErrStackOverflow = compiler.ErrStackOverflow
)

// Location is a source position. Line and Column are 1-based; a zero
// Line means the position is unknown.
type Location struct {
	Filename string
	Line     int
	Column   int
}

func locationOf(pos token.Position) Location {
	return Location{Filename: pos.Filename, Line: pos.Line, Column: pos.Column}
}

func (l Location) String() string {
	switch {
	case l.Line == 0:
		return l.Filename
	case l.Filename == "":
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	default:
		return fmt.Sprintf("%s:%d:%d", l.Filename, l.Line, l.Column)
	}
}

// LoadError represents malformed or unsupported input syntax.
type LoadError struct {
	Location
	Message string
}

func (e *LoadError) Error() string {
	if e.Line == 0 {
		return "load error: " + e.Message
	}
	return fmt.Sprintf("load error at %s: %s", e.Location, e.Message)
}

// CompileError represents a scope error or a tree that could not be
// generated.
type CompileError struct {
	Location
	Message string
	Err     error // Underlying error, if any
}

func (e *CompileError) Error() string {
	if e.Line == 0 {
		return "compile error: " + e.Message
	}
	return fmt.Sprintf("compile error at %s: %s", e.Location, e.Message)
}

func (e *CompileError) Unwrap() error { return e.Err }

// UnsupportedError reports a function the baseline generator declined.
// Reason names the first rejected construct.
type UnsupportedError struct {
	Location
	Function string
	Reason   string
}

func (e *UnsupportedError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("unsupported: %s: %s", e.Function, e.Reason)
	}
	return fmt.Sprintf("unsupported at %s: %s: %s", e.Location, e.Function, e.Reason)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// RuntimeError represents an uncaught exception or an aborted run.
type RuntimeError struct {
	Location
	Function string // Function executing when the error was raised
	Message  string
	Err      error // Underlying error, such as context.Canceled
}

func (e *RuntimeError) Error() string {
	if e.Line == 0 {
		return "runtime error: " + e.Message
	}
	return fmt.Sprintf("runtime error at %s: %s", e.Location, e.Message)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// IsUncaught reports whether err is a script exception nothing caught and
// returns its printed value.
func IsUncaught(err error) (string, bool) {
	var te *vm.ThrowError
	if errors.As(err, &te) {
		return te.Value.ToString(), true
	}
	return "", false
}

// loadError converts a loader error.
func loadError(err error) error {
	var le *astjson.Error
	if errors.As(err, &le) {
		return &LoadError{Location: locationOf(le.Pos), Message: le.Message}
	}
	return &LoadError{Message: err.Error()}
}

// generateError converts an error of the resolver or the generator.
func generateError(err error) error {
	var ue *compiler.UnsupportedError
	if errors.As(err, &ue) {
		return &UnsupportedError{
			Location: locationOf(ue.Verdict.Pos),
			Function: ue.Function,
			Reason:   ue.Verdict.Reason,
		}
	}
	var el semantic.ErrorList
	if errors.As(err, &el) && len(el) > 0 {
		return &CompileError{Location: locationOf(el[0].Pos), Message: el[0].Message, Err: err}
	}
	return &CompileError{Message: err.Error(), Err: err}
}

// runError converts an error returned by the VM.
func runError(err error) error {
	var te *vm.ThrowError
	if errors.As(err, &te) {
		return &RuntimeError{
			Location: locationOf(te.Pos),
			Function: te.Function,
			Message:  "uncaught exception: " + te.Value.ToString(),
			Err:      err,
		}
	}
	if errors.Is(err, compiler.ErrUnsupported) {
		// A nested function was declined when first called.
		return generateError(err)
	}
	return &RuntimeError{Message: err.Error(), Err: err}
}
