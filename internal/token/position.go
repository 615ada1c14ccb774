package token

import "fmt"

// Position is a source location read from an ESTree node's loc and
// range. Line and Column count from 1; Offset is the character offset
// reported by the parser and counts from 0.
type Position struct {
	Filename string
	Line     int
	Column   int
	Offset   int
}

// NoPos marks nodes built without source information, such as the
// statements a loader synthesizes.
var NoPos = Position{}

// IsValid reports whether the position carries a line.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// String formats p as file:line:column, or line:column without a file
// name. Unknown positions print as "-".
func (p Position) String() string {
	switch {
	case !p.IsValid():
		return "-"
	case p.Filename == "":
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	default:
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
}
