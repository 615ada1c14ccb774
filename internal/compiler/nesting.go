package compiler

import (
	"fmt"

	"github.com/kolkov/ujit/internal/ast"
	"github.com/kolkov/ujit/internal/masm"
)

// NestingKind identifies a construct that a break, continue or return
// may have to leave.
type NestingKind uint8

const (
	Breakable  NestingKind = iota // Block or other break target
	Iteration                     // Loop; break and continue target
	TryCatch                      // Protected region of a try/catch
	TryFinally                    // Protected region of a try/finally
	Finally                       // Body of a finally block
)

var nestingNames = [...]string{
	Breakable:  "Breakable",
	Iteration:  "Iteration",
	TryCatch:   "TryCatch",
	TryFinally: "TryFinally",
	Finally:    "Finally",
}

func (k NestingKind) String() string {
	if int(k) < len(nestingNames) {
		return nestingNames[k]
	}
	return fmt.Sprintf("NestingKind(%d)", k)
}

// nestedStmt is one entry of the nesting stack.
type nestedStmt struct {
	kind NestingKind
	stmt ast.Stmt // Breakable and Iteration only

	breakLabel    masm.Label
	continueLabel masm.Label
	finallyEntry  *masm.Label // TryFinally only
}

func (n *nestedStmt) isBreakTarget(target ast.BreakableStmt) bool {
	return (n.kind == Breakable || n.kind == Iteration) && n.stmt == ast.Stmt(target)
}

func (n *nestedStmt) isContinueTarget(target ast.IterationStmt) bool {
	return n.kind == Iteration && n.stmt == ast.Stmt(target)
}

// nestingStack records the constructs enclosing the code being
// generated, innermost last.
type nestingStack struct {
	frames []*nestedStmt
}

func (s *nestingStack) push(n *nestedStmt) {
	s.frames = append(s.frames, n)
}

// pop removes n, which must be the innermost entry.
func (s *nestingStack) pop(n *nestedStmt) {
	top := len(s.frames) - 1
	if top < 0 || s.frames[top] != n {
		panic("compiler: unbalanced nesting stack")
	}
	s.frames[top] = nil
	s.frames = s.frames[:top]
}

func (s *nestingStack) depth() int { return len(s.frames) }

// nested runs body with n pushed on the nesting stack. The entry is
// popped even when body panics.
func (c *codegen) nested(n *nestedStmt, body func()) {
	c.nesting.push(n)
	defer c.nesting.pop(n)
	body()
}

// exitNested emits the code that leaves n on the way out of a break,
// continue or return. depth is the number of stack elements the
// transfer must discard so far; the result is the new count.
func (c *codegen) exitNested(n *nestedStmt, depth int) int {
	switch n.kind {
	case Breakable, Iteration:
		return depth
	case TryCatch:
		c.masm.Drop(depth)
		c.masm.PopTryHandler()
		return 0
	case TryFinally:
		c.masm.Drop(depth)
		c.masm.PopTryHandler()
		c.masm.Call(n.finallyEntry)
		return 0
	case Finally:
		// The saved accumulator and the return address.
		return depth + 2
	default:
		panic(fmt.Sprintf("compiler: unknown nesting kind %s", n.kind))
	}
}

// unwindTo emits the exits of every entry above the first one accepted by
// stop and returns that entry. A nil stop unwinds the whole stack and
// returns nil.
func (c *codegen) unwindTo(stop func(*nestedStmt) bool) *nestedStmt {
	depth := 0
	var target *nestedStmt
	for i := len(c.nesting.frames) - 1; i >= 0; i-- {
		n := c.nesting.frames[i]
		if stop != nil && stop(n) {
			target = n
			break
		}
		depth = c.exitNested(n, depth)
	}
	if stop != nil && target == nil {
		panic("compiler: control transfer target is not an enclosing statement")
	}
	c.masm.Drop(depth)
	return target
}
