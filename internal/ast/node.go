// Package ast defines the abstract syntax tree consumed by the baseline
// code generator.
//
// The tree is the output of the front end after scope analysis: every
// variable reference is bound to a Variable with a storage Slot, every
// break and continue is bound to its target statement, and every function
// literal owns a Scope listing its parameters, stack locals, heap slots and
// declarations.
//
// Node hierarchy:
//
//	Node (interface)
//	├── Expr (interface) - expressions that produce values
//	│   ├── Literal, RegExpLit, ObjectLit, ArrayLit - literals
//	│   ├── FunctionLit, FunctionBoilerplateLit, ThisFunction - functions
//	│   ├── VarRef, Property - references
//	│   ├── Assign, CountOp, Unary, Binary, Compare, Conditional - operations
//	│   ├── Call, CallNew, CallRuntime - calls
//	│   └── Throw, CatchExtensionObject - special
//	└── Stmt (interface) - statements that perform actions
//	    ├── Block, ExprStmt, EmptyStmt, IfStmt - basic
//	    ├── DoWhileStmt, WhileStmt, ForStmt, ForInStmt, SwitchStmt - breakable
//	    ├── BreakStmt, ContinueStmt, ReturnStmt - control
//	    ├── TryCatchStmt, TryFinallyStmt - exception regions
//	    └── WithEnterStmt, WithExitStmt, DebuggerStmt - other
package ast

import "github.com/kolkov/ujit/internal/token"

// Node is the interface implemented by all AST nodes.
type Node interface {
	// Pos returns the position of the first character belonging to this node.
	Pos() token.Position

	// End returns the position of the first character immediately after this node.
	End() token.Position
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	exprNode() // marker method to prevent external implementations
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	stmtNode() // marker method to prevent external implementations
}

// BreakableStmt is a statement that a break can target.
type BreakableStmt interface {
	Stmt
	LabelSet() []string
}

// IterationStmt is a loop statement; a continue can target it.
type IterationStmt interface {
	BreakableStmt
	LoopBody() Stmt
}

// BaseExpr provides common fields for all expression nodes.
type BaseExpr struct {
	StartPos token.Position // Position of first token
	EndPos   token.Position // Position after last token
}

func (b *BaseExpr) Pos() token.Position { return b.StartPos }
func (b *BaseExpr) End() token.Position { return b.EndPos }
func (b *BaseExpr) exprNode()           {}

// SetSpan records the source range of the node.
func (b *BaseExpr) SetSpan(start, end token.Position) { b.StartPos, b.EndPos = start, end }

// BaseStmt provides common fields for all statement nodes.
type BaseStmt struct {
	StartPos token.Position // Position of first token
	EndPos   token.Position // Position after last token
}

func (b *BaseStmt) Pos() token.Position { return b.StartPos }
func (b *BaseStmt) End() token.Position { return b.EndPos }
func (b *BaseStmt) stmtNode()           {}

// SetSpan records the source range of the node.
func (b *BaseStmt) SetSpan(start, end token.Position) { b.StartPos, b.EndPos = start, end }

// Labels holds the label set of a breakable statement.
type Labels struct {
	Names []string
}

// LabelSet returns the labels attached to the statement.
func (l *Labels) LabelSet() []string { return l.Names }

// HasLabel reports whether name is one of the statement's labels.
func (l *Labels) HasLabel(name string) bool {
	for _, n := range l.Names {
		if n == name {
			return true
		}
	}
	return false
}

// IsPropertyName reports whether e is a string literal usable as a named
// property key (not an array index).
func IsPropertyName(e Expr) bool {
	lit, ok := e.(*Literal)
	if !ok || lit.Kind != LitString {
		return false
	}
	return !isArrayIndex(lit.Str)
}

func isArrayIndex(s string) bool {
	if s == "" || len(s) > 10 {
		return false
	}
	if s == "0" {
		return true
	}
	if s[0] == '0' {
		return false
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		n = n*10 + uint64(c-'0')
	}
	return n < 1<<32-1
}

// IsCompileTimeValue reports whether e can be built entirely at compile
// time into a literal boilerplate.
func IsCompileTimeValue(e Expr) bool {
	switch n := e.(type) {
	case *Literal:
		return true
	case *ObjectLit:
		return n.IsSimple()
	case *ArrayLit:
		return n.IsSimple()
	default:
		return false
	}
}

// -----------------------------------------------------------------------------
// Constructor helpers
// -----------------------------------------------------------------------------

// MakeBaseExpr creates a BaseExpr with the given positions.
func MakeBaseExpr(start, end token.Position) BaseExpr {
	return BaseExpr{StartPos: start, EndPos: end}
}

// MakeBaseStmt creates a BaseStmt with the given positions.
func MakeBaseStmt(start, end token.Position) BaseStmt {
	return BaseStmt{StartPos: start, EndPos: end}
}
