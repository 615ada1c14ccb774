package ast

// -----------------------------------------------------------------------------
// Basic statements
// -----------------------------------------------------------------------------

// Block is a statement list. Every block is a break target; labelled blocks
// can be left with a labelled break.
type Block struct {
	BaseStmt
	Labels
	Stmts []Stmt
}

// ExprStmt represents an expression evaluated for its side effects.
type ExprStmt struct {
	BaseStmt
	Expr Expr
}

// EmptyStmt represents a lone semicolon.
type EmptyStmt struct {
	BaseStmt
}

// IfStmt represents an if or if-else statement. Else is never nil; the
// loader fills in an EmptyStmt when the source has no else branch.
type IfStmt struct {
	BaseStmt
	Cond Expr
	Then Stmt
	Else Stmt
}

// -----------------------------------------------------------------------------
// Control transfer
// -----------------------------------------------------------------------------

// ContinueStmt jumps to the continue point of Target.
type ContinueStmt struct {
	BaseStmt
	Label  string        // Optional label
	Target IterationStmt // Bound by the resolver
}

// BreakStmt leaves Target.
type BreakStmt struct {
	BaseStmt
	Label  string        // Optional label
	Target BreakableStmt // Bound by the resolver
}

// ReturnStmt leaves the function. A nil Value returns undefined.
type ReturnStmt struct {
	BaseStmt
	Value Expr
}

// -----------------------------------------------------------------------------
// Dynamic scopes
// -----------------------------------------------------------------------------

// WithEnterStmt pushes Expr as a new dynamic scope on the context chain.
// Catch blocks use it with a CatchExtensionObject to bind the catch name.
type WithEnterStmt struct {
	BaseStmt
	Expr         Expr
	IsCatchBlock bool
}

// WithExitStmt pops the innermost dynamic scope.
type WithExitStmt struct {
	BaseStmt
}

// -----------------------------------------------------------------------------
// Breakable statements
// -----------------------------------------------------------------------------

// CaseClause is one arm of a switch. A nil Label marks the default arm.
type CaseClause struct {
	Label Expr
	Body  []Stmt
}

// SwitchStmt represents a switch statement.
type SwitchStmt struct {
	BaseStmt
	Labels
	Tag   Expr
	Cases []*CaseClause
}

// DoWhileStmt represents do { Body } while (Cond).
type DoWhileStmt struct {
	BaseStmt
	Labels
	Body Stmt
	Cond Expr
}

// WhileStmt represents while (Cond) { Body }.
type WhileStmt struct {
	BaseStmt
	Labels
	Cond Expr
	Body Stmt
}

// ForStmt represents for (Init; Cond; Next) Body. Any of Init, Cond and
// Next may be nil.
type ForStmt struct {
	BaseStmt
	Labels
	Init Stmt
	Cond Expr
	Next Stmt
	Body Stmt
}

// ForInStmt represents for (Each in Enumerable) Body.
type ForInStmt struct {
	BaseStmt
	Labels
	Each       Expr
	Enumerable Expr
	Body       Stmt
}

func (s *DoWhileStmt) LoopBody() Stmt { return s.Body }
func (s *WhileStmt) LoopBody() Stmt   { return s.Body }
func (s *ForStmt) LoopBody() Stmt     { return s.Body }
func (s *ForInStmt) LoopBody() Stmt   { return s.Body }

// -----------------------------------------------------------------------------
// Exception regions
// -----------------------------------------------------------------------------

// TryCatchStmt represents try { Try } catch (e) { Catch }. CatchVar refers to
// the hidden variable that receives the exception.
type TryCatchStmt struct {
	BaseStmt
	Try      *Block
	CatchVar *VarRef
	Catch    *Block
}

// TryFinallyStmt represents try { Try } finally { Finally }.
type TryFinallyStmt struct {
	BaseStmt
	Try     *Block
	Finally *Block
}

// DebuggerStmt represents a debugger statement.
type DebuggerStmt struct {
	BaseStmt
}
