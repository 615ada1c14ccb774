package semantic

import (
	"fmt"
	"strings"

	"github.com/kolkov/ujit/internal/ast"
	"github.com/kolkov/ujit/internal/token"
)

// CheckOptions tunes the support check.
type CheckOptions struct {
	// RejectFor declines for statements, as the baseline generator did
	// when it was new.
	RejectFor bool
}

// Verdict is the outcome of a support check. Reason and Pos describe the
// first rejected construct.
type Verdict struct {
	Supported bool
	Reason    string
	Pos       token.Position
}

// String returns a human-readable verdict.
func (v Verdict) String() string {
	if v.Supported {
		return "supported"
	}
	if v.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", v.Pos, v.Reason)
	}
	return v.Reason
}

// Rejection reasons. Each rejected construct has its own reason.
const (
	ReasonContextParams       = "Function has context-allocated parameters."
	ReasonSwitch              = "SwitchStatement"
	ReasonFor                 = "ForStatement"
	ReasonForIn               = "ForInStatement"
	ReasonBoilerplate         = "FunctionBoilerplateLiteral"
	ReasonLookupSlot          = "Lookup slot"
	ReasonInitConst           = "initialize constant"
	ReasonAssignConst         = "Assignment to const"
	ReasonBadAssignTarget     = "non-variable/non-property assignment"
	ReasonEvalCall            = "call to the identifier 'eval'"
	ReasonLookupCall          = "call to a lookup slot"
	ReasonInlineRuntime       = "inlined runtime call"
	ReasonBitNot              = "UnaryOperation: BIT_NOT"
	ReasonDelete              = "UnaryOperation: DELETE"
	ReasonUnaryPlus           = "UnaryOperation: ADD"
	ReasonUnaryMinus          = "UnaryOperation: SUB"
	ReasonCountLookup         = "CountOperation with lookup slot"
	ReasonBadCountTarget      = "CountOperation non-variable/non-property expression"
	reasonUnexpectedUnaryForm = "UnaryOperation: %s"
)

// inlineRuntime lists the runtime functions the optimizing generator
// expands inline. The baseline generator has no inline versions.
var inlineRuntime = map[string]bool{
	"_IsSmi":                true,
	"_IsNonNegativeSmi":     true,
	"_IsArray":              true,
	"_IsConstructCall":      true,
	"_ArgumentsLength":      true,
	"_Arguments":            true,
	"_ClassOf":              true,
	"_ValueOf":              true,
	"_SetValueOf":           true,
	"_FastCharCodeAt":       true,
	"_ObjectEquals":         true,
	"_Log":                  true,
	"_RandomPositiveSmi":    true,
	"_MathSin":              true,
	"_MathCos":              true,
	"_StringAdd":            true,
	"_SubString":            true,
	"_StringCompare":        true,
	"_RegExpExec":           true,
	"_NumberToString":       true,
	"_IsObject":             true,
	"_IsFunction":           true,
	"_IsUndetectableObject": true,
}

// IsInlineRuntime reports whether name is a runtime function with an
// inline expansion.
func IsInlineRuntime(name string) bool {
	return strings.HasPrefix(name, "_") && inlineRuntime[name]
}

// Checker decides whether the baseline generator supports a function.
// It keeps a single verdict flag; once cleared every visit returns
// immediately and the traversal unwinds normally.
type Checker struct {
	opts   CheckOptions
	ok     bool
	reason string
	pos    token.Position
}

// CheckSupport reports whether every construct reachable from fn's body
// and declarations is supported. Nested function bodies are checked when
// they are compiled, not here.
func CheckSupport(fn *ast.FunctionLit, opts CheckOptions) Verdict {
	c := &Checker{opts: opts, ok: true}
	c.check(fn)
	return Verdict{Supported: c.ok, Reason: c.reason, Pos: c.pos}
}

func (c *Checker) check(fn *ast.FunctionLit) {
	scope := fn.Scope
	if scope != nil && scope.NumHeapSlots > 0 && scope.HasContextParams() {
		c.bailout(fn, ReasonContextParams)
		return
	}
	if scope != nil {
		for _, d := range scope.Decls {
			if d.Fun != nil && !c.visit(d.Fun) {
				return
			}
		}
	}
	c.visitStmts(fn.Body)
}

// bailout clears the verdict flag, recording the first reason only.
func (c *Checker) bailout(n ast.Node, reason string) bool {
	if c.ok {
		c.ok = false
		c.reason = reason
		if n != nil {
			c.pos = n.Pos()
		}
	}
	return false
}

func (c *Checker) visit(n ast.Node) bool {
	if !c.ok {
		return false
	}
	return ast.Accept[bool](n, c)
}

func (c *Checker) visitStmts(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		if !c.visit(s) {
			return false
		}
	}
	return c.ok
}

func (c *Checker) visitExprs(exprs []ast.Expr) bool {
	for _, e := range exprs {
		if !c.visit(e) {
			return false
		}
	}
	return c.ok
}

// ----------------------------------------------------------------------------
// Statements

func (c *Checker) VisitBlock(s *ast.Block) bool       { return c.visitStmts(s.Stmts) }
func (c *Checker) VisitExprStmt(s *ast.ExprStmt) bool { return c.visit(s.Expr) }
func (c *Checker) VisitEmptyStmt(*ast.EmptyStmt) bool { return true }

func (c *Checker) VisitIfStmt(s *ast.IfStmt) bool {
	return c.visit(s.Cond) && c.visit(s.Then) && c.visit(s.Else)
}

func (c *Checker) VisitContinueStmt(*ast.ContinueStmt) bool { return true }
func (c *Checker) VisitBreakStmt(*ast.BreakStmt) bool       { return true }

func (c *Checker) VisitReturnStmt(s *ast.ReturnStmt) bool {
	if s.Value == nil {
		return true
	}
	return c.visit(s.Value)
}

func (c *Checker) VisitWithEnterStmt(s *ast.WithEnterStmt) bool { return c.visit(s.Expr) }
func (c *Checker) VisitWithExitStmt(*ast.WithExitStmt) bool     { return true }

func (c *Checker) VisitSwitchStmt(s *ast.SwitchStmt) bool {
	return c.bailout(s, ReasonSwitch)
}

func (c *Checker) VisitDoWhileStmt(s *ast.DoWhileStmt) bool {
	return c.visit(s.Cond) && c.visit(s.Body)
}

func (c *Checker) VisitWhileStmt(s *ast.WhileStmt) bool {
	return c.visit(s.Cond) && c.visit(s.Body)
}

func (c *Checker) VisitForStmt(s *ast.ForStmt) bool {
	if c.opts.RejectFor {
		return c.bailout(s, ReasonFor)
	}
	if s.Init != nil && !c.visit(s.Init) {
		return false
	}
	if s.Cond != nil && !c.visit(s.Cond) {
		return false
	}
	if !c.visit(s.Body) {
		return false
	}
	if s.Next != nil {
		return c.visit(s.Next)
	}
	return true
}

func (c *Checker) VisitForInStmt(s *ast.ForInStmt) bool {
	return c.bailout(s, ReasonForIn)
}

func (c *Checker) VisitTryCatchStmt(s *ast.TryCatchStmt) bool {
	return c.visit(s.Try) && c.visit(s.Catch)
}

func (c *Checker) VisitTryFinallyStmt(s *ast.TryFinallyStmt) bool {
	return c.visit(s.Try) && c.visit(s.Finally)
}

func (c *Checker) VisitDebuggerStmt(*ast.DebuggerStmt) bool { return true }

// ----------------------------------------------------------------------------
// Expressions

// VisitFunctionLit accepts function literals; their bodies are checked
// separately when the closure is first compiled.
func (c *Checker) VisitFunctionLit(*ast.FunctionLit) bool { return true }

func (c *Checker) VisitFunctionBoilerplateLit(e *ast.FunctionBoilerplateLit) bool {
	return c.bailout(e, ReasonBoilerplate)
}

func (c *Checker) VisitConditional(e *ast.Conditional) bool {
	return c.visit(e.Cond) && c.visit(e.Then) && c.visit(e.Else)
}

func (c *Checker) VisitVarRef(e *ast.VarRef) bool {
	if e.Var != nil && e.Var.IsLookup() {
		return c.bailout(e, ReasonLookupSlot)
	}
	return true
}

func (c *Checker) VisitLiteral(*ast.Literal) bool     { return true }
func (c *Checker) VisitRegExpLit(*ast.RegExpLit) bool { return true }

func (c *Checker) VisitObjectLit(e *ast.ObjectLit) bool {
	for _, p := range e.Props {
		if p.IsCompileTimeValue() {
			continue
		}
		if p.Key != nil && !c.visit(p.Key) {
			return false
		}
		if !c.visit(p.Value) {
			return false
		}
	}
	return true
}

func (c *Checker) VisitArrayLit(e *ast.ArrayLit) bool {
	for _, v := range e.Values {
		if ast.IsCompileTimeValue(v) {
			continue
		}
		if !c.visit(v) {
			return false
		}
	}
	return true
}

func (c *Checker) VisitCatchExtensionObject(e *ast.CatchExtensionObject) bool {
	return c.visit(e.Key) && c.visit(e.Value)
}

func (c *Checker) VisitAssign(e *ast.Assign) bool {
	if e.Op == token.INIT_CONST {
		return c.bailout(e, ReasonInitConst)
	}
	switch target := e.Target.(type) {
	case *ast.VarRef:
		v := target.Var
		if v.Mode == ast.ModeConst {
			return c.bailout(e, ReasonAssignConst)
		}
		if v.IsLookup() {
			return c.bailout(e, ReasonLookupSlot)
		}
	case *ast.Property:
		if !c.visit(target.Obj) || !c.visit(target.Key) {
			return false
		}
	default:
		return c.bailout(e, ReasonBadAssignTarget)
	}
	return c.visit(e.Value)
}

func (c *Checker) VisitThrow(e *ast.Throw) bool { return c.visit(e.Exception) }

func (c *Checker) VisitProperty(e *ast.Property) bool {
	return c.visit(e.Obj) && c.visit(e.Key)
}

func (c *Checker) VisitCall(e *ast.Call) bool {
	ref, _ := e.Callee.(*ast.VarRef)
	var v *ast.Variable
	if ref != nil {
		v = ref.Var
	}
	switch {
	case v != nil && v.IsPossiblyEval():
		return c.bailout(e, ReasonEvalCall)
	case v != nil && !v.IsThis && v.IsGlobal():
		// Calls to global variables are supported.
	case v != nil && v.IsLookup():
		return c.bailout(e, ReasonLookupCall)
	default:
		if prop, ok := e.Callee.(*ast.Property); ok {
			if !c.visit(prop.Obj) || !c.visit(prop.Key) {
				return false
			}
		} else if !c.visit(e.Callee) {
			return false
		}
	}
	return c.visitExprs(e.Args)
}

func (c *Checker) VisitCallNew(e *ast.CallNew) bool {
	return c.visit(e.Callee) && c.visitExprs(e.Args)
}

func (c *Checker) VisitCallRuntime(e *ast.CallRuntime) bool {
	if IsInlineRuntime(e.Name) {
		return c.bailout(e, ReasonInlineRuntime)
	}
	return c.visitExprs(e.Args)
}

func (c *Checker) VisitUnary(e *ast.Unary) bool {
	switch e.Op {
	case token.VOID, token.NOT, token.TYPEOF:
		return c.visit(e.X)
	case token.BIT_NOT:
		return c.bailout(e, ReasonBitNot)
	case token.DELETE:
		return c.bailout(e, ReasonDelete)
	case token.ADD:
		return c.bailout(e, ReasonUnaryPlus)
	case token.SUB:
		return c.bailout(e, ReasonUnaryMinus)
	default:
		panic(fmt.Sprintf(reasonUnexpectedUnaryForm, e.Op))
	}
}

func (c *Checker) VisitCountOp(e *ast.CountOp) bool {
	switch x := e.X.(type) {
	case *ast.VarRef:
		if x.Var.IsLookup() {
			return c.bailout(e, ReasonCountLookup)
		}
		return true
	case *ast.Property:
		return c.visit(x.Obj) && c.visit(x.Key)
	default:
		return c.bailout(e, ReasonBadCountTarget)
	}
}

func (c *Checker) VisitBinary(e *ast.Binary) bool {
	return c.visit(e.Left) && c.visit(e.Right)
}

func (c *Checker) VisitCompare(e *ast.Compare) bool {
	return c.visit(e.Left) && c.visit(e.Right)
}

func (c *Checker) VisitThisFunction(*ast.ThisFunction) bool { return true }
