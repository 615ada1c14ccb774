package semantic

import (
	"strings"
	"testing"

	"github.com/kolkov/ujit/internal/ast"
	"github.com/kolkov/ujit/internal/token"
)

// Helper to resolve a program that must be free of errors
func mustResolve(t *testing.T, prog *ast.FunctionLit) *ResolveResult {
	t.Helper()
	result, err := Resolve(prog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

// Helper to check for expected error
func expectError(t *testing.T, prog *ast.FunctionLit, errSubstr string) {
	t.Helper()
	_, err := Resolve(prog)
	if err == nil {
		t.Errorf("expected error containing %q, got no error", errSubstr)
		return
	}
	if !strings.Contains(err.Error(), errSubstr) {
		t.Errorf("expected error containing %q, got: %v", errSubstr, err)
	}
}

func slotOf(t *testing.T, ref *ast.VarRef) ast.Slot {
	t.Helper()
	if ref.Var == nil {
		t.Fatalf("%s is unresolved", ref.Name)
	}
	if ref.Var.Slot == nil {
		t.Fatalf("%s resolved to a global", ref.Name)
	}
	return *ref.Var.Slot
}

// ----------------------------------------------------------------------------
// Resolver

func TestResolveParametersAndLocals(t *testing.T) {
	useA, useB, useX := ast.Ref("a"), ast.Ref("b"), ast.Ref("x")
	f := ast.Func("f", []string{"a", "b"},
		ast.Expression(ast.Set(useX, useA)),
		ast.Return(useB),
	)
	f.DeclareVar("x", ast.ModeVar)
	prog := ast.Program()
	prog.DeclareFunc(f)
	mustResolve(t, prog)

	tests := []struct {
		ref  *ast.VarRef
		want ast.Slot
	}{
		{useA, ast.Slot{Kind: ast.SlotParameter, Index: 0}},
		{useB, ast.Slot{Kind: ast.SlotParameter, Index: 1}},
		{useX, ast.Slot{Kind: ast.SlotLocal, Index: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.ref.Name, func(t *testing.T) {
			if got := slotOf(t, tt.ref); got != tt.want {
				t.Errorf("slot = %+v, want %+v", got, tt.want)
			}
		})
	}
	if f.Scope.NumLocals != 1 || f.Scope.NumHeapSlots != 0 {
		t.Errorf("locals=%d heap=%d, want 1 and 0", f.Scope.NumLocals, f.Scope.NumHeapSlots)
	}
}

func TestResolveGlobals(t *testing.T) {
	decl, use, free := ast.Ref("y"), ast.Ref("y"), ast.Ref("print")
	prog := ast.Program(
		ast.Expression(ast.Set(decl, ast.Num(1))),
		ast.Expression(ast.CallOf(free, use)),
	)
	prog.DeclareVar("y", ast.ModeVar)
	result := mustResolve(t, prog)

	for _, ref := range []*ast.VarRef{decl, use, free} {
		if !ref.Var.IsGlobal() {
			t.Errorf("%s should be global, got %s", ref.Name, ref.Var)
		}
	}
	if decl.Var != use.Var || result.Globals["y"] != decl.Var {
		t.Error("references to the same global should share one variable")
	}
}

func TestResolveThis(t *testing.T) {
	this := ast.This()
	f := ast.Func("f", nil, ast.Return(this))
	prog := ast.Program(ast.Expression(f))
	mustResolve(t, prog)

	if !this.Var.IsThis || this.Var.IsGlobal() {
		t.Fatalf("this resolved to %s", this.Var)
	}
	if got := slotOf(t, this); got.Kind != ast.SlotParameter || got.Index != -1 {
		t.Errorf("this slot = %+v, want parameter -1", got)
	}
}

func TestResolveCapturedLocal(t *testing.T) {
	inner := ast.Ref("x")
	outer := ast.Ref("x")
	g := ast.Func("g", nil, ast.Return(inner))
	f := ast.Func("f", nil, ast.Expression(ast.Set(outer, ast.Num(1))))
	f.DeclareVar("x", ast.ModeVar)
	f.DeclareFunc(g)
	prog := ast.Program()
	prog.DeclareFunc(f)
	mustResolve(t, prog)

	if inner.Var != outer.Var {
		t.Fatal("inner reference should bind to the outer variable")
	}
	if got := slotOf(t, outer); got.Kind != ast.SlotContext || got.Index != 0 {
		t.Errorf("captured slot = %+v, want context 0", got)
	}
	if f.Scope.NumHeapSlots != 1 || f.Scope.NumLocals != 0 {
		t.Errorf("heap=%d locals=%d, want 1 and 0", f.Scope.NumHeapSlots, f.Scope.NumLocals)
	}
	// g allocates no context of its own, so it runs in f's context.
	if got := g.Scope.ContextChainLength(f.Scope); got != 0 {
		t.Errorf("context chain length = %d, want 0", got)
	}
	if f.Scope.ContextNames[0] != "x" {
		t.Errorf("context names = %v", f.Scope.ContextNames)
	}
}

func TestResolveCapturedParameter(t *testing.T) {
	f := ast.Func("f", []string{"a"},
		ast.Return(ast.Func("", nil, ast.Return(ast.Ref("a")))),
	)
	prog := ast.Program(ast.Expression(f))
	mustResolve(t, prog)

	if !f.Scope.HasContextParams() {
		t.Fatal("captured parameter should live in the context")
	}
	v := CheckSupport(f, CheckOptions{})
	if v.Supported || v.Reason != ReasonContextParams {
		t.Errorf("verdict = %v, want %q", v, ReasonContextParams)
	}
}

func TestResolveWithMakesNamesDynamic(t *testing.T) {
	inside := ast.Ref("x")
	before := ast.Ref("x")
	prog := ast.Program(
		ast.Expression(before),
		ast.With(ast.Ref("o"), ast.Expression(inside)),
	)
	mustResolve(t, prog)

	if !before.Var.IsGlobal() {
		t.Errorf("reference before with = %s, want global", before.Var)
	}
	if !inside.Var.IsLookup() {
		t.Errorf("reference inside with = %s, want lookup", inside.Var)
	}
	if !prog.Scope.ContainsWith {
		t.Error("ContainsWith not set")
	}
}

func TestResolveEvalForcesContext(t *testing.T) {
	x := ast.Ref("x")
	f := ast.Func("f", nil,
		ast.Expression(ast.CallOf(ast.Ref("eval"), ast.Str("1"))),
		ast.Return(x),
	)
	f.DeclareVar("x", ast.ModeVar)
	prog := ast.Program(ast.Expression(f))
	mustResolve(t, prog)

	if !f.Scope.CallsEval {
		t.Error("CallsEval not set")
	}
	if !x.Var.IsLookup() {
		t.Errorf("x = %s, want lookup", x.Var)
	}
	if f.Scope.NumHeapSlots != 1 || f.Scope.ContextNames[0] != "x" {
		t.Errorf("x should be context allocated, names = %v", f.Scope.ContextNames)
	}
}

func TestResolveCatchVariable(t *testing.T) {
	use := ast.Ref("e")
	outside := ast.Ref("e")
	stmt := ast.TryCatch(ast.BlockOf(), "e", ast.BlockOf(ast.Return(use)))
	f := ast.Func("f", nil, stmt, ast.Return(outside))
	prog := ast.Program(ast.Expression(f))
	mustResolve(t, prog)

	if use.Var != stmt.CatchVar.Var {
		t.Fatal("catch body reference should bind to the hidden catch variable")
	}
	if use.Var.Mode != ast.ModeTemporary {
		t.Errorf("catch variable mode = %s, want temporary", use.Var.Mode)
	}
	if got := slotOf(t, use); got.Kind != ast.SlotLocal {
		t.Errorf("catch variable slot = %+v, want local", got)
	}
	if !outside.Var.IsGlobal() {
		t.Errorf("reference after the catch block = %s, want global", outside.Var)
	}
}

func TestResolveCapturedCatchVariable(t *testing.T) {
	use := ast.Ref("e")
	stmt := ast.TryCatch(ast.BlockOf(), "e",
		ast.BlockOf(ast.Return(ast.Func("", nil, ast.Return(use)))))
	f := ast.Func("f", nil, stmt)
	prog := ast.Program(ast.Expression(f))
	mustResolve(t, prog)

	if got := slotOf(t, use); got.Kind != ast.SlotContext {
		t.Errorf("captured catch variable slot = %+v, want context", got)
	}
}

func TestResolveLiteralIndices(t *testing.T) {
	re := ast.NewRegExp("a+", "g")
	obj := ast.NewObject(ast.NewProperty("k", ast.Num(1)))
	arr := ast.NewArray(ast.Num(1))
	prog := ast.Program(
		ast.Expression(re),
		ast.Expression(obj),
		ast.Expression(arr),
	)
	mustResolve(t, prog)

	if re.Index != 0 || obj.Index != 1 || arr.Index != 2 {
		t.Errorf("indices = %d %d %d, want 0 1 2", re.Index, obj.Index, arr.Index)
	}
	if prog.NumLiterals != 3 {
		t.Errorf("NumLiterals = %d, want 3", prog.NumLiterals)
	}
}

func TestBindBreakAndContinue(t *testing.T) {
	plainBreak := ast.Break("")
	labelledBreak := ast.Break("outer")
	plainContinue := ast.Continue("")
	labelledContinue := ast.Continue("outer")

	inner := ast.While(ast.Bool(true), ast.BlockOf(
		plainBreak, labelledBreak, plainContinue, labelledContinue,
	))
	outer := ast.Labelled("outer", ast.While(ast.Bool(true), inner)).(*ast.WhileStmt)
	prog := ast.Program(outer)
	mustResolve(t, prog)

	if plainBreak.Target != inner {
		t.Error("unlabelled break should target the innermost loop")
	}
	if labelledBreak.Target != outer {
		t.Error("labelled break should target the labelled loop")
	}
	if plainContinue.Target != inner {
		t.Error("unlabelled continue should target the innermost loop")
	}
	if labelledContinue.Target != outer {
		t.Error("labelled continue should target the labelled loop")
	}
}

func TestBindBreakToLabelledBlock(t *testing.T) {
	brk := ast.Break("done")
	block := ast.Labelled("done", ast.BlockOf(brk)).(*ast.Block)
	mustResolve(t, ast.Program(block))
	if brk.Target != block {
		t.Error("labelled break should target the labelled block")
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		prog *ast.FunctionLit
		want string
	}{
		{"break outside loop", ast.Program(ast.Break("")), "break statement must be inside"},
		{"continue outside loop", ast.Program(ast.Continue("")), "continue statement must be inside"},
		{"undefined label", ast.Program(ast.While(ast.Bool(true), ast.Break("nope"))), `undefined label "nope"`},
		{
			"continue to block",
			ast.Program(ast.Labelled("b", ast.BlockOf(ast.While(ast.Bool(true), ast.Continue("b"))))),
			`continue target "b" is not a loop`,
		},
		{"return at top level", ast.Program(ast.Return(nil)), "return statement must be inside a function"},
		{
			"break crosses function",
			ast.Program(ast.While(ast.Bool(true), ast.Expression(ast.Func("", nil, ast.Break(""))))),
			"break statement must be inside",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, tt.prog, tt.want)
		})
	}
}

func TestErrorListFormatting(t *testing.T) {
	var el ErrorList
	if el.Err() != nil {
		t.Error("empty list should not be an error")
	}
	el.Add(token.Position{Line: 1, Column: 2}, "first %d", 1)
	el.Add(token.Position{Line: 3, Column: 4}, "second")
	if got := el.Error(); got != "1:2: first 1\n3:4: second" {
		t.Errorf("Error() = %q", got)
	}
}

// ----------------------------------------------------------------------------
// Support check

func TestCheckSupportRejections(t *testing.T) {
	constProg := func(e ast.Expr) *ast.FunctionLit {
		p := ast.Program(ast.Expression(e))
		p.DeclareVar("c", ast.ModeConst)
		return p
	}
	withBody := func(s ast.Stmt) *ast.FunctionLit {
		return ast.Program(ast.With(ast.Ref("o"), s))
	}

	tests := []struct {
		name string
		prog *ast.FunctionLit
		opts CheckOptions
		want string
	}{
		{"switch", ast.Program(&ast.SwitchStmt{Tag: ast.Num(1)}), CheckOptions{}, ReasonSwitch},
		{
			"for-in",
			ast.Program(&ast.ForInStmt{Each: ast.Ref("k"), Enumerable: ast.Ref("o"), Body: &ast.EmptyStmt{}}),
			CheckOptions{}, ReasonForIn,
		},
		{"for", ast.Program(ast.For(nil, nil, nil, ast.Break(""))), CheckOptions{}, ReasonFor},
		{"boilerplate", ast.Program(ast.Expression(&ast.FunctionBoilerplateLit{})), CheckOptions{}, ReasonBoilerplate},
		{"lookup read", withBody(ast.Expression(ast.Ref("x"))), CheckOptions{}, ReasonLookupSlot},
		{"lookup assignment", withBody(ast.Expression(ast.Set(ast.Ref("x"), ast.Num(1)))), CheckOptions{}, ReasonLookupSlot},
		{"lookup call", withBody(ast.Expression(ast.CallOf(ast.Ref("g")))), CheckOptions{}, ReasonLookupCall},
		{"lookup count", withBody(ast.Expression(ast.Count(token.INC, true, ast.Ref("x")))), CheckOptions{}, ReasonCountLookup},
		{
			"init const",
			constProg(&ast.Assign{Op: token.INIT_CONST, Target: ast.Ref("c"), Value: ast.Num(1)}),
			CheckOptions{}, ReasonInitConst,
		},
		{"assign const", constProg(ast.Set(ast.Ref("c"), ast.Num(2))), CheckOptions{}, ReasonAssignConst},
		{"assign literal", ast.Program(ast.Expression(ast.Set(ast.Num(1), ast.Num(2)))), CheckOptions{}, ReasonBadAssignTarget},
		{"eval", ast.Program(ast.Expression(ast.CallOf(ast.Ref("eval"), ast.Str("x")))), CheckOptions{}, ReasonEvalCall},
		{"inline runtime", ast.Program(ast.Expression(ast.Runtime("_IsSmi", ast.Num(1)))), CheckOptions{}, ReasonInlineRuntime},
		{"bit not", ast.Program(ast.Expression(ast.Un(token.BIT_NOT, ast.Num(1)))), CheckOptions{}, ReasonBitNot},
		{"delete", ast.Program(ast.Expression(ast.Un(token.DELETE, ast.Ref("x")))), CheckOptions{}, ReasonDelete},
		{"unary plus", ast.Program(ast.Expression(ast.Un(token.ADD, ast.Num(1)))), CheckOptions{}, ReasonUnaryPlus},
		{"unary minus", ast.Program(ast.Expression(ast.Un(token.SUB, ast.Num(1)))), CheckOptions{}, ReasonUnaryMinus},
		{"count literal", ast.Program(ast.Expression(ast.Count(token.INC, false, ast.Num(1)))), CheckOptions{}, ReasonBadCountTarget},
		{
			"nested in accepted constructs",
			ast.Program(ast.If(ast.Ref("a"), ast.While(ast.Ref("b"), ast.BlockOf(
				ast.Expression(ast.Un(token.SUB, ast.Ref("c"))))), nil)),
			CheckOptions{}, ReasonUnaryMinus,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustResolve(t, tt.prog)
			v := CheckSupport(tt.prog, tt.opts)
			if v.Supported {
				t.Fatalf("expected rejection %q, got supported", tt.want)
			}
			if v.Reason != tt.want {
				t.Errorf("reason = %q, want %q", v.Reason, tt.want)
			}
		})
	}
}

func TestCheckSupportAccepts(t *testing.T) {
	f := ast.Func("f", []string{"a"},
		ast.Expression(ast.Set(ast.Ref("x"), ast.Ref("a"))),
		ast.Expression(ast.AssignOp(token.ASSIGN_ADD, ast.Named(ast.Ref("o"), "k"), ast.Num(1))),
		ast.If(ast.Bin(token.AND, ast.Ref("a"), ast.Ref("b")), ast.Return(ast.Ref("x")), nil),
		ast.While(ast.Un(token.NOT, ast.Ref("a")), ast.BlockOf(ast.Break(""))),
		ast.DoWhile(ast.Continue(""), ast.Bool(false)),
		ast.TryCatchFinally(
			ast.BlockOf(ast.Expression(ast.ThrowOf(ast.Str("boom")))),
			"e",
			ast.BlockOf(ast.Expression(ast.CallOf(ast.Ref("print"), ast.Ref("e")))),
			ast.BlockOf(ast.Expression(ast.Count(token.INC, false, ast.Ref("x")))),
		),
		ast.Expression(ast.NewObject(
			ast.NewProperty("constant", ast.Num(1)),
			ast.NewProperty("computed", ast.Un(token.TYPEOF, ast.Ref("a"))),
		)),
		ast.Expression(ast.NewArray(ast.Num(1), ast.Ref("a"))),
		ast.Expression(ast.CallOf(ast.Named(ast.Ref("Math"), "max"), ast.Num(1), ast.Num(2))),
		ast.Expression(ast.NewOf(ast.Ref("Error"), ast.Str("x"))),
		ast.Expression(ast.Cond(ast.Ref("a"), ast.Num(1), ast.Un(token.VOID, ast.Num(0)))),
		ast.Expression(ast.Func("inner", nil, &ast.SwitchStmt{Tag: ast.Num(1)})),
		&ast.DebuggerStmt{},
	)
	f.DeclareVar("x", ast.ModeVar)
	prog := ast.Program()
	prog.DeclareFunc(f)
	mustResolve(t, prog)

	if v := CheckSupport(f, CheckOptions{}); !v.Supported {
		t.Fatalf("expected supported, got %v", v)
	}
	if v := CheckSupport(prog, CheckOptions{}); !v.Supported {
		t.Fatalf("program: expected supported, got %v", v)
	}
}

func TestCheckSupportFor(t *testing.T) {
	prog := ast.Program(ast.For(
		ast.Expression(ast.Set(ast.Ref("i"), ast.Num(0))),
		ast.Cmp(token.LT, ast.Ref("i"), ast.Num(3)),
		ast.Expression(ast.Count(token.INC, false, ast.Ref("i"))),
		ast.BlockOf(),
	))
	mustResolve(t, prog)
	if v := CheckSupport(prog, CheckOptions{}); !v.Supported {
		t.Errorf("expected supported, got %v", v)
	}
	v := CheckSupport(prog, CheckOptions{RejectFor: true})
	if v.Supported || v.Reason != ReasonFor {
		t.Errorf("expected %s rejection with RejectFor, got %v", ReasonFor, v)
	}
}

func TestCheckSupportKeepsFirstReason(t *testing.T) {
	prog := ast.Program(
		ast.Expression(ast.Un(token.DELETE, ast.Ref("x"))),
		&ast.SwitchStmt{Tag: ast.Num(1)},
	)
	mustResolve(t, prog)
	v := CheckSupport(prog, CheckOptions{})
	if v.Reason != ReasonDelete {
		t.Errorf("reason = %q, want the first bailout %q", v.Reason, ReasonDelete)
	}
}

func TestCheckSupportSkipsConstantLiteralParts(t *testing.T) {
	// Compile-time constant parts are built into the boilerplate and never
	// visited, so nothing in them can cause a bailout.
	arr := ast.NewArray(ast.NewArray(ast.Num(1), ast.Num(2)), ast.NewObject(ast.NewProperty("a", ast.Str("b"))))
	prog := ast.Program(ast.Expression(arr))
	mustResolve(t, prog)
	if v := CheckSupport(prog, CheckOptions{}); !v.Supported {
		t.Errorf("expected supported, got %v", v)
	}
}

func TestIsInlineRuntime(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"_IsSmi", true},
		{"_Log", true},
		{"IsSmi", false},
		{"_NotInline", false},
		{"Typeof", false},
	}
	for _, tt := range tests {
		if got := IsInlineRuntime(tt.name); got != tt.want {
			t.Errorf("IsInlineRuntime(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
