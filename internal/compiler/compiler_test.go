package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/kolkov/ujit/internal/ast"
	"github.com/kolkov/ujit/internal/masm"
	"github.com/kolkov/ujit/internal/semantic"
	"github.com/kolkov/ujit/internal/token"
	"github.com/kolkov/ujit/internal/types"
)

// Helper to resolve and generate a function.
func generate(t *testing.T, fn *ast.FunctionLit, opts Options) *masm.Code {
	t.Helper()
	if _, err := semantic.Resolve(fn); err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	code, err := Generate(fn, opts)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if _, err := masm.Verify(code); err != nil {
		t.Fatalf("verify error: %v\n%s", err, code.Disassemble())
	}
	return code
}

// opNames returns the opcode of every instruction.
func opNames(code *masm.Code) []string {
	var names []string
	for _, in := range code.Decode() {
		names = append(names, in.Op.String())
	}
	return names
}

func countOp(code *masm.Code, op masm.Opcode) int {
	n := 0
	for _, in := range code.Decode() {
		if in.Op == op {
			n++
		}
	}
	return n
}

// containsRun reports whether want appears as a contiguous run of opcodes.
func containsRun(code *masm.Code, want ...string) bool {
	names := opNames(code)
	for i := 0; i+len(want) <= len(names); i++ {
		match := true
		for j, w := range want {
			if names[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func TestPlanLogical(t *testing.T) {
	tests := []struct {
		op   token.Token
		ctx  Context
		want LogicalPlan
	}{
		{token.OR, Effect, LogicalPlan{Test, Done, EvalRight}},
		{token.OR, Value, LogicalPlan{ValueTest, Done, EvalRight}},
		{token.OR, Test, LogicalPlan{Test, TrueLabel, EvalRight}},
		{token.OR, ValueTest, LogicalPlan{ValueTest, TrueLabel, EvalRight}},
		{token.OR, TestValue, LogicalPlan{Test, TrueLabel, EvalRight}},
		{token.AND, Effect, LogicalPlan{Test, EvalRight, Done}},
		{token.AND, Value, LogicalPlan{TestValue, EvalRight, Done}},
		{token.AND, Test, LogicalPlan{Test, EvalRight, FalseLabel}},
		{token.AND, ValueTest, LogicalPlan{Test, EvalRight, FalseLabel}},
		{token.AND, TestValue, LogicalPlan{TestValue, EvalRight, FalseLabel}},
	}
	for _, tt := range tests {
		t.Run(tt.op.String()+"/"+tt.ctx.String(), func(t *testing.T) {
			if got := PlanLogical(tt.op, tt.ctx); got != tt.want {
				t.Errorf("PlanLogical(%s, %s) = %+v, want %+v", tt.op, tt.ctx, got, tt.want)
			}
		})
	}
}

func TestPlanLogicalPanics(t *testing.T) {
	for _, tt := range []struct {
		op  token.Token
		ctx Context
	}{
		{token.ADD, Value},
		{token.OR, Uninitialized},
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("PlanLogical(%s, %s) did not panic", tt.op, tt.ctx)
				}
			}()
			PlanLogical(tt.op, tt.ctx)
		}()
	}
}

func TestGenerateIfElse(t *testing.T) {
	// function f() { var x; if (a) { x = 1; } else { x = 2; } return x; }
	fn := ast.Func("f", nil,
		ast.If(ast.Ref("a"),
			ast.BlockOf(ast.Expression(ast.Set(ast.Ref("x"), ast.Num(1)))),
			ast.BlockOf(ast.Expression(ast.Set(ast.Ref("x"), ast.Num(2))))),
		ast.Return(ast.Ref("x")),
	)
	fn.DeclareVar("x", ast.ModeVar)
	code := generate(t, fn, Options{})

	want := []string{
		"Prologue", "StackCheck",
		"LoadGlobal", "JumpIfTrue", "Jump",
		"LoadConst", "StoreLocal", "Jump",
		"LoadConst", "StoreLocal",
		"LoadLocal", "Return",
		"LoadConst", "Jump",
		"CallHelper", "Jump",
	}
	if got := opNames(code); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("opcodes:\n got  %v\n want %v\n%s", got, want, code.Disassemble())
	}

	in := code.Decode()
	thenStore, elseStore := in[6], in[9]
	if thenStore.Args[0] != elseStore.Args[0] {
		t.Errorf("branches store to locals %d and %d", thenStore.Args[0], elseStore.Args[0])
	}
	join := in[10].PC
	if int(in[7].Args[0]) != join {
		t.Errorf("then branch jumps to %d, want join point %d", in[7].Args[0], join)
	}
	if int(in[3].Args[0]) != in[5].PC || int(in[4].Args[0]) != in[8].PC {
		t.Errorf("condition branches to %d/%d, want %d/%d", in[3].Args[0], in[4].Args[0], in[5].PC, in[8].PC)
	}
}

func TestGenerateForBreak(t *testing.T) {
	// function g() { for (;;) { if (a) break; } }
	fn := ast.Func("g", nil,
		ast.For(nil, nil, nil, ast.BlockOf(ast.If(ast.Ref("a"), ast.Break(""), nil))),
	)
	code := generate(t, fn, Options{})

	want := []string{
		"Prologue", "StackCheck",
		"Jump",
		"LoadGlobal", "JumpIfTrue", "Jump",
		"Jump", "Jump",
		"StackCheck", "Jump",
		"CallHelper", "Jump",
		"LoadConst", "Return",
		"CallHelper", "Jump",
	}
	if got := opNames(code); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("opcodes:\n got  %v\n want %v\n%s", got, want, code.Disassemble())
	}

	in := code.Decode()
	// One stack check on the back edge besides the one at entry.
	if n := countOp(code, masm.StackCheck); n != 2 {
		t.Errorf("%d stack checks, want 2", n)
	}
	if n := countOp(code, masm.Drop); n != 0 {
		t.Errorf("%d drops, want 0", n)
	}
	if int(in[6].Args[0]) != in[12].PC {
		t.Errorf("break jumps to %d, want loop exit %d", in[6].Args[0], in[12].PC)
	}
	if int(in[9].Args[0]) != in[3].PC {
		t.Errorf("back edge jumps to %d, want loop body %d", in[9].Args[0], in[3].PC)
	}
}

func TestGenerateRejectsUnsupported(t *testing.T) {
	fn := ast.Func("sw", []string{"x"}, &ast.SwitchStmt{Tag: ast.Ref("x")})
	if _, err := semantic.Resolve(fn); err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	code, err := Generate(fn, Options{})
	if code != nil {
		t.Error("Generate returned code for a declined function")
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("error = %v, want ErrUnsupported", err)
	}
	var ue *UnsupportedError
	if !errors.As(err, &ue) || ue.Verdict.Reason != semantic.ReasonSwitch || ue.Function != "sw" {
		t.Errorf("error = %#v, want switch rejection of sw", err)
	}
}

func TestGenerateForOptOut(t *testing.T) {
	fn := ast.Func("f", nil, ast.For(nil, nil, nil, ast.BlockOf()))
	if _, err := semantic.Resolve(fn); err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if _, err := Generate(fn, Options{}); err != nil {
		t.Errorf("error = %v, want for accepted by default", err)
	}
	if _, err := Generate(fn, Options{RejectFor: true}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("error = %v, want ErrUnsupported with RejectFor", err)
	}
}

func TestGenerateStackOverflow(t *testing.T) {
	var e ast.Expr = ast.Num(0)
	for i := 0; i < 200; i++ {
		e = ast.Bin(token.ADD, e, ast.Num(1))
	}
	fn := ast.Func("deep", nil, ast.Return(e))
	if _, err := semantic.Resolve(fn); err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	code, err := Generate(fn, Options{MaxNesting: 50})
	if code != nil || !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("Generate = %v, %v; want ErrStackOverflow", code, err)
	}
	if _, err := Generate(fn, Options{MaxNesting: 1000}); err != nil {
		t.Errorf("generous limit: %v", err)
	}
}

// Every construct below must leave the operand stack balanced on all
// paths, which masm.Verify checks inside generate.
func TestGenerateStackBalance(t *testing.T) {
	call := func(name string, args ...ast.Expr) ast.Expr { return ast.CallOf(ast.Ref(name), args...) }
	stmt := func(e ast.Expr) ast.Stmt { return ast.Expression(e) }

	tests := []struct {
		name string
		body []ast.Stmt
	}{
		{"logical in every context", []ast.Stmt{
			stmt(ast.Bin(token.OR, call("a"), call("b"))),
			stmt(ast.Set(ast.Ref("x"), ast.Bin(token.AND, call("a"), call("b")))),
			stmt(call("f", ast.Bin(token.OR, ast.Ref("a"), ast.Bin(token.AND, ast.Ref("b"), ast.Ref("c"))))),
			ast.If(ast.Bin(token.OR, ast.Bin(token.AND, ast.Ref("a"), ast.Ref("b")), ast.Un(token.NOT, ast.Ref("c"))),
				stmt(call("t")), stmt(call("e"))),
		}},
		{"not and void", []ast.Stmt{
			stmt(call("f", ast.Un(token.NOT, ast.Ref("a")), ast.Un(token.VOID, call("g")))),
			ast.If(ast.Un(token.VOID, ast.Ref("a")), stmt(call("t")), nil),
			stmt(call("f", ast.Bin(token.OR, ast.Un(token.VOID, ast.Ref("a")), ast.Ref("b")))),
		}},
		{"conditional", []ast.Stmt{
			stmt(call("f", ast.Cond(ast.Ref("a"), ast.Num(1), ast.Num(2)))),
			ast.If(ast.Cond(ast.Ref("a"), ast.Ref("b"), ast.Ref("c")), stmt(call("t")), nil),
		}},
		{"property access and calls", []ast.Stmt{
			stmt(ast.Set(ast.Named(ast.Ref("o"), "p"), ast.Prop(ast.Ref("o"), ast.Ref("k")))),
			stmt(ast.AssignOp(token.ASSIGN_ADD, ast.Prop(ast.Ref("o"), ast.Num(1)), ast.Num(2))),
			stmt(ast.AssignOp(token.ASSIGN_MUL, ast.Named(ast.Ref("o"), "q"), ast.Num(3))),
			stmt(ast.CallOf(ast.Named(ast.Ref("o"), "m"), ast.Num(1))),
			stmt(ast.CallOf(ast.Prop(ast.Ref("o"), ast.Ref("k")), ast.Num(1), ast.Num(2))),
			stmt(ast.CallOf(ast.CallOf(ast.Ref("f")), ast.Num(1))),
			stmt(ast.NewOf(ast.Ref("C"), ast.Num(1))),
			ast.If(ast.CallOf(ast.Prop(ast.Ref("o"), ast.Ref("k"))), stmt(call("t")), nil),
		}},
		{"count operations", []ast.Stmt{
			stmt(ast.Count(token.INC, false, ast.Ref("x"))),
			stmt(call("f", ast.Count(token.INC, false, ast.Ref("x")))),
			stmt(call("f", ast.Count(token.DEC, false, ast.Named(ast.Ref("o"), "p")))),
			stmt(call("f", ast.Count(token.INC, false, ast.Prop(ast.Ref("o"), ast.Ref("k"))))),
			stmt(call("f", ast.Count(token.INC, true, ast.Prop(ast.Ref("o"), ast.Ref("k"))))),
			ast.If(ast.Count(token.DEC, false, ast.Named(ast.Ref("o"), "p")), stmt(call("t")), nil),
		}},
		{"literals", []ast.Stmt{
			stmt(call("f", ast.NewObject(
				ast.NewProperty("a", ast.Num(1)),
				ast.NewProperty("b", ast.Ref("x")),
				ast.NewProperty("1", ast.Ref("y")),
				ast.NewProperty("__proto__", ast.Ref("p"))))),
			stmt(call("f", ast.NewArray(ast.Num(1), ast.TheHole(), ast.Ref("x"), ast.NewArray(ast.Ref("y"))))),
			stmt(call("f", ast.NewRegExp("a+", "g"))),
			stmt(call("f", ast.Func("", nil))),
			stmt(ast.Un(token.TYPEOF, ast.Ref("undeclared"))),
		}},
		{"loops with break and continue inside try", []ast.Stmt{
			ast.While(ast.Ref("a"), ast.BlockOf(
				ast.TryFinally(
					ast.BlockOf(
						ast.If(ast.Ref("b"), ast.Break(""), nil),
						ast.If(ast.Ref("c"), ast.Continue(""), nil),
					),
					ast.BlockOf(stmt(call("cleanup"))),
				),
			)),
			ast.DoWhile(ast.BlockOf(
				ast.TryCatch(ast.BlockOf(
					ast.If(ast.Ref("b"), ast.Break(""), nil),
					stmt(ast.ThrowOf(ast.Ref("x"))),
				), "e", ast.BlockOf(stmt(call("log", ast.Ref("e"))), ast.Continue(""))),
			), ast.Ref("a")),
		}},
		{"return through nested finally", []ast.Stmt{
			ast.TryFinally(
				ast.BlockOf(ast.TryCatchFinally(
					ast.BlockOf(ast.Return(call("f"))),
					"e", ast.BlockOf(ast.Return(ast.Ref("e"))),
					ast.BlockOf(stmt(call("g"))),
				)),
				ast.BlockOf(ast.If(ast.Ref("a"), ast.Return(ast.Num(1)), nil)),
			),
		}},
		{"labelled break out of nested loops", []ast.Stmt{
			ast.Labelled("outer", ast.While(ast.Ref("a"), ast.BlockOf(
				ast.While(ast.Ref("b"), ast.BlockOf(
					ast.TryFinally(ast.BlockOf(ast.Break("outer")), ast.BlockOf()),
				)),
			))),
		}},
		{"with", []ast.Stmt{
			ast.With(ast.Ref("o"), ast.Expression(ast.Num(1))),
		}},
		{"runtime call and throw", []ast.Stmt{
			stmt(ast.Runtime("print", ast.Str("x"))),
			ast.If(ast.Ref("a"), stmt(ast.ThrowOf(ast.Str("boom"))), nil),
			&ast.DebuggerStmt{},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := ast.Func("f", nil, tt.body...)
			fn.DeclareVar("x", ast.ModeVar)
			generate(t, fn, Options{})
		})
	}
}

func TestBreakOutOfTryFinallyCallsFinally(t *testing.T) {
	// while (a) { try { break; } finally { g(); } }
	fn := ast.Func("f", nil,
		ast.While(ast.Ref("a"), ast.BlockOf(
			ast.TryFinally(ast.BlockOf(ast.Break("")), ast.BlockOf(ast.Expression(ast.CallOf(ast.Ref("g"))))),
		)),
	)
	code := generate(t, fn, Options{})
	if !containsRun(code, "PopHandler", "CallLocal", "Jump") {
		t.Errorf("break does not leave the handler and run the finally block:\n%s", code.Disassemble())
	}
	// The finally body is emitted once.
	if n := countOp(code, masm.CallNamed); n != 1 {
		t.Errorf("finally body emitted %d times", n)
	}
	// Handler path, normal exit and the break all call it.
	if n := countOp(code, masm.CallLocal); n != 4 {
		t.Errorf("%d local calls, want 4 (setup, handler, break, normal exit)", n)
	}
}

func TestReturnInsideFinallyDropsSavedState(t *testing.T) {
	// try {} finally { return 1; }
	fn := ast.Func("f", nil, ast.TryFinally(ast.BlockOf(), ast.BlockOf(ast.Return(ast.Num(1)))))
	code := generate(t, fn, Options{})
	found := false
	for _, in := range code.Decode() {
		if in.Op == masm.Drop && in.Args[0] == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("return from finally does not drop the saved accumulator and return address:\n%s", code.Disassemble())
	}
}

func TestReturnFromTryCatchPopsHandler(t *testing.T) {
	fn := ast.Func("f", nil, ast.TryCatch(ast.BlockOf(ast.Return(ast.Num(1))), "e", ast.BlockOf()))
	code := generate(t, fn, Options{})
	if !containsRun(code, "LoadConst", "PopHandler", "Return") {
		t.Errorf("return inside try does not pop the handler:\n%s", code.Disassemble())
	}
}

func TestCallsRecordLoopDepth(t *testing.T) {
	fn := ast.Func("f", nil,
		ast.Expression(ast.CallOf(ast.Ref("outside"))),
		ast.While(ast.Ref("a"), ast.Expression(ast.CallOf(ast.Ref("inside")))),
	)
	code := generate(t, fn, Options{})
	inLoop := map[string]bool{}
	for _, in := range code.Decode() {
		if in.Op == masm.CallNamed {
			inLoop[code.Consts[in.Args[0]].ToString()] = in.Args[2] == 1
		}
	}
	if inLoop["outside"] || !inLoop["inside"] {
		t.Errorf("loop flags = %v, want only inside", inLoop)
	}
}

func TestDebugInfo(t *testing.T) {
	ifStmt := ast.If(ast.Ref("a"), ast.Expression(ast.Num(1)), nil)
	ifStmt.StartPos = token.Position{Line: 2, Column: 3}
	fn := ast.Func("f", nil, ifStmt)

	code := generate(t, fn, Options{DebugInfo: true})
	if len(code.Positions) == 0 || code.Positions[0].Pos.Line != 2 || !code.Positions[0].Statement {
		t.Errorf("positions = %+v, want a statement position on line 2", code.Positions)
	}
	if !strings.Contains(code.Disassemble(), ";; [ IfStatement") {
		t.Errorf("disassembly lacks statement comments:\n%s", code.Disassemble())
	}

	plain := generate(t, ast.Func("f", nil, ast.If(ast.Ref("a"), ast.Expression(ast.Num(1)), nil)), Options{})
	if len(plain.Positions) != 0 || len(plain.Comments) != 0 {
		t.Error("debug information recorded without DebugInfo")
	}
}

func TestGlobalDeclarations(t *testing.T) {
	prog := ast.Program(ast.Expression(ast.CallOf(ast.Ref("f"))))
	prog.DeclareVar("v", ast.ModeVar)
	prog.DeclareVar("c", ast.ModeConst)
	prog.DeclareFunc(ast.Func("f", nil))
	code := generate(t, prog, Options{})

	in := code.Decode()
	if in[1].Op != masm.PushConst || in[2].Op != masm.CallHelper || masm.Helper(in[2].Args[0]) != masm.HelperDeclareGlobals {
		t.Fatalf("program does not start by declaring globals:\n%s", code.Disassemble())
	}
	decls, ok := code.Consts[in[1].Args[0]].Data().(*GlobalDecls)
	if !ok || len(decls.Decls) != 3 {
		t.Fatalf("declaration operand = %v", code.Consts[in[1].Args[0]])
	}
	v, c, f := decls.Decls[0], decls.Decls[1], decls.Decls[2]
	if v.Name != "v" || v.Const || v.Fun != nil {
		t.Errorf("var declaration = %+v", v)
	}
	if c.Name != "c" || !c.Const {
		t.Errorf("const declaration = %+v", c)
	}
	if f.Name != "f" || f.Fun == nil || f.Fun.Fn.Name != "f" {
		t.Errorf("function declaration = %+v", f)
	}
}

func TestLocalDeclarations(t *testing.T) {
	fn := ast.Func("f", nil)
	fn.DeclareVar("k", ast.ModeConst)
	fn.DeclareFunc(ast.Func("g", nil))
	code := generate(t, fn, Options{})

	in := code.Decode()
	if in[1].Op != masm.LoadConst || !code.Consts[in[1].Args[0]].IsHole() || in[2].Op != masm.StoreLocal {
		t.Errorf("const local not initialized to the hole:\n%s", code.Disassemble())
	}
	if !containsRun(code, "PushConst", "CallHelper", "StoreLocal") {
		t.Errorf("function declaration not stored into its local:\n%s", code.Disassemble())
	}
}

func TestContextSlotDepth(t *testing.T) {
	// function outer() { var x; function mid() { var y; function inner() { return x + y; } } }
	inner := ast.Func("inner", nil, ast.Return(ast.Bin(token.ADD, ast.Ref("x"), ast.Ref("y"))))
	mid := ast.Func("mid", nil)
	mid.DeclareVar("y", ast.ModeVar)
	mid.DeclareFunc(inner)
	outer := ast.Func("outer", nil)
	outer.DeclareVar("x", ast.ModeVar)
	outer.DeclareFunc(mid)
	generate(t, outer, Options{})

	code, err := Generate(inner, Options{})
	if err != nil {
		t.Fatalf("generate inner: %v", err)
	}
	var loads [][]int32
	for _, in := range code.Decode() {
		if in.Op == masm.LoadContext {
			loads = append(loads, in.Args)
		}
	}
	// inner has no context of its own: y is one hop away only after
	// mid's context, x one more.
	if len(loads) != 2 || loads[0][0] != 1 || loads[1][0] != 0 {
		t.Errorf("context loads = %v, want x at depth 1 and y at depth 0\n%s", loads, code.Disassemble())
	}
}

func TestObjectLiteralTemplate(t *testing.T) {
	obj := ast.NewObject(
		ast.NewProperty("a", ast.Num(1)),
		ast.NewProperty("b", ast.Ref("x")),
		&ast.ObjectProperty{Key: ast.Num(2), Value: ast.Ref("y"), Kind: ast.PropComputed},
		ast.NewProperty("n", ast.NewObject(ast.NewProperty("z", ast.Bool(true)))),
	)
	tmpl := objectTemplate(obj)
	if got := strings.Join(tmpl.Keys, ","); got != "a,b,2,n" {
		t.Errorf("keys = %s", got)
	}
	if tmpl.Values[0].ToNumber() != 1 || !tmpl.Values[1].IsUndefined() || !tmpl.Values[2].IsUndefined() {
		t.Errorf("values = %v", tmpl.Values)
	}
	nested, ok := tmpl.Values[3].Data().(*LiteralTemplate)
	if !ok || nested.Keys[0] != "z" || !nested.Values[0].ToBoolean() {
		t.Errorf("nested template = %v", tmpl.Values[3])
	}
	if tmpl.Depth != 2 {
		t.Errorf("depth = %d, want 2", tmpl.Depth)
	}

	fn := ast.Func("f", nil, ast.Return(obj))
	code := generate(t, fn, Options{})
	if !containsRun(code, "Push", "LoadGlobal", "StoreNamed") {
		t.Errorf("named property b not stored by name:\n%s", code.Disassemble())
	}
	if !containsRun(code, "Peek", "Push", "PushConst", "LoadGlobal", "Push", "CallHelper") {
		t.Errorf("index property 2 not stored through the helper:\n%s", code.Disassemble())
	}
}

func TestArrayLiteralTemplate(t *testing.T) {
	arr := ast.NewArray(ast.Num(1), ast.TheHole(), ast.Ref("x"))
	tmpl := arrayTemplate(arr)
	if !tmpl.Array || len(tmpl.Values) != 3 || !tmpl.Values[1].IsHole() || !tmpl.Values[2].IsHole() {
		t.Errorf("template = %+v", tmpl)
	}
	code := generate(t, ast.Func("f", nil, ast.Return(arr)), Options{})
	found := false
	for _, in := range code.Decode() {
		if in.Op == masm.StoreElement && in.Args[0] == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("element 2 not stored:\n%s", code.Disassemble())
	}
}

func TestBoilerplateString(t *testing.T) {
	b := &Boilerplate{Fn: ast.Func("", nil)}
	if got := b.String(); got != "<function <anonymous>>" {
		t.Errorf("String() = %q", got)
	}
	g := &GlobalDecls{Decls: []GlobalDecl{{Name: "a"}, {Name: "b"}}}
	if got := types.Internal(g).String(); !strings.Contains(got, "a, b") {
		t.Errorf("GlobalDecls string = %q", got)
	}
}

func TestNestingStackIsLIFO(t *testing.T) {
	var s nestingStack
	a, b := &nestedStmt{kind: Breakable}, &nestedStmt{kind: Iteration}
	s.push(a)
	s.push(b)
	defer func() {
		if recover() == nil {
			t.Error("popping a non-innermost entry did not panic")
		}
	}()
	s.pop(a)
}
