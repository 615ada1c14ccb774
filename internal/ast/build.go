package ast

import "github.com/kolkov/ujit/internal/token"

// Constructors for building trees by hand. Positions are left unset;
// callers that know them assign StartPos and EndPos afterwards.

// Literals

func Undefined() *Literal    { return &Literal{Kind: LitUndefined} }
func Null() *Literal         { return &Literal{Kind: LitNull} }
func TheHole() *Literal      { return &Literal{Kind: LitHole} }
func Num(n float64) *Literal { return &Literal{Kind: LitNumber, Num: n} }
func Str(s string) *Literal  { return &Literal{Kind: LitString, Str: s} }

func Bool(b bool) *Literal {
	if b {
		return &Literal{Kind: LitTrue}
	}
	return &Literal{Kind: LitFalse}
}

// NewRegExp creates a regexp literal.
func NewRegExp(pattern, flags string) *RegExpLit {
	return &RegExpLit{Pattern: pattern, Flags: flags}
}

// NewProperty creates an object literal property, classifying it by its
// key and value.
func NewProperty(key string, value Expr) *ObjectProperty {
	p := &ObjectProperty{Key: Str(key), Value: value}
	switch value.(type) {
	case *Literal:
		p.Kind = PropConstant
	case *ObjectLit, *ArrayLit:
		p.Kind = PropMaterializedLiteral
	default:
		p.Kind = PropComputed
	}
	if key == "__proto__" {
		p.Kind = PropPrototype
	}
	return p
}

func NewObject(props ...*ObjectProperty) *ObjectLit { return &ObjectLit{Props: props} }
func NewArray(values ...Expr) *ArrayLit             { return &ArrayLit{Values: values} }

// References and operations

func Ref(name string) *VarRef      { return &VarRef{Name: name} }
func This() *VarRef                { return &VarRef{Name: "this"} }
func Prop(obj, key Expr) *Property { return &Property{Obj: obj, Key: key} }
func Named(obj Expr, name string) *Property {
	return &Property{Obj: obj, Key: Str(name)}
}

func Set(target, value Expr) *Assign {
	return &Assign{Op: token.ASSIGN, Target: target, Value: value}
}

func AssignOp(op token.Token, target, value Expr) *Assign {
	return &Assign{Op: op, Target: target, Value: value}
}

// InitVar is the assignment produced by var x = value.
func InitVar(name string, value Expr) *Assign {
	return &Assign{Op: token.INIT_VAR, Target: Ref(name), Value: value}
}

func Bin(op token.Token, left, right Expr) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

func Cmp(op token.Token, left, right Expr) *Compare {
	return &Compare{Op: op, Left: left, Right: right}
}

func Un(op token.Token, x Expr) *Unary { return &Unary{Op: op, X: x} }

func Count(op token.Token, prefix bool, x Expr) *CountOp {
	return &CountOp{Op: op, Prefix: prefix, X: x}
}

func Cond(cond, then, els Expr) *Conditional {
	return &Conditional{Cond: cond, Then: then, Else: els}
}

func CallOf(callee Expr, args ...Expr) *Call   { return &Call{Callee: callee, Args: args} }
func NewOf(callee Expr, args ...Expr) *CallNew { return &CallNew{Callee: callee, Args: args} }
func Runtime(name string, args ...Expr) *CallRuntime {
	return &CallRuntime{Name: name, Args: args}
}

func ThrowOf(x Expr) *Throw { return &Throw{Exception: x} }

// Statements

func Expression(e Expr) *ExprStmt   { return &ExprStmt{Expr: e} }
func Return(e Expr) *ReturnStmt     { return &ReturnStmt{Value: e} }
func BlockOf(stmts ...Stmt) *Block  { return &Block{Stmts: stmts} }
func Break(label string) *BreakStmt { return &BreakStmt{Label: label} }

func Continue(label string) *ContinueStmt { return &ContinueStmt{Label: label} }

// If creates an if statement; a nil else branch becomes an empty statement.
func If(cond Expr, then, els Stmt) *IfStmt {
	if els == nil {
		els = &EmptyStmt{}
	}
	return &IfStmt{Cond: cond, Then: then, Else: els}
}

func While(cond Expr, body Stmt) *WhileStmt     { return &WhileStmt{Cond: cond, Body: body} }
func DoWhile(body Stmt, cond Expr) *DoWhileStmt { return &DoWhileStmt{Body: body, Cond: cond} }

func For(init Stmt, cond Expr, next Stmt, body Stmt) *ForStmt {
	return &ForStmt{Init: init, Cond: cond, Next: next, Body: body}
}

// TryFinally creates try { body } finally { finally }.
func TryFinally(body, finally *Block) *TryFinallyStmt {
	return &TryFinallyStmt{Try: body, Finally: finally}
}

// TryCatch creates try { body } catch (name) { handler }. The handler is
// wrapped so that it runs with a catch context binding name:
//
//	%enter_catch(%catch_extension(name, .catch));
//	try { handler } finally { %exit_with(); }
func TryCatch(body *Block, name string, handler *Block) *TryCatchStmt {
	enter := &WithEnterStmt{
		Expr:         &CatchExtensionObject{Key: Str(name), Value: Ref(name)},
		IsCatchBlock: true,
	}
	scoped := BlockOf(enter, TryFinally(handler, BlockOf(&WithExitStmt{})))
	return &TryCatchStmt{Try: body, CatchVar: Ref(name), Catch: scoped}
}

// TryCatchFinally creates try { body } catch (name) { handler } finally
// { finally } as a try/catch nested in a try/finally.
func TryCatchFinally(body *Block, name string, handler, finally *Block) *TryFinallyStmt {
	return TryFinally(BlockOf(TryCatch(body, name, handler)), finally)
}

// With creates with (obj) body, exiting the scope on every path out.
func With(obj Expr, body Stmt) *Block {
	return BlockOf(
		&WithEnterStmt{Expr: obj},
		TryFinally(BlockOf(body), BlockOf(&WithExitStmt{})),
	)
}

// Labelled attaches a label to a breakable statement.
func Labelled(label string, s Stmt) Stmt {
	switch s := s.(type) {
	case *Block:
		s.Names = append(s.Names, label)
		return s
	case *WhileStmt:
		s.Names = append(s.Names, label)
		return s
	case *DoWhileStmt:
		s.Names = append(s.Names, label)
		return s
	case *ForStmt:
		s.Names = append(s.Names, label)
		return s
	case *ForInStmt:
		s.Names = append(s.Names, label)
		return s
	case *SwitchStmt:
		s.Names = append(s.Names, label)
		return s
	default:
		b := BlockOf(s)
		b.Names = []string{label}
		return b
	}
}

// Functions

// Func creates a function literal with the given parameters and body.
func Func(name string, params []string, body ...Stmt) *FunctionLit {
	return &FunctionLit{Name: name, Params: params, Body: body, Scope: &Scope{}}
}

// Program creates the top-level function of a script.
func Program(body ...Stmt) *FunctionLit {
	return &FunctionLit{Body: body, Scope: &Scope{}, IsProgram: true}
}

// DeclareVar records a hoisted var or const declaration.
func (f *FunctionLit) DeclareVar(name string, mode VarMode) *Declaration {
	d := &Declaration{Ref: Ref(name), Mode: mode}
	f.Scope.Decls = append(f.Scope.Decls, d)
	return d
}

// DeclareFunc records a hoisted function declaration.
func (f *FunctionLit) DeclareFunc(fun *FunctionLit) *Declaration {
	d := &Declaration{Ref: Ref(fun.Name), Mode: ModeVar, Fun: fun}
	f.Scope.Decls = append(f.Scope.Decls, d)
	return d
}
