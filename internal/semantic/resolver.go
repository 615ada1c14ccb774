package semantic

import "github.com/kolkov/ujit/internal/ast"

// ResolveResult contains the results of scope analysis.
type ResolveResult struct {
	// Globals maps every global name referenced or declared by the program.
	Globals map[string]*ast.Variable

	// Functions lists every resolved function, outermost first.
	Functions []*ast.FunctionLit

	// Errors encountered during resolution
	Errors ErrorList
}

// frameKind identifies an entry of the lexical environment chain.
type frameKind uint8

const (
	funcFrame  frameKind = iota // Function scope
	catchFrame                  // Catch variable binding
	withFrame                   // Object environment of a with statement
	catchCtx                    // Catch context pushed by the catch block
)

// env is one link of the lexical environment chain, innermost first.
type env struct {
	outer *env
	kind  frameKind

	fn *funcInfo // funcFrame

	name string        // catchFrame
	v    *ast.Variable // catchFrame
}

// funcInfo tracks a function while its body is being resolved.
type funcInfo struct {
	lit   *ast.FunctionLit
	scope *ast.Scope
	vars  map[string]*ast.Variable
	order []*ast.Variable // declaration order for slot allocation

	// forceContext places every variable in the context so that
	// runtime lookups by name can find it.
	forceContext bool

	// break/continue targets, innermost last
	targets []ast.BreakableStmt
}

// Resolver performs scope analysis on a program.
type Resolver struct {
	result *ResolveResult
	env    *env
	fn     *funcInfo
	funcs  []*funcInfo
}

// Resolve binds every name in prog to a variable, assigns storage slots,
// numbers literals and binds break and continue statements to their
// targets. prog must be the top-level function with IsProgram set.
func Resolve(prog *ast.FunctionLit) (*ResolveResult, error) {
	r := &Resolver{
		result: &ResolveResult{
			Globals: make(map[string]*ast.Variable),
		},
	}

	r.resolveFunction(prog, nil)

	for _, fi := range r.funcs {
		r.allocate(fi)
	}

	if err := r.result.Errors.Err(); err != nil {
		return r.result, err
	}
	return r.result, nil
}

// global returns the shared variable for a global name.
func (r *Resolver) global(name string, mode ast.VarMode) *ast.Variable {
	v, ok := r.result.Globals[name]
	if !ok {
		v = &ast.Variable{Name: name, Mode: mode}
		r.result.Globals[name] = v
	} else if mode == ast.ModeConst {
		v.Mode = ast.ModeConst
	}
	return v
}

// ----------------------------------------------------------------------------
// Functions

func (r *Resolver) resolveFunction(lit *ast.FunctionLit, outer *ast.Scope) {
	scope := lit.Scope
	if scope == nil {
		scope = &ast.Scope{}
		lit.Scope = scope
	}
	scope.Outer = outer
	scope.Function = lit
	scope.Receiver = &ast.Variable{
		Name:   "this",
		Mode:   ast.ModeVar,
		Slot:   &ast.Slot{Kind: ast.SlotParameter, Index: -1},
		Scope:  scope,
		IsThis: true,
	}

	fi := &funcInfo{
		lit:   lit,
		scope: scope,
		vars:  make(map[string]*ast.Variable),
	}
	r.funcs = append(r.funcs, fi)
	r.result.Functions = append(r.result.Functions, lit)

	r.scanBody(fi)
	r.declare(fi)

	savedEnv, savedFn := r.env, r.fn
	r.env = &env{outer: r.env, kind: funcFrame, fn: fi}
	r.fn = fi

	for _, d := range scope.Decls {
		if d.Fun != nil {
			r.resolveFunction(d.Fun, scope)
		}
	}
	r.resolveStmts(lit.Body)

	r.env, r.fn = savedEnv, savedFn

	if fi.forceContext && savedFn != nil {
		savedFn.forceContext = true
	}
}

// scanBody records direct eval calls and with statements before any
// name in the function is resolved.
func (r *Resolver) scanBody(fi *funcInfo) {
	for _, stmt := range fi.lit.Body {
		ast.Walk(stmt, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.FunctionLit:
				return false
			case *ast.Call:
				if ref, ok := n.Callee.(*ast.VarRef); ok && ref.Name == "eval" {
					fi.scope.CallsEval = true
				}
			case *ast.WithEnterStmt:
				if !n.IsCatchBlock {
					fi.scope.ContainsWith = true
				}
			}
			return true
		})
	}
	if fi.scope.CallsEval || fi.scope.ContainsWith {
		fi.forceContext = true
	}
}

// declare creates the variables of parameters and hoisted declarations.
func (r *Resolver) declare(fi *funcInfo) {
	for _, name := range fi.lit.Params {
		if _, dup := fi.vars[name]; dup {
			// Later parameters with the same name win.
			continue
		}
		v := &ast.Variable{Name: name, Mode: ast.ModeVar, Scope: fi.scope}
		fi.vars[name] = v
		fi.scope.Params = append(fi.scope.Params, v)
	}
	for _, d := range fi.scope.Decls {
		name := d.Ref.Name
		if fi.lit.IsProgram {
			d.Ref.Var = r.global(name, d.Mode)
			continue
		}
		v, ok := fi.vars[name]
		if !ok {
			v = &ast.Variable{Name: name, Mode: d.Mode, Scope: fi.scope}
			fi.vars[name] = v
			fi.order = append(fi.order, v)
		} else if d.Mode == ast.ModeConst {
			v.Mode = ast.ModeConst
		}
		d.Ref.Var = v
	}
}

// allocate assigns storage slots once every reference is known.
func (r *Resolver) allocate(fi *funcInfo) {
	scope := fi.scope
	inContext := func(v *ast.Variable) bool {
		return fi.forceContext || v.Captured
	}
	toContext := func(v *ast.Variable) {
		v.Slot = &ast.Slot{Kind: ast.SlotContext, Index: scope.NumHeapSlots}
		scope.NumHeapSlots++
		scope.ContextNames = append(scope.ContextNames, v.Name)
	}

	for i, p := range scope.Params {
		if inContext(p) {
			toContext(p)
		} else {
			p.Slot = &ast.Slot{Kind: ast.SlotParameter, Index: i}
		}
	}
	for _, v := range fi.order {
		if inContext(v) {
			toContext(v)
		} else {
			v.Slot = &ast.Slot{Kind: ast.SlotLocal, Index: scope.NumLocals}
			scope.NumLocals++
		}
	}
}

// ----------------------------------------------------------------------------
// Names

// lookup resolves name against the current environment chain.
func (r *Resolver) lookup(name string) *ast.Variable {
	if name == "this" {
		return r.fn.scope.Receiver
	}
	crossed := false
	dynamic := false
	for e := r.env; e != nil; e = e.outer {
		switch e.kind {
		case catchFrame:
			if e.name == name && !dynamic {
				if crossed {
					e.v.Captured = true
				}
				return e.v
			}
		case withFrame:
			dynamic = true
		case funcFrame:
			fi := e.fn
			if fi.scope.CallsEval {
				dynamic = true
			}
			if !dynamic {
				if v, ok := fi.vars[name]; ok {
					if crossed {
						v.Captured = true
					}
					return v
				}
			}
			crossed = true
		}
	}
	if dynamic {
		r.forceDynamic()
		return &ast.Variable{
			Name: name,
			Mode: ast.ModeDynamic,
			Slot: &ast.Slot{Kind: ast.SlotLookup, Index: -1},
		}
	}
	return r.global(name, ast.ModeVar)
}

// forceDynamic moves every variable visible from the current point into
// contexts, so a runtime lookup by name can reach it.
func (r *Resolver) forceDynamic() {
	for e := r.env; e != nil; e = e.outer {
		if e.kind == funcFrame {
			e.fn.forceContext = true
		}
	}
}

func (r *Resolver) resolveRef(ref *ast.VarRef) {
	ref.Var = r.lookup(ref.Name)
}

// temporary declares a hidden variable in the current function.
func (r *Resolver) temporary(name string) *ast.Variable {
	v := &ast.Variable{Name: name, Mode: ast.ModeTemporary, Scope: r.fn.scope}
	r.fn.order = append(r.fn.order, v)
	return v
}

// nextLiteral returns the next materialized literal slot.
func (r *Resolver) nextLiteral() int {
	n := r.fn.lit.NumLiterals
	r.fn.lit.NumLiterals++
	return n
}

// ----------------------------------------------------------------------------
// Statements

func (r *Resolver) resolveStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		r.resolveStmt(s)
	}
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	if stmt == nil {
		return
	}

	switch s := stmt.(type) {
	case *ast.Block:
		r.pushTarget(s)
		r.resolveStmts(s.Stmts)
		r.popTarget()

	case *ast.ExprStmt:
		r.resolveExpr(s.Expr)

	case *ast.EmptyStmt, *ast.DebuggerStmt:
		// Nothing to resolve

	case *ast.IfStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Then)
		r.resolveStmt(s.Else)

	case *ast.ContinueStmt:
		r.bindContinue(s)

	case *ast.BreakStmt:
		r.bindBreak(s)

	case *ast.ReturnStmt:
		if r.fn.lit.IsProgram {
			r.result.Errors.Add(s.Pos(), errReturnOutsideFunc)
		}
		if s.Value != nil {
			r.resolveExpr(s.Value)
		}

	case *ast.WithEnterStmt:
		r.resolveExpr(s.Expr)
		kind := withFrame
		if s.IsCatchBlock {
			kind = catchCtx
		}
		r.env = &env{outer: r.env, kind: kind}

	case *ast.WithExitStmt:
		if r.env.kind != withFrame && r.env.kind != catchCtx {
			r.result.Errors.Add(s.Pos(), errUnbalancedWith)
			return
		}
		r.env = r.env.outer

	case *ast.SwitchStmt:
		r.resolveExpr(s.Tag)
		r.pushTarget(s)
		for _, c := range s.Cases {
			if c.Label != nil {
				r.resolveExpr(c.Label)
			}
			r.resolveStmts(c.Body)
		}
		r.popTarget()

	case *ast.DoWhileStmt:
		r.pushTarget(s)
		r.resolveStmt(s.Body)
		r.popTarget()
		r.resolveExpr(s.Cond)

	case *ast.WhileStmt:
		r.resolveExpr(s.Cond)
		r.pushTarget(s)
		r.resolveStmt(s.Body)
		r.popTarget()

	case *ast.ForStmt:
		r.resolveStmt(s.Init)
		if s.Cond != nil {
			r.resolveExpr(s.Cond)
		}
		r.resolveStmt(s.Next)
		r.pushTarget(s)
		r.resolveStmt(s.Body)
		r.popTarget()

	case *ast.ForInStmt:
		r.resolveExpr(s.Each)
		r.resolveExpr(s.Enumerable)
		r.pushTarget(s)
		r.resolveStmt(s.Body)
		r.popTarget()

	case *ast.TryCatchStmt:
		r.resolveStmt(s.Try)
		hidden := r.temporary(s.CatchVar.Name)
		s.CatchVar.Var = hidden
		r.env = &env{outer: r.env, kind: catchFrame, name: s.CatchVar.Name, v: hidden}
		r.resolveStmt(s.Catch)
		r.env = r.env.outer

	case *ast.TryFinallyStmt:
		r.resolveStmt(s.Try)
		r.resolveStmt(s.Finally)
	}
}

// ----------------------------------------------------------------------------
// Break and continue targets

func (r *Resolver) pushTarget(s ast.BreakableStmt) {
	r.fn.targets = append(r.fn.targets, s)
}

func (r *Resolver) popTarget() {
	r.fn.targets = r.fn.targets[:len(r.fn.targets)-1]
}

func hasLabel(s ast.BreakableStmt, label string) bool {
	for _, l := range s.LabelSet() {
		if l == label {
			return true
		}
	}
	return false
}

func (r *Resolver) bindBreak(s *ast.BreakStmt) {
	targets := r.fn.targets
	for i := len(targets) - 1; i >= 0; i-- {
		t := targets[i]
		if s.Label != "" {
			if hasLabel(t, s.Label) {
				s.Target = t
				return
			}
			continue
		}
		// An unlabelled break leaves the innermost loop or switch.
		switch t.(type) {
		case ast.IterationStmt, *ast.SwitchStmt:
			s.Target = t
			return
		}
	}
	if s.Label != "" {
		r.result.Errors.Add(s.Pos(), errUndefinedLabel, s.Label)
	} else {
		r.result.Errors.Add(s.Pos(), errBreakOutsideLoop)
	}
}

func (r *Resolver) bindContinue(s *ast.ContinueStmt) {
	targets := r.fn.targets
	for i := len(targets) - 1; i >= 0; i-- {
		t := targets[i]
		if s.Label != "" && !hasLabel(t, s.Label) {
			continue
		}
		loop, ok := t.(ast.IterationStmt)
		if !ok {
			if s.Label != "" {
				r.result.Errors.Add(s.Pos(), errContinueNotLoop, s.Label)
				return
			}
			continue
		}
		s.Target = loop
		return
	}
	if s.Label != "" {
		r.result.Errors.Add(s.Pos(), errUndefinedLabel, s.Label)
	} else {
		r.result.Errors.Add(s.Pos(), errContinueOutsideLoop)
	}
}

// ----------------------------------------------------------------------------
// Expressions

func (r *Resolver) resolveExprs(exprs []ast.Expr) {
	for _, e := range exprs {
		r.resolveExpr(e)
	}
}

func (r *Resolver) resolveExpr(expr ast.Expr) {
	if expr == nil {
		return
	}

	switch e := expr.(type) {
	case *ast.Literal, *ast.ThisFunction, *ast.FunctionBoilerplateLit:
		// Nothing to resolve

	case *ast.RegExpLit:
		e.Index = r.nextLiteral()

	case *ast.ObjectLit:
		e.Index = r.nextLiteral()
		for _, p := range e.Props {
			r.resolveExpr(p.Value)
		}

	case *ast.ArrayLit:
		e.Index = r.nextLiteral()
		r.resolveExprs(e.Values)

	case *ast.FunctionLit:
		r.resolveFunction(e, r.fn.scope)

	case *ast.VarRef:
		r.resolveRef(e)

	case *ast.Property:
		r.resolveExpr(e.Obj)
		r.resolveExpr(e.Key)

	case *ast.Conditional:
		r.resolveExpr(e.Cond)
		r.resolveExpr(e.Then)
		r.resolveExpr(e.Else)

	case *ast.Assign:
		r.resolveExpr(e.Target)
		r.resolveExpr(e.Value)

	case *ast.CountOp:
		r.resolveExpr(e.X)

	case *ast.Unary:
		r.resolveExpr(e.X)

	case *ast.Binary:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.Compare:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.Call:
		r.resolveExpr(e.Callee)
		r.resolveExprs(e.Args)

	case *ast.CallNew:
		r.resolveExpr(e.Callee)
		r.resolveExprs(e.Args)

	case *ast.CallRuntime:
		r.resolveExprs(e.Args)

	case *ast.Throw:
		r.resolveExpr(e.Exception)

	case *ast.CatchExtensionObject:
		r.resolveExpr(e.Value)

	default:
		r.result.Errors.Add(expr.Pos(), errUnknownNode, expr)
	}
}
