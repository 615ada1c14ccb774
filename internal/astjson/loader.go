// Package astjson loads programs from ESTree-shaped JSON, the format
// produced by common JavaScript parsers, into the ast package's tree.
//
// The loader performs the same desugaring the generator expects from a
// front end: var and function declarations are hoisted into the scope of
// the enclosing function, try/catch/finally becomes a try/catch nested in
// a try/finally, catch and with bodies are wrapped in context enter and
// exit statements, and sequence and logical expressions become binary
// operations. Names are left unresolved; run semantic.Resolve on the
// result before generating code.
package astjson

import (
	"fmt"
	"math"

	"github.com/valyala/fastjson"

	"github.com/kolkov/ujit/internal/ast"
	"github.com/kolkov/ujit/internal/token"
	"github.com/kolkov/ujit/internal/types"
)

// Error is a load error at a source position.
type Error struct {
	Pos     token.Position
	Message string
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	return e.Message
}

// LoadProgram parses an ESTree Program node.
func LoadProgram(data []byte) (*ast.FunctionLit, error) {
	return LoadFile("", data)
}

// LoadFile is like LoadProgram but records filename in every position.
func LoadFile(filename string, data []byte) (prog *ast.FunctionLit, err error) {
	var p fastjson.Parser
	root, err := p.ParseBytes(data)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("invalid JSON: %v", err)}
	}

	l := &loader{filename: filename}
	defer func() {
		if r := recover(); r != nil {
			if le, ok := r.(*Error); ok {
				prog, err = nil, le
			} else {
				panic(r)
			}
		}
	}()
	return l.program(root), nil
}

type loader struct {
	filename string
	fn       *ast.FunctionLit // Function receiving hoisted declarations
}

func (l *loader) errorf(v *fastjson.Value, format string, args ...any) {
	panic(&Error{Pos: l.pos(v, "start"), Message: fmt.Sprintf(format, args...)})
}

// pos reads loc.start or loc.end. ESTree columns are zero-based.
func (l *loader) pos(v *fastjson.Value, which string) token.Position {
	if v == nil || !v.Exists("loc", which) {
		return token.NoPos
	}
	p := token.Position{
		Filename: l.filename,
		Line:     v.GetInt("loc", which, "line"),
		Column:   v.GetInt("loc", which, "column") + 1,
	}
	if which == "start" {
		p.Offset = v.GetInt("start")
	} else {
		p.Offset = v.GetInt("end")
	}
	return p
}

type spanned interface {
	SetSpan(start, end token.Position)
}

func (l *loader) span(n spanned, v *fastjson.Value) {
	n.SetSpan(l.pos(v, "start"), l.pos(v, "end"))
}

// child returns the node under key, or nil when it is absent or null.
func child(v *fastjson.Value, key string) *fastjson.Value {
	c := v.Get(key)
	if c == nil || c.Type() == fastjson.TypeNull {
		return nil
	}
	return c
}

func nodeType(v *fastjson.Value) string {
	return string(v.GetStringBytes("type"))
}

func (l *loader) identifier(v *fastjson.Value) string {
	if v == nil || nodeType(v) != "Identifier" {
		l.errorf(v, "identifier expected")
	}
	return string(v.GetStringBytes("name"))
}

func (l *loader) program(v *fastjson.Value) *ast.FunctionLit {
	if nodeType(v) != "Program" {
		l.errorf(v, "Program node expected, found %q", nodeType(v))
	}
	prog := ast.Program()
	l.span(prog, v)
	l.fn = prog
	prog.Body = l.stmtList(v.GetArray("body"))
	return prog
}

func (l *loader) function(v *fastjson.Value) *ast.FunctionLit {
	name := ""
	if id := child(v, "id"); id != nil {
		name = l.identifier(id)
	}
	var params []string
	for _, p := range v.GetArray("params") {
		params = append(params, l.identifier(p))
	}
	if v.GetBool("generator") || v.GetBool("async") {
		l.errorf(v, "generator and async functions are not supported")
	}

	fn := ast.Func(name, params)
	l.span(fn, v)
	outer := l.fn
	l.fn = fn
	body := child(v, "body")
	if body == nil || nodeType(body) != "BlockStatement" {
		l.errorf(v, "function body must be a block")
	}
	fn.Body = l.stmtList(body.GetArray("body"))
	l.fn = outer
	return fn
}

// -----------------------------------------------------------------------------
// Statements

func (l *loader) stmtList(list []*fastjson.Value) []ast.Stmt {
	var stmts []ast.Stmt
	for _, v := range list {
		stmts = append(stmts, l.stmts(v)...)
	}
	return stmts
}

// stmt converts a statement in a position that needs exactly one.
func (l *loader) stmt(v *fastjson.Value) ast.Stmt {
	stmts := l.stmts(v)
	switch len(stmts) {
	case 0:
		s := &ast.EmptyStmt{}
		l.span(s, v)
		return s
	case 1:
		return stmts[0]
	default:
		b := ast.BlockOf(stmts...)
		l.span(b, v)
		return b
	}
}

func (l *loader) block(v *fastjson.Value) *ast.Block {
	if v == nil || nodeType(v) != "BlockStatement" {
		l.errorf(v, "block expected")
	}
	b := ast.BlockOf(l.stmtList(v.GetArray("body"))...)
	l.span(b, v)
	return b
}

// stmts converts one statement. Declarations may expand to none or
// several statements.
func (l *loader) stmts(v *fastjson.Value) []ast.Stmt {
	var s ast.Stmt
	switch typ := nodeType(v); typ {
	case "ExpressionStatement":
		s = ast.Expression(l.expr(child(v, "expression")))

	case "VariableDeclaration":
		return l.varDecl(v)

	case "FunctionDeclaration":
		l.fn.DeclareFunc(l.function(v))
		return nil

	case "EmptyStatement":
		s = &ast.EmptyStmt{}

	case "BlockStatement":
		return []ast.Stmt{l.block(v)}

	case "IfStatement":
		var els ast.Stmt
		if a := child(v, "alternate"); a != nil {
			els = l.stmt(a)
		}
		s = ast.If(l.expr(child(v, "test")), l.stmt(child(v, "consequent")), els)

	case "ReturnStatement":
		if l.fn.IsProgram {
			l.errorf(v, "return outside of a function")
		}
		var value ast.Expr
		if a := child(v, "argument"); a != nil {
			value = l.expr(a)
		}
		s = ast.Return(value)

	case "ThrowStatement":
		th := ast.ThrowOf(l.expr(child(v, "argument")))
		l.span(th, v)
		s = ast.Expression(th)

	case "BreakStatement", "ContinueStatement":
		label := ""
		if id := child(v, "label"); id != nil {
			label = l.identifier(id)
		}
		if typ == "BreakStatement" {
			s = ast.Break(label)
		} else {
			s = ast.Continue(label)
		}

	case "LabeledStatement":
		return []ast.Stmt{ast.Labelled(l.identifier(child(v, "label")), l.stmt(child(v, "body")))}

	case "WhileStatement":
		s = ast.While(l.expr(child(v, "test")), l.stmt(child(v, "body")))

	case "DoWhileStatement":
		s = ast.DoWhile(l.stmt(child(v, "body")), l.expr(child(v, "test")))

	case "ForStatement":
		s = l.forStmt(v)

	case "ForInStatement":
		s = l.forInStmt(v)

	case "SwitchStatement":
		s = l.switchStmt(v)

	case "TryStatement":
		s = l.tryStmt(v)

	case "WithStatement":
		w := ast.With(l.expr(child(v, "object")), l.stmt(child(v, "body")))
		l.span(w, v)
		return []ast.Stmt{w}

	case "DebuggerStatement":
		s = &ast.DebuggerStmt{}

	default:
		l.errorf(v, "unsupported statement %q", typ)
	}
	l.span(s.(spanned), v)
	return []ast.Stmt{s}
}

// varDecl hoists the declared names and turns initializers into
// initializing assignments.
func (l *loader) varDecl(v *fastjson.Value) []ast.Stmt {
	mode, op := ast.ModeVar, token.INIT_VAR
	switch kind := string(v.GetStringBytes("kind")); kind {
	case "var":
	case "const":
		mode, op = ast.ModeConst, token.INIT_CONST
	default:
		l.errorf(v, "%s declarations are not supported", kind)
	}

	var stmts []ast.Stmt
	for _, d := range v.GetArray("declarations") {
		name := l.identifier(child(d, "id"))
		l.fn.DeclareVar(name, mode)
		init := child(d, "init")
		if init == nil {
			continue
		}
		ref := ast.Ref(name)
		l.span(ref, child(d, "id"))
		assign := &ast.Assign{Op: op, Target: ref, Value: l.expr(init)}
		l.span(assign, d)
		s := ast.Expression(assign)
		l.span(s, d)
		stmts = append(stmts, s)
	}
	return stmts
}

func (l *loader) forStmt(v *fastjson.Value) ast.Stmt {
	var init, next ast.Stmt
	var cond ast.Expr
	if i := child(v, "init"); i != nil {
		if nodeType(i) == "VariableDeclaration" {
			init = l.stmt(i)
		} else {
			e := ast.Expression(l.expr(i))
			l.span(e, i)
			init = e
		}
	}
	if t := child(v, "test"); t != nil {
		cond = l.expr(t)
	}
	if u := child(v, "update"); u != nil {
		e := ast.Expression(l.expr(u))
		l.span(e, u)
		next = e
	}
	return ast.For(init, cond, next, l.stmt(child(v, "body")))
}

func (l *loader) forInStmt(v *fastjson.Value) ast.Stmt {
	left := child(v, "left")
	var each ast.Expr
	if nodeType(left) == "VariableDeclaration" {
		decls := left.GetArray("declarations")
		if len(decls) != 1 || child(decls[0], "init") != nil {
			l.errorf(left, "for-in declaration must bind exactly one name without initializer")
		}
		name := l.identifier(child(decls[0], "id"))
		l.fn.DeclareVar(name, ast.ModeVar)
		each = ast.Ref(name)
	} else {
		each = l.expr(left)
	}
	return &ast.ForInStmt{Each: each, Enumerable: l.expr(child(v, "right")), Body: l.stmt(child(v, "body"))}
}

func (l *loader) switchStmt(v *fastjson.Value) ast.Stmt {
	s := &ast.SwitchStmt{Tag: l.expr(child(v, "discriminant"))}
	for _, c := range v.GetArray("cases") {
		clause := &ast.CaseClause{Body: l.stmtList(c.GetArray("consequent"))}
		if t := child(c, "test"); t != nil {
			clause.Label = l.expr(t)
		}
		s.Cases = append(s.Cases, clause)
	}
	return s
}

// tryStmt lowers try/catch/finally to a try/catch inside a try/finally.
func (l *loader) tryStmt(v *fastjson.Value) ast.Stmt {
	body := l.block(child(v, "block"))
	handler := child(v, "handler")
	finalizer := child(v, "finalizer")

	var s ast.Stmt
	if handler != nil {
		param := child(handler, "param")
		if param == nil {
			l.errorf(handler, "catch clause without a binding is not supported")
		}
		tc := ast.TryCatch(body, l.identifier(param), l.block(child(handler, "body")))
		l.span(tc, v)
		s = tc
	}
	if finalizer != nil {
		if s != nil {
			body = ast.BlockOf(s)
		}
		s = ast.TryFinally(body, l.block(finalizer))
	}
	if s == nil {
		l.errorf(v, "try statement without catch or finally")
	}
	return s
}

// -----------------------------------------------------------------------------
// Expressions

func (l *loader) exprs(list []*fastjson.Value) []ast.Expr {
	exprs := make([]ast.Expr, 0, len(list))
	for _, v := range list {
		if nodeType(v) == "SpreadElement" {
			l.errorf(v, "spread arguments are not supported")
		}
		exprs = append(exprs, l.expr(v))
	}
	return exprs
}

func (l *loader) expr(v *fastjson.Value) ast.Expr {
	if v == nil {
		panic(&Error{Message: "missing expression"})
	}
	e := l.expr1(v)
	if n, ok := e.(spanned); ok {
		l.span(n, v)
	}
	return e
}

func (l *loader) expr1(v *fastjson.Value) ast.Expr {
	switch typ := nodeType(v); typ {
	case "Identifier":
		return ast.Ref(l.identifier(v))

	case "ThisExpression":
		return ast.This()

	case "Literal":
		return l.literal(v)

	case "ArrayExpression":
		var values []ast.Expr
		for _, e := range v.GetArray("elements") {
			if e.Type() == fastjson.TypeNull {
				values = append(values, ast.TheHole())
				continue
			}
			values = append(values, l.expr(e))
		}
		return ast.NewArray(values...)

	case "ObjectExpression":
		return l.object(v)

	case "FunctionExpression":
		return l.function(v)

	case "SequenceExpression":
		list := l.exprs(v.GetArray("expressions"))
		if len(list) == 0 {
			l.errorf(v, "empty sequence expression")
		}
		e := list[0]
		for _, next := range list[1:] {
			e = ast.Bin(token.COMMA, e, next)
		}
		return e

	case "UnaryExpression":
		return l.unary(v)

	case "UpdateExpression":
		op := token.INC
		if string(v.GetStringBytes("operator")) == "--" {
			op = token.DEC
		}
		return ast.Count(op, v.GetBool("prefix"), l.expr(child(v, "argument")))

	case "BinaryExpression", "LogicalExpression":
		opStr := string(v.GetStringBytes("operator"))
		op := token.Lookup(opStr)
		left, right := l.expr(child(v, "left")), l.expr(child(v, "right"))
		switch {
		case op.IsCompare():
			return ast.Cmp(op, left, right)
		case op.IsBinary() && op != token.COMMA:
			return ast.Bin(op, left, right)
		}
		l.errorf(v, "unsupported operator %q", opStr)

	case "AssignmentExpression":
		opStr := string(v.GetStringBytes("operator"))
		op := token.Lookup(opStr)
		if op != token.ASSIGN && !op.IsCompoundAssign() {
			l.errorf(v, "unsupported assignment operator %q", opStr)
		}
		return &ast.Assign{Op: op, Target: l.expr(child(v, "left")), Value: l.expr(child(v, "right"))}

	case "ConditionalExpression":
		return ast.Cond(l.expr(child(v, "test")), l.expr(child(v, "consequent")), l.expr(child(v, "alternate")))

	case "CallExpression":
		return ast.CallOf(l.expr(child(v, "callee")), l.exprs(v.GetArray("arguments"))...)

	case "NewExpression":
		return ast.NewOf(l.expr(child(v, "callee")), l.exprs(v.GetArray("arguments"))...)

	case "MemberExpression":
		obj := l.expr(child(v, "object"))
		prop := child(v, "property")
		if v.GetBool("computed") {
			return ast.Prop(obj, l.expr(prop))
		}
		key := ast.Str(l.identifier(prop))
		l.span(key, prop)
		return ast.Prop(obj, key)

	case "RuntimeCall":
		return ast.Runtime(string(v.GetStringBytes("name")), l.exprs(v.GetArray("arguments"))...)

	default:
		l.errorf(v, "unsupported expression %q", typ)
	}
	panic("unreachable")
}

func (l *loader) literal(v *fastjson.Value) ast.Expr {
	if re := child(v, "regex"); re != nil {
		return ast.NewRegExp(string(re.GetStringBytes("pattern")), string(re.GetStringBytes("flags")))
	}
	val := v.Get("value")
	if val == nil {
		l.errorf(v, "literal without value")
	}
	switch val.Type() {
	case fastjson.TypeNull:
		return ast.Null()
	case fastjson.TypeTrue:
		return ast.Bool(true)
	case fastjson.TypeFalse:
		return ast.Bool(false)
	case fastjson.TypeNumber:
		return ast.Num(val.GetFloat64())
	case fastjson.TypeString:
		return ast.Str(string(val.GetStringBytes()))
	default:
		l.errorf(v, "unsupported literal value %s", val)
	}
	panic("unreachable")
}

// unary folds signs into numeric literals, as a parser for the language
// would, so that -1 stays a constant.
func (l *loader) unary(v *fastjson.Value) ast.Expr {
	opStr := string(v.GetStringBytes("operator"))
	x := l.expr(child(v, "argument"))
	var op token.Token
	switch opStr {
	case "-":
		if lit, ok := x.(*ast.Literal); ok && lit.Kind == ast.LitNumber {
			lit.Num = -lit.Num
			return lit
		}
		op = token.SUB
	case "+":
		if lit, ok := x.(*ast.Literal); ok && lit.Kind == ast.LitNumber {
			return lit
		}
		op = token.ADD
	default:
		op = token.Lookup(opStr)
		if !op.IsUnary() {
			l.errorf(v, "unsupported unary operator %q", opStr)
		}
	}
	return ast.Un(op, x)
}

func (l *loader) object(v *fastjson.Value) ast.Expr {
	var props []*ast.ObjectProperty
	for _, p := range v.GetArray("properties") {
		if nodeType(p) != "Property" {
			l.errorf(p, "unsupported object member %q", nodeType(p))
		}
		if kind := string(p.GetStringBytes("kind")); kind != "init" {
			l.errorf(p, "%s accessors are not supported", kind)
		}
		if p.GetBool("computed") {
			l.errorf(p, "computed property keys are not supported")
		}
		props = append(props, ast.NewProperty(l.propertyKey(child(p, "key")), l.expr(child(p, "value"))))
	}
	return ast.NewObject(props...)
}

func (l *loader) propertyKey(v *fastjson.Value) string {
	if v == nil {
		l.errorf(v, "property key expected")
	}
	if nodeType(v) == "Identifier" {
		return l.identifier(v)
	}
	val := v.Get("value")
	switch {
	case nodeType(v) != "Literal" || val == nil:
		l.errorf(v, "property key expected")
	case val.Type() == fastjson.TypeString:
		return string(val.GetStringBytes())
	case val.Type() == fastjson.TypeNumber:
		n := val.GetFloat64()
		if math.IsInf(n, 0) || math.IsNaN(n) {
			l.errorf(v, "invalid numeric property key")
		}
		return types.FormatNum(n)
	}
	l.errorf(v, "property key expected")
	panic("unreachable")
}
