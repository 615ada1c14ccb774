package ast

import "github.com/kolkov/ujit/internal/token"

// -----------------------------------------------------------------------------
// Literals
// -----------------------------------------------------------------------------

// LitKind identifies the kind of a Literal.
type LitKind uint8

const (
	LitUndefined LitKind = iota
	LitNull
	LitTrue
	LitFalse
	LitNumber
	LitString
	LitHole // Elision in an array literal, also the uninitialized const marker
)

// Literal is a constant value.
type Literal struct {
	BaseExpr
	Kind LitKind
	Num  float64
	Str  string
}

// IsTruthy reports the boolean value of the literal.
func (l *Literal) IsTruthy() bool {
	switch l.Kind {
	case LitTrue:
		return true
	case LitNumber:
		return l.Num == l.Num && l.Num != 0
	case LitString:
		return l.Str != ""
	default:
		return false
	}
}

// RegExpLit is a regular expression literal.
type RegExpLit struct {
	BaseExpr
	Pattern string
	Flags   string
	Index   int // Literal slot in the enclosing function, set by the resolver
}

// PropKind identifies the kind of an object literal property.
type PropKind uint8

const (
	PropConstant            PropKind = iota // Literal value
	PropComputed                            // Arbitrary expression value
	PropMaterializedLiteral                 // Non-constant nested object or array literal
	PropPrototype                           // __proto__: value
)

// ObjectProperty is a key: value entry of an object literal.
type ObjectProperty struct {
	Kind  PropKind
	Key   *Literal
	Value Expr
}

// IsCompileTimeValue reports whether the property is built into the boilerplate.
func (p *ObjectProperty) IsCompileTimeValue() bool {
	return p.Kind == PropConstant ||
		(p.Kind == PropMaterializedLiteral && IsCompileTimeValue(p.Value))
}

// ObjectLit is an object literal.
type ObjectLit struct {
	BaseExpr
	Props []*ObjectProperty
	Index int // Literal slot in the enclosing function, set by the resolver
}

// IsSimple reports whether every property is a compile-time value.
func (o *ObjectLit) IsSimple() bool {
	for _, p := range o.Props {
		if !p.IsCompileTimeValue() {
			return false
		}
	}
	return true
}

// Depth returns the nesting depth of literal values, 1 for a flat literal.
func (o *ObjectLit) Depth() int {
	d := 1
	for _, p := range o.Props {
		d = max(d, 1+literalDepth(p.Value))
	}
	return d
}

// ArrayLit is an array literal. Elisions are LitHole literals.
type ArrayLit struct {
	BaseExpr
	Values []Expr
	Index  int // Literal slot in the enclosing function, set by the resolver
}

// IsSimple reports whether every element is a compile-time value.
func (a *ArrayLit) IsSimple() bool {
	for _, v := range a.Values {
		if !IsCompileTimeValue(v) {
			return false
		}
	}
	return true
}

func literalDepth(e Expr) int {
	switch n := e.(type) {
	case *ObjectLit:
		return n.Depth()
	case *ArrayLit:
		d := 1
		for _, v := range n.Values {
			d = max(d, 1+literalDepth(v))
		}
		return d
	default:
		return 0
	}
}

// -----------------------------------------------------------------------------
// Functions
// -----------------------------------------------------------------------------

// FunctionLit is a function expression or declaration body. The top-level
// script is a FunctionLit with IsProgram set.
type FunctionLit struct {
	BaseExpr
	Name      string
	Params    []string
	Body      []Stmt
	Scope     *Scope
	IsProgram bool

	// NumLiterals counts regexp, object and array literal slots.
	NumLiterals int
}

// FunctionBoilerplateLit wraps a precompiled function template. It only
// appears in trees produced by natives and is never generated here.
type FunctionBoilerplateLit struct {
	BaseExpr
	Name string
}

// ThisFunction evaluates to the currently executing closure.
type ThisFunction struct {
	BaseExpr
}

// -----------------------------------------------------------------------------
// References
// -----------------------------------------------------------------------------

// VarRef is a reference to a named variable. Var is bound by the resolver.
type VarRef struct {
	BaseExpr
	Name string
	Var  *Variable
}

// Property is obj.key or obj[key].
type Property struct {
	BaseExpr
	Obj Expr
	Key Expr
}

// -----------------------------------------------------------------------------
// Operations
// -----------------------------------------------------------------------------

// Conditional is cond ? then : else.
type Conditional struct {
	BaseExpr
	Cond Expr
	Then Expr
	Else Expr
}

// Assign is target op value, where op is ASSIGN, INIT_VAR, INIT_CONST or a
// compound assignment.
type Assign struct {
	BaseExpr
	Op     token.Token
	Target Expr
	Value  Expr
}

// IsCompound reports whether the assignment reads the target first.
func (a *Assign) IsCompound() bool {
	return a.Op.IsCompoundAssign()
}

// CountOp is ++x, --x, x++ or x--.
type CountOp struct {
	BaseExpr
	Op     token.Token // INC or DEC
	Prefix bool
	X      Expr
}

// Unary is a prefix unary operation.
type Unary struct {
	BaseExpr
	Op token.Token
	X  Expr
}

// Binary is an arithmetic, bitwise, logical or comma operation.
type Binary struct {
	BaseExpr
	Op    token.Token
	Left  Expr
	Right Expr
}

// Compare is a comparison operation.
type Compare struct {
	BaseExpr
	Op    token.Token
	Left  Expr
	Right Expr
}

// -----------------------------------------------------------------------------
// Calls
// -----------------------------------------------------------------------------

// Call is callee(args...).
type Call struct {
	BaseExpr
	Callee Expr
	Args   []Expr
}

// CallNew is new callee(args...).
type CallNew struct {
	BaseExpr
	Callee Expr
	Args   []Expr
}

// CallRuntime calls a runtime function by name. Names starting with an
// underscore denote inline runtime functions.
type CallRuntime struct {
	BaseExpr
	Name string
	Args []Expr
}

// -----------------------------------------------------------------------------
// Special
// -----------------------------------------------------------------------------

// Throw raises Exception.
type Throw struct {
	BaseExpr
	Exception Expr
}

// CatchExtensionObject creates the object that binds the catch name while a
// catch block runs.
type CatchExtensionObject struct {
	BaseExpr
	Key   *Literal
	Value Expr
}
