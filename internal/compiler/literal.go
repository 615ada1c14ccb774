package compiler

import (
	"fmt"
	"strings"

	"github.com/kolkov/ujit/internal/ast"
	"github.com/kolkov/ujit/internal/types"
)

var undefinedValue = types.Undefined()

// Boilerplate is the compile-time template of a closure. The VM stamps
// closures from it and generates its code on first call.
type Boilerplate struct {
	Fn *ast.FunctionLit
}

func (b *Boilerplate) String() string {
	return "<function " + FunctionName(b.Fn) + ">"
}

// GlobalDecl is one global variable or function declared by a script.
type GlobalDecl struct {
	Name  string
	Const bool         // Initialized to the hole
	Fun   *Boilerplate // Function declaration
}

// GlobalDecls is the operand of the DeclareGlobals helper.
type GlobalDecls struct {
	Decls []GlobalDecl
}

func (g *GlobalDecls) String() string {
	names := make([]string, len(g.Decls))
	for i, d := range g.Decls {
		names[i] = d.Name
	}
	return "<globals " + strings.Join(names, ", ") + ">"
}

// LiteralTemplate holds the compile-time part of an object or array
// literal. Values that are computed at runtime are undefined (object
// properties) or holes (array elements) in the template and are stored
// by the generated code. Nested constant literals are themselves
// templates wrapped in internal values.
type LiteralTemplate struct {
	Array  bool
	Keys   []string // Object literals only, in source order
	Values []types.Value
	Depth  int
}

func (t *LiteralTemplate) String() string {
	if t.Array {
		return fmt.Sprintf("<array literal %d>", len(t.Values))
	}
	return "<object literal {" + strings.Join(t.Keys, ", ") + "}>"
}

func literalValue(l *ast.Literal) types.Value {
	switch l.Kind {
	case ast.LitUndefined:
		return types.Undefined()
	case ast.LitNull:
		return types.Null()
	case ast.LitTrue:
		return types.Bool(true)
	case ast.LitFalse:
		return types.Bool(false)
	case ast.LitNumber:
		return types.Num(l.Num)
	case ast.LitString:
		return types.Str(l.Str)
	case ast.LitHole:
		return types.Hole()
	default:
		panic(fmt.Sprintf("compiler: unknown literal kind %d", l.Kind))
	}
}

// propertyKey returns the property name a literal key denotes.
func propertyKey(l *ast.Literal) string {
	if l.Kind == ast.LitString {
		return l.Str
	}
	return literalValue(l).ToString()
}

// constantValue returns the template value of a compile-time constant.
func constantValue(e ast.Expr) types.Value {
	switch n := e.(type) {
	case *ast.Literal:
		return literalValue(n)
	case *ast.ObjectLit:
		return types.Internal(objectTemplate(n))
	case *ast.ArrayLit:
		return types.Internal(arrayTemplate(n))
	default:
		panic(fmt.Sprintf("compiler: %T is not a compile-time value", e))
	}
}

func objectTemplate(o *ast.ObjectLit) *LiteralTemplate {
	t := &LiteralTemplate{Depth: o.Depth()}
	for _, p := range o.Props {
		if p.Kind == ast.PropPrototype {
			continue
		}
		t.Keys = append(t.Keys, propertyKey(p.Key))
		if p.IsCompileTimeValue() {
			t.Values = append(t.Values, constantValue(p.Value))
		} else {
			t.Values = append(t.Values, types.Undefined())
		}
	}
	return t
}

func arrayTemplate(a *ast.ArrayLit) *LiteralTemplate {
	t := &LiteralTemplate{Array: true, Values: make([]types.Value, len(a.Values)), Depth: 1}
	for i, v := range a.Values {
		if ast.IsCompileTimeValue(v) {
			t.Values[i] = constantValue(v)
		} else {
			t.Values[i] = types.Hole()
		}
		switch v.(type) {
		case *ast.ObjectLit, *ast.ArrayLit:
			t.Depth = 2
		}
	}
	return t
}
