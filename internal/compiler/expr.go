package compiler

import (
	"fmt"

	"github.com/kolkov/ujit/internal/ast"
	"github.com/kolkov/ujit/internal/masm"
	"github.com/kolkov/ujit/internal/token"
	"github.com/kolkov/ujit/internal/types"
)

// compileExpr generates code for an expression in the current context.
func (c *codegen) compileExpr(expr ast.Expr) {
	c.enter()
	defer c.leave()

	switch e := expr.(type) {
	case *ast.Literal:
		c.applyConst(literalValue(e))

	case *ast.VarRef:
		c.comment("[ VariableProxy " + e.Name)
		c.emitVariableLoad(e.Var)

	case *ast.Property:
		c.compileProperty(e)

	case *ast.Assign:
		c.compileAssign(e)

	case *ast.CountOp:
		c.compileCountOp(e)

	case *ast.Unary:
		c.compileUnary(e)

	case *ast.Binary:
		c.compileBinary(e)

	case *ast.Compare:
		c.comment("[ CompareOperation")
		c.visitForValue(e.Left, Stack)
		c.visitForValue(e.Right, Accumulator)
		c.setSourcePosition(e.Pos())
		c.masm.CompareOp(e.Op)
		c.applyAcc()

	case *ast.Conditional:
		c.compileConditional(e)

	case *ast.Call:
		c.compileCall(e)

	case *ast.CallNew:
		c.comment("[ CallNew")
		c.visitForValue(e.Callee, Stack)
		c.pushArguments(e.Args)
		c.setSourcePosition(e.Pos())
		c.masm.Construct(len(e.Args))
		c.dropAndApply(1)

	case *ast.CallRuntime:
		c.comment("[ CallRuntime " + e.Name)
		c.pushArguments(e.Args)
		c.masm.CallRuntime(e.Name, len(e.Args))
		c.applyAcc()

	case *ast.Throw:
		c.comment("[ Throw")
		c.visitForValue(e.Exception, Stack)
		c.setSourcePosition(e.Pos())
		c.masm.CallHelper(masm.HelperThrow, 1)
		// Never returns here.

	case *ast.FunctionLit:
		c.comment("[ FunctionLiteral")
		c.masm.PushConst(types.Internal(&Boilerplate{Fn: e}))
		c.masm.CallHelper(masm.HelperNewClosure, 1)
		c.applyAcc()

	case *ast.ThisFunction:
		c.comment("[ ThisFunction")
		c.masm.LoadFunction()
		c.applyAcc()

	case *ast.RegExpLit:
		c.comment("[ RegExpLiteral")
		c.masm.PushConst(types.Num(float64(e.Index)))
		c.masm.PushConst(types.Str(e.Pattern))
		c.masm.PushConst(types.Str(e.Flags))
		c.masm.CallHelper(masm.HelperMaterializeRegExp, 3)
		c.applyAcc()

	case *ast.ObjectLit:
		c.compileObjectLit(e)

	case *ast.ArrayLit:
		c.compileArrayLit(e)

	case *ast.CatchExtensionObject:
		c.comment("[ CatchExtensionObject")
		c.visitForValue(e.Key, Stack)
		c.visitForValue(e.Value, Stack)
		c.masm.CallHelper(masm.HelperCreateCatchExtensionObject, 2)
		c.applyAcc()

	case *ast.FunctionBoilerplateLit:
		unsupported(e)

	default:
		panic(fmt.Sprintf("compiler: unexpected expression type %T", expr))
	}
}

// ----------------------------------------------------------------------------
// Variables

func (c *codegen) emitVariableLoad(v *ast.Variable) {
	if v.IsGlobal() {
		c.masm.LoadGlobal(v.Name, false)
		c.applyAcc()
		return
	}
	switch v.Slot.Kind {
	case ast.SlotParameter:
		c.masm.LoadParam(v.Slot.Index)
	case ast.SlotLocal:
		c.masm.LoadLocal(v.Slot.Index)
	case ast.SlotContext:
		c.masm.LoadContext(c.scope.ContextChainLength(v.Scope), v.Slot.Index)
	default:
		panic(fmt.Sprintf("compiler: cannot load %s", v))
	}
	c.applyAcc()
}

// storeVariable stores the accumulator into v. The accumulator is left
// unchanged.
func (c *codegen) storeVariable(v *ast.Variable) {
	if v.IsGlobal() {
		c.masm.StoreGlobal(v.Name)
		return
	}
	switch v.Slot.Kind {
	case ast.SlotParameter:
		c.masm.StoreParam(v.Slot.Index)
	case ast.SlotLocal:
		c.masm.StoreLocal(v.Slot.Index)
	case ast.SlotContext:
		c.masm.StoreContext(c.scope.ContextChainLength(v.Scope), v.Slot.Index)
	default:
		panic(fmt.Sprintf("compiler: cannot store to %s", v))
	}
}

func (c *codegen) emitVariableAssignment(v *ast.Variable) {
	c.storeVariable(v)
	c.applyAcc()
}

// ----------------------------------------------------------------------------
// Properties and assignment

// propertyName returns the name of a named property access and whether
// the access is named rather than keyed.
func propertyName(p *ast.Property) (string, bool) {
	if !ast.IsPropertyName(p.Key) {
		return "", false
	}
	return p.Key.(*ast.Literal).Str, true
}

func (c *codegen) compileProperty(e *ast.Property) {
	c.comment("[ Property")
	c.visitForValue(e.Obj, Stack)
	if name, ok := propertyName(e); ok {
		c.setSourcePosition(e.Pos())
		c.masm.LoadNamed(name)
		c.dropAndApply(1)
		return
	}
	c.visitForValue(e.Key, Stack)
	c.setSourcePosition(e.Pos())
	c.masm.LoadKeyed()
	c.dropAndApply(2)
}

// compileAssign generates target = value and compound assignments. The
// receiver and key of a property target stay on the stack until the
// store.
func (c *codegen) compileAssign(e *ast.Assign) {
	c.comment("[ Assignment")
	if e.Op == token.INIT_CONST {
		unsupported(e)
	}

	var (
		v     *ast.Variable
		name  string
		named bool
	)
	switch t := e.Target.(type) {
	case *ast.VarRef:
		v = t.Var
	case *ast.Property:
		name, named = propertyName(t)
		c.visitForValue(t.Obj, Stack)
		if !named {
			c.visitForValue(t.Key, Stack)
		}
	default:
		unsupported(e)
	}

	if e.IsCompound() {
		switch {
		case v != nil:
			c.visitIn(e.Target, exprContext{context: Value, location: Stack})
		case named:
			c.masm.LoadNamed(name)
			c.masm.Push()
		default:
			c.masm.LoadKeyed()
			c.masm.Push()
		}
		c.visitForValue(e.Value, Accumulator)
		c.setSourcePosition(e.Pos())
		c.masm.BinaryOp(token.BinaryOpForAssign(e.Op))
	} else {
		c.visitForValue(e.Value, Accumulator)
		c.setSourcePosition(e.Pos())
	}

	switch {
	case v != nil:
		c.emitVariableAssignment(v)
	case named:
		c.masm.StoreNamed(name)
		c.dropAndApply(1)
	default:
		c.masm.StoreKeyed()
		c.dropAndApply(2)
	}
}

// compileCountOp generates ++ and --. A postfix result is the old value
// converted to a number; outside Effect context it is saved in a stack
// slot reserved below the receiver of a property target.
func (c *codegen) compileCountOp(e *ast.CountOp) {
	c.comment("[ CountOperation")
	postfix := !e.Prefix && c.ctx.context != Effect

	var (
		v     *ast.Variable
		name  string
		named bool
		slots int // Stack elements held for a property target
	)
	switch t := e.X.(type) {
	case *ast.VarRef:
		v = t.Var
		c.visitIn(t, exprContext{context: Value, location: Accumulator})
	case *ast.Property:
		if postfix {
			c.masm.PushConst(types.Num(0))
		}
		name, named = propertyName(t)
		c.visitForValue(t.Obj, Stack)
		if named {
			slots = 1
			c.masm.LoadNamed(name)
		} else {
			slots = 2
			c.visitForValue(t.Key, Stack)
			c.masm.LoadKeyed()
		}
	default:
		unsupported(e)
	}

	c.masm.ToNumber()
	if postfix {
		if v != nil {
			c.masm.Push()
		} else {
			c.masm.Poke(slots)
		}
	}

	c.masm.Push()
	c.masm.LoadConst(types.Num(1))
	c.setSourcePosition(e.Pos())
	if e.Op == token.INC {
		c.masm.BinaryOp(token.ADD)
	} else {
		c.masm.BinaryOp(token.SUB)
	}

	switch {
	case v != nil:
		if postfix {
			c.storeVariable(v)
			c.applyTOS()
		} else {
			c.emitVariableAssignment(v)
		}
	case named:
		c.masm.StoreNamed(name)
		if postfix {
			c.masm.Drop(1)
			c.applyTOS()
		} else {
			c.dropAndApply(1)
		}
	default:
		c.masm.StoreKeyed()
		if postfix {
			c.masm.Drop(2)
			c.applyTOS()
		} else {
			c.dropAndApply(2)
		}
	}
}

// ----------------------------------------------------------------------------
// Operators

func (c *codegen) compileUnary(e *ast.Unary) {
	switch e.Op {
	case token.NOT:
		c.comment("[ UnaryOperation (NOT)")
		if c.ctx.context == Effect {
			c.visitForEffect(e.X)
			return
		}
		var materializeTrue, materializeFalse masm.Label
		ifTrue, ifFalse := c.prepareTest(&materializeTrue, &materializeFalse)
		// The operand branches to the opposite labels.
		c.visitForControl(e.X, ifFalse, ifTrue)
		c.applyTrueFalse(&materializeTrue, &materializeFalse)

	case token.VOID:
		c.comment("[ UnaryOperation (VOID)")
		c.visitForEffect(e.X)
		switch c.ctx.context {
		case Effect:
		case Value:
			c.loadToLocation(undefinedValue)
		case Test, ValueTest:
			c.masm.Jump(c.ctx.falseLabel)
		case TestValue:
			c.loadToLocation(undefinedValue)
			c.masm.Jump(c.ctx.falseLabel)
		default:
			panic("compiler: expression generated without a context")
		}

	case token.TYPEOF:
		c.comment("[ UnaryOperation (TYPEOF)")
		if ref, ok := e.X.(*ast.VarRef); ok && ref.Var.IsGlobal() {
			// An undeclared global is not a reference error here.
			c.masm.LoadGlobal(ref.Name, true)
			c.masm.Push()
		} else {
			c.visitForValue(e.X, Stack)
		}
		c.masm.CallHelper(masm.HelperTypeof, 1)
		c.applyAcc()

	default:
		unsupported(e)
	}
}

func (c *codegen) compileBinary(e *ast.Binary) {
	switch e.Op {
	case token.COMMA:
		c.comment("[ Comma")
		c.visitForEffect(e.Left)
		c.compileExpr(e.Right)

	case token.OR, token.AND:
		c.compileLogical(e)

	default:
		c.comment("[ BinaryOperation")
		c.visitForValue(e.Left, Stack)
		c.visitForValue(e.Right, Accumulator)
		c.setSourcePosition(e.Pos())
		c.masm.BinaryOp(e.Op)
		c.applyAcc()
	}
}

// compileLogical generates && and ||. The left operand runs in a context
// derived from the current one so that its value is produced only on the
// path that yields it; the right operand is the tail of the whole
// expression.
func (c *codegen) compileLogical(e *ast.Binary) {
	c.comment("[ " + e.Op.String())
	var evalRight, done masm.Label
	plan := PlanLogical(e.Op, c.ctx.context)
	label := func(t Target) *masm.Label {
		switch t {
		case Done:
			return &done
		case EvalRight:
			return &evalRight
		case TrueLabel:
			return c.ctx.trueLabel
		default:
			return c.ctx.falseLabel
		}
	}

	ifTrue, ifFalse := label(plan.IfTrue), label(plan.IfFalse)
	switch plan.Context {
	case Test:
		c.visitForControl(e.Left, ifTrue, ifFalse)
	case ValueTest:
		c.visitForValueControl(e.Left, c.ctx.location, ifTrue, ifFalse)
	case TestValue:
		c.visitForControlValue(e.Left, c.ctx.location, ifTrue, ifFalse)
	}

	c.masm.Bind(&evalRight)
	c.compileExpr(e.Right)
	c.masm.Bind(&done)
}

func (c *codegen) compileConditional(e *ast.Conditional) {
	c.comment("[ Conditional")
	var then, els, done masm.Label
	c.visitForControl(e.Cond, &then, &els)

	// In control contexts both arms end in a jump.
	falls := !c.ctx.context.IsControl()

	c.masm.Bind(&then)
	c.compileExpr(e.Then)
	if falls {
		c.masm.Jump(&done)
	}

	c.masm.Bind(&els)
	c.compileExpr(e.Else)
	if falls {
		c.masm.Bind(&done)
	}
}

// ----------------------------------------------------------------------------
// Calls

func (c *codegen) pushArguments(args []ast.Expr) {
	for _, arg := range args {
		c.visitForValue(arg, Stack)
	}
}

func (c *codegen) inLoop() bool { return c.loopDepth > 0 }

// compileCall picks the calling sequence by the shape of the callee:
// a global function is called by name on the global receiver, a named
// method by name on its object, and anything else as a value.
func (c *codegen) compileCall(e *ast.Call) {
	c.comment("[ Call")
	switch callee := e.Callee.(type) {
	case *ast.VarRef:
		if callee.Var.IsPossiblyEval() || callee.Var.IsLookup() {
			unsupported(e)
		}
		if callee.Var.IsGlobal() {
			c.masm.LoadGlobalObject()
			c.masm.Push()
			c.emitCallNamed(e, callee.Name)
			return
		}

	case *ast.Property:
		if name, ok := propertyName(callee); ok {
			c.visitForValue(callee.Obj, Stack)
			c.emitCallNamed(e, name)
			return
		}
		// Keyed call: leave the function below a copy of the receiver.
		c.visitForValue(callee.Obj, Stack)
		c.masm.Peek(0)
		c.masm.Push()
		c.visitForValue(callee.Key, Stack)
		c.setSourcePosition(callee.Pos())
		c.masm.LoadKeyed()
		c.masm.Drop(1)
		c.masm.Poke(1)
		c.emitCallValue(e)
		return
	}

	c.visitForValue(e.Callee, Stack)
	c.masm.LoadGlobalObject()
	c.masm.Push()
	c.emitCallValue(e)
}

// emitCallNamed calls name on the receiver that is on top of the stack.
func (c *codegen) emitCallNamed(e *ast.Call, name string) {
	c.pushArguments(e.Args)
	c.setSourcePosition(e.Pos())
	c.masm.CallNamed(name, len(e.Args), c.inLoop())
	c.applyAcc()
}

// emitCallValue calls the function below the receiver on top of the
// stack and drops the function afterwards.
func (c *codegen) emitCallValue(e *ast.Call) {
	c.pushArguments(e.Args)
	c.setSourcePosition(e.Pos())
	c.masm.CallValue(len(e.Args), c.inLoop())
	c.dropAndApply(1)
}

// ----------------------------------------------------------------------------
// Literals

// compileObjectLit clones the literal's boilerplate and stores the
// properties that are not compile-time values into the copy.
func (c *codegen) compileObjectLit(e *ast.ObjectLit) {
	c.comment("[ ObjectLiteral")
	c.masm.PushConst(types.Num(float64(e.Index)))
	c.masm.PushConst(types.Internal(objectTemplate(e)))
	c.masm.CallHelper(masm.HelperCreateObjectLiteral, 2)

	resultSaved := false
	for _, p := range e.Props {
		if p.IsCompileTimeValue() {
			continue
		}
		if !resultSaved {
			c.masm.Push()
			resultSaved = true
		}
		if p.Kind != ast.PropPrototype && p.Key.Kind == ast.LitString {
			c.visitForValue(p.Value, Accumulator)
			c.masm.StoreNamed(p.Key.Str)
			continue
		}
		// Duplicate the receiver for the generic store.
		c.masm.Peek(0)
		c.masm.Push()
		c.masm.PushConst(types.Str(propertyKey(p.Key)))
		c.visitForValue(p.Value, Stack)
		c.masm.CallHelper(masm.HelperSetProperty, 3)
	}

	if resultSaved {
		c.applyTOS()
	} else {
		c.applyAcc()
	}
}

func (c *codegen) compileArrayLit(e *ast.ArrayLit) {
	c.comment("[ ArrayLiteral")
	c.masm.PushConst(types.Num(float64(e.Index)))
	c.masm.PushConst(types.Internal(arrayTemplate(e)))
	c.masm.CallHelper(masm.HelperCreateArrayLiteral, 2)

	resultSaved := false
	for i, v := range e.Values {
		if ast.IsCompileTimeValue(v) {
			continue
		}
		if !resultSaved {
			c.masm.Push()
			resultSaved = true
		}
		c.visitForValue(v, Accumulator)
		c.masm.StoreElement(i)
	}

	if resultSaved {
		c.applyTOS()
	} else {
		c.applyAcc()
	}
}
