package compiler

import (
	"fmt"

	"github.com/kolkov/ujit/internal/ast"
	"github.com/kolkov/ujit/internal/masm"
	"github.com/kolkov/ujit/internal/token"
	"github.com/kolkov/ujit/internal/types"
)

// Context tells the code generated for an expression what the
// surrounding code expects from its value.
type Context uint8

const (
	Uninitialized Context = iota
	Effect                // Only side effects matter
	Value                 // Value delivered to the current Location
	Test                  // Jump to the true or false label
	ValueTest             // Jump; the value is also delivered on the true path
	TestValue             // Jump; the value is also delivered on the false path
)

var contextNames = [...]string{
	Uninitialized: "Uninitialized",
	Effect:        "Effect",
	Value:         "Value",
	Test:          "Test",
	ValueTest:     "ValueTest",
	TestValue:     "TestValue",
}

func (c Context) String() string {
	if int(c) < len(contextNames) {
		return contextNames[c]
	}
	return fmt.Sprintf("Context(%d)", c)
}

// IsControl reports whether code generated in c never falls through.
func (c Context) IsControl() bool {
	return c == Test || c == ValueTest || c == TestValue
}

// Location is where a value delivered in a value context ends up.
type Location uint8

const (
	Accumulator Location = iota
	Stack
)

func (l Location) String() string {
	if l == Stack {
		return "Stack"
	}
	return "Accumulator"
}

// Target names a branch destination of the left operand of && or ||.
type Target uint8

const (
	Done       Target = iota // End of the whole logical expression
	EvalRight                // Evaluation of the right operand
	TrueLabel                // The enclosing true label
	FalseLabel               // The enclosing false label
)

var targetNames = [...]string{
	Done:       "done",
	EvalRight:  "eval_right",
	TrueLabel:  "true_label",
	FalseLabel: "false_label",
}

func (t Target) String() string {
	if int(t) < len(targetNames) {
		return targetNames[t]
	}
	return fmt.Sprintf("Target(%d)", t)
}

// LogicalPlan describes how the left operand of a logical operation is
// generated: the context it runs in and where its two branches go.
type LogicalPlan struct {
	Context Context
	IfTrue  Target
	IfFalse Target
}

// PlanLogical returns the plan for the left operand of op (token.OR or
// token.AND) when the whole expression is generated in ctx. The right
// operand is always generated in ctx itself.
func PlanLogical(op token.Token, ctx Context) LogicalPlan {
	switch op {
	case token.OR:
		switch ctx {
		case Effect:
			return LogicalPlan{Test, Done, EvalRight}
		case Value:
			return LogicalPlan{ValueTest, Done, EvalRight}
		case Test:
			return LogicalPlan{Test, TrueLabel, EvalRight}
		case ValueTest:
			return LogicalPlan{ValueTest, TrueLabel, EvalRight}
		case TestValue:
			// The false path continues with the right operand, so the
			// left value is never needed.
			return LogicalPlan{Test, TrueLabel, EvalRight}
		}
	case token.AND:
		switch ctx {
		case Effect:
			return LogicalPlan{Test, EvalRight, Done}
		case Value:
			return LogicalPlan{TestValue, EvalRight, Done}
		case Test:
			return LogicalPlan{Test, EvalRight, FalseLabel}
		case ValueTest:
			return LogicalPlan{Test, EvalRight, FalseLabel}
		case TestValue:
			return LogicalPlan{TestValue, EvalRight, FalseLabel}
		}
	default:
		panic(fmt.Sprintf("compiler: %s is not a logical operator", op))
	}
	panic(fmt.Sprintf("compiler: logical operation in %s context", ctx))
}

// exprContext is the state established before generating an expression.
type exprContext struct {
	context    Context
	location   Location
	trueLabel  *masm.Label
	falseLabel *masm.Label
}

// ----------------------------------------------------------------------------
// Visiting in a context

func (c *codegen) visitIn(e ast.Expr, ctx exprContext) {
	saved := c.ctx
	c.ctx = ctx
	c.compileExpr(e)
	c.ctx = saved
}

func (c *codegen) visitForEffect(e ast.Expr) {
	c.visitIn(e, exprContext{context: Effect})
}

func (c *codegen) visitForValue(e ast.Expr, loc Location) {
	c.visitIn(e, exprContext{context: Value, location: loc})
}

func (c *codegen) visitForControl(e ast.Expr, ifTrue, ifFalse *masm.Label) {
	c.visitIn(e, exprContext{context: Test, trueLabel: ifTrue, falseLabel: ifFalse})
}

// visitForValueControl generates e so that its value is at loc when
// control reaches ifTrue.
func (c *codegen) visitForValueControl(e ast.Expr, loc Location, ifTrue, ifFalse *masm.Label) {
	c.visitIn(e, exprContext{context: ValueTest, location: loc, trueLabel: ifTrue, falseLabel: ifFalse})
}

// visitForControlValue generates e so that its value is at loc when
// control reaches ifFalse.
func (c *codegen) visitForControlValue(e ast.Expr, loc Location, ifTrue, ifFalse *masm.Label) {
	c.visitIn(e, exprContext{context: TestValue, location: loc, trueLabel: ifTrue, falseLabel: ifFalse})
}

// ----------------------------------------------------------------------------
// Delivering results

// applyAcc delivers the value in the accumulator to the current context.
func (c *codegen) applyAcc() {
	switch c.ctx.context {
	case Effect:
	case Value:
		if c.ctx.location == Stack {
			c.masm.Push()
		}
	case Test:
		c.doTest()
	case ValueTest, TestValue:
		if c.ctx.location == Stack {
			c.masm.Push()
		}
		c.doTest()
	default:
		panic("compiler: expression generated without a context")
	}
}

// applyConst delivers a constant to the current context.
func (c *codegen) applyConst(v types.Value) {
	switch c.ctx.context {
	case Effect:
	case Value:
		c.loadToLocation(v)
	default:
		c.masm.LoadConst(v)
		c.applyAcc()
	}
}

// applyTOS delivers the value on top of the stack to the current context.
func (c *codegen) applyTOS() {
	switch c.ctx.context {
	case Effect:
		c.masm.Drop(1)
	case Value:
		if c.ctx.location == Accumulator {
			c.masm.Pop()
		}
	case Test:
		c.masm.Pop()
		c.doTest()
	case ValueTest, TestValue:
		if c.ctx.location == Accumulator {
			c.masm.Pop()
		} else {
			c.masm.Peek(0)
		}
		c.doTest()
	default:
		panic("compiler: expression generated without a context")
	}
}

// dropAndApply discards count stack elements and delivers the value in
// the accumulator to the current context. When the value goes to the
// stack it replaces the last discarded element.
func (c *codegen) dropAndApply(count int) {
	switch c.ctx.context {
	case Effect:
		c.masm.Drop(count)
	case Value:
		if c.ctx.location == Accumulator {
			c.masm.Drop(count)
		} else {
			c.masm.Drop(count - 1)
			c.masm.Poke(0)
		}
	case Test:
		c.masm.Drop(count)
		c.doTest()
	case ValueTest, TestValue:
		if c.ctx.location == Accumulator {
			c.masm.Drop(count)
		} else {
			c.masm.Drop(count - 1)
			c.masm.Poke(0)
		}
		c.doTest()
	default:
		panic("compiler: expression generated without a context")
	}
}

// applyTrueFalse binds the materialization labels handed out by
// prepareTest and delivers true or false to the current context.
func (c *codegen) applyTrueFalse(materializeTrue, materializeFalse *masm.Label) {
	switch c.ctx.context {
	case Value:
		var done masm.Label
		c.masm.Bind(materializeTrue)
		c.loadToLocation(types.Bool(true))
		c.masm.Jump(&done)
		c.masm.Bind(materializeFalse)
		c.loadToLocation(types.Bool(false))
		c.masm.Bind(&done)
	case Test:
	case ValueTest:
		c.masm.Bind(materializeTrue)
		c.loadToLocation(types.Bool(true))
		c.masm.Jump(c.ctx.trueLabel)
	case TestValue:
		c.masm.Bind(materializeFalse)
		c.loadToLocation(types.Bool(false))
		c.masm.Jump(c.ctx.falseLabel)
	default:
		panic(fmt.Sprintf("compiler: cannot materialize a boolean in %s context", c.ctx.context))
	}
}

// prepareTest returns the labels an expression that computes its result
// by branching should jump to in the current context.
func (c *codegen) prepareTest(materializeTrue, materializeFalse *masm.Label) (ifTrue, ifFalse *masm.Label) {
	switch c.ctx.context {
	case Value:
		return materializeTrue, materializeFalse
	case Test:
		return c.ctx.trueLabel, c.ctx.falseLabel
	case ValueTest:
		return materializeTrue, c.ctx.falseLabel
	case TestValue:
		return c.ctx.trueLabel, materializeFalse
	default:
		panic(fmt.Sprintf("compiler: cannot branch in %s context", c.ctx.context))
	}
}

func (c *codegen) loadToLocation(v types.Value) {
	if c.ctx.location == Stack {
		c.masm.PushConst(v)
	} else {
		c.masm.LoadConst(v)
	}
}

// doTest branches on the truthiness of the accumulator. In the composite
// contexts with a stack location the value was already pushed; it is
// dropped on the path that does not need it.
func (c *codegen) doTest() {
	t, f := c.ctx.trueLabel, c.ctx.falseLabel
	switch c.ctx.context {
	case Test:
		c.masm.JumpIfTrue(t)
		c.masm.Jump(f)
	case ValueTest:
		c.masm.JumpIfTrue(t)
		if c.ctx.location == Stack {
			c.masm.Drop(1)
		}
		c.masm.Jump(f)
	case TestValue:
		c.masm.JumpIfFalse(f)
		if c.ctx.location == Stack {
			c.masm.Drop(1)
		}
		c.masm.Jump(t)
	default:
		panic(fmt.Sprintf("compiler: truthiness test in %s context", c.ctx.context))
	}
}
