package compiler

import (
	"fmt"

	"github.com/kolkov/ujit/internal/ast"
	"github.com/kolkov/ujit/internal/masm"
	"github.com/kolkov/ujit/internal/types"
)

func (c *codegen) compileStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		c.compileStmt(s)
	}
}

// compileStmt generates code for a single statement.
func (c *codegen) compileStmt(stmt ast.Stmt) {
	c.enter()
	defer c.leave()

	switch s := stmt.(type) {
	case *ast.Block:
		c.compileBlock(s)

	case *ast.ExprStmt:
		c.comment("[ ExpressionStatement")
		c.setStatementPosition(s.Pos())
		c.visitForEffect(s.Expr)

	case *ast.EmptyStmt:
		c.comment("[ EmptyStatement")

	case *ast.IfStmt:
		c.compileIf(s)

	case *ast.ContinueStmt:
		c.comment("[ ContinueStatement")
		c.setStatementPosition(s.Pos())
		loop := c.unwindTo(func(n *nestedStmt) bool { return n.isContinueTarget(s.Target) })
		c.masm.Jump(&loop.continueLabel)

	case *ast.BreakStmt:
		c.comment("[ BreakStatement")
		c.setStatementPosition(s.Pos())
		target := c.unwindTo(func(n *nestedStmt) bool { return n.isBreakTarget(s.Target) })
		c.masm.Jump(&target.breakLabel)

	case *ast.ReturnStmt:
		c.comment("[ ReturnStatement")
		c.setStatementPosition(s.Pos())
		if s.Value == nil {
			c.masm.LoadConst(undefinedValue)
		} else {
			c.visitForValue(s.Value, Accumulator)
		}
		// A return leaves every enclosing construct.
		c.unwindTo(nil)
		c.emitReturnSequence(s.Pos())

	case *ast.WithEnterStmt:
		c.comment("[ WithEnterStatement")
		c.setStatementPosition(s.Pos())
		c.visitForValue(s.Expr, Stack)
		if s.IsCatchBlock {
			c.masm.CallHelper(masm.HelperPushCatchContext, 1)
		} else {
			c.masm.CallHelper(masm.HelperPushContext, 1)
		}

	case *ast.WithExitStmt:
		c.comment("[ WithExitStatement")
		c.setStatementPosition(s.Pos())
		c.masm.PopContext()

	case *ast.DoWhileStmt:
		c.compileDoWhile(s)

	case *ast.WhileStmt:
		c.compileWhile(s)

	case *ast.ForStmt:
		c.compileFor(s)

	case *ast.TryCatchStmt:
		c.compileTryCatch(s)

	case *ast.TryFinallyStmt:
		c.compileTryFinally(s)

	case *ast.DebuggerStmt:
		c.comment("[ DebuggerStatement")
		c.setStatementPosition(s.Pos())
		c.masm.CallHelper(masm.HelperDebugBreak, 0)

	case *ast.SwitchStmt, *ast.ForInStmt:
		unsupported(s)

	default:
		panic(fmt.Sprintf("compiler: unexpected statement type %T", stmt))
	}
}

func (c *codegen) compileBlock(s *ast.Block) {
	c.comment("[ Block")
	n := &nestedStmt{kind: Breakable, stmt: s}
	c.nested(n, func() {
		c.setStatementPosition(s.Pos())
		c.compileStmts(s.Stmts)
		c.masm.Bind(&n.breakLabel)
	})
}

func (c *codegen) compileIf(s *ast.IfStmt) {
	c.comment("[ IfStatement")
	c.setStatementPosition(s.Pos())
	var then, els, done masm.Label

	c.visitForControl(s.Cond, &then, &els)

	c.masm.Bind(&then)
	c.compileStmt(s.Then)
	c.masm.Jump(&done)

	c.masm.Bind(&els)
	c.compileStmt(s.Else)
	c.masm.Bind(&done)
}

// Loops test their condition at the bottom. Every back edge passes a
// stack check whose slow path is emitted out of line after the test.

func (c *codegen) compileDoWhile(s *ast.DoWhileStmt) {
	c.comment("[ DoWhileStatement")
	c.setStatementPosition(s.Pos())
	n := &nestedStmt{kind: Iteration, stmt: s}
	var body, stackLimitHit, stackCheckSuccess masm.Label

	c.nested(n, func() {
		c.loopDepth++
		c.masm.Bind(&body)
		c.compileStmt(s.Body)

		// continue goes through the stack check as well.
		c.masm.Bind(&n.continueLabel)
		c.masm.StackLimitCheck(&stackLimitHit)
		c.masm.Bind(&stackCheckSuccess)
		c.setStatementPosition(s.Cond.Pos())
		c.visitForControl(s.Cond, &body, &n.breakLabel)

		c.emitStackCheckStub(&stackLimitHit, &stackCheckSuccess)
		c.masm.Bind(&n.breakLabel)
		c.loopDepth--
	})
}

func (c *codegen) compileWhile(s *ast.WhileStmt) {
	c.comment("[ WhileStatement")
	c.setStatementPosition(s.Pos())
	n := &nestedStmt{kind: Iteration, stmt: s}
	var body, stackLimitHit, stackCheckSuccess masm.Label

	c.nested(n, func() {
		c.loopDepth++
		c.masm.Jump(&n.continueLabel)

		c.masm.Bind(&body)
		c.compileStmt(s.Body)

		c.masm.Bind(&n.continueLabel)
		c.masm.StackLimitCheck(&stackLimitHit)
		c.masm.Bind(&stackCheckSuccess)
		c.visitForControl(s.Cond, &body, &n.breakLabel)

		c.emitStackCheckStub(&stackLimitHit, &stackCheckSuccess)
		c.masm.Bind(&n.breakLabel)
		c.loopDepth--
	})
}

func (c *codegen) compileFor(s *ast.ForStmt) {
	c.comment("[ ForStatement")
	c.setStatementPosition(s.Pos())
	n := &nestedStmt{kind: Iteration, stmt: s}
	var test, body, stackLimitHit, stackCheckSuccess masm.Label

	c.nested(n, func() {
		c.loopDepth++
		if s.Init != nil {
			c.compileStmt(s.Init)
		}
		c.masm.Jump(&test)

		c.masm.Bind(&body)
		c.compileStmt(s.Body)

		c.masm.Bind(&n.continueLabel)
		if s.Next != nil {
			c.compileStmt(s.Next)
		}

		c.masm.Bind(&test)
		c.masm.StackLimitCheck(&stackLimitHit)
		c.masm.Bind(&stackCheckSuccess)
		if s.Cond != nil {
			c.visitForControl(s.Cond, &body, &n.breakLabel)
		} else {
			c.masm.Jump(&body)
		}

		c.emitStackCheckStub(&stackLimitHit, &stackCheckSuccess)
		c.masm.Bind(&n.breakLabel)
		c.loopDepth--
	})
}

func (c *codegen) emitStackCheckStub(hit, resume *masm.Label) {
	c.masm.Bind(hit)
	c.masm.CallHelper(masm.HelperStackGuard, 0)
	c.masm.Jump(resume)
}

// compileTryCatch reaches the protected code through a local call, so the
// pushed return address is where a throw resumes: the handler code right
// after the call, with the exception in the accumulator.
func (c *codegen) compileTryCatch(s *ast.TryCatchStmt) {
	c.comment("[ TryCatchStatement")
	c.setStatementPosition(s.Pos())
	var setup, done masm.Label

	c.masm.Call(&setup)
	c.storeVariable(s.CatchVar.Var)
	c.compileStmt(s.Catch)
	c.masm.Jump(&done)

	c.masm.Bind(&setup)
	c.nested(&nestedStmt{kind: TryCatch}, func() {
		c.masm.PushTryHandler(masm.TryCatchHandler)
		c.compileStmt(s.Try)
		c.masm.PopTryHandler()
	})
	c.masm.Bind(&done)
}

// compileTryFinally emits the finally block once as a local subroutine.
// It is called on normal exit from the try block, by every break,
// continue or return that leaves it, and by the handler before the
// exception is thrown again.
func (c *codegen) compileTryFinally(s *ast.TryFinallyStmt) {
	c.comment("[ TryFinallyStatement")
	c.setStatementPosition(s.Pos())
	var finallyEntry, setup masm.Label

	c.masm.Call(&setup)
	// Handler: the exception is in the accumulator.
	c.masm.Call(&finallyEntry)
	c.masm.Push()
	c.masm.CallHelper(masm.HelperReThrow, 1)

	c.masm.Bind(&finallyEntry)
	c.nested(&nestedStmt{kind: Finally}, func() {
		// Preserve the accumulator; it holds a return value or the
		// exception.
		c.masm.Push()
		c.compileStmt(s.Finally)
		c.masm.Pop()
		c.masm.LocalReturn()
	})

	c.masm.Bind(&setup)
	c.nested(&nestedStmt{kind: TryFinally, finallyEntry: &finallyEntry}, func() {
		c.masm.PushTryHandler(masm.TryFinallyHandler)
		c.compileStmt(s.Try)
		c.masm.PopTryHandler()
	})
	c.masm.Call(&finallyEntry)
}

// ----------------------------------------------------------------------------
// Declarations

// declareAll initializes the declared variables of the function. Stack
// and context variables are set in place; globals are collected and
// declared by one helper call.
func (c *codegen) declareAll(decls []*ast.Declaration) {
	var globals []GlobalDecl
	for _, d := range decls {
		v := d.Ref.Var
		if v.IsGlobal() {
			g := GlobalDecl{Name: v.Name, Const: d.Mode == ast.ModeConst}
			if d.Fun != nil {
				g.Fun = &Boilerplate{Fn: d.Fun}
			}
			globals = append(globals, g)
			continue
		}
		c.declare(d)
	}
	if len(globals) > 0 {
		c.masm.PushConst(types.Internal(&GlobalDecls{Decls: globals}))
		c.masm.CallHelper(masm.HelperDeclareGlobals, 1)
	}
}

func (c *codegen) declare(d *ast.Declaration) {
	v := d.Ref.Var
	switch {
	case d.Mode == ast.ModeConst:
		c.masm.LoadConst(types.Hole())
	case d.Fun != nil:
		c.visitForValue(d.Fun, Accumulator)
	default:
		// Stack and context slots start out undefined.
		return
	}
	switch v.Slot.Kind {
	case ast.SlotParameter, ast.SlotLocal:
		c.storeVariable(v)
	case ast.SlotContext:
		// Declarations live in the function's own context.
		if v.Scope != c.scope {
			panic("compiler: declaration outside the declaring scope")
		}
		c.masm.StoreContext(0, v.Slot.Index)
	default:
		panic(fmt.Sprintf("compiler: cannot declare %s", v))
	}
}
