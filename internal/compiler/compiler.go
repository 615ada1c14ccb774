// Package compiler is the baseline code generator. It turns one resolved
// function into masm code in a single pass over the tree, without any
// intermediate representation.
//
// Every expression is generated under a Context that says how its value
// is consumed: dropped, delivered to the accumulator or the stack, or
// turned into a branch. Break, continue and return leave enclosing
// constructs through a stack of nesting entries that know how to unwind
// exception handlers and run finally blocks.
package compiler

import (
	"errors"
	"fmt"

	"github.com/kolkov/ujit/internal/ast"
	"github.com/kolkov/ujit/internal/logging"
	"github.com/kolkov/ujit/internal/masm"
	"github.com/kolkov/ujit/internal/semantic"
	"github.com/kolkov/ujit/internal/token"
)

// DefaultMaxNesting bounds the recursion of the generator when Options
// leaves it unset.
const DefaultMaxNesting = 1000

var (
	// ErrUnsupported is returned when the function uses a construct this
	// generator does not handle; the caller must use another code path.
	ErrUnsupported = errors.New("function not supported by the baseline code generator")

	// ErrStackOverflow is returned when the tree is nested too deeply to
	// generate.
	ErrStackOverflow = errors.New("code generator nesting limit exceeded")
)

// Options controls code generation.
type Options struct {
	RejectFor    bool // Decline for statements
	DebugInfo    bool // Record source positions and comments
	TraceBailout bool // Log every declined function
	MaxNesting   int  // Maximum statement and expression nesting
}

// UnsupportedError reports why a function was declined.
type UnsupportedError struct {
	Function string
	Verdict  semantic.Verdict
}

func (e *UnsupportedError) Error() string {
	if e.Verdict.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Verdict.Pos, e.Function, e.Verdict.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Function, e.Verdict.Reason)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// CompileError aborts generation of a single function.
type CompileError struct {
	Function string
	Err      error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Function, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Generate checks fn and generates its code. It returns an error wrapping
// ErrUnsupported when the support check declines the function and one
// wrapping ErrStackOverflow when the tree is too deep. Any other failure
// is a bug in the generator and panics.
func Generate(fn *ast.FunctionLit, opts Options) (code *masm.Code, err error) {
	verdict := semantic.CheckSupport(fn, semantic.CheckOptions{RejectFor: opts.RejectFor})
	if !verdict.Supported {
		if opts.TraceBailout {
			where := ""
			if verdict.Pos.IsValid() {
				where = verdict.Pos.String()
			}
			logging.LogBailout(FunctionName(fn), verdict.Reason, where)
		}
		return nil, &UnsupportedError{Function: FunctionName(fn), Verdict: verdict}
	}

	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CompileError); ok {
				code, err = nil, ce
			} else {
				panic(r) // Re-panic for generator bugs
			}
		}
	}()

	c := newCodegen(fn, opts)
	c.generate()
	return c.finish(), nil
}

// FunctionName returns the name used for fn in code objects and messages.
func FunctionName(fn *ast.FunctionLit) string {
	switch {
	case fn.IsProgram:
		return "<program>"
	case fn.Name != "":
		return fn.Name
	default:
		return "<anonymous>"
	}
}

// codegen generates the code of one function. It is not safe for
// concurrent use; every function gets its own instance.
type codegen struct {
	masm  *masm.Assembler
	fn    *ast.FunctionLit
	scope *ast.Scope
	opts  Options

	ctx       exprContext
	nesting   nestingStack
	loopDepth int
	level     int // Current recursion depth

	returnLabel masm.Label
	entryStub   masm.Label
	entryResume masm.Label
}

func newCodegen(fn *ast.FunctionLit, opts Options) *codegen {
	if opts.MaxNesting <= 0 {
		opts.MaxNesting = DefaultMaxNesting
	}
	return &codegen{
		masm:  masm.NewAssembler(),
		fn:    fn,
		scope: fn.Scope,
		opts:  opts,
	}
}

func (c *codegen) finish() *masm.Code {
	sc := c.scope
	code := c.masm.Finish(FunctionName(c.fn), len(sc.Params), sc.NumLocals, sc.NumHeapSlots)
	code.NumLiterals = c.fn.NumLiterals
	return code
}

// enter guards the generator's own recursion.
func (c *codegen) enter() {
	c.level++
	if c.level > c.opts.MaxNesting {
		panic(&CompileError{Function: FunctionName(c.fn), Err: ErrStackOverflow})
	}
}

func (c *codegen) leave() { c.level-- }

// generate emits the whole function: prologue, declarations, an entry
// stack check, the body and an implicit return of undefined.
func (c *codegen) generate() {
	sc := c.scope
	c.setSourcePosition(c.fn.Pos())
	c.masm.Prologue(sc.NumLocals, sc.NumHeapSlots)

	if sc.NumHeapSlots > 0 {
		// The prologue allocated the function context; copy the
		// parameters that live in it.
		for i, p := range sc.Params {
			if p.Slot != nil && p.Slot.Kind == ast.SlotContext {
				c.masm.LoadParam(i)
				c.masm.StoreContext(0, p.Slot.Index)
			}
		}
	}

	c.comment("[ Declarations")
	c.declareAll(sc.Decls)

	c.comment("[ Stack check")
	c.masm.StackLimitCheck(&c.entryStub)
	c.masm.Bind(&c.entryResume)

	c.comment("[ Body")
	c.compileStmts(c.fn.Body)
	if c.loopDepth != 0 {
		panic("compiler: unbalanced loop depth")
	}

	c.comment("[ return <undefined>;")
	c.masm.LoadConst(undefinedValue)
	c.emitReturnSequence(c.fn.End())

	c.comment("[ Stack check stub")
	c.masm.Bind(&c.entryStub)
	c.masm.CallHelper(masm.HelperStackGuard, 0)
	c.masm.Jump(&c.entryResume)
}

// emitReturnSequence returns the accumulator to the caller. Only the
// first return emits the frame epilogue; later ones jump to it.
func (c *codegen) emitReturnSequence(pos token.Position) {
	if c.returnLabel.IsBound() {
		c.masm.Jump(&c.returnLabel)
		return
	}
	c.comment("[ Return sequence")
	c.masm.Bind(&c.returnLabel)
	c.setStatementPosition(pos)
	c.masm.Return()
}

func (c *codegen) comment(text string) {
	if c.opts.DebugInfo {
		c.masm.Comment(text)
	}
}

func (c *codegen) setStatementPosition(pos token.Position) {
	if c.opts.DebugInfo {
		c.masm.RecordPosition(pos, true)
	}
}

func (c *codegen) setSourcePosition(pos token.Position) {
	if c.opts.DebugInfo {
		c.masm.RecordPosition(pos, false)
	}
}

// unsupported reports a construct the support check should have
// declined. Reaching it is a bug in the check.
func unsupported(n ast.Node) {
	panic(fmt.Sprintf("compiler: %T reached the code generator", n))
}
