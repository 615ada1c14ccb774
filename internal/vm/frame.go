package vm

import (
	"github.com/kolkov/ujit/internal/compiler"
	"github.com/kolkov/ujit/internal/masm"
	"github.com/kolkov/ujit/internal/types"
)

// Context is one link of the heap context chain. Function contexts hold
// captured variables; with and catch contexts only carry an extension
// object and share the function context of the code that pushed them.
type Context struct {
	slots     []types.Value
	previous  *Context
	fcontext  *Context
	extension *types.Object
}

func newFunctionContext(previous *Context, numSlots int) *Context {
	c := &Context{slots: make([]types.Value, numSlots), previous: previous}
	c.fcontext = c
	return c
}

func newExtensionContext(previous *Context, ext *types.Object) *Context {
	return &Context{previous: previous, fcontext: previous.fcontext, extension: ext}
}

// Closure is the callable state of a script function: its boilerplate,
// the context it was created in and its materialized literals.
type Closure struct {
	Boilerplate *compiler.Boilerplate // nil for top-level code
	Context     *Context
	Code        *masm.Code // Set on first call
	Literals    []types.Value
}

// NativeFunc implements a built-in function. Returning a *ThrowError
// throws its value into the script.
type NativeFunc func(vm *VM, this types.Value, args []types.Value) (types.Value, error)

// Native is a built-in function.
type Native struct {
	Name string
	Fn   NativeFunc
}

// Frame is the activation record of one script function.
type Frame struct {
	fn      *types.Object
	closure *Closure
	code    *masm.Code
	pc      int // Next instruction
	at      int // Instruction being executed

	this      types.Value
	params    []types.Value
	locals    []types.Value
	context   *Context
	base      int // Operand stack height at entry
	construct bool
}

// contextAt returns the function context depth links out from the
// current one.
func (f *Frame) contextAt(depth int) *Context {
	c := f.context.fcontext
	for ; depth > 0; depth-- {
		c = c.previous.fcontext
	}
	return c
}

func (f *Frame) name() string {
	return f.code.Name
}

// returnAddress is pushed by CallLocal and popped by LocalReturn.
type returnAddress int

// handlerSlot replaces the return address of an installed handler.
type handlerSlot masm.HandlerKind

// handler is an entry of the exception handler chain. A throw resumes at
// the handler's return address in its frame, with the operand stack cut
// back to below the handler's slot and the context restored.
type handler struct {
	kind    masm.HandlerKind
	frame   int
	slot    int
	resume  int
	context *Context
}
