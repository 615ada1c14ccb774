// Package vm executes generated code.
//
// The machine mirrors the model the code generator targets: one
// accumulator, an operand stack shared by all frames, parameter and local
// slots per frame, a chain of heap contexts and a chain of exception
// handlers that live in operand stack slots. Calls between script
// functions do not recurse on the Go stack; frames are pushed and popped
// by the dispatch loop.
package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/kolkov/ujit/internal/ast"
	"github.com/kolkov/ujit/internal/compiler"
	"github.com/kolkov/ujit/internal/masm"
	"github.com/kolkov/ujit/internal/runtime"
	"github.com/kolkov/ujit/internal/token"
	"github.com/kolkov/ujit/internal/types"
)

const (
	// DefaultStackSize is the initial operand stack capacity.
	DefaultStackSize = 256

	// DefaultMaxCallDepth bounds the number of nested script frames.
	DefaultMaxCallDepth = 2000
)

// ThrowError is a script exception. It is returned by Run when nothing
// catches it, and by built-in functions to throw.
type ThrowError struct {
	Value    types.Value
	Function string
	Pos      token.Position
}

func (e *ThrowError) Error() string {
	msg := "uncaught exception: " + e.Value.ToString()
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s (in %s)", e.Pos, msg, e.Function)
	}
	if e.Function != "" {
		return fmt.Sprintf("%s (in %s)", msg, e.Function)
	}
	return msg
}

// FrameError reports a function that returned with operand stack
// elements or exception handlers still in place. It is only raised with
// Config.StrictFrames.
type FrameError struct {
	Function string
	PC       int
	Depth    int
	Handlers int
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%s: %04d: return with %d stack elements and %d handlers left",
		e.Function, e.PC, e.Depth, e.Handlers)
}

// ErrReentrant is returned when Run or Call is used from a built-in
// function while the VM is running.
var ErrReentrant = errors.New("vm: already running")

// Compiler generates the code of a function on its first call.
type Compiler interface {
	Compile(fn *ast.FunctionLit) (*masm.Code, error)
}

// CompilerFunc adapts a function to the Compiler interface.
type CompilerFunc func(fn *ast.FunctionLit) (*masm.Code, error)

func (f CompilerFunc) Compile(fn *ast.FunctionLit) (*masm.Code, error) { return f(fn) }

// Config holds VM configuration options.
type Config struct {
	// Output receives print output. Default: os.Stdout.
	Output io.Writer

	// Compiler generates nested functions. Default: the baseline
	// generator with default options.
	Compiler Compiler

	// MaxCallDepth bounds nested script frames; deeper calls throw a
	// RangeError. Default: DefaultMaxCallDepth.
	MaxCallDepth int

	// InterruptInterval makes every n-th stack check enter the stack
	// guard. Zero disables periodic interrupts.
	InterruptInterval int

	// StrictFrames turns leaked stack elements or handlers at a return
	// into a FrameError.
	StrictFrames bool

	// Regex configures RegExp literals.
	Regex runtime.RegexConfig

	// OnDebugger is called by debugger statements.
	OnDebugger func(function string, pos token.Position)

	// OnInterrupt is called each time the stack guard services a
	// periodic interrupt.
	OnInterrupt func()
}

// Stats counts events observed while running.
type Stats struct {
	StackChecks int // Stack checks executed
	Interrupts  int // Periodic interrupts serviced by the stack guard
	InLoopCalls int // Calls made from call sites inside loops
	Compiled    int // Functions generated on first call
	MaxDepth    int // Deepest frame stack reached
}

// VM executes generated code. A VM is not safe for concurrent use; the
// global object persists between runs.
type VM struct {
	config Config

	// Operand stack
	stack []types.Value
	sp    int

	acc      types.Value
	frames   []*Frame
	handlers []handler
	entry    int // Frame count below the current run
	running  bool

	ctx   context.Context
	done  <-chan struct{}
	ticks int

	realm
	codes      map[*ast.FunctionLit]*masm.Code
	regexCache *runtime.RegexCache
	stats      Stats
}

// New creates a VM with a fresh global object.
func New(config Config) *VM {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.MaxCallDepth <= 0 {
		config.MaxCallDepth = DefaultMaxCallDepth
	}
	if config.Compiler == nil {
		config.Compiler = CompilerFunc(func(fn *ast.FunctionLit) (*masm.Code, error) {
			return compiler.Generate(fn, compiler.Options{})
		})
	}
	vm := &VM{
		config:     config,
		stack:      make([]types.Value, DefaultStackSize),
		codes:      make(map[*ast.FunctionLit]*masm.Code),
		regexCache: runtime.NewRegexCache(0, config.Regex),
	}
	vm.initRealm()
	return vm
}

// Global returns the global object.
func (vm *VM) Global() *types.Object { return vm.global }

// Stats returns the counters accumulated since the VM was created.
func (vm *VM) Stats() Stats { return vm.stats }

// Run executes the top-level code of a script and returns its completion
// value.
func (vm *VM) Run(ctx context.Context, code *masm.Code) (types.Value, error) {
	cl := &Closure{
		Context:  vm.globalContext,
		Code:     code,
		Literals: make([]types.Value, code.NumLiterals),
	}
	fn := vm.newFunction(cl, code.Name, 0)
	return vm.start(ctx, func() error {
		vm.pushFrame(fn, cl, code, types.Obj(vm.global), nil, false)
		return nil
	})
}

// Call invokes a function value from the host with the global object as
// receiver.
func (vm *VM) Call(ctx context.Context, fn types.Value, args ...types.Value) (types.Value, error) {
	return vm.start(ctx, func() error {
		return vm.call(fn, types.Obj(vm.global), args, false)
	})
}

func (vm *VM) start(ctx context.Context, enter func() error) (types.Value, error) {
	if vm.running {
		return types.Undefined(), ErrReentrant
	}
	if ctx == nil {
		ctx = context.Background()
	}
	vm.running = true
	vm.ctx, vm.done = ctx, ctx.Done()
	vm.entry = len(vm.frames)
	defer func() {
		vm.running = false
		vm.ctx, vm.done = nil, nil
	}()

	base := vm.sp
	err := enter()
	if err == nil && len(vm.frames) > vm.entry {
		err = vm.execute()
	}
	if err != nil {
		var te *ThrowError
		if errors.As(err, &te) && te.Function == "" && len(vm.frames) > vm.entry {
			te.Function = vm.frames[len(vm.frames)-1].name()
		}
		vm.frames = vm.frames[:vm.entry]
		vm.handlers = vm.handlers[:0]
		vm.sp = base
		return types.Undefined(), err
	}
	return vm.acc, nil
}

// -----------------------------------------------------------------------------
// Operand stack

func (vm *VM) push(v types.Value) {
	if vm.sp >= len(vm.stack) {
		vm.growStack()
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() types.Value {
	vm.sp--
	return vm.stack[vm.sp]
}

// popArgs removes the top n elements and returns a copy of them in push
// order.
func (vm *VM) popArgs(n int) []types.Value {
	args := make([]types.Value, n)
	copy(args, vm.stack[vm.sp-n:vm.sp])
	vm.sp -= n
	return args
}

func (vm *VM) growStack() {
	newStack := make([]types.Value, len(vm.stack)*2)
	copy(newStack, vm.stack)
	vm.stack = newStack
}

// -----------------------------------------------------------------------------
// Frames and calls

func (vm *VM) pushFrame(fn *types.Object, cl *Closure, code *masm.Code, this types.Value, args []types.Value, construct bool) {
	params := args
	if len(params) < code.NumParams {
		params = make([]types.Value, code.NumParams)
		copy(params, args)
	}
	vm.frames = append(vm.frames, &Frame{
		fn:        fn,
		closure:   cl,
		code:      code,
		this:      this,
		params:    params,
		context:   cl.Context,
		base:      vm.sp,
		construct: construct,
	})
	if d := len(vm.frames) - vm.entry; d > vm.stats.MaxDepth {
		vm.stats.MaxDepth = d
	}
}

// codeFor returns the code of a closure, generating it on first use.
func (vm *VM) codeFor(cl *Closure) (*masm.Code, error) {
	if cl.Code != nil {
		return cl.Code, nil
	}
	fn := cl.Boilerplate.Fn
	code, ok := vm.codes[fn]
	if !ok {
		var err error
		code, err = vm.config.Compiler.Compile(fn)
		if err != nil {
			return nil, fmt.Errorf("compiling %s: %w", compiler.FunctionName(fn), err)
		}
		vm.codes[fn] = code
		vm.stats.Compiled++
	}
	cl.Code = code
	return code, nil
}

// call invokes fnv. Built-in functions complete immediately and leave
// their result in the accumulator; script functions get a new frame.
func (vm *VM) call(fnv, this types.Value, args []types.Value, construct bool) error {
	fn := fnv.Object()
	if fn == nil || !fn.IsCallable() {
		if construct {
			return vm.throwf(typeErrorName, "%s is not a constructor", describe(fnv))
		}
		return vm.throwf(typeErrorName, "%s is not a function", describe(fnv))
	}

	if construct {
		proto := vm.objectProto
		if p := fn.Get("prototype"); p.IsObject() {
			proto = p.Object()
		}
		this = types.Obj(types.NewObject(proto))
	} else if this.IsNullish() {
		this = types.Obj(vm.global)
	}

	switch impl := fn.Internal.(type) {
	case *Native:
		result, err := impl.Fn(vm, this, args)
		if err != nil {
			return err
		}
		if construct && !result.IsObject() {
			result = this
		}
		vm.acc = result
		return nil
	case *Closure:
		code, err := vm.codeFor(impl)
		if err != nil {
			return err
		}
		vm.pushFrame(fn, impl, code, this, args, construct)
		return nil
	default:
		panic(fmt.Sprintf("vm: function object with %T", fn.Internal))
	}
}

// namedCallee returns the function a named call invokes.
func (vm *VM) namedCallee(recv types.Value, name string) (types.Value, error) {
	if o := recv.Object(); o == vm.global && !o.Has(name) {
		return types.Undefined(), vm.throwf(referenceErrorName, "%s is not defined", name)
	}
	callee, err := vm.getProperty(recv, name)
	if err != nil {
		return callee, err
	}
	if o := callee.Object(); o == nil || !o.IsCallable() {
		return callee, vm.throwf(typeErrorName, "%s is not a function", name)
	}
	return callee, nil
}

// doReturn pops the current frame. It reports whether the run is over.
func (vm *VM) doReturn(f *Frame) (bool, error) {
	idx := len(vm.frames) - 1
	handlers := 0
	for i := len(vm.handlers) - 1; i >= 0 && vm.handlers[i].frame == idx; i-- {
		handlers++
	}
	if vm.config.StrictFrames && (vm.sp != f.base || handlers > 0) {
		return false, &FrameError{Function: f.name(), PC: f.at, Depth: vm.sp - f.base, Handlers: handlers}
	}
	vm.handlers = vm.handlers[:len(vm.handlers)-handlers]
	vm.sp = f.base

	if f.construct && !vm.acc.IsObject() {
		vm.acc = f.this
	}
	vm.frames[idx] = nil
	vm.frames = vm.frames[:idx]
	return len(vm.frames) == vm.entry, nil
}

// -----------------------------------------------------------------------------
// Exceptions

// throwf creates an error object of the named class and returns it as a
// thrown exception.
func (vm *VM) throwf(class, format string, args ...any) error {
	return &ThrowError{Value: types.Obj(vm.newError(class, fmt.Sprintf(format, args...)))}
}

// unwind delivers a thrown exception to the innermost handler. Errors
// that are not exceptions, and exceptions nothing catches, are returned.
func (vm *VM) unwind(err error) error {
	var te *ThrowError
	if !errors.As(err, &te) {
		return err
	}
	if f := vm.frames[len(vm.frames)-1]; !te.Pos.IsValid() && te.Function == "" {
		te.Function = f.name()
		te.Pos = f.code.PositionAt(f.at)
	}
	if len(vm.handlers) == 0 {
		return te
	}

	h := vm.handlers[len(vm.handlers)-1]
	vm.handlers = vm.handlers[:len(vm.handlers)-1]
	for i := h.frame + 1; i < len(vm.frames); i++ {
		vm.frames[i] = nil
	}
	vm.frames = vm.frames[:h.frame+1]
	f := vm.frames[h.frame]
	f.pc = h.resume
	f.context = h.context
	vm.sp = h.slot
	vm.acc = te.Value
	return nil
}

// -----------------------------------------------------------------------------
// Stack guard

// limitHit reports whether a stack check must enter the stack guard.
func (vm *VM) limitHit() bool {
	vm.stats.StackChecks++
	if len(vm.frames)-vm.entry > vm.config.MaxCallDepth {
		return true
	}
	select {
	case <-vm.done:
		return true
	default:
	}
	if n := vm.config.InterruptInterval; n > 0 {
		vm.ticks++
		if vm.ticks >= n {
			return true
		}
	}
	return false
}

// stackGuard aborts a cancelled run, throws on a real overflow and
// otherwise services an interrupt and resumes.
func (vm *VM) stackGuard() error {
	if err := vm.ctx.Err(); err != nil {
		return err
	}
	if len(vm.frames)-vm.entry > vm.config.MaxCallDepth {
		return vm.throwf(rangeErrorName, "Maximum call stack size exceeded")
	}
	if n := vm.config.InterruptInterval; n > 0 && vm.ticks >= n {
		vm.ticks = 0
		vm.stats.Interrupts++
		if vm.config.OnInterrupt != nil {
			vm.config.OnInterrupt()
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Dispatch loop

func (vm *VM) execute() error {
	for {
		f := vm.frames[len(vm.frames)-1]
		code := f.code.Instrs
		pc := f.pc
		op := code[pc]
		f.at = pc
		f.pc = pc + 1 + op.Operands()

		var err error
		switch op {
		case masm.Nop:
			// Do nothing

		case masm.Prologue:
			if n := int(code[pc+1]); n > 0 {
				f.locals = make([]types.Value, n)
			}
			if n := int(code[pc+2]); n > 0 {
				f.context = newFunctionContext(f.context, n)
			}

		case masm.Return:
			var done bool
			done, err = vm.doReturn(f)
			if err == nil && done {
				return nil
			}

		// Accumulator and stack

		case masm.LoadConst:
			vm.acc = f.code.Consts[code[pc+1]]

		case masm.PushConst:
			vm.push(f.code.Consts[code[pc+1]])

		case masm.Push:
			vm.push(vm.acc)

		case masm.Pop:
			vm.acc = vm.pop()

		case masm.Drop:
			vm.sp -= int(code[pc+1])

		case masm.Peek:
			vm.acc = vm.stack[vm.sp-1-int(code[pc+1])]

		case masm.Poke:
			vm.stack[vm.sp-1-int(code[pc+1])] = vm.acc

		// Variables

		case masm.LoadParam:
			idx := int(code[pc+1])
			if idx < 0 {
				vm.acc = f.this
			} else if idx < len(f.params) {
				vm.acc = f.params[idx]
			} else {
				vm.acc = types.Undefined()
			}

		case masm.StoreParam:
			idx := int(code[pc+1])
			if idx < 0 {
				panic("vm: store to the receiver")
			}
			f.params[idx] = vm.acc

		case masm.LoadLocal:
			vm.acc = holeToUndefined(f.locals[code[pc+1]])

		case masm.StoreLocal:
			f.locals[code[pc+1]] = vm.acc

		case masm.LoadContext:
			c := f.contextAt(int(code[pc+1]))
			vm.acc = holeToUndefined(c.slots[code[pc+2]])

		case masm.StoreContext:
			c := f.contextAt(int(code[pc+1]))
			c.slots[code[pc+2]] = vm.acc

		case masm.LoadGlobal:
			name := f.code.Consts[code[pc+1]].ToString()
			if vm.global.Has(name) {
				vm.acc = holeToUndefined(vm.global.Get(name))
			} else if code[pc+2] != 0 {
				vm.acc = types.Undefined()
			} else {
				err = vm.throwf(referenceErrorName, "%s is not defined", name)
			}

		case masm.StoreGlobal:
			vm.global.Set(f.code.Consts[code[pc+1]].ToString(), vm.acc)

		case masm.LoadFunction:
			vm.acc = types.Obj(f.fn)

		case masm.LoadGlobalObject:
			vm.acc = types.Obj(vm.global)

		// Properties

		case masm.LoadNamed:
			vm.acc, err = vm.getProperty(vm.stack[vm.sp-1], f.code.Consts[code[pc+1]].ToString())

		case masm.LoadKeyed:
			vm.acc, err = vm.getProperty(vm.stack[vm.sp-2], propertyKey(vm.stack[vm.sp-1]))

		case masm.StoreNamed:
			err = vm.setProperty(vm.stack[vm.sp-1], f.code.Consts[code[pc+1]].ToString(), vm.acc)

		case masm.StoreKeyed:
			err = vm.setProperty(vm.stack[vm.sp-2], propertyKey(vm.stack[vm.sp-1]), vm.acc)

		case masm.StoreElement:
			vm.stack[vm.sp-1].Object().SetElement(int(code[pc+1]), vm.acc)

		// Operators

		case masm.BinaryOp:
			left := vm.pop()
			vm.acc = binaryOp(token.Token(code[pc+1]), left, vm.acc)

		case masm.CompareOp:
			left := vm.pop()
			vm.acc, err = vm.compareOp(token.Token(code[pc+1]), left, vm.acc)

		case masm.ToNumber:
			vm.acc = types.Num(vm.acc.ToNumber())

		// Control flow

		case masm.Jump:
			f.pc = int(code[pc+1])

		case masm.JumpIfTrue:
			if vm.acc.ToBoolean() {
				f.pc = int(code[pc+1])
			}

		case masm.JumpIfFalse:
			if !vm.acc.ToBoolean() {
				f.pc = int(code[pc+1])
			}

		case masm.CallLocal:
			vm.push(types.Internal(returnAddress(f.pc)))
			f.pc = int(code[pc+1])

		case masm.LocalReturn:
			ra, ok := vm.pop().Data().(returnAddress)
			if !ok {
				panic(fmt.Sprintf("vm: %s: %04d: local return without a return address", f.name(), pc))
			}
			f.pc = int(ra)

		case masm.StackCheck:
			if vm.limitHit() {
				f.pc = int(code[pc+1])
			}

		// Handlers and contexts

		case masm.PushHandler:
			ra, ok := vm.stack[vm.sp-1].Data().(returnAddress)
			if !ok {
				panic(fmt.Sprintf("vm: %s: %04d: handler without a return address", f.name(), pc))
			}
			kind := masm.HandlerKind(code[pc+1])
			vm.handlers = append(vm.handlers, handler{
				kind:    kind,
				frame:   len(vm.frames) - 1,
				slot:    vm.sp - 1,
				resume:  int(ra),
				context: f.context,
			})
			vm.stack[vm.sp-1] = types.Internal(handlerSlot(kind))

		case masm.PopHandler:
			n := len(vm.handlers) - 1
			if n < 0 || vm.handlers[n].slot != vm.sp-1 || vm.handlers[n].frame != len(vm.frames)-1 {
				panic(fmt.Sprintf("vm: %s: %04d: handler is not on top of the stack", f.name(), pc))
			}
			vm.handlers = vm.handlers[:n]
			vm.sp--

		case masm.PopContext:
			f.context = f.context.previous

		// Calls

		case masm.CallNamed:
			name := f.code.Consts[code[pc+1]].ToString()
			args := vm.popArgs(int(code[pc+2]))
			recv := vm.pop()
			vm.countCall(code[pc+3])
			var callee types.Value
			if callee, err = vm.namedCallee(recv, name); err == nil {
				err = vm.call(callee, recv, args, false)
			}

		case masm.CallValue:
			args := vm.popArgs(int(code[pc+1]))
			recv := vm.pop()
			vm.countCall(code[pc+2])
			err = vm.call(vm.stack[vm.sp-1], recv, args, false)

		case masm.Construct:
			args := vm.popArgs(int(code[pc+1]))
			err = vm.call(vm.stack[vm.sp-1], types.Undefined(), args, true)

		case masm.CallRuntime:
			name := f.code.Consts[code[pc+1]].ToString()
			args := vm.popArgs(int(code[pc+2]))
			fn, ok := runtimeFunctions[name]
			if !ok {
				return fmt.Errorf("%s: unknown runtime function %s", f.name(), name)
			}
			vm.acc, err = fn(vm, types.Undefined(), args)

		case masm.CallHelper:
			args := vm.popArgs(int(code[pc+2]))
			vm.acc, err = vm.callHelper(f, masm.Helper(code[pc+1]), args)

		default:
			panic(fmt.Sprintf("vm: %s: %04d: unknown opcode %s", f.name(), pc, op))
		}

		if err != nil {
			if err = vm.unwind(err); err != nil {
				return err
			}
		}
	}
}

func (vm *VM) countCall(inLoop masm.Opcode) {
	if inLoop != 0 {
		vm.stats.InLoopCalls++
	}
}

// -----------------------------------------------------------------------------
// Values

func holeToUndefined(v types.Value) types.Value {
	if v.IsHole() {
		return types.Undefined()
	}
	return v
}

// propertyKey converts a keyed access operand to a property name.
func propertyKey(v types.Value) string {
	if v.IsNum() {
		n := v.ToNumber()
		if n == math.Trunc(n) && n >= 0 && n < 1<<32 {
			return types.FormatNum(n)
		}
	}
	return v.ToString()
}

// describe renders a value for error messages.
func describe(v types.Value) string {
	switch v.Kind() {
	case types.KindStr:
		return v.String()
	case types.KindObject:
		if v.Object().IsCallable() {
			return "function " + v.Object().Get("name").ToString()
		}
		return "object " + v.Object().DefaultString()
	default:
		return v.ToString()
	}
}

func (vm *VM) getProperty(obj types.Value, key string) (types.Value, error) {
	switch obj.Kind() {
	case types.KindObject:
		return holeToUndefined(obj.Object().Get(key)), nil
	case types.KindStr:
		return stringProperty(obj.ToString(), key), nil
	case types.KindUndefined, types.KindNull:
		return types.Undefined(), vm.throwf(typeErrorName, "Cannot read property '%s' of %s", key, obj.ToString())
	default:
		return types.Undefined(), nil
	}
}

func (vm *VM) setProperty(obj types.Value, key string, v types.Value) error {
	switch obj.Kind() {
	case types.KindObject:
		obj.Object().Set(key, v)
		return nil
	case types.KindUndefined, types.KindNull:
		return vm.throwf(typeErrorName, "Cannot set property '%s' of %s", key, obj.ToString())
	default:
		// Stores to primitives are lost.
		return nil
	}
}

func stringProperty(s, key string) types.Value {
	units := []rune(s)
	if key == "length" {
		return types.Num(float64(len(units)))
	}
	if n := types.ParseNum(key); key != "" && n == math.Trunc(n) && n >= 0 && n < float64(len(units)) && types.FormatNum(n) == key {
		return types.Str(string(units[int(n)]))
	}
	return types.Undefined()
}

func binaryOp(op token.Token, left, right types.Value) types.Value {
	switch op {
	case token.ADD:
		pl, pr := types.ToPrimitive(left), types.ToPrimitive(right)
		if pl.IsStr() || pr.IsStr() {
			return types.Str(pl.ToString() + pr.ToString())
		}
		return types.Num(pl.ToNumber() + pr.ToNumber())
	case token.SUB:
		return types.Num(left.ToNumber() - right.ToNumber())
	case token.MUL:
		return types.Num(left.ToNumber() * right.ToNumber())
	case token.DIV:
		return types.Num(left.ToNumber() / right.ToNumber())
	case token.MOD:
		return types.Num(math.Mod(left.ToNumber(), right.ToNumber()))
	case token.BIT_OR:
		return types.Num(float64(left.ToInt32() | right.ToInt32()))
	case token.BIT_AND:
		return types.Num(float64(left.ToInt32() & right.ToInt32()))
	case token.BIT_XOR:
		return types.Num(float64(left.ToInt32() ^ right.ToInt32()))
	case token.SHL:
		return types.Num(float64(left.ToInt32() << (right.ToUint32() & 31)))
	case token.SAR:
		return types.Num(float64(left.ToInt32() >> (right.ToUint32() & 31)))
	case token.SHR:
		return types.Num(float64(left.ToUint32() >> (right.ToUint32() & 31)))
	case token.COMMA:
		return right
	default:
		panic(fmt.Sprintf("vm: unknown binary operator %s", op))
	}
}

func (vm *VM) compareOp(op token.Token, left, right types.Value) (types.Value, error) {
	switch op {
	case token.EQ:
		return types.Bool(types.LooseEquals(left, right)), nil
	case token.NE:
		return types.Bool(!types.LooseEquals(left, right)), nil
	case token.EQ_STRICT:
		return types.Bool(types.StrictEquals(left, right)), nil
	case token.NE_STRICT:
		return types.Bool(!types.StrictEquals(left, right)), nil
	case token.LT:
		less, ok := types.Less(left, right)
		return types.Bool(ok && less), nil
	case token.GT:
		less, ok := types.Less(right, left)
		return types.Bool(ok && less), nil
	case token.LTE:
		less, ok := types.Less(right, left)
		return types.Bool(ok && !less), nil
	case token.GTE:
		less, ok := types.Less(left, right)
		return types.Bool(ok && !less), nil
	case token.INSTANCEOF:
		fn := right.Object()
		if fn == nil || !fn.IsCallable() {
			return types.Undefined(), vm.throwf(typeErrorName, "Right-hand side of 'instanceof' is not callable")
		}
		obj := left.Object()
		proto := fn.Get("prototype").Object()
		if obj == nil || proto == nil {
			return types.Bool(false), nil
		}
		for p := obj.Proto; p != nil; p = p.Proto {
			if p == proto {
				return types.Bool(true), nil
			}
		}
		return types.Bool(false), nil
	case token.IN:
		obj := right.Object()
		if obj == nil {
			return types.Undefined(), vm.throwf(typeErrorName, "Cannot use 'in' operator to search for '%s' in %s", left.ToString(), right.ToString())
		}
		return types.Bool(obj.Has(propertyKey(left))), nil
	default:
		panic(fmt.Sprintf("vm: unknown comparison %s", op))
	}
}
