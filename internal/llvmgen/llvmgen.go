// Package llvmgen lowers generated masm code to LLVM IR.
//
// The lowering is a threaded-code translation. Every instruction becomes
// a call into a runtime ABI of ujit_* functions that operate on an opaque
// frame, while control flow becomes real IR control flow: jumps and
// stack checks are branches, local calls push their return point and
// branch, and a local return switches over the return points of the
// function. Operations that may throw report it with an i1 result and
// branch to an unwind block, which asks the runtime for the handler's
// resume point in this frame or returns to the caller.
package llvmgen

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/kolkov/ujit/internal/masm"
)

// Runtime entry points that are not named after an opcode.
const (
	rtEnter       = "ujit_enter"
	rtTruthy      = "ujit_truthy"
	rtStackCheck  = "ujit_stack_check"
	rtPushReturn  = "ujit_push_return"
	rtPopReturn   = "ujit_pop_return"
	rtHandlerPC   = "ujit_handler_pc"
	rtReturn      = "ujit_return"
	runtimePrefix = "ujit_"
)

// Generator collects the lowered functions of one module.
type Generator struct {
	mod      *ir.Module
	framePtr *types.PointerType
	runtime  map[string]*ir.Func
	names    map[string]int
	counter  int
}

// New creates a generator with an empty module.
func New() *Generator {
	m := ir.NewModule()
	frame := m.NewTypeDef("ujit.frame", &types.StructType{Opaque: true})
	return &Generator{
		mod:      m,
		framePtr: types.NewPointer(frame),
		runtime:  make(map[string]*ir.Func),
		names:    make(map[string]int),
	}
}

// Module returns the module built so far.
func (g *Generator) Module() *ir.Module { return g.mod }

// String renders the module as LLVM assembly.
func (g *Generator) String() string { return g.mod.String() }

// Lower lowers codes into one module and returns its text.
func Lower(codes ...*masm.Code) (string, error) {
	g := New()
	for _, c := range codes {
		if _, err := g.AddCode(c); err != nil {
			return "", err
		}
	}
	return g.String(), nil
}

// mayThrow reports whether an instruction can raise an exception and so
// ends its basic block with a branch to the unwind block.
func mayThrow(op masm.Opcode) bool {
	switch op {
	case masm.LoadGlobal, masm.LoadNamed, masm.LoadKeyed, masm.StoreNamed, masm.StoreKeyed,
		masm.CompareOp, masm.CallNamed, masm.CallValue, masm.Construct,
		masm.CallRuntime, masm.CallHelper:
		return true
	default:
		return false
	}
}

// endsBlock reports whether control never falls through to the next
// instruction.
func endsBlock(op masm.Opcode) bool {
	switch op {
	case masm.Jump, masm.CallLocal, masm.LocalReturn, masm.Return:
		return true
	default:
		return false
	}
}

// function holds the state of one lowering.
type function struct {
	g      *Generator
	code   *masm.Code
	fn     *ir.Func
	frame  value.Value
	blocks map[int]*ir.Block

	returnPoints []int
	unwind       *ir.Block
	badReturn    *ir.Block
}

// AddCode lowers code into a new function of the module and returns it.
func (g *Generator) AddCode(code *masm.Code) (*ir.Func, error) {
	instrs := code.Decode()
	if len(instrs) == 0 {
		return nil, fmt.Errorf("llvmgen: %s: empty code", code.Name)
	}
	f := &function{
		g:      g,
		code:   code,
		blocks: make(map[int]*ir.Block),
	}
	param := ir.NewParam("frame", g.framePtr)
	f.fn = g.mod.NewFunc(g.functionName(code.Name), types.Void, param)
	f.frame = param

	if err := f.splitBlocks(instrs); err != nil {
		return nil, err
	}
	f.emitEntry(instrs[0].PC)
	if err := f.lower(instrs); err != nil {
		return nil, err
	}
	f.emitDispatch()
	return f.fn, nil
}

// functionName turns a code name into a unique IR identifier.
func (g *Generator) functionName(name string) string {
	var sb strings.Builder
	sb.WriteString("ujit.code.")
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	base := sb.String()
	n := g.names[base]
	g.names[base] = n + 1
	if n > 0 {
		return fmt.Sprintf("%s.%d", base, n)
	}
	return base
}

// splitBlocks creates a block for every instruction that starts one:
// the first instruction, jump targets, return points and every
// instruction following a branch.
func (f *function) splitBlocks(instrs []masm.Instr) error {
	valid := make(map[int]bool, len(instrs))
	for _, in := range instrs {
		valid[in.PC] = true
	}
	end := len(f.code.Instrs)

	leaders := map[int]bool{instrs[0].PC: true}
	for i, in := range instrs {
		next := end
		if i+1 < len(instrs) {
			next = instrs[i+1].PC
		}
		if in.Op.IsJump() {
			target := int(in.Args[0])
			if !valid[target] {
				return fmt.Errorf("llvmgen: %s: %04d: %s to invalid address %d", f.code.Name, in.PC, in.Op, target)
			}
			leaders[target] = true
		}
		if in.Op == masm.CallLocal && next < end {
			f.returnPoints = append(f.returnPoints, next)
		}
		if (in.Op.IsJump() || mayThrow(in.Op) || endsBlock(in.Op)) && next < end {
			leaders[next] = true
		}
	}

	pcs := make([]int, 0, len(leaders))
	for pc := range leaders {
		pcs = append(pcs, pc)
	}
	sort.Ints(pcs)
	for _, pc := range pcs {
		f.blocks[pc] = f.fn.NewBlock(fmt.Sprintf("pc%d", pc))
	}
	return nil
}

// emitEntry announces the function to the runtime and enters the first
// instruction. Block order in the function follows creation order, so the
// entry block is created first and moved to the front.
func (f *function) emitEntry(first int) {
	entry := f.fn.NewBlock("entry")
	f.fn.Blocks = append([]*ir.Block{entry}, f.fn.Blocks[:len(f.fn.Blocks)-1]...)

	g := f.g
	name := g.mod.NewGlobalDef(fmt.Sprintf("ujit.name.%d", g.counter), constant.NewCharArrayFromString(f.code.Name+"\x00"))
	name.Immutable = true
	g.counter++
	zero := constant.NewInt(types.I32, 0)
	namePtr := constant.NewGetElementPtr(name.ContentType, name, zero, zero)

	entry.NewCall(g.rt(rtEnter, types.Void, types.I8Ptr), f.frame, namePtr)
	entry.NewBr(f.blocks[first])
}

func (f *function) lower(instrs []masm.Instr) error {
	var cur *ir.Block
	for i, in := range instrs {
		if b, ok := f.blocks[in.PC]; ok {
			if cur != nil {
				cur.NewBr(b) // Fall through into the next block
			}
			cur = b
		}
		if cur == nil {
			// Unreachable code after a terminator; the generator never
			// emits any.
			return fmt.Errorf("llvmgen: %s: %04d: unreachable %s", f.code.Name, in.PC, in.Op)
		}
		var next *ir.Block
		if i+1 < len(instrs) {
			next = f.blocks[instrs[i+1].PC]
		}

		switch in.Op {
		case masm.Jump:
			cur.NewBr(f.blocks[int(in.Args[0])])
			cur = nil

		case masm.JumpIfTrue, masm.JumpIfFalse:
			if next == nil {
				return f.fallsOff(in)
			}
			truthy := cur.NewCall(f.g.rt(rtTruthy, types.I1), f.frame)
			target := f.blocks[int(in.Args[0])]
			if in.Op == masm.JumpIfTrue {
				cur.NewCondBr(truthy, target, next)
			} else {
				cur.NewCondBr(truthy, next, target)
			}
			cur = nil

		case masm.StackCheck:
			if next == nil {
				return f.fallsOff(in)
			}
			hit := cur.NewCall(f.g.rt(rtStackCheck, types.I1), f.frame)
			cur.NewCondBr(hit, f.blocks[int(in.Args[0])], next)
			cur = nil

		case masm.CallLocal:
			ret := in.PC + 1 + len(in.Args)
			cur.NewCall(f.g.rt(rtPushReturn, types.Void, types.I32), f.frame, constant.NewInt(types.I32, int64(ret)))
			cur.NewBr(f.blocks[int(in.Args[0])])
			cur = nil

		case masm.LocalReturn:
			pc := cur.NewCall(f.g.rt(rtPopReturn, types.I32), f.frame)
			cur.NewSwitch(pc, f.badReturnBlock(), f.returnCases()...)
			cur = nil

		case masm.Return:
			cur.NewCall(f.g.rt(rtReturn, types.Void), f.frame)
			cur.NewRet(nil)
			cur = nil

		default:
			args := []value.Value{f.frame}
			params := make([]types.Type, len(in.Args))
			for j, a := range in.Args {
				args = append(args, constant.NewInt(types.I32, int64(a)))
				params[j] = types.I32
			}
			name := runtimePrefix + snakeCase(in.Op.String())
			if !mayThrow(in.Op) {
				cur.NewCall(f.g.rt(name, types.Void, params...), args...)
				continue
			}
			thrown := cur.NewCall(f.g.rt(name, types.I1, params...), args...)
			if next == nil {
				return f.fallsOff(in)
			}
			cur.NewCondBr(thrown, f.unwindBlock(), next)
			cur = nil
		}
	}
	if cur != nil {
		return f.fallsOff(instrs[len(instrs)-1])
	}
	return nil
}

func (f *function) fallsOff(in masm.Instr) error {
	return fmt.Errorf("llvmgen: %s: %04d: control falls off the end after %s", f.code.Name, in.PC, in.Op)
}

func (f *function) returnCases() []*ir.Case {
	cases := make([]*ir.Case, len(f.returnPoints))
	for i, pc := range f.returnPoints {
		cases[i] = ir.NewCase(constant.NewInt(types.I32, int64(pc)), f.blocks[pc])
	}
	return cases
}

func (f *function) unwindBlock() *ir.Block {
	if f.unwind == nil {
		f.unwind = f.fn.NewBlock("unwind")
	}
	return f.unwind
}

func (f *function) badReturnBlock() *ir.Block {
	if f.badReturn == nil {
		f.badReturn = f.fn.NewBlock("bad_return")
	}
	return f.badReturn
}

// emitDispatch fills in the shared unwind and bad return blocks. A
// handler resumes at the return point of its local call; the runtime
// answers -1 when the handler belongs to a calling frame.
func (f *function) emitDispatch() {
	if f.unwind != nil {
		pc := f.unwind.NewCall(f.g.rt(rtHandlerPC, types.I32), f.frame)
		propagate := f.fn.NewBlock("propagate")
		propagate.NewRet(nil)
		f.unwind.NewSwitch(pc, propagate, f.returnCases()...)
	}
	if f.badReturn != nil {
		f.badReturn.NewUnreachable()
	}
}

// rt returns the declaration of a runtime function, creating it on first
// use. Every runtime function takes the frame first.
func (g *Generator) rt(name string, ret types.Type, params ...types.Type) *ir.Func {
	if fn, ok := g.runtime[name]; ok {
		return fn
	}
	ps := []*ir.Param{ir.NewParam("", g.framePtr)}
	for _, p := range params {
		ps = append(ps, ir.NewParam("", p))
	}
	fn := g.mod.NewFunc(name, ret, ps...)
	fn.FuncAttrs = append(fn.FuncAttrs, enum.FuncAttrNoUnwind)
	g.runtime[name] = fn
	return fn
}

// snakeCase converts an opcode name such as LoadConst to load_const.
func snakeCase(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
