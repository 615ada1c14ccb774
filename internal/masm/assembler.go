package masm

import (
	"math"

	"github.com/kolkov/ujit/internal/token"
	"github.com/kolkov/ujit/internal/types"
)

// Label is a code address that may be referenced before it is bound.
// The zero value is an unbound, unused label.
type Label struct {
	pos   int
	bound bool
	uses  []int // operand positions waiting for the address
}

// IsBound reports whether the label has been given an address.
func (l *Label) IsBound() bool { return l.bound }

// IsLinked reports whether the label has unresolved references.
func (l *Label) IsLinked() bool { return len(l.uses) > 0 }

// Pos returns the bound address of the label.
func (l *Label) Pos() int { return l.pos }

// Assembler accumulates instructions and constants for one function.
type Assembler struct {
	code       []Opcode
	consts     []types.Value
	numIndex   map[uint64]int
	strIndex   map[string]int
	positions  []PositionEntry
	comments   []CommentEntry
	unresolved int
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{
		numIndex: make(map[uint64]int),
		strIndex: make(map[string]int),
	}
}

// PC returns the address of the next instruction.
func (a *Assembler) PC() int { return len(a.code) }

func (a *Assembler) emit(ops ...Opcode) {
	a.code = append(a.code, ops...)
}

// Const returns the constant pool index of v, reusing an existing
// entry for equal numbers and strings.
func (a *Assembler) Const(v types.Value) int {
	switch {
	case v.IsNum():
		bits := math.Float64bits(v.ToNumber())
		if idx, ok := a.numIndex[bits]; ok {
			return idx
		}
		a.numIndex[bits] = len(a.consts)
	case v.IsStr():
		s := v.ToString()
		if idx, ok := a.strIndex[s]; ok {
			return idx
		}
		a.strIndex[s] = len(a.consts)
	}
	a.consts = append(a.consts, v)
	return len(a.consts) - 1
}

func (a *Assembler) name(s string) Opcode {
	return Opcode(a.Const(types.Str(s)))
}

// ----------------------------------------------------------------------------
// Labels and control flow

// Bind gives l the current address and patches every pending reference.
// Binding a label twice is a code generator bug.
func (a *Assembler) Bind(l *Label) {
	if l.bound {
		panic("masm: label bound twice")
	}
	l.pos = len(a.code)
	l.bound = true
	for _, use := range l.uses {
		a.code[use] = Opcode(l.pos)
	}
	a.unresolved -= len(l.uses)
	l.uses = nil
}

func (a *Assembler) branch(op Opcode, l *Label) {
	a.emit(op)
	if l.bound {
		a.emit(Opcode(l.pos))
		return
	}
	l.uses = append(l.uses, len(a.code))
	a.unresolved++
	a.emit(-1)
}

// Jump transfers control to l.
func (a *Assembler) Jump(l *Label) { a.branch(Jump, l) }

// JumpIfTrue transfers control to l when the accumulator is truthy.
func (a *Assembler) JumpIfTrue(l *Label) { a.branch(JumpIfTrue, l) }

// JumpIfFalse transfers control to l when the accumulator is falsy.
func (a *Assembler) JumpIfFalse(l *Label) { a.branch(JumpIfFalse, l) }

// Call pushes a return address and transfers control to l.
func (a *Assembler) Call(l *Label) { a.branch(CallLocal, l) }

// LocalReturn pops the return address pushed by Call and jumps to it.
func (a *Assembler) LocalReturn() { a.emit(LocalReturn) }

// StackLimitCheck jumps to l when the stack guard must run.
func (a *Assembler) StackLimitCheck(l *Label) { a.branch(StackCheck, l) }

// ----------------------------------------------------------------------------
// Frame, accumulator and stack

func (a *Assembler) Prologue(numLocals, numHeapSlots int) {
	a.emit(Prologue, Opcode(numLocals), Opcode(numHeapSlots))
}

func (a *Assembler) Return() { a.emit(Return) }

// LoadConst loads v into the accumulator.
func (a *Assembler) LoadConst(v types.Value) { a.emit(LoadConst, Opcode(a.Const(v))) }

// PushConst pushes v.
func (a *Assembler) PushConst(v types.Value) { a.emit(PushConst, Opcode(a.Const(v))) }

func (a *Assembler) Push() { a.emit(Push) }
func (a *Assembler) Pop()  { a.emit(Pop) }

// Drop discards n stack elements. Dropping zero elements emits nothing.
func (a *Assembler) Drop(n int) {
	if n > 0 {
		a.emit(Drop, Opcode(n))
	}
}

// Peek loads the stack element n below the top into the accumulator.
func (a *Assembler) Peek(n int) { a.emit(Peek, Opcode(n)) }

// Poke stores the accumulator into the stack element n below the top.
func (a *Assembler) Poke(n int) { a.emit(Poke, Opcode(n)) }

// ----------------------------------------------------------------------------
// Variables

func (a *Assembler) LoadParam(index int)  { a.emit(LoadParam, Opcode(index)) }
func (a *Assembler) StoreParam(index int) { a.emit(StoreParam, Opcode(index)) }
func (a *Assembler) LoadLocal(index int)  { a.emit(LoadLocal, Opcode(index)) }
func (a *Assembler) StoreLocal(index int) { a.emit(StoreLocal, Opcode(index)) }

// LoadContext loads slot index of the function context depth levels out.
func (a *Assembler) LoadContext(depth, index int) {
	a.emit(LoadContext, Opcode(depth), Opcode(index))
}

// StoreContext stores into slot index of the function context depth levels out.
func (a *Assembler) StoreContext(depth, index int) {
	a.emit(StoreContext, Opcode(depth), Opcode(index))
}

// LoadGlobal loads a property of the global object. Inside typeof a
// missing property yields undefined instead of a ReferenceError.
func (a *Assembler) LoadGlobal(name string, insideTypeof bool) {
	mode := Opcode(0)
	if insideTypeof {
		mode = 1
	}
	a.emit(LoadGlobal, a.name(name), mode)
}

func (a *Assembler) StoreGlobal(name string) { a.emit(StoreGlobal, a.name(name)) }
func (a *Assembler) LoadFunction()           { a.emit(LoadFunction) }
func (a *Assembler) LoadGlobalObject()       { a.emit(LoadGlobalObject) }

// ----------------------------------------------------------------------------
// Properties

func (a *Assembler) LoadNamed(name string)  { a.emit(LoadNamed, a.name(name)) }
func (a *Assembler) LoadKeyed()             { a.emit(LoadKeyed) }
func (a *Assembler) StoreNamed(name string) { a.emit(StoreNamed, a.name(name)) }
func (a *Assembler) StoreKeyed()            { a.emit(StoreKeyed) }
func (a *Assembler) StoreElement(index int) { a.emit(StoreElement, Opcode(index)) }

// ----------------------------------------------------------------------------
// Operators

func (a *Assembler) BinaryOp(op token.Token)  { a.emit(BinaryOp, Opcode(op)) }
func (a *Assembler) CompareOp(op token.Token) { a.emit(CompareOp, Opcode(op)) }
func (a *Assembler) ToNumber()                { a.emit(ToNumber) }

// ----------------------------------------------------------------------------
// Handlers and contexts

// PushTryHandler installs a handler of the given kind. The return
// address pushed by the enclosing Call becomes the handler's resume
// address.
func (a *Assembler) PushTryHandler(kind HandlerKind) { a.emit(PushHandler, Opcode(kind)) }

// PopTryHandler removes the innermost handler and its stack slot.
func (a *Assembler) PopTryHandler() { a.emit(PopHandler) }

func (a *Assembler) PopContext() { a.emit(PopContext) }

// ----------------------------------------------------------------------------
// Calls

func boolOperand(b bool) Opcode {
	if b {
		return 1
	}
	return 0
}

// CallNamed calls a method by name. Receiver and arguments are popped.
func (a *Assembler) CallNamed(name string, argc int, inLoop bool) {
	a.emit(CallNamed, a.name(name), Opcode(argc), boolOperand(inLoop))
}

// CallValue calls the function below the receiver. Receiver and
// arguments are popped; the function stays on the stack.
func (a *Assembler) CallValue(argc int, inLoop bool) {
	a.emit(CallValue, Opcode(argc), boolOperand(inLoop))
}

// Construct invokes the function below the arguments as a constructor.
// Arguments are popped; the function stays on the stack.
func (a *Assembler) Construct(argc int) { a.emit(Construct, Opcode(argc)) }

// CallRuntime calls a named runtime function with argc pushed arguments.
func (a *Assembler) CallRuntime(name string, argc int) {
	a.emit(CallRuntime, a.name(name), Opcode(argc))
}

// CallHelper calls a VM helper with argc pushed arguments.
func (a *Assembler) CallHelper(h Helper, argc int) {
	a.emit(CallHelper, Opcode(h), Opcode(argc))
}

// ----------------------------------------------------------------------------
// Debug information

// RecordPosition associates the next instruction with a source position.
func (a *Assembler) RecordPosition(pos token.Position, statement bool) {
	if !pos.IsValid() {
		return
	}
	n := len(a.positions)
	if n > 0 && a.positions[n-1].PC == len(a.code) {
		// Later positions at the same address win; statement marks stick.
		statement = statement || a.positions[n-1].Statement
		a.positions[n-1] = PositionEntry{PC: len(a.code), Pos: pos, Statement: statement}
		return
	}
	a.positions = append(a.positions, PositionEntry{PC: len(a.code), Pos: pos, Statement: statement})
}

// Comment attaches text to the next instruction in disassembly.
func (a *Assembler) Comment(text string) {
	a.comments = append(a.comments, CommentEntry{PC: len(a.code), Text: text})
}

// Finish returns the assembled code. Referencing a label that was never
// bound is a code generator bug.
func (a *Assembler) Finish(name string, numParams, numLocals, numHeapSlots int) *Code {
	if a.unresolved != 0 {
		panic("masm: reference to unbound label")
	}
	return &Code{
		Name:         name,
		Instrs:       a.code,
		Consts:       a.consts,
		NumParams:    numParams,
		NumLocals:    numLocals,
		NumHeapSlots: numHeapSlots,
		Positions:    a.positions,
		Comments:     a.comments,
	}
}
