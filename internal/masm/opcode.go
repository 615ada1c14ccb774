// Package masm is the macro assembler the code generator emits through.
//
// It models a small accumulator machine: one result register (the
// accumulator), an operand stack per frame, parameter and local slots,
// a chain of heap contexts, and a handler chain. Instructions are a flat
// stream of 32-bit words; operands follow their opcode inline.
package masm

import "fmt"

// Opcode represents a machine instruction.
// Each opcode is a 32-bit signed integer, allowing for large jump targets
// and constant indices without overflow concerns.
type Opcode int32

const (
	// Nop does nothing.
	Nop Opcode = iota

	// Frame
	Prologue // Allocate frame: Prologue numLocals numHeapSlots
	Return   // Tear down the frame and return the accumulator

	// Accumulator and stack
	LoadConst // acc = const: LoadConst k
	PushConst // push const: PushConst k
	Push      // push acc
	Pop       // acc = pop
	Drop      // discard stack elements: Drop n
	Peek      // acc = stack[top-n]: Peek n
	Poke      // stack[top-n] = acc: Poke n

	// Variable access
	LoadParam        // acc = parameter (index -1 is the receiver): LoadParam index
	StoreParam       // parameter = acc: StoreParam index
	LoadLocal        // acc = local: LoadLocal index
	StoreLocal       // local = acc: StoreLocal index
	LoadContext      // acc = context slot: LoadContext depth index
	StoreContext     // context slot = acc: StoreContext depth index
	LoadGlobal       // acc = global: LoadGlobal nameK insideTypeof
	StoreGlobal      // global = acc: StoreGlobal nameK
	LoadFunction     // acc = running closure
	LoadGlobalObject // acc = global receiver

	// Property access; receiver and key stay on the stack
	LoadNamed    // acc = top.name: LoadNamed nameK
	LoadKeyed    // acc = stack[top-1][top]
	StoreNamed   // top.name = acc: StoreNamed nameK
	StoreKeyed   // stack[top-1][top] = acc
	StoreElement // top[index] = acc, array literal element: StoreElement index

	// Operators; left operand popped, right operand in acc
	BinaryOp  // acc = pop op acc: BinaryOp token
	CompareOp // acc = pop op acc: CompareOp token
	ToNumber  // acc = ToNumber(acc)

	// Control flow
	Jump        // Jump target
	JumpIfTrue  // Jump when acc is truthy: JumpIfTrue target
	JumpIfFalse // Jump when acc is falsy: JumpIfFalse target
	CallLocal   // Push return address and jump: CallLocal target
	LocalReturn // Pop return address and jump to it
	StackCheck  // Jump when the stack limit or an interrupt is hit: StackCheck target

	// Exception handlers
	PushHandler // Install handler over the return address on top: PushHandler kind
	PopHandler  // Remove innermost handler and its stack slot
	PopContext  // Restore the previous context

	// Calls
	CallNamed   // Call receiver.name(args): CallNamed nameK argc inLoop
	CallValue   // Call fn with receiver and args, fn stays: CallValue argc inLoop
	Construct   // new fn(args), fn stays: Construct argc
	CallRuntime // Call runtime function by name: CallRuntime nameK argc
	CallHelper  // Call VM helper: CallHelper helper argc

	numOpcodes
)

var opcodeNames = [...]string{
	Nop:              "Nop",
	Prologue:         "Prologue",
	Return:           "Return",
	LoadConst:        "LoadConst",
	PushConst:        "PushConst",
	Push:             "Push",
	Pop:              "Pop",
	Drop:             "Drop",
	Peek:             "Peek",
	Poke:             "Poke",
	LoadParam:        "LoadParam",
	StoreParam:       "StoreParam",
	LoadLocal:        "LoadLocal",
	StoreLocal:       "StoreLocal",
	LoadContext:      "LoadContext",
	StoreContext:     "StoreContext",
	LoadGlobal:       "LoadGlobal",
	StoreGlobal:      "StoreGlobal",
	LoadFunction:     "LoadFunction",
	LoadGlobalObject: "LoadGlobalObject",
	LoadNamed:        "LoadNamed",
	LoadKeyed:        "LoadKeyed",
	StoreNamed:       "StoreNamed",
	StoreKeyed:       "StoreKeyed",
	StoreElement:     "StoreElement",
	BinaryOp:         "BinaryOp",
	CompareOp:        "CompareOp",
	ToNumber:         "ToNumber",
	Jump:             "Jump",
	JumpIfTrue:       "JumpIfTrue",
	JumpIfFalse:      "JumpIfFalse",
	CallLocal:        "CallLocal",
	LocalReturn:      "LocalReturn",
	StackCheck:       "StackCheck",
	PushHandler:      "PushHandler",
	PopHandler:       "PopHandler",
	PopContext:       "PopContext",
	CallNamed:        "CallNamed",
	CallValue:        "CallValue",
	Construct:        "Construct",
	CallRuntime:      "CallRuntime",
	CallHelper:       "CallHelper",
}

// String returns a human-readable name for the opcode.
func (op Opcode) String() string {
	if op >= 0 && op < numOpcodes {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", op)
}

var operandCounts = [...]int{
	Prologue:     2,
	LoadConst:    1,
	PushConst:    1,
	Drop:         1,
	Peek:         1,
	Poke:         1,
	LoadParam:    1,
	StoreParam:   1,
	LoadLocal:    1,
	StoreLocal:   1,
	LoadContext:  2,
	StoreContext: 2,
	LoadGlobal:   2,
	StoreGlobal:  1,
	LoadNamed:    1,
	StoreNamed:   1,
	StoreElement: 1,
	BinaryOp:     1,
	CompareOp:    1,
	Jump:         1,
	JumpIfTrue:   1,
	JumpIfFalse:  1,
	CallLocal:    1,
	StackCheck:   1,
	PushHandler:  1,
	CallNamed:    3,
	CallValue:    2,
	Construct:    1,
	CallRuntime:  2,
	CallHelper:   2,
	numOpcodes:   0,
}

// Operands returns the number of inline operand words following op.
func (op Opcode) Operands() int {
	if op >= 0 && op < numOpcodes {
		return operandCounts[op]
	}
	return 0
}

// IsJump reports whether the first operand of op is a code address.
func (op Opcode) IsJump() bool {
	switch op {
	case Jump, JumpIfTrue, JumpIfFalse, CallLocal, StackCheck:
		return true
	default:
		return false
	}
}

// HandlerKind identifies what an exception handler does.
type HandlerKind int32

const (
	TryCatchHandler   HandlerKind = iota // Resumes at the catch code
	TryFinallyHandler                    // Runs the finally block, then rethrows
)

// String returns a human-readable name for the handler kind.
func (k HandlerKind) String() string {
	switch k {
	case TryCatchHandler:
		return "try-catch"
	case TryFinallyHandler:
		return "try-finally"
	default:
		return fmt.Sprintf("HandlerKind(%d)", k)
	}
}

// Helper identifies a VM runtime helper reached through CallHelper.
type Helper int32

const (
	HelperThrow                      Helper = iota // (exception) never returns
	HelperReThrow                                  // (exception) never returns
	HelperNewClosure                               // (boilerplate) -> closure
	HelperCreateObjectLiteral                      // (literal index, boilerplate) -> object
	HelperCreateArrayLiteral                       // (literal index, boilerplate) -> array
	HelperMaterializeRegExp                        // (literal index, pattern, flags) -> regexp
	HelperSetProperty                              // (object, key, value) -> value
	HelperPushContext                              // (object) -> context
	HelperPushCatchContext                         // (extension object) -> context
	HelperCreateCatchExtensionObject               // (name, value) -> object
	HelperDeclareGlobals                           // (pairs) -> undefined
	HelperTypeof                                   // (value) -> string
	HelperStackGuard                               // () -> undefined
	HelperDebugBreak                               // () -> undefined
	numHelpers
)

var helperNames = [...]string{
	HelperThrow:                      "Throw",
	HelperReThrow:                    "ReThrow",
	HelperNewClosure:                 "NewClosure",
	HelperCreateObjectLiteral:        "CreateObjectLiteral",
	HelperCreateArrayLiteral:         "CreateArrayLiteral",
	HelperMaterializeRegExp:          "MaterializeRegExp",
	HelperSetProperty:                "SetProperty",
	HelperPushContext:                "PushContext",
	HelperPushCatchContext:           "PushCatchContext",
	HelperCreateCatchExtensionObject: "CreateCatchExtensionObject",
	HelperDeclareGlobals:             "DeclareGlobals",
	HelperTypeof:                     "Typeof",
	HelperStackGuard:                 "StackGuard",
	HelperDebugBreak:                 "DebugBreak",
}

// String returns a human-readable name for the helper.
func (h Helper) String() string {
	if h >= 0 && h < numHelpers {
		return helperNames[h]
	}
	return fmt.Sprintf("Helper(%d)", h)
}

// NumHelpers returns the number of defined helpers.
func NumHelpers() int { return int(numHelpers) }
