package masm

import "fmt"

// VerifyError describes an inconsistency found by Verify.
type VerifyError struct {
	Function string
	PC       int
	Message  string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s: %04d: %s", e.Function, e.PC, e.Message)
}

// StackEffect returns how many operand stack elements in pops and how
// many it pushes. Local calls are handled by Verify.
func StackEffect(in Instr) (pops, pushes int) {
	switch in.Op {
	case PushConst, Push:
		return 0, 1
	case Pop:
		return 1, 0
	case Drop:
		return int(in.Args[0]), 0
	case Peek, Poke:
		return int(in.Args[0]) + 1, int(in.Args[0]) + 1
	case LoadNamed, StoreNamed, StoreElement:
		return 1, 1
	case LoadKeyed, StoreKeyed:
		return 2, 2
	case BinaryOp, CompareOp:
		return 1, 0
	case PushHandler:
		return 1, 1
	case PopHandler:
		return 1, 0
	case CallNamed:
		return int(in.Args[1]) + 1, 0
	case CallValue:
		// The function stays below the receiver.
		return int(in.Args[0]) + 2, 1
	case Construct:
		return int(in.Args[0]) + 1, 1
	case CallRuntime, CallHelper:
		return int(in.Args[1]), 0
	default:
		return 0, 0
	}
}

// Verify checks that every path through code agrees on the operand stack
// depth at each instruction, that no instruction pops more than the
// frame holds, and that Return and LocalReturn are reached with the
// depth their frame or caller expects. It returns the depth before
// each reachable instruction.
func Verify(code *Code) (map[int]int, error) {
	instrs := code.Decode()
	at := make(map[int]int, len(instrs))
	for i, in := range instrs {
		at[in.PC] = i
	}

	depth := make(map[int]int)
	var work []int
	var firstErr error
	fail := func(pc int, format string, args ...any) {
		if firstErr == nil {
			firstErr = &VerifyError{Function: code.Name, PC: pc, Message: fmt.Sprintf(format, args...)}
		}
	}
	reach := func(from, pc, d int) {
		if _, ok := at[pc]; !ok {
			fail(from, "jump to %d is not an instruction", pc)
			return
		}
		if old, ok := depth[pc]; ok {
			if old != d {
				fail(pc, "stack depth %d on one path, %d on another", old, d)
			}
			return
		}
		depth[pc] = d
		work = append(work, pc)
	}

	if len(instrs) == 0 {
		return depth, nil
	}
	reach(0, 0, 0)
	for len(work) > 0 && firstErr == nil {
		pc := work[len(work)-1]
		work = work[:len(work)-1]
		in := instrs[at[pc]]
		d := depth[pc]
		next := pc + 1 + len(in.Args)

		pops, pushes := StackEffect(in)
		if pops > d {
			fail(pc, "%s pops %d elements from a stack of %d", in.Op, pops, d)
			break
		}
		after := d - pops + pushes

		switch in.Op {
		case Return:
			if d != 0 {
				fail(pc, "return with %d elements on the stack", d)
			}
		case LocalReturn:
			if d < 1 {
				fail(pc, "local return without a return address")
			}
		case Jump:
			reach(pc, int(in.Args[0]), after)
		case JumpIfTrue, JumpIfFalse, StackCheck:
			reach(pc, int(in.Args[0]), after)
			reach(pc, next, after)
		case CallLocal:
			// The subroutine runs with the return address pushed and
			// comes back to the next instruction; a try handler also
			// resumes there.
			reach(pc, int(in.Args[0]), after+1)
			reach(pc, next, after)
		case CallHelper:
			switch Helper(in.Args[0]) {
			case HelperThrow, HelperReThrow:
			default:
				reach(pc, next, after)
			}
		default:
			reach(pc, next, after)
		}
	}
	return depth, firstErr
}
