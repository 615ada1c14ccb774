package masm

import (
	"fmt"
	"strings"

	"github.com/kolkov/ujit/internal/token"
	"github.com/kolkov/ujit/internal/types"
)

// PositionEntry maps an instruction address to a source position.
type PositionEntry struct {
	PC        int
	Pos       token.Position
	Statement bool
}

// CommentEntry is a disassembly annotation.
type CommentEntry struct {
	PC   int
	Text string
}

// Code is the generated machine code of one function.
type Code struct {
	Name         string
	Instrs       []Opcode
	Consts       []types.Value
	NumParams    int
	NumLocals    int
	NumHeapSlots int
	NumLiterals  int // Materialized literal slots per closure
	Positions    []PositionEntry
	Comments     []CommentEntry
}

// Instr is a decoded instruction.
type Instr struct {
	PC   int
	Op   Opcode
	Args []int32
}

// Decode splits the instruction stream into instructions.
func (c *Code) Decode() []Instr {
	var out []Instr
	for pc := 0; pc < len(c.Instrs); {
		op := c.Instrs[pc]
		n := op.Operands()
		in := Instr{PC: pc, Op: op}
		if n > 0 {
			in.Args = make([]int32, n)
			for i := 0; i < n && pc+1+i < len(c.Instrs); i++ {
				in.Args[i] = int32(c.Instrs[pc+1+i])
			}
		}
		out = append(out, in)
		pc += 1 + n
	}
	return out
}

// PositionAt returns the source position recorded for the instruction
// at pc or the closest one before it.
func (c *Code) PositionAt(pc int) token.Position {
	pos := token.NoPos
	for _, e := range c.Positions {
		if e.PC > pc {
			break
		}
		pos = e.Pos
	}
	return pos
}

// Disassemble returns a human-readable listing.
func (c *Code) Disassemble() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Function %s (params=%d, locals=%d, heap slots=%d) ===\n",
		c.displayName(), c.NumParams, c.NumLocals, c.NumHeapSlots)

	if len(c.Consts) > 0 {
		sb.WriteString("Constants:\n")
		for i, v := range c.Consts {
			fmt.Fprintf(&sb, "  [%d] %s\n", i, constString(v))
		}
	}

	sb.WriteString("Code:\n")
	ci := 0
	for _, in := range c.Decode() {
		for ci < len(c.Comments) && c.Comments[ci].PC <= in.PC {
			fmt.Fprintf(&sb, "        ;; %s\n", c.Comments[ci].Text)
			ci++
		}
		fmt.Fprintf(&sb, "  %04d: %s", in.PC, in.Op)
		c.writeOperands(&sb, in)
		sb.WriteByte('\n')
	}
	for ; ci < len(c.Comments); ci++ {
		fmt.Fprintf(&sb, "        ;; %s\n", c.Comments[ci].Text)
	}
	return sb.String()
}

func (c *Code) displayName() string {
	if c.Name == "" {
		return "<anonymous>"
	}
	return c.Name
}

func (c *Code) writeOperands(sb *strings.Builder, in Instr) {
	switch in.Op {
	case LoadConst, PushConst:
		c.writeConst(sb, in.Args[0])
	case LoadGlobal:
		c.writeConst(sb, in.Args[0])
		if in.Args[1] != 0 {
			sb.WriteString(" (typeof)")
		}
	case StoreGlobal, LoadNamed, StoreNamed:
		c.writeConst(sb, in.Args[0])
	case LoadParam, StoreParam:
		if in.Args[0] == -1 {
			sb.WriteString(" this")
		} else {
			fmt.Fprintf(sb, " [%d]", in.Args[0])
		}
	case LoadContext, StoreContext:
		fmt.Fprintf(sb, " depth=%d [%d]", in.Args[0], in.Args[1])
	case BinaryOp, CompareOp:
		fmt.Fprintf(sb, " %s", token.Token(in.Args[0]))
	case Jump, JumpIfTrue, JumpIfFalse, CallLocal, StackCheck:
		fmt.Fprintf(sb, " -> %04d", in.Args[0])
	case PushHandler:
		fmt.Fprintf(sb, " %s", HandlerKind(in.Args[0]))
	case CallNamed:
		c.writeConst(sb, in.Args[0])
		fmt.Fprintf(sb, " argc=%d", in.Args[1])
		if in.Args[2] != 0 {
			sb.WriteString(" (loop)")
		}
	case CallValue:
		fmt.Fprintf(sb, " argc=%d", in.Args[0])
		if in.Args[1] != 0 {
			sb.WriteString(" (loop)")
		}
	case Construct:
		fmt.Fprintf(sb, " argc=%d", in.Args[0])
	case CallRuntime:
		c.writeConst(sb, in.Args[0])
		fmt.Fprintf(sb, " argc=%d", in.Args[1])
	case CallHelper:
		fmt.Fprintf(sb, " %s argc=%d", Helper(in.Args[0]), in.Args[1])
	default:
		for _, arg := range in.Args {
			fmt.Fprintf(sb, " %d", arg)
		}
	}
}

func (c *Code) writeConst(sb *strings.Builder, idx int32) {
	if int(idx) < len(c.Consts) && idx >= 0 {
		fmt.Fprintf(sb, " [%d] = %s", idx, constString(c.Consts[idx]))
	} else {
		fmt.Fprintf(sb, " [%d]", idx)
	}
}

func constString(v types.Value) string {
	if s, ok := v.Data().(fmt.Stringer); ok {
		return "<" + s.String() + ">"
	}
	return v.String()
}
