package ast

import "fmt"

// VarMode describes how a variable was declared.
type VarMode uint8

const (
	ModeVar       VarMode = iota // var, function or parameter
	ModeConst                    // const
	ModeDynamic                  // unresolved name looked up at runtime
	ModeTemporary                // compiler-introduced hidden variable
)

// String returns the declaration keyword for the mode.
func (m VarMode) String() string {
	switch m {
	case ModeVar:
		return "var"
	case ModeConst:
		return "const"
	case ModeDynamic:
		return "dynamic"
	case ModeTemporary:
		return "temporary"
	default:
		return fmt.Sprintf("VarMode(%d)", m)
	}
}

// SlotKind describes where a non-global variable lives.
type SlotKind uint8

const (
	SlotParameter SlotKind = iota // Argument in the caller-pushed frame area
	SlotLocal                     // Stack-allocated frame local
	SlotContext                   // Heap-allocated closure context slot
	SlotLookup                    // Resolved by name at runtime
)

// String returns a human-readable name for the slot kind.
func (k SlotKind) String() string {
	switch k {
	case SlotParameter:
		return "parameter"
	case SlotLocal:
		return "local"
	case SlotContext:
		return "context"
	case SlotLookup:
		return "lookup"
	default:
		return fmt.Sprintf("SlotKind(%d)", k)
	}
}

// Slot is the storage location of a variable. Parameter index -1 is the
// receiver.
type Slot struct {
	Kind  SlotKind
	Index int
}

// Variable is a resolved binding. Globals have a nil Slot.
type Variable struct {
	Name  string
	Mode  VarMode
	Slot  *Slot
	Scope *Scope // Declaring scope; nil for globals and dynamic names

	IsThis bool
	// Captured is set when an inner function refers to the variable.
	Captured bool
}

// IsGlobal reports whether the variable is a property of the global object.
func (v *Variable) IsGlobal() bool {
	return v.Slot == nil && !v.IsThis
}

// IsPossiblyEval reports whether a call through this variable may be a
// direct eval.
func (v *Variable) IsPossiblyEval() bool {
	return v.Name == "eval" && (v.IsGlobal() || v.IsLookup())
}

// IsLookup reports whether the variable must be resolved at runtime.
func (v *Variable) IsLookup() bool {
	return v.Slot != nil && v.Slot.Kind == SlotLookup
}

// String returns a debugging description of the variable.
func (v *Variable) String() string {
	if v.Slot == nil {
		return v.Name + "@global"
	}
	return fmt.Sprintf("%s@%s[%d]", v.Name, v.Slot.Kind, v.Slot.Index)
}

// Declaration introduces a variable or function into a scope. Fun is set
// for function declarations.
type Declaration struct {
	Ref  *VarRef
	Mode VarMode
	Fun  *FunctionLit
}

// Scope describes the storage layout of one function.
type Scope struct {
	Outer    *Scope
	Function *FunctionLit

	Params    []*Variable
	Receiver  *Variable
	NumLocals int
	// NumHeapSlots is the number of context slots; zero means the function
	// allocates no context.
	NumHeapSlots int
	Decls        []*Declaration

	// ContextNames maps context slot index to variable name.
	ContextNames []string

	CallsEval    bool
	ContainsWith bool
}

// ContextChainLength returns the number of function contexts between s and
// the scope that declares a context variable.
func (s *Scope) ContextChainLength(target *Scope) int {
	n := 0
	for sc := s; sc != target; sc = sc.Outer {
		if sc == nil {
			panic("ast: context chain does not reach declaring scope")
		}
		if sc.NumHeapSlots > 0 {
			n++
		}
	}
	return n
}

// HasContextParams reports whether any parameter lives in a context slot.
func (s *Scope) HasContextParams() bool {
	for _, p := range s.Params {
		if p.Slot != nil && p.Slot.Kind == SlotContext {
			return true
		}
	}
	return false
}
