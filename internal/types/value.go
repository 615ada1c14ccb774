// Package types defines runtime value types for ujit.
package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind represents the type of a runtime value.
type Kind uint8

const (
	KindUndefined Kind = iota // The undefined value
	KindNull                  // The null value
	KindBool                  // Boolean
	KindNum                   // IEEE-754 double
	KindStr                   // String
	KindObject                // Reference to an *Object
	KindHole                  // Uninitialized marker, never visible to scripts
	KindInternal              // Code-generator data: boilerplates, return addresses
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNum:
		return "number"
	case KindStr:
		return "string"
	case KindObject:
		return "object"
	case KindHole:
		return "hole"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Value represents a runtime value.
// Uses tagged union pattern for type safety and performance.
type Value struct {
	kind Kind
	num  float64
	str  string
	ref  any
}

// Constructors

// Undefined returns the undefined value.
func Undefined() Value {
	return Value{kind: KindUndefined}
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Hole returns the uninitialized marker.
func Hole() Value {
	return Value{kind: KindHole}
}

// Num creates a numeric value.
func Num(n float64) Value {
	return Value{kind: KindNum, num: n}
}

// Str creates a string value.
func Str(s string) Value {
	return Value{kind: KindStr, str: s}
}

// Bool creates a boolean value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, num: 1}
	}
	return Value{kind: KindBool}
}

// Obj wraps an object reference.
func Obj(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{kind: KindObject, ref: o}
}

// Internal wraps generator or VM data that scripts cannot observe.
func Internal(x any) Value {
	return Value{kind: KindInternal, ref: x}
}

// Accessors

// Kind returns the value's type.
func (v Value) Kind() Kind {
	return v.kind
}

// IsUndefined returns true for the undefined value.
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// IsNull returns true for the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNullish returns true for undefined and null.
func (v Value) IsNullish() bool { return v.kind == KindUndefined || v.kind == KindNull }

// IsHole returns true for the uninitialized marker.
func (v Value) IsHole() bool { return v.kind == KindHole }

// IsNum returns true for numbers.
func (v Value) IsNum() bool { return v.kind == KindNum }

// IsStr returns true for strings.
func (v Value) IsStr() bool { return v.kind == KindStr }

// IsObject returns true for object references.
func (v Value) IsObject() bool { return v.kind == KindObject }

// Object returns the referenced object, or nil for non-objects.
func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.ref.(*Object)
}

// Data returns the payload of an internal value.
func (v Value) Data() any {
	if v.kind != KindInternal {
		return nil
	}
	return v.ref
}

// Conversions

// ToBoolean applies the language truthiness rule: false, +0, -0, NaN, the
// empty string, null, undefined and the hole are falsy.
func (v Value) ToBoolean() bool {
	switch v.kind {
	case KindBool:
		return v.num != 0
	case KindNum:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindStr:
		return v.str != ""
	case KindObject, KindInternal:
		return true
	default:
		return false
	}
}

// ToNumber converts the value to a number.
func (v Value) ToNumber() float64 {
	switch v.kind {
	case KindNum, KindBool:
		return v.num
	case KindStr:
		return ParseNum(v.str)
	case KindNull:
		return 0
	case KindObject:
		return ToPrimitive(v).ToNumber()
	default:
		return math.NaN()
	}
}

// ToString converts the value to a string.
func (v Value) ToString() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case KindNum:
		return FormatNum(v.num)
	case KindStr:
		return v.str
	case KindObject:
		return ToPrimitive(v).ToString()
	case KindHole:
		return "<hole>"
	default:
		return fmt.Sprintf("<internal %T>", v.ref)
	}
}

// ToInt32 converts the value to a signed 32-bit integer.
func (v Value) ToInt32() int32 {
	return int32(v.ToUint32())
}

// ToUint32 converts the value to an unsigned 32-bit integer.
func (v Value) ToUint32() uint32 {
	n := v.ToNumber()
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	n = math.Trunc(n)
	n = math.Mod(n, 1<<32)
	if n < 0 {
		n += 1 << 32
	}
	return uint32(n)
}

// TypeOf returns the result of the typeof operator.
func (v Value) TypeOf() string {
	switch v.kind {
	case KindUndefined, KindHole:
		return "undefined"
	case KindNull:
		return "object"
	case KindBool:
		return "boolean"
	case KindNum:
		return "number"
	case KindStr:
		return "string"
	case KindObject:
		if v.Object().IsCallable() {
			return "function"
		}
		return "object"
	default:
		return "undefined"
	}
}

// String returns a debug representation of the value.
func (v Value) String() string {
	switch v.kind {
	case KindStr:
		return strconv.Quote(v.str)
	case KindObject:
		return v.Object().String()
	default:
		return v.ToString()
	}
}

// Comparison

// StrictEquals implements ===.
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull, KindHole:
		return true
	case KindNum, KindBool:
		return a.num == b.num
	case KindStr:
		return a.str == b.str
	default:
		return a.ref == b.ref
	}
}

// LooseEquals implements ==.
func LooseEquals(a, b Value) bool {
	if a.kind == b.kind {
		return StrictEquals(a, b)
	}
	switch {
	case a.IsNullish() && b.IsNullish():
		return true
	case a.IsNullish() || b.IsNullish():
		return false
	case a.kind == KindBool:
		return LooseEquals(Num(a.num), b)
	case b.kind == KindBool:
		return LooseEquals(a, Num(b.num))
	case a.kind == KindNum && b.kind == KindStr:
		return a.num == ParseNum(b.str)
	case a.kind == KindStr && b.kind == KindNum:
		return ParseNum(a.str) == b.num
	case a.kind == KindObject && b.kind != KindObject:
		return LooseEquals(ToPrimitive(a), b)
	case b.kind == KindObject && a.kind != KindObject:
		return LooseEquals(a, ToPrimitive(b))
	default:
		return false
	}
}

// Less implements the abstract relational comparison a < b. The second
// result is false when the comparison is undefined (a NaN was involved).
func Less(a, b Value) (less, ok bool) {
	pa, pb := ToPrimitive(a), ToPrimitive(b)
	if pa.kind == KindStr && pb.kind == KindStr {
		return pa.str < pb.str, true
	}
	na, nb := pa.ToNumber(), pb.ToNumber()
	if math.IsNaN(na) || math.IsNaN(nb) {
		return false, false
	}
	return na < nb, true
}

// ToPrimitive converts objects to a primitive using their default string
// conversion. Primitives are returned unchanged.
func ToPrimitive(v Value) Value {
	if v.kind != KindObject {
		return v
	}
	return Str(v.Object().DefaultString())
}

// Number Parsing and Formatting

// ParseNum converts a string to a number. Surrounding whitespace is
// ignored, the empty string is zero, and malformed input is NaN.
func ParseNum(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && c != '.' && c != 'e' && c != 'E' && c != '+' && c != '-' {
			return math.NaN()
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// FormatNum formats a number the way Number.prototype.toString does for
// radix 10.
func FormatNum(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	case n == math.Trunc(n) && math.Abs(n) < 1e21:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	abs := math.Abs(n)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	s := strconv.FormatFloat(n, 'e', -1, 64)
	// Go writes 1e-07; drop exponent zero padding.
	if i := strings.IndexByte(s, 'e'); i >= 0 && i+2 < len(s) {
		exp := strings.TrimLeft(s[i+2:], "0")
		s = s[:i+2] + exp
	}
	return s
}

// Helper functions

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
