package types

import (
	"strconv"
	"strings"
)

// Object classes.
const (
	ClassObject   = "Object"
	ClassArray    = "Array"
	ClassFunction = "Function"
	ClassError    = "Error"
	ClassRegExp   = "RegExp"
	ClassGlobal   = "global"
)

// Object is a heap object: a property map with insertion order, an
// optional prototype and, for arrays, a dense element vector.
type Object struct {
	Class string
	Proto *Object

	props map[string]Value
	keys  []string
	elems []Value // Array elements; holes mark missing entries

	// Internal carries class-specific data: the callable of a function or
	// the compiled pattern of a regexp.
	Internal any
}

// NewObject creates an empty object with the given prototype.
func NewObject(proto *Object) *Object {
	return &Object{Class: ClassObject, Proto: proto}
}

// NewArray creates an array holding elems.
func NewArray(proto *Object, elems []Value) *Object {
	return &Object{Class: ClassArray, Proto: proto, elems: elems}
}

// IsArray reports whether the object is an array.
func (o *Object) IsArray() bool { return o.Class == ClassArray }

// IsCallable reports whether the object can be invoked.
func (o *Object) IsCallable() bool { return o.Class == ClassFunction }

// Len returns the array length, or zero for other objects.
func (o *Object) Len() int { return len(o.elems) }

// Elements returns the array elements. The slice is shared.
func (o *Object) Elements() []Value { return o.elems }

// arrayIndex returns the element index named by key, if it is one.
func (o *Object) arrayIndex(key string) (int, bool) {
	if !o.IsArray() || key == "" || (key[0] == '0' && len(key) > 1) {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// GetOwn returns an own property.
func (o *Object) GetOwn(key string) (Value, bool) {
	if idx, ok := o.arrayIndex(key); ok {
		if idx < len(o.elems) && !o.elems[idx].IsHole() {
			return o.elems[idx], true
		}
		return Undefined(), false
	}
	if o.IsArray() && key == "length" {
		return Num(float64(len(o.elems))), true
	}
	v, ok := o.props[key]
	return v, ok
}

// Get returns a property, searching the prototype chain.
func (o *Object) Get(key string) Value {
	for obj := o; obj != nil; obj = obj.Proto {
		if v, ok := obj.GetOwn(key); ok {
			return v
		}
	}
	return Undefined()
}

// Has reports whether the property exists on the object or its prototypes.
func (o *Object) Has(key string) bool {
	for obj := o; obj != nil; obj = obj.Proto {
		if _, ok := obj.GetOwn(key); ok {
			return true
		}
	}
	return false
}

// Set creates or updates an own property.
func (o *Object) Set(key string, v Value) {
	if idx, ok := o.arrayIndex(key); ok {
		o.SetElement(idx, v)
		return
	}
	if o.IsArray() && key == "length" {
		n := int(v.ToUint32())
		for len(o.elems) < n {
			o.elems = append(o.elems, Hole())
		}
		o.elems = o.elems[:n]
		return
	}
	if o.props == nil {
		o.props = make(map[string]Value)
	}
	if _, exists := o.props[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.props[key] = v
}

// SetElement stores v at array index idx, growing the array with holes.
func (o *Object) SetElement(idx int, v Value) {
	for len(o.elems) <= idx {
		o.elems = append(o.elems, Hole())
	}
	o.elems[idx] = v
}

// Delete removes an own property. It reports whether the property is gone.
func (o *Object) Delete(key string) bool {
	if idx, ok := o.arrayIndex(key); ok {
		if idx < len(o.elems) {
			o.elems[idx] = Hole()
		}
		return true
	}
	if _, ok := o.props[key]; !ok {
		return true
	}
	delete(o.props, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns own enumerable property names in insertion order, array
// indices first.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.elems)+len(o.keys))
	for i, e := range o.elems {
		if !e.IsHole() {
			keys = append(keys, strconv.Itoa(i))
		}
	}
	return append(keys, o.keys...)
}

// Clone copies the object. Nested plain objects and arrays are copied too
// when deep is set; this is how literal boilerplates are instantiated.
func (o *Object) Clone(deep bool) *Object {
	c := &Object{Class: o.Class, Proto: o.Proto, Internal: o.Internal}
	if len(o.elems) > 0 {
		c.elems = make([]Value, len(o.elems))
		for i, e := range o.elems {
			c.elems[i] = cloneValue(e, deep)
		}
	}
	if len(o.props) > 0 {
		c.props = make(map[string]Value, len(o.props))
		c.keys = append([]string(nil), o.keys...)
		for k, v := range o.props {
			c.props[k] = cloneValue(v, deep)
		}
	}
	return c
}

func cloneValue(v Value, deep bool) Value {
	if !deep || v.kind != KindObject {
		return v
	}
	obj := v.Object()
	if obj.Class != ClassObject && obj.Class != ClassArray {
		return v
	}
	return Obj(obj.Clone(true))
}

// DefaultString returns the string conversion used by ToPrimitive.
func (o *Object) DefaultString() string {
	switch o.Class {
	case ClassArray:
		parts := make([]string, len(o.elems))
		for i, e := range o.elems {
			if !e.IsNullish() && !e.IsHole() {
				parts[i] = e.ToString()
			}
		}
		return strings.Join(parts, ",")
	case ClassFunction:
		name := o.Get("name").ToString()
		if name == "undefined" {
			name = ""
		}
		return "function " + name + "() { [native code] }"
	case ClassError:
		name := o.Get("name").ToString()
		msg := o.Get("message").ToString()
		if msg == "" || msg == "undefined" {
			return name
		}
		return name + ": " + msg
	case ClassRegExp:
		return "/" + o.Get("source").ToString() + "/" + o.Get("flags").ToString()
	default:
		return "[object " + o.Class + "]"
	}
}

// String returns a debug representation of the object.
func (o *Object) String() string {
	if o.Class == ClassObject {
		var sb strings.Builder
		sb.WriteByte('{')
		for i, k := range o.keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			sb.WriteString(o.props[k].String())
		}
		sb.WriteByte('}')
		return sb.String()
	}
	if o.Class == ClassArray {
		var sb strings.Builder
		sb.WriteByte('[')
		for i, e := range o.elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			if !e.IsHole() {
				sb.WriteString(e.String())
			}
		}
		sb.WriteByte(']')
		return sb.String()
	}
	return o.DefaultString()
}
