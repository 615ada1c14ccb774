package types

import (
	"math"
	"testing"
)

func TestValueConstructors(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind Kind
	}{
		{"Undefined", Undefined(), KindUndefined},
		{"Null", Null(), KindNull},
		{"Hole", Hole(), KindHole},
		{"Num(42)", Num(42), KindNum},
		{"Str hello", Str("hello"), KindStr},
		{"Bool true", Bool(true), KindBool},
		{"Obj", Obj(NewObject(nil)), KindObject},
		{"Obj nil", Obj(nil), KindNull},
		{"Internal", Internal(3), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.v.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", tt.v.Kind(), tt.kind)
			}
		})
	}
}

func TestToBoolean(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero", Num(0), false},
		{"negative zero", Num(math.Copysign(0, -1)), false},
		{"NaN", Num(math.NaN()), false},
		{"one", Num(1), true},
		{"empty string", Str(""), false},
		{"string zero", Str("0"), true},
		{"null", Null(), false},
		{"undefined", Undefined(), false},
		{"hole", Hole(), false},
		{"empty object", Obj(NewObject(nil)), true},
		{"empty array", Obj(NewArray(nil, nil)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.ToBoolean(); got != tt.want {
				t.Errorf("ToBoolean() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		v    Value
		want float64
	}{
		{Str(" 42 "), 42},
		{Str(""), 0},
		{Str("0x1f"), 31},
		{Str("1e3"), 1000},
		{Str("-Infinity"), math.Inf(-1)},
		{Bool(true), 1},
		{Null(), 0},
	}
	for _, tt := range tests {
		if got := tt.v.ToNumber(); got != tt.want {
			t.Errorf("ToNumber(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}

	for _, v := range []Value{Undefined(), Str("12abc"), Str("inf"), Str("1_000")} {
		if got := v.ToNumber(); !math.IsNaN(got) {
			t.Errorf("ToNumber(%v) = %v, want NaN", v, got)
		}
	}
}

func TestFormatNum(t *testing.T) {
	tests := []struct {
		n    float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{42, "42"},
		{-7, "-7"},
		{3.5, "3.5"},
		{0.1, "0.1"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{123456789012, "123456789012"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
	}
	for _, tt := range tests {
		if got := FormatNum(tt.n); got != tt.want {
			t.Errorf("FormatNum(%v) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestEquality(t *testing.T) {
	obj := Obj(NewObject(nil))
	tests := []struct {
		name          string
		a, b          Value
		strict, loose bool
	}{
		{"same number", Num(1), Num(1), true, true},
		{"number string", Num(1), Str("1"), false, true},
		{"null undefined", Null(), Undefined(), false, true},
		{"null zero", Null(), Num(0), false, false},
		{"bool number", Bool(true), Num(1), false, true},
		{"NaN", Num(math.NaN()), Num(math.NaN()), false, false},
		{"same object", obj, obj, true, true},
		{"different objects", obj, Obj(NewObject(nil)), false, false},
		{"array string", Obj(NewArray(nil, []Value{Num(1), Num(2)})), Str("1,2"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StrictEquals(tt.a, tt.b); got != tt.strict {
				t.Errorf("StrictEquals = %v, want %v", got, tt.strict)
			}
			if got := LooseEquals(tt.a, tt.b); got != tt.loose {
				t.Errorf("LooseEquals = %v, want %v", got, tt.loose)
			}
		})
	}
}

func TestLess(t *testing.T) {
	if less, ok := Less(Num(1), Num(2)); !less || !ok {
		t.Error("1 < 2 should hold")
	}
	if less, ok := Less(Str("b"), Str("a")); less || !ok {
		t.Error(`"b" < "a" should not hold`)
	}
	if _, ok := Less(Num(math.NaN()), Num(1)); ok {
		t.Error("NaN comparison should be undefined")
	}
	if less, _ := Less(Str("10"), Num(9)); less {
		t.Error(`"10" < 9 should compare numerically`)
	}
}

func TestTypeOf(t *testing.T) {
	fn := &Object{Class: ClassFunction}
	tests := []struct {
		v    Value
		want string
	}{
		{Undefined(), "undefined"},
		{Null(), "object"},
		{Bool(false), "boolean"},
		{Num(1), "number"},
		{Str(""), "string"},
		{Obj(NewObject(nil)), "object"},
		{Obj(fn), "function"},
	}
	for _, tt := range tests {
		if got := tt.v.TypeOf(); got != tt.want {
			t.Errorf("TypeOf(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestToUint32(t *testing.T) {
	if got := Num(-1).ToUint32(); got != math.MaxUint32 {
		t.Errorf("ToUint32(-1) = %d", got)
	}
	if got := Num(-1).ToInt32(); got != -1 {
		t.Errorf("ToInt32(-1) = %d", got)
	}
	if got := Num(4294967297).ToInt32(); got != 1 {
		t.Errorf("ToInt32(2^32+1) = %d", got)
	}
}

func TestObjectProperties(t *testing.T) {
	proto := NewObject(nil)
	proto.Set("inherited", Num(1))
	o := NewObject(proto)
	o.Set("b", Num(2))
	o.Set("a", Num(3))

	if got := o.Get("inherited"); got.ToNumber() != 1 {
		t.Errorf("prototype lookup failed: %v", got)
	}
	if !o.Has("inherited") {
		t.Error("Has should search prototypes")
	}
	if _, own := o.GetOwn("inherited"); own {
		t.Error("GetOwn should not search prototypes")
	}
	if keys := o.Keys(); len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("Keys() = %v, want insertion order", keys)
	}
	o.Delete("b")
	if o.Has("b") {
		t.Error("Delete left the property behind")
	}
}

func TestArrayElements(t *testing.T) {
	a := NewArray(nil, []Value{Num(1)})
	a.Set("3", Str("x"))
	if a.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", a.Len())
	}
	if got := a.Get("length").ToNumber(); got != 4 {
		t.Errorf("length = %v", got)
	}
	if a.Has("1") {
		t.Error("hole should not be an own property")
	}
	if got := Obj(a).ToString(); got != "1,,,x" {
		t.Errorf("ToString() = %q", got)
	}
	a.Set("length", Num(1))
	if a.Len() != 1 {
		t.Errorf("truncating length left %d elements", a.Len())
	}
}

func TestCloneDeep(t *testing.T) {
	inner := NewArray(nil, []Value{Num(1)})
	tmpl := NewObject(nil)
	tmpl.Set("list", Obj(inner))

	shallow := tmpl.Clone(false)
	deep := tmpl.Clone(true)

	shallow.Get("list").Object().SetElement(0, Num(9))
	if inner.Elements()[0].ToNumber() != 9 {
		t.Error("shallow clone should share nested arrays")
	}
	deep.Get("list").Object().SetElement(0, Num(5))
	if inner.Elements()[0].ToNumber() != 9 {
		t.Error("deep clone must not alias the template")
	}
}
