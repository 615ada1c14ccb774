package vm

import (
	"fmt"
	"math"
	"strings"

	"github.com/kolkov/ujit/internal/compiler"
	"github.com/kolkov/ujit/internal/runtime"
	"github.com/kolkov/ujit/internal/types"
)

// Error class names.
const (
	errorName          = "Error"
	typeErrorName      = "TypeError"
	rangeErrorName     = "RangeError"
	referenceErrorName = "ReferenceError"
	syntaxErrorName    = "SyntaxError"
)

var errorClasses = []string{errorName, typeErrorName, rangeErrorName, referenceErrorName, syntaxErrorName}

// realm holds the global object and the intrinsic prototypes.
type realm struct {
	global        *types.Object
	globalContext *Context

	objectProto   *types.Object
	functionProto *types.Object
	arrayProto    *types.Object
	regexpProto   *types.Object
	errorProtos   map[string]*types.Object
}

func (vm *VM) initRealm() {
	r := &vm.realm
	r.objectProto = types.NewObject(nil)
	r.functionProto = types.NewObject(r.objectProto)
	r.arrayProto = types.NewArray(r.objectProto, nil)
	r.regexpProto = types.NewObject(r.objectProto)

	g := types.NewObject(r.objectProto)
	g.Class = types.ClassGlobal
	r.global = g
	r.globalContext = newFunctionContext(nil, 0)

	g.Set("undefined", types.Undefined())
	g.Set("NaN", types.Num(math.NaN()))
	g.Set("Infinity", types.Num(math.Inf(1)))
	g.Set("print", types.Obj(vm.newNative("print", 0, builtinPrint)))

	r.errorProtos = make(map[string]*types.Object)
	for _, class := range errorClasses {
		proto := types.NewObject(r.objectProto)
		if class != errorName {
			proto.Proto = r.errorProtos[errorName]
		}
		proto.Set("name", types.Str(class))
		proto.Set("message", types.Str(""))
		r.errorProtos[class] = proto

		ctor := vm.newNative(class, 1, errorConstructor(class))
		ctor.Set("prototype", types.Obj(proto))
		proto.Set("constructor", types.Obj(ctor))
		g.Set(class, types.Obj(ctor))
	}

	mathObj := types.NewObject(r.objectProto)
	mathObj.Set("floor", types.Obj(vm.newNative("floor", 1, mathFloor)))
	mathObj.Set("max", types.Obj(vm.newNative("max", 2, mathMax)))
	g.Set("Math", types.Obj(mathObj))

	r.arrayProto.Set("push", types.Obj(vm.newNative("push", 1, arrayPush)))
	r.arrayProto.Set("join", types.Obj(vm.newNative("join", 1, arrayJoin)))

	r.regexpProto.Set("test", types.Obj(vm.newNative("test", 1, regexpTest)))
	r.regexpProto.Set("exec", types.Obj(vm.newNative("exec", 1, regexpExec)))
}

// -----------------------------------------------------------------------------
// Object construction

func (vm *VM) newFunction(impl any, name string, length int) *types.Object {
	fn := types.NewObject(vm.functionProto)
	fn.Class = types.ClassFunction
	fn.Internal = impl
	fn.Set("name", types.Str(name))
	fn.Set("length", types.Num(float64(length)))
	return fn
}

func (vm *VM) newNative(name string, length int, f NativeFunc) *types.Object {
	return vm.newFunction(&Native{Name: name, Fn: f}, name, length)
}

// newClosure stamps a function object from its boilerplate.
func (vm *VM) newClosure(bp *compiler.Boilerplate, ctx *Context) *types.Object {
	cl := &Closure{
		Boilerplate: bp,
		Context:     ctx,
		Literals:    make([]types.Value, bp.Fn.NumLiterals),
	}
	fn := vm.newFunction(cl, bp.Fn.Name, len(bp.Fn.Params))
	proto := types.NewObject(vm.objectProto)
	proto.Set("constructor", types.Obj(fn))
	fn.Set("prototype", types.Obj(proto))
	return fn
}

func (vm *VM) newError(class, msg string) *types.Object {
	obj := types.NewObject(vm.errorProtos[class])
	obj.Class = types.ClassError
	if msg != "" {
		obj.Set("message", types.Str(msg))
	}
	return obj
}

func (vm *VM) newRegExp(re *runtime.Regex) *types.Object {
	obj := types.NewObject(vm.regexpProto)
	obj.Class = types.ClassRegExp
	obj.Internal = re
	obj.Set("source", types.Str(re.Source()))
	obj.Set("flags", types.Str(re.Flags()))
	obj.Set("global", types.Bool(re.Global))
	obj.Set("ignoreCase", types.Bool(re.IgnoreCase))
	obj.Set("multiline", types.Bool(re.Multiline))
	obj.Set("dotAll", types.Bool(re.DotAll))
	obj.Set("lastIndex", types.Num(0))
	return obj
}

// -----------------------------------------------------------------------------
// Built-in functions

func arg(args []types.Value, i int) types.Value {
	if i < len(args) {
		return args[i]
	}
	return types.Undefined()
}

func builtinPrint(vm *VM, _ types.Value, args []types.Value) (types.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.ToString()
	}
	if _, err := fmt.Fprintln(vm.config.Output, strings.Join(parts, " ")); err != nil {
		return types.Undefined(), err
	}
	return types.Undefined(), nil
}

func errorConstructor(class string) NativeFunc {
	return func(vm *VM, _ types.Value, args []types.Value) (types.Value, error) {
		msg := ""
		if m := arg(args, 0); !m.IsUndefined() {
			msg = m.ToString()
		}
		return types.Obj(vm.newError(class, msg)), nil
	}
}

func mathFloor(_ *VM, _ types.Value, args []types.Value) (types.Value, error) {
	return types.Num(math.Floor(arg(args, 0).ToNumber())), nil
}

func mathMax(_ *VM, _ types.Value, args []types.Value) (types.Value, error) {
	result := math.Inf(-1)
	for _, a := range args {
		n := a.ToNumber()
		if math.IsNaN(n) {
			return types.Num(n), nil
		}
		result = math.Max(result, n)
	}
	return types.Num(result), nil
}

func (vm *VM) thisObject(this types.Value, class, method string) (*types.Object, error) {
	obj := this.Object()
	if obj == nil || obj.Class != class {
		return nil, vm.throwf(typeErrorName, "%s.prototype.%s called on %s", class, method, describe(this))
	}
	return obj, nil
}

func arrayPush(vm *VM, this types.Value, args []types.Value) (types.Value, error) {
	arr, err := vm.thisObject(this, types.ClassArray, "push")
	if err != nil {
		return types.Undefined(), err
	}
	for _, a := range args {
		arr.SetElement(arr.Len(), a)
	}
	return types.Num(float64(arr.Len())), nil
}

func arrayJoin(vm *VM, this types.Value, args []types.Value) (types.Value, error) {
	arr, err := vm.thisObject(this, types.ClassArray, "join")
	if err != nil {
		return types.Undefined(), err
	}
	sep := ","
	if s := arg(args, 0); !s.IsUndefined() {
		sep = s.ToString()
	}
	parts := make([]string, arr.Len())
	for i, e := range arr.Elements() {
		if !e.IsNullish() && !e.IsHole() {
			parts[i] = e.ToString()
		}
	}
	return types.Str(strings.Join(parts, sep)), nil
}

// regexpMatch runs a RegExp against its argument, honoring and updating
// lastIndex for global expressions.
func (vm *VM) regexpMatch(this types.Value, method string, args []types.Value) (*types.Object, []int, string, error) {
	obj, err := vm.thisObject(this, types.ClassRegExp, method)
	if err != nil {
		return nil, nil, "", err
	}
	re := obj.Internal.(*runtime.Regex)
	s := arg(args, 0).ToString()
	from := 0
	if re.Global {
		from = int(obj.Get("lastIndex").ToNumber())
	}
	loc := re.FindStringIndex(s, from)
	if re.Global {
		next := 0
		if loc != nil {
			next = loc[1]
		}
		obj.Set("lastIndex", types.Num(float64(next)))
	}
	return obj, loc, s, nil
}

func regexpTest(vm *VM, this types.Value, args []types.Value) (types.Value, error) {
	_, loc, _, err := vm.regexpMatch(this, "test", args)
	return types.Bool(loc != nil), err
}

func regexpExec(vm *VM, this types.Value, args []types.Value) (types.Value, error) {
	_, loc, s, err := vm.regexpMatch(this, "exec", args)
	if err != nil || loc == nil {
		return types.Null(), err
	}
	result := types.NewArray(vm.arrayProto, []types.Value{types.Str(s[loc[0]:loc[1]])})
	result.Set("index", types.Num(float64(loc[0])))
	result.Set("input", types.Str(s))
	return types.Obj(result), nil
}

// -----------------------------------------------------------------------------
// Runtime functions

// runtimeFunctions are reachable through CallRuntime by name.
var runtimeFunctions = map[string]NativeFunc{
	"print":  builtinPrint,
	"assert": runtimeAssert,
}

func runtimeAssert(vm *VM, _ types.Value, args []types.Value) (types.Value, error) {
	if !arg(args, 0).ToBoolean() {
		msg := "assertion failed"
		if m := arg(args, 1); !m.IsUndefined() {
			msg += ": " + m.ToString()
		}
		return types.Undefined(), vm.throwf(errorName, "%s", msg)
	}
	return types.Undefined(), nil
}
