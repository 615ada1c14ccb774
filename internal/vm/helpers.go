package vm

import (
	"fmt"

	"github.com/kolkov/ujit/internal/compiler"
	"github.com/kolkov/ujit/internal/masm"
	"github.com/kolkov/ujit/internal/types"
)

// callHelper runs a runtime helper with its popped arguments and returns
// the value for the accumulator.
func (vm *VM) callHelper(f *Frame, h masm.Helper, args []types.Value) (types.Value, error) {
	switch h {
	case masm.HelperThrow, masm.HelperReThrow:
		return types.Undefined(), &ThrowError{Value: args[0]}

	case masm.HelperNewClosure:
		bp := args[0].Data().(*compiler.Boilerplate)
		return types.Obj(vm.newClosure(bp, f.context)), nil

	case masm.HelperCreateObjectLiteral, masm.HelperCreateArrayLiteral:
		idx := int(args[0].ToNumber())
		tmpl := args[1].Data().(*compiler.LiteralTemplate)
		lit := f.closure.Literals[idx]
		if !lit.IsObject() {
			lit = types.Obj(vm.instantiate(tmpl))
			f.closure.Literals[idx] = lit
		}
		return types.Obj(lit.Object().Clone(tmpl.Depth > 1)), nil

	case masm.HelperMaterializeRegExp:
		// One RegExp object per literal and closure.
		idx := int(args[0].ToNumber())
		if lit := f.closure.Literals[idx]; lit.IsObject() {
			return lit, nil
		}
		re, err := vm.regexCache.Get(args[1].ToString(), args[2].ToString())
		if err != nil {
			return types.Undefined(), vm.throwf(syntaxErrorName, "%v", err)
		}
		lit := types.Obj(vm.newRegExp(re))
		f.closure.Literals[idx] = lit
		return lit, nil

	case masm.HelperSetProperty:
		return args[2], vm.setProperty(args[0], propertyKey(args[1]), args[2])

	case masm.HelperPushContext, masm.HelperPushCatchContext:
		obj, err := vm.toObject(args[0])
		if err != nil {
			return types.Undefined(), err
		}
		f.context = newExtensionContext(f.context, obj)
		return types.Obj(obj), nil

	case masm.HelperCreateCatchExtensionObject:
		// No prototype: names in the catch block must not find
		// Object.prototype properties here.
		ext := &types.Object{Class: types.ClassObject}
		ext.Set(args[0].ToString(), args[1])
		return types.Obj(ext), nil

	case masm.HelperDeclareGlobals:
		vm.declareGlobals(args[0].Data().(*compiler.GlobalDecls), f.context)
		return types.Undefined(), nil

	case masm.HelperTypeof:
		return types.Str(args[0].TypeOf()), nil

	case masm.HelperStackGuard:
		return types.Undefined(), vm.stackGuard()

	case masm.HelperDebugBreak:
		if vm.config.OnDebugger != nil {
			vm.config.OnDebugger(f.name(), f.code.PositionAt(f.at))
		}
		return types.Undefined(), nil

	default:
		panic(fmt.Sprintf("vm: unknown helper %s", h))
	}
}

func (vm *VM) declareGlobals(decls *compiler.GlobalDecls, ctx *Context) {
	for _, d := range decls.Decls {
		switch {
		case d.Fun != nil:
			vm.global.Set(d.Name, types.Obj(vm.newClosure(d.Fun, ctx)))
		case d.Const:
			vm.global.Set(d.Name, types.Hole())
		case !vm.global.Has(d.Name):
			vm.global.Set(d.Name, types.Undefined())
		}
	}
}

// instantiate builds the boilerplate object of a literal template.
func (vm *VM) instantiate(t *compiler.LiteralTemplate) *types.Object {
	value := func(v types.Value) types.Value {
		if nested, ok := v.Data().(*compiler.LiteralTemplate); ok {
			return types.Obj(vm.instantiate(nested))
		}
		return v
	}
	if t.Array {
		elems := make([]types.Value, len(t.Values))
		for i, v := range t.Values {
			elems[i] = value(v)
		}
		return types.NewArray(vm.arrayProto, elems)
	}
	obj := types.NewObject(vm.objectProto)
	for i, k := range t.Keys {
		obj.Set(k, value(t.Values[i]))
	}
	return obj
}

// toObject converts the operand of a with statement.
func (vm *VM) toObject(v types.Value) (*types.Object, error) {
	switch v.Kind() {
	case types.KindObject:
		return v.Object(), nil
	case types.KindUndefined, types.KindNull, types.KindHole:
		return nil, vm.throwf(typeErrorName, "Cannot convert %s to object", v.ToString())
	default:
		wrapper := types.NewObject(vm.objectProto)
		wrapper.Internal = v
		return wrapper, nil
	}
}
