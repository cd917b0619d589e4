// Core builtin contexts: the output sink, pool/string interrogation, and
// the explicit copy operation that defeats pool aliasing.
package nexus

import (
	"fmt"
	"strings"
)

// rtErrf builds a positionless runtime error; the executor fills in the
// call site's position before propagating it.
func rtErrf(kind ErrKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func registerCoreBuiltins(ip *Interpreter) {
	ip.RegisterNative("output", -1, func(ip *Interpreter, args []Value) (Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = displayString(a)
		}
		fmt.Fprintln(ip.Output(), strings.Join(parts, " "))
		if len(args) == 0 {
			return Noop(), nil
		}
		return args[len(args)-1], nil
	})
	ip.setNativeDoc("output", "output(value...) writes display forms to the sink and passes the value on.")

	ip.RegisterNative("length", 1, func(_ *Interpreter, args []Value) (Value, error) {
		switch args[0].Tag {
		case VTStr:
			return Int(int64(len([]rune(args[0].Data.(string))))), nil
		case VTOrdered:
			return Int(int64(len(args[0].Data.(*PoolObject).Elems))), nil
		case VTKeyed:
			return Int(int64(len(args[0].Data.(*KeyedPool).Keys))), nil
		}
		return Noop(), rtErrf(ErrTypeMismatch, "length expects a pool or string, got %s", typeName(args[0]))
	})
	ip.setNativeDoc("length", "length(pool|string) counts elements, keys, or characters.")

	ip.RegisterNative("reverse", 1, func(_ *Interpreter, args []Value) (Value, error) {
		switch args[0].Tag {
		case VTStr:
			rs := []rune(args[0].Data.(string))
			for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
				rs[i], rs[j] = rs[j], rs[i]
			}
			return Str(string(rs)), nil
		case VTOrdered:
			src := args[0].Data.(*PoolObject).Elems
			out := make([]Value, len(src))
			for i, e := range src {
				out[len(src)-1-i] = e
			}
			return Ordered(out), nil
		}
		return Noop(), rtErrf(ErrTypeMismatch, "reverse expects an ordered pool or string, got %s", typeName(args[0]))
	})
	ip.setNativeDoc("reverse", "reverse(pool|string) returns a reversed copy.")

	ip.RegisterNative("type_of", 1, func(_ *Interpreter, args []Value) (Value, error) {
		return Str(typeName(args[0])), nil
	})
	ip.setNativeDoc("type_of", "type_of(value) names the value's kind.")

	ip.RegisterNative("range", -1, func(_ *Interpreter, args []Value) (Value, error) {
		if len(args) < 1 || len(args) > 3 {
			return Noop(), rtErrf(ErrTypeMismatch, "range expects 1 to 3 arguments, got %d", len(args))
		}
		bounds := make([]int64, len(args))
		for i, a := range args {
			if a.Tag != VTInt {
				return Noop(), rtErrf(ErrTypeMismatch, "range expects integer bounds, got %s", typeName(a))
			}
			bounds[i] = a.Data.(int64)
		}
		var lo, hi, step int64 = 0, bounds[0], 1
		if len(bounds) >= 2 {
			lo, hi = bounds[0], bounds[1]
		}
		if len(bounds) == 3 {
			step = bounds[2]
			if step == 0 {
				return Noop(), rtErrf(ErrTypeMismatch, "range step must not be zero")
			}
		}
		var elems []Value
		if step > 0 {
			for i := lo; i < hi; i += step {
				elems = append(elems, Int(i))
			}
		} else {
			for i := lo; i > hi; i += step {
				elems = append(elems, Int(i))
			}
		}
		return Ordered(elems), nil
	})
	ip.setNativeDoc("range", "range(n) or range(lo, hi[, step]) builds an ordered pool of integers.")

	ip.RegisterNative("copy", 1, func(_ *Interpreter, args []Value) (Value, error) {
		return cloneValue(args[0]), nil
	})
	ip.setNativeDoc("copy", "copy(value) deep-copies a value; the copy shares no pool storage.")

	ip.RegisterNative("keys", 1, func(_ *Interpreter, args []Value) (Value, error) {
		if args[0].Tag != VTKeyed {
			return Noop(), rtErrf(ErrTypeMismatch, "keys expects a keyed pool, got %s", typeName(args[0]))
		}
		kp := args[0].Data.(*KeyedPool)
		elems := make([]Value, len(kp.Keys))
		for i, k := range kp.Keys {
			elems[i] = Str(k)
		}
		return Ordered(elems), nil
	})
	ip.setNativeDoc("keys", "keys(keyed_pool) lists keys in insertion order.")

	ip.RegisterNative("values", 1, func(_ *Interpreter, args []Value) (Value, error) {
		if args[0].Tag != VTKeyed {
			return Noop(), rtErrf(ErrTypeMismatch, "values expects a keyed pool, got %s", typeName(args[0]))
		}
		kp := args[0].Data.(*KeyedPool)
		elems := make([]Value, len(kp.Keys))
		for i, k := range kp.Keys {
			elems[i] = kp.Entries[k]
		}
		return Ordered(elems), nil
	})
	ip.setNativeDoc("values", "values(keyed_pool) lists values in key insertion order.")

	ip.RegisterNative("append", 2, func(_ *Interpreter, args []Value) (Value, error) {
		if args[0].Tag != VTOrdered {
			return Noop(), rtErrf(ErrTypeMismatch, "append expects an ordered pool, got %s", typeName(args[0]))
		}
		po := args[0].Data.(*PoolObject)
		po.Elems = append(po.Elems, args[1])
		return args[0], nil
	})
	ip.setNativeDoc("append", "append(pool, value) appends in place; aliases observe the change.")

	ip.RegisterNative("contains", 2, func(_ *Interpreter, args []Value) (Value, error) {
		switch args[0].Tag {
		case VTOrdered:
			for _, e := range args[0].Data.(*PoolObject).Elems {
				if deepEqual(e, args[1]) {
					return Bool(true), nil
				}
			}
			return Bool(false), nil
		case VTKeyed:
			if args[1].Tag != VTStr {
				return Bool(false), nil
			}
			_, ok := args[0].Data.(*KeyedPool).Get(args[1].Data.(string))
			return Bool(ok), nil
		case VTStr:
			if args[1].Tag != VTStr {
				return Bool(false), nil
			}
			return Bool(strings.Contains(args[0].Data.(string), args[1].Data.(string))), nil
		}
		return Noop(), rtErrf(ErrTypeMismatch, "contains expects a pool or string, got %s", typeName(args[0]))
	})
	ip.setNativeDoc("contains", "contains(pool|string, needle) reports membership.")
}
