package nexus

import (
	"strings"
)

func registerStringBuiltins(ip *Interpreter) {
	ip.RegisterNative("upper", 1, func(_ *Interpreter, args []Value) (Value, error) {
		s, err := strArg("upper", args[0])
		if err != nil {
			return Noop(), err
		}
		return Str(strings.ToUpper(s)), nil
	})
	ip.setNativeDoc("upper", "upper(string) uppercases.")

	ip.RegisterNative("lower", 1, func(_ *Interpreter, args []Value) (Value, error) {
		s, err := strArg("lower", args[0])
		if err != nil {
			return Noop(), err
		}
		return Str(strings.ToLower(s)), nil
	})
	ip.setNativeDoc("lower", "lower(string) lowercases.")

	ip.RegisterNative("trim", 1, func(_ *Interpreter, args []Value) (Value, error) {
		s, err := strArg("trim", args[0])
		if err != nil {
			return Noop(), err
		}
		return Str(strings.TrimSpace(s)), nil
	})
	ip.setNativeDoc("trim", "trim(string) strips surrounding whitespace.")

	// split(string, sep) -> ordered pool of pieces
	ip.RegisterNative("split", 2, func(_ *Interpreter, args []Value) (Value, error) {
		s, err := strArg("split", args[0])
		if err != nil {
			return Noop(), err
		}
		sep, err := strArg("split", args[1])
		if err != nil {
			return Noop(), err
		}
		pieces := strings.Split(s, sep)
		elems := make([]Value, len(pieces))
		for i, p := range pieces {
			elems[i] = Str(p)
		}
		return Ordered(elems), nil
	})
	ip.setNativeDoc("split", "split(string, sep) cuts a string into an ordered pool.")

	// join(pool, sep) -> string; elements are rendered in display form
	ip.RegisterNative("join", 2, func(_ *Interpreter, args []Value) (Value, error) {
		if args[0].Tag != VTOrdered {
			return Noop(), rtErrf(ErrTypeMismatch, "join expects an ordered pool, got %s", typeName(args[0]))
		}
		sep, err := strArg("join", args[1])
		if err != nil {
			return Noop(), err
		}
		elems := args[0].Data.(*PoolObject).Elems
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = displayString(e)
		}
		return Str(strings.Join(parts, sep)), nil
	})
	ip.setNativeDoc("join", "join(pool, sep) concatenates element display forms.")
}

func strArg(who string, v Value) (string, error) {
	if v.Tag != VTStr {
		return "", rtErrf(ErrTypeMismatch, "%s expects a string, got %s", who, typeName(v))
	}
	return v.Data.(string), nil
}
