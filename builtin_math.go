package nexus

import (
	"math"
)

func registerMathBuiltins(ip *Interpreter) {
	ip.RegisterNative("abs", 1, func(_ *Interpreter, args []Value) (Value, error) {
		switch args[0].Tag {
		case VTInt:
			i := args[0].Data.(int64)
			if i < 0 {
				i = -i
			}
			return Int(i), nil
		case VTNum:
			return Num(math.Abs(args[0].Data.(float64))), nil
		}
		return Noop(), rtErrf(ErrTypeMismatch, "abs expects a number, got %s", typeName(args[0]))
	})
	ip.setNativeDoc("abs", "abs(number) is the absolute value.")

	ip.RegisterNative("min", 2, func(_ *Interpreter, args []Value) (Value, error) {
		return pickNumeric("min", args[0], args[1], true)
	})
	ip.setNativeDoc("min", "min(a, b) picks the smaller number.")

	ip.RegisterNative("max", 2, func(_ *Interpreter, args []Value) (Value, error) {
		return pickNumeric("max", args[0], args[1], false)
	})
	ip.setNativeDoc("max", "max(a, b) picks the larger number.")

	ip.RegisterNative("floor", 1, func(_ *Interpreter, args []Value) (Value, error) {
		switch args[0].Tag {
		case VTInt:
			return args[0], nil
		case VTNum:
			return Int(int64(math.Floor(args[0].Data.(float64)))), nil
		}
		return Noop(), rtErrf(ErrTypeMismatch, "floor expects a number, got %s", typeName(args[0]))
	})
	ip.setNativeDoc("floor", "floor(number) rounds down to an integer.")

	ip.RegisterNative("ceil", 1, func(_ *Interpreter, args []Value) (Value, error) {
		switch args[0].Tag {
		case VTInt:
			return args[0], nil
		case VTNum:
			return Int(int64(math.Ceil(args[0].Data.(float64)))), nil
		}
		return Noop(), rtErrf(ErrTypeMismatch, "ceil expects a number, got %s", typeName(args[0]))
	})
	ip.setNativeDoc("ceil", "ceil(number) rounds up to an integer.")

	ip.RegisterNative("sqrt", 1, func(_ *Interpreter, args []Value) (Value, error) {
		if !isNumber(args[0]) {
			return Noop(), rtErrf(ErrTypeMismatch, "sqrt expects a number, got %s", typeName(args[0]))
		}
		f := toFloat(args[0])
		if f < 0 {
			return Noop(), rtErrf(ErrTypeMismatch, "sqrt of a negative number")
		}
		return Num(math.Sqrt(f)), nil
	})
	ip.setNativeDoc("sqrt", "sqrt(number) is the square root.")
}

func pickNumeric(who string, a, b Value, smaller bool) (Value, error) {
	if !isNumber(a) || !isNumber(b) {
		return Noop(), rtErrf(ErrTypeMismatch, "%s expects numbers, got %s and %s", who, typeName(a), typeName(b))
	}
	aLess := toFloat(a) < toFloat(b)
	if aLess == smaller {
		return a, nil
	}
	return b, nil
}
