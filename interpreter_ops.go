// Operator semantics: truthiness, equality, arithmetic, comparison, and
// value cloning. All failure paths go through executor.fail so errors carry
// the current node's source position.
package nexus

import (
	"math"
)

// truthy defines Nexus truthiness: false, noop, 0, 0.0, "" and empty pools
// are falsy; everything else is truthy.
func truthy(v Value) bool {
	switch v.Tag {
	case VTNoop:
		return false
	case VTBool:
		return v.Data.(bool)
	case VTInt:
		return v.Data.(int64) != 0
	case VTNum:
		return v.Data.(float64) != 0
	case VTStr:
		return v.Data.(string) != ""
	case VTOrdered:
		return len(v.Data.(*PoolObject).Elems) > 0
	case VTKeyed:
		return len(v.Data.(*KeyedPool).Keys) > 0
	default:
		return true
	}
}

func isNumber(v Value) bool { return v.Tag == VTInt || v.Tag == VTNum }

func toFloat(v Value) float64 {
	if v.Tag == VTInt {
		return float64(v.Data.(int64))
	}
	return v.Data.(float64)
}

// deepEqual is structural equality across all value kinds. Pools compare by
// content, not identity; contexts and natives compare by identity.
func deepEqual(a, b Value) bool {
	if isNumber(a) && isNumber(b) {
		if a.Tag == VTInt && b.Tag == VTInt {
			return a.Data.(int64) == b.Data.(int64)
		}
		return toFloat(a) == toFloat(b)
	}
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VTNoop:
		return true
	case VTBool:
		return a.Data.(bool) == b.Data.(bool)
	case VTStr:
		return a.Data.(string) == b.Data.(string)
	case VTOrdered:
		xa, xb := a.Data.(*PoolObject), b.Data.(*PoolObject)
		if len(xa.Elems) != len(xb.Elems) {
			return false
		}
		for i := range xa.Elems {
			if !deepEqual(xa.Elems[i], xb.Elems[i]) {
				return false
			}
		}
		return true
	case VTKeyed:
		ka, kb := a.Data.(*KeyedPool), b.Data.(*KeyedPool)
		if len(ka.Keys) != len(kb.Keys) {
			return false
		}
		for _, k := range ka.Keys {
			vb, ok := kb.Entries[k]
			if !ok || !deepEqual(ka.Entries[k], vb) {
				return false
			}
		}
		return true
	default:
		return a.Data == b.Data
	}
}

// cloneValue deep-copies a value. Pools get fresh storage; scalars are
// returned as-is. Used by the copy builtin and by reaction stagnation
// snapshots, both of which must not observe later in-place mutation.
func cloneValue(v Value) Value {
	switch v.Tag {
	case VTOrdered:
		src := v.Data.(*PoolObject)
		elems := make([]Value, len(src.Elems))
		for i, e := range src.Elems {
			elems[i] = cloneValue(e)
		}
		return Value{Tag: VTOrdered, Data: &PoolObject{Elems: elems}}
	case VTKeyed:
		src := v.Data.(*KeyedPool)
		kp := NewKeyedPool()
		for _, k := range src.Keys {
			kp.Set(k, cloneValue(src.Entries[k]))
		}
		return Keyed(kp)
	default:
		return v
	}
}

// typeName is the name reported by type_of and used in error messages.
func typeName(v Value) string {
	switch v.Tag {
	case VTNoop:
		return "noop"
	case VTBool:
		return "bool"
	case VTInt, VTNum:
		return "number"
	case VTStr:
		return "string"
	case VTOrdered:
		return "ordered_pool"
	case VTKeyed:
		return "keyed_pool"
	case VTContext, VTNative:
		return "context"
	case VTReaction:
		return "reaction"
	default:
		return "unknown"
	}
}

/* ===========================
   executor-bound operators
   =========================== */

// binop applies a binary operator to already-evaluated operands. Logical
// operators short-circuit in eval and never reach here.
func (ex *executor) binop(op string, a, b Value) Value {
	switch op {
	case "==":
		return Bool(deepEqual(a, b))
	case "!=":
		return Bool(!deepEqual(a, b))
	case "+":
		return ex.add(a, b)
	case "-", "*", "/", "%", "**":
		return ex.arith(op, a, b)
	case "<", "<=", ">", ">=":
		return Bool(ex.compare(op, a, b))
	}
	ex.fail(ErrTypeMismatch, "unknown operator %q", op)
	return Noop()
}

// add implements '+': numeric addition, or string concatenation when either
// operand is a string (the other side rendered in display form).
func (ex *executor) add(a, b Value) Value {
	if a.Tag == VTStr || b.Tag == VTStr {
		return Str(displayString(a) + displayString(b))
	}
	if !isNumber(a) || !isNumber(b) {
		ex.fail(ErrTypeMismatch, "cannot add %s and %s", typeName(a), typeName(b))
	}
	if a.Tag == VTInt && b.Tag == VTInt {
		return Int(a.Data.(int64) + b.Data.(int64))
	}
	return Num(toFloat(a) + toFloat(b))
}

func (ex *executor) arith(op string, a, b Value) Value {
	if !isNumber(a) || !isNumber(b) {
		ex.fail(ErrTypeMismatch, "operator %q needs numbers, got %s and %s", op, typeName(a), typeName(b))
	}
	bothInt := a.Tag == VTInt && b.Tag == VTInt

	switch op {
	case "-":
		if bothInt {
			return Int(a.Data.(int64) - b.Data.(int64))
		}
		return Num(toFloat(a) - toFloat(b))
	case "*":
		if bothInt {
			return Int(a.Data.(int64) * b.Data.(int64))
		}
		return Num(toFloat(a) * toFloat(b))
	case "/":
		if bothInt {
			d := b.Data.(int64)
			if d == 0 {
				ex.fail(ErrDivisionByZero, "division by zero")
			}
			return Int(a.Data.(int64) / d)
		}
		d := toFloat(b)
		if d == 0 {
			ex.fail(ErrDivisionByZero, "division by zero")
		}
		return Num(toFloat(a) / d)
	case "%":
		if bothInt {
			d := b.Data.(int64)
			if d == 0 {
				ex.fail(ErrDivisionByZero, "modulo by zero")
			}
			return Int(a.Data.(int64) % d)
		}
		d := toFloat(b)
		if d == 0 {
			ex.fail(ErrDivisionByZero, "modulo by zero")
		}
		return Num(math.Mod(toFloat(a), d))
	case "**":
		if bothInt && b.Data.(int64) >= 0 {
			return Int(ipow(a.Data.(int64), b.Data.(int64)))
		}
		return Num(math.Pow(toFloat(a), toFloat(b)))
	}
	ex.fail(ErrTypeMismatch, "unknown arithmetic operator %q", op)
	return Noop()
}

func ipow(base, exp int64) int64 {
	var out int64 = 1
	for exp > 0 {
		if exp&1 == 1 {
			out *= base
		}
		base *= base
		exp >>= 1
	}
	return out
}

// compare orders numbers numerically and strings lexicographically; any
// other pairing is a type mismatch.
func (ex *executor) compare(op string, a, b Value) bool {
	if isNumber(a) && isNumber(b) {
		x, y := toFloat(a), toFloat(b)
		switch op {
		case "<":
			return x < y
		case "<=":
			return x <= y
		case ">":
			return x > y
		case ">=":
			return x >= y
		}
	}
	if a.Tag == VTStr && b.Tag == VTStr {
		x, y := a.Data.(string), b.Data.(string)
		switch op {
		case "<":
			return x < y
		case "<=":
			return x <= y
		case ">":
			return x > y
		case ">=":
			return x >= y
		}
	}
	ex.fail(ErrTypeMismatch, "cannot compare %s with %s", typeName(a), typeName(b))
	return false
}

func (ex *executor) unop(op string, v Value) Value {
	switch op {
	case "-":
		switch v.Tag {
		case VTInt:
			return Int(-v.Data.(int64))
		case VTNum:
			return Num(-v.Data.(float64))
		}
		ex.fail(ErrTypeMismatch, "unary '-' needs a number, got %s", typeName(v))
	case "!":
		return Bool(!truthy(v))
	}
	ex.fail(ErrTypeMismatch, "unknown unary operator %q", op)
	return Noop()
}

// wantInt extracts an int64 index from a value.
func (ex *executor) wantInt(v Value, what string) int64 {
	if v.Tag != VTInt {
		ex.fail(ErrTypeMismatch, "%s must be an integer, got %s", what, typeName(v))
	}
	return v.Data.(int64)
}

func (ex *executor) wantStrKey(v Value) string {
	if v.Tag != VTStr {
		ex.fail(ErrTypeMismatch, "keyed pool key must be a string, got %s", typeName(v))
	}
	return v.Data.(string)
}

// failAssign maps an Env.Assign rejection to a runtime failure.
func (ex *executor) failAssign(kind ErrKind, name string) {
	switch kind {
	case ErrImmutableReassignment:
		ex.fail(ErrImmutableReassignment, "cannot reassign immutable binding %q", name)
	case ErrUnboundIdentifier:
		ex.fail(ErrUnboundIdentifier, "unbound identifier %q", name)
	}
}
