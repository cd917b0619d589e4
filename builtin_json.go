// JSON bridge builtins: to_json renders a value as compact JSON, from_json
// decodes JSON text into pools and scalars. Keyed pools encode in insertion
// order; decoded objects come back with sorted keys since JSON objects carry
// no order of their own.
package nexus

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

func registerJSONBuiltins(ip *Interpreter) {
	ip.RegisterNative("to_json", 1, func(_ *Interpreter, args []Value) (Value, error) {
		var b strings.Builder
		if err := encodeJSON(&b, args[0]); err != nil {
			return Noop(), err
		}
		return Str(b.String()), nil
	})
	ip.setNativeDoc("to_json", "to_json(value) renders a value as compact JSON text.")

	ip.RegisterNative("from_json", 1, func(_ *Interpreter, args []Value) (Value, error) {
		s, err := strArg("from_json", args[0])
		if err != nil {
			return Noop(), err
		}
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return Noop(), rtErrf(ErrTypeMismatch, "from_json: invalid JSON: %v", err)
		}
		if dec.More() {
			return Noop(), rtErrf(ErrTypeMismatch, "from_json: trailing data after JSON value")
		}
		return fromGoJSON(raw)
	})
	ip.setNativeDoc("from_json", "from_json(string) decodes JSON into pools and scalars.")
}

// encodeJSON writes v as JSON. Noop maps to null; contexts and reactions
// have no JSON form.
func encodeJSON(b *strings.Builder, v Value) error {
	switch v.Tag {
	case VTNoop:
		b.WriteString("null")
	case VTBool:
		if v.Data.(bool) {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case VTInt:
		b.WriteString(strconv.FormatInt(v.Data.(int64), 10))
	case VTNum:
		enc, err := json.Marshal(v.Data.(float64))
		if err != nil {
			return rtErrf(ErrTypeMismatch, "to_json: %v", err)
		}
		b.Write(enc)
	case VTStr:
		enc, _ := json.Marshal(v.Data.(string))
		b.Write(enc)
	case VTOrdered:
		b.WriteByte('[')
		for i, e := range v.Data.(*PoolObject).Elems {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := encodeJSON(b, e); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case VTKeyed:
		kp := v.Data.(*KeyedPool)
		b.WriteByte('{')
		for i, k := range kp.Keys {
			if i > 0 {
				b.WriteByte(',')
			}
			enc, _ := json.Marshal(k)
			b.Write(enc)
			b.WriteByte(':')
			if err := encodeJSON(b, kp.Entries[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return rtErrf(ErrTypeMismatch, "to_json: %s has no JSON form", typeName(v))
	}
	return nil
}

// fromGoJSON converts the decoder's generic graph into values. Integral
// numbers come back as integers, everything else as floats.
func fromGoJSON(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Noop(), nil
	case bool:
		return Bool(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Noop(), rtErrf(ErrTypeMismatch, "from_json: bad number %q", x.String())
		}
		return Num(f), nil
	case string:
		return Str(x), nil
	case []any:
		elems := make([]Value, len(x))
		for i, e := range x {
			v, err := fromGoJSON(e)
			if err != nil {
				return Noop(), err
			}
			elems[i] = v
		}
		return Ordered(elems), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		kp := NewKeyedPool()
		for _, k := range keys {
			v, err := fromGoJSON(x[k])
			if err != nil {
				return Noop(), err
			}
			kp.Set(k, v)
		}
		return Keyed(kp), nil
	default:
		return Noop(), rtErrf(ErrTypeMismatch, "from_json: unsupported JSON node")
	}
}
