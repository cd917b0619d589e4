package nexus

import (
	"strconv"
	"strings"
	"unicode"
)

/* ---------- tiny helpers ---------- */

func isIdentName(s string) bool {
	if s == "" {
		return false
	}
	rs := []rune(s)
	if !(unicode.IsLetter(rs[0]) || rs[0] == '_') {
		return false
	}
	for _, r := range rs[1:] {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

/* ---------- value rendering ---------- */

// displayString is the display form written by the output builtin and used
// by string concatenation: numbers in shortest round-trip decimal, strings
// unquoted, ordered pools as [a, b, c], keyed pools as {k: v, ...}. Strings
// nested inside pools keep their quotes so pool output stays readable.
func displayString(v Value) string {
	if v.Tag == VTStr {
		return v.Data.(string)
	}
	return FormatValue(v)
}

// FormatValue renders a value in literal-like notation; the REPL prints
// this form. Unlike displayString, top-level strings are quoted.
func FormatValue(v Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v Value) {
	switch v.Tag {
	case VTNoop:
		b.WriteString("noop")
	case VTBool:
		if v.Data.(bool) {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case VTInt:
		b.WriteString(strconv.FormatInt(v.Data.(int64), 10))
	case VTNum:
		b.WriteString(formatFloat(v.Data.(float64)))
	case VTStr:
		b.WriteString(quoteString(v.Data.(string)))
	case VTOrdered:
		elems := v.Data.(*PoolObject).Elems
		b.WriteByte('[')
		for i, e := range elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, e)
		}
		b.WriteByte(']')
	case VTKeyed:
		kp := v.Data.(*KeyedPool)
		b.WriteByte('{')
		for i, k := range kp.Keys {
			if i > 0 {
				b.WriteString(", ")
			}
			if isIdentName(k) {
				b.WriteString(k)
			} else {
				b.WriteString(quoteString(k))
			}
			b.WriteString(": ")
			writeValue(b, kp.Entries[k])
		}
		b.WriteByte('}')
	case VTContext:
		ctx := v.Data.(*Context)
		b.WriteString("<context ")
		b.WriteString(ctx.Name)
		b.WriteByte('>')
	case VTNative:
		nat := v.Data.(*Native)
		b.WriteString("<context ")
		b.WriteString(nat.Name)
		b.WriteByte('>')
	case VTReaction:
		r := v.Data.(*Reaction)
		b.WriteString("<reaction ")
		b.WriteString(r.Name)
		b.WriteByte('>')
	default:
		b.WriteString("<unknown>")
	}
}
