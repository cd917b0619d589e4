package nexus

import (
	"testing"
)

func Test_Builtin_Output_Joins_And_Passes_Through(t *testing.T) {
	v, out := evalCapture(t, `output("sum:", 1 + 2)`)
	wantInt(t, v, 3)
	if out != "sum: 3\n" {
		t.Fatalf("want %q, got %q", "sum: 3\n", out)
	}

	// strings print unquoted, pools in literal form
	_, out = evalCapture(t, `output("hi", [| 1, "a" |])`)
	if out != "hi [1, \"a\"]\n" {
		t.Fatalf("want %q, got %q", "hi [1, \"a\"]\n", out)
	}

	v, out = evalCapture(t, "output()")
	wantNoop(t, v)
	if out != "\n" {
		t.Fatalf("want bare newline, got %q", out)
	}
}

func Test_Builtin_Length(t *testing.T) {
	wantInt(t, evalSrc(t, `length("héllo")`), 5) // characters, not bytes
	wantInt(t, evalSrc(t, "length([| 1, 2, 3 |])"), 3)
	wantInt(t, evalSrc(t, "length([: a = 1, b = 2 :])"), 2)
	wantErrKind(t, evalErr(t, "length(1)"), ErrTypeMismatch)
}

func Test_Builtin_Reverse(t *testing.T) {
	wantStr(t, evalSrc(t, `reverse("abc")`), "cba")

	elems := orderedElems(t, evalSrc(t, "reverse([| 1, 2, 3 |])"))
	wantInt(t, elems[0], 3)
	wantInt(t, elems[2], 1)

	// reverse returns a fresh pool, the original is untouched
	src := `
#var p = [| 1, 2 |]
reverse(p)
p[0]
`
	wantInt(t, evalSrc(t, src), 1)
}

func Test_Builtin_TypeOf(t *testing.T) {
	cases := map[string]string{
		"type_of(1)":           "number",
		"type_of(1.5)":         "number",
		`type_of("x")`:         "string",
		"type_of(true)":        "bool",
		"type_of(noop)":        "noop",
		"type_of([| |])":       "ordered_pool",
		"type_of([: a = 1 :])": "keyed_pool",
		"type_of(length)":      "context",
	}
	for src, want := range cases {
		wantStr(t, evalSrc(t, src), want)
	}
}

func Test_Builtin_Range(t *testing.T) {
	elems := orderedElems(t, evalSrc(t, "range(3)"))
	if len(elems) != 3 {
		t.Fatalf("want 3 elements, got %d", len(elems))
	}
	wantInt(t, elems[0], 0)
	wantInt(t, elems[2], 2)

	elems = orderedElems(t, evalSrc(t, "range(2, 5)"))
	wantInt(t, elems[0], 2)
	wantInt(t, elems[2], 4)

	elems = orderedElems(t, evalSrc(t, "range(10, 0, -3)"))
	if len(elems) != 4 {
		t.Fatalf("want [10 7 4 1], got %v", elems)
	}
	wantInt(t, elems[3], 1)

	wantErrKind(t, evalErr(t, "range(1, 5, 0)"), ErrTypeMismatch)
	wantErrKind(t, evalErr(t, "range(1.5)"), ErrTypeMismatch)
	wantErrKind(t, evalErr(t, "range()"), ErrTypeMismatch)
}

func Test_Builtin_Copy_Is_Deep(t *testing.T) {
	src := `
#var a = [| [| 1 |], 2 |]
#var b = copy(a)
b[0][0] = 99
a[0][0]
`
	wantInt(t, evalSrc(t, src), 1)
}

func Test_Builtin_Keys_Values(t *testing.T) {
	src := `#var p = [: b = 2, a = 1 :]` + "\n"

	elems := orderedElems(t, evalSrc(t, src+"keys(p)"))
	wantStr(t, elems[0], "b") // insertion order, not sorted
	wantStr(t, elems[1], "a")

	elems = orderedElems(t, evalSrc(t, src+"values(p)"))
	wantInt(t, elems[0], 2)
	wantInt(t, elems[1], 1)

	wantErrKind(t, evalErr(t, "keys([| 1 |])"), ErrTypeMismatch)
}

func Test_Builtin_Append_Mutates_In_Place(t *testing.T) {
	src := `
#var a = [| 1 |]
#var b = a
append(a, 2)
length(b)
`
	wantInt(t, evalSrc(t, src), 2)
}

func Test_Builtin_Contains(t *testing.T) {
	wantBool(t, evalSrc(t, "contains([| 1, 2 |], 2)"), true)
	wantBool(t, evalSrc(t, "contains([| 1, 2 |], 3)"), false)
	wantBool(t, evalSrc(t, `contains([: a = 1 :], "a")`), true)
	wantBool(t, evalSrc(t, `contains([: a = 1 :], "b")`), false)
	wantBool(t, evalSrc(t, `contains("hello", "ell")`), true)
	wantBool(t, evalSrc(t, `contains("hello", "xyz")`), false)
	wantErrKind(t, evalErr(t, "contains(1, 2)"), ErrTypeMismatch)
}

func Test_Builtin_Docs_Registered(t *testing.T) {
	ip := newInterp(t)
	for _, name := range []string{"output", "length", "range", "copy", "upper", "sqrt"} {
		if ip.NativeDoc(name) == "" {
			t.Fatalf("builtin %q has no doc line", name)
		}
	}
}
