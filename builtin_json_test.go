package nexus

import (
	"testing"
)

func Test_Builtin_ToJSON(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"to_json(noop)", "null"},
		{"to_json(42)", "42"},
		{"to_json(2.5)", "2.5"},
		{"to_json(true)", "true"},
		{`to_json("a\"b")`, `"a\"b"`},
		{`to_json([| 1, "x", noop |])`, `[1,"x",null]`},
		{`to_json([: b = 2, a = [| 1 |] :])`, `{"b":2,"a":[1]}`}, // insertion order
	}
	for _, c := range cases {
		wantStr(t, evalSrc(t, c.src), c.want)
	}

	wantErrKind(t, evalErr(t, "to_json(length)"), ErrTypeMismatch)
}

func Test_Builtin_FromJSON(t *testing.T) {
	wantInt(t, evalSrc(t, `from_json("42")`), 42)
	wantNum(t, evalSrc(t, `from_json("2.5")`), 2.5)
	wantBool(t, evalSrc(t, `from_json("true")`), true)
	wantNoop(t, evalSrc(t, `from_json("null")`))
	wantStr(t, evalSrc(t, `from_json("\"hi\"")`), "hi")

	elems := orderedElems(t, evalSrc(t, `from_json("[1, [2]]")`))
	if len(elems) != 2 {
		t.Fatalf("want 2 elements, got %d", len(elems))
	}
	wantInt(t, elems[0], 1)

	// object keys come back sorted
	keys := orderedElems(t, evalSrc(t, `keys(from_json("{\"b\": 1, \"a\": 2}"))`))
	wantStr(t, keys[0], "a")
	wantStr(t, keys[1], "b")

	wantErrKind(t, evalErr(t, `from_json("{oops")`), ErrTypeMismatch)
	wantErrKind(t, evalErr(t, `from_json("1 2")`), ErrTypeMismatch)
	wantErrKind(t, evalErr(t, "from_json(1)"), ErrTypeMismatch)
}

func Test_Builtin_JSON_Round_Trip(t *testing.T) {
	src := `
#var p = [: name = "Ada", tags = [| "math", "code" |] :]
from_json(to_json(p))["name"]
`
	wantStr(t, evalSrc(t, src), "Ada")
}
