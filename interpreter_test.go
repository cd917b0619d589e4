package nexus

import (
	"bytes"
	"strings"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func newInterp(t *testing.T) *Interpreter {
	t.Helper()
	ip, err := NewInterpreter()
	if err != nil {
		t.Fatalf("NewInterpreter: %v", err)
	}
	return ip
}

func evalSrc(t *testing.T, src string) Value {
	t.Helper()
	ip := newInterp(t)
	ip.SetOutput(&bytes.Buffer{})
	v, err := ip.EvalSource(src)
	if err != nil {
		t.Fatalf("EvalSource error: %v\nsource:\n%s", err, src)
	}
	return v
}

func evalErr(t *testing.T, src string) error {
	t.Helper()
	ip := newInterp(t)
	ip.SetOutput(&bytes.Buffer{})
	_, err := ip.EvalSource(src)
	if err == nil {
		t.Fatalf("expected error, got none\nsource:\n%s", src)
	}
	return err
}

// evalCapture runs src and returns the final value plus everything the
// output builtin wrote.
func evalCapture(t *testing.T, src string) (Value, string) {
	t.Helper()
	ip := newInterp(t)
	var buf bytes.Buffer
	ip.SetOutput(&buf)
	v, err := ip.EvalSource(src)
	if err != nil {
		t.Fatalf("EvalSource error: %v\nsource:\n%s", err, src)
	}
	return v, buf.String()
}

func mustEvalPersistent(t *testing.T, ip *Interpreter, src string) Value {
	t.Helper()
	v, err := ip.EvalPersistentSource(src)
	if err != nil {
		t.Fatalf("eval error for %q: %v", src, err)
	}
	return v
}

func wantInt(t *testing.T, v Value, n int64) {
	t.Helper()
	if v.Tag != VTInt || v.Data.(int64) != n {
		t.Fatalf("want int %d, got %#v", n, v)
	}
}

func wantNum(t *testing.T, v Value, f float64) {
	t.Helper()
	if v.Tag != VTNum || v.Data.(float64) != f {
		t.Fatalf("want num %g, got %#v", f, v)
	}
}

func wantStr(t *testing.T, v Value, s string) {
	t.Helper()
	if v.Tag != VTStr || v.Data.(string) != s {
		t.Fatalf("want str %q, got %#v", s, v)
	}
}

func wantBool(t *testing.T, v Value, b bool) {
	t.Helper()
	if v.Tag != VTBool || v.Data.(bool) != b {
		t.Fatalf("want bool %v, got %#v", b, v)
	}
}

func wantNoop(t *testing.T, v Value) {
	t.Helper()
	if v.Tag != VTNoop {
		t.Fatalf("want noop, got %#v", v)
	}
}

func wantErrKind(t *testing.T, err error, kind ErrKind) {
	t.Helper()
	if err == nil || !strings.Contains(err.Error(), string(kind)) {
		t.Fatalf("want error kind %s, got %v", kind, err)
	}
}

func orderedElems(t *testing.T, v Value) []Value {
	t.Helper()
	if v.Tag != VTOrdered {
		t.Fatalf("want ordered pool, got %#v", v)
	}
	return v.Data.(*PoolObject).Elems
}

// --- literals & operators --------------------------------------------------

func Test_Interpreter_Literals(t *testing.T) {
	wantInt(t, evalSrc(t, "42"), 42)
	wantNum(t, evalSrc(t, "3.5"), 3.5)
	wantNum(t, evalSrc(t, "1e3"), 1000)
	wantStr(t, evalSrc(t, `"hi"`), "hi")
	wantBool(t, evalSrc(t, "true"), true)
	wantBool(t, evalSrc(t, "false"), false)
	wantNoop(t, evalSrc(t, "noop"))
}

func Test_Interpreter_Arithmetic_And_Precedence(t *testing.T) {
	wantInt(t, evalSrc(t, "1 + 2 * 3"), 7)
	wantInt(t, evalSrc(t, "(1 + 2) * 3"), 9)
	wantInt(t, evalSrc(t, "7 / 2"), 3)
	wantNum(t, evalSrc(t, "7.0 / 2"), 3.5)
	wantInt(t, evalSrc(t, "7 % 4"), 3)
	wantInt(t, evalSrc(t, "2 ** 10"), 1024)
	wantInt(t, evalSrc(t, "2 ** 3 ** 2"), 512) // right associative
	wantInt(t, evalSrc(t, "-5 + 2"), -3)
	wantNum(t, evalSrc(t, "2 ** -1"), 0.5)
}

func Test_Interpreter_Division_By_Zero(t *testing.T) {
	wantErrKind(t, evalErr(t, "1 / 0"), ErrDivisionByZero)
	wantErrKind(t, evalErr(t, "1 % 0"), ErrDivisionByZero)
	wantErrKind(t, evalErr(t, "1.0 / 0.0"), ErrDivisionByZero)
}

func Test_Interpreter_String_Concat(t *testing.T) {
	wantStr(t, evalSrc(t, `"a" + "b"`), "ab")
	wantStr(t, evalSrc(t, `"n=" + 5`), "n=5")
	wantStr(t, evalSrc(t, `1 + "x"`), "1x")
}

func Test_Interpreter_Comparison(t *testing.T) {
	wantBool(t, evalSrc(t, "3 < 4"), true)
	wantBool(t, evalSrc(t, "3.0 >= 3"), true)
	wantBool(t, evalSrc(t, `"b" > "a"`), true)
	wantBool(t, evalSrc(t, "1 == 1.0"), true) // numeric equality across int/num
	wantBool(t, evalSrc(t, `"1" == 1`), false)
	wantBool(t, evalSrc(t, "[| 1, 2 |] == [| 1, 2 |]"), true)
	wantErrKind(t, evalErr(t, `1 < "a"`), ErrTypeMismatch)
}

func Test_Interpreter_Comparison_LessEq_In_Expression(t *testing.T) {
	// "<=" inside an expression is the comparison, not backward flow.
	wantBool(t, evalSrc(t, "#var ok = 3 <= 4\nok"), true)
	wantBool(t, evalSrc(t, "(5 <= 4)"), false)
}

func Test_Interpreter_Logical_Yields_Operand(t *testing.T) {
	wantInt(t, evalSrc(t, "0 | 5"), 5)
	wantInt(t, evalSrc(t, "3 | 5"), 3)
	wantInt(t, evalSrc(t, "0 & 5"), 0)
	wantInt(t, evalSrc(t, "2 & 3"), 3)
	// short circuit: the right side must not run
	wantInt(t, evalSrc(t, "1 | missing"), 1)
	wantInt(t, evalSrc(t, "0 & missing"), 0)
}

func Test_Interpreter_Unary(t *testing.T) {
	wantInt(t, evalSrc(t, "-(2 + 3)"), -5)
	wantBool(t, evalSrc(t, "!0"), true)
	wantBool(t, evalSrc(t, `!"x"`), false)
	wantBool(t, evalSrc(t, "!noop"), true)
	wantErrKind(t, evalErr(t, `-"a"`), ErrTypeMismatch)
}

// --- bindings --------------------------------------------------------------

func Test_Interpreter_Immutable_Binding(t *testing.T) {
	wantInt(t, evalSrc(t, "#var x = 41\nx + 1"), 42)
	wantErrKind(t, evalErr(t, "#var x = 1\nx = 2"), ErrImmutableReassignment)
}

func Test_Interpreter_Mutable_Binding(t *testing.T) {
	wantInt(t, evalSrc(t, "@var x = 1\nx = x + 1\nx"), 2)
}

func Test_Interpreter_Unbound_Identifier(t *testing.T) {
	wantErrKind(t, evalErr(t, "ghost"), ErrUnboundIdentifier)
	wantErrKind(t, evalErr(t, "ghost = 1"), ErrUnboundIdentifier)
}

func Test_Interpreter_Shadowing_In_Context(t *testing.T) {
	src := `
#var x = 1
~context probe(x) -> y {
  y = x * 10
}
probe(5) + x
`
	wantInt(t, evalSrc(t, src), 51)
}

func Test_Interpreter_Comments(t *testing.T) {
	src := `
# leading comment
#var x = 2   # not a second declaration: this is a trailing comment
x * 3
`
	wantInt(t, evalSrc(t, src), 6)
}

func Test_Interpreter_EvalSource_Does_Not_Persist(t *testing.T) {
	ip := newInterp(t)
	if _, err := ip.EvalSource("#var x = 1"); err != nil {
		t.Fatalf("EvalSource: %v", err)
	}
	if _, err := ip.EvalSource("x"); err == nil {
		t.Fatal("binding leaked across EvalSource calls")
	}
}

func Test_Interpreter_Persistent_Bindings(t *testing.T) {
	ip := newInterp(t)
	mustEvalPersistent(t, ip, "#var x = 10")
	wantInt(t, mustEvalPersistent(t, ip, "x + 5"), 15)
}

func Test_Interpreter_Run_Snapshots_Bindings(t *testing.T) {
	ip := newInterp(t)
	ip.SetOutput(&bytes.Buffer{})
	res := ip.Run("main.nexus", "#var a = 1\n@var b = 2\nb = 3\nb")
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	wantInt(t, res.Value, 3)
	v, ok := res.Bindings.Get("b")
	if !ok {
		t.Fatal("snapshot missing binding b")
	}
	wantInt(t, v, 3)
}

func Test_Interpreter_Run_Snapshot_Keys_Sorted(t *testing.T) {
	ip := newInterp(t)
	ip.SetOutput(&bytes.Buffer{})
	res := ip.Run("main.nexus", "#var z = 1\n#var a = 2\n#var m = 3")
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	got := res.Bindings.Keys
	want := []string{"a", "m", "z"}
	if len(got) != len(want) {
		t.Fatalf("want %d bindings, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want keys %v, got %v", want, got)
		}
	}
}

// --- gates -----------------------------------------------------------------

func Test_Interpreter_Gate_Comparison_Branches(t *testing.T) {
	wantStr(t, evalSrc(t, `5 ? > 10 => "big" | <= 10 => "small"`), "small")
	wantStr(t, evalSrc(t, `50 ? > 10 => "big" | <= 10 => "small"`), "big")
}

func Test_Interpreter_Gate_First_Match_Wins(t *testing.T) {
	wantStr(t, evalSrc(t, `7 ? > 5 => "first" | > 6 => "second" | else => "none"`), "first")
}

func Test_Interpreter_Gate_Else_And_Default_Noop(t *testing.T) {
	wantStr(t, evalSrc(t, `1 ? == 2 => "two" | else => "other"`), "other")
	wantNoop(t, evalSrc(t, `1 ? == 2 => "two"`))
}

func Test_Interpreter_Gate_Equality_Is_Deep(t *testing.T) {
	src := `[| 1, 2 |] ? == [| 1, 2 |] => "same" | else => "different"`
	wantStr(t, evalSrc(t, src), "same")
}

func Test_Interpreter_Gate_Expression_Predicate(t *testing.T) {
	src := `
#var limit = 10
3 ? limit > 5 => "open" | else => "closed"
`
	wantStr(t, evalSrc(t, src), "open")
}

func Test_Interpreter_Gate_Untaken_Branches_Do_Not_Run(t *testing.T) {
	_, out := evalCapture(t, `1 ? == 1 => "hit" | == 2 => output("never")`)
	if out != "" {
		t.Fatalf("untaken branch ran, output: %q", out)
	}
}

// --- quantum ---------------------------------------------------------------

func Test_Interpreter_Quantum_First_Success_Wins(t *testing.T) {
	wantStr(t, evalSrc(t, `?: missing | "fallback" | "third"`), "fallback")
	wantInt(t, evalSrc(t, `?: 1 / 0 | 7`), 7)
}

func Test_Interpreter_Quantum_Later_Alternatives_Not_Evaluated(t *testing.T) {
	v, out := evalCapture(t, `?: missing | "ok" | output("never")`)
	wantStr(t, v, "ok")
	if out != "" {
		t.Fatalf("third alternative ran, output: %q", out)
	}
}

func Test_Interpreter_Quantum_All_Fail(t *testing.T) {
	wantErrKind(t, evalErr(t, `?: missing | 1 / 0`), ErrNoQuantumAlternative)
}

// --- flows -----------------------------------------------------------------

func Test_Interpreter_Forward_Flow_Into_Builtin(t *testing.T) {
	src := `
#var x = 10
#var y = 20
x + y => output
`
	v, out := evalCapture(t, src)
	wantInt(t, v, 30)
	if out != "30\n" {
		t.Fatalf("want output %q, got %q", "30\n", out)
	}
}

func Test_Interpreter_Flow_Chains_Left_To_Right(t *testing.T) {
	v, out := evalCapture(t, "[| 1, 2, 3 |] => length => output")
	wantInt(t, v, 3)
	if out != "3\n" {
		t.Fatalf("want output %q, got %q", "3\n", out)
	}
}

func Test_Interpreter_Forward_Flow_Into_Binding(t *testing.T) {
	wantInt(t, evalSrc(t, "@var x = 0\n41 + 1 => x\nx"), 42)
}

func Test_Interpreter_Forward_Flow_Into_Call_Prepends(t *testing.T) {
	// the flowed value becomes the leading argument
	wantBool(t, evalSrc(t, `[| 1, 2, 3 |] => contains(2)`), true)
}

func Test_Interpreter_Backward_Flow(t *testing.T) {
	wantInt(t, evalSrc(t, "@var x = 0\nx <= 5\nx"), 5)
	wantErrKind(t, evalErr(t, "#var x = 0\nx <= 5"), ErrImmutableReassignment)
}

func Test_Interpreter_Backward_Flow_Value_Keeps_Flowing(t *testing.T) {
	src := `
~context double(n) -> d { d = n * 2 }
@var x = 0
x <= double(4) => output
x
`
	v, out := evalCapture(t, src)
	wantInt(t, v, 8)
	if out != "8\n" {
		t.Fatalf("want output %q, got %q", "8\n", out)
	}
}

func Test_Interpreter_Push_Flow(t *testing.T) {
	wantInt(t, evalSrc(t, "@var total = 0\n3 + 4 @> total\ntotal"), 7)
	wantErrKind(t, evalErr(t, "#var c = 0\n1 @> c"), ErrImmutableReassignment)
	wantErrKind(t, evalErr(t, "1 @> nowhere"), ErrUnboundIdentifier)
}

func Test_Interpreter_Pull_Flow(t *testing.T) {
	src := `
@var source = 9
@var sink = 0
sink <@ source
sink
`
	wantInt(t, evalSrc(t, src), 9)
	wantErrKind(t, evalErr(t, "#var s = 1\n@var d = 0\nd <@ s"), ErrTypeMismatch)
}

func Test_Interpreter_Exchange_Flow(t *testing.T) {
	ip := newInterp(t)
	mustEvalPersistent(t, ip, "@var a = 1\n@var b = 2")
	wantInt(t, mustEvalPersistent(t, ip, "a <> b"), 1)
	wantInt(t, mustEvalPersistent(t, ip, "a"), 2)
	wantInt(t, mustEvalPersistent(t, ip, "b"), 1)

	wantErrKind(t, evalErr(t, "#var a = 1\n@var b = 2\na <> b"), ErrImmutableReassignment)
}

func Test_Interpreter_Append_Flow(t *testing.T) {
	src := `
#var p = [| 1 |]
2 ++> p
3 ++> p
p
`
	elems := orderedElems(t, evalSrc(t, src))
	if len(elems) != 3 {
		t.Fatalf("want 3 elements, got %d", len(elems))
	}
	wantInt(t, elems[2], 3)

	wantErrKind(t, evalErr(t, "1 ++> 2"), ErrTypeMismatch)
}

// --- pools -----------------------------------------------------------------

func Test_Interpreter_Ordered_Pool_Indexing(t *testing.T) {
	wantInt(t, evalSrc(t, "#var p = [| 10, 20, 30 |]\np[1]"), 20)
	wantErrKind(t, evalErr(t, "#var p = [| 1 |]\np[5]"), ErrPoolIndexOutOfRange)
	wantErrKind(t, evalErr(t, "#var p = [| 1 |]\np[-1]"), ErrPoolIndexOutOfRange)
}

func Test_Interpreter_Keyed_Pool(t *testing.T) {
	src := `
#var person = [: name = "Ada", age = 36 :]
person["name"]
`
	wantStr(t, evalSrc(t, src), "Ada")
	wantErrKind(t, evalErr(t, `#var p = [: a = 1 :]`+"\n"+`p["b"]`), ErrMissingKey)
}

func Test_Interpreter_Keyed_Pool_Insert_Preserves_Order(t *testing.T) {
	src := `
#var p = [: a = 1, b = 2 :]
p["c"] = 3
p["a"] = 9
keys(p)
`
	elems := orderedElems(t, evalSrc(t, src))
	got := make([]string, len(elems))
	for i, e := range elems {
		got[i] = e.Data.(string)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("want keys [a b c], got %v", got)
	}
}

func Test_Interpreter_Pool_Aliasing(t *testing.T) {
	src := `
#var a = [| 1, 2 |]
#var b = a
b[0] = 99
a[0]
`
	wantInt(t, evalSrc(t, src), 99)
}

func Test_Interpreter_Copy_Defeats_Aliasing(t *testing.T) {
	src := `
#var a = [| 1, 2 |]
#var b = copy(a)
b[0] = 99
a[0]
`
	wantInt(t, evalSrc(t, src), 1)
}

func Test_Interpreter_Element_Assignment(t *testing.T) {
	wantInt(t, evalSrc(t, "#var p = [| 1, 2 |]\np[1] = 5\np[1]"), 5)
	wantErrKind(t, evalErr(t, "#var p = [| 1 |]\np[9] = 5"), ErrPoolIndexOutOfRange)
}

func Test_Interpreter_Slicing(t *testing.T) {
	wantInt(t, int64Len(t, evalSrc(t, "#var p = [| 1, 2, 3, 4 |]\np[1:3]")), 2)
	wantInt(t, evalSrc(t, "#var p = [| 1, 2, 3, 4 |]\np[1:][0]"), 2)
	wantInt(t, evalSrc(t, "#var p = [| 1, 2, 3, 4 |]\np[:2][1]"), 2)
	wantErrKind(t, evalErr(t, "#var p = [| 1, 2 |]\np[0:9]"), ErrPoolIndexOutOfRange)
	wantErrKind(t, evalErr(t, "#var p = [| 1, 2 |]\np[2:1]"), ErrPoolIndexOutOfRange)
}

func int64Len(t *testing.T, v Value) Value {
	t.Helper()
	return Int(int64(len(orderedElems(t, v))))
}

func Test_Interpreter_Slice_Copies_Storage(t *testing.T) {
	src := `
#var a = [| 1, 2, 3 |]
#var b = a[:]
b[0] = 99
a[0]
`
	wantInt(t, evalSrc(t, src), 1)
}

func Test_Interpreter_String_Index_And_Slice(t *testing.T) {
	wantStr(t, evalSrc(t, `"hello"[1]`), "e")
	wantStr(t, evalSrc(t, `"hello"[1:3]`), "el")
	wantStr(t, evalSrc(t, `"hello"[2:]`), "llo")
	wantErrKind(t, evalErr(t, `"hi"[5]`), ErrPoolIndexOutOfRange)
}

func Test_Interpreter_String_Index_Counts_Runes(t *testing.T) {
	// positions agree with length: one per rune, never a split code point
	wantInt(t, evalSrc(t, `length("héllo")`), 5)
	wantStr(t, evalSrc(t, `"héllo"[1]`), "é")
	wantStr(t, evalSrc(t, `"héllo"[4]`), "o")
	wantStr(t, evalSrc(t, `"héllo"[:2]`), "hé")
	wantStr(t, evalSrc(t, `"héllo"[1:3]`), "él")
	wantErrKind(t, evalErr(t, `"héllo"[5]`), ErrPoolIndexOutOfRange)
	wantErrKind(t, evalErr(t, `"héllo"[2:6]`), ErrPoolIndexOutOfRange)
}

// --- contexts --------------------------------------------------------------

func Test_Interpreter_Context_Single_Output(t *testing.T) {
	src := `
~context add(a, b) -> sum {
  sum = a + b
}
add(2, 3)
`
	wantInt(t, evalSrc(t, src), 5)
}

func Test_Interpreter_Context_Multiple_Outputs(t *testing.T) {
	src := `
~context divmod(a, b) -> (q, r) {
  q = a / b
  r = a % b
}
divmod(7, 2)
`
	elems := orderedElems(t, evalSrc(t, src))
	if len(elems) != 2 {
		t.Fatalf("want 2 outputs, got %d", len(elems))
	}
	wantInt(t, elems[0], 3)
	wantInt(t, elems[1], 1)
}

func Test_Interpreter_Context_No_Outputs(t *testing.T) {
	src := `
~context report(x) {
  output(x)
}
report(5)
`
	v, out := evalCapture(t, src)
	wantNoop(t, v)
	if out != "5\n" {
		t.Fatalf("want output %q, got %q", "5\n", out)
	}
}

func Test_Interpreter_Context_Unassigned_Output(t *testing.T) {
	src := `
~context bad(a) -> out {
  a + 1
}
bad(1)
`
	wantErrKind(t, evalErr(t, src), ErrUnassignedContextOutput)
}

func Test_Interpreter_Context_Arity_Check(t *testing.T) {
	src := `
~context pair(a, b) -> s { s = a + b }
pair(1)
`
	wantErrKind(t, evalErr(t, src), ErrTypeMismatch)
}

func Test_Interpreter_Context_Lexical_Scope(t *testing.T) {
	src := `
#var base = 100
~context bump(x) -> y {
  y = x + base
}
bump(1)
`
	wantInt(t, evalSrc(t, src), 101)
}

func Test_Interpreter_Context_Via_Flow(t *testing.T) {
	src := `
~context double(x) -> y { y = x * 2 }
21 => double
`
	wantInt(t, evalSrc(t, src), 42)
}

func Test_Interpreter_Context_Inputs_Do_Not_Leak(t *testing.T) {
	src := `
~context probe(secret) -> y { y = secret }
probe(1)
secret
`
	wantErrKind(t, evalErr(t, src), ErrUnboundIdentifier)
}

// --- reactions -------------------------------------------------------------

func Test_Interpreter_Reaction_Countdown(t *testing.T) {
	ip := newInterp(t)
	src := `
@var count = 3
~reaction drain on count when count >= 0 {
  count - 1 @> count
}
`
	mustEvalPersistent(t, ip, src)
	wantInt(t, mustEvalPersistent(t, ip, "count"), -1)

	rv, ok := ip.Global.Get("drain")
	if !ok || rv.Tag != VTReaction {
		t.Fatalf("reaction binding missing, got %#v", rv)
	}
	r := rv.Data.(*Reaction)
	if r.Ticks != 4 {
		t.Fatalf("want 4 ticks, got %d", r.Ticks)
	}
	if r.State != ReactionTerminal {
		t.Fatalf("want terminal state, got %v", r.State)
	}
}

func Test_Interpreter_Reaction_Guard_Initially_False(t *testing.T) {
	ip := newInterp(t)
	src := `
@var n = 0
~reaction idle on n when n > 0 {
  n - 1 @> n
}
`
	mustEvalPersistent(t, ip, src)
	rv, _ := ip.Global.Get("idle")
	r := rv.Data.(*Reaction)
	if r.Ticks != 0 || r.State != ReactionTerminal {
		t.Fatalf("want 0 ticks terminal, got ticks=%d state=%v", r.Ticks, r.State)
	}
}

func Test_Interpreter_Reaction_Stagnation_Terminates(t *testing.T) {
	ip := newInterp(t)
	src := `
@var level = 5
~reaction hold on level when level > 0 {
  level @> level
}
`
	mustEvalPersistent(t, ip, src)
	rv, _ := ip.Global.Get("hold")
	r := rv.Data.(*Reaction)
	if r.Ticks != 1 || r.State != ReactionTerminal {
		t.Fatalf("want 1 tick terminal, got ticks=%d state=%v", r.Ticks, r.State)
	}
}

func Test_Interpreter_Reaction_Stagnation_Sees_In_Place_Mutation(t *testing.T) {
	// mutating pool contents counts as change even though the binding still
	// holds the same pool
	ip := newInterp(t)
	src := `
@var acc = [| |]
~reaction fill on acc when length(acc) < 3 {
  1 ++> acc
}
length(acc)
`
	wantInt(t, mustEvalPersistent(t, ip, src), 3)
}

func Test_Interpreter_Reaction_Tick_Ceiling(t *testing.T) {
	ip := newInterp(t)
	ip.SetReactionLimit(5)
	src := `
@var n = 1
~reaction grow on n when n > 0 {
  n + 1 @> n
}
`
	_, err := ip.EvalPersistentSource(src)
	wantErrKind(t, err, ErrReactionDidNotConverge)
}

func Test_Interpreter_Reaction_Watches_Mutable_Only(t *testing.T) {
	src := `
#var fixed = 1
~reaction watch on fixed when fixed > 0 {
  output(fixed)
}
`
	wantErrKind(t, evalErr(t, src), ErrTypeMismatch)
	wantErrKind(t, evalErr(t, "~reaction w on ghost when true { 1 }"), ErrUnboundIdentifier)
}

// --- natives ---------------------------------------------------------------

func Test_Interpreter_RegisterNative(t *testing.T) {
	ip := newInterp(t)
	ip.RegisterNative("triple", 1, func(_ *Interpreter, args []Value) (Value, error) {
		return Int(args[0].Data.(int64) * 3), nil
	})
	wantInt(t, mustEvalPersistent(t, ip, "triple(7)"), 21)
	wantInt(t, mustEvalPersistent(t, ip, "7 => triple"), 21)
}

func Test_Interpreter_Native_Arity_Check(t *testing.T) {
	wantErrKind(t, evalErr(t, "length(1, 2)"), ErrTypeMismatch)
}

func Test_Interpreter_Not_Callable(t *testing.T) {
	wantErrKind(t, evalErr(t, "#var x = 1\nx(2)"), ErrTypeMismatch)
}
