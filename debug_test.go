package nexus

import (
	"strings"
	"testing"
)

func Test_Debug_Tokens_Listing(t *testing.T) {
	out, err := DebugTokens("#var x = 1 => output")
	if err != nil {
		t.Fatalf("DebugTokens: %v", err)
	}
	for _, want := range []string{"HASHVAR", "ID", "ASSIGN", "INTEGER", "FLOW_TO", "EOF"} {
		if !strings.Contains(out, want) {
			t.Fatalf("listing missing %s:\n%s", want, out)
		}
	}
	// literal values are shown next to their token
	if !strings.Contains(out, "(1)") {
		t.Fatalf("listing missing integer literal:\n%s", out)
	}
}

func Test_Debug_Tokens_Error(t *testing.T) {
	_, err := DebugTokens(`"open`)
	if err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func Test_Debug_AST_Dump(t *testing.T) {
	out, err := DebugAST("#var x = 1 + 2")
	if err != nil {
		t.Fatalf("DebugAST: %v", err)
	}
	for _, want := range []string{"(block", `(var "x"`, `(binop "+"`, "(int 1)", "(int 2)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump missing %q:\n%s", want, out)
		}
	}
	// nested nodes are indented under their parent
	if !strings.Contains(out, "\n    (binop") {
		t.Fatalf("want indented binop:\n%s", out)
	}
}

func Test_Debug_TokenName(t *testing.T) {
	if TokenName(FLOW_APPEND) != "FLOW_APPEND" {
		t.Fatalf("got %s", TokenName(FLOW_APPEND))
	}
	if !strings.HasPrefix(TokenName(TokenType(999)), "TOKEN(") {
		t.Fatalf("got %s", TokenName(TokenType(999)))
	}
}
